/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package picker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/catalog"
	"opsdash/internal/domain"
	"opsdash/internal/layout"
	"opsdash/internal/storage"
)

type countingAdder struct {
	count int
	calls int
}

func (c *countingAdder) WidgetCount() int { return c.count }

func (c *countingAdder) AddWidget(context.Context, string, string) error {
	c.calls++
	c.count++
	return nil
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestTabsAndGroups(t *testing.T) {
	p := New(catalog.Default(), &countingAdder{count: 5})
	tabs := p.Tabs()
	require.NotEmpty(t, tabs)
	assert.Equal(t, TabAll, tabs[0])
	assert.Contains(t, tabs, "storage")

	all := p.Groups(TabAll)
	assert.Len(t, all, len(tabs)-1)
	total := 0
	for _, g := range all {
		total += len(g.Items)
		for _, it := range g.Items {
			assert.Equal(t, g.Category, it.Definition.Category)
			assert.False(t, it.Disabled)
		}
	}
	assert.Equal(t, len(catalog.Default().All()), total)

	storageOnly := p.Groups("storage")
	require.Len(t, storageOnly, 1)
	assert.Equal(t, "zone-storage-usage", storageOnly[0].Items[0].Definition.Type)

	assert.Empty(t, p.Groups("nope"))
	assert.Equal(t, all, p.Groups(""))
}

func TestSelectMintsTimestampID(t *testing.T) {
	a := &countingAdder{count: 5}
	p := New(catalog.Default(), a, WithClock(fixedClock(1699999999999)))
	id, err := p.Select(context.Background(), "zone-storage-usage")
	require.NoError(t, err)
	assert.Equal(t, "zone-storage-usage-1699999999999", id)
	assert.Equal(t, "zone-storage-usage", domain.DeriveWidgetType(id))
	assert.Equal(t, 1, a.calls)
}

func TestSelectDisabledAtCapacity(t *testing.T) {
	a := &countingAdder{count: domain.MaxWidgets}
	p := New(catalog.Default(), a)
	assert.True(t, p.Full())
	for _, g := range p.Groups(TabAll) {
		for _, it := range g.Items {
			assert.True(t, it.Disabled)
		}
	}
	_, err := p.Select(context.Background(), "dns-queries")
	require.ErrorIs(t, err, ErrPickerFull)
	assert.Zero(t, a.calls, "controller must not be called when full")
}

func TestSelectSameMillisecondMintsDistinctIDs(t *testing.T) {
	ctx := context.Background()
	ctrl := layout.New(ctx, storage.NewStore(storage.NewMemoryBackend()), catalog.Default(), "p")
	p := New(catalog.Default(), ctrl, WithClock(fixedClock(1700000000000)))

	id1, err := p.Select(ctx, "backup-status")
	require.NoError(t, err)
	id2, err := p.Select(ctx, "backup-status")
	require.NoError(t, err)

	assert.Equal(t, "backup-status-1700000000000", id1)
	assert.Equal(t, "backup-status-1700000000001", id2)
	assert.Equal(t, 7, ctrl.WidgetCount())
	assert.True(t, ctrl.Layouts().Has(domain.BreakpointLG, id2))
}

type takenAdder struct{ calls int }

func (a *takenAdder) WidgetCount() int { return 5 }

func (a *takenAdder) AddWidget(context.Context, string, string) error {
	a.calls++
	return layout.ErrDuplicateInstance
}

func TestSelectGivesUpWhenEveryIDIsTaken(t *testing.T) {
	a := &takenAdder{}
	p := New(catalog.Default(), a, WithClock(fixedClock(1700000000000)))
	id, err := p.Select(context.Background(), "dns-queries")
	require.ErrorIs(t, err, layout.ErrDuplicateInstance)
	assert.Empty(t, id)
	assert.Equal(t, mintAttempts, a.calls)
}

func TestSelectAgainstController(t *testing.T) {
	ctx := context.Background()
	ctrl := layout.New(ctx, storage.NewStore(storage.NewMemoryBackend()), catalog.Default(), "p")
	ms := int64(1700000000000)
	p := New(catalog.Default(), ctrl, WithClock(func() time.Time { ms++; return time.UnixMilli(ms) }))

	for ctrl.WidgetCount() < domain.MaxWidgets {
		_, err := p.Select(ctx, "backup-status")
		require.NoError(t, err)
	}
	_, err := p.Select(ctx, "backup-status")
	assert.ErrorIs(t, err, ErrPickerFull)

	ctrl.RemoveWidget(ctx, "system-health-default")
	_, err = p.Select(ctx, "not-in-catalog")
	assert.ErrorIs(t, err, layout.ErrUnknownWidgetType)
}
