/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/domain"
)

type failingBackend struct {
	*MemoryBackend
	putErr error
	getErr error
}

func (f *failingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryBackend.Get(ctx, key)
}

func (f *failingBackend) Put(ctx context.Context, key string, value []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.MemoryBackend.Put(ctx, key, value)
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "dashboard-layout-alice", StorageKey("alice"))
	assert.Equal(t, "dashboard-layout-anonymous", StorageKey(""))
	assert.Equal(t, "dashboard-layout-anonymous", StorageKey("  "))
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	s := NewStore(NewMemoryBackend())
	set := s.Load(context.Background(), "nobody")
	assert.Equal(t, domain.DefaultLayoutSet(), set)
}

func TestLoadCorruptOrInvalidReturnsDefault(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":        `{"lg": [`,
		"null":            `null`,
		"array":           `[]`,
		"missing lg":      `{"md": []}`,
		"empty id":        `{"lg": [{"i": "", "x": 0, "y": 0, "w": 1, "h": 1}]}`,
		"negative x":      `{"lg": [{"i": "a-default", "x": -1, "y": 0, "w": 1, "h": 1}]}`,
		"zero width":      `{"lg": [{"i": "a-default", "x": 0, "y": 0, "w": 0, "h": 1}]}`,
		"fractional":      `{"lg": [{"i": "a-default", "x": 0.5, "y": 0, "w": 1, "h": 1}]}`,
		"breakpoint type": `{"lg": [], "md": "oops"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			mb := NewMemoryBackend()
			require.NoError(t, mb.Put(ctx, StorageKey("u"), []byte(raw)))
			got := NewStore(mb).Load(ctx, "u")
			assert.Equal(t, domain.DefaultLayoutSet(), got)
		})
	}
}

func TestLoadReadErrorReturnsDefault(t *testing.T) {
	b := &failingBackend{MemoryBackend: NewMemoryBackend(), getErr: errors.New("disk on fire")}
	got := NewStore(b).Load(context.Background(), "u")
	assert.Equal(t, domain.DefaultLayoutSet(), got)
}

func TestLoadTruncatesOversizedLG(t *testing.T) {
	ctx := context.Background()
	entries := make([]domain.LayoutEntry, 15)
	for i := range entries {
		entries[i] = domain.LayoutEntry{ID: fmt.Sprintf("dns-queries-%d", 1700000000000+i), Y: i * 4, W: 4, H: 4}
	}
	raw := fmt.Sprintf(`{"lg": %s}`, mustJSON(t, entries))
	mb := NewMemoryBackend()
	require.NoError(t, mb.Put(ctx, StorageKey("u"), []byte(raw)))

	got := NewStore(mb).Load(ctx, "u")
	require.Len(t, got[domain.BreakpointLG], domain.MaxWidgets)
	assert.Equal(t, entries[:domain.MaxWidgets], got[domain.BreakpointLG])
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend())
	set := domain.LayoutSet{
		domain.BreakpointLG: domain.DefaultLayout(),
		domain.BreakpointMD: {{ID: "dns-queries-1700000000000", X: 0, Y: 0, W: 4, H: 4, MinW: 3, MinH: 4}},
		domain.BreakpointXS: {},
	}
	require.NoError(t, s.Save(ctx, "bob", set))
	assert.Equal(t, set, s.Load(ctx, "bob"))
}

func TestSaveRefusesRecordThatWouldNotReadBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend())
	kept := domain.LayoutSet{domain.BreakpointLG: domain.DefaultLayout()[:3]}
	require.NoError(t, s.Save(ctx, "u", kept))

	for name, bad := range map[string]domain.LayoutEntry{
		"zero width":   {ID: "dns-queries-1", W: 0, H: 4},
		"negative x":   {ID: "dns-queries-1", X: -1, W: 4, H: 4},
		"missing id":   {ID: "", W: 4, H: 4},
		"negative min": {ID: "dns-queries-1", W: 4, H: 4, MinW: -3},
	} {
		set := domain.LayoutSet{domain.BreakpointLG: append(domain.DefaultLayout(), bad)}
		err := s.Save(ctx, "u", set)
		require.ErrorIs(t, err, ErrSchema, name)
		assert.Equal(t, kept, s.Load(ctx, "u"), "%s: previous record must survive", name)
	}
}

func TestSaveTruncatesWithoutMutatingInput(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend())
	entries := make([]domain.LayoutEntry, 14)
	for i := range entries {
		entries[i] = domain.LayoutEntry{ID: fmt.Sprintf("w-%d", i), W: 1, H: 1}
	}
	set := domain.LayoutSet{domain.BreakpointLG: entries}
	require.NoError(t, s.Save(ctx, "u", set))
	assert.Len(t, set[domain.BreakpointLG], 14)
	assert.Len(t, s.Load(ctx, "u")[domain.BreakpointLG], domain.MaxWidgets)
}

func TestSaveWithoutLGStillLoads(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend())
	set := domain.LayoutSet{domain.BreakpointSM: {{ID: "a-default", W: 1, H: 1}}}
	require.NoError(t, s.Save(ctx, "u", set))
	got := s.Load(ctx, "u")
	assert.Empty(t, got[domain.BreakpointLG])
	assert.Len(t, got[domain.BreakpointSM], 1)
}

func TestSaveReturnsWriteError(t *testing.T) {
	b := &failingBackend{MemoryBackend: NewMemoryBackend(), putErr: errors.New("quota exceeded")}
	err := NewStore(b).Save(context.Background(), "u", domain.DefaultLayoutSet())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestResetWritesDefault(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend())
	require.NoError(t, s.Save(ctx, "u", domain.LayoutSet{domain.BreakpointLG: {}}))
	got, err := s.Reset(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLayoutSet(), got)
	assert.Equal(t, domain.DefaultLayoutSet(), s.Load(ctx, "u"))
}

func TestValidateAcceptsExtraEntryFields(t *testing.T) {
	raw := `{"lg": [{"i": "a-default", "x": 0, "y": 0, "w": 2, "h": 2, "static": true}]}`
	assert.NoError(t, Validate([]byte(raw)))
	err := Validate([]byte(`{"lg": [{"i": "a"}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open(context.Background(), Options{Kind: "redis"})
	require.Error(t, err)
	b, err := Open(context.Background(), Options{Kind: KindMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)
}
