/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package grid

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/catalog"
	"opsdash/internal/domain"
	"opsdash/internal/layout"
	"opsdash/internal/storage"
)

func TestEveryStarterIDResolvesToCatalogType(t *testing.T) {
	cat := catalog.Default()
	for _, e := range domain.DefaultLayout() {
		_, ok := cat.Lookup(domain.DeriveWidgetType(e.ID))
		assert.True(t, ok, e.ID)
	}
	for _, d := range cat.All() {
		_, ok := cat.Lookup(domain.DeriveWidgetType(d.Type + "-1699999999999"))
		assert.True(t, ok, "picker-generated id for %s must resolve", d.Type)
	}
}

func TestSnapGeometryClamps(t *testing.T) {
	g := SnapGeometry{}
	in := []domain.LayoutEntry{{ID: "a-default", X: 0, Y: 0, W: 4, H: 4, MinW: 3, MinH: 4}}

	out, err := g.Move(in, "a-default", 11, -3, 12)
	require.NoError(t, err)
	assert.Equal(t, 8, out[0].X, "kept inside the right edge")
	assert.Equal(t, 0, out[0].Y)
	assert.Equal(t, 0, in[0].X, "input not mutated")

	out, err = g.Resize(in, "a-default", 1, 1, 12)
	require.NoError(t, err)
	assert.Equal(t, 3, out[0].W)
	assert.Equal(t, 4, out[0].H)

	out, err = g.Resize(in, "a-default", 6, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, out[0].W, "columns win over minW on narrow grids")

	_, err = g.Move(in, "missing", 0, 0, 12)
	assert.ErrorIs(t, err, ErrNoSuchEntry)
}

func TestProjectSkipsOrphansWithoutTouchingLayout(t *testing.T) {
	r := NewRenderer(nil)
	r.RegisterPlaceholders(catalog.Default().All())
	set := domain.LayoutSet{domain.BreakpointLG: append(domain.DefaultLayout(),
		domain.LayoutEntry{ID: "retired-widget-1699999999999", X: 0, Y: 8, W: 4, H: 4})}
	before := set.Clone()

	f := r.Project(set, domain.BreakpointLG)
	assert.Len(t, f.Tiles, 5)
	assert.Equal(t, []string{"retired-widget-1699999999999"}, f.Orphans)
	assert.False(t, f.OverCapacity)
	assert.Equal(t, before, set)
	assert.Equal(t, "security-overview", f.Tiles[0].Type)
	assert.Equal(t, 8, f.Rows())
}

func TestProjectWarnsOverCapacity(t *testing.T) {
	r := NewRenderer(nil)
	r.Register("dns-queries", SlotFunc(func(string, int, int) string { return "" }))
	entries := make([]domain.LayoutEntry, 14)
	for i := range entries {
		entries[i] = domain.LayoutEntry{ID: "dns-queries-" + strings.Repeat("1", i+1), Y: i, W: 1, H: 1}
	}
	f := r.Project(domain.LayoutSet{domain.BreakpointLG: entries}, domain.BreakpointLG)
	assert.True(t, f.OverCapacity)
	assert.Len(t, f.Tiles, 14, "rendering is never blocked")
}

func TestProjectFallsBackToLG(t *testing.T) {
	r := NewRenderer(nil)
	r.RegisterPlaceholders(catalog.Default().All())
	f := r.Project(domain.DefaultLayoutSet(), domain.BreakpointXS)
	assert.Equal(t, domain.BreakpointXS, f.Breakpoint.Name)
	assert.Len(t, f.Tiles, 5)

	f = r.Project(domain.DefaultLayoutSet(), "bogus")
	assert.Equal(t, domain.BreakpointLG, f.Breakpoint.Name)
}

func TestGesturesSaveThroughController(t *testing.T) {
	ctx := context.Background()
	st := storage.NewStore(storage.NewMemoryBackend())
	ctrl := layout.New(ctx, st, catalog.Default(), "g")
	r := NewRenderer(nil)

	require.NoError(t, r.Move(ctx, ctrl, domain.BreakpointLG, "quick-actions-default", 0, 12))
	lg := ctrl.CurrentLayout()
	i := domain.IndexOf(lg, "quick-actions-default")
	assert.Equal(t, 0, lg[i].X)
	assert.Equal(t, 12, lg[i].Y)
	assert.Equal(t, ctrl.Layouts(), st.Load(ctx, "g"))

	require.NoError(t, r.Resize(ctx, ctrl, domain.BreakpointMD, "security-overview-default", 12, 6))
	md := ctrl.Layouts()[domain.BreakpointMD]
	require.Len(t, md, 5, "md seeded from lg")
	assert.Equal(t, 12, md[0].W)

	assert.Error(t, r.Move(ctx, ctrl, "xl", "quick-actions-default", 0, 0))
	assert.ErrorIs(t, r.Move(ctx, ctrl, domain.BreakpointLG, "nope-1", 0, 0), ErrNoSuchEntry)
}

func TestRenderText(t *testing.T) {
	r := NewRenderer(nil)
	r.RegisterPlaceholders(catalog.Default().All())
	set := domain.DefaultLayoutSet()
	set[domain.BreakpointLG] = append(set[domain.BreakpointLG], domain.LayoutEntry{ID: "gone-1", X: 0, Y: 8, W: 2, H: 2})
	out := RenderText(r.Project(set, domain.BreakpointLG), TextOptions{Legend: true})

	assert.Contains(t, out, "lg  12 cols  5 widgets")
	assert.Contains(t, out, "security-overview")
	assert.Contains(t, out, "quick-actions")
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "hidden (no renderer): gone-1")
	assert.Contains(t, out, "x=6 y=0 w=6 h=4")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "…", truncate("abcdef", 1))
	assert.Equal(t, "", truncate("abcdef", 0))
}
