/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"testing"

	"opsdash/internal/domain"
	"opsdash/internal/grid"
)

func TestCellsFor(t *testing.T) {
	c := CellsFor(1200, 12, 0)
	if c.W != 100 || c.H != DefaultRowHeight || c.Cols != 12 {
		t.Fatalf("unexpected cells %+v", c)
	}
	if z := CellsFor(0, 0, 10); z.W != 1 || z.Cols != 1 {
		t.Fatalf("degenerate sizes should clamp: %+v", z)
	}
}

func TestCellsRectSnapHit(t *testing.T) {
	c := Cells{W: 100, H: 50, Cols: 12}
	e := domain.LayoutEntry{ID: "a", X: 2, Y: 1, W: 3, H: 2}
	x, y, w, h := c.Rect(e)
	if x != 200 || y != 50 || w != 300 || h != 100 {
		t.Fatalf("rect = %v %v %v %v", x, y, w, h)
	}
	if dx, dy := c.Snap(149, -26); dx != 1 || dy != -1 {
		t.Fatalf("snap = %d %d", dx, dy)
	}
	tiles := []grid.Tile{
		{Entry: domain.LayoutEntry{ID: "under", X: 0, Y: 0, W: 6, H: 4}},
		{Entry: domain.LayoutEntry{ID: "over", X: 2, Y: 1, W: 2, H: 2}},
	}
	if i := c.Hit(tiles, 250, 75); i != 1 {
		t.Fatalf("overlap should hit the top tile, got %d", i)
	}
	if i := c.Hit(tiles, 50, 10); i != 0 {
		t.Fatalf("hit = %d", i)
	}
	if i := c.Hit(tiles, 1000, 1000); i != -1 {
		t.Fatalf("miss should be -1, got %d", i)
	}
	f := grid.Frame{Tiles: tiles}
	if c.Height(f) != float32(f.Rows())*50 {
		t.Fatalf("height mismatch")
	}
}
