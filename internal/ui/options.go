/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ui hosts the optional desktop dashboard. The Fyne window is only compiled with
// -tags fyne; the grid math it uses lives here so it can be tested headlessly.
package ui

import (
	"math"

	"opsdash/internal/catalog"
	"opsdash/internal/domain"
	"opsdash/internal/grid"
	"opsdash/internal/layout"
)

// Options wires the desktop UI to its collaborators.
type Options struct {
	Store   layout.Store
	Catalog *catalog.Catalog // nil means the embedded catalog
	UserID  string
	// DataDir receives crash reports and layout autosaves.
	DataDir string
	// Notifier receives notices in addition to the in-window status line.
	Notifier layout.Notifier
}

// Cells maps between canvas pixels and grid units for one breakpoint.
type Cells struct {
	W, H float32 // size of one grid unit in pixels
	Cols int
}

// DefaultRowHeight is the pixel height of one grid row.
const DefaultRowHeight float32 = 48

// CellsFor spreads width over cols columns. Rows are rowH pixels high; rowH <= 0 means DefaultRowHeight.
func CellsFor(width float32, cols int, rowH float32) Cells {
	if cols < 1 {
		cols = 1
	}
	if rowH <= 0 {
		rowH = DefaultRowHeight
	}
	w := width / float32(cols)
	if w < 1 {
		w = 1
	}
	return Cells{W: w, H: rowH, Cols: cols}
}

// Rect returns the pixel rectangle of an entry.
func (c Cells) Rect(e domain.LayoutEntry) (x, y, w, h float32) {
	return float32(e.X) * c.W, float32(e.Y) * c.H, float32(e.W) * c.W, float32(e.H) * c.H
}

// Snap rounds a pixel delta to whole grid units.
func (c Cells) Snap(dx, dy float32) (int, int) {
	return int(math.Round(float64(dx / c.W))), int(math.Round(float64(dy / c.H)))
}

// Hit returns the index of the topmost tile under (px, py), or -1. Later tiles are drawn on top.
func (c Cells) Hit(tiles []grid.Tile, px, py float32) int {
	for i := len(tiles) - 1; i >= 0; i-- {
		x, y, w, h := c.Rect(tiles[i].Entry)
		if px >= x && px < x+w && py >= y && py < y+h {
			return i
		}
	}
	return -1
}

// Height is the pixel height needed to show every row of f.
func (c Cells) Height(f grid.Frame) float32 {
	return float32(f.Rows()) * c.H
}
