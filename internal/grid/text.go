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
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"opsdash/internal/domain"
)

// TextOptions controls the terminal projection.
type TextOptions struct {
	// ColWidth is characters per grid column; 0 spreads 72 characters over the breakpoint's columns.
	ColWidth int
	// RowHeight is lines per grid row; 0 means 2.
	RowHeight int
	// Legend appends one line per tile with its id, type and geometry.
	Legend bool
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	canvasStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	legendStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tileBorder  = lipgloss.RoundedBorder()
)

// RenderText draws the frame as boxes on a character grid. Overlapping tiles are drawn in
// list order, later ones on top.
func RenderText(f Frame, opts TextOptions) string {
	cols := max(f.Breakpoint.Cols, 1)
	colW := opts.ColWidth
	if colW <= 0 {
		colW = max(72/cols, 3)
	}
	rowH := opts.RowHeight
	if rowH <= 0 {
		rowH = 2
	}
	rows := max(f.Rows(), 1)
	cv := newCanvas(cols*colW, rows*rowH)
	for _, t := range f.Tiles {
		e := t.Entry
		x0, y0 := e.X*colW, e.Y*rowH
		w, h := e.W*colW, e.H*rowH
		cv.box(x0, y0, w, h)
		lines := []string{t.Type, e.ID}
		if t.Slot != nil {
			if body := strings.TrimSpace(t.Slot.Render(e.ID, w-2, h-2)); body != "" {
				lines = append(lines, strings.Split(body, "\n")...)
			}
		}
		for k, s := range lines {
			if k >= h-2 {
				break
			}
			cv.text(x0+1, y0+1+k, truncate(s, w-2))
		}
	}

	header := headerStyle.Render(fmt.Sprintf("%s  %d cols  %d widgets", f.Breakpoint.Name, cols, len(f.Tiles)))
	parts := []string{header, canvasStyle.Render(cv.String())}
	if f.OverCapacity {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("warning: more than %d widgets placed", domain.MaxWidgets)))
	}
	if len(f.Orphans) > 0 {
		parts = append(parts, warnStyle.Render("hidden (no renderer): "+strings.Join(f.Orphans, ", ")))
	}
	if opts.Legend {
		for _, t := range f.Tiles {
			e := t.Entry
			parts = append(parts, legendStyle.Render(fmt.Sprintf("%-32s %-20s x=%d y=%d w=%d h=%d", e.ID, t.Type, e.X, e.Y, e.W, e.H)))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

type canvas struct {
	w, h  int
	cells [][]rune
}

func newCanvas(w, h int) *canvas {
	cells := make([][]rune, h)
	for i := range cells {
		cells[i] = []rune(strings.Repeat(" ", w))
	}
	return &canvas{w: w, h: h, cells: cells}
}

func (c *canvas) set(x, y int, r rune) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = r
}

func (c *canvas) box(x, y, w, h int) {
	if w < 2 || h < 2 {
		return
	}
	hz, vt := firstRune(tileBorder.Top), firstRune(tileBorder.Left)
	for i := x + 1; i < x+w-1; i++ {
		c.set(i, y, hz)
		c.set(i, y+h-1, hz)
	}
	for j := y + 1; j < y+h-1; j++ {
		c.set(x, j, vt)
		c.set(x+w-1, j, vt)
		for i := x + 1; i < x+w-1; i++ {
			c.set(i, j, ' ')
		}
	}
	c.set(x, y, firstRune(tileBorder.TopLeft))
	c.set(x+w-1, y, firstRune(tileBorder.TopRight))
	c.set(x, y+h-1, firstRune(tileBorder.BottomLeft))
	c.set(x+w-1, y+h-1, firstRune(tileBorder.BottomRight))
}

func (c *canvas) text(x, y int, s string) {
	for i, r := range []rune(s) {
		c.set(x+i, y, r)
	}
}

func (c *canvas) String() string {
	lines := make([]string, c.h)
	for i, row := range c.cells {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return ' '
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
