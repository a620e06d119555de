//go:build fyne && cgo

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
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"opsdash/internal/domain"
	"opsdash/internal/grid"
)

// GridCanvas draws a projected frame as tiles and, in edit mode, turns drags into grid moves.
// Dragging near a tile's bottom-right corner resizes instead of moving.
type GridCanvas struct {
	widget.BaseWidget

	frame    grid.Frame
	editing  bool
	selected int // index into frame.Tiles, -1 if none

	// drag state
	dragIdx    int
	dragResize bool
	dragDX     float32
	dragDY     float32

	// OnMove and OnResize are called at drag end with the target geometry in grid units.
	OnMove   func(id string, x, y int)
	OnResize func(id string, w, h int)
	// OnSelect reports the selected instance id ("" when cleared).
	OnSelect func(id string)
	// OnWidth reports the canvas width so the caller can pick a breakpoint.
	OnWidth func(px float32)
	// Category resolves a widget type to its catalog category for tile colouring.
	Category func(widgetType string) string
}

const resizeHandle float32 = 16

func NewGridCanvas() *GridCanvas {
	g := &GridCanvas{selected: -1, dragIdx: -1}
	g.ExtendBaseWidget(g)
	return g
}

// SetFrame replaces the drawn frame. Selection survives when the instance is still present.
func (g *GridCanvas) SetFrame(f grid.Frame) {
	sel := g.SelectedID()
	g.frame = f
	g.selected = -1
	for i, t := range f.Tiles {
		if t.Entry.ID == sel {
			g.selected = i
		}
	}
	g.Refresh()
}

// SetEditing enables drag gestures.
func (g *GridCanvas) SetEditing(on bool) {
	g.editing = on
	g.Refresh()
}

// SelectedID returns the selected instance id or "".
func (g *GridCanvas) SelectedID() string {
	if g.selected < 0 || g.selected >= len(g.frame.Tiles) {
		return ""
	}
	return g.frame.Tiles[g.selected].Entry.ID
}

func (g *GridCanvas) cells() Cells {
	return CellsFor(g.Size().Width, g.frame.Breakpoint.Cols, DefaultRowHeight)
}

func (g *GridCanvas) Tapped(e *fyne.PointEvent) {
	g.selected = g.cells().Hit(g.frame.Tiles, e.Position.X, e.Position.Y)
	if g.OnSelect != nil {
		g.OnSelect(g.SelectedID())
	}
	g.Refresh()
}

func (g *GridCanvas) Dragged(e *fyne.DragEvent) {
	if !g.editing {
		return
	}
	c := g.cells()
	if g.dragIdx < 0 {
		start := fyne.NewPos(e.Position.X-e.Dragged.DX, e.Position.Y-e.Dragged.DY)
		g.dragIdx = c.Hit(g.frame.Tiles, start.X, start.Y)
		if g.dragIdx < 0 {
			return
		}
		g.selected = g.dragIdx
		x, y, w, h := c.Rect(g.frame.Tiles[g.dragIdx].Entry)
		g.dragResize = start.X >= x+w-resizeHandle && start.Y >= y+h-resizeHandle
		g.dragDX, g.dragDY = 0, 0
	}
	g.dragDX += e.Dragged.DX
	g.dragDY += e.Dragged.DY
	g.Refresh()
}

func (g *GridCanvas) DragEnd() {
	if g.dragIdx < 0 || g.dragIdx >= len(g.frame.Tiles) {
		g.dragIdx = -1
		return
	}
	e := g.frame.Tiles[g.dragIdx].Entry
	dx, dy := g.cells().Snap(g.dragDX, g.dragDY)
	resize := g.dragResize
	g.dragIdx = -1
	g.dragDX, g.dragDY = 0, 0
	if dx == 0 && dy == 0 {
		g.Refresh()
		return
	}
	if resize {
		if g.OnResize != nil {
			g.OnResize(e.ID, e.W+dx, e.H+dy)
		}
		return
	}
	if g.OnMove != nil {
		g.OnMove(e.ID, e.X+dx, e.Y+dy)
	}
}

func (g *GridCanvas) MinSize() fyne.Size {
	return fyne.NewSize(320, max(g.cells().Height(g.frame), DefaultRowHeight*4))
}

func (g *GridCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	return &gridCanvasRenderer{gc: g, bg: bg, objects: []fyne.CanvasObject{bg}}
}

type tileVisual struct {
	box   *canvas.Rectangle
	title *canvas.Text
	body  *canvas.Text
}

// gridCanvasRenderer positions one rectangle and two labels per tile.
type gridCanvasRenderer struct {
	gc        *GridCanvas
	bg        *canvas.Rectangle
	tiles     []tileVisual
	objects   []fyne.CanvasObject
	lastWidth float32
}

func (r *gridCanvasRenderer) Destroy()                     {}
func (r *gridCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *gridCanvasRenderer) MinSize() fyne.Size           { return r.gc.MinSize() }
func (r *gridCanvasRenderer) Refresh()                     { r.Layout(r.gc.Size()); canvas.Refresh(r.gc) }

func (r *gridCanvasRenderer) ensure(n int) {
	for len(r.tiles) < n {
		box := canvas.NewRectangle(color.RGBA{R: 220, G: 220, B: 220, A: 255})
		box.StrokeColor = color.RGBA{R: 90, G: 90, B: 100, A: 255}
		box.StrokeWidth = 1
		box.CornerRadius = 6
		title := canvas.NewText("", color.Black)
		title.TextStyle = fyne.TextStyle{Bold: true}
		title.TextSize = 13
		body := canvas.NewText("", color.RGBA{R: 60, G: 60, B: 60, A: 255})
		body.TextSize = 10
		r.tiles = append(r.tiles, tileVisual{box: box, title: title, body: body})
		r.objects = append(r.objects, box, title, body)
	}
}

func (r *gridCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	if r.gc.OnWidth != nil && size.Width != r.lastWidth {
		r.lastWidth = size.Width
		r.gc.OnWidth(size.Width)
	}

	f := r.gc.frame
	c := CellsFor(size.Width, f.Breakpoint.Cols, DefaultRowHeight)
	r.ensure(len(f.Tiles))
	for i, t := range f.Tiles {
		v := r.tiles[i]
		x, y, w, h := c.Rect(t.Entry)
		if i == r.gc.dragIdx {
			if r.gc.dragResize {
				w, h = max(w+r.gc.dragDX, c.W), max(h+r.gc.dragDY, c.H)
			} else {
				x, y = x+r.gc.dragDX, y+r.gc.dragDY
			}
		}
		const gap = 3
		v.box.Move(fyne.NewPos(x+gap, y+gap))
		v.box.Resize(fyne.NewSize(w-2*gap, h-2*gap))
		v.box.FillColor = r.gc.tileColor(t.Type)
		v.box.StrokeWidth = 1
		if i == r.gc.selected {
			v.box.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
			v.box.StrokeWidth = 2
		} else {
			v.box.StrokeColor = color.RGBA{R: 90, G: 90, B: 100, A: 255}
		}
		v.title.Text = t.Type
		v.title.Move(fyne.NewPos(x+10, y+8))
		v.body.Text = t.Entry.ID
		if t.Slot != nil {
			v.body.Text = firstLine(t.Slot.Render(t.Entry.ID, t.Entry.W, t.Entry.H))
		}
		v.body.Move(fyne.NewPos(x+10, y+28))
		v.box.Show()
		v.title.Show()
		v.body.Show()
		v.box.Refresh()
		v.title.Refresh()
		v.body.Refresh()
	}
	// Hide any surplus visuals
	for j := len(f.Tiles); j < len(r.tiles); j++ {
		r.tiles[j].box.Hide()
		r.tiles[j].title.Hide()
		r.tiles[j].body.Hide()
	}
}

var tileColors = map[string]color.RGBA{
	"security":   {R: 244, G: 204, B: 204, A: 255},
	"network":    {R: 207, G: 226, B: 243, A: 255},
	"operations": {R: 217, G: 234, B: 211, A: 255},
	"storage":    {R: 255, G: 242, B: 204, A: 255},
	"identity":   {R: 217, G: 210, B: 233, A: 255},
}

func (g *GridCanvas) tileColor(widgetType string) color.RGBA {
	if g.Category != nil {
		if c, ok := tileColors[g.Category(widgetType)]; ok {
			return c
		}
	}
	return color.RGBA{R: 225, G: 225, B: 225, A: 255}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// frameForWidth picks the breakpoint for a canvas width in pixels.
func frameForWidth(r *grid.Renderer, set domain.LayoutSet, px float32, override string) grid.Frame {
	bp := override
	if bp == "" {
		bp = domain.BreakpointFor(int(px)).Name
	}
	return r.Project(set, bp)
}
