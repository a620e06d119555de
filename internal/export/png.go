/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"opsdash/internal/grid"
)

// labelFace is a fixed 7x13 bitmap face, so output is identical on every machine.
var labelFace = basicfont.Face7x13

// WritePNG rasterizes the frame. Labels that do not fit a tile are clipped.
func WritePNG(w io.Writer, f grid.Frame, opt Options) error {
	s := layoutSheet(f, opt)
	pixW := int(math.Round(s.W))
	pixH := int(math.Round(s.H))
	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	// Background white
	draw.Draw(img, img.Bounds(), &image.Uniform{C: toRGBA(background)}, image.Point{}, draw.Src)

	if opt.IncludeGrid {
		gc := toRGBA(guideColor)
		for c := 0; c <= s.Cols; c++ {
			x := int(math.Round(s.Margin + float64(c)*s.CellW))
			for y := int(s.GridTop); y < int(s.GridTop+s.GridH); y++ {
				img.SetRGBA(x, y, gc)
			}
		}
	}

	drawLabel(img, int(s.Margin), int(s.TitleY), s.Title, pixW-int(2*s.Margin))

	sc := toRGBA(strokeCol)
	for _, b := range s.Boxes {
		x0 := int(math.Round(b.X))
		y0 := int(math.Round(b.Y))
		x1 := int(math.Round(b.X+b.W)) - 1
		y1 := int(math.Round(b.Y+b.H)) - 1
		// leave a 2px gutter between neighbours
		fillRect(img, x0+2, y0+2, x1-2, y1-2, toRGBA(b.Fill))
		strokeRect(img, x0+2, y0+2, x1-2, y1-2, sc)
		avail := x1 - x0 - 12
		drawLabel(img, x0+6, y0+18, b.Type, avail)
		drawLabel(img, x0+6, y0+34, b.ID, avail)
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func drawLabel(img *image.RGBA, x, baseline int, s string, maxPx int) {
	adv := labelFace.Advance
	if adv <= 0 || maxPx < adv {
		return
	}
	if n := maxPx / adv; len(s) > n {
		s = s[:n]
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(toRGBA(textColor)),
		Face: labelFace,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

func toRGBA(c rgb) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	// top and bottom
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	// left and right
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}
