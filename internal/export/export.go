/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a projected dashboard frame as a static preview sheet
// (PNG, SVG or PDF). One grid unit maps to a fixed cell size; every tile is
// drawn as a filled box labelled with its widget type and instance id.
package export

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"opsdash/internal/grid"
)

// Options controls sheet geometry. Units are pixels for PNG, user units for SVG and points for PDF.
// Zero values pick defaults.
type Options struct {
	CellW  float64 // width of one grid column; default 48
	CellH  float64 // height of one grid row; default 32
	Margin float64 // outer margin; default 16
	Title  string  // optional heading; defaults to "<bp> layout"
	// IncludeGrid draws faint column guides behind the tiles.
	IncludeGrid bool
}

type rgb struct{ R, G, B uint8 }

var (
	background = rgb{255, 255, 255}
	guideColor = rgb{225, 228, 232}
	strokeCol  = rgb{60, 64, 72}
	textColor  = rgb{20, 20, 20}
	// palette is indexed by a hash of the widget type so a type keeps its colour across exports.
	palette = []rgb{
		{207, 226, 243}, {217, 234, 211}, {255, 242, 204}, {244, 204, 204},
		{217, 210, 233}, {208, 224, 227}, {252, 229, 205}, {234, 209, 220},
	}
)

func colorFor(widgetType string) rgb {
	h := fnv.New32a()
	_, _ = h.Write([]byte(widgetType))
	return palette[h.Sum32()%uint32(len(palette))]
}

type box struct {
	X, Y, W, H float64
	Fill       rgb
	Type, ID   string
}

// sheet is the resolved drawing: page size, heading and tile boxes in output units.
type sheet struct {
	W, H    float64
	Title   string
	TitleY  float64
	Cols    int
	Margin  float64
	CellW   float64
	GridTop float64
	GridH   float64
	Boxes   []box
}

func (o Options) withDefaults() Options {
	if o.CellW <= 0 {
		o.CellW = 48
	}
	if o.CellH <= 0 {
		o.CellH = 32
	}
	if o.Margin <= 0 {
		o.Margin = 16
	}
	return o
}

func layoutSheet(f grid.Frame, opt Options) sheet {
	opt = opt.withDefaults()
	cols := max(f.Breakpoint.Cols, 1)
	rows := max(f.Rows(), 1)
	title := opt.Title
	if title == "" {
		title = fmt.Sprintf("%s layout", f.Breakpoint.Name)
	}
	const titleH = 24.0
	s := sheet{
		Title:   title,
		TitleY:  opt.Margin + 14,
		Cols:    cols,
		Margin:  opt.Margin,
		CellW:   opt.CellW,
		GridTop: opt.Margin + titleH,
		GridH:   float64(rows) * opt.CellH,
	}
	s.W = 2*opt.Margin + float64(cols)*opt.CellW
	s.H = s.GridTop + s.GridH + opt.Margin
	for _, t := range f.Tiles {
		e := t.Entry
		s.Boxes = append(s.Boxes, box{
			X:    opt.Margin + float64(e.X)*opt.CellW,
			Y:    s.GridTop + float64(e.Y)*opt.CellH,
			W:    float64(e.W) * opt.CellW,
			H:    float64(e.H) * opt.CellH,
			Fill: colorFor(t.Type),
			Type: t.Type,
			ID:   e.ID,
		})
	}
	return s
}

// Format names accepted by ExportFile.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
	FormatPDF = "pdf"
)

// FormatFromPath infers the export format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case FormatPNG, FormatSVG, FormatPDF:
		return ext, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", ext)
	}
}

// ExportFile writes f to path in the format implied by its extension, creating parent directories.
func ExportFile(path string, f grid.Frame, opt Options) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", format, err)
	}
	switch format {
	case FormatPNG:
		err = WritePNG(out, f, opt)
	case FormatSVG:
		err = WriteSVG(out, f, opt)
	default:
		err = WritePDF(out, f, opt)
	}
	if err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", format, err)
	}
	return nil
}
