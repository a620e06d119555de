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
	"io"

	"github.com/jung-kurt/gofpdf"

	"opsdash/internal/grid"
	"opsdash/internal/version"
)

// WritePDF writes the frame as a single-page PDF sized to the sheet.
// Built-in Helvetica keeps text vector without embedding.
func WritePDF(w io.Writer, f grid.Frame, opt Options) error {
	s := layoutSheet(f, opt)

	// Use points for 1:1 mapping from sheet units to PDF
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: s.W, Ht: s.H},
	})
	pdf.SetTitle(s.Title, false)
	pdf.SetCreator("opsdash "+version.String(), false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: s.W, Ht: s.H})

	setTextColor(pdf, textColor)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(s.Margin, s.TitleY, s.Title)

	if opt.IncludeGrid {
		setDrawColor(pdf, guideColor)
		pdf.SetLineWidth(0.3)
		for c := 0; c <= s.Cols; c++ {
			x := s.Margin + float64(c)*s.CellW
			pdf.Line(x, s.GridTop, x, s.GridTop+s.GridH)
		}
	}

	setDrawColor(pdf, strokeCol)
	pdf.SetLineWidth(1)
	for _, b := range s.Boxes {
		setFillColor(pdf, b.Fill)
		pdf.Rect(b.X+2, b.Y+2, b.W-4, b.H-4, "FD")
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(b.X+8, b.Y+18, fitText(pdf, b.Type, b.W-16))
		pdf.SetFont("Helvetica", "", 8)
		pdf.Text(b.X+8, b.Y+31, fitText(pdf, b.ID, b.W-16))
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fitText trims s until it fits maxW at the current font.
func fitText(pdf *gofpdf.Fpdf, s string, maxW float64) string {
	for len(s) > 0 && pdf.GetStringWidth(s) > maxW {
		s = s[:len(s)-1]
	}
	return s
}

func setDrawColor(pdf *gofpdf.Fpdf, c rgb) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c rgb) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c rgb) {
	pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
}
