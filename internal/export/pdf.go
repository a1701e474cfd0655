/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"

	"sashcad/internal/calc"
	"sashcad/internal/domain"
	"sashcad/internal/geom"
	"sashcad/internal/layers"
	"sashcad/internal/scene"
	"sashcad/internal/version"
)

// PDFOptions controls PDF export behavior.
// Units are millimeters. Vector text uses built-in Helvetica for
// portability; no font embedding.
//
// Page layout:
// - Sheet 1: the technical drawing scaled to fit, plus a title block
//   in the lower right corner.
// - Sheet 2: cutting list table.
// - Sheet 3: shopping list table.
//
// Lineweights are pen widths on paper and are not scaled with the
// geometry; text heights scale with the drawing so the sheet matches
// the other exporters.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	PaperWidth  float64 // default 297 (A4 landscape)
	PaperHeight float64 // default 210
	Margin      float64 // default 15
	Project     string  // title block entries
	Client      string
	Now         time.Time // pins timestamps for reproducible output
}

const (
	titleBlockWidth  = 90.0
	titleBlockHeight = 30.0
)

// ExportWindowPDF renders one window as a production sheet set:
// drawing, cutting list, shopping list.
func ExportWindowPDF(w domain.Window, opt PDFOptions) ([]byte, error) {
	opt = pdfDefaults(opt)

	s, err := scene.Build(w, scene.Options{Now: opt.Now})
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}

	pdf := newSheetPDF(opt, fmt.Sprintf("%s - Production Drawing", w.Name))
	if err := drawingSheet(pdf, s, w, opt); err != nil {
		return nil, err
	}
	cuttingSheet(pdf, w, opt)
	shoppingSheet(pdf, w, opt)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportProjectPDF renders a window schedule followed by one drawing
// sheet per window.
func ExportProjectPDF(p domain.Project, opt PDFOptions) ([]byte, error) {
	opt = pdfDefaults(opt)
	if opt.Project == "" {
		opt.Project = p.Name
	}
	if opt.Client == "" {
		opt.Client = p.ClientName
	}

	pdf := newSheetPDF(opt, fmt.Sprintf("%s - Window Schedule", p.Name))
	schedulePage(pdf, p, opt)
	for i := range p.Windows {
		w := p.Windows[i]
		s, err := scene.Build(w, scene.Options{Now: opt.Now})
		if err != nil {
			return nil, fmt.Errorf("build scene for %s: %w", w.Name, err)
		}
		if err := drawingSheet(pdf, s, w, opt); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfDefaults(opt PDFOptions) PDFOptions {
	if opt.PaperWidth == 0 {
		opt.PaperWidth = 297
	}
	if opt.PaperHeight == 0 {
		opt.PaperHeight = 210
	}
	if opt.Margin == 0 {
		opt.Margin = 15
	}
	return opt
}

func newSheetPDF(opt PDFOptions, title string) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: opt.PaperWidth, Ht: opt.PaperHeight},
		OrientationStr: "",
	})
	pdf.SetTitle(title, false)
	pdf.SetAuthor(version.AppName, false)
	pdf.SetCreator(version.String(), false)
	if !opt.Now.IsZero() {
		pdf.SetCreationDate(opt.Now)
		pdf.SetModificationDate(opt.Now)
	}
	pdf.SetMargins(opt.Margin, opt.Margin, opt.Margin)
	pdf.SetAutoPageBreak(true, opt.Margin)
	pdf.SetFont("Helvetica", "", 10)
	return pdf
}

// drawingSheet draws the scene scaled to fit the content area above
// the title block.
func drawingSheet(pdf *gofpdf.Fpdf, s *scene.Scene, w domain.Window, opt PDFOptions) error {
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: opt.PaperWidth, Ht: opt.PaperHeight})

	b := s.Bounds
	availW := opt.PaperWidth - 2*opt.Margin
	availH := opt.PaperHeight - 2*opt.Margin - titleBlockHeight - 5
	k := math.Min(availW/b.Width(), availH/b.Height())

	offX := opt.Margin + (availW-b.Width()*k)/2
	offY := opt.Margin + (availH-b.Height()*k)/2
	px := func(x float64) float64 { return offX + (x-b.Min.X)*k }
	py := func(y float64) float64 { return offY + (b.Max.Y-y)*k }

	for _, props := range layers.All() {
		for _, p := range s.Primitives(props.Name) {
			if err := drawPDFPrimitive(pdf, px, py, k, props, p); err != nil {
				return err
			}
		}
	}

	titleBlock(pdf, w, opt, k)
	return nil
}

func drawPDFPrimitive(pdf *gofpdf.Fpdf, px, py func(float64) float64, k float64, props layers.Properties, p scene.Primitive) error {
	setDrawColor(pdf, props.Color)
	pdf.SetLineWidth(props.Lineweight)
	setDashPattern(pdf, props.Linetype, k)

	switch v := p.(type) {
	case scene.Rectangle:
		if v.StrokeWidth != 0 {
			pdf.SetLineWidth(v.StrokeWidth)
		}
		x, y := px(v.X), py(v.Y+v.Height)
		if v.Fill {
			op := v.Opacity
			if op == 0 {
				op = 1
			}
			setFillColor(pdf, props.Color)
			pdf.SetAlpha(op, "Normal")
			pdf.Rect(x, y, v.Width*k, v.Height*k, "FD")
			pdf.SetAlpha(1, "Normal")
		} else {
			pdf.Rect(x, y, v.Width*k, v.Height*k, "D")
		}
	case scene.Line:
		if v.StrokeWidth != 0 {
			pdf.SetLineWidth(v.StrokeWidth)
		}
		pdf.Line(px(v.Start.X), py(v.Start.Y), px(v.End.X), py(v.End.Y))
	case scene.Text:
		pdfText(pdf, px(v.Position.X), py(v.Position.Y), v.Height*k, v.Rotation, v.Align, v.Content)
	case scene.Dimension:
		pdf.Line(px(v.Measure.Start.X), py(v.Measure.Start.Y), px(v.Measure.End.X), py(v.Measure.End.Y))
		for _, ext := range v.Extensions {
			pdf.Line(px(ext.Start.X), py(ext.Start.Y), px(ext.End.X), py(ext.End.Y))
		}
		setFillColor(pdf, props.Color)
		for _, a := range v.Arrows {
			poly := a.Polygon()
			pts := make([]gofpdf.PointType, len(poly))
			for i, pt := range poly {
				pts[i] = gofpdf.PointType{X: px(pt.X), Y: py(pt.Y)}
			}
			pdf.Polygon(pts, "F")
		}
		if v.Label.Text != "" {
			pdfText(pdf, px(v.Label.Position.X), py(v.Label.Position.Y), v.Label.Height*k, v.Label.Rotation, scene.AlignCenter, v.Label.Text)
		}
	case scene.Point:
		setFillColor(pdf, props.Color)
		pdf.Circle(px(v.Position.X), py(v.Position.Y), props.Lineweight, "F")
	default:
		return unsupported(FormatPDF, p)
	}
	return nil
}

// pdfText places one anchored label. gofpdf rotations are
// counter-clockwise around the given point, matching the scene's
// convention after the Y flip.
func pdfText(pdf *gofpdf.Fpdf, x, y, heightMM, rotation float64, align scene.TextAlign, content string) {
	if heightMM <= 0 {
		return
	}
	pdf.SetFont("Helvetica", "", geom.ToPoints(heightMM))
	tw := pdf.GetStringWidth(content)
	dx := 0.0
	switch align {
	case scene.AlignCenter:
		dx = -tw / 2
	case scene.AlignRight:
		dx = -tw
	}
	baseline := heightMM * 0.35 // visual middle for Helvetica

	if rotation != 0 {
		pdf.TransformBegin()
		pdf.TransformRotate(rotation, x, y)
		pdf.Text(x+dx, y+baseline, content)
		pdf.TransformEnd()
		return
	}
	pdf.Text(x+dx, y+baseline, content)
}

func titleBlock(pdf *gofpdf.Fpdf, w domain.Window, opt PDFOptions, k float64) {
	x := opt.PaperWidth - opt.Margin - titleBlockWidth
	y := opt.PaperHeight - opt.Margin - titleBlockHeight
	rowH := titleBlockHeight / 6
	labelW := 25.0

	pdf.SetDashPattern([]float64{}, 0)
	setDrawColor(pdf, layers.RGB(0, 0, 0))
	pdf.SetLineWidth(0.4)
	pdf.Rect(x, y, titleBlockWidth, titleBlockHeight, "D")

	scaleDenom := int(math.Ceil(1 / k))
	rows := [][2]string{
		{"Project", opt.Project},
		{"Client", opt.Client},
		{"Window", w.Name},
		{"Size", fmt.Sprintf("%.0f x %.0f mm", w.Frame.Width, w.Frame.Height)},
		{"Paint", w.PaintColor},
		{"Scale", fmt.Sprintf("1:%d", scaleDenom)},
	}
	pdf.SetLineWidth(0.2)
	for i, row := range rows {
		ry := y + float64(i)*rowH
		if i > 0 {
			pdf.Line(x, ry, x+titleBlockWidth, ry)
		}
		pdf.SetFont("Helvetica", "B", 7)
		pdf.Text(x+1.5, ry+rowH-1.4, row[0])
		pdf.SetFont("Helvetica", "", 7)
		pdf.Text(x+labelW, ry+rowH-1.4, row[1])
	}
	pdf.Line(x+labelW-1.5, y, x+labelW-1.5, y+titleBlockHeight)
}

func cuttingSheet(pdf *gofpdf.Fpdf, w domain.Window, opt PDFOptions) {
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: opt.PaperWidth, Ht: opt.PaperHeight})
	sheetHeading(pdf, opt, fmt.Sprintf("Cutting List - %s", w.Name))

	widths := []float64{90, 20, 35, 45}
	headers := []string{"Section", "Qty", "Length (mm)", "Wood"}
	tableHeader(pdf, opt, widths, headers)

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range calc.CuttingList(w) {
		pdf.CellFormat(widths[0], 6, item.Section, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", item.Qty), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.1f", item.Length), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, item.WoodType, "1", 1, "L", false, 0, "")
	}
}

func shoppingSheet(pdf *gofpdf.Fpdf, w domain.Window, opt PDFOptions) {
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: opt.PaperWidth, Ht: opt.PaperHeight})
	sheetHeading(pdf, opt, fmt.Sprintf("Shopping List - %s", w.Name))

	widths := []float64{70, 20, 100}
	headers := []string{"Item", "Qty", "Specification"}
	tableHeader(pdf, opt, widths, headers)

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range calc.ShoppingList(w) {
		pdf.CellFormat(widths[0], 6, item.Item, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", item.Qty), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, item.Specification, "1", 1, "L", false, 0, "")
	}
}

func schedulePage(pdf *gofpdf.Fpdf, p domain.Project, opt PDFOptions) {
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: opt.PaperWidth, Ht: opt.PaperHeight})
	sheetHeading(pdf, opt, fmt.Sprintf("Window Schedule - %s", p.Name))

	widths := []float64{50, 30, 30, 45, 45, 20}
	headers := []string{"Window", "Width (mm)", "Height (mm)", "Paint", "Hardware", "Bars"}
	tableHeader(pdf, opt, widths, headers)

	pdf.SetFont("Helvetica", "", 9)
	for i := range p.Windows {
		w := p.Windows[i]
		bars := fmt.Sprintf("%dV/%dH", w.BarsTop.VerticalBars, w.BarsTop.HorizontalBars)
		pdf.CellFormat(widths[0], 6, w.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%.0f", w.Frame.Width), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.0f", w.Frame.Height), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, w.PaintColor, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 6, w.HardwareFinish, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[5], 6, bars, "1", 1, "C", false, 0, "")
	}
}

func sheetHeading(pdf *gofpdf.Fpdf, opt PDFOptions, title string) {
	pdf.SetXY(opt.Margin, opt.Margin)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetX(opt.Margin)
}

func tableHeader(pdf *gofpdf.Fpdf, opt PDFOptions, widths []float64, headers []string) {
	pdf.SetX(opt.Margin)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		last := i == len(headers)-1
		br := 0
		if last {
			br = 1
		}
		pdf.CellFormat(widths[i], 7, h, "1", br, "L", true, 0, "")
	}
}

func setDashPattern(pdf *gofpdf.Fpdf, lt layers.Linetype, k float64) {
	mm := dxfLinePatterns[lt]
	if len(mm) == 0 {
		pdf.SetDashPattern([]float64{}, 0)
		return
	}
	out := make([]float64, len(mm))
	for i, e := range mm {
		out[i] = math.Abs(e) * k
	}
	pdf.SetDashPattern(out, 0)
}

func setDrawColor(pdf *gofpdf.Fpdf, c layers.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c layers.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
