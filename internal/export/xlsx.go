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
	"time"

	"github.com/xuri/excelize/v2"

	"sashcad/internal/calc"
	"sashcad/internal/domain"
	"sashcad/internal/version"
)

// XLSXOptions controls workbook export.
type XLSXOptions struct {
	Project string
	Client  string
	Now     time.Time // pins document timestamps for reproducible output
}

const (
	sheetSummary  = "Summary"
	sheetCutting  = "Cutting List"
	sheetShopping = "Shopping List"
)

// ExportWindowXLSX writes a workbook for a single window.
func ExportWindowXLSX(w domain.Window, opt XLSXOptions) ([]byte, error) {
	return windowsWorkbook([]domain.Window{w}, opt)
}

// ExportProjectXLSX writes one workbook covering every window in the
// project: a summary schedule plus combined cutting and shopping
// lists, each row tagged with its window.
func ExportProjectXLSX(p domain.Project, opt XLSXOptions) ([]byte, error) {
	if opt.Project == "" {
		opt.Project = p.Name
	}
	if opt.Client == "" {
		opt.Client = p.ClientName
	}
	return windowsWorkbook(p.Windows, opt)
}

func windowsWorkbook(windows []domain.Window, opt XLSXOptions) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if !opt.Now.IsZero() {
		stamp := opt.Now.UTC().Format(time.RFC3339)
		if err := f.SetDocProps(&excelize.DocProperties{
			Creator:        version.String(),
			Created:        stamp,
			Modified:       stamp,
			LastModifiedBy: version.AppName,
		}); err != nil {
			return nil, fmt.Errorf("set doc props: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("new style: %w", err)
	}

	if err := summarySheet(f, windows, opt, headerStyle); err != nil {
		return nil, err
	}
	if err := cuttingSheetXLSX(f, windows, headerStyle); err != nil {
		return nil, err
	}
	if err := shoppingSheetXLSX(f, windows, headerStyle); err != nil {
		return nil, err
	}

	// The default sheet is replaced by ours.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(sheetSummary)
	if err != nil {
		return nil, fmt.Errorf("sheet index: %w", err)
	}
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func summarySheet(f *excelize.File, windows []domain.Window, opt XLSXOptions, headerStyle int) error {
	sw := newSheetWriter(f, sheetSummary)
	sw.colWidths(map[string]float64{"A": 24, "B": 14, "C": 14, "D": 18, "E": 18, "F": 10, "G": 10})

	sw.set(1, 1, "Project")
	sw.set(2, 1, opt.Project)
	sw.set(1, 2, "Client")
	sw.set(2, 2, opt.Client)
	sw.set(1, 3, "Windows")
	sw.set(2, 3, len(windows))

	const headerRow = 5
	sw.row(headerRow, "Window", "Width (mm)", "Height (mm)", "Paint", "Hardware", "Glass pcs", "Bars")
	sw.styleRow(headerRow, 7, headerStyle)
	for i := range windows {
		w := windows[i]
		pcs := w.GlassTop.Pieces + w.GlassBottom.Pieces
		bars := fmt.Sprintf("%dV/%dH", w.BarsTop.VerticalBars, w.BarsTop.HorizontalBars)
		sw.row(headerRow+1+i, w.Name, w.Frame.Width, w.Frame.Height, w.PaintColor, w.HardwareFinish, pcs, bars)
	}
	return sw.finish()
}

func cuttingSheetXLSX(f *excelize.File, windows []domain.Window, headerStyle int) error {
	sw := newSheetWriter(f, sheetCutting)
	sw.colWidths(map[string]float64{"A": 24, "B": 30, "C": 8, "D": 14, "E": 16})

	sw.row(1, "Window", "Section", "Qty", "Length (mm)", "Wood Type")
	sw.styleRow(1, 5, headerStyle)
	r := 2
	for i := range windows {
		w := windows[i]
		for _, item := range calc.CuttingList(w) {
			sw.row(r, w.Name, item.Section, item.Qty, item.Length, item.WoodType)
			r++
		}
	}
	return sw.finish()
}

func shoppingSheetXLSX(f *excelize.File, windows []domain.Window, headerStyle int) error {
	sw := newSheetWriter(f, sheetShopping)
	sw.colWidths(map[string]float64{"A": 24, "B": 20, "C": 8, "D": 36})

	sw.row(1, "Window", "Item", "Qty", "Specification")
	sw.styleRow(1, 4, headerStyle)
	r := 2
	for i := range windows {
		w := windows[i]
		for _, item := range calc.ShoppingList(w) {
			sw.row(r, w.Name, item.Item, item.Qty, item.Specification)
			r++
		}
	}
	return sw.finish()
}

// sheetWriter wraps excelize cell writes with a sticky error so sheet
// builders read as data, not error plumbing.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func newSheetWriter(f *excelize.File, sheet string) *sheetWriter {
	sw := &sheetWriter{f: f, sheet: sheet}
	_, sw.err = f.NewSheet(sheet)
	return sw
}

func (sw *sheetWriter) set(col, row int, v any) {
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetCellValue(sw.sheet, cell, v)
}

func (sw *sheetWriter) row(row int, values ...any) {
	for i, v := range values {
		sw.set(i+1, row, v)
	}
}

func (sw *sheetWriter) styleRow(row, cols, styleID int) {
	if sw.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		sw.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetCellStyle(sw.sheet, from, to, styleID)
}

func (sw *sheetWriter) colWidths(widths map[string]float64) {
	if sw.err != nil {
		return
	}
	for col, w := range widths {
		if err := sw.f.SetColWidth(sw.sheet, col, col, w); err != nil {
			sw.err = err
			return
		}
	}
}

func (sw *sheetWriter) finish() error {
	if sw.err != nil {
		return fmt.Errorf("build sheet %s: %w", sw.sheet, sw.err)
	}
	return nil
}
