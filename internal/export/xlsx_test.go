/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"sashcad/internal/domain"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	if err != nil {
		t.Fatalf("cell %s!%s: %v", sheet, ref, err)
	}
	return v
}

func TestWindowXLSXSheets(t *testing.T) {
	data, err := ExportWindowXLSX(testWindow(t), XLSXOptions{Project: "Job 42", Client: "Smith", Now: testNow})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f := openWorkbook(t, data)

	sheets := f.GetSheetList()
	want := []string{"Summary", "Cutting List", "Shopping List"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i, name := range want {
		if sheets[i] != name {
			t.Fatalf("sheet %d = %q, want %q", i, sheets[i], name)
		}
	}
}

func TestWindowXLSXSummary(t *testing.T) {
	data, err := ExportWindowXLSX(testWindow(t), XLSXOptions{Project: "Job 42", Client: "Smith", Now: testNow})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f := openWorkbook(t, data)

	if got := cell(t, f, "Summary", "A1"); got != "Project" {
		t.Fatalf("A1 = %q", got)
	}
	if got := cell(t, f, "Summary", "B1"); got != "Job 42" {
		t.Fatalf("B1 = %q", got)
	}
	if got := cell(t, f, "Summary", "B2"); got != "Smith" {
		t.Fatalf("B2 = %q", got)
	}
	if got := cell(t, f, "Summary", "B3"); got != "1" {
		t.Fatalf("window count B3 = %q", got)
	}
	if got := cell(t, f, "Summary", "A5"); got != "Window" {
		t.Fatalf("schedule header A5 = %q", got)
	}
	if got := cell(t, f, "Summary", "A6"); got != "W-1" {
		t.Fatalf("schedule row A6 = %q", got)
	}
	if got := cell(t, f, "Summary", "B6"); got != "1200" {
		t.Fatalf("frame width B6 = %q", got)
	}
}

func TestWindowXLSXCuttingList(t *testing.T) {
	data, err := ExportWindowXLSX(testWindow(t), XLSXOptions{Now: testNow})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f := openWorkbook(t, data)

	rows, err := f.GetRows("Cutting List")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	// Header plus the eleven standard sections.
	if len(rows) != 12 {
		t.Fatalf("%d rows, want 12", len(rows))
	}
	if rows[0][1] != "Section" || rows[0][3] != "Length (mm)" {
		t.Fatalf("header row: %v", rows[0])
	}
	if rows[1][0] != "W-1" || rows[1][1] != "Jambs" || rows[1][2] != "2" {
		t.Fatalf("first cut row: %v", rows[1])
	}
	for _, row := range rows[1:] {
		if row[4] == "" {
			t.Fatalf("wood type column must be filled: %v", row)
		}
	}
}

func TestWindowXLSXShoppingList(t *testing.T) {
	w := testWindow(t)
	w.PaintColor = "Slate Blue"
	data, err := ExportWindowXLSX(w, XLSXOptions{Now: testNow})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f := openWorkbook(t, data)

	rows, err := f.GetRows("Shopping List")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 9 {
		t.Fatalf("%d rows, want header plus 8 items", len(rows))
	}
	sawPaint := false
	for _, row := range rows[1:] {
		if row[1] == "Paint" && row[3] == "Teknos AquaTop - Slate Blue" {
			sawPaint = true
		}
	}
	if !sawPaint {
		t.Fatalf("paint specification must reflect the window's color")
	}
}

func TestProjectXLSXTagsRowsPerWindow(t *testing.T) {
	p := domain.NewProject("Job 42", "Smith")
	w1 := testWindow(t)
	w2 := testWindow(t)
	w2.Name = "W-2"
	p.AddWindow(w1)
	p.AddWindow(w2)

	data, err := ExportProjectXLSX(p, XLSXOptions{Now: testNow})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f := openWorkbook(t, data)

	rows, err := f.GetRows("Cutting List")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1+11*2 {
		t.Fatalf("%d rows, want 11 per window plus header", len(rows))
	}
	names := map[string]int{}
	for _, row := range rows[1:] {
		names[row[0]]++
	}
	if names["W-1"] != 11 || names["W-2"] != 11 {
		t.Fatalf("rows not tagged per window: %v", names)
	}
	// Project metadata flows from the project when options leave it blank.
	if got := cell(t, f, "Summary", "B1"); got != "Job 42" {
		t.Fatalf("project name B1 = %q", got)
	}
	if got := cell(t, f, "Summary", "B3"); got != "2" {
		t.Fatalf("window count B3 = %q", got)
	}
}
