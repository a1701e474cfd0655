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
	"strings"
	"testing"

	"sashcad/internal/domain"
	"sashcad/internal/scene"
)

func exportDXF(t *testing.T, s *scene.Scene) string {
	t.Helper()
	data, err := DXF{}.Export(s)
	if err != nil {
		t.Fatalf("dxf export: %v", err)
	}
	return string(data)
}

func TestDXFDocumentStructure(t *testing.T) {
	out := exportDXF(t, testScene(t))

	if !strings.HasPrefix(out, "0\nSECTION\n2\nHEADER\n") {
		t.Fatalf("document must open with the header section")
	}
	if !strings.HasSuffix(out, "0\nENDSEC\n0\nEOF\n") {
		t.Fatalf("document must close with EOF")
	}
	for _, want := range []string{
		"9\n$ACADVER\n1\nAC1032\n",
		"9\n$INSUNITS\n70\n4\n",
		"9\n$HANDSEED\n5\nFFFF\n",
		"2\nTABLES\n",
		"2\nBLOCKS\n",
		"2\nENTITIES\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q", want)
		}
	}
}

func TestDXFLayerTable(t *testing.T) {
	out := exportDXF(t, testScene(t))

	if n := strings.Count(out, "0\nLAYER\n"); n != 9 {
		t.Fatalf("layer table has %d records, want 9", n)
	}
	// Every registry layer appears with its color, linetype and lineweight.
	checks := []struct{ name, color, linetype, weight string }{
		{"FRAME", "8", "CONTINUOUS", "50"},
		{"SASH_TOP", "5", "CONTINUOUS", "35"},
		{"GLASS", "4", "CONTINUOUS", "18"},
		{"BARS_V", "9", "DASHED", "25"},
		{"DIMENSIONS", "1", "CONTINUOUS", "18"},
		{"CENTERLINES", "3", "DASHDOT", "18"},
		{"ANNOTATIONS", "7", "CONTINUOUS", "25"},
	}
	for _, c := range checks {
		record := "2\n" + c.name + "\n70\n0\n62\n" + c.color + "\n6\n" + c.linetype + "\n370\n" + c.weight + "\n"
		if !strings.Contains(out, record) {
			t.Fatalf("layer %s record missing or wrong:\nwant %q", c.name, record)
		}
	}
}

func TestDXFLinetypeTable(t *testing.T) {
	out := exportDXF(t, testScene(t))

	for _, lt := range []string{"BYBLOCK", "BYLAYER", "CONTINUOUS", "DASHED", "DASHDOT"} {
		if !strings.Contains(out, "0\nLTYPE\n5\n") || !strings.Contains(out, "2\n"+lt+"\n70\n0\n") {
			t.Fatalf("linetype %s missing", lt)
		}
	}
	// DASHED is 5 on, 3 off; each element is followed by the complex
	// flag 74 so AutoCAD accepts the record.
	if !strings.Contains(out, "49\n5\n74\n0\n49\n-3\n74\n0\n") {
		t.Fatalf("dashed pattern elements missing")
	}
	// Continuous has no elements and zero total length.
	if !strings.Contains(out, "2\nCONTINUOUS\n70\n0\n3\nSolid line\n72\n65\n73\n0\n40\n0\n") {
		t.Fatalf("continuous record wrong")
	}
}

func TestDXFEntities(t *testing.T) {
	s := testScene(t)
	out := exportDXF(t, s)

	// Frame, sashes and glass arrive as closed lightweight polylines.
	if n := strings.Count(out, "0\nLWPOLYLINE\n"); n < 4 {
		t.Fatalf("only %d polylines, want frame + sashes + glass + arrowheads", n)
	}
	// The frame rectangle spans the full 1200 x 1600.
	if !strings.Contains(out, "8\nFRAME\n100\nAcDbPolyline\n90\n4\n70\n1\n10\n0\n20\n0\n10\n1200\n20\n0\n10\n1200\n20\n1600\n10\n0\n20\n1600\n") {
		t.Fatalf("frame polyline missing or wrong")
	}
	if !strings.Contains(out, "8\nCENTERLINES\n") {
		t.Fatalf("centerline entities missing")
	}
	// Dimension labels surface as centered TEXT with the second
	// alignment point.
	if !strings.Contains(out, "1\n1200.0 mm\n") {
		t.Fatalf("frame width label missing")
	}
	if !strings.Contains(out, "72\n1\n") || !strings.Contains(out, "73\n2\n") {
		t.Fatalf("centered text alignment codes missing")
	}
	// Dimensions are exploded, never native DIMENSION entities.
	if strings.Contains(out, "0\nDIMENSION\n") {
		t.Fatalf("native DIMENSION entity found, dimensions must be exploded")
	}
}

func TestDXFHandlesUnique(t *testing.T) {
	out := exportDXF(t, testScene(t))

	seen := map[string]bool{}
	lines := strings.Split(out, "\n")
	for i := 0; i+1 < len(lines); i += 2 {
		if lines[i] == "5" && lines[i+1] != "FFFF" {
			if seen[lines[i+1]] {
				t.Fatalf("duplicate handle %s", lines[i+1])
			}
			seen[lines[i+1]] = true
		}
	}
	if len(seen) < 20 {
		t.Fatalf("suspiciously few handles: %d", len(seen))
	}
}

func TestDXFDeterministic(t *testing.T) {
	w := testWindow(t)
	a, err := scene.Build(w, scene.Options{Now: testNow})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	b, err := scene.Build(w, scene.Options{Now: testNow})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	da, err := DXF{}.Export(a)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	db, err := DXF{}.Export(b)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Equal(da, db) {
		t.Fatalf("same scene must export to identical bytes")
	}
}

func TestDXFBarsOnDashedLayers(t *testing.T) {
	w := testWindow(t)
	w.BarsBottom = domain.Bars{VerticalBars: 2, HorizontalBars: 1}
	s, err := scene.Build(w, scene.Options{Now: testNow})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	out := exportDXF(t, s)
	if !strings.Contains(out, "8\nBARS_V\n") || !strings.Contains(out, "8\nBARS_H\n") {
		t.Fatalf("bar entities must land on the bar layers")
	}
}
