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
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"sashcad/internal/calc"
	"sashcad/internal/domain"
	"sashcad/internal/scene"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testWindow(t *testing.T) domain.Window {
	t.Helper()
	w, err := calc.Window(calc.WindowParams{
		Name:             "W-1",
		FrameWidth:       1200,
		FrameHeight:      1600,
		TopSashHeight:    800,
		BottomSashHeight: 750,
	})
	if err != nil {
		t.Fatalf("calculate fixture window: %v", err)
	}
	return w
}

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.Build(testWindow(t), scene.Options{Now: testNow})
	if err != nil {
		t.Fatalf("build scene: %v", err)
	}
	return s
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"dxf", "svg", "png", "json", "pdf", "xlsx"} {
		f, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", name, err)
		}
		if string(f) != name {
			t.Fatalf("ParseFormat(%q) = %q", name, f)
		}
	}
	for _, name := range []string{"", "step", "DXF", "jpeg"} {
		if _, err := ParseFormat(name); err == nil {
			t.Fatalf("ParseFormat(%q) must fail", name)
		}
	}
}

func TestFormatExt(t *testing.T) {
	if got := FormatDXF.Ext(); got != ".dxf" {
		t.Fatalf("Ext = %q", got)
	}
	if got := FormatXLSX.Ext(); got != ".xlsx" {
		t.Fatalf("Ext = %q", got)
	}
}

func TestForReturnsSceneExporters(t *testing.T) {
	for _, f := range SceneFormats() {
		e, err := For(f)
		if err != nil {
			t.Fatalf("For(%s): %v", f, err)
		}
		if e.Format() != f {
			t.Fatalf("For(%s) reports format %s", f, e.Format())
		}
	}
	for _, f := range []Format{FormatPDF, FormatXLSX} {
		if _, err := For(f); err == nil {
			t.Fatalf("For(%s) must fail, document formats need the window model", f)
		}
	}
}

func TestSceneExportersShareOneScene(t *testing.T) {
	s := testScene(t)
	for _, f := range SceneFormats() {
		e, err := For(f)
		if err != nil {
			t.Fatalf("For(%s): %v", f, err)
		}
		if f == FormatPNG {
			e = PNG{DPI: 10}
		}
		data, err := e.Export(s)
		if err != nil {
			t.Fatalf("%s export: %v", f, err)
		}
		if len(data) == 0 {
			t.Fatalf("%s export produced no bytes", f)
		}
	}
}

func TestUnsupportedPrimitiveError(t *testing.T) {
	err := unsupported(FormatDXF, scene.Point{})
	if !errors.Is(err, ErrUnsupportedPrimitive) {
		t.Fatalf("error %v does not match ErrUnsupportedPrimitive", err)
	}
	var upe *UnsupportedPrimitiveError
	if !errors.As(err, &upe) || upe.Format != FormatDXF {
		t.Fatalf("error should carry the format: %v", err)
	}
	if !strings.Contains(err.Error(), "scene.Point") {
		t.Fatalf("error should name the primitive type: %v", err)
	}
}

// dxfEntityCounts tallies the ENTITIES section by layer and kind.
// Closed polylines are split into rectangles and arrowheads by vertex
// count so each tally lines up with one SVG element kind.
func dxfEntityCounts(t *testing.T, out string) map[string]map[string]int {
	t.Helper()
	start := strings.Index(out, "2\nENTITIES\n")
	if start < 0 {
		t.Fatalf("dxf output has no ENTITIES section")
	}
	toks := strings.Split(out[start:], "\n")
	counts := map[string]map[string]int{}
	var kind, layer string
	vertices := 0
	flush := func() {
		switch kind {
		case "":
			return
		case "LWPOLYLINE":
			kind = "rect"
			if vertices == 3 {
				kind = "arrow"
			}
		case "LINE":
			kind = "line"
		case "TEXT":
			kind = "text"
		case "POINT":
			kind = "point"
		}
		if counts[layer] == nil {
			counts[layer] = map[string]int{}
		}
		counts[layer][kind]++
	}
	for i := 0; i+1 < len(toks); i += 2 {
		code, value := toks[i], toks[i+1]
		switch code {
		case "0":
			flush()
			if value == "ENDSEC" {
				return counts
			}
			kind, layer, vertices = value, "", 0
		case "8":
			layer = value
		case "90":
			vertices, _ = strconv.Atoi(value)
		}
	}
	t.Fatalf("dxf ENTITIES section is not terminated")
	return nil
}

// svgGroupCounts tallies the drawing elements of one layer group.
func svgGroupCounts(t *testing.T, out, id string) map[string]int {
	t.Helper()
	open := "<g id=\"" + id + "\">"
	i := strings.Index(out, open)
	if i < 0 {
		t.Fatalf("svg output has no group %q", id)
	}
	body := out[i+len(open):]
	j := strings.Index(body, "</g>")
	if j < 0 {
		t.Fatalf("svg group %q is not closed", id)
	}
	body = body[:j]
	counts := map[string]int{}
	for kind, tag := range map[string]string{
		"rect":  "<rect ",
		"line":  "<line ",
		"text":  "<text ",
		"point": "<circle ",
	} {
		if n := strings.Count(body, tag); n > 0 {
			counts[kind] = n
		}
	}
	return counts
}

// TestDXFSVGLayerParity exports the same scene into both drawing
// formats and checks they populate the same layers with the same
// geometry counts. The one representational difference is arrowheads:
// DXF explodes each into a closed polyline, SVG references a shared
// marker from the measure line, so those two tallies are matched
// against each other instead.
func TestDXFSVGLayerParity(t *testing.T) {
	s := testScene(t)
	dxf := exportDXF(t, s)
	svg := exportSVG(t, s)

	populated := s.PopulatedLayers()
	byLayer := dxfEntityCounts(t, dxf)
	if len(byLayer) != len(populated) {
		t.Fatalf("dxf populates %d layers, scene has %d", len(byLayer), len(populated))
	}

	arrows := 0
	for _, name := range populated {
		dxfCounts, ok := byLayer[string(name)]
		if !ok {
			t.Fatalf("dxf output has no entities on layer %s", name)
		}
		arrows += dxfCounts["arrow"]
		delete(dxfCounts, "arrow")
		svgCounts := svgGroupCounts(t, svg, strings.ToLower(string(name)))
		for kind, n := range dxfCounts {
			if svgCounts[kind] != n {
				t.Errorf("layer %s: dxf has %d %s entities, svg has %d", name, n, kind, svgCounts[kind])
			}
		}
		for kind, n := range svgCounts {
			if _, ok := dxfCounts[kind]; !ok {
				t.Errorf("layer %s: svg has %d %s elements missing from dxf", name, n, kind)
			}
		}
	}

	if arrows == 0 {
		t.Fatalf("fixture scene should carry dimension arrowheads")
	}
	if refs := strings.Count(svg, "url(#dim-arrow)"); refs != arrows {
		t.Errorf("dxf has %d arrowhead polylines, svg references the arrow marker %d times", arrows, refs)
	}
}
