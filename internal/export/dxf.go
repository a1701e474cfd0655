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
	"strconv"

	"sashcad/internal/layers"
	"sashcad/internal/scene"
)

// DXF exports a scene as an ASCII DXF document for CAD software
// (AutoCAD, LibreCAD, QCAD). Output targets the R2018 tag structure:
// handles, subclass markers, one layer table entry per registry layer
// with color index, lineweight and linetype, entities in model space
// only. Coordinates stay in the bottom-left millimeter system; DXF
// shares the CAD convention, so no axis flip is applied.
type DXF struct{}

// Format reports "dxf".
func (DXF) Format() Format { return FormatDXF }

const acadVersion = "AC1032" // R2018

// dxfUnits is the $INSUNITS header value for millimeters.
const dxfUnits = 4

// dxfLinePatterns maps a linetype to its dash elements in drawing
// units; negative values are gaps. Must stay consistent with the SVG
// dash patterns so vector outputs agree visually.
var dxfLinePatterns = map[layers.Linetype][]float64{
	layers.Continuous: nil,
	layers.Dashed:     {5, -3},
	layers.Dotted:     {1, -2},
	layers.DashDot:    {8, -3, 1, -3},
	layers.Center:     {12, -2, 2, -2},
}

var dxfLineDescriptions = map[layers.Linetype]string{
	layers.Continuous: "Solid line",
	layers.Dashed:     "Dashed __ __ __ __",
	layers.Dotted:     "Dotted . . . .",
	layers.DashDot:    "Dash dot __ . __ .",
	layers.Center:     "Center ____ _ ____ _",
}

// Export serializes the scene. The document layout is fixed: HEADER,
// TABLES (LTYPE then LAYER), empty BLOCKS, ENTITIES, EOF. Entities
// are emitted in canonical layer order, insertion order within each
// layer, so identical scenes produce identical bytes.
func (d DXF) Export(s *scene.Scene) ([]byte, error) {
	w := newDXFWriter()

	w.tag(0, "SECTION")
	w.tag(2, "HEADER")
	w.tag(9, "$ACADVER")
	w.tag(1, acadVersion)
	w.tag(9, "$INSUNITS")
	w.tagi(70, dxfUnits)
	w.tag(9, "$HANDSEED")
	w.tag(5, "FFFF")
	w.tag(0, "ENDSEC")

	w.tag(0, "SECTION")
	w.tag(2, "TABLES")
	d.writeLinetypeTable(w)
	d.writeLayerTable(w)
	w.tag(0, "ENDSEC")

	w.tag(0, "SECTION")
	w.tag(2, "BLOCKS")
	w.tag(0, "ENDSEC")

	w.tag(0, "SECTION")
	w.tag(2, "ENTITIES")
	for _, props := range layers.All() {
		for _, p := range s.Primitives(props.Name) {
			if err := d.writePrimitive(w, p); err != nil {
				return nil, err
			}
		}
	}
	w.tag(0, "ENDSEC")
	w.tag(0, "EOF")

	if w.err != nil {
		return nil, fmt.Errorf("build dxf: %w", w.err)
	}
	return w.buf.Bytes(), nil
}

// usedLinetypes returns BYBLOCK, BYLAYER, CONTINUOUS plus every other
// linetype the registry references, deduplicated in registry order.
// CAD readers expect the first three unconditionally.
func usedLinetypes() []layers.Linetype {
	out := []layers.Linetype{"BYBLOCK", "BYLAYER", layers.Continuous}
	seen := map[layers.Linetype]bool{layers.Continuous: true}
	for _, props := range layers.All() {
		if seen[props.Linetype] {
			continue
		}
		seen[props.Linetype] = true
		out = append(out, props.Linetype)
	}
	return out
}

func (DXF) writeLinetypeTable(w *dxfWriter) {
	lts := usedLinetypes()
	w.tag(0, "TABLE")
	w.tag(2, "LTYPE")
	w.tag(5, w.handle())
	w.tag(100, "AcDbSymbolTable")
	w.tagi(70, len(lts))
	for _, lt := range lts {
		pattern := dxfLinePatterns[lt]
		desc := dxfLineDescriptions[lt]
		w.tag(0, "LTYPE")
		w.tag(5, w.handle())
		w.tag(100, "AcDbSymbolTableRecord")
		w.tag(100, "AcDbLinetypeTableRecord")
		w.tag(2, string(lt))
		w.tagi(70, 0)
		w.tag(3, desc)
		w.tagi(72, 65)
		w.tagi(73, len(pattern))
		total := 0.0
		for _, e := range pattern {
			if e > 0 {
				total += e
			} else {
				total -= e
			}
		}
		w.tagf(40, total)
		for _, e := range pattern {
			w.tagf(49, e)
			w.tagi(74, 0)
		}
	}
	w.tag(0, "ENDTAB")
}

func (DXF) writeLayerTable(w *dxfWriter) {
	all := layers.All()
	w.tag(0, "TABLE")
	w.tag(2, "LAYER")
	w.tag(5, w.handle())
	w.tag(100, "AcDbSymbolTable")
	w.tagi(70, len(all))
	for _, props := range all {
		w.tag(0, "LAYER")
		w.tag(5, w.handle())
		w.tag(100, "AcDbSymbolTableRecord")
		w.tag(100, "AcDbLayerTableRecord")
		w.tag(2, string(props.Name))
		w.tagi(70, 0)
		w.tagi(62, props.DXFColor)
		w.tag(6, string(props.Linetype))
		w.tagi(370, props.DXFLineweight)
	}
	w.tag(0, "ENDTAB")
}

// writePrimitive emits one scene primitive. Dimension lines are
// exploded into their measure line, extension lines, arrowhead
// polylines and label text, all on the dimension's layer; DXF DIMENSION
// entities would drag in block definitions and a dimstyle table for no
// gain over exploded geometry.
func (d DXF) writePrimitive(w *dxfWriter, p scene.Primitive) error {
	switch v := p.(type) {
	case scene.Rectangle:
		d.writeLWPolyline(w, v.Layer, true, [][2]float64{
			{v.X, v.Y},
			{v.X + v.Width, v.Y},
			{v.X + v.Width, v.Y + v.Height},
			{v.X, v.Y + v.Height},
		})
	case scene.Line:
		w.tag(0, "LINE")
		w.tag(5, w.handle())
		w.tag(100, "AcDbEntity")
		w.tag(8, string(v.Layer))
		w.tag(100, "AcDbLine")
		w.tagf(10, v.Start.X)
		w.tagf(20, v.Start.Y)
		w.tagf(30, 0)
		w.tagf(11, v.End.X)
		w.tagf(21, v.End.Y)
		w.tagf(31, 0)
	case scene.Text:
		d.writeText(w, v.Layer, v.Position.X, v.Position.Y, v.Height, v.Rotation, v.Content, v.Align)
	case scene.Dimension:
		d.writeSegmentLine(w, v.Layer, v.Measure.Start.X, v.Measure.Start.Y, v.Measure.End.X, v.Measure.End.Y)
		for _, ext := range v.Extensions {
			d.writeSegmentLine(w, v.Layer, ext.Start.X, ext.Start.Y, ext.End.X, ext.End.Y)
		}
		for _, a := range v.Arrows {
			poly := a.Polygon()
			pts := make([][2]float64, len(poly))
			for i, pt := range poly {
				pts[i] = [2]float64{pt.X, pt.Y}
			}
			d.writeLWPolyline(w, v.Layer, true, pts)
		}
		if v.Label.Text != "" {
			d.writeText(w, v.Layer, v.Label.Position.X, v.Label.Position.Y, v.Label.Height, v.Label.Rotation, v.Label.Text, scene.AlignCenter)
		}
	case scene.Point:
		w.tag(0, "POINT")
		w.tag(5, w.handle())
		w.tag(100, "AcDbEntity")
		w.tag(8, string(v.Layer))
		w.tag(100, "AcDbPoint")
		w.tagf(10, v.Position.X)
		w.tagf(20, v.Position.Y)
		w.tagf(30, 0)
	default:
		return unsupported(FormatDXF, p)
	}
	return nil
}

func (DXF) writeLWPolyline(w *dxfWriter, layer layers.Name, closed bool, pts [][2]float64) {
	w.tag(0, "LWPOLYLINE")
	w.tag(5, w.handle())
	w.tag(100, "AcDbEntity")
	w.tag(8, string(layer))
	w.tag(100, "AcDbPolyline")
	w.tagi(90, len(pts))
	if closed {
		w.tagi(70, 1)
	} else {
		w.tagi(70, 0)
	}
	for _, pt := range pts {
		w.tagf(10, pt[0])
		w.tagf(20, pt[1])
	}
}

func (DXF) writeSegmentLine(w *dxfWriter, layer layers.Name, x1, y1, x2, y2 float64) {
	w.tag(0, "LINE")
	w.tag(5, w.handle())
	w.tag(100, "AcDbEntity")
	w.tag(8, string(layer))
	w.tag(100, "AcDbLine")
	w.tagf(10, x1)
	w.tagf(20, y1)
	w.tagf(30, 0)
	w.tagf(11, x2)
	w.tagf(21, y2)
	w.tagf(31, 0)
}

// writeText emits a TEXT entity. Left-aligned text anchors at the
// insertion point alone; centered and right-aligned text additionally
// carries the second alignment point and middle vertical justification,
// which is what CAD readers expect for anchored labels.
func (DXF) writeText(w *dxfWriter, layer layers.Name, x, y, height, rotation float64, content string, align scene.TextAlign) {
	w.tag(0, "TEXT")
	w.tag(5, w.handle())
	w.tag(100, "AcDbEntity")
	w.tag(8, string(layer))
	w.tag(100, "AcDbText")
	w.tagf(10, x)
	w.tagf(20, y)
	w.tagf(30, 0)
	w.tagf(40, height)
	w.tag(1, content)
	if rotation != 0 {
		w.tagf(50, rotation)
	}
	halign := 0
	switch align {
	case scene.AlignCenter:
		halign = 1
	case scene.AlignRight:
		halign = 2
	}
	if halign != 0 {
		w.tagi(72, halign)
		w.tagf(11, x)
		w.tagf(21, y)
		w.tagf(31, 0)
	}
	w.tag(100, "AcDbText")
	if halign != 0 {
		w.tagi(73, 2)
	}
}

// dxfWriter accumulates group code / value pairs with a sticky error,
// one code line and one value line per tag. Handles count up from a
// fixed base; the header seeds $HANDSEED above any value reached here.
type dxfWriter struct {
	buf  bytes.Buffer
	err  error
	next int
}

func newDXFWriter() *dxfWriter {
	return &dxfWriter{next: 0x20}
}

func (w *dxfWriter) handle() string {
	h := strconv.FormatInt(int64(w.next), 16)
	w.next++
	return h
}

func (w *dxfWriter) tag(code int, value string) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(&w.buf, "%d\n%s\n", code, value)
}

func (w *dxfWriter) tagi(code, value int) {
	w.tag(code, strconv.Itoa(value))
}

func (w *dxfWriter) tagf(code int, value float64) {
	w.tag(code, strconv.FormatFloat(value, 'f', -1, 64))
}
