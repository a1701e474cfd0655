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
	"strings"

	"sashcad/internal/layers"
	"sashcad/internal/scene"
)

// SVG exports a scene as a standalone SVG document sized in
// millimeters. Each populated layer becomes one <g> group, id set to
// the lowercase layer name, emitted in registry order so draw order
// matches every other exporter. SVG's origin is top-left, so Y is
// flipped against the scene's bottom-left system; X only shifts by
// the bounds origin.
type SVG struct{}

// Format reports "svg".
func (SVG) Format() Format { return FormatSVG }

const svgFontFamily = "Helvetica, Arial, sans-serif"

// Export serializes the scene.
func (e SVG) Export(s *scene.Scene) ([]byte, error) {
	b := s.Bounds
	width := b.Width()
	height := b.Height()

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	// Flip into SVG screen space.
	tx := func(x float64) float64 { return x - b.Min.X }
	ty := func(y float64) float64 { return b.Max.Y - y }

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gmm\" height=\"%gmm\" viewBox=\"0 0 %g %g\">\n", width, height, width, height)
	wf("  <title>%s</title>\n", escText(s.Meta.WindowName))
	wf("  <desc>Box sash window %s x %s mm, generated %s</desc>\n",
		escText(fmt.Sprintf("%g", s.Meta.FrameWidth)),
		escText(fmt.Sprintf("%g", s.Meta.FrameHeight)),
		escText(s.Meta.GeneratedAt.Format("2006-01-02")))
	e.writeMarkerDefs(wf)

	for _, name := range s.PopulatedLayers() {
		props := layers.MustGet(name)
		wf("  <g id=\"%s\">\n", strings.ToLower(string(name)))
		for _, p := range s.Primitives(name) {
			if err := e.writePrimitive(wf, tx, ty, props, p); err != nil {
				return nil, err
			}
		}
		wf("  </g>\n")
	}

	wf("</svg>\n")

	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

// writeMarkerDefs emits the arrowhead marker once; every dimension
// references it by id instead of duplicating the triangle. The 10x10
// viewBox maps onto the 3 mm ISO arrow, tip on the line endpoint,
// wings at the 20 degree half-angle (10 * tan 20 = 3.64).
func (SVG) writeMarkerDefs(wf func(string, ...any)) {
	color := svgColor(layers.MustGet(layers.Dimensions).Color)
	wf("  <defs>\n")
	wf("    <marker id=\"dim-arrow\" viewBox=\"0 0 10 10\" refX=\"10\" refY=\"5\" markerWidth=\"3\" markerHeight=\"3\" markerUnits=\"userSpaceOnUse\" orient=\"auto-start-reverse\">\n")
	wf("      <path d=\"M 0 1.36 L 10 5 L 0 8.64 z\" fill=\"%s\"/>\n", color)
	wf("    </marker>\n")
	wf("  </defs>\n")
}

func (e SVG) writePrimitive(wf func(string, ...any), tx, ty func(float64) float64, props layers.Properties, p scene.Primitive) error {
	color := svgColor(props.Color)
	dash := layers.DashPattern(props.Linetype)

	switch v := p.(type) {
	case scene.Rectangle:
		stroke := v.StrokeWidth
		if stroke == 0 {
			stroke = props.Lineweight
		}
		// The rectangle's top edge in screen space is its max Y in scene space.
		x, y := tx(v.X), ty(v.Y+v.Height)
		fill := "none"
		opacity := ""
		if v.Fill {
			fill = color
			op := v.Opacity
			if op == 0 {
				op = 1
			}
			opacity = fmt.Sprintf(" fill-opacity=\"%g\"", op)
		}
		wf("    <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\"%s stroke=\"%s\" stroke-width=\"%g\"%s/>\n",
			x, y, v.Width, v.Height, fill, opacity, color, stroke, dashAttr(dash))
	case scene.Line:
		stroke := v.StrokeWidth
		if stroke == 0 {
			stroke = props.Lineweight
		}
		wf("    <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\"%s/>\n",
			tx(v.Start.X), ty(v.Start.Y), tx(v.End.X), ty(v.End.Y), color, stroke, dashAttr(dash))
	case scene.Text:
		e.writeText(wf, tx, ty, color, v.Position.X, v.Position.Y, v.Height, v.Rotation, string(v.Align), v.Content)
	case scene.Dimension:
		markers := ""
		switch len(v.Arrows) {
		case 1:
			markers = " marker-end=\"url(#dim-arrow)\""
		case 2:
			markers = " marker-start=\"url(#dim-arrow)\" marker-end=\"url(#dim-arrow)\""
		}
		wf("    <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\"%s/>\n",
			tx(v.Measure.Start.X), ty(v.Measure.Start.Y), tx(v.Measure.End.X), ty(v.Measure.End.Y), color, props.Lineweight, markers)
		for _, ext := range v.Extensions {
			wf("    <line x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				tx(ext.Start.X), ty(ext.Start.Y), tx(ext.End.X), ty(ext.End.Y), color, props.Lineweight)
		}
		if v.Label.Text != "" {
			e.writeText(wf, tx, ty, color, v.Label.Position.X, v.Label.Position.Y, v.Label.Height, v.Label.Rotation, string(scene.AlignCenter), v.Label.Text)
		}
	case scene.Point:
		wf("    <circle cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"%s\"/>\n",
			tx(v.Position.X), ty(v.Position.Y), props.Lineweight, color)
	default:
		return unsupported(FormatSVG, p)
	}
	return nil
}

// writeText emits one anchored text element. Scene rotation is
// counter-clockwise; the Y flip mirrors it, so screen rotation is the
// negation, applied around the anchor.
func (SVG) writeText(wf func(string, ...any), tx, ty func(float64) float64, color string, x, y, height, rotation float64, align, content string) {
	sx, sy := tx(x), ty(y)
	anchor := ""
	switch scene.TextAlign(align) {
	case scene.AlignCenter:
		anchor = " text-anchor=\"middle\""
	case scene.AlignRight:
		anchor = " text-anchor=\"end\""
	}
	transform := ""
	if rotation != 0 {
		transform = fmt.Sprintf(" transform=\"rotate(%g %g %g)\"", -rotation, sx, sy)
	}
	wf("    <text x=\"%g\" y=\"%g\" font-family=\"%s\" font-size=\"%g\" fill=\"%s\" dominant-baseline=\"middle\"%s%s>%s</text>\n",
		sx, sy, svgFontFamily, height, color, anchor, transform, escText(content))
}

func dashAttr(dash string) string {
	if dash == "none" {
		return ""
	}
	return fmt.Sprintf(" stroke-dasharray=\"%s\"", dash)
}

func svgColor(c layers.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
