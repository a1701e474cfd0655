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
	"encoding/json"
	"fmt"
	"sort"

	"sashcad/internal/layers"
	"sashcad/internal/scene"
)

// Payload exports the scene re-expressed in the flat, renderer-agnostic
// shape the interactive viewer consumes: layer-tagged rectangles, lines,
// texts and dimensions with resolved colors and line widths, plus a
// summary block. The same structure serves both on-screen preview and
// file export, so what the viewer shows is what the files contain.
type Payload struct{}

// Format reports "json".
func (Payload) Format() Format { return FormatJSON }

type payloadRect struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Color     string  `json:"color"`
	Fill      bool    `json:"fill"`
	Alpha     float64 `json:"alpha"`
	LineWidth float64 `json:"linewidth"`
	Layer     string  `json:"layer"`
}

type payloadLine struct {
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	X2        float64 `json:"x2"`
	Y2        float64 `json:"y2"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"linewidth"`
	LineStyle string  `json:"linestyle"`
	Layer     string  `json:"layer"`
}

type payloadText struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	Size     float64 `json:"size"`
	Color    string  `json:"color"`
	HAlign   string  `json:"halign"`
	VAlign   string  `json:"valign"`
	Rotation float64 `json:"rotation"`
	Layer    string  `json:"layer"`
}

type payloadDim struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
	Layer  string  `json:"layer"`
}

type payloadPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type payloadSummary struct {
	Rectangles int      `json:"rectangles"`
	Lines      int      `json:"lines"`
	Texts      int      `json:"texts"`
	Dimensions int      `json:"dimensions"`
	Layers     []string `json:"layers"`
	Bounds     struct {
		Min payloadPoint `json:"min"`
		Max payloadPoint `json:"max"`
	} `json:"bounds"`
}

type payloadDoc struct {
	Rectangles []payloadRect  `json:"rectangles"`
	Lines      []payloadLine  `json:"lines"`
	Texts      []payloadText  `json:"texts"`
	Dimensions []payloadDim   `json:"dimensions"`
	Summary    payloadSummary `json:"summary"`
}

// payloadLineStyles maps CAD linetypes onto the renderer's line style
// vocabulary. Center lines render dash-dot, the closest match.
var payloadLineStyles = map[layers.Linetype]string{
	layers.Continuous: "solid",
	layers.Dashed:     "dashed",
	layers.Dotted:     "dotted",
	layers.DashDot:    "dashdot",
	layers.Center:     "dashdot",
}

// Export flattens the scene. Dimensions carry the measured geometry
// endpoints and the offset; the viewer derives extension lines and
// arrowheads itself, so those stay out of the payload while labels
// travel as ordinary texts.
func (Payload) Export(s *scene.Scene) ([]byte, error) {
	doc := payloadDoc{
		Rectangles: []payloadRect{},
		Lines:      []payloadLine{},
		Texts:      []payloadText{},
		Dimensions: []payloadDim{},
	}

	for _, name := range s.PopulatedLayers() {
		props := layers.MustGet(name)
		color := props.Color.Hex()
		for _, p := range s.Primitives(name) {
			switch v := p.(type) {
			case scene.Rectangle:
				lw := v.StrokeWidth
				if lw == 0 {
					lw = props.Lineweight
				}
				alpha := v.Opacity
				if alpha == 0 {
					alpha = 1
				}
				doc.Rectangles = append(doc.Rectangles, payloadRect{
					X: v.X, Y: v.Y, Width: v.Width, Height: v.Height,
					Color: color, Fill: v.Fill, Alpha: alpha, LineWidth: lw,
					Layer: string(name),
				})
			case scene.Line:
				lw := v.StrokeWidth
				if lw == 0 {
					lw = props.Lineweight
				}
				doc.Lines = append(doc.Lines, payloadLine{
					X1: v.Start.X, Y1: v.Start.Y, X2: v.End.X, Y2: v.End.Y,
					Color: color, LineWidth: lw, LineStyle: payloadLineStyles[props.Linetype],
					Layer: string(name),
				})
			case scene.Text:
				doc.Texts = append(doc.Texts, payloadText{
					X: v.Position.X, Y: v.Position.Y, Text: v.Content,
					Size: v.Height, Color: color,
					HAlign: halign(v.Align), VAlign: "middle",
					Rotation: v.Rotation, Layer: string(name),
				})
			case scene.Dimension:
				p1, p2 := measuredPoints(v)
				doc.Dimensions = append(doc.Dimensions, payloadDim{
					X1: p1.X, Y1: p1.Y, X2: p2.X, Y2: p2.Y,
					Offset: v.Offset, Color: color, Layer: string(name),
				})
				if v.Label.Text != "" {
					doc.Texts = append(doc.Texts, payloadText{
						X: v.Label.Position.X, Y: v.Label.Position.Y, Text: v.Label.Text,
						Size: v.Label.Height, Color: color,
						HAlign: "center", VAlign: "middle",
						Rotation: v.Label.Rotation, Layer: string(name),
					})
				}
			case scene.Point:
				doc.Lines = append(doc.Lines, payloadLine{
					X1: v.Position.X, Y1: v.Position.Y, X2: v.Position.X, Y2: v.Position.Y,
					Color: color, LineWidth: props.Lineweight, LineStyle: payloadLineStyles[props.Linetype],
					Layer: string(name),
				})
			default:
				return nil, unsupported(FormatJSON, p)
			}
		}
	}

	doc.Summary.Rectangles = len(doc.Rectangles)
	doc.Summary.Lines = len(doc.Lines)
	doc.Summary.Texts = len(doc.Texts)
	doc.Summary.Dimensions = len(doc.Dimensions)
	names := make([]string, 0, len(s.PopulatedLayers()))
	for _, n := range s.PopulatedLayers() {
		names = append(names, string(n))
	}
	sort.Strings(names)
	doc.Summary.Layers = names
	doc.Summary.Bounds.Min = payloadPoint{X: s.Bounds.Min.X, Y: s.Bounds.Min.Y}
	doc.Summary.Bounds.Max = payloadPoint{X: s.Bounds.Max.X, Y: s.Bounds.Max.Y}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return append(out, '\n'), nil
}

// measuredPoints returns the endpoints of the measured geometry, not
// the offset measure line: the extension line roots when present, the
// measure line itself otherwise (radial dimensions have no extensions).
func measuredPoints(d scene.Dimension) (p1, p2 payloadPoint) {
	if len(d.Extensions) == 2 {
		return payloadPoint{X: d.Extensions[0].Start.X, Y: d.Extensions[0].Start.Y},
			payloadPoint{X: d.Extensions[1].Start.X, Y: d.Extensions[1].Start.Y}
	}
	return payloadPoint{X: d.Measure.Start.X, Y: d.Measure.Start.Y},
		payloadPoint{X: d.Measure.End.X, Y: d.Measure.End.Y}
}

func halign(a scene.TextAlign) string {
	if a == "" {
		return "left"
	}
	return string(a)
}
