/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scene

import (
	"encoding/json"

	"sashcad/internal/dimension"
	"sashcad/internal/geom"
	"sashcad/internal/layers"
)

// Primitive is one drawable unit on a layer. The set is closed:
// Rectangle, Line, Text, Dimension, and Point. Exporters type-switch
// over it and must reject anything else as unsupported.
type Primitive interface {
	// LayerName names the layer the primitive is drawn on. Layers are
	// referenced, never embedded; styling is resolved at export time.
	LayerName() layers.Name
	// Bounds is the geometric extent in mm, before stroke expansion.
	Bounds() geom.BoundingBox

	sealed()
}

// TextAlign positions text horizontally relative to its anchor.
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// Rectangle is an axis-aligned rectangle anchored at its lower-left
// corner. Fill, Opacity and StrokeWidth override the layer style when
// set; zero values defer to the layer.
type Rectangle struct {
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Layer       layers.Name `json:"layer"`
	Fill        bool        `json:"fill,omitempty"`
	Opacity     float64     `json:"opacity,omitempty"`
	StrokeWidth float64     `json:"stroke_width,omitempty"` // mm
}

func (r Rectangle) LayerName() layers.Name { return r.Layer }

func (r Rectangle) Bounds() geom.BoundingBox {
	return geom.Box(geom.P(r.X, r.Y), geom.P(r.X+r.Width, r.Y+r.Height))
}

func (r Rectangle) MarshalJSON() ([]byte, error) {
	type alias Rectangle
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "rectangle", alias: alias(r)})
}

// Line is a straight segment.
type Line struct {
	Start       geom.Point2D `json:"start"`
	End         geom.Point2D `json:"end"`
	Layer       layers.Name  `json:"layer"`
	StrokeWidth float64      `json:"stroke_width,omitempty"` // mm
}

func (l Line) LayerName() layers.Name { return l.Layer }

func (l Line) Bounds() geom.BoundingBox { return geom.Box(l.Start, l.End) }

func (l Line) MarshalJSON() ([]byte, error) {
	type alias Line
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "line", alias: alias(l)})
}

// Text is an annotation anchored at Position. Height is the glyph
// height in mm, Rotation in degrees counter-clockwise. An empty Align
// means left.
type Text struct {
	Position geom.Point2D `json:"position"`
	Content  string       `json:"text"`
	Height   float64      `json:"height"`
	Rotation float64      `json:"rotation,omitempty"`
	Align    TextAlign    `json:"align,omitempty"`
	Layer    layers.Name  `json:"layer"`
}

func (t Text) LayerName() layers.Name { return t.Layer }

// Bounds treats text as its anchor point; exporters that know glyph
// metrics may draw wider than this.
func (t Text) Bounds() geom.BoundingBox { return geom.Box(t.Position, t.Position) }

func (t Text) MarshalJSON() ([]byte, error) {
	type alias Text
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "text", alias: alias(t)})
}

// Dimension places a built dimension annotation on a layer.
type Dimension struct {
	dimension.Line
	Layer layers.Name `json:"layer"`
}

func (d Dimension) LayerName() layers.Name { return d.Layer }

func (d Dimension) Bounds() geom.BoundingBox {
	b := geom.Box(d.Measure.Start, d.Measure.End)
	for _, ext := range d.Extensions {
		b = b.Union(geom.Box(ext.Start, ext.End))
	}
	for _, a := range d.Arrows {
		for _, p := range a.Polygon() {
			b = b.Union(geom.Box(p, p))
		}
	}
	return b.Union(geom.Box(d.Label.Position, d.Label.Position))
}

func (d Dimension) MarshalJSON() ([]byte, error) {
	type alias Dimension
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "dimension", alias: alias(d)})
}

// Point is a single marked position.
type Point struct {
	Position geom.Point2D `json:"position"`
	Layer    layers.Name  `json:"layer"`
}

func (p Point) LayerName() layers.Name { return p.Layer }

func (p Point) Bounds() geom.BoundingBox { return geom.Box(p.Position, p.Position) }

func (p Point) MarshalJSON() ([]byte, error) {
	type alias Point
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "point", alias: alias(p)})
}

func (Rectangle) sealed() {}
func (Line) sealed()      {}
func (Text) sealed()      {}
func (Dimension) sealed() {}
func (Point) sealed()     {}
