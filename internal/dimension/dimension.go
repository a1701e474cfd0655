/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package dimension computes dimension-line geometry for technical
// drawings: the measurement line, perpendicular extension lines,
// arrowheads, and the anchored text label. Sizes follow ISO 129
// drafting defaults and are expressed in millimetres; exporters decide
// how the pieces are stroked.
package dimension

import (
	"math"
	"strconv"

	"sashcad/internal/geom"
)

// Style holds the drafting constants every dimension is built with.
type Style struct {
	ArrowSize  float64 `json:"arrow_size"`  // arrowhead length in mm
	TextHeight float64 `json:"text_height"` // label height in mm
	Overshoot  float64 `json:"overshoot"`   // extension line run past the measure line
	TextGap    float64 `json:"text_gap"`    // clearance between measure line and label
}

// DefaultStyle returns the ISO defaults: 3 mm arrows, 3.5 mm text,
// 2 mm overshoot, 5 mm text gap.
func DefaultStyle() Style {
	return Style{ArrowSize: 3.0, TextHeight: 3.5, Overshoot: 2.0, TextGap: 5.0}
}

// ArrowStyle selects how an arrowhead is drawn.
type ArrowStyle string

const (
	ArrowClosed ArrowStyle = "closed"
	ArrowOpen   ArrowStyle = "open"
	ArrowDot    ArrowStyle = "dot"
	ArrowSlash  ArrowStyle = "slash"
)

// arrowHalfAngle is the half-angle of the arrowhead in radians (20
// degrees, the usual closed-arrow proportion).
var arrowHalfAngle = 20 * math.Pi / 180

// Arrow is one arrowhead. Angle is the direction the tip points, in
// degrees counter-clockwise from +X.
type Arrow struct {
	Tip   geom.Point2D `json:"tip"`
	Angle float64      `json:"angle"`
	Size  float64      `json:"size"`
	Style ArrowStyle   `json:"style"`
}

// Polygon returns the tip and the two wing points of the arrowhead.
func (a Arrow) Polygon() []geom.Point2D {
	dir := a.Angle * math.Pi / 180
	baseDist := a.Size * math.Cos(arrowHalfAngle)
	baseWidth := a.Size * math.Sin(arrowHalfAngle)

	baseX := a.Tip.X - baseDist*math.Cos(dir)
	baseY := a.Tip.Y - baseDist*math.Sin(dir)
	perp := dir + math.Pi/2

	return []geom.Point2D{
		a.Tip,
		{X: baseX + baseWidth*math.Cos(perp), Y: baseY + baseWidth*math.Sin(perp)},
		{X: baseX - baseWidth*math.Cos(perp), Y: baseY - baseWidth*math.Sin(perp)},
	}
}

// Label is the measurement text anchored next to the measure line.
// Rotation is in degrees counter-clockwise.
type Label struct {
	Position geom.Point2D `json:"position"`
	Text     string       `json:"text"`
	Height   float64      `json:"height"`
	Rotation float64      `json:"rotation"`
}

// Segment is one straight piece of a dimension.
type Segment struct {
	Start geom.Point2D `json:"start"`
	End   geom.Point2D `json:"end"`
}

// Kind names the dimension variants.
type Kind string

const (
	KindHorizontal Kind = "horizontal"
	KindVertical   Kind = "vertical"
	KindAligned    Kind = "aligned"
	KindRadial     Kind = "radial"
)

// Line is a complete dimension annotation: the measure line between
// the projected endpoints, extension lines back to the measured
// geometry, arrowheads, and the label. Value is the measured length
// in mm before rounding.
type Line struct {
	Kind       Kind      `json:"kind"`
	Measure    Segment   `json:"measure"`
	Extensions []Segment `json:"extensions,omitempty"`
	Arrows     []Arrow   `json:"arrows"`
	Label      Label     `json:"label"`
	Value      float64   `json:"measurement"`
	Offset     float64   `json:"offset"`
	Precision  int       `json:"precision"`
}

// WithText replaces the label text without touching the geometry,
// for callers that want a tag or note instead of the measurement.
func (l Line) WithText(text string) Line {
	l.Label.Text = text
	return l
}

// formatNumber rounds half-up to the given decimal places. Plain
// printf rounding is half-to-even, which would turn 1234.5 into 1234
// at whole-millimetre precision; drawings round up.
func formatNumber(v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(geom.Round(v, precision), 'f', precision, 64)
}

// FormatMeasurement renders a length the way dimension labels show it,
// rounded half-up with the millimetre suffix.
func FormatMeasurement(v float64, precision int) string {
	return formatNumber(v, precision) + " mm"
}

// Builder constructs dimension lines with a shared style. The zero
// value is not usable; NewBuilder applies the ISO defaults.
type Builder struct {
	Style Style
}

func NewBuilder() *Builder {
	return &Builder{Style: DefaultStyle()}
}

// Horizontal measures |endX-startX| along y, drawing the measure line
// at y+offset. Negative offsets place the dimension below the
// geometry; the extension lines overshoot past the measure line on
// the offset side.
func (b *Builder) Horizontal(startX, endX, y, offset float64, precision int) Line {
	value := math.Abs(endX - startX)
	dimY := y + offset
	over := math.Copysign(b.Style.Overshoot, offset)
	if offset == 0 {
		over = b.Style.Overshoot
	}

	measure := Segment{
		Start: geom.Point2D{X: startX, Y: dimY},
		End:   geom.Point2D{X: endX, Y: dimY},
	}
	return Line{
		Kind:    KindHorizontal,
		Measure: measure,
		Extensions: []Segment{
			{Start: geom.Point2D{X: startX, Y: y}, End: geom.Point2D{X: startX, Y: dimY + over}},
			{Start: geom.Point2D{X: endX, Y: y}, End: geom.Point2D{X: endX, Y: dimY + over}},
		},
		Arrows: []Arrow{
			{Tip: measure.Start, Angle: 0, Size: b.Style.ArrowSize, Style: ArrowClosed},
			{Tip: measure.End, Angle: 180, Size: b.Style.ArrowSize, Style: ArrowClosed},
		},
		Label: Label{
			Position: geom.Point2D{X: (startX + endX) / 2, Y: dimY + b.Style.TextGap + b.Style.TextHeight/2},
			Text:     FormatMeasurement(value, precision),
			Height:   b.Style.TextHeight,
		},
		Value:     value,
		Offset:    offset,
		Precision: precision,
	}
}

// Vertical measures |endY-startY| along x, drawing the measure line at
// x+offset with the label rotated 90 degrees.
func (b *Builder) Vertical(startY, endY, x, offset float64, precision int) Line {
	value := math.Abs(endY - startY)
	dimX := x + offset
	over := math.Copysign(b.Style.Overshoot, offset)
	if offset == 0 {
		over = b.Style.Overshoot
	}

	measure := Segment{
		Start: geom.Point2D{X: dimX, Y: startY},
		End:   geom.Point2D{X: dimX, Y: endY},
	}
	return Line{
		Kind:    KindVertical,
		Measure: measure,
		Extensions: []Segment{
			{Start: geom.Point2D{X: x, Y: startY}, End: geom.Point2D{X: dimX + over, Y: startY}},
			{Start: geom.Point2D{X: x, Y: endY}, End: geom.Point2D{X: dimX + over, Y: endY}},
		},
		Arrows: []Arrow{
			{Tip: measure.Start, Angle: 90, Size: b.Style.ArrowSize, Style: ArrowClosed},
			{Tip: measure.End, Angle: 270, Size: b.Style.ArrowSize, Style: ArrowClosed},
		},
		Label: Label{
			Position: geom.Point2D{X: dimX + b.Style.TextGap + b.Style.TextHeight, Y: (startY + endY) / 2},
			Text:     FormatMeasurement(value, precision),
			Height:   b.Style.TextHeight,
			Rotation: 90,
		},
		Value:     value,
		Offset:    offset,
		Precision: precision,
	}
}

// Aligned measures the straight distance between two points, drawing
// the measure line parallel to their segment, displaced perpendicular
// by offset. The label follows the segment angle.
func (b *Builder) Aligned(from, to geom.Point2D, offset float64, precision int) Line {
	dx := to.X - from.X
	dy := to.Y - from.Y
	value := math.Hypot(dx, dy)
	angle := math.Atan2(dy, dx)
	angleDeg := angle * 180 / math.Pi

	perp := angle + math.Pi/2
	off := geom.Point2D{X: offset * math.Cos(perp), Y: offset * math.Sin(perp)}

	measure := Segment{Start: from.Add(off), End: to.Add(off)}
	return Line{
		Kind:    KindAligned,
		Measure: measure,
		Extensions: []Segment{
			{Start: from, End: measure.Start},
			{Start: to, End: measure.End},
		},
		Arrows: []Arrow{
			{Tip: measure.Start, Angle: angleDeg, Size: b.Style.ArrowSize, Style: ArrowClosed},
			{Tip: measure.End, Angle: angleDeg + 180, Size: b.Style.ArrowSize, Style: ArrowClosed},
		},
		Label: Label{
			Position: geom.Point2D{X: (measure.Start.X + measure.End.X) / 2, Y: (measure.Start.Y + measure.End.Y) / 2},
			Text:     FormatMeasurement(value, precision),
			Height:   b.Style.TextHeight,
			Rotation: angleDeg,
		},
		Value:     value,
		Offset:    offset,
		Precision: precision,
	}
}

// Radial draws a single line from center outward at angle degrees,
// length = radius, labelled "R" plus the rounded radius. The label
// sits at sixty percent of the radius along the line.
func (b *Builder) Radial(center geom.Point2D, radius, angle float64, precision int) Line {
	rad := angle * math.Pi / 180
	end := geom.Point2D{
		X: center.X + radius*math.Cos(rad),
		Y: center.Y + radius*math.Sin(rad),
	}

	return Line{
		Kind:    KindRadial,
		Measure: Segment{Start: center, End: end},
		Arrows: []Arrow{
			{Tip: end, Angle: angle + 180, Size: b.Style.ArrowSize, Style: ArrowClosed},
		},
		Label: Label{
			Position: geom.Point2D{
				X: center.X + radius*0.6*math.Cos(rad),
				Y: center.Y + radius*0.6*math.Sin(rad),
			},
			Text:   "R" + formatNumber(radius, precision),
			Height: b.Style.TextHeight,
		},
		Value:     radius,
		Precision: precision,
	}
}
