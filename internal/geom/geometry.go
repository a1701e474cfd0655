/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package geom provides the 2D primitives and the drawing coordinate system
// shared by the scene builder and every exporter. All values are millimeters
// in a bottom-left-origin plane (+X right, +Y up), matching CAD conventions.
// Screen-space consumers (SVG, PNG) flip the Y axis themselves.
package geom

import (
	"fmt"
	"math"
)

// Point2D is a 2D point in millimeters. Value type; all operations return
// new points.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// P is shorthand for constructing a Point2D.
func P(x, y float64) Point2D { return Point2D{X: x, Y: y} }

// Add returns the vector sum p + q.
func (p Point2D) Add(q Point2D) Point2D { return Point2D{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector difference p - q.
func (p Point2D) Sub(q Point2D) Point2D { return Point2D{p.X - q.X, p.Y - q.Y} }

// Mul returns p scaled by s.
func (p Point2D) Mul(s float64) Point2D { return Point2D{p.X * s, p.Y * s} }

// Translate returns p moved by (dx, dy).
func (p Point2D) Translate(dx, dy float64) Point2D { return Point2D{p.X + dx, p.Y + dy} }

// Distance returns the Euclidean distance to q.
func (p Point2D) Distance(q Point2D) float64 { return math.Hypot(q.X-p.X, q.Y-p.Y) }

// BoundingBox is an axis-aligned min/max extent in millimeters.
// Degenerate (zero-area) boxes are valid and represent a single point
// or segment.
type BoundingBox struct {
	Min Point2D `json:"min"`
	Max Point2D `json:"max"`
}

// Box constructs a BoundingBox, normalizing the corners so that
// Min.X <= Max.X and Min.Y <= Max.Y always holds.
func Box(a, b Point2D) BoundingBox {
	return BoundingBox{
		Min: Point2D{math.Min(a.X, b.X), math.Min(a.Y, b.Y)},
		Max: Point2D{math.Max(a.X, b.X), math.Max(a.Y, b.Y)},
	}
}

// Width returns the box extent along X.
func (b BoundingBox) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the box extent along Y.
func (b BoundingBox) Height() float64 { return b.Max.Y - b.Min.Y }

// Area returns width times height.
func (b BoundingBox) Area() float64 { return b.Width() * b.Height() }

// Center returns the geometric center of the box.
func (b BoundingBox) Center() Point2D {
	return Point2D{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2}
}

// Expand grows the box by margin on all four sides.
func (b BoundingBox) Expand(margin float64) BoundingBox {
	return BoundingBox{
		Min: Point2D{b.Min.X - margin, b.Min.Y - margin},
		Max: Point2D{b.Max.X + margin, b.Max.Y + margin},
	}
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		Min: Point2D{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y)},
		Max: Point2D{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y)},
	}
}

// Contains reports whether p lies inside or on the edge of the box.
func (b BoundingBox) Contains(p Point2D) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// SashKind selects which sash a coordinate lookup positions.
type SashKind int

const (
	SashTop SashKind = iota
	SashBottom
)

func (k SashKind) String() string {
	if k == SashTop {
		return "top"
	}
	return "bottom"
}

// CoordinateSystem derives absolute drawing positions for frame, sash, and
// glass boxes from window dimensions. It owns only the drawing origin
// (bottom-left convention) and is stateless after construction; build one per
// scene. Manufacturing deductions are always supplied by the caller — this
// component positions geometry, it never decides formulas.
type CoordinateSystem struct {
	Origin Point2D `json:"origin"`
}

// NewCoordinateSystem returns a coordinate system anchored at origin.
func NewCoordinateSystem(origin Point2D) CoordinateSystem {
	return CoordinateSystem{Origin: origin}
}

// ToGlobal converts a local point into the global plane.
func (cs CoordinateSystem) ToGlobal(local Point2D) Point2D { return local.Add(cs.Origin) }

// ToLocal converts a global point into the local plane.
func (cs CoordinateSystem) ToLocal(global Point2D) Point2D { return global.Sub(cs.Origin) }

// FrameBox returns the frame extent: lower-left corner at the origin,
// spanning width x height.
func (cs CoordinateSystem) FrameBox(width, height float64) (BoundingBox, error) {
	if width <= 0 {
		return BoundingBox{}, &InvalidDimensionError{Field: "frame_width", Value: width}
	}
	if height <= 0 {
		return BoundingBox{}, &InvalidDimensionError{Field: "frame_height", Value: height}
	}
	return BoundingBox{
		Min: cs.Origin,
		Max: Point2D{cs.Origin.X + width, cs.Origin.Y + height},
	}, nil
}

// SashBox positions a sash inside the frame: centered horizontally, the top
// sash flush with the frame top, the bottom sash flush with the frame bottom.
func (cs CoordinateSystem) SashBox(kind SashKind, frame BoundingBox, sashWidth, sashHeight float64) (BoundingBox, error) {
	if sashWidth <= 0 {
		return BoundingBox{}, &InvalidDimensionError{Field: fmt.Sprintf("%s_sash_width", kind), Value: sashWidth}
	}
	if sashHeight <= 0 {
		return BoundingBox{}, &InvalidDimensionError{Field: fmt.Sprintf("%s_sash_height", kind), Value: sashHeight}
	}
	x := frame.Min.X + (frame.Width()-sashWidth)/2
	var y float64
	if kind == SashTop {
		y = frame.Max.Y - sashHeight
	} else {
		y = frame.Min.Y
	}
	return BoundingBox{
		Min: Point2D{x, y},
		Max: Point2D{x + sashWidth, y + sashHeight},
	}, nil
}

// GlassBox positions the glass pane inside a sash, centered both ways.
// The pane dimensions are the sash dimensions minus the caller-supplied
// deductions; a deduction that consumes the whole sash is rejected.
func (cs CoordinateSystem) GlassBox(sash BoundingBox, widthDeduction, heightDeduction float64) (BoundingBox, error) {
	gw := sash.Width() - widthDeduction
	gh := sash.Height() - heightDeduction
	if gw <= 0 {
		return BoundingBox{}, &InvalidDimensionError{Field: "glass_width", Value: gw}
	}
	if gh <= 0 {
		return BoundingBox{}, &InvalidDimensionError{Field: "glass_height", Value: gh}
	}
	x := sash.Min.X + (sash.Width()-gw)/2
	y := sash.Min.Y + (sash.Height()-gh)/2
	return BoundingBox{
		Min: Point2D{x, y},
		Max: Point2D{x + gw, y + gh},
	}, nil
}

// DrawingBox returns the overall sheet extent for a frame of the given size:
// the frame box expanded by margin on all sides.
func (cs CoordinateSystem) DrawingBox(frameWidth, frameHeight, margin float64) (BoundingBox, error) {
	fb, err := cs.FrameBox(frameWidth, frameHeight)
	if err != nil {
		return BoundingBox{}, err
	}
	return fb.Expand(margin), nil
}

// Round rounds v to the given number of decimal places, half away from zero.
// Dimension labels rely on this so that 1234.5 at zero places renders 1235.
func Round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
