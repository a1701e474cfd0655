/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package scene assembles a window's dimensional model into a layered
// drawing: a layer-keyed, ordered collection of primitives plus
// metadata and overall bounds. The scene is built fresh per request,
// never mutated afterwards, and is the single input every exporter
// consumes.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sashcad/internal/dimension"
	"sashcad/internal/domain"
	"sashcad/internal/geom"
	"sashcad/internal/layers"
)

// Placement standoffs in mm. These position annotations relative to
// the geometry they describe; manufacturing deductions never live
// here, they arrive on the window model.
const (
	frameDimStandoff = 20.0
	glassDimStandoff = 12.0
	barNoteStandoff  = 25.0
	sceneMargin      = 50.0
)

// ErrIncompleteWindow marks a scene build attempted on a window that
// is missing required sub-dimensions. Validated input never triggers
// it.
var ErrIncompleteWindow = errors.New("incomplete window")

// IncompleteWindowError wraps the dimension fault that stopped the
// build. It matches both ErrIncompleteWindow and the wrapped
// geom.ErrInvalidDimension.
type IncompleteWindowError struct {
	Err error
}

func (e *IncompleteWindowError) Error() string {
	if e.Err == nil {
		return "incomplete window"
	}
	return "incomplete window: " + e.Err.Error()
}

func (e *IncompleteWindowError) Unwrap() error { return e.Err }

func (e *IncompleteWindowError) Is(target error) bool { return target == ErrIncompleteWindow }

// Metadata identifies the window a scene was built from.
type Metadata struct {
	WindowID       string    `json:"window_id"`
	WindowName     string    `json:"window_name"`
	FrameWidth     float64   `json:"frame_width"`
	FrameHeight    float64   `json:"frame_height"`
	PaintColor     string    `json:"paint_color"`
	HardwareFinish string    `json:"hardware_finish"`
	GeneratedAt    time.Time `json:"generated_at"`
	Units          string    `json:"units"`
}

// Options tunes a scene build. The zero value builds a fully
// dimensioned scene stamped with the current time.
type Options struct {
	// NoDimensions leaves the DIMENSIONS layer empty.
	NoDimensions bool
	// Now overrides the metadata timestamp, for reproducible output.
	Now time.Time
}

// Scene is the aggregate drawing. Insertion order within a layer is
// draw order; layer order is the registry's canonical order. A built
// scene is read-only.
type Scene struct {
	Meta   Metadata
	Coords geom.CoordinateSystem
	Bounds geom.BoundingBox

	prims map[layers.Name][]Primitive
}

func (s *Scene) add(p Primitive) {
	s.prims[p.LayerName()] = append(s.prims[p.LayerName()], p)
}

// Primitives returns the draw-ordered primitives of one layer. The
// slice is the scene's own; callers must not modify it.
func (s *Scene) Primitives(name layers.Name) []Primitive { return s.prims[name] }

// PopulatedLayers returns, in canonical order, the layers that
// received at least one primitive.
func (s *Scene) PopulatedLayers() []layers.Name {
	var out []layers.Name
	for _, props := range layers.All() {
		if len(s.prims[props.Name]) > 0 {
			out = append(out, props.Name)
		}
	}
	return out
}

// PrimitiveCount returns the total primitive count across all layers.
func (s *Scene) PrimitiveCount() int {
	n := 0
	for _, ps := range s.prims {
		n += len(ps)
	}
	return n
}

// MarshalJSON serializes the scene the way API responses carry it:
// every layer present (empty layers as empty arrays), bounds with
// derived width/height/center.
func (s *Scene) MarshalJSON() ([]byte, error) {
	layerMap := make(map[layers.Name][]Primitive, len(s.prims))
	for _, props := range layers.All() {
		ps := s.prims[props.Name]
		if ps == nil {
			ps = []Primitive{}
		}
		layerMap[props.Name] = ps
	}
	return json.Marshal(struct {
		Metadata Metadata                    `json:"metadata"`
		Layers   map[layers.Name][]Primitive `json:"layers"`
		Bounds   boundsJSON                  `json:"bounds"`
		Coords   geom.CoordinateSystem       `json:"coordinate_system"`
	}{
		Metadata: s.Meta,
		Layers:   layerMap,
		Bounds:   newBoundsJSON(s.Bounds),
		Coords:   s.Coords,
	})
}

type boundsJSON struct {
	Min    geom.Point2D `json:"min"`
	Max    geom.Point2D `json:"max"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Center geom.Point2D `json:"center"`
}

func newBoundsJSON(b geom.BoundingBox) boundsJSON {
	return boundsJSON{Min: b.Min, Max: b.Max, Width: b.Width(), Height: b.Height(), Center: b.Center()}
}

// Build assembles the scene for one window. The order is fixed: frame,
// sashes, glass, bars, centerlines, dimensions, annotations, then the
// overall bounds, because later steps place themselves relative to the
// geometry of earlier ones.
func Build(w domain.Window, opts Options) (*Scene, error) {
	if err := w.Validate(); err != nil {
		return nil, &IncompleteWindowError{Err: err}
	}
	if !w.HasSash() {
		return nil, &IncompleteWindowError{Err: &geom.InvalidDimensionError{Field: "sash_height"}}
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	cs := geom.NewCoordinateSystem(geom.P(0, 0))
	frameBox, err := cs.FrameBox(w.Frame.Width, w.Frame.Height)
	if err != nil {
		return nil, &IncompleteWindowError{Err: err}
	}

	s := &Scene{
		Meta: Metadata{
			WindowID:       w.ID,
			WindowName:     w.Name,
			FrameWidth:     w.Frame.Width,
			FrameHeight:    w.Frame.Height,
			PaintColor:     w.PaintColor,
			HardwareFinish: w.HardwareFinish,
			GeneratedAt:    now,
			Units:          "millimeters",
		},
		Coords: cs,
		prims:  make(map[layers.Name][]Primitive),
	}

	s.add(Rectangle{
		X: frameBox.Min.X, Y: frameBox.Min.Y,
		Width: frameBox.Width(), Height: frameBox.Height(),
		Layer: layers.Frame,
	})

	parts, err := placeSashes(cs, frameBox, w)
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		s.add(Rectangle{
			X: part.box.Min.X, Y: part.box.Min.Y,
			Width: part.box.Width(), Height: part.box.Height(),
			Layer: part.layer,
		})
	}
	for _, part := range parts {
		if !part.hasGlass {
			continue
		}
		s.add(Rectangle{
			X: part.glassBox.Min.X, Y: part.glassBox.Min.Y,
			Width: part.glassBox.Width(), Height: part.glassBox.Height(),
			Layer: layers.Glass, Fill: true, Opacity: 0.4,
		})
	}

	for _, part := range parts {
		addBars(s, part)
	}

	center := frameBox.Center()
	s.add(Line{
		Start: geom.P(center.X, frameBox.Min.Y),
		End:   geom.P(center.X, frameBox.Max.Y),
		Layer: layers.Centerlines,
	})
	s.add(Line{
		Start: geom.P(frameBox.Min.X, center.Y),
		End:   geom.P(frameBox.Max.X, center.Y),
		Layer: layers.Centerlines,
	})

	if !opts.NoDimensions {
		addDimensions(s, frameBox, parts)
	}

	addAnnotations(s, w, frameBox, now)

	s.Bounds = overallBounds(s).Expand(sceneMargin)
	return s, nil
}

// sashPart carries one placed sash and its glass, if any.
type sashPart struct {
	kind     geom.SashKind
	layer    layers.Name
	bars     domain.Bars
	box      geom.BoundingBox
	glassBox geom.BoundingBox
	hasGlass bool
}

// placeSashes positions the sashes present on the window, top before
// bottom. A sash with a height but no usable width is a calculation
// fault, not a drawable state.
func placeSashes(cs geom.CoordinateSystem, frameBox geom.BoundingBox, w domain.Window) ([]sashPart, error) {
	type candidate struct {
		kind  geom.SashKind
		layer layers.Name
		sash  domain.Sash
		glass domain.Glass
		bars  domain.Bars
	}
	candidates := []candidate{
		{geom.SashTop, layers.SashTop, w.SashTop, w.GlassTop, w.BarsTop},
		{geom.SashBottom, layers.SashBottom, w.SashBottom, w.GlassBottom, w.BarsBottom},
	}

	var parts []sashPart
	for _, c := range candidates {
		if c.sash.Height <= 0 {
			continue
		}
		box, err := cs.SashBox(c.kind, frameBox, c.sash.Width, c.sash.Height)
		if err != nil {
			return nil, &IncompleteWindowError{Err: err}
		}
		part := sashPart{kind: c.kind, layer: c.layer, bars: c.bars, box: box}
		if c.glass.Width > 0 && c.glass.Height > 0 {
			glassBox, err := cs.GlassBox(box, c.sash.Width-c.glass.Width, c.sash.Height-c.glass.Height)
			if err != nil {
				return nil, &IncompleteWindowError{Err: err}
			}
			part.glassBox = glassBox
			part.hasGlass = true
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// addBars emits evenly spaced glazing bars across a sash's glass. n
// bars split the glass into n+1 equal panes; no glass means no bars.
func addBars(s *Scene, part sashPart) {
	if !part.hasGlass {
		return
	}
	g := part.glassBox
	if n := part.bars.VerticalBars; n > 0 {
		gap := g.Width() / float64(n+1)
		for i := 1; i <= n; i++ {
			x := g.Min.X + float64(i)*gap
			s.add(Line{Start: geom.P(x, g.Min.Y), End: geom.P(x, g.Max.Y), Layer: layers.BarsV})
		}
	}
	if n := part.bars.HorizontalBars; n > 0 {
		gap := g.Height() / float64(n+1)
		for i := 1; i <= n; i++ {
			y := g.Min.Y + float64(i)*gap
			s.add(Line{Start: geom.P(g.Min.X, y), End: geom.P(g.Max.X, y), Layer: layers.BarsH})
		}
	}
}

// addDimensions emits the measurement annotations: overall frame width
// below and height to the right, then each sash's glass size. Glass
// dimensions stand off toward free space, away from the meeting rail.
func addDimensions(s *Scene, frameBox geom.BoundingBox, parts []sashPart) {
	db := dimension.NewBuilder()

	s.add(Dimension{
		Line:  db.Horizontal(frameBox.Min.X, frameBox.Max.X, frameBox.Min.Y, -frameDimStandoff, 1),
		Layer: layers.Dimensions,
	})
	s.add(Dimension{
		Line:  db.Vertical(frameBox.Min.Y, frameBox.Max.Y, frameBox.Max.X, frameDimStandoff, 1),
		Layer: layers.Dimensions,
	})

	for _, part := range parts {
		if !part.hasGlass {
			continue
		}
		g := part.glassBox
		widthLabel := fmt.Sprintf("Glass %.1f", g.Width())
		heightLabel := fmt.Sprintf("Glass %.1f", g.Height())
		if part.kind == geom.SashTop {
			s.add(Dimension{
				Line:  db.Horizontal(g.Min.X, g.Max.X, g.Max.Y, glassDimStandoff, 1).WithText(widthLabel),
				Layer: layers.Dimensions,
			})
		} else {
			s.add(Dimension{
				Line:  db.Horizontal(g.Min.X, g.Max.X, g.Min.Y, -glassDimStandoff, 1).WithText(widthLabel),
				Layer: layers.Dimensions,
			})
		}
		s.add(Dimension{
			Line:  db.Vertical(g.Min.Y, g.Max.Y, g.Max.X, glassDimStandoff, 1).WithText(heightLabel),
			Layer: layers.Dimensions,
		})
	}

	for _, part := range parts {
		addBarNotes(s, part)
	}
}

// addBarNotes annotates the computed bar gap next to the first bar of
// each direction.
func addBarNotes(s *Scene, part sashPart) {
	if !part.hasGlass {
		return
	}
	g := part.glassBox
	if n := part.bars.VerticalBars; n > 0 {
		gap := g.Width() / float64(n+1)
		y := g.Min.Y - barNoteStandoff
		if part.kind == geom.SashTop {
			y = g.Max.Y + barNoteStandoff
		}
		s.add(Text{
			Position: geom.P(g.Min.X+gap, y),
			Content:  fmt.Sprintf("V-Bar spacing: %.1f mm", gap),
			Height:   2.5,
			Align:    AlignCenter,
			Layer:    layers.Annotations,
		})
	}
	if n := part.bars.HorizontalBars; n > 0 {
		gap := g.Height() / float64(n+1)
		s.add(Text{
			Position: geom.P(g.Max.X+barNoteStandoff, g.Min.Y+gap),
			Content:  fmt.Sprintf("H-Bar: %.1f", gap),
			Height:   2.5,
			Rotation: 90,
			Layer:    layers.Annotations,
		})
	}
}

// addAnnotations emits the title and the metadata block above the
// frame.
func addAnnotations(s *Scene, w domain.Window, frameBox geom.BoundingBox, now time.Time) {
	s.add(Text{
		Position: geom.P(frameBox.Center().X, frameBox.Max.Y+20),
		Content:  w.Name,
		Height:   5.0,
		Align:    AlignCenter,
		Layer:    layers.Annotations,
	})

	lines := []string{
		"Width: " + dimension.FormatMeasurement(w.Frame.Width, 0),
		"Height: " + dimension.FormatMeasurement(w.Frame.Height, 0),
		"Paint: " + w.PaintColor,
		"Hardware: " + w.HardwareFinish,
		"Generated: " + now.Format(time.RFC3339),
	}
	y := frameBox.Max.Y + 30
	for _, line := range lines {
		s.add(Text{
			Position: geom.P(frameBox.Min.X+10, y),
			Content:  line,
			Height:   3.0,
			Layer:    layers.Annotations,
		})
		y -= 5
	}
}

// overallBounds unions every primitive's extent, widened by the stroke
// it will be drawn with.
func overallBounds(s *Scene) geom.BoundingBox {
	var out geom.BoundingBox
	have := false
	for _, props := range layers.All() {
		for _, p := range s.prims[props.Name] {
			b := strokeExpanded(p)
			if !have {
				out = b
				have = true
				continue
			}
			out = out.Union(b)
		}
	}
	return out
}

func strokeExpanded(p Primitive) geom.BoundingBox {
	b := p.Bounds()
	var stroke float64
	switch v := p.(type) {
	case Rectangle:
		stroke = v.StrokeWidth
	case Line:
		stroke = v.StrokeWidth
	default:
		return b
	}
	if stroke == 0 {
		stroke = layers.MustGet(p.LayerName()).Lineweight
	}
	return b.Expand(stroke / 2)
}
