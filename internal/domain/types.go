/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the data model for box sash window projects. Field names
// serialize to the snake_case JSON keys the project manifest and the web API
// have always used, so saved projects stay readable across versions.

import (
	"time"

	"github.com/google/uuid"

	"sashcad/internal/geom"
)

// Frame holds frame dimensions and the liner lengths derived from them by
// the calculation engine.
type Frame struct {
	Width        float64 `json:"width"`  // mm
	Height       float64 `json:"height"` // mm
	JambsLength  float64 `json:"jambs_length"`
	HeadLength   float64 `json:"head_length"`
	CillLength   float64 `json:"cill_length"`
	ExtHeadLiner float64 `json:"ext_head_liner"`
	IntHeadLiner float64 `json:"int_head_liner"`
}

// Sash holds one sash (top or bottom) with its derived rail lengths.
type Sash struct {
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	HeightWithHorn   float64 `json:"height_with_horn"`
	StilesLength     float64 `json:"stiles_length"`
	TopRailLength    float64 `json:"top_rail_length"`
	BottomRailLength float64 `json:"bottom_rail_length"`
	MeetRailLength   float64 `json:"meet_rail_length"`
}

// Glass describes the pane for one sash.
type Glass struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Type        string  `json:"type"`
	Frosted     bool    `json:"frosted"`
	Toughened   bool    `json:"toughened"`
	SpacerColor string  `json:"spacer_color"`
	Pieces      int     `json:"pcs"`
}

// Bars describes the glazing bar layout for one sash. Spacing slices carry
// the equal gaps between bars (layout with N bars has N+1 gaps).
type Bars struct {
	LayoutType        string    `json:"layout_type"` // "None", "2x2", "3x3", "4x4"
	VerticalBars      int       `json:"vertical_bars"`
	HorizontalBars    int       `json:"horizontal_bars"`
	SpacingVertical   []float64 `json:"spacing_vertical,omitempty"`
	SpacingHorizontal []float64 `json:"spacing_horizontal,omitempty"`
}

// Window is a complete window specification: user inputs plus every derived
// dimension the calculation engine fills in.
type Window struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Frame          Frame  `json:"frame"`
	SashTop        Sash   `json:"sash_top"`
	SashBottom     Sash   `json:"sash_bottom"`
	GlassTop       Glass  `json:"glass_top"`
	GlassBottom    Glass  `json:"glass_bottom"`
	BarsTop        Bars   `json:"bars_top"`
	BarsBottom     Bars   `json:"bars_bottom"`
	PaintColor     string `json:"paint_color"`
	HardwareFinish string `json:"hardware_finish"`
	TrickleVent    string `json:"trickle_vent"`
	SashCatches    string `json:"sash_catches"`
	CillExtension  int    `json:"cill_extension"` // mm
	WoodType       string `json:"wood_type,omitempty"`
}

// NewWindow returns a window with a fresh id and the workshop defaults.
func NewWindow(name string) Window {
	return Window{
		ID:             uuid.NewString(),
		Name:           name,
		GlassTop:       Glass{Type: DefaultGlassType, SpacerColor: "Black", Pieces: 1},
		GlassBottom:    Glass{Type: DefaultGlassType, SpacerColor: "Black", Pieces: 1},
		BarsTop:        Bars{LayoutType: "None"},
		BarsBottom:     Bars{LayoutType: "None"},
		PaintColor:     "White",
		HardwareFinish: "Satin Chrome",
		TrickleVent:    "Concealed",
		SashCatches:    "Standard",
		CillExtension:  60,
	}
}

// DefaultGlassType is the stock double-glazed unit specification.
const DefaultGlassType = "24mm TGH/ARG/TGH"

// Validate rejects windows whose required measurements are non-positive.
// It runs before any scene build so a bad input never produces a partial
// drawing. Optional fields (bars, trickle vent) are not checked here.
func (w Window) Validate() error {
	if w.Frame.Width <= 0 {
		return &geom.InvalidDimensionError{Field: "frame_width", Value: w.Frame.Width}
	}
	if w.Frame.Height <= 0 {
		return &geom.InvalidDimensionError{Field: "frame_height", Value: w.Frame.Height}
	}
	if w.SashTop.Height < 0 {
		return &geom.InvalidDimensionError{Field: "top_sash_height", Value: w.SashTop.Height}
	}
	if w.SashBottom.Height < 0 {
		return &geom.InvalidDimensionError{Field: "bottom_sash_height", Value: w.SashBottom.Height}
	}
	if w.BarsTop.VerticalBars < 0 || w.BarsTop.HorizontalBars < 0 ||
		w.BarsBottom.VerticalBars < 0 || w.BarsBottom.HorizontalBars < 0 {
		return &geom.InvalidDimensionError{Field: "bars", Value: -1}
	}
	return nil
}

// HasSash reports whether at least one sash has a usable height. A window
// without any sash cannot produce a drawing.
func (w Window) HasSash() bool {
	return w.SashTop.Height > 0 || w.SashBottom.Height > 0
}

// Project groups the windows quoted for one client.
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ClientName string    `json:"client_name"`
	Windows    []Window  `json:"windows"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewProject returns an empty project with a fresh id.
func NewProject(name, client string) Project {
	return Project{
		ID:         uuid.NewString(),
		Name:       name,
		ClientName: client,
		Windows:    []Window{},
		CreatedAt:  time.Now().UTC(),
	}
}

// AddWindow appends a window to the project.
func (p *Project) AddWindow(w Window) { p.Windows = append(p.Windows, w) }

// Window returns the first window with the given name, or nil.
func (p *Project) Window(name string) *Window {
	for i := range p.Windows {
		if p.Windows[i].Name == name {
			return &p.Windows[i]
		}
	}
	return nil
}
