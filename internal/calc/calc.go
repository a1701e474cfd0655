/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package calc derives every manufacturing dimension of a box sash window
// from the two measurements a surveyor actually takes: the frame opening
// and the sash split. All deductions are the workshop's standard joinery
// allowances and are fixed here as constants.
package calc

import (
	"sashcad/internal/domain"
	"sashcad/internal/geom"
)

// Standard joinery deductions in mm. Changing these changes every cutting
// list ever produced, so they are constants rather than configuration.
const (
	SashWidthDeduction    = 178 // frame width to sash width
	GlassWidthDeduction   = 90  // sash width to glass width
	GlassHeightDeduction  = 76  // sash height to glass height
	JambDeduction         = 106 // frame height to jamb length
	ExtHeadLinerDeduction = 204 // frame width to exterior head liner
	IntHeadLinerDeduction = 170 // frame width to interior head liner
	HornAllowance         = 70  // added to stile length for the horn
)

// DefaultWoodType is used for cutting lists when the window does not
// specify a timber.
const DefaultWoodType = "Sapele"

// Frame derives all frame member lengths from the opening size.
func Frame(frameWidth, frameHeight float64) domain.Frame {
	return domain.Frame{
		Width:        frameWidth,
		Height:       frameHeight,
		JambsLength:  frameHeight - JambDeduction,
		HeadLength:   frameWidth,
		CillLength:   frameWidth,
		ExtHeadLiner: frameWidth - ExtHeadLinerDeduction,
		IntHeadLiner: frameWidth - IntHeadLinerDeduction,
	}
}

// Sash derives a sash from the frame width and the sash's own height.
// withHorn extends the stiles by the horn allowance; both sashes of a
// traditional box sash window carry horns.
func Sash(frameWidth, sashHeight float64, withHorn bool) domain.Sash {
	sashWidth := frameWidth - SashWidthDeduction
	stiles := sashHeight
	if withHorn {
		stiles += HornAllowance
	}
	return domain.Sash{
		Width:            sashWidth,
		Height:           sashHeight,
		HeightWithHorn:   stiles,
		StilesLength:     stiles,
		TopRailLength:    sashWidth,
		BottomRailLength: sashWidth,
		MeetRailLength:   sashWidth,
	}
}

// GlassOptions carries the non-dimensional glass choices.
type GlassOptions struct {
	Type        string
	Frosted     bool
	Toughened   bool
	SpacerColor string
}

// Glass derives the glazed size from the sash it sits in.
func Glass(sashWidth, sashHeight float64, opts GlassOptions) domain.Glass {
	if opts.Type == "" {
		opts.Type = domain.DefaultGlassType
	}
	if opts.SpacerColor == "" {
		opts.SpacerColor = "Black"
	}
	return domain.Glass{
		Width:       sashWidth - GlassWidthDeduction,
		Height:      sashHeight - GlassHeightDeduction,
		Type:        opts.Type,
		Frosted:     opts.Frosted,
		Toughened:   opts.Toughened,
		SpacerColor: opts.SpacerColor,
		Pieces:      1,
	}
}

// BarSpacing returns the run of equal gaps that n bars cut a dimension
// into. n bars produce n+1 gaps; zero bars produce no entries.
func BarSpacing(dimension float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	gap := dimension / float64(n+1)
	out := make([]float64, n+1)
	for i := range out {
		out[i] = gap
	}
	return out
}

// barLayouts maps the named glazing layouts to vertical and horizontal
// bar counts. Unknown names mean no bars.
var barLayouts = map[string][2]int{
	"None": {0, 0},
	"2x2":  {2, 2},
	"3x3":  {3, 3},
	"4x4":  {4, 4},
}

// Bars derives a glazing bar layout for a sash of the given size.
func Bars(sashWidth, sashHeight float64, layout string) domain.Bars {
	counts := barLayouts[layout]
	return domain.Bars{
		LayoutType:        layout,
		VerticalBars:      counts[0],
		HorizontalBars:    counts[1],
		SpacingVertical:   BarSpacing(sashWidth, counts[0]),
		SpacingHorizontal: BarSpacing(sashHeight, counts[1]),
	}
}

// WindowParams is everything needed to derive a complete window.
// Zero-valued option fields fall back to the workshop defaults.
type WindowParams struct {
	Name             string
	FrameWidth       float64
	FrameHeight      float64
	TopSashHeight    float64
	BottomSashHeight float64

	PaintColor     string
	HardwareFinish string
	TrickleVent    string
	SashCatches    string
	CillExtension  int
	GlassType      string
	BarsLayout     string
	SpacerColor    string
	Frosted        bool
	Toughened      bool
	WoodType       string
}

func (p *WindowParams) applyDefaults() {
	if p.PaintColor == "" {
		p.PaintColor = "White"
	}
	if p.HardwareFinish == "" {
		p.HardwareFinish = "Satin Chrome"
	}
	if p.TrickleVent == "" {
		p.TrickleVent = "Concealed"
	}
	if p.SashCatches == "" {
		p.SashCatches = "Standard"
	}
	if p.CillExtension == 0 {
		p.CillExtension = 60
	}
	if p.GlassType == "" {
		p.GlassType = domain.DefaultGlassType
	}
	if p.BarsLayout == "" {
		p.BarsLayout = "None"
	}
	if p.SpacerColor == "" {
		p.SpacerColor = "Black"
	}
}

func (p WindowParams) validate() error {
	if p.FrameWidth <= 0 {
		return &geom.InvalidDimensionError{Field: "frame_width", Value: p.FrameWidth}
	}
	if p.FrameHeight <= 0 {
		return &geom.InvalidDimensionError{Field: "frame_height", Value: p.FrameHeight}
	}
	if p.TopSashHeight <= 0 {
		return &geom.InvalidDimensionError{Field: "top_sash_height", Value: p.TopSashHeight}
	}
	if p.BottomSashHeight <= 0 {
		return &geom.InvalidDimensionError{Field: "bottom_sash_height", Value: p.BottomSashHeight}
	}
	return nil
}

// Window derives the complete window from the surveyed measurements.
// Every dependent dimension is computed here; nothing downstream
// recalculates.
func Window(p WindowParams) (domain.Window, error) {
	if err := p.validate(); err != nil {
		return domain.Window{}, err
	}
	p.applyDefaults()

	w := domain.NewWindow(p.Name)
	w.Frame = Frame(p.FrameWidth, p.FrameHeight)
	w.SashTop = Sash(p.FrameWidth, p.TopSashHeight, true)
	w.SashBottom = Sash(p.FrameWidth, p.BottomSashHeight, true)

	glassOpts := GlassOptions{
		Type:        p.GlassType,
		Frosted:     p.Frosted,
		Toughened:   p.Toughened,
		SpacerColor: p.SpacerColor,
	}
	w.GlassTop = Glass(w.SashTop.Width, w.SashTop.Height, glassOpts)
	w.GlassBottom = Glass(w.SashBottom.Width, w.SashBottom.Height, glassOpts)

	w.BarsTop = Bars(w.SashTop.Width, w.SashTop.Height, p.BarsLayout)
	w.BarsBottom = Bars(w.SashBottom.Width, w.SashBottom.Height, p.BarsLayout)

	w.PaintColor = p.PaintColor
	w.HardwareFinish = p.HardwareFinish
	w.TrickleVent = p.TrickleVent
	w.SashCatches = p.SashCatches
	w.CillExtension = p.CillExtension
	w.WoodType = p.WoodType
	return w, nil
}
