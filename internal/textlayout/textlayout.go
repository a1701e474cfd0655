/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout resolves fonts and draws measurement labels onto
// raster images. All measurement goes through deterministic interfaces
// so rendering is reproducible with or without real font files: the
// built-in bitmap face always works, OpenType faces are used when a
// font file has been loaded.
package textlayout

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string  // logical family name
	SizePt float64 // size in points (1/72 inch)
	Weight int     // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Height is the nominal text box height, ascent plus descent.
func (m Metrics) Height() float64 { return m.Ascent + m.Descent }

// Provider maps a FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider resolves everything to the x/image Face7x13 bitmap
// face. It ignores size and weight, which makes it exact for tests and
// an always-available fallback when no font files are configured.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// StringWidth returns the horizontal advance of s in pixels.
func StringWidth(face font.Face, s string) float64 {
	d := &font.Drawer{Face: face}
	return fixedToFloat(d.MeasureString(s))
}

// Measure returns the pixel width and height of a single-line string.
func Measure(p Provider, spec FontSpec, s string) (w, h float64) {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	return StringWidth(face, s), met.Height()
}

// DrawString renders s with the baseline origin at (x, y).
func DrawString(dst draw.Image, face font.Face, col color.Color, x, y float64, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(y)},
	}
	d.DrawString(s)
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

func floatToFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }
