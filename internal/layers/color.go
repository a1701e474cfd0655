/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package layers

import (
	"fmt"
	"image/color"
	"strings"
)

// Color is the format-agnostic drawing color. Exporters project it into
// their own representation (hex for SVG, RGBA for raster); the DXF color
// index is a separate per-layer property because ACI is a palette, not RGB.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// RGB builds an opaque color.
func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b, A: 255} }

// Hex renders the color as #RRGGBB (alpha is carried separately by style
// opacity, matching SVG semantics).
func (c Color) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

// RGBA converts to the standard library color type for rasterization.
func (c Color) RGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// ParseHex parses #RGB or #RRGGBB into an opaque Color.
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		var r, g, b uint8
		if _, err := fmt.Sscanf(h, "%1x%1x%1x", &r, &g, &b); err != nil {
			return Color{}, fmt.Errorf("parse hex color %q: %w", s, err)
		}
		return RGB(r*17, g*17, b*17), nil
	case 6:
		var r, g, b uint8
		if _, err := fmt.Sscanf(h, "%02x%02x%02x", &r, &g, &b); err != nil {
			return Color{}, fmt.Errorf("parse hex color %q: %w", s, err)
		}
		return RGB(r, g, b), nil
	default:
		return Color{}, fmt.Errorf("parse hex color %q: want #RGB or #RRGGBB", s)
	}
}
