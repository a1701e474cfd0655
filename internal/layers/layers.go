/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package layers defines the fixed layer set for window drawings with the
// per-layer styling every exporter shares: color, lineweight, linetype, plus
// the DXF projections (ACI color index, lineweight in hundredths of a
// millimeter). The registry is process-wide immutable configuration; it is
// never extended or mutated at runtime, so concurrent scene builds may read
// it freely.
package layers

import (
	"errors"
	"fmt"
)

// Name is a layer key. The set is closed: exactly the nine names below.
type Name string

const (
	Frame       Name = "FRAME"
	SashTop     Name = "SASH_TOP"
	SashBottom  Name = "SASH_BOTTOM"
	Glass       Name = "GLASS"
	BarsV       Name = "BARS_V" // vertical glazing bars
	BarsH       Name = "BARS_H" // horizontal glazing bars
	Dimensions  Name = "DIMENSIONS"
	Centerlines Name = "CENTERLINES"
	Annotations Name = "ANNOTATIONS"
)

// Linetype names follow CAD conventions.
type Linetype string

const (
	Continuous Linetype = "CONTINUOUS"
	Dashed     Linetype = "DASHED"
	Dotted     Linetype = "DOTTED"
	DashDot    Linetype = "DASHDOT"
	Center     Linetype = "CENTER"
)

// Properties is the immutable style record for one layer.
type Properties struct {
	Name          Name     `json:"name"`
	Color         Color    `json:"color"`
	Lineweight    float64  `json:"lineweight"` // mm
	Linetype      Linetype `json:"linetype"`
	Description   string   `json:"description"`
	DXFColor      int      `json:"dxf_color"`      // AutoCAD Color Index
	DXFLineweight int      `json:"dxf_lineweight"` // hundredths of mm
}

// ErrUnknownLayer marks lookups outside the fixed layer set. Any occurrence
// is a coding defect, not a runtime condition to recover from.
var ErrUnknownLayer = errors.New("unknown layer")

// UnknownLayerError names the offending layer.
type UnknownLayerError struct {
	Name Name
}

func (e *UnknownLayerError) Error() string {
	return fmt.Sprintf("unknown layer %q (fixed set of %d)", string(e.Name), len(registry))
}

func (e *UnknownLayerError) Unwrap() error { return ErrUnknownLayer }

// registry holds the canonical layer order: frame first, annotations last.
// Draw order in every exporter is this order.
var registry = []Properties{
	{Frame, RGB(0x2C, 0x2C, 0x2C), 0.50, Continuous, "Window frame outline", 8, 50},
	{SashTop, RGB(0x4A, 0x90, 0xE2), 0.35, Continuous, "Top sash outline", 5, 35},
	{SashBottom, RGB(0x4A, 0x90, 0xE2), 0.35, Continuous, "Bottom sash outline", 5, 35},
	{Glass, RGB(0xA0, 0xC4, 0xFF), 0.18, Continuous, "Glass panel outline", 4, 18},
	{BarsV, RGB(0x88, 0x88, 0x88), 0.25, Dashed, "Vertical glazing bars", 9, 25},
	{BarsH, RGB(0x88, 0x88, 0x88), 0.25, Dashed, "Horizontal glazing bars", 9, 25},
	{Dimensions, RGB(0xFF, 0x00, 0x00), 0.18, Continuous, "Dimension lines and text", 1, 18},
	{Centerlines, RGB(0x00, 0xFF, 0x00), 0.18, DashDot, "Center lines", 3, 18},
	{Annotations, RGB(0x00, 0x00, 0x00), 0.25, Continuous, "Text annotations and labels", 7, 25},
}

var byName = func() map[Name]Properties {
	m := make(map[Name]Properties, len(registry))
	for _, p := range registry {
		m[p.Name] = p
	}
	return m
}()

// Get returns the properties for a layer. A name outside the fixed set
// fails with an *UnknownLayerError; it is never silently defaulted.
func Get(name Name) (Properties, error) {
	p, ok := byName[name]
	if !ok {
		return Properties{}, &UnknownLayerError{Name: name}
	}
	return p, nil
}

// MustGet is Get for the hot path where the name is a package constant.
// It panics on an unknown name, treating it as the programmer error it is.
func MustGet(name Name) Properties {
	p, err := Get(name)
	if err != nil {
		panic(err)
	}
	return p
}

// All returns every layer in canonical draw order. The returned slice is a
// copy; callers may not mutate the registry through it.
func All() []Properties {
	out := make([]Properties, len(registry))
	copy(out, registry)
	return out
}

// Names returns the layer names in canonical draw order.
func Names() []Name {
	out := make([]Name, len(registry))
	for i, p := range registry {
		out[i] = p.Name
	}
	return out
}

// dashPatterns maps linetypes to SVG stroke-dasharray values.
var dashPatterns = map[Linetype]string{
	Continuous: "none",
	Dashed:     "5,3",
	Dotted:     "1,2",
	DashDot:    "8,3,1,3",
	Center:     "12,2,2,2",
}

// DashPattern returns the SVG stroke-dasharray for a linetype. Unknown
// linetypes render continuous.
func DashPattern(lt Linetype) string {
	if p, ok := dashPatterns[lt]; ok {
		return p
	}
	return "none"
}
