/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export serializes a built scene into the supported output
// formats. Every exporter is a pure function of the scene: no hidden
// state, byte-identical output for identical input. Exporters never
// mutate the scene and may run concurrently against the same one.
package export

import (
	"errors"
	"fmt"

	"sashcad/internal/scene"
)

// Format identifies an output format.
type Format string

const (
	FormatDXF  Format = "dxf"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJSON Format = "json" // renderer payload
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatDXF, FormatSVG, FormatPNG, FormatJSON, FormatPDF, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Exporter turns a scene into output bytes. Implementations hold only
// format-specific constants and options, never per-export state.
type Exporter interface {
	Format() Format
	Export(s *scene.Scene) ([]byte, error)
}

// For returns the scene exporter for a format with default options.
// PDF and XLSX are document exports built from the window model, not
// the scene alone; they are reached through BatchExport or their
// Export* functions.
func For(f Format) (Exporter, error) {
	switch f {
	case FormatDXF:
		return DXF{}, nil
	case FormatSVG:
		return SVG{}, nil
	case FormatPNG:
		return PNG{}, nil
	case FormatJSON:
		return Payload{}, nil
	}
	return nil, fmt.Errorf("no scene exporter for format %q", f)
}

// SceneFormats lists the formats driven purely by the scene, in the
// order batch exports produce them.
func SceneFormats() []Format {
	return []Format{FormatDXF, FormatSVG, FormatPNG, FormatJSON}
}

// ErrUnsupportedPrimitive marks a primitive variant an exporter has no
// rendering rule for. It indicates a version mismatch between the
// scene builder and the exporter, not a user error.
var ErrUnsupportedPrimitive = errors.New("unsupported primitive")

// UnsupportedPrimitiveError names the format and the primitive kind
// that could not be rendered.
type UnsupportedPrimitiveError struct {
	Format    Format
	Primitive string
}

func (e *UnsupportedPrimitiveError) Error() string {
	return fmt.Sprintf("%s export: unsupported primitive %q", e.Format, e.Primitive)
}

func (e *UnsupportedPrimitiveError) Unwrap() error { return ErrUnsupportedPrimitive }

func unsupported(f Format, p scene.Primitive) error {
	return &UnsupportedPrimitiveError{Format: f, Primitive: fmt.Sprintf("%T", p)}
}
