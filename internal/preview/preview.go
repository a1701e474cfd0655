/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package preview converts a produced SVG drawing into a raster PNG for
// thumbnails and on-screen previews. It is a format-conversion utility,
// not a scene consumer: it never rebuilds geometry, it rasterizes the
// vector file an exporter already wrote.
//
// Rasterization is an injected capability. When none is present the
// package degrades with ErrPreviewUnavailable instead of failing the
// export; callers are expected to return the vector file without a
// preview in that case.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
)

// ErrPreviewUnavailable reports that no rasterization capability is
// present in this runtime. Recoverable: the vector file is still valid.
var ErrPreviewUnavailable = errors.New("preview unavailable: no rasterizer installed")

// Rasterizer converts an SVG document into an in-memory image at the
// given pixel size.
type Rasterizer interface {
	Available() bool
	Rasterize(svg []byte, width, height int) (image.Image, error)
}

var rasterizer Rasterizer = svgRasterizer{}

// SetRasterizer installs a replacement capability and returns the
// previous one. Tests use this to simulate a runtime without raster
// support.
func SetRasterizer(r Rasterizer) Rasterizer {
	prev := rasterizer
	rasterizer = r
	return prev
}

// Available reports whether SVG preview rendering can be performed.
func Available() bool { return rasterizer != nil && rasterizer.Available() }

// Render converts SVG bytes into PNG bytes at the requested pixel
// width. Height follows the aspect ratio of the SVG's own viewBox. A
// non-positive width defaults to 512 px.
func Render(svg []byte, widthPx int) ([]byte, error) {
	if !Available() {
		return nil, ErrPreviewUnavailable
	}
	if widthPx <= 0 {
		widthPx = 512
	}
	w, h, err := viewBoxSize(svg)
	if err != nil {
		return nil, err
	}
	heightPx := int(math.Round(float64(widthPx) * h / w))
	if heightPx < 1 {
		heightPx = 1
	}
	img, err := rasterizer.Rasterize(svg, widthPx, heightPx)
	if err != nil {
		return nil, fmt.Errorf("rasterize svg: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderFile reads svgPath, rasterizes it, and writes the PNG next to
// the caller-chosen pngPath (parent directories are created).
func RenderFile(svgPath, pngPath string, widthPx int) error {
	svg, err := os.ReadFile(svgPath)
	if err != nil {
		return fmt.Errorf("read svg: %w", err)
	}
	data, err := Render(svg, widthPx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(pngPath), 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}
	return os.WriteFile(pngPath, data, 0o644)
}

// Thumbnail scales PNG bytes down to fit within maxW x maxH, keeping
// aspect ratio. Images already inside the box pass through unchanged.
func Thumbnail(pngData []byte, maxW, maxH int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	sb := src.Bounds()
	if sb.Dx() <= maxW && sb.Dy() <= maxH {
		return pngData, nil
	}
	scale := math.Min(float64(maxW)/float64(sb.Dx()), float64(maxH)/float64(sb.Dy()))
	dw := int(math.Max(1, math.Round(float64(sb.Dx())*scale)))
	dh := int(math.Max(1, math.Round(float64(sb.Dy())*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, xdraw.Over, nil)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func viewBoxSize(svg []byte) (w, h float64, err error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return 0, 0, fmt.Errorf("parse svg: %w", err)
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return 0, 0, fmt.Errorf("svg has no usable viewBox")
	}
	return icon.ViewBox.W, icon.ViewBox.H, nil
}

// svgRasterizer is the built-in capability based on oksvg and rasterx.
type svgRasterizer struct{}

func (svgRasterizer) Available() bool { return true }

func (svgRasterizer) Rasterize(svg []byte, width, height int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	icon.SetTarget(0, 0, float64(width), float64(height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1.0)
	return img, nil
}
