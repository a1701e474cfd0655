/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"sashcad/internal/geom"
	"sashcad/internal/layers"
	"sashcad/internal/scene"
	"sashcad/internal/textlayout"
)

// PNG rasterizes a scene with anti-aliasing. Pixel dimensions follow
// the scene bounds at the configured DPI: bounds-mm * DPI / 25.4.
// Zero-value options mean 300 DPI, white background, and the built-in
// bitmap font for labels.
type PNG struct {
	DPI        int
	Background layers.Color
	Fonts      textlayout.Provider
}

// Format reports "png".
func (PNG) Format() Format { return FormatPNG }

const pngFontFamily = "Helvetica"

// Export rasterizes the scene.
func (e PNG) Export(s *scene.Scene) ([]byte, error) {
	// Defaults
	dpi := e.DPI
	if dpi <= 0 {
		dpi = 300
	}
	bg := e.Background
	if bg.A == 0 && bg.R == 0 && bg.G == 0 && bg.B == 0 {
		bg = layers.RGB(255, 255, 255)
	}
	fonts := e.Fonts
	if fonts == nil {
		fonts = textlayout.BasicProvider{}
	}

	b := s.Bounds
	scale := float64(dpi) / 25.4
	pixW := int(math.Round(b.Width() * scale))
	pixH := int(math.Round(b.Height() * scale))
	if pixW < 1 {
		pixW = 1
	}
	if pixH < 1 {
		pixH = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg.RGBA()}, image.Point{}, draw.Src)

	cv := &rasterCanvas{
		img:    img,
		filler: rasterx.NewFiller(pixW, pixH, rasterx.NewScannerGV(pixW, pixH, img, img.Bounds())),
		dasher: rasterx.NewDasher(pixW, pixH, rasterx.NewScannerGV(pixW, pixH, img, img.Bounds())),
		fonts:  fonts,
		scale:  scale,
		minX:   b.Min.X,
		maxY:   b.Max.Y,
	}

	for _, props := range layers.All() {
		for _, p := range s.Primitives(props.Name) {
			if err := cv.drawPrimitive(props, p); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// rasterCanvas draws millimeter-space primitives into a pixel image.
// X shifts by the bounds origin, Y flips top-down, both scaled by
// pixels-per-millimeter.
type rasterCanvas struct {
	img    *image.RGBA
	filler *rasterx.Filler
	dasher *rasterx.Dasher
	fonts  textlayout.Provider
	scale  float64
	minX   float64
	maxY   float64
}

func (cv *rasterCanvas) px(x float64) float64 { return (x - cv.minX) * cv.scale }
func (cv *rasterCanvas) py(y float64) float64 { return (cv.maxY - y) * cv.scale }

func (cv *rasterCanvas) drawPrimitive(props layers.Properties, p scene.Primitive) error {
	col := props.Color.RGBA()
	dashes := pixelDashes(props.Linetype, cv.scale)

	switch v := p.(type) {
	case scene.Rectangle:
		lw := v.StrokeWidth
		if lw == 0 {
			lw = props.Lineweight
		}
		pts := [][2]float64{
			{cv.px(v.X), cv.py(v.Y)},
			{cv.px(v.X + v.Width), cv.py(v.Y)},
			{cv.px(v.X + v.Width), cv.py(v.Y + v.Height)},
			{cv.px(v.X), cv.py(v.Y + v.Height)},
		}
		if v.Fill {
			op := v.Opacity
			if op == 0 {
				op = 1
			}
			fc := col
			fc.A = uint8(math.Round(op * 255))
			cv.fillPolygon(pts, color.NRGBA{R: fc.R, G: fc.G, B: fc.B, A: fc.A})
		}
		cv.strokePolygon(pts, true, lw*cv.scale, col, dashes)
	case scene.Line:
		lw := v.StrokeWidth
		if lw == 0 {
			lw = props.Lineweight
		}
		cv.strokePolygon([][2]float64{
			{cv.px(v.Start.X), cv.py(v.Start.Y)},
			{cv.px(v.End.X), cv.py(v.End.Y)},
		}, false, lw*cv.scale, col, dashes)
	case scene.Text:
		cv.drawText(v.Position.X, v.Position.Y, v.Height, v.Rotation, v.Align, v.Content, col)
	case scene.Dimension:
		lwPx := props.Lineweight * cv.scale
		cv.strokePolygon([][2]float64{
			{cv.px(v.Measure.Start.X), cv.py(v.Measure.Start.Y)},
			{cv.px(v.Measure.End.X), cv.py(v.Measure.End.Y)},
		}, false, lwPx, col, nil)
		for _, ext := range v.Extensions {
			cv.strokePolygon([][2]float64{
				{cv.px(ext.Start.X), cv.py(ext.Start.Y)},
				{cv.px(ext.End.X), cv.py(ext.End.Y)},
			}, false, lwPx, col, nil)
		}
		for _, a := range v.Arrows {
			poly := a.Polygon()
			pts := make([][2]float64, len(poly))
			for i, pt := range poly {
				pts[i] = [2]float64{cv.px(pt.X), cv.py(pt.Y)}
			}
			cv.fillPolygon(pts, color.NRGBA{R: col.R, G: col.G, B: col.B, A: 255})
		}
		if v.Label.Text != "" {
			cv.drawText(v.Label.Position.X, v.Label.Position.Y, v.Label.Height, v.Label.Rotation, scene.AlignCenter, v.Label.Text, col)
		}
	case scene.Point:
		cv.filler.SetColor(col)
		rasterx.AddCircle(cv.px(v.Position.X), cv.py(v.Position.Y), props.Lineweight*cv.scale, cv.filler)
		cv.filler.Draw()
		cv.filler.Clear()
	default:
		return unsupported(FormatPNG, p)
	}
	return nil
}

func (cv *rasterCanvas) fillPolygon(pts [][2]float64, col color.Color) {
	if len(pts) < 3 {
		return
	}
	cv.filler.SetColor(col)
	cv.filler.Start(rasterx.ToFixedP(pts[0][0], pts[0][1]))
	for _, pt := range pts[1:] {
		cv.filler.Line(rasterx.ToFixedP(pt[0], pt[1]))
	}
	cv.filler.Stop(true)
	cv.filler.Draw()
	cv.filler.Clear()
}

func (cv *rasterCanvas) strokePolygon(pts [][2]float64, closed bool, widthPx float64, col color.Color, dashes []float64) {
	if len(pts) < 2 {
		return
	}
	if widthPx < 1 {
		widthPx = 1
	}
	cv.dasher.SetColor(col)
	cv.dasher.SetStroke(fixed.Int26_6(widthPx*64), fixed.Int26_6(4*64), rasterx.ButtCap, nil, rasterx.FlatGap, rasterx.Miter, dashes, 0)
	cv.dasher.Start(rasterx.ToFixedP(pts[0][0], pts[0][1]))
	for _, pt := range pts[1:] {
		cv.dasher.Line(rasterx.ToFixedP(pt[0], pt[1]))
	}
	cv.dasher.Stop(closed)
	cv.dasher.Draw()
	cv.dasher.Clear()
}

// pixelDashes converts a layer's dash elements into pixel units for
// the rasterizer; continuous lines return nil.
func pixelDashes(lt layers.Linetype, scale float64) []float64 {
	mm := dxfLinePatterns[lt]
	if len(mm) == 0 {
		return nil
	}
	out := make([]float64, len(mm))
	for i, e := range mm {
		out[i] = math.Abs(e) * scale
	}
	return out
}

// drawText renders one label. Height is in millimeters; the face is
// requested at the equivalent point size so the pixel height tracks
// DPI. Only the two rotations the scene emits are supported: 0 and 90
// degrees counter-clockwise, the latter drawn via a lossless transpose.
func (cv *rasterCanvas) drawText(x, y, heightMM, rotation float64, align scene.TextAlign, content string, col color.RGBA) {
	if content == "" {
		return
	}
	face, met := cv.fonts.Resolve(textlayout.FontSpec{Family: pngFontFamily, SizePt: geom.ToPoints(heightMM)})
	adv := textlayout.StringWidth(face, content)

	if rotation == 0 {
		bx := cv.px(x)
		switch align {
		case scene.AlignCenter:
			bx -= adv / 2
		case scene.AlignRight:
			bx -= adv
		}
		baseline := cv.py(y) + (met.Ascent-met.Descent)/2
		textlayout.DrawString(cv.img, face, col, bx, baseline, content)
		return
	}

	// Render horizontally into a scratch image, then rotate 90 CCW so
	// the text reads bottom to top.
	tw := int(math.Ceil(adv))
	th := int(math.Ceil(met.Height()))
	if tw < 1 || th < 1 {
		return
	}
	tmp := image.NewRGBA(image.Rect(0, 0, tw, th))
	textlayout.DrawString(tmp, face, col, 0, met.Ascent, content)

	ax := int(math.Round(cv.px(x)))
	ay := int(math.Round(cv.py(y)))
	blockX := ax - th/2
	var blockY int
	switch align {
	case scene.AlignCenter:
		blockY = ay - tw/2
	case scene.AlignRight:
		blockY = ay
	default:
		blockY = ay - tw
	}
	for ty := 0; ty < th; ty++ {
		for tx := 0; tx < tw; tx++ {
			c := tmp.RGBAAt(tx, ty)
			if c.A == 0 {
				continue
			}
			blendOver(cv.img, blockX+ty, blockY+(tw-1-tx), c)
		}
	}
}

// blendOver composites src over the destination pixel, clipping to the
// image bounds.
func blendOver(img *image.RGBA, x, y int, src color.RGBA) {
	if !image.Pt(x, y).In(img.Bounds()) {
		return
	}
	if src.A == 255 {
		img.SetRGBA(x, y, src)
		return
	}
	dst := img.RGBAAt(x, y)
	a := uint32(src.A)
	inv := 255 - a
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((uint32(src.R)*a + uint32(dst.R)*inv) / 255),
		G: uint8((uint32(src.G)*a + uint32(dst.G)*inv) / 255),
		B: uint8((uint32(src.B)*a + uint32(dst.B)*inv) / 255),
		A: 255,
	})
}
