/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"image"
	"image/color"
	"testing"
)

func TestBasicProviderMetrics(t *testing.T) {
	_, m := BasicProvider{}.Resolve(FontSpec{Family: "anything", SizePt: 99})
	if m.Ascent <= 0 {
		t.Fatalf("ascent = %v, want > 0", m.Ascent)
	}
	if m.Descent < 0 {
		t.Fatalf("descent = %v, want >= 0", m.Descent)
	}
	if got := m.Height(); got != m.Ascent+m.Descent {
		t.Fatalf("Height() = %v, want %v", got, m.Ascent+m.Descent)
	}
}

func TestStringWidthFixedAdvance(t *testing.T) {
	// Face7x13 advances 7px per glyph regardless of the glyph.
	face, _ := BasicProvider{}.Resolve(FontSpec{})
	if got := StringWidth(face, "1200.0 mm"); got != 63 {
		t.Fatalf("StringWidth = %v, want 63", got)
	}
	if got := StringWidth(face, ""); got != 0 {
		t.Fatalf("StringWidth(empty) = %v, want 0", got)
	}
}

func TestMeasure(t *testing.T) {
	w, h := Measure(nil, FontSpec{}, "ABC")
	if w != 21 {
		t.Fatalf("width = %v, want 21", w)
	}
	if h <= 0 {
		t.Fatalf("height = %v, want > 0", h)
	}
}

func TestDrawStringMarksPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	face, m := BasicProvider{}.Resolve(FontSpec{})
	DrawString(img, face, color.RGBA{A: 255}, 2, m.Ascent, "X")

	marked := false
	for y := 0; y < 20 && !marked; y++ {
		for x := 0; x < 40; x++ {
			if c := img.RGBAAt(x, y); c.R != 255 {
				marked = true
				break
			}
		}
	}
	if !marked {
		t.Fatal("DrawString left the image untouched")
	}
}

func TestOTProviderFallsBackWithoutFonts(t *testing.T) {
	face, _ := OTProvider{}.Resolve(FontSpec{Family: "Nonexistent", SizePt: 14})
	if got := StringWidth(face, "AB"); got != 14 {
		t.Fatalf("fallback advance = %v, want 14 (bitmap face)", got)
	}
}

func TestLoadTTFMissingFile(t *testing.T) {
	fl := NewFontLibrary()
	if err := fl.LoadTTF("Nope", 400, false, "/nonexistent/path.ttf"); err == nil {
		t.Fatal("expected error for missing font file")
	}
}
