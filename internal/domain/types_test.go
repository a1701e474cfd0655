package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"sashcad/internal/geom"
)

func TestWindowJSONRoundTrip(t *testing.T) {
	w := NewWindow("W-1")
	w.Frame = Frame{Width: 1200, Height: 1600}
	w.SashTop = Sash{Width: 1022, Height: 800}
	w.SashBottom = Sash{Width: 1022, Height: 750}

	b, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Window
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "W-1" || got.Frame.Width != 1200 || got.SashBottom.Height != 750 {
		t.Fatalf("round trip lost data: %+v", got)
	}
	// Manifest keys stay snake_case for compatibility with saved projects.
	for _, key := range []string{`"sash_top"`, `"sash_bottom"`, `"paint_color"`, `"hardware_finish"`, `"pcs"`} {
		if !strings.Contains(string(b), key) {
			t.Fatalf("serialized window missing key %s: %s", key, b)
		}
	}
}

func TestNewWindowDefaults(t *testing.T) {
	w := NewWindow("W-2")
	if w.ID == "" {
		t.Fatalf("window id must be assigned")
	}
	if w.GlassTop.Type != DefaultGlassType || w.GlassTop.Pieces != 1 {
		t.Fatalf("glass defaults: %+v", w.GlassTop)
	}
	if w.PaintColor != "White" || w.HardwareFinish != "Satin Chrome" {
		t.Fatalf("finish defaults: %+v", w)
	}
	if w.CillExtension != 60 {
		t.Fatalf("cill extension default = %d", w.CillExtension)
	}
}

func TestWindowValidate(t *testing.T) {
	w := NewWindow("W-3")
	w.Frame = Frame{Width: 1200, Height: 1600}
	w.SashTop.Height = 800
	if err := w.Validate(); err != nil {
		t.Fatalf("valid window rejected: %v", err)
	}

	bad := w
	bad.Frame.Height = 0
	err := bad.Validate()
	if err == nil {
		t.Fatalf("zero frame height must be rejected")
	}
	if !errors.Is(err, geom.ErrInvalidDimension) {
		t.Fatalf("error %v does not match ErrInvalidDimension", err)
	}
	var ide *geom.InvalidDimensionError
	if !errors.As(err, &ide) || ide.Field != "frame_height" {
		t.Fatalf("error should name frame_height, got %v", err)
	}

	neg := w
	neg.BarsTop.VerticalBars = -1
	if err := neg.Validate(); err == nil {
		t.Fatalf("negative bar count must be rejected")
	}
}

func TestProjectWindowLookup(t *testing.T) {
	p := NewProject("Harcourt Street", "J. Millican")
	if p.ID == "" || p.CreatedAt.IsZero() {
		t.Fatalf("project identity not initialized: %+v", p)
	}
	w := NewWindow("W-1")
	p.AddWindow(w)
	if got := p.Window("W-1"); got == nil || got.ID != w.ID {
		t.Fatalf("lookup by name failed")
	}
	if got := p.Window("W-9"); got != nil {
		t.Fatalf("missing window should return nil")
	}
}

func TestHasSash(t *testing.T) {
	w := NewWindow("W-4")
	if w.HasSash() {
		t.Fatalf("window without sash heights must report no sash")
	}
	w.SashBottom.Height = 700
	if !w.HasSash() {
		t.Fatalf("window with bottom sash must report a sash")
	}
}
