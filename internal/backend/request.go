/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"sashcad/internal/calc"
	"sashcad/internal/domain"
)

//go:embed calculate.schema.json
var calculateSchema []byte

const maxRequestBytes = 1 << 20 // a quoting request is small; anything bigger is abuse

// windowConfig mirrors the window options the desktop survey form
// collects. Field names are the wire contract; do not rename.
type windowConfig struct {
	ID               string  `json:"id,omitempty"`
	Name             string  `json:"name"`
	FrameWidth       float64 `json:"frame_width"`
	FrameHeight      float64 `json:"frame_height"`
	TopSashHeight    float64 `json:"top_sash_height"`
	BottomSashHeight float64 `json:"bottom_sash_height"`
	PaintColor       string  `json:"paint_color,omitempty"`
	HardwareFinish   string  `json:"hardware_finish,omitempty"`
	TrickleVent      string  `json:"trickle_vent,omitempty"`
	SashCatches      string  `json:"sash_catches,omitempty"`
	CillExtension    int     `json:"cill_extension,omitempty"`
	GlassType        string  `json:"glass_type,omitempty"`
	GlassFrosted     bool    `json:"glass_frosted,omitempty"`
	GlassToughened   bool    `json:"glass_toughened,omitempty"`
	SpacerColor      string  `json:"spacer_color,omitempty"`
	GlassPieces      int     `json:"glass_pcs,omitempty"`
	BarsLayout       string  `json:"bars_layout,omitempty"`
	BarsVertical     int     `json:"bars_vertical,omitempty"`
	BarsHorizontal   int     `json:"bars_horizontal,omitempty"`
	WoodType         string  `json:"wood_type,omitempty"`
}

type projectConfig struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	ClientName string `json:"client_name"`
}

type requestOptions struct {
	IncludeDimensions *bool `json:"include_dimensions,omitempty"`
	DPI               int   `json:"dpi,omitempty"`
}

// calculationRequest is the shared payload for both calculation and
// export endpoints.
type calculationRequest struct {
	Project projectConfig  `json:"project"`
	Windows []windowConfig `json:"windows"`
	Options requestOptions `json:"options"`
}

// requestError carries an HTTP status with a caller-facing message.
type requestError struct {
	Status  int
	Message string
}

func (e *requestError) Error() string { return e.Message }

func badRequest(format string, args ...any) *requestError {
	return &requestError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// decodeRequest reads, schema-validates, and unmarshals a calculation
// request. Schema validation runs before unmarshaling so a malformed
// payload reports every violated constraint, not just the first decode
// failure.
func decodeRequest(r *http.Request) (calculationRequest, *requestError) {
	var req calculationRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return req, badRequest("read request: %v", err)
	}
	_ = r.Body.Close()

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(calculateSchema),
		gojsonschema.NewBytesLoader(body),
	)
	if err != nil {
		return req, badRequest("invalid JSON: %v", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return req, badRequest("invalid request: %s", strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, badRequest("decode request: %v", err)
	}
	return req, nil
}

// toProject derives the full project: every window runs through the
// calculation engine so all dependent dimensions are filled in.
func (req calculationRequest) toProject() (domain.Project, *requestError) {
	p := domain.Project{
		ID:         req.Project.ID,
		Name:       req.Project.Name,
		ClientName: req.Project.ClientName,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for _, wc := range req.Windows {
		w, err := calc.Window(calc.WindowParams{
			Name:             wc.Name,
			FrameWidth:       wc.FrameWidth,
			FrameHeight:      wc.FrameHeight,
			TopSashHeight:    wc.TopSashHeight,
			BottomSashHeight: wc.BottomSashHeight,
			PaintColor:       wc.PaintColor,
			HardwareFinish:   wc.HardwareFinish,
			TrickleVent:      wc.TrickleVent,
			SashCatches:      wc.SashCatches,
			CillExtension:    wc.CillExtension,
			GlassType:        wc.GlassType,
			BarsLayout:       wc.BarsLayout,
			SpacerColor:      wc.SpacerColor,
			Frosted:          wc.GlassFrosted,
			Toughened:        wc.GlassToughened,
			WoodType:         wc.WoodType,
		})
		if err != nil {
			return p, badRequest("window %q: %v", wc.Name, err)
		}
		if wc.ID != "" {
			w.ID = wc.ID
		}
		if wc.GlassPieces > 0 {
			w.GlassTop.Pieces = wc.GlassPieces
			w.GlassBottom.Pieces = wc.GlassPieces
		}
		// Explicit bar counts override the named layout.
		if wc.BarsVertical > 0 || wc.BarsHorizontal > 0 {
			w.BarsTop = customBars(w.SashTop.Width, w.SashTop.Height, wc.BarsVertical, wc.BarsHorizontal)
			w.BarsBottom = customBars(w.SashBottom.Width, w.SashBottom.Height, wc.BarsVertical, wc.BarsHorizontal)
		}
		p.AddWindow(w)
	}
	return p, nil
}

func customBars(sashWidth, sashHeight float64, v, h int) domain.Bars {
	return domain.Bars{
		LayoutType:        "Custom",
		VerticalBars:      v,
		HorizontalBars:    h,
		SpacingVertical:   calc.BarSpacing(sashWidth, v),
		SpacingHorizontal: calc.BarSpacing(sashHeight, h),
	}
}
