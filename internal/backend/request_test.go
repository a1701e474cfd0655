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
	"testing"
)

func baseRequest() calculationRequest {
	return calculationRequest{
		Project: projectConfig{Name: "P", ClientName: "C"},
		Windows: []windowConfig{{
			Name:             "W1",
			FrameWidth:       880,
			FrameHeight:      1600,
			TopSashHeight:    780,
			BottomSashHeight: 780,
		}},
	}
}

func TestToProjectAssignsIDs(t *testing.T) {
	p, rerr := baseRequest().toProject()
	if rerr != nil {
		t.Fatalf("toProject: %v", rerr)
	}
	if p.ID == "" {
		t.Errorf("project id not assigned")
	}
	if len(p.Windows) != 1 {
		t.Fatalf("windows = %d", len(p.Windows))
	}
	if p.Windows[0].ID == "" {
		t.Errorf("window id not assigned")
	}
	if p.Windows[0].Frame.Width != 880 {
		t.Errorf("frame width = %v", p.Windows[0].Frame.Width)
	}
}

func TestToProjectKeepsProvidedIDs(t *testing.T) {
	req := baseRequest()
	req.Project.ID = "proj-1"
	req.Windows[0].ID = "win-1"
	p, rerr := req.toProject()
	if rerr != nil {
		t.Fatalf("toProject: %v", rerr)
	}
	if p.ID != "proj-1" || p.Windows[0].ID != "win-1" {
		t.Errorf("ids = %q / %q", p.ID, p.Windows[0].ID)
	}
}

func TestToProjectExplicitBarsOverrideLayout(t *testing.T) {
	req := baseRequest()
	req.Windows[0].BarsLayout = "2x2"
	req.Windows[0].BarsVertical = 3
	req.Windows[0].BarsHorizontal = 1
	p, rerr := req.toProject()
	if rerr != nil {
		t.Fatalf("toProject: %v", rerr)
	}
	w := p.Windows[0]
	if w.BarsTop.LayoutType != "Custom" {
		t.Errorf("layout = %q, want Custom", w.BarsTop.LayoutType)
	}
	if w.BarsTop.VerticalBars != 3 || w.BarsTop.HorizontalBars != 1 {
		t.Errorf("bars = %dx%d", w.BarsTop.VerticalBars, w.BarsTop.HorizontalBars)
	}
	if len(w.BarsTop.SpacingVertical) != 3 {
		t.Errorf("vertical spacing entries = %d, want 3", len(w.BarsTop.SpacingVertical))
	}
}

func TestToProjectGlassPieces(t *testing.T) {
	req := baseRequest()
	req.Windows[0].GlassPieces = 4
	p, rerr := req.toProject()
	if rerr != nil {
		t.Fatalf("toProject: %v", rerr)
	}
	if p.Windows[0].GlassTop.Pieces != 4 || p.Windows[0].GlassBottom.Pieces != 4 {
		t.Errorf("glass pieces = %d / %d, want 4",
			p.Windows[0].GlassTop.Pieces, p.Windows[0].GlassBottom.Pieces)
	}
}

func TestToProjectRejectsBadGeometry(t *testing.T) {
	req := baseRequest()
	req.Windows[0].TopSashHeight = 0
	rerr := func() *requestError { _, e := req.toProject(); return e }()
	if rerr == nil {
		t.Fatalf("zero sash height accepted")
	}
	if rerr.Status != 400 {
		t.Errorf("status = %d, want 400", rerr.Status)
	}
}
