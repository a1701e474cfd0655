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
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(Config{
		Addr:           ":0",
		OutputDir:      t.TempDir(),
		AllowedOrigins: []string{"*"},
		RatePerMinute:  10_000, // the rate limiter is not under test here
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

const sampleRequest = `{
	"project": {"name": "Smith Residence", "client_name": "J. Smith"},
	"windows": [
		{
			"name": "Kitchen",
			"frame_width": 880,
			"frame_height": 1600,
			"top_sash_height": 780,
			"bottom_sash_height": 780,
			"wood_type": "Sapele",
			"bars_layout": "2x2"
		}
	],
	"options": {"include_dimensions": true}
}`

func TestHealthWithoutStore(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if _, has := body["store"]; has {
		t.Errorf("health reports a store but none is configured")
	}
}

func TestCalculate(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/calculate", "application/json", strings.NewReader(sampleRequest))
	if err != nil {
		t.Fatalf("POST calculate: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body calcResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Project.Name != "Smith Residence" {
		t.Errorf("project name = %q", body.Project.Name)
	}
	if len(body.Windows) != 1 {
		t.Fatalf("windows = %d, want 1", len(body.Windows))
	}
	win := body.Windows[0]
	if win.Name != "Kitchen" {
		t.Errorf("window name = %q", win.Name)
	}
	if len(win.CuttingList) == 0 {
		t.Errorf("cutting list is empty")
	}
	if len(win.Scene) == 0 || len(win.Renderer) == 0 {
		t.Errorf("scene or renderer payload missing")
	}
	if win.Window.Frame.Width != 880 {
		t.Errorf("frame width = %v, want 880", win.Window.Frame.Width)
	}
	if body.Summary.TimberCost <= 0 {
		t.Errorf("timber cost = %v, want > 0 for a priced wood type", body.Summary.TimberCost)
	}
}

func TestCalculateRejectsInvalidRequest(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	cases := []struct {
		name string
		body string
	}{
		{"not json", `this is not json`},
		{"no windows", `{"project": {"name": "P", "client_name": "C"}, "windows": []}`},
		{"missing client", `{"project": {"name": "P"}, "windows": [{"name": "W", "frame_width": 880, "frame_height": 1600, "top_sash_height": 780, "bottom_sash_height": 780}]}`},
		{"zero width", `{"project": {"name": "P", "client_name": "C"}, "windows": [{"name": "W", "frame_width": 0, "frame_height": 1600, "top_sash_height": 780, "bottom_sash_height": 780}]}`},
		{"oversize frame", `{"project": {"name": "P", "client_name": "C"}, "windows": [{"name": "W", "frame_width": 9000, "frame_height": 1600, "top_sash_height": 780, "bottom_sash_height": 780}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/calculate", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var body map[string]any
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body["error"] == "" {
				t.Errorf("error message missing")
			}
		})
	}
}

func TestExportAndDownload(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/export/svg", "application/json", strings.NewReader(sampleRequest))
	if err != nil {
		t.Fatalf("POST export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		FileID      string `json:"file_id"`
		Filename    string `json:"filename"`
		Size        int    `json:"size"`
		DownloadURL string `json:"download_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.FileID == "" || body.Size == 0 {
		t.Fatalf("incomplete export response: %+v", body)
	}
	if !strings.HasSuffix(body.Filename, "-svg.zip") {
		t.Errorf("filename = %q, want *-svg.zip", body.Filename)
	}

	dl, err := http.Get(srv.URL + body.DownloadURL)
	if err != nil {
		t.Fatalf("GET download: %v", err)
	}
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d, want 200", dl.StatusCode)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(dl.Body); err != nil {
		t.Fatalf("read download: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 1 {
		t.Fatalf("zip entries = %d, want 1", len(zr.File))
	}
	if zr.File[0].Name != "Kitchen.svg" {
		t.Errorf("entry = %q, want Kitchen.svg", zr.File[0].Name)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	var svg bytes.Buffer
	if _, err := svg.ReadFrom(rc); err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if !strings.Contains(svg.String(), "<svg") {
		t.Errorf("entry is not an SVG document")
	}
}

func TestExportProjectDocuments(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	for format, wantSuffix := range map[string]string{"pdf": ".pdf", "xlsx": ".xlsx"} {
		resp, err := http.Post(srv.URL+"/api/v1/export/"+format, "application/json", strings.NewReader(sampleRequest))
		if err != nil {
			t.Fatalf("POST export %s: %v", format, err)
		}
		var body struct {
			Filename string `json:"filename"`
			Size     int    `json:"size"`
		}
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", format, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", format, resp.StatusCode)
		}
		if !strings.HasSuffix(body.Filename, wantSuffix) {
			t.Errorf("%s filename = %q", format, body.Filename)
		}
		if body.Size == 0 {
			t.Errorf("%s export is empty", format)
		}
	}
}

func TestExportUnknownFormat(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/export/step", "application/json", strings.NewReader(sampleRequest))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestExportBundle(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/export/bundle", "application/json", strings.NewReader(sampleRequest))
	if err != nil {
		t.Fatalf("POST bundle: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Filename    string `json:"filename"`
		DownloadURL string `json:"download_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasSuffix(body.Filename, "-bundle.zip") {
		t.Errorf("filename = %q", body.Filename)
	}

	dl, err := http.Get(srv.URL + body.DownloadURL)
	if err != nil {
		t.Fatalf("GET download: %v", err)
	}
	defer dl.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(dl.Body); err != nil {
		t.Fatalf("read: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "Kitchen.zip" {
		t.Fatalf("bundle entries = %v", zr.File)
	}
}

func TestPreview(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/preview?width=300", "application/json", strings.NewReader(sampleRequest))
	if err != nil {
		t.Fatalf("POST preview: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %q", ct)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Errorf("response is not a PNG")
	}
}

func TestDownloadUnknownID(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/exports/no-such-id")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
