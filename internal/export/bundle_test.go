/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func readBundle(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = b
	}
	return out
}

func TestBundleContainsEveryFormat(t *testing.T) {
	data, err := ExportWindowBundle(testWindow(t), BundleOptions{DPI: 10, Project: "Job 42", Now: testNow})
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	files := readBundle(t, data)

	for _, name := range []string{"W-1.dxf", "W-1.svg", "W-1.png", "W-1.json", "W-1.pdf", "W-1.xlsx", "manifest.json"} {
		entry, ok := files[name]
		if !ok {
			t.Fatalf("bundle missing %s, has %v", name, keysOf(files))
		}
		if len(entry) == 0 {
			t.Fatalf("%s is empty", name)
		}
	}
	if !bytes.HasPrefix(files["W-1.pdf"], []byte("%PDF")) {
		t.Fatalf("pdf entry corrupt")
	}
	if !bytes.HasPrefix(files["W-1.dxf"], []byte("0\nSECTION")) {
		t.Fatalf("dxf entry corrupt")
	}

	var manifest bundleManifest
	if err := json.Unmarshal(files["manifest.json"], &manifest); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if manifest.Window != "W-1" || manifest.FrameWidth != 1200 {
		t.Fatalf("manifest window data: %+v", manifest)
	}
	if len(manifest.Files) != 6 {
		t.Fatalf("manifest lists %d files, want 6", len(manifest.Files))
	}
	for _, mf := range manifest.Files {
		if mf.Size != len(files[mf.Name]) {
			t.Fatalf("manifest size for %s disagrees with the entry", mf.Name)
		}
	}
	if !strings.HasPrefix(manifest.GeneratedBy, "SashCAD") {
		t.Fatalf("generated_by = %q", manifest.GeneratedBy)
	}
}

func TestBundleSubsetOfFormats(t *testing.T) {
	data, err := ExportWindowBundle(testWindow(t), BundleOptions{
		Formats: []Format{FormatDXF, FormatSVG},
		Now:     testNow,
	})
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	files := readBundle(t, data)
	if len(files) != 3 {
		t.Fatalf("expected 2 exports plus manifest, got %v", keysOf(files))
	}
}

func TestBundleDeterministicWithPinnedClock(t *testing.T) {
	w := testWindow(t)
	opt := BundleOptions{Formats: []Format{FormatDXF, FormatSVG, FormatJSON}, Now: testNow}
	a, err := ExportWindowBundle(w, opt)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	b, err := ExportWindowBundle(w, opt)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("pinned clock must make the bundle reproducible")
	}
}

func TestFileSlug(t *testing.T) {
	cases := map[string]string{
		"W-1":           "W-1",
		"Bay Window 2":  "Bay-Window-2",
		"a/b\\c":        "abc",
		"  spaced  ":    "spaced",
		"":              "window",
		"..":            "window",
		"Kitchen No. 3": "Kitchen-No.-3",
	}
	for in, want := range cases {
		if got := FileSlug(in); got != want {
			t.Fatalf("FileSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func keysOf(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
