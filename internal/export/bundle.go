/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sashcad/internal/domain"
	"sashcad/internal/scene"
	"sashcad/internal/version"
)

// BundleOptions controls the all-formats archive.
type BundleOptions struct {
	Formats []Format // default: every supported format
	DPI     int      // PNG resolution
	Project string
	Client  string
	Now     time.Time
}

// bundleManifest is the machine-readable index written into every
// bundle as manifest.json.
type bundleManifest struct {
	Window      string       `json:"window"`
	FrameWidth  float64      `json:"frame_width"`
	FrameHeight float64      `json:"frame_height"`
	GeneratedAt time.Time    `json:"generated_at"`
	GeneratedBy string       `json:"generated_by"`
	Files       []bundleFile `json:"files"`
}

type bundleFile struct {
	Name   string `json:"name"`
	Format Format `json:"format"`
	Size   int    `json:"size"`
}

// ExportWindowBundle produces a ZIP archive holding the window in
// every requested format plus a manifest. The scene is built once and
// shared read-only across the per-format exporters.
func ExportWindowBundle(w domain.Window, opt BundleOptions) ([]byte, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = []Format{FormatDXF, FormatSVG, FormatPNG, FormatJSON, FormatPDF, FormatXLSX}
	}
	now := opt.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s, err := scene.Build(w, scene.Options{Now: now})
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	base := FileSlug(w.Name)
	manifest := bundleManifest{
		Window:      w.Name,
		FrameWidth:  w.Frame.Width,
		FrameHeight: w.Frame.Height,
		GeneratedAt: now,
		GeneratedBy: version.String(),
	}

	for _, f := range formats {
		data, err := exportOne(s, w, f, opt, now)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", f, err)
		}
		name := base + f.Ext()
		if err := addBundleFile(zw, name, now, data); err != nil {
			return nil, fmt.Errorf("zip add %s: %w", name, err)
		}
		manifest.Files = append(manifest.Files, bundleFile{Name: name, Format: f, Size: len(data)})
	}

	mdata, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := addBundleFile(zw, "manifest.json", now, append(mdata, '\n')); err != nil {
		return nil, fmt.Errorf("zip add manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// exportOne dispatches a single format. Scene formats run through
// their exporter; document formats rebuild from the window model.
func exportOne(s *scene.Scene, w domain.Window, f Format, opt BundleOptions, now time.Time) ([]byte, error) {
	switch f {
	case FormatPNG:
		return PNG{DPI: opt.DPI}.Export(s)
	case FormatPDF:
		return ExportWindowPDF(w, PDFOptions{Project: opt.Project, Client: opt.Client, Now: now})
	case FormatXLSX:
		return ExportWindowXLSX(w, XLSXOptions{Project: opt.Project, Client: opt.Client, Now: now})
	default:
		e, err := For(f)
		if err != nil {
			return nil, err
		}
		return e.Export(s)
	}
}

func addBundleFile(zw *zip.Writer, name string, modified time.Time, data []byte) error {
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return err
	}
	_, err = fw.Write(data)
	return err
}

// FileSlug turns a window or project name into a safe file name. Every
// export surface, CLI output and API download alike, names files
// through it.
func FileSlug(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		switch ch := name[i]; {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '-', ch == '_', ch == '.':
			out = append(out, ch)
		case ch == ' ':
			out = append(out, '-')
		}
	}
	s := strings.Trim(string(out), "-.")
	if s == "" {
		return "window"
	}
	return s
}
