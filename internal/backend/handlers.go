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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"sashcad/internal/calc"
	"sashcad/internal/catalog"
	"sashcad/internal/domain"
	"sashcad/internal/export"
	"sashcad/internal/geom"
	"sashcad/internal/preview"
	"sashcad/internal/scene"
	"sashcad/internal/telemetry"
)

// calcWindowResponse is the per-window slice of the calculate response:
// derived dimensions, material lists, the scene, and the renderer
// payload the interactive viewer draws directly.
type calcWindowResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	WoodType     string          `json:"wood_type,omitempty"`
	Window       domain.Window   `json:"window"`
	CuttingList  []calc.CutItem  `json:"cutting_list"`
	ShoppingList []calc.BuyItem  `json:"shopping_list"`
	Materials    json.RawMessage `json:"materials,omitempty"`
	Scene        json.RawMessage `json:"scene"`
	Renderer     json.RawMessage `json:"renderer"`
}

type calcResponse struct {
	Project struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		ClientName string `json:"client_name"`
	} `json:"project"`
	Summary struct {
		Windows     int     `json:"windows"`
		TimberCost  float64 `json:"timber_cost,omitempty"`
		GeneratedAt string  `json:"generated_at"`
	} `json:"summary"`
	Windows []calcWindowResponse `json:"windows"`
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	req, rerr := decodeRequest(r)
	if rerr != nil {
		s.writeError(w, r, rerr.Status, rerr)
		return
	}
	proj, rerr := req.toProject()
	if rerr != nil {
		s.writeError(w, r, rerr.Status, rerr)
		return
	}

	// The server prices against the built-in catalog; project-local
	// catalog packs only apply to desktop projects.
	cat := catalog.Builtin()

	opts := scene.Options{}
	if req.Options.IncludeDimensions != nil {
		opts.NoDimensions = !*req.Options.IncludeDimensions
	}

	var resp calcResponse
	resp.Project.ID = proj.ID
	resp.Project.Name = proj.Name
	resp.Project.ClientName = proj.ClientName
	resp.Summary.Windows = len(proj.Windows)
	resp.Summary.GeneratedAt = time.Now().UTC().Format(time.RFC3339)

	for _, win := range proj.Windows {
		sc, err := scene.Build(win, opts)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("window %q: %w", win.Name, err))
			return
		}
		sceneJSON, err := json.Marshal(sc)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		rendererJSON, err := export.Payload{}.Export(sc)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}

		cuts := calc.CuttingList(win)
		wr := calcWindowResponse{
			ID:           win.ID,
			Name:         win.Name,
			WoodType:     win.WoodType,
			Window:       win,
			CuttingList:  cuts,
			ShoppingList: calc.ShoppingList(win),
			Scene:        sceneJSON,
			Renderer:     rendererJSON,
		}
		if win.WoodType != "" {
			priced, total := cat.PriceCuttingList(cuts)
			if mats, err := json.Marshal(priced); err == nil {
				wr.Materials = mats
			}
			resp.Summary.TimberCost += geom.Round(total, 2)
		}
		resp.Windows = append(resp.Windows, wr)
	}
	render.JSON(w, r, resp)
}

// handleExport produces one downloadable artifact for the requested
// format. Scene formats (dxf, svg, png, json) package one file per
// window into a zip; pdf and xlsx cover the whole project in a single
// document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(strings.ToLower(chi.URLParam(r, "format")))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	req, rerr := decodeRequest(r)
	if rerr != nil {
		s.writeError(w, r, rerr.Status, rerr)
		return
	}
	proj, rerr := req.toProject()
	if rerr != nil {
		s.writeError(w, r, rerr.Status, rerr)
		return
	}

	jobID := s.hub.publishStarted(string(format), proj.Name)
	start := time.Now()

	data, name, err := s.produceExport(proj, format, req.Options)
	if err != nil {
		s.hub.publishError(jobID, string(format), err)
		status := http.StatusInternalServerError
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			status = reqErr.Status
		}
		s.writeError(w, r, status, err)
		return
	}

	entry, err := s.registry.put(s.cfg.OutputDir, name, data)
	if err != nil {
		s.hub.publishError(jobID, string(format), err)
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.hub.publishFinished(jobID, string(format), entry.Filename, len(data))
	telemetry.ExportEvent(string(format), len(data), time.Since(start))

	render.JSON(w, r, map[string]any{
		"file_id":      entry.ID,
		"filename":     entry.Filename,
		"size":         len(data),
		"download_url": "/api/v1/exports/" + entry.ID,
	})
}

func (s *Server) produceExport(proj domain.Project, format export.Format, opts requestOptions) ([]byte, string, error) {
	now := time.Now().UTC()
	slug := export.FileSlug(proj.Name)
	switch format {
	case export.FormatPDF:
		data, err := export.ExportProjectPDF(proj, export.PDFOptions{Project: proj.Name, Client: proj.ClientName, Now: now})
		return data, slug + ".pdf", err
	case export.FormatXLSX:
		data, err := export.ExportProjectXLSX(proj, export.XLSXOptions{Project: proj.Name, Client: proj.ClientName})
		return data, slug + ".xlsx", err
	default:
		data, err := s.sceneFormatZip(proj, format, opts, now)
		return data, fmt.Sprintf("%s-%s.zip", slug, format), err
	}
}

// sceneFormatZip renders every window to the given scene format and
// packages the results, mirroring the per-format packages the desktop
// app produces.
func (s *Server) sceneFormatZip(proj domain.Project, format export.Format, opts requestOptions, now time.Time) ([]byte, error) {
	sceneOpts := scene.Options{Now: now}
	if opts.IncludeDimensions != nil {
		sceneOpts.NoDimensions = !*opts.IncludeDimensions
	}
	var e export.Exporter
	if format == export.FormatPNG && opts.DPI > 0 {
		e = export.PNG{DPI: opts.DPI}
	} else {
		var err error
		if e, err = export.For(format); err != nil {
			return nil, badRequest("%v", err)
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, win := range proj.Windows {
		sc, err := scene.Build(win, sceneOpts)
		if err != nil {
			return nil, badRequest("window %q: %v", win.Name, err)
		}
		data, err := e.Export(sc)
		if err != nil {
			return nil, fmt.Errorf("export window %q: %w", win.Name, err)
		}
		hdr := &zip.FileHeader{Name: export.FileSlug(win.Name) + format.Ext(), Method: zip.Deflate, Modified: now}
		f, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// handleExportBundle zips every format for every window into one
// archive using the shared bundle writer.
func (s *Server) handleExportBundle(w http.ResponseWriter, r *http.Request) {
	req, rerr := decodeRequest(r)
	if rerr != nil {
		s.writeError(w, r, rerr.Status, rerr)
		return
	}
	proj, rerr := req.toProject()
	if rerr != nil {
		s.writeError(w, r, rerr.Status, rerr)
		return
	}

	jobID := s.hub.publishStarted("bundle", proj.Name)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	now := time.Now().UTC()
	for _, win := range proj.Windows {
		data, err := export.ExportWindowBundle(win, export.BundleOptions{
			Project: proj.Name, Client: proj.ClientName, DPI: req.Options.DPI, Now: now,
		})
		if err != nil {
			s.hub.publishError(jobID, "bundle", err)
			s.writeError(w, r, http.StatusInternalServerError, fmt.Errorf("bundle window %q: %w", win.Name, err))
			return
		}
		hdr := &zip.FileHeader{Name: export.FileSlug(win.Name) + ".zip", Method: zip.Store, Modified: now}
		f, err := zw.CreateHeader(hdr)
		if err == nil {
			_, err = f.Write(data)
		}
		if err != nil {
			s.hub.publishError(jobID, "bundle", err)
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	if err := zw.Close(); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	name := export.FileSlug(proj.Name) + "-bundle.zip"
	entry, err := s.registry.put(s.cfg.OutputDir, name, buf.Bytes())
	if err != nil {
		s.hub.publishError(jobID, "bundle", err)
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.hub.publishFinished(jobID, "bundle", entry.Filename, buf.Len())
	render.JSON(w, r, map[string]any{
		"file_id":      entry.ID,
		"filename":     entry.Filename,
		"size":         buf.Len(),
		"download_url": "/api/v1/exports/" + entry.ID,
	})
}

// handlePreview renders the first window's SVG and rasterizes it to a
// PNG preview. Degrades with 503 when the rasterization capability is
// absent; the vector formats remain available.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, rerr := decodeRequest(r)
	if rerr != nil {
		s.writeError(w, r, rerr.Status, rerr)
		return
	}
	proj, rerr := req.toProject()
	if rerr != nil {
		s.writeError(w, r, rerr.Status, rerr)
		return
	}
	if !preview.Available() {
		s.writeError(w, r, http.StatusServiceUnavailable, preview.ErrPreviewUnavailable)
		return
	}

	win := proj.Windows[0]
	sc, err := scene.Build(win, scene.Options{})
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("window %q: %w", win.Name, err))
		return
	}
	svg, err := export.SVG{}.Export(sc)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	width := 512
	if v := r.URL.Query().Get("width"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &width); err != nil || width <= 0 || width > 4096 {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid width %q", v))
			return
		}
	}
	png, err := preview.Render(svg, width)
	if err != nil {
		if errors.Is(err, preview.ErrPreviewUnavailable) {
			s.writeError(w, r, http.StatusServiceUnavailable, err)
			return
		}
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, ok := s.registry.get(id)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("export not found"))
		return
	}
	if _, err := os.Stat(entry.Path); err != nil {
		s.registry.remove(id)
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("export not found"))
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.Filename))
	http.ServeFile(w, r, entry.Path)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.log.Warn("request failed",
		slog.String("request_id", RequestIDFrom(r.Context())),
		slog.Int("status", status),
		slog.Any("err", err),
	)
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"error": err.Error()})
}

