/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sashcad/internal/scene"
	"sashcad/internal/storage"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWorkshop PresetName = "workshop"
	PresetClient   PresetName = "client"
	PresetWeb      PresetName = "web"
)

// BatchOptions controls batch export across multiple formats/windows.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created under <project>/exports/<preset>/.
//   - Scene formats (dxf, svg, png, json) write one file per window into a
//     format subfolder, named after the window.
//   - PDF writes one drawing set per window into pdf/.
//   - XLSX writes a single project workbook covering all selected windows.
type BatchOptions struct {
	Preset            PresetName
	Formats           []string // allowed: dxf, svg, png, json, pdf, xlsx; empty means preset defaults
	Windows           []int    // zero-based indices; empty means all windows
	DPIOverride       int      // when > 0 overrides the PNG resolution
	IncludeDimensions *bool    // when set, overrides the preset's default
	OutDir            string   // base directory for outputs (created per preset if relative)
	Now               time.Time
}

// BatchExport runs exports according to the given preset.
func BatchExport(ph *storage.ProjectHandle, opt BatchOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	if len(ph.Project.Windows) == 0 {
		return fmt.Errorf("project has no windows")
	}

	rawFormats := opt.Formats
	if len(rawFormats) == 0 {
		rawFormats = presetDefaultFormats(opt.Preset)
	}
	formats := make([]Format, 0, len(rawFormats))
	for _, raw := range rawFormats {
		f, err := ParseFormat(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(ph.Root, "exports", baseOut)
	}

	windows := opt.Windows
	if len(windows) == 0 {
		windows = make([]int, len(ph.Project.Windows))
		for i := range windows {
			windows[i] = i
		}
	}

	dims := presetIncludeDimensions(opt.Preset)
	if opt.IncludeDimensions != nil {
		dims = *opt.IncludeDimensions
	}

	for _, idx := range windows {
		if idx < 0 || idx >= len(ph.Project.Windows) {
			continue
		}
		w := ph.Project.Windows[idx]

		for _, f := range formats {
			switch f {
			case FormatPDF:
				data, err := ExportWindowPDF(w, PDFOptions{
					Project: ph.Project.Name,
					Client:  ph.Project.ClientName,
					Now:     opt.Now,
				})
				if err != nil {
					return fmt.Errorf("pdf window %q: %w", w.Name, err)
				}
				out := filepath.Join(baseOut, "pdf", FileSlug(w.Name)+".pdf")
				if err := writeExport(out, data); err != nil {
					return fmt.Errorf("pdf window %q: %w", w.Name, err)
				}
			case FormatXLSX:
				// One workbook for the whole project; written once.
			default:
				s, err := scene.Build(w, scene.Options{NoDimensions: !dims, Now: opt.Now})
				if err != nil {
					return fmt.Errorf("%s window %q: %w", f, w.Name, err)
				}
				var e Exporter
				if f == FormatPNG {
					e = PNG{DPI: opt.DPIOverride}
				} else if e, err = For(f); err != nil {
					return err
				}
				data, err := e.Export(s)
				if err != nil {
					return fmt.Errorf("%s window %q: %w", f, w.Name, err)
				}
				out := filepath.Join(baseOut, string(f), FileSlug(w.Name)+f.Ext())
				if err := writeExport(out, data); err != nil {
					return fmt.Errorf("%s window %q: %w", f, w.Name, err)
				}
			}
		}
	}

	for _, f := range formats {
		if f != FormatXLSX {
			continue
		}
		data, err := ExportProjectXLSX(ph.Project, XLSXOptions{
			Project: ph.Project.Name,
			Client:  ph.Project.ClientName,
			Now:     opt.Now,
		})
		if err != nil {
			return fmt.Errorf("xlsx project: %w", err)
		}
		out := filepath.Join(baseOut, "xlsx", FileSlug(ph.Project.Name)+".xlsx")
		if err := writeExport(out, data); err != nil {
			return fmt.Errorf("xlsx project: %w", err)
		}
		break
	}
	return nil
}

func writeExport(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWorkshop:
		return []string{"dxf", "pdf", "xlsx"}
	case PresetClient:
		return []string{"pdf", "png"}
	case PresetWeb:
		return []string{"svg", "png", "json"}
	default:
		return []string{"pdf"}
	}
}

func presetIncludeDimensions(p PresetName) bool {
	switch p {
	case PresetWeb:
		return false
	default:
		return true
	}
}
