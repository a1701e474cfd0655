/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sashcad/internal/calc"
	"sashcad/internal/catalog"
	"sashcad/internal/crash"
	"sashcad/internal/domain"
	"sashcad/internal/export"
	applog "sashcad/internal/log"
	"sashcad/internal/preview"
	"sashcad/internal/storage"
	"sashcad/internal/version"
	"sashcad/internal/viewer"
)

func usage() {
	fmt.Println("SashCAD — box sash window calculation and drawing export")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sashcad version|-v|--version                Show version")
	fmt.Println("  sashcad init <dir> <name> [client]          Create a new project at <dir>")
	fmt.Println("  sashcad open <dir>                          Open project at <dir> and print summary")
	fmt.Println("  sashcad save <dir>                          Save project at <dir> (creates backup)")
	fmt.Println("  sashcad calc [flags]                        Derive one window and print its lists")
	fmt.Println("  sashcad export <dir> [flags]                Batch-export project drawings")
	fmt.Println("  sashcad preview <svg> [png] [-width N]      Rasterize an SVG drawing to PNG")
	fmt.Println("  sashcad catalog <list|export|install> ...   Manage timber/finish catalogs")
	fmt.Println("  sashcad viewer [<dir>]                      Launch drawing viewer (build with -tags fyne)")
	fmt.Println()
	fmt.Println("Run 'sashcad calc -h' or 'sashcad export -h' for verb flags.")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var ph *storage.ProjectHandle
	defer func() { crash.Recover(ph) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println(version.String())
			return
		case "init":
			runInit(l, args[2:], &ph)
			return
		case "open":
			runOpen(l, args[2:], &ph)
			return
		case "save":
			runSave(l, args[2:], &ph)
			return
		case "calc":
			runCalc(l, args[2:])
			return
		case "export":
			runExport(l, args[2:], &ph)
			return
		case "preview":
			runPreview(l, args[2:])
			return
		case "catalog":
			runCatalog(l, args[2:])
			return
		case "viewer":
			var dir string
			if len(args) >= 3 {
				dir = args[2]
			}
			if err := viewer.Run(dir); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func runInit(l *slog.Logger, args []string, ph **storage.ProjectHandle) {
	if len(args) < 2 {
		fmt.Println("init requires <dir> and <name>")
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[0])
	name := args[1]
	client := ""
	if len(args) >= 3 {
		client = args[2]
	}
	l.Info("init project", slog.String("root", abs), slog.String("name", name))
	h, err := storage.InitProject(abs, domain.NewProject(name, client))
	if err != nil {
		fail(l, "init failed", err)
	}
	*ph = h
	fmt.Println("Created project at", abs)
}

func runOpen(l *slog.Logger, args []string, ph **storage.ProjectHandle) {
	if len(args) < 1 {
		fmt.Println("open requires <dir>")
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[0])
	l.Info("open project", slog.String("root", abs))
	h, err := storage.Open(abs)
	if err != nil {
		fail(l, "open failed", err)
	}
	*ph = h
	fmt.Printf("Opened project: %s\n", h.Project.Name)
	if h.Project.ClientName != "" {
		fmt.Println("Client:", h.Project.ClientName)
	}
	fmt.Printf("Windows: %d\n", len(h.Project.Windows))
	for _, w := range h.Project.Windows {
		fmt.Printf("  %-20s %.0f x %.0f mm\n", w.Name, w.Frame.Width, w.Frame.Height)
	}
	fmt.Println("Root:", h.Root)
}

func runSave(l *slog.Logger, args []string, ph **storage.ProjectHandle) {
	if len(args) < 1 {
		fmt.Println("save requires <dir>")
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[0])
	l.Info("save project", slog.String("root", abs))
	h, err := storage.Open(abs)
	if err != nil {
		fail(l, "open before save failed", err)
	}
	*ph = h
	if err := storage.Save(h); err != nil {
		fail(l, "save failed", err)
	}
	fmt.Println("Saved project and created a backup of the previous manifest (if any).")
}

// runCalc derives a single window from command-line measurements and
// prints the derived dimensions plus priced cutting and shopping lists.
func runCalc(l *slog.Logger, args []string) {
	fs := flag.NewFlagSet("calc", flag.ExitOnError)
	name := fs.String("name", "Window 1", "window name")
	width := fs.Float64("width", 0, "frame width in mm (required)")
	height := fs.Float64("height", 0, "frame height in mm (required)")
	top := fs.Float64("top", 0, "top sash height in mm (required)")
	bottom := fs.Float64("bottom", 0, "bottom sash height in mm (required)")
	wood := fs.String("wood", "", "timber species, e.g. Sapele")
	bars := fs.String("bars", "", "glazing bar layout: 2x2, 3x3, 4x4")
	paint := fs.String("paint", "", "paint colour")
	_ = fs.Parse(args)

	w, err := calc.Window(calc.WindowParams{
		Name:             *name,
		FrameWidth:       *width,
		FrameHeight:      *height,
		TopSashHeight:    *top,
		BottomSashHeight: *bottom,
		WoodType:         *wood,
		BarsLayout:       *bars,
		PaintColor:       *paint,
	})
	if err != nil {
		fail(l, "calculation failed", err)
	}

	fmt.Printf("%s  (%.0f x %.0f mm)\n\n", w.Name, w.Frame.Width, w.Frame.Height)
	fmt.Println("Cutting list:")
	cuts := calc.CuttingList(w)
	cat := catalog.Builtin()
	priced, total := cat.PriceCuttingList(cuts)
	for _, it := range priced {
		if it.PricePerMeter > 0 {
			fmt.Printf("  %-28s %2d x %8.1f mm  %-10s £%6.2f\n",
				it.Section, it.Qty, it.Length, it.WoodType, it.Cost)
		} else {
			fmt.Printf("  %-28s %2d x %8.1f mm  %s\n", it.Section, it.Qty, it.Length, it.WoodType)
		}
	}
	if total > 0 {
		fmt.Printf("  %-28s %31s£%6.2f\n", "Timber total", "", total)
	}
	fmt.Println()
	fmt.Println("Shopping list:")
	for _, it := range calc.ShoppingList(w) {
		fmt.Printf("  %-28s %2d   %s\n", it.Item, it.Qty, it.Specification)
	}
}

func runExport(l *slog.Logger, args []string, ph **storage.ProjectHandle) {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		fmt.Println("export requires <dir>")
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[0])

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	preset := fs.String("preset", "workshop", "export preset: workshop, client, web")
	formats := fs.String("formats", "", "comma-separated formats overriding the preset (dxf,svg,png,json,pdf,xlsx)")
	out := fs.String("out", "", "output directory (default <project>/exports/<preset>)")
	dpi := fs.Int("dpi", 0, "PNG resolution override")
	noDims := fs.Bool("no-dimensions", false, "omit dimension annotations")
	_ = fs.Parse(args[1:])

	h, err := storage.Open(abs)
	if err != nil {
		fail(l, "open failed", err)
	}
	*ph = h

	opt := export.BatchOptions{
		Preset:      export.PresetName(*preset),
		OutDir:      *out,
		DPIOverride: *dpi,
		Now:         time.Now().UTC(),
	}
	if *formats != "" {
		opt.Formats = strings.Split(*formats, ",")
	}
	if *noDims {
		f := false
		opt.IncludeDimensions = &f
	}
	l.Info("batch export",
		slog.String("root", abs),
		slog.String("preset", *preset),
		slog.Int("windows", len(h.Project.Windows)),
	)
	if err := export.BatchExport(h, opt); err != nil {
		fail(l, "export failed", err)
	}
	fmt.Printf("Exported %d window(s) with preset %q.\n", len(h.Project.Windows), *preset)
}

func runPreview(l *slog.Logger, args []string) {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		fmt.Println("preview requires <svg> [png]")
		usage()
		os.Exit(2)
	}
	svgPath := args[0]
	pngPath := strings.TrimSuffix(svgPath, filepath.Ext(svgPath)) + ".png"
	rest := args[1:]
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		pngPath = rest[0]
		rest = rest[1:]
	}
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	width := fs.Int("width", 0, "output width in pixels (default from the drawing)")
	_ = fs.Parse(rest)

	if err := preview.RenderFile(svgPath, pngPath, *width); err != nil {
		fail(l, "preview failed", err)
	}
	fmt.Println("Wrote", pngPath)
}

func runCatalog(l *slog.Logger, args []string) {
	if len(args) < 1 {
		fmt.Println("catalog requires a subcommand: list, export, install")
		usage()
		os.Exit(2)
	}
	switch args[0] {
	case "list":
		root := ""
		if len(args) >= 2 {
			root, _ = filepath.Abs(args[1])
		}
		cat, err := catalog.Load(root)
		if err != nil {
			fail(l, "catalog load failed", err)
		}
		fmt.Println("Timber sections:")
		for _, t := range cat.Timbers {
			fmt.Printf("  %-10s %-14s £%.2f/m\n", t.Wood, t.Profile, t.PricePerMeter)
		}
		fmt.Println("Finishes:")
		for _, f := range cat.Finishes {
			fmt.Printf("  %-20s RAL %-6s %s\n", f.Name, f.RAL, f.Sheen)
		}
		fmt.Println("Hardware sets:")
		for _, hs := range cat.Hardware {
			fmt.Printf("  %-20s %s\n", hs.Name, strings.Join(hs.Finishes, ", "))
		}
	case "export":
		if len(args) < 3 {
			fmt.Println("catalog export requires <dir> <zip>")
			os.Exit(2)
		}
		root, _ := filepath.Abs(args[1])
		if err := catalog.ExportPack(root, args[2]); err != nil {
			fail(l, "catalog export failed", err)
		}
		fmt.Println("Wrote catalog pack", args[2])
	case "install":
		if len(args) < 3 {
			fmt.Println("catalog install requires <dir> <zip>")
			os.Exit(2)
		}
		root, _ := filepath.Abs(args[1])
		n, err := catalog.InstallPack(root, args[2])
		if err != nil {
			fail(l, "catalog install failed", err)
		}
		fmt.Printf("Installed %d catalog file(s).\n", n)
	default:
		fmt.Println("unknown catalog subcommand:", args[0])
		os.Exit(2)
	}
}
