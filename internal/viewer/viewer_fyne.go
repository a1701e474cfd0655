//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package viewer

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"sashcad/internal/crash"
	"sashcad/internal/export"
	applog "sashcad/internal/log"
	"sashcad/internal/scene"
	"sashcad/internal/storage"
	"sashcad/internal/version"
)

// Render DPIs offered by the zoom selector. The drawing is re-rendered
// rather than scaled, so lines stay crisp at every level.
var zoomDPIs = []int{72, 96, 150, 300}

// Run starts the Fyne-based drawing viewer. It renders the selected
// window's scene to PNG and shows it in a scrollable (pannable) canvas;
// the zoom selector re-renders at a different DPI so what is on screen
// is exactly what the PNG exporter produces.
func Run(projectDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("viewer")
	l.Info("starting viewer")

	var ph *storage.ProjectHandle
	defer func() { crash.Recover(ph) }()

	fyneApp := app.NewWithID("sashcad")
	w := fyneApp.NewWindow(version.AppName + " Viewer")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1100)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 640 {
		winW = 640
	}
	if winH < 480 {
		winH = 480
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Open a project to view drawings")
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillOriginal
	scroll := container.NewScroll(img)

	windowSelect := widget.NewSelect(nil, nil)
	windowSelect.PlaceHolder = "Window"
	zoomSelect := widget.NewSelect([]string{"72 dpi", "96 dpi", "150 dpi", "300 dpi"}, nil)
	zoomSelect.SetSelectedIndex(1)
	dimsCheck := widget.NewCheck("Dimensions", nil)
	dimsCheck.SetChecked(true)

	render := func() {
		if ph == nil || windowSelect.SelectedIndex() < 0 {
			return
		}
		idx := windowSelect.SelectedIndex()
		if idx >= len(ph.Project.Windows) {
			return
		}
		win := ph.Project.Windows[idx]
		dpi := zoomDPIs[0]
		if zi := zoomSelect.SelectedIndex(); zi >= 0 && zi < len(zoomDPIs) {
			dpi = zoomDPIs[zi]
		}
		s, err := scene.Build(win, scene.Options{NoDimensions: !dimsCheck.Checked})
		if err != nil {
			status.SetText(fmt.Sprintf("Build failed: %v", err))
			return
		}
		data, err := export.PNG{DPI: dpi}.Export(s)
		if err != nil {
			status.SetText(fmt.Sprintf("Render failed: %v", err))
			return
		}
		decoded, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			status.SetText(fmt.Sprintf("Decode failed: %v", err))
			return
		}
		img.Image = decoded
		img.Refresh()
		scroll.Refresh()
		b := s.Bounds
		status.SetText(fmt.Sprintf("%s — %.0f x %.0f mm at %d dpi", win.Name, b.Width(), b.Height(), dpi))
	}

	openProject := func(root string) {
		h, err := storage.Open(root)
		if err != nil {
			l.Error("open project failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		ph = h
		names := make([]string, 0, len(h.Project.Windows))
		for _, win := range h.Project.Windows {
			names = append(names, win.Name)
		}
		windowSelect.Options = names
		if len(names) > 0 {
			windowSelect.SetSelectedIndex(0)
		}
		status.SetText(fmt.Sprintf("Opened %s (%d windows)", h.Project.Name, len(names)))
		render()
	}

	windowSelect.OnChanged = func(string) { render() }
	zoomSelect.OnChanged = func(string) { render() }
	dimsCheck.OnChanged = func(bool) { render() }

	openBtn := widget.NewButton("Open…", func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			openProject(uri.Path())
		}, w)
	})

	toolbar := container.NewHBox(openBtn, windowSelect, zoomSelect, dimsCheck)
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, scroll))

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})

	if projectDir != "" {
		openProject(projectDir)
	}
	w.ShowAndRun()
	return nil
}
