/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"sashcad/internal/domain"
	applog "sashcad/internal/log"
	"sashcad/internal/scene"
)

// JobEvent reports the outcome of one per-format export task.
type JobEvent struct {
	Format Format
	Path   string // written file, empty on failure
	Size   int
	Err    error
	Done   int // tasks finished so far, including this one
	Total  int
}

// RunOptions controls a multi-format export run for a single window.
type RunOptions struct {
	Formats      []Format // default: every supported format
	OutDir       string   // required destination directory
	BaseName     string   // default: slug of the window name
	DPI          int
	Project      string
	Client       string
	NoDimensions bool
	Now          time.Time
	Concurrency  int // default: one task per format
}

// RunExports builds the scene once and exports each format as an
// independent cancellable task. One JobEvent arrives per task; the
// channel closes when every task has finished. A canceled context
// fails the remaining tasks with ctx.Err() but never leaves a partial
// file behind, since writes go through a temp file and rename.
func RunExports(ctx context.Context, w domain.Window, opt RunOptions) (<-chan JobEvent, error) {
	if opt.OutDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = []Format{FormatDXF, FormatSVG, FormatPNG, FormatJSON, FormatPDF, FormatXLSX}
	}
	base := opt.BaseName
	if base == "" {
		base = FileSlug(w.Name)
	}
	workers := opt.Concurrency
	if workers <= 0 || workers > len(formats) {
		workers = len(formats)
	}

	s, err := scene.Build(w, scene.Options{NoDimensions: opt.NoDimensions, Now: opt.Now})
	if err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}
	if err := os.MkdirAll(opt.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	log := applog.WithComponent("export")
	events := make(chan JobEvent, len(formats))
	sem := make(chan struct{}, workers)
	var done atomic.Int32
	var wg sync.WaitGroup

	for _, f := range formats {
		wg.Add(1)
		go func(f Format) {
			defer wg.Done()
			ev := JobEvent{Format: f, Total: len(formats)}

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				ev.Err = ctx.Err()
				ev.Done = int(done.Add(1))
				events <- ev
				return
			}
			if ctx.Err() != nil {
				ev.Err = ctx.Err()
				ev.Done = int(done.Add(1))
				events <- ev
				return
			}

			bopt := BundleOptions{DPI: opt.DPI, Project: opt.Project, Client: opt.Client, Now: opt.Now}
			data, err := exportOne(s, w, f, bopt, s.Meta.GeneratedAt)
			if err == nil && ctx.Err() != nil {
				err = ctx.Err()
			}
			if err == nil {
				path := filepath.Join(opt.OutDir, base+f.Ext())
				if werr := writeFileAtomic(path, data); werr != nil {
					err = werr
				} else {
					ev.Path = path
					ev.Size = len(data)
				}
			}
			ev.Err = err
			ev.Done = int(done.Add(1))
			if err != nil {
				log.Warn("export task failed", slog.String("format", string(f)), slog.Any("err", err))
			} else {
				log.Debug("export task done", slog.String("format", string(f)), slog.Int("bytes", ev.Size))
			}
			events <- ev
		}(f)
	}

	go func() {
		wg.Wait()
		close(events)
	}()
	return events, nil
}

// writeFileAtomic writes to a temp file in the target directory and
// renames it over the destination, so readers never see partial data.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	f, err := os.OpenFile(temp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("write temp export: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(temp)
		return fmt.Errorf("write temp export: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(temp)
		return fmt.Errorf("sync temp export: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("close temp export: %w", err)
	}
	// On Windows, rename cannot replace an existing file
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace export: %w", err)
	}
	return nil
}
