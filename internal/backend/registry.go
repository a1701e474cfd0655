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
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fileRegistry maps opaque download ids to files the server wrote
// under its output directory. Clients never see filesystem paths, only
// the id returned by the export endpoints.
type fileRegistry struct {
	mu      sync.Mutex
	entries map[string]registryEntry
}

type registryEntry struct {
	ID       string
	Filename string
	Path     string
	Created  time.Time
}

func newFileRegistry() *fileRegistry {
	return &fileRegistry{entries: make(map[string]registryEntry)}
}

// put writes data into dir under a collision-free name and registers it
// for download.
func (fr *fileRegistry) put(dir, filename string, data []byte) (registryEntry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return registryEntry{}, fmt.Errorf("create output dir: %w", err)
	}
	id := uuid.NewString()
	path := filepath.Join(dir, id+"-"+filename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return registryEntry{}, fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return registryEntry{}, fmt.Errorf("write export: %w", err)
	}
	entry := registryEntry{ID: id, Filename: filename, Path: path, Created: time.Now()}
	fr.mu.Lock()
	fr.entries[id] = entry
	fr.mu.Unlock()
	return entry, nil
}

func (fr *fileRegistry) get(id string) (registryEntry, bool) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	e, ok := fr.entries[id]
	return e, ok
}

func (fr *fileRegistry) remove(id string) {
	fr.mu.Lock()
	delete(fr.entries, id)
	fr.mu.Unlock()
}

// sweep drops entries older than maxAge and deletes their files. The
// server runs this periodically so the output directory does not grow
// without bound.
func (fr *fileRegistry) sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	fr.mu.Lock()
	defer fr.mu.Unlock()
	removed := 0
	for id, e := range fr.entries {
		if e.Created.Before(cutoff) {
			_ = os.Remove(e.Path)
			delete(fr.entries, id)
			removed++
		}
	}
	return removed
}
