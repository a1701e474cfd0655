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
	"os"
	"testing"
	"time"
)

func TestRegistryPutAndGet(t *testing.T) {
	fr := newFileRegistry()
	dir := t.TempDir()

	entry, err := fr.put(dir, "drawing.svg", []byte("<svg/>"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if entry.ID == "" {
		t.Fatalf("entry has no id")
	}
	if entry.Filename != "drawing.svg" {
		t.Errorf("filename = %q", entry.Filename)
	}
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("stored content = %q", data)
	}

	got, ok := fr.get(entry.ID)
	if !ok || got.Path != entry.Path {
		t.Errorf("get = %+v, %v", got, ok)
	}
	if _, ok := fr.get("missing"); ok {
		t.Errorf("unknown id resolved")
	}

	fr.remove(entry.ID)
	if _, ok := fr.get(entry.ID); ok {
		t.Errorf("entry survived remove")
	}
}

func TestRegistrySweep(t *testing.T) {
	fr := newFileRegistry()
	dir := t.TempDir()

	old, err := fr.put(dir, "old.svg", []byte("a"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	fresh, err := fr.put(dir, "fresh.svg", []byte("b"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	// Age the first entry past the cutoff.
	fr.mu.Lock()
	e := fr.entries[old.ID]
	e.Created = time.Now().Add(-48 * time.Hour)
	fr.entries[old.ID] = e
	fr.mu.Unlock()

	if n := fr.sweep(24 * time.Hour); n != 1 {
		t.Fatalf("swept %d entries, want 1", n)
	}
	if _, ok := fr.get(old.ID); ok {
		t.Errorf("old entry survived sweep")
	}
	if _, err := os.Stat(old.Path); !os.IsNotExist(err) {
		t.Errorf("old file still on disk")
	}
	if _, ok := fr.get(fresh.ID); !ok {
		t.Errorf("fresh entry swept")
	}
}
