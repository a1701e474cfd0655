/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"testing"

	"sashcad/internal/domain"
)

func newTestHandle() *ProjectHandle {
	return &ProjectHandle{Project: domain.NewProject("CRUD Test", "")}
}

func TestAddWindowGeneratesUniqueNames(t *testing.T) {
	ph := newTestHandle()

	w1, err := AddWindow(ph, domain.Window{})
	if err != nil {
		t.Fatalf("AddWindow 1: %v", err)
	}
	if w1.Name != "W-1" {
		t.Fatalf("expected generated name W-1, got %q", w1.Name)
	}
	if w1.ID == "" {
		t.Fatalf("expected generated id")
	}
	w2, err := AddWindow(ph, domain.Window{})
	if err != nil {
		t.Fatalf("AddWindow 2: %v", err)
	}
	if w2.Name != "W-2" {
		t.Fatalf("expected generated name W-2, got %q", w2.Name)
	}
	// Explicit names are honored but must be unique
	if _, err := AddWindow(ph, domain.NewWindow("Kitchen")); err != nil {
		t.Fatalf("AddWindow named: %v", err)
	}
	if _, err := AddWindow(ph, domain.NewWindow("Kitchen")); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	// Generation skips past explicit W-n style names
	if _, err := AddWindow(ph, domain.NewWindow("W-7")); err != nil {
		t.Fatalf("AddWindow W-7: %v", err)
	}
	w8, err := AddWindow(ph, domain.Window{})
	if err != nil {
		t.Fatalf("AddWindow after W-7: %v", err)
	}
	if w8.Name != "W-8" {
		t.Fatalf("expected W-8 after explicit W-7, got %q", w8.Name)
	}
}

func TestMoveWindowReordersSchedule(t *testing.T) {
	ph := newTestHandle()
	for _, name := range []string{"A", "B", "C"} {
		if _, err := AddWindow(ph, domain.NewWindow(name)); err != nil {
			t.Fatalf("AddWindow %s: %v", name, err)
		}
	}

	if err := MoveWindow(ph, "C", -2); err != nil {
		t.Fatalf("MoveWindow C: %v", err)
	}
	if got := scheduleNames(ph); got != "C,A,B" {
		t.Fatalf("expected C,A,B got %s", got)
	}
	// Clamped at the ends
	if err := MoveWindow(ph, "C", -5); err != nil {
		t.Fatalf("MoveWindow clamp front: %v", err)
	}
	if got := scheduleNames(ph); got != "C,A,B" {
		t.Fatalf("expected C,A,B after clamp, got %s", got)
	}
	if err := MoveWindow(ph, "A", 5); err != nil {
		t.Fatalf("MoveWindow clamp back: %v", err)
	}
	if got := scheduleNames(ph); got != "C,B,A" {
		t.Fatalf("expected C,B,A got %s", got)
	}
	if err := MoveWindow(ph, "missing", 1); err == nil {
		t.Fatalf("expected error for unknown window")
	}
}

func scheduleNames(ph *ProjectHandle) string {
	s := ""
	for i, w := range ph.Project.Windows {
		if i > 0 {
			s += ","
		}
		s += w.Name
	}
	return s
}

func TestUpdateWindowMeta(t *testing.T) {
	ph := newTestHandle()
	if _, err := AddWindow(ph, domain.NewWindow("Kitchen")); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if _, err := AddWindow(ph, domain.NewWindow("Bay")); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}

	if err := UpdateWindowMeta(ph, "Kitchen", "Kitchen Left", "Slate Blue", ""); err != nil {
		t.Fatalf("UpdateWindowMeta: %v", err)
	}
	_, w, err := findWindow(ph, "Kitchen Left")
	if err != nil {
		t.Fatalf("findWindow: %v", err)
	}
	if w.PaintColor != "Slate Blue" {
		t.Fatalf("paint not updated: %q", w.PaintColor)
	}
	// Empty hardware left the default alone
	if w.HardwareFinish != "Satin Chrome" {
		t.Fatalf("hardware unexpectedly changed: %q", w.HardwareFinish)
	}
	// Renaming onto an existing window is rejected
	if err := UpdateWindowMeta(ph, "Kitchen Left", "Bay", "", ""); err == nil {
		t.Fatalf("expected duplicate rename error")
	}
}

func TestRemoveWindow(t *testing.T) {
	ph := newTestHandle()
	for _, name := range []string{"A", "B", "C"} {
		if _, err := AddWindow(ph, domain.NewWindow(name)); err != nil {
			t.Fatalf("AddWindow %s: %v", name, err)
		}
	}
	if err := RemoveWindow(ph, "B"); err != nil {
		t.Fatalf("RemoveWindow: %v", err)
	}
	if got := scheduleNames(ph); got != "A,C" {
		t.Fatalf("expected A,C got %s", got)
	}
	if err := RemoveWindow(ph, "B"); err == nil {
		t.Fatalf("expected error removing missing window")
	}
}
