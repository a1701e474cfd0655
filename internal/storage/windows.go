/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"

	"github.com/google/uuid"

	"sashcad/internal/domain"
)

// NextWindowName returns a unique window name like "W-1", "W-2", ... not used in the project.
func NextWindowName(p *domain.Project) string {
	if p == nil {
		return "W-1"
	}
	maxN := 0
	exists := map[string]struct{}{}
	for _, w := range p.Windows {
		exists[w.Name] = struct{}{}
		var n int
		if _, err := fmt.Sscanf(w.Name, "W-%d", &n); err == nil {
			if n > maxN {
				maxN = n
			}
		}
	}
	for n := maxN + 1; n < maxN+10000; n++ {
		name := fmt.Sprintf("W-%d", n)
		if _, ok := exists[name]; !ok {
			return name
		}
	}
	return fmt.Sprintf("W-%d", maxN+1)
}

// AddWindow appends a window to the project schedule.
// If w.Name is empty, a unique one will be generated; if w.ID is empty, a fresh id is assigned.
// Returns the stored window.
func AddWindow(ph *ProjectHandle, w domain.Window) (domain.Window, error) {
	if ph == nil {
		return domain.Window{}, fmt.Errorf("project handle is nil")
	}
	if w.Name == "" {
		w.Name = NextWindowName(&ph.Project)
	} else {
		// ensure unique
		for _, x := range ph.Project.Windows {
			if x.Name == w.Name {
				return domain.Window{}, fmt.Errorf("window name %s already exists", w.Name)
			}
		}
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ph.Project.Windows = append(ph.Project.Windows, w)
	return w, nil
}

// findWindow returns the index and pointer of the named window, or an error.
func findWindow(ph *ProjectHandle, name string) (int, *domain.Window, error) {
	if ph == nil {
		return -1, nil, fmt.Errorf("project handle is nil")
	}
	for i := range ph.Project.Windows {
		if ph.Project.Windows[i].Name == name {
			return i, &ph.Project.Windows[i], nil
		}
	}
	return -1, nil, fmt.Errorf("window %s not found", name)
}

// MoveWindow moves the named window up or down in the schedule by delta
// (+1 moves toward the end, -1 toward the front). The slice order is the
// serialization and schedule order, so the move is a plain slice rotation.
func MoveWindow(ph *ProjectHandle, name string, delta int) error {
	idx, _, err := findWindow(ph, name)
	if err != nil {
		return err
	}
	ws := ph.Project.Windows
	newIdx := idx + delta
	if newIdx < 0 {
		newIdx = 0
	}
	if newIdx >= len(ws) {
		newIdx = len(ws) - 1
	}
	if newIdx == idx {
		return nil
	}
	w := ws[idx]
	if newIdx < idx {
		copy(ws[newIdx+1:idx+1], ws[newIdx:idx])
		ws[newIdx] = w
	} else {
		copy(ws[idx:newIdx], ws[idx+1:newIdx+1])
		ws[newIdx] = w
	}
	return nil
}

// UpdateWindowMeta updates window name (if non-empty and unique), paint color and hardware finish.
// Empty paint/hardware values leave the current setting unchanged. Geometry is preserved.
func UpdateWindowMeta(ph *ProjectHandle, name string, newName string, paint string, hardware string) error {
	_, wn, err := findWindow(ph, name)
	if err != nil {
		return err
	}
	if newName != "" && newName != wn.Name {
		// ensure unique
		for _, x := range ph.Project.Windows {
			if x.Name == newName {
				return fmt.Errorf("window name %s already exists", newName)
			}
		}
		wn.Name = newName
	}
	if paint != "" {
		wn.PaintColor = paint
	}
	if hardware != "" {
		wn.HardwareFinish = hardware
	}
	return nil
}

// RemoveWindow deletes the named window from the schedule.
func RemoveWindow(ph *ProjectHandle, name string) error {
	idx, _, err := findWindow(ph, name)
	if err != nil {
		return err
	}
	ph.Project.Windows = append(ph.Project.Windows[:idx], ph.Project.Windows[idx+1:]...)
	return nil
}
