/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"sashcad/internal/calc"
)

func TestBuiltinStock(t *testing.T) {
	c := Builtin()
	if !c.HasFinish("White") {
		t.Fatalf("built-in catalog must stock White")
	}
	price, ok := c.TimberPrice("Sapele")
	if !ok {
		t.Fatalf("built-in catalog must price Sapele")
	}
	if price != 14.50 {
		t.Fatalf("Sapele sash price = %v, want 14.50 (sash profile preferred over cill)", price)
	}
	if _, ok := c.TimberPrice("Balsa"); ok {
		t.Fatalf("unknown wood must not be priced")
	}
}

func TestLoadMissingDirReturnsBuiltin(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Timbers) == 0 || len(c.Finishes) == 0 {
		t.Fatalf("missing catalogs dir must fall back to the built-in set")
	}
}

func TestLoadMergesAndOverrides(t *testing.T) {
	root := t.TempDir()
	custom := `timbers:
  - wood: Sapele
    profile: 57x63 sash
    price_per_meter: 99.0
  - wood: Iroko
    profile: 57x63 sash
    price_per_meter: 18.5
finishes:
  - name: Heritage Cream
    ral: "9001"
`
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "workshop.yaml"), []byte(custom), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if price, _ := c.TimberPrice("Sapele"); price != 99.0 {
		t.Fatalf("project catalog must override built-in Sapele price, got %v", price)
	}
	if price, ok := c.TimberPrice("Iroko"); !ok || price != 18.5 {
		t.Fatalf("merged Iroko price = %v ok=%v", price, ok)
	}
	if !c.HasFinish("Heritage Cream") {
		t.Fatalf("merged finish missing")
	}
	if !c.HasFinish("White") {
		t.Fatalf("built-in finishes must survive a merge")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	in := Catalog{Timbers: []TimberSection{{Wood: "Larch", Profile: "57x63 sash", PricePerMeter: 7.25}}}
	if err := Save(root, "larch", in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	c, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if price, ok := c.TimberPrice("Larch"); !ok || price != 7.25 {
		t.Fatalf("saved catalog not loaded back: %v ok=%v", price, ok)
	}
}

func TestPriceCuttingList(t *testing.T) {
	c := Builtin()
	items := []calc.CutItem{
		{Section: "Jambs", Qty: 2, Length: 1500, WoodType: "Sapele"},
		{Section: "Head", Qty: 1, Length: 1200, WoodType: "Sapele"},
	}
	priced, total := c.PriceCuttingList(items)
	if len(priced) != 2 {
		t.Fatalf("priced rows = %d, want 2", len(priced))
	}
	// 2 x 1.5m x 14.50 + 1 x 1.2m x 14.50
	want := 2*1.5*14.50 + 1.2*14.50
	if math.Abs(total-want) > 1e-9 {
		t.Fatalf("total = %v, want %v", total, want)
	}
	if priced[0].Cost <= priced[1].Cost {
		t.Fatalf("two jambs must cost more than one head")
	}
}

func TestPriceCuttingListUnknownWood(t *testing.T) {
	c := Builtin()
	priced, total := c.PriceCuttingList([]calc.CutItem{{Section: "Jambs", Qty: 2, Length: 1500, WoodType: "Balsa"}})
	if total != 0 || priced[0].Cost != 0 || priced[0].PricePerMeter != 0 {
		t.Fatalf("unknown wood must price to zero, got total=%v row=%+v", total, priced[0])
	}
}
