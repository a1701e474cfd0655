/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package catalog loads the workshop catalogs: paint finishes, hardware
// sets, and timber sections with per-metre pricing. Catalogs are plain
// YAML files under <project>/catalogs; the built-in set covers the
// stock range so a fresh project prices a shopping list without any
// setup.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"sashcad/internal/calc"
)

// Finish is one paintable finish offered for joinery.
type Finish struct {
	Name   string `yaml:"name"`
	RAL    string `yaml:"ral,omitempty"`
	Sheen  string `yaml:"sheen,omitempty"` // e.g. "satin", "gloss"
	Primed bool   `yaml:"primed,omitempty"`
}

// HardwareSet groups the ironmongery fitted to one window.
type HardwareSet struct {
	Name     string   `yaml:"name"`
	Finishes []string `yaml:"finishes,omitempty"` // e.g. "Satin Chrome", "Polished Brass"
	Items    []string `yaml:"items,omitempty"`
}

// TimberSection is a stock section with its price per metre.
type TimberSection struct {
	Wood          string  `yaml:"wood"`
	Profile       string  `yaml:"profile,omitempty"` // e.g. "57x63 sash", "32x140 cill"
	PricePerMeter float64 `yaml:"price_per_meter"`
}

// Catalog is the merged view over every catalog file in a project.
type Catalog struct {
	Finishes []Finish        `yaml:"finishes,omitempty"`
	Hardware []HardwareSet   `yaml:"hardware,omitempty"`
	Timbers  []TimberSection `yaml:"timbers,omitempty"`
}

// DirName is the catalogs folder under a project root.
const DirName = "catalogs"

// Builtin returns the stock catalog shipped with the application.
func Builtin() Catalog {
	return Catalog{
		Finishes: []Finish{
			{Name: "White", RAL: "9010", Sheen: "satin", Primed: true},
			{Name: "Anthracite Grey", RAL: "7016", Sheen: "satin"},
			{Name: "Sage Green", RAL: "6021", Sheen: "satin"},
		},
		Hardware: []HardwareSet{
			{Name: "Standard", Finishes: []string{"Satin Chrome", "Polished Brass", "Antique Black"},
				Items: []string{"sash fastener", "sash lifts x2", "pulleys x4"}},
			{Name: "Heritage", Finishes: []string{"Polished Brass", "Antique Black"},
				Items: []string{"hook fastener", "ring lifts x2", "pulleys x4", "restrictor"}},
		},
		Timbers: []TimberSection{
			{Wood: "Sapele", Profile: "57x63 sash", PricePerMeter: 14.50},
			{Wood: "Sapele", Profile: "32x140 cill", PricePerMeter: 19.80},
			{Wood: "Redwood", Profile: "57x63 sash", PricePerMeter: 8.20},
			{Wood: "Oak", Profile: "57x63 sash", PricePerMeter: 24.00},
			{Wood: "Accoya", Profile: "57x63 sash", PricePerMeter: 21.40},
		},
	}
}

// Load merges the built-in catalog with every *.yaml file found under
// <projectRoot>/catalogs. Project entries with the same name/wood+profile
// replace built-in ones. A missing catalogs directory is not an error.
func Load(projectRoot string) (Catalog, error) {
	cat := Builtin()
	dir := filepath.Join(projectRoot, DirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return cat, nil
		}
		return cat, fmt.Errorf("read catalogs dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") || strings.HasSuffix(n, ".yml") {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	for _, n := range names {
		data, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			return cat, fmt.Errorf("read catalog %s: %w", n, err)
		}
		var c Catalog
		if err := yaml.Unmarshal(data, &c); err != nil {
			return cat, fmt.Errorf("parse catalog %s: %w", n, err)
		}
		cat.merge(c)
	}
	return cat, nil
}

// Save writes the catalog as one YAML file under <projectRoot>/catalogs.
func Save(projectRoot, name string, cat Catalog) error {
	dir := filepath.Join(projectRoot, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure catalogs dir: %w", err)
	}
	data, err := yaml.Marshal(cat)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
		name += ".yaml"
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func (c *Catalog) merge(src Catalog) {
	for _, f := range src.Finishes {
		if i := indexBy(c.Finishes, func(x Finish) string { return x.Name }, f.Name); i >= 0 {
			c.Finishes[i] = f
		} else {
			c.Finishes = append(c.Finishes, f)
		}
	}
	for _, h := range src.Hardware {
		if i := indexBy(c.Hardware, func(x HardwareSet) string { return x.Name }, h.Name); i >= 0 {
			c.Hardware[i] = h
		} else {
			c.Hardware = append(c.Hardware, h)
		}
	}
	for _, t := range src.Timbers {
		key := t.Wood + "/" + t.Profile
		if i := indexBy(c.Timbers, func(x TimberSection) string { return x.Wood + "/" + x.Profile }, key); i >= 0 {
			c.Timbers[i] = t
		} else {
			c.Timbers = append(c.Timbers, t)
		}
	}
}

func indexBy[T any](items []T, key func(T) string, want string) int {
	for i, it := range items {
		if strings.EqualFold(key(it), want) {
			return i
		}
	}
	return -1
}

// TimberPrice returns the price per metre for the given wood using the
// sash profile. Ok is false for wood the catalog does not stock.
func (c Catalog) TimberPrice(wood string) (float64, bool) {
	var fallback float64
	found := false
	for _, t := range c.Timbers {
		if !strings.EqualFold(t.Wood, wood) {
			continue
		}
		if strings.Contains(t.Profile, "sash") {
			return t.PricePerMeter, true
		}
		if !found {
			fallback, found = t.PricePerMeter, true
		}
	}
	return fallback, found
}

// HasFinish reports whether the paint finish is in the catalog.
func (c Catalog) HasFinish(name string) bool {
	return indexBy(c.Finishes, func(f Finish) string { return f.Name }, name) >= 0
}

// PricedItem is a cutting-list line with the catalog price applied.
type PricedItem struct {
	calc.CutItem
	PricePerMeter float64 // 0 when the catalog has no entry for the wood
	Cost          float64 // length (m) x qty x price
}

// PriceCuttingList applies per-metre timber pricing to a derived
// cutting list. Items whose wood has no catalog entry keep a zero cost
// rather than failing; the quote stage flags those separately.
func (c Catalog) PriceCuttingList(items []calc.CutItem) ([]PricedItem, float64) {
	out := make([]PricedItem, 0, len(items))
	var total float64
	for _, it := range items {
		price, _ := c.TimberPrice(it.WoodType)
		p := PricedItem{CutItem: it, PricePerMeter: price}
		p.Cost = it.Length / 1000 * float64(it.Qty) * price
		total += p.Cost
		out = append(out, p)
	}
	return out, total
}
