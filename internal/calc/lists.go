/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package calc

import (
	"sashcad/internal/domain"
	"sashcad/internal/geom"
)

// CutItem is one row of a cutting list: a section to cut, how many, and
// the finished length in mm.
type CutItem struct {
	Section  string  `json:"section"`
	Qty      int     `json:"qty"`
	Length   float64 `json:"length"`
	WoodType string  `json:"wood_type"`
}

// BuyItem is one row of a shopping list.
type BuyItem struct {
	Item          string `json:"item"`
	Qty           int    `json:"qty"`
	Specification string `json:"specification"`
}

// CuttingList returns the timber sections for one window in workshop
// order: frame members first, then the top sash, then the bottom sash.
// Lengths are rounded to a tenth of a millimetre.
func CuttingList(w domain.Window) []CutItem {
	wood := w.WoodType
	if wood == "" {
		wood = DefaultWoodType
	}
	cut := func(section string, qty int, length float64) CutItem {
		return CutItem{Section: section, Qty: qty, Length: geom.Round(length, 1), WoodType: wood}
	}
	return []CutItem{
		cut("Jambs", 2, w.Frame.JambsLength),
		cut("Head", 1, w.Frame.HeadLength),
		cut("Cill", 1, w.Frame.CillLength),
		cut("Ext Head Liner", 1, w.Frame.ExtHeadLiner),
		cut("Int Head Liner", 1, w.Frame.IntHeadLiner),
		cut("Top Sash - Stiles", 2, w.SashTop.StilesLength),
		cut("Top Sash - Top Rail", 1, w.SashTop.TopRailLength),
		cut("Top Sash - Meeting Rail", 1, w.SashTop.MeetRailLength),
		cut("Bottom Sash - Stiles", 2, w.SashBottom.StilesLength),
		cut("Bottom Sash - Bottom Rail", 1, w.SashBottom.BottomRailLength),
		cut("Bottom Sash - Meeting Rail", 1, w.SashBottom.MeetRailLength),
	}
}

// ShoppingList returns the hardware and finish items for one window.
// Quantities follow the standard double-hung fit-out; specifications
// that depend on the window's options are filled from it.
func ShoppingList(w domain.Window) []BuyItem {
	return []BuyItem{
		{Item: "Sash Cord", Qty: 2, Specification: "6mm Cotton Core"},
		{Item: "Weights", Qty: 4, Specification: "3.5 kg"},
		{Item: "Pulleys", Qty: 4, Specification: "Brass"},
		{Item: "Locks", Qty: 2, Specification: "PAS24"},
		{Item: "Trickle Vent", Qty: 1, Specification: w.TrickleVent},
		{Item: "Sash Catches", Qty: 2, Specification: w.SashCatches},
		{Item: "Hardware Finish", Qty: 1, Specification: w.HardwareFinish},
		{Item: "Paint", Qty: 1, Specification: "Teknos AquaTop - " + w.PaintColor},
	}
}
