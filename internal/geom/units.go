/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package geom

// Unit conversion constants. MMToPoints targets PostScript points (1/72 inch),
// the unit PDF page descriptions use.
const (
	MMToInches = 0.0393701
	InchesToMM = 25.4
	MMToPoints = 2.83465
)

// ToInches converts millimeters to inches.
func ToInches(mm float64) float64 { return mm * MMToInches }

// FromInches converts inches to millimeters.
func FromInches(in float64) float64 { return in * InchesToMM }

// ToPoints converts millimeters to PostScript points.
func ToPoints(mm float64) float64 { return mm * MMToPoints }

// FromPoints converts PostScript points to millimeters.
func FromPoints(pt float64) float64 { return pt / MMToPoints }
