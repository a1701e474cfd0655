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

import (
	"errors"
	"fmt"
)

// ErrInvalidDimension is the sentinel for dimension validation failures.
// Match with errors.Is; the concrete *InvalidDimensionError carries the
// offending field.
var ErrInvalidDimension = errors.New("invalid dimension")

// InvalidDimensionError reports a non-positive or missing measurement.
// It names the field so callers can surface the exact input at fault.
type InvalidDimensionError struct {
	Field string
	Value float64
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("invalid dimension: %s = %g mm (must be > 0)", e.Field, e.Value)
}

func (e *InvalidDimensionError) Unwrap() error { return ErrInvalidDimension }
