/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package version carries the application identity reported by the CLI,
// the crash reporter, and the telemetry client.
package version

// AppName is the user-facing product name.
const AppName = "SashCAD"

// Version is the semantic version of this build. Release tooling rewrites it
// via -ldflags "-X sashcad/internal/version.Version=...".
var Version = "0.9.0"

// String returns the product name and version on one line.
func String() string { return AppName + " " + Version }
