/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"testing"
)

func useMemoryKeyring(t *testing.T) {
	t.Helper()
	prev := SetTokenStore(NewMemoryTokenStore())
	t.Cleanup(func() { SetTokenStore(prev) })
}

func TestEnvOverridesBackendURL(t *testing.T) {
	useMemoryKeyring(t)
	old := os.Getenv(EnvBackendURL)
	_ = os.Setenv(EnvBackendURL, "https://example.test:8443")
	t.Cleanup(func() { _ = os.Setenv(EnvBackendURL, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	useMemoryKeyring(t)
	old := os.Getenv(EnvTelemetryOptIn)
	_ = os.Setenv(EnvTelemetryOptIn, "true")
	t.Cleanup(func() { _ = os.Setenv(EnvTelemetryOptIn, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestDefaultsCarryDrawingUnits(t *testing.T) {
	cfg := Defaults()
	if cfg.General.Units != "mm" {
		t.Fatalf("default units = %q, want mm", cfg.General.Units)
	}
	if cfg.Export.DPI != 300 {
		t.Fatalf("default export DPI = %d, want 300", cfg.Export.DPI)
	}
	if cfg.Export.Background != "#FFFFFF" {
		t.Fatalf("default export background = %q, want #FFFFFF", cfg.Export.Background)
	}
}

func TestMergeIncludesBackendEnabled(t *testing.T) {
	// Given a file config that enables the backend, mergeInto should carry it through
	dst := Defaults()
	src := Defaults()
	src.Backend.Enabled = true
	mergeInto(&dst, &src)
	if !dst.Backend.Enabled {
		t.Fatalf("Backend.Enabled was not merged from file config")
	}
}

func TestMergeIncludesExport(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Export.OutputDir = "/srv/drawings"
	src.Export.DPI = 150
	src.Export.Background = "#F0F0F0"
	mergeInto(&dst, &src)
	if dst.Export.OutputDir != "/srv/drawings" || dst.Export.DPI != 150 || dst.Export.Background != "#F0F0F0" {
		t.Fatalf("export fields not merged correctly: %#v", dst.Export)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/scd.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/scd.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	useMemoryKeyring(t)
	oldLevel := os.Getenv(EnvLogLevel)
	oldFmt := os.Getenv(EnvLogFormat)
	oldSrc := os.Getenv(EnvLogSource)
	oldFile := os.Getenv(EnvLogFile)
	_ = os.Setenv(EnvLogLevel, "error")
	_ = os.Setenv(EnvLogFormat, "json")
	_ = os.Setenv(EnvLogSource, "1")
	_ = os.Setenv(EnvLogFile, "X:/scd.log")
	t.Cleanup(func() {
		_ = os.Setenv(EnvLogLevel, oldLevel)
		_ = os.Setenv(EnvLogFormat, oldFmt)
		_ = os.Setenv(EnvLogSource, oldSrc)
		_ = os.Setenv(EnvLogFile, oldFile)
	})
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/scd.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestTokenRoundTripThroughStore(t *testing.T) {
	useMemoryKeyring(t)
	if err := tokenStore.Set(keyringService, keyringToken, "secret-token"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "secret-token" {
		t.Fatalf("token = %q, want secret-token", tok)
	}
}
