/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sashcad/internal/domain"

	_ "modernc.org/sqlite"
)

func testProjectWithWindows(names ...string) domain.Project {
	proj := domain.NewProject("Index Test", "Client")
	for i, name := range names {
		w := domain.NewWindow(name)
		w.Frame.Width = 900 + float64(i)*100
		w.Frame.Height = 1500
		w.SashTop.Height = 700
		w.SashBottom.Height = 700
		w.WoodType = "Accoya"
		proj.AddWindow(w)
	}
	return proj
}

func TestIndexInitCreatesWALAndMetaVersion(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	db.Close()

	idxPath := IndexPath(root)
	if _, err := os.Stat(idxPath); err != nil {
		t.Fatalf("index file missing at %s: %v", idxPath, err)
	}
	// Open DB directly and verify journal mode and tables
	uriPath := filepath.ToSlash(idxPath)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", uriPath)
	raw, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer raw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var mode string
	if err := raw.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	// Check meta/version tables exist
	var cnt int
	if err := raw.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('meta','version')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 meta tables, got %d", cnt)
	}
	// Check core schema tables exist (including virtual table)
	if err := raw.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('windows','fts_windows','export_history','previews','snapshots')").Scan(&cnt); err != nil {
		t.Fatalf("query core tables: %v", err)
	}
	if cnt != 5 {
		t.Fatalf("expected 5 core tables, got %d", cnt)
	}
	// Version row should carry schemaVersion
	var schema int
	if err := raw.QueryRowContext(ctx, "SELECT schema FROM version WHERE id=1").Scan(&schema); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("expected schema %d, got %d", schemaVersion, schema)
	}
	// Insert a window with a high win_id and verify FTS triggers populate the index
	if _, err := raw.ExecContext(ctx, `INSERT INTO windows(win_id, window_id, name, width, height, text) VALUES(10001,'uuid-x','Probe',900,1500,'probe cellar accoya');`); err != nil {
		t.Fatalf("insert window: %v", err)
	}
	if err := raw.QueryRowContext(ctx, `SELECT COUNT(*) FROM fts_windows WHERE fts_windows MATCH 'cellar'`).Scan(&cnt); err != nil {
		t.Fatalf("fts match: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected 1 FTS hit after trigger insert, got %d", cnt)
	}
	// Delete should remove the FTS entry via trigger
	if _, err := raw.ExecContext(ctx, `DELETE FROM windows WHERE win_id=10001`); err != nil {
		t.Fatalf("delete window: %v", err)
	}
	if err := raw.QueryRowContext(ctx, `SELECT COUNT(*) FROM fts_windows WHERE fts_windows MATCH 'cellar'`).Scan(&cnt); err != nil {
		t.Fatalf("fts match after delete: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected 0 FTS hits after delete, got %d", cnt)
	}
}

func TestUpdateIndexPopulatesWindows(t *testing.T) {
	root := t.TempDir()
	proj := testProjectWithWindows("Kitchen Left", "Bay Front")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := UpdateIndex(ctx, root, proj); err != nil {
		t.Fatalf("UpdateIndex error: %v", err)
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	defer db.Close()
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM windows").Scan(&cnt); err != nil {
		t.Fatalf("count windows: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 window rows, got %d", cnt)
	}
	var width float64
	var wood string
	if err := db.QueryRowContext(ctx, "SELECT width, wood FROM windows WHERE name='Bay Front'").Scan(&width, &wood); err != nil {
		t.Fatalf("select bay front: %v", err)
	}
	if width != 1000 || wood != "Accoya" {
		t.Fatalf("row mismatch: width=%v wood=%q", width, wood)
	}

	// Updating again after a change replaces the content
	proj.Windows = proj.Windows[:1]
	if err := UpdateIndex(ctx, root, proj); err != nil {
		t.Fatalf("UpdateIndex (second) error: %v", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM windows").Scan(&cnt); err != nil {
		t.Fatalf("count windows: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected 1 window row after update, got %d", cnt)
	}
}

func TestBuildIndexIfEmptyIsIdempotent(t *testing.T) {
	root := t.TempDir()
	proj := testProjectWithWindows("W-1")
	ctx := context.Background()

	if err := BuildIndexIfEmpty(ctx, root, proj); err != nil {
		t.Fatalf("BuildIndexIfEmpty error: %v", err)
	}
	// A second call with a different manifest must not clobber existing rows
	bigger := testProjectWithWindows("W-1", "W-2", "W-3")
	if err := BuildIndexIfEmpty(ctx, root, bigger); err != nil {
		t.Fatalf("BuildIndexIfEmpty (second) error: %v", err)
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	defer db.Close()
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM windows").Scan(&cnt); err != nil {
		t.Fatalf("count windows: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected 1 window row (first build wins), got %d", cnt)
	}
}

func TestRebuildIndexResetsDerivedTables(t *testing.T) {
	root := t.TempDir()
	proj := testProjectWithWindows("W-1", "W-2")
	ctx := context.Background()
	ph := &ProjectHandle{Root: root, ManifestPath: filepath.Join(root, ManifestFileName), Project: proj}

	if err := UpdateIndex(ctx, root, proj); err != nil {
		t.Fatalf("UpdateIndex error: %v", err)
	}
	if _, err := RecordExport(ctx, ph, "", "pdf", "exports/pack.pdf", 1234, time.Now()); err != nil {
		t.Fatalf("RecordExport error: %v", err)
	}

	if err := RebuildIndex(ctx, root, proj); err != nil {
		t.Fatalf("RebuildIndex error: %v", err)
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex error: %v", err)
	}
	defer db.Close()
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM windows").Scan(&cnt); err != nil {
		t.Fatalf("count windows: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 window rows after rebuild, got %d", cnt)
	}
	// Derived history is dropped on rebuild
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM export_history").Scan(&cnt); err != nil {
		t.Fatalf("count export_history: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected empty export_history after rebuild, got %d", cnt)
	}
}
