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
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const insertExportSQL = `INSERT INTO export_history(window_id, format, path, bytes, created_at) VALUES (?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listExportsSQL = `SELECT id, COALESCE(window_id,''), format, path, bytes, created_at FROM export_history ORDER BY created_at DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const listExportsForWindowSQL = `SELECT id, COALESCE(window_id,''), format, path, bytes, created_at FROM export_history WHERE window_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const getExportSQL = `SELECT id, COALESCE(window_id,''), format, path, bytes, created_at FROM export_history WHERE id = ?`

// ExportRecord is one file written by the export pipeline.
// WindowID is empty for project-level exports (schedules, workbooks).
type ExportRecord struct {
	ID        int64
	WindowID  string
	Format    string
	Path      string
	Bytes     int64
	CreatedAt time.Time
}

// RecordExport appends an export history row. The history is informational;
// the files themselves live under <project>/exports and are the source of truth.
func RecordExport(ctx context.Context, ph *ProjectHandle, windowID, format, path string, bytes int64, ts time.Time) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	var wid any
	if windowID != "" {
		wid = windowID
	}
	res, err := db.ExecContext(ctx, insertExportSQL, wid, format, path, bytes, ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListExports returns up to limit most recent export records, newest first.
// When windowID is non-empty, only records for that window are returned.
func ListExports(ctx context.Context, ph *ProjectHandle, windowID string, limit int) ([]ExportRecord, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 100
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	var rows *sql.Rows
	if windowID != "" {
		rows, err = db.QueryContext(ctx, listExportsForWindowSQL, windowID, limit)
	} else {
		rows, err = db.QueryContext(ctx, listExportsSQL, limit)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []ExportRecord
	for rows.Next() {
		r, err := scanExportRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetExport returns a single export record by id, or false when it does not exist.
func GetExport(ctx context.Context, ph *ProjectHandle, id int64) (ExportRecord, bool, error) {
	if ph == nil {
		return ExportRecord{}, false, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return ExportRecord{}, false, err
	}
	defer func() { _ = db.Close() }()
	r, err := scanExportRecord(db.QueryRowContext(ctx, getExportSQL, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportRecord{}, false, nil
	}
	if err != nil {
		return ExportRecord{}, false, err
	}
	return r, true, nil
}

func scanExportRecord(scan func(dest ...any) error) (ExportRecord, error) {
	var r ExportRecord
	var tsStr string
	if err := scan(&r.ID, &r.WindowID, &r.Format, &r.Path, &r.Bytes, &tsStr); err != nil {
		return ExportRecord{}, err
	}
	ts, _ := time.Parse(time.RFC3339Nano, tsStr)
	r.CreatedAt = ts
	return r, nil
}
