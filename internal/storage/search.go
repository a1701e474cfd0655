/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SearchQuery describes the in-app search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Filters are optional. Woods restricts to exact wood types (e.g. Accoya, Oak).
// WidthMin/Max and HeightMin/Max are inclusive frame dimensions in mm; 0 means unset.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text      string
	Paint     string
	Hardware  string
	Woods     []string
	WidthMin  float64
	WidthMax  float64
	HeightMin float64
	HeightMax float64
	Limit     int
	Offset    int
}

// SearchResult represents a single match row.
// Snippet is an optional highlighted excerpt using [ ] markers when FTS text is used.
// WindowID matches domain.Window.ID and can be used to look up the window in the manifest.
type SearchResult struct {
	WinID    int64
	WindowID string
	Name     string
	Width    float64
	Height   float64
	Snippet  string
}

// Search performs full-text search with optional filters over the embedded index.
// When q.Text is empty, it falls back to a non-FTS scan over windows with filters applied.
func Search(ctx context.Context, projectRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	// Build dynamic SQL
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT w.win_id, w.window_id, w.name, w.width, w.height, snippet(fts_windows, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_windows JOIN windows w ON fts_windows.rowid = w.win_id\n")
		sb.WriteString("WHERE fts_windows MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT w.win_id, w.window_id, w.name, w.width, w.height, ''\n")
		sb.WriteString("FROM windows w\nWHERE 1=1\n")
	}
	// Filters
	// Woods filter (IN list)
	if len(q.Woods) > 0 {
		sb.WriteString(" AND w.wood IN (" + placeholders(len(q.Woods)) + ")\n")
		for _, t := range q.Woods {
			args = append(args, t)
		}
	}
	// Frame width range
	if q.WidthMin > 0 && q.WidthMax > 0 && q.WidthMax >= q.WidthMin {
		sb.WriteString(" AND w.width BETWEEN ? AND ?\n")
		args = append(args, q.WidthMin, q.WidthMax)
	} else if q.WidthMin > 0 {
		sb.WriteString(" AND w.width >= ?\n")
		args = append(args, q.WidthMin)
	} else if q.WidthMax > 0 {
		sb.WriteString(" AND w.width <= ?\n")
		args = append(args, q.WidthMax)
	}
	// Frame height range
	if q.HeightMin > 0 && q.HeightMax > 0 && q.HeightMax >= q.HeightMin {
		sb.WriteString(" AND w.height BETWEEN ? AND ?\n")
		args = append(args, q.HeightMin, q.HeightMax)
	} else if q.HeightMin > 0 {
		sb.WriteString(" AND w.height >= ?\n")
		args = append(args, q.HeightMin)
	} else if q.HeightMax > 0 {
		sb.WriteString(" AND w.height <= ?\n")
		args = append(args, q.HeightMax)
	}
	// Paint filter: case-insensitive contains
	if s := strings.TrimSpace(q.Paint); s != "" {
		sb.WriteString(" AND lower(w.paint) LIKE ?\n")
		args = append(args, likeContains(strings.ToLower(s)))
	}
	// Hardware filter: case-insensitive contains
	if s := strings.TrimSpace(q.Hardware); s != "" {
		sb.WriteString(" AND lower(w.hardware) LIKE ?\n")
		args = append(args, likeContains(strings.ToLower(s)))
	}
	// Order and pagination
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY w.name, w.win_id\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.WinID, &r.WindowID, &r.Name, &r.Width, &r.Height, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func likeContains(s string) string { return "%" + s + "%" }

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
