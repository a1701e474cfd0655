/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"sashcad/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrProjectNotFound reports a lookup for an id the store does not hold.
var ErrProjectNotFound = errors.New("project not found")

// Store persists project manifests in Postgres. The manifest column is
// the same JSON document the desktop app writes to disk, so a project
// moves between the filesystem and the server without translation.
type Store struct {
	db *sql.DB
}

// ProjectSummary is a row of the project listing.
type ProjectSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ClientName string    `json:"client_name"`
	Windows    int       `json:"windows"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OpenStore connects to Postgres via the pgx stdlib driver and applies
// embedded migrations.
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (st *Store) Close() error { return st.db.Close() }

func (st *Store) Ping(ctx context.Context) error { return st.db.PingContext(ctx) }

// Save upserts a project keyed by its id; a project without an id gets
// one assigned. Returns the stored id.
func (st *Store) Save(ctx context.Context, p domain.Project) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	manifest, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal project: %w", err)
	}
	_, err = st.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, client_name, manifest, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, client_name = EXCLUDED.client_name,
		    manifest = EXCLUDED.manifest, updated_at = now()`,
		p.ID, p.Name, p.ClientName, manifest)
	if err != nil {
		return "", fmt.Errorf("save project: %w", err)
	}
	return p.ID, nil
}

// Get loads one project manifest by id.
func (st *Store) Get(ctx context.Context, id string) (domain.Project, error) {
	var manifest []byte
	err := st.db.QueryRowContext(ctx,
		`SELECT manifest FROM projects WHERE id = $1`, id).Scan(&manifest)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, ErrProjectNotFound
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	var p domain.Project
	if err := json.Unmarshal(manifest, &p); err != nil {
		return domain.Project{}, fmt.Errorf("decode project %s: %w", id, err)
	}
	p.ID = id
	return p, nil
}

// List returns summaries of all stored projects, most recent first.
func (st *Store) List(ctx context.Context) ([]ProjectSummary, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT id, name, client_name,
		       COALESCE(jsonb_array_length(manifest->'windows'), 0),
		       updated_at
		FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var list []ProjectSummary
	for rows.Next() {
		var ps ProjectSummary
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.ClientName, &ps.Windows, &ps.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, ps)
	}
	return list, rows.Err()
}

// Delete removes a project; missing ids report ErrProjectNotFound.
func (st *Store) Delete(ctx context.Context, id string) error {
	res, err := st.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// applyMigrations applies embedded SQL migrations in filename order,
// tracking applied versions in schema_migrations.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := migrationVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			version, fname); err != nil {
			return fmt.Errorf("record %s: %w", fname, err)
		}
	}
	return nil
}

func migrationVersion(name string) (int64, error) {
	parts := strings.SplitN(path.Base(name), "_", 2)
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
