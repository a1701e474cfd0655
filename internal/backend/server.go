/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend is the HTTP API for the sash window calculation and
// export pipeline. Every route is stateless: a request carries the full
// window configuration, the server derives dimensions, builds the scene
// and serializes it, then registers the produced file for download.
// Project persistence against Postgres is optional and only mounted
// when a database is configured.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	applog "sashcad/internal/log"
	"sashcad/internal/version"
)

// Config holds server configuration.
type Config struct {
	Addr           string // http bind address, e.g. ":8080"
	DBURL          string // optional Postgres DSN; empty disables the project store
	AuthSecret     string // HMAC secret for bearer tokens on the project store
	OutputDir      string // where export files are written before download
	AllowedOrigins []string
	RatePerMinute  int // per-client request budget, 0 means the default 120
}

// ConfigFromEnv reads server configuration from the environment.
func ConfigFromEnv() Config {
	cfg := Config{
		Addr:           ":8080",
		DBURL:          os.Getenv("DATABASE_URL"),
		AuthSecret:     os.Getenv("SCD_AUTH_SECRET"),
		OutputDir:      os.Getenv("SCD_OUTPUT_DIR"),
		AllowedOrigins: []string{"*"},
		RatePerMinute:  120,
	}
	if v := os.Getenv("SCD_PG_DSN"); v != "" {
		cfg.DBURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("SCD_CORS_ORIGINS"); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}
	return cfg
}

// Server carries the shared state behind the router.
type Server struct {
	cfg      Config
	log      *slog.Logger
	store    *Store // nil when no database is configured
	registry *fileRegistry
	hub      *jobHub
}

// NewServer wires the server. The Postgres store is attached only when
// cfg.DBURL is set; everything else works without it.
func NewServer(cfg Config) (*Server, error) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = os.TempDir()
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 120
	}
	logger := applog.WithComponent("backend")
	s := &Server{
		cfg:      cfg,
		log:      logger,
		registry: newFileRegistry(),
		hub:      newJobHub(logger),
	}
	if cfg.DBURL != "" {
		store, err := OpenStore(context.Background(), cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("open project store: %w", err)
		}
		s.store = store
	}
	return s, nil
}

// Close releases the store connection, if any.
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Router assembles the chi router with the full middleware stack.
// Order matters: request id first so logging and rate limiting see it.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.log))
	r.Use(recoverer(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(rateLimiter(s.cfg.RatePerMinute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/calculate", s.handleCalculate)
		r.Post("/export/{format}", s.handleExport)
		r.Post("/export/bundle", s.handleExportBundle)
		r.Post("/preview", s.handlePreview)
		r.Get("/exports/{id}", s.handleDownload)
		r.Get("/ws/jobs", s.hub.handleWS)

		if s.store != nil {
			secret := s.cfg.AuthSecret
			if secret == "" {
				secret = "dev-secret-change-me"
				s.log.Warn("SCD_AUTH_SECRET not set; using insecure dev secret")
			}
			r.Post("/auth/token", handleToken(secret))
			r.Route("/projects", func(r chi.Router) {
				r.Use(bearerAuth(secret))
				r.Get("/", s.handleListProjects)
				r.Post("/", s.handleSaveProject)
				r.Get("/{id}", s.handleGetProject)
				r.Delete("/{id}", s.handleDeleteProject)
			})
		}
	})
	return r
}

// Start runs the HTTP server until the context is canceled.
func Start(ctx context.Context, cfg Config) error {
	s, err := NewServer(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			s.log.Error("store close", slog.Any("err", cerr))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("listening", slog.String("addr", cfg.Addr), slog.String("version", version.String()))

	// Expired export files are swept hourly so the output directory
	// does not accumulate downloads nobody will fetch.
	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.registry.sweep(24 * time.Hour); n > 0 {
					s.log.Info("swept expired exports", slog.Int("count", n))
				}
			}
		}
	}()

	select {
	case <-ctx.Done():
		s.hub.closeAll()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok", "version": version.String()}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["store"] = err.Error()
			render.Status(r, http.StatusServiceUnavailable)
		} else {
			status["store"] = "ok"
		}
	}
	render.JSON(w, r, status)
}
