/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend serves the dashboard layout over HTTP. Each authenticated user gets one
// layout controller, created on first request and shared by all of that user's requests.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opsdash/internal/catalog"
	"opsdash/internal/grid"
	"opsdash/internal/layout"
	applog "opsdash/internal/log"
	"opsdash/internal/storage"
	"opsdash/internal/undo"
)

// Defaults for the per-user controller cache.
const (
	DefaultMaxControllers = 1024
	DefaultControllerIdle = 30 * time.Minute
)

// Config holds server configuration.
type Config struct {
	Addr       string // http bind address, e.g., ":8080"
	AuthSecret string // HMAC secret for bearer tokens; empty means DevSecret
	// IssuerKey must accompany POST /api/auth/token (IssuerKeyHeader) when AuthSecret is set.
	// Left empty with a real AuthSecret, the server issues no tokens.
	IssuerKey string
	// MaxControllers caps the per-user controllers held in memory; the least recently used
	// is dropped first. ControllerIdle drops a controller nobody touched for that long.
	MaxControllers int
	ControllerIdle time.Duration
	// Notifier, if set, receives every user's layout notices in addition to the metrics counter.
	Notifier layout.Notifier
}

// Server wires the layout store, catalog and per-user controllers to an HTTP router.
type Server struct {
	cfg      Config
	store    *storage.Store
	catalog  *catalog.Catalog
	renderer *grid.Renderer
	history  *undo.Manager
	signer   *signer
	log      *slog.Logger

	mu    sync.Mutex
	ctrls *expirable.LRU[string, *layout.Controller]
}

// NewServer builds a server over store. cat may be nil for the embedded catalog.
func NewServer(cfg Config, store *storage.Store, cat *catalog.Catalog) *Server {
	if cat == nil {
		cat = catalog.Default()
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = DevSecret
	}
	if cfg.MaxControllers <= 0 {
		cfg.MaxControllers = DefaultMaxControllers
	}
	if cfg.ControllerIdle <= 0 {
		cfg.ControllerIdle = DefaultControllerIdle
	}
	r := grid.NewRenderer(grid.SnapGeometry{})
	r.RegisterPlaceholders(cat.All())
	s := &Server{
		cfg:      cfg,
		store:    store,
		catalog:  cat,
		renderer: r,
		history:  undo.NewManager(undo.Config{MaxPerScope: 50}),
		signer:   newSigner(cfg.AuthSecret),
		log:      applog.WithComponent("backend"),
	}
	// Undo history lives in the shared manager, so a user whose controller was dropped
	// gets it back on the next request.
	s.ctrls = expirable.NewLRU[string, *layout.Controller](cfg.MaxControllers, func(user string, _ *layout.Controller) {
		s.log.Debug("controller dropped", slog.String("user", user))
	}, cfg.ControllerIdle)
	return s
}

// Controller returns the user's controller, loading it from the store on first use.
func (s *Server) Controller(ctx context.Context, userID string) *layout.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.ctrls.Get(userID); ok {
		s.ctrls.Add(userID, c) // renews the idle deadline
		return c
	}
	notifier := layout.MultiNotifier{metricsNotifier}
	if s.cfg.Notifier != nil {
		notifier = append(notifier, s.cfg.Notifier)
	}
	c := layout.New(ctx, s.store, s.catalog, userID,
		layout.WithNotifier(notifier),
		layout.WithObserver(metricsObserver),
		layout.WithHistory(s.history),
	)
	s.ctrls.Add(userID, c)
	metricControllers.Set(float64(s.ctrls.Len()))
	return c
}

// Controllers reports how many per-user controllers are held in memory.
func (s *Server) Controllers() int { return s.ctrls.Len() }

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(s.requestLogger)

	router.Get("/healthz", s.handleHealthz)
	router.Get("/readyz", s.handleReadyz)
	router.Get("/version", s.handleVersion)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/token", s.handleIssueToken)
		r.Group(func(r chi.Router) {
			r.Use(authenticate(s.signer))
			r.Get("/catalog", s.handleCatalog)
			r.Route("/layout", func(r chi.Router) {
				r.Get("/", s.handleGetLayout)
				r.Put("/", s.handleSaveLayout)
				r.Post("/widgets", s.handleAddWidget)
				r.Patch("/widgets/{id}", s.handleGesture)
				r.Delete("/widgets/{id}", s.handleRemoveWidget)
				r.Post("/reset", s.handleReset)
				r.Put("/edit-mode", s.handleEditMode)
				r.Post("/undo", s.handleUndo)
				r.Post("/redo", s.handleRedo)
				r.Get("/render", s.handleRender)
			})
		})
	})
	return router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.DebugContext(r.Context(), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)),
			slog.String("req_id", middleware.GetReqID(r.Context())),
		)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// Start opens the configured backend and serves until ctx is cancelled.
func Start(ctx context.Context, cfg Config, opts storage.Options) error {
	if cfg.AuthSecret == "" {
		applog.WithComponent("backend").Warn("no auth secret configured; using insecure dev secret and open token issuance")
	} else if cfg.IssuerKey == "" {
		applog.WithComponent("backend").Warn("no issuer key configured; POST /api/auth/token is disabled")
	}
	b, err := storage.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			applog.WithComponent("backend").Error("storage close", slog.Any("err", err))
		}
	}()
	return NewServer(cfg, storage.NewStore(b), nil).ListenAndServe(ctx)
}
