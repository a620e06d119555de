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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"opsdash/internal/domain"
	"opsdash/internal/grid"
	"opsdash/internal/layout"
	applog "opsdash/internal/log"
	"opsdash/internal/picker"
	"opsdash/internal/storage"
	"opsdash/internal/version"
)

const maxBody = 1 << 20

// LayoutView is the GET /api/layout response.
type LayoutView struct {
	User         string           `json:"user"`
	Layouts      domain.LayoutSet `json:"layouts"`
	Count        int              `json:"count"`
	Max          int              `json:"max"`
	EditMode     bool             `json:"edit_mode"`
	CanUndo      bool             `json:"can_undo"`
	CanRedo      bool             `json:"can_redo"`
	PersistError string           `json:"persist_error,omitempty"`
}

// CatalogItem is one picker row.
type CatalogItem struct {
	domain.WidgetDefinition
	Disabled bool `json:"disabled"`
}

// CatalogGroup is one picker category.
type CatalogGroup struct {
	Category string        `json:"category"`
	Items    []CatalogItem `json:"items"`
}

// CatalogView is the GET /api/catalog response.
type CatalogView struct {
	Tabs   []string       `json:"tabs"`
	Full   bool           `json:"full"`
	Groups []CatalogGroup `json:"groups"`
}

func (s *Server) ctrl(r *http.Request) *layout.Controller {
	user := applog.UserFromContext(r.Context())
	if user == "" {
		user = storage.AnonymousUser
	}
	return s.Controller(r.Context(), user)
}

func viewOf(c *layout.Controller) LayoutView {
	v := LayoutView{
		User:     c.UserID(),
		Layouts:  c.Layouts(),
		Count:    c.WidgetCount(),
		Max:      domain.MaxWidgets,
		EditMode: c.EditMode(),
		CanUndo:  c.CanUndo(),
		CanRedo:  c.CanRedo(),
	}
	if err := c.PersistErr(); err != nil {
		v.PersistError = err.Error()
	}
	return v
}

func decodeBody(r *http.Request, dst any) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	_ = r.Body.Close()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.store.Backend().(storage.Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("storage not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(version.String()))
}

// POST /api/auth/token { "subject": "name", "ttl_seconds": 3600 } → { token, expires_at }
// Needs IssuerKeyHeader unless the server runs on DevSecret.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if !issuerAllowed(r, s.cfg.AuthSecret, s.cfg.IssuerKey) {
		s.log.WarnContext(r.Context(), "token issuance refused", slog.String("remote", r.RemoteAddr))
		respondError(w, http.StatusForbidden, errIssuerDenied)
		return
	}
	var req struct {
		Subject    string `json:"subject"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	b, _ := io.ReadAll(io.LimitReader(r.Body, maxBody))
	_ = r.Body.Close()
	_ = json.Unmarshal(b, &req)
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		req.Subject = storage.AnonymousUser
	}
	if req.TTLSeconds <= 0 || req.TTLSeconds > 24*3600 {
		req.TTLSeconds = 3600
	}
	tok, exp, err := s.signer.issue(req.Subject, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"token":      tok,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	p := picker.New(s.catalog, s.ctrl(r))
	view := CatalogView{Tabs: p.Tabs(), Full: p.Full(), Groups: []CatalogGroup{}}
	for _, g := range p.Groups(r.URL.Query().Get("category")) {
		cg := CatalogGroup{Category: g.Category}
		for _, it := range g.Items {
			cg.Items = append(cg.Items, CatalogItem{WidgetDefinition: it.Definition, Disabled: it.Disabled})
		}
		view.Groups = append(view.Groups, cg)
	}
	respond(w, http.StatusOK, view)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, viewOf(s.ctrl(r)))
}

// PUT /api/layout replaces the whole set. The body must match the persisted record schema.
func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	_ = r.Body.Close()
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	set, err := storage.Decode(b)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	c := s.ctrl(r)
	s.renderer.Apply(r.Context(), c, set)
	respond(w, http.StatusOK, viewOf(c))
}

// POST /api/layout/widgets { "type": "...", "id": "optional" }
func (s *Server) handleAddWidget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	c := s.ctrl(r)
	id := strings.TrimSpace(req.ID)
	var err error
	if id == "" {
		id, err = picker.New(s.catalog, c).Select(r.Context(), req.Type)
	} else {
		err = c.AddWidget(r.Context(), id, req.Type)
	}
	switch {
	case errors.Is(err, layout.ErrCapacityExceeded), errors.Is(err, picker.ErrPickerFull):
		respondError(w, http.StatusConflict, layout.ErrCapacityExceeded)
		return
	case errors.Is(err, layout.ErrDuplicateInstance):
		respondError(w, http.StatusConflict, err)
		return
	case errors.Is(err, layout.ErrUnknownWidgetType):
		respondError(w, http.StatusUnprocessableEntity, err)
		return
	case errors.Is(err, layout.ErrInvalidInstanceID):
		respondError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"id": id, "layout": viewOf(c)})
}

// PATCH /api/layout/widgets/{id} { "bp": "md", "x": 0, "y": 0 } or { "bp": "md", "w": 4, "h": 4 }
func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BP string `json:"bp"`
		X  *int   `json:"x"`
		Y  *int   `json:"y"`
		W  *int   `json:"w"`
		H  *int   `json:"h"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.BP == "" {
		req.BP = domain.BreakpointLG
	}
	id := chi.URLParam(r, "id")
	c := s.ctrl(r)
	var err error
	switch {
	case req.X != nil && req.Y != nil:
		err = s.renderer.Move(r.Context(), c, req.BP, id, *req.X, *req.Y)
		if err == nil && req.W != nil && req.H != nil {
			err = s.renderer.Resize(r.Context(), c, req.BP, id, *req.W, *req.H)
		}
	case req.W != nil && req.H != nil:
		err = s.renderer.Resize(r.Context(), c, req.BP, id, *req.W, *req.H)
	default:
		err = errors.New("need x and y, or w and h")
	}
	switch {
	case errors.Is(err, grid.ErrNoSuchEntry):
		respondError(w, http.StatusNotFound, err)
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respond(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleRemoveWidget(w http.ResponseWriter, r *http.Request) {
	s.ctrl(r).RemoveWidget(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	c := s.ctrl(r)
	c.ResetToDefaultLayout(r.Context())
	respond(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleEditMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Editing bool `json:"editing"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	c := s.ctrl(r)
	c.SetEditMode(req.Editing)
	respond(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	c := s.ctrl(r)
	if !c.Undo(r.Context()) {
		respondError(w, http.StatusConflict, errors.New("nothing to undo"))
		return
	}
	respond(w, http.StatusOK, viewOf(c))
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	c := s.ctrl(r)
	if !c.Redo(r.Context()) {
		respondError(w, http.StatusConflict, errors.New("nothing to redo"))
		return
	}
	respond(w, http.StatusOK, viewOf(c))
}

// GET /api/layout/render?bp=md or ?width=1024 → text/plain projection
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bp := q.Get("bp")
	if bp == "" {
		bp = domain.BreakpointLG
		if v := q.Get("width"); v != "" {
			px, err := strconv.Atoi(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, fmt.Errorf("invalid width %q", v))
				return
			}
			bp = domain.BreakpointFor(px).Name
		}
	}
	frame := s.renderer.Project(s.ctrl(r).Layouts(), bp)
	if len(frame.Orphans) > 0 {
		s.log.WarnContext(r.Context(), "render skipped widgets", slog.Int("orphans", len(frame.Orphans)))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, grid.RenderText(frame, grid.TextOptions{Legend: q.Get("legend") != ""}))
}
