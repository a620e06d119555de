/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package grid projects a layout set onto a display surface. It resolves each entry's widget type
// from its instance id, looks up the content slot registered for that type, and turns drag/resize
// gestures computed by a Geometry into SaveLayout calls on the controller.
package grid

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"opsdash/internal/domain"
	applog "opsdash/internal/log"
)

// Slot renders the content of one widget instance into a w x h character box.
// Content panels live outside this package and own their own data.
type Slot interface {
	Render(instanceID string, w, h int) string
}

// SlotFunc adapts a function to Slot.
type SlotFunc func(instanceID string, w, h int) string

func (f SlotFunc) Render(instanceID string, w, h int) string { return f(instanceID, w, h) }

// Tile is one displayable entry.
type Tile struct {
	Entry domain.LayoutEntry
	Type  string
	Slot  Slot
}

// Frame is the display-ready projection of one breakpoint.
type Frame struct {
	Breakpoint   domain.Breakpoint
	Tiles        []Tile
	Orphans      []string // ids whose type has no slot; hidden but left in storage
	OverCapacity bool
}

// Rows is the number of grid rows the frame occupies.
func (f Frame) Rows() int {
	entries := make([]domain.LayoutEntry, 0, len(f.Tiles))
	for _, t := range f.Tiles {
		entries = append(entries, t.Entry)
	}
	return domain.Bottom(entries)
}

// LayoutSaver is the part of the controller the renderer drives.
type LayoutSaver interface {
	Layouts() domain.LayoutSet
	SaveLayout(ctx context.Context, set domain.LayoutSet)
}

// Renderer holds the slot registry and the geometry collaborator.
type Renderer struct {
	mu    sync.RWMutex
	slots map[string]Slot
	geom  Geometry
}

// NewRenderer returns a renderer using geom; nil means SnapGeometry.
func NewRenderer(geom Geometry) *Renderer {
	if geom == nil {
		geom = SnapGeometry{}
	}
	return &Renderer{slots: map[string]Slot{}, geom: geom}
}

// Register binds a widget type to its content slot, replacing any previous binding.
func (r *Renderer) Register(widgetType string, s Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[widgetType] = s
}

// Registered reports whether widgetType has a slot.
func (r *Renderer) Registered(widgetType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.slots[widgetType]
	return ok
}

// RegisterPlaceholders binds a title/description slot to every definition that has no slot yet.
func (r *Renderer) RegisterPlaceholders(defs []domain.WidgetDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range defs {
		if _, ok := r.slots[d.Type]; ok {
			continue
		}
		def := d
		r.slots[d.Type] = SlotFunc(func(string, int, int) string { return def.Title + "\n" + def.Description })
	}
}

// Project builds the frame for breakpoint bp. A breakpoint absent from set falls back to lg.
// Entries without a slot are reported as orphans and skipped; over-capacity input only warns.
func (r *Renderer) Project(set domain.LayoutSet, bp string) Frame {
	l := applog.WithOperation(applog.WithComponent("grid"), "project").With(slog.String("bp", bp))
	b, ok := domain.LookupBreakpoint(bp)
	if !ok {
		b, _ = domain.LookupBreakpoint(domain.BreakpointLG)
	}
	entries, ok := set[b.Name]
	if !ok {
		entries = set[domain.BreakpointLG]
	}
	f := Frame{Breakpoint: b, Tiles: make([]Tile, 0, len(entries))}
	if len(entries) > domain.MaxWidgets {
		f.OverCapacity = true
		l.Warn("layout exceeds widget limit", slog.Int("count", len(entries)), slog.Int("max", domain.MaxWidgets))
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range entries {
		typ := domain.DeriveWidgetType(e.ID)
		s, ok := r.slots[typ]
		if !ok {
			l.Warn("no slot for widget type; skipping", slog.String("instance", e.ID), slog.String("type", typ))
			f.Orphans = append(f.Orphans, e.ID)
			continue
		}
		f.Tiles = append(f.Tiles, Tile{Entry: e, Type: typ, Slot: s})
	}
	return f
}

// Move applies a drag gesture in breakpoint bp and saves the result through ctrl.
func (r *Renderer) Move(ctx context.Context, ctrl LayoutSaver, bp, id string, x, y int) error {
	return r.gesture(ctx, ctrl, bp, func(entries []domain.LayoutEntry, cols int) ([]domain.LayoutEntry, error) {
		return r.geom.Move(entries, id, x, y, cols)
	})
}

// Resize applies a resize gesture in breakpoint bp and saves the result through ctrl.
func (r *Renderer) Resize(ctx context.Context, ctrl LayoutSaver, bp, id string, w, h int) error {
	return r.gesture(ctx, ctrl, bp, func(entries []domain.LayoutEntry, cols int) ([]domain.LayoutEntry, error) {
		return r.geom.Resize(entries, id, w, h, cols)
	})
}

// Apply hands a set recomputed elsewhere (for example by a browser grid library) to the controller.
func (r *Renderer) Apply(ctx context.Context, ctrl LayoutSaver, set domain.LayoutSet) {
	ctrl.SaveLayout(ctx, set)
}

func (r *Renderer) gesture(ctx context.Context, ctrl LayoutSaver, bp string, fn func([]domain.LayoutEntry, int) ([]domain.LayoutEntry, error)) error {
	b, ok := domain.LookupBreakpoint(bp)
	if !ok {
		return fmt.Errorf("unknown breakpoint %q", bp)
	}
	set := ctrl.Layouts()
	entries, ok := set[b.Name]
	if !ok {
		// First gesture on a breakpoint seeds it from lg.
		entries = set[domain.BreakpointLG]
	}
	next, err := fn(entries, b.Cols)
	if err != nil {
		return err
	}
	set[b.Name] = next
	r.Apply(ctx, ctrl, set)
	return nil
}
