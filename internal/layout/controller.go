/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"opsdash/internal/domain"
	applog "opsdash/internal/log"
	"opsdash/internal/undo"
)

// historyGroupGeometry marks snapshots taken before drag/resize saves so a gesture coalesces.
const historyGroupGeometry = "geometry"

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets the collaborator informed of add/remove/reset outcomes.
func WithNotifier(n Notifier) Option { return func(c *Controller) { c.notifier = n } }

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option { return func(c *Controller) { c.observer = o } }

// WithHistory shares an undo manager between controllers; scopes are keyed by user id.
func WithHistory(m *undo.Manager) Option { return func(c *Controller) { c.history = m } }

// WithClock overrides time.Now for history timestamps.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// Controller owns one user's layout set. It is safe for concurrent use; calls are serialized,
// so each operation observes the result of the previous one.
type Controller struct {
	mu      sync.Mutex
	store   Store
	catalog Catalog
	userID  string
	set     domain.LayoutSet

	editMode atomic.Bool
	phase    atomic.Int32

	persistErr error

	notifier Notifier
	observer Observer
	history  *undo.Manager
	now      func() time.Time
	log      *slog.Logger
}

// New loads the user's layout set from store and returns a controller in Viewing/Idle.
func New(ctx context.Context, store Store, cat Catalog, userID string, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		catalog: cat,
		userID:  userID,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.history == nil {
		c.history = undo.NewManager(undo.Config{MaxPerScope: 50})
	}
	c.log = applog.WithComponent("layout").With(slog.String("user", userID))
	c.set = store.Load(ctx, userID)
	if _, ok := c.set[domain.BreakpointLG]; !ok {
		c.set[domain.BreakpointLG] = []domain.LayoutEntry{}
	}
	return c
}

// UserID returns the user whose layout this controller owns.
func (c *Controller) UserID() string { return c.userID }

// SetEditMode toggles edit mode. It does not persist anything.
func (c *Controller) SetEditMode(on bool) {
	if c.editMode.Swap(on) != on {
		c.log.Debug("edit mode changed", slog.Bool("editing", on))
	}
	c.observe(OpEdit, OutcomeOK)
}

// EditMode reports whether the dashboard is in edit mode.
func (c *Controller) EditMode() bool { return c.editMode.Load() }

// State reports both state-machine axes. It does not wait for an in-flight mutation.
func (c *Controller) State() State {
	m := Viewing
	if c.editMode.Load() {
		m = Editing
	}
	return State{Mode: m, Phase: Phase(c.phase.Load())}
}

// AddWidget places a new instance of widgetType in every breakpoint that lacks instanceID and
// still has room, at x=0 below all existing content, then persists.
// At capacity it returns ErrCapacityExceeded and notifies; an unknown type returns
// ErrUnknownWidgetType without notifying. instanceID must parse back to widgetType
// (ErrInvalidInstanceID). When no breakpoint gained an entry, because the id is already
// placed, it returns ErrDuplicateInstance and nothing is written.
func (c *Controller) AddWidget(ctx context.Context, instanceID, widgetType string) error {
	var added domain.WidgetDefinition
	var changed bool
	err := c.mutate(ctx, OpAdd, "", func() (bool, error) {
		if len(c.set[domain.BreakpointLG]) >= domain.MaxWidgets {
			return false, ErrCapacityExceeded
		}
		def, ok := c.catalog.Lookup(widgetType)
		if !ok {
			return false, ErrUnknownWidgetType
		}
		if strings.TrimSpace(instanceID) == "" {
			return false, fmt.Errorf("%w: empty", ErrInvalidInstanceID)
		}
		if got := domain.DeriveWidgetType(instanceID); got != widgetType {
			return false, fmt.Errorf("%w: %q resolves to type %q, not %q", ErrInvalidInstanceID, instanceID, got, widgetType)
		}
		for bp, entries := range c.set {
			if domain.IndexOf(entries, instanceID) >= 0 || len(entries) >= domain.MaxWidgets {
				continue
			}
			c.set[bp] = append(entries, domain.LayoutEntry{
				ID:   instanceID,
				X:    0,
				Y:    domain.Bottom(entries),
				W:    def.DefaultSize.W,
				H:    def.DefaultSize.H,
				MinW: domain.NewEntryMinW,
				MinH: domain.NewEntryMinH,
			})
			changed = true
		}
		if !changed {
			return false, ErrDuplicateInstance
		}
		added = def
		return true, nil
	})
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		c.log.Info("add rejected at capacity", slog.String("type", widgetType), slog.Int("max", domain.MaxWidgets))
		c.notify(capacityNotice(c.userID))
	case err != nil:
		c.log.Warn("add rejected", slog.String("instance", instanceID), slog.String("type", widgetType), slog.Any("err", err))
	default:
		c.notify(addedNotice(c.userID, instanceID, added))
	}
	return err
}

// RemoveWidget deletes instanceID from every breakpoint and persists. Removing an absent id is a no-op
// apart from the write.
func (c *Controller) RemoveWidget(ctx context.Context, instanceID string) {
	var removed bool
	_ = c.mutate(ctx, OpRemove, "", func() (bool, error) {
		for bp, entries := range c.set {
			if i := domain.IndexOf(entries, instanceID); i >= 0 {
				kept := make([]domain.LayoutEntry, 0, len(entries)-1)
				for _, e := range entries {
					if e.ID != instanceID {
						kept = append(kept, e)
					}
				}
				c.set[bp] = kept
				removed = true
			}
		}
		return removed, nil
	})
	if removed {
		c.notify(removedNotice(c.userID, instanceID))
	}
}

// SaveLayout replaces the whole set with a copy of set (typically the geometry collaborator's output
// after a drag or resize), truncating lg to MaxWidgets, and persists.
func (c *Controller) SaveLayout(ctx context.Context, set domain.LayoutSet) {
	next := set.Clone()
	if _, ok := next[domain.BreakpointLG]; !ok {
		next[domain.BreakpointLG] = []domain.LayoutEntry{}
	}
	next[domain.BreakpointLG] = domain.Truncate(next[domain.BreakpointLG], domain.MaxWidgets)
	_ = c.mutate(ctx, OpSave, historyGroupGeometry, func() (bool, error) {
		c.set = next
		return true, nil
	})
}

// ResetToDefaultLayout replaces the set with the default starter layout and persists.
func (c *Controller) ResetToDefaultLayout(ctx context.Context) {
	_ = c.mutate(ctx, OpReset, "", func() (bool, error) {
		c.set = domain.DefaultLayoutSet()
		return true, nil
	})
	c.notify(resetNotice(c.userID))
}

// Undo restores the set that preceded the last change and persists it. It reports false when
// there is nothing to undo.
func (c *Controller) Undo(ctx context.Context) bool {
	return c.travel(ctx, OpUndo, c.history.Undo)
}

// Redo re-applies the last undone change. It reports false when there is nothing to redo.
func (c *Controller) Redo(ctx context.Context) bool {
	return c.travel(ctx, OpRedo, c.history.Redo)
}

// CanUndo reports whether Undo has a step to restore.
func (c *Controller) CanUndo() bool {
	u, _ := c.history.Depth(c.userID)
	return u > 0
}

// CanRedo reports whether Redo has a step to re-apply.
func (c *Controller) CanRedo() bool {
	_, r := c.history.Depth(c.userID)
	return r > 0
}

// Reload re-reads the set from the store, for records changed outside this controller.
// History is kept so a reload can be undone.
func (c *Controller) Reload(ctx context.Context) {
	c.mu.Lock()
	before := c.set.Clone()
	c.set = c.store.Load(ctx, c.userID)
	if _, ok := c.set[domain.BreakpointLG]; !ok {
		c.set[domain.BreakpointLG] = []domain.LayoutEntry{}
	}
	if !reflect.DeepEqual(before, c.set) {
		c.record(before, "")
	}
	c.mu.Unlock()
	c.observe(OpReload, OutcomeOK)
}

// WidgetCount is the number of widgets in the primary breakpoint.
func (c *Controller) WidgetCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.set[domain.BreakpointLG])
}

// CurrentLayout returns a copy of the primary breakpoint's entries.
func (c *Controller) CurrentLayout() []domain.LayoutEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.LayoutEntry{}, c.set[domain.BreakpointLG]...)
}

// Layouts returns a deep copy of every breakpoint's entries.
func (c *Controller) Layouts() domain.LayoutSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set.Clone()
}

// AvailableWidgets passes the catalog through.
func (c *Controller) AvailableWidgets() []domain.WidgetDefinition { return c.catalog.All() }

// PersistErr returns the outcome of the most recent write: nil after a successful save.
func (c *Controller) PersistErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistErr
}

// mutate runs fn under the lock in the Mutating phase. When fn reports a change the prior set is
// recorded in history. Unless fn rejects the call, the set is then persisted; write errors are
// logged and kept for PersistErr, never returned.
func (c *Controller) mutate(ctx context.Context, op, group string, fn func() (bool, error)) error {
	c.mu.Lock()
	c.phase.Store(int32(Mutating))
	defer func() {
		c.phase.Store(int32(Idle))
		c.mu.Unlock()
	}()

	before := c.set.Clone()
	changed, err := fn()
	if err != nil {
		c.observe(op, OutcomeRejected)
		return err
	}
	if changed {
		c.record(before, group)
	}
	c.persistLocked(ctx, op)
	return nil
}

func (c *Controller) travel(ctx context.Context, op string, step func(undo.Snapshot) (undo.Snapshot, bool)) bool {
	c.mu.Lock()
	c.phase.Store(int32(Mutating))
	defer func() {
		c.phase.Store(int32(Idle))
		c.mu.Unlock()
	}()
	cur, err := json.Marshal(c.set)
	if err != nil {
		c.log.Error("encode current layout", slog.Any("err", err))
		return false
	}
	snap, ok := step(undo.Snapshot{Scope: c.userID, Blob: cur, TS: c.now()})
	if !ok {
		return false
	}
	var set domain.LayoutSet
	if err := json.Unmarshal(snap.Blob, &set); err != nil {
		c.log.Error("decode history snapshot", slog.String("op", op), slog.Any("err", err))
		return false
	}
	c.set = set
	c.persistLocked(ctx, op)
	return true
}

func (c *Controller) record(before domain.LayoutSet, group string) {
	blob, err := json.Marshal(before)
	if err != nil {
		c.log.Warn("history snapshot skipped", slog.Any("err", err))
		return
	}
	c.history.Record(undo.Snapshot{Scope: c.userID, Group: group, Blob: blob, TS: c.now()})
}

func (c *Controller) persistLocked(ctx context.Context, op string) {
	l := applog.WithOperation(c.log, op)
	if err := c.store.Save(ctx, c.userID, c.set); err != nil {
		c.persistErr = err
		l.ErrorContext(ctx, "layout not persisted; change kept in memory", slog.Any("err", err))
		c.observe(op, OutcomePersistError)
		return
	}
	c.persistErr = nil
	l.DebugContext(ctx, "layout persisted", slog.Int("widgets", len(c.set[domain.BreakpointLG])))
	c.observe(op, OutcomeOK)
}

func (c *Controller) notify(n Notice) {
	if c.notifier != nil {
		c.notifier.Notify(n)
	}
}

func (c *Controller) observe(op, outcome string) {
	if c.observer != nil {
		c.observer.Observe(op, outcome)
	}
}
