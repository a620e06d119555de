/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package layout holds the per-user dashboard layout controller: the single mediator through which
// every add, remove, save, reset and edit-mode change flows. It enforces the widget capacity and
// cross-breakpoint invariants and persists after every mutation.
package layout

import (
	"context"
	"errors"

	"opsdash/internal/domain"
)

// Rejections returned by AddWidget. Persistence failures are never returned; see Controller.PersistErr.
var (
	ErrCapacityExceeded  = errors.New("widget limit reached")
	ErrUnknownWidgetType = errors.New("unknown widget type")
	ErrInvalidInstanceID = errors.New("invalid instance id")
	ErrDuplicateInstance = errors.New("instance id already placed")
)

// Store persists layout sets per user. *storage.Store satisfies it.
type Store interface {
	Load(ctx context.Context, userID string) domain.LayoutSet
	Save(ctx context.Context, userID string, set domain.LayoutSet) error
}

// Catalog resolves widget types. *catalog.Catalog satisfies it.
type Catalog interface {
	Lookup(widgetType string) (domain.WidgetDefinition, bool)
	All() []domain.WidgetDefinition
}

// Observer receives one call per controller operation, for metrics.
// Outcome is "ok", "rejected" or "persist_error". Observe may run while the controller is
// locked and must not call back into it.
type Observer interface {
	Observe(op, outcome string)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(op, outcome string)

func (f ObserverFunc) Observe(op, outcome string) { f(op, outcome) }

// Operation names reported to observers and logs.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpSave   = "save"
	OpReset  = "reset"
	OpUndo   = "undo"
	OpRedo   = "redo"
	OpReload = "reload"
	OpEdit   = "edit_mode"
)

const (
	OutcomeOK           = "ok"
	OutcomeRejected     = "rejected"
	OutcomePersistError = "persist_error"
)
