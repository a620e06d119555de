/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"opsdash/internal/domain"
	applog "opsdash/internal/log"
)

// KeyPrefix prefixes every storage key; the user id (or "anonymous") follows.
const KeyPrefix = "dashboard-layout-"

// AnonymousUser is the user id used when none is supplied.
const AnonymousUser = "anonymous"

// DefaultOpTimeout bounds every backend call made by a Store.
const DefaultOpTimeout = 5 * time.Second

//go:embed layout.schema.json
var layoutSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func layoutSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(layoutSchemaJSON))
	})
	return schema, schemaErr
}

// ErrSchema wraps schema violations reported by Validate.
var ErrSchema = errors.New("layout record does not match schema")

// Validate checks a serialized record against the embedded layout schema.
func Validate(data []byte) error {
	s, err := layoutSchema()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
	}
	return nil
}

// StorageKey derives the record key for a user.
func StorageKey(userID string) string {
	if strings.TrimSpace(userID) == "" {
		userID = AnonymousUser
	}
	return KeyPrefix + userID
}

// Store loads and saves layout records for users over a Backend.
type Store struct {
	backend Backend
	timeout time.Duration
}

// NewStore wraps b. The store does not own b; callers close it.
func NewStore(b Backend) *Store {
	return &Store{backend: b, timeout: DefaultOpTimeout}
}

// Backend exposes the underlying key/value backend.
func (s *Store) Backend() Backend { return s.backend }

// Load returns the user's layout set. It never fails: any problem reading or decoding the
// record is logged and the default layout is returned instead. An oversized lg list is
// truncated to the first MaxWidgets entries.
func (s *Store) Load(ctx context.Context, userID string) domain.LayoutSet {
	key := StorageKey(userID)
	l := applog.WithOperation(applog.WithComponent("storage"), "load").With(slog.String("key", key))
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.WarnContext(ctx, "read failed; using default layout", slog.Any("err", err))
		}
		return domain.DefaultLayoutSet()
	}
	set, err := Decode(data)
	if err != nil {
		l.WarnContext(ctx, "stored layout is corrupt; using default layout", slog.Any("err", err))
		return domain.DefaultLayoutSet()
	}
	if n := len(set[domain.BreakpointLG]); n > domain.MaxWidgets {
		l.WarnContext(ctx, "stored layout over capacity; truncating", slog.Int("count", n))
		set[domain.BreakpointLG] = domain.Truncate(set[domain.BreakpointLG], domain.MaxWidgets)
	}
	return set
}

// Save truncates lg to MaxWidgets, serializes and writes the set. The caller's set is not modified.
// A set that Load would reject (negative position, zero size, empty id) is not written and the
// error wraps ErrSchema, so the stored record is never one that reads back as the default layout.
func (s *Store) Save(ctx context.Context, userID string, set domain.LayoutSet) error {
	key := StorageKey(userID)
	l := applog.WithOperation(applog.WithComponent("storage"), "save").With(slog.String("key", key))
	data, err := Encode(set)
	if err != nil {
		l.ErrorContext(ctx, "encode failed", slog.Any("err", err))
		return err
	}
	if err := Validate(data); err != nil {
		l.ErrorContext(ctx, "refusing to write invalid layout", slog.Any("err", err))
		return fmt.Errorf("save %s: %w", key, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.backend.Put(ctx, key, data); err != nil {
		l.ErrorContext(ctx, "write failed", slog.Any("err", err))
		return fmt.Errorf("save %s: %w", key, err)
	}
	l.DebugContext(ctx, "saved", slog.Int("bytes", len(data)))
	return nil
}

// Reset writes and returns the default layout set.
func (s *Store) Reset(ctx context.Context, userID string) (domain.LayoutSet, error) {
	set := domain.DefaultLayoutSet()
	return set, s.Save(ctx, userID, set)
}

// Encode serializes a set in the persisted record format. lg is always present and
// truncated to MaxWidgets.
func Encode(set domain.LayoutSet) ([]byte, error) {
	out := set.Clone()
	out[domain.BreakpointLG] = domain.Truncate(out[domain.BreakpointLG], domain.MaxWidgets)
	for bp, entries := range out {
		// Empty lists must serialize as [] so the record stays schema-valid.
		if entries == nil {
			out[bp] = []domain.LayoutEntry{}
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode validates and parses a persisted record.
func Decode(data []byte) (domain.LayoutSet, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var set domain.LayoutSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return set, nil
}
