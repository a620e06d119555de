/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package grid

import (
	"errors"

	"opsdash/internal/domain"
)

// ErrNoSuchEntry is returned when a gesture targets an id that is not placed in the breakpoint.
var ErrNoSuchEntry = errors.New("no such layout entry")

// Geometry computes the entry list that results from a drag or resize gesture.
// Implementations must not mutate the input slice.
type Geometry interface {
	Move(entries []domain.LayoutEntry, id string, x, y, cols int) ([]domain.LayoutEntry, error)
	Resize(entries []domain.LayoutEntry, id string, w, h, cols int) ([]domain.LayoutEntry, error)
}

// SnapGeometry clamps the target entry to the grid's columns and its minimum size.
// It does not resolve overlaps or compact the grid.
type SnapGeometry struct{}

func (SnapGeometry) Move(entries []domain.LayoutEntry, id string, x, y, cols int) ([]domain.LayoutEntry, error) {
	out := append([]domain.LayoutEntry(nil), entries...)
	i := domain.IndexOf(out, id)
	if i < 0 {
		return nil, ErrNoSuchEntry
	}
	e := &out[i]
	e.X, e.Y = x, y
	clampEntry(e, cols)
	return out, nil
}

func (SnapGeometry) Resize(entries []domain.LayoutEntry, id string, w, h, cols int) ([]domain.LayoutEntry, error) {
	out := append([]domain.LayoutEntry(nil), entries...)
	i := domain.IndexOf(out, id)
	if i < 0 {
		return nil, ErrNoSuchEntry
	}
	e := &out[i]
	e.W, e.H = w, h
	clampEntry(e, cols)
	return out, nil
}

// clampEntry enforces minimum sizes, then the column count (which wins on narrow breakpoints),
// then keeps the entry inside the grid.
func clampEntry(e *domain.LayoutEntry, cols int) {
	if cols < 1 {
		cols = 1
	}
	e.W = max(e.W, e.MinW, 1)
	e.H = max(e.H, e.MinH, 1)
	if e.W > cols {
		e.W = cols
	}
	e.X = min(max(e.X, 0), cols-e.W)
	e.Y = max(e.Y, 0)
}
