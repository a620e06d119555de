/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model of the dashboard widget grid.
// Everything here serializes to the persisted layout record, so JSON tags
// follow the wire format consumed by the browser grid ("i" for the instance id).

const (
	// MaxWidgets is the ceiling on simultaneously placed widgets in the primary breakpoint.
	MaxWidgets = 12
	// NewEntryMinW and NewEntryMinH are the minimum sizes stamped on newly added entries.
	NewEntryMinW = 3
	NewEntryMinH = 4
)

// LayoutEntry is one widget instance's position and size, in grid units, for one breakpoint.
type LayoutEntry struct {
	ID   string `json:"i"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
	MinW int    `json:"minW,omitempty"`
	MinH int    `json:"minH,omitempty"`
}

// LayoutSet maps a breakpoint name to its ordered entry list.
// Order is insertion order and carries no meaning for placement.
type LayoutSet map[string][]LayoutEntry

// Size is a width/height pair in grid units.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// WidgetDefinition is an immutable catalog record.
type WidgetDefinition struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon" yaml:"icon"`
	Type        string `json:"type" yaml:"type"`
	DefaultSize Size   `json:"defaultSize" yaml:"defaultSize"`
	Category    string `json:"category" yaml:"category"`
}

// defaultLayout holds the five starter widgets. It is never handed out directly;
// DefaultLayout returns a copy so callers cannot mutate the reset target.
var defaultLayout = []LayoutEntry{
	{ID: "security-overview-default", X: 0, Y: 0, W: 6, H: 4, MinW: NewEntryMinW, MinH: NewEntryMinH},
	{ID: "network-status-default", X: 6, Y: 0, W: 6, H: 4, MinW: NewEntryMinW, MinH: NewEntryMinH},
	{ID: "system-health-default", X: 0, Y: 4, W: 4, H: 4, MinW: NewEntryMinW, MinH: NewEntryMinH},
	{ID: "recent-alerts-default", X: 4, Y: 4, W: 4, H: 4, MinW: NewEntryMinW, MinH: NewEntryMinH},
	{ID: "quick-actions-default", X: 8, Y: 4, W: 4, H: 4, MinW: NewEntryMinW, MinH: NewEntryMinH},
}

// DefaultLayout returns a fresh copy of the canonical starter entries.
func DefaultLayout() []LayoutEntry {
	return append([]LayoutEntry(nil), defaultLayout...)
}

// DefaultLayoutSet returns the canonical reset target: the starter entries under lg only.
func DefaultLayoutSet() LayoutSet {
	return LayoutSet{BreakpointLG: DefaultLayout()}
}

// Clone returns a deep copy. A nil set clones to an empty, non-nil set.
func (s LayoutSet) Clone() LayoutSet {
	out := make(LayoutSet, len(s))
	for bp, entries := range s {
		out[bp] = append([]LayoutEntry{}, entries...)
	}
	return out
}

// Count returns the number of entries in the primary breakpoint.
func (s LayoutSet) Count() int { return len(s[BreakpointLG]) }

// Has reports whether id is placed in breakpoint bp.
func (s LayoutSet) Has(bp, id string) bool {
	return IndexOf(s[bp], id) >= 0
}

// IndexOf returns the position of id within entries or -1.
func IndexOf(entries []LayoutEntry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Bottom returns the first free row below all entries: max(y+h), or 0 when empty.
func Bottom(entries []LayoutEntry) int {
	bottom := 0
	for _, e := range entries {
		if e.Y+e.H > bottom {
			bottom = e.Y + e.H
		}
	}
	return bottom
}

// Truncate keeps the first n entries; earliest entries win.
func Truncate(entries []LayoutEntry, n int) []LayoutEntry {
	if n < 0 {
		n = 0
	}
	if len(entries) <= n {
		return entries
	}
	return append([]LayoutEntry(nil), entries[:n]...)
}
