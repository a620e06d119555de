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

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestLayoutEntryWireFormat(t *testing.T) {
	e := LayoutEntry{ID: "dns-queries-1700000000000", X: 0, Y: 8, W: 4, H: 4}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"i":"dns-queries-1700000000000"`) {
		t.Fatalf("instance id must serialize under \"i\": %s", s)
	}
	if strings.Contains(s, "minW") || strings.Contains(s, "minH") {
		t.Fatalf("zero min sizes should be omitted: %s", s)
	}
}

func TestDefaultLayoutIsACopy(t *testing.T) {
	a := DefaultLayout()
	if len(a) != 5 {
		t.Fatalf("expected 5 starter entries, got %d", len(a))
	}
	a[0].ID = "mutated"
	b := DefaultLayout()
	if b[0].ID != "security-overview-default" {
		t.Fatalf("DefaultLayout leaked shared state: %q", b[0].ID)
	}
	for _, e := range b {
		if !strings.HasSuffix(e.ID, "-default") {
			t.Fatalf("starter id %q should end in -default", e.ID)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := DefaultLayoutSet()
	c := s.Clone()
	c[BreakpointLG][0].X = 99
	c[BreakpointMD] = []LayoutEntry{{ID: "x"}}
	if s[BreakpointLG][0].X == 99 {
		t.Fatalf("clone shares entry storage")
	}
	if _, ok := s[BreakpointMD]; ok {
		t.Fatalf("clone shares map")
	}
	if got := LayoutSet(nil).Clone(); got == nil {
		t.Fatalf("nil clone should be non-nil")
	}
}

func TestBottomAndTruncate(t *testing.T) {
	if Bottom(nil) != 0 {
		t.Fatalf("empty bottom should be 0")
	}
	if got := Bottom(DefaultLayout()); got != 8 {
		t.Fatalf("default layout bottom = %d, want 8", got)
	}
	entries := make([]LayoutEntry, 15)
	for i := range entries {
		entries[i].ID = string(rune('a' + i))
	}
	got := Truncate(entries, MaxWidgets)
	if len(got) != MaxWidgets || got[0].ID != "a" || got[11].ID != "l" {
		t.Fatalf("truncate should keep earliest entries: %+v", got)
	}
	if len(Truncate(entries[:3], MaxWidgets)) != 3 {
		t.Fatalf("short lists must pass through")
	}
}

func TestBreakpointFor(t *testing.T) {
	cases := map[int]string{
		1920: BreakpointLG,
		1200: BreakpointLG,
		1199: BreakpointMD,
		800:  BreakpointSM,
		480:  BreakpointXS,
		320:  BreakpointXXS,
		0:    BreakpointXXS,
	}
	for w, want := range cases {
		if got := BreakpointFor(w).Name; got != want {
			t.Fatalf("BreakpointFor(%d) = %s, want %s", w, got, want)
		}
	}
	if b, ok := LookupBreakpoint(BreakpointXS); !ok || b.Cols != 2 {
		t.Fatalf("xs lookup: %+v %v", b, ok)
	}
	if _, ok := LookupBreakpoint("xl"); ok {
		t.Fatalf("unknown breakpoint should not resolve")
	}
}
