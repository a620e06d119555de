/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerScope: 10, MinInterval: 10 * time.Millisecond})
	sc := "alice"
	t0 := time.Now()
	m.Record(Snapshot{Scope: sc, Blob: []byte("a"), TS: t0})
	m.Record(Snapshot{Scope: sc, Blob: []byte("b"), TS: t0.Add(20 * time.Millisecond)})
	if _, scopes, total := m.Stats(); scopes != 1 || total != 2 {
		t.Fatalf("expected 1 scope and 2 snapshots, got scopes=%d total=%d", scopes, total)
	}
	s, ok := m.Undo(Snapshot{Scope: sc, Blob: []byte("c"), TS: t0.Add(time.Second)})
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("undo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	s, ok = m.Redo(Snapshot{Scope: sc, Blob: []byte("b"), TS: t0.Add(2 * time.Second)})
	if !ok || string(s.Blob) != "c" {
		t.Fatalf("redo expected 'c', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if u, r := m.Depth(sc); u != 2 || r != 0 {
		t.Fatalf("depth after redo: undo=%d redo=%d", u, r)
	}
}

func TestUndoEmpty(t *testing.T) {
	m := NewManager(Config{})
	if _, ok := m.Undo(Snapshot{Scope: "x"}); ok {
		t.Fatalf("undo on empty stack should report false")
	}
	if _, ok := m.Redo(Snapshot{Scope: "x"}); ok {
		t.Fatalf("redo on empty stack should report false")
	}
}

func TestRecordClearsRedo(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Record(Snapshot{Scope: "s", Blob: []byte("1"), TS: t0})
	if _, ok := m.Undo(Snapshot{Scope: "s", Blob: []byte("2"), TS: t0.Add(time.Second)}); !ok {
		t.Fatalf("undo failed")
	}
	m.Record(Snapshot{Scope: "s", Blob: []byte("1"), TS: t0.Add(2 * time.Second)})
	if _, r := m.Depth("s"); r != 0 {
		t.Fatalf("new change should clear redo, got %d", r)
	}
}

func TestCoalesceKeepsEarliest(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerScope: 10, MinInterval: 50 * time.Millisecond})
	sc := "bob"
	t0 := time.Now()
	m.Record(Snapshot{Scope: sc, Group: "geometry", Blob: []byte("1"), TS: t0})
	m.Record(Snapshot{Scope: sc, Group: "geometry", Blob: []byte("2"), TS: t0.Add(30 * time.Millisecond)})
	// Still inside the window measured from the previous record.
	m.Record(Snapshot{Scope: sc, Group: "geometry", Blob: []byte("3"), TS: t0.Add(60 * time.Millisecond)})
	_, _, total := m.Stats()
	if total != 1 {
		t.Fatalf("expected coalesced to 1 snapshot, got %d", total)
	}
	s, ok := m.Undo(Snapshot{Scope: sc, Blob: []byte("4"), TS: t0.Add(time.Second)})
	if !ok || string(s.Blob) != "1" {
		t.Fatalf("expected pre-burst snapshot '1', got ok=%v blob=%q", ok, string(s.Blob))
	}
}

func TestNoCoalesceAcrossGroups(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Second})
	t0 := time.Now()
	m.Record(Snapshot{Scope: "s", Blob: []byte("1"), TS: t0})
	m.Record(Snapshot{Scope: "s", Blob: []byte("2"), TS: t0.Add(time.Millisecond)})
	m.Record(Snapshot{Scope: "s", Group: "geometry", Blob: []byte("3"), TS: t0.Add(2 * time.Millisecond)})
	if u, _ := m.Depth("s"); u != 3 {
		t.Fatalf("ungrouped snapshots must never coalesce, depth=%d", u)
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 20, MaxPerScope: 2, MinInterval: 1 * time.Millisecond})
	sc := "carol"
	for i := 0; i < 10; i++ {
		m.Record(Snapshot{Scope: sc, Blob: []byte("xxxxx"), TS: time.Now().Add(time.Duration(i) * time.Millisecond)})
	}
	_, _, total := m.Stats()
	if total > 2 {
		t.Fatalf("expected MaxPerScope cap to limit to 2, got %d", total)
	}
}
