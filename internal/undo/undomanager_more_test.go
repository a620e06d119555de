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

func TestClearAndStats(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MaxPerScope: 10, MinInterval: time.Millisecond})
	sc := "dave"
	m.Record(Snapshot{Scope: sc, Blob: []byte("abcdef"), TS: time.Now()})
	tb, scopes, total := m.Stats()
	if tb == 0 || scopes != 1 || total != 1 {
		t.Fatalf("unexpected stats before clear: tb=%d scopes=%d total=%d", tb, scopes, total)
	}
	m.Clear(sc)
	tb2, scopes2, total2 := m.Stats()
	if tb2 != 0 || scopes2 != 0 || total2 != 0 {
		t.Fatalf("expected cleared stats to be zero, got tb=%d scopes=%d total=%d", tb2, scopes2, total2)
	}
}

func TestGlobalPruneAcrossScopes(t *testing.T) {
	// Very small MaxBytes so pruning triggers across scopes
	m := NewManager(Config{MaxBytes: 8, MaxPerScope: 0, MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Record(Snapshot{Scope: "one", Blob: []byte("xxxx"), TS: t0})
	m.Record(Snapshot{Scope: "two", Blob: []byte("yyyy"), TS: t0.Add(time.Second)})

	// Exceed the cap and force prune of the oldest snapshot
	m.Record(Snapshot{Scope: "two", Blob: []byte("zzzz"), TS: t0.Add(2 * time.Second)})

	_, scopes, total := m.Stats()
	if scopes == 0 || total == 0 {
		t.Fatalf("expected some snapshots to remain")
	}
	if _, ok := m.Undo(Snapshot{Scope: "one"}); ok {
		t.Fatalf("expected scope one to have been pruned")
	}
	if _, ok := m.Undo(Snapshot{Scope: "two"}); !ok {
		t.Fatalf("expected scope two to have snapshots")
	}
}
