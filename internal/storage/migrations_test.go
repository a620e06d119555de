/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// TestMigrations_UpgradeV1ToV2 ensures that an older DB (schema=1) is migrated to schemaVersion and keeps its rows.
func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	dir := t.TempDir()
	path := SQLitePath(dir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	now := time.Now().UTC().Format(time.RFC3339)
	for _, q := range []string{
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`CREATE TABLE layouts (storage_key TEXT PRIMARY KEY, payload TEXT NOT NULL, updated_at TEXT NOT NULL);`,
	} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("create v1 schema: %v", err)
		}
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO version VALUES(1, 1, 'old', ?, ?)`, now, now); err != nil {
		t.Fatalf("insert version: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO layouts VALUES('dashboard-layout-alice', '{"lg":[]}', ?)`, now); err != nil {
		t.Fatalf("insert row: %v", err)
	}
	_ = db.Close()

	b, err := OpenSQLite(ctx, dir)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer b.Close()
	v, err := b.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != schemaVersion {
		t.Fatalf("schema = %d, want %d", v, schemaVersion)
	}
	var name string
	if err := b.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='index' AND name='idx_layouts_updated'`).Scan(&name); err != nil {
		t.Fatalf("index missing after migration: %v", err)
	}
	got, err := b.Get(ctx, "dashboard-layout-alice")
	if err != nil || string(got) != `{"lg":[]}` {
		t.Fatalf("row lost in migration: %q %v", got, err)
	}
}
