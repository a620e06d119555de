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
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// exerciseBackend runs the shared Backend contract.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()
	_, err := b.Get(ctx, "dashboard-layout-x")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Put(ctx, "dashboard-layout-x", []byte(`{"lg":[]}`)))
	got, err := b.Get(ctx, "dashboard-layout-x")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lg":[]}`, string(got))

	require.NoError(t, b.Put(ctx, "dashboard-layout-x", []byte(`{"lg":[{"i":"a-default","x":0,"y":0,"w":1,"h":1}]}`)))
	got, err = b.Get(ctx, "dashboard-layout-x")
	require.NoError(t, err)
	assert.Contains(t, string(got), "a-default")

	require.NoError(t, b.Delete(ctx, "dashboard-layout-x"))
	_, err = b.Get(ctx, "dashboard-layout-x")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, b.Delete(ctx, "dashboard-layout-x"), "delete is idempotent")

	if p, ok := b.(Pinger); ok {
		require.NoError(t, p.Ping(ctx))
	}
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestFileBackend(t *testing.T) {
	fb, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	exerciseBackend(t, fb)
}

func TestFileBackendEscapesKeys(t *testing.T) {
	dir := t.TempDir()
	fb, err := NewFileBackend(dir)
	require.NoError(t, err)
	p := fb.PathFor("dashboard-layout-../../etc/passwd")
	assert.Equal(t, dir, filepath.Dir(p))

	require.NoError(t, fb.Put(context.Background(), "dashboard-layout-a/b", []byte(`{"lg":[]}`)))
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, ents, 1, "temp files must not be left behind")
}

func TestFileBackendRequiresDir(t *testing.T) {
	_, err := NewFileBackend("  ")
	require.Error(t, err)
}

func TestFileBackendWatch(t *testing.T) {
	fb, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- fb.Watch(ctx, "dashboard-layout-w", func() { changed <- struct{}{} })
	}()
	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, fb.Put(context.Background(), "dashboard-layout-other", []byte(`{"lg":[]}`)))
	require.NoError(t, fb.Put(context.Background(), "dashboard-layout-w", []byte(`{"lg":[]}`)))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatalf("no change notification for watched key")
	}
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatalf("watch did not stop on cancel")
	}
}

func TestSQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	sb, err := OpenSQLite(context.Background(), dir)
	require.NoError(t, err)
	defer func() { _ = sb.Close() }()
	exerciseBackend(t, sb)

	v, err := sb.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, v)

	_, err = os.Stat(SQLitePath(dir))
	require.NoError(t, err)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	sb, err := OpenSQLite(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, sb.Put(ctx, "k", []byte(`{"lg":[]}`)))
	require.NoError(t, sb.Close())

	sb2, err := OpenSQLite(ctx, dir)
	require.NoError(t, err)
	defer func() { _ = sb2.Close() }()
	got, err := sb2.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lg":[]}`, string(got))
}

func TestStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, Options{Kind: KindSQLite, Dir: t.TempDir()})
	require.NoError(t, err)
	defer func() { _ = b.Close() }()
	s := NewStore(b)
	set, err := s.Reset(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, set, s.Load(ctx, "carol"))
}

func openPGForTest(t *testing.T) *PostgresBackend {
	t.Helper()
	dsn := os.Getenv("OPSDASH_PG_DSN")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		t.Skip("OPSDASH_PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("cannot open postgres: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Skipf("postgres not available: %v", err)
	}
	_ = db.Close()
	pb, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	return pb
}

func TestPostgresBackend(t *testing.T) {
	pb := openPGForTest(t)
	defer func() { _ = pb.Close() }()
	exerciseBackend(t, pb)
	// Re-applying migrations is a no-op.
	require.NoError(t, applyMigrations(context.Background(), pb.db))
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("0002_layouts_updated_idx.sql")
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
	_, err = parseVersion("nounderscore.sql")
	require.Error(t, err)
	_, err = parseVersion("abc_x.sql")
	require.Error(t, err)
}
