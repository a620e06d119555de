/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"opsdash/internal/storage"
)

type memTokens map[string]string

func (m memTokens) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memTokens) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memTokens) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

// isolate points config at a temp file and swaps the keyring for a map.
func isolate(t *testing.T) (string, memTokens) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigFile, path)
	tokens := memTokens{}
	prev := SetTokenStore(tokens)
	t.Cleanup(func() { SetTokenStore(prev) })
	return path, tokens
}

func TestEnvOverridesBackendURL(t *testing.T) {
	isolate(t)
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestMergeIncludesServer(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Server.Enable = true
	src.Server.Addr = "127.0.0.1:9000"
	mergeInto(&dst, &src)
	if !dst.Server.Enable || dst.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("server section was not merged from file config: %#v", dst.Server)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/opsdash.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/opsdash.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/var/log/opsdash.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/var/log/opsdash.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
	if env, ok := EnvOverrideFor("logging.level"); !ok || env != EnvLogLevel {
		t.Fatalf("EnvOverrideFor(logging.level) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("storage.dsn"); ok {
		t.Fatalf("storage.dsn is not overridden in this test")
	}
}

func TestSaveLoadRoundTripWithToken(t *testing.T) {
	path, tokens := isolate(t)
	cfg := Defaults()
	cfg.General.UserID = "u-42"
	cfg.Storage.Backend = storage.KindSQLite
	cfg.Storage.Dir = "/srv/opsdash"
	if err := Save(cfg, "tok-123"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("token should be stored in the keyring, got %v", tokens)
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok != "tok-123" {
		t.Fatalf("token = %q", tok)
	}
	if got.General.UserID != "u-42" || got.Storage.Backend != storage.KindSQLite || got.Storage.Dir != "/srv/opsdash" {
		t.Fatalf("round trip lost fields: %#v", got)
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, tok, _ := Load(); tok != "" {
		t.Fatalf("token should be cleared, got %q", tok)
	}
}

func TestAuthSecretNeverPersisted(t *testing.T) {
	path, _ := isolate(t)
	t.Setenv(EnvAuthSecret, "s3cret")
	cfg, _, _ := Load()
	if cfg.Server.AuthSecret != "s3cret" {
		t.Fatalf("auth secret should come from env")
	}
	if err := Save(cfg, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if got := string(data); len(got) == 0 || strings.Contains(got, "s3cret") {
		t.Fatalf("secret leaked into config file:\n%s", got)
	}
}

func TestStorageOptionsAndUser(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Dir = "/data"
	opts, err := cfg.StorageOptions()
	if err != nil {
		t.Fatalf("StorageOptions: %v", err)
	}
	if opts.Kind != storage.KindFile || opts.Dir != "/data" {
		t.Fatalf("unexpected options: %#v", opts)
	}
	cfg.Storage = StorageConfig{Backend: storage.KindPostgres, DSN: "postgres://x"}
	opts, _ = cfg.StorageOptions()
	if opts.Dir != "" || opts.DSN != "postgres://x" {
		t.Fatalf("postgres options should carry only the DSN: %#v", opts)
	}
	if cfg.EffectiveUserID() != storage.AnonymousUser {
		t.Fatalf("empty user should map to anonymous")
	}
	cfg.General.UserID = "  alice "
	if cfg.EffectiveUserID() != "alice" {
		t.Fatalf("user id should be trimmed")
	}
}
