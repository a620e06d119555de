/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus a last-chance autosave
// of the user's dashboard layout.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"opsdash/internal/domain"
	applog "opsdash/internal/log"
	"opsdash/internal/storage"
	"opsdash/internal/telemetry"
	"opsdash/internal/version"
)

// DirName is the sub-directory of Target.Dir that receives reports and autosaves.
const DirName = "crash"

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// LayoutSource hands out the in-memory layout. *layout.Controller satisfies it.
type LayoutSource interface {
	UserID() string
	Layouts() domain.LayoutSet
}

// Target tells Recover where to write and what to save. Both fields are optional.
type Target struct {
	Dir    string
	Layout LayoutSource
}

// Recover captures a panic, logs an error with stacktrace,
// writes an error report file, and attempts an autosave
// of the current layout (if a source is provided).
//
// Usage: defer crash.Recover(t)
func Recover(t *Target) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(t, r, stack)
		if t != nil && t.Layout != nil {
			if path, err := AutosaveLayout(t); err != nil {
				l.Error("layout autosave failed", slog.Any("err", err))
			} else {
				l.Info("layout autosave written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

func outputDir(t *Target) string {
	if t == nil || t.Dir == "" {
		return os.TempDir()
	}
	dir := filepath.Join(t.Dir, DirName)
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

// AutosaveLayout writes the source's layout, encoded like the persisted record,
// to <dir>/crash/<storage key>.autosave.json via a temp file and rename.
func AutosaveLayout(t *Target) (string, error) {
	if t == nil || t.Layout == nil {
		return "", fmt.Errorf("no layout to autosave")
	}
	data, err := storage.Encode(t.Layout.Layouts())
	if err != nil {
		return "", fmt.Errorf("encode layout: %w", err)
	}
	path := filepath.Join(outputDir(t), storage.StorageKey(t.Layout.UserID())+".autosave.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}

func writeReport(t *Target, panicVal any, stack []byte) (string, error) {
	dir := outputDir(t)
	stamp := time.Now().Format("20060102-150405")
	fname := fmt.Sprintf("crash-%s.log", stamp)
	path := filepath.Join(dir, fname)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "OpsDash Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if t != nil && t.Layout != nil {
		set := t.Layout.Layouts()
		_, _ = fmt.Fprintf(&buf, "Widgets: %d\n", set.Count())
		_, _ = fmt.Fprintf(&buf, "Breakpoints: %d\n", len(set))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	// write to file
	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	// the report carries no user id; upload is opt-in via env
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
