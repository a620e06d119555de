/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command opsdash manages a user's dashboard widget layout from the terminal, serves it over
// HTTP, or opens the desktop dashboard (build with -tags fyne).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"opsdash/internal/catalog"
	"opsdash/internal/config"
	"opsdash/internal/crash"
	"opsdash/internal/layout"
	applog "opsdash/internal/log"
	"opsdash/internal/storage"
	"opsdash/internal/telemetry"
	"opsdash/internal/version"
)

// app carries what every subcommand needs: resolved config and, once opened, the store.
type app struct {
	cfg   config.AppConfig
	token string

	// flag overrides
	user    string
	backend string
	dir     string
	dsn     string

	crash   crash.Target
	backing storage.Backend
	store   *storage.Store
	catalog *catalog.Catalog
	log     *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "opsdash",
		Short:         "Arrange the widgets on your operations dashboard",
		Long:          "opsdash keeps a per-user grid of dashboard widgets: add and remove widgets from the library, reset to the starter layout, render it in the terminal, export it, or serve it over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, a, "", false)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.user, "user", "u", "", "dashboard user (default from config, else anonymous)")
	pf.StringVar(&a.backend, "storage", "", "storage backend: file, sqlite, postgres or memory")
	pf.StringVar(&a.dir, "data-dir", "", "directory for file and sqlite storage")
	pf.StringVar(&a.dsn, "dsn", "", "postgres connection string")

	root.AddCommand(
		newShowCmd(a),
		newCatalogCmd(a),
		newAddCmd(a),
		newRemoveCmd(a),
		newResetCmd(a),
		newSaveCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newRemoteCmd(a),
		newUICmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, tok, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.user != "" {
		cfg.General.UserID = a.user
	}
	if a.backend != "" {
		cfg.Storage.Backend = a.backend
	}
	if a.dir != "" {
		cfg.Storage.Dir = a.dir
	}
	if a.dsn != "" {
		cfg.Storage.DSN = a.dsn
	}
	a.cfg, a.token = cfg, tok

	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Output:    cmd.ErrOrStderr(),
	})
	a.log = applog.WithComponent("cli")
	tcfg := telemetry.FromEnv()
	tcfg.OptIn = tcfg.OptIn || cfg.General.TelemetryOptIn
	telemetry.NewDefault(tcfg)

	a.catalog = catalog.Default()
	if dir, err := cfg.Storage.DataDir(); err == nil {
		a.crash.Dir = dir
	}
	a.log.Debug("start", slog.String("cmd", cmd.Name()), slog.String("user", cfg.EffectiveUserID()))
	return nil
}

// openStore opens the configured backend once per invocation.
func (a *app) openStore(ctx context.Context) (*storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	opts, err := a.cfg.StorageOptions()
	if err != nil {
		return nil, err
	}
	b, err := storage.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.backing = b
	a.store = storage.NewStore(b)
	return a.store, nil
}

// controller loads the user's layout and prints notices to out.
func (a *app) controller(cmd *cobra.Command) (*layout.Controller, error) {
	ctx := cmd.Context()
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	user := a.cfg.EffectiveUserID()
	ctx = applog.ContextWithUser(ctx, user)
	cmd.SetContext(ctx)
	ctrl := layout.New(ctx, store, a.catalog, user, layout.WithNotifier(layout.MultiNotifier{
		consoleNotifier(cmd.OutOrStdout()),
		telemetry.Default().Notifier(),
	}))
	a.crash.Layout = ctrl
	return ctrl, nil
}

func (a *app) close() error {
	if telemetry.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		telemetry.Default().Flush(ctx)
		cancel()
	}
	if a.backing == nil {
		return nil
	}
	err := a.backing.Close()
	a.backing, a.store = nil, nil
	return err
}

// persisted turns a swallowed write failure into a command error.
func persisted(ctrl *layout.Controller) error {
	if err := ctrl.PersistErr(); err != nil {
		return fmt.Errorf("layout changed in memory but was not saved: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		// no config or storage needed
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "opsdash %s\n", version.String())
		},
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	a := &app{}
	// a.crash is filled in once the subcommand has opened a controller.
	defer crash.Recover(&a.crash)
	root := newRootCmd(a)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
	var usage usageError
	if errors.As(err, &usage) {
		return 2
	}
	return 1
}

// usageError marks bad invocations; they exit with status 2.
type usageError struct{ error }

func (u usageError) Unwrap() error { return u.error }
