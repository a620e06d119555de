/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"opsdash/internal/backend"
	"opsdash/internal/config"
	"opsdash/internal/domain"
	"opsdash/internal/export"
	"opsdash/internal/grid"
	"opsdash/internal/storage"
	"opsdash/internal/telemetry"
	"opsdash/internal/ui"
)

func newExportCmd(a *app) *cobra.Command {
	var bp, title string
	var guides bool
	cmd := &cobra.Command{
		Use:   "export <file.png|file.svg|file.pdf>",
		Short: "Write the layout of one breakpoint as an image or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := export.FormatFromPath(args[0]); err != nil {
				return usageError{err}
			}
			if _, ok := domain.LookupBreakpoint(bp); !ok {
				return usageError{fmt.Errorf("unknown breakpoint %q", bp)}
			}
			ctrl, err := a.controller(cmd)
			if err != nil {
				return err
			}
			r := grid.NewRenderer(grid.SnapGeometry{})
			r.RegisterPlaceholders(a.catalog.All())
			frame := r.Project(ctrl.Layouts(), bp)
			path, _ := filepath.Abs(args[0])
			if err := export.ExportFile(path, frame, export.Options{Title: title, IncludeGrid: guides}); err != nil {
				return err
			}
			a.log.Info("exported layout", slog.String("path", path), slog.Int("tiles", len(frame.Tiles)))
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Wrote "+path))
			return nil
		},
	}
	cmd.Flags().StringVar(&bp, "bp", domain.BreakpointLG, "breakpoint to export")
	cmd.Flags().StringVar(&title, "title", "", "heading drawn above the grid")
	cmd.Flags().BoolVar(&guides, "grid", true, "draw column guides")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var bp string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Redraw the layout whenever its record changes on disk",
		Long:  "watch follows the file backend's record for the current user and redraws after every write, including edits made by another opsdash process or by hand.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.controller(cmd)
			if err != nil {
				return err
			}
			fb, ok := a.backing.(*storage.FileBackend)
			if !ok {
				return usageError{errors.New("watch needs the file storage backend")}
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if err := printFrame(out, a, ctrl, bp); err != nil {
				return err
			}
			return fb.Watch(ctx, storage.StorageKey(ctrl.UserID()), func() {
				ctrl.Reload(ctx)
				_ = printFrame(out, a, ctrl, bp)
			})
		},
	}
	cmd.Flags().StringVar(&bp, "bp", domain.BreakpointLG, "breakpoint to render")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			opts, err := a.cfg.StorageOptions()
			if err != nil {
				return err
			}
			return backend.Start(cmd.Context(), backend.Config{
				Addr:       a.cfg.Server.Addr,
				AuthSecret: a.cfg.Server.AuthSecret,
				IssuerKey:  a.cfg.Server.IssuerKey,
				Notifier:   telemetry.Default().Notifier(),
			}, opts)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the desktop dashboard (requires a -tags fyne build)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			return ui.Run(ui.Options{
				Store:    store,
				Catalog:  a.catalog,
				UserID:   a.cfg.EffectiveUserID(),
				DataDir:  a.crash.Dir,
				Notifier: telemetry.Default().Notifier(),
			})
		},
	}
}

func newRemoteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Work with a layout served by 'opsdash serve'",
	}
	client := func() *backend.Client {
		return backend.NewClient(a.cfg.Backend.BaseURL, a.token, a.cfg.Backend.Timeout())
	}

	var ttl time.Duration
	login := &cobra.Command{
		Use:   "login",
		Short: "Obtain a bearer token for the current user and keep it in the OS keyring (" + config.EnvIssuerKey + " must match the server's)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client()
			c.IssuerKey = a.cfg.Server.IssuerKey
			tok, err := c.IssueToken(cmd.Context(), a.cfg.EffectiveUserID(), ttl)
			if err != nil {
				return err
			}
			if err := config.Save(a.cfg, tok); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Logged in as "+a.cfg.EffectiveUserID()))
			return nil
		},
	}
	login.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored bearer token",
		Args:  cobra.NoArgs,
		RunE:  func(*cobra.Command, []string) error { return config.ClearToken() },
	}

	var bp string
	show := &cobra.Command{
		Use:   "show",
		Short: "Render the remote layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := client().Render(cmd.Context(), bp)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	show.Flags().StringVar(&bp, "bp", domain.BreakpointLG, "breakpoint to render")

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the remote layout as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := client().Layout(cmd.Context())
			if err != nil {
				return err
			}
			return encodeIndent(cmd.OutOrStdout(), v)
		},
	}

	add := &cobra.Command{
		Use:   "add <widget-type>",
		Short: "Add a widget to the remote layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := client().AddWidget(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Added "+id))
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <instance-id>",
		Short: "Remove a widget from the remote layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().RemoveWidget(cmd.Context(), args[0])
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Reset the remote layout to the default widgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := client().Reset(cmd.Context())
			return err
		},
	}

	cmd.AddCommand(login, logout, show, get, add, remove, reset)
	return cmd
}
