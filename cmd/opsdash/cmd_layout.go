/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"opsdash/internal/domain"
	"opsdash/internal/grid"
	"opsdash/internal/layout"
	"opsdash/internal/picker"
	"opsdash/internal/storage"
)

func newShowCmd(a *app) *cobra.Command {
	var bp string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render the dashboard layout in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShow(cmd, a, bp, asJSON)
		},
	}
	cmd.Flags().StringVar(&bp, "bp", domain.BreakpointLG, "breakpoint to render (lg, md, sm, xs, xxs)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored layout record instead of a drawing")
	return cmd
}

func runShow(cmd *cobra.Command, a *app, bp string, asJSON bool) error {
	ctrl, err := a.controller(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		data, err := storage.Encode(ctrl.Layouts())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	return printFrame(out, a, ctrl, bp)
}

func printFrame(out io.Writer, a *app, ctrl *layout.Controller, bp string) error {
	if bp == "" {
		bp = domain.BreakpointLG
	}
	if _, ok := domain.LookupBreakpoint(bp); !ok {
		return usageError{fmt.Errorf("unknown breakpoint %q", bp)}
	}
	r := grid.NewRenderer(grid.SnapGeometry{})
	r.RegisterPlaceholders(a.catalog.All())
	frame := r.Project(ctrl.Layouts(), bp)
	fmt.Fprintln(out, summary(ctrl.UserID(), ctrl.Layouts(), frame.Breakpoint.Name))
	fmt.Fprintln(out, grid.RenderText(frame, grid.TextOptions{Legend: true}))
	return nil
}

func newCatalogCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"library"},
		Short:   "List the widgets that can be added",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.controller(cmd)
			if err != nil {
				return err
			}
			p := picker.New(a.catalog, ctrl)
			out := cmd.OutOrStdout()
			if p.Full() {
				fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Dashboard is full (%d widgets). Remove one to add another.", domain.MaxWidgets)))
			}
			groups := p.Groups(category)
			if len(groups) == 0 {
				return usageError{fmt.Errorf("no widgets in category %q (tabs: %v)", category, p.Tabs())}
			}
			for _, g := range groups {
				fmt.Fprintln(out, categoryStyle.Render(g.Category))
				for _, it := range g.Items {
					d := it.Definition
					fmt.Fprintf(out, "  %-22s %s %s\n", d.Type, d.Title, mutedStyle.Render(fmt.Sprintf("(%dx%d) %s", d.DefaultSize.W, d.DefaultSize.H, d.Description)))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", picker.TabAll, "filter by category")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "add <widget-type>",
		Short: "Add a widget from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if id != "" {
				err = ctrl.AddWidget(ctx, id, args[0])
			} else {
				id, err = picker.New(a.catalog, ctrl).Select(ctx, args[0])
			}
			switch {
			case errors.Is(err, picker.ErrPickerFull), errors.Is(err, layout.ErrCapacityExceeded):
				return fmt.Errorf("cannot add %s: %w", args[0], layout.ErrCapacityExceeded)
			case errors.Is(err, layout.ErrUnknownWidgetType):
				return usageError{fmt.Errorf("%w: %s (see 'opsdash catalog')", err, args[0])}
			case errors.Is(err, layout.ErrInvalidInstanceID), errors.Is(err, layout.ErrDuplicateInstance):
				return usageError{err}
			case err != nil:
				return err
			}
			a.log.Info("widget added", "id", id)
			return persisted(ctrl)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "instance id to use instead of <type>-<unix millis>")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <instance-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a widget instance from every breakpoint",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(cmd)
			if err != nil {
				return err
			}
			if !ctrl.Layouts().Has(domain.BreakpointLG, args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no widget "+args[0]+" on the dashboard"))
			}
			ctrl.RemoveWidget(cmd.Context(), args[0])
			return persisted(ctrl)
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the layout with the default starter widgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.controller(cmd)
			if err != nil {
				return err
			}
			ctrl.ResetToDefaultLayout(cmd.Context())
			return persisted(ctrl)
		},
	}
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <layout.json|->",
		Short: "Replace the layout with a layout record read from a file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			set, err := storage.Decode(data)
			if err != nil {
				return usageError{fmt.Errorf("invalid layout record: %w", err)}
			}
			ctrl, err := a.controller(cmd)
			if err != nil {
				return err
			}
			ctrl.SaveLayout(cmd.Context(), set)
			if err := persisted(ctrl); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Saved %d widgets", ctrl.WidgetCount())))
			return nil
		},
	}
}

// encodeIndent is used by commands printing JSON views.
func encodeIndent(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
