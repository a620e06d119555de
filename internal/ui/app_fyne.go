//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"opsdash/internal/catalog"
	"opsdash/internal/crash"
	"opsdash/internal/domain"
	"opsdash/internal/export"
	"opsdash/internal/grid"
	"opsdash/internal/layout"
	applog "opsdash/internal/log"
	"opsdash/internal/picker"
	"opsdash/internal/undo"
	"opsdash/internal/version"
)

const autoBreakpoint = "auto"

// Run opens the dashboard window for opts.UserID and blocks until it is closed.
func Run(opts Options) error {
	if opts.Store == nil {
		return errors.New("ui: no layout store configured")
	}
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	target := &crash.Target{Dir: opts.DataDir}
	defer crash.Recover(target)

	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	user := opts.UserID
	ctx := applog.ContextWithUser(context.Background(), user)

	fyneApp := app.NewWithID("opsdash")
	w := fyneApp.NewWindow("OpsDash")
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1280), 640)
	winH := max(prefs.IntWithFallback("window.height", 800), 480)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	setStatus := func(msg string) { fyne.Do(func() { status.SetText(msg) }) }

	notifiers := layout.MultiNotifier{layout.NotifierFunc(func(n layout.Notice) {
		setStatus(n.Title + ": " + n.Message)
	})}
	if opts.Notifier != nil {
		notifiers = append(notifiers, opts.Notifier)
	}
	history := undo.NewManager(undo.Config{
		MaxBytes:    8 * 1024 * 1024,
		MaxPerScope: 50,
		MinInterval: 300 * time.Millisecond,
	})
	ctrl := layout.New(ctx, opts.Store, cat, user, layout.WithNotifier(notifiers), layout.WithHistory(history))
	target.Layout = ctrl

	renderer := grid.NewRenderer(grid.SnapGeometry{})
	renderer.RegisterPlaceholders(cat.All())
	pick := picker.New(cat, ctrl)

	gc := NewGridCanvas()
	gc.Category = func(widgetType string) string {
		d, _ := cat.Lookup(widgetType)
		return d.Category
	}

	var (
		width      = float32(winW)
		bpOverride string
		frame      grid.Frame
	)
	countLabel := widget.NewLabel("")
	undoBtn := widget.NewButton("Undo", nil)
	redoBtn := widget.NewButton("Redo", nil)
	removeBtn := widget.NewButton("Remove", nil)
	addBtn := widget.NewButton("Add widget", nil)

	refresh := func() {
		frame = frameForWidth(renderer, ctrl.Layouts(), width, bpOverride)
		gc.SetFrame(frame)
		countLabel.SetText(fmt.Sprintf("%d/%d widgets · %s", ctrl.WidgetCount(), domain.MaxWidgets, frame.Breakpoint.Name))
		setEnabled(undoBtn, ctrl.CanUndo())
		setEnabled(redoBtn, ctrl.CanRedo())
		setEnabled(removeBtn, gc.SelectedID() != "")
		setEnabled(addBtn, !pick.Full())
		if err := ctrl.PersistErr(); err != nil {
			status.SetText("Layout not saved: " + err.Error())
		}
	}

	gc.OnSelect = func(id string) { setEnabled(removeBtn, id != "") }
	gc.OnWidth = func(px float32) {
		width = px
		if bpOverride == "" && domain.BreakpointFor(int(px)).Name != frame.Breakpoint.Name {
			fyne.Do(refresh)
		}
	}
	gc.OnMove = func(id string, x, y int) {
		if err := renderer.Move(ctx, ctrl, frame.Breakpoint.Name, id, x, y); err != nil {
			l.Warn("move failed", slog.String("id", id), slog.Any("err", err))
			status.SetText("Move failed: " + err.Error())
		}
		refresh()
	}
	gc.OnResize = func(id string, cw, ch int) {
		if err := renderer.Resize(ctx, ctrl, frame.Breakpoint.Name, id, cw, ch); err != nil {
			l.Warn("resize failed", slog.String("id", id), slog.Any("err", err))
			status.SetText("Resize failed: " + err.Error())
		}
		refresh()
	}

	editCheck := widget.NewCheck("Edit layout", func(on bool) {
		ctrl.SetEditMode(on)
		gc.SetEditing(on)
		l.Info("toggle edit mode", slog.Bool("enabled", on))
	})

	doUndo := func() {
		if !ctrl.Undo(ctx) {
			status.SetText("Nothing to undo")
		}
		refresh()
	}
	doRedo := func() {
		if !ctrl.Redo(ctx) {
			status.SetText("Nothing to redo")
		}
		refresh()
	}
	undoBtn.OnTapped = doUndo
	redoBtn.OnTapped = doRedo

	removeBtn.OnTapped = func() {
		id := gc.SelectedID()
		if id == "" {
			return
		}
		ctrl.RemoveWidget(ctx, id)
		refresh()
	}

	addBtn.OnTapped = func() {
		showPicker(ctx, w, pick, func(id string, err error) {
			switch {
			case errors.Is(err, picker.ErrPickerFull), errors.Is(err, layout.ErrCapacityExceeded):
				status.SetText(fmt.Sprintf("Widget limit reached (%d)", domain.MaxWidgets))
			case err != nil:
				status.SetText("Add failed: " + err.Error())
			default:
				l.Info("widget added", slog.String("id", id))
			}
			refresh()
		})
	}

	resetBtn := widget.NewButton("Reset", func() {
		dialog.ShowConfirm("Reset layout", "Replace the dashboard with the default widgets?", func(ok bool) {
			if !ok {
				return
			}
			ctrl.ResetToDefaultLayout(ctx)
			refresh()
		}, w)
	})

	exportBtn := widget.NewButton("Export…", func() {
		d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			defer func() { _ = uc.Close() }()
			if err := writeExport(uc, frame); err != nil {
				l.Error("export failed", slog.Any("err", err))
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Exported " + uc.URI().Name())
		}, w)
		d.SetFileName("dashboard.png")
		d.Show()
	})

	bpNames := []string{autoBreakpoint}
	for _, b := range domain.Breakpoints() {
		bpNames = append(bpNames, b.Name)
	}
	bpSelect := widget.NewSelect(bpNames, func(s string) {
		if s == autoBreakpoint {
			bpOverride = ""
		} else {
			bpOverride = s
		}
		refresh()
	})
	bpSelect.SetSelected(autoBreakpoint)

	toolbar := container.NewHBox(editCheck, widget.NewSeparator(), addBtn, removeBtn, resetBtn,
		widget.NewSeparator(), undoBtn, redoBtn, widget.NewSeparator(), exportBtn, bpSelect)
	footer := container.NewBorder(nil, nil, status, countLabel)
	w.SetContent(container.NewBorder(toolbar, footer, nil, nil, container.NewVScroll(gc)))

	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { doUndo() })
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift},
		func(fyne.Shortcut) { doRedo() })

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	refresh()
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

// showPicker opens the widget library as one tab per category filter.
// done receives the new instance id, or the error from selection.
func showPicker(ctx context.Context, w fyne.Window, pick *picker.Picker, done func(string, error)) {
	var d dialog.Dialog
	tabs := container.NewAppTabs()
	for _, tab := range pick.Tabs() {
		box := container.NewVBox()
		for _, g := range pick.Groups(tab) {
			box.Add(widget.NewLabelWithStyle(g.Category, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
			for _, it := range g.Items {
				def := it.Definition
				b := widget.NewButton(def.Title, func() {
					d.Hide()
					done(pick.Select(ctx, def.Type))
				})
				b.Alignment = widget.ButtonAlignLeading
				if it.Disabled {
					b.Disable()
				}
				desc := widget.NewLabel(def.Description)
				desc.Wrapping = fyne.TextWrapWord
				box.Add(container.NewVBox(b, desc))
			}
		}
		if pick.Full() {
			box.Objects = append([]fyne.CanvasObject{widget.NewLabel(fmt.Sprintf("The dashboard holds %d widgets. Remove one to add another.", domain.MaxWidgets))}, box.Objects...)
		}
		tabs.Append(container.NewTabItem(tab, container.NewVScroll(box)))
	}
	d = dialog.NewCustom("Widget library", "Close", tabs, w)
	d.Resize(fyne.NewSize(560, 520))
	d.Show()
}

// writeExport picks the writer from the destination's extension; PNG is the fallback.
func writeExport(uc fyne.URIWriteCloser, f grid.Frame) error {
	opt := export.Options{Title: "OpsDash · " + f.Breakpoint.Name, IncludeGrid: true}
	format, err := export.FormatFromPath(uc.URI().Path())
	if err != nil {
		format = export.FormatPNG
	}
	switch format {
	case export.FormatSVG:
		return export.WriteSVG(uc, f, opt)
	case export.FormatPDF:
		return export.WritePDF(uc, f, opt)
	default:
		return export.WritePNG(uc, f, opt)
	}
}
