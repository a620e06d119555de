/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package picker is the widget library listing: catalog entries grouped by category behind
// filter tabs, and selection that mints an instance id and adds the widget.
package picker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"opsdash/internal/domain"
	"opsdash/internal/layout"
)

// mintAttempts bounds how many consecutive milliseconds Select tries when a minted id is taken.
const mintAttempts = 64

// TabAll is the filter tab that shows every category.
const TabAll = "all"

// ErrPickerFull is returned by Select while the dashboard is at capacity. The controller is not called.
var ErrPickerFull = errors.New("dashboard is full")

// Catalog is the read side of the widget registry.
type Catalog interface {
	All() []domain.WidgetDefinition
	Categories() []string
}

// Adder is the part of the layout controller the picker drives.
type Adder interface {
	WidgetCount() int
	AddWidget(ctx context.Context, instanceID, widgetType string) error
}

// Item is one selectable catalog entry.
type Item struct {
	Definition domain.WidgetDefinition
	Disabled   bool
}

// Group is one category's items.
type Group struct {
	Category string
	Items    []Item
}

// Picker holds no state of its own beyond its collaborators and clock.
type Picker struct {
	catalog Catalog
	ctrl    Adder
	now     func() time.Time
}

// Option configures a Picker.
type Option func(*Picker)

// WithClock overrides the clock used for instance ids.
func WithClock(now func() time.Time) Option { return func(p *Picker) { p.now = now } }

func New(cat Catalog, ctrl Adder, opts ...Option) *Picker {
	p := &Picker{catalog: cat, ctrl: ctrl, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Tabs lists the filter tabs: "all" followed by the catalog's categories.
func (p *Picker) Tabs() []string {
	return append([]string{TabAll}, p.catalog.Categories()...)
}

// Full reports whether selection is currently disabled.
func (p *Picker) Full() bool { return p.ctrl.WidgetCount() >= domain.MaxWidgets }

// Groups returns the listing for filter, grouped by category in catalog order.
// An unknown filter yields no groups.
func (p *Picker) Groups(filter string) []Group {
	if filter == "" {
		filter = TabAll
	}
	disabled := p.Full()
	var groups []Group
	index := map[string]int{}
	for _, d := range p.catalog.All() {
		if filter != TabAll && d.Category != filter {
			continue
		}
		i, ok := index[d.Category]
		if !ok {
			i = len(groups)
			index[d.Category] = i
			groups = append(groups, Group{Category: d.Category})
		}
		groups[i].Items = append(groups[i].Items, Item{Definition: d, Disabled: disabled})
	}
	return groups
}

// InstanceID mints the id for a new instance of widgetType: "<type>-<unix millis>".
func (p *Picker) InstanceID(widgetType string) string {
	return instanceID(widgetType, p.now().UnixMilli())
}

func instanceID(widgetType string, ms int64) string {
	return widgetType + "-" + strconv.FormatInt(ms, 10)
}

// Select adds a new instance of widgetType and returns its id. Two selections within one
// millisecond would mint the same id; the later one moves to the next free millisecond.
func (p *Picker) Select(ctx context.Context, widgetType string) (string, error) {
	if p.Full() {
		return "", ErrPickerFull
	}
	ms := p.now().UnixMilli()
	for i := int64(0); i < mintAttempts; i++ {
		id := instanceID(widgetType, ms+i)
		err := p.ctrl.AddWidget(ctx, id, widgetType)
		if errors.Is(err, layout.ErrDuplicateInstance) {
			continue
		}
		if err != nil {
			return "", err
		}
		return id, nil
	}
	return "", fmt.Errorf("no free instance id for %s after %d attempts: %w", widgetType, mintAttempts, layout.ErrDuplicateInstance)
}
