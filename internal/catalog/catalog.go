/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package catalog is the fixed registry of widget types that can be placed on the dashboard.
// The registry is embedded at build time and never mutated at runtime.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"opsdash/internal/domain"
)

//go:embed widgets.yaml
var widgetsYAML []byte

// Catalog is a read-only list of widget definitions.
type Catalog struct {
	defs []domain.WidgetDefinition
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded YAML is invalid,
// which can only happen through a broken build.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(widgetsYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded widgets.yaml: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// Parse builds a catalog from YAML. Types must be unique and non-empty and sizes positive.
func Parse(data []byte) (*Catalog, error) {
	var defs []domain.WidgetDefinition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		if strings.TrimSpace(d.Type) == "" {
			return nil, fmt.Errorf("entry %d: type is required", i)
		}
		if _, dup := seen[d.Type]; dup {
			return nil, fmt.Errorf("entry %d: duplicate type %q", i, d.Type)
		}
		seen[d.Type] = struct{}{}
		if d.DefaultSize.W < 1 || d.DefaultSize.H < 1 {
			return nil, fmt.Errorf("entry %d (%s): default size must be positive", i, d.Type)
		}
		if d.ID == "" {
			defs[i].ID = d.Type
		}
	}
	return &Catalog{defs: defs}, nil
}

// New wraps an explicit definition list. Used by tests and embedders with their own registry.
func New(defs []domain.WidgetDefinition) *Catalog {
	return &Catalog{defs: append([]domain.WidgetDefinition(nil), defs...)}
}

// Lookup finds the definition for a widget type.
func (c *Catalog) Lookup(widgetType string) (domain.WidgetDefinition, bool) {
	for _, d := range c.defs {
		if d.Type == widgetType {
			return d, true
		}
	}
	return domain.WidgetDefinition{}, false
}

// All returns a copy of every definition in catalog order.
func (c *Catalog) All() []domain.WidgetDefinition {
	return append([]domain.WidgetDefinition(nil), c.defs...)
}

// Categories lists category names in first-appearance order.
func (c *Catalog) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, d := range c.defs {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	return out
}

// ByCategory returns the definitions of one category in catalog order.
func (c *Catalog) ByCategory(category string) []domain.WidgetDefinition {
	var out []domain.WidgetDefinition
	for _, d := range c.defs {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}
