/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/domain"
)

func TestDefaultCatalogCoversStarterLayout(t *testing.T) {
	c := Default()
	require.GreaterOrEqual(t, len(c.All()), 12)
	for _, e := range domain.DefaultLayout() {
		typ := strings.TrimSuffix(e.ID, "-default")
		d, ok := c.Lookup(typ)
		require.Truef(t, ok, "starter type %q missing from catalog", typ)
		assert.Equal(t, typ, d.ID)
	}
	_, ok := c.Lookup("zone-storage-usage")
	assert.True(t, ok)
	_, ok = c.Lookup("nope")
	assert.False(t, ok)
}

func TestCategoriesFirstAppearanceOrder(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"security", "network", "operations", "storage", "identity"}, c.Categories())
	sec := c.ByCategory("security")
	require.NotEmpty(t, sec)
	assert.Equal(t, "security-overview", sec[0].Type)
	for _, d := range sec {
		assert.Equal(t, "security", d.Category)
	}
	assert.Empty(t, c.ByCategory("unknown"))
}

func TestAllReturnsCopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Title = "changed"
	d, _ := c.Lookup(all[0].Type)
	assert.NotEqual(t, "changed", d.Title)
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := Parse([]byte("- type: a\n  defaultSize: {w: 1, h: 1}\n- type: a\n  defaultSize: {w: 1, h: 1}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = Parse([]byte("- type: a\n  defaultSize: {w: 0, h: 1}\n"))
	require.Error(t, err)

	_, err = Parse([]byte("- title: missing type\n"))
	require.Error(t, err)

	c, err := Parse([]byte("- type: solo\n  category: misc\n  defaultSize: {w: 2, h: 3}\n"))
	require.NoError(t, err)
	d, ok := c.Lookup("solo")
	require.True(t, ok)
	assert.Equal(t, "solo", d.ID)
	assert.Equal(t, domain.Size{W: 2, H: 3}, d.DefaultSize)
}
