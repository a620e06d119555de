/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import "testing"

func TestDeriveWidgetType(t *testing.T) {
	cases := map[string]string{
		"security-overview-default":        "security-overview",
		"network-status-default":           "network-status",
		"zone-storage-usage-1699999999999": "zone-storage-usage",
		"dns-queries-1700000000000":        "dns-queries",
		"firewall-custom":                  "firewall",
		"weird-thing-abc":                  "weird",
		"solo":                             "solo",
		"":                                 "",
		"default":                          "default",
		"x-12ab":                           "x",
	}
	for in, want := range cases {
		if got := DeriveWidgetType(in); got != want {
			t.Fatalf("DeriveWidgetType(%q) = %q, want %q", in, got, want)
		}
	}
}
