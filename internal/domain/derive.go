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

import "strings"

// DeriveWidgetType recovers the catalog type from a widget instance id.
//
// Starter ids end in "-default" and dynamically added ids end in "-<unix millis>"; for both
// the type is every segment before the suffix. Any other id maps to its first segment.
//
//	security-overview-default         -> security-overview
//	zone-storage-usage-1699999999999  -> zone-storage-usage
//	dns-custom                        -> dns
func DeriveWidgetType(instanceID string) string {
	parts := strings.Split(instanceID, "-")
	if len(parts) < 2 {
		return instanceID
	}
	last := parts[len(parts)-1]
	if last == "default" || isDigits(last) {
		return strings.Join(parts[:len(parts)-1], "-")
	}
	return parts[0]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
