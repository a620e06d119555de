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

// Breakpoint names as used in the persisted record.
const (
	BreakpointLG  = "lg"
	BreakpointMD  = "md"
	BreakpointSM  = "sm"
	BreakpointXS  = "xs"
	BreakpointXXS = "xxs"
)

// Breakpoint is a named viewport-width threshold with its column count.
type Breakpoint struct {
	Name       string
	MinWidthPx int
	Cols       int
}

// breakpoints is ordered from widest to narrowest.
var breakpoints = []Breakpoint{
	{Name: BreakpointLG, MinWidthPx: 1200, Cols: 12},
	{Name: BreakpointMD, MinWidthPx: 996, Cols: 12},
	{Name: BreakpointSM, MinWidthPx: 768, Cols: 12},
	{Name: BreakpointXS, MinWidthPx: 480, Cols: 2},
	{Name: BreakpointXXS, MinWidthPx: 0, Cols: 2},
}

// Breakpoints returns the fixed breakpoint table, widest first.
func Breakpoints() []Breakpoint {
	return append([]Breakpoint(nil), breakpoints...)
}

// LookupBreakpoint finds a breakpoint by name.
func LookupBreakpoint(name string) (Breakpoint, bool) {
	for _, b := range breakpoints {
		if b.Name == name {
			return b, true
		}
	}
	return Breakpoint{}, false
}

// BreakpointFor picks the widest breakpoint whose threshold fits widthPx.
func BreakpointFor(widthPx int) Breakpoint {
	for _, b := range breakpoints {
		if widthPx >= b.MinWidthPx {
			return b
		}
	}
	return breakpoints[len(breakpoints)-1]
}
