/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"opsdash/internal/domain"
	"opsdash/internal/layout"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// consoleNotifier prints each notice as a one-line toast.
func consoleNotifier(w io.Writer) layout.Notifier {
	return layout.NotifierFunc(func(n layout.Notice) {
		style := okStyle
		if n.Kind == layout.NoticeCapacityExceeded {
			style = warnStyle
		}
		fmt.Fprintf(w, "%s %s\n", style.Render(n.Title), mutedStyle.Render(n.Message))
	})
}

// summary is the header line printed above a rendered layout.
func summary(user string, set domain.LayoutSet, bp string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Dashboard for " + user))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d/%d widgets · breakpoint %s", set.Count(), domain.MaxWidgets, bp)))
	return b.String()
}
