/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package layout

import (
	"fmt"

	"opsdash/internal/domain"
)

// NoticeKind classifies user-facing feedback.
type NoticeKind string

const (
	NoticeCapacityExceeded NoticeKind = "capacity_exceeded"
	NoticeWidgetAdded      NoticeKind = "widget_added"
	NoticeWidgetRemoved    NoticeKind = "widget_removed"
	NoticeReset            NoticeKind = "layout_reset"
)

// Notice is an outcome worth telling the user about.
type Notice struct {
	Kind       NoticeKind `json:"kind"`
	UserID     string     `json:"user"`
	InstanceID string     `json:"instance_id,omitempty"`
	WidgetType string     `json:"widget_type,omitempty"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
}

// Notifier is informed of add/remove/reset outcomes. It is optional and never affects correctness,
// so implementations must not block.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// MultiNotifier fans a notice out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(n Notice) {
	for _, x := range m {
		if x != nil {
			x.Notify(n)
		}
	}
}

func capacityNotice(user string) Notice {
	return Notice{
		Kind:    NoticeCapacityExceeded,
		UserID:  user,
		Title:   "Widget limit reached",
		Message: fmt.Sprintf("You can place at most %d widgets. Remove one to add another.", domain.MaxWidgets),
	}
}

func addedNotice(user, id string, def domain.WidgetDefinition) Notice {
	return Notice{
		Kind:       NoticeWidgetAdded,
		UserID:     user,
		InstanceID: id,
		WidgetType: def.Type,
		Title:      "Widget added",
		Message:    fmt.Sprintf("%s was added to your dashboard.", def.Title),
	}
}

func removedNotice(user, id string) Notice {
	return Notice{
		Kind:       NoticeWidgetRemoved,
		UserID:     user,
		InstanceID: id,
		Title:      "Widget removed",
		Message:    fmt.Sprintf("%s was removed from your dashboard.", id),
	}
}

func resetNotice(user string) Notice {
	return Notice{
		Kind:    NoticeReset,
		UserID:  user,
		Title:   "Layout reset",
		Message: "Your dashboard was restored to the default layout.",
	}
}
