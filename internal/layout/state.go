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

// Mode is the edit axis of the controller state machine.
type Mode int32

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

// Phase is the mutation axis: Mutating only while an operation holds the controller.
type Phase int32

const (
	Idle Phase = iota
	Mutating
)

func (p Phase) String() string {
	if p == Mutating {
		return "mutating"
	}
	return "idle"
}

// State is one point of {Viewing, Editing} x {Idle, Mutating}.
type State struct {
	Mode  Mode
	Phase Phase
}

func (s State) String() string { return s.Mode.String() + "/" + s.Phase.String() }
