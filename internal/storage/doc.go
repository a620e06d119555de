/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements per-user persistence of the dashboard layout record.
// The record is a JSON object keyed by breakpoint name, stored under dashboard-layout-<userID>
// in a pluggable key/value Backend (JSON files, embedded SQLite, PostgreSQL or memory).
// Reads are forgiving: a missing, unreadable, unparsable or schema-invalid record yields the default layout.
package storage
