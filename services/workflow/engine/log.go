// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "github.com/AleutianAI/AleutianFlow/services/workflow/datatypes"

// ExecutionLog is the append-only, in-process history of workflow runs.
// Entries are never mutated or removed except via Clear. The log lives for
// the process lifetime only; nothing is recovered after a restart.
//
// The log does no locking of its own: it assumes a single writer at a time.
// The handler layer serializes runs (see handlers.WorkflowRunner), which is
// the collaborator that owns this guarantee.
type ExecutionLog struct {
	entries []datatypes.ExecutionLogEntry
}

// NewExecutionLog returns an empty log.
func NewExecutionLog() *ExecutionLog {
	return &ExecutionLog{}
}

// Record appends one entry. Entries arrive in run-completion order.
func (l *ExecutionLog) Record(entry datatypes.ExecutionLogEntry) {
	l.entries = append(l.entries, entry)
}

// Recent returns the most recent limit entries, oldest first within the
// returned slice. A non-positive limit returns the whole history. The
// returned slice is a copy, so reassigning its elements does not affect the
// log; the nested Results maps are shared and must be treated as read-only.
func (l *ExecutionLog) Recent(limit int) []datatypes.ExecutionLogEntry {
	if len(l.entries) == 0 {
		return nil
	}
	start := 0
	if limit > 0 && limit < len(l.entries) {
		start = len(l.entries) - limit
	}
	out := make([]datatypes.ExecutionLogEntry, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

// Len returns the number of recorded entries.
func (l *ExecutionLog) Len() int {
	return len(l.entries)
}

// Clear empties the log.
func (l *ExecutionLog) Clear() {
	l.entries = nil
}
