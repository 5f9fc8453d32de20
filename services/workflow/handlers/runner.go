// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin HTTP handlers for the workflow service:
// workflow CRUD, execution, chat, component introspection, document
// ingestion, and execution log access.
package handlers

import (
	"context"
	"sync"

	"github.com/AleutianAI/AleutianFlow/services/workflow/datatypes"
	"github.com/AleutianAI/AleutianFlow/services/workflow/engine"
)

// WorkflowRunner serializes access to the engine and its execution log.
// The engine itself provides no locking, so every run and every log read
// or clear goes through the runner's mutex. One runner exists per process.
type WorkflowRunner struct {
	mu     sync.Mutex
	engine *engine.Engine
}

// NewWorkflowRunner wraps an engine.
func NewWorkflowRunner(eng *engine.Engine) *WorkflowRunner {
	return &WorkflowRunner{engine: eng}
}

// Run executes a workflow, holding the lock for the whole run so the log
// sees one writer at a time.
func (r *WorkflowRunner) Run(ctx context.Context, wf *datatypes.Workflow, query string) (*engine.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Run(ctx, wf, query)
}

// Recent returns the most recent limit log entries, oldest first. A
// non-positive limit returns all entries.
func (r *WorkflowRunner) Recent(limit int) []datatypes.ExecutionLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.ExecutionLog().Recent(limit)
}

// Clear empties the execution log.
func (r *WorkflowRunner) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engine.ExecutionLog().Clear()
}
