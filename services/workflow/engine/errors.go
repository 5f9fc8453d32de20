// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine executes a workflow graph once, end to end, for a single
// query: it validates the graph, computes a deterministic topological order,
// drives each component through the registry, routes producer outputs into
// consumer inputs by component type, and records one execution log entry per
// run.
//
// # Execution model
//
// Execution is single-shot and sequential: one node at a time, in
// topological order, with no parallelism across independent branches. A
// component's Execute may block on external I/O; the engine simply waits.
// There are no retries and no timeouts — cancellation is the caller's
// concern via ctx.
//
// # Failure model
//
// Every failure is local to one run. Structural validation failures are
// reported before any component executes. A component reporting
// Success=false aborts the run immediately; nodes scheduled after it never
// execute. Every failure path appends exactly one failed log entry and
// returns an error to the caller; no failure is silently swallowed.
package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidWorkflow tags structural validation failures so callers can map
// them to a 400 instead of a 500.
var ErrInvalidWorkflow = errors.New("invalid workflow structure")

// ValidationError reports why a workflow failed structural validation. The
// Reason is a stable human-readable string ("no nodes present", "workflow
// contains cycles", ...).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid workflow structure: %s", e.Reason)
}

// Is makes errors.Is(err, ErrInvalidWorkflow) work for validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidWorkflow
}

// ComponentError reports a node whose execution failed, either because its
// component reported failure or because it could not be instantiated.
type ComponentError struct {
	NodeID  string
	Message string
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("Component %s failed: %s", e.NodeID, e.Message)
}
