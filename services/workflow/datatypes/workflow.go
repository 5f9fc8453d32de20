// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes contains the wire and storage types shared by the
// workflow service: graph definitions submitted by the UI, execution
// requests and responses, and the execution log entry shape.
package datatypes

import "time"

// Execution log entry statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Node is a single configured component instance inside a workflow graph.
// The ID is unique within a workflow. The Data envelope mirrors the node
// shape produced by the visual editor.
type Node struct {
	ID   string   `json:"id" binding:"required"`
	Data NodeData `json:"data"`
}

// NodeData carries the component type discriminator and the component-owned
// configuration. Config is opaque to the engine; each component parses and
// validates its own keys.
type NodeData struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// Edge is a directed dependency: the source node's output feeds the target
// node's input. Multiple edges may share a target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Workflow is a stored graph definition. Nodes and Edges are kept exactly as
// submitted; the engine re-validates them on every execution because callers
// may update and resubmit the graph between runs.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// FirstNodeOfType returns the id of the first node declared with the given
// component type, or "" when none exists. Used by the API layer to pick the
// node whose result is treated as the final answer. When a workflow carries
// several output nodes the first one in submission order wins.
func (w *Workflow) FirstNodeOfType(componentType string) string {
	for _, n := range w.Nodes {
		if n.Data.Type == componentType {
			return n.ID
		}
	}
	return ""
}

// ExecutionLogEntry is one append-only record of a workflow run. Entries are
// created exactly once per run and never mutated afterwards.
type ExecutionLogEntry struct {
	Timestamp  time.Time                 `json:"timestamp"`
	WorkflowID string                    `json:"workflow_id,omitempty"`
	Query      string                    `json:"query"`
	Status     string                    `json:"status"`
	Results    map[string]map[string]any `json:"results,omitempty"`
	Error      string                    `json:"error,omitempty"`
}

// ExecutionRecord is the persisted form of a completed run, stored alongside
// the workflow it belongs to.
type ExecutionRecord struct {
	ID         string            `json:"id"`
	WorkflowID string            `json:"workflow_id"`
	Query      string            `json:"query"`
	Response   string            `json:"response,omitempty"`
	Log        ExecutionLogEntry `json:"execution_log"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// CreateWorkflowRequest is the POST /v1/workflows body.
type CreateWorkflowRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Nodes       []Node `json:"nodes" binding:"required"`
	Edges       []Edge `json:"edges" binding:"required"`
}

// UpdateWorkflowRequest is the PUT /v1/workflows/:id body. Nil fields are
// left untouched.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Nodes       []Node  `json:"nodes"`
	Edges       []Edge  `json:"edges"`
	Active      *bool   `json:"active"`
}

// ExecuteRequest is the POST /v1/workflows/:id/execute body.
type ExecuteRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

// ChatRequest is the POST /v1/chat body: a conversational wrapper around
// workflow execution.
type ChatRequest struct {
	WorkflowID string `json:"workflow_id" binding:"required"`
	Query      string `json:"query" binding:"required"`
	SessionID  string `json:"session_id"`
}
