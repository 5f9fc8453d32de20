// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package components defines the pluggable processing units a workflow is
// assembled from, and the registry that maps component type names to
// constructors.
//
// # Contract
//
// Every component implements the Component interface. Execute performs the
// unit's work and never panics past its own boundary: all failures are
// captured and returned as a Result with Success=false. ValidateConfig is a
// pure check of the component's own configuration and must not perform I/O.
// The schema methods are static introspection consumed by the registry and
// by the UI; they never execute the component.
//
// # Variants
//
//   - user_query: query intake and length validation
//   - knowledge_base: vector retrieval over ingested documents
//   - llm_engine: prompt assembly and text generation
//   - output: final answer formatting and follow-up suggestions
//
// The engine never branches on which variant it is holding; it only consults
// the declared type string when routing outputs to downstream inputs.
package components

import "context"

// Component type discriminators. These are the strings the visual editor
// places in a node's data.type field.
const (
	TypeUserQuery     = "user_query"
	TypeKnowledgeBase = "knowledge_base"
	TypeLLMEngine     = "llm_engine"
	TypeOutput        = "output"
)

// Result is the outcome of a single component execution. Exactly one of
// Data/Error is meaningful depending on Success. A Result is never mutated
// after creation.
type Result struct {
	Success  bool           `json:"success"`
	Data     map[string]any `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FieldSpec describes one input or output field of a component.
type FieldSpec struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required,omitempty"`
}

// Schema maps field names to their descriptors.
type Schema map[string]FieldSpec

// ComponentSchema is the full introspection payload for one component type,
// served to external callers (the workflow editor) so they can describe a
// component without instantiating it.
type ComponentSchema struct {
	InputSchema    Schema   `json:"input_schema"`
	OutputSchema   Schema   `json:"output_schema"`
	RequiredInputs []string `json:"required_inputs"`
	OptionalInputs []string `json:"optional_inputs"`
}

// Component is the capability set every pluggable unit satisfies.
type Component interface {
	// ID returns the node id this instance was constructed for.
	ID() string

	// Type returns the component type discriminator.
	Type() string

	// Execute performs the unit's work. It must capture every failure,
	// including failures of external collaborators, and report it via the
	// returned Result rather than panicking.
	Execute(ctx context.Context, inputs map[string]any) *Result

	// ValidateConfig reports whether the component's own configuration is
	// internally consistent. It is pure: no I/O, no side effects.
	ValidateConfig() bool

	// InputSchema describes the inputs Execute understands.
	InputSchema() Schema

	// OutputSchema describes the fields Execute places in Result.Data.
	OutputSchema() Schema

	// RequiredInputs lists input keys that must be present.
	RequiredInputs() []string

	// OptionalInputs lists input keys that may be present.
	OptionalInputs() []string
}

// Ok builds a successful Result.
func Ok(data, metadata map[string]any) *Result {
	return &Result{Success: true, Data: data, Metadata: metadata}
}

// Fail builds a failed Result carrying the given error message.
func Fail(msg string) *Result {
	return &Result{Success: false, Error: msg}
}
