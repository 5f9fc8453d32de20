// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package components

import (
	"context"
	"fmt"
)

// UserQueryComponent is the intake unit at the head of a workflow. The engine
// feeds it the run's query string directly; it validates the query and passes
// it downstream.
type UserQueryComponent struct {
	id          string
	placeholder string
	maxLength   int
}

// NewUserQueryFactory returns the factory for user_query nodes.
//
// Config keys:
//   - placeholder (string): editor hint text, default "Enter your question here..."
//   - max_length (int): maximum accepted query length, default 1000
func NewUserQueryFactory() Factory {
	return func(id string, config map[string]any) (Component, error) {
		return &UserQueryComponent{
			id:          id,
			placeholder: stringOption(config, "placeholder", "Enter your question here..."),
			maxLength:   intOption(config, "max_length", 1000),
		}, nil
	}
}

func (c *UserQueryComponent) ID() string   { return c.id }
func (c *UserQueryComponent) Type() string { return TypeUserQuery }

// Execute validates the incoming query and emits it unchanged along with its
// length and the run timestamp.
func (c *UserQueryComponent) Execute(ctx context.Context, inputs map[string]any) *Result {
	query, _ := inputs["query"].(string)
	if query == "" {
		return Fail("no query provided")
	}
	if len(query) > c.maxLength {
		return Fail(fmt.Sprintf("query exceeds maximum length of %d characters", c.maxLength))
	}

	return Ok(
		map[string]any{
			"query":        query,
			"query_length": len(query),
			"timestamp":    inputs["timestamp"],
		},
		map[string]any{
			"component_type": TypeUserQuery,
			"component_id":   c.id,
		},
	)
}

func (c *UserQueryComponent) ValidateConfig() bool {
	return c.maxLength > 0
}

func (c *UserQueryComponent) InputSchema() Schema {
	return Schema{
		"query":     {Type: "string", Description: "User's question or query", Required: true},
		"timestamp": {Type: "string", Description: "Timestamp of the query"},
	}
}

func (c *UserQueryComponent) OutputSchema() Schema {
	return Schema{
		"query":        {Type: "string", Description: "Processed user query"},
		"query_length": {Type: "integer", Description: "Length of the query"},
		"timestamp":    {Type: "string", Description: "Query timestamp"},
	}
}

func (c *UserQueryComponent) RequiredInputs() []string { return []string{"query"} }
func (c *UserQueryComponent) OptionalInputs() []string { return []string{"timestamp"} }
