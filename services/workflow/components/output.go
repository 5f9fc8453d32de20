// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package components

import (
	"context"
	"strings"
	"time"
)

// OutputComponent formats the final answer for the chat surface and derives
// up to three follow-up suggestions from the response content.
type OutputComponent struct {
	id             string
	showTimestamps bool
	enableFollowUp bool
	maxHistory     int
}

// NewOutputFactory returns the factory for output nodes.
//
// Config keys:
//   - show_timestamps (bool): prefix the answer with a timestamp line, default true
//   - enable_follow_up (bool): generate follow-up suggestions, default true
//   - max_history (int): chat history window the UI keeps, default 50
func NewOutputFactory() Factory {
	return func(id string, config map[string]any) (Component, error) {
		return &OutputComponent{
			id:             id,
			showTimestamps: boolOption(config, "show_timestamps", true),
			enableFollowUp: boolOption(config, "enable_follow_up", true),
			maxHistory:     intOption(config, "max_history", 50),
		}, nil
	}
}

func (c *OutputComponent) ID() string   { return c.id }
func (c *OutputComponent) Type() string { return TypeOutput }

func (c *OutputComponent) Execute(ctx context.Context, inputs map[string]any) *Result {
	response, _ := inputs["response"].(string)
	query, _ := inputs["query"].(string)

	if response == "" {
		return Fail("no response provided for output component")
	}

	var suggestions []string
	if c.enableFollowUp {
		suggestions = c.followUpSuggestions(response)
	}

	return Ok(map[string]any{
		"formatted_response":    c.formatOutput(query, response),
		"query":                 query,
		"response":              response,
		"timestamp":             time.Now().Format(time.RFC3339),
		"follow_up_suggestions": suggestions,
		"show_timestamps":       c.showTimestamps,
	}, map[string]any{
		"component_type":  TypeOutput,
		"component_id":    c.id,
		"response_length": len(response),
	})
}

func (c *OutputComponent) formatOutput(query, response string) string {
	var parts []string
	if c.showTimestamps {
		parts = append(parts, "["+time.Now().Format("2006-01-02 15:04:05")+"]")
	}
	parts = append(parts, "Q: "+query, "A: "+response)
	return strings.Join(parts, "\n")
}

// followUpSuggestions derives suggestions from keywords in the response,
// topping up with generic ones, capped at three.
func (c *OutputComponent) followUpSuggestions(response string) []string {
	lower := strings.ToLower(response)
	var suggestions []string

	if strings.Contains(lower, "document") || strings.Contains(lower, "file") {
		suggestions = append(suggestions,
			"Can you provide more details about this document?",
			"Are there other related documents?")
	}
	if strings.Contains(lower, "process") || strings.Contains(lower, "workflow") {
		suggestions = append(suggestions,
			"How can I modify this workflow?",
			"What are the next steps?")
	}
	if strings.Contains(lower, "data") || strings.Contains(lower, "information") {
		suggestions = append(suggestions,
			"Can you analyze this data further?",
			"What insights can you provide?")
	}
	if len(suggestions) < 3 {
		suggestions = append(suggestions,
			"Can you explain this in more detail?",
			"What are the alternatives?",
			"How does this compare to other approaches?")
	}
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}

func (c *OutputComponent) ValidateConfig() bool {
	return c.maxHistory > 0
}

func (c *OutputComponent) InputSchema() Schema {
	return Schema{
		"response": {Type: "string", Description: "LLM generated response", Required: true},
		"query":    {Type: "string", Description: "Original user query", Required: true},
	}
}

func (c *OutputComponent) OutputSchema() Schema {
	return Schema{
		"formatted_response":    {Type: "string", Description: "Formatted response for display"},
		"query":                 {Type: "string", Description: "Original user query"},
		"response":              {Type: "string", Description: "Raw LLM response"},
		"timestamp":             {Type: "string", Description: "Response timestamp"},
		"follow_up_suggestions": {Type: "array", Description: "Suggested follow-up questions"},
	}
}

func (c *OutputComponent) RequiredInputs() []string { return []string{"response", "query"} }
func (c *OutputComponent) OptionalInputs() []string { return nil }
