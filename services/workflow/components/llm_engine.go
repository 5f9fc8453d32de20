// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package components

import (
	"context"
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianFlow/services/llm"
)

// WebSearcher augments generation with recent web results. Implementations
// return a formatted text block; a searcher with no credentials configured
// returns an explanatory message rather than an error.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// LLMEngineComponent assembles a prompt from the query, retrieved context
// and optional web results, then generates an answer through the configured
// LLM backend.
type LLMEngineComponent struct {
	id           string
	model        string
	temperature  float64
	maxTokens    int
	useWebSearch bool
	customPrompt string
	client       llm.LLMClient
	searcher     WebSearcher
}

// NewLLMEngineFactory returns the factory for llm_engine nodes. The searcher
// may be nil; web search is then reported as unavailable in the output.
//
// Config keys:
//   - model (string): backend model override, default "" (backend default)
//   - temperature (float): sampling temperature in [0, 2], default 0.7
//   - max_tokens (int): generation budget, default 1000
//   - use_web_search (bool): augment the prompt with web results, default false
//   - custom_prompt (string): text prepended to the prompt, default ""
func NewLLMEngineFactory(client llm.LLMClient, searcher WebSearcher) Factory {
	return func(id string, config map[string]any) (Component, error) {
		return &LLMEngineComponent{
			id:           id,
			model:        stringOption(config, "model", ""),
			temperature:  floatOption(config, "temperature", 0.7),
			maxTokens:    intOption(config, "max_tokens", 1000),
			useWebSearch: boolOption(config, "use_web_search", false),
			customPrompt: stringOption(config, "custom_prompt", ""),
			client:       client,
			searcher:     searcher,
		}, nil
	}
}

func (c *LLMEngineComponent) ID() string   { return c.id }
func (c *LLMEngineComponent) Type() string { return TypeLLMEngine }

// Execute builds the prompt and calls the LLM backend. Search failures are
// folded into the web results text; only a missing query or a generation
// failure fails the component.
func (c *LLMEngineComponent) Execute(ctx context.Context, inputs map[string]any) *Result {
	query, _ := inputs["query"].(string)
	contextText, _ := inputs["context"].(string)

	if query == "" {
		return Fail("no query provided for llm engine")
	}
	if c.client == nil {
		return Fail("llm backend not configured")
	}

	webResults := ""
	if c.useWebSearch {
		webResults = c.searchWeb(ctx, query)
	}

	prompt := c.buildPrompt(query, contextText, webResults)

	temperature := float32(c.temperature)
	maxTokens := c.maxTokens
	params := llm.GenerationParams{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
	response, err := c.client.Generate(ctx, prompt, params)
	if err != nil {
		return Fail(fmt.Sprintf("llm generation failed: %v", err))
	}

	data := map[string]any{
		"response":        response,
		"query":           query,
		"context_used":    contextText != "",
		"web_search_used": c.useWebSearch,
		"model":           c.model,
	}
	if c.useWebSearch {
		data["web_results"] = webResults
	}

	return Ok(data, map[string]any{
		"component_type": TypeLLMEngine,
		"component_id":   c.id,
		"model":          c.model,
		"temperature":    c.temperature,
		"max_tokens":     c.maxTokens,
	})
}

func (c *LLMEngineComponent) searchWeb(ctx context.Context, query string) string {
	if c.searcher == nil {
		return "Web search not available (no API key configured)"
	}
	results, err := c.searcher.Search(ctx, query)
	if err != nil {
		return fmt.Sprintf("Web search error: %v", err)
	}
	return results
}

func (c *LLMEngineComponent) buildPrompt(query, contextText, webResults string) string {
	var parts []string
	if c.customPrompt != "" {
		parts = append(parts, c.customPrompt)
	}
	if contextText != "" {
		parts = append(parts, "Context from documents:\n"+contextText)
	}
	if webResults != "" {
		parts = append(parts, "Recent web information:\n"+webResults)
	}
	parts = append(parts,
		"User question: "+query,
		"Please provide a comprehensive and accurate answer based on the available information.",
	)
	return strings.Join(parts, "\n\n")
}

func (c *LLMEngineComponent) ValidateConfig() bool {
	return c.temperature >= 0 &&
		c.temperature <= 2 &&
		c.maxTokens > 0
}

func (c *LLMEngineComponent) InputSchema() Schema {
	return Schema{
		"query":   {Type: "string", Description: "User's question for the LLM", Required: true},
		"context": {Type: "string", Description: "Context from knowledge base"},
	}
}

func (c *LLMEngineComponent) OutputSchema() Schema {
	return Schema{
		"response":        {Type: "string", Description: "LLM generated response"},
		"query":           {Type: "string", Description: "Original user query"},
		"context_used":    {Type: "boolean", Description: "Whether context was used"},
		"web_search_used": {Type: "boolean", Description: "Whether web search was performed"},
		"model":           {Type: "string", Description: "LLM model used"},
	}
}

func (c *LLMEngineComponent) RequiredInputs() []string { return []string{"query"} }
func (c *LLMEngineComponent) OptionalInputs() []string { return []string{"context"} }
