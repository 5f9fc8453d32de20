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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianFlow/services/llm"
)

// =============================================================================
// Shared test doubles
// =============================================================================

type fakeRetriever struct {
	docs      []RetrievedDocument
	err       error
	lastClass string
	lastLimit int
}

func (f *fakeRetriever) Search(ctx context.Context, class, query string, limit int) ([]RetrievedDocument, error) {
	f.lastClass = class
	f.lastLimit = limit
	return f.docs, f.err
}

type fakeLLM struct {
	response string
	err      error
	prompt   string
	params   llm.GenerationParams
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	f.prompt = prompt
	f.params = params
	return f.response, f.err
}

type fakeWebSearcher struct {
	results string
	err     error
}

func (f *fakeWebSearcher) Search(ctx context.Context, query string) (string, error) {
	return f.results, f.err
}

func mustCreate(t *testing.T, factory Factory, id string, config map[string]any) Component {
	t.Helper()
	c, err := factory(id, config)
	require.NoError(t, err)
	return c
}

// =============================================================================
// user_query
// =============================================================================

func TestUserQuery_Execute(t *testing.T) {
	c := mustCreate(t, NewUserQueryFactory(), "q1", map[string]any{})

	result := c.Execute(context.Background(), map[string]any{
		"query":     "what is a basis trade?",
		"timestamp": "2025-08-25T10:00:00Z",
	})
	require.True(t, result.Success)
	assert.Equal(t, "what is a basis trade?", result.Data["query"])
	assert.Equal(t, len("what is a basis trade?"), result.Data["query_length"])
	assert.Equal(t, "2025-08-25T10:00:00Z", result.Data["timestamp"])
	assert.Equal(t, TypeUserQuery, result.Metadata["component_type"])
}

func TestUserQuery_EmptyQueryFails(t *testing.T) {
	c := mustCreate(t, NewUserQueryFactory(), "q1", nil)
	result := c.Execute(context.Background(), map[string]any{})
	require.False(t, result.Success)
	assert.Equal(t, "no query provided", result.Error)
}

func TestUserQuery_MaxLength(t *testing.T) {
	c := mustCreate(t, NewUserQueryFactory(), "q1", map[string]any{"max_length": float64(10)})

	result := c.Execute(context.Background(), map[string]any{"query": "this is far too long"})
	require.False(t, result.Success)
	assert.Equal(t, "query exceeds maximum length of 10 characters", result.Error)

	result = c.Execute(context.Background(), map[string]any{"query": "short"})
	assert.True(t, result.Success)
}

func TestUserQuery_ValidateConfig(t *testing.T) {
	valid := mustCreate(t, NewUserQueryFactory(), "q1", map[string]any{"max_length": 100})
	assert.True(t, valid.ValidateConfig())

	invalid := mustCreate(t, NewUserQueryFactory(), "q1", map[string]any{"max_length": float64(0)})
	assert.False(t, invalid.ValidateConfig())
}

// =============================================================================
// knowledge_base
// =============================================================================

func TestKnowledgeBase_Execute(t *testing.T) {
	retriever := &fakeRetriever{docs: []RetrievedDocument{
		{Content: "chunk one", Source: "a.md_part_1", Distance: 0.1},
		{Content: "chunk two", Source: "a.md_part_2", Distance: 0.2},
	}}
	c := mustCreate(t, NewKnowledgeBaseFactory(retriever), "kb1", map[string]any{
		"collection_name": "Reports",
		"top_k":           float64(3),
	})

	result := c.Execute(context.Background(), map[string]any{"query": "wheat"})
	require.True(t, result.Success)
	assert.Equal(t, "chunk one\n\nchunk two", result.Data["context"])
	assert.Equal(t, 2, result.Data["documents_found"])
	assert.Equal(t, []string{"a.md_part_1", "a.md_part_2"}, result.Data["sources"])
	assert.Equal(t, "Reports", retriever.lastClass)
	assert.Equal(t, 3, retriever.lastLimit)
}

func TestKnowledgeBase_NoDocumentsIsSuccess(t *testing.T) {
	c := mustCreate(t, NewKnowledgeBaseFactory(&fakeRetriever{}), "kb1", nil)

	result := c.Execute(context.Background(), map[string]any{"query": "anything"})
	require.True(t, result.Success)
	assert.Equal(t, "", result.Data["context"])
	assert.Equal(t, 0, result.Data["documents_found"])
	assert.NotContains(t, result.Data, "sources")
}

func TestKnowledgeBase_SearchErrorDegradesToEmptyContext(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("connection refused")}
	c := mustCreate(t, NewKnowledgeBaseFactory(retriever), "kb1", nil)

	result := c.Execute(context.Background(), map[string]any{"query": "anything"})
	require.True(t, result.Success)
	assert.Equal(t, "", result.Data["context"])
	assert.Equal(t, 0, result.Data["documents_found"])
}

func TestKnowledgeBase_FailureModes(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		c := mustCreate(t, NewKnowledgeBaseFactory(&fakeRetriever{}), "kb1", nil)
		result := c.Execute(context.Background(), map[string]any{})
		require.False(t, result.Success)
		assert.Equal(t, "no query provided for knowledge base search", result.Error)
	})

	t.Run("nil retriever", func(t *testing.T) {
		c := mustCreate(t, NewKnowledgeBaseFactory(nil), "kb1", nil)
		result := c.Execute(context.Background(), map[string]any{"query": "hello"})
		require.False(t, result.Success)
		assert.Contains(t, result.Error, "vector store unavailable")
	})
}

func TestKnowledgeBase_ValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		want   bool
	}{
		{"defaults", nil, true},
		{"overlap equals size", map[string]any{"chunk_size": 100, "chunk_overlap": 100}, false},
		{"zero top_k", map[string]any{"top_k": float64(0)}, false},
		{"negative overlap", map[string]any{"chunk_overlap": -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCreate(t, NewKnowledgeBaseFactory(nil), "kb1", tt.config)
			assert.Equal(t, tt.want, c.ValidateConfig())
		})
	}
}

// =============================================================================
// llm_engine
// =============================================================================

func TestLLMEngine_Execute(t *testing.T) {
	client := &fakeLLM{response: "an answer"}
	c := mustCreate(t, NewLLMEngineFactory(client, nil), "llm1", map[string]any{
		"temperature": 0.3,
		"max_tokens":  float64(256),
	})

	result := c.Execute(context.Background(), map[string]any{
		"query":   "what happened?",
		"context": "the report says X",
	})
	require.True(t, result.Success)
	assert.Equal(t, "an answer", result.Data["response"])
	assert.Equal(t, true, result.Data["context_used"])
	assert.Equal(t, false, result.Data["web_search_used"])

	assert.Contains(t, client.prompt, "Context from documents:\nthe report says X")
	assert.Contains(t, client.prompt, "User question: what happened?")
	require.NotNil(t, client.params.Temperature)
	assert.InDelta(t, 0.3, float64(*client.params.Temperature), 1e-6)
	require.NotNil(t, client.params.MaxTokens)
	assert.Equal(t, 256, *client.params.MaxTokens)
}

func TestLLMEngine_PromptAssemblyOrder(t *testing.T) {
	client := &fakeLLM{response: "ok"}
	searcher := &fakeWebSearcher{results: "Title: X\nSummary: Y"}
	c := mustCreate(t, NewLLMEngineFactory(client, searcher), "llm1", map[string]any{
		"custom_prompt":  "You are a grain analyst.",
		"use_web_search": true,
	})

	result := c.Execute(context.Background(), map[string]any{
		"query":   "why?",
		"context": "ctx",
	})
	require.True(t, result.Success)

	prompt := client.prompt
	custom := strings.Index(prompt, "You are a grain analyst.")
	docs := strings.Index(prompt, "Context from documents:")
	web := strings.Index(prompt, "Recent web information:")
	question := strings.Index(prompt, "User question: why?")
	require.True(t, custom >= 0 && docs > custom && web > docs && question > web,
		"prompt sections out of order:\n%s", prompt)
	assert.Equal(t, "Title: X\nSummary: Y", result.Data["web_results"])
}

func TestLLMEngine_WebSearchUnavailableWithoutSearcher(t *testing.T) {
	client := &fakeLLM{response: "ok"}
	c := mustCreate(t, NewLLMEngineFactory(client, nil), "llm1", map[string]any{
		"use_web_search": true,
	})

	result := c.Execute(context.Background(), map[string]any{"query": "q"})
	require.True(t, result.Success)
	assert.Equal(t, "Web search not available (no API key configured)", result.Data["web_results"])
}

func TestLLMEngine_FailureModes(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		c := mustCreate(t, NewLLMEngineFactory(&fakeLLM{}, nil), "llm1", nil)
		result := c.Execute(context.Background(), map[string]any{})
		require.False(t, result.Success)
		assert.Equal(t, "no query provided for llm engine", result.Error)
	})

	t.Run("nil client", func(t *testing.T) {
		c := mustCreate(t, NewLLMEngineFactory(nil, nil), "llm1", nil)
		result := c.Execute(context.Background(), map[string]any{"query": "q"})
		require.False(t, result.Success)
		assert.Equal(t, "llm backend not configured", result.Error)
	})

	t.Run("generation error", func(t *testing.T) {
		client := &fakeLLM{err: fmt.Errorf("model overloaded")}
		c := mustCreate(t, NewLLMEngineFactory(client, nil), "llm1", nil)
		result := c.Execute(context.Background(), map[string]any{"query": "q"})
		require.False(t, result.Success)
		assert.Contains(t, result.Error, "llm generation failed")
		assert.Contains(t, result.Error, "model overloaded")
	})
}

func TestLLMEngine_ValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		want   bool
	}{
		{"defaults", nil, true},
		{"temperature too high", map[string]any{"temperature": 2.5}, false},
		{"temperature negative", map[string]any{"temperature": -0.1}, false},
		{"zero max_tokens", map[string]any{"max_tokens": float64(0)}, false},
		{"bounds are inclusive", map[string]any{"temperature": 2.0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCreate(t, NewLLMEngineFactory(&fakeLLM{}, nil), "llm1", tt.config)
			assert.Equal(t, tt.want, c.ValidateConfig())
		})
	}
}

// =============================================================================
// output
// =============================================================================

func TestOutput_Execute(t *testing.T) {
	c := mustCreate(t, NewOutputFactory(), "o1", map[string]any{})

	result := c.Execute(context.Background(), map[string]any{
		"query":    "what is the answer?",
		"response": "forty-two",
	})
	require.True(t, result.Success)

	formatted, _ := result.Data["formatted_response"].(string)
	assert.True(t, strings.HasPrefix(formatted, "["), "expected a timestamp prefix: %q", formatted)
	assert.Contains(t, formatted, "Q: what is the answer?")
	assert.Contains(t, formatted, "A: forty-two")

	suggestions, _ := result.Data["follow_up_suggestions"].([]string)
	require.Len(t, suggestions, 3)
}

func TestOutput_TimestampsDisabled(t *testing.T) {
	c := mustCreate(t, NewOutputFactory(), "o1", map[string]any{"show_timestamps": false})

	result := c.Execute(context.Background(), map[string]any{
		"query":    "q",
		"response": "a",
	})
	require.True(t, result.Success)
	assert.Equal(t, "Q: q\nA: a", result.Data["formatted_response"])
}

func TestOutput_FollowUpSuggestions(t *testing.T) {
	c := mustCreate(t, NewOutputFactory(), "o1", nil)

	t.Run("keyword driven", func(t *testing.T) {
		result := c.Execute(context.Background(), map[string]any{
			"query":    "q",
			"response": "The document describes the ingestion workflow.",
		})
		require.True(t, result.Success)
		suggestions, _ := result.Data["follow_up_suggestions"].([]string)
		require.Len(t, suggestions, 3)
		assert.Equal(t, "Can you provide more details about this document?", suggestions[0])
	})

	t.Run("disabled", func(t *testing.T) {
		disabled := mustCreate(t, NewOutputFactory(), "o1", map[string]any{"enable_follow_up": false})
		result := disabled.Execute(context.Background(), map[string]any{
			"query":    "q",
			"response": "a",
		})
		require.True(t, result.Success)
		suggestions, _ := result.Data["follow_up_suggestions"].([]string)
		assert.Empty(t, suggestions)
	})
}

func TestOutput_NoResponseFails(t *testing.T) {
	c := mustCreate(t, NewOutputFactory(), "o1", nil)
	result := c.Execute(context.Background(), map[string]any{"query": "q"})
	require.False(t, result.Success)
	assert.Equal(t, "no response provided for output component", result.Error)
}

// =============================================================================
// config option helpers
// =============================================================================

func TestConfigOptions_JSONNumbers(t *testing.T) {
	// JSON decoding turns every number into float64; the accessors must
	// still produce the declared types.
	config := map[string]any{
		"max_length":  float64(250),
		"temperature": float64(1),
		"enabled":     true,
		"name":        "custom",
	}
	assert.Equal(t, 250, intOption(config, "max_length", 0))
	assert.Equal(t, 1.0, floatOption(config, "temperature", 0))
	assert.Equal(t, true, boolOption(config, "enabled", false))
	assert.Equal(t, "custom", stringOption(config, "name", ""))

	// Wrong types fall back to defaults.
	assert.Equal(t, 7, intOption(map[string]any{"k": "nope"}, "k", 7))
	assert.Equal(t, "d", stringOption(map[string]any{"k": 3}, "k", "d"))
}
