// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_Generate(t *testing.T) {
	m := NewMockClient()

	response, err := m.Generate(context.Background(), "why is the sky blue?", GenerationParams{})
	require.NoError(t, err)
	assert.Contains(t, response, "(Mock) Generated answer for:")
	assert.Contains(t, response, "why is the sky blue?")
	assert.Contains(t, response, "no LLM backend configured")
}

func TestMockClient_TruncatesLongPrompts(t *testing.T) {
	m := NewMockClient()
	prompt := strings.Repeat("x", 2000)

	response, err := m.Generate(context.Background(), prompt, GenerationParams{})
	require.NoError(t, err)
	assert.NotContains(t, response, strings.Repeat("x", 501))
	assert.Contains(t, response, strings.Repeat("x", 500))
}

func TestMockClient_Deterministic(t *testing.T) {
	m := NewMockClient()
	a, _ := m.Generate(context.Background(), "same prompt", GenerationParams{})
	b, _ := m.Generate(context.Background(), "same prompt", GenerationParams{})
	assert.Equal(t, a, b)
}

func TestNewOllamaClient_RequiresBaseURL(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "")
	_, err := NewOllamaClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OLLAMA_BASE_URL")
}

func TestOllamaClient_Generate(t *testing.T) {
	var gotReq ollamaGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:    gotReq.Model,
			Response: "an answer",
			Done:     true,
		})
	}))
	defer server.Close()

	t.Setenv("OLLAMA_BASE_URL", server.URL)
	t.Setenv("OLLAMA_MODEL", "qwen3:4b")

	client, err := NewOllamaClient()
	require.NoError(t, err)

	temperature := float32(0.2)
	maxTokens := 128
	response, err := client.Generate(context.Background(), "a prompt", GenerationParams{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	require.NoError(t, err)
	assert.Equal(t, "an answer", response)

	assert.Equal(t, "qwen3:4b", gotReq.Model)
	assert.Equal(t, "a prompt", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
	assert.InDelta(t, 0.2, gotReq.Options["temperature"], 1e-6)
	assert.EqualValues(t, 128, gotReq.Options["num_predict"])
}

func TestOllamaClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	t.Setenv("OLLAMA_BASE_URL", server.URL)
	t.Setenv("OLLAMA_MODEL", "missing-model")

	client, err := NewOllamaClient()
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "p", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
