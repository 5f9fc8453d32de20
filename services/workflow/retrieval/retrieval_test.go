// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// HTTPEmbedder
// =============================================================================

func TestHTTPEmbedder_Embed(t *testing.T) {
	var gotPath string
	var gotBody embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(embeddingResponse{
			Vector: []float32{0.1, 0.2, 0.3},
			Dim:    3,
		})
	}))
	defer server.Close()

	e := NewHTTPEmbedder(server.URL + "/embed")
	vector, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	assert.Equal(t, "/embed", gotPath)
	assert.Equal(t, "hello", gotBody.Text)
}

func TestHTTPEmbedder_EmbedErrors(t *testing.T) {
	t.Run("empty vector", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(embeddingResponse{})
		}))
		defer server.Close()

		_, err := NewHTTPEmbedder(server.URL).Embed(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty vector")
	})

	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewHTTPEmbedder(server.URL).Embed(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 503")
	})
}

func TestHTTPEmbedder_BatchEmbed(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req batchEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		vectors := make([][]float32, len(req.Texts))
		for i := range vectors {
			vectors[i] = []float32{float32(i)}
		}
		json.NewEncoder(w).Encode(batchEmbeddingResponse{Vectors: vectors, Dim: 1})
	}))
	defer server.Close()

	e := NewHTTPEmbedder(server.URL + "/embed")
	vectors, err := e.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, "/batch_embed", gotPath)
}

func TestHTTPEmbedder_BatchEmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(batchEmbeddingResponse{Vectors: [][]float32{{1}}})
	}))
	defer server.Close()

	_, err := NewHTTPEmbedder(server.URL).BatchEmbed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 texts")
}

func TestHTTPEmbedder_BatchEmbedEmptyInput(t *testing.T) {
	e := NewHTTPEmbedder("http://unused")
	vectors, err := e.BatchEmbed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

// =============================================================================
// SerpAPISearcher
// =============================================================================

func TestSerpAPISearcher_NoAPIKey(t *testing.T) {
	s := NewSerpAPISearcher("")
	results, err := s.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "Web search not available (no API key configured)", results)
}

func TestSerpAPISearcher_FormatsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wheat prices", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		json.NewEncoder(w).Encode(map[string]any{
			"organic_results": []map[string]string{
				{"title": "Wheat rallies", "snippet": "Futures climbed on weather."},
				{"title": "Export update", "snippet": "Shipments slowed."},
			},
		})
	}))
	defer server.Close()

	s := NewSerpAPISearcher("test-key")
	s.baseURL = server.URL

	results, err := s.Search(context.Background(), "wheat prices")
	require.NoError(t, err)
	assert.Equal(t,
		"Title: Wheat rallies\nSummary: Futures climbed on weather.\n\n"+
			"Title: Export update\nSummary: Shipments slowed.",
		results)
}

func TestSerpAPISearcher_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"organic_results": []any{}})
	}))
	defer server.Close()

	s := NewSerpAPISearcher("test-key")
	s.baseURL = server.URL

	results, err := s.Search(context.Background(), "obscure query")
	require.NoError(t, err)
	assert.Equal(t, "No recent web results found", results)
}

func TestSerpAPISearcher_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := NewSerpAPISearcher("test-key")
	s.baseURL = server.URL

	_, err := s.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
