// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval implements the external collaborators the workflow
// components search through: the embedding sidecar, the Weaviate vector
// store, and SerpAPI web search.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EmbeddingProvider turns text into a vector for nearVector search.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type embeddingRequest struct {
	Text string `json:"text"`
}

type embeddingResponse struct {
	Id        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Text      string    `json:"text"`
	Vector    []float32 `json:"vector"`
	Dim       int       `json:"dim"`
}

type batchEmbeddingRequest struct {
	Texts []string `json:"texts"`
}

type batchEmbeddingResponse struct {
	Id        string      `json:"id"`
	Timestamp int64       `json:"timestamp"`
	Vectors   [][]float32 `json:"vectors"`
	Model     string      `json:"model"`
	Dim       int         `json:"dim"`
}

// HTTPEmbedder calls the embedding sidecar's /embed and /batch_embed
// endpoints. The base URL is the /embed endpoint itself (matching the
// EMBEDDING_SERVICE_URL convention used across services).
type HTTPEmbedder struct {
	httpClient *http.Client
	embedURL   string
	batchURL   string
}

// NewHTTPEmbedder creates an embedder for the given /embed endpoint URL.
func NewHTTPEmbedder(embedURL string) *HTTPEmbedder {
	base := strings.TrimSuffix(strings.TrimSuffix(embedURL, "/"), "/embed")
	return &HTTPEmbedder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		embedURL:   base + "/embed",
		batchURL:   base + "/batch_embed",
	}
}

// Embed returns the vector for one text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embeddingResponse
	if err := e.post(ctx, e.embedURL, embeddingRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Vector) == 0 {
		return nil, fmt.Errorf("embedding service returned an empty vector")
	}
	return resp.Vector, nil
}

// BatchEmbed returns one vector per input text, used by document ingestion.
// The batch call uses a longer timeout because large documents produce many
// chunks.
func (e *HTTPEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	client := &http.Client{Timeout: 5 * time.Minute}
	var resp batchEmbeddingResponse
	if err := postJSON(ctx, client, e.batchURL, batchEmbeddingRequest{Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Vectors) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts",
			len(resp.Vectors), len(texts))
	}
	return resp.Vectors, nil
}

func (e *HTTPEmbedder) post(ctx context.Context, url string, payload, out any) error {
	return postJSON(ctx, e.httpClient, url, payload, out)
}

func postJSON(ctx context.Context, client *http.Client, url string, payload, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach the embedding service: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse the embedding service response: %w", err)
	}
	return nil
}
