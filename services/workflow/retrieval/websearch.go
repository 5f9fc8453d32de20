// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianFlow/services/workflow/components"
)

// Compile-time interface implementation check.
var _ components.WebSearcher = (*SerpAPISearcher)(nil)

const defaultSerpAPIURL = "https://serpapi.com/search"

// SerpAPISearcher fetches the top organic web results for a query through
// SerpAPI and formats them into a text block for prompt assembly. With no
// API key configured it degrades to an explanatory message instead of
// failing, so llm_engine nodes keep working offline.
type SerpAPISearcher struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxResults int
}

type serpAPIResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// NewSerpAPISearcher creates a searcher with the given API key. An empty key
// is allowed; Search then reports that web search is unavailable.
func NewSerpAPISearcher(apiKey string) *SerpAPISearcher {
	return &SerpAPISearcher{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultSerpAPIURL,
		apiKey:     apiKey,
		maxResults: 3,
	}
}

// Search implements components.WebSearcher.
func (s *SerpAPISearcher) Search(ctx context.Context, query string) (string, error) {
	if s.apiKey == "" {
		return "Web search not available (no API key configured)", nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", s.apiKey)
	params.Set("num", fmt.Sprintf("%d", s.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create web search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read web search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("web search returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed serpAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode web search response: %w", err)
	}
	if len(parsed.OrganicResults) == 0 {
		return "No recent web results found", nil
	}

	var formatted []string
	for i, result := range parsed.OrganicResults {
		if i >= s.maxResults {
			break
		}
		if result.Title == "" || result.Snippet == "" {
			continue
		}
		formatted = append(formatted, fmt.Sprintf("Title: %s\nSummary: %s", result.Title, result.Snippet))
	}
	if len(formatted) == 0 {
		return "No recent web results found", nil
	}
	return strings.Join(formatted, "\n\n"), nil
}
