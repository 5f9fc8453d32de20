// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"fmt"
)

// MockClient is the fallback backend used when no real LLM is configured.
// It echoes a truncated view of the prompt so workflows remain exercisable
// on machines without model access, and tests get deterministic output.
type MockClient struct{}

// NewMockClient returns a MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Generate implements the LLMClient interface.
func (m *MockClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	preview := prompt
	if len(preview) > 500 {
		preview = preview[:500]
	}
	return fmt.Sprintf("(Mock) Generated answer for:\n%s\n\nNote: no LLM backend configured; returning a local mock response.", preview), nil
}
