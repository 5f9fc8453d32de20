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
	"fmt"

	"github.com/AleutianAI/AleutianFlow/services/workflow/components"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("aleutian.workflow.retrieval")

// Compile-time interface implementation check.
var _ components.Retriever = (*WeaviateSearcher)(nil)

// WeaviateSearcher retrieves document chunks by vector similarity. It embeds
// the query through the embedding sidecar and runs a nearVector search
// against the given class.
//
// The searcher is safe for concurrent use; the underlying Weaviate client
// handles connection pooling.
type WeaviateSearcher struct {
	client   *weaviate.Client
	embedder EmbeddingProvider
}

// NewWeaviateSearcher creates a searcher over the given client and embedder.
func NewWeaviateSearcher(client *weaviate.Client, embedder EmbeddingProvider) *WeaviateSearcher {
	return &WeaviateSearcher{client: client, embedder: embedder}
}

// Search implements components.Retriever.
func (s *WeaviateSearcher) Search(ctx context.Context, class, query string, limit int) ([]components.RetrievedDocument, error) {
	ctx, span := tracer.Start(ctx, "WeaviateSearcher.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("class", class),
		attribute.Int("limit", limit),
	)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "parent_source"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate query failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query returned an error: %s", result.Errors[0].Message)
	}

	get, ok := result.Data["Get"].(map[string]any)
	if !ok {
		return nil, nil
	}
	docs := parseSearchResponse(get, class)
	span.SetAttributes(attribute.Int("documents_found", len(docs)))
	return docs, nil
}

// parseSearchResponse walks the untyped GraphQL response shape
// {<class>: [{content, parent_source, _additional:{distance}}]}.
func parseSearchResponse(get map[string]any, class string) []components.RetrievedDocument {
	items, ok := get[class].([]any)
	if !ok {
		return nil
	}

	docs := make([]components.RetrievedDocument, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		doc := components.RetrievedDocument{}
		if content, ok := obj["content"].(string); ok {
			doc.Content = content
		}
		if source, ok := obj["parent_source"].(string); ok {
			doc.Source = source
		}
		if additional, ok := obj["_additional"].(map[string]any); ok {
			if distance, ok := additional["distance"].(float64); ok {
				doc.Distance = distance
			}
		}
		docs = append(docs, doc)
	}
	return docs
}
