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
	"log/slog"
	"strings"
)

// RetrievedDocument is one chunk returned by the vector store.
type RetrievedDocument struct {
	Content  string
	Source   string
	Distance float64
}

// Retriever is the vector search collaborator the knowledge_base component
// executes against. The Weaviate implementation lives in the retrieval
// package; tests substitute an in-memory fake.
type Retriever interface {
	Search(ctx context.Context, class, query string, limit int) ([]RetrievedDocument, error)
}

// KnowledgeBaseComponent retrieves document context for a query. Finding no
// documents is a success with an empty context, not a failure: downstream
// generation still runs, just without retrieved grounding. A retrieval error
// is treated the same way so a degraded vector store does not take the whole
// run down with it.
type KnowledgeBaseComponent struct {
	id           string
	chunkSize    int
	chunkOverlap int
	class        string
	topK         int
	retriever    Retriever
}

// NewKnowledgeBaseFactory returns the factory for knowledge_base nodes.
// The retriever may be nil when the service runs without a vector store;
// nodes of this type then fail cleanly at execution time.
//
// Config keys:
//   - chunk_size (int): ingestion chunk size this node expects, default 1000
//   - chunk_overlap (int): ingestion chunk overlap, default 200
//   - collection_name (string): Weaviate class to search, default "Document"
//   - top_k (int): maximum chunks to retrieve, default 5
func NewKnowledgeBaseFactory(retriever Retriever) Factory {
	return func(id string, config map[string]any) (Component, error) {
		return &KnowledgeBaseComponent{
			id:           id,
			chunkSize:    intOption(config, "chunk_size", 1000),
			chunkOverlap: intOption(config, "chunk_overlap", 200),
			class:        stringOption(config, "collection_name", "Document"),
			topK:         intOption(config, "top_k", 5),
			retriever:    retriever,
		}, nil
	}
}

func (c *KnowledgeBaseComponent) ID() string   { return c.id }
func (c *KnowledgeBaseComponent) Type() string { return TypeKnowledgeBase }

// Execute searches the vector store and combines the retrieved chunks into a
// single context string separated by blank lines.
func (c *KnowledgeBaseComponent) Execute(ctx context.Context, inputs map[string]any) *Result {
	query, _ := inputs["query"].(string)
	if query == "" {
		return Fail("no query provided for knowledge base search")
	}
	if c.retriever == nil {
		return Fail("knowledge base is not configured: vector store unavailable")
	}

	docs, err := c.retriever.Search(ctx, c.class, query, c.topK)
	if err != nil {
		// Degrade to an empty context rather than failing the run.
		slog.Warn("Knowledge base search failed, continuing with empty context",
			"node", c.id, "class", c.class, "error", err)
		docs = nil
	}

	metadata := map[string]any{
		"component_type":  TypeKnowledgeBase,
		"component_id":    c.id,
		"collection_name": c.class,
	}

	if len(docs) == 0 {
		return Ok(map[string]any{
			"context":         "",
			"documents_found": 0,
			"query":           query,
		}, metadata)
	}

	parts := make([]string, 0, len(docs))
	sources := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Content != "" {
			parts = append(parts, doc.Content)
		}
		sources = append(sources, doc.Source)
	}

	return Ok(map[string]any{
		"context":         strings.Join(parts, "\n\n"),
		"documents_found": len(docs),
		"query":           query,
		"sources":         sources,
	}, metadata)
}

func (c *KnowledgeBaseComponent) ValidateConfig() bool {
	return c.chunkSize > 0 &&
		c.chunkOverlap >= 0 &&
		c.chunkOverlap < c.chunkSize &&
		c.topK > 0
}

func (c *KnowledgeBaseComponent) InputSchema() Schema {
	return Schema{
		"query": {Type: "string", Description: "Query to search in knowledge base", Required: true},
	}
}

func (c *KnowledgeBaseComponent) OutputSchema() Schema {
	return Schema{
		"context":         {Type: "string", Description: "Relevant context from documents"},
		"documents_found": {Type: "integer", Description: "Number of relevant documents found"},
		"query":           {Type: "string", Description: "Original search query"},
		"sources":         {Type: "array", Description: "List of document sources"},
	}
}

func (c *KnowledgeBaseComponent) RequiredInputs() []string { return []string{"query"} }
func (c *KnowledgeBaseComponent) OptionalInputs() []string { return nil }
