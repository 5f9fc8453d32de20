// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

const (
	documentClass = "Document"
	chunkSize     = 1000
	chunkOverlap  = chunkSize / 10
)

var (
	defaultSeparators  = []string{"\n\n", "\n", " ", ""}
	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ",
		"\n\n", "\n", " ", "",
	}
	codeSeparators = []string{
		"\nfunction ", "\nclass ", "\ndef ", "\nfunc ", "\ntype ",
		"\n\n", "\n", " ", "",
	}
)

// BatchEmbedder is the slice of the embedding client ingestion needs.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestDocumentRequest is the POST /v1/documents body.
type IngestDocumentRequest struct {
	Content string `json:"content" binding:"required"`
	Source  string `json:"source" binding:"required"`
}

// IngestDocument splits a document into chunks, embeds them in one batch
// call, and imports them into Weaviate so knowledge_base nodes can retrieve
// them. Chunk ids are derived from the chunk content, so re-ingesting the
// same document overwrites rather than duplicates.
func IngestDocument(client *weaviate.Client, embedder BatchEmbedder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || embedder == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Document storage not configured"})
			return
		}

		var req IngestDocumentRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: content and source are required"})
			return
		}

		chunksCreated, err := runIngestion(c.Request.Context(), client, embedder, req)
		if err != nil {
			slog.Error("Ingestion failed", "source", req.Source, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		slog.Info("Document ingested", "source", req.Source, "chunks_processed", chunksCreated)
		c.JSON(http.StatusCreated, gin.H{
			"status":           "success",
			"source":           req.Source,
			"chunks_processed": chunksCreated,
		})
	}
}

// ListDocuments returns the distinct parent_source values of all ingested
// chunks.
func ListDocuments(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Document storage not configured"})
			return
		}

		agg, err := client.GraphQL().Aggregate().
			WithClassName(documentClass).
			WithGroupBy("parent_source").
			Do(c.Request.Context())
		if err != nil {
			slog.Error("Failed to aggregate documents", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query documents"})
			return
		}

		docList := parseAggregateSources(agg.Data)
		if docList == nil {
			docList = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"documents": docList, "count": len(docList)})
	}
}

func runIngestion(ctx context.Context, client *weaviate.Client, embedder BatchEmbedder, req IngestDocumentRequest) (int, error) {
	splitter := splitterForFile(req.Source)
	chunks, err := splitter.SplitText(req.Content)
	if err != nil {
		return 0, fmt.Errorf("failed to split content: %w", err)
	}
	if len(chunks) == 0 {
		slog.Warn("No chunks produced after splitting", "source", req.Source)
		return 0, nil
	}

	vectors, err := embedder.BatchEmbed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		hash := sha256.Sum256([]byte(chunk))
		chunkUUID, _ := uuid.FromBytes(hash[:16])

		objects[i] = &models.Object{
			Class:  documentClass,
			ID:     strfmt.UUID(chunkUUID.String()),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"content":       chunk,
				"source":        fmt.Sprintf("%s_part_%d", req.Source, i+1),
				"parent_source": req.Source,
				"ingested_at":   time.Now().UnixMilli(),
			},
		}
	}

	resp, err := client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to import chunks into Weaviate: %w", err)
	}

	chunksCreated := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			chunksCreated++
			continue
		}
		if item.Result != nil && item.Result.Errors != nil {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Weaviate batch item failed", "source", req.Source, "error", errItem.Message)
			}
		}
	}
	return chunksCreated, nil
}

// parseAggregateSources walks the untyped aggregate response shape
// {Aggregate: {Document: [{groupedBy: {value}}]}}.
func parseAggregateSources(data map[string]models.JSONObject) []string {
	aggMap, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return nil
	}
	groups, ok := aggMap[documentClass].([]interface{})
	if !ok {
		return nil
	}

	var sources []string
	for _, groupItem := range groups {
		groupMap, ok := groupItem.(map[string]interface{})
		if !ok {
			continue
		}
		groupedBy, ok := groupMap["groupedBy"].(map[string]interface{})
		if !ok {
			continue
		}
		if source, ok := groupedBy["value"].(string); ok {
			sources = append(sources, source)
		}
	}
	return sources
}

func splitterForFile(filename string) textsplitter.TextSplitter {
	separators := defaultSeparators
	switch filepath.Ext(filename) {
	case ".md":
		separators = markdownSeparators
	case ".py", ".js", ".ts", ".java", ".c", ".cpp", ".rs", ".go":
		separators = codeSeparators
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(separators),
	)
}
