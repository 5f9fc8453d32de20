// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianFlow/pkg/logging"
	"github.com/AleutianAI/AleutianFlow/services/llm"
	"github.com/AleutianAI/AleutianFlow/services/workflow/components"
	"github.com/AleutianAI/AleutianFlow/services/workflow/engine"
	"github.com/AleutianAI/AleutianFlow/services/workflow/handlers"
	"github.com/AleutianAI/AleutianFlow/services/workflow/observability"
	"github.com/AleutianAI/AleutianFlow/services/workflow/retrieval"
	"github.com/AleutianAI/AleutianFlow/services/workflow/routes"
	"github.com/AleutianAI/AleutianFlow/services/workflow/store"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("workflow-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newWeaviateClient parses WEAVIATE_SERVICE_URL and creates a client, or
// returns nil to run in lightweight mode (no document retrieval).
func newWeaviateClient() *weaviate.Client {
	weaviateURL := os.Getenv("WEAVIATE_SERVICE_URL")
	// Trim quotes and whitespace in case the container runtime passes them literally
	weaviateURL = strings.Trim(weaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("WEAVIATE_SERVICE_URL not set or empty. Running in lightweight mode (no document retrieval).")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_SERVICE_URL is invalid. Running in lightweight mode.",
			"url", weaviateURL, "error", err)
		return nil
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		return nil
	}
	return client
}

// newLLMClient picks the generation backend from LLM_BACKEND_TYPE. Without
// a configured backend the service falls back to the mock client so
// workflows stay runnable.
func newLLMClient() llm.LLMClient {
	switch os.Getenv("LLM_BACKEND_TYPE") {
	case "openai":
		client, err := llm.NewOpenAIClient()
		if err != nil {
			log.Fatalf("Failed to initialize OpenAI client: %v", err)
		}
		slog.Info("Using OpenAI LLM backend")
		return client
	case "ollama":
		client, err := llm.NewOllamaClient()
		if err != nil {
			log.Fatalf("Failed to initialize Ollama client: %v", err)
		}
		slog.Info("Using Ollama LLM backend")
		return client
	default:
		slog.Warn("LLM_BACKEND_TYPE not set or invalid, using the mock LLM backend")
		return llm.NewMockClient()
	}
}

func main() {
	port := os.Getenv("FLOW_PORT")
	if port == "" {
		port = "12300"
	}

	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  os.Getenv("FLOW_LOG_DIR"),
		Service: "workflow",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	weaviateClient := newWeaviateClient()

	var embedder *retrieval.HTTPEmbedder
	if embeddingURL := os.Getenv("EMBEDDING_SERVICE_URL"); embeddingURL != "" {
		embedder = retrieval.NewHTTPEmbedder(embeddingURL)
	} else {
		slog.Warn("EMBEDDING_SERVICE_URL not set; retrieval and ingestion are disabled")
	}

	llmClient := newLLMClient()
	webSearcher := retrieval.NewSerpAPISearcher(os.Getenv("SERPAPI_API_KEY"))

	dbPath := os.Getenv("FLOW_DB_PATH")
	if dbPath == "" {
		dbPath = "/data/workflows"
	}
	workflowStore, err := store.Open(store.Config{Path: dbPath})
	if err != nil {
		log.Fatalf("Failed to open the workflow store: %v", err)
	}
	defer workflowStore.Close()

	// Keep the Retriever interface nil when Weaviate is absent; a typed
	// nil would defeat the component's availability check.
	var retriever components.Retriever
	if weaviateClient != nil && embedder != nil {
		retriever = retrieval.NewWeaviateSearcher(weaviateClient, embedder)
	}

	registry := components.NewRegistry()
	registry.Register(components.TypeUserQuery, components.NewUserQueryFactory())
	registry.Register(components.TypeKnowledgeBase, components.NewKnowledgeBaseFactory(retriever))
	registry.Register(components.TypeLLMEngine, components.NewLLMEngineFactory(llmClient, webSearcher))
	registry.Register(components.TypeOutput, components.NewOutputFactory())

	metrics := observability.NewWorkflowMetrics()
	eng := engine.New(registry, engine.NewExecutionLog(), metrics)
	runner := handlers.NewWorkflowRunner(eng)

	router := gin.Default()
	router.Use(otelgin.Middleware("workflow-service"))

	var batchEmbedder handlers.BatchEmbedder
	if embedder != nil {
		batchEmbedder = embedder
	}
	routes.SetupRoutes(router, workflowStore, runner, registry, weaviateClient, batchEmbedder)

	slog.Info("Starting the workflow server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
