// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/AleutianAI/AleutianFlow/services/workflow/components"
	"github.com/AleutianAI/AleutianFlow/services/workflow/handlers"
	"github.com/AleutianAI/AleutianFlow/services/workflow/store"
)

func SetupRoutes(router *gin.Engine, st *store.WorkflowStore, runner *handlers.WorkflowRunner,
	registry *components.Registry, weaviateClient *weaviate.Client, embedder handlers.BatchEmbedder) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.GET("/components", handlers.ListComponents(registry))
		v1.GET("/components/:type/schema", handlers.GetComponentSchema(registry))

		workflows := v1.Group("/workflows")
		{
			workflows.POST("", handlers.CreateWorkflow(st))
			workflows.GET("", handlers.ListWorkflows(st))
			workflows.GET("/:id", handlers.GetWorkflow(st))
			workflows.PUT("/:id", handlers.UpdateWorkflow(st))
			workflows.DELETE("/:id", handlers.DeleteWorkflow(st))
			workflows.PATCH("/:id/model", handlers.UpdateWorkflowModel(st))
			workflows.POST("/:id/execute", handlers.ExecuteWorkflow(st, runner))
			workflows.GET("/:id/executions", handlers.ListWorkflowExecutions(st))
		}

		v1.POST("/chat", handlers.Chat(st, runner))

		v1.POST("/documents", handlers.IngestDocument(weaviateClient, embedder))
		v1.GET("/documents", handlers.ListDocuments(weaviateClient))

		logs := v1.Group("/executions/logs")
		{
			logs.GET("", handlers.GetExecutionLogs(runner))
			logs.DELETE("", handlers.ClearExecutionLogs(runner))
		}
	}
}
