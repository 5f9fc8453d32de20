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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianFlow/services/workflow/components"
	"github.com/AleutianAI/AleutianFlow/services/workflow/datatypes"
	"github.com/AleutianAI/AleutianFlow/services/workflow/store"
)

// CreateWorkflow stores a new workflow definition. The graph is not
// validated here; validation happens on every execution because the editor
// saves intermediate states freely.
func CreateWorkflow(st *store.WorkflowStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CreateWorkflowRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		wf := &datatypes.Workflow{
			Name:        req.Name,
			Description: req.Description,
			Nodes:       req.Nodes,
			Edges:       req.Edges,
		}
		if err := st.SaveWorkflow(wf); err != nil {
			slog.Error("Failed to save workflow", "name", req.Name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save workflow"})
			return
		}

		slog.Info("Workflow created", "workflowId", wf.ID, "name", wf.Name,
			"nodes", len(wf.Nodes), "edges", len(wf.Edges))
		c.JSON(http.StatusCreated, wf)
	}
}

// ListWorkflows returns all active workflows.
func ListWorkflows(st *store.WorkflowStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		workflows, err := st.ListWorkflows()
		if err != nil {
			slog.Error("Failed to list workflows", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list workflows"})
			return
		}
		if workflows == nil {
			workflows = []datatypes.Workflow{}
		}
		c.JSON(http.StatusOK, gin.H{"workflows": workflows, "count": len(workflows)})
	}
}

// GetWorkflow returns one workflow by id.
func GetWorkflow(st *store.WorkflowStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		wf, err := st.GetWorkflow(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, wf)
	}
}

// UpdateWorkflow applies a partial update to a stored workflow. Only the
// fields present in the request body change.
func UpdateWorkflow(st *store.WorkflowStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UpdateWorkflowRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		wf, err := st.GetWorkflow(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}

		if req.Name != nil {
			wf.Name = *req.Name
		}
		if req.Description != nil {
			wf.Description = *req.Description
		}
		if req.Nodes != nil {
			wf.Nodes = req.Nodes
		}
		if req.Edges != nil {
			wf.Edges = req.Edges
		}
		if req.Active != nil {
			wf.Active = *req.Active
		}

		if err := st.UpdateWorkflow(wf); err != nil {
			slog.Error("Failed to update workflow", "workflowId", wf.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update workflow"})
			return
		}
		c.JSON(http.StatusOK, wf)
	}
}

// DeleteWorkflow soft-deletes a workflow. Its execution history stays
// readable.
func DeleteWorkflow(st *store.WorkflowStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := st.DeleteWorkflow(id); err != nil {
			respondStoreError(c, err)
			return
		}
		slog.Info("Workflow deleted", "workflowId", id)
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "workflow_id": id})
	}
}

// UpdateModelRequest is the PATCH /v1/workflows/:id/model body.
type UpdateModelRequest struct {
	Model string `json:"model" binding:"required"`
}

// UpdateWorkflowModel rewrites the model config on every llm_engine node in
// the workflow. The UI calls this when the user switches models without
// reopening the editor.
func UpdateWorkflowModel(st *store.WorkflowStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateModelRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		wf, err := st.GetWorkflow(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}

		updated := 0
		for i := range wf.Nodes {
			if wf.Nodes[i].Data.Type != components.TypeLLMEngine {
				continue
			}
			if wf.Nodes[i].Data.Config == nil {
				wf.Nodes[i].Data.Config = map[string]any{}
			}
			wf.Nodes[i].Data.Config["model"] = req.Model
			updated++
		}
		if updated == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Workflow has no llm_engine node"})
			return
		}

		if err := st.UpdateWorkflow(wf); err != nil {
			slog.Error("Failed to update workflow model", "workflowId", wf.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update workflow"})
			return
		}

		slog.Info("Workflow model updated", "workflowId", wf.ID, "model", req.Model,
			"nodes_updated", updated)
		c.JSON(http.StatusOK, gin.H{
			"status":        "updated",
			"workflow_id":   wf.ID,
			"model":         req.Model,
			"nodes_updated": updated,
		})
	}
}

// respondStoreError maps store errors onto HTTP statuses.
func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrWorkflowNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workflow not found"})
		return
	}
	slog.Error("Workflow store error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Workflow store error"})
}
