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
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianFlow/services/workflow/components"
	"github.com/AleutianAI/AleutianFlow/services/workflow/datatypes"
	"github.com/AleutianAI/AleutianFlow/services/workflow/engine"
	"github.com/AleutianAI/AleutianFlow/services/workflow/store"
)

// ExecuteWorkflow runs a stored workflow against a query and persists an
// execution record. The per-node results and the run's log entry come back
// in the response so the editor can show intermediate outputs.
func ExecuteWorkflow(st *store.WorkflowStore, runner *WorkflowRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ExecuteRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: query is required"})
			return
		}

		wf, err := st.GetWorkflow(c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}

		executionID := uuid.New().String()
		runResult, runErr := runner.Run(c.Request.Context(), wf, req.Query)

		if runErr != nil {
			rec := &datatypes.ExecutionRecord{
				ID:         executionID,
				WorkflowID: wf.ID,
				Query:      req.Query,
				Log:        runResult.LogEntry,
				Status:     datatypes.StatusFailed,
			}
			if err := st.SaveExecution(rec); err != nil {
				slog.Error("Failed to persist failed execution", "workflowId", wf.ID, "error", err)
			}

			status := http.StatusInternalServerError
			if errors.Is(runErr, engine.ErrInvalidWorkflow) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{
				"success":       false,
				"execution_id":  executionID,
				"error":         runErr.Error(),
				"execution_log": runResult.LogEntry,
			})
			return
		}

		rec := &datatypes.ExecutionRecord{
			ID:         executionID,
			WorkflowID: wf.ID,
			Query:      req.Query,
			Response:   finalResponse(wf, runResult),
			Log:        runResult.LogEntry,
			Status:     datatypes.StatusCompleted,
		}
		if err := st.SaveExecution(rec); err != nil {
			slog.Error("Failed to persist execution", "workflowId", wf.ID, "error", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"execution_id":  executionID,
			"results":       runResult.Results,
			"execution_log": runResult.LogEntry,
		})
	}
}

// Chat runs a workflow and answers in a conversational shape: the output
// node's formatted response plus its follow-up suggestions.
func Chat(st *store.WorkflowStore, runner *WorkflowRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ChatRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: workflow_id and query are required"})
			return
		}

		wf, err := st.GetWorkflow(req.WorkflowID)
		if err != nil {
			respondStoreError(c, err)
			return
		}

		executionID := uuid.New().String()
		runResult, runErr := runner.Run(c.Request.Context(), wf, req.Query)
		if runErr != nil {
			rec := &datatypes.ExecutionRecord{
				ID:         executionID,
				WorkflowID: wf.ID,
				Query:      req.Query,
				Log:        runResult.LogEntry,
				Status:     datatypes.StatusFailed,
			}
			if err := st.SaveExecution(rec); err != nil {
				slog.Error("Failed to persist failed chat execution", "workflowId", wf.ID, "error", err)
			}

			status := http.StatusInternalServerError
			if errors.Is(runErr, engine.ErrInvalidWorkflow) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{
				"success":      false,
				"execution_id": executionID,
				"error":        runErr.Error(),
			})
			return
		}

		response := finalResponse(wf, runResult)
		var suggestions []string
		if outputID := wf.FirstNodeOfType(components.TypeOutput); outputID != "" {
			if data, ok := runResult.Results[outputID]; ok {
				if s, ok := data["follow_up_suggestions"].([]string); ok {
					suggestions = s
				}
			}
		}

		rec := &datatypes.ExecutionRecord{
			ID:         executionID,
			WorkflowID: wf.ID,
			Query:      req.Query,
			Response:   response,
			Log:        runResult.LogEntry,
			Status:     datatypes.StatusCompleted,
		}
		if err := st.SaveExecution(rec); err != nil {
			slog.Error("Failed to persist chat execution", "workflowId", wf.ID, "error", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"success":               true,
			"execution_id":          executionID,
			"response":              response,
			"follow_up_suggestions": suggestions,
		})
	}
}

// ListWorkflowExecutions returns the persisted execution history for one
// workflow, oldest first.
func ListWorkflowExecutions(st *store.WorkflowStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := st.GetWorkflow(id); err != nil {
			respondStoreError(c, err)
			return
		}

		limit := parseLimit(c, 50)
		records, err := st.ListExecutions(id, limit)
		if err != nil {
			slog.Error("Failed to list executions", "workflowId", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list executions"})
			return
		}
		if records == nil {
			records = []datatypes.ExecutionRecord{}
		}
		c.JSON(http.StatusOK, gin.H{"executions": records, "count": len(records)})
	}
}

// GetExecutionLogs returns the most recent in-memory log entries across all
// workflows run by this process.
func GetExecutionLogs(runner *WorkflowRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseLimit(c, 100)
		entries := runner.Recent(limit)
		if entries == nil {
			entries = []datatypes.ExecutionLogEntry{}
		}
		c.JSON(http.StatusOK, gin.H{"logs": entries, "count": len(entries)})
	}
}

// ClearExecutionLogs empties the in-memory execution log. Persisted
// execution records are untouched.
func ClearExecutionLogs(runner *WorkflowRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner.Clear()
		slog.Info("Execution log cleared")
		c.JSON(http.StatusOK, gin.H{"status": "cleared"})
	}
}

// finalResponse picks the run's user-facing answer: the output node's
// formatted_response when present, otherwise the llm_engine's raw response.
func finalResponse(wf *datatypes.Workflow, runResult *engine.RunResult) string {
	if outputID := wf.FirstNodeOfType(components.TypeOutput); outputID != "" {
		if data, ok := runResult.Results[outputID]; ok {
			if formatted, ok := data["formatted_response"].(string); ok && formatted != "" {
				return formatted
			}
		}
	}
	if llmID := wf.FirstNodeOfType(components.TypeLLMEngine); llmID != "" {
		if data, ok := runResult.Results[llmID]; ok {
			if response, ok := data["response"].(string); ok {
				return response
			}
		}
	}
	return ""
}

func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return limit
}
