// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianFlow/services/workflow/components"
	"github.com/AleutianAI/AleutianFlow/services/workflow/datatypes"
	"github.com/AleutianAI/AleutianFlow/services/workflow/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("aleutian.workflow.engine")

// inputRouting is the producer-type to consumer-field contract: for each
// predecessor, the listed fields are copied from its result into the
// current node's inputs. Routing is keyed purely on the producer's declared
// type, not on edge labels; when two predecessors emit the same field the
// later one in edge insertion order wins. That collision policy is
// long-standing observable behavior and is kept as is.
var inputRouting = map[string][]string{
	components.TypeUserQuery:     {"query"},
	components.TypeKnowledgeBase: {"query", "context"},
	components.TypeLLMEngine:     {"query", "response"},
}

// Engine runs validated workflow graphs. It owns the execution log for its
// lifetime and consults the component registry for every node it drives.
//
// Engine does not serialize runs itself; concurrent callers must go through
// a serializing owner (handlers.WorkflowRunner) because the execution log
// assumes one writer at a time.
type Engine struct {
	registry *components.Registry
	log      *ExecutionLog
	metrics  *observability.WorkflowMetrics
}

// New creates an Engine. metrics may be nil (tests run without a registry
// of Prometheus collectors).
func New(registry *components.Registry, log *ExecutionLog, metrics *observability.WorkflowMetrics) *Engine {
	return &Engine{registry: registry, log: log, metrics: metrics}
}

// ExecutionLog exposes the engine-owned run history for the read endpoints.
func (e *Engine) ExecutionLog() *ExecutionLog {
	return e.log
}

// RunResult is the outcome of a run: per-node result data keyed by node id,
// plus the log entry that was recorded for the run. On a failed run Results
// is nil and LogEntry carries the failed entry.
type RunResult struct {
	Results  map[string]map[string]any   `json:"results"`
	LogEntry datatypes.ExecutionLogEntry `json:"execution_log"`
}

// Run executes the workflow once for the given query.
//
// On success it returns the results map and records one completed log entry.
// On any failure — structural validation, unknown component type, component
// failure, or an unexpected internal fault — it records exactly one failed
// log entry and returns it alongside the error; partial results are
// discarded. The returned RunResult is never nil, so callers always have the
// run's own log entry without re-reading the log.
func (e *Engine) Run(ctx context.Context, wf *datatypes.Workflow, query string) (*RunResult, error) {
	ctx, span := tracer.Start(ctx, "Engine.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("workflow.id", wf.ID),
		attribute.Int("workflow.nodes", len(wf.Nodes)),
		attribute.Int("workflow.edges", len(wf.Edges)),
	)

	if e.metrics != nil {
		e.metrics.ActiveRuns.Inc()
		defer e.metrics.ActiveRuns.Dec()
	}
	started := time.Now()

	results, err := e.execute(ctx, wf, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		wrapped := fmt.Errorf("workflow execution failed: %w", err)
		entry := datatypes.ExecutionLogEntry{
			Timestamp:  time.Now(),
			WorkflowID: wf.ID,
			Query:      query,
			Status:     datatypes.StatusFailed,
			Error:      wrapped.Error(),
		}
		e.log.Record(entry)
		if e.metrics != nil {
			e.metrics.RecordRun(datatypes.StatusFailed, time.Since(started).Seconds())
		}
		slog.Error("Workflow execution failed", "workflowId", wf.ID, "error", err)
		return &RunResult{LogEntry: entry}, wrapped
	}

	entry := datatypes.ExecutionLogEntry{
		Timestamp:  time.Now(),
		WorkflowID: wf.ID,
		Query:      query,
		Status:     datatypes.StatusCompleted,
		Results:    results,
	}
	e.log.Record(entry)
	if e.metrics != nil {
		e.metrics.RecordRun(datatypes.StatusCompleted, time.Since(started).Seconds())
	}
	slog.Info("Workflow execution completed",
		"workflowId", wf.ID, "nodes_executed", len(results),
		"duration_ms", time.Since(started).Milliseconds())

	return &RunResult{Results: results, LogEntry: entry}, nil
}

// execute performs validation and the node loop. Any panic from orchestration
// itself is converted into an ordinary error at this boundary so Run's
// exactly-one-log-entry invariant holds on every path.
func (e *Engine) execute(ctx context.Context, wf *datatypes.Workflow, query string) (results map[string]map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := validateWorkflow(wf.Nodes, wf.Edges); err != nil {
		return nil, err
	}

	g := buildExecutionGraph(wf.Nodes, wf.Edges)
	order, err := g.topologicalOrder()
	if err != nil {
		return nil, err
	}

	results = make(map[string]map[string]any, len(order))
	for _, nodeID := range order {
		node := g.nodes[nodeID]
		if node.componentType == "" {
			// Edge endpoint with no node definition; nothing to run.
			continue
		}

		component, err := e.registry.Create(node.componentType, node.id, node.config)
		if err != nil {
			return nil, &ComponentError{NodeID: node.id, Message: err.Error()}
		}

		inputs := buildInputs(node, g, results, query)

		_, nodeSpan := tracer.Start(ctx, "Engine.ExecuteNode")
		nodeSpan.SetAttributes(
			attribute.String("node.id", node.id),
			attribute.String("node.type", node.componentType),
		)
		result := component.Execute(ctx, inputs)
		if !result.Success {
			nodeSpan.SetStatus(codes.Error, result.Error)
			nodeSpan.End()
			if e.metrics != nil {
				e.metrics.RecordNode(node.componentType, "error")
			}
			return nil, &ComponentError{NodeID: node.id, Message: result.Error}
		}
		nodeSpan.End()
		if e.metrics != nil {
			e.metrics.RecordNode(node.componentType, "success")
		}

		results[node.id] = result.Data
		node.result = result.Data
	}

	return results, nil
}

// buildInputs assembles a node's input map from its predecessors' results
// according to the routing table. A user_query node receives the run's query
// and a timestamp regardless of predecessors. Fields a predecessor did not
// actually produce are copied as empty strings so consumers see a stable key
// set.
func buildInputs(node *graphNode, g *executionGraph, results map[string]map[string]any, query string) map[string]any {
	inputs := make(map[string]any)

	if node.componentType == components.TypeUserQuery {
		inputs["query"] = query
		inputs["timestamp"] = time.Now().Format(time.RFC3339)
		return inputs
	}

	for _, predID := range g.preds[node.id] {
		pred, ok := g.nodes[predID]
		if !ok {
			continue
		}
		fields, ok := inputRouting[pred.componentType]
		if !ok {
			continue
		}
		predResult := results[predID]
		for _, field := range fields {
			if v, ok := predResult[field]; ok {
				inputs[field] = v
			} else {
				inputs[field] = ""
			}
		}
	}
	return inputs
}
