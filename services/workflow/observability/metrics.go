// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the workflow
// service. Metrics are exposed on /metrics; all operations are thread-safe
// via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace  = "aleutian"
	workflowSubsystem = "workflow"
)

// WorkflowMetrics holds the Prometheus metrics for workflow execution.
// Initialize once at startup via NewWorkflowMetrics; promauto registers
// everything on the default registerer.
type WorkflowMetrics struct {
	// ExecutionsTotal counts workflow runs by final status.
	// Labels: status (completed, failed)
	ExecutionsTotal *prometheus.CounterVec

	// ExecutionDurationSeconds measures end-to-end run duration.
	// Labels: status (completed, failed)
	ExecutionDurationSeconds *prometheus.HistogramVec

	// NodeExecutionsTotal counts individual component executions.
	// Labels: component_type, status (success, error)
	NodeExecutionsTotal *prometheus.CounterVec

	// ActiveRuns tracks runs currently in flight.
	ActiveRuns prometheus.Gauge
}

// NewWorkflowMetrics creates and registers the workflow metric set.
func NewWorkflowMetrics() *WorkflowMetrics {
	return &WorkflowMetrics{
		ExecutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: workflowSubsystem,
			Name:      "executions_total",
			Help:      "Total workflow executions by final status.",
		}, []string{"status"}),
		ExecutionDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: workflowSubsystem,
			Name:      "execution_duration_seconds",
			Help:      "End-to-end workflow execution duration.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"status"}),
		NodeExecutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: workflowSubsystem,
			Name:      "node_executions_total",
			Help:      "Component executions by type and outcome.",
		}, []string{"component_type", "status"}),
		ActiveRuns: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: workflowSubsystem,
			Name:      "active_runs",
			Help:      "Workflow runs currently in flight.",
		}),
	}
}

// RecordRun records one finished run.
func (m *WorkflowMetrics) RecordRun(status string, seconds float64) {
	m.ExecutionsTotal.WithLabelValues(status).Inc()
	m.ExecutionDurationSeconds.WithLabelValues(status).Observe(seconds)
}

// RecordNode records one component execution.
func (m *WorkflowMetrics) RecordNode(componentType, status string) {
	m.NodeExecutionsTotal.WithLabelValues(componentType, status).Inc()
}
