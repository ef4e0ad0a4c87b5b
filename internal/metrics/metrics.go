// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics registers the Prometheus collectors shared by the
// workflows, the reranker and the external-tool gateway.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WorkflowRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_agent_workflow_runs_total",
			Help: "Workflow runs by workflow and terminal status",
		},
		[]string{"workflow", "status"},
	)

	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_agent_node_duration_seconds",
			Help:    "Duration of workflow nodes",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"workflow", "node"},
	)

	RerankRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_agent_rerank_total",
			Help: "Rerank calls by requested strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_agent_tool_invocations_total",
			Help: "External tool invocations by tool and result",
		},
		[]string{"tool", "result"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_agent_tool_duration_seconds",
			Help:    "Duration of external tool invocations",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"tool"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "research_agent_circuit_breaker_state",
			Help: "Circuit breaker state per tool (0=closed, 1=half-open, 2=open)",
		},
		[]string{"tool"},
	)

	AnalysisOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_agent_analysis_total",
			Help: "Analyses by kind and whether the LLM or the heuristic produced them",
		},
		[]string{"kind", "outcome"},
	)

	EmbeddingCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_agent_embedding_cache_total",
			Help: "Embedding cache lookups by result",
		},
		[]string{"result"},
	)
)

// ObserveNode records the duration of one workflow node.
func ObserveNode(workflow, node string, start time.Time) {
	NodeDuration.WithLabelValues(workflow, node).Observe(time.Since(start).Seconds())
}

// ObserveTool records the outcome and duration of one tool invocation.
func ObserveTool(tool string, success bool, d time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	ToolInvocations.WithLabelValues(tool, result).Inc()
	ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// Serve exposes the default registry on addr at /metrics. It blocks until
// the server stops; http.ErrServerClosed is not reported.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
