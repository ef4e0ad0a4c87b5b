// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RerankStrategy names a reranking strategy.
type RerankStrategy string

const (
	StrategyCrossEncoder RerankStrategy = "cross_encoder"
	StrategyDiversity    RerankStrategy = "semantic_diversity"
	StrategyEnsemble     RerankStrategy = "ensemble"
	StrategyFallback     RerankStrategy = "fallback"
)

// ModelVersion is stamped on every final response.
const ModelVersion = "1.0"

// ToolContext describes a single external-tool invocation.
type ToolContext struct {
	ToolName    string            `json:"tool_name" yaml:"tool_name"`
	Query       string            `json:"query" yaml:"query"`
	ResultLimit int               `json:"result_limit" yaml:"result_limit"`
	Timeout     time.Duration     `json:"timeout" yaml:"timeout"`
	Filters     map[string]string `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// CoverageDecision is computed once per research run.
type CoverageDecision struct {
	ShouldUseExternal bool         `json:"should_use_external" yaml:"should_use_external"`
	Tool              *ToolContext `json:"tool,omitempty" yaml:"tool,omitempty"`
}

// ToolResult is the uniform outcome of an external-tool invocation.
type ToolResult struct {
	ToolName string            `json:"tool_name" yaml:"tool_name"`
	Success  bool              `json:"success" yaml:"success"`
	Results  []RetrievalResult `json:"results" yaml:"results"`
	Error    string            `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration     `json:"execution_time" yaml:"execution_time"`
}

// ResearchState is threaded through the research workflow.
type ResearchState struct {
	RunID string `json:"run_id" yaml:"run_id"`
	Node  string `json:"node" yaml:"node"`

	Query        string       `json:"query" yaml:"query"`
	AnalysisType AnalysisType `json:"analysis_type" yaml:"analysis_type"`

	RetrievalLimit int            `json:"retrieval_limit" yaml:"retrieval_limit"`
	RerankStrategy RerankStrategy `json:"rerank_strategy" yaml:"rerank_strategy"`
	RerankLimit    int            `json:"rerank_limit" yaml:"rerank_limit"`

	UseExternal       bool    `json:"use_external" yaml:"use_external"`
	ExternalEnabled   bool    `json:"external_enabled" yaml:"external_enabled"`
	CoverageThreshold float64 `json:"coverage_threshold" yaml:"coverage_threshold"`
	CoverageScore     float64 `json:"coverage_score" yaml:"coverage_score"`

	Decision CoverageDecision `json:"decision" yaml:"decision"`

	RetrievalResults []RetrievalResult `json:"retrieval_results,omitempty" yaml:"retrieval_results,omitempty"`
	RankedResults    []RankedResult    `json:"ranked_results,omitempty" yaml:"ranked_results,omitempty"`
	ExternalResults  []RetrievalResult `json:"external_results,omitempty" yaml:"external_results,omitempty"`
	ToolResult       *ToolResult       `json:"tool_result,omitempty" yaml:"tool_result,omitempty"`

	Analyses AnalysisSet    `json:"analyses" yaml:"analyses"`
	Final    *FinalResponse `json:"final_response,omitempty" yaml:"final_response,omitempty"`

	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`

	// Error is non-empty when any stage failed. A terminal state with an
	// error still carries partial results.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// FinalResponse is the aggregated output of a research run.
type FinalResponse struct {
	Query              string        `json:"query" yaml:"query"`
	AnalysisType       AnalysisType  `json:"analysis_type" yaml:"analysis_type"`
	Timestamp          time.Time     `json:"timestamp" yaml:"timestamp"`
	RetrievedPapers    int           `json:"retrieved_papers" yaml:"retrieved_papers"`
	RankedResultsCount int           `json:"ranked_results_count" yaml:"ranked_results_count"`
	UsedExternal       bool          `json:"used_external" yaml:"used_external"`
	Analysis           AnalysisSet   `json:"analysis" yaml:"analysis"`
	Recommendations    []string      `json:"recommendations" yaml:"recommendations"`
	Sources            []string      `json:"sources" yaml:"sources"`
	AverageConfidence  float64       `json:"average_confidence" yaml:"average_confidence"`
	ExecutionTime      time.Duration `json:"execution_time" yaml:"execution_time"`
	ModelVersion       string        `json:"model_version" yaml:"model_version"`
	Error              string        `json:"error,omitempty" yaml:"error,omitempty"`
}
