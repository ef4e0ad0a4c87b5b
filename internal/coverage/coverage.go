// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coverage decides whether locally retrieved results cover a query
// well enough or whether an external source should be consulted.
package coverage

import (
	"time"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Window is the number of leading scores averaged by Score.
const Window = 5

const (
	DefaultThreshold   = 0.5
	DefaultTool        = "arxiv_latest"
	DefaultResultLimit = 10
	DefaultTimeout     = 30 * time.Second
)

// Score returns the mean of the first Window scores, or 0 when there are none.
func Score(scores []float64) float64 {
	n := min(len(scores), Window)
	if n == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores[:n] {
		sum += s
	}
	return sum / float64(n)
}

// RankedScores returns the primary scores of ranked results in rank order.
func RankedScores(ranked []types.RankedResult) []float64 {
	out := make([]float64, len(ranked))
	for i, r := range ranked {
		out[i] = r.PrimaryScore
	}
	return out
}

// Evaluator turns a coverage score into a CoverageDecision.
type Evaluator struct {
	Threshold   float64
	Enabled     bool
	DefaultTool string
	ResultLimit int
	Timeout     time.Duration
}

// NewEvaluator returns an evaluator with the default tool settings.
func NewEvaluator(threshold float64, enabled bool) Evaluator {
	return Evaluator{
		Threshold:   threshold,
		Enabled:     enabled,
		DefaultTool: DefaultTool,
		ResultLimit: DefaultResultLimit,
		Timeout:     DefaultTimeout,
	}
}

// Decide triggers external augmentation iff augmentation is enabled, the
// caller requested it and score is strictly below the threshold.
func (e Evaluator) Decide(score float64, requested bool, query string) types.CoverageDecision {
	if !e.Enabled || !requested || score >= e.Threshold {
		return types.CoverageDecision{}
	}

	tool := e.DefaultTool
	if tool == "" {
		tool = DefaultTool
	}
	limit := e.ResultLimit
	if limit < 1 || limit > 100 {
		limit = DefaultResultLimit
	}
	timeout := e.Timeout
	if timeout < 5*time.Second || timeout > 300*time.Second {
		timeout = DefaultTimeout
	}

	return types.CoverageDecision{
		ShouldUseExternal: true,
		Tool: &types.ToolContext{
			ToolName:    tool,
			Query:       query,
			ResultLimit: limit,
			Timeout:     timeout,
		},
	}
}
