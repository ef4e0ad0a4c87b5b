// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis produces the four research analyses (gaps, design
// suggestions, patterns, future directions) from ranked passages. Each
// analysis asks the LLM for structured JSON and falls back to a heuristic
// when generation or parsing fails.
package analysis

import (
	"context"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Generation defaults for analysis requests.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

var (
	gapConfidence     = Confidence{LLM: 0.85, Heuristic: 0.6}
	designConfidence  = Confidence{LLM: 0.85, Heuristic: 0.6}
	patternConfidence = Confidence{LLM: 0.80, Heuristic: 0.55}
	futureConfidence  = Confidence{LLM: 0.75, Heuristic: 0.5}
)

// Analyzer runs analyses against one generator.
type Analyzer struct {
	gen    llm.Generator
	logger *zap.Logger
	opts   llm.Options
}

// New returns an Analyzer. A nil generator makes every analysis use its
// heuristic.
func New(gen llm.Generator, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		gen:    gen,
		logger: logger,
		opts: llm.Options{
			SystemPrompt: systemPrompt,
			Temperature:  DefaultTemperature,
			MaxTokens:    DefaultMaxTokens,
		},
	}
}

// Gap identifies research gaps.
func (a *Analyzer) Gap(ctx context.Context, ranked []types.RankedResult) *types.GapAnalysis {
	c := BuildContext(ranked)
	if c.Empty() {
		return &types.GapAnalysis{}
	}
	v, conf, outcome := run(ctx, a, c, "gap_analysis", gapPromptTmpl,
		"identified_gaps, research_areas, missing_benchmarks, underexplored_topics",
		func(g types.GapAnalysis) bool {
			return hasAny(g.IdentifiedGaps, g.ResearchAreas, g.MissingBenchmarks, g.UnderexploredTopics)
		},
		gapHeuristic, gapConfidence)
	v.Assessment = assess(c, conf, outcome, v.IdentifiedGaps, v.ResearchAreas, v.MissingBenchmarks, v.UnderexploredTopics)
	return &v
}

// Design suggests approaches and architectural improvements.
func (a *Analyzer) Design(ctx context.Context, ranked []types.RankedResult) *types.DesignSuggestion {
	c := BuildContext(ranked)
	if c.Empty() {
		return &types.DesignSuggestion{}
	}
	v, conf, outcome := run(ctx, a, c, "design_suggestion", designPromptTmpl,
		"suggested_approaches, architectural_improvements, implementation_strategies, trade_offs",
		func(d types.DesignSuggestion) bool {
			return hasAny(d.SuggestedApproaches, d.ArchitecturalImprovements, d.ImplementationStrategies, d.TradeOffs)
		},
		designHeuristic, designConfidence)
	v.Assessment = assess(c, conf, outcome, v.SuggestedApproaches, v.ArchitecturalImprovements, v.ImplementationStrategies, v.TradeOffs)
	return &v
}

// Pattern detects recurring methods and trends.
func (a *Analyzer) Pattern(ctx context.Context, ranked []types.RankedResult) *types.PatternDetection {
	c := BuildContext(ranked)
	if c.Empty() {
		return &types.PatternDetection{}
	}
	v, conf, outcome := run(ctx, a, c, "pattern_detection", patternPromptTmpl,
		"patterns_found, trend_analysis, emerging_methods",
		func(p types.PatternDetection) bool {
			return hasAny(p.PatternsFound, p.TrendAnalysis, p.EmergingMethods)
		},
		patternHeuristic, patternConfidence)
	v.Assessment = assess(c, conf, outcome, v.PatternsFound, v.TrendAnalysis, v.EmergingMethods)
	return &v
}

// Future projects next steps and open questions.
func (a *Analyzer) Future(ctx context.Context, ranked []types.RankedResult) *types.FutureDirections {
	c := BuildContext(ranked)
	if c.Empty() {
		return &types.FutureDirections{}
	}
	v, conf, outcome := run(ctx, a, c, "future_directions", futurePromptTmpl,
		"next_steps, open_questions, future_applications",
		func(f types.FutureDirections) bool {
			return hasAny(f.NextSteps, f.OpenQuestions, f.FutureApplications)
		},
		futureHeuristic, futureConfidence)
	v.Assessment = assess(c, conf, outcome, v.NextSteps, v.OpenQuestions, v.FutureApplications)
	return &v
}

func run[T any](ctx context.Context, a *Analyzer, c Context, kind string, tmpl *template.Template, keys string,
	valid func(T) bool, heuristic func() T, conf Confidence) (T, float64, Outcome) {
	prompt, err := renderPrompt(tmpl, c.Text, keys)
	if err != nil {
		a.logger.Error("rendering prompt", zap.String("kind", kind), zap.Error(err))
		prompt = ""
	}
	req := Request[T]{
		Kind:       kind,
		Prompt:     prompt,
		Options:    a.opts,
		Valid:      valid,
		Heuristic:  heuristic,
		Confidence: conf,
	}
	if prompt == "" {
		// Skip the model when there is no prompt to send.
		return GenerateWithFallback[T](ctx, nil, a.logger, req)
	}
	v, score, outcome := GenerateWithFallback(ctx, a.gen, a.logger, req)
	a.logger.Debug("analysis complete",
		zap.String("kind", kind),
		zap.String("outcome", string(outcome)),
		zap.Float64("confidence", score),
	)
	return v, score, outcome
}

func assess(c Context, conf float64, outcome Outcome, lists ...[]string) types.Assessment {
	var findings []string
	for _, l := range lists {
		findings = append(findings, l...)
	}
	return types.Assessment{
		Confidence:   conf,
		Faithfulness: Faithfulness(findings, c.Text),
		Sources:      c.Sources,
		Heuristic:    outcome == OutcomeHeuristic,
	}
}

func hasAny(lists ...[]string) bool {
	for _, l := range lists {
		for _, s := range l {
			if strings.TrimSpace(s) != "" {
				return true
			}
		}
	}
	return false
}
