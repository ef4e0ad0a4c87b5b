// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/metrics"
)

// Outcome records which path produced an analysis.
type Outcome string

const (
	OutcomeLLM       Outcome = "llm"
	OutcomeHeuristic Outcome = "heuristic"
	OutcomeEmpty     Outcome = "empty"
)

// Confidence pairs the confidence reported for a model answer with the
// lower value reported for the heuristic.
type Confidence struct {
	LLM       float64
	Heuristic float64
}

// Request describes one structured generation.
type Request[T any] struct {
	// Kind labels the request in logs and metrics.
	Kind    string
	Prompt  string
	Options llm.Options

	// Valid rejects decoded values that carry no findings.
	Valid func(T) bool

	// Heuristic produces the fallback value.
	Heuristic  func() T
	Confidence Confidence
}

var errNoJSON = errors.New("no JSON object in response")

// GenerateWithFallback asks gen for a JSON object, decodes it into T and
// validates it. Any failure on that path yields req.Heuristic() with the
// heuristic confidence instead. It never returns an error.
func GenerateWithFallback[T any](ctx context.Context, gen llm.Generator, logger *zap.Logger, req Request[T]) (T, float64, Outcome) {
	if logger == nil {
		logger = zap.NewNop()
	}

	v, err := generateJSON[T](ctx, gen, req)
	if err == nil && req.Valid != nil && !req.Valid(v) {
		err = errors.New("response has no findings")
	}
	if err == nil {
		metrics.AnalysisOutcomes.WithLabelValues(req.Kind, string(OutcomeLLM)).Inc()
		return v, req.Confidence.LLM, OutcomeLLM
	}

	logger.Warn("LLM analysis failed, using heuristic",
		zap.String("kind", req.Kind),
		zap.Error(err),
	)
	metrics.AnalysisOutcomes.WithLabelValues(req.Kind, string(OutcomeHeuristic)).Inc()

	var fallback T
	if req.Heuristic != nil {
		fallback = req.Heuristic()
	}
	return fallback, req.Confidence.Heuristic, OutcomeHeuristic
}

func generateJSON[T any](ctx context.Context, gen llm.Generator, req Request[T]) (T, error) {
	var v T
	if gen == nil {
		return v, errors.New("no generator configured")
	}
	raw, err := gen.Generate(ctx, req.Prompt, req.Options)
	if err != nil {
		return v, fmt.Errorf("generating: %w", err)
	}
	obj, err := extractJSON(raw)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return v, fmt.Errorf("parsing response JSON: %w", err)
	}
	return v, nil
}

// extractJSON returns the outermost JSON object in s. Markdown code fences
// and prose around the object are ignored.
func extractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		s = rest
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}
