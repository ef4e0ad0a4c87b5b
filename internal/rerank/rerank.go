// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rerank reorders retrieval candidates for a query.
//
// Four strategies are available: a cross-encoder that blends an external
// relevance score with the vector score, a maximal-marginal-relevance pass
// that trades relevance for diversity, a weighted ensemble of the other
// strategies, and a plain sort on the vector score. Engine dispatches by
// name and degrades to the plain sort whenever a strategy fails, so a
// caller always receives a ranking unless the ensemble configuration is
// itself invalid.
package rerank

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/metrics"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Strategy ranks candidates for a query and returns at most topK results.
// topK <= 0 keeps every candidate.
type Strategy interface {
	Rank(ctx context.Context, query string, results []types.RetrievalResult, topK int) ([]types.RankedResult, error)
}

// Scorer returns one raw relevance score per passage, in input order.
type Scorer interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Embedder returns one embedding per text, in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ConfigError reports an invalid reranking configuration. It is the only
// error Engine.Rerank returns.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid rerank configuration: " + e.Reason
}

// Options configures an Engine.
type Options struct {
	Scorer   Scorer
	Embedder Embedder

	// Lambda is the MMR relevance weight; zero means DefaultLambda.
	Lambda float64

	// Members are the ensemble members; nil means DefaultMembers.
	Members []Member

	Logger *zap.Logger
}

// Engine dispatches rerank requests to a named strategy.
type Engine struct {
	strategies map[types.RerankStrategy]Strategy
	ensemble   *Ensemble
	logger     *zap.Logger
}

// NewEngine wires the strategies from opts.
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lambda := opts.Lambda
	if lambda == 0 {
		lambda = DefaultLambda
	}
	members := opts.Members
	if members == nil {
		members = DefaultMembers()
	}

	strategies := map[types.RerankStrategy]Strategy{
		types.StrategyFallback:     fallbackStrategy{},
		types.StrategyCrossEncoder: &CrossEncoder{Scorer: opts.Scorer, Logger: logger},
		types.StrategyDiversity:    &Diversity{Embedder: opts.Embedder, Lambda: lambda, Logger: logger},
	}
	ens := &Ensemble{Members: members, Strategies: strategies, Logger: logger}
	strategies[types.StrategyEnsemble] = ens

	return &Engine{strategies: strategies, ensemble: ens, logger: logger}
}

// Validate checks the ensemble configuration without ranking anything.
func (e *Engine) Validate() error {
	return e.ensemble.Validate()
}

// Rerank ranks results with the named strategy. An unknown strategy, a
// strategy error or a panic inside a strategy yields the Fallback ranking.
// Only a *ConfigError is returned, and then the ranking is nil.
func (e *Engine) Rerank(ctx context.Context, strategy types.RerankStrategy, query string, results []types.RetrievalResult, topK int) ([]types.RankedResult, error) {
	log := e.logger.With(zap.String("strategy", string(strategy)))

	s, ok := e.strategies[strategy]
	if !ok {
		log.Warn("unknown rerank strategy, using fallback")
		metrics.RerankRuns.WithLabelValues(string(strategy), "unknown").Inc()
		return Fallback(results, topK), nil
	}

	if strategy == types.StrategyEnsemble {
		if err := e.ensemble.Validate(); err != nil {
			metrics.RerankRuns.WithLabelValues(string(strategy), "config_error").Inc()
			return nil, err
		}
	}

	ranked, err := safeRank(ctx, s, query, results, topK)
	if err != nil {
		log.Warn("rerank failed, using fallback", zap.Error(err))
		metrics.RerankRuns.WithLabelValues(string(strategy), "fallback").Inc()
		return Fallback(results, topK), nil
	}
	metrics.RerankRuns.WithLabelValues(string(strategy), "ok").Inc()
	return ranked, nil
}

func safeRank(ctx context.Context, s Strategy, query string, results []types.RetrievalResult, topK int) (ranked []types.RankedResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return s.Rank(ctx, query, results, topK)
}

// assignRanks sets dense 1-based ranks in slice order.
func assignRanks(ranked []types.RankedResult) {
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
}

func truncate(ranked []types.RankedResult, topK int) []types.RankedResult {
	if topK > 0 && len(ranked) > topK {
		return ranked[:topK]
	}
	return ranked
}

func toRanked(r types.RetrievalResult) types.RankedResult {
	return r.Ranked()
}
