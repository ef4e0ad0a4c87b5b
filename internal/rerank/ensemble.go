// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Member is one weighted strategy of an Ensemble.
type Member struct {
	Strategy types.RerankStrategy `json:"strategy" yaml:"strategy"`
	Weight   float64              `json:"weight" yaml:"weight"`
}

// DefaultMembers returns cross_encoder 0.6 and semantic_diversity 0.4.
func DefaultMembers() []Member {
	return []Member{
		{Strategy: types.StrategyCrossEncoder, Weight: 0.6},
		{Strategy: types.StrategyDiversity, Weight: 0.4},
	}
}

// MembersFrom pairs strategy names with weights. Mismatched lengths are
// reported by Validate, not here.
func MembersFrom(strategies []types.RerankStrategy, weights []float64) []Member {
	n := max(len(strategies), len(weights))
	members := make([]Member, 0, n)
	for i := range n {
		var m Member
		if i < len(strategies) {
			m.Strategy = strategies[i]
		}
		if i < len(weights) {
			m.Weight = weights[i]
		} else {
			m.Weight = math.NaN()
		}
		members = append(members, m)
	}
	return members
}

const weightTolerance = 0.01

// Ensemble combines member rankings by weighted rank position:
// ens = sum(w * (1 - (rank-1)/max(len,1))), combined = 0.5*primary + 0.5*ens.
type Ensemble struct {
	Members    []Member
	Strategies map[types.RerankStrategy]Strategy
	Logger     *zap.Logger
}

// Validate requires at least two members, a weight for every member and
// weights summing to 1 within 0.01.
func (e *Ensemble) Validate() error {
	if len(e.Members) < 2 {
		return &ConfigError{Reason: fmt.Sprintf("ensemble needs at least 2 strategies, got %d", len(e.Members))}
	}
	var sum float64
	for _, m := range e.Members {
		if m.Strategy == "" || math.IsNaN(m.Weight) {
			return &ConfigError{Reason: "ensemble strategies and weights differ in length"}
		}
		if m.Strategy == types.StrategyEnsemble {
			return &ConfigError{Reason: "ensemble cannot contain itself"}
		}
		sum += m.Weight
	}
	if math.Abs(sum-1) > weightTolerance {
		return &ConfigError{Reason: fmt.Sprintf("ensemble weights sum to %.3f, want 1.0", sum)}
	}
	return nil
}

// Rank runs every member over all candidates and blends their positions.
// Repeated chunk IDs keep their first occurrence. A member naming an
// unregistered strategy is skipped and contributes nothing.
func (e *Ensemble) Rank(ctx context.Context, query string, results []types.RetrievalResult, topK int) ([]types.RankedResult, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	results = uniqueChunks(results)
	if len(results) == 0 {
		return []types.RankedResult{}, nil
	}

	ens := make(map[string]float64, len(results))
	for _, m := range e.Members {
		ranking, ok := e.memberRanking(ctx, m.Strategy, query, results)
		if !ok {
			continue
		}
		n := max(len(ranking), 1)
		for _, r := range ranking {
			ens[r.ChunkID] += m.Weight * (1 - float64(r.Rank-1)/float64(n))
		}
	}

	ranked := make([]types.RankedResult, len(results))
	for i, r := range results {
		ranked[i] = toRanked(r)
		ranked[i].RerankScore = ens[r.ChunkID]
		ranked[i].CombinedScore = 0.5*r.Score + 0.5*ens[r.ChunkID]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CombinedScore > ranked[j].CombinedScore
	})
	ranked = truncate(ranked, topK)
	assignRanks(ranked)
	return ranked, nil
}

func (e *Ensemble) memberRanking(ctx context.Context, name types.RerankStrategy, query string, results []types.RetrievalResult) ([]types.RankedResult, bool) {
	s, ok := e.Strategies[name]
	if !ok {
		if e.Logger != nil {
			e.Logger.Warn("unknown ensemble strategy, skipping", zap.String("strategy", string(name)))
		}
		return nil, false
	}
	ranking, err := safeRank(ctx, s, query, results, len(results))
	if err != nil {
		if e.Logger != nil {
			e.Logger.Warn("ensemble member failed, using fallback order",
				zap.String("strategy", string(name)), zap.Error(err))
		}
		return Fallback(results, len(results)), true
	}
	return ranking, true
}

func uniqueChunks(results []types.RetrievalResult) []types.RetrievalResult {
	seen := make(map[string]bool, len(results))
	out := make([]types.RetrievalResult, 0, len(results))
	for _, r := range results {
		if seen[r.ChunkID] {
			continue
		}
		seen[r.ChunkID] = true
		out = append(out, r)
	}
	return out
}
