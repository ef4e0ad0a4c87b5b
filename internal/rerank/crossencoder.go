// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/pkg/types"
)

// CrossEncoder blends a pairwise relevance score with the vector score:
// combined = 0.5*primary + 0.5*normalised(score).
type CrossEncoder struct {
	Scorer Scorer
	Logger *zap.Logger
}

// Rank scores every (query, passage) pair. A nil scorer or a scoring error
// produces the Fallback ranking.
func (c *CrossEncoder) Rank(ctx context.Context, query string, results []types.RetrievalResult, topK int) ([]types.RankedResult, error) {
	if len(results) == 0 {
		return []types.RankedResult{}, nil
	}
	if c.Scorer == nil {
		return Fallback(results, topK), nil
	}

	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Text
	}

	raw, err := c.Scorer.Score(ctx, query, passages)
	if err == nil && len(raw) != len(results) {
		err = fmt.Errorf("scorer returned %d scores for %d passages", len(raw), len(results))
	}
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("cross-encoder scoring failed", zap.Error(err))
		}
		return Fallback(results, topK), nil
	}

	norm := minMax(raw)
	ranked := make([]types.RankedResult, len(results))
	for i, r := range results {
		ranked[i] = toRanked(r)
		ranked[i].RerankScore = norm[i]
		ranked[i].CombinedScore = 0.5*r.Score + 0.5*norm[i]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CombinedScore > ranked[j].CombinedScore
	})
	ranked = truncate(ranked, topK)
	assignRanks(ranked)
	return ranked, nil
}

// minMax rescales values to [0,1]. When every value is equal the result is
// all zeros.
func minMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}
