// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"context"
	"sort"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Fallback sorts by primary score (stable, descending), truncates to topK
// and sets rerank and combined scores equal to the primary score.
func Fallback(results []types.RetrievalResult, topK int) []types.RankedResult {
	ranked := make([]types.RankedResult, len(results))
	for i, r := range results {
		ranked[i] = toRanked(r)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PrimaryScore > ranked[j].PrimaryScore
	})
	ranked = truncate(ranked, topK)
	assignRanks(ranked)
	return ranked
}

type fallbackStrategy struct{}

func (fallbackStrategy) Rank(_ context.Context, _ string, results []types.RetrievalResult, topK int) ([]types.RankedResult, error) {
	return Fallback(results, topK), nil
}
