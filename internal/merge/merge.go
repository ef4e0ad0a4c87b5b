// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge folds external results into a ranked local list.
package merge

import (
	"sort"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Merge combines local ranked results with external retrieval results.
//
// Results are keyed by ChunkID. A local result always wins over an external
// one with the same ID, and within the external batch the first occurrence
// wins. External results enter with primary, rerank and combined scores
// equal to their retrieval score. The union is stably sorted by combined
// score (ties keep locals first, then external order), re-ranked 1..N and
// truncated to topK; topK <= 0 keeps everything. Neither input is modified.
func Merge(local []types.RankedResult, external []types.RetrievalResult, topK int) []types.RankedResult {
	merged := make([]types.RankedResult, 0, len(local)+len(external))
	seen := make(map[string]bool, len(local)+len(external))

	for _, r := range local {
		if seen[r.ChunkID] {
			continue
		}
		seen[r.ChunkID] = true
		merged = append(merged, r)
	}
	for _, r := range external {
		if seen[r.ChunkID] {
			continue
		}
		seen[r.ChunkID] = true
		merged = append(merged, r.Ranked())
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CombinedScore > merged[j].CombinedScore
	})
	if topK > 0 && len(merged) > topK {
		merged = merged[:topK]
	}
	for i := range merged {
		merged[i].Rank = i + 1
	}
	return merged
}
