// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/pkg/types"
)

// DefaultLambda is the default relevance weight of the MMR objective.
const DefaultLambda = 0.3

// Diversity reorders candidates with maximal marginal relevance. The first
// pick is the candidate with the highest primary score; each next pick
// maximises Lambda*relevance - (1-Lambda)*maxSimilarity to the picks so far.
// Scores are left equal to the primary score; only the order changes.
type Diversity struct {
	Embedder Embedder
	Lambda   float64
	Logger   *zap.Logger
}

// Rank returns candidates in selection order. A nil embedder or an
// embedding error produces the Fallback ranking.
func (d *Diversity) Rank(ctx context.Context, _ string, results []types.RetrievalResult, topK int) ([]types.RankedResult, error) {
	if len(results) == 0 {
		return []types.RankedResult{}, nil
	}
	if d.Embedder == nil {
		return Fallback(results, topK), nil
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	vecs, err := d.Embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vecs) != len(results) {
		err = fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(results))
	}
	if err != nil {
		if d.Logger != nil {
			d.Logger.Warn("diversity embedding failed", zap.Error(err))
		}
		return Fallback(results, topK), nil
	}

	norms := make([][]float64, len(vecs))
	for i, v := range vecs {
		norms[i] = normalise(v)
	}

	limit := len(results)
	if topK > 0 && topK < limit {
		limit = topK
	}

	selected := make([]int, 0, limit)
	used := make([]bool, len(results))

	seed := 0
	for i, r := range results {
		if r.Score > results[seed].Score {
			seed = i
		}
	}
	selected = append(selected, seed)
	used[seed] = true

	for len(selected) < limit {
		best := -1
		bestScore := math.Inf(-1)
		for i, r := range results {
			if used[i] {
				continue
			}
			maxSim := math.Inf(-1)
			for _, s := range selected {
				maxSim = max(maxSim, dot(norms[i], norms[s]))
			}
			score := d.Lambda*r.Score - (1-d.Lambda)*maxSim
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		selected = append(selected, best)
		used[best] = true
	}

	ranked := make([]types.RankedResult, len(selected))
	for i, idx := range selected {
		ranked[i] = toRanked(results[idx])
	}
	assignRanks(ranked)
	return ranked, nil
}

// normalise returns v scaled to unit length. The zero vector stays zero.
func normalise(v []float32) []float64 {
	out := make([]float64, len(v))
	var sum float64
	for i, x := range v {
		out[i] = float64(x)
		sum += out[i] * out[i]
	}
	if sum == 0 {
		return out
	}
	n := math.Sqrt(sum)
	for i := range out {
		out[i] /= n
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range min(len(a), len(b)) {
		s += a[i] * b[i]
	}
	return s
}
