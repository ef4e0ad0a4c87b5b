// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, StrategyEnsemble, cfg.Rerank.Strategy)
	assert.Equal(t, 20, cfg.Rerank.TopK)
	assert.InDelta(t, 0.3, cfg.Rerank.DiversityLambda, 1e-9)
	assert.Equal(t, []float64{0.6, 0.4}, cfg.Rerank.EnsembleWeights)
	assert.InDelta(t, 0.5, cfg.Coverage.Threshold, 1e-9)
	assert.True(t, cfg.Coverage.Enabled)
	assert.Equal(t, 50, cfg.Research.RetrievalLimit)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "arxiv_latest", cfg.Gateway.DefaultTool)
	assert.Equal(t, 10, cfg.Gateway.ResultLimit)
	assert.Equal(t, 7, cfg.Ingestion.DaysBack)
	assert.Equal(t, 100, cfg.Ingestion.MaxResults)
	assert.Equal(t, "ai_core", cfg.VectorStore.Collection)
}

func TestDefaultConfigCategoriesAreCopied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.Categories[0] = "changed"
	assert.Equal(t, "cs.LG", DefaultCategories[0])
}

func TestAnalysisType(t *testing.T) {
	tests := []struct {
		typ   AnalysisType
		valid bool
	}{
		{AnalysisComprehensive, true},
		{AnalysisGap, true},
		{AnalysisDesign, true},
		{AnalysisPattern, true},
		{AnalysisFutureDirections, true},
		{"summary", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.typ.Valid())
		})
	}

	assert.True(t, AnalysisComprehensive.Includes(AnalysisPattern))
	assert.True(t, AnalysisGap.Includes(AnalysisGap))
	assert.False(t, AnalysisGap.Includes(AnalysisDesign))
}

func TestAssessmentFlattensInJSONAndYAML(t *testing.T) {
	gap := GapAnalysis{
		IdentifiedGaps: []string{"g"},
		Assessment:     Assessment{Confidence: 0.85, Sources: []string{"p1"}},
	}

	data, err := json.Marshal(gap)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 0.85, m["confidence_score"])
	assert.NotContains(t, m, "Assessment")

	ydata, err := yaml.Marshal(gap)
	require.NoError(t, err)
	assert.Contains(t, string(ydata), "confidence_score: 0.85")
}

func TestRetrievalResultRanked(t *testing.T) {
	r := RetrievalResult{ChunkID: "c", PaperID: "p", SectionID: "s", Text: "t", Score: 0.7, Source: SourceLocal}
	got := r.Ranked()
	assert.Equal(t, RankedResult{
		ChunkID: "c", PaperID: "p", SectionID: "s", Text: "t",
		PrimaryScore: 0.7, RerankScore: 0.7, CombinedScore: 0.7,
		Source: SourceLocal,
	}, got)
}

func TestIngestionStatusTerminal(t *testing.T) {
	assert.True(t, IngestionCompleted.Terminal())
	assert.True(t, IngestionError.Terminal())
	assert.False(t, IngestionIngesting.Terminal())
	assert.False(t, IngestionIdle.Terminal())
}
