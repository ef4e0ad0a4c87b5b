// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-agent/internal/workflow"
	"github.com/pdiddy/research-agent/pkg/types"
)

func sampleResponse() *types.FinalResponse {
	return &types.FinalResponse{
		Query:              "sparse attention",
		AnalysisType:       types.AnalysisGap,
		RetrievedPapers:    2,
		RankedResultsCount: 4,
		Analysis: types.AnalysisSet{
			Gap: &types.GapAnalysis{
				IdentifiedGaps: []string{"long-context evaluation"},
				Assessment:     types.Assessment{Confidence: 0.4, Heuristic: true},
			},
		},
		Recommendations:   []string{"Investigate: long-context evaluation"},
		Sources:           []string{"2401.00001", "2401.00002"},
		AverageConfidence: 0.4,
		ExecutionTime:     1500 * time.Millisecond,
		ModelVersion:      types.ModelVersion,
	}
}

func TestWriteResponseText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResponse(&buf, sampleResponse(), "text"))
	out := buf.String()

	assert.Contains(t, out, "Query: sparse attention")
	assert.Contains(t, out, "Research gaps (confidence 0.40, faithfulness 0.00, heuristic)")
	assert.Contains(t, out, "    - long-context evaluation")
	assert.Contains(t, out, "  1. Investigate: long-context evaluation")
	assert.Contains(t, out, "Sources: 2401.00001, 2401.00002")
	assert.NotContains(t, out, "Design suggestions")
	assert.NotContains(t, out, "Warnings")
}

func TestWriteResponseJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResponse(&buf, sampleResponse(), "json"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "sparse attention", got["query"])
	assert.Equal(t, "gap_analysis", got["analysis_type"])
	assert.Equal(t, float64(2), got["retrieved_papers"])
	gap := got["analysis"].(map[string]any)["gap_analysis"].(map[string]any)
	assert.Equal(t, 0.4, gap["confidence_score"])
}

func TestWriteResponseYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResponse(&buf, sampleResponse(), "yaml"))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "sparse attention", got["query"])
	assert.Equal(t, "1.0", got["model_version"])
	assert.True(t, strings.Contains(buf.String(), "  gap_analysis:"))
}

func TestPrintIngestState(t *testing.T) {
	var buf bytes.Buffer
	st := types.IngestionState{
		Node:            workflow.NodeFinalize,
		Status:          types.IngestionCompleted,
		ProgressPercent: 100,
		DocsIngested:    2,
		DocsFailed:      1,
		ChunksIngested:  17,
		Failed:          []types.FailedItem{{Path: "2401.00003", Error: "no PDF"}},
	}
	require.NoError(t, printIngestState(&buf, st, false))
	out := buf.String()
	assert.Contains(t, out, "[100%] finalize")
	assert.Contains(t, out, "ingested=2 failed=1 chunks=17")
	assert.Contains(t, out, "failed: 2401.00003: no PDF")

	buf.Reset()
	require.NoError(t, printIngestState(&buf, st, true))
	var got types.IngestionState
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 17, got.ChunksIngested)
	assert.Equal(t, types.IngestionCompleted, got.Status)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "title", firstLine("title\nbody", 80))
	assert.Equal(t, "abcdefg...", firstLine("abcdefghijklmnop", 10))
}
