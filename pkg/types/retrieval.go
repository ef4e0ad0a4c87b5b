// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Source tags attached to retrieval results.
const (
	SourceLocal            = "local"
	SourceExternalArxiv    = "external_arxiv"
	SourceExternalS2       = "external_semantic_scholar"
	SourceExternalOpenAlex = "external_openalex"
)

// RetrievalResult is a candidate passage produced by vector search or by an
// external tool. It is never modified after creation.
type RetrievalResult struct {
	ChunkID   string `json:"chunk_id" yaml:"chunk_id"`
	PaperID   string `json:"paper_id" yaml:"paper_id"`
	SectionID string `json:"section_id" yaml:"section_id"`
	Text      string `json:"text" yaml:"text"`

	// Score is the retrieval relevance in [0,1].
	Score float64 `json:"score" yaml:"score"`

	// Source tags where the result came from (SourceLocal, SourceExternalArxiv, ...).
	Source string `json:"source" yaml:"source"`

	PageFrom *int `json:"page_from,omitempty" yaml:"page_from,omitempty"`
	PageTo   *int `json:"page_to,omitempty" yaml:"page_to,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// RankedResult is a RetrievalResult after reranking. Rank is 1-based and
// dense within a list; lists are ordered by non-increasing CombinedScore.
type RankedResult struct {
	ChunkID   string `json:"chunk_id" yaml:"chunk_id"`
	PaperID   string `json:"paper_id" yaml:"paper_id"`
	SectionID string `json:"section_id" yaml:"section_id"`
	Text      string `json:"text" yaml:"text"`

	// PrimaryScore is the original retrieval score.
	PrimaryScore float64 `json:"primary_score" yaml:"primary_score"`

	// RerankScore is the signal contributed by the reranking strategy.
	RerankScore float64 `json:"rerank_score" yaml:"rerank_score"`

	// CombinedScore is the sort key blending primary and rerank scores.
	CombinedScore float64 `json:"combined_score" yaml:"combined_score"`

	Rank   int    `json:"rank" yaml:"rank"`
	Source string `json:"source" yaml:"source"`
}

// Ranked converts a retrieval result into a ranked result whose three
// scores all equal the retrieval score. Rank is left for the caller.
func (r RetrievalResult) Ranked() RankedResult {
	return RankedResult{
		ChunkID:       r.ChunkID,
		PaperID:       r.PaperID,
		SectionID:     r.SectionID,
		Text:          r.Text,
		PrimaryScore:  r.Score,
		RerankScore:   r.Score,
		CombinedScore: r.Score,
		Source:        r.Source,
	}
}
