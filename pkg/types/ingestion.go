// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// IngestionStatus is the state of an ingestion run.
type IngestionStatus string

const (
	IngestionIdle               IngestionStatus = "idle"
	IngestionSearching          IngestionStatus = "searching"
	IngestionCheckingDuplicates IngestionStatus = "checking_duplicates"
	IngestionIngesting          IngestionStatus = "ingesting"
	IngestionCompleted          IngestionStatus = "completed"
	IngestionError              IngestionStatus = "error"
)

// Terminal reports whether no further transitions are possible.
func (s IngestionStatus) Terminal() bool {
	return s == IngestionCompleted || s == IngestionError
}

// FailedItem records a paper that could not be ingested.
type FailedItem struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
}

// IngestionState is threaded through the ingestion workflow. Every node
// returns a new value; earlier snapshots are never modified.
type IngestionState struct {
	RunID  string          `json:"run_id" yaml:"run_id"`
	Status IngestionStatus `json:"status" yaml:"status"`

	// Node is the name of the node that produced this snapshot.
	Node string `json:"node" yaml:"node"`

	DaysBack   int `json:"days_back" yaml:"days_back"`
	MaxResults int `json:"max_results" yaml:"max_results"`

	DocsFound    int `json:"docs_found" yaml:"docs_found"`
	DocsExisting int `json:"docs_existing" yaml:"docs_existing"`
	DocsNew      int `json:"docs_new" yaml:"docs_new"`
	DocsIngested int `json:"docs_ingested" yaml:"docs_ingested"`
	DocsFailed   int `json:"docs_failed" yaml:"docs_failed"`

	// ChunksIngested totals the chunks upserted across all ingested papers.
	ChunksIngested int `json:"chunks_ingested" yaml:"chunks_ingested"`

	ProgressPercent float64 `json:"progress_percent" yaml:"progress_percent"`

	// Candidates holds the search results still to be ingested. After the
	// duplicate check it contains only new papers.
	Candidates []SearchResult `json:"-" yaml:"-"`

	Processed []string     `json:"processed,omitempty" yaml:"processed,omitempty"`
	Failed    []FailedItem `json:"failed,omitempty" yaml:"failed,omitempty"`

	StartedAt   time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
