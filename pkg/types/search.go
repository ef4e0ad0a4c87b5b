// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the ingestion and
// research workflows: search candidates, retrieval and ranked results,
// workflow states, analysis outputs, and configuration.
package types

import "time"

// SearchResult is a candidate paper returned by an academic API. The
// ingestion workflow discovers these, and the external-tool gateway converts
// them into RetrievalResults.
type SearchResult struct {
	// Identifier is the canonical ID from the source (arXiv ID, DOI, or OpenAlex ID).
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date" yaml:"date"`

	// Source identifies which backend found this result (e.g. "arxiv", "semantic_scholar").
	Source string `json:"source" yaml:"source"`

	// RelevanceScore is a value between 0.0 and 1.0 derived from the
	// position in the backend's response.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// PDFURL is a direct link to the PDF when the source provides one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// URL is the landing page of the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Categories lists subject categories (arXiv) when known.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}
