// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper is the metadata row persisted for every ingested paper. The
// fingerprint column backs inter-run duplicate suppression.
type Paper struct {
	// ArxivID is the primary key (e.g. "2301.07041").
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id" db:"arxiv_id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title" db:"title"`

	// Authors is the comma-separated author list.
	Authors string `json:"authors" yaml:"authors" db:"authors"`

	// PublishedDate is the publication date formatted as YYYY-MM-DD.
	PublishedDate string `json:"published_date" yaml:"published_date" db:"published_date"`

	// PDFPath is the local filesystem path to the downloaded PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path" db:"pdf_path"`

	// Fingerprint is the normalized title key.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint" db:"fingerprint"`

	// ChunksCount is the number of chunks upserted into the vector store.
	ChunksCount int `json:"chunks_count" yaml:"chunks_count" db:"chunks_count"`

	Processed bool `json:"processed" yaml:"processed" db:"processed"`
	Indexed   bool `json:"indexed" yaml:"indexed" db:"indexed"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}
