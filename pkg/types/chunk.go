// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Chunk is a token window of one paper section, ready to embed.
type Chunk struct {
	// ChunkID is "paper:section:order".
	ChunkID string `json:"chunk_id" yaml:"chunk_id"`

	PaperID string `json:"paper_id" yaml:"paper_id"`

	// SectionID is "paper:secN".
	SectionID string `json:"section_id" yaml:"section_id"`

	// Heading is the section heading the chunk came from, if any.
	Heading string `json:"heading,omitempty" yaml:"heading,omitempty"`

	Text       string `json:"text" yaml:"text"`
	Order      int    `json:"order" yaml:"order"`
	TokenCount int    `json:"token_count" yaml:"token_count"`

	// PageFrom and PageTo are 1-based; zero means unknown.
	PageFrom int `json:"page_from,omitempty" yaml:"page_from,omitempty"`
	PageTo   int `json:"page_to,omitempty" yaml:"page_to,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Section is a titled span of a parsed paper.
type Section struct {
	Title    string `json:"title" yaml:"title"`
	Text     string `json:"text" yaml:"text"`
	PageFrom int    `json:"page_from" yaml:"page_from"`
	PageTo   int    `json:"page_to" yaml:"page_to"`
}
