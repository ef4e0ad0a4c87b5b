// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits paper sections into overlapping token windows.
// Tokens are whitespace-separated words.
package chunk

import (
	"fmt"
	"strings"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Defaults.
const (
	DefaultTokens  = 300
	DefaultOverlap = 50
)

// Chunker holds the window size and overlap.
type Chunker struct {
	Tokens  int
	Overlap int
}

// New returns a Chunker. Non-positive tokens use DefaultTokens; overlap is
// clamped to [0, tokens-1].
func New(tokens, overlap int) Chunker {
	if tokens <= 0 {
		tokens = DefaultTokens
	}
	overlap = max(0, min(overlap, tokens-1))
	return Chunker{Tokens: tokens, Overlap: overlap}
}

// SectionID returns "paper:secN" for the n-th section of a paper.
func SectionID(paperID string, n int) string {
	return fmt.Sprintf("%s:sec%d", paperID, n)
}

// ChunkID returns "paper:section:order".
func ChunkID(paperID, sectionID string, order int) string {
	return fmt.Sprintf("%s:%s:%d", paperID, sectionID, order)
}

// Paper chunks every section of one paper. Section numbering counts only
// sections that produce chunks. meta is copied into each chunk.
func (c Chunker) Paper(paperID string, sections []types.Section, meta map[string]string) []types.Chunk {
	var out []types.Chunk
	n := 0
	for _, sec := range sections {
		chunks := c.Section(paperID, SectionID(paperID, n), sec)
		if len(chunks) == 0 {
			continue
		}
		for i := range chunks {
			chunks[i].Metadata = copyMeta(meta)
		}
		out = append(out, chunks...)
		n++
	}
	return out
}

// Section splits one section into windows of c.Tokens tokens, each
// starting c.Tokens-c.Overlap tokens after the previous one. The last
// window ends at the final token.
func (c Chunker) Section(paperID, sectionID string, sec types.Section) []types.Chunk {
	toks := strings.Fields(sec.Text)
	if len(toks) == 0 {
		return nil
	}
	c = New(c.Tokens, c.Overlap)

	var out []types.Chunk
	for start, order := 0, 0; ; order++ {
		end := min(start+c.Tokens, len(toks))
		out = append(out, types.Chunk{
			ChunkID:    ChunkID(paperID, sectionID, order),
			PaperID:    paperID,
			SectionID:  sectionID,
			Heading:    sec.Title,
			Text:       strings.Join(toks[start:end], " "),
			Order:      order,
			TokenCount: end - start,
			PageFrom:   sec.PageFrom,
			PageTo:     sec.PageTo,
		})
		if end == len(toks) {
			break
		}
		start = end - c.Overlap
	}
	return out
}

func copyMeta(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
