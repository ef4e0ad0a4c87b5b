// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fingerprint normalises paper titles and detects papers that are
// already known by identifier or by title.
package fingerprint

import (
	"strings"

	"github.com/pdiddy/research-agent/pkg/types"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true,
	"for": true, "on": true, "in": true, "to": true, "with": true,
}

// Title returns the normalised fingerprint of a title: lowercase, anything
// outside [a-z0-9] replaced by a space, whitespace collapsed and stopwords
// dropped. Title(Title(s)) == Title(s).
func Title(s string) string {
	lower := strings.ToLower(s)
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return ' '
	}, lower)

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if !stopwords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Index answers "have we seen this paper" using identifiers first and
// fingerprints second.
type Index struct {
	ids          map[string]bool
	fingerprints map[string]bool
}

// NewIndex builds an index from known identifiers and stored fingerprints.
// Empty entries are ignored.
func NewIndex(ids, fingerprints []string) *Index {
	idx := &Index{
		ids:          make(map[string]bool, len(ids)),
		fingerprints: make(map[string]bool, len(fingerprints)),
	}
	for _, id := range ids {
		idx.AddID(id)
	}
	for _, fp := range fingerprints {
		idx.AddFingerprint(fp)
	}
	return idx
}

// AddID records a known identifier.
func (idx *Index) AddID(id string) {
	if id != "" {
		idx.ids[id] = true
	}
}

// AddFingerprint records a known fingerprint.
func (idx *Index) AddFingerprint(fp string) {
	if fp != "" {
		idx.fingerprints[fp] = true
	}
}

// Add records both the identifier and the title fingerprint of a paper.
func (idx *Index) Add(id, title string) {
	idx.AddID(id)
	idx.AddFingerprint(Title(title))
}

// Contains reports whether the paper is a duplicate: an exact identifier
// match, otherwise a match on the title fingerprint. An empty fingerprint
// never matches.
func (idx *Index) Contains(id, title string) bool {
	if id != "" && idx.ids[id] {
		return true
	}
	fp := Title(title)
	return fp != "" && idx.fingerprints[fp]
}

// Len returns the number of identifiers in the index.
func (idx *Index) Len() int { return len(idx.ids) }

// Filter partitions candidates into fresh papers and those already known.
// A candidate that repeats an earlier one in the same batch counts as
// existing. The index itself is not modified.
func Filter(idx *Index, candidates []types.SearchResult) (fresh, existing []types.SearchResult) {
	seen := NewIndex(nil, nil)
	for _, c := range candidates {
		if idx.Contains(c.Identifier, c.Title) || seen.Contains(c.Identifier, c.Title) {
			existing = append(existing, c)
			continue
		}
		seen.Add(c.Identifier, c.Title)
		fresh = append(fresh, c)
	}
	return fresh, existing
}
