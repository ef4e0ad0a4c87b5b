// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"strings"

	"github.com/pdiddy/research-agent/internal/fingerprint"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Context limits.
const (
	MaxContextResults = 10
	MaxContextRunes   = 1000
)

// Context is the text handed to an analysis together with the papers it
// was drawn from.
type Context struct {
	Text    string
	Sources []string
}

// Empty reports whether there is nothing to analyse.
func (c Context) Empty() bool { return c.Text == "" }

// BuildContext formats the top ranked results as "[paper_id] text" blocks,
// each text cut to MaxContextRunes runes, separated by blank lines.
func BuildContext(ranked []types.RankedResult) Context {
	n := min(len(ranked), MaxContextResults)
	blocks := make([]string, 0, n)
	seen := make(map[string]bool, n)
	var sources []string
	for _, r := range ranked[:n] {
		text := r.Text
		if runes := []rune(text); len(runes) > MaxContextRunes {
			text = string(runes[:MaxContextRunes])
		}
		blocks = append(blocks, "["+r.PaperID+"] "+text)
		if r.PaperID != "" && !seen[r.PaperID] {
			seen[r.PaperID] = true
			sources = append(sources, r.PaperID)
		}
	}
	return Context{Text: strings.Join(blocks, "\n\n"), Sources: sources}
}

// Faithfulness returns the fraction of findings that share at least one
// non-stopword token with context. No findings scores 0.
func Faithfulness(findings []string, context string) float64 {
	if len(findings) == 0 {
		return 0
	}
	vocab := make(map[string]bool)
	for _, tok := range strings.Fields(fingerprint.Title(context)) {
		vocab[tok] = true
	}
	grounded := 0
	for _, f := range findings {
		for _, tok := range strings.Fields(fingerprint.Title(f)) {
			if vocab[tok] {
				grounded++
				break
			}
		}
	}
	return float64(grounded) / float64(len(findings))
}
