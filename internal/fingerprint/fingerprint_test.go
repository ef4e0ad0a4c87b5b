// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/research-agent/pkg/types"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"stopwords and punctuation", "The Theory of Everything: A Survey", "theory everything survey"},
		{"hyphen and digits", "GPT-4 Technical Report", "gpt 4 technical report"},
		{"collapses whitespace", "  Attention   is\tAll  You Need ", "attention is all you need"},
		{"only stopwords", "The of and", ""},
		{"empty", "", ""},
		{"non ascii letters become spaces", "Naïve Bayes", "na ve bayes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.input))
		})
	}
}

func TestTitleIdempotent(t *testing.T) {
	inputs := []string{"The Theory of Everything", "BERT: Pre-training of Deep Bidirectional Transformers", ""}
	for _, in := range inputs {
		once := Title(in)
		assert.Equal(t, once, Title(once), in)
	}
}

func TestIndexContains(t *testing.T) {
	idx := NewIndex([]string{"2401.00001"}, []string{Title("Scaling Laws for Neural Language Models")})

	assert.True(t, idx.Contains("2401.00001", "Something Else Entirely"), "id match")
	assert.True(t, idx.Contains("2402.99999", "scaling laws for neural language models"), "fingerprint match")
	assert.False(t, idx.Contains("2402.99999", "A New Title"))
	assert.False(t, idx.Contains("", ""), "empty fingerprints never match")
	assert.Equal(t, 1, idx.Len())
}

func TestIndexEmptyFingerprintNeverMatches(t *testing.T) {
	idx := NewIndex(nil, []string{""})
	idx.Add("", "The Of")
	assert.False(t, idx.Contains("x", "A The"))
}

func TestFilter(t *testing.T) {
	idx := NewIndex([]string{"2401.00001"}, []string{Title("Known Paper Title")})
	candidates := []types.SearchResult{
		{Identifier: "2401.00001", Title: "Known by ID"},
		{Identifier: "2401.00002", Title: "Known Paper Title"},
		{Identifier: "2401.00003", Title: "Fresh Paper"},
		{Identifier: "2401.00003", Title: "Fresh Paper (v2)"},
		{Identifier: "2401.00004", Title: "fresh paper"},
		{Identifier: "2401.00005", Title: "Another Fresh One"},
	}

	fresh, existing := Filter(idx, candidates)

	var freshIDs []string
	for _, r := range fresh {
		freshIDs = append(freshIDs, r.Identifier)
	}
	assert.Equal(t, []string{"2401.00003", "2401.00005"}, freshIDs)
	assert.Len(t, existing, 4)
	assert.Equal(t, len(candidates), len(fresh)+len(existing))
	assert.False(t, idx.Contains("2401.00005", "Another Fresh One"), "filter must not modify the index")
}

func TestFilterEmpty(t *testing.T) {
	fresh, existing := Filter(NewIndex(nil, nil), nil)
	assert.Empty(t, fresh)
	assert.Empty(t, existing)
}
