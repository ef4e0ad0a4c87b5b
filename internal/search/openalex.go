// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/pdiddy/research-agent/pkg/types"
)

var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexSelect trims the Works payload to the fields results are built from.
const openAlexSelect = "id,title,doi,publication_date,publication_year,authorships,abstract_inverted_index,open_access"

// OpenAlexBackend queries the OpenAlex Works API.
type OpenAlexBackend struct {
	Client *http.Client
	// Email joins the polite pool when set.
	Email      string
	MaxRetries int
}

func (b *OpenAlexBackend) Name() string { return "openalex" }

// Search runs a full-text Works search. Newest sorts by publication date.
func (b *OpenAlexBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error) {
	terms := query.terms()
	if terms == "" {
		return nil, errors.New("empty OpenAlex query")
	}

	params := url.Values{}
	params.Set("search", terms)
	params.Set("per_page", strconv.Itoa(query.limit(cfg, 200)))
	params.Set("select", openAlexSelect)
	if query.Newest {
		params.Set("sort", "publication_date:desc")
	}
	if f := openAlexFilter(query); f != "" {
		params.Set("filter", f)
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	var page struct {
		Results []openAlexWork `json:"results"`
	}
	if err := getJSON(ctx, b.Client, "OpenAlex API", openAlexSearchBase, params, userAgent(cfg), b.MaxRetries, &page); err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(page.Results))
	for i, w := range page.Results {
		results = append(results, w.result(positionScore(i, len(page.Results))))
	}
	return results, nil
}

func openAlexFilter(q Query) string {
	var f []string
	if !q.DateFrom.IsZero() {
		f = append(f, "from_publication_date:"+q.DateFrom.Format("2006-01-02"))
	}
	if !q.DateTo.IsZero() {
		f = append(f, "to_publication_date:"+q.DateTo.Format("2006-01-02"))
	}
	return strings.Join(f, ",")
}

// reconstructAbstract rebuilds plain text from an abstract_inverted_index,
// which maps each word to the positions it occupies.
func reconstructAbstract(index map[string][]int) string {
	type placed struct {
		pos  int
		word string
	}
	var words []placed
	for w, positions := range index {
		for _, p := range positions {
			words = append(words, placed{p, w})
		}
	}
	slices.SortFunc(words, func(a, b placed) int { return cmp.Compare(a.pos, b.pos) })

	var sb strings.Builder
	for i, w := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w.word)
	}
	return sb.String()
}

type openAlexWork struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DOI             string `json:"doi"`
	PublicationDate string `json:"publication_date"`
	PublicationYear int    `json:"publication_year"`
	Authorships     []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	OpenAccess            struct {
		OAURL string `json:"oa_url"`
	} `json:"open_access"`
}

func (w openAlexWork) result(score float64) types.SearchResult {
	r := types.SearchResult{
		Title:          w.Title,
		Abstract:       reconstructAbstract(w.AbstractInvertedIndex),
		Date:           published(w.PublicationDate, w.PublicationYear),
		Source:         "openalex",
		URL:            w.ID,
		PDFURL:         w.OpenAccess.OAURL,
		RelevanceScore: score,
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			r.Authors = append(r.Authors, a.Author.DisplayName)
		}
	}

	// DOIs come as resolver URLs; fall back to the short work ID.
	if w.DOI != "" {
		r.Identifier = strings.TrimPrefix(w.DOI, "https://doi.org/")
	} else {
		r.Identifier = strings.TrimPrefix(w.ID, "https://openalex.org/")
	}
	return r
}
