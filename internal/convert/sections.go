// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/research-agent/pkg/types"
)

// DefaultSectionTitle names text that precedes the first heading.
const DefaultSectionTitle = "Main"

// maxHeadingWords bounds plain-text heading detection.
const maxHeadingWords = 8

// Sections splits converted text into titled sections. Markdown headings
// (#, ##, ###) always start a section; in plain text a short first line in
// Title Case or ALL CAPS does. Text from a "References" heading onward is
// dropped. Page markers set PageFrom and PageTo.
func Sections(text string) []types.Section {
	var sections []types.Section
	cur := types.Section{Title: DefaultSectionTitle, PageFrom: 1, PageTo: 1}
	page := 1
	var paras []string
	var para []string

	endPara := func() {
		if len(para) > 0 {
			paras = append(paras, strings.Join(para, "\n"))
			para = nil
		}
	}
	flush := func() {
		endPara()
		body := strings.TrimSpace(strings.Join(paras, "\n\n"))
		if body != "" {
			cur.Text = body
			sections = append(sections, cur)
		}
		paras = nil
	}
	start := func(title string) {
		flush()
		cur = types.Section{Title: title, PageFrom: page, PageTo: page}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if p, ok := parsePageMarker(trimmed); ok {
			page = p
			continue
		}

		if title, ok := markdownHeading(trimmed); ok {
			if isReferences(title) {
				break
			}
			start(title)
			continue
		}

		if trimmed == "" {
			endPara()
			continue
		}

		// A plain-text heading is the first line of a paragraph.
		if len(para) == 0 && looksLikeHeading(trimmed) {
			if isReferences(trimmed) {
				break
			}
			if len(paras) > 0 || cur.Title != DefaultSectionTitle {
				start(trimmed)
				continue
			}
		}

		if len(para) == 0 && len(paras) == 0 && cur.PageFrom < page {
			cur.PageFrom = page
		}
		para = append(para, trimmed)
		cur.PageTo = page
	}
	flush()
	return sections
}

func markdownHeading(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}
	level := len(line) - len(strings.TrimLeft(line, "#"))
	if level > 3 || len(line) == level || line[level] != ' ' {
		return "", false
	}
	return strings.TrimSpace(line[level:]), true
}

func looksLikeHeading(line string) bool {
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > maxHeadingWords {
		return false
	}
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, ",") {
		return false
	}
	return isUpper(line) || isTitle(words)
}

// isUpper reports whether line has letters and none is lowercase.
func isUpper(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// isTitle reports whether every word that starts with a letter starts
// with an uppercase letter followed by lowercase letters only.
func isTitle(words []string) bool {
	sawWord := false
	for _, w := range words {
		runes := []rune(w)
		if !unicode.IsLetter(runes[0]) {
			continue
		}
		if !unicode.IsUpper(runes[0]) {
			return false
		}
		for _, r := range runes[1:] {
			if unicode.IsUpper(r) {
				return false
			}
		}
		sawWord = true
	}
	return sawWord
}

func isReferences(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	t = strings.TrimLeft(t, "0123456789. ")
	return t == "references" || t == "bibliography"
}

// parsePageMarker reads the page number from "<!-- page N -->".
func parsePageMarker(line string) (int, bool) {
	if !strings.HasPrefix(line, "<!-- page ") || !strings.HasSuffix(line, " -->") {
		return 0, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "<!-- page "), " -->")
	var page int
	if _, err := fmt.Sscanf(inner, "%d", &page); err != nil {
		return 0, false
	}
	return page, true
}
