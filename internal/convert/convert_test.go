// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-agent/internal/container"
	"github.com/pdiddy/research-agent/pkg/types"
)

// fakeExec serves as both PATH lookup and command runner.
type fakeExec struct {
	onPath map[string]bool
	silent map[string]bool
	output string
	err    error
	args   []string
}

func (f *fakeExec) LookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found")
}

func (f *fakeExec) RunSilent(_ context.Context, name string, args ...string) error {
	if f.silent[strings.Join(append([]string{name}, args...), " ")] {
		return nil
	}
	return errors.New("failed")
}

func (f *fakeExec) RunPiped(_ context.Context, _ string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.args = args
	if f.err != nil {
		return f.err
	}
	if stdin != nil {
		io.Copy(io.Discard, stdin)
	}
	_, err := io.WriteString(stdout, f.output)
	return err
}

var _ container.Executor = (*fakeExec)(nil)

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "2401.00001.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestMarkPages(t *testing.T) {
	got := markPages("first page\n\fsecond page\n\f\f")
	assert.Equal(t, "<!-- page 1 -->\nfirst page\n<!-- page 2 -->\nsecond page\n", got)
}

func TestPdfToTextConvert(t *testing.T) {
	ex := &fakeExec{onPath: map[string]bool{"pdftotext": true}, output: "Abstract text\n\fMore text\n"}
	c, err := New(context.Background(), "", ex)
	require.NoError(t, err)

	pdf := writePDF(t)
	out, err := c.Convert(context.Background(), pdf)
	require.NoError(t, err)
	assert.Equal(t, []string{"-enc", "UTF-8", pdf, "-"}, ex.args)
	assert.Contains(t, out, "<!-- page 2 -->\nMore text")

	_, err = c.Convert(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)

	ex.output = "  \n"
	_, err = c.Convert(context.Background(), pdf)
	assert.Error(t, err)
}

func TestNewConverterErrors(t *testing.T) {
	_, err := New(context.Background(), NamePdfToText, &fakeExec{})
	assert.Error(t, err)

	_, err = New(context.Background(), "grobid", &fakeExec{})
	assert.Error(t, err)

	_, err = New(context.Background(), NameMarkitdown, &fakeExec{})
	assert.Error(t, err, "no container runtime")

	ex := &fakeExec{onPath: map[string]bool{"docker": true}, silent: map[string]bool{"docker info": true}}
	_, err = New(context.Background(), NameMarkitdown, ex)
	assert.Error(t, err, "image missing")
}

func TestMarkitdownConvert(t *testing.T) {
	ex := &fakeExec{
		onPath: map[string]bool{"docker": true},
		silent: map[string]bool{"docker info": true, "docker image inspect markitdown:latest": true},
		output: "# Title\n\nBody",
	}
	c, err := New(context.Background(), NameMarkitdown, ex)
	require.NoError(t, err)

	out, err := c.Convert(context.Background(), writePDF(t))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody", out)
	assert.Equal(t, []string{"run", "--rm", "-i", "markitdown:latest"}, ex.args)

	ex.output = ""
	_, err = c.Convert(context.Background(), writePDF(t))
	assert.Error(t, err)
}

func TestSectionsMarkdown(t *testing.T) {
	text := strings.Join([]string{
		"<!-- page 1 -->",
		"Preamble line",
		"## Introduction",
		"Intro paragraph one.",
		"",
		"Intro paragraph two.",
		"<!-- page 2 -->",
		"### Method",
		"We propose a thing.",
		"<!-- page 3 -->",
		"It continues here.",
		"## References",
		"[1] Someone. A paper.",
	}, "\n")

	got := Sections(text)
	require.Len(t, got, 3)
	assert.Equal(t, types.Section{Title: "Main", Text: "Preamble line", PageFrom: 1, PageTo: 1}, got[0])
	assert.Equal(t, "Introduction", got[1].Title)
	assert.Equal(t, "Intro paragraph one.\n\nIntro paragraph two.", got[1].Text)
	assert.Equal(t, types.Section{Title: "Method", Text: "We propose a thing.\nIt continues here.", PageFrom: 2, PageTo: 3}, got[2])
}

func TestSectionsPlainTextHeadings(t *testing.T) {
	text := strings.Join([]string{
		"<!-- page 1 -->",
		"Sparse Attention At Scale",
		"",
		"We study attention.",
		"",
		"1 Introduction",
		"Transformers are large.",
		"",
		"RELATED WORK",
		"Prior art exists.",
		"<!-- page 2 -->",
		"",
		"A Short Sentence Ending In A Period.",
		"",
		"REFERENCES",
		"ignored",
	}, "\n")

	got := Sections(text)
	require.Len(t, got, 3)
	assert.Equal(t, "Main", got[0].Title)
	assert.Equal(t, "Sparse Attention At Scale\n\nWe study attention.", got[0].Text)
	assert.Equal(t, "1 Introduction", got[1].Title)
	assert.Equal(t, "RELATED WORK", got[2].Title)
	assert.Equal(t, "Prior art exists.\n\nA Short Sentence Ending In A Period.", got[2].Text)
	assert.Equal(t, 1, got[2].PageFrom)
	assert.Equal(t, 2, got[2].PageTo)
}

func TestSectionsEmpty(t *testing.T) {
	assert.Empty(t, Sections(""))
	assert.Empty(t, Sections("<!-- page 1 -->\n\n## Empty\n"))
}

func TestHeadingHelpers(t *testing.T) {
	title, ok := markdownHeading("## Results")
	assert.True(t, ok)
	assert.Equal(t, "Results", title)
	_, ok = markdownHeading("#hashtag")
	assert.False(t, ok)
	_, ok = markdownHeading("#### Too deep")
	assert.False(t, ok)

	assert.True(t, looksLikeHeading("2.1 Related Work"))
	assert.True(t, looksLikeHeading("EXPERIMENTS"))
	assert.False(t, looksLikeHeading("we study attention"))
	assert.False(t, looksLikeHeading("One Two Three Four Five Six Seven Eight Nine"))

	assert.True(t, isReferences("7. References"))
	assert.False(t, isReferences("Referenced Work"))

	page, ok := parsePageMarker("<!-- page 12 -->")
	assert.True(t, ok)
	assert.Equal(t, 12, page)
	_, ok = parsePageMarker("<!-- pg 1 -->")
	assert.False(t, ok)
}
