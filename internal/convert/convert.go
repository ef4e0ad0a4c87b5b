// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert extracts text from PDFs and splits it into titled
// sections with page ranges.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/research-agent/internal/container"
)

// Converter names.
const (
	NamePdfToText  = "pdftotext"
	NameMarkitdown = "markitdown"
)

const imageMarkitdown = "markitdown:latest"

// Converter turns a PDF into text. Page boundaries, when known, appear as
// "<!-- page N -->" lines.
type Converter interface {
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// New returns the named converter. An empty name selects pdftotext.
func New(ctx context.Context, name string, ex container.Executor) (Converter, error) {
	switch name {
	case NamePdfToText, "":
		bin := container.Binary{Bin: NamePdfToText, Exec: ex}
		if !bin.Available() {
			return nil, fmt.Errorf("%s not found on PATH (install poppler-utils)", NamePdfToText)
		}
		return &PdfToText{bin: bin}, nil
	case NameMarkitdown:
		rt, err := container.DetectRuntime(ctx, ex)
		if err != nil {
			return nil, err
		}
		return NewMarkitdown(ctx, rt)
	default:
		return nil, fmt.Errorf("unknown converter %q (want %s or %s)", name, NamePdfToText, NameMarkitdown)
	}
}

// PdfToText runs the poppler pdftotext binary. Its form feeds separate
// pages.
type PdfToText struct {
	bin container.Binary
}

// Convert extracts the text layer of pdfPath.
func (p *PdfToText) Convert(ctx context.Context, pdfPath string) (string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	var out bytes.Buffer
	if err := p.bin.Run(ctx, []string{"-enc", "UTF-8", pdfPath, "-"}, &out); err != nil {
		return "", fmt.Errorf("converting %s: %w", pdfPath, err)
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", fmt.Errorf("pdftotext produced empty output for %s", pdfPath)
	}
	return markPages(out.String()), nil
}

// markPages replaces form feeds with page markers.
func markPages(text string) string {
	pages := strings.Split(text, "\f")
	var b strings.Builder
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		fmt.Fprintf(&b, "<!-- page %d -->\n", i+1)
		b.WriteString(page)
		if !strings.HasSuffix(page, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Markitdown pipes PDFs through the markitdown container image.
type Markitdown struct {
	runtime container.Runtime
}

// NewMarkitdown checks that the markitdown image exists in rt.
func NewMarkitdown(ctx context.Context, rt container.Runtime) (*Markitdown, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &Markitdown{runtime: rt}, nil
}

// Convert returns the Markdown rendering of pdfPath.
func (m *Markitdown) Convert(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, f, &out); err != nil {
		return "", fmt.Errorf("converting %s with markitdown: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("markitdown produced empty output for %s", pdfPath)
	}
	return out.String(), nil
}
