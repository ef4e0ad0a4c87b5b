// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest turns one discovered paper into indexed chunks: download,
// text extraction, sectioning, chunking, embedding, vector upsert and the
// metadata row that suppresses the paper on later runs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/chunk"
	"github.com/pdiddy/research-agent/internal/convert"
	"github.com/pdiddy/research-agent/internal/fingerprint"
	"github.com/pdiddy/research-agent/pkg/types"
)

// EmbedBatchSize bounds the number of chunk texts sent per embedding call.
const EmbedBatchSize = 32

// ErrNoText is returned when a PDF yields no chunkable text.
var ErrNoText = errors.New("no text extracted")

// Downloader stores the PDF for a search result locally.
type Downloader interface {
	Download(ctx context.Context, r types.SearchResult) (path string, skipped bool, err error)
}

// Embedder embeds chunk texts.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore receives chunk vectors.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []types.Chunk, vectors [][]float32) error
}

// Repository persists paper metadata.
type Repository interface {
	SavePaper(ctx context.Context, p types.Paper) (bool, error)
}

// Pipeline ingests single papers. It satisfies workflow.ItemIngester.
type Pipeline struct {
	downloader Downloader
	converter  convert.Converter
	chunker    chunk.Chunker
	embedder   Embedder
	store      VectorStore
	repo       Repository
	logger     *zap.Logger
	now        func() time.Time
}

// New returns a Pipeline over the given collaborators.
func New(d Downloader, c convert.Converter, ch chunk.Chunker, e Embedder, vs VectorStore, repo Repository, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		downloader: d,
		converter:  c,
		chunker:    ch,
		embedder:   e,
		store:      vs,
		repo:       repo,
		logger:     logger,
		now:        time.Now,
	}
}

// Ingest processes r end to end and returns the local PDF path and the
// number of chunks indexed.
func (p *Pipeline) Ingest(ctx context.Context, r types.SearchResult) (string, int, error) {
	log := p.logger.With(zap.String("paper_id", r.Identifier))

	path, skipped, err := p.downloader.Download(ctx, r)
	if err != nil {
		return "", 0, err
	}
	if skipped {
		log.Debug("reusing downloaded PDF", zap.String("path", path))
	}

	text, err := p.converter.Convert(ctx, path)
	if err != nil {
		return path, 0, fmt.Errorf("converting %s: %w", path, err)
	}
	sections := convert.Sections(text)
	chunks := p.chunker.Paper(r.Identifier, sections, chunkMeta(r))
	if len(chunks) == 0 {
		return path, 0, fmt.Errorf("%s: %w", path, ErrNoText)
	}

	vectors, err := p.embed(ctx, chunks)
	if err != nil {
		return path, 0, err
	}
	if err := p.store.Upsert(ctx, chunks, vectors); err != nil {
		return path, 0, fmt.Errorf("indexing chunks: %w", err)
	}

	now := p.now().UTC()
	paper := types.Paper{
		ArxivID:     r.Identifier,
		Title:       r.Title,
		Authors:     strings.Join(r.Authors, ", "),
		PDFPath:     path,
		Fingerprint: fingerprint.Title(r.Title),
		ChunksCount: len(chunks),
		Processed:   true,
		Indexed:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !r.Date.IsZero() {
		paper.PublishedDate = r.Date.Format("2006-01-02")
	}
	inserted, err := p.repo.SavePaper(ctx, paper)
	if err != nil {
		return path, 0, fmt.Errorf("saving metadata: %w", err)
	}
	if !inserted {
		log.Warn("metadata row already present")
	}

	log.Info("paper ingested",
		zap.Int("sections", len(sections)),
		zap.Int("chunks", len(chunks)),
	)
	return path, len(chunks), nil
}

func (p *Pipeline) embed(ctx context.Context, chunks []types.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += EmbedBatchSize {
		end := min(start+EmbedBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}
		batch, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks: %w", err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding chunks: got %d vectors for %d texts", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func chunkMeta(r types.SearchResult) map[string]string {
	meta := map[string]string{"title": r.Title}
	if len(r.Authors) > 0 {
		meta["authors"] = strings.Join(r.Authors, ", ")
	}
	if !r.Date.IsZero() {
		meta["published"] = r.Date.Format("2006-01-02")
	}
	if len(r.Categories) > 0 {
		meta["categories"] = strings.Join(r.Categories, ",")
	}
	return meta
}
