// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns text into dense vectors through an Ollama server and
// optionally caches them in Redis.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-agent/pkg/types"
)

const (
	// DefaultBaseURL is the default Ollama API base URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is the default embedding model.
	DefaultModel = "nomic-embed-text"

	// DefaultDimension matches nomic-embed-text.
	DefaultDimension = 768

	// DefaultConcurrency bounds parallel requests in EmbedBatch.
	DefaultConcurrency = 4
)

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// Ollama calls the Ollama /api/embeddings endpoint. Returned vectors are
// L2-normalised.
type Ollama struct {
	baseURL     string
	model       string
	dimension   int
	concurrency int
	client      *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllama builds an embedder from cfg, filling defaults for zero fields.
// A nil client uses http.DefaultClient.
func NewOllama(cfg types.EmbeddingConfig, client *http.Client) *Ollama {
	e := &Ollama{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		dimension:   cfg.Dimension,
		concurrency: cfg.Concurrency,
		client:      client,
	}
	if e.baseURL == "" {
		e.baseURL = DefaultBaseURL
	}
	if e.model == "" {
		e.model = DefaultModel
	}
	if e.dimension <= 0 {
		e.dimension = DefaultDimension
	}
	if e.concurrency <= 0 {
		e.concurrency = DefaultConcurrency
	}
	if e.client == nil {
		e.client = http.DefaultClient
	}
	return e
}

// Embed returns the embedding of one text.
func (e *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(msg))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned from ollama")
	}
	return Normalize(out.Embedding), nil
}

// EmbedBatch embeds texts with at most the configured number of requests
// in flight. The first failure cancels the rest.
func (e *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embedding text %d: %w", i, err)
			}
			results[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Dimension returns the configured vector size.
func (e *Ollama) Dimension() int { return e.dimension }

// ModelName returns the embedding model.
func (e *Ollama) ModelName() string { return e.model }

// Normalize converts v to float32 scaled to unit length. A zero vector is
// returned unchanged.
func Normalize(v []float64) []float32 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		if norm == 0 {
			out[i] = float32(x)
			continue
		}
		out[i] = float32(x / norm)
	}
	return out
}

var _ Embedder = (*Ollama)(nil)
