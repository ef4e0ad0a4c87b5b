// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorstore stores chunk embeddings in Qdrant and answers
// similarity queries with retrieval results.
package vectorstore

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/pkg/types"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "ai_core"

// Payload keys.
const (
	keyChunkID   = "chunk_id"
	keyPaperID   = "paper_id"
	keySectionID = "section_id"
	keyText      = "text"
	keyPageFrom  = "page_from"
	keyPageTo    = "page_to"
)

// pointsAPI is the subset of *qdrant.Client the store uses.
type pointsAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// Store is a Qdrant-backed chunk store.
type Store struct {
	client     pointsAPI
	collection string
	logger     *zap.Logger
}

// New connects to the Qdrant gRPC endpoint at cfg.Addr ("host:port"; the
// port defaults to 6334).
func New(cfg types.VectorStoreConfig, logger *zap.Logger) (*Store, error) {
	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		host = cfg.Addr
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant address %q: %w", cfg.Addr, err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}
	return newStore(client, cfg.Collection, logger), nil
}

func newStore(client pointsAPI, collection string, logger *zap.Logger) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, collection: collection, logger: logger}
}

// Close releases the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist yet.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.collection, err)
	}
	s.logger.Info("created vector collection",
		zap.String("collection", s.collection),
		zap.Int("dimension", dimension),
	)
	return nil
}

// PointID maps a chunk ID to the deterministic UUID used as its point ID,
// so re-ingesting a chunk overwrites it.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

// Upsert writes chunks with their vectors. vectors[i] belongs to chunks[i].
func (s *Store) Upsert(ctx context.Context, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("upsert: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, c := range chunks {
		payload := map[string]*qdrant.Value{
			keyChunkID:   qdrant.NewValueString(c.ChunkID),
			keyPaperID:   qdrant.NewValueString(c.PaperID),
			keySectionID: qdrant.NewValueString(c.SectionID),
			keyText:      qdrant.NewValueString(c.Text),
		}
		if c.PageFrom > 0 {
			payload[keyPageFrom] = qdrant.NewValueInt(int64(c.PageFrom))
		}
		if c.PageTo > 0 {
			payload[keyPageTo] = qdrant.NewValueInt(int64(c.PageTo))
		}
		for k, v := range c.Metadata {
			if _, reserved := payload[k]; !reserved {
				payload[k] = qdrant.NewValueString(v)
			}
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(c.ChunkID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		}
	}

	wait := true
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}
	return nil
}

// Search returns up to limit chunks nearest to vector as local retrieval
// results. Scores are clamped to [0,1].
func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]types.RetrievalResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.collection, err)
	}

	results := make([]types.RetrievalResult, 0, len(points))
	for _, p := range points {
		results = append(results, toRetrieval(p))
	}
	return results, nil
}

func toRetrieval(p *qdrant.ScoredPoint) types.RetrievalResult {
	r := types.RetrievalResult{
		Score:  clamp01(float64(p.GetScore())),
		Source: types.SourceLocal,
	}
	meta := make(map[string]string)
	for k, v := range p.GetPayload() {
		switch k {
		case keyChunkID:
			r.ChunkID = v.GetStringValue()
		case keyPaperID:
			r.PaperID = v.GetStringValue()
		case keySectionID:
			r.SectionID = v.GetStringValue()
		case keyText:
			r.Text = v.GetStringValue()
		case keyPageFrom:
			page := int(v.GetIntegerValue())
			r.PageFrom = &page
		case keyPageTo:
			page := int(v.GetIntegerValue())
			r.PageTo = &page
		default:
			meta[k] = v.GetStringValue()
		}
	}
	if r.ChunkID == "" {
		r.ChunkID = p.GetId().GetUuid()
	}
	if len(meta) > 0 {
		r.Metadata = meta
	}
	return r
}

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}
