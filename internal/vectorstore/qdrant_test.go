// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/research-agent/pkg/types"
)

// fakeQdrant records requests and returns canned points.
type fakeQdrant struct {
	exists  bool
	created []*qdrant.CreateCollection
	upserts []*qdrant.UpsertPoints
	queries []*qdrant.QueryPoints
	points  []*qdrant.ScoredPoint
	err     error
	closed  bool
}

func (f *fakeQdrant) CollectionExists(context.Context, string) (bool, error) {
	return f.exists, f.err
}

func (f *fakeQdrant) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	f.created = append(f.created, req)
	return f.err
}

func (f *fakeQdrant) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, f.err
}

func (f *fakeQdrant) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queries = append(f.queries, req)
	return f.points, f.err
}

func (f *fakeQdrant) Close() error {
	f.closed = true
	return nil
}

func TestPointIDDeterministic(t *testing.T) {
	a := PointID("2401.00001:2401.00001:sec0:0")
	assert.Equal(t, a, PointID("2401.00001:2401.00001:sec0:0"))
	assert.NotEqual(t, a, PointID("2401.00001:2401.00001:sec0:1"))
	assert.Len(t, a, 36)
}

func TestEnsureCollection(t *testing.T) {
	f := &fakeQdrant{}
	s := newStore(f, "", zaptest.NewLogger(t))
	require.NoError(t, s.EnsureCollection(context.Background(), 768))
	require.Len(t, f.created, 1)
	assert.Equal(t, DefaultCollection, f.created[0].GetCollectionName())

	f = &fakeQdrant{exists: true}
	s = newStore(f, "papers", nil)
	require.NoError(t, s.EnsureCollection(context.Background(), 768))
	assert.Empty(t, f.created)

	f = &fakeQdrant{err: errors.New("unavailable")}
	assert.Error(t, newStore(f, "papers", nil).EnsureCollection(context.Background(), 768))
}

func TestUpsert(t *testing.T) {
	f := &fakeQdrant{}
	s := newStore(f, "papers", nil)
	chunks := []types.Chunk{
		{ChunkID: "p:p:sec0:0", PaperID: "p", SectionID: "p:sec0", Text: "hello", PageFrom: 2, PageTo: 3,
			Metadata: map[string]string{"title": "T", "text": "ignored"}},
	}

	require.NoError(t, s.Upsert(context.Background(), chunks, [][]float32{{0.1, 0.2}}))
	require.Len(t, f.upserts, 1)
	req := f.upserts[0]
	assert.Equal(t, "papers", req.GetCollectionName())
	require.Len(t, req.GetPoints(), 1)

	pt := req.GetPoints()[0]
	assert.Equal(t, PointID("p:p:sec0:0"), pt.GetId().GetUuid())
	payload := pt.GetPayload()
	assert.Equal(t, "hello", payload["text"].GetStringValue())
	assert.Equal(t, "p:sec0", payload["section_id"].GetStringValue())
	assert.Equal(t, int64(2), payload["page_from"].GetIntegerValue())
	assert.Equal(t, "T", payload["title"].GetStringValue())

	assert.Error(t, s.Upsert(context.Background(), chunks, nil))
	require.NoError(t, s.Upsert(context.Background(), nil, nil))
	assert.Len(t, f.upserts, 1)
}

func TestSearch(t *testing.T) {
	f := &fakeQdrant{points: []*qdrant.ScoredPoint{
		{
			Id:    qdrant.NewIDUUID(PointID("c1")),
			Score: 0.9,
			Payload: map[string]*qdrant.Value{
				"chunk_id":   qdrant.NewValueString("c1"),
				"paper_id":   qdrant.NewValueString("p1"),
				"section_id": qdrant.NewValueString("p1:sec0"),
				"text":       qdrant.NewValueString("passage"),
				"page_from":  qdrant.NewValueInt(4),
				"title":      qdrant.NewValueString("Paper One"),
			},
		},
		{Id: qdrant.NewIDUUID("00000000-0000-0000-0000-000000000001"), Score: -0.2},
	}}
	s := newStore(f, "papers", nil)

	got, err := s.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, uint64(5), f.queries[0].GetLimit())
	assert.Equal(t, "c1", got[0].ChunkID)
	assert.Equal(t, "p1", got[0].PaperID)
	assert.Equal(t, "passage", got[0].Text)
	assert.InDelta(t, 0.9, got[0].Score, 1e-6)
	assert.Equal(t, types.SourceLocal, got[0].Source)
	require.NotNil(t, got[0].PageFrom)
	assert.Equal(t, 4, *got[0].PageFrom)
	assert.Nil(t, got[0].PageTo)
	assert.Equal(t, map[string]string{"title": "Paper One"}, got[0].Metadata)

	assert.Equal(t, "00000000-0000-0000-0000-000000000001", got[1].ChunkID)
	assert.Equal(t, 0.0, got[1].Score)

	none, err := s.Search(context.Background(), []float32{1}, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	f.err = errors.New("down")
	_, err = s.Search(context.Background(), []float32{1}, 3)
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	f := &fakeQdrant{}
	require.NoError(t, newStore(f, "", nil).Close())
	assert.True(t, f.closed)
}
