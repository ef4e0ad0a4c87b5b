// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/metrics"
)

// DefaultCacheTTL is used when the configured TTL is not positive.
const DefaultCacheTTL = time.Hour

const cacheKeyPrefix = "emb:"

// Cached wraps an Embedder with a Redis cache keyed by model and text.
// Redis failures are logged and treated as misses.
type Cached struct {
	inner  Embedder
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached returns a caching embedder.
func NewCached(inner Embedder, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

// Embed returns the cached vector for text or computes and stores it.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok := c.get(ctx, key); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, vec)
	return vec, nil
}

// EmbedBatch serves hits from the cache and embeds only the misses.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := c.get(ctx, c.key(text)); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return results, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		results[i] = vecs[j]
		c.set(ctx, c.key(texts[i]), vecs[j])
	}
	return results, nil
}

// Dimension returns the wrapped embedder's dimension.
func (c *Cached) Dimension() int { return c.inner.Dimension() }

// ModelName returns the wrapped embedder's model.
func (c *Cached) ModelName() string { return c.inner.ModelName() }

func (c *Cached) key(text string) string {
	sum := md5.Sum([]byte(c.inner.ModelName() + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *Cached) get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
			metrics.EmbeddingCache.WithLabelValues("error").Inc()
		} else {
			metrics.EmbeddingCache.WithLabelValues("miss").Inc()
		}
		return nil, false
	}
	vec, err := decodeVector(data)
	if err != nil {
		c.logger.Warn("corrupt embedding cache entry", zap.String("key", key), zap.Error(err))
		metrics.EmbeddingCache.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.EmbeddingCache.WithLabelValues("hit").Inc()
	return vec, true
}

func (c *Cached) set(ctx context.Context, key string, vec []float32) {
	if err := c.rdb.Set(ctx, key, encodeVector(vec), c.ttl).Err(); err != nil {
		c.logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// encodeVector packs v as little-endian float32 values.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("cache entry length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

var _ Embedder = (*Cached)(nil)
