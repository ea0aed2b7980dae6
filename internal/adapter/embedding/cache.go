package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"coderag/internal/metrics"
	"coderag/internal/port"
)

// CachedEmbedder memoizes embeddings of repeated texts, typically chat queries.
type CachedEmbedder struct {
	inner port.Embedder
	cache *lru.Cache[string, []float64]
}

func NewCachedEmbedder(inner port.Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cacheKey(c.inner.ModelName(), text)
	if v, ok := c.cache.Get(key); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return append([]float64(nil), v...), nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, append([]float64(nil), v...))
	return v, nil
}

func (c *CachedEmbedder) ModelName() string {
	return c.inner.ModelName()
}

// Len returns the number of cached embeddings.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

func cacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
