package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coderag/internal/metrics"
)

func TestCachedEmbedder_HitsOnRepeatedText(t *testing.T) {
	inner := NewMockEmbedder(8)
	c, err := NewCachedEmbedder(inner, 4)
	require.NoError(t, err)

	hits := testutil.ToFloat64(metrics.EmbeddingCacheTotal.WithLabelValues("hit"))

	ctx := context.Background()
	first, err := c.Embed(ctx, "how is auth done?")
	require.NoError(t, err)
	second, err := c.Embed(ctx, "how is auth done?")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.Calls())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.EmbeddingCacheTotal.WithLabelValues("hit")))
}

func TestCachedEmbedder_ReturnsCopies(t *testing.T) {
	inner := NewMockEmbedder(2)
	inner.SetVector("q", []float64{1, 0})
	c, err := NewCachedEmbedder(inner, 4)
	require.NoError(t, err)

	v, err := c.Embed(context.Background(), "q")
	require.NoError(t, err)
	v[0] = 42

	again, err := c.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, again)
}

func TestCachedEmbedder_DoesNotCacheErrors(t *testing.T) {
	inner := NewMockEmbedder(2)
	inner.SetError(errors.New("down"))
	c, err := NewCachedEmbedder(inner, 4)
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())

	inner.SetError(nil)
	_, err = c.Embed(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.Calls())
}

func TestNewCachedEmbedder_InvalidSize(t *testing.T) {
	_, err := NewCachedEmbedder(NewMockEmbedder(2), 0)
	assert.Error(t, err)
}

func TestCacheKey_DependsOnModel(t *testing.T) {
	assert.NotEqual(t, cacheKey("a", "text"), cacheKey("b", "text"))
	assert.NotEqual(t, cacheKey("ab", "c"), cacheKey("a", "bc"))
}
