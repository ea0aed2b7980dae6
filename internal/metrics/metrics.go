package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Service call metrics for the embedding and completion backends.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coderag",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coderag",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coderag",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coderag",
			Name:      "completion_requests_total",
			Help:      "Total number of completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coderag",
			Name:      "completion_request_duration_seconds",
			Help:      "Completion request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	PromptTokens = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coderag",
			Name:      "prompt_tokens",
			Help:      "Token count of assembled prompts",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 10),
		},
	)

	PromptSnippets = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coderag",
			Name:      "prompt_snippets",
			Help:      "Number of snippets included per prompt",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)
)

var registerOnce sync.Once

// Register registers all metrics with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingCacheTotal,
			CompletionRequestsTotal,
			CompletionRequestDuration,
			PromptTokens,
			PromptSnippets,
		)
	})
}
