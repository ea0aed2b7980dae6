package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"

	"coderag/internal/domain"
	"coderag/internal/port"
)

// DefaultTopN is the number of ranked results handed to the budgeter.
const DefaultTopN = 100

// Ranker orders store records by relatedness to a query.
type Ranker struct {
	embedder port.Embedder
}

func NewRanker(embedder port.Embedder) *Ranker {
	return &Ranker{embedder: embedder}
}

// Rank embeds query once and returns the topN most related records.
func (r *Ranker) Rank(ctx context.Context, query string, st *domain.Store, topN int) ([]domain.RankedResult, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: top-n must be positive, got %d", domain.ErrInvalidArgument, topN)
	}
	if st.Len() == 0 {
		return []domain.RankedResult{}, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return RankEmbedding(vec, st, topN)
}

// RankEmbedding scores every record against vec with cosine similarity,
// sorts descending keeping store order for ties, and truncates to topN.
func RankEmbedding(vec []float64, st *domain.Store, topN int) ([]domain.RankedResult, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: top-n must be positive, got %d", domain.ErrInvalidArgument, topN)
	}
	if st.Len() == 0 {
		return []domain.RankedResult{}, nil
	}

	results := make([]domain.RankedResult, 0, st.Len())
	for i, rec := range st.Records {
		if len(rec.Embedding) != len(vec) {
			return nil, &domain.DimensionMismatchError{Expected: len(vec), Got: len(rec.Embedding), Index: i}
		}
		results = append(results, domain.RankedResult{
			Text:          rec.Text,
			Relatedness:   CosineSimilarity(vec, rec.Embedding),
			SourceLocator: rec.SourceLocator,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relatedness > results[j].Relatedness
	})

	if topN < len(results) {
		results = results[:topN]
	}
	return results, nil
}

// CosineSimilarity returns dot(a,b)/(|a||b|), or 0 when either vector has
// zero norm. a and b must have the same length.
func CosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
