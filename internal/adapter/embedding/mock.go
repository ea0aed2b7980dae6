package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
)

// MockEmbedder is a deterministic offline embedder. Each lowercased word is
// hashed into one of Dimension buckets and the result is L2-normalized, so
// texts sharing vocabulary score as related.
type MockEmbedder struct {
	dimension int
	calls     atomic.Int64

	mu      sync.RWMutex
	vectors map[string][]float64
	err     error
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 64
	}
	return &MockEmbedder{dimension: dimension, vectors: make(map[string][]float64)}
}

// SetVector pins the embedding returned for text.
func (e *MockEmbedder) SetVector(text string, v []float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vectors[text] = v
}

// SetError makes every following call fail with err. nil restores normal behaviour.
func (e *MockEmbedder) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Calls returns how many times Embed was invoked.
func (e *MockEmbedder) Calls() int {
	return int(e.calls.Load())
}

func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	err := e.err
	pinned, ok := e.vectors[text]
	e.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if ok {
		return append([]float64(nil), pinned...), nil
	}

	vec := make([]float64, e.dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%uint32(e.dimension)]++
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
