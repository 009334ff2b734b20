package embedder

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/gitacompanion/companion/engine/knowledge"
)

// Hash is a deterministic bag-of-tokens embedder that needs no model.
// Each token increments the bucket FNV-1a(token) mod dimension, and the
// result is L2-normalized. Text without tokens maps to the zero vector.
type Hash struct {
	dimension int
}

func NewHash(dimension int) *Hash {
	if dimension <= 0 {
		dimension = 1
	}
	return &Hash{dimension: dimension}
}

func (h *Hash) Dimension() int {
	return h.dimension
}

func (h *Hash) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.embed(text), nil
}

func (h *Hash) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.embed(text)
	}
	return out, nil
}

func (h *Hash) embed(text string) []float32 {
	vector := make([]float32, h.dimension)
	tokens := knowledge.Tokenize(text)
	if len(tokens) == 0 {
		return vector
	}
	for _, tok := range tokens {
		hasher := fnv.New32a()
		_, _ = hasher.Write([]byte(tok))
		vector[hasher.Sum32()%uint32(h.dimension)]++
	}
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vector
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}
