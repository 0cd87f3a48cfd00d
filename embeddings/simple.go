package embeddings

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// SimpleEmbedder produces deterministic bag-of-words vectors via feature
// hashing: each token is FNV-hashed into one of Dim buckets and the bucket
// counts are L2-normalized. Identical input always yields bit-identical
// vectors, which the idempotence guarantees of the scoring pipeline rely on;
// it captures lexical rather than semantic similarity.
type SimpleEmbedder struct {
	Dim int
}

// NewSimpleEmbedder constructs a deterministic embedder.
func NewSimpleEmbedder(dim int) *SimpleEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &SimpleEmbedder{Dim: dim}
}

// Model identifies the embedder.
func (e *SimpleEmbedder) Model() string { return "simple-hash-v1" }

// EmbedDocuments embeds documents deterministically.
func (e *SimpleEmbedder) EmbedDocuments(_ context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i, s := range docs {
		out[i] = embedString(s, e.Dim)
	}
	return out, nil
}

// EmbedQuery embeds a query deterministically.
func (e *SimpleEmbedder) EmbedQuery(_ context.Context, q string) ([]float32, error) {
	return embedString(q, e.Dim), nil
}

func embedString(s string, dim int) []float32 {
	if dim <= 0 {
		dim = 64
	}
	v := make([]float32, dim)
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		var h uint32 = 2166136261
		for i := 0; i < len(tok); i++ {
			h = h*16777619 ^ uint32(tok[i])
		}
		// Sign bit from a second hash round reduces bucket collisions
		// cancelling out.
		sign := float32(1)
		if (h*1664525+1013904223)&1 == 1 {
			sign = -1
		}
		v[h%uint32(dim)] += sign
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= inv
		}
	}
	return v
}
