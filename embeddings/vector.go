package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmbeddingUnavailable is returned when there is nothing to embed: the
// input text is empty once whitespace is stripped.
var ErrEmbeddingUnavailable = errors.New("embeddings: no text to embed")

// Vector is a fixed-length embedding tagged with the model that produced it.
type Vector struct {
	Model  string
	Values []float32
}

// Comparable reports whether two vectors come from the same model and share
// dimensionality.
func (v Vector) Comparable(other Vector) bool {
	return v.Model == other.Model && len(v.Values) == len(other.Values)
}

// EmbedText embeds a single text through the embedder, failing with
// ErrEmbeddingUnavailable for whitespace-only input.
func EmbedText(ctx context.Context, e Embedder, text string) (Vector, error) {
	if strings.TrimSpace(text) == "" {
		return Vector{}, ErrEmbeddingUnavailable
	}
	values, err := e.EmbedQuery(ctx, text)
	if err != nil {
		return Vector{}, fmt.Errorf("embed text: %w", err)
	}
	return Vector{Model: e.Model(), Values: values}, nil
}
