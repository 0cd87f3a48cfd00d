package embeddings

import (
	"context"
	"errors"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestSimpleEmbedderDeterministic(t *testing.T) {
	e := NewSimpleEmbedder(64)
	ctx := context.Background()
	a, err := e.EmbedQuery(ctx, "three days in Lisbon with a Sintra day trip")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, err := e.EmbedQuery(ctx, "three days in Lisbon with a Sintra day trip")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSimpleEmbedderLocality(t *testing.T) {
	e := NewSimpleEmbedder(128)
	ctx := context.Background()
	base, _ := e.EmbedQuery(ctx, "three days in Lisbon with a Sintra day trip")
	near, _ := e.EmbedQuery(ctx, "four days in Lisbon with a Sintra day trip")
	far, _ := e.EmbedQuery(ctx, "safari through Kruger National Park and Cape Town wine tour")
	if cosine(base, near) <= cosine(base, far) {
		t.Fatalf("expected near text closer than far text: near=%v far=%v",
			cosine(base, near), cosine(base, far))
	}
}

func TestEmbedTextEmpty(t *testing.T) {
	e := NewSimpleEmbedder(16)
	_, err := EmbedText(context.Background(), e, "  \n\t ")
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("err = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestEmbedTextTagsModel(t *testing.T) {
	e := NewSimpleEmbedder(16)
	v, err := EmbedText(context.Background(), e, "dinner in Cascais")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if v.Model != e.Model() || len(v.Values) != 16 {
		t.Fatalf("vector = {model: %q, dim: %d}", v.Model, len(v.Values))
	}
	other := Vector{Model: "ollama:all-minilm", Values: make([]float32, 16)}
	if v.Comparable(other) {
		t.Fatal("vectors from different models must not be comparable")
	}
}
