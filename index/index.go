// Package index provides nearest-neighbor retrieval over a reference corpus
// of embedded itineraries. A built Version is immutable and shared read-only
// across concurrent scoring runs; corpus updates build a new Version that is
// swapped in atomically.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/voyagekit/itinscore/embeddings"
)

// ErrModelMismatch reports a query vector produced by a different embedding
// model than the corpus.
var ErrModelMismatch = errors.New("index: query vector model differs from corpus model")

// Reference is one embedded reference itinerary.
type Reference struct {
	ID      string
	Label   string
	Content string
	Vector  embeddings.Vector
}

// Result is one ranked neighbor; Distance is cosine distance in [0,2].
type Result struct {
	ReferenceID string
	Label       string
	Distance    float64
}

// Version is an immutable snapshot of the reference corpus. Search performs
// an exact scan, so recall is 1.0; callers must nevertheless treat results
// as best-effort ranked candidates.
type Version struct {
	model string
	refs  []Reference
}

// NewVersion builds an immutable corpus version. References whose vectors
// were produced by a different model are rejected.
func NewVersion(model string, refs []Reference) (*Version, error) {
	for _, ref := range refs {
		if ref.Vector.Model != model {
			return nil, fmt.Errorf("%w: reference %s has model %q, corpus is %q",
				ErrModelMismatch, ref.ID, ref.Vector.Model, model)
		}
	}
	out := make([]Reference, len(refs))
	copy(out, refs)
	return &Version{model: model, refs: out}, nil
}

// Model returns the embedding model the corpus was built with.
func (v *Version) Model() string { return v.model }

// Len returns the corpus size.
func (v *Version) Len() int { return len(v.refs) }

// Search returns up to k nearest references by ascending cosine distance.
// An empty corpus yields an empty result, not an error; k larger than the
// corpus returns everything available.
func (v *Version) Search(query embeddings.Vector, k int) ([]Result, error) {
	if len(v.refs) == 0 {
		return nil, nil
	}
	if query.Model != v.model {
		return nil, fmt.Errorf("%w: query %q vs corpus %q", ErrModelMismatch, query.Model, v.model)
	}
	if k <= 0 {
		return nil, nil
	}
	results := make([]Result, 0, len(v.refs))
	for _, ref := range v.refs {
		results = append(results, Result{
			ReferenceID: ref.ID,
			Label:       ref.Label,
			Distance:    1 - cosineSimilarity(query.Values, ref.Vector.Values),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ReferenceID < results[j].ReferenceID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Index holds the currently active corpus version. Swaps are atomic, so a
// concurrent Search always observes a complete version.
type Index struct {
	current atomic.Pointer[Version]
}

// New creates an index with an optional initial version.
func New(version *Version) *Index {
	idx := &Index{}
	if version != nil {
		idx.current.Store(version)
	}
	return idx
}

// Current returns the active version, or nil when no corpus was built yet.
func (i *Index) Current() *Version {
	return i.current.Load()
}

// Swap atomically replaces the active version.
func (i *Index) Swap(version *Version) {
	i.current.Store(version)
}

// Search queries the active version; with no corpus at all it returns an
// empty result, mirroring the empty-corpus behavior of a Version.
func (i *Index) Search(query embeddings.Vector, k int) ([]Result, error) {
	version := i.current.Load()
	if version == nil {
		return nil, nil
	}
	return version.Search(query, k)
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
