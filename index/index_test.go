package index

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/voyagekit/itinscore/embeddings"
)

func testVec(model string, values ...float32) embeddings.Vector {
	return embeddings.Vector{Model: model, Values: values}
}

func testRefs(model string) []Reference {
	return []Reference{
		{ID: "paris-3d", Label: "Paris weekend", Content: "Paris itinerary", Vector: testVec(model, 1, 0, 0)},
		{ID: "tokyo-7d", Label: "Tokyo week", Content: "Tokyo itinerary", Vector: testVec(model, 0, 1, 0)},
		{ID: "rome-5d", Label: "Rome spring", Content: "Rome itinerary", Vector: testVec(model, 0.9, 0.1, 0)},
	}
}

func TestVersionSearchRanking(t *testing.T) {
	version, err := NewVersion("m", testRefs("m"))
	if err != nil {
		t.Fatalf("new version: %v", err)
	}
	results, err := version.Search(testVec("m", 1, 0, 0), 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ReferenceID != "paris-3d" {
		t.Fatalf("expected paris-3d first, got %s", results[0].ReferenceID)
	}
	if results[1].ReferenceID != "rome-5d" {
		t.Fatalf("expected rome-5d second, got %s", results[1].ReferenceID)
	}
	if math.Abs(results[0].Distance) > 1e-9 {
		t.Fatalf("identical vectors should have zero distance, got %v", results[0].Distance)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Fatalf("results not sorted by ascending distance: %v", results)
		}
	}
}

func TestVersionSearchKLargerThanCorpus(t *testing.T) {
	version, err := NewVersion("m", testRefs("m"))
	if err != nil {
		t.Fatalf("new version: %v", err)
	}
	results, err := version.Search(testVec("m", 0, 1, 0), 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected entire corpus, got %d results", len(results))
	}
}

func TestVersionSearchEmptyCorpus(t *testing.T) {
	version, err := NewVersion("m", nil)
	if err != nil {
		t.Fatalf("new version: %v", err)
	}
	results, err := version.Search(testVec("m", 1, 0, 0), 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %v", results)
	}
}

func TestVersionSearchModelMismatch(t *testing.T) {
	version, err := NewVersion("m", testRefs("m"))
	if err != nil {
		t.Fatalf("new version: %v", err)
	}
	if _, err := version.Search(testVec("other", 1, 0, 0), 3); !errors.Is(err, ErrModelMismatch) {
		t.Fatalf("expected ErrModelMismatch, got %v", err)
	}
}

func TestNewVersionRejectsMixedModels(t *testing.T) {
	refs := testRefs("m")
	refs[1].Vector.Model = "other"
	if _, err := NewVersion("m", refs); !errors.Is(err, ErrModelMismatch) {
		t.Fatalf("expected ErrModelMismatch, got %v", err)
	}
}

func TestIndexSearchWithoutVersion(t *testing.T) {
	idx := New(nil)
	results, err := idx.Search(testVec("m", 1, 0, 0), 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %v", results)
	}
}

func TestIndexSwapUnderConcurrentSearch(t *testing.T) {
	small, err := NewVersion("m", testRefs("m")[:1])
	if err != nil {
		t.Fatalf("new version: %v", err)
	}
	full, err := NewVersion("m", testRefs("m"))
	if err != nil {
		t.Fatalf("new version: %v", err)
	}
	idx := New(small)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				results, err := idx.Search(testVec("m", 1, 0, 0), 10)
				if err != nil {
					t.Errorf("search: %v", err)
					return
				}
				if n := len(results); n != 1 && n != 3 {
					t.Errorf("observed torn corpus of %d references", n)
					return
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		idx.Swap(full)
		idx.Swap(small)
	}
	close(stop)
	wg.Wait()

	idx.Swap(full)
	if got := idx.Current().Len(); got != 3 {
		t.Fatalf("expected final corpus of 3, got %d", got)
	}
}
