package scorer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/voyagekit/itinscore/document"
	"github.com/voyagekit/itinscore/entity"
	"github.com/voyagekit/itinscore/index"
)

func fullEntitySet() *entity.Set {
	set := entity.NewSet()
	set.Add(entity.Span{Type: entity.TypeDate, Raw: "July 4 2024", Value: "2024-07-04", Normalized: true, Confidence: 0.9})
	set.Add(entity.Span{Type: entity.TypeCost, Raw: "$450", Value: "450 USD", Normalized: true, Confidence: 0.9})
	set.Add(entity.Span{Type: entity.TypeLocation, Raw: "JFK", Value: "John F. Kennedy International Airport", Normalized: true, Confidence: 0.95})
	set.Add(entity.Span{Type: entity.TypeActivity, Raw: "visit the Louvre", Value: "visit the Louvre", Normalized: true, Confidence: 0.7})
	return set
}

func parsedWith(confidence float64) *document.ParsedText {
	return &document.ParsedText{
		DocumentID: "doc-1",
		Text:       "A wonderful trip with a scenic flight",
		Method:     document.MethodDirect,
		Confidence: confidence,
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := New(nil)
	neighbors := []index.Result{{ReferenceID: "a", Distance: 0.1}, {ReferenceID: "b", Distance: 0.4}}
	first := s.Score(parsedWith(1), fullEntitySet(), neighbors, nil)
	second := s.Score(parsedWith(1), fullEntitySet(), neighbors, nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("score not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestCompletenessMonotonicInConfidence(t *testing.T) {
	s := New(nil)
	set := fullEntitySet()
	prev := -1.0
	for _, confidence := range []float64{0, 0.25, 0.5, 0.75, 1} {
		report := s.Score(parsedWith(confidence), set, nil, nil)
		if report.Breakdown.Completeness < prev {
			t.Fatalf("completeness decreased at confidence %v: %v < %v",
				confidence, report.Breakdown.Completeness, prev)
		}
		prev = report.Breakdown.Completeness
	}
}

func TestCompletenessHalfCreditForUnnormalized(t *testing.T) {
	m := DefaultModel()
	normalized := entity.NewSet()
	normalized.Add(entity.Span{Type: entity.TypeDate, Raw: "2024-07-04", Value: "2024-07-04", Normalized: true})
	raw := entity.NewSet()
	raw.Add(entity.Span{Type: entity.TypeDate, Raw: "99/99/2024", Value: "99/99/2024", Normalized: false})

	full := m.completeness(1, normalized)
	half := m.completeness(1, raw)
	if half >= full {
		t.Fatalf("unnormalized span should earn less: %v >= %v", half, full)
	}
	if half == 0 {
		t.Fatal("present-but-unnormalized span should earn partial credit")
	}
}

func TestNeutralSimilarityOnEmptyCorpus(t *testing.T) {
	s := New(nil)
	report := s.Score(parsedWith(1), fullEntitySet(), nil, nil)
	if report.Breakdown.Similarity != 50.0 {
		t.Fatalf("expected neutral similarity 50, got %v", report.Breakdown.Similarity)
	}
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "similarity defaulted") {
			found = true
		}
	}
	if !found {
		t.Fatalf("neutral substitution not surfaced in warnings: %v", report.Warnings)
	}
}

func TestSimilarityPrefersCloseNeighbors(t *testing.T) {
	m := DefaultModel()
	near, _ := m.similarity([]index.Result{{Distance: 0.05}})
	far, _ := m.similarity([]index.Result{{Distance: 1.5}})
	if near <= far {
		t.Fatalf("closer neighbor should score higher: %v <= %v", near, far)
	}
	mixed, _ := m.similarity([]index.Result{{Distance: 0.05}, {Distance: 1.5}})
	if mixed <= far || mixed > near {
		t.Fatalf("inverse-distance weighting should pull toward the close neighbor: %v", mixed)
	}
}

func TestScoreClippedToRange(t *testing.T) {
	model := DefaultModel()
	model.Bias = 1000
	report := New(model).Score(parsedWith(1), fullEntitySet(), nil, nil)
	if report.Score != model.Range.Max {
		t.Fatalf("expected score clipped to %v, got %v", model.Range.Max, report.Score)
	}
	model.Bias = -1000
	report = New(model).Score(parsedWith(1), fullEntitySet(), nil, nil)
	if report.Score != model.Range.Min {
		t.Fatalf("expected score clipped to %v, got %v", model.Range.Min, report.Score)
	}
}

func TestGradeBands(t *testing.T) {
	r := Range{Min: 0, Max: 100}
	cases := []struct {
		score float64
		want  string
	}{
		{95, "Excellent"},
		{85, "Excellent"},
		{84.9, "Good"},
		{70, "Good"},
		{69.9, "Decent"},
		{50, "Decent"},
		{49.9, "Needs Improvement"},
		{0, "Needs Improvement"},
	}
	for _, tc := range cases {
		if got := grade(tc.score, r); got != tc.want {
			t.Fatalf("grade(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestQualityLexicon(t *testing.T) {
	m := DefaultModel()
	if got := m.quality(""); got != 50 {
		t.Fatalf("empty text should be neutral, got %v", got)
	}
	if got := m.quality("nothing from the lexicon here"); got != 50 {
		t.Fatalf("no lexicon hits should be neutral, got %v", got)
	}
	positive := m.quality("A wonderful, scenic and relaxing trip")
	negative := m.quality("The crowded hotel was terrible and overpriced")
	if positive <= 50 || negative >= 50 {
		t.Fatalf("polarity not reflected: positive=%v negative=%v", positive, negative)
	}
}

func TestUpstreamWarningsPropagated(t *testing.T) {
	s := New(nil)
	report := s.Score(parsedWith(0.5), fullEntitySet(),
		[]index.Result{{ReferenceID: "a", Distance: 0.2}},
		[]string{"ocr fallback used on page 2"})
	if len(report.Warnings) != 1 || report.Warnings[0] != "ocr fallback used on page 2" {
		t.Fatalf("upstream warnings lost: %v", report.Warnings)
	}
}

func TestRecommendationsForWeakSubScores(t *testing.T) {
	s := New(nil)
	empty := entity.NewSet()
	report := s.Score(parsedWith(0.2), empty, []index.Result{{Distance: 1.8}}, nil)
	if len(report.Recommendations) == 0 {
		t.Fatal("expected recommendations for weak sub-scores")
	}
	strong := s.Score(parsedWith(1), fullEntitySet(), []index.Result{{Distance: 0.01}}, nil)
	if len(strong.Recommendations) >= len(report.Recommendations) {
		t.Fatalf("strong input should draw fewer recommendations: %d vs %d",
			len(strong.Recommendations), len(report.Recommendations))
	}
}
