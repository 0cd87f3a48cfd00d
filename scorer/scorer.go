// Package scorer turns extraction, entity and similarity signals into a
// composite itinerary score with a grade and improvement recommendations.
// Scoring is mechanically deterministic: the same inputs always produce the
// same report, and degraded inputs surface as warnings rather than lower
// numbers with no explanation.
package scorer

import (
	"fmt"

	"github.com/voyagekit/itinscore/document"
	"github.com/voyagekit/itinscore/entity"
	"github.com/voyagekit/itinscore/index"
)

// Breakdown carries the three sub-scores, each in [0, 100].
type Breakdown struct {
	Completeness float64 `json:"completeness" yaml:"completeness"`
	Similarity   float64 `json:"similarity" yaml:"similarity"`
	Quality      float64 `json:"quality" yaml:"quality"`
}

// Report is the scoring output for one document.
type Report struct {
	DocumentID string    `json:"documentId" yaml:"documentId"`
	Score      float64   `json:"score" yaml:"score"`
	Breakdown  Breakdown `json:"breakdown" yaml:"breakdown"`
	Grade      string    `json:"grade" yaml:"grade"`
	// Recommendations suggest concrete improvements for weak sub-scores.
	Recommendations []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	// Warnings record every default substitution and upstream degradation,
	// in the order they occurred.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	// Method and Confidence echo the extraction metadata so callers can tell
	// a poor itinerary from a poorly read one.
	Method     document.Method `json:"extractionMethod" yaml:"extractionMethod"`
	Confidence float64         `json:"extractionConfidence" yaml:"extractionConfidence"`
}

// Scorer applies a regression model. Zero-configuration callers can use
// New(nil) to score with the built-in model.
type Scorer struct {
	model *Model
}

// New creates a scorer; a nil model selects DefaultModel.
func New(model *Model) *Scorer {
	if model == nil {
		model = DefaultModel()
	}
	return &Scorer{model: model}
}

// Score combines the three sub-scores into a clipped composite. The passed
// warnings are upstream degradations (OCR fallbacks, stage timeouts); Score
// appends its own substitutions to them and never fails.
func (s *Scorer) Score(parsed *document.ParsedText, entities *entity.Set, neighbors []index.Result, warnings []string) Report {
	m := s.model
	report := Report{
		Warnings: append([]string(nil), warnings...),
	}
	var text string
	if parsed != nil {
		report.DocumentID = parsed.DocumentID
		report.Method = parsed.Method
		report.Confidence = parsed.Confidence
		text = parsed.Text
	}

	report.Breakdown.Completeness = m.completeness(report.Confidence, entities)
	similarity, substituted := m.similarity(neighbors)
	if substituted {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("no reference corpus available, similarity defaulted to %.1f", m.NeutralSimilarity))
	}
	report.Breakdown.Similarity = similarity
	report.Breakdown.Quality = m.quality(text)

	composite := m.Bias +
		m.Weights.Completeness*report.Breakdown.Completeness +
		m.Weights.Similarity*report.Breakdown.Similarity +
		m.Weights.Quality*report.Breakdown.Quality
	report.Score = m.clip(composite)
	report.Grade = grade(report.Score, m.Range)
	report.Recommendations = recommend(report.Breakdown, entities)
	return report
}

// grade maps a composite score onto a coarse band, normalized against the
// model's output range.
func grade(score float64, r Range) string {
	normalized := (score - r.Min) / (r.Max - r.Min)
	switch {
	case normalized >= 0.85:
		return "Excellent"
	case normalized >= 0.7:
		return "Good"
	case normalized >= 0.5:
		return "Decent"
	default:
		return "Needs Improvement"
	}
}

func recommend(b Breakdown, entities *entity.Set) []string {
	var recs []string
	if b.Completeness < 70 {
		missing := missingTypes(entities)
		if missing != "" {
			recs = append(recs, "Add "+missing+" details so the itinerary can be fully assessed.")
		} else {
			recs = append(recs, "Provide the itinerary as digital text rather than scans for a more complete assessment.")
		}
	}
	if b.Similarity < 60 {
		recs = append(recs, "This itinerary differs from well-rated reference trips; review pacing and destinations.")
	}
	if b.Quality < 50 {
		recs = append(recs, "The itinerary text reads negatively; reconsider the flagged bookings or venues.")
	}
	return recs
}

func missingTypes(entities *entity.Set) string {
	if entities == nil {
		return "date, location, cost and activity"
	}
	var missing []string
	for _, t := range entity.Types {
		if !entities.HasNormalized(t) {
			missing = append(missing, string(t))
		}
	}
	switch len(missing) {
	case 0:
		return ""
	case 1:
		return missing[0]
	default:
		out := ""
		for i, m := range missing[:len(missing)-1] {
			if i > 0 {
				out += ", "
			}
			out += m
		}
		return out + " and " + missing[len(missing)-1]
	}
}
