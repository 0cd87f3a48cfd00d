package scorer

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/voyagekit/itinscore/entity"
)

// Weights are the linear coefficients applied to the three sub-scores.
type Weights struct {
	Completeness float64 `yaml:"completeness"`
	Similarity   float64 `yaml:"similarity"`
	Quality      float64 `yaml:"quality"`
}

// Range clips the composite score.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Model is the trained regression artifact: linear weights over the three
// sub-scores plus bias, clipped to Range. It is loaded once at startup and
// applied as a pure function; nothing here retrains it.
type Model struct {
	Weights Weights `yaml:"weights"`
	Bias    float64 `yaml:"bias"`
	Range   Range   `yaml:"range"`
	// NeutralSimilarity substitutes the similarity sub-score when no
	// reference corpus is available.
	NeutralSimilarity float64 `yaml:"neutralSimilarity"`
	// TypeWeights set the relative importance of entity types in the
	// completeness sub-score, keyed by entity type name.
	TypeWeights map[string]float64 `yaml:"typeWeights"`
}

// DefaultModel returns the built-in artifact used when no model file is
// configured. Dates and costs carry more completeness weight than free-text
// activities.
func DefaultModel() *Model {
	return &Model{
		Weights:           Weights{Completeness: 0.4, Similarity: 0.35, Quality: 0.25},
		Bias:              0,
		Range:             Range{Min: 0, Max: 100},
		NeutralSimilarity: 50.0,
		TypeWeights: map[string]float64{
			string(entity.TypeDate):     0.3,
			string(entity.TypeCost):     0.3,
			string(entity.TypeLocation): 0.25,
			string(entity.TypeActivity): 0.15,
		},
	}
}

// LoadModel reads a model artifact from a URL-addressable location. Missing
// fields fall back to the defaults so a partial artifact (say, weights only)
// stays usable.
func LoadModel(ctx context.Context, url string) (*Model, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download model: %w", err)
	}
	model := DefaultModel()
	if err := yaml.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

// Validate rejects artifacts that cannot produce a meaningful score.
func (m *Model) Validate() error {
	if m.Weights.Completeness < 0 || m.Weights.Similarity < 0 || m.Weights.Quality < 0 {
		return fmt.Errorf("model: negative sub-score weight")
	}
	if m.Weights.Completeness+m.Weights.Similarity+m.Weights.Quality == 0 {
		return fmt.Errorf("model: all sub-score weights are zero")
	}
	if m.Range.Max <= m.Range.Min {
		return fmt.Errorf("model: empty output range [%v, %v]", m.Range.Min, m.Range.Max)
	}
	total := 0.0
	for _, w := range m.TypeWeights {
		if w < 0 {
			return fmt.Errorf("model: negative entity type weight")
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("model: all entity type weights are zero")
	}
	return nil
}

func (m *Model) clip(score float64) float64 {
	if score < m.Range.Min {
		return m.Range.Min
	}
	if score > m.Range.Max {
		return m.Range.Max
	}
	return score
}
