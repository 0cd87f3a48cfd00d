package scorer

import "github.com/voyagekit/itinscore/entity"

// completeness scores entity coverage in [0, 100]. Each expected type earns
// its full weight when a normalized span exists and half when spans exist
// but none normalized. The result is attenuated by extraction confidence:
// entities pulled out of a document that needed OCR on every page are worth
// less than the same entities from clean digital text. The attenuation floor
// keeps the score monotonic in confidence without zeroing OCR-only input.
func (m *Model) completeness(extractionConfidence float64, set *entity.Set) float64 {
	if set == nil {
		return 0
	}
	var earned, total float64
	for _, t := range entity.Types {
		weight := m.TypeWeights[string(t)]
		if weight <= 0 {
			continue
		}
		total += weight
		switch {
		case set.HasNormalized(t):
			earned += weight
		case set.Has(t):
			earned += weight / 2
		}
	}
	if total == 0 {
		return 0
	}
	if extractionConfidence < 0 {
		extractionConfidence = 0
	} else if extractionConfidence > 1 {
		extractionConfidence = 1
	}
	attenuation := 0.5 + 0.5*extractionConfidence
	return 100 * (earned / total) * attenuation
}
