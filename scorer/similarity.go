package scorer

import "github.com/voyagekit/itinscore/index"

// similarity aggregates neighbor distances into a [0, 100] sub-score. Each
// neighbor contributes 100*(1 - distance/2), mapping cosine distance 0 to a
// perfect match and 2 to an opposite one, weighted by inverse distance so
// the closest references dominate. An empty result substitutes the model's
// neutral value; the second return reports that substitution so the caller
// can surface a warning.
func (m *Model) similarity(results []index.Result) (float64, bool) {
	if len(results) == 0 {
		return m.NeutralSimilarity, true
	}
	const epsilon = 1e-6
	var weighted, weights float64
	for _, r := range results {
		d := r.Distance
		if d < 0 {
			d = 0
		} else if d > 2 {
			d = 2
		}
		w := 1 / (d + epsilon)
		weighted += w * 100 * (1 - d/2)
		weights += w
	}
	return weighted / weights, false
}
