package scorer

import (
	"strings"
	"unicode"
)

// polarity is a small travel-domain lexicon. The quality sub-score only
// needs a coarse positive/negative signal, not full sentiment analysis.
var polarity = map[string]float64{
	"amazing":      1,
	"beautiful":    1,
	"breathtaking": 1,
	"charming":     1,
	"comfortable":  1,
	"convenient":   1,
	"delicious":    1,
	"enjoy":        1,
	"excellent":    1,
	"friendly":     1,
	"great":        1,
	"lovely":       1,
	"memorable":    1,
	"peaceful":     1,
	"relaxing":     1,
	"scenic":       1,
	"stunning":     1,
	"wonderful":    1,

	"awful":         -1,
	"cancelled":     -1,
	"closed":        -1,
	"crowded":       -1,
	"delayed":       -1,
	"dirty":         -1,
	"disappointing": -1,
	"expensive":     -1,
	"overpriced":    -1,
	"rude":          -1,
	"scam":          -1,
	"stressful":     -1,
	"terrible":      -1,
	"uncomfortable": -1,
}

// quality scores text tone in [0, 100]; 50 is neutral, returned for empty
// text or text with no lexicon hits.
func (m *Model) quality(text string) float64 {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	var positive, negative float64
	for _, tok := range tokens {
		switch polarity[tok] {
		case 1:
			positive++
		case -1:
			negative++
		}
	}
	if positive+negative == 0 {
		return 50
	}
	return 50 + 50*(positive-negative)/(positive+negative)
}
