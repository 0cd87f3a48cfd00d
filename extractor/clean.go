package extractor

import (
	"strings"
	"unicode"
)

// CleanText normalizes extracted text before downstream NLP stages: control
// characters are dropped, runs of spaces and tabs collapse to one space, and
// runs of blank lines collapse to a single newline. Cleaning is idempotent.
func CleanText(in string) string {
	var b strings.Builder
	b.Grow(len(in))
	var pendingSpace, pendingNewline, wroteAny bool
	for _, r := range in {
		switch {
		case r == '\n' || r == '\r' || r == '\f':
			pendingNewline = true
			pendingSpace = false
		case r == ' ' || r == '\t' || unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsControl(r):
			// skip
		default:
			if pendingNewline && wroteAny {
				b.WriteByte('\n')
			} else if pendingSpace && wroteAny {
				b.WriteByte(' ')
			}
			pendingNewline = false
			pendingSpace = false
			b.WriteRune(r)
			wroteAny = true
		}
	}
	return b.String()
}
