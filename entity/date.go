package entity

import (
	"regexp"
	"strings"
	"time"
)

// dateLayouts is the explicit fallback order for date normalization. The
// canonical form 2006-01-02 comes first so normalized values re-parse to
// themselves.
var dateLayouts = []string{
	"2006-01-02",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"01/02/2006",
	"1/2/2006",
	"01.02.2006",
	"2006/01/02",
}

var ordinalSuffix = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)\b`)

// NormalizeDate parses a raw date string against the layout fallback order
// and returns the canonical YYYY-MM-DD form.
func NormalizeDate(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = ordinalSuffix.ReplaceAllString(cleaned, "$1")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, cleaned); err == nil {
			return ts.Format("2006-01-02"), true
		}
	}
	return "", false
}
