package entity

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/voyagekit/itinscore/document"
)

var (
	monthNames = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b` + monthNames + `\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)?\s+` + monthNames + `,?\s+\d{4}\b`),
		regexp.MustCompile(`\b\d{1,2}[/.]\d{1,2}[/.]\d{4}\b`),
	}

	moneyPattern = regexp.MustCompile(`[$€£₹¥]\s?\d[\d,]*(?:\.\d+)?` +
		`|\b\d[\d,]*(?:\.\d+)?\s?(?:USD|EUR|GBP|INR|JPY|AUD|CAD|CHF|CNY|THB|[Dd]ollars?|[Ee]uros?|[Pp]ounds?|[Rr]upees?|[Yy]en)\b` +
		`|\b(?:USD|EUR|GBP|INR|JPY|AUD|CAD|CHF|CNY|THB)\s?\d[\d,]*(?:\.\d+)?\b`)

	locationHint = regexp.MustCompile(`\b(?:in|at|to|from|via)\s+((?:[A-Z][A-Za-z'-]+)(?:\s+(?:of\s+)?[A-Z][A-Za-z'-]+){0,3})`)

	activityPattern = regexp.MustCompile(`(?i)\b(?:visit(?:ing)?|tour(?:ing)?|hik(?:e|ing)|dinner at|lunch at|day trip|flight|cruise|safari|check[ -]?in|explore|shopping|sightseeing)\b[^.\n,;]*`)
)

// Recognizer runs the entity pass over parsed text and normalizes each span
// per type. It never fails on well-formed text.
type Recognizer struct {
	gazetteer *Gazetteer
	logger    *slog.Logger
}

// RecognizerOption configures a Recognizer.
type RecognizerOption func(*Recognizer)

// WithRecognizerLogger sets the logger.
func WithRecognizerLogger(l *slog.Logger) RecognizerOption {
	return func(r *Recognizer) { r.logger = l }
}

// NewRecognizer creates a recognizer backed by the given gazetteer; a nil
// gazetteer falls back to the built-in seed set.
func NewRecognizer(g *Gazetteer, opts ...RecognizerOption) *Recognizer {
	if g == nil {
		g = Seed()
	}
	r := &Recognizer{gazetteer: g, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recognize extracts typed spans from the parsed text. Empty input yields an
// empty set.
func (r *Recognizer) Recognize(parsed *document.ParsedText) *Set {
	set := NewSet()
	if parsed == nil || parsed.Empty() {
		return set
	}
	text := parsed.Text
	r.recognizeDates(text, set)
	r.recognizeCosts(text, set)
	r.recognizeLocations(text, set)
	r.recognizeActivities(text, set)
	r.logger.Debug("recognized entities",
		"document", parsed.DocumentID, "spans", set.Len(),
		"dates", len(set.Spans(TypeDate)), "locations", len(set.Spans(TypeLocation)),
		"costs", len(set.Spans(TypeCost)), "activities", len(set.Spans(TypeActivity)))
	return set
}

func (r *Recognizer) recognizeDates(text string, set *Set) {
	for _, pattern := range datePatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			raw := text[loc[0]:loc[1]]
			span := Span{Type: TypeDate, Raw: raw, Start: loc[0], End: loc[1], Confidence: 0.5}
			if value, ok := NormalizeDate(raw); ok {
				span.Value = value
				span.Normalized = true
				span.Confidence = 0.9
			}
			set.Add(span)
		}
	}
}

func (r *Recognizer) recognizeCosts(text string, set *Set) {
	for _, loc := range moneyPattern.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		span := Span{Type: TypeCost, Raw: raw, Start: loc[0], End: loc[1], Confidence: 0.5}
		if value, ok := NormalizeMoney(raw); ok {
			span.Value = value
			span.Normalized = true
			span.Confidence = 0.9
		}
		set.Add(span)
	}
}

func (r *Recognizer) recognizeLocations(text string, set *Set) {
	lower := strings.ToLower(text)
	// Gazetteer names first, longest first, so canonical multi-word names
	// claim their spans before the heuristic pass.
	for _, name := range r.gazetteer.Names() {
		needle := strings.ToLower(name)
		for from := 0; ; {
			i := strings.Index(lower[from:], needle)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(needle)
			from = end
			if !wordBoundary(lower, start, end) {
				continue
			}
			place, _ := r.gazetteer.Lookup(name)
			set.Add(Span{
				Type: TypeLocation, Raw: text[start:end], Value: place.Name,
				Start: start, End: end, Confidence: 0.95, Normalized: true,
			})
		}
	}
	for _, loc := range locationHint.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2], loc[3]
		raw := text[start:end]
		span := Span{Type: TypeLocation, Raw: raw, Start: start, End: end, Confidence: 0.6}
		if place, ok := r.gazetteer.Lookup(raw); ok {
			span.Value = place.Name
			span.Normalized = true
			span.Confidence = 0.95
		}
		set.Add(span)
	}
}

func (r *Recognizer) recognizeActivities(text string, set *Set) {
	for _, loc := range activityPattern.FindAllStringIndex(text, -1) {
		raw := strings.TrimSpace(text[loc[0]:loc[1]])
		if raw == "" {
			continue
		}
		set.Add(Span{
			Type: TypeActivity, Raw: raw, Value: strings.ToLower(raw),
			Start: loc[0], End: loc[0] + len(raw), Confidence: 0.7, Normalized: true,
		})
	}
}

func wordBoundary(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
