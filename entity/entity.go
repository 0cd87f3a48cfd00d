package entity

// Type labels a recognized span.
type Type string

const (
	TypeDate     Type = "date"
	TypeLocation Type = "location"
	TypeCost     Type = "cost"
	TypeActivity Type = "activity"
)

// Types lists all recognized entity types in scoring order.
var Types = []Type{TypeDate, TypeLocation, TypeCost, TypeActivity}

// Span is one recognized occurrence. When a normalizer rejects the raw text
// the span is kept with Normalized=false so completeness scoring can tell
// "present but unparsed" from "absent".
type Span struct {
	Type       Type
	Raw        string
	Value      string
	Start      int
	End        int
	Confidence float64
	Normalized bool
	// Alternative marks a span overlapping an earlier one of the same type.
	Alternative bool
}

// Set maps each entity type to its ordered spans.
type Set struct {
	spans map[Type][]Span
}

// NewSet creates an empty entity set.
func NewSet() *Set {
	return &Set{spans: map[Type][]Span{}}
}

// Add appends a span, marking it as an alternative when it overlaps a
// non-alternative span of the same type.
func (s *Set) Add(span Span) {
	existing := s.spans[span.Type]
	for i := range existing {
		if existing[i].Alternative {
			continue
		}
		if span.Start < existing[i].End && existing[i].Start < span.End {
			span.Alternative = true
			break
		}
	}
	s.spans[span.Type] = append(existing, span)
}

// Spans returns the ordered spans for a type.
func (s *Set) Spans(t Type) []Span {
	return s.spans[t]
}

// Has reports whether any span of the type exists.
func (s *Set) Has(t Type) bool {
	return len(s.spans[t]) > 0
}

// HasNormalized reports whether any span of the type carries a normalized value.
func (s *Set) HasNormalized(t Type) bool {
	for _, span := range s.spans[t] {
		if span.Normalized {
			return true
		}
	}
	return false
}

// Len returns the total span count across types.
func (s *Set) Len() int {
	n := 0
	for _, spans := range s.spans {
		n += len(spans)
	}
	return n
}

// Values returns the normalized values for a type, raw values for spans the
// normalizer rejected.
func (s *Set) Values(t Type) []string {
	spans := s.spans[t]
	out := make([]string, 0, len(spans))
	for _, span := range spans {
		if span.Normalized {
			out = append(out, span.Value)
		} else {
			out = append(out, span.Raw)
		}
	}
	return out
}
