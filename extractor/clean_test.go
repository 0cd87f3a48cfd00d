package extractor

import "testing"

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   \n\t ", ""},
		{"Day 1:  Paris", "Day 1: Paris"},
		{"Day 1\n\n\nDay 2", "Day 1\nDay 2"},
		{"a\r\nb\fc", "a\nb\nc"},
		{"tab\tseparated\tcells", "tab separated cells"},
		{"\x00control\x07chars", "controlchars"},
	}
	for _, tc := range cases {
		if got := CleanText(tc.in); got != tc.want {
			t.Fatalf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	in := "  Day 1:\tArrive   in\n\n\nLisbon \r\n then dinner  "
	once := CleanText(in)
	twice := CleanText(once)
	if once != twice {
		t.Fatalf("clean not idempotent: %q vs %q", once, twice)
	}
}
