package slug

import (
	"regexp"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Names ---
		{name: "two words", input: "Round Frames", want: "round-frames"},
		{name: "with year", input: "Summer Collection 2026", want: "summer-collection-2026"},
		{name: "single word", input: "Sunglasses", want: "sunglasses"},
		{name: "already a slug", input: "cat-eye", want: "cat-eye"},

		// --- Separators ---
		{name: "punctuation", input: "Kids' Frames!", want: "kids-frames"},
		{name: "ampersand", input: "Blue Light & Reading", want: "blue-light-reading"},
		{name: "dots become hyphens", input: "Version 2.0", want: "version-2-0"},
		{name: "slash", input: "Metal/Titanium", want: "metal-titanium"},
		{name: "underscore", input: "half_rim", want: "half-rim"},
		{name: "tabs and newlines", input: "hello\tworld\nagain", want: "hello-world-again"},
		{name: "runs collapse", input: "a  -- b", want: "a-b"},

		// --- Trimming ---
		{name: "leading separators", input: "  --Aviator", want: "aviator"},
		{name: "trailing separators", input: "Aviator!!  ", want: "aviator"},

		// --- Unicode ---
		{name: "thai name kept", input: "กรอบแว่น", want: "กรอบแว่น"},
		{name: "thai with spaces", input: "แว่น กันแดด", want: "แว่น-กันแดด"},
		{name: "thai and latin", input: "Rayban แว่นตา 2026", want: "rayban-แว่นตา-2026"},
		{name: "accented latin lowercased", input: "CAFÉ", want: "café"},
		{name: "emoji dropped", input: "Cool 😎 Shades", want: "cool-shades"},

		// --- Edge cases ---
		{name: "empty", input: "", want: ""},
		{name: "only symbols", input: "!@#$%^&*()", want: ""},
		{name: "only hyphens", input: "---", want: ""},
		{name: "single char", input: "A", want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_MatchesASCIIRule checks ASCII input against the plain
// lowercase + [^a-z0-9]+ rule.
func TestGenerate_MatchesASCIIRule(t *testing.T) {
	ascii := regexp.MustCompile(`[^a-z0-9]+`)
	edges := regexp.MustCompile(`^-|-$`)
	inputs := []string{
		"Hello World",
		"  Round -- Frames  ",
		"Issue #42 costs $100",
		"UPPER_lower.mixed",
		"---",
		"2026-02-25",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			lower := []byte{}
			for _, b := range []byte(in) {
				if b >= 'A' && b <= 'Z' {
					b += 'a' - 'A'
				}
				lower = append(lower, b)
			}
			want := edges.ReplaceAllString(ascii.ReplaceAllString(string(lower), "-"), "")
			if got := Generate(in); got != want {
				t.Errorf("Generate(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	for _, in := range []string{"Round Frames", "แว่น กันแดด", "A.B.C", "x"} {
		once := Generate(in)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate(Generate(%q)) = %q, want %q", in, twice, once)
		}
	}
}
