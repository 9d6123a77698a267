package intake

import "testing"

func TestExtractCandidate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"surrounded by prose", "Here you go: {\"a\":1} done", `{"a":1}`},
		{"no braces", "just words", ""},
		{"only opening brace", "a { b", ""},
		{"only closing brace", "a } b", ""},
		{"multiline object", "{\n \"a\": 1\n}", "{\n \"a\": 1\n}"},
		// the heuristic takes the outermost slice, even across prose braces
		{"prose braces", "set {x} then {\"a\":1}", `{x} then {"a":1}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCandidate(tt.in); got != tt.want {
				t.Errorf("ExtractCandidate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsObjectLike(t *testing.T) {
	if !IsObjectLike("  {\"a\":1}\n") {
		t.Error("trimmed object should be object-like")
	}
	if IsObjectLike("plain reply") {
		t.Error("prose should not be object-like")
	}
	if IsObjectLike("") {
		t.Error("empty string should not be object-like")
	}
}
