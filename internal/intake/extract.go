package intake

import "strings"

// ExtractCandidate returns the outermost brace-delimited slice of text, found
// by scanning inward from both ends for the first '{' and the last '}'. This
// is a heuristic, not a balanced-brace parser: a reply containing explanatory
// braces outside the JSON block can yield a slice that fails validation. It
// returns "" when no such slice exists.
func ExtractCandidate(text string) string {
	s, e := 0, len(text)-1
	for s < e && text[s] != '{' {
		s++
	}
	for e > s && text[e] != '}' {
		e--
	}
	if s < e {
		return text[s : e+1]
	}
	return ""
}

// IsObjectLike reports whether text, after trimming, looks like a JSON object.
func IsObjectLike(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")
}
