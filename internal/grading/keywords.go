package grading

import (
	"strings"
	"unicode"
)

// stopwords excluded from keyword extraction: articles plus the common
// prepositions and conjunctions that carry no subject-matter signal.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "and": {},
	"or": {}, "but": {},
}

// minKeywordLen filters trivially short tokens ("it", "has", ...) that
// would otherwise inflate essay keyword overlap.
const minKeywordLen = 4

// ExtractKeywords lowercases text, splits on word boundaries, drops
// stopwords and short tokens, and returns the remaining terms as a set.
// Empty input yields an empty set.
func ExtractKeywords(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) < minKeywordLen {
			continue
		}
		if _, skip := stopwords[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}
