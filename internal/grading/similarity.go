package grading

import (
	"strings"
	"unicode"
)

// Similarity returns a [0,1] ratio of textual closeness between a and b.
// Both inputs are case-folded and whitespace-collapsed before comparison,
// so "Mitochondria " and "mitochondria" compare as identical. The ratio is
// derived from the longest common subsequence: 2*lcs/(len(a)+len(b)).
// Two empty strings score 1.0; exactly one empty string scores 0.0.
func Similarity(a, b string) float64 {
	ar := []rune(normalize(a))
	br := []rune(normalize(b))
	if len(ar) == 0 && len(br) == 0 {
		return 1.0
	}
	if len(ar) == 0 || len(br) == 0 {
		return 0.0
	}
	l := lcsLength(ar, br)
	return 2.0 * float64(l) / float64(len(ar)+len(br))
}

// normalize does simple casefolding and collapses runs of whitespace.
func normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsSpace(r):
			space = true
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}

// lcsLength computes the longest-common-subsequence length with a rolling row.
func lcsLength(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	dp := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			tmp := dp[j]
			if a[i-1] == b[j-1] {
				dp[j] = prev + 1
			} else if dp[j-1] > dp[j] {
				dp[j] = dp[j-1]
			}
			prev = tmp
		}
	}
	return dp[len(b)]
}
