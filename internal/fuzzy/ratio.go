// Package fuzzy implements the two-metric similarity scoring (C4) used
// by the match resolver: token-sort ratio and Jaro-Winkler similarity,
// both scaled to an integer [0,100] range.
package fuzzy

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Safe and Risky are the fuzzy-match classification thresholds.
const (
	Safe  = 70
	Risky = 50
)

var lowerer = cases.Lower(language.Und)

// TokenSortRatio sorts the whitespace-separated tokens of each string,
// rejoins them, and compares with a Levenshtein-distance-based ratio
// scaled to [0,100] (see levenshteinRatio). Tokens are lowercased; the
// ratio is 100 - 100*distance/maxLen, not difflib's 2*M/T.
func TokenSortRatio(a, b string) int {
	return levenshteinRatio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	s = lowerer.String(strings.TrimSpace(s))
	tokens := strings.Fields(s)
	sortStrings(tokens)
	return strings.Join(tokens, " ")
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// levenshteinRatio scales the Levenshtein distance between a and b into
// a [0,100] similarity score: 100 - 100*distance/maxLen.
func levenshteinRatio(a, b string) int {
	if a == b {
		return 100
	}
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 100
	}

	distance := levenshteinDistance(a, b)
	ratio := 100 - (100*distance)/maxLen
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}

// levenshteinDistance computes the classic edit distance between two
// strings over their rune sequences.
func levenshteinDistance(a, b string) int {
	r1 := []rune(a)
	r2 := []rune(b)
	len1, len2 := len(r1), len(r2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			matrix[i][j] = minOf3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len1][len2]
}

func minOf3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
