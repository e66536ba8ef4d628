// Package text provides fuzzy and categorical similarity for free-text
// report fields (clothing, physical features, place last seen).
package text

import (
	"math"
	"strings"
)

// PartialRatio returns a case-insensitive fuzzy partial-match ratio in [0,1].
// The shorter string is compared against every same-length window of the
// longer one and the best Levenshtein ratio wins, so a clothing note like
// "red shirt" still matches "wearing a red shirt and jeans". Either side
// empty yields 0: missing data earns no match credit.
func PartialRatio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0.0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		window := longer[start : start+len(shorter)]
		r := levenshteinRatio(shorter, window)
		if r > best {
			best = r
		}
		if best == 1 {
			break
		}
	}
	return best
}

// NumericCloseness returns 1 - |a-b|/max(a,b) in [0,1] for two positive
// values, used for age comparison. Either side absent (<= 0) yields 0.
func NumericCloseness(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	maxVal := a
	if b > maxVal {
		maxVal = b
	}
	diff := math.Abs(float64(a - b))
	return 1 - diff/float64(maxVal)
}

// CategoryMatch returns 1 for a case-insensitive exact match, 0 otherwise.
// Either side empty yields 0. Used for gender.
func CategoryMatch(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}
	if strings.EqualFold(a, b) {
		return 1
	}
	return 0
}

// levenshteinRatio returns 1 - distance/maxLen for two equal-or-unequal
// length rune slices.
func levenshteinRatio(a, b []rune) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes edit distance with two rolling rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	row := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prev[j]+1), prev[j-1]+cost)
		}
		row, prev = prev, row
	}

	return prev[len(b)]
}
