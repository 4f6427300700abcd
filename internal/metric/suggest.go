package metric

import "strings"

// maxSuggestDistance bounds how far a misspelled name may be from a suggestion.
const maxSuggestDistance = 2

// Suggest returns the supported metric name (or alias) closest to name by edit distance,
// when one is within maxSuggestDistance edits. Ties go to the name listed first.
func Suggest(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	candidates := Names()
	for alias := range aliases {
		candidates = append(candidates, alias)
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range candidates {
		if d := levenshtein(n, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}

// levenshtein counts the single-rune insertions, deletions and substitutions turning a into b.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two rows of the edit matrix are enough.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
