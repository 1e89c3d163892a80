// Package match reconciles LLM-returned card names against canonical
// card names.
package match

import "strings"

const (
	// Distances below this always match, regardless of name length.
	maxShortDistance = 3
	// Longer names tolerate edits up to this fraction of their length.
	maxDistanceRatio = 0.3
)

// Find locates the candidate a name refers to, trying three tiers in
// priority order over the whole candidate list: case-insensitive exact
// match, substring containment in either direction, then fuzzy matching
// within the edit-distance threshold. Within a tier the first matching
// candidate wins. Returns the candidate index and whether any tier
// matched.
func Find(name string, candidates []string) (int, bool) {
	needle := normalize(name)
	if needle == "" {
		return 0, false
	}

	for i, c := range candidates {
		if normalize(c) == needle {
			return i, true
		}
	}

	for i, c := range candidates {
		hay := normalize(c)
		if hay == "" {
			continue
		}
		if strings.Contains(hay, needle) || strings.Contains(needle, hay) {
			return i, true
		}
	}

	for i, c := range candidates {
		hay := normalize(c)
		if hay == "" {
			continue
		}
		if withinDistance(needle, hay) {
			return i, true
		}
	}

	return 0, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func withinDistance(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	dist := levenshtein(ra, rb)
	if dist < maxShortDistance {
		return true
	}
	longest := max(len(ra), len(rb))
	return float64(dist)/float64(longest) <= maxDistanceRatio
}

// levenshtein computes edit distance over runes with the two-row method.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
