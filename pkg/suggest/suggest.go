// Package suggest finds the closest match for a misspelled word, used to build
// "did you mean" hints.
package suggest

// Distance returns the Levenshtein edit distance between a and b, counted in
// runes.
func Distance(a, b string) int {
	if a == b {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// prev holds the previous row of the DP table, indexed by position in a.
	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}

// Nearest returns the word in vocabulary closest to word and its distance.
// Ties go to the earliest word in vocabulary. An empty vocabulary yields
// ("", -1).
func Nearest(word string, vocabulary []string) (string, int) {
	best, bestDist := "", -1
	for _, candidate := range vocabulary {
		d := Distance(word, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best, bestDist
}
