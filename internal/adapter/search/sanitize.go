package search

// garbledThreshold is the fraction of non-ASCII runes above which extracted
// page text is considered encoding-mangled and useless for prompting.
const garbledThreshold = 0.3

// IsGarbled reports whether text contains a high proportion of non-ASCII
// characters. A blunt heuristic: no locale awareness, no Unicode-category
// nuance. Empty text is never garbled.
func IsGarbled(text string) bool {
	nonASCII := 0
	total := 0
	for _, r := range text {
		total++
		if r > 127 {
			nonASCII++
		}
	}
	return float64(nonASCII) > float64(total)*garbledThreshold
}
