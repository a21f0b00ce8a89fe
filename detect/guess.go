package detect

// Guess scores a parsed JSON document against the fingerprint table and
// returns the best-matching format. Only a strictly higher path count
// displaces the current best, so ties resolve to the earlier table entry.
// The guesser always answers: a document resolving no paths at all scores
// zero everywhere and the first table entry wins. Callers must treat the
// answer as a routing hint, not a verdict.
func Guess(doc map[string]interface{}) Format {
	best := fingerprints[0].format
	bestCount := countMatches(doc, fingerprints[0].paths)
	for _, fp := range fingerprints[1:] {
		if count := countMatches(doc, fp.paths); count > bestCount {
			best = fp.format
			bestCount = count
		}
	}
	return best
}

func countMatches(doc map[string]interface{}, paths []string) int {
	n := 0
	for _, path := range paths {
		if _, ok := resolve(doc, path); ok {
			n++
		}
	}
	return n
}

// Score is one row of the guesser's diagnostic output: how many of a
// format's fingerprint paths resolved against a document.
type Score struct {
	Format  Format   `json:"format"`
	Matched int      `json:"matched"`
	Total   int      `json:"total"`
	Paths   []string `json:"paths,omitempty"` // the paths that resolved
}

// Scores returns per-format match counts in table order. The detect
// command and verbose intake logging use this to explain a guess.
func Scores(doc map[string]interface{}) []Score {
	out := make([]Score, 0, len(fingerprints))
	for _, fp := range fingerprints {
		score := Score{Format: fp.format, Total: len(fp.paths)}
		for _, path := range fp.paths {
			if _, ok := resolve(doc, path); ok {
				score.Matched++
				score.Paths = append(score.Paths, path)
			}
		}
		out = append(out, score)
	}
	return out
}
