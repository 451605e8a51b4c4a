package similarity

import "github.com/simscan/simscan/pkg/models"

// PairwiseMatches compares every block of one file against every block of
// another directly: hash equality yields an exact match, otherwise token
// Jaccard yields a structural one. Pairs below the structural threshold
// are dropped. Used by file-to-file comparison, which skips the semantic
// stage entirely.
func (e *Engine) PairwiseMatches(blocks1, blocks2 []models.CodeBlock) []models.SimilarityMatch {
	var matches []models.SimilarityMatch

	for _, a := range blocks1 {
		for _, b := range blocks2 {
			if a.Hash == b.Hash {
				matches = append(matches, e.newMatch(a, b, 1.0, models.MatchExact, 1.0, exactSuggestions))
				continue
			}
			score := Jaccard(a.Tokens, b.Tokens)
			if score < e.structuralThreshold {
				continue
			}
			matches = append(matches, e.newMatch(a, b, score, models.MatchStructural, score*0.9, structuralSuggestions))
		}
	}

	return matches
}
