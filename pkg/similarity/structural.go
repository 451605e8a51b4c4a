package similarity

import "github.com/simscan/simscan/pkg/models"

var structuralSuggestions = []string{
	"Consolidate the shared structure into a common helper",
	"Consider parameterizing the differing identifiers",
}

// StructuralMatches compares the token sets of every pair of blocks drawn
// from different files and emits a match when the Jaccard overlap reaches
// the structural threshold. Self-file comparisons are excluded by
// invariant: renamed clones within one file surface through the exact pass
// or not at all.
func (e *Engine) StructuralMatches(blocks []models.CodeBlock) []models.SimilarityMatch {
	var matches []models.SimilarityMatch

	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			a, b := blocks[i], blocks[j]
			if a.FilePath == b.FilePath {
				continue
			}

			score := Jaccard(a.Tokens, b.Tokens)
			if score < e.structuralThreshold {
				continue
			}

			// Token overlap is a weaker signal than hash identity, so
			// confidence is discounted relative to the raw score.
			matches = append(matches, e.newMatch(
				a, b,
				score, models.MatchStructural, score*0.9,
				structuralSuggestions,
			))
		}
	}

	return matches
}
