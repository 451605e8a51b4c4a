package similarity

import (
	"sort"

	"github.com/simscan/simscan/pkg/models"
)

var exactSuggestions = []string{
	"Extract the duplicated code into a shared function or module",
}

// ExactMatches groups blocks by structural hash and emits one match per
// unordered pair within every group of two or more. Two ranges of the same
// file are a legitimate exact pair.
func (e *Engine) ExactMatches(blocks []models.CodeBlock) []models.SimilarityMatch {
	byHash := make(map[uint64][]models.CodeBlock)
	for _, b := range blocks {
		byHash[b.Hash] = append(byHash[b.Hash], b)
	}

	var matches []models.SimilarityMatch
	for _, group := range byHash {
		if len(group) < 2 {
			continue
		}
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				matches = append(matches, e.newMatch(
					group[i], group[j],
					1.0, models.MatchExact, 1.0,
					exactSuggestions,
				))
			}
		}
	}

	sortMatches(matches)
	return matches
}

// sortMatches orders matches by source then target position so results are
// deterministic regardless of map iteration or goroutine completion order.
func sortMatches(matches []models.SimilarityMatch) {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		if a.SourceStart != b.SourceStart {
			return a.SourceStart < b.SourceStart
		}
		if a.TargetFile != b.TargetFile {
			return a.TargetFile < b.TargetFile
		}
		return a.TargetStart < b.TargetStart
	})
}
