package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/simscan/simscan/internal/judge"
	"github.com/simscan/simscan/pkg/models"
	"github.com/sourcegraph/conc/pool"
)

// verdict is the JSON shape the model is asked to return for one pair.
type verdict struct {
	Similarity  float64  `json:"similarity"`
	MatchType   string   `json:"match_type"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions"`
}

// blockPair is one pending pairwise judgment.
type blockPair struct {
	a, b models.CodeBlock
}

// SemanticMatches delegates pairwise judgment of non-exact-duplicate
// blocks to the external model. Pairs are processed with at most the batch
// size in flight at once as backpressure against a rate-limited
// collaborator. A failed or unparseable judgment skips that pair only.
func (e *Engine) SemanticMatches(ctx context.Context, blocks []models.CodeBlock) []models.SimilarityMatch {
	if e.judge == nil {
		return nil
	}

	pairs := e.semanticCandidates(blocks)
	if len(pairs) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		matches []models.SimilarityMatch
	)

	for start := 0; start < len(pairs); start += e.batchSize {
		end := start + e.batchSize
		if end > len(pairs) {
			end = len(pairs)
		}

		p := pool.New().WithMaxGoroutines(e.batchSize)
		for _, pr := range pairs[start:end] {
			p.Go(func() {
				match, ok := e.judgePair(ctx, pr.a, pr.b)
				if !ok {
					return
				}
				mu.Lock()
				matches = append(matches, match)
				mu.Unlock()
			})
		}
		p.Wait()
	}

	sortMatches(matches)
	return matches
}

// semanticCandidates returns the cross-file pairs of blocks whose hash is
// not exact-duplicated, optionally capped by configuration.
func (e *Engine) semanticCandidates(blocks []models.CodeBlock) []blockPair {
	hashCount := make(map[uint64]int, len(blocks))
	for _, b := range blocks {
		hashCount[b.Hash]++
	}

	candidates := make([]models.CodeBlock, 0, len(blocks))
	for _, b := range blocks {
		if hashCount[b.Hash] == 1 {
			candidates = append(candidates, b)
		}
	}

	var pairs []blockPair
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[i].FilePath == candidates[j].FilePath {
				continue
			}
			pairs = append(pairs, blockPair{a: candidates[i], b: candidates[j]})
			if e.maxSemanticPairs > 0 && len(pairs) >= e.maxSemanticPairs {
				return pairs
			}
		}
	}
	return pairs
}

// judgePair asks the model to score one pair. Network failures and
// malformed responses are treated as "no match".
func (e *Engine) judgePair(ctx context.Context, a, b models.CodeBlock) (models.SimilarityMatch, bool) {
	text, err := e.judge.Ask(ctx, buildJudgePrompt(a, b))
	if err != nil {
		slog.Warn("semantic judgment failed", "source", a.Location(), "target", b.Location(), "error", err)
		return models.SimilarityMatch{}, false
	}

	var v verdict
	if err := judge.ExtractJSON(text, &v); err != nil {
		slog.Debug("unparseable judgment response", "source", a.Location(), "target", b.Location(), "error", err)
		return models.SimilarityMatch{}, false
	}

	if v.Similarity < e.semanticThreshold {
		return models.SimilarityMatch{}, false
	}

	matchType := models.MatchSemantic
	if v.MatchType == string(models.MatchFunctional) {
		matchType = models.MatchFunctional
	}

	confidence := v.Confidence
	if confidence < 0 || confidence > 1 {
		confidence = v.Similarity
	}

	return e.newMatch(a, b, v.Similarity, matchType, confidence, v.Suggestions), true
}

// buildJudgePrompt renders the pairwise judgment request. The response
// contract is a single JSON object; anything else falls back to no match.
func buildJudgePrompt(a, b models.CodeBlock) string {
	return fmt.Sprintf(`Compare these two code blocks and judge whether they are similar in purpose or behavior, independent of naming and formatting.

Block A (%s):
%s

Block B (%s):
%s

Respond with only a JSON object:
{
  "similarity": <0.0-1.0>,
  "match_type": "semantic" or "functional",
  "confidence": <0.0-1.0>,
  "suggestions": ["<short refactoring suggestion>", ...]
}`, a.Location(), a.Code, b.Location(), b.Code)
}
