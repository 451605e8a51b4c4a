// Package similarity implements the three comparison passes of the
// duplication pipeline: exact (hash equality), structural (token-set
// Jaccard), and semantic (delegated to an external model).
package similarity

import (
	"encoding/hex"
	"fmt"

	"github.com/simscan/simscan/internal/judge"
	"github.com/simscan/simscan/pkg/config"
	"github.com/simscan/simscan/pkg/models"
	"github.com/zeebo/blake3"
)

// Engine runs the comparison passes over a block collection.
type Engine struct {
	structuralThreshold float64
	semanticThreshold   float64
	refactorThreshold   float64
	batchSize           int
	maxSemanticPairs    int
	judge               judge.Judge
}

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithJudge sets the external model used by the semantic pass. A nil judge
// disables the pass.
func WithJudge(j judge.Judge) Option {
	return func(e *Engine) {
		e.judge = j
	}
}

// WithStructuralThreshold sets the minimum Jaccard overlap for a
// structural match.
func WithStructuralThreshold(t float64) Option {
	return func(e *Engine) {
		e.structuralThreshold = t
	}
}

// WithSemanticThreshold sets the minimum judged similarity to accept.
func WithSemanticThreshold(t float64) Option {
	return func(e *Engine) {
		e.semanticThreshold = t
	}
}

// WithBatchSize bounds how many pairwise judgments run at once.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithMaxSemanticPairs caps the judged pairs per run (0 = unlimited).
func WithMaxSemanticPairs(n int) Option {
	return func(e *Engine) {
		e.maxSemanticPairs = n
	}
}

// WithConfig applies thresholds and batch settings from a config struct.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.structuralThreshold = cfg.Thresholds.Structural
		e.semanticThreshold = cfg.Thresholds.SemanticAccept
		e.refactorThreshold = cfg.Thresholds.Refactoring
		if cfg.Semantic.BatchSize > 0 {
			e.batchSize = cfg.Semantic.BatchSize
		}
		e.maxSemanticPairs = cfg.Semantic.MaxPairs
	}
}

// New creates a similarity engine with default thresholds.
func New(opts ...Option) *Engine {
	e := &Engine{
		structuralThreshold: 0.7,
		semanticThreshold:   0.6,
		refactorThreshold:   0.8,
		batchSize:           10,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MatchID derives a stable identifier from both blocks' file and line
// identity. The same pair of blocks always produces the same id.
func MatchID(a, b models.CodeBlock) string {
	key := fmt.Sprintf("%s:%d-%d|%s:%d-%d",
		a.FilePath, a.StartLine, a.EndLine,
		b.FilePath, b.StartLine, b.EndLine)
	sum := blake3.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

// Jaccard computes token-set similarity |A∩B| / |A∪B|, defined as 0 when
// both sets are empty. It is symmetric in its arguments.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, tok := range a {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, tok := range b {
		setB[tok] = struct{}{}
	}

	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// newMatch builds a SimilarityMatch between two blocks, copying their code
// so the match outlives the block collection.
func (e *Engine) newMatch(a, b models.CodeBlock, score float64, matchType models.MatchType, confidence float64, suggestions []string) models.SimilarityMatch {
	return models.SimilarityMatch{
		ID:                     MatchID(a, b),
		SourceFile:             a.FilePath,
		TargetFile:             b.FilePath,
		SourceStart:            a.StartLine,
		SourceEnd:              a.EndLine,
		TargetStart:            b.StartLine,
		TargetEnd:              b.EndLine,
		SourceCode:             a.Code,
		TargetCode:             b.Code,
		SimilarityScore:        score,
		MatchType:              matchType,
		Confidence:             confidence,
		Suggestions:            suggestions,
		RefactoringOpportunity: score >= e.refactorThreshold,
	}
}
