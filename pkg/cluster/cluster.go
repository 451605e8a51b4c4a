// Package cluster groups pairwise similarity matches into duplicate
// clusters and ranks them by refactoring value.
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/simscan/simscan/internal/judge"
	"github.com/simscan/simscan/pkg/config"
	"github.com/simscan/simscan/pkg/models"
)

// fallbackPattern replaces the model-generated narrative when the external
// call fails or no judge is configured.
const fallbackPattern = "Similar code structure"

// reductionFactor is the assumed fraction of duplicated lines that
// extraction to a shared unit could eliminate.
const reductionFactor = 0.7

// Clusterer builds duplicate clusters from raw matches.
type Clusterer struct {
	judge           judge.Judge
	highThreshold   float64
	mediumThreshold float64
}

// Option is a functional option for configuring Clusterer.
type Option func(*Clusterer)

// WithJudge sets the model used for common-pattern narratives. Optional.
func WithJudge(j judge.Judge) Option {
	return func(c *Clusterer) {
		c.judge = j
	}
}

// WithConfig applies priority thresholds from a config struct.
func WithConfig(cfg *config.Config) Option {
	return func(c *Clusterer) {
		c.highThreshold = cfg.Thresholds.HighPriority
		c.mediumThreshold = cfg.Thresholds.MediumPriority
	}
}

// New creates a clusterer with default thresholds.
func New(opts ...Option) *Clusterer {
	c := &Clusterer{
		highThreshold:   0.9,
		mediumThreshold: 0.7,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cluster groups matches with single-pass greedy one-hop absorption: each
// unprocessed match seeds a cluster with its two files, and any later
// unprocessed match touching either seed file is absorbed. Files brought
// in by absorption do not trigger further expansion within the same
// cluster, so chained duplicate groups may split across clusters. That is
// the contracted behavior, not a defect to correct here.
func (c *Clusterer) Cluster(ctx context.Context, matches []models.SimilarityMatch) []models.DuplicateCluster {
	processed := make([]bool, len(matches))
	var clusters []models.DuplicateCluster

	for i, seed := range matches {
		if processed[i] {
			continue
		}
		processed[i] = true

		files := []string{seed.SourceFile}
		if seed.TargetFile != seed.SourceFile {
			files = append(files, seed.TargetFile)
		}
		fileSet := map[string]struct{}{seed.SourceFile: {}, seed.TargetFile: {}}

		seedBlocks := []models.CodeBlock{
			{FilePath: seed.SourceFile, StartLine: seed.SourceStart, EndLine: seed.SourceEnd, Code: seed.SourceCode},
			{FilePath: seed.TargetFile, StartLine: seed.TargetStart, EndLine: seed.TargetEnd, Code: seed.TargetCode},
		}

		scores := []float64{seed.SimilarityScore}
		absorbed := 0

		for j := i + 1; j < len(matches); j++ {
			if processed[j] {
				continue
			}
			m := matches[j]
			if !touchesSeed(m, seed) {
				continue
			}
			processed[j] = true
			absorbed++
			scores = append(scores, m.SimilarityScore)
			for _, f := range []string{m.SourceFile, m.TargetFile} {
				if _, ok := fileSet[f]; !ok {
					fileSet[f] = struct{}{}
					files = append(files, f)
				}
			}
		}

		totalLines := seedBlocks[0].Lines() + seedBlocks[1].Lines()
		clusters = append(clusters, models.DuplicateCluster{
			ID:                  "cluster-" + seed.ID,
			Files:               files,
			CodeBlocks:          seedBlocks,
			CommonPattern:       c.describePattern(ctx, seedBlocks[0], seedBlocks[1]),
			AverageSimilarity:   mean(scores),
			RefactoringPriority: models.PriorityForScore(seed.SimilarityScore, c.highThreshold, c.mediumThreshold),
			EstimatedSavings: models.EstimatedSavings{
				LinesOfCode:                int(math.Round(float64(totalLines) * reductionFactor)),
				MaintainabilityImprovement: maintainabilityImprovement(absorbed),
			},
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].AverageSimilarity > clusters[j].AverageSimilarity
	})
	return clusters
}

// touchesSeed reports whether a match involves either of the seed match's
// two files. One-hop expansion only.
func touchesSeed(m, seed models.SimilarityMatch) bool {
	return m.SourceFile == seed.SourceFile || m.SourceFile == seed.TargetFile ||
		m.TargetFile == seed.SourceFile || m.TargetFile == seed.TargetFile
}

// describePattern asks the model for a one-line description of what the
// two seed blocks have in common, falling back to a static label.
func (c *Clusterer) describePattern(ctx context.Context, a, b models.CodeBlock) string {
	if c.judge == nil {
		return fallbackPattern
	}

	prompt := fmt.Sprintf(`Describe in one short sentence the common pattern shared by these two code blocks. Respond with the sentence only, no preamble.

Block A:
%s

Block B:
%s`, a.Code, b.Code)

	text, err := c.judge.Ask(ctx, prompt)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		slog.Debug("pattern narrative unavailable", "error", err)
		return fallbackPattern
	}
	return firstLine(text)
}

// maintainabilityImprovement grows with the number of absorbed matches and
// saturates at 1.0.
func maintainabilityImprovement(absorbed int) float64 {
	return math.Min(1.0, 0.15+0.1*float64(absorbed))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
