package cluster

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/simscan/simscan/pkg/models"
)

type stubJudge struct {
	reply string
	err   error
	calls int
}

func (s *stubJudge) Ask(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func makeMatch(id, src, tgt string, score float64) models.SimilarityMatch {
	return models.SimilarityMatch{
		ID:              id,
		SourceFile:      src,
		TargetFile:      tgt,
		SourceStart:     1,
		SourceEnd:       10,
		TargetStart:     1,
		TargetEnd:       10,
		SourceCode:      "source code",
		TargetCode:      "target code",
		SimilarityScore: score,
		MatchType:       models.MatchStructural,
	}
}

func TestCluster_SingleMatch(t *testing.T) {
	c := New()
	matches := []models.SimilarityMatch{makeMatch("m1", "a.ts", "b.ts", 0.95)}

	clusters := c.Cluster(context.Background(), matches)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	cl := clusters[0]
	if cl.ID != "cluster-m1" {
		t.Errorf("ID = %q, want cluster-m1", cl.ID)
	}
	if len(cl.Files) != 2 || cl.Files[0] != "a.ts" || cl.Files[1] != "b.ts" {
		t.Errorf("files = %v, want [a.ts b.ts]", cl.Files)
	}
	if len(cl.CodeBlocks) != 2 {
		t.Errorf("expected the two seed blocks, got %d", len(cl.CodeBlocks))
	}
	if cl.RefactoringPriority != models.PriorityHigh {
		t.Errorf("priority = %v, want high", cl.RefactoringPriority)
	}
	if cl.CommonPattern != fallbackPattern {
		t.Errorf("pattern = %q, want fallback without a judge", cl.CommonPattern)
	}
	// Two 10-line blocks at a 0.7 reduction factor.
	if cl.EstimatedSavings.LinesOfCode != 14 {
		t.Errorf("savings = %d lines, want 14", cl.EstimatedSavings.LinesOfCode)
	}
	if math.Abs(cl.EstimatedSavings.MaintainabilityImprovement-0.15) > 1e-9 {
		t.Errorf("maintainability = %v, want 0.15 with nothing absorbed", cl.EstimatedSavings.MaintainabilityImprovement)
	}
}

func TestCluster_AbsorbsMatchesTouchingSeedFiles(t *testing.T) {
	c := New()
	matches := []models.SimilarityMatch{
		makeMatch("m1", "a.ts", "b.ts", 0.95),
		makeMatch("m2", "a.ts", "c.ts", 0.9),
		makeMatch("m3", "b.ts", "d.ts", 0.85),
	}

	clusters := c.Cluster(context.Background(), matches)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	cl := clusters[0]
	want := []string{"a.ts", "b.ts", "c.ts", "d.ts"}
	if len(cl.Files) != len(want) {
		t.Fatalf("files = %v, want %v", cl.Files, want)
	}
	for i := range want {
		if cl.Files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, cl.Files[i], want[i])
		}
	}
	if math.Abs(cl.AverageSimilarity-0.9) > 1e-9 {
		t.Errorf("average similarity = %v, want 0.9", cl.AverageSimilarity)
	}
	if math.Abs(cl.EstimatedSavings.MaintainabilityImprovement-0.35) > 1e-9 {
		t.Errorf("maintainability = %v, want 0.35 with two absorbed matches", cl.EstimatedSavings.MaintainabilityImprovement)
	}
}

func TestCluster_ChainSplits(t *testing.T) {
	c := New()
	matches := []models.SimilarityMatch{
		makeMatch("m1", "a.ts", "b.ts", 0.9),
		makeMatch("m2", "b.ts", "c.ts", 0.9),
		makeMatch("m3", "c.ts", "d.ts", 0.9),
	}

	// c.ts arrives by absorption only, so it does not pull in c-d; the
	// chain splits into two clusters.
	clusters := c.Cluster(context.Background(), matches)
	if len(clusters) != 2 {
		t.Fatalf("expected the chain to split into 2 clusters, got %d", len(clusters))
	}
	if len(clusters[0].Files) != 3 {
		t.Errorf("first cluster files = %v, want a.ts, b.ts, c.ts", clusters[0].Files)
	}
	if len(clusters[1].Files) != 2 {
		t.Errorf("second cluster files = %v, want c.ts, d.ts", clusters[1].Files)
	}
}

func TestCluster_PriorityFromSeedScore(t *testing.T) {
	c := New()
	cases := []struct {
		score float64
		want  models.RefactoringPriority
	}{
		{0.95, models.PriorityHigh},
		{0.9, models.PriorityHigh},
		{0.75, models.PriorityMedium},
		{0.7, models.PriorityMedium},
		{0.65, models.PriorityLow},
	}
	for _, tc := range cases {
		clusters := c.Cluster(context.Background(), []models.SimilarityMatch{
			makeMatch("m1", "a.ts", "b.ts", tc.score),
		})
		if clusters[0].RefactoringPriority != tc.want {
			t.Errorf("score %v: priority = %v, want %v", tc.score, clusters[0].RefactoringPriority, tc.want)
		}
	}
}

func TestCluster_SortedBySimilarity(t *testing.T) {
	c := New()
	matches := []models.SimilarityMatch{
		makeMatch("m1", "a.ts", "b.ts", 0.72),
		makeMatch("m2", "x.ts", "y.ts", 0.98),
	}

	clusters := c.Cluster(context.Background(), matches)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].AverageSimilarity < clusters[1].AverageSimilarity {
		t.Error("clusters must be sorted by similarity descending")
	}
}

func TestCluster_JudgeNarrative(t *testing.T) {
	j := &stubJudge{reply: "Both validate request payloads before dispatch.\nAdditional detail."}
	c := New(WithJudge(j))

	clusters := c.Cluster(context.Background(), []models.SimilarityMatch{
		makeMatch("m1", "a.ts", "b.ts", 0.9),
	})
	if got := clusters[0].CommonPattern; got != "Both validate request payloads before dispatch." {
		t.Errorf("pattern = %q, want the first line of the judge reply", got)
	}
}

func TestCluster_JudgeFailureFallsBack(t *testing.T) {
	j := &stubJudge{err: errors.New("timeout")}
	c := New(WithJudge(j))

	clusters := c.Cluster(context.Background(), []models.SimilarityMatch{
		makeMatch("m1", "a.ts", "b.ts", 0.9),
	})
	if clusters[0].CommonPattern != fallbackPattern {
		t.Errorf("pattern = %q, want fallback on judge failure", clusters[0].CommonPattern)
	}
}

func TestCluster_NoMatches(t *testing.T) {
	c := New()
	if clusters := c.Cluster(context.Background(), nil); len(clusters) != 0 {
		t.Errorf("expected 0 clusters, got %d", len(clusters))
	}
}

func TestMaintainabilityImprovement_Saturates(t *testing.T) {
	if got := maintainabilityImprovement(20); got != 1.0 {
		t.Errorf("maintainability = %v, want saturation at 1.0", got)
	}
}
