package similarity

import (
	"math"
	"testing"

	"github.com/simscan/simscan/pkg/models"
)

func makeBlock(file string, start int, hash uint64, tokens ...string) models.CodeBlock {
	return models.CodeBlock{
		FilePath:  file,
		StartLine: start,
		EndLine:   start + 9,
		Code:      "code",
		Hash:      hash,
		Tokens:    tokens,
	}
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestJaccard(t *testing.T) {
	cases := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"x", "y", "z"}, []string{"x", "y", "z"}, 1.0},
		{"disjoint", []string{"x", "y"}, []string{"p", "q"}, 0.0},
		{"partial", []string{"x", "y", "z", "w"}, []string{"x", "y", "z", "q"}, 0.6},
		{"both empty", nil, nil, 0.0},
		{"one empty", []string{"x"}, nil, 0.0},
		{"duplicate tokens collapse", []string{"x", "x", "y"}, []string{"x", "y", "y"}, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Jaccard(tc.a, tc.b)
			if !floatEq(got, tc.want) {
				t.Errorf("Jaccard = %v, want %v", got, tc.want)
			}
			if rev := Jaccard(tc.b, tc.a); !floatEq(got, rev) {
				t.Errorf("Jaccard not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestMatchID_Stable(t *testing.T) {
	a := makeBlock("a.ts", 1, 100)
	b := makeBlock("b.ts", 5, 200)

	if MatchID(a, b) != MatchID(a, b) {
		t.Error("same pair must yield the same id")
	}
	c := makeBlock("c.ts", 5, 200)
	if MatchID(a, b) == MatchID(a, c) {
		t.Error("different pairs must yield different ids")
	}
}

func TestExactMatches_PairsSameHash(t *testing.T) {
	e := New()
	blocks := []models.CodeBlock{
		makeBlock("a.ts", 1, 42),
		makeBlock("b.ts", 10, 42),
		makeBlock("c.ts", 1, 99),
	}

	matches := e.ExactMatches(blocks)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.SimilarityScore != 1.0 || m.Confidence != 1.0 {
		t.Errorf("score/confidence = %v/%v, want 1.0/1.0", m.SimilarityScore, m.Confidence)
	}
	if m.MatchType != models.MatchExact {
		t.Errorf("match type = %v, want exact", m.MatchType)
	}
	if !m.RefactoringOpportunity {
		t.Error("exact duplicates are always refactoring opportunities")
	}
	if len(m.Suggestions) == 0 {
		t.Error("exact match must carry suggestions")
	}
}

func TestExactMatches_ThreeWayGroup(t *testing.T) {
	e := New()
	blocks := []models.CodeBlock{
		makeBlock("a.ts", 1, 42),
		makeBlock("b.ts", 1, 42),
		makeBlock("c.ts", 1, 42),
	}

	matches := e.ExactMatches(blocks)
	if len(matches) != 3 {
		t.Errorf("three identical blocks should yield 3 pairwise matches, got %d", len(matches))
	}
}

func TestExactMatches_SameFileAllowed(t *testing.T) {
	e := New()
	blocks := []models.CodeBlock{
		makeBlock("a.ts", 1, 42),
		makeBlock("a.ts", 50, 42),
	}

	matches := e.ExactMatches(blocks)
	if len(matches) != 1 {
		t.Fatalf("two ranges of the same file are a legitimate pair, got %d matches", len(matches))
	}
}

func TestExactMatches_NoDuplicates(t *testing.T) {
	e := New()
	blocks := []models.CodeBlock{
		makeBlock("a.ts", 1, 1),
		makeBlock("b.ts", 1, 2),
	}
	if matches := e.ExactMatches(blocks); len(matches) != 0 {
		t.Errorf("expected 0 matches, got %d", len(matches))
	}
}

func TestStructuralMatches_AboveThreshold(t *testing.T) {
	e := New()
	common := []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9"}
	blocks := []models.CodeBlock{
		makeBlock("a.ts", 1, 1, append(common, "alpha")...),
		makeBlock("b.ts", 1, 2, append(common, "beta")...),
	}

	matches := e.StructuralMatches(blocks)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	want := 9.0 / 11.0
	if !floatEq(m.SimilarityScore, want) {
		t.Errorf("score = %v, want %v", m.SimilarityScore, want)
	}
	if !floatEq(m.Confidence, want*0.9) {
		t.Errorf("confidence = %v, want %v", m.Confidence, want*0.9)
	}
	if m.MatchType != models.MatchStructural {
		t.Errorf("match type = %v, want structural", m.MatchType)
	}
}

func TestStructuralMatches_BelowThreshold(t *testing.T) {
	e := New()
	common := []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8"}
	blocks := []models.CodeBlock{
		makeBlock("a.ts", 1, 1, append(common, "a1", "a2")...),
		makeBlock("b.ts", 1, 2, append(common, "b1", "b2")...),
	}

	// 8/12 overlap is under the 0.7 default.
	if matches := e.StructuralMatches(blocks); len(matches) != 0 {
		t.Errorf("expected 0 matches, got %d", len(matches))
	}
}

func TestStructuralMatches_ThresholdInclusive(t *testing.T) {
	e := New()
	common := []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"}
	blocks := []models.CodeBlock{
		makeBlock("a.ts", 1, 1, append(common, "a1")...),
		makeBlock("b.ts", 1, 2, append(common, "b1", "b2")...),
	}

	// 7/10 overlap sits exactly on the threshold and is included.
	if matches := e.StructuralMatches(blocks); len(matches) != 1 {
		t.Errorf("expected 1 match at the threshold boundary, got %d", len(matches))
	}
}

func TestStructuralMatches_SameFileExcluded(t *testing.T) {
	e := New()
	tokens := []string{"t1", "t2", "t3", "t4", "t5"}
	blocks := []models.CodeBlock{
		makeBlock("a.ts", 1, 1, tokens...),
		makeBlock("a.ts", 50, 2, tokens...),
	}

	if matches := e.StructuralMatches(blocks); len(matches) != 0 {
		t.Errorf("same-file pairs must not produce structural matches, got %d", len(matches))
	}
}

func TestPairwiseMatches(t *testing.T) {
	e := New()
	common := []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9"}

	blocks1 := []models.CodeBlock{
		makeBlock("a.ts", 1, 42, "x"),
		makeBlock("a.ts", 20, 7, append(common, "alpha")...),
		makeBlock("a.ts", 40, 8, "p", "q"),
	}
	blocks2 := []models.CodeBlock{
		makeBlock("b.ts", 1, 42, "x"),
		makeBlock("b.ts", 20, 9, append(common, "beta")...),
	}

	matches := e.PairwiseMatches(blocks1, blocks2)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches (one exact, one structural), got %d", len(matches))
	}

	var exact, structural int
	for _, m := range matches {
		switch m.MatchType {
		case models.MatchExact:
			exact++
			if m.SimilarityScore != 1.0 {
				t.Errorf("exact score = %v, want 1.0", m.SimilarityScore)
			}
		case models.MatchStructural:
			structural++
		}
	}
	if exact != 1 || structural != 1 {
		t.Errorf("exact/structural = %d/%d, want 1/1", exact, structural)
	}
}

func TestWithConfigOverridesThresholds(t *testing.T) {
	e := New(WithStructuralThreshold(0.5))
	common := []string{"t1", "t2", "t3"}
	blocks := []models.CodeBlock{
		makeBlock("a.ts", 1, 1, append(common, "a1", "a2")...),
		makeBlock("b.ts", 1, 2, append(common, "b1")...),
	}

	// 3/6 = 0.5 passes the lowered threshold.
	if matches := e.StructuralMatches(blocks); len(matches) != 1 {
		t.Errorf("expected 1 match at the custom threshold, got %d", len(matches))
	}
}
