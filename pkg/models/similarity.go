package models

import (
	"fmt"
	"time"
)

// MatchType classifies how a similarity match was established.
type MatchType string

const (
	MatchExact      MatchType = "exact"      // Identical structural hash
	MatchStructural MatchType = "structural" // High token-set overlap
	MatchSemantic   MatchType = "semantic"   // Judged similar in purpose by the model
	MatchFunctional MatchType = "functional" // Judged equivalent in behavior by the model
)

// String returns the string representation.
func (t MatchType) String() string {
	return string(t)
}

// RefactoringPriority ranks a duplicate cluster by refactoring value.
type RefactoringPriority string

const (
	PriorityHigh   RefactoringPriority = "high"
	PriorityMedium RefactoringPriority = "medium"
	PriorityLow    RefactoringPriority = "low"
)

// PriorityForScore derives a priority from a similarity score.
func PriorityForScore(score, high, medium float64) RefactoringPriority {
	switch {
	case score >= high:
		return PriorityHigh
	case score >= medium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// CodeBlock is a contiguous line range within one file believed to be a
// function, class, or logical unit. Blocks are built once per analysis run
// and never mutated afterwards.
type CodeBlock struct {
	FilePath  string   `json:"file_path"`
	StartLine int      `json:"start_line"` // 1-based, inclusive
	EndLine   int      `json:"end_line"`   // 1-based, inclusive
	Code      string   `json:"code"`
	Hash      uint64   `json:"hash"`
	Tokens    []string `json:"tokens,omitempty"`
}

// Lines returns the number of lines the block spans.
func (b CodeBlock) Lines() int {
	return b.EndLine - b.StartLine + 1
}

// Location renders the block position as file:start-end.
func (b CodeBlock) Location() string {
	return fmt.Sprintf("%s:%d-%d", b.FilePath, b.StartLine, b.EndLine)
}

// SimilarityMatch is a pairwise relationship between two code blocks.
// Source and target code are copies so a match stays valid after the
// originating blocks are discarded.
type SimilarityMatch struct {
	ID                     string    `json:"id"`
	SourceFile             string    `json:"source_file"`
	TargetFile             string    `json:"target_file"`
	SourceStart            int       `json:"source_start"`
	SourceEnd              int       `json:"source_end"`
	TargetStart            int       `json:"target_start"`
	TargetEnd              int       `json:"target_end"`
	SourceCode             string    `json:"source_code"`
	TargetCode             string    `json:"target_code"`
	SimilarityScore        float64   `json:"similarity_score"`
	MatchType              MatchType `json:"match_type"`
	Confidence             float64   `json:"confidence"`
	Suggestions            []string  `json:"suggestions,omitempty"`
	RefactoringOpportunity bool      `json:"refactoring_opportunity"`
}

// EstimatedSavings quantifies what extracting a duplicate cluster could buy.
type EstimatedSavings struct {
	LinesOfCode                int     `json:"lines_of_code"`
	MaintainabilityImprovement float64 `json:"maintainability_improvement"`
}

// DuplicateCluster is a connected group of files and blocks sharing a
// common pattern. Clusters are rebuilt wholesale on every analysis run.
type DuplicateCluster struct {
	ID                  string              `json:"id"`
	Files               []string            `json:"files"`
	CodeBlocks          []CodeBlock         `json:"code_blocks"`
	CommonPattern       string              `json:"common_pattern"`
	AverageSimilarity   float64             `json:"average_similarity"`
	RefactoringPriority RefactoringPriority `json:"refactoring_priority"`
	EstimatedSavings    EstimatedSavings    `json:"estimated_savings"`
}

// ReportStatistics aggregates per-type match counts and savings.
type ReportStatistics struct {
	ExactMatches         int     `json:"exact_matches"`
	StructuralMatches    int     `json:"structural_matches"`
	SemanticMatches      int     `json:"semantic_matches"`
	FunctionalMatches    int     `json:"functional_matches"`
	AvgSimilarity        float64 `json:"avg_similarity"`
	P50Similarity        float64 `json:"p50_similarity"`
	P95Similarity        float64 `json:"p95_similarity"`
	ClusterCount         int     `json:"cluster_count"`
	PotentialLineSavings int     `json:"potential_line_savings"`
}

// SimilarityReport is the immutable result of one analysis run.
type SimilarityReport struct {
	ID                string             `json:"id"`
	ProjectPath       string             `json:"project_path"`
	Timestamp         time.Time          `json:"timestamp"`
	TotalFiles        int                `json:"total_files"`
	TotalMatches      int                `json:"total_matches"`
	DuplicateClusters []DuplicateCluster `json:"duplicate_clusters"`
	SimilarityMatches []SimilarityMatch  `json:"similarity_matches"`
	Statistics        ReportStatistics   `json:"statistics"`
}
