package output

import (
	"fmt"
	"strings"

	"github.com/simscan/simscan/pkg/models"
)

// ClusterTable renders a report's duplicate clusters.
func ClusterTable(report *models.SimilarityReport) *Table {
	rows := make([][]string, 0, len(report.DuplicateClusters))
	for _, c := range report.DuplicateClusters {
		rows = append(rows, []string{
			string(c.RefactoringPriority),
			fmt.Sprintf("%.0f%%", c.AverageSimilarity*100),
			fmt.Sprintf("%d", len(c.Files)),
			fmt.Sprintf("~%d lines", c.EstimatedSavings.LinesOfCode),
			truncate(c.CommonPattern, 60),
		})
	}

	return &Table{
		Title:   "Duplicate Clusters",
		Headers: []string{"Priority", "Similarity", "Files", "Est. Savings", "Pattern"},
		Rows:    rows,
		Footer: []string{
			fmt.Sprintf("Clusters: %d", report.Statistics.ClusterCount),
			fmt.Sprintf("Matches: %d", report.TotalMatches),
			fmt.Sprintf("Files: %d", report.TotalFiles),
			fmt.Sprintf("Potential Savings: %d lines", report.Statistics.PotentialLineSavings),
			"",
		},
		Data: report,
	}
}

// MatchTable renders pairwise similarity matches.
func MatchTable(title string, matches []models.SimilarityMatch) *Table {
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{
			fmt.Sprintf("%s:%d-%d", m.SourceFile, m.SourceStart, m.SourceEnd),
			fmt.Sprintf("%s:%d-%d", m.TargetFile, m.TargetStart, m.TargetEnd),
			string(m.MatchType),
			fmt.Sprintf("%.0f%%", m.SimilarityScore*100),
			fmt.Sprintf("%.0f%%", m.Confidence*100),
		})
	}

	return &Table{
		Title:   title,
		Headers: []string{"Source", "Target", "Type", "Similarity", "Confidence"},
		Rows:    rows,
		Data:    matches,
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
