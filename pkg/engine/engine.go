// Package engine orchestrates the duplication analysis pipeline: block
// extraction, the three similarity passes, clustering, and report
// assembly, under a single-flight guard with progress reporting.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/simscan/simscan/internal/judge"
	"github.com/simscan/simscan/pkg/cluster"
	"github.com/simscan/simscan/pkg/config"
	"github.com/simscan/simscan/pkg/extractor"
	"github.com/simscan/simscan/pkg/models"
	"github.com/simscan/simscan/pkg/similarity"
	"github.com/simscan/simscan/pkg/source"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/stat"

	simstats "github.com/simscan/simscan/pkg/stats"
)

// ErrAnalysisInProgress is returned when AnalyzeProject is called while a
// previous run has not finished. This is the only error the engine
// surfaces to callers; everything else degrades to absence of results.
var ErrAnalysisInProgress = errors.New("analysis already in progress")

// Lister enumerates the text files of a project. It is the second external
// collaborator boundary next to source.ContentSource.
type Lister interface {
	ListTextFiles(projectPath string) ([]string, error)
}

// Engine is the analysis orchestrator. Construct one per process and
// inject it where needed; it owns the single-flight state and the
// per-project report cache.
type Engine struct {
	cfg      *config.Config
	lister   Lister
	src      source.ContentSource
	sim      *similarity.Engine
	clust    *cluster.Clusterer
	jdg      judge.Judge
	semantic bool

	analyzing atomic.Bool
	progress  atomic.Int32

	obsMu     sync.Mutex
	observers map[int]func(int)
	nextObs   int

	cacheMu sync.RWMutex
	reports map[string]*models.SimilarityReport
}

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLister sets the project file lister.
func WithLister(l Lister) Option {
	return func(e *Engine) {
		e.lister = l
	}
}

// WithSource sets the file content source.
func WithSource(src source.ContentSource) Option {
	return func(e *Engine) {
		e.src = src
	}
}

// WithJudge sets the external model used by the semantic pass and the
// cluster narratives. A nil judge leaves both on their fallbacks.
func WithJudge(j judge.Judge) Option {
	return func(e *Engine) {
		e.jdg = j
	}
}

// New creates an engine. Without options it analyzes the local filesystem
// with default thresholds and no semantic judge.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:       config.DefaultConfig(),
		src:       source.NewFilesystem(),
		observers: make(map[int]func(int)),
		reports:   make(map[string]*models.SimilarityReport),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.semantic = e.cfg.Semantic.Enabled && e.jdg != nil

	var simJudge judge.Judge
	if e.semantic {
		simJudge = e.jdg
	}
	e.sim = similarity.New(
		similarity.WithConfig(e.cfg),
		similarity.WithJudge(simJudge),
	)
	e.clust = cluster.New(
		cluster.WithConfig(e.cfg),
		cluster.WithJudge(e.jdg),
	)

	return e
}

// AnalyzeProject runs the full five-phase pipeline over a project and
// returns its report. Only one run may be active at a time; a concurrent
// call fails with ErrAnalysisInProgress without touching any state. The
// in-flight flag is released on every exit path.
func (e *Engine) AnalyzeProject(ctx context.Context, projectPath string) (*models.SimilarityReport, error) {
	if !e.analyzing.CompareAndSwap(false, true) {
		return nil, ErrAnalysisInProgress
	}
	defer e.analyzing.Store(false)

	e.setProgress(0)

	var files []string
	if e.lister != nil {
		var err error
		files, err = e.lister.ListTextFiles(projectPath)
		if err != nil {
			slog.Warn("project listing failed", "path", projectPath, "error", err)
			files = nil
		}
	}

	blocks := e.extractAll(files)
	e.setProgress(20)

	matches := e.sim.ExactMatches(blocks)
	e.setProgress(40)

	matches = append(matches, e.sim.StructuralMatches(blocks)...)
	e.setProgress(60)

	matches = append(matches, e.sim.SemanticMatches(ctx, blocks)...)
	e.setProgress(80)

	clusters := e.clust.Cluster(ctx, matches)

	report := buildReport(projectPath, len(files), matches, clusters)

	e.cacheMu.Lock()
	e.reports[projectPath] = report
	e.cacheMu.Unlock()

	e.setProgress(100)
	return report, nil
}

// CompareFiles extracts blocks from two files and computes pairwise
// similarity directly: hash equality yields an exact match, otherwise
// token Jaccard. No clustering, no semantic stage. Read failures degrade
// to zero blocks for that file. Safe to call concurrently with an active
// AnalyzeProject run.
func (e *Engine) CompareFiles(file1, file2 string) []models.SimilarityMatch {
	blocks1 := extractor.ExtractFile(e.src, file1)
	blocks2 := extractor.ExtractFile(e.src, file2)

	matches := e.sim.PairwiseMatches(blocks1, blocks2)

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})
	return matches
}

// OnProgress registers a progress observer receiving percentages 0-100.
// The returned function unsubscribes it. A panicking callback is recovered
// and does not affect other observers or the pipeline.
func (e *Engine) OnProgress(fn func(percent int)) (unsubscribe func()) {
	e.obsMu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = fn
	e.obsMu.Unlock()

	return func() {
		e.obsMu.Lock()
		delete(e.observers, id)
		e.obsMu.Unlock()
	}
}

// IsAnalyzing reports whether an AnalyzeProject run is in flight.
func (e *Engine) IsAnalyzing() bool {
	return e.analyzing.Load()
}

// Progress returns the current pipeline progress percentage.
func (e *Engine) Progress() int {
	return int(e.progress.Load())
}

// GetLastReport returns the cached report for a project path, if any.
func (e *Engine) GetLastReport(projectPath string) (*models.SimilarityReport, bool) {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()
	report, ok := e.reports[projectPath]
	return report, ok
}

// ClearCache drops all cached reports.
func (e *Engine) ClearCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.reports = make(map[string]*models.SimilarityReport)
}

// setProgress records the percentage and notifies all observers.
func (e *Engine) setProgress(percent int) {
	e.progress.Store(int32(percent))

	e.obsMu.Lock()
	callbacks := make([]func(int), 0, len(e.observers))
	for _, fn := range e.observers {
		callbacks = append(callbacks, fn)
	}
	e.obsMu.Unlock()

	for _, fn := range callbacks {
		notify(fn, percent)
	}
}

func notify(fn func(int), percent int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("progress observer panicked", "panic", r)
		}
	}()
	fn(percent)
}

// extractAll reads and extracts every file in parallel, assembling blocks
// in file order so downstream passes are deterministic. Oversized and
// unreadable files contribute zero blocks.
func (e *Engine) extractAll(files []string) []models.CodeBlock {
	perFile := make([][]models.CodeBlock, len(files))

	p := pool.New().WithMaxGoroutines(runtime.NumCPU())
	for i, path := range files {
		p.Go(func() {
			content, err := e.src.Read(path)
			if err != nil {
				slog.Warn("skipping unreadable file", "path", path, "error", err)
				return
			}
			if e.cfg.MaxFileSize > 0 && int64(len(content)) > e.cfg.MaxFileSize {
				return
			}
			lang := extractor.DetectLanguage(path)
			perFile[i] = extractor.ExtractBlocks(path, string(content), lang)
		})
	}
	p.Wait()

	var blocks []models.CodeBlock
	for _, fb := range perFile {
		blocks = append(blocks, fb...)
	}
	return blocks
}

// buildReport assembles the immutable top-level result of one run.
func buildReport(projectPath string, totalFiles int, matches []models.SimilarityMatch, clusters []models.DuplicateCluster) *models.SimilarityReport {
	return &models.SimilarityReport{
		ID:                uuid.NewString(),
		ProjectPath:       projectPath,
		Timestamp:         time.Now(),
		TotalFiles:        totalFiles,
		TotalMatches:      len(matches),
		DuplicateClusters: clusters,
		SimilarityMatches: matches,
		Statistics:        buildStatistics(matches, clusters),
	}
}

// buildStatistics aggregates per-type counts, similarity distribution, and
// potential savings.
func buildStatistics(matches []models.SimilarityMatch, clusters []models.DuplicateCluster) models.ReportStatistics {
	var s models.ReportStatistics

	scores := make([]float64, 0, len(matches))
	for _, m := range matches {
		scores = append(scores, m.SimilarityScore)
		switch m.MatchType {
		case models.MatchExact:
			s.ExactMatches++
		case models.MatchStructural:
			s.StructuralMatches++
		case models.MatchSemantic:
			s.SemanticMatches++
		case models.MatchFunctional:
			s.FunctionalMatches++
		}
	}

	if len(scores) > 0 {
		s.AvgSimilarity = stat.Mean(scores, nil)
		sort.Float64s(scores)
		s.P50Similarity = simstats.Percentile(scores, 50)
		s.P95Similarity = simstats.Percentile(scores, 95)
	}

	s.ClusterCount = len(clusters)
	for _, c := range clusters {
		s.PotentialLineSavings += c.EstimatedSavings.LinesOfCode
	}

	return s
}
