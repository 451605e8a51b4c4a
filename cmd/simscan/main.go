package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/simscan/simscan/internal/judge"
	"github.com/simscan/simscan/internal/output"
	"github.com/simscan/simscan/internal/progress"
	"github.com/simscan/simscan/internal/scanner"
	"github.com/simscan/simscan/pkg/config"
	"github.com/simscan/simscan/pkg/engine"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	app := &cli.App{
		Name:    "simscan",
		Usage:   "Code duplication and similarity detection",
		Version: version,
		Description: `Simscan locates functionally or structurally equivalent code blocks
across a project, groups them into duplicate clusters, and estimates the
refactoring value of extracting them.

Supports: Go, TypeScript, JavaScript, Java, C#, Rust, C, C++, PHP`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"SIMSCAN_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			compareCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file named by --config, or searches the
// standard locations.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(), nil
}

// setupLogging raises the slog level when --verbose is set; otherwise only
// errors reach stderr so the progress bar stays readable.
func setupLogging(c *cli.Context) {
	level := slog.LevelError
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// newEngine builds the engine with the filesystem collaborators and, when
// enabled and configured, the Anthropic judge.
func newEngine(cfg *config.Config, withSemantic bool) *engine.Engine {
	opts := []engine.Option{
		engine.WithConfig(cfg),
		engine.WithLister(scanner.New(cfg)),
	}

	if withSemantic && cfg.Semantic.Enabled {
		j, err := judge.NewAnthropic(
			judge.WithModel(cfg.Judge.Model),
			judge.WithMaxTokens(int64(cfg.Judge.MaxTokens)),
			judge.WithMaxConcurrent(int64(cfg.Judge.MaxConcurrent)),
		)
		if err != nil {
			slog.Debug("semantic pass disabled", "reason", err)
		} else {
			opts = append(opts, engine.WithJudge(j))
		}
	}

	return engine.New(opts...)
}

func newFormatter(c *cli.Context) (*output.Formatter, error) {
	return output.NewFormatter(
		output.ParseFormat(c.String("format")),
		c.String("output"),
		!c.Bool("no-color"),
	)
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a project for duplicated and similar code",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-semantic",
				Usage: "Skip the model-judged semantic pass",
			},
		},
		Action: func(c *cli.Context) error {
			setupLogging(c)

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			path := "."
			if c.Args().Len() > 0 {
				path = c.Args().First()
			}

			eng := newEngine(cfg, !c.Bool("no-semantic"))

			tracker := progress.NewTracker("Analyzing project...")
			unsubscribe := eng.OnProgress(tracker.SetPercent)
			defer unsubscribe()

			report, err := eng.AnalyzeProject(c.Context, path)
			tracker.FinishSuccess()
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			formatter, err := newFormatter(c)
			if err != nil {
				return err
			}
			defer formatter.Close()

			if formatter.Format() == output.FormatJSON {
				return formatter.OutputJSON(report)
			}
			if report.TotalMatches == 0 {
				color.Green("No duplicated code found across %d files", report.TotalFiles)
				return nil
			}
			return formatter.OutputTable(output.ClusterTable(report))
		},
	}
}

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare two files for duplicated blocks",
		ArgsUsage: "<file1> <file2>",
		Action: func(c *cli.Context) error {
			setupLogging(c)

			if c.Args().Len() != 2 {
				return fmt.Errorf("compare requires exactly two file arguments")
			}
			file1, file2 := c.Args().Get(0), c.Args().Get(1)

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			eng := newEngine(cfg, false)
			matches := eng.CompareFiles(file1, file2)

			formatter, err := newFormatter(c)
			if err != nil {
				return err
			}
			defer formatter.Close()

			if formatter.Format() == output.FormatJSON {
				return formatter.OutputJSON(matches)
			}
			if len(matches) == 0 {
				color.Green("No similar blocks between %s and %s", file1, file2)
				return nil
			}
			return formatter.OutputTable(output.MatchTable("Similar Blocks", matches))
		},
	}
}
