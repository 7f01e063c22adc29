package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pygenii/genii/internal/progress"
	"github.com/pygenii/genii/internal/report"
	"github.com/pygenii/genii/pkg/analyzer"
	"github.com/pygenii/genii/pkg/stats"
)

var errNoInput = errors.New("at least one input file is required (see genii --help)")

func runAnalyzeCmd(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return errNoInput
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := loggerFrom(c)

	svc, err := newService(c, cfg)
	if err != nil {
		return err
	}

	logger.Info().Msg("getting modules")
	files, err := svc.Discover(c.Args().Slice())
	if err != nil {
		return fmt.Errorf("failed to expand arguments: %w", err)
	}
	logger.Debug().Strs("modules", files).Msg("module list")

	formatter, err := newFormatter(c, cfg, c.String("outfile"))
	if err != nil {
		return err
	}
	defer formatter.Close()

	opts := reportOptions(c, cfg)
	if len(files) == 0 {
		return formatter.Output(report.Build(stats.New(), nil, opts))
	}

	ctx := c.Context
	var tracker *progress.Tracker
	if showProgress(c) {
		tracker = progress.NewTracker("Analyzing modules", len(files))
		ctx = analyzer.WithTracker(ctx, tracker.Analyzer())
	}

	result, err := svc.Analyze(ctx, files)
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	logger.Info().
		Int("modules", len(files)-len(result.Failed)).
		Int("failed", len(result.Failed)).
		Msg("analysis complete")

	return formatter.Output(report.Build(result.Stats, result.Failed, opts))
}
