package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pygenii/genii/internal/output"
	"github.com/pygenii/genii/internal/report"
	"github.com/pygenii/genii/internal/service/analysis"
	"github.com/pygenii/genii/pkg/stats"
	"github.com/pygenii/genii/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch for module changes and re-analyze",
		ArgsUsage: "[path...]",
		Description: `Analyzes the given directories (recursively) and prints the report again
whenever a Python module below them is written, created or removed. Table
options such as -a or -t go before the command name:

  genii -a -t 5 watch src/`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before a change triggers analysis",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	paths := getPaths(c)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Analysis.Recursive = true
	logger := loggerFrom(c)

	svc, err := newService(c, cfg)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg, "")
	if err != nil {
		return err
	}
	defer formatter.Close()

	watcher, err := watch.NewWatcher(paths, cfg, c.Duration("debounce"), logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := reportOptions(c, cfg)
	analyze := func() {
		if err := analyzeAndReport(ctx, svc, formatter, paths, opts); err != nil && !errors.Is(err, context.Canceled) {
			formatter.Error("%v", err)
		}
	}

	analyze()
	watcher.SetCallback(func(changed []string) {
		formatter.Info("%d module(s) changed, re-analyzing", len(changed))
		analyze()
	})

	formatter.Info("Watching %d path(s) for changes. Press Ctrl+C to stop.", len(paths))
	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	formatter.Info("Stopped watching")
	return nil
}

func analyzeAndReport(ctx context.Context, svc *analysis.Service, formatter *output.Formatter, paths []string, opts report.Options) error {
	result, err := svc.Run(ctx, paths)
	if errors.Is(err, analysis.ErrNoModules) {
		return formatter.Output(report.Build(stats.New(), nil, opts))
	}
	if err != nil {
		return err
	}
	return formatter.Output(report.Build(result.Stats, result.Failed, opts))
}
