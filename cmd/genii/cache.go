package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pygenii/genii/internal/cache"
	"github.com/pygenii/genii/internal/output"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the result cache",
		Description: `The cache stores one result per module, keyed by content hash and by the
analysis flags. It is used when --cache is given or cache.enabled is set.`,
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache location, size and entry ages",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cache entry",
				Action: runCacheClear,
			},
			{
				Name:   "prune",
				Usage:  "Remove expired and unreadable entries",
				Action: runCachePrune,
			},
		},
	}
}

// openCache opens the configured cache directory whether or not caching is
// enabled for analysis runs.
func openCache(c *cli.Context) (*cache.Cache, *output.Formatter, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	cacheCfg := cfg.Cache
	cacheCfg.Enabled = true

	rc, err := cache.FromConfig(cacheCfg)
	if err != nil {
		return nil, nil, err
	}
	formatter, err := newFormatter(c, cfg, "")
	if err != nil {
		return nil, nil, err
	}
	return rc, formatter, nil
}

func runCacheStats(c *cli.Context) error {
	rc, formatter, err := openCache(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	st, err := rc.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	rows := [][]string{
		{"Directory", st.Dir},
		{"Entries", strconv.Itoa(st.Entries)},
		{"Size (bytes)", strconv.FormatInt(st.TotalSize, 10)},
		{"Oldest entry", st.OldestAge.Round(time.Second).String()},
		{"Newest entry", st.NewestAge.Round(time.Second).String()},
	}
	return formatter.Output(output.NewTable("Cache statistics", []string{"Property", "Value"}, rows, st))
}

func runCacheClear(c *cli.Context) error {
	rc, formatter, err := openCache(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := rc.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return formatter.Output(output.NewMessage(output.LevelSuccess, "Cleared cache at "+rc.Dir()))
}

func runCachePrune(c *cli.Context) error {
	rc, formatter, err := openCache(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	n, err := rc.Prune()
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	return formatter.Output(output.NewMessage(output.LevelSuccess, fmt.Sprintf("Removed %d cache entries", n)))
}
