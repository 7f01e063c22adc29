package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/pygenii/genii/internal/cache"
	"github.com/pygenii/genii/internal/logging"
	"github.com/pygenii/genii/internal/output"
	"github.com/pygenii/genii/internal/report"
	"github.com/pygenii/genii/internal/service/analysis"
	"github.com/pygenii/genii/pkg/config"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func loggerFrom(c *cli.Context) zerolog.Logger {
	if l, ok := c.App.Metadata[metaLogger].(zerolog.Logger); ok {
		return l
	}
	return logging.Nop()
}

// loadConfig reads the config file (explicit or discovered) and applies the
// command-line overrides on top of it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}

	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	if result.Source != "" {
		l := loggerFrom(c)
		l.Debug().Str("config", result.Source).Msg("loaded configuration")
	}

	cfg := result.Config
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags into cfg. Boolean switches only
// ever turn a feature on, so a config file can enable them too.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("threshold") {
		cfg.Thresholds.Complexity = c.Int("threshold")
	}
	if c.Bool("exceptions") {
		cfg.Analysis.Exceptions = true
	}
	if c.IsSet("return-policy") {
		cfg.Analysis.ReturnPolicy = c.String("return-policy")
	}
	if c.Bool("recursive") {
		cfg.Analysis.Recursive = true
	}
	if c.Bool("include-dunder") {
		cfg.Analysis.SkipDunder = false
	}
	if c.IsSet("workers") {
		cfg.Analysis.Workers = c.Int("workers")
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}
	if c.Bool("cache") {
		cfg.Cache.Enabled = true
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
}

// reportOptions selects the tables from -a, -c, -s, -m and -d.
func reportOptions(c *cli.Context, cfg *config.Config) report.Options {
	opts := report.Options{
		Threshold:    cfg.Thresholds.Complexity,
		Complexity:   c.Bool("complexity"),
		Summary:      c.Bool("summary"),
		Modules:      c.Bool("modulestats"),
		Distribution: c.Bool("distribution"),
	}
	if c.Bool("all") {
		opts = opts.All()
	}
	return opts
}

// newService builds the analysis service for cfg, opening the cache when
// it is enabled.
func newService(c *cli.Context, cfg *config.Config) (*analysis.Service, error) {
	logger := loggerFrom(c)
	opts := []analysis.Option{analysis.WithConfig(cfg), analysis.WithLogger(logger)}

	if cfg.Cache.Enabled {
		rc, err := cache.FromConfig(cfg.Cache)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("dir", rc.Dir()).Msg("cache enabled")
		opts = append(opts, analysis.WithCache(rc))
	}
	return analysis.New(opts...), nil
}

// newFormatter writes to outfile, or to the app's writer when it is empty.
func newFormatter(c *cli.Context, cfg *config.Config, outfile string) (*output.Formatter, error) {
	format := output.ParseFormat(cfg.Output.Format)
	if outfile == "" {
		return output.NewWriterFormatter(format, c.App.Writer, cfg.Output.Color), nil
	}
	return output.NewFormatter(format, outfile, cfg.Output.Color)
}

// showProgress reports whether a progress bar should be drawn on stderr.
func showProgress(c *cli.Context) bool {
	if c.Bool("no-progress") {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
