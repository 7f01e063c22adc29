package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/pygenii/genii/internal/logging"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// Metadata keys shared between Before, actions and After.
const (
	metaLogger   = "logger"
	metaPprofCPU = "pprofCPU"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	// -v is the verbosity level, so --version has no short alias.
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}

	return &cli.App{
		Name:                   "genii",
		Usage:                  "Evaluate cyclomatic complexity of Python modules",
		UsageText:              "genii [options] FILE [FILE...]",
		Version:                version,
		Metadata:               make(map[string]interface{}),
		UseShortOptionHandling: true,
		Description: `genii computes McCabe cyclomatic complexity (decisions - exits + 2) for
every module, class, method and function of the Python files given on the
command line. Arguments may be files, directories (with -r) or glob patterns;
~ and $VAR are expanded.

By default only functions and methods above the threshold are reported.`,
		Flags: append(analysisFlags(), globalFlags()...),
		Before: func(c *cli.Context) error {
			verbosity := c.Int("verbosity")
			if verbosity < logging.VerbosityWarn || verbosity > logging.VerbosityDebug {
				return fmt.Errorf("--verbosity must be 0, 1 or 2 (got %d)", verbosity)
			}
			logger := logging.New(logging.Options{
				Verbosity: verbosity,
				Out:       c.App.ErrWriter,
				NoColor:   c.Bool("no-color") || color.NoColor,
				File:      c.String("log-file"),
			})
			c.App.Metadata[metaLogger] = logger
			logger.Info().Str("version", version).Msg("started")

			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				cpuFile, err := os.Create(pprofPrefix + ".cpu.pprof")
				if err != nil {
					return fmt.Errorf("failed to create CPU profile: %w", err)
				}
				if err := pprof.StartCPUProfile(cpuFile); err != nil {
					cpuFile.Close()
					return fmt.Errorf("failed to start CPU profile: %w", err)
				}
				c.App.Metadata[metaPprofCPU] = cpuFile
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if pprofPrefix := c.String("pprof"); pprofPrefix != "" {
				pprof.StopCPUProfile()
				if cpuFile, ok := c.App.Metadata[metaPprofCPU].(*os.File); ok {
					cpuFile.Close()
					color.Green("CPU profile written to %s.cpu.pprof", pprofPrefix)
				}

				memFile, err := os.Create(pprofPrefix + ".mem.pprof")
				if err != nil {
					return fmt.Errorf("failed to create memory profile: %w", err)
				}
				defer memFile.Close()

				runtime.GC() // Get up-to-date statistics
				if err := pprof.WriteHeapProfile(memFile); err != nil {
					return fmt.Errorf("failed to write memory profile: %w", err)
				}
				color.Green("Memory profile written to %s.mem.pprof", pprofPrefix)
			}
			return nil
		},
		Action: runAnalyzeCmd,
		Commands: []*cli.Command{
			configCmd(),
			watchCmd(),
			mcpCmd(),
			cacheCmd(),
		},
	}
}

// analysisFlags select what is measured and which tables are printed.
func analysisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "all",
			Aliases: []string{"a"},
			Usage:   "print all metrics (same as -c -s -m -d)",
		},
		&cli.BoolFlag{
			Name:    "complexity",
			Aliases: []string{"c"},
			Usage:   "print complexity details for each file/module",
		},
		&cli.BoolFlag{
			Name:    "summary",
			Aliases: []string{"s"},
			Usage:   "print cumulative summary for each file/module",
		},
		&cli.BoolFlag{
			Name:    "modulestats",
			Aliases: []string{"m"},
			Usage:   "print, for each module, a descriptive report of complexities",
		},
		&cli.BoolFlag{
			Name:    "distribution",
			Aliases: []string{"d"},
			Usage:   "print percentiles of function complexity",
		},
		&cli.IntFlag{
			Name:    "threshold",
			Aliases: []string{"t"},
			Value:   7,
			Usage:   "threshold of complexity to be ignored",
		},
		&cli.BoolFlag{
			Name:    "exceptions",
			Aliases: []string{"x"},
			Usage:   "use exception handling code when measuring complexity",
		},
		&cli.StringFlag{
			Name:  "return-policy",
			Value: "all",
			Usage: "which returns count as exits: all or nested",
		},
		&cli.BoolFlag{
			Name:    "recursive",
			Aliases: []string{"r"},
			Usage:   "process files recursively in a folder",
		},
		&cli.BoolFlag{
			Name:  "include-dunder",
			Usage: "analyze modules whose name starts with __",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "number of modules parsed in parallel (0 = 2x CPUs)",
		},
	}
}

// globalFlags control configuration, output and diagnostics.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to config file (TOML, YAML, or JSON)",
			EnvVars: []string{"GENII_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "outfile",
			Aliases: []string{"o"},
			Usage:   "output to `OUTFILE` (default=stdout)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   "text",
			Usage:   "Output format: text, json, markdown, toon",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
		&cli.BoolFlag{
			Name:  "cache",
			Usage: "Reuse results for unchanged modules",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Disable caching",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Hide the progress bar",
		},
		&cli.IntFlag{
			Name:    "verbosity",
			Aliases: []string{"v"},
			Usage:   "controls how much info is printed on screen (0, 1 or 2)",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Also write logs as JSON to `FILE` (rotated)",
		},
		&cli.StringFlag{
			Name:  "pprof",
			Usage: "Enable pprof profiling (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)",
		},
	}
}
