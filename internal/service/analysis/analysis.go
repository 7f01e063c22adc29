// Package analysis runs the complexity pipeline shared by the CLI, the
// watcher and the MCP server: discover modules, analyze them, aggregate.
package analysis

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/pygenii/genii/internal/cache"
	"github.com/pygenii/genii/internal/scanner"
	"github.com/pygenii/genii/pkg/analyzer/complexity"
	"github.com/pygenii/genii/pkg/config"
	"github.com/pygenii/genii/pkg/stats"
)

// ErrNoModules is returned by Run when the arguments name no Python module.
var ErrNoModules = errors.New("no python modules found")

// Service orchestrates complexity analysis runs.
type Service struct {
	config *config.Config
	cache  *cache.Cache
	logger zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithCache reuses module results from c.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// Result is one analysis run.
type Result struct {
	// Files are the modules that were analyzed, sorted.
	Files  []string
	Stats  *stats.Stats
	Failed []complexity.FileError
}

// Discover expands command-line arguments into module paths.
func (s *Service) Discover(args []string) ([]string, error) {
	return scanner.NewScanner(s.config).Expand(args)
}

// Run discovers and analyzes the modules named by args.
func (s *Service) Run(ctx context.Context, args []string) (*Result, error) {
	files, err := s.Discover(args)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoModules
	}
	return s.Analyze(ctx, files)
}

// Analyze computes complexity for files and aggregates the results. Modules
// that fail to parse are listed in Result.Failed and left out of the tables.
func (s *Service) Analyze(ctx context.Context, files []string) (*Result, error) {
	policy, err := complexity.ParseReturnPolicy(s.config.Analysis.ReturnPolicy)
	if err != nil {
		return nil, err
	}

	opts := []complexity.Option{
		complexity.WithExceptions(s.config.Analysis.Exceptions),
		complexity.WithReturnPolicy(policy),
		complexity.WithMaxWorkers(s.config.Analysis.Workers),
	}
	if s.cache != nil && s.cache.Enabled() {
		opts = append(opts, complexity.WithCache(s.cache))
	}

	cx := complexity.New(opts...)
	defer cx.Close()

	s.logger.Debug().
		Int("modules", len(files)).
		Bool("exceptions", s.config.Analysis.Exceptions).
		Str("returns", policy.String()).
		Msg("analyzing")

	analysis, err := cx.Analyze(ctx, files)
	if analysis == nil {
		return nil, err
	}

	st := stats.New()
	for _, m := range analysis.Modules {
		s.logger.Debug().Str("module", m.Name).Int("complexity", m.Complexity).Msg("analyzed")
		st.Add(m)
	}
	for _, f := range analysis.Failed {
		s.logger.Warn().Str("path", f.Path).Str("error", f.Error).Msg("skipping module")
	}

	return &Result{Files: files, Stats: st, Failed: analysis.Failed}, err
}
