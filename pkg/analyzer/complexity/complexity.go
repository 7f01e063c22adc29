package complexity

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/pygenii/genii/internal/cache"
	"github.com/pygenii/genii/internal/fileproc"
	"github.com/pygenii/genii/pkg/analyzer"
	"github.com/pygenii/genii/pkg/ast"
	"github.com/pygenii/genii/pkg/ast/treesitter"
	"github.com/pygenii/genii/pkg/parser"
)

// Ensure Analyzer implements analyzer.FileAnalyzer.
var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// ResultCache stores encoded module results keyed by path and validated
// against a content hash.
type ResultCache interface {
	GetWithHash(key, hash string) ([]byte, bool)
	SetWithHash(key, hash string, data []byte) error
}

// Analyzer computes McCabe complexity for Python modules.
type Analyzer struct {
	opts        options
	provider    *treesitter.Provider
	maxFileSize int64
	maxWorkers  int
	cache       ResultCache
}

// New creates a new complexity analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: treesitter.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Exceptions reports whether except handlers count as decisions.
func (a *Analyzer) Exceptions() bool { return a.opts.exceptions }

// ReturnPolicy returns the configured return-counting policy.
func (a *Analyzer) ReturnPolicy() ReturnPolicy { return a.opts.returnPolicy }

// AnalyzeModule walks one module tree. It never fails: node kinds the walker
// does not distinguish are traversed without touching any counter.
func (a *Analyzer) AnalyzeModule(mod *ast.Module) *ModuleResult {
	w := newWalker(mod.Name, a.opts)
	w.visit(mod)
	return w.result(mod.Path)
}

// AnalyzeSource parses and analyzes in-memory source.
func (a *Analyzer) AnalyzeSource(source []byte, path string) (*ModuleResult, error) {
	mod, err := a.provider.ParseSource(source, path)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeModule(mod), nil
}

// AnalyzeFile analyzes a single file.
func (a *Analyzer) AnalyzeFile(path string) (*ModuleResult, error) {
	return a.analyzeFile(a.provider, path)
}

// Analyze analyzes files using parallel processing. Files that cannot be
// read or parsed are skipped and listed in Analysis.Failed, sorted by path;
// the remaining modules keep the order of files.
// Progress is tracked via context using analyzer.WithTracker.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	results, errs := fileproc.MapFilesN(ctx, files, a.maxWorkers, func(psr *parser.Parser, path string) (*ModuleResult, error) {
		return a.analyzeFile(treesitter.NewWithParser(psr), path)
	})

	analysis := &Analysis{Modules: results}
	if errs != nil {
		for _, e := range errs.Errors {
			analysis.Failed = append(analysis.Failed, FileError{Path: e.Path, Error: e.Err.Error()})
		}
		// Workers report failures in completion order.
		slices.SortFunc(analysis.Failed, func(a, b FileError) int {
			return cmp.Compare(a.Path, b.Path)
		})
	}

	if err := ctx.Err(); err != nil {
		return analysis, err
	}
	return analysis, nil
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {
	a.provider.Close()
}

func (a *Analyzer) analyzeFile(p *treesitter.Provider, path string) (*ModuleResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if a.maxFileSize > 0 && int64(len(source)) > a.maxFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", a.maxFileSize)
	}

	if a.cache == nil {
		mod, err := p.ParseSource(source, path)
		if err != nil {
			return nil, err
		}
		return a.AnalyzeModule(mod), nil
	}

	key := a.cacheKey(path)
	hash := cache.HashBytes(source)
	if data, ok := a.cache.GetWithHash(key, hash); ok {
		var cached ModuleResult
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	mod, err := p.ParseSource(source, path)
	if err != nil {
		return nil, err
	}
	result := a.AnalyzeModule(mod)

	if data, err := json.Marshal(result); err == nil {
		_ = a.cache.SetWithHash(key, hash, data)
	}
	return result, nil
}

// resultVersion is bumped whenever the walker counts differently, so results
// cached by an older build are not reused.
const resultVersion = "2"

// cacheKey ties a cached result to the flags that produced it.
func (a *Analyzer) cacheKey(path string) string {
	return cache.Key("complexity/"+resultVersion, path,
		fmt.Sprintf("exceptions=%t", a.opts.exceptions),
		"returns="+a.opts.returnPolicy.String())
}
