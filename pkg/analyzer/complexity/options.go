package complexity

import (
	"fmt"
	"strings"
)

// ReturnPolicy selects which return statements count as exit points.
type ReturnPolicy int

const (
	// ReturnsAll counts every return and adds the implicit trailing exit only
	// when the function body does not end in a frontier.
	ReturnsAll ReturnPolicy = iota
	// ReturnsNested counts only returns nested inside a decision construct and
	// always adds the implicit trailing exit.
	ReturnsNested
)

func (p ReturnPolicy) String() string {
	switch p {
	case ReturnsAll:
		return "all"
	case ReturnsNested:
		return "nested"
	default:
		return fmt.Sprintf("ReturnPolicy(%d)", int(p))
	}
}

// ParseReturnPolicy maps a policy name ("all" or "nested") to its value.
func ParseReturnPolicy(name string) (ReturnPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return ReturnsAll, nil
	case "nested":
		return ReturnsNested, nil
	default:
		return ReturnsAll, fmt.Errorf("unknown return policy %q (want all or nested)", name)
	}
}

// options are the engine flags shared by the walker and the Analyzer.
type options struct {
	exceptions   bool
	returnPolicy ReturnPolicy
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithExceptions makes every except handler count as a decision point.
func WithExceptions(enabled bool) Option {
	return func(a *Analyzer) {
		a.opts.exceptions = enabled
	}
}

// WithReturnPolicy sets the return-counting policy.
func WithReturnPolicy(p ReturnPolicy) Option {
	return func(a *Analyzer) {
		a.opts.returnPolicy = p
	}
}

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxFileSize = maxSize
	}
}

// WithMaxWorkers bounds the number of files parsed concurrently
// (0 = 2x NumCPU).
func WithMaxWorkers(n int) Option {
	return func(a *Analyzer) {
		a.maxWorkers = n
	}
}

// WithCache reuses module results across runs, keyed by file content.
func WithCache(c ResultCache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}
