// Package analyzer holds the contracts shared by module analyzers and the
// progress tracking used while they run.
package analyzer

import "context"

// FileAnalyzer analyzes a batch of source files as one run.
type FileAnalyzer[T any] interface {
	// Analyze processes files and returns the combined result. Cancelling
	// ctx stops scheduling new files.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases parsers and other per-run resources.
	Close()
}
