package analyzer

import (
	"context"
	"sync/atomic"
)

// Progress is a snapshot of a running analysis.
type Progress struct {
	// Done counts modules finished, successfully or not.
	Done   int
	Total  int
	Failed int
	// Path and Err describe the module that just finished.
	Path string
	Err  error
}

// ProgressFunc is called once per finished module.
type ProgressFunc func(Progress)

// Tracker counts finished modules. It is safe for concurrent use.
type Tracker struct {
	total    atomic.Int64
	done     atomic.Int64
	failed   atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a tracker that reports to callback, which may be nil.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Add grows the expected module count by n.
func (t *Tracker) Add(n int) {
	t.total.Add(int64(n))
}

// Finish records that path was processed; err is nil on success.
func (t *Tracker) Finish(path string, err error) {
	failed := t.failed.Load()
	if err != nil {
		failed = t.failed.Add(1)
	}
	done := t.done.Add(1)
	if t.callback != nil {
		t.callback(Progress{
			Done:   int(done),
			Total:  int(t.total.Load()),
			Failed: int(failed),
			Path:   path,
			Err:    err,
		})
	}
}

// Done returns the number of finished modules.
func (t *Tracker) Done() int {
	return int(t.done.Load())
}

// Failed returns the number of modules that could not be analyzed.
func (t *Tracker) Failed() int {
	return int(t.failed.Load())
}

// Total returns the expected module count.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries a progress tracker.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the progress tracker from the context.
// Returns nil if no tracker was set.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
