// Package stats aggregates module complexity results into the tables the
// reports are built from.
package stats

import (
	"slices"
	"sync"

	"github.com/pygenii/genii/pkg/analyzer/complexity"
	"gonum.org/v1/gonum/stat"
)

// Bucket is a (count, complexity sum) pair of the summary.
type Bucket struct {
	Count int `json:"count" toon:"count"`
	Sum   int `json:"sum" toon:"sum"`
}

// SummaryRow is one summary bucket together with its kind.
type SummaryRow struct {
	Kind complexity.EntityKind `json:"kind" toon:"kind"`
	Bucket
}

// ModuleRow summarises the functions of one module. Empty marks a module
// that defines no functions; its numeric fields are meaningless then.
type ModuleRow struct {
	Name  string `json:"name" toon:"name"`
	Empty bool   `json:"empty,omitempty" toon:"empty"`
	Count int    `json:"count" toon:"count"`
	Sum   int    `json:"sum" toon:"sum"`
	Min   int    `json:"min" toon:"min"`
	Max   int    `json:"max" toon:"max"`
	Avg   int    `json:"avg" toon:"avg"`
}

// Stats accumulates results over one analysis run. It is safe for
// concurrent use; each Add is applied atomically.
type Stats struct {
	mu      sync.Mutex
	records []complexity.Record
	summary map[complexity.EntityKind]Bucket
	modules []ModuleRow
	values  []float64
}

// New creates an empty aggregator with all four summary buckets present.
func New() *Stats {
	s := &Stats{summary: make(map[complexity.EntityKind]Bucket, len(complexity.EntityKinds))}
	for _, k := range complexity.EntityKinds {
		s.summary[k] = Bucket{}
	}
	return s
}

// Add folds one module result into every table.
func (s *Stats) Add(m *complexity.ModuleResult) {
	if m == nil {
		return
	}
	records := m.Records()
	row := moduleRow(m)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, records...)
	for _, r := range records {
		b := s.summary[r.Kind]
		b.Count++
		b.Sum += r.Complexity
		s.summary[r.Kind] = b

		if r.Kind == complexity.KindFunction || r.Kind == complexity.KindMethod {
			s.values = append(s.values, float64(r.Complexity))
		}
	}
	s.modules = append(s.modules, row)
}

func moduleRow(m *complexity.ModuleResult) ModuleRow {
	fns := m.AllFunctions()
	if len(fns) == 0 {
		return ModuleRow{Name: m.Name, Empty: true}
	}

	row := ModuleRow{Name: m.Name, Min: fns[0].Complexity, Max: fns[0].Complexity}
	for _, fn := range fns {
		row.Count++
		row.Sum += fn.Complexity
		row.Min = min(row.Min, fn.Complexity)
		row.Max = max(row.Max, fn.Complexity)
	}
	row.Avg = FloorDiv(row.Sum, row.Count)
	return row
}

// ComplexityTable returns the records in the order they were added.
func (s *Stats) ComplexityTable() []complexity.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Summary returns a copy of the summary keyed by entity kind.
func (s *Stats) Summary() map[complexity.EntityKind]Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[complexity.EntityKind]Bucket, len(s.summary))
	for k, v := range s.summary {
		out[k] = v
	}
	return out
}

// SummaryRows returns the summary in X, C, M, F order.
func (s *Stats) SummaryRows() []SummaryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SummaryRow, 0, len(complexity.EntityKinds))
	for _, k := range complexity.EntityKinds {
		out = append(out, SummaryRow{Kind: k, Bucket: s.summary[k]})
	}
	return out
}

// ModuleTable returns one row per module in the order they were added.
func (s *Stats) ModuleTable() []ModuleRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.modules)
}

// Len returns the number of complexity records.
func (s *Stats) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Critical returns the functions and methods whose complexity exceeds
// threshold, in table order.
func (s *Stats) Critical(threshold int) []complexity.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []complexity.Record
	for _, r := range s.records {
		if IsCritical(r, threshold) {
			out = append(out, r)
		}
	}
	return out
}

// IsCritical reports whether r is a function or method above threshold.
func IsCritical(r complexity.Record, threshold int) bool {
	if r.Kind != complexity.KindFunction && r.Kind != complexity.KindMethod {
		return false
	}
	return r.Complexity > threshold
}

// Distribution describes the spread of function and method complexity.
type Distribution struct {
	Count  int     `json:"count" toon:"count"`
	Mean   float64 `json:"mean" toon:"mean"`
	StdDev float64 `json:"std_dev" toon:"std_dev"`
	Median float64 `json:"median" toon:"median"`
	P90    float64 `json:"p90" toon:"p90"`
	Max    float64 `json:"max" toon:"max"`
}

// Distribution computes descriptive statistics over every function and
// method added so far. The zero value is returned when there are none.
func (s *Stats) Distribution() Distribution {
	s.mu.Lock()
	values := slices.Clone(s.values)
	s.mu.Unlock()

	if len(values) == 0 {
		return Distribution{}
	}
	slices.Sort(values)

	d := Distribution{
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		P90:    Percentile(values, 90),
		Max:    values[len(values)-1],
	}
	if len(values) > 1 {
		d.StdDev = stat.StdDev(values, nil)
	}
	return d
}

// Percentile calculates the p-th percentile of a sorted slice.
// The slice must already be sorted in ascending order.
// Returns 0 if the slice is empty.
func Percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
