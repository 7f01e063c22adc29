package stats

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pygenii/genii/pkg/analyzer/complexity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, name, src string) *complexity.ModuleResult {
	t.Helper()
	a := complexity.New()
	defer a.Close()

	result, err := a.AnalyzeSource([]byte(src), name+".py")
	require.NoError(t, err)
	return result
}

func fn(name string, kind complexity.EntityKind, c int) complexity.FunctionResult {
	return complexity.FunctionResult{Name: name, QualifiedName: name, Kind: kind, Complexity: c}
}

func TestNew_AllBucketsPresent(t *testing.T) {
	s := New()
	summary := s.Summary()
	require.Len(t, summary, 4)
	for _, k := range complexity.EntityKinds {
		assert.Equal(t, Bucket{}, summary[k], "bucket %s", k)
	}
	assert.Empty(t, s.ComplexityTable())
	assert.Empty(t, s.ModuleTable())
	assert.Equal(t, 0, s.Len())
}

func TestAdd_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		summary map[complexity.EntityKind]Bucket
		row     ModuleRow
	}{
		{
			name: "simple",
			src:  "def f(a):\n    print(a + 10)\n",
			summary: map[complexity.EntityKind]Bucket{
				complexity.KindModule:   {1, 1},
				complexity.KindClass:    {0, 0},
				complexity.KindMethod:   {0, 0},
				complexity.KindFunction: {1, 1},
			},
			row: ModuleRow{Name: "test", Count: 1, Sum: 1, Min: 1, Max: 1, Avg: 1},
		},
		{
			name: "class",
			src: `
class C:
    def __init__(self):
        self.a = 0
    def inc(self, n):
        self.a = self.a + n
    def get(self):
        return self.a
`,
			summary: map[complexity.EntityKind]Bucket{
				complexity.KindModule:   {1, 3},
				complexity.KindClass:    {1, 3},
				complexity.KindMethod:   {3, 3},
				complexity.KindFunction: {0, 0},
			},
			row: ModuleRow{Name: "test", Count: 3, Sum: 3, Min: 1, Max: 1, Avg: 1},
		},
		{
			name: "function and class with two methods",
			src: `
def f():
    pass

class C:
    def a(self):
        pass
    def b(self):
        pass
`,
			summary: map[complexity.EntityKind]Bucket{
				complexity.KindModule:   {1, 3},
				complexity.KindClass:    {1, 2},
				complexity.KindMethod:   {2, 2},
				complexity.KindFunction: {1, 1},
			},
			row: ModuleRow{Name: "test", Count: 3, Sum: 3, Min: 1, Max: 1, Avg: 1},
		},
		{
			name: "nested class",
			src: `
class A:
    class B:
        def f(self):
            pass
    def g(self):
        pass
`,
			summary: map[complexity.EntityKind]Bucket{
				complexity.KindModule:   {1, 2},
				complexity.KindClass:    {2, 2},
				complexity.KindMethod:   {2, 2},
				complexity.KindFunction: {0, 0},
			},
			row: ModuleRow{Name: "test", Count: 2, Sum: 2, Min: 1, Max: 1, Avg: 1},
		},
		{
			name: "nested function",
			src: `
def f(x):
    def g(y):
        return y * 2
    if x == 0:
        return 0
    else:
        return g(x)
`,
			summary: map[complexity.EntityKind]Bucket{
				complexity.KindModule:   {1, 2},
				complexity.KindClass:    {0, 0},
				complexity.KindMethod:   {0, 0},
				complexity.KindFunction: {2, 2},
			},
			row: ModuleRow{Name: "test", Count: 2, Sum: 2, Min: 1, Max: 1, Avg: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Add(analyze(t, "test", tt.src))

			assert.Equal(t, tt.summary, s.Summary())
			assert.Equal(t, []ModuleRow{tt.row}, s.ModuleTable())
		})
	}
}

func TestAdd_EmptyModuleRow(t *testing.T) {
	s := New()
	s.Add(analyze(t, "consts", "X = 1\nclass Marker:\n    pass\n"))

	rows := s.ModuleTable()
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Empty)
	assert.Equal(t, "consts", rows[0].Name)
	assert.NotEqual(t, ModuleRow{Name: "consts"}, rows[0], "empty row differs from a zero row")

	summary := s.Summary()
	assert.Equal(t, Bucket{1, 0}, summary[complexity.KindModule])
	assert.Equal(t, Bucket{1, 0}, summary[complexity.KindClass])
}

func TestAdd_MinMaxFloorAverage(t *testing.T) {
	m := &complexity.ModuleResult{
		Name:       "mixed",
		Complexity: 2,
		Functions: []complexity.FunctionResult{
			fn("mixed.a", complexity.KindFunction, 4),
			fn("mixed.b", complexity.KindFunction, -1),
		},
		Classes: []complexity.ClassResult{{
			Name:          "K",
			QualifiedName: "mixed.K",
			Complexity:    -1,
			Methods:       []complexity.FunctionResult{fn("mixed.K.m", complexity.KindMethod, -1)},
		}},
	}

	s := New()
	s.Add(m)

	assert.Equal(t, []ModuleRow{{Name: "mixed", Count: 3, Sum: 2, Min: -1, Max: 4, Avg: 0}}, s.ModuleTable())
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, want int
	}{
		{7, 2, 3},
		{6, 3, 2},
		{-1, 2, -1},
		{-4, 3, -2},
		{-6, 3, -2},
		{0, 5, 0},
		{5, -2, -3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.a, tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, FloorDiv(tt.a, tt.b))
		})
	}
}

func TestComplexityTable_Order(t *testing.T) {
	s := New()
	s.Add(analyze(t, "first", "def a():\n    pass\n"))
	s.Add(analyze(t, "second", "class S:\n    def m(self):\n        pass\n"))

	assert.Equal(t, []complexity.Record{
		{Kind: complexity.KindModule, Name: "first", Complexity: 1},
		{Kind: complexity.KindFunction, Name: "first.a", Complexity: 1},
		{Kind: complexity.KindModule, Name: "second", Complexity: 1},
		{Kind: complexity.KindClass, Name: "second.S", Complexity: 1},
		{Kind: complexity.KindMethod, Name: "second.S.m", Complexity: 1},
	}, s.ComplexityTable())

	assert.Equal(t, []SummaryRow{
		{Kind: complexity.KindModule, Bucket: Bucket{2, 2}},
		{Kind: complexity.KindClass, Bucket: Bucket{1, 1}},
		{Kind: complexity.KindMethod, Bucket: Bucket{1, 1}},
		{Kind: complexity.KindFunction, Bucket: Bucket{1, 1}},
	}, s.SummaryRows())
}

func TestCritical(t *testing.T) {
	m := &complexity.ModuleResult{
		Name:       "m",
		Complexity: 20,
		Functions: []complexity.FunctionResult{
			fn("m.low", complexity.KindFunction, 7),
			fn("m.high", complexity.KindFunction, 8),
		},
		Classes: []complexity.ClassResult{{
			QualifiedName: "m.K",
			Complexity:    12,
			Methods:       []complexity.FunctionResult{fn("m.K.big", complexity.KindMethod, 12)},
		}},
	}

	s := New()
	s.Add(m)

	critical := s.Critical(7)
	require.Len(t, critical, 2, "module and class rows are never critical")
	assert.Equal(t, "m.high", critical[0].Name)
	assert.Equal(t, "m.K.big", critical[1].Name)

	assert.Empty(t, s.Critical(12))
}

func TestAdd_Concurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(&complexity.ModuleResult{
				Name:       fmt.Sprintf("m%d", i),
				Complexity: 2,
				Functions: []complexity.FunctionResult{
					fn("f", complexity.KindFunction, 1),
					fn("g", complexity.KindFunction, 1),
				},
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 150, s.Len())
	assert.Len(t, s.ModuleTable(), 50)
	summary := s.Summary()
	assert.Equal(t, Bucket{50, 100}, summary[complexity.KindModule])
	assert.Equal(t, Bucket{100, 100}, summary[complexity.KindFunction])
}

func TestAdd_Nil(t *testing.T) {
	s := New()
	s.Add(nil)
	assert.Equal(t, 0, s.Len())
}

func TestDistribution(t *testing.T) {
	s := New()
	assert.Equal(t, Distribution{}, s.Distribution())

	s.Add(&complexity.ModuleResult{
		Name:       "d",
		Complexity: 10,
		Functions: []complexity.FunctionResult{
			fn("a", complexity.KindFunction, 1),
			fn("b", complexity.KindFunction, 2),
			fn("c", complexity.KindFunction, 3),
			fn("d", complexity.KindFunction, 4),
		},
	})

	d := s.Distribution()
	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 2.5, d.Mean, 1e-9)
	assert.InDelta(t, 1.2909944, d.StdDev, 1e-6)
	assert.Equal(t, 2.0, d.Median)
	assert.Equal(t, 4.0, d.P90)
	assert.Equal(t, 4.0, d.Max)
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      int
		want   float64
	}{
		{"empty", nil, 50, 0},
		{"single", []float64{5}, 90, 5},
		{"median", []float64{1, 2, 3, 4}, 50, 3},
		{"p100 clamps", []float64{1, 2, 3}, 100, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentile(tt.sorted, tt.p))
		})
	}
}
