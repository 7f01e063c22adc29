package complexity

// EntityKind tags a complexity record with what it measures.
type EntityKind string

const (
	KindModule   EntityKind = "X"
	KindClass    EntityKind = "C"
	KindMethod   EntityKind = "M"
	KindFunction EntityKind = "F"
)

// EntityKinds lists every kind in summary order.
var EntityKinds = []EntityKind{KindModule, KindClass, KindMethod, KindFunction}

// Record is one row of the complexity table.
type Record struct {
	Kind       EntityKind `json:"kind" toon:"kind"`
	Name       string     `json:"name" toon:"name"`
	Complexity int        `json:"complexity" toon:"complexity"`
}

// FunctionResult holds the counters of one closed function scope.
type FunctionResult struct {
	Name           string     `json:"name"`
	QualifiedName  string     `json:"qualified_name"`
	Class          string     `json:"class,omitempty"`
	Kind           EntityKind `json:"kind"`
	Line           int        `json:"line"`
	DecisionPoints int        `json:"decision_points"`
	ExitPoints     int        `json:"exit_points"`
	Complexity     int        `json:"complexity"`
}

// ClassResult is a class and the methods attributed to it, in close order.
type ClassResult struct {
	Name          string           `json:"name"`
	QualifiedName string           `json:"qualified_name"`
	Line          int              `json:"line"`
	Complexity    int              `json:"complexity"`
	Methods       []FunctionResult `json:"methods"`
}

// ModuleResult is the analysis of one module.
type ModuleResult struct {
	Name       string           `json:"name"`
	Path       string           `json:"path"`
	Complexity int              `json:"complexity"`
	Functions  []FunctionResult `json:"functions"`
	Classes    []ClassResult    `json:"classes"`
}

// Records returns the module's complexity table rows: the module itself, its
// classless functions in close order, then each class in entry order followed
// by its methods.
func (m *ModuleResult) Records() []Record {
	out := make([]Record, 0, 1+len(m.Functions)+2*len(m.Classes))
	out = append(out, Record{Kind: KindModule, Name: m.Name, Complexity: m.Complexity})
	for _, fn := range m.Functions {
		out = append(out, fn.record())
	}
	for _, cls := range m.Classes {
		out = append(out, Record{Kind: KindClass, Name: cls.QualifiedName, Complexity: cls.Complexity})
		for _, fn := range cls.Methods {
			out = append(out, fn.record())
		}
	}
	return out
}

// AllFunctions returns every function and method of the module in record order.
func (m *ModuleResult) AllFunctions() []FunctionResult {
	out := make([]FunctionResult, 0, len(m.Functions))
	out = append(out, m.Functions...)
	for _, cls := range m.Classes {
		out = append(out, cls.Methods...)
	}
	return out
}

func (f FunctionResult) record() Record {
	return Record{Kind: f.Kind, Name: f.QualifiedName, Complexity: f.Complexity}
}

// Analysis is the result of analyzing a set of files.
type Analysis struct {
	// Modules are in the order of the input file list.
	Modules []*ModuleResult `json:"modules"`
	// Failed lists files that could not be read or parsed.
	Failed []FileError `json:"failed,omitempty"`
}

// FileError records a file skipped during analysis.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}
