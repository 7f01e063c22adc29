package ast

// Node is implemented by every syntax node. The set of implementations is
// closed: only the types in this file satisfy it.
type Node interface {
	// Line returns the 1-based source line, or 0 when unknown.
	Line() int
	node()
}

// Module is the root of one translation unit.
type Module struct {
	Name string
	Path string
	Body []Node
}

// ClassDef is a class statement. Decorators and Bases belong to the class
// frame, not the enclosing one.
type ClassDef struct {
	Name       string
	Decorators []Node
	Bases      []Node
	Body       []Node
	LineNo     int
}

// FunctionDef is a function or method definition, sync or async. Args holds
// the parameter list (defaults and annotations) followed by the return
// annotation, if any; like Decorators it is evaluated inside the function
// frame.
type FunctionDef struct {
	Name       string
	Async      bool
	Decorators []Node
	Args       []Node
	Body       []Node
	LineNo     int
}

// If is a conditional. An elif chain is represented as a nested If that is
// the only statement of Else.
type If struct {
	Test   Node
	Body   []Node
	Else   []Node
	LineNo int
}

// For is a for loop, including its optional else block.
type For struct {
	Target Node
	Iter   Node
	Body   []Node
	Else   []Node
	LineNo int
}

// While is a while loop, including its optional else block.
type While struct {
	Test   Node
	Body   []Node
	Else   []Node
	LineNo int
}

// BoolOperator is the connective of a BoolOp.
type BoolOperator string

const (
	And BoolOperator = "and"
	Or  BoolOperator = "or"
)

// BoolOp is a boolean connective over two or more operands. A chain using the
// same operator (a and b and c) is a single BoolOp.
type BoolOp struct {
	Op     BoolOperator
	Values []Node
	LineNo int
}

// Return is a return statement. Value is nil for a bare return.
type Return struct {
	Value  Node
	LineNo int
}

// ExceptHandler is one except clause of a try statement.
type ExceptHandler struct {
	Type   Node
	Body   []Node
	LineNo int
}

// Other is any syntax the engine does not distinguish. Label carries the
// provider's name for it.
type Other struct {
	Label    string
	Children []Node
	LineNo   int
}

func (*Module) Line() int          { return 1 }
func (n *ClassDef) Line() int      { return n.LineNo }
func (n *FunctionDef) Line() int   { return n.LineNo }
func (n *If) Line() int            { return n.LineNo }
func (n *For) Line() int           { return n.LineNo }
func (n *While) Line() int         { return n.LineNo }
func (n *BoolOp) Line() int        { return n.LineNo }
func (n *Return) Line() int        { return n.LineNo }
func (n *ExceptHandler) Line() int { return n.LineNo }
func (n *Other) Line() int         { return n.LineNo }

func (*Module) node()        {}
func (*ClassDef) node()      {}
func (*FunctionDef) node()   {}
func (*If) node()            {}
func (*For) node()           {}
func (*While) node()         {}
func (*BoolOp) node()        {}
func (*Return) node()        {}
func (*ExceptHandler) node() {}
func (*Other) node()         {}

// Children returns the direct children of n in source order. Nil header
// expressions are omitted.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Module:
		return n.Body
	case *ClassDef:
		return concat(n.Decorators, n.Bases, n.Body)
	case *FunctionDef:
		return concat(n.Decorators, n.Args, n.Body)
	case *If:
		return concat(single(n.Test), n.Body, n.Else)
	case *For:
		return concat(single(n.Target), single(n.Iter), n.Body, n.Else)
	case *While:
		return concat(single(n.Test), n.Body, n.Else)
	case *BoolOp:
		return n.Values
	case *Return:
		return single(n.Value)
	case *ExceptHandler:
		return concat(single(n.Type), n.Body)
	case *Other:
		return n.Children
	default:
		return nil
	}
}

func single(n Node) []Node {
	if n == nil {
		return nil
	}
	return []Node{n}
}

func concat(parts ...[]Node) []Node {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	if total == 0 {
		return nil
	}
	out := make([]Node, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
