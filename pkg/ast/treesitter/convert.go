package treesitter

import (
	"github.com/pygenii/genii/pkg/ast"
	"github.com/pygenii/genii/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// converter maps tree-sitter-python nodes onto the closed ast node set.
// Comments are dropped; every other named node is kept so statement order
// matches the source.
type converter struct {
	source []byte
}

// statements converts the named children of a block-like node.
func (c *converter) statements(n *sitter.Node) []ast.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]ast.Node, 0, count)
	for i := range count {
		if child := c.convert(n.NamedChild(i)); child != nil {
			out = append(out, child)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (c *converter) convert(n *sitter.Node) ast.Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "comment":
		return nil
	case "class_definition":
		return &ast.ClassDef{
			Name:   parser.GetNodeText(n.ChildByFieldName("name"), c.source),
			Bases:  c.statements(n.ChildByFieldName("superclasses")),
			Body:   c.statements(body(n)),
			LineNo: parser.Line(n),
		}
	case "function_definition":
		return &ast.FunctionDef{
			Name:   parser.GetNodeText(n.ChildByFieldName("name"), c.source),
			Async:  hasChild(n, "async"),
			Args:   c.arguments(n),
			Body:   c.statements(body(n)),
			LineNo: parser.Line(n),
		}
	case "decorated_definition":
		return c.decorated(n)
	case "if_statement":
		return c.ifStatement(n)
	case "for_statement":
		return &ast.For{
			Target: c.convert(n.ChildByFieldName("left")),
			Iter:   c.convert(n.ChildByFieldName("right")),
			Body:   c.statements(body(n)),
			Else:   c.elseBody(n),
			LineNo: parser.Line(n),
		}
	case "while_statement":
		return &ast.While{
			Test:   c.convert(n.ChildByFieldName("condition")),
			Body:   c.statements(body(n)),
			Else:   c.elseBody(n),
			LineNo: parser.Line(n),
		}
	case "boolean_operator":
		return c.boolOp(n)
	case "return_statement":
		ret := &ast.Return{LineNo: parser.Line(n)}
		if n.NamedChildCount() > 0 {
			ret.Value = c.convert(n.NamedChild(0))
		}
		return ret
	case "except_clause", "except_group_clause":
		return c.exceptHandler(n)
	default:
		return &ast.Other{
			Label:    n.Type(),
			Children: c.statements(n),
			LineNo:   parser.Line(n),
		}
	}
}

// arguments returns the parameter list followed by the return annotation.
func (c *converter) arguments(n *sitter.Node) []ast.Node {
	args := c.statements(n.ChildByFieldName("parameters"))
	if ret := c.convert(n.ChildByFieldName("return_type")); ret != nil {
		args = append(args, ret)
	}
	return args
}

// decorated attaches decorators to the definition they wrap so they are
// walked inside its frame.
func (c *converter) decorated(n *sitter.Node) ast.Node {
	var decorators []ast.Node
	var def *sitter.Node
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		switch child.Type() {
		case "decorator":
			if d := c.convert(child); d != nil {
				decorators = append(decorators, d)
			}
		case "function_definition", "class_definition":
			def = child
		}
	}
	if def == nil {
		def = n.ChildByFieldName("definition")
	}

	switch node := c.convert(def).(type) {
	case *ast.FunctionDef:
		node.Decorators = decorators
		return node
	case *ast.ClassDef:
		node.Decorators = decorators
		return node
	default:
		return &ast.Other{Label: n.Type(), Children: decorators, LineNo: parser.Line(n)}
	}
}

// ifStatement folds elif clauses into nested If nodes.
func (c *converter) ifStatement(n *sitter.Node) ast.Node {
	var clauses []*sitter.Node
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		switch child.Type() {
		case "elif_clause", "else_clause":
			clauses = append(clauses, child)
		}
	}

	return &ast.If{
		Test:   c.convert(n.ChildByFieldName("condition")),
		Body:   c.statements(n.ChildByFieldName("consequence")),
		Else:   c.alternatives(clauses),
		LineNo: parser.Line(n),
	}
}

func (c *converter) alternatives(clauses []*sitter.Node) []ast.Node {
	if len(clauses) == 0 {
		return nil
	}

	first := clauses[0]
	if first.Type() == "elif_clause" {
		return []ast.Node{&ast.If{
			Test:   c.convert(first.ChildByFieldName("condition")),
			Body:   c.statements(first.ChildByFieldName("consequence")),
			Else:   c.alternatives(clauses[1:]),
			LineNo: parser.Line(first),
		}}
	}
	return c.statements(body(first))
}

// elseBody returns the else block of a loop.
func (c *converter) elseBody(n *sitter.Node) []ast.Node {
	alt := n.ChildByFieldName("alternative")
	if alt == nil {
		return nil
	}
	return c.statements(body(alt))
}

// boolOp flattens left-nested chains of the same connective into one node,
// so `a and b and c` is a single decision while `a and b or c` is two.
func (c *converter) boolOp(n *sitter.Node) ast.Node {
	op := ast.BoolOperator(operator(n))
	node := &ast.BoolOp{Op: op, LineNo: parser.Line(n)}
	c.operands(n, op, &node.Values)
	return node
}

func (c *converter) operands(n *sitter.Node, op ast.BoolOperator, out *[]ast.Node) {
	for _, field := range []string{"left", "right"} {
		child := n.ChildByFieldName(field)
		if child == nil {
			continue
		}
		if child.Type() == "boolean_operator" && ast.BoolOperator(operator(child)) == op {
			c.operands(child, op, out)
			continue
		}
		if v := c.convert(child); v != nil {
			*out = append(*out, v)
		}
	}
}

func (c *converter) exceptHandler(n *sitter.Node) ast.Node {
	h := &ast.ExceptHandler{LineNo: parser.Line(n)}
	var types []ast.Node
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		switch child.Type() {
		case "block":
			h.Body = c.statements(child)
		case "comment":
		default:
			if v := c.convert(child); v != nil {
				types = append(types, v)
			}
		}
	}

	switch len(types) {
	case 0:
	case 1:
		h.Type = types[0]
	default:
		h.Type = &ast.Other{Label: "except_types", Children: types, LineNo: h.LineNo}
	}
	return h
}

// body returns the suite of a compound statement. Older grammar versions
// expose it only as an unnamed block child.
func body(n *sitter.Node) *sitter.Node {
	if b := n.ChildByFieldName("body"); b != nil {
		return b
	}
	for i := range int(n.NamedChildCount()) {
		if child := n.NamedChild(i); child.Type() == "block" {
			return child
		}
	}
	return nil
}

func operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	for i := range int(n.ChildCount()) {
		switch t := n.Child(i).Type(); t {
		case "and", "or":
			return t
		}
	}
	return ""
}

func hasChild(n *sitter.Node, nodeType string) bool {
	for i := range int(n.ChildCount()) {
		if n.Child(i).Type() == nodeType {
			return true
		}
	}
	return false
}
