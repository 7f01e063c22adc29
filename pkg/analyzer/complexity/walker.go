package complexity

import "github.com/pygenii/genii/pkg/ast"

// walker performs one depth-first pass over a module tree. It is not
// reusable; create one per module.
type walker struct {
	opts   options
	module string
	stack  scopeStack

	total     int
	functions []FunctionResult
	classes   []ClassResult
}

func newWalker(module string, opts options) *walker {
	return &walker{opts: opts, module: module}
}

func (w *walker) result(path string) *ModuleResult {
	return &ModuleResult{
		Name:       w.module,
		Path:       path,
		Complexity: w.total,
		Functions:  w.functions,
		Classes:    w.classes,
	}
}

func (w *walker) visitAll(nodes []ast.Node) {
	for _, n := range nodes {
		w.visit(n)
	}
}

func (w *walker) visit(n ast.Node) {
	switch n := n.(type) {
	case *ast.Module:
		w.stack.push(&scope{kind: scopeModule, class: -1, line: n.Line()})
		w.visitAll(n.Body)
		w.stack.pop()
	case *ast.ClassDef:
		w.classDef(n)
	case *ast.FunctionDef:
		w.functionDef(n)
	case *ast.If, *ast.For, *ast.While, *ast.BoolOp:
		w.decision(n)
	case *ast.Return:
		w.returnStmt(n)
	case *ast.ExceptHandler:
		if w.opts.exceptions {
			w.active().decisions++
		}
		w.visitAll(ast.Children(n))
	default:
		w.visitAll(ast.Children(n))
	}
}

// active returns the top scope. Trees handed to the walker without a Module
// root get an implicit module frame.
func (w *walker) active() *scope {
	if w.stack.len() == 0 {
		w.stack.push(&scope{kind: scopeModule, class: -1})
	}
	return w.stack.top()
}

func (w *walker) classDef(n *ast.ClassDef) {
	idx := len(w.classes)
	w.classes = append(w.classes, ClassResult{
		Name:          n.Name,
		QualifiedName: w.module + "." + n.Name,
		Line:          n.LineNo,
	})

	w.stack.push(&scope{kind: scopeClass, name: n.Name, line: n.LineNo, class: idx})
	w.visitAll(ast.Children(n))
	w.stack.pop()
}

func (w *walker) functionDef(n *ast.FunctionDef) {
	owner := w.stack.owner()
	sc := &scope{kind: scopeFunction, name: n.Name, line: n.LineNo, class: owner}
	w.stack.push(sc)
	w.visitAll(n.Decorators)
	w.visitAll(n.Args)
	w.visitAll(n.Body)

	switch w.opts.returnPolicy {
	case ReturnsNested:
		sc.exits++
	default:
		if fallsThrough(n.Body) {
			sc.exits++
		}
	}
	w.stack.pop()

	fn := FunctionResult{
		Name:           n.Name,
		Kind:           KindFunction,
		Line:           n.LineNo,
		DecisionPoints: sc.decisions,
		ExitPoints:     sc.exits,
		Complexity:     sc.decisions - sc.exits + 2,
	}

	w.total += fn.Complexity
	if owner < 0 {
		fn.QualifiedName = w.module + "." + n.Name
		w.functions = append(w.functions, fn)
		return
	}

	cls := &w.classes[owner]
	fn.Kind = KindMethod
	fn.Class = cls.Name
	fn.QualifiedName = cls.QualifiedName + "." + n.Name
	cls.Methods = append(cls.Methods, fn)
	cls.Complexity += fn.Complexity
}

func (w *walker) decision(n ast.Node) {
	sc := w.active()
	sc.decisions++
	sc.depth++
	w.visitAll(ast.Children(n))
	sc.depth--
}

func (w *walker) returnStmt(n *ast.Return) {
	sc := w.active()
	if w.opts.returnPolicy == ReturnsAll || sc.depth > 0 {
		sc.exits++
	}
	w.visitAll(ast.Children(n))
}
