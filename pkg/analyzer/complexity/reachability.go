package complexity

import "github.com/pygenii/genii/pkg/ast"

// IsFrontier reports whether no code following n can be reached.
//
// A return is always a frontier. An if is one only when both branches are;
// a missing else never is. Loops are judged by their body alone, ignoring
// zero iterations and break. Nothing else is a frontier.
func IsFrontier(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Return:
		return true
	case *ast.If:
		return len(n.Else) > 0 && IsFrontierSeq(n.Body) && IsFrontierSeq(n.Else)
	case *ast.For:
		return IsFrontierSeq(n.Body)
	case *ast.While:
		return IsFrontierSeq(n.Body)
	default:
		return false
	}
}

// IsFrontierSeq reports whether any statement of seq is a frontier.
func IsFrontierSeq(seq []ast.Node) bool {
	for _, stmt := range seq {
		if IsFrontier(stmt) {
			return true
		}
	}
	return false
}

// fallsThrough reports whether control can run off the end of body, which
// costs the function an implicit exit.
func fallsThrough(body []ast.Node) bool {
	if len(body) == 0 {
		return true
	}
	return !IsFrontier(body[len(body)-1])
}
