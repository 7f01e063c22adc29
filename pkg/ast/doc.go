// Package ast defines the closed set of syntax nodes the complexity engine
// understands, together with the Provider abstraction that produces them.
//
// A tree is built once by a Provider and is read-only afterwards. Node kinds
// the engine does not care about are represented by Other, which only carries
// its children so nested decision points are still reachable.
//
// Usage:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	mod, err := provider.Parse("pkg/util.py")
//	if err != nil {
//	    return err
//	}
//
//	for _, stmt := range mod.Body {
//	    if fn, ok := stmt.(*ast.FunctionDef); ok {
//	        fmt.Println(fn.Name, fn.Line())
//	    }
//	}
package ast
