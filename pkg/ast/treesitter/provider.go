package treesitter

import (
	"fmt"
	"os"

	"github.com/pygenii/genii/pkg/ast"
	"github.com/pygenii/genii/pkg/parser"
)

// Ensure Provider implements ast.Provider.
var _ ast.Provider = (*Provider)(nil)

// Provider implements ast.Provider using tree-sitter's Python grammar.
// A Provider owns one parser and is not safe for concurrent use.
type Provider struct {
	parser *parser.Parser
}

// New creates a new tree-sitter based provider.
func New() *Provider {
	return &Provider{
		parser: parser.New(),
	}
}

// NewWithParser creates a provider backed by an existing parser. The caller
// keeps ownership of psr.
func NewWithParser(psr *parser.Parser) *Provider {
	return &Provider{parser: psr}
}

// Parse reads and parses the file at path.
func (p *Provider) Parse(path string) (*ast.Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParseSource(source, path)
}

// ParseSource parses in-memory source. Trees containing ERROR or MISSING
// nodes are rejected with an *ast.InputError.
func (p *Provider) ParseSource(source []byte, path string) (*ast.Module, error) {
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return nil, &ast.InputError{Path: path, Err: ast.ErrUnsupportedLanguage}
	}

	result, err := p.parser.Parse(source, parser.LangPython, path)
	if err != nil {
		return nil, &ast.InputError{Path: path, Err: err}
	}
	defer result.Close()
	return module(result)
}

func module(result *parser.ParseResult) (*ast.Module, error) {
	root := result.Tree.RootNode()
	if root.HasError() {
		line := 0
		if bad := parser.FirstError(root, result.Source); bad != nil {
			line = parser.Line(bad)
		}
		return nil, &ast.InputError{Path: result.Path, Line: line, Err: ast.ErrSyntax}
	}

	c := converter{source: result.Source}
	return &ast.Module{
		Name: parser.ModuleName(result.Path),
		Path: result.Path,
		Body: c.statements(root),
	}, nil
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}
