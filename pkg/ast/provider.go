package ast

import (
	"errors"
	"fmt"
)

// ErrUnsupportedLanguage is returned when parsing a file with an unsupported language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrSyntax marks source the provider could not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// InputError reports source that could not be turned into a tree. The
// engine never produces it; providers do.
type InputError struct {
	Path string
	Line int
	Err  error
}

func (e *InputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Provider turns source into a Module tree.
type Provider interface {
	// Parse reads and parses the file at path.
	Parse(path string) (*Module, error)

	// ParseSource parses source already in memory. path is used for the
	// module name and in error messages.
	ParseSource(source []byte, path string) (*Module, error)

	// Close releases provider resources.
	Close()
}
