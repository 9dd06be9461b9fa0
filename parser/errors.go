package parser

import "fmt"

// SyntaxError is raised by the lexer, preprocessor, and (via the
// assembler's use of this package's label map) label resolution. It
// always carries file/line provenance, per spec.md 7.
type SyntaxError struct {
	File string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Syntax error at %s:%d -> %s", e.File, e.Line, e.Msg)
}

// NewSyntaxError builds a SyntaxError with a formatted message.
func NewSyntaxError(file string, line int, format string, args ...any) *SyntaxError {
	return &SyntaxError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}
