// Package diagnostics carries the rejection machinery: coded, positioned
// errors that always embed the offending value (the identity, position,
// type, or expression that broke the build). User mistakes become
// DiagnosticErrors; tool faults stay ordinary wrapped errors.
package diagnostics

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DiagnosticError is one rejection with its source position. Line and
// Column are 1-based and come from the manifest YAML node that caused
// it; both are zero when no position applies.
type DiagnosticError struct {
	Code    Code
	Message string
	Line    int
	Column  int
}

// NewError builds a DiagnosticError from a registered code and the YAML
// node it points at. A nil node yields a position-less diagnostic.
func NewError(code Code, node *yaml.Node, args ...interface{}) *DiagnosticError {
	format, ok := messages[code]
	if !ok {
		format = "unregistered diagnostic"
	}
	e := &DiagnosticError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
	if node != nil {
		e.Line = node.Line
		e.Column = node.Column
	}
	return e
}

func (e *DiagnosticError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", e.Line, e.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
