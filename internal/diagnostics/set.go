package diagnostics

import (
	"fmt"
	"sort"
)

// Set accumulates diagnostics across pipeline stages, deduplicating
// repeats of the same code at the same position. Several stages walk
// overlapping parts of the manifest, so duplicates are normal.
type Set struct {
	seen map[string]*DiagnosticError // key: "line:col:code"
	list []*DiagnosticError
}

func NewSet() *Set {
	return &Set{seen: make(map[string]*DiagnosticError)}
}

// Add records err unless an identical position/code pair is present.
func (s *Set) Add(err *DiagnosticError) {
	if err == nil {
		return
	}
	key := fmt.Sprintf("%d:%d:%s", err.Line, err.Column, err.Code)
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = err
	s.list = append(s.list, err)
}

// AddAll records every error in errs.
func (s *Set) AddAll(errs []*DiagnosticError) {
	for _, err := range errs {
		s.Add(err)
	}
}

// HasErrors reports whether anything was recorded.
func (s *Set) HasErrors() bool {
	return len(s.list) > 0
}

// Len returns the number of distinct diagnostics.
func (s *Set) Len() int {
	return len(s.list)
}

// All returns the diagnostics sorted by line, then column, then code,
// so output is stable regardless of which stage found what first.
func (s *Set) All() []*DiagnosticError {
	result := make([]*DiagnosticError, len(s.list))
	copy(result, s.list)
	sort.Slice(result, func(i, j int) bool {
		if result[i].Line != result[j].Line {
			return result[i].Line < result[j].Line
		}
		if result[i].Column != result[j].Column {
			return result[i].Column < result[j].Column
		}
		return result[i].Code < result[j].Code
	})
	return result
}
