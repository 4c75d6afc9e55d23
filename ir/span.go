package ir

import "fmt"

// Span is a half-open region of a source file, 1-based lines and columns.
type Span struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// NoSpan marks nodes synthesized by the compiler (eta-expansion binders,
// recursion helpers) that have no source occurrence.
var NoSpan = Span{}

func (s Span) IsZero() bool {
	return s == NoSpan
}

func (s Span) String() string {
	if s.IsZero() {
		return "<generated>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

// Union extends s to also cover t. Zero spans are ignored.
func (s Span) Union(t Span) Span {
	if s.IsZero() {
		return t
	}
	if t.IsZero() {
		return s
	}
	u := s
	if t.StartLine < u.StartLine || (t.StartLine == u.StartLine && t.StartCol < u.StartCol) {
		u.StartLine, u.StartCol = t.StartLine, t.StartCol
	}
	if t.EndLine > u.EndLine || (t.EndLine == u.EndLine && t.EndCol > u.EndCol) {
		u.EndLine, u.EndCol = t.EndLine, t.EndCol
	}
	return u
}

// Before reports whether s starts before t, for source-order sorting.
func (s Span) Before(t Span) bool {
	if s.StartLine != t.StartLine {
		return s.StartLine < t.StartLine
	}
	return s.StartCol < t.StartCol
}
