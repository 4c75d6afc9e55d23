package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// SourceStore resolves file names to their contents so diagnostics can
// show a snippet of the offending code. Files the store does not know
// render without a snippet.
type SourceStore struct {
	files map[string][]string
}

func NewSourceStore() *SourceStore {
	return &SourceStore{files: make(map[string][]string)}
}

func (s *SourceStore) Add(file, contents string) {
	s.files[file] = strings.Split(contents, "\n")
}

func (s *SourceStore) line(file string, n int) (string, bool) {
	lines, ok := s.files[file]
	if !ok || n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	posColor  = color.New(color.Bold)
)

func severityColor(sev Severity) *color.Color {
	switch sev {
	case Error:
		return errColor
	case Warning:
		return warnColor
	}
	return infoColor
}

// Render writes one diagnostic to w: position, severity, message, then
// the source line with a caret pointer under the span.
func (s *SourceStore) Render(w io.Writer, d Diagnostic) {
	fmt.Fprintf(w, "%s: %s: %s\n",
		posColor.Sprint(d.Span.String()),
		severityColor(d.Severity).Sprint(d.Severity.String()),
		d.Msg)
	line, ok := s.line(d.Span.File, d.Span.StartLine)
	if !ok {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)
	width := 1
	if d.Span.EndLine == d.Span.StartLine && d.Span.EndCol > d.Span.StartCol {
		width = d.Span.EndCol - d.Span.StartCol
	}
	pad := strings.Repeat(" ", d.Span.StartCol-1)
	fmt.Fprintf(w, "  %s%s\n", pad, severityColor(d.Severity).Sprint(strings.Repeat("^", width)))
}

// RenderAll writes every diagnostic in source order.
func (s *SourceStore) RenderAll(w io.Writer, r *Reporter) {
	for _, d := range r.Diagnostics() {
		s.Render(w, d)
	}
}
