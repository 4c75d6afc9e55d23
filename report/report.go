// Package report collects compiler diagnostics. A Reporter accumulates
// messages in source order; fatal errors additionally short-circuit the
// surrounding computation through a typed panic that the pass boundary
// recovers into a regular error.
package report

import (
	"fmt"
	"sort"

	"github.com/hascoq/hascoq/ir"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Diagnostic is one message attached to a source span.
type Diagnostic struct {
	Severity Severity
	Span     ir.Span
	Msg      string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Severity, d.Msg)
}

// fatalStop is the panic payload used by Fatalf. It deliberately does
// not implement error so an unrelated panic is never mistaken for it.
type fatalStop struct {
	diag Diagnostic
}

// Reporter accumulates diagnostics for one compilation.
type Reporter struct {
	diags []Diagnostic
	fatal bool
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Report records a diagnostic without aborting; an Error-severity
// diagnostic still marks the compilation as fatal.
func (r *Reporter) Report(sev Severity, span ir.Span, format string, args ...interface{}) {
	r.diags = append(r.diags, Diagnostic{Severity: sev, Span: span, Msg: fmt.Sprintf(format, args...)})
	if sev == Error {
		r.fatal = true
	}
}

func (r *Reporter) Warnf(span ir.Span, format string, args ...interface{}) {
	r.Report(Warning, span, format, args...)
}

func (r *Reporter) Infof(span ir.Span, format string, args ...interface{}) {
	r.Report(Info, span, format, args...)
}

// Fatalf records an error and aborts the current computation. The
// enclosing pass recovers it via Recover.
func (r *Reporter) Fatalf(span ir.Span, format string, args ...interface{}) {
	d := Diagnostic{Severity: Error, Span: span, Msg: fmt.Sprintf(format, args...)}
	r.diags = append(r.diags, d)
	r.fatal = true
	panic(fatalStop{diag: d})
}

// Recover converts a Fatalf panic into a normal return. Use as
//
//	defer r.Recover(&err)
//
// at a pass boundary. Other panics are re-raised.
func (r *Reporter) Recover(err *error) {
	if p := recover(); p != nil {
		stop, ok := p.(fatalStop)
		if !ok {
			panic(p)
		}
		*err = fmt.Errorf("%s", stop.diag)
	}
}

// HasFatal reports whether any error-severity diagnostic was recorded.
func (r *Reporter) HasFatal() bool {
	return r.fatal
}

// Diagnostics returns the recorded messages sorted to source order
// (file, then start position; severity descending on ties). The sort is
// stable so equal spans keep accumulation order.
func (r *Reporter) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i], out[j]
		if di.Span.File != dj.Span.File {
			return di.Span.File < dj.Span.File
		}
		if di.Span.StartLine != dj.Span.StartLine {
			return di.Span.StartLine < dj.Span.StartLine
		}
		if di.Span.StartCol != dj.Span.StartCol {
			return di.Span.StartCol < dj.Span.StartCol
		}
		return di.Severity > dj.Severity
	})
	return out
}

// Len returns the number of recorded diagnostics.
func (r *Reporter) Len() int {
	return len(r.diags)
}
