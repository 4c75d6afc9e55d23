package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hascoq/hascoq/ir"
)

func span(line, col, endCol int) ir.Span {
	return ir.Span{File: "Main.hs", StartLine: line, StartCol: col, EndLine: line, EndCol: endCol}
}

func TestFatalfRecoversToError(t *testing.T) {
	r := NewReporter()
	err := func() (err error) {
		defer r.Recover(&err)
		r.Fatalf(span(3, 1, 5), "unknown type constructor %s", "Foo")
		t.Fatal("unreachable")
		return nil
	}()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type constructor Foo")
	assert.Contains(t, err.Error(), "Main.hs:3:1")
	assert.True(t, r.HasFatal())
}

func TestRecoverPassesForeignPanics(t *testing.T) {
	r := NewReporter()
	assert.Panics(t, func() {
		var err error
		defer r.Recover(&err)
		panic("not a diagnostic")
	})
}

func TestDiagnosticsSortedBySource(t *testing.T) {
	r := NewReporter()
	r.Warnf(span(9, 1, 2), "later")
	r.Infof(span(2, 5, 6), "earlier info")
	r.Report(Error, span(2, 5, 6), "earlier error")
	ds := r.Diagnostics()
	require.Len(t, ds, 3)
	// same span: higher severity first
	assert.Equal(t, "earlier error", ds[0].Msg)
	assert.Equal(t, "earlier info", ds[1].Msg)
	assert.Equal(t, "later", ds[2].Msg)
}

func TestWarningsAreNotFatal(t *testing.T) {
	r := NewReporter()
	r.Warnf(span(1, 1, 2), "unused type signature for f")
	assert.False(t, r.HasFatal())
}

func TestRenderSnippetAndCaret(t *testing.T) {
	store := NewSourceStore()
	store.Add("Main.hs", "module Main where\nfoo = bar\n")
	r := NewReporter()
	r.Report(Error, span(2, 7, 10), "unknown value bar")

	var b strings.Builder
	store.RenderAll(&b, r)
	out := b.String()
	assert.Contains(t, out, "Main.hs:2:7")
	assert.Contains(t, out, "unknown value bar")
	assert.Contains(t, out, "  foo = bar")
	assert.Contains(t, out, "^^^")
	// caret is under the offending span
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	caret := lines[2]
	assert.True(t, strings.Contains(caret, "^"))
	assert.Equal(t, strings.Index(lines[1], "bar"), strings.IndexByte(caret, '^'))
}

func TestRenderWithoutSourceOmitsSnippet(t *testing.T) {
	store := NewSourceStore()
	r := NewReporter()
	r.Report(Warning, ir.NoSpan, "floating warning")
	var b strings.Builder
	store.RenderAll(&b, r)
	assert.Contains(t, b.String(), "floating warning")
	assert.NotContains(t, b.String(), "^")
}
