package hascoq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hascoq/hascoq/ir"
	"github.com/hascoq/hascoq/parser"
	"github.com/hascoq/hascoq/report"
)

func parseTestModule(t *testing.T, src string) *ir.Module {
	t.Helper()
	rep := report.NewReporter()
	mod, err := parser.ParseModule("Test.hs", src, rep)
	require.NoError(t, err)
	return mod
}

func funcResolver(mod *ir.Module) func(ir.Name) (int, bool) {
	index := map[string]int{}
	for i, d := range mod.FuncDecls {
		index[d.Ident.Name] = i
	}
	return func(n ir.Name) (int, bool) {
		if n.Symbol || n.IsQualified() {
			return 0, false
		}
		i, ok := index[n.Ident]
		return i, ok
	}
}

func typeResolver(mod *ir.Module) func(ir.Name) (int, bool) {
	index := map[string]int{}
	for i, d := range mod.TypeDecls {
		index[d.DeclName().Name] = i
	}
	return func(n ir.Name) (int, bool) {
		if n.Symbol || n.IsQualified() {
			return 0, false
		}
		i, ok := index[n.Ident]
		return i, ok
	}
}

func TestFuncSCCsDependencyOrder(t *testing.T) {
	// c depends on b depends on a, declared in reverse order
	mod := parseTestModule(t, `
c :: Integer
c = b
b :: Integer
b = a
a :: Integer
a = 1
`[1:])
	sccs := funcDeclSCCs(mod.FuncDecls, funcResolver(mod))
	require.Len(t, sccs, 3)
	// dependencies come first: a (index 2), then b (1), then c (0)
	assert.Equal(t, []int{2}, sccs[0].Decls)
	assert.Equal(t, []int{1}, sccs[1].Decls)
	assert.Equal(t, []int{0}, sccs[2].Decls)
	for _, scc := range sccs {
		assert.False(t, scc.Recursive)
	}
}

func TestFuncSCCsSelfRecursionIsRecursive(t *testing.T) {
	mod := parseTestModule(t, `
loop :: a -> a
loop x = loop x
`[1:])
	sccs := funcDeclSCCs(mod.FuncDecls, funcResolver(mod))
	require.Len(t, sccs, 1)
	assert.True(t, sccs[0].Recursive)
}

func TestFuncSCCsMutualRecursionGrouped(t *testing.T) {
	mod := parseTestModule(t, `
even' :: Integer -> Bool
even' n = odd' n
odd' :: Integer -> Bool
odd' n = even' n
top :: Integer -> Bool
top n = even' n
`[1:])
	sccs := funcDeclSCCs(mod.FuncDecls, funcResolver(mod))
	require.Len(t, sccs, 2)
	assert.True(t, sccs[0].Recursive)
	assert.Equal(t, []int{0, 1}, sccs[0].Decls)
	assert.False(t, sccs[1].Recursive)
	assert.Equal(t, []int{2}, sccs[1].Decls)
}

func TestShadowedReferenceIsNoEdge(t *testing.T) {
	mod := parseTestModule(t, `
f :: a -> a
f g = g
g :: Integer
g = 1
`[1:])
	sccs := funcDeclSCCs(mod.FuncDecls, funcResolver(mod))
	require.Len(t, sccs, 2)
	// f's parameter g shadows the top-level g: both singletons,
	// source order preserved
	assert.Equal(t, []int{0}, sccs[0].Decls)
	assert.False(t, sccs[0].Recursive)
}

func TestTypeSCCsMutualDataAndSynonym(t *testing.T) {
	mod := parseTestModule(t, `
type Forest a = [Tree a]
data Tree a = Leaf a | Branch (Forest a)
data Color = Red
`[1:])
	sccs := typeDeclSCCs(mod.TypeDecls, typeResolver(mod))
	require.Len(t, sccs, 2)
	assert.True(t, sccs[0].Recursive)
	assert.Equal(t, []int{0, 1}, sccs[0].Decls)
	assert.False(t, sccs[1].Recursive)
}

func TestIterativeTarjanDeepChain(t *testing.T) {
	// a linear chain far deeper than a recursive traversal could
	// handle without blowing the goroutine stack
	const n = 200000
	g := newDepGraph(n)
	for i := 0; i < n-1; i++ {
		g.addEdge(i, i+1)
	}
	g.normalize()
	sccs := g.sccs()
	require.Len(t, sccs, n)
	// the sink (vertex n-1) has no dependencies and comes first
	assert.Equal(t, []int{n - 1}, sccs[0].Decls)
	assert.Equal(t, []int{0}, sccs[n-1].Decls)
}
