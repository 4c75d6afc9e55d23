package hascoq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hascoq/hascoq/ir"
)

func memberFunc(decls []*ir.FuncDecl) func(ir.Name) (int, bool) {
	index := map[string]int{}
	for i, d := range decls {
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

func TestDecArgOnFirstArgument(t *testing.T) {
	mod := parseTestModule(t, `
length' :: [a] -> Integer
length' xs = case xs of { [] -> 0 ; _:xs' -> 1 + length' xs' }
`[1:])
	tuple, ok := guessDecArgs(mod.FuncDecls, memberFunc(mod.FuncDecls))
	require.True(t, ok)
	assert.Equal(t, []int{0}, tuple)
}

func TestDecArgPicksLaterArgument(t *testing.T) {
	mod := parseTestModule(t, `
go :: Integer -> [a] -> Integer
go acc xs = case xs of { [] -> acc ; _:xs' -> go acc xs' }
`[1:])
	tuple, ok := guessDecArgs(mod.FuncDecls, memberFunc(mod.FuncDecls))
	require.True(t, ok)
	assert.Equal(t, []int{1}, tuple)
}

func TestDecArgMutualRecursion(t *testing.T) {
	mod := parseTestModule(t, `
even' :: Nat -> Bool
even' n = case n of { Zero -> True ; Succ m -> odd' m }
odd' :: Nat -> Bool
odd' n = case n of { Zero -> False ; Succ m -> even' m }
`[1:])
	tuple, ok := guessDecArgs(mod.FuncDecls, memberFunc(mod.FuncDecls))
	require.True(t, ok)
	assert.Equal(t, []int{0, 0}, tuple)
}

func TestNonDecreasingCallRejected(t *testing.T) {
	// the recursive call passes xs instead of xs'
	mod := parseTestModule(t, `
bad :: [a] -> Integer
bad xs = case xs of { [] -> 0 ; _:xs' -> bad xs }
`[1:])
	_, ok := guessDecArgs(mod.FuncDecls, memberFunc(mod.FuncDecls))
	assert.False(t, ok)
}

func TestNestedCaseExtendsSmallerSet(t *testing.T) {
	// the recursive call descends two constructors deep
	mod := parseTestModule(t, `
drops :: [a] -> Integer
drops xs = case xs of { [] -> 0 ; _:ys -> case ys of { [] -> 1 ; _:zs -> drops zs } }
`[1:])
	tuple, ok := guessDecArgs(mod.FuncDecls, memberFunc(mod.FuncDecls))
	require.True(t, ok)
	assert.Equal(t, []int{0}, tuple)
}

func TestCaseOnOtherVariableDoesNotShrink(t *testing.T) {
	// matching on ys says nothing about xs
	mod := parseTestModule(t, `
bad :: [a] -> [a] -> Integer
bad xs ys = case ys of { [] -> 0 ; y:ys' -> bad ys' ys' }
`[1:])
	tuple, ok := guessDecArgs(mod.FuncDecls, memberFunc(mod.FuncDecls))
	// the first argument never shrinks; index 1 works because the
	// match is on ys itself
	require.True(t, ok)
	assert.Equal(t, []int{1}, tuple)
}

func TestShadowedBinderLeavesSmallerSet(t *testing.T) {
	// xs' is rebound by a lambda, so the inner call does not shrink
	mod := parseTestModule(t, `
bad :: [a] -> [a] -> Integer
bad xs ys = case xs of { [] -> 0 ; x:xs' -> apply (\xs' -> bad xs' ys) ys }
`[1:])
	_, ok := guessDecArgs(mod.FuncDecls, memberFunc(mod.FuncDecls))
	assert.False(t, ok)
}

func TestUnderAppliedRecursiveCallRejected(t *testing.T) {
	// the recursive reference is passed around without its decreasing
	// argument
	mod := parseTestModule(t, `
bad :: [a] -> Integer
bad xs = case xs of { [] -> 0 ; _:xs' -> apply bad xs' }
`[1:])
	_, ok := guessDecArgs(mod.FuncDecls, memberFunc(mod.FuncDecls))
	assert.False(t, ok)
}

func TestZeroArityRecursionRejected(t *testing.T) {
	mod := parseTestModule(t, `
loop :: Integer
loop = loop
`[1:])
	_, ok := guessDecArgs(mod.FuncDecls, memberFunc(mod.FuncDecls))
	assert.False(t, ok)
}
