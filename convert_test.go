package hascoq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hascoq/hascoq/iface"
	"github.com/hascoq/hascoq/parser"
	"github.com/hascoq/hascoq/predefs"
	"github.com/hascoq/hascoq/report"
)

func testConverter(t *testing.T) *Converter {
	t.Helper()
	envFile, err := predefs.Load("base/env.toml")
	require.NoError(t, err)
	return NewConverter(Config{}, envFile)
}

// compileSrc runs the full pipeline on one module and returns the
// generated Coq text.
func compileSrc(t *testing.T, src string) string {
	t.Helper()
	out, _, err := tryCompileSrc(t, src)
	require.NoError(t, err)
	return out
}

func tryCompileSrc(t *testing.T, src string) (string, *iface.ModuleInterface, error) {
	t.Helper()
	conv := testConverter(t)
	rep := report.NewReporter()
	mod, err := parser.ParseModule("Test.hs", src, rep)
	require.NoError(t, err)
	file, intf, err := conv.ConvertModule(mod, rep)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	require.NoError(t, file.Write(&b))
	return b.String(), intf, nil
}

func TestConvertIdentity(t *testing.T) {
	out := compileSrc(t, `
id :: a -> a
id x = x
`[1:])
	assert.Contains(t, out,
		"Definition id (Shape : Type) (Pos : Shape -> Type) {a : Type} (x : Free Shape Pos a) : Free Shape Pos a :=")
	assert.Contains(t, out, "\n  x.")
	assert.Contains(t, out, "Module Main.")
	assert.Contains(t, out, "End Main.")
	assert.Contains(t, out, "From Base Require Import Free.")
}

func TestConvertConstBinders(t *testing.T) {
	out := compileSrc(t, `
const' :: a -> b -> a
const' x y = x
`[1:])
	// generic args + type args + value args, in that order
	assert.Contains(t, out,
		"Definition const' (Shape : Type) (Pos : Shape -> Type) {a : Type} {b : Type} (x : Free Shape Pos a) (y : Free Shape Pos b) : Free Shape Pos a :=")
}

func TestConvertLambdaDefinition(t *testing.T) {
	out := compileSrc(t, `
const' :: a -> b -> a
const' = \x y -> x
`[1:])
	assert.Contains(t, out, "pure (fun x => pure (fun y => x))")
}

func TestConvertPartialApplicationEtaExpands(t *testing.T) {
	out := compileSrc(t, `
inc :: Integer -> Integer
inc = (+) 1
`[1:])
	assert.Contains(t, out, "pure (fun x => addInteger Shape Pos (pure 1%Z) x)")
}

func TestConvertRecursiveLength(t *testing.T) {
	out := compileSrc(t, `
length' :: [a] -> Integer
length' xs = case xs of { [] -> 0 ; _:xs' -> 1 + length' xs' }
`[1:])
	// one Fixpoint helper wrapping the match, struct on the pure copy
	assert.Contains(t, out,
		"Fixpoint length'_0 (Shape : Type) (Pos : Shape -> Type) {a : Type} (xs : List Shape Pos a) {struct xs} : Free Shape Pos (Integer Shape Pos) :=")
	assert.Contains(t, out, "match xs with")
	assert.Contains(t, out, "| nil => pure 0%Z")
	assert.Contains(t, out, "| cons _ xs' =>")
	// the recursive call unwraps the decreasing argument
	assert.Contains(t, out, "bind xs' (fun xs'_0 => length'_0 Shape Pos xs'_0)")
	// a driver Definition binds the lifted argument and calls the helper
	assert.Contains(t, out,
		"Definition length' (Shape : Type) (Pos : Shape -> Type) {a : Type} (xs : Free Shape Pos (List Shape Pos a)) : Free Shape Pos (Integer Shape Pos) :=")
	assert.Contains(t, out, "bind xs (fun xs_0 => length'_0 Shape Pos xs_0)")
	// the helper comes before the driver
	assert.Less(t, strings.Index(out, "Fixpoint length'_0"), strings.Index(out, "Definition length'"))
}

func TestConvertMutualRecursion(t *testing.T) {
	out := compileSrc(t, `
data Nat = Zero | Succ Nat
even' :: Nat -> Bool
even' n = case n of { Zero -> True ; Succ m -> odd' m }
odd' :: Nat -> Bool
odd' n = case n of { Zero -> False ; Succ m -> even' m }
`[1:])
	// one combined Fixpoint block with two bodies
	assert.Contains(t, out, "Fixpoint even'_0")
	assert.Contains(t, out, "with odd'_0")
	assert.Equal(t, 1, strings.Count(out, "Fixpoint "))
	assert.Contains(t, out, "{struct n}")
	// the drivers are plain Definitions
	assert.Contains(t, out, "Definition even'")
	assert.Contains(t, out, "Definition odd'")
	// the cross calls go through the sibling helper
	assert.Contains(t, out, "bind m (fun m_0 => odd'_0 Shape Pos m_0)")
	assert.Contains(t, out, "bind m (fun m_0 => even'_0 Shape Pos m_0)")
}

func TestConvertPartialHead(t *testing.T) {
	out, intf, err := tryCompileSrc(t, `
head' :: [a] -> a
head' (x:_) = x
head' [] = undefined
caller :: [a] -> a
caller xs = head' xs
`[1:])
	require.NoError(t, err)
	// both are flagged partial and declare the instance binder
	assert.Contains(t, out, "Definition head' (Shape : Type) (Pos : Shape -> Type) (P : Partial Shape Pos) {a : Type}")
	assert.Contains(t, out, "undefined Shape Pos P")
	// the caller forwards the instance
	assert.Contains(t, out, "Definition caller (Shape : Type) (Pos : Shape -> Type) (P : Partial Shape Pos) {a : Type}")
	assert.Contains(t, out, "head' Shape Pos P xs")

	require.Len(t, intf.Funcs, 2)
	for _, f := range intf.Funcs {
		assert.True(t, f.Partial, f.HaskellName)
	}
}

func TestConvertErrorCall(t *testing.T) {
	out := compileSrc(t, `
boom :: a
boom = error "boom"
`[1:])
	assert.Contains(t, out, `error Shape Pos P "boom"%string`)
}

func TestConvertDataDeclAndSmartConstructors(t *testing.T) {
	out := compileSrc(t, `
data Pair' a b = MkPair a b
`[1:])
	assert.Contains(t, out,
		"Inductive Pair' (Shape : Type) (Pos : Shape -> Type) (a : Type) (b : Type) : Type :=")
	assert.Contains(t, out,
		"| mkPair : Free Shape Pos a -> Free Shape Pos b -> Pair' Shape Pos a b.")
	assert.Contains(t, out, "Arguments mkPair {Shape} {Pos} {a} {b}.")
	assert.Contains(t, out,
		"Definition MkPair (Shape : Type) (Pos : Shape -> Type) {a : Type} {b : Type} (x_0 : Free Shape Pos a) (x_1 : Free Shape Pos b) : Free Shape Pos (Pair' Shape Pos a b) :=")
	assert.Contains(t, out, "pure (mkPair x_0 x_1)")
}

func TestConvertForestTreeSynonymExpansion(t *testing.T) {
	out := compileSrc(t, `
type Forest a = [Tree a]
data Tree a = Leaf a | Branch (Forest a)
`[1:])
	// the synonym is expanded inside the inductive
	assert.Contains(t, out,
		"| branch : Free Shape Pos (List Shape Pos (Tree Shape Pos a)) -> Tree Shape Pos a.")
	// and still emitted as a Definition afterwards
	assert.Contains(t, out,
		"Definition Forest (Shape : Type) (Pos : Shape -> Type) (a : Type) : Type :=")
	assert.Contains(t, out, "List Shape Pos (Tree Shape Pos a).")
	assert.Less(t, strings.Index(out, "Inductive Tree"), strings.Index(out, "Definition Forest"))
}

func TestConvertIfLowersToBoolMatch(t *testing.T) {
	out := compileSrc(t, `
pick :: Bool -> Integer
pick b = if b then 1 else 0
`[1:])
	assert.Contains(t, out, "bind b (fun b_0 =>")
	assert.Contains(t, out, "| true => pure 1%Z")
	assert.Contains(t, out, "| false => pure 0%Z")
}

func TestConvertDeterministic(t *testing.T) {
	src := `
data Nat = Zero | Succ Nat
plus' :: Nat -> Nat -> Nat
plus' n m = case n of { Zero -> m ; Succ p -> Succ (plus' p m) }
`[1:]
	first := compileSrc(t, src)
	second := compileSrc(t, src)
	assert.Equal(t, first, second)
}

func TestConvertTargetIdentsInjective(t *testing.T) {
	_, intf, err := tryCompileSrc(t, `
data Foo = Foo
foo :: Integer
foo = 1
`[1:])
	require.NoError(t, err)
	seen := map[string]bool{}
	var all []string
	for _, e := range intf.Types {
		all = append(all, e.CoqName)
	}
	for _, e := range intf.Cons {
		all = append(all, e.CoqName, e.SmartName)
	}
	for _, e := range intf.Funcs {
		all = append(all, e.CoqName)
	}
	for _, name := range all {
		assert.False(t, seen[name], "duplicate target %s", name)
		seen[name] = true
	}
	// the raw constructor took foo first; the function is disambiguated
	assert.Contains(t, all, "foo")
	assert.Contains(t, all, "foo0")
}

func TestConvertEmissionFollowsDependencies(t *testing.T) {
	out := compileSrc(t, `
top :: Integer
top = helper
helper :: Integer
helper = 1
`[1:])
	assert.Less(t, strings.Index(out, "Definition helper"), strings.Index(out, "Definition top"))
}

func TestConvertModuleHeaderAndImports(t *testing.T) {
	conv := testConverter(t)

	repQ := report.NewReporter()
	qmod, err := parser.ParseModule("Queue.hs", `
module Queue where
size :: Integer
size = 0
`[1:], repQ)
	require.NoError(t, err)
	_, qintf, err := conv.ConvertModule(qmod, repQ)
	require.NoError(t, err)
	assert.Equal(t, "Queue", qintf.Name)

	repM := report.NewReporter()
	mmod, err := parser.ParseModule("Main.hs", `
module Main where
import Queue
twice :: Integer
twice = Queue.size + size
`[1:], repM)
	require.NoError(t, err)
	file, _, err := conv.ConvertModule(mmod, repM)
	require.NoError(t, err)
	var b strings.Builder
	require.NoError(t, file.Write(&b))
	out := b.String()
	assert.Contains(t, out, "From Generated Require Import Queue.")
	assert.Contains(t, out, "addInteger Shape Pos (size Shape Pos) (size Shape Pos)")
}

func TestConvertErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"missing signature", "f = 1\n", "missing type signature for function f"},
		{"duplicate decl", "f :: Integer\nf = 1\nf :: Integer\nf = 2\n", "duplicate"},
		{"unknown value", "f :: Integer\nf = g\n", "unknown value g"},
		{"unknown type", "f :: Wat\nf = 1\n", "unknown type constructor Wat"},
		{"no decreasing argument", "loop :: a -> a\nloop x = loop x\n", "cannot determine decreasing argument"},
		{"synonym cycle", "type A = B\ntype B = A\n", "mutually recursive type synonym"},
		{"unknown module", "import Nope\nf :: Integer\nf = 1\n", "unknown module Nope"},
		{"signature too short", "f :: Integer\nf x = 1\n", "takes 1 arguments but its signature provides 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := tryCompileSrc(t, tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestConvertUnusedSignatureWarns(t *testing.T) {
	conv := testConverter(t)
	rep := report.NewReporter()
	mod, err := parser.ParseModule("Test.hs", "ghost :: Integer\n", rep)
	require.NoError(t, err)
	_, _, err = conv.ConvertModule(mod, rep)
	require.NoError(t, err)
	ds := rep.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, report.Warning, ds[0].Severity)
	assert.Contains(t, ds[0].Msg, "unused type signature for ghost")
}
