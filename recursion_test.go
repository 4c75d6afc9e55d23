package hascoq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The transformer itself is easiest to observe through the emitted
// sentences: helper extraction sites, captured closures, and the
// single-level driver inlining all leave distinctive shapes.

func TestTransformCapturesClosureInBindingOrder(t *testing.T) {
	out := compileSrc(t, `
replicate' :: Integer -> [a] -> Integer
replicate' n xs = case xs of { [] -> n ; _:ys -> replicate' n ys }
`[1:])
	// the captured closure keeps binding order: n before xs, with the
	// struct annotation on the decreasing copy
	assert.Contains(t, out,
		"Fixpoint replicate'_0 (Shape : Type) (Pos : Shape -> Type) {a : Type} (n : Free Shape Pos (Integer Shape Pos)) (xs : List Shape Pos a) {struct xs} : Free Shape Pos (Integer Shape Pos) :=")
}

func TestTransformNestedMatchSites(t *testing.T) {
	// two outermost matches on the decreasing argument, one per
	// if-branch: each becomes its own helper in the common Fixpoint
	out := compileSrc(t, `
pick :: Bool -> [a] -> Integer
pick b xs = if b then (case xs of { [] -> 0 ; _:ys -> pick b ys })
  else (case xs of { [] -> 1 ; _:ys -> pick b ys })
`[1:])
	assert.Contains(t, out, "Fixpoint pick_0")
	assert.Contains(t, out, "with pick_1")
	assert.Equal(t, 1, strings.Count(out, "Fixpoint "))
	// the driver dispatches to both helpers
	assert.Contains(t, out, "pick_0 Shape Pos")
	assert.Contains(t, out, "pick_1 Shape Pos")
}

func TestTransformInliningReachesSiblingHelpers(t *testing.T) {
	out := compileSrc(t, `
data Nat = Zero | Succ Nat
ping :: Nat -> Integer
ping n = case n of { Zero -> 0 ; Succ m -> pong m }
pong :: Nat -> Integer
pong n = case n of { Zero -> 1 ; Succ m -> ping m }
`[1:])
	// after inlining, the helpers reference each other directly, and
	// no driver name occurs inside the Fixpoint block
	fixStart := strings.Index(out, "Fixpoint ping_0")
	require.GreaterOrEqual(t, fixStart, 0)
	fixEnd := strings.Index(out, "Definition ping")
	require.Greater(t, fixEnd, fixStart)
	block := out[fixStart:fixEnd]
	assert.Contains(t, block, "pong_0 Shape Pos")
	assert.Contains(t, block, "ping_0 Shape Pos")
	assert.NotContains(t, block, "ping Shape Pos")
	assert.NotContains(t, block, "pong Shape Pos")
}

func TestTransformHelperSharesPartialInstance(t *testing.T) {
	out := compileSrc(t, `
last' :: [a] -> a
last' xs = case xs of { [] -> undefined ; y:ys -> case ys of { [] -> y ; _:_ -> last' ys } }
`[1:])
	// helper and driver both declare the instance binder
	assert.Contains(t, out, "Fixpoint last'_0 (Shape : Type) (Pos : Shape -> Type) (P : Partial Shape Pos)")
	assert.Contains(t, out, "Definition last' (Shape : Type) (Pos : Shape -> Type) (P : Partial Shape Pos)")
	assert.Contains(t, out, "undefined Shape Pos P")
}

func TestTransformShadowedDecArgNotExtracted(t *testing.T) {
	// the inner lambda rebinds xs, so its case is not a match on the
	// decreasing argument; only the outer case becomes a helper
	out := compileSrc(t, `
f :: [a] -> Integer
f xs = case xs of { [] -> 0 ; _:ys -> apply (\xs -> case xs of { [] -> 1 ; _:zs -> 2 }) (f ys) }
apply :: (a -> b) -> a -> b
apply g x = g x
`[1:])
	assert.Contains(t, out, "Fixpoint f_0")
	assert.NotContains(t, out, "with f_1")
}
