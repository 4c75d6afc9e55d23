package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(name string) *Var {
	return NewVar(NoSpan, Ident(name))
}

func TestSpineRoundTrip(t *testing.T) {
	e := Apply(v("f"), v("a"), v("b"), v("c"))
	head, args := Spine(e)
	assert.Equal(t, v("f"), head)
	require.Len(t, args, 3)
	assert.Equal(t, "a", args[0].(*Var).Name.Ident)
	assert.Equal(t, "c", args[2].(*Var).Name.Ident)
}

func TestFreeVarsOrderAndBinding(t *testing.T) {
	// \x -> f x y (case z of { C w -> w })
	inner := &Case{
		Scrutinee: v("z"),
		Alts: []Alt{{
			Con:  ConPat{Name: Ident("C")},
			Vars: []VarPat{{Ident: "w"}},
			Rhs:  v("w"),
		}},
	}
	body := Apply(v("f"), v("x"), v("y"), inner)
	lam := &Lambda{Pats: []VarPat{{Ident: "x"}}, Body: body}
	assert.Equal(t, []string{"f", "y", "z"}, FreeVars(lam))
}

func TestFreeVarsSkipsQualifiedAndSymbols(t *testing.T) {
	e := Apply(NewVar(NoSpan, Sym("+")), v("x"), NewVar(NoSpan, Qual("M", "y")))
	assert.Equal(t, []string{"x"}, FreeVars(e))
}

func TestReferencedNamesSkipsShadowed(t *testing.T) {
	// length is shadowed by the lambda binder and xs is passed as bound,
	// so nothing is referenced
	lam := &Lambda{
		Pats: []VarPat{{Ident: "length"}},
		Body: Apply(v("length"), v("xs")),
	}
	names := ReferencedNames(lam, "xs")
	assert.Equal(t, []Name{}, append([]Name{}, names...))
}

func TestSubstShadowing(t *testing.T) {
	// (\x -> x) with subst x -> y must not touch the bound x
	lam := &Lambda{Pats: []VarPat{{Ident: "x"}}, Body: v("x")}
	out := Subst(lam, map[string]Expr{"x": v("y")})
	assert.Equal(t, "x", out.(*Lambda).Body.(*Var).Name.Ident)

	free := Subst(v("x"), map[string]Expr{"x": v("y")})
	assert.Equal(t, "y", free.(*Var).Name.Ident)
}

func TestFreshenBindersRenamesConsistently(t *testing.T) {
	n := 0
	fresh := func(hint string) string {
		n++
		return hint + "!" + string(rune('0'+n-1))
	}
	lam := &Lambda{
		Pats: []VarPat{{Ident: "x"}},
		Body: Apply(v("f"), v("x"), v("free")),
	}
	out := FreshenBinders(lam, fresh).(*Lambda)
	assert.Equal(t, "x!0", out.Pats[0].Ident)
	_, args := Spine(out.Body)
	assert.Equal(t, "x!0", args[0].(*Var).Name.Ident)
	assert.Equal(t, "free", args[1].(*Var).Name.Ident)
}

func TestSplitAndFoldFuncType(t *testing.T) {
	ab := &TypeFunc{
		Arg: &TypeVar{Ident: "a"},
		Res: &TypeFunc{Arg: &TypeVar{Ident: "b"}, Res: &TypeVar{Ident: "c"}},
	}
	args, res := SplitFuncType(ab, -1)
	require.Len(t, args, 2)
	assert.Equal(t, "c", res.(*TypeVar).Ident)

	args1, res1 := SplitFuncType(ab, 1)
	require.Len(t, args1, 1)
	_, isFunc := res1.(*TypeFunc)
	assert.True(t, isFunc)

	rebuilt := FuncType(args, res)
	assert.Equal(t, TypeString(ab), TypeString(rebuilt))
}

func TestTypeConApp(t *testing.T) {
	list := &TypeApp{
		Fn:  &TypeCon{Name: Sym("[]")},
		Arg: &TypeVar{Ident: "a"},
	}
	con, args, ok := TypeConApp(list)
	require.True(t, ok)
	assert.Equal(t, "[]", con.Name.Ident)
	require.Len(t, args, 1)

	_, _, ok = TypeConApp(&TypeFunc{Arg: list, Res: list})
	assert.False(t, ok)
}

func TestSubstTypeVars(t *testing.T) {
	list := &TypeApp{
		Fn:  &TypeCon{Name: Sym("[]")},
		Arg: &TypeVar{Ident: "a"},
	}
	out := SubstTypeVars(list, map[string]Type{"a": &TypeCon{Name: Ident("Integer")}})
	assert.Equal(t, "[] Integer", TypeString(out))
	// the original is untouched
	assert.Equal(t, "[] a", TypeString(list))
}

func TestTypeStringParenthesizesNested(t *testing.T) {
	inner := &TypeApp{
		Fn:  &TypeCon{Name: Sym("[]")},
		Arg: &TypeApp{Fn: &TypeCon{Name: Ident("Tree")}, Arg: &TypeVar{Ident: "a"}},
	}
	assert.Equal(t, "[] (Tree a)", TypeString(inner))
	arrows := &TypeFunc{Arg: inner, Res: &TypeCon{Name: Ident("Integer")}}
	assert.Equal(t, "([] (Tree a)) -> Integer", TypeString(arrows))
}

func TestValidIdent(t *testing.T) {
	assert.True(t, ValidIdent("foo'"))
	assert.True(t, ValidIdent("_x9"))
	assert.False(t, ValidIdent("'x"))
	assert.False(t, ValidIdent("9x"))
	assert.False(t, ValidIdent(""))
	assert.False(t, ValidIdent("[]"))
}

func TestSpanUnionAndOrder(t *testing.T) {
	a := Span{File: "F", StartLine: 1, StartCol: 3, EndLine: 1, EndCol: 5}
	b := Span{File: "F", StartLine: 2, StartCol: 1, EndLine: 2, EndCol: 4}
	u := a.Union(b)
	assert.Equal(t, 1, u.StartLine)
	assert.Equal(t, 2, u.EndLine)
	assert.True(t, a.Before(b))
	assert.Equal(t, a, a.Union(NoSpan))
}
