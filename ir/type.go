package ir

import "strings"

// Type is a first-order source type (kind *). Polymorphism is prenex
// only, carried by TypeSchema.
type Type interface {
	TypeSpan() Span
	typeNode()
}

// TypeVar is a reference to a bound type variable.
type TypeVar struct {
	Span  Span
	Ident string
}

// TypeCon is a reference to a type constructor or type synonym.
type TypeCon struct {
	Span Span
	Name Name
}

// TypeApp applies a type to one argument; constructor applications are
// left-nested chains ending in a TypeCon.
type TypeApp struct {
	Span Span
	Fn   Type
	Arg  Type
}

// TypeFunc is the function arrow.
type TypeFunc struct {
	Span Span
	Arg  Type
	Res  Type
}

func (t *TypeVar) TypeSpan() Span  { return t.Span }
func (t *TypeCon) TypeSpan() Span  { return t.Span }
func (t *TypeApp) TypeSpan() Span  { return t.Span }
func (t *TypeFunc) TypeSpan() Span { return t.Span }

func (*TypeVar) typeNode()  {}
func (*TypeCon) typeNode()  {}
func (*TypeApp) typeNode()  {}
func (*TypeFunc) typeNode() {}

// TypeSchema is a prenex type scheme: bound type variables plus a body.
type TypeSchema struct {
	Span     Span
	TypeArgs []DeclIdent
	Type     Type
}

// SplitFuncType splits arrows off the front of t, at most max of them
// (max < 0 means all). Returns the argument types and the remainder.
func SplitFuncType(t Type, max int) (args []Type, res Type) {
	res = t
	for max != 0 {
		ft, ok := res.(*TypeFunc)
		if !ok {
			break
		}
		args = append(args, ft.Arg)
		res = ft.Res
		max--
	}
	return args, res
}

// FuncType folds argument types and a result into a right-nested arrow.
func FuncType(args []Type, res Type) Type {
	for i := len(args) - 1; i >= 0; i-- {
		res = &TypeFunc{Span: args[i].TypeSpan().Union(res.TypeSpan()), Arg: args[i], Res: res}
	}
	return res
}

// TypeConApp splits a left-nested application chain. If the head is a
// TypeCon it is returned along with the argument list in source order;
// otherwise ok is false.
func TypeConApp(t Type) (con *TypeCon, args []Type, ok bool) {
	for {
		switch n := t.(type) {
		case *TypeApp:
			args = append([]Type{n.Arg}, args...)
			t = n.Fn
		case *TypeCon:
			return n, args, true
		default:
			return nil, nil, false
		}
	}
}

// ApplyType folds a head type and arguments into a left-nested chain.
func ApplyType(head Type, args []Type) Type {
	for _, a := range args {
		head = &TypeApp{Span: head.TypeSpan().Union(a.TypeSpan()), Fn: head, Arg: a}
	}
	return head
}

// SubstTypeVars replaces type variables by name. Types are immutable
// trees, so substitution rebuilds the spine.
func SubstTypeVars(t Type, subst map[string]Type) Type {
	switch n := t.(type) {
	case *TypeVar:
		if r, ok := subst[n.Ident]; ok {
			return r
		}
		return n
	case *TypeCon:
		return n
	case *TypeApp:
		return &TypeApp{Span: n.Span, Fn: SubstTypeVars(n.Fn, subst), Arg: SubstTypeVars(n.Arg, subst)}
	case *TypeFunc:
		return &TypeFunc{Span: n.Span, Arg: SubstTypeVars(n.Arg, subst), Res: SubstTypeVars(n.Res, subst)}
	}
	return t
}

// TypeConNames collects every type-constructor name referenced by t,
// in left-to-right source order.
func TypeConNames(t Type) []Name {
	var names []Name
	var walk func(Type)
	walk = func(t Type) {
		switch n := t.(type) {
		case *TypeCon:
			names = append(names, n.Name)
		case *TypeApp:
			walk(n.Fn)
			walk(n.Arg)
		case *TypeFunc:
			walk(n.Arg)
			walk(n.Res)
		}
	}
	walk(t)
	return names
}

// TypeString renders t for diagnostics (not for code emission).
func TypeString(t Type) string {
	var b strings.Builder
	writeType(&b, t, false)
	return b.String()
}

func writeType(b *strings.Builder, t Type, nested bool) {
	switch n := t.(type) {
	case *TypeVar:
		b.WriteString(n.Ident)
	case *TypeCon:
		// no parentheses around symbolic type constructors: the
		// rendered form ([] a, (,) a b) must re-parse
		if n.Name.Mod != "" {
			b.WriteString(n.Name.Mod)
			b.WriteByte('.')
		}
		b.WriteString(n.Name.Ident)
	case *TypeApp:
		if nested {
			b.WriteByte('(')
		}
		writeType(b, n.Fn, false)
		b.WriteByte(' ')
		writeType(b, n.Arg, true)
		if nested {
			b.WriteByte(')')
		}
	case *TypeFunc:
		if nested {
			b.WriteByte('(')
		}
		writeType(b, n.Arg, true)
		b.WriteString(" -> ")
		writeType(b, n.Res, false)
		if nested {
			b.WriteByte(')')
		}
	}
}
