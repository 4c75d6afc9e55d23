package hascoq

import (
	"github.com/hascoq/hascoq/ir"
)

// Local type propagation. Signatures are mandatory, so the types of
// function parameters are always known; constructor entries carry
// their field and return types. That is enough to give types to the
// binders and subexpressions the recursion transformer needs (helper
// closures must be annotated in the emitted Fixpoint), without running
// full Hindley-Milner inference. Where propagation comes up empty the
// transformer reports a fatal diagnostic.

// matchType matches pattern against concrete, binding the pattern's
// type variables. Pattern variables come from a callee's schema;
// concrete types from the caller's scope. Returns false on a shape
// mismatch (bindings may be partially filled then).
func matchType(pattern, concrete ir.Type, binding map[string]ir.Type) bool {
	switch p := pattern.(type) {
	case *ir.TypeVar:
		if prev, ok := binding[p.Ident]; ok {
			return typeEqual(prev, concrete)
		}
		binding[p.Ident] = concrete
		return true
	case *ir.TypeCon:
		c, ok := concrete.(*ir.TypeCon)
		return ok && sameTypeConName(p.Name, c.Name)
	case *ir.TypeApp:
		c, ok := concrete.(*ir.TypeApp)
		return ok && matchType(p.Fn, c.Fn, binding) && matchType(p.Arg, c.Arg, binding)
	case *ir.TypeFunc:
		c, ok := concrete.(*ir.TypeFunc)
		return ok && matchType(p.Arg, c.Arg, binding) && matchType(p.Res, c.Res, binding)
	}
	return false
}

func typeEqual(a, b ir.Type) bool {
	switch x := a.(type) {
	case *ir.TypeVar:
		y, ok := b.(*ir.TypeVar)
		return ok && x.Ident == y.Ident
	case *ir.TypeCon:
		y, ok := b.(*ir.TypeCon)
		return ok && sameTypeConName(x.Name, y.Name)
	case *ir.TypeApp:
		y, ok := b.(*ir.TypeApp)
		return ok && typeEqual(x.Fn, y.Fn) && typeEqual(x.Arg, y.Arg)
	case *ir.TypeFunc:
		y, ok := b.(*ir.TypeFunc)
		return ok && typeEqual(x.Arg, y.Arg) && typeEqual(x.Res, y.Res)
	}
	return false
}

// sameTypeConName compares constructor names up to qualification; the
// environment has already ensured both resolve.
func sameTypeConName(a, b ir.Name) bool {
	return a.Ident == b.Ident
}

// typeVarsIn collects the type-variable identifiers of t in order of
// first occurrence.
func typeVarsIn(t ir.Type, acc map[string]bool, order *[]string) {
	switch n := t.(type) {
	case *ir.TypeVar:
		if !acc[n.Ident] {
			acc[n.Ident] = true
			*order = append(*order, n.Ident)
		}
	case *ir.TypeApp:
		typeVarsIn(n.Fn, acc, order)
		typeVarsIn(n.Arg, acc, order)
	case *ir.TypeFunc:
		typeVarsIn(n.Arg, acc, order)
		typeVarsIn(n.Res, acc, order)
	}
}

// scopeBinding is one in-scope value binder with its (possibly
// unknown) type.
type scopeBinding struct {
	ident string
	typ   ir.Type
}

// typeScope is the ordered list of in-scope binders during a
// transformer walk. Lookup is innermost-first so shadowing works.
type typeScope struct {
	bindings []scopeBinding
}

func (s *typeScope) push(ident string, typ ir.Type) {
	s.bindings = append(s.bindings, scopeBinding{ident, typ})
}

func (s *typeScope) mark() int {
	return len(s.bindings)
}

func (s *typeScope) release(mark int) {
	s.bindings = s.bindings[:mark]
}

func (s *typeScope) lookup(ident string) (ir.Type, bool) {
	for i := len(s.bindings) - 1; i >= 0; i-- {
		if s.bindings[i].ident == ident {
			return s.bindings[i].typ, s.bindings[i].typ != nil
		}
	}
	return nil, false
}

// isLocal reports whether ident is a local binder (as opposed to a
// top-level function reference).
func (s *typeScope) isLocal(ident string) bool {
	for i := len(s.bindings) - 1; i >= 0; i-- {
		if s.bindings[i].ident == ident {
			return true
		}
	}
	return false
}

// synthType computes the type of e bottom-up where syntactically
// possible. It never reports errors; callers fall back to expected
// types or diagnostics.
func (ctx *Ctx) synthType(e ir.Expr, scope *typeScope) (ir.Type, bool) {
	if t := e.Annot(); t != nil {
		return t, true
	}
	head, args := ir.Spine(e)
	switch n := head.(type) {
	case *ir.Var:
		if !n.Name.IsQualified() && !n.Name.Symbol && scope.isLocal(n.Name.Ident) {
			t, ok := scope.lookup(n.Name.Ident)
			if !ok {
				return nil, false
			}
			return ctx.applyArgs(t, args, scope)
		}
		entry, err := ctx.env.Lookup(ValueScope, n.Name)
		if err != nil {
			return nil, false
		}
		fe, ok := entry.(*FuncEntry)
		if !ok {
			return nil, false
		}
		return ctx.applyEntryArgs(fe.ArgTypes, fe.ReturnType, len(fe.TypeArgs) > 0, args, scope)
	case *ir.Con:
		entry, err := ctx.env.Lookup(ValueScope, n.Name)
		if err != nil {
			return nil, false
		}
		ce, ok := entry.(*ConEntry)
		if !ok {
			return nil, false
		}
		return ctx.applyEntryArgs(ce.ArgTypes, ce.ReturnType, polymorphicReturn(ce.ReturnType), args, scope)
	case *ir.IntLit:
		return integerType(n.ExprSpan()), true
	case *ir.If:
		if t, ok := ctx.synthType(n.Then, scope); ok {
			return ctx.applyArgs(t, args, scope)
		}
		if t, ok := ctx.synthType(n.Else, scope); ok {
			return ctx.applyArgs(t, args, scope)
		}
		return nil, false
	case *ir.Case:
		mark := scope.mark()
		defer scope.release(mark)
		for _, alt := range n.Alts {
			ctx.pushAltBinders(n, alt, scope)
			t, ok := ctx.synthType(alt.Rhs, scope)
			scope.release(mark)
			if ok {
				return ctx.applyArgs(t, args, scope)
			}
		}
		return nil, false
	}
	return nil, false
}

// applyArgs peels one arrow per argument off a known head type.
func (ctx *Ctx) applyArgs(t ir.Type, args []ir.Expr, scope *typeScope) (ir.Type, bool) {
	for range args {
		ft, ok := t.(*ir.TypeFunc)
		if !ok {
			return nil, false
		}
		t = ft.Res
	}
	return t, true
}

// applyEntryArgs instantiates a callee's argument and return types
// against the synthesized types of the actual arguments. For a
// monomorphic callee no matching is needed; a polymorphic one needs
// enough informative arguments to pin its type variables down.
func (ctx *Ctx) applyEntryArgs(argTypes []ir.Type, retType ir.Type, polymorphic bool, args []ir.Expr, scope *typeScope) (ir.Type, bool) {
	if retType == nil {
		return nil, false
	}
	if !polymorphic {
		rest := argTypes
		if len(args) < len(argTypes) {
			rest = argTypes[len(args):]
			return ir.FuncType(rest, retType), true
		}
		t := retType
		return ctx.applyArgs(t, args[len(argTypes):], scope)
	}
	binding := map[string]ir.Type{}
	limit := len(args)
	if limit > len(argTypes) {
		limit = len(argTypes)
	}
	for i := 0; i < limit; i++ {
		at, ok := ctx.synthType(args[i], scope)
		if !ok {
			continue
		}
		matchType(argTypes[i], at, binding)
	}
	inst := func(t ir.Type) (ir.Type, bool) {
		acc := map[string]bool{}
		var order []string
		typeVarsIn(t, acc, &order)
		for _, v := range order {
			if _, ok := binding[v]; !ok {
				return nil, false
			}
		}
		return ir.SubstTypeVars(t, binding), true
	}
	if len(args) < len(argTypes) {
		t, ok := inst(ir.FuncType(argTypes[len(args):], retType))
		return t, ok
	}
	t, ok := inst(retType)
	if !ok {
		return nil, false
	}
	return ctx.applyArgs(t, args[len(argTypes):], scope)
}

func polymorphicReturn(t ir.Type) bool {
	acc := map[string]bool{}
	var order []string
	if t != nil {
		typeVarsIn(t, acc, &order)
	}
	return len(order) > 0
}

// pushAltBinders types and pushes the binders of one case alternative,
// using the scrutinee's synthesized type to instantiate the
// constructor's field types. Binders whose type cannot be determined
// are pushed untyped.
func (ctx *Ctx) pushAltBinders(c *ir.Case, alt ir.Alt, scope *typeScope) {
	var fieldTypes []ir.Type
	if entry, err := ctx.env.Lookup(ValueScope, alt.Con.Name); err == nil {
		if ce, ok := entry.(*ConEntry); ok && ce.ReturnType != nil {
			if st, ok := ctx.synthType(c.Scrutinee, scope); ok {
				binding := map[string]ir.Type{}
				if matchType(ce.ReturnType, st, binding) {
					for _, ft := range ce.ArgTypes {
						fieldTypes = append(fieldTypes, ir.SubstTypeVars(ft, binding))
					}
				}
			}
		}
	}
	for i, v := range alt.Vars {
		var t ir.Type
		if i < len(fieldTypes) {
			t = fieldTypes[i]
		}
		scope.push(v.Ident, t)
	}
}

func integerType(span ir.Span) ir.Type {
	return &ir.TypeCon{Span: span, Name: ir.Ident("Integer")}
}
