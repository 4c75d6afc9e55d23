package hascoq

import (
	"github.com/hascoq/hascoq/coq"
	"github.com/hascoq/hascoq/ir"
)

func (ctx *Ctx) convertFuncDecls() []coq.Sentence {
	decls := ctx.mod.FuncDecls
	names := make([]string, len(decls))
	for i := range decls {
		names[i] = decls[i].Ident.Name
	}
	sccs := funcDeclSCCs(decls, ctx.resolverFor(names))
	var sentences []coq.Sentence
	for _, scc := range sccs {
		members := make([]*ir.FuncDecl, len(scc.Decls))
		for i, j := range scc.Decls {
			members[i] = decls[j]
		}
		sentences = append(sentences, ctx.convertFuncSCC(scc.Recursive, members)...)
	}
	return sentences
}

// convertFuncSCC registers the entries of one component (so mutual
// references resolve before any body is converted) and emits its
// sentences: a single Definition for a non-recursive component, or a
// mutual Fixpoint of helpers followed by one driver Definition per
// member for a recursive one.
func (ctx *Ctx) convertFuncSCC(recursive bool, decls []*ir.FuncDecl) []coq.Sentence {
	partial := ctx.sccIsPartial(decls)
	for _, d := range decls {
		ctx.registerFunc(d, partial)
	}
	if !recursive {
		return []coq.Sentence{ctx.funcDefinition(decls[0])}
	}

	memberIdx := make(map[string]int, len(decls))
	for i, d := range decls {
		memberIdx[d.Ident.Name] = i
	}
	isMember := func(name ir.Name) (int, bool) {
		if name.Symbol {
			return 0, false
		}
		if name.IsQualified() && name.Mod != ctx.env.CurrentModule() {
			return 0, false
		}
		i, ok := memberIdx[name.Ident]
		return i, ok
	}
	tuple, ok := guessDecArgs(decls, isMember)
	if !ok {
		ctx.fatalf(decls[0].Ident.Span,
			"cannot determine decreasing argument for %s", decls[0].Ident.Name)
	}
	for j, d := range decls {
		ctx.env.SetDecArg(ctx.localName(d.Ident.Name), tuple[j])
	}

	helpers, drivers := ctx.transformSCC(decls, tuple)
	for _, h := range helpers {
		ctx.define(h.span, &FuncEntry{
			Name:       ctx.localName(h.srcName),
			Arity:      len(h.params),
			TypeArgs:   h.typeArgs,
			ArgTypes:   h.argTypes,
			ReturnType: h.retType,
			Partial:    partial,
			DecArgPure: true,
			Target:     h.target,
		})
		ctx.env.SetDecArg(ctx.localName(h.srcName), h.decIndex)
	}

	fix := coq.Fixpoint{}
	for _, h := range helpers {
		fix.Bodies = append(fix.Bodies, ctx.helperFixBody(h, partial))
	}
	sentences := []coq.Sentence{fix}
	for _, d := range drivers {
		sentences = append(sentences, ctx.funcDefinition(d))
	}
	return sentences
}

// registerFunc splits the declared signature against the argument
// patterns and defines the function's entry.
func (ctx *Ctx) registerFunc(d *ir.FuncDecl, partial bool) {
	schema, ok := ctx.mod.FindSig(d.Ident.Name)
	if !ok {
		ctx.fatalf(d.Ident.Span, "missing type signature for function %s", d.Ident.Name)
	}
	args, ret := ir.SplitFuncType(schema.Type, d.Arity())
	if len(args) < d.Arity() {
		ctx.fatalf(d.Ident.Span,
			"function %s takes %d arguments but its signature provides %d",
			d.Ident.Name, d.Arity(), len(args))
	}
	d.TypeArgs = schema.TypeArgs
	d.ReturnType = ret

	target := ctx.takeIdent(d.Ident.Span, d.Ident.Name)
	ctx.define(d.Ident.Span, &FuncEntry{
		Name:       ctx.localName(d.Ident.Name),
		Arity:      d.Arity(),
		TypeArgs:   declIdentNames(schema.TypeArgs),
		ArgTypes:   args,
		ReturnType: ret,
		Partial:    partial,
		Target:     target,
	})
}

// sccIsPartial decides the partiality flag shared by the members of a
// component: a member is partial when its body contains undefined or
// error, or applies a function already flagged partial. Members of one
// SCC call each other, so the flag is shared.
func (ctx *Ctx) sccIsPartial(decls []*ir.FuncDecl) bool {
	for _, d := range decls {
		if containsPartialExpr(d.Rhs) {
			return true
		}
		params := make([]string, len(d.Pats))
		for i, p := range d.Pats {
			params[i] = p.Ident
		}
		for _, name := range ir.ReferencedNames(d.Rhs, params...) {
			entry, err := ctx.env.Lookup(ValueScope, name)
			if err != nil {
				// same-SCC references are not registered yet; unknown
				// names surface during body conversion
				continue
			}
			if fe, ok := entry.(*FuncEntry); ok && fe.Partial {
				return true
			}
		}
	}
	return false
}

func containsPartialExpr(e ir.Expr) bool {
	switch n := e.(type) {
	case *ir.Undefined, *ir.ErrorCall:
		return true
	case *ir.App:
		return containsPartialExpr(n.Fn) || containsPartialExpr(n.Arg)
	case *ir.If:
		return containsPartialExpr(n.Cond) || containsPartialExpr(n.Then) || containsPartialExpr(n.Else)
	case *ir.Case:
		if containsPartialExpr(n.Scrutinee) {
			return true
		}
		for _, alt := range n.Alts {
			if containsPartialExpr(alt.Rhs) {
				return true
			}
		}
	case *ir.Lambda:
		return containsPartialExpr(n.Body)
	}
	return false
}

// funcDefinition emits one non-recursive function (or recursion
// driver) as a Definition. The binder order is fixed: the generic
// arguments, the Partial instance if any, the implicit type arguments,
// then the lifted value arguments.
func (ctx *Ctx) funcDefinition(d *ir.FuncDecl) coq.Sentence {
	entry := ctx.lookupValue(d.Ident.Span, ctx.localName(d.Ident.Name)).(*FuncEntry)

	ctx.env.PushScope()
	defer ctx.env.PopScope()
	ctx.env.BeginLocalIdents()
	defer ctx.env.EndLocalIdents()

	binders := shapePosBinders()
	if entry.Partial {
		binders = append(binders, partialBinder())
	}
	for _, tv := range d.TypeArgs {
		e, err := ctx.env.defineTypeVar(tv.Name)
		if err != nil {
			ctx.fatalf(tv.Span, "%s", err)
		}
		binders = append(binders, coq.NewImplicitBinder(e.Target, typeIdent))
	}
	for i, p := range d.Pats {
		ve := ctx.defineVar(p, false)
		binders = append(binders, coq.NewBinder(ve.Target, ctx.liftType(entry.ArgTypes[i])))
	}

	prev := ctx.inPartial
	ctx.inPartial = entry.Partial
	defer func() { ctx.inPartial = prev }()

	return coq.Definition{
		Name:       entry.Target,
		Binders:    binders,
		ReturnType: ctx.liftType(entry.ReturnType),
		Body:       ctx.liftExpr(d.Rhs),
	}
}

// helperFixBody emits one recursion helper as a body of the common
// Fixpoint block. The decreasing argument is bound unlifted and is the
// struct annotation; it is the only pure variable in scope.
func (ctx *Ctx) helperFixBody(h *helperInfo, partial bool) coq.FixBody {
	ctx.env.PushScope()
	defer ctx.env.PopScope()
	ctx.env.BeginLocalIdents()
	defer ctx.env.EndLocalIdents()

	binders := shapePosBinders()
	if partial {
		binders = append(binders, partialBinder())
	}
	for _, tv := range h.typeArgs {
		e, err := ctx.env.defineTypeVar(tv)
		if err != nil {
			ctx.fatalf(h.span, "%s", err)
		}
		binders = append(binders, coq.NewImplicitBinder(e.Target, typeIdent))
	}
	structArg := ""
	for i, p := range h.params {
		pure := i == h.decIndex
		ve := ctx.defineVar(p, pure)
		var ty coq.Expr
		if pure {
			ty = ctx.liftTypeStar(h.argTypes[i])
			structArg = ve.Target
		} else {
			ty = ctx.liftType(h.argTypes[i])
		}
		binders = append(binders, coq.NewBinder(ve.Target, ty))
	}

	prev := ctx.inPartial
	ctx.inPartial = partial
	defer func() { ctx.inPartial = prev }()

	return coq.FixBody{
		Name:       h.target,
		Binders:    binders,
		StructArg:  structArg,
		ReturnType: ctx.liftType(h.retType),
		Body:       ctx.liftExpr(h.body),
	}
}
