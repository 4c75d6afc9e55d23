package hascoq

import (
	"github.com/hascoq/hascoq/coq"
	"github.com/hascoq/hascoq/ir"
)

// Lifting of types and expressions into the free-monad encoding. The
// two monad parameters Shape and Pos are threaded through every
// polymorphic construct; every emitted expression has a type of the
// form Free Shape Pos τ*.

var (
	shapeIdent   = coq.Ident("Shape")
	posIdent     = coq.Ident("Pos")
	partialIdent = coq.Ident("P")
	freeIdent    = coq.Ident("Free")
	pureIdent    = coq.Ident("pure")
	bindIdent    = coq.Ident("bind")
	typeIdent    = coq.Ident("Type")
)

// shapePosBinders are the generic binders opening every generated
// definition.
func shapePosBinders() []coq.Binder {
	return []coq.Binder{
		coq.NewBinder("Shape", typeIdent),
		coq.NewBinder("Pos", &coq.Arrow{From: shapeIdent, To: typeIdent}),
	}
}

func partialBinder() coq.Binder {
	return coq.NewBinder("P", coq.NewApp(coq.Ident("Partial"), shapeIdent, posIdent))
}

// liftType translates τ to its fully lifted form τ† = Free Shape Pos τ*.
func (ctx *Ctx) liftType(t ir.Type) coq.Expr {
	return coq.NewApp(freeIdent, shapeIdent, posIdent, ctx.liftTypeStar(t))
}

// liftTypeStar translates τ to τ*: type variables rename, constructor
// applications gain the two monad parameters, and arrows lift both
// sides.
func (ctx *Ctx) liftTypeStar(t ir.Type) coq.Expr {
	switch n := t.(type) {
	case *ir.TypeVar:
		entry := ctx.lookupType(n.Span, ir.Ident(n.Ident))
		tv, ok := entry.(*TypeVarEntry)
		if !ok {
			ctx.fatalf(n.Span, "%s is not a type variable", n.Ident)
		}
		return coq.Ident(tv.Target)
	case *ir.TypeFunc:
		return &coq.Arrow{From: ctx.liftType(n.Arg), To: ctx.liftType(n.Res)}
	case *ir.TypeCon, *ir.TypeApp:
		con, args, ok := ir.TypeConApp(t)
		if !ok {
			ctx.fatalf(t.TypeSpan(), "type application must have a type constructor head")
		}
		entry := ctx.lookupType(con.Span, con.Name)
		var target string
		var arity int
		switch e := entry.(type) {
		case *DataEntry:
			target, arity = e.Target, e.Arity
		case *TypeSynEntry:
			target, arity = e.Target, len(e.TypeArgs)
		case *TypeVarEntry:
			if len(args) != 0 {
				ctx.fatalf(con.Span, "type variable %s cannot be applied", con.Name)
			}
			return coq.Ident(e.Target)
		default:
			ctx.fatalf(con.Span, "%s is not a type constructor", con.Name)
		}
		if len(args) != arity {
			ctx.fatalf(t.TypeSpan(), "type constructor %s expects %d arguments, got %d",
				con.Name, arity, len(args))
		}
		lifted := []coq.Expr{shapeIdent, posIdent}
		for _, a := range args {
			lifted = append(lifted, ctx.liftTypeStar(a))
		}
		return coq.NewApp(coq.Ident(target), lifted...)
	}
	ctx.fatalf(t.TypeSpan(), "unsupported type")
	return nil
}

// expandSynonyms eagerly replaces applications of the given type
// synonyms (the ones in the recursive SCC currently being emitted)
// inside t. A synonym that expands into itself is a synonym cycle.
func (ctx *Ctx) expandSynonyms(t ir.Type, expand map[string]*TypeSynEntry, visiting []string) ir.Type {
	switch n := t.(type) {
	case *ir.TypeVar:
		return n
	case *ir.TypeFunc:
		return &ir.TypeFunc{
			Span: n.Span,
			Arg:  ctx.expandSynonyms(n.Arg, expand, visiting),
			Res:  ctx.expandSynonyms(n.Res, expand, visiting),
		}
	case *ir.TypeCon, *ir.TypeApp:
		con, args, ok := ir.TypeConApp(t)
		if !ok {
			return t
		}
		for i, a := range args {
			args[i] = ctx.expandSynonyms(a, expand, visiting)
		}
		syn, ok := expand[con.Name.Ident]
		if !ok {
			return ir.ApplyType(con, args)
		}
		for _, v := range visiting {
			if v == con.Name.Ident {
				ctx.fatalf(con.Span, "mutually recursive type synonym %s", con.Name)
			}
		}
		if len(args) != len(syn.TypeArgs) {
			ctx.fatalf(t.TypeSpan(), "type synonym %s expects %d arguments, got %d",
				con.Name, len(syn.TypeArgs), len(args))
		}
		subst := make(map[string]ir.Type, len(args))
		for i, v := range syn.TypeArgs {
			subst[v] = args[i]
		}
		body := ir.SubstTypeVars(syn.Rhs, subst)
		return ctx.expandSynonyms(body, expand, append(visiting, con.Name.Ident))
	}
	return t
}

// liftExpr translates a source expression; the emitted term has type
// Free Shape Pos τ* for the expression's type τ.
func (ctx *Ctx) liftExpr(e ir.Expr) coq.Expr {
	switch n := e.(type) {
	case *ir.Var, *ir.Con, *ir.App:
		return ctx.liftApp(e)
	case *ir.If:
		cond := ctx.liftExpr(n.Cond)
		return ctx.bindExpr(cond, bindHint(n.Cond), func(c coq.Expr) coq.Expr {
			return &coq.Match{
				Scrutinee: c,
				Arms: []coq.MatchArm{
					{Con: "true", Body: ctx.liftExpr(n.Then)},
					{Con: "false", Body: ctx.liftExpr(n.Else)},
				},
			}
		})
	case *ir.Case:
		scrut := ctx.liftExpr(n.Scrutinee)
		return ctx.bindExpr(scrut, bindHint(n.Scrutinee), func(v coq.Expr) coq.Expr {
			return &coq.Match{Scrutinee: v, Arms: ctx.liftAlts(n)}
		})
	case *ir.Lambda:
		ctx.env.PushScope()
		defer ctx.env.PopScope()
		binders := make([]string, len(n.Pats))
		for i, p := range n.Pats {
			entry := ctx.defineVar(p, false)
			binders[i] = entry.Target
		}
		res := ctx.liftExpr(n.Body)
		for i := len(binders) - 1; i >= 0; i-- {
			res = coq.NewApp(pureIdent, &coq.Fun{Binders: []string{binders[i]}, Body: res})
		}
		return res
	case *ir.IntLit:
		return coq.NewApp(pureIdent, coq.ZLit(n.Value))
	case *ir.Undefined:
		ctx.requirePartial(n.ExprSpan())
		return coq.NewApp(coq.Ident("undefined"), shapeIdent, posIdent, partialIdent)
	case *ir.ErrorCall:
		ctx.requirePartial(n.ExprSpan())
		return coq.NewApp(coq.Ident("error"), shapeIdent, posIdent, partialIdent, coq.StringLit(n.Msg))
	}
	ctx.fatalf(e.ExprSpan(), "unsupported expression")
	return nil
}

// liftAlts translates the alternatives of a case expression into match
// arms over the raw constructors.
func (ctx *Ctx) liftAlts(c *ir.Case) []coq.MatchArm {
	arms := make([]coq.MatchArm, 0, len(c.Alts))
	for _, alt := range c.Alts {
		entry := ctx.lookupValue(alt.Con.Span, alt.Con.Name)
		ce, ok := entry.(*ConEntry)
		if !ok {
			ctx.fatalf(alt.Con.Span, "%s is not a constructor", alt.Con.Name)
		}
		if len(alt.Vars) != ce.Arity {
			ctx.fatalf(alt.Span, "constructor %s has arity %d, pattern binds %d variables",
				alt.Con.Name, ce.Arity, len(alt.Vars))
		}
		func() {
			ctx.env.PushScope()
			defer ctx.env.PopScope()
			vars := make([]string, len(alt.Vars))
			for i, v := range alt.Vars {
				vars[i] = ctx.defineVar(v, false).Target
			}
			arms = append(arms, coq.MatchArm{
				Con:  ce.Target,
				Vars: vars,
				Body: ctx.liftExpr(alt.Rhs),
			})
		}()
	}
	return arms
}

// liftApp translates an application spine (or a bare reference).
func (ctx *Ctx) liftApp(e ir.Expr) coq.Expr {
	head, args := ir.Spine(e)
	switch n := head.(type) {
	case *ir.Var:
		entry := ctx.lookupValue(n.ExprSpan(), n.Name)
		switch entry := entry.(type) {
		case *VarEntry:
			var base coq.Expr = coq.Ident(entry.Target)
			if entry.PureVar {
				base = coq.NewApp(pureIdent, base)
			}
			return ctx.chainApply(base, args)
		case *FuncEntry:
			return ctx.liftEntryCall(n.ExprSpan(), head, entry.Target, entry, args)
		case *ConEntry:
			return ctx.liftConCall(n.ExprSpan(), head, entry, args)
		}
		ctx.fatalf(n.ExprSpan(), "%s cannot be used as a value", n.Name)
	case *ir.Con:
		entry := ctx.lookupValue(n.ExprSpan(), n.Name)
		ce, ok := entry.(*ConEntry)
		if !ok {
			ctx.fatalf(n.ExprSpan(), "%s is not a constructor", n.Name)
		}
		return ctx.liftConCall(n.ExprSpan(), head, ce, args)
	default:
		return ctx.chainApply(ctx.liftExpr(head), args)
	}
	return nil
}

// liftEntryCall emits a saturated call to a top-level function,
// eta-expanding first when the call site is partial. The generic
// arguments come first, then the Partial instance if the callee is
// partial, then the lifted value arguments. For a recursion helper the
// decreasing-position argument is bind-opened so it passes
// structurally.
func (ctx *Ctx) liftEntryCall(span ir.Span, head ir.Expr, target string, f *FuncEntry, args []ir.Expr) coq.Expr {
	if len(args) < f.Arity {
		return ctx.liftExpr(ctx.etaExpand(head, args, f.Arity))
	}
	if f.Partial {
		ctx.requirePartial(span)
	}
	direct := args[:f.Arity]
	rest := args[f.Arity:]

	generic := []coq.Expr{shapeIdent, posIdent}
	if f.Partial {
		generic = append(generic, partialIdent)
	}

	var call coq.Expr
	if f.DecArgPure {
		dec, ok := ctx.env.DecArg(f.Name)
		if !ok {
			ctx.fatalf(span, "no decreasing argument recorded for %s", f.Name)
		}
		lifted := make([]coq.Expr, len(direct))
		for i, a := range direct {
			lifted[i] = ctx.liftExpr(a)
		}
		call = ctx.bindExpr(lifted[dec], bindHint(direct[dec]), func(pure coq.Expr) coq.Expr {
			callArgs := append([]coq.Expr{}, generic...)
			for i, a := range lifted {
				if i == dec {
					callArgs = append(callArgs, pure)
				} else {
					callArgs = append(callArgs, a)
				}
			}
			return coq.NewApp(coq.Ident(target), callArgs...)
		})
	} else {
		callArgs := append([]coq.Expr{}, generic...)
		for _, a := range direct {
			callArgs = append(callArgs, ctx.liftExpr(a))
		}
		call = coq.NewApp(coq.Ident(target), callArgs...)
	}
	return ctx.chainApply(call, rest)
}

// liftConCall emits a call to a constructor through its smart
// constructor.
func (ctx *Ctx) liftConCall(span ir.Span, head ir.Expr, ce *ConEntry, args []ir.Expr) coq.Expr {
	if len(args) < ce.Arity {
		return ctx.liftExpr(ctx.etaExpand(head, args, ce.Arity))
	}
	if len(args) > ce.Arity {
		ctx.fatalf(span, "constructor %s applied to %d arguments, arity is %d",
			ce.Name, len(args), ce.Arity)
	}
	callArgs := []coq.Expr{shapeIdent, posIdent}
	for _, a := range args {
		callArgs = append(callArgs, ctx.liftExpr(a))
	}
	return coq.NewApp(coq.Ident(ce.SmartTarget), callArgs...)
}

// chainApply applies leftover arguments one by one: each intermediate
// result is a monadic function, so every step binds it first.
func (ctx *Ctx) chainApply(base coq.Expr, args []ir.Expr) coq.Expr {
	for _, a := range args {
		arg := ctx.liftExpr(a)
		base = ctx.bindExpr(base, "f", func(f coq.Expr) coq.Expr {
			return coq.NewApp(f, arg)
		})
	}
	return base
}

// bindExpr generates bind lhs (fun x => k x). When the left-hand side
// is syntactically pure t, t is substituted directly and the bind is
// omitted.
func (ctx *Ctx) bindExpr(lhs coq.Expr, hint string, k func(coq.Expr) coq.Expr) coq.Expr {
	if app, ok := lhs.(*coq.App); ok {
		if fn, ok := app.Fn.(coq.Ident); ok && fn == pureIdent && len(app.Args) == 1 {
			return k(app.Args[0])
		}
	}
	x := ctx.env.FreshIdent(hint)
	return coq.NewApp(bindIdent, lhs, &coq.Fun{Binders: []string{x}, Body: k(coq.Ident(x))})
}

// bindHint picks the fresh-variable prefix for a bind from the bound
// value's name when it has one.
func bindHint(e ir.Expr) string {
	if v, ok := e.(*ir.Var); ok && !v.Name.Symbol {
		return v.Name.Ident
	}
	return FreshPrefix
}

// etaExpand wraps a partially applied head in a lambda introducing
// fresh variables until the arity is met. Only the outermost
// expression of a spine is expanded; nested calls take this path on
// their own when they are translated.
func (ctx *Ctx) etaExpand(head ir.Expr, args []ir.Expr, arity int) ir.Expr {
	missing := arity - len(args)
	pats := make([]ir.VarPat, missing)
	fullArgs := append([]ir.Expr{}, args...)
	for i := 0; i < missing; i++ {
		id := ctx.env.FreshSourceIdent(FreshPrefix)
		pats[i] = ir.VarPat{Span: ir.NoSpan, Ident: id}
		fullArgs = append(fullArgs, ir.NewVar(ir.NoSpan, ir.Ident(id)))
	}
	return &ir.Lambda{Pats: pats, Body: ir.Apply(head, fullArgs...)}
}

// defineVar renames and defines a pattern binder in the current scope.
func (ctx *Ctx) defineVar(p ir.VarPat, pure bool) *VarEntry {
	entry, err := ctx.env.defineVar(p.Ident, pure)
	if err != nil {
		ctx.fatalf(p.Span, "%s", err)
	}
	return entry
}

// requirePartial checks that the function being converted declares the
// Partial instance binder.
func (ctx *Ctx) requirePartial(span ir.Span) {
	if !ctx.inPartial {
		ctx.fatalf(span, "partial expression in a function not marked partial")
	}
}
