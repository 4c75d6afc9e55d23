package hascoq

import (
	"github.com/hascoq/hascoq/ir"
)

// The recursion transformation. A Gallina Fixpoint needs its body to
// match on the decreasing argument at the top level, while a source
// body may match on it at several nested positions. Each outermost
// `case x of` on the decreasing argument x is therefore moved into a
// fresh helper function closing over the variables in scope; the
// remaining body becomes a non-recursive driver Definition. Calls from
// helper bodies to SCC members are then inlined one level (driver
// expansion), after which the helpers are structurally recursive on x
// alone and can be emitted as one mutual Fixpoint block.

// helperInfo describes one extracted helper before emission.
type helperInfo struct {
	srcName  string // generated source-level name, contains '#'
	target   string // claimed Gallina identifier
	typeArgs []string
	params   []ir.VarPat
	argTypes []ir.Type
	retType  ir.Type
	decIndex int
	body     ir.Expr
	span     ir.Span
}

// sccTransformer carries the state for transforming one SCC.
type sccTransformer struct {
	ctx     *Ctx
	members map[string]*ir.FuncDecl // by identifier
	helpers []*helperInfo
}

// transformSCC rewrites every member of a recursive SCC into a driver
// plus helpers. tuple holds the decreasing-argument index per member.
func (ctx *Ctx) transformSCC(decls []*ir.FuncDecl, tuple []int) (helpers []*helperInfo, drivers []*ir.FuncDecl) {
	t := &sccTransformer{ctx: ctx, members: make(map[string]*ir.FuncDecl, len(decls))}
	for _, d := range decls {
		t.members[d.Ident.Name] = d
	}

	drivers = make([]*ir.FuncDecl, len(decls))
	for j, d := range decls {
		entry := ctx.lookupValue(d.Ident.Span, ctx.localName(d.Ident.Name)).(*FuncEntry)
		scope := &typeScope{}
		for i, p := range d.Pats {
			var pt ir.Type
			if i < len(entry.ArgTypes) {
				pt = entry.ArgTypes[i]
			}
			scope.push(p.Ident, pt)
		}
		w := &rewriteWalk{
			t:      t,
			decl:   d,
			decVar: d.Pats[tuple[j]].Ident,
		}
		rhs := w.rewrite(d.Rhs, entry.ReturnType, scope)
		driver := *d
		driver.Rhs = rhs
		drivers[j] = &driver
	}

	// single-level driver expansion inside helper bodies
	for _, h := range t.helpers {
		h.body = t.inlineMembers(h.body, drivers)
	}
	return t.helpers, drivers
}

// rewriteWalk walks one member body looking for outermost matches on
// the decreasing variable.
type rewriteWalk struct {
	t        *sccTransformer
	decl     *ir.FuncDecl
	decVar   string
	shadowed int // nesting count of binders rebinding decVar
}

func (w *rewriteWalk) rewrite(e ir.Expr, expected ir.Type, scope *typeScope) ir.Expr {
	if c, ok := e.(*ir.Case); ok && w.isDecMatch(c) {
		return w.extract(c, expected, scope)
	}
	switch n := e.(type) {
	case *ir.Var, *ir.Con, *ir.IntLit, *ir.Undefined, *ir.ErrorCall:
		return e
	case *ir.App:
		return w.rewriteApp(n, scope)
	case *ir.If:
		c := *n
		c.Cond = w.rewrite(n.Cond, nil, scope)
		c.Then = w.rewrite(n.Then, expected, scope)
		c.Else = w.rewrite(n.Else, expected, scope)
		return &c
	case *ir.Case:
		c := *n
		c.Scrutinee = w.rewrite(n.Scrutinee, nil, scope)
		c.Alts = make([]ir.Alt, len(n.Alts))
		for i, alt := range n.Alts {
			mark := scope.mark()
			w.t.ctx.pushAltBinders(n, alt, scope)
			w.enterBinders(alt.Vars)
			alt.Rhs = w.rewrite(alt.Rhs, expected, scope)
			w.leaveBinders(alt.Vars)
			scope.release(mark)
			c.Alts[i] = alt
		}
		return &c
	case *ir.Lambda:
		c := *n
		mark := scope.mark()
		argTypes, res := splitExpected(expected, len(n.Pats))
		for i, p := range n.Pats {
			scope.push(p.Ident, argTypes[i])
		}
		w.enterBinders(n.Pats)
		c.Body = w.rewrite(n.Body, res, scope)
		w.leaveBinders(n.Pats)
		scope.release(mark)
		return &c
	}
	return e
}

// rewriteApp propagates expected argument types from the callee's
// signature where the callee is monomorphic, so matches on the
// decreasing argument in argument position still get a return type.
func (w *rewriteWalk) rewriteApp(e *ir.App, scope *typeScope) ir.Expr {
	head, args := ir.Spine(e)
	var argExpected []ir.Type
	switch n := head.(type) {
	case *ir.Var:
		if !scope.isLocal(n.Name.Ident) {
			if entry, err := w.t.ctx.env.Lookup(ValueScope, n.Name); err == nil {
				if fe, ok := entry.(*FuncEntry); ok && len(fe.TypeArgs) == 0 {
					argExpected = fe.ArgTypes
				}
			}
		}
	case *ir.Con:
		// constructor argument positions are handled like polymorphic
		// calls: the synthesizer recovers types from the scrutinee side
	default:
		head = w.rewrite(head, nil, scope)
	}
	newArgs := make([]ir.Expr, len(args))
	for i, a := range args {
		var exp ir.Type
		if i < len(argExpected) {
			exp = argExpected[i]
		}
		newArgs[i] = w.rewrite(a, exp, scope)
	}
	return ir.Apply(head, newArgs...)
}

// isDecMatch reports whether c matches on the (unshadowed) decreasing
// variable.
func (w *rewriteWalk) isDecMatch(c *ir.Case) bool {
	if w.shadowed > 0 {
		return false
	}
	v, ok := c.Scrutinee.(*ir.Var)
	return ok && !v.Name.IsQualified() && !v.Name.Symbol && v.Name.Ident == w.decVar
}

func (w *rewriteWalk) enterBinders(pats []ir.VarPat) {
	for _, p := range pats {
		if p.Ident == w.decVar {
			w.shadowed++
		}
	}
}

func (w *rewriteWalk) leaveBinders(pats []ir.VarPat) {
	for _, p := range pats {
		if p.Ident == w.decVar {
			w.shadowed--
		}
	}
}

// extract turns one outermost decreasing match into a helper and
// returns the call replacing it.
func (w *rewriteWalk) extract(c *ir.Case, expected ir.Type, scope *typeScope) ir.Expr {
	ctx := w.t.ctx

	free := map[string]bool{}
	for _, v := range ir.FreeVars(c) {
		free[v] = true
	}

	// captured closure: the innermost binding of every free variable,
	// in binding order
	innermost := map[string]int{}
	for i, b := range scope.bindings {
		if free[b.ident] {
			innermost[b.ident] = i
		}
	}
	var params []ir.VarPat
	var argTypes []ir.Type
	decIndex := -1
	for i, b := range scope.bindings {
		if !free[b.ident] || innermost[b.ident] != i {
			continue
		}
		if b.typ == nil {
			ctx.fatalf(c.ExprSpan(), "cannot determine the type of %s, captured by the match on %s",
				b.ident, w.decVar)
		}
		if b.ident == w.decVar {
			decIndex = len(params)
		}
		params = append(params, ir.VarPat{Span: c.ExprSpan(), Ident: b.ident})
		argTypes = append(argTypes, b.typ)
	}
	if decIndex < 0 {
		// the scrutinee is always free in the match
		ctx.fatalf(c.ExprSpan(), "decreasing argument %s not in scope at its match", w.decVar)
	}

	retType := expected
	if retType == nil {
		var ok bool
		retType, ok = ctx.synthType(c, scope)
		if !ok {
			ctx.fatalf(c.ExprSpan(), "cannot determine the result type of the match on %s", w.decVar)
		}
	}

	target := ctx.env.FreshIdent(w.decl.Ident.Name)
	h := &helperInfo{
		srcName:  "#" + target,
		target:   target,
		typeArgs: usedTypeArgs(w.decl.TypeArgs, argTypes, retType),
		params:   params,
		argTypes: argTypes,
		retType:  retType,
		decIndex: decIndex,
		body:     c,
		span:     c.ExprSpan(),
	}
	w.t.helpers = append(w.t.helpers, h)

	call := ir.Expr(ir.NewVar(c.ExprSpan(), ir.Ident(h.srcName)))
	for _, p := range params {
		call = ir.NewApp(call, ir.NewVar(c.ExprSpan(), ir.Ident(p.Ident)))
	}
	ir.SetAnnot(call, retType)
	return call
}

// usedTypeArgs filters the owner's type arguments to the ones
// occurring in the helper's parameter or result types; unused implicit
// binders could never be inferred at the call sites.
func usedTypeArgs(owner []ir.DeclIdent, argTypes []ir.Type, retType ir.Type) []string {
	acc := map[string]bool{}
	var order []string
	for _, t := range argTypes {
		typeVarsIn(t, acc, &order)
	}
	typeVarsIn(retType, acc, &order)
	var out []string
	for _, o := range owner {
		if acc[o.Name] {
			out = append(out, o.Name)
		}
	}
	return out
}

// splitExpected splits an expected arrow type over n binders. Unknown
// positions come back nil.
func splitExpected(t ir.Type, n int) ([]ir.Type, ir.Type) {
	out := make([]ir.Type, n)
	for i := 0; i < n; i++ {
		ft, ok := t.(*ir.TypeFunc)
		if !ok {
			return out, nil
		}
		out[i] = ft.Arg
		t = ft.Res
	}
	return out, t
}

// inlineMembers replaces calls to SCC members inside a helper body by
// the member's transformed right-hand side (a single level). After
// this, helper bodies reference only helpers, earlier definitions and
// local variables.
func (t *sccTransformer) inlineMembers(e ir.Expr, drivers []*ir.FuncDecl) ir.Expr {
	bound := map[string]int{}
	var walk func(ir.Expr) ir.Expr
	walk = func(e ir.Expr) ir.Expr {
		head, args := ir.Spine(e)
		if v, ok := head.(*ir.Var); ok && !v.Name.Symbol && bound[v.Name.Ident] == 0 {
			if d := t.driverFor(v.Name, drivers); d != nil {
				newArgs := make([]ir.Expr, len(args))
				for i, a := range args {
					newArgs[i] = walk(a)
				}
				return t.expandDriver(d, v.ExprSpan(), newArgs)
			}
		}
		switch n := e.(type) {
		case *ir.Var, *ir.Con, *ir.IntLit, *ir.Undefined, *ir.ErrorCall:
			return e
		case *ir.App:
			c := *n
			c.Fn = walk(n.Fn)
			c.Arg = walk(n.Arg)
			return &c
		case *ir.If:
			c := *n
			c.Cond = walk(n.Cond)
			c.Then = walk(n.Then)
			c.Else = walk(n.Else)
			return &c
		case *ir.Case:
			c := *n
			c.Scrutinee = walk(n.Scrutinee)
			c.Alts = make([]ir.Alt, len(n.Alts))
			for i, alt := range n.Alts {
				for _, v := range alt.Vars {
					bound[v.Ident]++
				}
				alt.Rhs = walk(alt.Rhs)
				for _, v := range alt.Vars {
					bound[v.Ident]--
				}
				c.Alts[i] = alt
			}
			return &c
		case *ir.Lambda:
			c := *n
			for _, p := range n.Pats {
				bound[p.Ident]++
			}
			c.Body = walk(n.Body)
			for _, p := range n.Pats {
				bound[p.Ident]--
			}
			return &c
		}
		return e
	}
	return walk(e)
}

func (t *sccTransformer) driverFor(name ir.Name, drivers []*ir.FuncDecl) *ir.FuncDecl {
	if name.IsQualified() && name.Mod != t.ctx.env.CurrentModule() {
		return nil
	}
	if _, ok := t.members[name.Ident]; !ok {
		return nil
	}
	for _, d := range drivers {
		if d.Ident.Name == name.Ident {
			return d
		}
	}
	return nil
}

// expandDriver beta-expands one driver call: the driver's binders are
// freshly renamed, its parameters replaced by the actual arguments,
// and any missing arguments become a wrapping lambda.
func (t *sccTransformer) expandDriver(d *ir.FuncDecl, span ir.Span, args []ir.Expr) ir.Expr {
	ctx := t.ctx
	body := ir.FreshenBinders(d.Rhs, func(hint string) string {
		return ctx.env.FreshSourceIdent(freshBase(hint))
	})

	n := len(d.Pats)
	subst := make(map[string]ir.Expr, n)
	var extraPats []ir.VarPat
	for i, p := range d.Pats {
		if i < len(args) {
			subst[p.Ident] = args[i]
			continue
		}
		id := ctx.env.FreshSourceIdent(freshBase(p.Ident))
		extraPats = append(extraPats, ir.VarPat{Span: span, Ident: id})
		subst[p.Ident] = ir.NewVar(span, ir.Ident(id))
	}
	res := ir.Subst(body, subst)
	if len(extraPats) > 0 {
		res = &ir.Lambda{Pats: extraPats, Body: res}
	}
	if len(args) > n {
		res = ir.Apply(res, args[n:]...)
	}
	return res
}
