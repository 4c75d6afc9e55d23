package ir

// FreeVars returns the identifiers of unqualified variables occurring
// free in e, in order of first occurrence. Constructor and qualified
// references are not included; whether a result names a local binder or
// a top-level function is for the caller to decide.
func FreeVars(e Expr) []string {
	var out []string
	seen := map[string]bool{}
	bound := map[string]int{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Var:
			if n.Name.IsQualified() || n.Name.Symbol {
				return
			}
			id := n.Name.Ident
			if bound[id] == 0 && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		case *App:
			walk(n.Fn)
			walk(n.Arg)
		case *If:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case *Case:
			walk(n.Scrutinee)
			for _, alt := range n.Alts {
				for _, v := range alt.Vars {
					bound[v.Ident]++
				}
				walk(alt.Rhs)
				for _, v := range alt.Vars {
					bound[v.Ident]--
				}
			}
		case *Lambda:
			for _, p := range n.Pats {
				bound[p.Ident]++
			}
			walk(n.Body)
			for _, p := range n.Pats {
				bound[p.Ident]--
			}
		}
	}
	walk(e)
	return out
}

// ReferencedNames returns every Var and Con name occurring free in e,
// including qualified and symbolic ones, in source order. Locally
// bound variables are skipped: a binder shadowing a top-level name
// must not count as a reference to it. Used to build the value-level
// dependency graph.
func ReferencedNames(e Expr, bound ...string) []Name {
	var out []Name
	inScope := map[string]int{}
	for _, b := range bound {
		inScope[b]++
	}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Var:
			if !n.Name.IsQualified() && !n.Name.Symbol && inScope[n.Name.Ident] > 0 {
				return
			}
			out = append(out, n.Name)
		case *Con:
			out = append(out, n.Name)
		case *App:
			walk(n.Fn)
			walk(n.Arg)
		case *If:
			walk(n.Cond)
			walk(n.Then)
			walk(n.Else)
		case *Case:
			walk(n.Scrutinee)
			for _, alt := range n.Alts {
				out = append(out, alt.Con.Name)
				for _, v := range alt.Vars {
					inScope[v.Ident]++
				}
				walk(alt.Rhs)
				for _, v := range alt.Vars {
					inScope[v.Ident]--
				}
			}
		case *Lambda:
			for _, p := range n.Pats {
				inScope[p.Ident]++
			}
			walk(n.Body)
			for _, p := range n.Pats {
				inScope[p.Ident]--
			}
		}
	}
	walk(e)
	return out
}

// Subst replaces free occurrences of the mapped variables in e,
// rebuilding every node on the path (the IR is treated as immutable).
// Binders shadow the substitution; the caller is responsible for
// freshening binders first when the replacements have free variables.
func Subst(e Expr, subst map[string]Expr) Expr {
	if len(subst) == 0 {
		return e
	}
	switch n := e.(type) {
	case *Var:
		if !n.Name.IsQualified() && !n.Name.Symbol {
			if r, ok := subst[n.Name.Ident]; ok {
				return r
			}
		}
		return n
	case *Con, *IntLit, *Undefined, *ErrorCall:
		return e
	case *App:
		c := *n
		c.Fn = Subst(n.Fn, subst)
		c.Arg = Subst(n.Arg, subst)
		return &c
	case *If:
		c := *n
		c.Cond = Subst(n.Cond, subst)
		c.Then = Subst(n.Then, subst)
		c.Else = Subst(n.Else, subst)
		return &c
	case *Case:
		c := *n
		c.Scrutinee = Subst(n.Scrutinee, subst)
		c.Alts = make([]Alt, len(n.Alts))
		for i, alt := range n.Alts {
			inner := shadow(subst, altBinders(alt))
			alt.Rhs = Subst(alt.Rhs, inner)
			c.Alts[i] = alt
		}
		return &c
	case *Lambda:
		c := *n
		ids := make([]string, len(n.Pats))
		for i, p := range n.Pats {
			ids[i] = p.Ident
		}
		c.Body = Subst(n.Body, shadow(subst, ids))
		return &c
	}
	return e
}

func altBinders(alt Alt) []string {
	ids := make([]string, len(alt.Vars))
	for i, v := range alt.Vars {
		ids[i] = v.Ident
	}
	return ids
}

func shadow(subst map[string]Expr, binders []string) map[string]Expr {
	removed := false
	for _, b := range binders {
		if _, ok := subst[b]; ok {
			removed = true
			break
		}
	}
	if !removed {
		return subst
	}
	inner := make(map[string]Expr, len(subst))
	for k, v := range subst {
		inner[k] = v
	}
	for _, b := range binders {
		delete(inner, b)
	}
	return inner
}

// FreshenBinders alpha-renames every lambda and alternative binder in e
// using fresh, which must return a new unique identifier for each call.
// Free variables are untouched.
func FreshenBinders(e Expr, fresh func(hint string) string) Expr {
	return freshen(e, fresh, map[string]string{})
}

func freshen(e Expr, fresh func(string) string, ren map[string]string) Expr {
	switch n := e.(type) {
	case *Var:
		if !n.Name.IsQualified() && !n.Name.Symbol {
			if r, ok := ren[n.Name.Ident]; ok {
				c := *n
				c.Name = Ident(r)
				return &c
			}
		}
		return n
	case *Con, *IntLit, *Undefined, *ErrorCall:
		return e
	case *App:
		c := *n
		c.Fn = freshen(n.Fn, fresh, ren)
		c.Arg = freshen(n.Arg, fresh, ren)
		return &c
	case *If:
		c := *n
		c.Cond = freshen(n.Cond, fresh, ren)
		c.Then = freshen(n.Then, fresh, ren)
		c.Else = freshen(n.Else, fresh, ren)
		return &c
	case *Case:
		c := *n
		c.Scrutinee = freshen(n.Scrutinee, fresh, ren)
		c.Alts = make([]Alt, len(n.Alts))
		for i, alt := range n.Alts {
			inner := extendRenaming(ren, altBinders(alt), fresh)
			vars := make([]VarPat, len(alt.Vars))
			for j, v := range alt.Vars {
				vars[j] = VarPat{Span: v.Span, Ident: inner[v.Ident]}
			}
			alt.Vars = vars
			alt.Rhs = freshen(alt.Rhs, fresh, inner)
			c.Alts[i] = alt
		}
		return &c
	case *Lambda:
		c := *n
		ids := make([]string, len(n.Pats))
		for i, p := range n.Pats {
			ids[i] = p.Ident
		}
		inner := extendRenaming(ren, ids, fresh)
		pats := make([]VarPat, len(n.Pats))
		for i, p := range n.Pats {
			pats[i] = VarPat{Span: p.Span, Ident: inner[p.Ident]}
		}
		c.Pats = pats
		c.Body = freshen(n.Body, fresh, inner)
		return &c
	}
	return e
}

func extendRenaming(ren map[string]string, binders []string, fresh func(string) string) map[string]string {
	inner := make(map[string]string, len(ren)+len(binders))
	for k, v := range ren {
		inner[k] = v
	}
	for _, b := range binders {
		inner[b] = fresh(b)
	}
	return inner
}
