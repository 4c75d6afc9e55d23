package hascoq

import (
	"github.com/hascoq/hascoq/ir"
)

// Termination analysis: for each recursive SCC, find one decreasing
// argument per function such that every recursive call in every body
// passes something structurally smaller at that position.

// guessDecArgs enumerates every tuple of argument indices for the SCC
// members (lexicographically, so the lowest-index combination wins)
// and returns the first tuple for which all bodies pass the
// structural-descent check. ok is false when no tuple passes.
func guessDecArgs(decls []*ir.FuncDecl, isMember func(ir.Name) (int, bool)) (tuple []int, ok bool) {
	tuple = make([]int, len(decls))
	for {
		if checkSCC(decls, tuple, isMember) {
			return tuple, true
		}
		// odometer: advance the rightmost position first
		pos := len(decls) - 1
		for pos >= 0 {
			tuple[pos]++
			if tuple[pos] < decls[pos].Arity() {
				break
			}
			tuple[pos] = 0
			pos--
		}
		if pos < 0 {
			return nil, false
		}
	}
}

func checkSCC(decls []*ir.FuncDecl, tuple []int, isMember func(ir.Name) (int, bool)) bool {
	// map member -> decreasing index under this tuple
	decOf := func(name ir.Name) (int, bool) {
		j, ok := isMember(name)
		if !ok {
			return 0, false
		}
		return tuple[j], true
	}
	for j, d := range decls {
		if d.Arity() == 0 {
			return false
		}
		chk := descentChecker{
			decVar: d.Pats[tuple[j]].Ident,
			decOf:  decOf,
			bound:  map[string]int{},
		}
		smaller := map[string]bool{}
		if !chk.check(d.Rhs, smaller) {
			return false
		}
	}
	return true
}

// descentChecker walks one body. decVar is the caller's decreasing
// argument; smaller accumulates variables known to be structurally
// smaller than it. bound counts local binders, used both for
// shadowing of smaller variables and for ruling out shadowed SCC
// names as recursive calls.
type descentChecker struct {
	decVar string
	decOf  func(ir.Name) (int, bool)
	bound  map[string]int
}

func (c *descentChecker) check(e ir.Expr, smaller map[string]bool) bool {
	head, args := ir.Spine(e)
	if v, ok := head.(*ir.Var); ok {
		if d, isCall := c.memberCall(v); isCall {
			if len(args) <= d {
				// not enough arguments to even reach the
				// decreasing position
				return false
			}
			dv, ok := args[d].(*ir.Var)
			if !ok || !c.isSmaller(dv, smaller) {
				return false
			}
			for _, a := range args {
				if !c.check(a, smaller) {
					return false
				}
			}
			return true
		}
	}
	if len(args) > 0 {
		if !c.check(head, smaller) {
			return false
		}
		for _, a := range args {
			if !c.check(a, smaller) {
				return false
			}
		}
		return true
	}
	switch n := e.(type) {
	case *ir.Var, *ir.Con, *ir.IntLit, *ir.Undefined, *ir.ErrorCall:
		return true
	case *ir.If:
		return c.check(n.Cond, smaller) && c.check(n.Then, smaller) && c.check(n.Else, smaller)
	case *ir.Case:
		return c.checkCase(n, smaller)
	case *ir.Lambda:
		for _, p := range n.Pats {
			c.bound[p.Ident]++
		}
		ok := c.check(n.Body, c.withoutShadowed(smaller, n.Pats))
		for _, p := range n.Pats {
			c.bound[p.Ident]--
		}
		return ok
	}
	return false
}

func (c *descentChecker) checkCase(n *ir.Case, smaller map[string]bool) bool {
	if !c.check(n.Scrutinee, smaller) {
		return false
	}
	structural := false
	if sv, ok := n.Scrutinee.(*ir.Var); ok {
		structural = c.isSmaller(sv, smaller) || c.isDecVar(sv)
	}
	for _, alt := range n.Alts {
		var inner map[string]bool
		if structural {
			// the pattern binders are subterms of something already
			// structural, so they join the smaller set (even when
			// they shadow an outer smaller variable)
			inner = copySet(smaller)
			for _, v := range alt.Vars {
				inner[v.Ident] = true
			}
		} else {
			inner = c.withoutShadowed(smaller, alt.Vars)
		}
		for _, v := range alt.Vars {
			c.bound[v.Ident]++
		}
		ok := c.check(alt.Rhs, inner)
		for _, v := range alt.Vars {
			c.bound[v.Ident]--
		}
		if !ok {
			return false
		}
	}
	return true
}

// memberCall reports whether v is an unshadowed reference to an SCC
// member, returning that member's decreasing index.
func (c *descentChecker) memberCall(v *ir.Var) (int, bool) {
	if v.Name.Symbol || c.bound[v.Name.Ident] > 0 {
		return 0, false
	}
	return c.decOf(v.Name)
}

func (c *descentChecker) isDecVar(v *ir.Var) bool {
	return !v.Name.IsQualified() && !v.Name.Symbol &&
		v.Name.Ident == c.decVar && c.bound[v.Name.Ident] == 0
}

func (c *descentChecker) isSmaller(v *ir.Var, smaller map[string]bool) bool {
	return !v.Name.IsQualified() && !v.Name.Symbol && smaller[v.Name.Ident]
}

// withoutShadowed removes rebound variables from the smaller set.
func (c *descentChecker) withoutShadowed(smaller map[string]bool, pats []ir.VarPat) map[string]bool {
	needCopy := false
	for _, p := range pats {
		if smaller[p.Ident] {
			needCopy = true
			break
		}
	}
	if !needCopy {
		return smaller
	}
	out := copySet(smaller)
	for _, p := range pats {
		delete(out, p.Ident)
	}
	return out
}

func copySet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
