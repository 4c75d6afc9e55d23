// Package parser is the front-end for the supported Haskell-98-style
// subset: modules, imports, data declarations, type synonyms, type
// signatures and function bindings, with expressions over the fixed
// infix operator set. It produces the IR consumed by the converter.
//
// Layout handling is deliberately simple: top-level declarations start
// in column 1 and case alternatives use explicit braces and
// semicolons.
package parser

import (
	"fmt"

	"github.com/hascoq/hascoq/ir"
	"github.com/hascoq/hascoq/report"
)

type parser struct {
	lex *lexer
	rep *report.Reporter
	tok Token

	gen int // counter for generated pattern variables
}

// ParseModule parses one source file. Errors are reported through rep
// and returned; no partial module is produced.
func ParseModule(file, src string, rep *report.Reporter) (mod *ir.Module, err error) {
	defer rep.Recover(&err)
	p := &parser{lex: newLexer(file, src, rep), rep: rep}
	p.advance()
	mod = p.parseModule()
	return mod, nil
}

// ParseTypeSchema parses a standalone type, as found in environment
// and interface files. The schema's type arguments are the free type
// variables in order of first occurrence.
func ParseTypeSchema(src string) (schema ir.TypeSchema, err error) {
	rep := report.NewReporter()
	defer rep.Recover(&err)
	p := &parser{lex: newLexer("<type>", src, rep), rep: rep}
	p.advance()
	t := p.parseType()
	p.expect(EOF)
	return makeSchema(t), nil
}

func makeSchema(t ir.Type) ir.TypeSchema {
	seen := map[string]bool{}
	var args []ir.DeclIdent
	var walk func(ir.Type)
	walk = func(t ir.Type) {
		switch n := t.(type) {
		case *ir.TypeVar:
			if !seen[n.Ident] {
				seen[n.Ident] = true
				args = append(args, ir.DeclIdent{Name: n.Ident, Span: n.Span})
			}
		case *ir.TypeApp:
			walk(n.Fn)
			walk(n.Arg)
		case *ir.TypeFunc:
			walk(n.Arg)
			walk(n.Res)
		}
	}
	walk(t)
	return ir.TypeSchema{Span: t.TypeSpan(), TypeArgs: args, Type: t}
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) at(k Kind) bool {
	return p.tok.Kind == k
}

func (p *parser) accept(k Kind) (Token, bool) {
	if p.tok.Kind != k {
		return Token{}, false
	}
	t := p.tok
	p.advance()
	return t, true
}

func (p *parser) expect(k Kind) Token {
	if p.tok.Kind != k {
		p.fatalf("expected %s, found %s", k, p.tok)
	}
	t := p.tok
	p.advance()
	return t
}

func (p *parser) fatalf(format string, args ...interface{}) {
	p.rep.Fatalf(p.tokSpan(p.tok), format, args...)
}

func (p *parser) tokSpan(t Token) ir.Span {
	return ir.Span{
		File:      t.File,
		StartLine: t.Line,
		StartCol:  t.Col,
		EndLine:   t.EndLine,
		EndCol:    t.EndCol,
	}
}

// genVar produces a parser-generated variable name; '#' cannot occur
// in source identifiers, so it never collides.
func (p *parser) genVar(prefix string) string {
	p.gen++
	return fmt.Sprintf("%s#p%d", prefix, p.gen-1)
}

// --- modules and declarations ---

func (p *parser) parseModule() *ir.Module {
	mod := &ir.Module{Span: p.tokSpan(p.tok)}
	if _, ok := p.accept(MODULE); ok {
		name := p.expect(UPPERID)
		if name.Mod != "" {
			p.fatalf("hierarchical module names are not supported")
		}
		mod.Name = name.Text
		p.expect(WHERE)
	}

	type equation struct {
		name DeclTok
		pats []eqPat
		rhs  ir.Expr
	}
	var pendingName string
	var pending []equation

	flush := func() {
		if len(pending) == 0 {
			return
		}
		eqs := pending
		pending = nil
		pendingName = ""
		var fd *ir.FuncDecl
		if len(eqs) == 1 {
			fd = p.buildFunc(eqs[0].name, eqs[0].pats, eqs[0].rhs, nil)
		} else {
			var pats [][]eqPat
			var rhss []ir.Expr
			for _, eq := range eqs {
				pats = append(pats, eq.pats)
				rhss = append(rhss, eq.rhs)
			}
			fd = p.buildFunc(eqs[0].name, eqs[0].pats, rhss[0], &multiClause{pats: pats, rhss: rhss})
		}
		mod.FuncDecls = append(mod.FuncDecls, fd)
	}

	for !p.at(EOF) {
		if p.tok.Col != 1 {
			p.fatalf("declarations must start in column 1")
		}
		switch p.tok.Kind {
		case IMPORT:
			flush()
			start := p.tok
			p.advance()
			name := p.expect(UPPERID)
			mod.Imports = append(mod.Imports, ir.ImportDecl{
				Span: p.tokSpan(start).Union(p.tokSpan(name)),
				Mod:  name.Text,
			})
		case DATA:
			flush()
			mod.TypeDecls = append(mod.TypeDecls, p.parseDataDecl())
		case TYPE:
			flush()
			mod.TypeDecls = append(mod.TypeDecls, p.parseTypeSynDecl())
		case LOWERID, LPAREN:
			name := p.parseDeclName()
			if p.at(DCOLON) || p.at(COMMA) {
				flush()
				mod.TypeSigs = append(mod.TypeSigs, p.parseTypeSig(name))
				continue
			}
			if pendingName != "" && pendingName != name.Name {
				flush()
			}
			var pats []eqPat
			for !p.at(EQUALS) {
				pats = append(pats, p.parseEqPat())
			}
			p.expect(EQUALS)
			rhs := p.parseExpr()
			pendingName = name.Name
			pending = append(pending, equation{name: name, pats: pats, rhs: rhs})
		default:
			p.fatalf("expected a declaration, found %s", p.tok)
		}
	}
	flush()
	return mod
}

// DeclTok is a defining occurrence on the left-hand side of a
// declaration.
type DeclTok struct {
	Name string
	Span ir.Span
}

// parseDeclName parses a declared value name: an identifier or a
// parenthesized operator.
func (p *parser) parseDeclName() DeclTok {
	if t, ok := p.accept(LOWERID); ok {
		return DeclTok{Name: t.Text, Span: p.tokSpan(t)}
	}
	start := p.expect(LPAREN)
	op := p.expect(SYMBOL)
	end := p.expect(RPAREN)
	return DeclTok{Name: op.Text, Span: p.tokSpan(start).Union(p.tokSpan(end))}
}

func (p *parser) parseTypeSig(first DeclTok) ir.TypeSig {
	names := []ir.DeclIdent{{Name: first.Name, Span: first.Span}}
	for {
		if _, ok := p.accept(COMMA); !ok {
			break
		}
		n := p.parseDeclName()
		names = append(names, ir.DeclIdent{Name: n.Name, Span: n.Span})
	}
	p.expect(DCOLON)
	t := p.parseType()
	return ir.TypeSig{
		Span:   first.Span.Union(t.TypeSpan()),
		Names:  names,
		Schema: makeSchema(t),
	}
}

func (p *parser) parseDataDecl() ir.TypeDecl {
	p.expect(DATA)
	name := p.expect(UPPERID)
	d := &ir.DataDecl{
		Ident: ir.DeclIdent{Name: name.Text, Span: p.tokSpan(name)},
	}
	for p.at(LOWERID) {
		tv := p.expect(LOWERID)
		d.TypeArgs = append(d.TypeArgs, ir.DeclIdent{Name: tv.Text, Span: p.tokSpan(tv)})
	}
	p.expect(EQUALS)
	d.Cons = append(d.Cons, p.parseConDecl())
	for {
		if _, ok := p.accept(PIPE); !ok {
			break
		}
		d.Cons = append(d.Cons, p.parseConDecl())
	}
	return d
}

func (p *parser) parseConDecl() ir.ConDecl {
	name := p.expect(UPPERID)
	con := ir.ConDecl{
		Ident: ir.DeclIdent{Name: name.Text, Span: p.tokSpan(name)},
	}
	for p.atTypeAtomStart() {
		con.Fields = append(con.Fields, p.parseTypeAtom())
	}
	return con
}

func (p *parser) parseTypeSynDecl() ir.TypeDecl {
	p.expect(TYPE)
	name := p.expect(UPPERID)
	d := &ir.TypeSynDecl{
		Ident: ir.DeclIdent{Name: name.Text, Span: p.tokSpan(name)},
	}
	for p.at(LOWERID) {
		tv := p.expect(LOWERID)
		d.TypeArgs = append(d.TypeArgs, ir.DeclIdent{Name: tv.Text, Span: p.tokSpan(tv)})
	}
	p.expect(EQUALS)
	d.Rhs = p.parseType()
	return d
}

// --- function equations ---

// eqPat is one left-hand-side argument pattern: a plain variable, or a
// one-level constructor pattern.
type eqPat struct {
	span ir.Span
	// variable pattern ("" for wildcard)
	varName string
	isVar   bool
	// constructor pattern
	con     ir.Name
	conSpan ir.Span
	vars    []ir.VarPat
}

type multiClause struct {
	pats [][]eqPat
	rhss []ir.Expr
}

func (p *parser) parseEqPat() eqPat {
	switch p.tok.Kind {
	case LOWERID:
		t := p.tok
		p.advance()
		return eqPat{span: p.tokSpan(t), varName: t.Text, isVar: true}
	case WILD:
		t := p.tok
		p.advance()
		return eqPat{span: p.tokSpan(t), isVar: true}
	case LBRACKET:
		start := p.tok
		p.advance()
		end := p.expect(RBRACKET)
		return eqPat{
			span:    p.tokSpan(start).Union(p.tokSpan(end)),
			con:     ir.Sym("[]"),
			conSpan: p.tokSpan(start),
		}
	case LPAREN:
		start := p.tok
		p.advance()
		pat := p.parseConPattern(p.tokSpan(start))
		end := p.expect(RPAREN)
		pat.span = p.tokSpan(start).Union(p.tokSpan(end))
		return pat
	}
	p.fatalf("expected an argument pattern, found %s", p.tok)
	return eqPat{}
}

// parseConPattern parses the inside of a parenthesized pattern:
// Con x y, x:xs, or (x, y).
func (p *parser) parseConPattern(span ir.Span) eqPat {
	if p.at(UPPERID) {
		con := p.tok
		p.advance()
		pat := eqPat{span: span, con: conName(con), conSpan: p.tokSpan(con)}
		for p.at(LOWERID) || p.at(WILD) {
			pat.vars = append(pat.vars, p.parseVarPat())
		}
		return pat
	}
	first := p.parseVarPat()
	if t, ok := p.accept(SYMBOL); ok {
		if t.Text != ":" {
			p.rep.Fatalf(p.tokSpan(t), "unsupported operator %s in a pattern", t.Text)
		}
		rest := p.parseVarPat()
		return eqPat{
			span:    span,
			con:     ir.Sym(":"),
			conSpan: p.tokSpan(t),
			vars:    []ir.VarPat{first, rest},
		}
	}
	p.expect(COMMA)
	second := p.parseVarPat()
	return eqPat{
		span: span,
		con:  ir.Sym("(,)"),
		vars: []ir.VarPat{first, second},
	}
}

func (p *parser) parseVarPat() ir.VarPat {
	if t, ok := p.accept(LOWERID); ok {
		return ir.VarPat{Span: p.tokSpan(t), Ident: t.Text}
	}
	t := p.expect(WILD)
	return ir.VarPat{Span: p.tokSpan(t), Ident: p.genVar("_")}
}

// buildFunc assembles a function declaration from its equations. A
// single all-variable equation translates directly; clauses with
// constructor patterns are desugared into a case on the (single)
// position that is matched, which must be a constructor pattern in
// every clause.
func (p *parser) buildFunc(name DeclTok, pats []eqPat, rhs ir.Expr, multi *multiClause) *ir.FuncDecl {
	fd := &ir.FuncDecl{Ident: ir.DeclIdent{Name: name.Name, Span: name.Span}}

	if multi == nil {
		allVars := true
		for _, pat := range pats {
			if !pat.isVar {
				allVars = false
				break
			}
		}
		if allVars {
			for _, pat := range pats {
				fd.Pats = append(fd.Pats, p.eqVarPat(pat))
			}
			fd.Rhs = rhs
			return fd
		}
		multi = &multiClause{pats: [][]eqPat{pats}, rhss: []ir.Expr{rhs}}
	}

	arity := len(multi.pats[0])
	for _, ps := range multi.pats {
		if len(ps) != arity {
			p.rep.Fatalf(name.Span, "equations for %s have different numbers of arguments", name.Name)
		}
	}

	// the scrutinized position: the one with constructor patterns
	scrutPos := -1
	for _, ps := range multi.pats {
		for i, pat := range ps {
			if !pat.isVar {
				if scrutPos >= 0 && scrutPos != i {
					p.rep.Fatalf(pat.span,
						"equations for %s match constructors at more than one argument position", name.Name)
				}
				scrutPos = i
			}
		}
	}
	for _, ps := range multi.pats {
		if ps[scrutPos].isVar {
			p.rep.Fatalf(ps[scrutPos].span,
				"equations for %s must all match a constructor at the same position", name.Name)
		}
	}

	// argument names come from the first clause's variable patterns
	args := make([]ir.VarPat, arity)
	for i := range args {
		if i == scrutPos {
			args[i] = ir.VarPat{Span: multi.pats[0][i].span, Ident: p.genVar("x")}
			continue
		}
		args[i] = p.eqVarPat(multi.pats[0][i])
	}

	scrut := ir.NewVar(args[scrutPos].Span, ir.Ident(args[scrutPos].Ident))
	c := &ir.Case{Scrutinee: scrut}
	for k, ps := range multi.pats {
		pat := ps[scrutPos]
		rhs := multi.rhss[k]
		// rebind this clause's other variable patterns to the shared
		// argument names
		subst := map[string]ir.Expr{}
		for i, q := range ps {
			if i == scrutPos || !q.isVar || q.varName == "" {
				continue
			}
			if q.varName != args[i].Ident {
				subst[q.varName] = ir.NewVar(q.span, ir.Ident(args[i].Ident))
			}
		}
		rhs = ir.Subst(rhs, subst)
		c.Alts = append(c.Alts, ir.Alt{
			Span: pat.span,
			Con:  ir.ConPat{Span: pat.conSpan, Name: pat.con},
			Vars: pat.vars,
			Rhs:  rhs,
		})
	}

	fd.Pats = args
	fd.Rhs = c
	return fd
}

func (p *parser) eqVarPat(pat eqPat) ir.VarPat {
	if !pat.isVar {
		p.rep.Fatalf(pat.span, "unexpected constructor pattern")
	}
	name := pat.varName
	if name == "" {
		name = p.genVar("_")
	}
	return ir.VarPat{Span: pat.span, Ident: name}
}

func conName(t Token) ir.Name {
	if t.Mod != "" {
		return ir.Qual(t.Mod, t.Text)
	}
	return ir.Ident(t.Text)
}
