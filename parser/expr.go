package parser

import (
	"github.com/hascoq/hascoq/ir"
)

// Expression parsing. Infix expressions use precedence climbing over
// the fixed operator set; everything else is plain recursive descent.

type assoc int

const (
	assocLeft assoc = iota
	assocRight
	assocNone
)

type fixity struct {
	prec  int
	assoc assoc
}

// fixities is the fixed infix operator set. User-defined fixities are
// not supported.
var fixities = map[string]fixity{
	"^":  {8, assocRight},
	"*":  {7, assocLeft},
	"+":  {6, assocLeft},
	"-":  {6, assocLeft},
	":":  {5, assocRight},
	"==": {4, assocNone},
	"/=": {4, assocNone},
	"<":  {4, assocNone},
	"<=": {4, assocNone},
	">":  {4, assocNone},
	">=": {4, assocNone},
	"&&": {3, assocRight},
	"||": {2, assocRight},
}

func (p *parser) parseExpr() ir.Expr {
	return p.parseOpExpr(0)
}

func (p *parser) parseOpExpr(minPrec int) ir.Expr {
	lhs := p.parseAppExpr()
	for p.at(SYMBOL) {
		fx, ok := fixities[p.tok.Text]
		if !ok {
			p.fatalf("unknown operator %s", p.tok.Text)
		}
		if fx.prec < minPrec {
			break
		}
		op := p.tok
		p.advance()
		nextMin := fx.prec + 1
		if fx.assoc == assocRight {
			nextMin = fx.prec
		}
		rhs := p.parseOpExpr(nextMin)
		if fx.assoc == assocNone && p.at(SYMBOL) {
			if fx2, ok := fixities[p.tok.Text]; ok && fx2.prec == fx.prec {
				p.fatalf("operator %s is non-associative", p.tok.Text)
			}
		}
		lhs = ir.Apply(opRef(p.tokSpan(op), op.Text), lhs, rhs)
	}
	return lhs
}

// opRef builds the reference an infix occurrence stands for: the cons
// operator is a constructor, everything else a function.
func opRef(span ir.Span, text string) ir.Expr {
	if text == ":" {
		return ir.NewCon(span, ir.Sym(text))
	}
	return ir.NewVar(span, ir.Sym(text))
}

func (p *parser) parseAppExpr() ir.Expr {
	e := p.parseAtom()
	for p.atAtomStart() {
		e = ir.NewApp(e, p.parseAtom())
	}
	return e
}

func (p *parser) atAtomStart() bool {
	// a token in column 1 starts the next top-level declaration
	if p.tok.Col == 1 {
		return false
	}
	switch p.tok.Kind {
	case LOWERID, UPPERID, INT, STRING, LPAREN, LBRACKET, BACKSLASH, IF, CASE:
		return true
	}
	return false
}

func (p *parser) parseAtom() ir.Expr {
	t := p.tok
	span := p.tokSpan(t)
	switch t.Kind {
	case LOWERID:
		p.advance()
		if t.Mod == "" && t.Text == "undefined" {
			u := &ir.Undefined{}
			setSpan(u, span)
			return u
		}
		if t.Mod == "" && t.Text == "error" {
			msg := p.expect(STRING)
			e := &ir.ErrorCall{Msg: msg.Text}
			setSpan(e, span.Union(p.tokSpan(msg)))
			return e
		}
		name := ir.Ident(t.Text)
		if t.Mod != "" {
			name = ir.Qual(t.Mod, t.Text)
		}
		return ir.NewVar(span, name)
	case UPPERID:
		p.advance()
		return ir.NewCon(span, conName(t))
	case INT:
		p.advance()
		return ir.NewIntLit(span, t.Int)
	case STRING:
		p.fatalf("string literals are only supported as the argument of error")
	case LPAREN:
		return p.parseParenExpr()
	case LBRACKET:
		return p.parseListExpr()
	case BACKSLASH:
		p.advance()
		var pats []ir.VarPat
		for p.at(LOWERID) || p.at(WILD) {
			pats = append(pats, p.parseVarPat())
		}
		if len(pats) == 0 {
			p.fatalf("lambda needs at least one argument")
		}
		p.expect(ARROW)
		body := p.parseExpr()
		lam := &ir.Lambda{Pats: pats, Body: body}
		setSpan(lam, span.Union(body.ExprSpan()))
		return lam
	case IF:
		p.advance()
		cond := p.parseExpr()
		p.expect(THEN)
		then := p.parseExpr()
		p.expect(ELSE)
		els := p.parseExpr()
		e := &ir.If{Cond: cond, Then: then, Else: els}
		setSpan(e, span.Union(els.ExprSpan()))
		return e
	case CASE:
		return p.parseCaseExpr()
	}
	p.fatalf("expected an expression, found %s", p.tok)
	return nil
}

func (p *parser) parseParenExpr() ir.Expr {
	start := p.expect(LPAREN)
	span := p.tokSpan(start)
	// parenthesized operator: (+) or (:)
	if p.at(SYMBOL) {
		op := p.tok
		p.advance()
		end := p.expect(RPAREN)
		return opRef(span.Union(p.tokSpan(end)), op.Text)
	}
	first := p.parseExpr()
	if _, ok := p.accept(COMMA); ok {
		second := p.parseExpr()
		end := p.expect(RPAREN)
		pair := ir.NewCon(span, ir.Sym("(,)"))
		e := ir.Apply(pair, first, second)
		setSpan(e, span.Union(p.tokSpan(end)))
		return e
	}
	p.expect(RPAREN)
	return first
}

// parseListExpr parses [] and [e1, ..., en], desugaring to cons/nil.
func (p *parser) parseListExpr() ir.Expr {
	start := p.expect(LBRACKET)
	span := p.tokSpan(start)
	var elems []ir.Expr
	if !p.at(RBRACKET) {
		elems = append(elems, p.parseExpr())
		for {
			if _, ok := p.accept(COMMA); !ok {
				break
			}
			elems = append(elems, p.parseExpr())
		}
	}
	end := p.expect(RBRACKET)
	full := span.Union(p.tokSpan(end))
	list := ir.Expr(ir.NewCon(full, ir.Sym("[]")))
	for i := len(elems) - 1; i >= 0; i-- {
		list = ir.Apply(ir.NewCon(elems[i].ExprSpan(), ir.Sym(":")), elems[i], list)
	}
	return list
}

// parseCaseExpr parses case e of { alt ; ... ; alt }.
func (p *parser) parseCaseExpr() ir.Expr {
	start := p.expect(CASE)
	span := p.tokSpan(start)
	scrut := p.parseExpr()
	p.expect(OF)
	p.expect(LBRACE)
	c := &ir.Case{Scrutinee: scrut}
	for {
		c.Alts = append(c.Alts, p.parseAlt())
		if _, ok := p.accept(SEMI); !ok {
			break
		}
		if p.at(RBRACE) {
			break
		}
	}
	end := p.expect(RBRACE)
	setSpan(c, span.Union(p.tokSpan(end)))
	return c
}

// parseAlt parses one case alternative: a one-level constructor
// pattern, an arrow, and the right-hand side.
func (p *parser) parseAlt() ir.Alt {
	start := p.tokSpan(p.tok)
	var pat eqPat
	switch p.tok.Kind {
	case UPPERID:
		con := p.tok
		p.advance()
		pat = eqPat{span: start, con: conName(con), conSpan: p.tokSpan(con)}
		for p.at(LOWERID) || p.at(WILD) {
			pat.vars = append(pat.vars, p.parseVarPat())
		}
	case LBRACKET:
		p.advance()
		end := p.expect(RBRACKET)
		pat = eqPat{span: start.Union(p.tokSpan(end)), con: ir.Sym("[]"), conSpan: start}
	case LPAREN:
		p.advance()
		pat = p.parseConPattern(start)
		end := p.expect(RPAREN)
		pat.span = start.Union(p.tokSpan(end))
	case LOWERID, WILD:
		// cons patterns may be written without parentheses
		first := p.parseVarPat()
		op := p.expect(SYMBOL)
		if op.Text != ":" {
			p.rep.Fatalf(p.tokSpan(op), "unsupported operator %s in a pattern", op.Text)
		}
		rest := p.parseVarPat()
		pat = eqPat{
			span:    start.Union(rest.Span),
			con:     ir.Sym(":"),
			conSpan: p.tokSpan(op),
			vars:    []ir.VarPat{first, rest},
		}
	default:
		p.fatalf("expected a pattern, found %s", p.tok)
	}
	p.expect(ARROW)
	rhs := p.parseExpr()
	return ir.Alt{
		Span: pat.span.Union(rhs.ExprSpan()),
		Con:  ir.ConPat{Span: pat.conSpan, Name: pat.con},
		Vars: pat.vars,
		Rhs:  rhs,
	}
}

// setSpan writes the span of a freshly built node.
func setSpan(e ir.Expr, span ir.Span) {
	switch n := e.(type) {
	case *ir.Undefined:
		n.Span = span
	case *ir.ErrorCall:
		n.Span = span
	case *ir.Lambda:
		n.Span = span
	case *ir.If:
		n.Span = span
	case *ir.Case:
		n.Span = span
	case *ir.App:
		n.Span = span
	}
}
