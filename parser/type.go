package parser

import (
	"github.com/hascoq/hascoq/ir"
)

// Type parsing. Types are first-order: btype chains applied to atoms,
// with the arrow associating to the right. The list and pair types
// have their usual sugar [t] and (t, u) as well as the prefix
// spellings [] and (,) used by environment and interface files.

func (p *parser) parseType() ir.Type {
	arg := p.parseBType()
	if _, ok := p.accept(ARROW); ok {
		res := p.parseType()
		return &ir.TypeFunc{
			Span: arg.TypeSpan().Union(res.TypeSpan()),
			Arg:  arg,
			Res:  res,
		}
	}
	return arg
}

func (p *parser) parseBType() ir.Type {
	t := p.parseTypeAtom()
	for p.atTypeAtomStart() {
		arg := p.parseTypeAtom()
		t = &ir.TypeApp{Span: t.TypeSpan().Union(arg.TypeSpan()), Fn: t, Arg: arg}
	}
	return t
}

func (p *parser) atTypeAtomStart() bool {
	// a token in column 1 starts the next top-level declaration
	if p.tok.Col == 1 {
		return false
	}
	switch p.tok.Kind {
	case LOWERID, UPPERID, LBRACKET, LPAREN:
		return true
	}
	return false
}

func (p *parser) parseTypeAtom() ir.Type {
	t := p.tok
	span := p.tokSpan(t)
	switch t.Kind {
	case LOWERID:
		if t.Mod != "" {
			p.fatalf("type variables cannot be qualified")
		}
		p.advance()
		return &ir.TypeVar{Span: span, Ident: t.Text}
	case UPPERID:
		p.advance()
		return &ir.TypeCon{Span: span, Name: conName(t)}
	case LBRACKET:
		p.advance()
		if end, ok := p.accept(RBRACKET); ok {
			return &ir.TypeCon{Span: span.Union(p.tokSpan(end)), Name: ir.Sym("[]")}
		}
		elem := p.parseType()
		end := p.expect(RBRACKET)
		full := span.Union(p.tokSpan(end))
		return &ir.TypeApp{
			Span: full,
			Fn:   &ir.TypeCon{Span: span, Name: ir.Sym("[]")},
			Arg:  elem,
		}
	case LPAREN:
		p.advance()
		if _, ok := p.accept(COMMA); ok {
			end := p.expect(RPAREN)
			return &ir.TypeCon{Span: span.Union(p.tokSpan(end)), Name: ir.Sym("(,)")}
		}
		first := p.parseType()
		if _, ok := p.accept(COMMA); ok {
			second := p.parseType()
			end := p.expect(RPAREN)
			full := span.Union(p.tokSpan(end))
			pair := &ir.TypeCon{Span: span, Name: ir.Sym("(,)")}
			return &ir.TypeApp{
				Span: full,
				Fn:   &ir.TypeApp{Span: full, Fn: pair, Arg: first},
				Arg:  second,
			}
		}
		p.expect(RPAREN)
		return first
	}
	p.fatalf("expected a type, found %s", p.tok)
	return nil
}
