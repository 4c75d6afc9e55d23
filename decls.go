package hascoq

import (
	"unicode"

	"github.com/hascoq/hascoq/coq"
	"github.com/hascoq/hascoq/ir"
)

// Conversion of type and function declarations to Gallina sentences,
// in dependency (SCC) order.

func (ctx *Ctx) convertTypeDecls() []coq.Sentence {
	decls := ctx.mod.TypeDecls
	names := make([]string, len(decls))
	for i := range decls {
		names[i] = decls[i].DeclName().Name
	}
	sccs := typeDeclSCCs(decls, ctx.resolverFor(names))
	var sentences []coq.Sentence
	for _, scc := range sccs {
		sentences = append(sentences, ctx.convertTypeSCC(scc)...)
	}
	return sentences
}

func (ctx *Ctx) convertTypeSCC(scc SCC) []coq.Sentence {
	var datas []*ir.DataDecl
	var syns []*ir.TypeSynDecl
	for _, i := range scc.Decls {
		switch d := ctx.mod.TypeDecls[i].(type) {
		case *ir.DataDecl:
			datas = append(datas, d)
		case *ir.TypeSynDecl:
			syns = append(syns, d)
		}
	}
	if scc.Recursive && len(datas) == 0 {
		ctx.fatalf(syns[0].Ident.Span, "mutually recursive type synonym %s", syns[0].Ident.Name)
	}

	// Register every member before any body is converted so mutual
	// references resolve.
	for _, d := range datas {
		target := ctx.takeIdent(d.Ident.Span, d.Ident.Name)
		ctx.define(d.Ident.Span, &DataEntry{
			Name:   ctx.localName(d.Ident.Name),
			Arity:  len(d.TypeArgs),
			Target: target,
		})
	}
	// Synonyms of a recursive component are expanded inside the
	// inductive bodies and emitted as Definitions afterwards.
	expand := map[string]*TypeSynEntry{}
	for _, d := range syns {
		target := ctx.takeIdent(d.Ident.Span, d.Ident.Name)
		entry := &TypeSynEntry{
			Name:     ctx.localName(d.Ident.Name),
			TypeArgs: declIdentNames(d.TypeArgs),
			Rhs:      d.Rhs,
			Target:   target,
		}
		ctx.define(d.Ident.Span, entry)
		if scc.Recursive {
			expand[d.Ident.Name] = entry
		}
	}

	var sentences []coq.Sentence
	if len(datas) > 0 {
		sentences = append(sentences, ctx.convertDataDecls(datas, expand)...)
	}
	for _, d := range syns {
		sentences = append(sentences, ctx.convertTypeSynDecl(d, expand))
	}
	return sentences
}

// convertDataDecls emits one Inductive sentence for a group of
// mutually recursive data declarations, followed by Arguments
// sentences making the parameters of every raw constructor implicit,
// and one smart constructor per data constructor.
func (ctx *Ctx) convertDataDecls(datas []*ir.DataDecl, expand map[string]*TypeSynEntry) []coq.Sentence {
	ind := coq.Inductive{}
	var after []coq.Sentence

	for _, d := range datas {
		entry, _ := ctx.env.Lookup(TypeScope, ctx.localName(d.Ident.Name))
		target := entry.TargetIdent()

		ctx.env.PushScope()
		ctx.env.BeginLocalIdents()
		params := shapePosBinders()
		var varTargets []string
		var varIdents []string
		for _, tv := range d.TypeArgs {
			e, err := ctx.env.defineTypeVar(tv.Name)
			if err != nil {
				ctx.fatalf(tv.Span, "%s", err)
			}
			params = append(params, coq.NewBinder(e.Target, typeIdent))
			varTargets = append(varTargets, e.Target)
			varIdents = append(varIdents, tv.Name)
		}

		// the fully applied head type, used as every constructor's
		// result
		headArgs := []coq.Expr{shapeIdent, posIdent}
		for _, vt := range varTargets {
			headArgs = append(headArgs, coq.Ident(vt))
		}
		head := coq.NewApp(coq.Ident(target), headArgs...)

		returnType := ctx.dataReturnType(d, varIdents)
		body := coq.InductiveBody{Name: target, Params: params}
		for _, con := range d.Cons {
			fields := make([]ir.Type, len(con.Fields))
			for i, f := range con.Fields {
				fields[i] = ctx.expandSynonyms(f, expand, nil)
			}
			conEntry := ctx.registerConstructor(d, con, fields, returnType)

			conType := head
			for i := len(fields) - 1; i >= 0; i-- {
				conType = &coq.Arrow{From: ctx.liftType(fields[i]), To: conType}
			}
			body.Cons = append(body.Cons, coq.InductiveCon{Name: conEntry.Target, Type: conType})

			implicit := append([]string{"Shape", "Pos"}, varTargets...)
			after = append(after, coq.Arguments{Ident: conEntry.Target, Implicit: implicit})
		}
		ind.Bodies = append(ind.Bodies, body)

		after = append(after, ctx.smartConstructors(d, varTargets, head)...)
		ctx.env.EndLocalIdents()
		ctx.env.PopScope()
	}
	return append([]coq.Sentence{ind}, after...)
}

// dataReturnType is the source-level result type of the data type's
// constructors: the type constructor applied to its variables.
func (ctx *Ctx) dataReturnType(d *ir.DataDecl, varIdents []string) ir.Type {
	var ret ir.Type = &ir.TypeCon{Span: d.Ident.Span, Name: ir.Ident(d.Ident.Name)}
	for _, v := range varIdents {
		ret = &ir.TypeApp{Fn: ret, Arg: &ir.TypeVar{Ident: v}}
	}
	return ret
}

// registerConstructor renames and defines the entry for one data
// constructor. The raw constructor takes the sanitized source name
// with its first rune lowercased; the smart constructor keeps the
// source spelling.
func (ctx *Ctx) registerConstructor(d *ir.DataDecl, con ir.ConDecl, fields []ir.Type, returnType ir.Type) *ConEntry {
	raw := ctx.takeIdent(con.Ident.Span, lowerFirst(con.Ident.Name))
	smart := ctx.takeIdent(con.Ident.Span, con.Ident.Name)
	// constructor identifiers are module-level: keep them taken after
	// the data declaration's local identifiers are released
	ctx.env.used[raw] = true
	ctx.env.used[smart] = true
	entry := &ConEntry{
		Name:        ctx.localName(con.Ident.Name),
		Arity:       len(fields),
		ArgTypes:    fields,
		ReturnType:  returnType,
		Target:      raw,
		SmartTarget: smart,
	}
	ctx.define(con.Ident.Span, entry)
	return entry
}

// smartConstructors emits, for every constructor of d, a Definition
// that wraps the raw constructor in pure and fixes the generic
// arguments.
func (ctx *Ctx) smartConstructors(d *ir.DataDecl, varTargets []string, head coq.Expr) []coq.Sentence {
	var out []coq.Sentence
	for _, con := range d.Cons {
		entry := ctx.lookupValue(con.Ident.Span, ctx.localName(con.Ident.Name))
		ce := entry.(*ConEntry)

		binders := shapePosBinders()
		for _, vt := range varTargets {
			binders = append(binders, coq.NewImplicitBinder(vt, typeIdent))
		}
		var fieldVars []coq.Expr
		for _, ft := range ce.ArgTypes {
			name := ctx.env.FreshIdent(FreshPrefix)
			binders = append(binders, coq.NewBinder(name, ctx.liftType(ft)))
			fieldVars = append(fieldVars, coq.Ident(name))
		}
		out = append(out, coq.Definition{
			Name:       ce.SmartTarget,
			Binders:    binders,
			ReturnType: coq.NewApp(freeIdent, shapeIdent, posIdent, head),
			Body:       coq.NewApp(pureIdent, coq.NewApp(coq.Ident(ce.Target), fieldVars...)),
		})
	}
	return out
}

// convertTypeSynDecl emits a synonym as a Definition parameterized by
// Shape, Pos and its type arguments.
func (ctx *Ctx) convertTypeSynDecl(d *ir.TypeSynDecl, expand map[string]*TypeSynEntry) coq.Sentence {
	entry, _ := ctx.env.Lookup(TypeScope, ctx.localName(d.Ident.Name))

	ctx.env.PushScope()
	defer ctx.env.PopScope()
	ctx.env.BeginLocalIdents()
	defer ctx.env.EndLocalIdents()
	binders := shapePosBinders()
	for _, tv := range d.TypeArgs {
		e, err := ctx.env.defineTypeVar(tv.Name)
		if err != nil {
			ctx.fatalf(tv.Span, "%s", err)
		}
		binders = append(binders, coq.NewBinder(e.Target, typeIdent))
	}
	// inside a recursive component the synonym body may mention sibling
	// synonyms; expand them so the emitted body only references the
	// inductives
	rhs := d.Rhs
	if len(expand) > 0 {
		inner := make(map[string]*TypeSynEntry, len(expand))
		for k, v := range expand {
			if k != d.Ident.Name {
				inner[k] = v
			}
		}
		rhs = ctx.expandSynonyms(rhs, inner, []string{d.Ident.Name})
	}
	return coq.Definition{
		Name:       entry.TargetIdent(),
		Binders:    binders,
		ReturnType: typeIdent,
		Body:       ctx.liftTypeStar(rhs),
	}
}

func lowerFirst(s string) string {
	for i, r := range s {
		return string(unicode.ToLower(r)) + s[i+len(string(r)):]
	}
	return s
}
