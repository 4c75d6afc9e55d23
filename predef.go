package hascoq

import (
	"github.com/hascoq/hascoq/iface"
	"github.com/hascoq/hascoq/ir"
	"github.com/hascoq/hascoq/parser"
)

// Registration of entries that exist before any declaration of the
// current module is processed: the predefined (base library) entries
// from the environment file, and the exported entries of imported
// modules.

// registerPredefs enters the configured predefined entries under the
// predefined pseudo-module. Their target identifiers are claimed in
// the renamer so later definitions cannot collide with them.
func (ctx *Ctx) registerPredefs() {
	for _, t := range ctx.conv.predef.Types {
		ctx.claimIdent(t.CoqName)
		ctx.define(ir.NoSpan, &DataEntry{
			Name:   predefName(t.HaskellName),
			Arity:  t.Arity,
			Target: t.CoqName,
		})
	}
	for _, c := range ctx.conv.predef.Constructors {
		schema := ctx.parseSchema(c.HaskellType, c.HaskellName)
		args, ret := ir.SplitFuncType(schema.Type, c.Arity)
		ctx.claimIdent(c.CoqName)
		ctx.claimIdent(c.CoqSmartName)
		ctx.define(ir.NoSpan, &ConEntry{
			Name:        predefName(c.HaskellName),
			Arity:       c.Arity,
			ArgTypes:    args,
			ReturnType:  ret,
			Target:      c.CoqName,
			SmartTarget: c.CoqSmartName,
		})
	}
	for _, f := range ctx.conv.predef.Functions {
		schema := ctx.parseSchema(f.HaskellType, f.HaskellName)
		args, ret := ir.SplitFuncType(schema.Type, f.Arity)
		ctx.claimIdent(f.CoqName)
		ctx.define(ir.NoSpan, &FuncEntry{
			Name:       predefName(f.HaskellName),
			Arity:      f.Arity,
			TypeArgs:   declIdentNames(schema.TypeArgs),
			ArgTypes:   args,
			ReturnType: ret,
			Partial:    f.Partial,
			Target:     f.CoqName,
		})
	}
}

// registerImports enters the exported entries of every imported module
// under that module's qualified names.
func (ctx *Ctx) registerImports() {
	for _, imp := range ctx.mod.Imports {
		m, ok := ctx.conv.Interface(imp.Mod)
		if !ok {
			ctx.fatalf(imp.Span, "unknown module %s (no interface found)", imp.Mod)
		}
		for _, t := range m.Types {
			ctx.claimIdent(t.CoqName)
			ctx.define(imp.Span, &DataEntry{
				Name:   importedName(m.Name, t.HaskellName),
				Arity:  t.Arity,
				Target: t.CoqName,
			})
		}
		for _, s := range m.Syns {
			// imported synonyms behave like opaque type constructors:
			// they can never be in a recursive SCC with local types,
			// so the right-hand side is not needed
			ctx.claimIdent(s.CoqName)
			ctx.define(imp.Span, &DataEntry{
				Name:   importedName(m.Name, s.HaskellName),
				Arity:  s.Arity,
				Target: s.CoqName,
			})
		}
		for _, c := range m.Cons {
			schema := ctx.parseSchema(c.HaskellType, c.HaskellName)
			args, ret := ir.SplitFuncType(schema.Type, c.Arity)
			ctx.claimIdent(c.CoqName)
			ctx.claimIdent(c.SmartName)
			ctx.define(imp.Span, &ConEntry{
				Name:        importedName(m.Name, c.HaskellName),
				Arity:       c.Arity,
				ArgTypes:    args,
				ReturnType:  ret,
				Target:      c.CoqName,
				SmartTarget: c.SmartName,
			})
		}
		for _, f := range m.Funcs {
			schema := ctx.parseSchema(f.HaskellType, f.HaskellName)
			args, ret := ir.SplitFuncType(schema.Type, f.Arity)
			ctx.claimIdent(f.CoqName)
			ctx.define(imp.Span, &FuncEntry{
				Name:       importedName(m.Name, f.HaskellName),
				Arity:      f.Arity,
				TypeArgs:   declIdentNames(schema.TypeArgs),
				ArgTypes:   args,
				ReturnType: ret,
				Partial:    f.Partial,
				Target:     f.CoqName,
			})
		}
	}
}

// buildInterface collects the current module's top-level entries into
// an interface, in definition order.
func (ctx *Ctx) buildInterface(name string) *iface.ModuleInterface {
	m := &iface.ModuleInterface{Name: name}
	for _, entry := range ctx.env.Entries() {
		switch e := entry.(type) {
		case *DataEntry:
			m.Types = append(m.Types, iface.TypeExport{
				HaskellName: e.Name.Ident,
				CoqName:     e.Target,
				Arity:       e.Arity,
			})
		case *TypeSynEntry:
			m.Syns = append(m.Syns, iface.SynExport{
				HaskellName: e.Name.Ident,
				CoqName:     e.Target,
				Arity:       len(e.TypeArgs),
			})
		case *ConEntry:
			m.Cons = append(m.Cons, iface.ConExport{
				HaskellName: e.Name.Ident,
				TypeName:    returnTypeConName(e.ReturnType),
				HaskellType: ir.TypeString(ir.FuncType(e.ArgTypes, e.ReturnType)),
				CoqName:     e.Target,
				SmartName:   e.SmartTarget,
				Arity:       e.Arity,
			})
		case *FuncEntry:
			// helper entries are internal to the module
			if isGeneratedIdent(e.Name.Ident) {
				continue
			}
			m.Funcs = append(m.Funcs, iface.FuncExport{
				HaskellName: e.Name.Ident,
				HaskellType: ir.TypeString(ir.FuncType(e.ArgTypes, e.ReturnType)),
				CoqName:     e.Target,
				Arity:       e.Arity,
				TypeArity:   len(e.TypeArgs),
				Partial:     e.Partial,
			})
		}
	}
	return m
}

// claimIdent marks a configured target identifier as taken so renaming
// never reuses it. Claiming the same identifier twice is fine: the
// configured names are trusted to be consistent.
func (ctx *Ctx) claimIdent(ident string) {
	ctx.env.claimIdent(ident)
}

// parseSchema parses the source-type string of a configured or
// imported entry.
func (ctx *Ctx) parseSchema(src, owner string) ir.TypeSchema {
	if src == "" {
		return ir.TypeSchema{}
	}
	schema, err := parser.ParseTypeSchema(src)
	if err != nil {
		ctx.fatalf(ir.NoSpan, "invalid type for predefined entry %s: %s", owner, err)
	}
	return schema
}

func predefName(name string) ir.Name {
	n := parseEntryName(name)
	n.Mod = PredefModule
	return n
}

func importedName(mod, name string) ir.Name {
	n := parseEntryName(name)
	n.Mod = mod
	return n
}

// parseEntryName classifies a configured source name as identifier or
// symbol.
func parseEntryName(name string) ir.Name {
	if ir.ValidIdent(name) {
		return ir.Ident(name)
	}
	return ir.Sym(name)
}

func declIdentNames(ids []ir.DeclIdent) []string {
	var out []string
	for _, id := range ids {
		out = append(out, id.Name)
	}
	return out
}

func returnTypeConName(t ir.Type) string {
	if con, _, ok := ir.TypeConApp(t); ok {
		return con.Name.Ident
	}
	return ""
}

// isGeneratedIdent reports whether ident was synthesized by the
// compiler (helper functions, eta binders); such names contain '#',
// which the source language cannot produce.
func isGeneratedIdent(ident string) bool {
	for i := 0; i < len(ident); i++ {
		if ident[i] == '#' {
			return true
		}
	}
	return false
}
