// Package hascoq translates a Haskell-98-style purely functional
// subset into Gallina under an explicit free-monad encoding. The
// pipeline per module: dependency analysis groups declarations into
// SCCs, entries are registered in the renaming environment, recursive
// SCCs go through termination analysis and the recursion
// transformation, and finally every declaration is lifted into
// sentences over `Free Shape Pos`.
package hascoq

import (
	"github.com/hascoq/hascoq/coq"
	"github.com/hascoq/hascoq/iface"
	"github.com/hascoq/hascoq/ir"
	"github.com/hascoq/hascoq/predefs"
	"github.com/hascoq/hascoq/report"
)

// PredefModule is the pseudo-module predefined entries live under.
// Every compiled module imports it implicitly.
const PredefModule = "Prelude"

// DefaultModuleName is used for sources without a module header.
const DefaultModuleName = "Main"

// Config carries converter options.
type Config struct {
	// BaseLogicalPath is the logical Coq path of the base library in
	// Require sentences.
	BaseLogicalPath string
	// GeneratedLogicalPath is the logical Coq path generated modules
	// import each other under.
	GeneratedLogicalPath string
}

func (c Config) withDefaults() Config {
	if c.BaseLogicalPath == "" {
		c.BaseLogicalPath = "Base"
	}
	if c.GeneratedLogicalPath == "" {
		c.GeneratedLogicalPath = "Generated"
	}
	return c
}

// Converter is the process-local compilation resource: the predefined
// environment and the cache of module interfaces compiled or loaded so
// far. It is initialized once and shared (read-only) by the sequential
// module compilations.
type Converter struct {
	conf    Config
	predef  predefs.EnvFile
	modules map[string]*iface.ModuleInterface
}

func NewConverter(conf Config, predef predefs.EnvFile) *Converter {
	return &Converter{
		conf:    conf.withDefaults(),
		predef:  predef,
		modules: make(map[string]*iface.ModuleInterface),
	}
}

// AddInterface makes an already-compiled module available for import.
func (c *Converter) AddInterface(m *iface.ModuleInterface) {
	c.modules[m.Name] = m
}

// Interface returns the interface of a previously added module.
func (c *Converter) Interface(name string) (*iface.ModuleInterface, bool) {
	m, ok := c.modules[name]
	return m, ok
}

// Ctx is the per-module conversion context: the environment, the
// reporter handle and the module being converted.
type Ctx struct {
	env  *Env
	rep  *report.Reporter
	mod  *ir.Module
	conv *Converter

	// inPartial is true while converting the body of a partial
	// function, whose binder list declares the Partial instance P.
	inPartial bool
}

func (ctx *Ctx) fatalf(span ir.Span, format string, args ...interface{}) {
	ctx.rep.Fatalf(span, format, args...)
}

// ConvertModule compiles one module to a Gallina file and its
// interface. On a fatal diagnostic it returns an error and no output.
func (c *Converter) ConvertModule(mod *ir.Module, rep *report.Reporter) (file *coq.File, intf *iface.ModuleInterface, err error) {
	defer rep.Recover(&err)

	name := mod.Name
	if name == "" {
		name = DefaultModuleName
	}

	ctx := &Ctx{env: NewEnv(), rep: rep, mod: mod, conv: c}
	var imports []string
	for _, imp := range mod.Imports {
		imports = append(imports, imp.Mod)
	}
	ctx.env.SetModule(name, imports)
	ctx.registerPredefs()
	ctx.registerImports()

	var sentences []coq.Sentence
	sentences = append(sentences, ctx.convertTypeDecls()...)
	ctx.checkSignatures()
	sentences = append(sentences, ctx.convertFuncDecls()...)

	requires := []coq.Require{
		{From: c.conf.BaseLogicalPath, Modules: []string{"Free"}},
		{From: c.conf.BaseLogicalPath, Modules: []string{"Prelude"}},
	}
	for _, imp := range imports {
		requires = append(requires, coq.Require{
			From:    c.conf.GeneratedLogicalPath,
			Modules: []string{imp},
		})
	}

	file = &coq.File{
		SourceFile: mod.Span.File,
		Requires:   requires,
		Module:     coq.Module{Name: name, Sentences: sentences},
	}
	intf = ctx.buildInterface(name)
	c.modules[name] = intf
	return file, intf, nil
}

// checkSignatures ensures every function declaration has a type
// signature (fatal otherwise) and warns about signatures that name no
// declared function.
func (ctx *Ctx) checkSignatures() {
	declared := map[string]bool{}
	for _, d := range ctx.mod.FuncDecls {
		declared[d.Ident.Name] = true
	}
	for _, sig := range ctx.mod.TypeSigs {
		for _, n := range sig.Names {
			if !declared[n.Name] {
				ctx.rep.Warnf(n.Span, "unused type signature for %s", n.Name)
			}
		}
	}
	for _, d := range ctx.mod.FuncDecls {
		if _, ok := ctx.mod.FindSig(d.Ident.Name); !ok {
			ctx.fatalf(d.Ident.Span, "missing type signature for function %s", d.Ident.Name)
		}
	}
}

// resolverFor builds the name->index resolver for the dependency
// graphs: a reference hits a declaration when it is unqualified or
// qualified with the current module and spells the declaration's name.
func (ctx *Ctx) resolverFor(names []string) func(ir.Name) (int, bool) {
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	return func(name ir.Name) (int, bool) {
		if name.Symbol {
			return 0, false
		}
		if name.IsQualified() && name.Mod != ctx.env.CurrentModule() {
			return 0, false
		}
		i, ok := index[name.Ident]
		return i, ok
	}
}

// localName qualifies a top-level identifier with the current module.
func (ctx *Ctx) localName(ident string) ir.Name {
	return ir.Qual(ctx.env.CurrentModule(), ident)
}

func (ctx *Ctx) lookupValue(span ir.Span, name ir.Name) Entry {
	entry, err := ctx.env.Lookup(ValueScope, name)
	if err != nil {
		ctx.fatalf(span, "%s", err)
	}
	return entry
}

func (ctx *Ctx) lookupType(span ir.Span, name ir.Name) Entry {
	entry, err := ctx.env.Lookup(TypeScope, name)
	if err != nil {
		ctx.fatalf(span, "%s", err)
	}
	return entry
}

func (ctx *Ctx) define(span ir.Span, entry Entry) {
	if err := ctx.env.Define(entry); err != nil {
		ctx.fatalf(span, "%s", err)
	}
}

func (ctx *Ctx) takeIdent(span ir.Span, suggestion string) string {
	id, err := ctx.env.TakeIdent(suggestion)
	if err != nil {
		ctx.fatalf(span, "%s", err)
	}
	return id
}
