package hascoq

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hascoq/hascoq/ir"
)

// Scope selects one of the two independent namespaces of the
// environment.
type Scope int

const (
	// TypeScope holds type constructors, type synonyms and type
	// variables.
	TypeScope Scope = iota
	// ValueScope holds data constructors, functions and variables.
	ValueScope
)

func (s Scope) String() string {
	if s == TypeScope {
		return "type"
	}
	return "value"
}

// Entry is the information recorded for one name. Entries are
// immutable once defined; the decreasing-argument index lives in a
// side table because it is only known after termination analysis.
type Entry interface {
	EntryScope() Scope
	// OrigName is the fully qualified source name.
	OrigName() ir.Name
	// TargetIdent is the generated Gallina identifier, unique within
	// the module being compiled.
	TargetIdent() string
}

// DataEntry is a data type constructor.
type DataEntry struct {
	Name   ir.Name
	Arity  int
	Target string
}

// TypeSynEntry is a type synonym with its right-hand side, kept for
// expansion inside recursive data SCCs.
type TypeSynEntry struct {
	Name     ir.Name
	TypeArgs []string
	Rhs      ir.Type
	Target   string
}

// TypeVarEntry is a locally bound type variable.
type TypeVarEntry struct {
	Name   ir.Name
	Target string
}

// ConEntry is a data constructor together with its smart constructor.
type ConEntry struct {
	Name        ir.Name
	Arity       int
	ArgTypes    []ir.Type
	ReturnType  ir.Type
	Target      string
	SmartTarget string
}

// FuncEntry is a top-level function. DecArgPure is set on the helpers
// produced by the recursion transformation: their decreasing argument
// is taken unlifted, so call sites must bind-open the actual argument
// at that position (its index is in the decreasing-argument table).
type FuncEntry struct {
	Name       ir.Name
	Arity      int
	TypeArgs   []string
	ArgTypes   []ir.Type
	ReturnType ir.Type
	Partial    bool
	DecArgPure bool
	Target     string
}

// VarEntry is a locally bound variable. PureVar marks the
// structurally-decreasing argument binder of an enclosing Fixpoint,
// which is the only binder that is not lifted into the free monad.
type VarEntry struct {
	Name    ir.Name
	PureVar bool
	Target  string
}

func (e *DataEntry) EntryScope() Scope    { return TypeScope }
func (e *TypeSynEntry) EntryScope() Scope { return TypeScope }
func (e *TypeVarEntry) EntryScope() Scope { return TypeScope }
func (e *ConEntry) EntryScope() Scope     { return ValueScope }
func (e *FuncEntry) EntryScope() Scope    { return ValueScope }
func (e *VarEntry) EntryScope() Scope     { return ValueScope }

func (e *DataEntry) OrigName() ir.Name    { return e.Name }
func (e *TypeSynEntry) OrigName() ir.Name { return e.Name }
func (e *TypeVarEntry) OrigName() ir.Name { return e.Name }
func (e *ConEntry) OrigName() ir.Name     { return e.Name }
func (e *FuncEntry) OrigName() ir.Name    { return e.Name }
func (e *VarEntry) OrigName() ir.Name     { return e.Name }

func (e *DataEntry) TargetIdent() string    { return e.Target }
func (e *TypeSynEntry) TargetIdent() string { return e.Target }
func (e *TypeVarEntry) TargetIdent() string { return e.Target }
func (e *ConEntry) TargetIdent() string     { return e.Target }
func (e *FuncEntry) TargetIdent() string    { return e.Target }
func (e *VarEntry) TargetIdent() string     { return e.Target }

type scopeKey struct {
	scope Scope
	name  ir.Name
}

// frame is one lexical scope of the environment.
type frame struct {
	entries map[scopeKey]Entry
	// insertion order of unqualified names per scope, for the
	// unqualified-lookup index
	order []scopeKey
}

func newFrame() *frame {
	return &frame{entries: make(map[scopeKey]Entry)}
}

// Env is the renaming environment: a stack of lexical frames over
// module-global state (taken target identifiers, decreasing-argument
// indices, loaded module interfaces).
type Env struct {
	frames []*frame

	// used records taken target identifiers for the module's top
	// level (and the reserved words). Gallina has a single namespace,
	// so one pool serves both source-level scopes. localUsed holds the
	// identifiers taken inside the definition currently being emitted;
	// it is dropped when the definition ends, so sibling definitions
	// reuse the same binder names while staying unique internally and
	// never capturing a top-level identifier.
	used      map[string]bool
	localUsed map[string]bool

	currentModule string
	imports       []string

	decArgs map[ir.Name]int

	// counter for generated source-level identifiers (see
	// FreshSourceIdent)
	sourceFresh int
}

// NewEnv creates an environment with a single global frame.
func NewEnv() *Env {
	e := &Env{
		frames:  []*frame{newFrame()},
		used:    make(map[string]bool),
		decArgs: make(map[ir.Name]int),
	}
	for _, kw := range gallinaReserved {
		e.used[kw] = true
	}
	return e
}

// SetModule switches the environment to compiling module name with the
// given imports. It records only the name and the imports and resets
// no other state; each module is compiled in a fresh Env seeded from
// the same predefined set (see Converter.ConvertModule).
func (e *Env) SetModule(name string, imports []string) {
	e.currentModule = name
	e.imports = imports
}

func (e *Env) CurrentModule() string {
	return e.currentModule
}

// PushScope opens a lexical scope for a binding construct.
func (e *Env) PushScope() {
	e.frames = append(e.frames, newFrame())
}

// PopScope closes the innermost scope. Target identifiers taken by the
// popped entries remain taken.
func (e *Env) PopScope() {
	if len(e.frames) == 1 {
		panic("PopScope on global frame")
	}
	e.frames = e.frames[:len(e.frames)-1]
}

func (e *Env) top() *frame {
	return e.frames[len(e.frames)-1]
}

// Define inserts entry under its original name in the innermost frame.
// It reports an error for duplicate definitions in the same frame and
// scope.
func (e *Env) Define(entry Entry) error {
	key := scopeKey{entry.EntryScope(), entry.OrigName()}
	f := e.top()
	if _, ok := f.entries[key]; ok {
		return fmt.Errorf("duplicate %s-scope definition of %s", entry.EntryScope(), entry.OrigName())
	}
	f.entries[key] = entry
	f.order = append(f.order, key)
	return nil
}

// lookupExact finds an entry under exactly the given (qualified or
// local) name, innermost frame first.
func (e *Env) lookupExact(scope Scope, name ir.Name) (Entry, bool) {
	key := scopeKey{scope, name}
	for i := len(e.frames) - 1; i >= 0; i-- {
		if entry, ok := e.frames[i].entries[key]; ok {
			return entry, true
		}
	}
	return nil, false
}

// Lookup resolves name in the given scope. Unqualified names resolve
// to local binders first, then to the current module's top level, then
// to entries provided by imports (including the predefined module); a
// name provided by several imports is ambiguous. Qualified names
// resolve exactly.
func (e *Env) Lookup(scope Scope, name ir.Name) (Entry, error) {
	if name.IsQualified() {
		if entry, ok := e.lookupExact(scope, name); ok {
			return entry, nil
		}
		return nil, fmt.Errorf("unknown %s", describeName(scope, name))
	}
	// local binders and unqualified top-level definitions
	if entry, ok := e.lookupExact(scope, name); ok {
		return entry, nil
	}
	if e.currentModule != "" {
		if entry, ok := e.lookupExact(scope, name.WithMod(e.currentModule)); ok {
			return entry, nil
		}
	}
	var found []Entry
	for _, mod := range e.importChain() {
		if entry, ok := e.lookupExact(scope, name.WithMod(mod)); ok {
			found = append(found, entry)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("unknown %s", describeName(scope, name))
	case 1:
		return found[0], nil
	default:
		var mods []string
		for _, entry := range found {
			mods = append(mods, entry.OrigName().Mod)
		}
		sort.Strings(mods)
		return nil, fmt.Errorf("ambiguous reference %s (provided by %s)",
			name, strings.Join(mods, ", "))
	}
}

// importChain is the modules searched for unqualified names, in a
// deterministic order: declared imports first, then the predefined
// module.
func (e *Env) importChain() []string {
	chain := append([]string{}, e.imports...)
	chain = append(chain, PredefModule)
	return chain
}

func describeName(scope Scope, name ir.Name) string {
	kind := "value"
	if scope == TypeScope {
		kind = "type constructor"
	}
	return fmt.Sprintf("%s %s", kind, name)
}

// BeginLocalIdents opens the per-definition identifier layer; until
// EndLocalIdents, taken identifiers are recorded there instead of
// module-wide.
func (e *Env) BeginLocalIdents() {
	e.localUsed = make(map[string]bool)
}

// EndLocalIdents drops the per-definition identifier layer.
func (e *Env) EndLocalIdents() {
	e.localUsed = nil
}

func (e *Env) identUsed(id string) bool {
	if e.used[id] {
		return true
	}
	return e.localUsed != nil && e.localUsed[id]
}

func (e *Env) claimIdent(id string) {
	if e.localUsed != nil {
		e.localUsed[id] = true
		return
	}
	e.used[id] = true
}

// SetDecArg records the decreasing-argument index for a recursive
// function after termination analysis.
func (e *Env) SetDecArg(name ir.Name, index int) {
	e.decArgs[name] = index
}

// DecArg returns the decreasing-argument index assigned to name.
func (e *Env) DecArg(name ir.Name) (int, bool) {
	i, ok := e.decArgs[name]
	return i, ok
}

// Entries returns the top-level entries of the current module in
// definition order, for interface emission.
func (e *Env) Entries() []Entry {
	global := e.frames[0]
	var out []Entry
	for _, key := range global.order {
		entry := global.entries[key]
		if entry.OrigName().Mod == e.currentModule {
			out = append(out, entry)
		}
	}
	return out
}
