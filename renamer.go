package hascoq

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hascoq/hascoq/ir"
)

// gallinaReserved lists Gallina keywords and the base-library
// identifiers that appear in every generated sentence. Target
// identifiers must avoid all of them: Shape, Pos and P are binders of
// every generated definition, so a user-defined function with one of
// these names would otherwise capture them.
var gallinaReserved = []string{
	// Gallina keywords
	"as", "at", "cofix", "else", "end", "exists", "fix", "for",
	"forall", "fun", "if", "in", "let", "match", "mod", "return",
	"then", "where", "with",
	// sorts
	"Prop", "Set", "Type", "SProp",
	// vernacular
	"Arguments", "Definition", "End", "Fixpoint", "Import",
	"Inductive", "Module", "Require",
	// base-library names threaded through every definition
	"Shape", "Pos", "P", "Free", "Partial", "pure", "bind",
	"undefined", "error",
}

// symbolChars maps operator characters to identifier fragments for
// sanitizing symbolic names.
var symbolChars = map[rune]string{
	'+': "plus", '-': "minus", '*': "mul", '/': "slash",
	':': "colon", '=': "eq", '<': "lt", '>': "gt",
	'&': "amp", '|': "bar", '^': "caret", '!': "bang",
	'.': "dot", '$': "dollar", '%': "percent", '~': "tilde",
	'?': "quest", '@': "at", '#': "hash", '\\': "backslash",
}

// sanitizeIdent turns a source name into a candidate Gallina
// identifier: operator characters are spelled out, other invalid
// characters dropped, and a leading digit or prime gets an underscore
// prefix. The result may still clash; TakeIdent disambiguates. An
// empty result means the name cannot be sanitized.
func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_' || r == '\'':
			b.WriteRune(r)
		case unicode.IsLetter(r) && r < 128:
			b.WriteRune(r)
		case unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
		default:
			if frag, ok := symbolChars[r]; ok {
				b.WriteString(frag)
			}
		}
	}
	out := b.String()
	if out == "" {
		return ""
	}
	if c := out[0]; c == '\'' || ('0' <= c && c <= '9') {
		out = "_" + out
	}
	return out
}

// TakeIdent picks and registers a target identifier from the
// suggested source spelling. Gallina has a single namespace, so one
// pool covers both source-level scopes. The result is a valid Gallina
// identifier, differs from every keyword and every identifier taken so
// far, and is stable across runs: the sanitized base is used unchanged
// when free, otherwise the smallest numeric suffix is appended.
func (e *Env) TakeIdent(suggestion string) (string, error) {
	base := sanitizeIdent(suggestion)
	if base == "" {
		return "", fmt.Errorf("name %q cannot be turned into a Gallina identifier", suggestion)
	}
	if !e.identUsed(base) {
		e.claimIdent(base)
		return base, nil
	}
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%s%d", base, n)
		if !e.identUsed(candidate) {
			e.claimIdent(candidate)
			return candidate, nil
		}
	}
}

// FreshPrefix is the fixed prefix for anonymous arguments and
// temporary bindings.
const FreshPrefix = "x"

// FreshIdent returns an identifier of the form <prefix>_<n> not yet
// taken and registers it. Deterministic: the smallest free n wins.
func (e *Env) FreshIdent(prefix string) string {
	base := sanitizeIdent(freshBase(prefix))
	if base == "" {
		base = FreshPrefix
	}
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if !e.identUsed(candidate) {
			e.claimIdent(candidate)
			return candidate
		}
	}
}

// FreshSourceIdent generates a fresh *source-level* identifier for IR
// rewrites (eta-expansion, helper extraction). Source identifiers with
// a '#' cannot be written in the input language, so the result never
// collides with user names; the renamer later sanitizes the '#' away.
func (e *Env) FreshSourceIdent(prefix string) string {
	e.sourceFresh++
	return fmt.Sprintf("%s#%d", prefix, e.sourceFresh-1)
}

// defineVar renames ident and defines a VarEntry for it in the current
// scope, returning the entry.
func (e *Env) defineVar(ident string, pure bool) (*VarEntry, error) {
	target, err := e.TakeIdent(freshBase(ident))
	if err != nil {
		return nil, err
	}
	entry := &VarEntry{Name: ir.Ident(ident), PureVar: pure, Target: target}
	if err := e.Define(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// defineTypeVar renames ident and defines a TypeVarEntry for it.
func (e *Env) defineTypeVar(ident string) (*TypeVarEntry, error) {
	target, err := e.TakeIdent(freshBase(ident))
	if err != nil {
		return nil, err
	}
	entry := &TypeVarEntry{Name: ir.Ident(ident), Target: target}
	if err := e.Define(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// freshBase rewrites generated source identifiers (containing '#')
// into their prefix so x#3 renames like any other binder named x
// (x, x0, x1, ... through TakeIdent; x_0, x_1, ... through FreshIdent).
func freshBase(ident string) string {
	if i := strings.IndexByte(ident, '#'); i >= 0 {
		return ident[:i]
	}
	return ident
}
