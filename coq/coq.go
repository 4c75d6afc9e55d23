// Package coq represents the emitted subset of Gallina and the
// vernacular sentences around it, with just enough pretty-printing to
// produce readable .v files. Terms and types share the Expr interface
// (Gallina does not distinguish them); sentences implement Sentence.
package coq

import (
	"fmt"
	"strings"
)

// buffer is a simple indenting pretty printer.
type buffer struct {
	lines       []string
	indentLevel int
}

func (pp buffer) indentation() string {
	return strings.Repeat(" ", pp.indentLevel)
}

func (pp *buffer) AddLine(line string) {
	if line == "" {
		pp.lines = append(pp.lines, "")
		return
	}
	pp.lines = append(pp.lines, pp.indentation()+indent(pp.indentLevel, line))
}

// Add adds formatted to the buffer.
func (pp *buffer) Add(format string, args ...interface{}) {
	pp.AddLine(fmt.Sprintf(format, args...))
}

func (pp *buffer) Indent(spaces int) {
	pp.indentLevel += spaces
}

func (pp buffer) Build() string {
	return strings.Join(pp.lines, "\n")
}

func indent(spaces int, s string) string {
	lines := strings.Split(s, "\n")
	indentation := strings.Repeat(" ", spaces)
	for i, line := range lines {
		if i == 0 || line == "" {
			continue
		}
		lines[i] = indentation + line
	}
	return strings.Join(lines, "\n")
}

func isWellBalanced(s, lDelim, rDelim string) bool {
	if !strings.HasPrefix(s, lDelim) || !strings.HasSuffix(s, rDelim) {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i : i+1] {
		case lDelim:
			depth++
		case rDelim:
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

func addParens(s string) string {
	// conservative avoidance of parentheses
	if !strings.ContainsAny(s, " \n") || isWellBalanced(s, "(", ")") {
		return s
	}
	return fmt.Sprintf("(%s)", s)
}

// Expr is a Gallina term (or type).
type Expr interface {
	Coq() string
}

// Ident is a Gallina identifier or qualified identifier, emitted
// literally.
type Ident string

func (e Ident) Coq() string {
	return string(e)
}

// App is an application of a head to one or more arguments.
type App struct {
	Fn   Expr
	Args []Expr
}

// NewApp builds an application; with no arguments it collapses to the
// head itself.
func NewApp(fn Expr, args ...Expr) Expr {
	if len(args) == 0 {
		return fn
	}
	return &App{Fn: fn, Args: args}
}

func (e *App) Coq() string {
	comps := []string{addParens(e.Fn.Coq())}
	for _, a := range e.Args {
		comps = append(comps, addParens(a.Coq()))
	}
	return strings.Join(comps, " ")
}

// Arrow is the function type former, right-associated.
type Arrow struct {
	From Expr
	To   Expr
}

func (e *Arrow) Coq() string {
	from := e.From.Coq()
	if _, ok := e.From.(*Arrow); ok {
		from = addParens(from)
	}
	return fmt.Sprintf("%s -> %s", from, e.To.Coq())
}

// Fun is an anonymous function with untyped binders; Coq infers the
// binder types in all emitted positions.
type Fun struct {
	Binders []string
	Body    Expr
}

func (e *Fun) Coq() string {
	return fmt.Sprintf("fun %s => %s", strings.Join(e.Binders, " "), e.Body.Coq())
}

// ZLit is an integer literal in the Z scope.
type ZLit int64

func (e ZLit) Coq() string {
	if e < 0 {
		return fmt.Sprintf("(%d)%%Z", int64(e))
	}
	return fmt.Sprintf("%d%%Z", int64(e))
}

// StringLit is a string literal in the string scope.
type StringLit string

func (e StringLit) Coq() string {
	escaped := strings.ReplaceAll(string(e), `"`, `""`)
	return fmt.Sprintf(`"%s"%%string`, escaped)
}

// MatchArm is one equation of a match: a constructor pattern with
// variable binders.
type MatchArm struct {
	Con  string
	Vars []string
	Body Expr
}

func (arm MatchArm) pattern() string {
	comps := append([]string{arm.Con}, arm.Vars...)
	return strings.Join(comps, " ")
}

// Match is a full pattern match on one scrutinee.
type Match struct {
	Scrutinee Expr
	Arms      []MatchArm
}

func (e *Match) Coq() string {
	var pp buffer
	pp.Add("match %s with", e.Scrutinee.Coq())
	for _, arm := range e.Arms {
		body := arm.Body.Coq()
		if strings.Contains(body, "\n") || len(body) > 60 {
			pp.Add("| %s =>", arm.pattern())
			pp.Indent(4)
			pp.AddLine(body)
			pp.Indent(-4)
		} else {
			pp.Add("| %s => %s", arm.pattern(), body)
		}
	}
	pp.AddLine("end")
	return pp.Build()
}

// Binder is one binder group of a definition: (x y : T) or {a : Type}.
type Binder struct {
	Names    []string
	Type     Expr
	Implicit bool
}

func NewBinder(name string, ty Expr) Binder {
	return Binder{Names: []string{name}, Type: ty}
}

func NewImplicitBinder(name string, ty Expr) Binder {
	return Binder{Names: []string{name}, Type: ty, Implicit: true}
}

func (b Binder) Coq() string {
	inner := fmt.Sprintf("%s : %s", strings.Join(b.Names, " "), b.Type.Coq())
	if b.Implicit {
		return "{" + inner + "}"
	}
	return "(" + inner + ")"
}

func binderList(bs []Binder) string {
	var comps []string
	for _, b := range bs {
		comps = append(comps, b.Coq())
	}
	return strings.Join(comps, " ")
}

// Sentence is a complete vernacular sentence, terminated by a period.
type Sentence interface {
	CoqSentence() string
}

// Comment is a top-level (* ... *) comment posing as a sentence so it
// can sit among sentences in a file.
type Comment string

func (c Comment) CoqSentence() string {
	return fmt.Sprintf("(* %s *)", string(c))
}

// Require is a Require Import sentence, optionally with a From prefix.
type Require struct {
	From    string
	Modules []string
}

func (s Require) CoqSentence() string {
	if s.From != "" {
		return fmt.Sprintf("From %s Require Import %s.", s.From, strings.Join(s.Modules, " "))
	}
	return fmt.Sprintf("Require Import %s.", strings.Join(s.Modules, " "))
}

// Definition is a (non-recursive) Definition sentence.
type Definition struct {
	Name       string
	Binders    []Binder
	ReturnType Expr
	Body       Expr
	Comment    string
}

func (d Definition) CoqSentence() string {
	var pp buffer
	addComment(&pp, d.Comment)
	header := fmt.Sprintf("Definition %s", d.Name)
	if len(d.Binders) > 0 {
		header += " " + binderList(d.Binders)
	}
	if d.ReturnType != nil {
		header += fmt.Sprintf(" : %s", d.ReturnType.Coq())
	}
	body := d.Body.Coq()
	if !strings.Contains(body, "\n") && len(header)+len(body)+5 <= 77 {
		pp.Add("%s := %s.", header, body)
		return pp.Build()
	}
	pp.Add("%s :=", header)
	pp.Indent(2)
	pp.AddLine(body + ".")
	return pp.Build()
}

// FixBody is one body of a (possibly mutual) Fixpoint sentence.
type FixBody struct {
	Name       string
	Binders    []Binder
	StructArg  string
	ReturnType Expr
	Body       Expr
}

// Fixpoint is a Fixpoint sentence; multiple bodies are joined by with,
// which is how a mutually recursive SCC is emitted as one block.
type Fixpoint struct {
	Bodies  []FixBody
	Comment string
}

func (d Fixpoint) CoqSentence() string {
	var pp buffer
	addComment(&pp, d.Comment)
	for i, b := range d.Bodies {
		keyword := "Fixpoint"
		if i > 0 {
			keyword = "with"
		}
		header := fmt.Sprintf("%s %s %s", keyword, b.Name, binderList(b.Binders))
		if b.StructArg != "" {
			header += fmt.Sprintf(" {struct %s}", b.StructArg)
		}
		if b.ReturnType != nil {
			header += fmt.Sprintf(" : %s", b.ReturnType.Coq())
		}
		terminator := ""
		if i == len(d.Bodies)-1 {
			terminator = "."
		}
		pp.Add("%s :=", header)
		pp.Indent(2)
		pp.AddLine(b.Body.Coq() + terminator)
		pp.Indent(-2)
	}
	return pp.Build()
}

// InductiveCon is one constructor of an inductive body, with its full
// (arrow) type ending in the applied type head.
type InductiveCon struct {
	Name string
	Type Expr
}

// InductiveBody is one body of a (possibly mutual) Inductive sentence.
type InductiveBody struct {
	Name    string
	Params  []Binder
	Cons    []InductiveCon
	Comment string
}

// Inductive is an Inductive sentence; multiple bodies are joined by
// with, which is how mutually recursive data types are emitted.
type Inductive struct {
	Bodies []InductiveBody
}

func (d Inductive) CoqSentence() string {
	var pp buffer
	for i, b := range d.Bodies {
		keyword := "Inductive"
		if i > 0 {
			keyword = "with"
		}
		addComment(&pp, b.Comment)
		last := i == len(d.Bodies)-1
		header := fmt.Sprintf("%s %s %s : Type :=", keyword, b.Name, binderList(b.Params))
		if len(b.Cons) == 0 && last {
			header += "."
		}
		pp.AddLine(header)
		pp.Indent(2)
		for j, c := range b.Cons {
			terminator := ""
			if last && j == len(b.Cons)-1 {
				terminator = "."
			}
			pp.Add("| %s : %s%s", c.Name, c.Type.Coq(), terminator)
		}
		pp.Indent(-2)
	}
	return pp.Build()
}

// Arguments marks binders of an identifier implicit.
type Arguments struct {
	Ident    string
	Implicit []string
}

func (d Arguments) CoqSentence() string {
	var comps []string
	for _, name := range d.Implicit {
		comps = append(comps, "{"+name+"}")
	}
	return fmt.Sprintf("Arguments %s %s.", d.Ident, strings.Join(comps, " "))
}

// Module wraps sentences in Module ... End.
type Module struct {
	Name      string
	Sentences []Sentence
}

func (m Module) CoqSentence() string {
	var pp buffer
	pp.Add("Module %s.", m.Name)
	pp.AddLine("")
	for i, s := range m.Sentences {
		pp.AddLine(s.CoqSentence())
		if i != len(m.Sentences)-1 {
			pp.AddLine("")
		}
	}
	pp.AddLine("")
	pp.Add("End %s.", m.Name)
	return pp.Build()
}

func addComment(pp *buffer, c string) {
	if c == "" {
		return
	}
	pp.Add("(* %s *)", c)
}
