package ir

// Expr is a source expression. Every node carries its span and an
// annotation slot for a type, filled opportunistically during
// conversion (signatures are mandatory, so nothing depends on it).
type Expr interface {
	ExprSpan() Span
	Annot() Type
	exprNode()
}

type exprBase struct {
	Span   Span
	Annot_ Type
}

func (e *exprBase) ExprSpan() Span { return e.Span }
func (e *exprBase) Annot() Type    { return e.Annot_ }

// SetAnnot fills the annotation slot of e.
func SetAnnot(e Expr, t Type) {
	switch n := e.(type) {
	case *Var:
		n.Annot_ = t
	case *Con:
		n.Annot_ = t
	case *App:
		n.Annot_ = t
	case *If:
		n.Annot_ = t
	case *Case:
		n.Annot_ = t
	case *Lambda:
		n.Annot_ = t
	case *IntLit:
		n.Annot_ = t
	case *Undefined:
		n.Annot_ = t
	case *ErrorCall:
		n.Annot_ = t
	}
}

// Var references a function or variable.
type Var struct {
	exprBase
	Name Name
}

// Con references a data constructor.
type Con struct {
	exprBase
	Name Name
}

// App is a single application; spines are left-nested App chains.
type App struct {
	exprBase
	Fn  Expr
	Arg Expr
}

type If struct {
	exprBase
	Cond Expr
	Then Expr
	Else Expr
}

type Case struct {
	exprBase
	Scrutinee Expr
	Alts      []Alt
}

// Lambda binds variable patterns only.
type Lambda struct {
	exprBase
	Pats []VarPat
	Body Expr
}

type IntLit struct {
	exprBase
	Value int64
}

// Undefined is the predefined diverging value.
type Undefined struct {
	exprBase
}

// ErrorCall is `error "msg"` with the message already extracted.
type ErrorCall struct {
	exprBase
	Msg string
}

func (*Var) exprNode()       {}
func (*Con) exprNode()       {}
func (*App) exprNode()       {}
func (*If) exprNode()        {}
func (*Case) exprNode()      {}
func (*Lambda) exprNode()    {}
func (*IntLit) exprNode()    {}
func (*Undefined) exprNode() {}
func (*ErrorCall) exprNode() {}

// VarPat is a variable pattern binder.
type VarPat struct {
	Span  Span
	Ident string
}

// ConPat names the constructor of a case alternative.
type ConPat struct {
	Span Span
	Name Name
}

// Alt is one case alternative: a constructor pattern applied to a flat
// list of variable patterns.
type Alt struct {
	Span Span
	Con  ConPat
	Vars []VarPat
	Rhs  Expr
}

// NewVar/NewCon/NewApp build nodes with a span, for the parser and the
// recursion transformer.

func NewVar(span Span, name Name) *Var {
	return &Var{exprBase: exprBase{Span: span}, Name: name}
}

func NewCon(span Span, name Name) *Con {
	return &Con{exprBase: exprBase{Span: span}, Name: name}
}

func NewApp(fn, arg Expr) *App {
	return &App{exprBase: exprBase{Span: fn.ExprSpan().Union(arg.ExprSpan())}, Fn: fn, Arg: arg}
}

func NewIntLit(span Span, v int64) *IntLit {
	return &IntLit{exprBase: exprBase{Span: span}, Value: v}
}

// Apply folds arguments onto a head expression.
func Apply(head Expr, args ...Expr) Expr {
	for _, a := range args {
		head = NewApp(head, a)
	}
	return head
}

// Spine splits a left-nested application chain into its head and
// arguments in source order.
func Spine(e Expr) (head Expr, args []Expr) {
	for {
		app, ok := e.(*App)
		if !ok {
			return e, args
		}
		args = append([]Expr{app.Arg}, args...)
		e = app.Fn
	}
}
