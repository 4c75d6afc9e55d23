package ir

// TypeDecl is a data declaration or a type synonym.
type TypeDecl interface {
	DeclName() DeclIdent
	TypeArgDecls() []DeclIdent
	typeDeclNode()
}

// DataDecl declares an algebraic data type.
type DataDecl struct {
	Ident    DeclIdent
	TypeArgs []DeclIdent
	Cons     []ConDecl
}

// TypeSynDecl declares a type synonym.
type TypeSynDecl struct {
	Ident    DeclIdent
	TypeArgs []DeclIdent
	Rhs      Type
}

func (d *DataDecl) DeclName() DeclIdent    { return d.Ident }
func (d *TypeSynDecl) DeclName() DeclIdent { return d.Ident }

func (d *DataDecl) TypeArgDecls() []DeclIdent    { return d.TypeArgs }
func (d *TypeSynDecl) TypeArgDecls() []DeclIdent { return d.TypeArgs }

func (*DataDecl) typeDeclNode()    {}
func (*TypeSynDecl) typeDeclNode() {}

// ConDecl is one constructor of a data declaration.
type ConDecl struct {
	Ident  DeclIdent
	Fields []Type
}

// FuncDecl is a top-level function binding. TypeArgs come from the
// signature; ReturnType is filled when the signature is split against
// the argument patterns.
type FuncDecl struct {
	Ident      DeclIdent
	TypeArgs   []DeclIdent
	Pats       []VarPat
	Rhs        Expr
	ReturnType Type
}

// Arity is the number of value arguments.
func (d *FuncDecl) Arity() int {
	return len(d.Pats)
}

// TypeSig associates names with a type schema.
type TypeSig struct {
	Span   Span
	Names  []DeclIdent
	Schema TypeSchema
}

// ImportDecl is an unrestricted module import.
type ImportDecl struct {
	Span Span
	Mod  string
}

// Module is one source module after parsing.
type Module struct {
	Span      Span
	Name      string
	Imports   []ImportDecl
	TypeDecls []TypeDecl
	TypeSigs  []TypeSig
	FuncDecls []*FuncDecl
}

// FindSig returns the schema declared for name, if any.
func (m *Module) FindSig(name string) (*TypeSchema, bool) {
	for i := range m.TypeSigs {
		for _, n := range m.TypeSigs[i].Names {
			if n.Name == name {
				return &m.TypeSigs[i].Schema, true
			}
		}
	}
	return nil, false
}
