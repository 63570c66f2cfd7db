package semantic

import (
	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/parser"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/symtab"
	"github.com/dekarrin/rustlite/internal/token"
)

// registerLetHandlers implements the four declaration cases of spec.md
// §4.4 "Declarations", crossed with whether the binding is `mut`.
func registerLetHandlers(h map[string]handlerFunc) {
	h["LetStmt -> kw_let ident colon Type eq Expr semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return letTypedInit(a, rhs[1].Name, false, rhs[3].Type, rhs[5], loc)
	}
	h["LetStmt -> kw_let kw_mut ident colon Type eq Expr semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return letTypedInit(a, rhs[2].Name, true, rhs[4].Type, rhs[6], loc)
	}
	h["LetStmt -> kw_let ident eq Expr semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return letInferredInit(a, rhs[1].Name, false, rhs[3], loc)
	}
	h["LetStmt -> kw_let kw_mut ident eq Expr semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return letInferredInit(a, rhs[2].Name, true, rhs[4], loc)
	}
	h["LetStmt -> kw_let ident colon Type semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return letTypedNoInit(a, rhs[1].Name, false, rhs[3].Type), nil
	}
	h["LetStmt -> kw_let kw_mut ident colon Type semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return letTypedNoInit(a, rhs[2].Name, true, rhs[4].Type), nil
	}
	h["LetStmt -> kw_let ident semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return letBare(a, rhs[1].Name, false), nil
	}
	h["LetStmt -> kw_let kw_mut ident semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return letBare(a, rhs[2].Name, true), nil
	}
}

// letTypedInit handles `let [mut] x : T = e ;`.
func letTypedInit(a *Analyzer, name string, mut bool, declared *rstypes.Type, e *parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
	if err := requireInit(e, loc); err != nil {
		return nil, err
	}
	if !rstypes.Compatible(declared, e.Type) {
		return nil, errAt(compileerr.KindType, loc, "cannot assign value of type %s to %q declared as %s", e.Type, name, declared)
	}
	sym := &symtab.Symbol{Name: name, Kind: symtab.KindVariable, Type: declared, IsMutable: mut, Initialized: true, LineDeclared: loc.Row}
	bindBorrow(a, sym, e)
	a.symbols.Declare(sym)

	code := append(append([]ir.Quad{}, e.Code...), ir.Quad{Op: ir.Assign, Arg1: e.Place, Result: name})
	return &parser.Attrs{Code: code}, nil
}

// letInferredInit handles `let [mut] x = e ;`.
func letInferredInit(a *Analyzer, name string, mut bool, e *parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
	if err := requireInit(e, loc); err != nil {
		return nil, err
	}
	if e.Type.IsVoid() {
		return nil, errAt(compileerr.KindType, loc, "cannot initialize %q from a value of type void", name)
	}
	sym := &symtab.Symbol{Name: name, Kind: symtab.KindVariable, Type: e.Type, IsMutable: mut, Initialized: true, LineDeclared: loc.Row}
	bindBorrow(a, sym, e)
	a.symbols.Declare(sym)

	code := append(append([]ir.Quad{}, e.Code...), ir.Quad{Op: ir.Assign, Arg1: e.Place, Result: name})
	return &parser.Attrs{Code: code}, nil
}

// bindBorrow records, on a freshly declared reference symbol, which symbol
// it borrows from (design notes §9's borrow-release model needs this to
// release the borrow again on scope exit or reassignment). A no-op when
// init did not itself evaluate a &x/&mut x expression.
func bindBorrow(a *Analyzer, sym *symtab.Symbol, init *parser.Attrs) {
	if init.BorrowOf == "" {
		return
	}
	if target, ok := a.symbols.Lookup(init.BorrowOf); ok {
		sym.Kind = symtab.KindReference
		sym.Reassign(target, init.BorrowMut)
	}
}

// letTypedNoInit handles `let [mut] x : T ;`.
func letTypedNoInit(a *Analyzer, name string, mut bool, declared *rstypes.Type) *parser.Attrs {
	a.symbols.Declare(&symtab.Symbol{Name: name, Kind: symtab.KindVariable, Type: declared, IsMutable: mut, Initialized: false})
	return &parser.Attrs{}
}

// letBare handles `let [mut] x ;`, with type fixed by the first
// assignment (spec.md §4.4: "type is UnknownInferred, to be fixed by the
// first assignment").
func letBare(a *Analyzer, name string, mut bool) *parser.Attrs {
	a.symbols.Declare(&symtab.Symbol{Name: name, Kind: symtab.KindVariable, Type: rstypes.UnknownInferred, IsMutable: mut, Initialized: false})
	return &parser.Attrs{}
}
