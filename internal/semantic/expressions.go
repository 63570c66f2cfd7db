package semantic

import (
	"strconv"

	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/parser"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/symtab"
	"github.com/dekarrin/rustlite/internal/token"
)

// refType builds the &T or &mut T type produced by taking a reference.
func refType(mut bool, inner *rstypes.Type) *rstypes.Type {
	return rstypes.NewRef(mut, inner)
}

// requireInit rejects reading a variable that has been declared but never
// assigned. Only named lvalues can be uninitialized; the check is made at
// each site that consumes an expression's value, not when the name itself
// reduces, since the same name reduction also feeds assignment targets
// (where first assignment of a declared-but-uninitialized binding is
// exactly the legal way to initialize it, per spec.md §4.4
// "Declarations").
func requireInit(e *parser.Attrs, loc token.Pos) error {
	if e != nil && e.IsLvalue && e.Name != "" && !e.Initialized {
		return errAt(compileerr.KindDeclaration, loc, "use of %q before initialization", e.Name)
	}
	return nil
}

func registerExpressionHandlers(h map[string]handlerFunc) {
	h["Expr -> AssignExpr"] = passCode

	h["Primary -> ident"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		name := rhs[0].Name
		sym, ok := a.symbols.Lookup(name)
		if !ok {
			return nil, errAt(compileerr.KindDeclaration, loc, "use of undeclared variable %q", name)
		}
		return &parser.Attrs{
			Type:        sym.Type,
			Place:       name,
			Name:        name,
			IsLvalue:    true,
			IsMutable:   sym.IsMutable,
			Initialized: sym.Initialized,
		}, nil
	}

	h["Primary -> ident lparen ArgListOpt rparen"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return callFunc(a, rhs[0].Name, rhs[2], loc)
	}

	h["Primary -> lparen Expr rparen"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return rhs[1], nil
	}

	h["Primary -> lparen Expr comma TupleElemsRest rparen"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		if err := requireInit(rhs[1], loc); err != nil {
			return nil, err
		}
		elems := append([]*parser.Attrs{rhs[1]}, rhs[3].ElemList...)
		return buildTupleLiteral(a, elems), nil
	}

	h["Primary -> lbracket ArrayElemsOpt rbracket"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return buildArrayLiteral(a, rhs[1].ElemList, loc)
	}

	h["Postfix -> Postfix lbracket Expr rbracket"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		base := rhs[0]
		if err := requireInit(base, loc); err != nil {
			return nil, err
		}
		if base.Type == nil || !base.Type.IsArray() {
			return nil, errAt(compileerr.KindType, loc, "cannot index a value of type %s", base.Type)
		}
		idx := rhs[2]
		if err := requireInit(idx, loc); err != nil {
			return nil, err
		}
		if err := requireI32(idx.Type, loc, "array index"); err != nil {
			return nil, err
		}
		result := a.newTemp()
		code := append(append([]ir.Quad{}, base.Code...), idx.Code...)
		code = append(code, ir.Quad{Op: ir.ArrayLoad, Arg1: base.Name, Arg2: idx.Place, Result: result})
		return &parser.Attrs{
			Type: base.Type.Element, Place: result, Code: code,
			IsLvalueAddress: true, Base: base.Name, Index: idx.Place,
			IsMutable: base.IsMutable,
		}, nil
	}

	h["Postfix -> Postfix dot int_lit"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		base := rhs[0]
		if err := requireInit(base, loc); err != nil {
			return nil, err
		}
		if base.Type == nil || !base.Type.IsTuple() {
			return nil, errAt(compileerr.KindType, loc, "cannot access a field of a value of type %s", base.Type)
		}
		fieldStr := rhs[2].TokenObj.Content
		field, _ := strconv.Atoi(fieldStr)
		if field < 0 || field >= len(base.Type.Elements) {
			return nil, errAt(compileerr.KindDeclaration, loc, "tuple index %d out of range for %s", field, base.Type)
		}
		result := a.newTemp()
		code := append(append([]ir.Quad{}, base.Code...), ir.Quad{Op: ir.ArrayLoad, Arg1: base.Name, Arg2: fieldStr, Result: result})
		return &parser.Attrs{
			Type: base.Type.Elements[field], Place: result, Code: code,
			IsLvalueAddress: true, Base: base.Name, Index: fieldStr,
			IsMutable: base.IsMutable,
		}, nil
	}

	h["UnaryExpr -> star UnaryExpr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		p := rhs[1]
		if err := requireInit(p, loc); err != nil {
			return nil, err
		}
		if p.Type == nil || !p.Type.IsRef() {
			return nil, errAt(compileerr.KindType, loc, "cannot dereference a value of type %s", p.Type)
		}
		result := a.newTemp()
		code := append(append([]ir.Quad{}, p.Code...), ir.Quad{Op: ir.DerefLoad, Arg1: p.Place, Result: result})
		return &parser.Attrs{
			Type: p.Type.Inner, Place: result, Code: code,
			IsLvalueAddress: true, IsDeref: true, Base: p.Place,
			IsMutable: p.Type.Mut,
		}, nil
	}

	h["UnaryExpr -> amp UnaryExpr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return takeRef(a, rhs[1], false, loc)
	}
	h["UnaryExpr -> amp kw_mut UnaryExpr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return takeRef(a, rhs[2], true, loc)
	}
}

func takeRef(a *Analyzer, operand *parser.Attrs, mut bool, loc token.Pos) (*parser.Attrs, error) {
	if !operand.IsLvalue || operand.Name == "" {
		return nil, errAt(compileerr.KindMutability, loc, "cannot take a reference to a non-lvalue expression")
	}
	sym, ok := a.symbols.Lookup(operand.Name)
	if !ok {
		return nil, errAt(compileerr.KindDeclaration, loc, "use of undeclared variable %q", operand.Name)
	}
	if !sym.Initialized {
		return nil, errAt(compileerr.KindDeclaration, loc, "cannot borrow %q before initialization", operand.Name)
	}
	var err error
	if mut {
		err = symtab.IncMut(sym)
	} else {
		err = symtab.IncImm(sym)
	}
	if err != nil {
		return nil, errAt(compileerr.KindMutability, loc, "%s", err.Error())
	}

	result := a.newTemp()
	code := []ir.Quad{{Op: ir.Ref, Arg1: operand.Name, Result: result}}
	return &parser.Attrs{
		Type: refType(mut, operand.Type), Place: result, Code: code,
		BorrowOf: operand.Name, BorrowMut: mut,
	}, nil
}
