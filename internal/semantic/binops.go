package semantic

import (
	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/parser"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/token"
)

func registerBinopHandlers(h map[string]handlerFunc) {
	h["AddExpr -> AddExpr plus MulExpr"] = arith(ir.Add)
	h["AddExpr -> AddExpr minus MulExpr"] = arith(ir.Sub)
	h["MulExpr -> MulExpr star UnaryExpr"] = arith(ir.Mul)
	h["MulExpr -> MulExpr slash UnaryExpr"] = divide

	h["CmpExpr -> CmpExpr eqeq AddExpr"] = compare(ir.Eq)
	h["CmpExpr -> CmpExpr noteq AddExpr"] = compare(ir.Ne)
	h["CmpExpr -> CmpExpr lt AddExpr"] = compare(ir.Lt)
	h["CmpExpr -> CmpExpr le AddExpr"] = compare(ir.Le)
	h["CmpExpr -> CmpExpr gt AddExpr"] = compare(ir.Gt)
	h["CmpExpr -> CmpExpr ge AddExpr"] = compare(ir.Ge)

	h["AndExpr -> AndExpr ampamp CmpExpr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		lhs, r := rhs[0], rhs[2]
		if err := requireOperands(lhs, r, loc); err != nil {
			return nil, err
		}
		if err := requireI32(lhs.Type, loc, "&&"); err != nil {
			return nil, err
		}
		if err := requireI32(r.Type, loc, "&&"); err != nil {
			return nil, err
		}
		result := a.newTemp()
		lFalse, lEnd := a.newLabel(), a.newLabel()

		code := append([]ir.Quad{}, lhs.Code...)
		code = append(code, ir.Quad{Op: ir.IfFalse, Arg1: lhs.Place, Arg2: lFalse})
		code = append(code, r.Code...)
		code = append(code, ir.Quad{Op: ir.Assign, Arg1: r.Place, Result: result})
		code = append(code, ir.Quad{Op: ir.Jump, Arg1: lEnd})
		code = append(code, ir.Quad{Op: ir.Label, Arg1: lFalse})
		code = append(code, ir.Quad{Op: ir.Assign, Arg1: "0", Result: result})
		code = append(code, ir.Quad{Op: ir.Label, Arg1: lEnd})

		return &parser.Attrs{Type: rstypes.I32, Place: result, Code: code}, nil
	}

	h["OrExpr -> OrExpr pipepipe AndExpr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		lhs, r := rhs[0], rhs[2]
		if err := requireOperands(lhs, r, loc); err != nil {
			return nil, err
		}
		if err := requireI32(lhs.Type, loc, "||"); err != nil {
			return nil, err
		}
		if err := requireI32(r.Type, loc, "||"); err != nil {
			return nil, err
		}
		result := a.newTemp()
		lTrue, lEnd := a.newLabel(), a.newLabel()

		code := append([]ir.Quad{}, lhs.Code...)
		code = append(code, ir.Quad{Op: ir.IfTrue, Arg1: lhs.Place, Arg2: lTrue})
		code = append(code, r.Code...)
		code = append(code, ir.Quad{Op: ir.Assign, Arg1: r.Place, Result: result})
		code = append(code, ir.Quad{Op: ir.Jump, Arg1: lEnd})
		code = append(code, ir.Quad{Op: ir.Label, Arg1: lTrue})
		code = append(code, ir.Quad{Op: ir.Assign, Arg1: "1", Result: result})
		code = append(code, ir.Quad{Op: ir.Label, Arg1: lEnd})

		return &parser.Attrs{Type: rstypes.I32, Place: result, Code: code}, nil
	}

	h["UnaryExpr -> minus UnaryExpr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		operand := rhs[1]
		if err := requireInit(operand, loc); err != nil {
			return nil, err
		}
		if err := requireI32(operand.Type, loc, "unary -"); err != nil {
			return nil, err
		}
		result := a.newTemp()
		code := append(append([]ir.Quad{}, operand.Code...), ir.Quad{Op: ir.Sub, Arg1: "0", Arg2: operand.Place, Result: result})
		return &parser.Attrs{Type: rstypes.I32, Place: result, Code: code}, nil
	}

	h["UnaryExpr -> bang UnaryExpr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		operand := rhs[1]
		if err := requireInit(operand, loc); err != nil {
			return nil, err
		}
		if err := requireI32(operand.Type, loc, "!"); err != nil {
			return nil, err
		}
		result := a.newTemp()
		code := append(append([]ir.Quad{}, operand.Code...), ir.Quad{Op: ir.Eq, Arg1: operand.Place, Arg2: "0", Result: result})
		return &parser.Attrs{Type: rstypes.I32, Place: result, Code: code}, nil
	}
}

// requireOperands checks both sides of a binary operator for
// use-before-initialization.
func requireOperands(lhs, r *parser.Attrs, loc token.Pos) error {
	if err := requireInit(lhs, loc); err != nil {
		return err
	}
	return requireInit(r, loc)
}

func requireI32(t *rstypes.Type, loc token.Pos, op string) error {
	if t == nil || !t.IsI32() {
		return errAt(compileerr.KindType, loc, "operator %q requires i32 operands, got %s", op, t)
	}
	return nil
}

func arith(op ir.OpCode) handlerFunc {
	return func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		lhs, r := rhs[0], rhs[2]
		if err := requireOperands(lhs, r, loc); err != nil {
			return nil, err
		}
		if err := requireI32(lhs.Type, loc, op.String()); err != nil {
			return nil, err
		}
		if err := requireI32(r.Type, loc, op.String()); err != nil {
			return nil, err
		}
		result := a.newTemp()
		code := append(append(append([]ir.Quad{}, lhs.Code...), r.Code...), ir.Quad{Op: op, Arg1: lhs.Place, Arg2: r.Place, Result: result})
		return &parser.Attrs{Type: rstypes.I32, Place: result, Code: code}, nil
	}
}

func divide(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
	lhs, r := rhs[0], rhs[2]
	if err := requireOperands(lhs, r, loc); err != nil {
		return nil, err
	}
	if err := requireI32(lhs.Type, loc, "/"); err != nil {
		return nil, err
	}
	if err := requireI32(r.Type, loc, "/"); err != nil {
		return nil, err
	}
	if r.Place == "0" {
		return nil, errAt(compileerr.KindType, loc, "division by literal zero")
	}
	result := a.newTemp()
	code := append(append(append([]ir.Quad{}, lhs.Code...), r.Code...), ir.Quad{Op: ir.Div, Arg1: lhs.Place, Arg2: r.Place, Result: result})
	return &parser.Attrs{Type: rstypes.I32, Place: result, Code: code}, nil
}

func compare(op ir.OpCode) handlerFunc {
	return func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		lhs, r := rhs[0], rhs[2]
		if err := requireOperands(lhs, r, loc); err != nil {
			return nil, err
		}
		if lhs.Type == nil || r.Type == nil || !rstypes.Equal(lhs.Type, r.Type) {
			return nil, errAt(compileerr.KindType, loc, "comparison requires operands of the same type, got %s and %s", lhs.Type, r.Type)
		}
		result := a.newTemp()
		code := append(append(append([]ir.Quad{}, lhs.Code...), r.Code...), ir.Quad{Op: op, Arg1: lhs.Place, Arg2: r.Place, Result: result})
		return &parser.Attrs{Type: rstypes.I32, Place: result, Code: code}, nil
	}
}
