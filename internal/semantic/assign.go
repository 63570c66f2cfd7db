package semantic

import (
	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/parser"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/symtab"
	"github.com/dekarrin/rustlite/internal/token"
)

func registerAssignHandlers(h map[string]handlerFunc) {
	h["AssignExpr -> OrExpr eq AssignExpr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		lhs, val := rhs[0], rhs[2]

		if err := requireInit(val, loc); err != nil {
			return nil, err
		}

		if lhs.IsLvalueAddress {
			if lhs.IsDeref {
				if !lhs.IsMutable {
					return nil, errAt(compileerr.KindMutability, loc, "cannot assign through a non-mutable reference")
				}
				return assignDeref(lhs, val), nil
			}
			if !lhs.IsMutable {
				return nil, errAt(compileerr.KindMutability, loc, "cannot assign into an element of a non-mutable binding")
			}
			return assignAddressed(lhs, val), nil
		}

		if !lhs.IsLvalue || lhs.Name == "" {
			return nil, errAt(compileerr.KindSyntax, loc, "left-hand side of assignment is not an lvalue")
		}
		return assignNamed(a, lhs, val, loc)
	}
}

// assignNamed implements spec.md §4.4's first assignment case: a named
// variable or parameter. Enforces mutability, infers UnknownInferred
// types from the first assignment, then emits ASSIGN.
func assignNamed(a *Analyzer, lhs, val *parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
	sym, ok := a.symbols.Lookup(lhs.Name)
	if !ok {
		return nil, errAt(compileerr.KindDeclaration, loc, "use of undeclared variable %q", lhs.Name)
	}

	if sym.Type.IsUnknown() {
		sym.Type = val.Type
	} else if sym.Initialized && !sym.IsMutable {
		return nil, errAt(compileerr.KindMutability, loc, "cannot assign twice to immutable variable %q", lhs.Name)
	} else if !rstypes.Compatible(sym.Type, val.Type) {
		return nil, errAt(compileerr.KindType, loc, "cannot assign value of type %s to %q of type %s", val.Type, lhs.Name, sym.Type)
	}
	sym.Initialized = true

	if sym.Kind == symtab.KindReference || val.BorrowOf != "" {
		if val.BorrowOf != "" {
			sym.Kind = symtab.KindReference
		}
		if target, ok := a.symbols.Lookup(val.BorrowOf); ok {
			sym.Reassign(target, val.BorrowMut)
		} else {
			sym.Reassign(nil, false)
		}
	}

	code := append(append([]ir.Quad{}, val.Code...), ir.Quad{Op: ir.Assign, Arg1: val.Place, Result: lhs.Name})
	return &parser.Attrs{Code: code, Type: rstypes.Void}, nil
}

// assignAddressed implements the array/tuple-element assignment case:
// base must be mutable; emits ARRAY_STORE (spec.md §4.4 notes
// implementations may use a single STORE op for both array and tuple
// element writes; this implementation reuses ARRAY_STORE for both, per
// the tuples-as-arrays lowering decision).
func assignAddressed(lhs, val *parser.Attrs) *parser.Attrs {
	lhsCode := stripValueLoad(lhs.Code, ir.ArrayLoad, lhs.Place)
	code := append(append([]ir.Quad{}, lhsCode...), val.Code...)
	code = append(code, ir.Quad{Op: ir.ArrayStore, Arg1: lhs.Base, Arg2: lhs.Index, Result: val.Place})
	return &parser.Attrs{Code: code, Type: rstypes.Void}
}

// assignDeref implements `*p = e;`: p must be &mut T, per spec.md §4.4.
func assignDeref(lhs, val *parser.Attrs) *parser.Attrs {
	lhsCode := stripValueLoad(lhs.Code, ir.DerefLoad, lhs.Place)
	code := append(append([]ir.Quad{}, lhsCode...), val.Code...)
	code = append(code, ir.Quad{Op: ir.DerefStore, Arg1: lhs.Base, Arg2: val.Place})
	return &parser.Attrs{Code: code, Type: rstypes.Void}
}

// stripValueLoad drops the trailing load quad an element-access or
// dereference reduction emitted to make its result usable as an rvalue.
// In store position only the address computation is wanted; the index
// sub-expression's own code precedes the load and is kept.
func stripValueLoad(code []ir.Quad, op ir.OpCode, result string) []ir.Quad {
	if n := len(code); n > 0 && code[n-1].Op == op && code[n-1].Result == result {
		return code[:n-1]
	}
	return code
}
