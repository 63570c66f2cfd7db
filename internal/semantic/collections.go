package semantic

import (
	"fmt"

	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/parser"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/token"
)

func registerCollectionHandlers(h map[string]handlerFunc) {
	h["ArgListOpt -> epsilon"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{}, nil
	}
	h["ArgListOpt -> ArgList"] = passCode

	h["ArgList -> Expr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		e := rhs[0]
		if err := requireInit(e, loc); err != nil {
			return nil, err
		}
		return &parser.Attrs{Code: e.Code, Args: []parser.Arg{{Place: e.Place, Type: e.Type}}}, nil
	}
	h["ArgList -> ArgList comma Expr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		list, e := rhs[0], rhs[2]
		if err := requireInit(e, loc); err != nil {
			return nil, err
		}
		args := append(append([]parser.Arg{}, list.Args...), parser.Arg{Place: e.Place, Type: e.Type})
		code := append(append([]ir.Quad{}, list.Code...), e.Code...)
		return &parser.Attrs{Code: code, Args: args}, nil
	}

	h["ArrayElemsOpt -> epsilon"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{}, nil
	}
	h["ArrayElemsOpt -> ArrayElems"] = passCode

	h["ArrayElems -> Expr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		if err := requireInit(rhs[0], loc); err != nil {
			return nil, err
		}
		return &parser.Attrs{ElemList: []*parser.Attrs{rhs[0]}}, nil
	}
	h["ArrayElems -> ArrayElems comma Expr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		if err := requireInit(rhs[2], loc); err != nil {
			return nil, err
		}
		elems := append(append([]*parser.Attrs{}, rhs[0].ElemList...), rhs[2])
		return &parser.Attrs{ElemList: elems}, nil
	}

	h["TupleElemsRest -> Expr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		if err := requireInit(rhs[0], loc); err != nil {
			return nil, err
		}
		return &parser.Attrs{ElemList: []*parser.Attrs{rhs[0]}}, nil
	}
	h["TupleElemsRest -> TupleElemsRest comma Expr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		if err := requireInit(rhs[2], loc); err != nil {
			return nil, err
		}
		elems := append(append([]*parser.Attrs{}, rhs[0].ElemList...), rhs[2])
		return &parser.Attrs{ElemList: elems}, nil
	}
}

// buildArrayLiteral implements spec.md §4.4 "Arrays and tuples
// (literals)": all elements must share a type; emits ARRAY_INIT then one
// ARRAY_SET per element.
func buildArrayLiteral(a *Analyzer, elems []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
	result := a.newTemp()
	var code []ir.Quad

	var elemType *rstypes.Type
	for i, e := range elems {
		code = append(code, e.Code...)
		if i == 0 {
			elemType = e.Type
		} else if !rstypes.Equal(elemType, e.Type) {
			return nil, errAt(compileerr.KindType, loc, "array elements must share a type: %s vs %s", elemType, e.Type)
		}
	}
	if elemType == nil {
		elemType = rstypes.UnknownInferred
	}

	code = append(code, ir.Quad{Op: ir.ArrayInit, Result: result, Arg1: fmt.Sprintf("%d", len(elems)), Arg2: elemType.String()})
	for i, e := range elems {
		code = append(code, ir.Quad{Op: ir.ArraySet, Arg1: result, Arg2: fmt.Sprintf("%d", i), Result: e.Place})
	}

	return &parser.Attrs{Type: rstypes.NewArray(elemType, uint32(len(elems))), Place: result, Code: code, Name: result}, nil
}

// buildTupleLiteral mirrors buildArrayLiteral using TUPLE_INIT/TUPLE_SET,
// per spec.md §4.4 ("Tuples analogously with TUPLE_INIT / TUPLE_SET").
func buildTupleLiteral(a *Analyzer, elems []*parser.Attrs) *parser.Attrs {
	result := a.newTemp()
	var code []ir.Quad
	types := make([]*rstypes.Type, len(elems))

	for i, e := range elems {
		code = append(code, e.Code...)
		types[i] = e.Type
	}

	code = append(code, ir.Quad{Op: ir.TupleInit, Result: result, Arg1: fmt.Sprintf("%d", len(elems))})
	for i, e := range elems {
		code = append(code, ir.Quad{Op: ir.TupleSet, Arg1: result, Arg2: fmt.Sprintf("%d", i), Result: e.Place})
	}

	return &parser.Attrs{Type: rstypes.NewTuple(types), Place: result, Code: code, Name: result}
}

// callFunc implements spec.md §4.4 "Function call": looks up f, checks
// argument count and each argument's type, emits one PARAM per argument
// in source order, then CALL f, n, [result_temp]. argList is the reduced
// ArgListOpt attrs, whose Code evaluates every argument in source order
// before the first PARAM.
func callFunc(a *Analyzer, name string, argList *parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
	args := argList.Args
	sym, ok := a.funcs[name]
	if !ok {
		return nil, errAt(compileerr.KindDeclaration, loc, "call to undeclared function %q", name)
	}
	if len(args) != len(sym.Func.Params) {
		return nil, errAt(compileerr.KindDeclaration, loc, "function %q expects %d argument(s), got %d", name, len(sym.Func.Params), len(args))
	}
	for i, arg := range args {
		expected := sym.Func.Params[i].Type
		if !rstypes.Compatible(expected, arg.Type) {
			return nil, errAt(compileerr.KindType, loc, "argument %d to %q: expected %s, got %s", i+1, name, expected, arg.Type)
		}
	}

	code := append([]ir.Quad{}, argList.Code...)
	for _, arg := range args {
		code = append(code, ir.Quad{Op: ir.Param, Arg1: arg.Place})
	}

	ret := sym.Func.ReturnType
	var result string
	if !ret.IsVoid() {
		result = a.newTemp()
	}
	code = append(code, ir.Quad{Op: ir.Call, Arg1: name, Arg2: fmt.Sprintf("%d", len(args)), Result: result})

	return &parser.Attrs{Type: ret, Place: result, Code: code}, nil
}
