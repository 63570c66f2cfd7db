package semantic

import (
	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/parser"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/symtab"
	"github.com/dekarrin/rustlite/internal/token"
)

func registerDeclarationHandlers(h map[string]handlerFunc) {
	h["Program -> FuncList"] = passCode
	h["FuncList -> FuncDecl"] = passCode
	h["FuncList -> FuncList FuncDecl"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{Code: concatCode(rhs)}, nil
	}

	h["FuncHeader -> kw_fn ident lparen ParamListOpt rparen"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return beginFunc(a, rhs[1].Name, rhs[3].Params, rstypes.Void, loc)
	}
	h["FuncHeader -> kw_fn ident lparen ParamListOpt rparen arrow Type"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return beginFunc(a, rhs[1].Name, rhs[3].Params, rhs[6].Type, loc)
	}

	h["FuncDecl -> FuncHeader Block"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		header, body := rhs[0], rhs[1]

		var code []ir.Quad
		code = append(code, header.Code...)
		code = append(code, body.Code...)

		if a.currentFunc.returnType.IsVoid() {
			code = append(code, ir.Quad{Op: ir.Return})
		}
		code = append(code, ir.Quad{Op: ir.FuncEnd, Arg1: a.currentFunc.name})

		a.symbols.ExitScope()
		a.currentFunc = nil

		return &parser.Attrs{Code: code}, nil
	}

	h["ParamListOpt -> epsilon"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{}, nil
	}
	h["ParamListOpt -> ParamList"] = passCode

	h["ParamList -> Param"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{Params: []parser.Param{{Name: rhs[0].Name, Type: rhs[0].Type}}}, nil
	}
	h["ParamList -> ParamList comma Param"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		params := append(append([]parser.Param{}, rhs[0].Params...), parser.Param{Name: rhs[2].Name, Type: rhs[2].Type})
		return &parser.Attrs{Params: params}, nil
	}

	h["Param -> ident colon Type"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{Name: rhs[0].Name, Type: rhs[2].Type}, nil
	}

	h["BlockOpen -> lbrace"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		a.symbols.EnterScope()
		return &parser.Attrs{}, nil
	}
	h["Block -> BlockOpen StmtList rbrace"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		code := rhs[1].Code
		a.symbols.ExitScope()
		return &parser.Attrs{Code: code}, nil
	}

	h["StmtList -> epsilon"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{}, nil
	}
	h["StmtList -> StmtList Stmt"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{Code: concatCode(rhs)}, nil
	}

	registerLetHandlers(h)
}

func passCode(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
	return rhs[0], nil
}

// beginFunc registers the function symbol in the analyzer's global
// function table (erroring
// on redeclaration), emits FUNC_BEGIN, opens the parameter scope, and
// inserts the parameters, per spec.md §4.4 "Function declaration".
func beginFunc(a *Analyzer, name string, params []parser.Param, ret *rstypes.Type, loc token.Pos) (*parser.Attrs, error) {
	if _, exists := a.funcs[name]; exists {
		return nil, errAt(compileerr.KindDeclaration, loc, "function %q is already declared", name)
	}

	paramTypes := make([]*symtab.Type, len(params))
	for i, p := range params {
		paramTypes[i] = &symtab.Type{Name: p.Name, Type: p.Type}
	}
	sym := &symtab.Symbol{
		Name:         name,
		Kind:         symtab.KindFunction,
		Type:         ret,
		LineDeclared: loc.Row,
		Func:         &symtab.FuncExtra{Params: paramTypes, ReturnType: ret},
	}
	a.funcs[name] = sym

	a.currentFunc = &funcCtx{name: name, returnType: ret, entryLabel: name}
	a.symbols.EnterScope()

	var code []ir.Quad
	code = append(code, ir.Quad{Op: ir.FuncBegin, Arg1: name})
	for _, p := range params {
		a.symbols.Declare(&symtab.Symbol{
			Name:        p.Name,
			Kind:        symtab.KindParameter,
			Type:        p.Type,
			IsMutable:   false,
			Initialized: true,
		})
	}

	return &parser.Attrs{Code: code, FuncName: name, ReturnType: ret}, nil
}
