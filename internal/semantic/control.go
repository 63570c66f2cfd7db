package semantic

import (
	"fmt"

	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/parser"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/symtab"
	"github.com/dekarrin/rustlite/internal/token"
)

// registerControlHandlers wires up if/while/for/loop/break/continue/return
// and the print! / println! macros, per spec.md §4.4's "Control flow" and
// "Printing" sections. Branching is lowered with IF_FALSE/IF_TRUE/JUMP/LABEL
// quads and backpatch-free forward labels, since loop and branch extents are
// always known by the time the enclosing construct reduces.
func registerControlHandlers(h map[string]handlerFunc) {
	h["ExprStmt -> Expr semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		// The expression's value, if any, is discarded; only its side
		// effects survive as statement code.
		return &parser.Attrs{Code: rhs[0].Code, Type: rstypes.Void}, nil
	}

	h["IfStmt -> kw_if Expr Block"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		cond, then := rhs[1], rhs[2]
		if err := requireInit(cond, loc); err != nil {
			return nil, err
		}
		if err := requireI32(cond.Type, loc, "if condition"); err != nil {
			return nil, err
		}
		lEnd := a.newLabel()
		code := append(append([]ir.Quad{}, cond.Code...), ir.Quad{Op: ir.IfFalse, Arg1: cond.Place, Arg2: lEnd})
		code = append(code, then.Code...)
		code = append(code, ir.Quad{Op: ir.Label, Arg1: lEnd})
		return &parser.Attrs{Code: code, Type: rstypes.Void}, nil
	}

	h["IfStmt -> kw_if Expr Block kw_else Block"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		cond, then, els := rhs[1], rhs[2], rhs[4]
		if err := requireInit(cond, loc); err != nil {
			return nil, err
		}
		if err := requireI32(cond.Type, loc, "if condition"); err != nil {
			return nil, err
		}
		lElse, lEnd := a.newLabel(), a.newLabel()
		code := append(append([]ir.Quad{}, cond.Code...), ir.Quad{Op: ir.IfFalse, Arg1: cond.Place, Arg2: lElse})
		code = append(code, then.Code...)
		code = append(code, ir.Quad{Op: ir.Jump, Arg1: lEnd})
		code = append(code, ir.Quad{Op: ir.Label, Arg1: lElse})
		code = append(code, els.Code...)
		code = append(code, ir.Quad{Op: ir.Label, Arg1: lEnd})
		return &parser.Attrs{Code: code, Type: rstypes.Void}, nil
	}

	h["IfStmt -> kw_if Expr Block kw_else IfStmt"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		cond, then, elseIf := rhs[1], rhs[2], rhs[4]
		if err := requireInit(cond, loc); err != nil {
			return nil, err
		}
		if err := requireI32(cond.Type, loc, "if condition"); err != nil {
			return nil, err
		}
		lElse, lEnd := a.newLabel(), a.newLabel()
		code := append(append([]ir.Quad{}, cond.Code...), ir.Quad{Op: ir.IfFalse, Arg1: cond.Place, Arg2: lElse})
		code = append(code, then.Code...)
		code = append(code, ir.Quad{Op: ir.Jump, Arg1: lEnd})
		code = append(code, ir.Quad{Op: ir.Label, Arg1: lElse})
		code = append(code, elseIf.Code...)
		code = append(code, ir.Quad{Op: ir.Label, Arg1: lEnd})
		return &parser.Attrs{Code: code, Type: rstypes.Void}, nil
	}

	h["WhileHeader -> kw_while Expr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		cond := rhs[1]
		if err := requireInit(cond, loc); err != nil {
			return nil, err
		}
		if err := requireI32(cond.Type, loc, "while condition"); err != nil {
			return nil, err
		}
		lStart, lEnd := a.newLabel(), a.newLabel()
		a.loopStack = append(a.loopStack, &loopCtx{kind: "while", startLabel: lStart, continueLabel: lStart, endLabel: lEnd})
		return &parser.Attrs{Code: cond.Code, Place: cond.Place}, nil
	}

	h["WhileStmt -> WhileHeader Block"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		header, body := rhs[0], rhs[1]
		ctx := a.popLoop()

		var code []ir.Quad
		code = append(code, ir.Quad{Op: ir.Label, Arg1: ctx.startLabel})
		code = append(code, header.Code...)
		code = append(code, ir.Quad{Op: ir.IfFalse, Arg1: header.Place, Arg2: ctx.endLabel})
		code = append(code, body.Code...)
		code = append(code, ir.Quad{Op: ir.Jump, Arg1: ctx.startLabel})
		code = append(code, ir.Quad{Op: ir.Label, Arg1: ctx.endLabel})
		return &parser.Attrs{Code: code, Type: rstypes.Void}, nil
	}

	h["ForHeader -> kw_for ident kw_in Expr dotdot Expr"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		lo, hi := rhs[3], rhs[5]
		if err := requireInit(lo, loc); err != nil {
			return nil, err
		}
		if err := requireInit(hi, loc); err != nil {
			return nil, err
		}
		if err := requireI32(lo.Type, loc, "for range start"); err != nil {
			return nil, err
		}
		if err := requireI32(hi.Type, loc, "for range end"); err != nil {
			return nil, err
		}

		iterName := rhs[1].Name
		tempLo := a.newTemp()
		tempHi := a.newTemp()

		var code []ir.Quad
		code = append(code, lo.Code...)
		code = append(code, ir.Quad{Op: ir.Assign, Arg1: lo.Place, Result: tempLo})
		code = append(code, hi.Code...)
		code = append(code, ir.Quad{Op: ir.Assign, Arg1: hi.Place, Result: tempHi})

		a.symbols.EnterScope()
		a.symbols.Declare(&symtab.Symbol{
			Name:        iterName,
			Kind:        symtab.KindVariable,
			Type:        rstypes.I32,
			IsMutable:   true,
			Initialized: true,
		})
		code = append(code, ir.Quad{Op: ir.Assign, Arg1: tempLo, Result: iterName})

		lStart, lIncr, lEnd := a.newLabel(), a.newLabel(), a.newLabel()
		a.loopStack = append(a.loopStack, &loopCtx{kind: "for", startLabel: lStart, continueLabel: lIncr, endLabel: lEnd})

		tCond := a.newTemp()
		code = append(code, ir.Quad{Op: ir.Label, Arg1: lStart})
		code = append(code, ir.Quad{Op: ir.Ge, Arg1: iterName, Arg2: tempHi, Result: tCond})
		code = append(code, ir.Quad{Op: ir.IfTrue, Arg1: tCond, Arg2: lEnd})

		return &parser.Attrs{Code: code, Name: iterName}, nil
	}

	h["ForStmt -> ForHeader Block"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		header, body := rhs[0], rhs[1]
		ctx := a.popLoop()
		iterName := header.Name

		tIncr := a.newTemp()
		code := append([]ir.Quad{}, header.Code...)
		code = append(code, body.Code...)
		code = append(code, ir.Quad{Op: ir.Label, Arg1: ctx.continueLabel})
		code = append(code, ir.Quad{Op: ir.Add, Arg1: iterName, Arg2: "1", Result: tIncr})
		code = append(code, ir.Quad{Op: ir.Assign, Arg1: tIncr, Result: iterName})
		code = append(code, ir.Quad{Op: ir.Jump, Arg1: ctx.startLabel})
		code = append(code, ir.Quad{Op: ir.Label, Arg1: ctx.endLabel})

		a.symbols.ExitScope()
		return &parser.Attrs{Code: code, Type: rstypes.Void}, nil
	}

	h["LoopOpen -> kw_loop"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		lStart, lEnd := a.newLabel(), a.newLabel()
		a.loopStack = append(a.loopStack, &loopCtx{kind: "loop", startLabel: lStart, continueLabel: lStart, endLabel: lEnd})
		return &parser.Attrs{Code: []ir.Quad{{Op: ir.Label, Arg1: lStart}}}, nil
	}

	h["LoopExpr -> LoopOpen Block"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		open, body := rhs[0], rhs[1]
		ctx := a.popLoop()

		code := append(append([]ir.Quad{}, open.Code...), body.Code...)
		code = append(code, ir.Quad{Op: ir.Jump, Arg1: ctx.startLabel})
		code = append(code, ir.Quad{Op: ir.Label, Arg1: ctx.endLabel})

		typ := ctx.exprType
		if typ == nil {
			typ = rstypes.Void
		}
		return &parser.Attrs{Code: code, Type: typ, Place: ctx.resultPlace}, nil
	}

	h["BreakStmt -> kw_break semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		ctx, err := a.peekLoop(loc)
		if err != nil {
			return nil, err
		}
		if ctx.isExprLoop {
			return nil, errAt(compileerr.KindSyntax, loc, "break with no value in a loop that yields a value")
		}
		code := []ir.Quad{{Op: ir.Jump, Arg1: ctx.endLabel}}
		return &parser.Attrs{Code: code, Type: rstypes.Void}, nil
	}

	h["BreakStmt -> kw_break Expr semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		e := rhs[1]
		if err := requireInit(e, loc); err != nil {
			return nil, err
		}
		ctx, err := a.peekLoop(loc)
		if err != nil {
			return nil, err
		}
		if ctx.kind != "loop" {
			return nil, errAt(compileerr.KindSyntax, loc, "break with a value is only allowed directly inside a loop expression")
		}
		if !ctx.isExprLoop {
			ctx.isExprLoop = true
			ctx.resultPlace = a.newTemp()
			ctx.exprType = e.Type
		} else if !rstypes.Equal(ctx.exprType, e.Type) {
			return nil, errAt(compileerr.KindType, loc, "break value type %s does not match earlier break value type %s", e.Type, ctx.exprType)
		}
		code := append(append([]ir.Quad{}, e.Code...), ir.Quad{Op: ir.Assign, Arg1: e.Place, Result: ctx.resultPlace})
		code = append(code, ir.Quad{Op: ir.Jump, Arg1: ctx.endLabel})
		return &parser.Attrs{Code: code, Type: rstypes.Void}, nil
	}

	h["ContinueStmt -> kw_continue semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		ctx, err := a.peekLoop(loc)
		if err != nil {
			return nil, err
		}
		return &parser.Attrs{Code: []ir.Quad{{Op: ir.Jump, Arg1: ctx.continueLabel}}, Type: rstypes.Void}, nil
	}

	h["ReturnStmt -> kw_return semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		if a.currentFunc == nil {
			return nil, errAt(compileerr.KindSyntax, loc, "return outside of a function")
		}
		if !a.currentFunc.returnType.IsVoid() {
			return nil, errAt(compileerr.KindType, loc, "function %q must return a value of type %s", a.currentFunc.name, a.currentFunc.returnType)
		}
		return &parser.Attrs{Code: []ir.Quad{{Op: ir.Return}}, Type: rstypes.Void}, nil
	}

	h["ReturnStmt -> kw_return Expr semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		e := rhs[1]
		if err := requireInit(e, loc); err != nil {
			return nil, err
		}
		if a.currentFunc == nil {
			return nil, errAt(compileerr.KindSyntax, loc, "return outside of a function")
		}
		if !rstypes.Compatible(a.currentFunc.returnType, e.Type) {
			return nil, errAt(compileerr.KindType, loc, "function %q returns %s, got %s", a.currentFunc.name, a.currentFunc.returnType, e.Type)
		}
		code := append(append([]ir.Quad{}, e.Code...), ir.Quad{Op: ir.ReturnVal, Arg1: e.Place})
		return &parser.Attrs{Code: code, Type: rstypes.Void}, nil
	}

	h["PrintStmt -> macro_ident lparen ArgListOpt rparen semi"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		name := rhs[0].TokenObj.Content
		var builtin string
		switch name {
		case "print!":
			builtin = "__builtin_print"
		case "println!":
			builtin = "__builtin_println"
		default:
			return nil, errAt(compileerr.KindSyntax, loc, "unsupported macro %q", name)
		}

		args := rhs[2].Args
		for _, arg := range args {
			if err := requireI32(arg.Type, loc, name); err != nil {
				return nil, err
			}
		}

		code := append([]ir.Quad{}, rhs[2].Code...)
		for _, arg := range args {
			code = append(code, ir.Quad{Op: ir.Param, Arg1: arg.Place})
		}
		code = append(code, ir.Quad{Op: ir.Call, Arg1: builtin, Arg2: fmt.Sprintf("%d", len(args))})
		return &parser.Attrs{Code: code, Type: rstypes.Void}, nil
	}
}
