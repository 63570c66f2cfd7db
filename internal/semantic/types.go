package semantic

import (
	"strconv"

	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/parser"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/token"
)

func registerTypeHandlers(h map[string]handlerFunc) {
	h["Type -> kw_i32"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{Type: rstypes.I32}, nil
	}

	h["Type -> amp Type"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{Type: rstypes.NewRef(false, rhs[1].Type)}, nil
	}

	h["Type -> amp kw_mut Type"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{Type: rstypes.NewRef(true, rhs[2].Type)}, nil
	}

	h["Type -> lbracket Type semi int_lit rbracket"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		n, err := strconv.Atoi(rhs[3].TokenObj.Content)
		if err != nil || n <= 0 {
			return nil, errAt(compileerr.KindDeclaration, loc, "array size must be a positive integer, got %q", rhs[3].TokenObj.Content)
		}
		return &parser.Attrs{Type: rstypes.NewArray(rhs[1].Type, uint32(n))}, nil
	}

	h["Type -> lparen Type comma TypeListRest rparen"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		elems := append([]*rstypes.Type{rhs[1].Type}, rhs[3].ElementTypes...)
		return &parser.Attrs{Type: rstypes.NewTuple(elems)}, nil
	}

	h["TypeListRest -> Type"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		return &parser.Attrs{ElementTypes: []*rstypes.Type{rhs[0].Type}}, nil
	}

	h["TypeListRest -> TypeListRest comma Type"] = func(a *Analyzer, rhs []*parser.Attrs, loc token.Pos) (*parser.Attrs, error) {
		elems := append(append([]*rstypes.Type{}, rhs[0].ElementTypes...), rhs[2].Type)
		return &parser.Attrs{ElementTypes: elems}, nil
	}
}
