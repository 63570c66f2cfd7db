package parser

import (
	"testing"

	"github.com/dekarrin/rustlite/internal/grammar"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/lexer"
	"github.com/dekarrin/rustlite/internal/parsetab"
	"github.com/dekarrin/rustlite/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passthroughReducer implements Reducer by concatenating child code in
// order and joining names, enough to exercise the shift/reduce driver
// loop itself without a full semantic analyzer.
type passthroughReducer struct{}

func (passthroughReducer) Reduce(rule string, rhs []*Attrs, loc token.Pos) (*Attrs, error) {
	out := &Attrs{}
	for _, a := range rhs {
		out.Code = append(out.Code, a.Code...)
		if a.Name != "" {
			out.Name += a.Name
		}
	}
	if rule == "E -> E plus T" || rule == "E -> T" {
		out.Code = append(out.Code, ir.Quad{Op: ir.Label, Arg1: rule})
	}
	return out, nil
}

func buildTable(t *testing.T) *parsetab.Table {
	t.Helper()
	src := `
E -> E plus T
E -> T
T -> ident
`
	g, err := grammar.Load(src)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	g.Augment()

	tab, err := parsetab.Build(g, grammar.SymbolID(token.EOF))
	require.NoError(t, err)
	return tab
}

func toks(kinds ...token.Kind) []token.Token {
	out := make([]token.Token, len(kinds))
	for i, k := range kinds {
		out[i] = token.Token{Kind: k, Content: "x", Loc: token.Pos{Row: 1, Col: i + 1}}
	}
	return out
}

func Test_Parse_acceptsSimpleSum(t *testing.T) {
	tab := buildTable(t)
	input := toks(token.Ident, token.Plus, token.Ident, token.EOF)

	res, err := Parse(tab, lexer.NewStream(input), passthroughReducer{})
	require.NoError(t, err)
	assert.NotNil(t, res.CST)
	// one quad from the "E -> T" reduction, one from "E -> E plus T".
	assert.Len(t, res.Code, 2)
}

func Test_Parse_reportsSyntaxErrorOnUnexpectedToken(t *testing.T) {
	tab := buildTable(t)
	input := toks(token.Plus, token.EOF)

	_, err := Parse(tab, lexer.NewStream(input), passthroughReducer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected token")
}

func Test_RuleString_formatsEpsilonAndSymbols(t *testing.T) {
	src := `
S -> A
A -> ident
A -> epsilon
`
	g, err := grammar.Load(src)
	require.NoError(t, err)

	for _, p := range g.Productions {
		rs := RuleString(g, p)
		if len(p.RHS) == 0 {
			assert.Contains(t, rs, "epsilon")
		} else {
			assert.Contains(t, rs, "->")
		}
	}
}
