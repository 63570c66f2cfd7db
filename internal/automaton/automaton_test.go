package automaton

import (
	"testing"

	"github.com/dekarrin/rustlite/internal/grammar"
	"github.com/dekarrin/rustlite/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyExprGrammar is the textbook "E -> E + T | T; T -> T * F | F;
// F -> ( E ) | id" grammar, re-expressed over this package's terminal
// vocabulary so the automaton can be exercised without the full rustlite
// grammar file.
func tinyExprGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	src := `
E -> E plus T
E -> T
T -> T star F
T -> F
F -> lparen E rparen
F -> ident
`
	g, err := grammar.Load(src)
	require.NoError(t, err)
	g.Augment()
	return g
}

func Test_Build_startStateHasAugmentedItem(t *testing.T) {
	g := tinyExprGrammar(t)
	a := Build(g, grammar.SymbolID(token.EOF))

	require.NotEmpty(t, a.States)
	start := a.States[0]

	foundAug := false
	for it := range start.Items {
		if g.Productions[it.Prod].LHS == g.AugmentedStart() && it.Dot == 0 {
			foundAug = true
		}
	}
	assert.True(t, foundAug, "state 0 must contain the augmented start item")
}

func Test_Build_deterministicStateCount(t *testing.T) {
	g := tinyExprGrammar(t)
	a1 := Build(g, grammar.SymbolID(token.EOF))
	a2 := Build(g, grammar.SymbolID(token.EOF))

	assert.Equal(t, len(a1.States), len(a2.States))
}

func Test_Closure_addsProductionsOfNextNonTerminal(t *testing.T) {
	g := tinyExprGrammar(t)

	augProd := -1
	for _, p := range g.Productions {
		if p.LHS == g.AugmentedStart() {
			augProd = p.ID
		}
	}
	require.GreaterOrEqual(t, augProd, 0)

	items := NewItemSet(grammar.Item{Prod: augProd, Dot: 0, Lookahead: grammar.SymbolID(token.EOF)})
	closed := Closure(g, items)

	// Closure must pull in E's and (transitively) T's and F's productions.
	var sawEProd, sawFIdent bool
	for it := range closed {
		p := g.Productions[it.Prod]
		if g.NonTerminalName(p.LHS) == "E" {
			sawEProd = true
		}
		if g.NonTerminalName(p.LHS) == "F" && len(p.RHS) == 1 && p.RHS[0] == grammar.SymbolID(token.Ident) {
			sawFIdent = true
		}
	}
	assert.True(t, sawEProd)
	assert.True(t, sawFIdent)
}

func Test_First_nullableProduction(t *testing.T) {
	src := `
S -> A semi
A -> ident
A -> epsilon
`
	g, err := grammar.Load(src)
	require.NoError(t, err)
	g.Augment()

	var aID grammar.SymbolID
	for _, p := range g.Productions {
		if g.NonTerminalName(p.LHS) == "A" {
			aID = p.LHS
		}
	}
	first := g.First([]grammar.SymbolID{aID})
	assert.True(t, first[grammar.Nullable])
	assert.True(t, first[grammar.SymbolID(token.Ident)])
}
