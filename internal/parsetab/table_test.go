package parsetab

import (
	"path/filepath"
	"testing"

	"github.com/dekarrin/rustlite/internal/grammar"
	"github.com/dekarrin/rustlite/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyExprSrc = `
E -> E plus T
E -> T
T -> T star F
T -> F
F -> lparen E rparen
F -> ident
`

func tinyExprGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	g, err := grammar.Load(tinyExprSrc)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	g.Augment()
	return g
}

func Test_Build_acceptsOnAugmentedReduction(t *testing.T) {
	g := tinyExprGrammar(t)
	tab, err := Build(g, grammar.SymbolID(token.EOF))
	require.NoError(t, err)

	foundAccept := false
	for _, row := range tab.Action {
		for _, act := range row {
			if act.Type == ActionAccept {
				foundAccept = true
			}
		}
	}
	assert.True(t, foundAccept, "table must contain an accept action")
}

func Test_Build_shiftOnTerminalFromStartState(t *testing.T) {
	g := tinyExprGrammar(t)
	tab, err := Build(g, grammar.SymbolID(token.EOF))
	require.NoError(t, err)

	act := tab.ActionAt(tab.Initial(), grammar.SymbolID(token.Ident))
	assert.Equal(t, ActionShift, act.Type)
}

func Test_Build_noConflictsOnUnambiguousGrammar(t *testing.T) {
	g := tinyExprGrammar(t)
	tab, err := Build(g, grammar.SymbolID(token.EOF))
	require.NoError(t, err)
	assert.Empty(t, tab.Conflicts)
}

func Test_merge_shiftWinsOverReduce(t *testing.T) {
	shift := Action{Type: ActionShift, State: 4}
	reduce := Action{Type: ActionReduce, Prod: 2}

	winner, note := resolve(reduce, shift)
	assert.Equal(t, shift, winner)
	assert.Contains(t, note, "shift wins")

	winner, note = resolve(shift, reduce)
	assert.Equal(t, shift, winner)
	assert.Contains(t, note, "shift wins")
}

func Test_merge_reduceReduceKeepsLowerProduction(t *testing.T) {
	r1 := Action{Type: ActionReduce, Prod: 1}
	r5 := Action{Type: ActionReduce, Prod: 5}

	winner, note := resolve(r5, r1)
	assert.Equal(t, r1, winner)
	assert.Contains(t, note, "lower production")
}

func Test_ExpectedTerminals_excludesErrorEntries(t *testing.T) {
	g := tinyExprGrammar(t)
	tab, err := Build(g, grammar.SymbolID(token.EOF))
	require.NoError(t, err)

	expected := tab.ExpectedTerminals(tab.Initial())
	assert.Contains(t, expected, grammar.SymbolID(token.Ident))
	assert.Contains(t, expected, grammar.SymbolID(token.LParen))
	assert.NotContains(t, expected, grammar.SymbolID(token.RParen))
}

func Test_GotoAt_missingEntryReportsFalse(t *testing.T) {
	g := tinyExprGrammar(t)
	tab, err := Build(g, grammar.SymbolID(token.EOF))
	require.NoError(t, err)

	_, ok := tab.GotoAt(tab.Initial(), grammar.SymbolID(999999))
	assert.False(t, ok)
}

func Test_cache_roundTripsActionAndGoto(t *testing.T) {
	g := tinyExprGrammar(t)
	tab, err := Build(g, grammar.SymbolID(token.EOF))
	require.NoError(t, err)

	cachePath := filepath.Join(t.TempDir(), "tab.cache")
	require.NoError(t, writeCache(cachePath, tab, "test.grammar", 42))

	loaded, ok := tryLoadCache(cachePath, "test.grammar", 42, grammar.SymbolID(token.EOF), tinyExprSrc)
	require.True(t, ok, "a fresh, non-stale cache must load")
	assert.Equal(t, tab.Action, loaded.Action)
	assert.Equal(t, tab.Goto, loaded.Goto)
	assert.Equal(t, tab.EOF, loaded.EOF)
}

func Test_cache_staleMtimeForcesRebuild(t *testing.T) {
	g := tinyExprGrammar(t)
	tab, err := Build(g, grammar.SymbolID(token.EOF))
	require.NoError(t, err)

	cachePath := filepath.Join(t.TempDir(), "tab.cache")
	require.NoError(t, writeCache(cachePath, tab, "test.grammar", 42))

	// the grammar file is now newer than the cache entry records.
	_, ok := tryLoadCache(cachePath, "test.grammar", 43, grammar.SymbolID(token.EOF), tinyExprSrc)
	assert.False(t, ok)
}
