package grammar

import "fmt"

// Item is an LR(1) item (production_id, dot_position, lookahead_terminal_id)
// per spec.md §3. Grounded on ictiobus/grammar/item.go's LR1Item, adapted
// from (NonTerminal, Left, Right) string slices to a single production id
// plus integer dot position, since our Production already carries its RHS
// as a dense symbol slice.
type Item struct {
	Prod      int
	Dot       int
	Lookahead SymbolID
}

func (it Item) String() string {
	return fmt.Sprintf("[p%d@%d, %d]", it.Prod, it.Dot, it.Lookahead)
}

// AtEnd reports whether the dot is past the end of the production's RHS.
func (it Item) AtEnd(g *Grammar) bool {
	return it.Dot >= len(g.Productions[it.Prod].RHS)
}

// NextSymbol returns the symbol immediately after the dot, and whether one
// exists (false if the dot is at the end).
func (it Item) NextSymbol(g *Grammar) (SymbolID, bool) {
	rhs := g.Productions[it.Prod].RHS
	if it.Dot >= len(rhs) {
		return 0, false
	}
	return rhs[it.Dot], true
}

// Advanced returns a copy of it with the dot moved one position right.
func (it Item) Advanced() Item {
	return Item{Prod: it.Prod, Dot: it.Dot + 1, Lookahead: it.Lookahead}
}

// Key returns a value usable as a map key uniquely identifying this item
// (production, dot, lookahead triple); Go struct comparability already
// gives us this for free, but Key documents the intent at call sites that
// build item-set maps.
func (it Item) Key() Item {
	return it
}
