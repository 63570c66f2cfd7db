// Package automaton builds the canonical LR(1) item-set automaton
// (states = item sets, transitions via GOTO) described in spec.md §4.2.
// It is grounded on github.com/dekarrin/tunaq's internal/ictiobus/automaton
// package, which builds a generic subset-construction DFA reused both for
// the lexer's regex engine and the parser-table builder there; here the
// same CLOSURE/worklist idiom is specialized directly to LR(1) item sets
// rather than kept generic, since this spec has exactly one automaton to
// build.
package automaton

import (
	"fmt"
	"sort"

	"github.com/dekarrin/rustlite/internal/grammar"
	"github.com/dekarrin/rustlite/internal/util"
)

// ItemSet is an order-independent set of LR(1) items; equality is by
// content (spec.md §3 "Item set (state) is an order-independent set of
// items; equality is by multiset content").
type ItemSet map[grammar.Item]struct{}

func NewItemSet(items ...grammar.Item) ItemSet {
	s := ItemSet{}
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s ItemSet) Add(it grammar.Item) {
	s[it] = struct{}{}
}

func (s ItemSet) Has(it grammar.Item) bool {
	_, ok := s[it]
	return ok
}

// sortedItems returns the set's items in a deterministic order, used both
// for the canonical string key and for deterministic iteration during
// table construction.
func (s ItemSet) sortedItems() []grammar.Item {
	items := make([]grammar.Item, 0, len(s))
	for it := range s {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Prod != b.Prod {
			return a.Prod < b.Prod
		}
		if a.Dot != b.Dot {
			return a.Dot < b.Dot
		}
		return a.Lookahead < b.Lookahead
	})
	return items
}

// Key returns a canonical string identifying the item set's exact content;
// two sets with the same Key are the same automaton state.
func (s ItemSet) Key() string {
	var out string
	for _, it := range s.sortedItems() {
		out += it.String() + ";"
	}
	return out
}

// State is one node of the LR(1) automaton.
type State struct {
	ID    int
	Items ItemSet
	// Goto maps a symbol id to the destination state id.
	Goto map[grammar.SymbolID]int
}

// Automaton is the complete LR(1) item-set DFA: CLOSURE(I0) as state 0,
// plus every state reachable via GOTO, per spec.md §4.2.
type Automaton struct {
	States []*State
	byKey  map[string]int
}

// Closure computes CLOSURE(I) per spec.md §4.2: for each
// [A -> α.Bβ, a] with B a non-terminal, for every production B -> γ and
// every terminal b in FIRST(βa), add [B -> .γ, b].
func Closure(g *grammar.Grammar, items ItemSet) ItemSet {
	closure := NewItemSet()
	for it := range items {
		closure.Add(it)
	}

	changed := true
	for changed {
		changed = false
		for it := range closure {
			b, ok := it.NextSymbol(g)
			if !ok || !g.IsNonTerminal(b) {
				continue
			}

			beta := g.Productions[it.Prod].RHS[it.Dot+1:]
			lookaheadSeed := append(append([]grammar.SymbolID{}, beta...), it.Lookahead)
			firstOfBetaA := g.First(lookaheadSeed)

			for _, p := range g.ProductionsFor(b) {
				for la := range firstOfBetaA {
					if la == grammar.Nullable {
						continue
					}
					newItem := grammar.Item{Prod: p.ID, Dot: 0, Lookahead: la}
					if !closure.Has(newItem) {
						closure.Add(newItem)
						changed = true
					}
				}
			}
		}
	}

	return closure
}

// Goto computes GOTO(I, X): advance the dot over X in every applicable
// item, then close, per spec.md §4.2.
func Goto(g *grammar.Grammar, items ItemSet, x grammar.SymbolID) ItemSet {
	moved := NewItemSet()
	for it := range items {
		sym, ok := it.NextSymbol(g)
		if ok && sym == x {
			moved.Add(it.Advanced())
		}
	}
	if len(moved) == 0 {
		return moved
	}
	return Closure(g, moved)
}

// Build constructs the full canonical LR(1) automaton for the augmented
// grammar g, per spec.md §4.2: "State 0 is closure of
// {[S' -> .S, EOF]}... Worklist over states; equality by sorted item
// content." eof is the terminal symbol id representing end-of-input.
func Build(g *grammar.Grammar, eof grammar.SymbolID) *Automaton {
	augStart := g.AugmentedStart()
	startProd := -1
	for _, p := range g.Productions {
		if p.LHS == augStart {
			startProd = p.ID
			break
		}
	}
	if startProd < 0 {
		panic("automaton.Build: grammar has not been augmented")
	}

	i0Items := NewItemSet(grammar.Item{Prod: startProd, Dot: 0, Lookahead: eof})
	i0 := Closure(g, i0Items)

	a := &Automaton{byKey: map[string]int{}}
	a.addState(i0)

	worklist := []int{0}
	for len(worklist) > 0 {
		i := worklist[0]
		worklist = worklist[1:]

		state := a.States[i]
		symbols := symbolsAfterDots(g, state.Items)
		for _, x := range symbols {
			next := Goto(g, state.Items, x)
			if len(next) == 0 {
				continue
			}
			j, isNew := a.addState(next)
			state.Goto[x] = j
			if isNew {
				worklist = append(worklist, j)
			}
		}
	}

	return a
}

// addState registers items as a state if its key is new, returning the
// state's id and whether it was newly created.
func (a *Automaton) addState(items ItemSet) (id int, isNew bool) {
	key := items.Key()
	if existing, ok := a.byKey[key]; ok {
		return existing, false
	}
	id = len(a.States)
	a.States = append(a.States, &State{ID: id, Items: items, Goto: map[grammar.SymbolID]int{}})
	a.byKey[key] = id
	return id, true
}

func symbolsAfterDots(g *grammar.Grammar, items ItemSet) []grammar.SymbolID {
	seen := util.NewIntSet()
	for it := range items {
		if sym, ok := it.NextSymbol(g); ok {
			seen.Add(int(sym))
		}
	}
	out := make([]grammar.SymbolID, 0, seen.Len())
	for _, v := range seen.Sorted() {
		out = append(out, grammar.SymbolID(v))
	}
	return out
}

// String renders the automaton for debugging, grounded on
// ictiobus/parse/clr1.go's table String() idiom.
func (a *Automaton) String() string {
	out := ""
	for _, s := range a.States {
		out += fmt.Sprintf("state %d: %d items, %d transitions\n", s.ID, len(s.Items), len(s.Goto))
	}
	return out
}
