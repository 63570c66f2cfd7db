// Package parsetab builds the ACTION/GOTO driver tables from a canonical
// LR(1) item-set automaton, per spec.md §4.2's "Table filling" rules, and
// persists them to disk. Grounded on
// github.com/dekarrin/tunaq/internal/ictiobus/parse's clr1.go/lalr.go
// table-construction idiom (state/Action/Goto shape, Algorithm 4.56 from
// the purple dragon book) and lraction.go's LRAction type, adapted to this
// spec's conflict-resolution policy: the teacher's canonical-LR(1) builder
// treats any conflict as a grammar error, but spec.md §3 requires "shift
// over reduce; for reduce/reduce keep the lower-numbered production" plus
// a diagnostic, so conflicts here are resolved rather than rejected.
package parsetab

import (
	"fmt"

	"github.com/dekarrin/rosed"
	"github.com/dekarrin/rustlite/internal/automaton"
	"github.com/dekarrin/rustlite/internal/grammar"
)

// ActionType is the closed ACTION-table entry kind of spec.md §3.
type ActionType int

const (
	ActionError ActionType = iota
	ActionShift
	ActionReduce
	ActionAccept
)

// Action is one ACTION[state][terminal] cell.
type Action struct {
	Type  ActionType
	State int // valid when Type == ActionShift
	Prod  int // valid when Type == ActionReduce
}

func (a Action) String() string {
	switch a.Type {
	case ActionShift:
		return fmt.Sprintf("shift %d", a.State)
	case ActionReduce:
		return fmt.Sprintf("reduce p%d", a.Prod)
	case ActionAccept:
		return "accept"
	default:
		return "error"
	}
}

// Table is the complete driver table for one grammar: ACTION indexed by
// [state][terminal], GOTO indexed by [state][non-terminal].
type Table struct {
	Grammar    *grammar.Grammar
	Automaton  *automaton.Automaton
	Action     [][]Action // [state][terminal id]
	Goto       [][]int    // [state][nonterm index]; -1 means no entry
	EOF        grammar.SymbolID
	Conflicts  []string
	numNonTerm int
}

// Initial returns the automaton's start state id.
func (t *Table) Initial() int { return 0 }

// ActionAt returns ACTION[state][terminal].
func (t *Table) ActionAt(state int, terminal grammar.SymbolID) Action {
	if state < 0 || state >= len(t.Action) {
		return Action{Type: ActionError}
	}
	if int(terminal) < 0 || int(terminal) >= len(t.Action[state]) {
		return Action{Type: ActionError}
	}
	return t.Action[state][terminal]
}

// GotoAt returns GOTO[state][nonterm], and whether an entry exists.
func (t *Table) GotoAt(state int, nonterm grammar.SymbolID) (int, bool) {
	idx := int(nonterm) - grammar.TerminalCount
	if state < 0 || state >= len(t.Goto) {
		return 0, false
	}
	if idx < 0 || idx >= len(t.Goto[state]) {
		return 0, false
	}
	dst := t.Goto[state][idx]
	if dst < 0 {
		return 0, false
	}
	return dst, true
}

// Build constructs the ACTION/GOTO tables for g (augmented by the caller)
// using the canonical LR(1) item-set automaton, per spec.md §4.2.
func Build(g *grammar.Grammar, eof grammar.SymbolID) (*Table, error) {
	a := automaton.Build(g, eof)

	numStates := len(a.States)
	numNonTerm := len(g.NonTerminals())

	t := &Table{
		Grammar:    g,
		Automaton:  a,
		EOF:        eof,
		numNonTerm: numNonTerm,
	}

	t.Action = make([][]Action, numStates)
	t.Goto = make([][]int, numStates)
	for i := 0; i < numStates; i++ {
		t.Action[i] = make([]Action, grammar.TerminalCount)
		t.Goto[i] = make([]int, numNonTerm)
		for j := range t.Goto[i] {
			t.Goto[i][j] = -1
		}
	}

	for _, state := range a.States {
		// GOTO entries come directly from the automaton's transition map,
		// per §4.2 "GOTO_TABLE[i][A] <- j for non-terminals only."
		for sym, dst := range state.Goto {
			if g.IsNonTerminal(sym) {
				t.Goto[state.ID][int(sym)-grammar.TerminalCount] = dst
			}
		}

		for it := range state.Items {
			prod := g.Productions[it.Prod]

			if sym, ok := it.NextSymbol(g); ok && g.IsTerminal(sym) {
				// [A -> alpha . a beta, _] with a terminal and GOTO(i,a)=j:
				// ACTION[i][a] <- Shift j.
				dst, ok := state.Goto[sym]
				if ok {
					t.merge(state.ID, sym, Action{Type: ActionShift, State: dst})
				}
				continue
			}

			if it.AtEnd(g) {
				if prod.LHS == g.AugmentedStart() {
					// [S' -> S., EOF]: ACTION[i][EOF] <- Accept.
					t.merge(state.ID, eof, Action{Type: ActionAccept})
				} else {
					// [A -> alpha., a], A != S': ACTION[i][a] <- Reduce(p).
					t.merge(state.ID, it.Lookahead, Action{Type: ActionReduce, Prod: it.Prod})
				}
			}
		}
	}

	return t, nil
}

// merge installs act into ACTION[state][term], resolving a conflict with
// any existing entry per spec.md §3's policy: shift over reduce; for
// reduce/reduce keep the lower-numbered production. Every resolved
// conflict is recorded in t.Conflicts as a diagnostic.
func (t *Table) merge(state int, term grammar.SymbolID, act Action) {
	existing := t.Action[state][term]
	if existing.Type == ActionError {
		t.Action[state][term] = act
		return
	}
	if existing == act {
		return
	}

	winner, note := resolve(existing, act)
	t.Action[state][term] = winner
	t.Conflicts = append(t.Conflicts, fmt.Sprintf(
		"state %d, terminal %s: %s vs %s resolved as %s (%s)",
		state, t.Grammar.TerminalName(term), existing, act, winner, note))
}

func resolve(a, b Action) (winner Action, note string) {
	if a.Type == ActionShift || b.Type == ActionShift {
		if a.Type == ActionShift {
			return a, "shift/reduce: shift wins"
		}
		return b, "shift/reduce: shift wins"
	}
	if a.Type == ActionReduce && b.Type == ActionReduce {
		if a.Prod <= b.Prod {
			return a, "reduce/reduce: lower production id wins"
		}
		return b, "reduce/reduce: lower production id wins"
	}
	if a.Type == ActionAccept {
		return a, "accept takes priority"
	}
	return b, "accept takes priority"
}

// Dump renders the ACTION/GOTO tables as an ASCII grid, one row per state,
// for the --dump-tables debugging aid. Grounded on the teacher's
// internal/ictiobus/parse/clr1.go String() method, which builds the same
// kind of state-by-symbol grid via rosed.Edit("").InsertTableOpts.
func (t *Table) Dump() string {
	terms := t.Grammar.Terminals()
	nonterms := t.Grammar.NonTerminals()

	header := make([]string, 0, len(terms)+len(nonterms)+2)
	header = append(header, "state")
	for _, term := range terms {
		header = append(header, t.Grammar.TerminalName(term))
	}
	header = append(header, "|")
	for _, nt := range nonterms {
		header = append(header, t.Grammar.NonTerminalName(nt))
	}

	data := [][]string{header}
	for i := range t.Action {
		row := []string{fmt.Sprintf("%d", i)}
		for _, term := range terms {
			act := t.ActionAt(i, term)
			cell := ""
			if act.Type != ActionError {
				cell = act.String()
			}
			row = append(row, cell)
		}
		row = append(row, "|")
		for _, nt := range nonterms {
			cell := ""
			if dst, ok := t.GotoAt(i, nt); ok {
				cell = fmt.Sprintf("%d", dst)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

// ExpectedTerminals returns every terminal id for which ACTION[state] is
// not an error entry, for building "unexpected token, expected ..."
// diagnostics (spec.md §4.3 "Error").
func (t *Table) ExpectedTerminals(state int) []grammar.SymbolID {
	var out []grammar.SymbolID
	if state < 0 || state >= len(t.Action) {
		return out
	}
	for term, act := range t.Action[state] {
		if act.Type != ActionError {
			out = append(out, grammar.SymbolID(term))
		}
	}
	return out
}
