// Package grammar implements the grammar-file loader and FIRST-set
// computation of spec.md §4.2, over the single dense symbol-id space
// described in §3: terminals first (0..T), non-terminals next (T..T+N).
// The LR(1) Item type in item.go is grounded on
// github.com/dekarrin/tunaq's internal/ictiobus/grammar/item.go, adapted
// from that package's string-keyed symbols to this spec's dense integer
// ids (needed so ids can index ACTION/GOTO tables directly, per §3).
package grammar

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/rustlite/internal/token"
)

// SymbolID is a dense id in the combined terminal+non-terminal space.
type SymbolID int

// TerminalCount is T, the number of terminal ids (0..T-1); terminal ids
// are exactly the token.Kind values so that grammar terminal names can be
// validated against the token package's enumerators (spec.md §6).
const TerminalCount = token.NumKinds

// Nullable is the sentinel symbol id used inside FIRST sets to mean
// "epsilon/nullable", per spec.md §3 ("the sentinel ID T... is used
// inside FIRST sets to denote nullable").
const Nullable = SymbolID(TerminalCount)

// Production is LHS -> RHS. An empty RHS denotes an epsilon production.
type Production struct {
	ID  int
	LHS SymbolID
	RHS []SymbolID
}

func (p Production) String() string {
	return fmt.Sprintf("%d -> %s", p.LHS, symbolsString(p.RHS))
}

func symbolsString(syms []SymbolID) string {
	if len(syms) == 0 {
		return "epsilon"
	}
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return strings.Join(parts, " ")
}

// Grammar is the loaded, augmented grammar: a dense production list plus
// the symbol-name tables needed to print diagnostics and to look symbols
// up by name while loading a source grammar file.
type Grammar struct {
	Productions []Production

	nonTermNames []string          // index by (id - TerminalCount)
	nonTermIDs   map[string]SymbolID
	start        SymbolID // S, before augmentation
	augStart     SymbolID // S', the augmented start symbol
	augmented    bool

	firstCache map[SymbolID]map[SymbolID]bool
}

// IsTerminal reports whether id names a terminal symbol.
func (g *Grammar) IsTerminal(id SymbolID) bool {
	return id >= 0 && int(id) < TerminalCount
}

// IsNonTerminal reports whether id names a non-terminal symbol (including
// the augmented start symbol, once added).
func (g *Grammar) IsNonTerminal(id SymbolID) bool {
	return int(id) >= TerminalCount && int(id)-TerminalCount < len(g.nonTermNames)
}

// StartSymbol returns S, the grammar's original (pre-augmentation) start
// symbol: the LHS of the first production in the grammar file (§4.2).
func (g *Grammar) StartSymbol() SymbolID {
	return g.start
}

// AugmentedStart returns S', appended by Augment.
func (g *Grammar) AugmentedStart() SymbolID {
	return g.augStart
}

// NonTerminalName returns the source-file name of non-terminal id.
func (g *Grammar) NonTerminalName(id SymbolID) string {
	idx := int(id) - TerminalCount
	if idx < 0 || idx >= len(g.nonTermNames) {
		return fmt.Sprintf("<nt%d>", id)
	}
	return g.nonTermNames[idx]
}

// TerminalName returns the lower-case terminal id string used in grammar
// files, matching token.Kind.ID().
func (g *Grammar) TerminalName(id SymbolID) string {
	return token.Kind(id).ID()
}

// SymbolName returns the display name for any symbol id.
func (g *Grammar) SymbolName(id SymbolID) string {
	if g.IsTerminal(id) {
		return g.TerminalName(id)
	}
	return g.NonTerminalName(id)
}

// Terminals returns every terminal id in ascending order, for table dumps
// and diagnostics that need to enumerate the fixed terminal alphabet.
func (g *Grammar) Terminals() []SymbolID {
	ids := make([]SymbolID, TerminalCount)
	for i := range ids {
		ids[i] = SymbolID(i)
	}
	return ids
}

// NonTerminals returns every non-terminal id, in declaration order. Once
// Augment has run, the augmented start symbol is included as the last id.
func (g *Grammar) NonTerminals() []SymbolID {
	ids := make([]SymbolID, len(g.nonTermNames))
	for i := range g.nonTermNames {
		ids[i] = SymbolID(TerminalCount + i)
	}
	return ids
}

// ProductionsFor returns every production whose LHS is nt.
func (g *Grammar) ProductionsFor(nt SymbolID) []Production {
	var out []Production
	for _, p := range g.Productions {
		if p.LHS == nt {
			out = append(out, p)
		}
	}
	return out
}

// Augment appends S' -> S as the final production, with S' as the final
// non-terminal, per spec.md §3/§4.2. Augment is idempotent.
func (g *Grammar) Augment() {
	if g.augmented {
		return
	}
	g.augStart = SymbolID(TerminalCount + len(g.nonTermNames))
	g.nonTermNames = append(g.nonTermNames, "__augmented_start__")
	g.nonTermIDs["__augmented_start__"] = g.augStart
	g.Productions = append(g.Productions, Production{
		ID:  len(g.Productions),
		LHS: g.augStart,
		RHS: []SymbolID{g.start},
	})
	g.augmented = true
	g.firstCache = nil
}

// Load parses a grammar file in the format described in spec.md §4.2/§6:
// one rule per line, "LHS -> sym sym ..." or "LHS -> epsilon"; "#" starts
// a comment; non-terminal ids are assigned in file order of first LHS
// appearance so that the first rule's LHS is the start symbol.
func Load(src string) (*Grammar, error) {
	g := &Grammar{
		nonTermIDs: map[string]SymbolID{},
	}

	lines := splitLines(src)

	// pass 1: discover every LHS, in file order, assigning non-terminal
	// ids (§4.2 "Scans once to discover every LHS in file order").
	for _, line := range lines {
		lhs, _, ok := splitRule(line)
		if !ok {
			continue
		}
		g.registerNonTerminal(lhs)
	}
	if len(g.nonTermNames) == 0 {
		return nil, fmt.Errorf("grammar: no productions found")
	}
	g.start = g.nonTermIDs[g.nonTermNames[0]]

	// pass 2: build Production records, resolving RHS symbols: terminal
	// first, else register as a non-terminal if unseen on LHS (covers
	// forward references and symbols that only ever appear on a RHS,
	// which would otherwise not get an id from pass 1).
	for _, line := range lines {
		lhsName, rhsWords, ok := splitRule(line)
		if !ok {
			continue
		}
		lhs := g.registerNonTerminal(lhsName)

		var rhs []SymbolID
		if !(len(rhsWords) == 1 && strings.EqualFold(rhsWords[0], "epsilon")) {
			for _, w := range rhsWords {
				sym, err := g.resolveSymbol(w)
				if err != nil {
					return nil, err
				}
				rhs = append(rhs, sym)
			}
		}

		g.Productions = append(g.Productions, Production{
			ID:  len(g.Productions),
			LHS: lhs,
			RHS: rhs,
		})
	}

	return g, nil
}

func (g *Grammar) registerNonTerminal(name string) SymbolID {
	if id, ok := g.nonTermIDs[name]; ok {
		return id
	}
	id := SymbolID(TerminalCount + len(g.nonTermNames))
	g.nonTermNames = append(g.nonTermNames, name)
	g.nonTermIDs[name] = id
	return id
}

func (g *Grammar) resolveSymbol(name string) (SymbolID, error) {
	for k := 0; k < token.NumKinds; k++ {
		if token.Kind(k).ID() == name {
			return SymbolID(k), nil
		}
	}
	// not a terminal: treat as a non-terminal, registering it if unseen.
	return g.registerNonTerminal(name), nil
}

func splitLines(src string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

// splitRule strips comments and blank lines and splits "LHS -> a b c"
// into its LHS name and RHS word list.
func splitRule(line string) (lhs string, rhs []string, ok bool) {
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, false
	}
	parts := strings.SplitN(line, "->", 2)
	if len(parts) != 2 {
		return "", nil, false
	}
	lhs = strings.TrimSpace(parts[0])
	fields := strings.Fields(parts[1])
	return lhs, fields, true
}

// Validate checks the grammar has no LHS-less symbols and that the start
// symbol has at least one production.
func (g *Grammar) Validate() error {
	if len(g.ProductionsFor(g.start)) == 0 {
		return fmt.Errorf("grammar: start symbol %q has no productions", g.NonTerminalName(g.start))
	}
	for _, nt := range g.NonTerminals() {
		if len(g.ProductionsFor(nt)) == 0 {
			return fmt.Errorf("grammar: non-terminal %q has no productions", g.NonTerminalName(nt))
		}
	}
	return nil
}

// First returns FIRST(alpha) for the symbol string alpha (possibly
// length-0, whose FIRST is {Nullable}), per spec.md §4.2's FIRST
// computation rule.
func (g *Grammar) First(alpha []SymbolID) map[SymbolID]bool {
	if g.firstCache == nil {
		g.computeFirstSets()
	}

	result := map[SymbolID]bool{}
	allNullable := true
	for _, sym := range alpha {
		symFirst := g.firstOfSymbol(sym)
		for f := range symFirst {
			if f != Nullable {
				result[f] = true
			}
		}
		if !symFirst[Nullable] {
			allNullable = false
			break
		}
	}
	if allNullable {
		result[Nullable] = true
	}
	return result
}

func (g *Grammar) firstOfSymbol(sym SymbolID) map[SymbolID]bool {
	if g.IsTerminal(sym) {
		return map[SymbolID]bool{sym: true}
	}
	if g.firstCache == nil {
		g.computeFirstSets()
	}
	return g.firstCache[sym]
}

// computeFirstSets iterates to a fixpoint per spec.md §4.2.
func (g *Grammar) computeFirstSets() {
	g.firstCache = map[SymbolID]map[SymbolID]bool{}
	for _, nt := range g.allNonTerminalIDs() {
		g.firstCache[nt] = map[SymbolID]bool{}
	}

	changed := true
	for changed {
		changed = false
		for _, p := range g.Productions {
			before := len(g.firstCache[p.LHS])

			allNullableSoFar := true
			for _, sym := range p.RHS {
				var symFirst map[SymbolID]bool
				if g.IsTerminal(sym) {
					symFirst = map[SymbolID]bool{sym: true}
				} else {
					symFirst = g.firstCache[sym]
				}
				for f := range symFirst {
					if f != Nullable {
						g.firstCache[p.LHS][f] = true
					}
				}
				if !symFirst[Nullable] {
					allNullableSoFar = false
					break
				}
			}
			if allNullableSoFar {
				g.firstCache[p.LHS][Nullable] = true
			}

			if len(g.firstCache[p.LHS]) != before {
				changed = true
			}
		}
	}
}

func (g *Grammar) allNonTerminalIDs() []SymbolID {
	ids := make([]SymbolID, len(g.nonTermNames))
	for i := range g.nonTermNames {
		ids[i] = SymbolID(TerminalCount + i)
	}
	return ids
}

// SortedProductionIDs is used by the table generator and cache
// serializer to iterate productions in a deterministic order.
func (g *Grammar) SortedProductionIDs() []int {
	ids := make([]int, len(g.Productions))
	for i := range g.Productions {
		ids[i] = i
	}
	sort.Ints(ids)
	return ids
}
