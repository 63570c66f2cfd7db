package parser

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/grammar"
	"github.com/dekarrin/rustlite/internal/ir"
	"github.com/dekarrin/rustlite/internal/parsetab"
	"github.com/dekarrin/rustlite/internal/rstypes"
	"github.com/dekarrin/rustlite/internal/token"
	"github.com/dekarrin/rustlite/internal/util"
)

// Reducer is implemented by the semantic analyzer: on every reduction the
// parser builds the production's rule string and the list of the
// popped slots' attrs, and asks the reducer to compute the resulting
// LHS attrs, per spec.md §4.3/§4.4.
type Reducer interface {
	Reduce(rule string, rhs []*Attrs, loc token.Pos) (*Attrs, error)
}

// TokenSource is the parser's input: a comment-filtered, EOF-terminated
// token sequence (spec.md §4.3). *lexer.Stream implements it.
type TokenSource interface {
	Next() token.Token
	Peek() token.Token
}

// Result is what a successful parse/semantic pass returns: the CST root
// and the accepted slot's quadruple list. It carries no symbol-table
// snapshot; symbol state stays inside the Reducer.
type Result struct {
	CST  *Node
	Code []ir.Quad
}

// slot is one {state, cst_node, attrs} parse-stack entry, per spec.md §3.
type slot struct {
	state int
	cst   *Node
	attrs *Attrs
}

// RuleString renders a production as "A -> X1 X2 ..." or "A -> epsilon",
// per spec.md §4.3. Exported so the semantic package's dispatcher table
// can be written against the exact same strings the parser builds.
func RuleString(g *grammar.Grammar, p grammar.Production) string {
	if len(p.RHS) == 0 {
		return fmt.Sprintf("%s -> epsilon", g.NonTerminalName(p.LHS))
	}
	parts := make([]string, len(p.RHS))
	for i, sym := range p.RHS {
		parts[i] = g.SymbolName(sym)
	}
	return fmt.Sprintf("%s -> %s", g.NonTerminalName(p.LHS), strings.Join(parts, " "))
}

// Parse runs the shift/reduce loop of spec.md §4.3 over toks using tab,
// dispatching every reduction to red.
func Parse(tab *parsetab.Table, toks TokenSource, red Reducer) (*Result, error) {
	g := tab.Grammar
	eof := tab.EOF

	stack := util.Stack[slot]{Of: []slot{{state: tab.Initial()}}}

	for {
		top := stack.Peek()
		lookahead := toks.Peek()
		termID := grammar.SymbolID(lookahead.Kind)
		if lookahead.Kind == token.EOF {
			termID = eof
		}

		act := tab.ActionAt(top.state, termID)

		switch act.Type {
		case parsetab.ActionShift:
			attrs := shiftAttrs(lookahead)
			node := &Node{Symbol: termID, Tok: &lookahead}
			stack.Push(slot{state: act.State, cst: node, attrs: attrs})
			toks.Next()

		case parsetab.ActionReduce:
			prod := g.Productions[act.Prod]
			k := len(prod.RHS)

			rhsSlots := make([]slot, k)
			for i := k - 1; i >= 0; i-- {
				rhsSlots[i] = stack.Pop()
			}

			children := make([]*Node, k)
			rhsAttrs := make([]*Attrs, k)
			for i, s := range rhsSlots {
				children[i] = s.cst
				rhsAttrs[i] = s.attrs
			}

			loc := token.Pos{}
			if k > 0 && rhsAttrs[0].TokenObj != nil {
				loc = rhsAttrs[0].TokenObj.Loc
			}

			rule := RuleString(g, prod)
			lhsAttrs, err := red.Reduce(rule, rhsAttrs, loc)
			if err != nil {
				return nil, err
			}

			node := &Node{Symbol: prod.LHS, Children: children}

			newTop := stack.Peek()
			dst, ok := tab.GotoAt(newTop.state, prod.LHS)
			if !ok {
				return nil, compileerr.New(compileerr.KindSyntax, compileerr.Loc{Row: loc.Row, Col: loc.Col},
					"no GOTO entry for state %d, non-terminal %s", newTop.state, g.NonTerminalName(prod.LHS))
			}
			stack.Push(slot{state: dst, cst: node, attrs: lhsAttrs})

		case parsetab.ActionAccept:
			top := stack.Peek()
			return &Result{CST: top.cst, Code: top.attrs.Code}, nil

		default:
			expected := tab.ExpectedTerminals(top.state)
			names := make([]string, len(expected))
			for i, e := range expected {
				names[i] = g.TerminalName(e)
			}
			return nil, compileerr.New(compileerr.KindSyntax,
				compileerr.Loc{Row: lookahead.Loc.Row, Col: lookahead.Loc.Col},
				"unexpected token %q (%s); expected %s",
				lookahead.Content, lookahead.Kind.Human(), util.MakeTextList(names))
		}
	}
}

// shiftAttrs builds the attrs for a freshly-shifted terminal, per spec.md
// §4.3 ("create attrs for the terminal — always including token_obj and
// empty code; for integer literals, also type=i32, place=<value>; for
// identifiers, also name=<text>").
func shiftAttrs(tok token.Token) *Attrs {
	t := tok
	a := &Attrs{TokenObj: &t}
	switch tok.Kind {
	case token.IntLit:
		a.Type = rstypes.I32
		a.Place = tok.Content
	case token.Ident:
		a.Name = tok.Content
	}
	return a
}
