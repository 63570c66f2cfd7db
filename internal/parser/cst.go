package parser

import (
	"github.com/dekarrin/rustlite/internal/grammar"
	"github.com/dekarrin/rustlite/internal/token"
)

// Node is one concrete syntax tree node: either a terminal leaf (Tok set)
// or an interior node labeled with the non-terminal it reduced to
// (Symbol set, Children populated), per spec.md §4.3 ("build a CST node
// {root:A, children:[...]}").
type Node struct {
	Symbol   grammar.SymbolID
	Tok      *token.Token
	Children []*Node
}

// IsLeaf reports whether n is a terminal leaf.
func (n *Node) IsLeaf() bool {
	return n.Tok != nil
}
