package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dekarrin/rustlite/internal/parser"
)

// dumpCST prints an indented tree, one node per line: interior nodes by
// their grammar symbol id (no grammar loaded here to resolve names back
// to strings, so this stays a numeric debugging aid rather than a
// pretty-printer), leaves by their token's kind and lexeme.
func dumpCST(w io.Writer, n *parser.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsLeaf() {
		fmt.Fprintf(w, "%s%s %q\n", indent, n.Tok.Kind, n.Tok.Content)
		return
	}
	fmt.Fprintf(w, "%ssym(%d)\n", indent, n.Symbol)
	for _, c := range n.Children {
		dumpCST(w, c, depth+1)
	}
}
