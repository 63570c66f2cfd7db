package token

import "fmt"

// Pos is a 1-indexed source location; Row counts '\n', Col resets on each
// newline.
type Pos struct {
	Row int
	Col int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Col)
}

// Token is a lexeme read from text along with its class and source
// location, per spec.md §3's Token data model.
type Token struct {
	ID      uint32
	Content string
	Kind    Kind
	Loc     Pos
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Content, t.Loc)
}

// IsComment returns whether the token is one the parser filters from its
// input stream before driving the shift/reduce loop (§4.3).
func (t Token) IsComment() bool {
	return t.Kind == LineComment || t.Kind == BlockComment
}
