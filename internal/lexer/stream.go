package lexer

import "github.com/dekarrin/rustlite/internal/token"

// Stream is a TokenStream over an already-lexed token slice with comments
// filtered out, per spec.md §4.3 ("Input is the lexer's token stream with
// comments filtered out and an EOF sentinel appended"). Grounded on
// ictiobus's types.TokenStream Next/Peek/HasNext shape.
type Stream struct {
	toks []token.Token
	pos  int
}

// NewStream filters comments from toks and wraps the result for parser
// consumption. toks must already end with an EOF token (Lex guarantees
// this).
func NewStream(toks []token.Token) *Stream {
	filtered := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.IsComment() {
			continue
		}
		filtered = append(filtered, t)
	}
	return &Stream{toks: filtered}
}

// Next returns the next token and advances the stream. Once EOF has been
// reached, Next keeps returning the EOF token.
func (s *Stream) Next() token.Token {
	t := s.Peek()
	if s.pos < len(s.toks)-1 {
		s.pos++
	}
	return t
}

// Peek returns the next token without advancing the stream.
func (s *Stream) Peek() token.Token {
	if len(s.toks) == 0 {
		return token.Token{Kind: token.EOF}
	}
	return s.toks[s.pos]
}

// HasNext returns whether the stream has any token left other than EOF.
func (s *Stream) HasNext() bool {
	return s.pos < len(s.toks)-1
}
