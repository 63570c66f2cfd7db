// Package lexer implements the hand-rolled ordered-longest-match tokenizer
// described in spec.md §4.1. It is grounded on the Token/TokenStream shape
// used by github.com/dekarrin/tunaq's internal/ictiobus/lex package
// (lexerToken carrying class/lexeme/line/linePos/fullLine) but the
// recognition rules themselves are hand-written for this language rather
// than built from the teacher's regex-class engine, since the spec
// mandates a fixed ordered rule list rather than a table of user-supplied
// patterns.
package lexer

import (
	"strings"
	"unicode"

	"github.com/dekarrin/rustlite/internal/compileerr"
	"github.com/dekarrin/rustlite/internal/token"
)

// Lexer holds the source text and cursor state for one compilation unit.
type Lexer struct {
	src    []rune
	pos    int // rune index into src
	row    int // 1-indexed
	col    int // 1-indexed
	nextID uint32
}

// New returns a Lexer ready to tokenize src.
func New(src string) *Lexer {
	return &Lexer{
		src: []rune(src),
		pos: 0,
		row: 1,
		col: 1,
	}
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) peekAt(offset int) rune {
	idx := l.pos + offset
	if idx < 0 || idx >= len(l.src) {
		return 0
	}
	return l.src[idx]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.row++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentCont(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Lex tokenizes the entire source and returns the complete stream
// terminated by EOF, or the first CompileError encountered (an UNKNOWN
// token, per spec.md §4.1's error model: lexing never aborts on its own,
// but the caller halts the pipeline before parsing when a Kind==Unknown is
// produced).
func Lex(src string) ([]token.Token, error) {
	l := New(src)
	var toks []token.Token
	var firstUnknown *token.Token

	for {
		tok := l.next()
		toks = append(toks, tok)
		if tok.Kind == token.Unknown && firstUnknown == nil {
			cp := tok
			firstUnknown = &cp
		}
		if tok.Kind == token.EOF {
			break
		}
	}

	if firstUnknown != nil {
		return toks, compileerr.New(compileerr.KindLexical,
			compileerr.Loc{Row: firstUnknown.Loc.Row, Col: firstUnknown.Loc.Col},
			"unrecognized character %q", firstUnknown.Content)
	}

	return toks, nil
}

// next scans and returns exactly one token, applying the ordered
// longest-match rule list from spec.md §4.1. Comments are tokens in the
// raw stream (the parser stage filters them via Stream) so the stream can
// still reconstruct the source byte-for-byte.
func (l *Lexer) next() token.Token {
	for !l.eof() && unicode.IsSpace(l.peekAt(0)) {
		l.advance()
	}

	startRow, startCol := l.row, l.col

	if l.eof() {
		return l.emit(token.EOF, "", startRow, startCol)
	}

	r := l.peekAt(0)

	switch {
	case r == '/' && l.peekAt(1) == '/':
		start := l.pos
		for !l.eof() && l.peekAt(0) != '\n' {
			l.advance()
		}
		return l.emit(token.LineComment, string(l.src[start:l.pos]), startRow, startCol)
	case r == '/' && l.peekAt(1) == '*':
		return l.lexBlockComment(startRow, startCol)
	case r == '\'':
		return l.lexCharLit(startRow, startCol)
	case r == '"':
		return l.lexStringLit(startRow, startCol)
	case isIdentStart(r):
		return l.lexWordlike(startRow, startCol)
	case isDigit(r):
		return l.lexNumber(startRow, startCol)
	default:
		return l.lexOperator(startRow, startCol)
	}
}

// lexBlockComment scans a /* ... */ comment, counting nesting depth. If it
// reaches EOF before the depth returns to zero, the whole consumed span is
// a single UNKNOWN token, per spec.md §4.1 rule 3.
func (l *Lexer) lexBlockComment(row, col int) token.Token {
	start := l.pos

	l.advance() // '/'
	l.advance() // '*'
	depth := 1

	for depth > 0 {
		if l.eof() {
			return l.emit(token.Unknown, string(l.src[start:l.pos]), row, col)
		}
		if l.peekAt(0) == '/' && l.peekAt(1) == '*' {
			l.advance()
			l.advance()
			depth++
			continue
		}
		if l.peekAt(0) == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			depth--
			continue
		}
		l.advance()
	}
	return l.emit(token.BlockComment, string(l.src[start:l.pos]), row, col)
}

func (l *Lexer) emit(kind token.Kind, content string, row, col int) token.Token {
	id := l.nextID
	l.nextID++
	return token.Token{
		ID:      id,
		Content: content,
		Kind:    kind,
		Loc:     token.Pos{Row: row, Col: col},
	}
}

func (l *Lexer) lexWordlike(row, col int) token.Token {
	var sb strings.Builder
	for !l.eof() && isIdentCont(l.peekAt(0)) {
		sb.WriteRune(l.advance())
	}
	word := sb.String()

	// rule 6: macro-identifier is identifier immediately followed by '!'.
	if !l.eof() && l.peekAt(0) == '!' {
		l.advance()
		return l.emit(token.MacroIdent, word+"!", row, col)
	}

	// rule 5: whole-word keyword match takes priority over identifier.
	if kw, ok := token.LookupKeyword(word); ok {
		return l.emit(kw, word, row, col)
	}

	return l.emit(token.Ident, word, row, col)
}

func (l *Lexer) lexNumber(row, col int) token.Token {
	start := l.pos
	for !l.eof() && isDigit(l.peekAt(0)) {
		l.advance()
	}

	// rule 8: float literal must be attempted before integer: a '.' that is
	// followed by a digit (and not the start of a '..' range operator)
	// extends this into a float.
	isFloat := false
	if l.peekAt(0) == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.advance() // '.'
		for !l.eof() && isDigit(l.peekAt(0)) {
			l.advance()
		}
	}

	text := string(l.src[start:l.pos])
	if isFloat {
		return l.emit(token.FloatLit, text, row, col)
	}
	return l.emit(token.IntLit, text, row, col)
}

func (l *Lexer) lexCharLit(row, col int) token.Token {
	start := l.pos
	l.advance() // opening '
	for !l.eof() && l.peekAt(0) != '\'' {
		if l.peekAt(0) == '\\' {
			l.advance()
		}
		if !l.eof() {
			l.advance()
		}
	}
	if l.eof() {
		return l.emit(token.Unknown, string(l.src[start:l.pos]), row, col)
	}
	l.advance() // closing '
	return l.emit(token.CharLit, string(l.src[start:l.pos]), row, col)
}

func (l *Lexer) lexStringLit(row, col int) token.Token {
	start := l.pos
	l.advance() // opening "
	for !l.eof() && l.peekAt(0) != '"' {
		if l.peekAt(0) == '\\' {
			l.advance()
		}
		if !l.eof() {
			l.advance()
		}
	}
	if l.eof() {
		return l.emit(token.Unknown, string(l.src[start:l.pos]), row, col)
	}
	l.advance() // closing "
	return l.emit(token.StringLit, string(l.src[start:l.pos]), row, col)
}

// multiCharOps lists the two-character operators that must be matched
// before their single-character prefixes, per rule 10 of §4.1.
var multiCharOps = []struct {
	text string
	kind token.Kind
}{
	{"->", token.Arrow},
	{"==", token.EqEq},
	{"!=", token.NotEq},
	{">=", token.Ge},
	{"<=", token.Le},
	{"..", token.DotDot},
	{"&&", token.AmpAmp},
	{"||", token.PipePipe},
}

var singleCharOps = map[rune]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'%': token.Percent,
	'&': token.Amp,
	'|': token.Pipe,
	'!': token.Bang,
	'=': token.Eq,
	'<': token.Lt,
	'>': token.Gt,
	'.': token.Dot,
	',': token.Comma,
	':': token.Colon,
	';': token.Semi,
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
	'[': token.LBracket,
	']': token.RBracket,
}

func (l *Lexer) lexOperator(row, col int) token.Token {
	for _, op := range multiCharOps {
		if l.matches(op.text) {
			for range op.text {
				l.advance()
			}
			return l.emit(op.kind, op.text, row, col)
		}
	}

	r := l.peekAt(0)
	if kind, ok := singleCharOps[r]; ok {
		l.advance()
		return l.emit(kind, string(r), row, col)
	}

	// rule "any unmatched character": single UNKNOWN token, advance.
	l.advance()
	return l.emit(token.Unknown, string(r), row, col)
}

func (l *Lexer) matches(s string) bool {
	for i, want := range s {
		if l.peekAt(i) != want {
			return false
		}
	}
	return true
}
