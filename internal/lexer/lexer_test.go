package lexer

import (
	"strings"
	"testing"

	"github.com/dekarrin/rustlite/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i := range toks {
		out[i] = toks[i].Kind
	}
	return out
}

func Test_Lex_arithmeticDecl(t *testing.T) {
	toks, err := Lex("fn main(){ let x: i32 = 1 + 2 * 3; }")
	require.NoError(t, err)

	assert.Equal(t, []token.Kind{
		token.KwFn, token.Ident, token.LParen, token.RParen, token.LBrace,
		token.KwLet, token.Ident, token.Colon, token.KwI32, token.Eq,
		token.IntLit, token.Plus, token.IntLit, token.Star, token.IntLit,
		token.Semi, token.RBrace, token.EOF,
	}, kinds(toks))
}

func Test_Lex_lineComment(t *testing.T) {
	toks, err := Lex("let x = 1; // trailing comment\nlet y = 2;")
	require.NoError(t, err)

	assert.NotContains(t, kinds(toks), token.Unknown)
	// comments remain in the raw stream; the parser stage filters them.
	var sawComment bool
	for _, tk := range toks {
		if tk.Kind == token.LineComment {
			sawComment = true
		}
	}
	assert.True(t, sawComment)
}

func Test_NewStream_filtersComments(t *testing.T) {
	toks, err := Lex("let x = 1; // trailing\n/* block */ let y = 2;")
	require.NoError(t, err)

	s := NewStream(toks)
	for s.HasNext() {
		assert.False(t, s.Next().IsComment())
	}
	assert.Equal(t, token.EOF, s.Peek().Kind)
}

func Test_Lex_roundTripContent(t *testing.T) {
	src := "fn main() { /* a /* b */ c */ let x = 1; // done\n}"
	toks, err := Lex(src)
	require.NoError(t, err)

	// Every non-whitespace byte of the source survives in some token's
	// content, in order.
	rest := src
	for _, tk := range toks {
		if tk.Content == "" {
			continue
		}
		idx := indexOf(rest, tk.Content)
		require.GreaterOrEqual(t, idx, 0, "token %q not found in remaining source", tk.Content)
		require.Empty(t, strings.TrimSpace(rest[:idx]), "non-whitespace source skipped before token %q", tk.Content)
		rest = rest[idx+len(tk.Content):]
	}
	require.Empty(t, strings.TrimSpace(rest), "non-whitespace source left after the last token")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func Test_Lex_nestedBlockComment(t *testing.T) {
	toks, err := Lex("/* outer /* inner */ still outer */ let x = 1;")
	require.NoError(t, err)
	assert.NotContains(t, kinds(toks), token.Unknown)
}

func Test_Lex_unterminatedBlockComment(t *testing.T) {
	_, err := Lex("let x = 1; /* never closes")
	require.Error(t, err)
}

func Test_Lex_macroIdentifier(t *testing.T) {
	toks, err := Lex("println!(x);")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, token.MacroIdent, toks[0].Kind)
	assert.Equal(t, "println!", toks[0].Content)
}

func Test_Lex_floatBeforeInt(t *testing.T) {
	toks, err := Lex("3.14")
	require.NoError(t, err)
	require.Len(t, toks, 2) // float literal + EOF
	assert.Equal(t, token.FloatLit, toks[0].Kind)
	assert.Equal(t, "3.14", toks[0].Content)
}

func Test_Lex_rangeDotDotNotFloat(t *testing.T) {
	toks, err := Lex("0..10")
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{token.IntLit, token.DotDot, token.IntLit, token.EOF}, kinds(toks))
}

func Test_Lex_multiCharOperatorsBeforeSingle(t *testing.T) {
	toks, err := Lex("-> == != >= <= .. && ||")
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{
		token.Arrow, token.EqEq, token.NotEq, token.Ge, token.Le,
		token.DotDot, token.AmpAmp, token.PipePipe, token.EOF,
	}, kinds(toks))
}

func Test_Lex_unknownCharacter(t *testing.T) {
	_, err := Lex("let x = 1 $ 2;")
	require.Error(t, err)
}

func Test_Lex_locationsTrackRowCol(t *testing.T) {
	toks, err := Lex("let x = 1;\nlet y = 2;")
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	assert.Equal(t, 1, toks[0].Loc.Row)

	var secondLineTok *token.Token
	for i := range toks {
		if toks[i].Loc.Row == 2 {
			secondLineTok = &toks[i]
			break
		}
	}
	require.NotNil(t, secondLineTok)
	assert.Equal(t, 1, secondLineTok.Loc.Col)
}
