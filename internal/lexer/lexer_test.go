package lexer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tangzhangming/limbs/internal/token"
)

func types(tokens []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestLexerPunctuation(t *testing.T) {
	l := New(`( ) { } [ ] < > , : = *`, "test.ll")
	tokens := l.ScanTokens()

	assert.Equal(t, []token.TokenType{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.LT, token.GT,
		token.COMMA, token.COLON, token.ASSIGN, token.STAR,
		token.EOF,
	}, types(tokens))
	assert.False(t, l.HasErrors())
}

func TestLexerKeywords(t *testing.T) {
	l := New(`define label to align addrspace void true false undef poison null x add i128`, "test.ll")
	tokens := l.ScanTokens()

	assert.Equal(t, []token.TokenType{
		token.DEFINE, token.LABEL, token.TO, token.ALIGN, token.ADDRSPACE,
		token.VOID, token.TRUE, token.FALSE, token.UNDEF, token.POISON,
		token.NULL, token.X, token.IDENT, token.IDENT,
		token.EOF,
	}, types(tokens))
}

func TestLexerNames(t *testing.T) {
	l := New(`%x %_0 %a.lo %b$1 %x-y @main`, "test.ll")
	tokens := l.ScanTokens()
	require.False(t, l.HasErrors())

	expected := []struct {
		typ   token.TokenType
		value string
	}{
		{token.LOCAL, "x"},
		{token.LOCAL, "_0"},
		{token.LOCAL, "a.lo"},
		{token.LOCAL, "b$1"},
		{token.LOCAL, "x-y"},
		{token.GLOBAL, "main"},
	}
	require.Len(t, tokens, len(expected)+1)
	for i, want := range expected {
		assert.Equal(t, want.typ, tokens[i].Type, "token %d", i)
		assert.Equal(t, want.value, tokens[i].Value, "token %d", i)
	}
}

func TestLexerIntegers(t *testing.T) {
	l := New(`0 42 -7 340282366920938463463374607431768211456`, "test.ll")
	tokens := l.ScanTokens()
	require.False(t, l.HasErrors())
	require.Len(t, tokens, 5)

	huge, _ := new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	want := []*big.Int{big.NewInt(0), big.NewInt(42), big.NewInt(-7), huge}
	for i, w := range want {
		assert.Equal(t, token.INT, tokens[i].Type)
		assert.Zero(t, w.Cmp(tokens[i].Value.(*big.Int)), "token %d = %v", i, tokens[i].Value)
	}
}

func TestLexerComments(t *testing.T) {
	src := "; header\nret ; trailing\n"

	tokens := New(src, "test.ll").ScanTokens()
	assert.Equal(t, []token.TokenType{token.IDENT, token.EOF}, types(tokens))

	kept := New(src, "test.ll").KeepComments().ScanTokens()
	assert.Equal(t, []token.TokenType{token.COMMENT, token.IDENT, token.COMMENT, token.EOF}, types(kept))
}

func TestLexerPositions(t *testing.T) {
	src := "define void @f() {\nentry:\n  ret void\n}\n"
	tokens := New(src, "f.ll").ScanTokens()

	var ret token.Token
	for _, tok := range tokens {
		if tok.Literal == "ret" {
			ret = tok
		}
	}
	assert.Equal(t, token.Position{Filename: "f.ll", Line: 3, Column: 3, Offset: 28}, ret.Pos)
	assert.Equal(t, "f.ll:3:3", ret.Pos.String())
	assert.Equal(t, 6, ret.End().Column)
}

func TestLexerNumericLabel(t *testing.T) {
	tokens := New("0:\n1abc", "test.ll").ScanTokens()
	assert.Equal(t, []token.TokenType{token.INT, token.COLON, token.IDENT, token.EOF}, types(tokens))
	assert.Equal(t, "1abc", tokens[2].Literal)
}

func TestLexerErrors(t *testing.T) {
	l := New("ret # % -x", "test.ll")
	tokens := l.ScanTokens()

	require.Len(t, l.Errors(), 3)
	assert.Equal(t, "P0001", l.Errors()[0].Code)
	assert.Equal(t, 5, l.Errors()[0].Pos.Column)
	assert.Contains(t, l.Errors()[0].Error(), "test.ll:1:5")

	illegal := 0
	for _, tok := range tokens {
		if tok.Type == token.ILLEGAL {
			illegal++
		}
	}
	assert.Equal(t, 3, illegal)
}
