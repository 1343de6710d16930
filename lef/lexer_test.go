package lef

import (
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectTokens(t *testing.T, src string) []Token {
	t.Helper()
	lex := NewLexer(strings.NewReader(src))
	var tokens []Token
	for {
		tok, err := lex.Next()
		require.NoError(t, err)
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			break
		}
	}
	return tokens
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	tokens := collectTokens(t, "LAYER Metal1 ;")
	require.Len(t, tokens, 4)
	assert.Equal(t, TokenKeyword, tokens[0].Kind)
	assert.Equal(t, "LAYER", tokens[0].Text)
	assert.Equal(t, TokenIdent, tokens[1].Kind)
	assert.Equal(t, "Metal1", tokens[1].Text)
	assert.Equal(t, TokenSemi, tokens[2].Kind)
	assert.Equal(t, TokenEOF, tokens[3].Kind)
}

func TestLexerIdentifiers(t *testing.T) {
	cases := []string{"poly", "_m1", "via1_2", "M1$drawing", "unithd"}
	for _, id := range cases {
		tokens := collectTokens(t, id)
		require.Len(t, tokens, 2, "input: %s", id) // identifier + EOF
		assert.Equal(t, TokenIdent, tokens[0].Kind, "input: %s", id)
		assert.Equal(t, id, tokens[0].Text, "input: %s", id)
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		num   float64
	}{
		{"0", 0},
		{"42", 42},
		{"0.14", 0.14},
		{"0.140000", 0.14},
		{".5", 0.5},
		{"-0.07", -0.07},
		{"+3.5", 3.5},
		{"1e3", 1000},
		{"2.5E-1", 0.25},
	}
	for _, tt := range tests {
		tokens := collectTokens(t, tt.input)
		require.Len(t, tokens, 2, "input: %s", tt.input)
		assert.Equal(t, TokenNumber, tokens[0].Kind, "input: %s", tt.input)
		assert.Equal(t, tt.num, tokens[0].Num, "input: %s", tt.input)
	}
}

func TestLexerTrailingZerosEqual(t *testing.T) {
	a := collectTokens(t, "0.140000")
	b := collectTokens(t, "0.14")
	assert.Equal(t, a[0].Num, b[0].Num)
}

func TestLexerUnitNumber(t *testing.T) {
	tokens := collectTokens(t, "4.5pf")
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenUnitNumber, tokens[0].Kind)
	assert.Equal(t, 4.5, tokens[0].Num)
	assert.Equal(t, "pf", tokens[0].Unit)
}

func TestLexerMalformedNumbers(t *testing.T) {
	cases := []string{"1.2.3", "4e", "1..5", "-", "3x2"}
	for _, src := range cases {
		lex := NewLexer(strings.NewReader(src))
		_, err := lex.Next()
		require.Error(t, err, "input: %s", src)
		var lexErr *LexError
		require.ErrorAs(t, err, &lexErr, "input: %s", src)
		assert.NotEmpty(t, lexErr.Excerpt, "input: %s", src)
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		text  string
	}{
		{`"[]"`, "[]"},
		{`"/"`, "/"},
		{`""`, ""},
		{`"no\escape"`, `no\escape`},
	}
	for _, tt := range tests {
		tokens := collectTokens(t, tt.input)
		require.Len(t, tokens, 2, "input: %s", tt.input)
		assert.Equal(t, TokenString, tokens[0].Kind, "input: %s", tt.input)
		assert.Equal(t, tt.text, tokens[0].Text, "input: %s", tt.input)
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	lex := NewLexer(strings.NewReader(`"[]`))
	_, err := lex.Next()
	require.Error(t, err)
	var lexErr *LexError
	assert.ErrorAs(t, err, &lexErr)
}

func TestLexerComments(t *testing.T) {
	src := "# header comment\nVERSION 5.8 ; # trailing\n# another\nEND LIBRARY\n"
	tokens := collectTokens(t, src)
	texts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind != TokenEOF {
			texts = append(texts, tok.Text)
		}
	}
	assert.Equal(t, []string{"VERSION", "5.8", ";", "END", "LIBRARY"}, texts)
}

func TestLexerPositions(t *testing.T) {
	src := "VERSION 5.8 ;\nLAYER m1\n"
	tokens := collectTokens(t, src)
	require.Len(t, tokens, 6)

	assert.Equal(t, Position{Line: 1, Column: 1, Offset: 0}, tokens[0].Pos)
	assert.Equal(t, Position{Line: 1, Column: 9, Offset: 8}, tokens[1].Pos)
	assert.Equal(t, Position{Line: 1, Column: 13, Offset: 12}, tokens[2].Pos)
	assert.Equal(t, Position{Line: 2, Column: 1, Offset: 14}, tokens[3].Pos)
	assert.Equal(t, Position{Line: 2, Column: 7, Offset: 20}, tokens[4].Pos)
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	lex := NewLexer(strings.NewReader("PITCH 0.19 ;"))

	p1, err := lex.Peek()
	require.NoError(t, err)
	p2, err := lex.Peek()
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	tok, err := lex.Next()
	require.NoError(t, err)
	assert.Equal(t, p1, tok)

	tok, err = lex.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenNumber, tok.Kind)
}

func TestLexerEOFIsSticky(t *testing.T) {
	lex := NewLexer(strings.NewReader(""))
	for i := 0; i < 3; i++ {
		tok, err := lex.Next()
		require.NoError(t, err)
		assert.Equal(t, TokenEOF, tok.Kind)
	}
}

func TestLexerIncrementalReads(t *testing.T) {
	src := strings.Repeat("SPACING 0.14 ;\n", 100)
	lex := NewLexer(iotest.OneByteReader(strings.NewReader(src)))
	count := 0
	for {
		tok, err := lex.Next()
		require.NoError(t, err)
		if tok.Kind == TokenEOF {
			break
		}
		count++
	}
	assert.Equal(t, 300, count)
}
