package lef

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Lexer tokenizes a LEF source stream into tokens. Input is consumed
// incrementally through a buffered reader; the file is never held in
// memory as a whole.
type Lexer struct {
	br     *bufio.Reader
	line   int // current line (1-based)
	col    int // current column (1-based)
	offset int // current byte offset
	peeked *Token
}

// NewLexer creates a Lexer reading from r.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{br: bufio.NewReader(r), line: 1, col: 1}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	tok, err := l.scan()
	if err != nil {
		return Token{}, err
	}
	l.peeked = &tok
	return tok, nil
}

// Next returns the next token and advances the lexer.
func (l *Lexer) Next() (Token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.scan()
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.offset}
}

// peekByte returns the next input byte without consuming it. ok is false
// at end of input or on a read error (the error surfaces from advance).
func (l *Lexer) peekByte() (byte, bool) {
	bs, err := l.br.Peek(1)
	if err != nil {
		return 0, false
	}
	return bs[0], true
}

func (l *Lexer) advance() (byte, error) {
	ch, err := l.br.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, err
		}
		return 0, fmt.Errorf("read at line %d: %w", l.line, err)
	}
	l.offset++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch, nil
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		ch, ok := l.peekByte()
		if !ok {
			return nil
		}
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			if _, err := l.advance(); err != nil {
				return err
			}
		case ch == '#':
			// Comment: skip to end of line
			for {
				ch, ok := l.peekByte()
				if !ok || ch == '\n' {
					break
				}
				if _, err := l.advance(); err != nil {
					return err
				}
			}
		default:
			return nil
		}
	}
}

func (l *Lexer) scan() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}

	ch, ok := l.peekByte()
	if !ok {
		// Distinguish clean EOF from an underlying read error.
		if _, err := l.br.Peek(1); err != nil && err != io.EOF {
			return Token{}, fmt.Errorf("read at line %d: %w", l.line, err)
		}
		return Token{Kind: TokenEOF, Pos: l.currentPos()}, nil
	}

	pos := l.currentPos()

	switch {
	case ch == ';':
		if _, err := l.advance(); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenSemi, Text: ";", Pos: pos}, nil
	case ch == '"':
		return l.scanString()
	case ch == '-' || ch == '+' || ch == '.' || isDigit(ch):
		return l.scanNumber()
	case isWordStart(ch):
		return l.scanWord()
	}

	_, _ = l.advance()
	return Token{}, &LexError{
		ParseError: ParseError{
			Message: fmt.Sprintf("unexpected character %q", ch),
			Pos:     pos,
		},
		Excerpt: string(ch),
	}
}

// scanString reads a double-quoted string. LEF strings carry their content
// verbatim; there is no escape processing.
func (l *Lexer) scanString() (Token, error) {
	pos := l.currentPos()
	_, _ = l.advance() // consume opening "

	var sb strings.Builder
	for {
		ch, ok := l.peekByte()
		if !ok {
			return Token{}, &LexError{
				ParseError: ParseError{
					Message: "unterminated string",
					Pos:     pos,
				},
				Excerpt: sb.String(),
			}
		}
		if _, err := l.advance(); err != nil {
			return Token{}, err
		}
		if ch == '"' {
			return Token{Kind: TokenString, Text: sb.String(), Pos: pos}, nil
		}
		sb.WriteByte(ch)
	}
}

func (l *Lexer) scanNumber() (Token, error) {
	pos := l.currentPos()
	var sb strings.Builder

	// Optional sign
	if ch, ok := l.peekByte(); ok && (ch == '-' || ch == '+') {
		sb.WriteByte(ch)
		_, _ = l.advance()
	}

	digits := 0
	for {
		ch, ok := l.peekByte()
		if !ok || !isDigit(ch) {
			break
		}
		sb.WriteByte(ch)
		_, _ = l.advance()
		digits++
	}

	// Fraction
	if ch, ok := l.peekByte(); ok && ch == '.' {
		sb.WriteByte(ch)
		_, _ = l.advance()
		for {
			ch, ok := l.peekByte()
			if !ok || !isDigit(ch) {
				break
			}
			sb.WriteByte(ch)
			_, _ = l.advance()
			digits++
		}
	}

	if digits == 0 {
		return Token{}, l.malformedNumber(pos, &sb)
	}

	// Exponent
	if ch, ok := l.peekByte(); ok && (ch == 'e' || ch == 'E') {
		sb.WriteByte(ch)
		_, _ = l.advance()
		if ch, ok := l.peekByte(); ok && (ch == '-' || ch == '+') {
			sb.WriteByte(ch)
			_, _ = l.advance()
		}
		expDigits := 0
		for {
			ch, ok := l.peekByte()
			if !ok || !isDigit(ch) {
				break
			}
			sb.WriteByte(ch)
			_, _ = l.advance()
			expDigits++
		}
		if expDigits == 0 {
			return Token{}, l.malformedNumber(pos, &sb)
		}
	}

	// A second dot or a digit run glued to the number is malformed
	// (e.g. "1.2.3"). A pure alphabetic tail is a unit suffix.
	if ch, ok := l.peekByte(); ok && (ch == '.' || isDigit(ch)) {
		return Token{}, l.malformedNumber(pos, &sb)
	}

	var unit string
	if ch, ok := l.peekByte(); ok && isLetter(ch) {
		var us strings.Builder
		for {
			ch, ok := l.peekByte()
			if !ok || !isLetter(ch) {
				break
			}
			us.WriteByte(ch)
			_, _ = l.advance()
		}
		unit = us.String()
		if ch, ok := l.peekByte(); ok && isWordPart(ch) {
			sb.WriteString(unit)
			return Token{}, l.malformedNumber(pos, &sb)
		}
	}

	literal := sb.String()
	num, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return Token{}, &LexError{
			ParseError: ParseError{
				Message: fmt.Sprintf("malformed numeric literal %q", literal),
				Pos:     pos,
				Cause:   err,
			},
			Excerpt: literal,
		}
	}

	if unit != "" {
		return Token{Kind: TokenUnitNumber, Text: literal + unit, Num: num, Unit: unit, Pos: pos}, nil
	}
	return Token{Kind: TokenNumber, Text: literal, Num: num, Pos: pos}, nil
}

// malformedNumber consumes the rest of the broken literal so the excerpt
// shows the whole fragment, then builds the error.
func (l *Lexer) malformedNumber(pos Position, sb *strings.Builder) error {
	for {
		ch, ok := l.peekByte()
		if !ok || !(isWordPart(ch) || ch == '.' || ch == '+' || ch == '-') {
			break
		}
		sb.WriteByte(ch)
		_, _ = l.advance()
	}
	excerpt := sb.String()
	return &LexError{
		ParseError: ParseError{
			Message: fmt.Sprintf("malformed numeric literal %q", excerpt),
			Pos:     pos,
		},
		Excerpt: excerpt,
	}
}

func (l *Lexer) scanWord() (Token, error) {
	pos := l.currentPos()
	var sb strings.Builder

	for {
		ch, ok := l.peekByte()
		if !ok || !isWordPart(ch) {
			break
		}
		sb.WriteByte(ch)
		_, _ = l.advance()
	}

	text := sb.String()
	if keywords[text] {
		return Token{Kind: TokenKeyword, Text: text, Pos: pos}, nil
	}
	return Token{Kind: TokenIdent, Text: text, Pos: pos}, nil
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isWordStart(ch byte) bool {
	return isLetter(ch) || ch == '_' || ch == '$'
}

func isWordPart(ch byte) bool {
	return isWordStart(ch) || isDigit(ch)
}
