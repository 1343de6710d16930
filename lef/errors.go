package lef

import "fmt"

// ParseError is the base error type for all lef errors.
type ParseError struct {
	Message string
	Pos     Position
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("line %d, col %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error { return e.Cause }

// LexError represents a lexer-level error (malformed numeric literal,
// unterminated string). Lex errors are always fatal: token boundaries are
// unrecoverable once corrupted.
type LexError struct {
	ParseError
	Excerpt string // the offending source fragment
}

// SyntaxError represents a grammar-level error (mismatched block name,
// missing terminator, unexpected token).
type SyntaxError struct {
	ParseError
	Expected string
	Got      string
}

func (e *SyntaxError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("expected %s, got %s", e.Expected, e.Got)
	}
	if e.Pos.Line > 0 {
		return fmt.Sprintf("line %d, col %d: %s", e.Pos.Line, e.Pos.Column, msg)
	}
	return msg
}

// ValueError represents a malformed value inside a recognized statement
// (wrong argument count, bad threshold ordering).
type ValueError struct{ ParseError }

// SemanticErrorKind discriminates semantic error cases.
type SemanticErrorKind int

const (
	// DanglingReference means a construct names a layer absent from the
	// layer collection after the full parse.
	DanglingReference SemanticErrorKind = iota
	// DuplicateName means two constructs in one collection share a name.
	// The first definition wins.
	DuplicateName
)

func (k SemanticErrorKind) String() string {
	switch k {
	case DanglingReference:
		return "dangling reference"
	case DuplicateName:
		return "duplicate name"
	default:
		return fmt.Sprintf("SemanticErrorKind(%d)", int(k))
	}
}

// SemanticError represents a cross-reference or uniqueness violation found
// during model construction or resolution.
type SemanticError struct {
	ParseError
	Kind      SemanticErrorKind
	Construct string // construct kind that carries the violation (e.g. "viarule")
	Field     string // field holding the bad reference (optional)
	Name      string // the missing or duplicated name
}
