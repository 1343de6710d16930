package lef

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	// Error means the model is wrong or missing for the related input.
	Error Severity = iota
	// Warning means the input parsed but the model is structurally
	// incomplete for it (unsupported construct, unrecognized statement).
	Warning
	// Info is an informational note.
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	case Info:
		return "INFO"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic rule identifiers.
const (
	RuleUnsupportedConstruct   = "unsupported_construct"
	RuleUnrecognizedStatement  = "unrecognized_statement"
	RuleUnexpectedAfterLibrary = "content_after_end_library"
)

// Diagnostic is a single non-fatal finding collected during a parse.
// Unsupported constructs and unrecognized statements are reported here,
// separately from hard errors, so a caller can audit format coverage.
type Diagnostic struct {
	Rule     string   // rule identifier (e.g. "unsupported_construct")
	Severity Severity // ERROR, WARNING, or INFO
	Message  string   // human-readable description
	Pos      Position // source location of the finding
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", d.Severity, d.Rule, d.Message)
	if d.Pos.Line > 0 {
		fmt.Fprintf(&b, " (line %d, col %d)", d.Pos.Line, d.Pos.Column)
	}
	return b.String()
}
