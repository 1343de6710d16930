package lef

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Option configures a Parser.
type Option func(*config)

type config struct {
	lenient        bool
	unknownAsError bool
	logger         *slog.Logger
}

// Lenient makes the parser resynchronize at the next statement terminator
// or block boundary on a recoverable error, record it, and continue.
// Without it the first error of any class is fatal. Lex errors and
// unterminated blocks are fatal in both modes.
func Lenient() Option {
	return func(c *config) { c.lenient = true }
}

// UnknownStatementsAsErrors upgrades unrecognized statements inside known
// constructs from warnings to syntax errors.
func UnknownStatementsAsErrors() Option {
	return func(c *config) { c.unknownAsError = true }
}

// WithLogger attaches a structured logger. The parser is silent without one.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// frame is one open construct on the parser stack.
type frame struct {
	kind    ConstructKind
	name    string  // name repeated by the closing END
	endWord string  // closing word for keyword-closed blocks (END UNITS)
	opaque  bool    // unsupported construct, structure tracked only
	bare    bool    // closes with a bare word (ENDEXT), not END <name>
	handler Handler // resolved once at Begin; nil discards events
	pos     Position
}

// endName returns the word expected after END for this frame.
func (f *frame) endName() string {
	if f.endWord != "" {
		return f.endWord
	}
	return f.name
}

// Parser recognizes the LEF technology grammar over a token stream and
// emits structured parse events. A Parser owns its lexer state and
// construct stack; independent parsers never share state. Parse consumes
// the input, so a Parser is single use.
type Parser struct {
	lex *Lexer
	cfg config

	frames         []frame
	diags          []Diagnostic
	errs           []error
	lastStmtLine   int
	endLibrary     bool
	warnedTrailing bool
}

// NewParser creates a Parser reading LEF source from r.
func NewParser(r io.Reader, opts ...Option) *Parser {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Parser{lex: NewLexer(r), cfg: cfg}
}

// Diagnostics returns the warnings collected during the parse: unsupported
// constructs and unrecognized statements, in file order.
func (p *Parser) Diagnostics() []Diagnostic { return p.diags }

// Errors returns the recoverable errors recorded while parsing with
// Lenient: resynchronized syntax errors, bad statement values, and handler
// rejections.
func (p *Parser) Errors() []error { return p.errs }

// Parse runs the grammar over the input, delivering events to handlers
// registered on d. It returns the first fatal error: lex errors always,
// every error unless Lenient, unterminated blocks at EOF, I/O failures,
// and ctx cancellation (checked between statements).
func (p *Parser) Parse(ctx context.Context, d *Dispatcher) error {
	if d == nil {
		d = NewDispatcher()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tok, err := p.lex.Peek()
		if err != nil {
			return err
		}

		switch {
		case tok.Kind == TokenEOF:
			return p.finish(ctx)

		case tok.Kind == TokenSemi:
			_, _ = p.lex.Next()
			p.lastStmtLine = tok.Pos.Line
			if f := p.top(); f != nil && f.kind == KindSpacingTable {
				if err := p.closeTable(ctx, tok.Pos); err != nil {
					if fatal := p.recover(err); fatal != nil {
						return fatal
					}
				}
			}

		default:
			if err := p.parseNext(ctx, d, tok); err != nil {
				if fatal := p.recover(err); fatal != nil {
					return fatal
				}
			}
		}
	}
}

// parseNext handles one statement, opener, or END, depending on the top
// frame. tok is the peeked first token, not yet consumed.
func (p *Parser) parseNext(ctx context.Context, d *Dispatcher, tok Token) error {
	f := p.top()

	if f != nil && f.kind == KindSpacingTable {
		return p.parseTableRow(ctx, f)
	}
	if f != nil && f.opaque {
		if !f.bare && tok.IsWord() && tok.Text == "END" {
			return p.parseEnd(ctx)
		}
		return p.parseOpaqueStatement(f)
	}

	if !tok.IsWord() {
		_, _ = p.lex.Next()
		err := &SyntaxError{
			ParseError: ParseError{Pos: tok.Pos},
			Expected:   "statement keyword",
			Got:        fmt.Sprintf("%s (%q)", tok.Kind, tok.Text),
		}
		p.skipStatement()
		return err
	}

	if tok.Text == "END" {
		return p.parseEnd(ctx)
	}
	if f == nil {
		return p.parseTopLevel(ctx, d, tok)
	}
	return p.parseProperty(ctx, f)
}

// finish handles EOF. An open construct at EOF is a fatal syntax error
// reported one line past the last parsed statement.
func (p *Parser) finish(ctx context.Context) error {
	f := p.top()
	if f == nil {
		return nil
	}
	pos := Position{Line: p.lastStmtLine + 1, Column: 1}
	expected := fmt.Sprintf("'END %s'", f.endName())
	if f.kind == KindSpacingTable {
		expected = "';'"
	}
	return &SyntaxError{
		ParseError: ParseError{
			Message: fmt.Sprintf("unterminated %s block %q", f.kind, f.name),
			Pos:     pos,
		},
		Expected: expected,
		Got:      "EOF",
	}
}

// parseTopLevel handles a statement or block opener outside any construct.
func (p *Parser) parseTopLevel(ctx context.Context, d *Dispatcher, tok Token) error {
	_, _ = p.lex.Next()
	kw := tok.Text

	if p.endLibrary && !p.warnedTrailing {
		p.diag(RuleUnexpectedAfterLibrary, Info, tok.Pos, "content after END LIBRARY")
		p.warnedTrailing = true
	}

	switch {
	case headerStatements[kw]:
		args, err := p.scanArgs(tok.Pos)
		if err != nil {
			return err
		}
		return p.emitTo(ctx, d, KindHeader, Event{
			Kind:      EventStatement,
			Construct: KindHeader,
			Keyword:   kw,
			Args:      args,
			Pos:       tok.Pos,
		})

	case kw == "UNITS":
		h, _ := d.Resolve(KindUnits)
		p.push(frame{kind: KindUnits, endWord: "UNITS", handler: h, pos: tok.Pos})
		p.lastStmtLine = tok.Pos.Line
		return p.begin(ctx, Event{Kind: EventBegin, Construct: KindUnits, Pos: tok.Pos})

	case kw == "LAYER":
		return p.openNamed(ctx, d, KindLayer, tok)
	case kw == "VIA":
		return p.openNamed(ctx, d, KindVia, tok)
	case kw == "VIARULE":
		return p.openNamed(ctx, d, KindViaRule, tok)
	case kw == "SITE":
		return p.openNamed(ctx, d, KindSite, tok)

	case kw == "PROPERTYDEFINITIONS":
		p.diag(RuleUnsupportedConstruct, Warning, tok.Pos, "PROPERTYDEFINITIONS block is not modeled")
		p.push(frame{opaque: true, endWord: "PROPERTYDEFINITIONS", pos: tok.Pos})
		return nil

	case kw == "SPACING":
		p.diag(RuleUnsupportedConstruct, Warning, tok.Pos, "top-level SPACING block is not modeled")
		p.push(frame{opaque: true, endWord: "SPACING", pos: tok.Pos})
		return nil

	case kw == "NONDEFAULTRULE":
		name, err := p.expectName(kw)
		if err != nil {
			return err
		}
		p.diag(RuleUnsupportedConstruct, Warning, tok.Pos,
			fmt.Sprintf("NONDEFAULTRULE %q is not modeled", name.Text))
		p.push(frame{opaque: true, name: name.Text, pos: tok.Pos})
		return nil

	case kw == "MACRO":
		name, err := p.expectName(kw)
		if err != nil {
			return err
		}
		p.diag(RuleUnsupportedConstruct, Warning, tok.Pos,
			fmt.Sprintf("MACRO %q skipped (cell geometry is out of scope)", name.Text))
		p.push(frame{opaque: true, name: name.Text, pos: tok.Pos})
		return nil

	case kw == "BEGINEXT":
		p.diag(RuleUnsupportedConstruct, Warning, tok.Pos, "BEGINEXT section is not modeled")
		p.push(frame{opaque: true, bare: true, endWord: "ENDEXT", pos: tok.Pos})
		return nil

	default:
		return p.unknownStatement(tok, "top level")
	}
}

// openNamed parses "KEYWORD name [flags]" and pushes the construct frame.
// A VIARULE without GENERATE is a fixed via rule, recognized structurally
// but flagged unsupported instead of parsed into a model.
func (p *Parser) openNamed(ctx context.Context, d *Dispatcher, kind ConstructKind, opener Token) error {
	name, err := p.expectName(opener.Text)
	if err != nil {
		return err
	}

	var flagToks []Token
	if flags := openerFlags[kind]; flags != nil {
		for {
			tok, err := p.lex.Peek()
			if err != nil {
				return err
			}
			if !tok.IsWord() || !flags[tok.Text] {
				break
			}
			_, _ = p.lex.Next()
			flagToks = append(flagToks, tok)
		}
	}

	if kind == KindViaRule && !hasFlag(flagToks, "GENERATE") {
		p.diag(RuleUnsupportedConstruct, Warning, opener.Pos,
			fmt.Sprintf("fixed via rule %q is not modeled (only VIARULE GENERATE)", name.Text))
		p.push(frame{opaque: true, name: name.Text, pos: opener.Pos})
		return nil
	}

	h, _ := d.Resolve(kind)
	p.push(frame{kind: kind, name: name.Text, handler: h, pos: opener.Pos})
	p.lastStmtLine = name.Pos.Line
	if p.cfg.logger != nil {
		p.cfg.logger.Debug("begin construct", "kind", kind.String(), "name", name.Text, "line", opener.Pos.Line)
	}
	return p.begin(ctx, Event{
		Kind:      EventBegin,
		Construct: kind,
		Name:      name.Text,
		Args:      flagToks,
		Pos:       opener.Pos,
	})
}

// parseProperty handles one property statement inside a supported construct.
func (p *Parser) parseProperty(ctx context.Context, f *frame) error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	kw := tok.Text

	if f.kind == KindLayer && kw == "SPACINGTABLE" {
		p.push(frame{kind: KindSpacingTable, name: f.name, handler: f.handler, pos: tok.Pos})
		p.lastStmtLine = tok.Pos.Line
		return p.begin(ctx, Event{Kind: EventBegin, Construct: KindSpacingTable, Name: f.name, Pos: tok.Pos})
	}

	if unsupportedStatement(f.kind, kw) {
		p.diag(RuleUnsupportedConstruct, Warning, tok.Pos,
			fmt.Sprintf("%s statement in %s %q is not modeled", kw, f.kind, f.name))
		_, err := p.scanArgs(tok.Pos)
		return err
	}

	if known := constructStatements[f.kind]; !known[kw] {
		return p.unknownStatement(tok, fmt.Sprintf("%s %q", f.kind, f.name))
	}

	args, err := p.scanArgs(tok.Pos)
	if err != nil {
		return err
	}
	return p.emit(ctx, f.handler, Event{
		Kind:      EventStatement,
		Construct: f.kind,
		Name:      f.name,
		Keyword:   kw,
		Args:      args,
		Pos:       tok.Pos,
	})
}

// parseTableRow handles one PARALLELRUNLENGTH or WIDTH row inside a
// SPACINGTABLE. Rows are not individually terminated; a row ends at the
// next keyword, and the table's single ';' closes the whole block.
func (p *Parser) parseTableRow(ctx context.Context, f *frame) error {
	tok, err := p.lex.Peek()
	if err != nil {
		return err
	}

	if tok.IsWord() && tok.Text == "END" {
		// Missing table terminator. Close the table so the enclosing
		// layer's END can match.
		pos := tok.Pos
		if err := p.closeTable(ctx, pos); err != nil {
			return err
		}
		return &SyntaxError{
			ParseError: ParseError{Message: "unterminated spacing table", Pos: pos},
			Expected:   "';'",
			Got:        "'END'",
		}
	}

	_, _ = p.lex.Next()
	if !tok.IsWord() || (tok.Text != "PARALLELRUNLENGTH" && tok.Text != "WIDTH") {
		return &SyntaxError{
			ParseError: ParseError{Pos: tok.Pos},
			Expected:   "'PARALLELRUNLENGTH', 'WIDTH', or ';'",
			Got:        fmt.Sprintf("%s (%q)", tok.Kind, tok.Text),
		}
	}

	var args []Token
	for {
		next, err := p.lex.Peek()
		if err != nil {
			return err
		}
		if next.Kind != TokenNumber && next.Kind != TokenUnitNumber {
			break
		}
		_, _ = p.lex.Next()
		args = append(args, next)
		p.lastStmtLine = next.Pos.Line
	}

	return p.emit(ctx, f.handler, Event{
		Kind:      EventStatement,
		Construct: KindSpacingTable,
		Name:      f.name,
		Keyword:   tok.Text,
		Args:      args,
		Pos:       tok.Pos,
	})
}

// closeTable emits the spacing table End event and pops its frame.
func (p *Parser) closeTable(ctx context.Context, pos Position) error {
	f := p.top()
	err := p.emit(ctx, f.handler, Event{
		Kind:      EventEnd,
		Construct: KindSpacingTable,
		Name:      f.name,
		Pos:       pos,
	})
	p.pop()
	return err
}

// parseEnd handles END <word>: block close, END LIBRARY, or an END that
// belongs to an opaque construct's content.
func (p *Parser) parseEnd(ctx context.Context) error {
	endTok, _ := p.lex.Next()
	nameTok, err := p.lex.Next()
	if err != nil {
		return err
	}
	if !nameTok.IsWord() {
		return &SyntaxError{
			ParseError: ParseError{Pos: nameTok.Pos},
			Expected:   "name after END",
			Got:        fmt.Sprintf("%s (%q)", nameTok.Kind, nameTok.Text),
		}
	}

	f := p.top()
	if f == nil {
		if nameTok.Text == "LIBRARY" {
			p.endLibrary = true
			p.lastStmtLine = nameTok.Pos.Line
			return nil
		}
		return &SyntaxError{
			ParseError: ParseError{
				Message: fmt.Sprintf("unexpected END %s outside any block", nameTok.Text),
				Pos:     endTok.Pos,
			},
			Expected: "'END LIBRARY'",
			Got:      fmt.Sprintf("'END %s'", nameTok.Text),
		}
	}

	if f.opaque {
		// Opaque blocks may contain nested END-closed blocks; only the
		// matching name closes the frame.
		if nameTok.Text == f.endName() {
			p.pop()
			p.lastStmtLine = nameTok.Pos.Line
		}
		return nil
	}

	if nameTok.Text != f.endName() {
		err := &SyntaxError{
			ParseError: ParseError{
				Message: fmt.Sprintf("%s block %q closed by END %s", f.kind, f.name, nameTok.Text),
				Pos:     endTok.Pos,
			},
			Expected: fmt.Sprintf("'END %s'", f.endName()),
			Got:      fmt.Sprintf("'END %s'", nameTok.Text),
		}
		// Resynchronize at the block boundary anyway.
		if emitErr := p.emit(ctx, f.handler, Event{Kind: EventEnd, Construct: f.kind, Name: f.name, Pos: endTok.Pos}); emitErr != nil {
			p.pop()
			return emitErr
		}
		p.pop()
		p.lastStmtLine = nameTok.Pos.Line
		return err
	}

	emitErr := p.emit(ctx, f.handler, Event{Kind: EventEnd, Construct: f.kind, Name: f.name, Pos: endTok.Pos})
	p.pop()
	p.lastStmtLine = nameTok.Pos.Line
	return emitErr
}

// parseOpaqueStatement consumes content of an unsupported construct up to
// the next statement boundary, tracking only enough structure to find the
// construct's end.
func (p *Parser) parseOpaqueStatement(f *frame) error {
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return err
		}
		switch {
		case tok.Kind == TokenEOF:
			return nil
		case f.bare && tok.IsWord() && tok.Text == f.endWord:
			_, _ = p.lex.Next()
			p.pop()
			p.lastStmtLine = tok.Pos.Line
			return nil
		case !f.bare && tok.IsWord() && tok.Text == "END":
			return nil
		case tok.Kind == TokenSemi && !f.bare:
			_, _ = p.lex.Next()
			p.lastStmtLine = tok.Pos.Line
			return nil
		default:
			_, _ = p.lex.Next()
		}
	}
}

// unknownStatement consumes an unrecognized statement and records it as a
// warning, or as a syntax error when configured.
func (p *Parser) unknownStatement(tok Token, where string) error {
	_, scanErr := p.scanArgs(tok.Pos)
	if scanErr != nil {
		return scanErr
	}
	if p.cfg.unknownAsError {
		return &SyntaxError{
			ParseError: ParseError{
				Message: fmt.Sprintf("unrecognized statement %s at %s", tok.Text, where),
				Pos:     tok.Pos,
			},
			Expected: "recognized statement keyword",
			Got:      fmt.Sprintf("%q", tok.Text),
		}
	}
	p.diag(RuleUnrecognizedStatement, Warning, tok.Pos,
		fmt.Sprintf("unrecognized statement %s at %s", tok.Text, where))
	return nil
}

// scanArgs collects tokens up to and including the statement terminator.
// An END word before the terminator means the statement lost its ';'; the
// END is left unconsumed so block closing still works after recovery.
func (p *Parser) scanArgs(stmtPos Position) ([]Token, error) {
	var args []Token
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Kind == TokenSemi:
			_, _ = p.lex.Next()
			p.lastStmtLine = tok.Pos.Line
			return args, nil
		case tok.Kind == TokenEOF:
			return nil, &SyntaxError{
				ParseError: ParseError{Message: "unterminated statement", Pos: stmtPos},
				Expected:   "';'",
				Got:        "EOF",
			}
		case tok.IsWord() && tok.Text == "END":
			return nil, &SyntaxError{
				ParseError: ParseError{Message: "missing statement terminator", Pos: tok.Pos},
				Expected:   "';'",
				Got:        "'END'",
			}
		default:
			_, _ = p.lex.Next()
			args = append(args, tok)
		}
	}
}

// expectName consumes the name word after a block opener. On failure the
// rest of the statement is skipped so the parser can resynchronize.
func (p *Parser) expectName(after string) (Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return Token{}, err
	}
	if !tok.IsWord() {
		err := &SyntaxError{
			ParseError: ParseError{Pos: tok.Pos},
			Expected:   fmt.Sprintf("name after %s", after),
			Got:        fmt.Sprintf("%s (%q)", tok.Kind, tok.Text),
		}
		p.skipStatement()
		return Token{}, err
	}
	return tok, nil
}

// skipStatement discards tokens up to a statement boundary: past the next
// ';', or up to (not including) an END word or EOF.
func (p *Parser) skipStatement() {
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return
		}
		switch {
		case tok.Kind == TokenEOF:
			return
		case tok.IsWord() && tok.Text == "END":
			return
		case tok.Kind == TokenSemi:
			_, _ = p.lex.Next()
			p.lastStmtLine = tok.Pos.Line
			return
		default:
			_, _ = p.lex.Next()
		}
	}
}

// begin emits a Begin event to the just-pushed frame's handler.
func (p *Parser) begin(ctx context.Context, ev Event) error {
	return p.emit(ctx, p.top().handler, ev)
}

// emitTo resolves and invokes the handler for an unframed construct kind.
func (p *Parser) emitTo(ctx context.Context, d *Dispatcher, kind ConstructKind, ev Event) error {
	h, ok := d.Resolve(kind)
	if !ok {
		return nil
	}
	return p.emit(ctx, h, ev)
}

func (p *Parser) emit(ctx context.Context, h Handler, ev Event) error {
	if h == nil {
		return nil
	}
	return h.Handle(ctx, ev)
}

// recover records a recoverable error and returns nil, or returns the
// error itself when it must abort the parse.
func (p *Parser) recover(err error) error {
	if !p.cfg.lenient {
		return err
	}
	var synErr *SyntaxError
	var valErr *ValueError
	var semErr *SemanticError
	if errors.As(err, &synErr) || errors.As(err, &valErr) || errors.As(err, &semErr) {
		p.errs = append(p.errs, err)
		if p.cfg.logger != nil {
			p.cfg.logger.Warn("recovered from parse error", "err", err.Error())
		}
		return nil
	}
	return err
}

func (p *Parser) diag(rule string, sev Severity, pos Position, msg string) {
	p.diags = append(p.diags, Diagnostic{Rule: rule, Severity: sev, Message: msg, Pos: pos})
	if p.cfg.logger != nil {
		p.cfg.logger.Warn(msg, "rule", rule, "line", pos.Line, "col", pos.Column)
	}
}

func (p *Parser) top() *frame {
	if len(p.frames) == 0 {
		return nil
	}
	return &p.frames[len(p.frames)-1]
}

func (p *Parser) push(f frame) {
	p.frames = append(p.frames, f)
}

func (p *Parser) pop() {
	p.frames = p.frames[:len(p.frames)-1]
}

func hasFlag(args []Token, flag string) bool {
	for _, a := range args {
		if a.Text == flag {
			return true
		}
	}
	return false
}
