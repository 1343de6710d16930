package tech

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/MoleSir/reda-lef/lef"
)

// Option configures a Read call.
type Option func(*config)

type config struct {
	lenient      bool
	unknownAsErr bool
	logger       *slog.Logger
	kinds        []lef.ConstructKind
}

// Lenient makes Read record recoverable errors and keep building instead
// of failing on the first one. The Result then carries the Technology
// built from everything that did parse alongside the collected errors.
// Without it any error means no Technology.
func Lenient() Option {
	return func(c *config) { c.lenient = true }
}

// UnknownStatementsAsErrors upgrades unrecognized statements inside known
// constructs from warnings to recorded syntax errors.
func UnknownStatementsAsErrors() Option {
	return func(c *config) { c.unknownAsErr = true }
}

// WithLogger attaches a structured logger to the parse and build stages.
// Reading is silent without one.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithConstructs restricts record building to the listed construct kinds.
// Everything else is still parsed for grammar correctness but produces no
// records. Layer references are resolved only when KindLayer is among the
// built kinds.
func WithConstructs(kinds ...lef.ConstructKind) Option {
	return func(c *config) { c.kinds = kinds }
}

func (c config) parserOptions() []lef.Option {
	var opts []lef.Option
	if c.lenient {
		opts = append(opts, lef.Lenient())
	}
	if c.unknownAsErr {
		opts = append(opts, lef.UnknownStatementsAsErrors())
	}
	if c.logger != nil {
		opts = append(opts, lef.WithLogger(c.logger))
	}
	return opts
}

func (c config) buildsLayers() bool {
	if c.kinds == nil {
		return true
	}
	for _, k := range c.kinds {
		if k == lef.KindLayer {
			return true
		}
	}
	return false
}

// Result carries the outcome of a read. Tech is nil whenever Read
// returns an error, which by default is the first error of any class.
// Errors holds the syntax, value, and semantic errors collected under
// Lenient in file order; Warnings holds the diagnostics collected while
// parsing and building.
type Result struct {
	Tech     *Technology
	Errors   []error
	Warnings []lef.Diagnostic
}

// Read parses a LEF technology file from r and builds the Technology
// model. By default the first error of any class fails the read and no
// Technology is returned; under Lenient only fatal conditions do (lexer
// failures, unterminated blocks, handler aborts, I/O errors, context
// cancellation). The Result always carries whatever errors and warnings
// were collected before a failure.
func Read(ctx context.Context, r io.Reader, opts ...Option) (*Result, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	b := newBuilder(cfg.logger)
	d := lef.NewDispatcher()
	b.register(d, cfg.kinds)

	p := lef.NewParser(r, cfg.parserOptions()...)
	res := &Result{}
	err := p.Parse(ctx, d)

	res.Errors = append(res.Errors, p.Errors()...)
	res.Warnings = append(res.Warnings, p.Diagnostics()...)
	res.Warnings = append(res.Warnings, b.diags...)
	if err != nil {
		return res, err
	}

	if cfg.buildsLayers() {
		res.Errors = append(res.Errors, b.resolveRefs()...)
	}
	if !cfg.lenient && len(res.Errors) > 0 {
		return res, res.Errors[0]
	}
	res.Tech = b.tech
	return res, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(ctx context.Context, path string, opts ...Option) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(ctx, f, opts...)
}
