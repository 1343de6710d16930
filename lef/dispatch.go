package lef

import "context"

// Handler consumes parse events for one construct kind.
type Handler interface {
	// Handle processes a single event. A non-nil error aborts the parse
	// unless the parser is lenient, in which case it is recorded.
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Dispatcher routes parse events to handlers registered per construct
// kind. Construct kinds with no handler are still parsed for grammar
// correctness, but their events are discarded without being materialized,
// so a consumer can request only the constructs it needs.
type Dispatcher struct {
	handlers       map[ConstructKind]Handler
	defaultHandler Handler
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[ConstructKind]Handler)}
}

// Register adds or replaces the handler for the given construct kind.
// Events of nested constructs (SPACINGTABLE inside a layer) are delivered
// to the enclosing top-level construct's handler.
func (d *Dispatcher) Register(kind ConstructKind, h Handler) {
	d.handlers[kind] = h
}

// SetDefault installs a fallback handler receiving events of every
// construct kind that has no explicit handler. A nil default (the initial
// state) means such events are discarded.
func (d *Dispatcher) SetDefault(h Handler) {
	d.defaultHandler = h
}

// Resolve returns the handler for a construct kind, falling back to the
// default handler. ok is false when events of this kind are discarded.
func (d *Dispatcher) Resolve(kind ConstructKind) (Handler, bool) {
	if h, exists := d.handlers[kind]; exists {
		return h, true
	}
	if d.defaultHandler != nil {
		return d.defaultHandler, true
	}
	return nil, false
}
