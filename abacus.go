package abacus

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/abacus/internal/compiler"
	"github.com/aretw0/abacus/internal/runtime"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/format"
	"github.com/aretw0/abacus/pkg/keys"
	"github.com/aretw0/abacus/pkg/registry"
)

// FunctionDispatcher applies named scientific functions.
// *registry.Registry satisfies it.
type FunctionDispatcher interface {
	Apply(name string, operand float64) (float64, error)
	Has(name string) bool
}

// Engine is the high-level entry point for the Abacus library.
// It holds configuration only; every calculation runs over a domain.State
// snapshot, so one Engine can serve any number of sessions concurrently.
type Engine struct {
	functions    FunctionDispatcher
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	historyLimit int
	parser       *compiler.Parser
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHistoryLimit sets how many finalized calculations each session retains.
func WithHistoryLimit(limit int) Option {
	return func(e *Engine) {
		e.historyLimit = limit
	}
}

// WithFunctions replaces the scientific function table.
func WithFunctions(d FunctionDispatcher) Option {
	return func(e *Engine) {
		e.functions = d
	}
}

// New initializes a new Abacus Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{
		functions: registry.Default(),
		parser:    compiler.NewParser(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return eng
}

func (e *Engine) machine(state *domain.State) *runtime.Machine {
	opts := []runtime.MachineOption{
		runtime.WithEvaluator(e.parser),
		runtime.WithFunctions(e.functions),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
	}
	if e.historyLimit > 0 {
		opts = append(opts, runtime.WithHistoryLimit(e.historyLimit))
	}
	m := runtime.NewMachine(opts...)
	if state != nil {
		m.Restore(state)
	}
	return m
}

// NewState creates a clean idle snapshot.
func (e *Engine) NewState(sessionID string) *domain.State {
	return e.machine(domain.NewState(sessionID)).Snapshot()
}

// NewSession creates an owned, stateful session.
func (e *Engine) NewSession(sessionID string) *Session {
	return &Session{machine: e.machine(domain.NewState(sessionID))}
}

// Resume rebuilds an owned session from a snapshot.
func (e *Engine) Resume(state *domain.State) *Session {
	if state == nil {
		return e.NewSession("")
	}
	return &Session{machine: e.machine(state)}
}

// Press applies keys in order to state and returns the resulting snapshot.
// The input state is never mutated. If any key is rejected the whole batch is
// discarded and the error is returned.
func (e *Engine) Press(ctx context.Context, state *domain.State, ks ...domain.Key) (*domain.State, error) {
	m := e.machine(state)
	for _, k := range ks {
		if err := m.Press(ctx, k); err != nil {
			return nil, err
		}
	}
	return m.Snapshot(), nil
}

// PressScript parses a key script (see package keys) and applies it like Press.
func (e *Engine) PressScript(ctx context.Context, state *domain.State, script string) (*domain.State, error) {
	ks, err := keys.Parse(script)
	if err != nil {
		return nil, err
	}
	return e.Press(ctx, state, ks...)
}

// SelectHistory loads the history entry at index (0 is the newest) as the pending value.
func (e *Engine) SelectHistory(ctx context.Context, state *domain.State, index int) (*domain.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := e.machine(state)
	if err := m.SelectHistoryAt(index); err != nil {
		return nil, err
	}
	return m.Snapshot(), nil
}

// ClearHistory returns state with an empty history log.
func (e *Engine) ClearHistory(ctx context.Context, state *domain.State) (*domain.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := e.machine(state)
	m.ClearHistory()
	return m.Snapshot(), nil
}

// Evaluate computes a one-off expression and returns its display form.
// Display glyphs (×, ÷, π) and their ASCII forms are both accepted.
func (e *Engine) Evaluate(expr string) (string, error) {
	v, err := e.parser.Evaluate(expr)
	if err != nil {
		return "", fmt.Errorf("evaluate %q: %w", expr, err)
	}
	return format.Format(v), nil
}
