package runtime

import (
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/abacus/internal/compiler"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/format"
	"github.com/aretw0/abacus/pkg/history"
	"github.com/aretw0/abacus/pkg/registry"
)

// Evaluator turns an expression text into a number.
type Evaluator interface {
	Evaluate(text string) (float64, error)
}

// Dispatcher applies named unary functions.
type Dispatcher interface {
	Apply(name string, operand float64) (float64, error)
	Has(name string) bool
}

// Machine is the expression state machine of one calculator session.
// It owns the buffer, the pending-entry flag, the preview and the history log.
// A Machine is not safe for concurrent use; hosts serialize access per session.
type Machine struct {
	sessionID string

	buf     buffer
	preview string
	pending bool
	history *history.Log

	evaluator Evaluator
	functions Dispatcher
	format    func(float64) string

	hooks  domain.LifecycleHooks
	logger *slog.Logger

	// Outcome of the operation in progress, consumed by Press to emit events.
	lastErr   error
	finalized *domain.FinalizeEvent
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithEvaluator replaces the arithmetic evaluator.
func WithEvaluator(e Evaluator) MachineOption {
	return func(m *Machine) {
		m.evaluator = e
	}
}

// WithFunctions replaces the scientific function dispatcher.
func WithFunctions(d Dispatcher) MachineOption {
	return func(m *Machine) {
		m.functions = d
	}
}

// WithHistoryLimit sets how many finalized calculations are retained.
func WithHistoryLimit(limit int) MachineOption {
	return func(m *Machine) {
		m.history = history.New(limit)
	}
}

// WithLifecycleHooks registers observability hooks fired by Press.
func WithLifecycleHooks(hooks domain.LifecycleHooks) MachineOption {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSessionID tags snapshots and events with a session identifier.
func WithSessionID(id string) MachineOption {
	return func(m *Machine) {
		m.sessionID = id
	}
}

// NewMachine creates an idle machine with the default evaluator and functions.
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		preview:   "0",
		history:   history.New(history.DefaultLimit),
		evaluator: compiler.NewParser(),
		functions: registry.Default(),
		format:    format.Format,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Buffer returns the current expression text.
func (m *Machine) Buffer() string {
	return m.buf.String()
}

// Preview returns the current display value.
func (m *Machine) Preview() string {
	return m.preview
}

// Pending reports whether the next digit starts a fresh expression.
func (m *Machine) Pending() bool {
	return m.pending
}

// Mode derives the state machine position.
func (m *Machine) Mode() domain.Mode {
	switch {
	case m.pending:
		return domain.ModeAwaitingNext
	case m.buf.Empty():
		return domain.ModeIdle
	default:
		return domain.ModeEntering
	}
}

// History returns the finalized calculations, newest first.
func (m *Machine) History() []domain.HistoryEntry {
	return m.history.Entries()
}

// Err returns the cause of the error sentinel set by the last operation, if any.
func (m *Machine) Err() error {
	return m.lastErr
}

// Snapshot captures the session into a serializable State.
func (m *Machine) Snapshot() *domain.State {
	state := &domain.State{
		SessionID: m.sessionID,
		Buffer:    m.buf.String(),
		Preview:   m.preview,
		Pending:   m.pending,
		History:   m.history.Entries(),
		UpdatedAt: time.Now().UTC(),
	}
	if m.lastErr != nil {
		state.Error = m.lastErr.Error()
	}
	return state
}

// Restore loads a snapshot into the machine. The preview is taken as stored,
// since it may hold a sentinel that cannot be derived from the buffer.
func (m *Machine) Restore(state *domain.State) {
	if state == nil {
		m.Clear()
		m.history.Clear()
		return
	}
	m.sessionID = state.SessionID
	m.buf.Set(state.Buffer)
	m.preview = state.Preview
	if m.preview == "" {
		m.refresh()
	}
	m.pending = state.Pending
	m.history.Restore(state.History)
	m.lastErr = nil
	if state.Error != "" {
		m.lastErr = errors.New(state.Error)
	}
	m.finalized = nil
}
