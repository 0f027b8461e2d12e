package abacus

import (
	"context"

	"github.com/aretw0/abacus/internal/runtime"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/keys"
)

// Session is one calculator owned by its caller.
// Operations mutate it in place and never fail on bad arithmetic: the preview
// shows domain.ErrorSentinel instead, and Err reports why.
// A Session is not safe for concurrent use.
type Session struct {
	machine *runtime.Machine
}

// Clear resets the buffer and preview. History is kept.
func (s *Session) Clear() { s.machine.Clear() }

// Delete removes the last character, or clears when a result is pending.
func (s *Session) Delete() { s.machine.Delete() }

// InputDigitOrDecimal appends "0".."9" or ".".
func (s *Session) InputDigitOrDecimal(token string) error {
	return s.machine.InputDigitOrDecimal(token)
}

// InputOperator appends "+", "-", "×" or "÷" ("*" and "/" are accepted).
func (s *Session) InputOperator(symbol string) error {
	return s.machine.InputOperator(symbol)
}

// InputParenthesis appends "(" or ")".
func (s *Session) InputParenthesis(p string) error {
	return s.machine.InputParenthesis(p)
}

// ApplyFunction applies a scientific function by name, or inserts π for "pi".
func (s *Session) ApplyFunction(name string) error {
	return s.machine.ApplyFunction(name)
}

// Finalize evaluates the buffer, as the equals key does.
func (s *Session) Finalize() { s.machine.Finalize() }

// SelectHistory loads entry's result as the pending value.
func (s *Session) SelectHistory(entry domain.HistoryEntry) { s.machine.SelectHistory(entry) }

// SelectHistoryAt loads the history entry at index i (0 is the newest).
func (s *Session) SelectHistoryAt(i int) error { return s.machine.SelectHistoryAt(i) }

// ClearHistory empties the history log.
func (s *Session) ClearHistory() { s.machine.ClearHistory() }

// Press applies a key-press and fires the engine's lifecycle hooks.
func (s *Session) Press(ctx context.Context, key domain.Key) error {
	return s.machine.Press(ctx, key)
}

// PressScript parses a key script and presses each key in turn.
// Keys before a failing one stay applied.
func (s *Session) PressScript(ctx context.Context, script string) error {
	ks, err := keys.Parse(script)
	if err != nil {
		return err
	}
	for _, k := range ks {
		if err := s.machine.Press(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Buffer returns the expression being edited.
func (s *Session) Buffer() string { return s.machine.Buffer() }

// Preview returns the display value: a formatted number, the raw buffer while
// it cannot be evaluated, or domain.ErrorSentinel.
func (s *Session) Preview() string { return s.machine.Preview() }

// Pending reports whether the next digit starts a fresh expression.
func (s *Session) Pending() bool { return s.machine.Pending() }

// Mode returns the state machine position.
func (s *Session) Mode() domain.Mode { return s.machine.Mode() }

// History returns a copy of the finalized calculations, newest first.
func (s *Session) History() []domain.HistoryEntry { return s.machine.History() }

// Err returns why the preview shows the error sentinel, if it does.
func (s *Session) Err() error { return s.machine.Err() }

// State returns a snapshot suitable for storage or transport.
func (s *Session) State() *domain.State { return s.machine.Snapshot() }
