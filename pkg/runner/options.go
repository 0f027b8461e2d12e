package runner

import (
	"log/slog"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/ports"
)

// DefaultInputBufferSize is the default number of lines to buffer for input handlers.
const DefaultInputBufferSize = 64

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures the StateStore for persistence.
func WithStore(store ports.StateStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSessionID sets the session ID for persistence context.
// Without a store the ID only tags the session.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithInterruptSource sets a channel that interrupts the line being read, like Ctrl+C does.
func WithInterruptSource(ch <-chan struct{}) Option {
	return func(r *Runner) {
		r.InterruptSource = ch
	}
}

// WithEngine configures the calculator engine sessions are created from.
func WithEngine(engine *abacus.Engine) Option {
	return func(r *Runner) {
		r.engine = engine
	}
}
