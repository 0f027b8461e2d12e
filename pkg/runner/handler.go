package runner

import (
	"context"

	"github.com/aretw0/abacus/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the session after a line has been applied.
	Output(ctx context.Context, state *domain.State) error

	// Input reads the next line. It returns io.EOF when the source is exhausted
	// and ctx.Err() when ctx is done first.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (history listings, rejected input, help).
	// Messages are Markdown; handlers may render them.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms Markdown before it is written, e.g. into ANSI for terminals.
type ContentRenderer func(string) (string, error)
