package ports

import (
	"context"

	"github.com/aretw0/abacus/pkg/domain"
)

// StatelessEngine defines the calculator core as seen by hosts that keep state externally.
// This is the primary interface used by adapters (e.g., HTTP, MCP) that manage state per-request.
// *abacus.Engine implements it.
type StatelessEngine interface {
	// NewState creates a clean idle snapshot.
	NewState(sessionID string) *domain.State

	// Press applies keys in order, returning the new state. The input state is not mutated.
	Press(ctx context.Context, state *domain.State, keys ...domain.Key) (*domain.State, error)

	// PressScript parses a compact key script and applies it like Press.
	PressScript(ctx context.Context, state *domain.State, script string) (*domain.State, error)

	// SelectHistory loads the history entry at index as the pending value.
	SelectHistory(ctx context.Context, state *domain.State, index int) (*domain.State, error)

	// ClearHistory empties the history log.
	ClearHistory(ctx context.Context, state *domain.State) (*domain.State, error)

	// Evaluate computes a one-off expression and returns its display form.
	Evaluate(expr string) (string, error)
}
