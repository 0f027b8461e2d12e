package domain

import "time"

// Mode is the derived position of a session in the input state machine.
type Mode string

const (
	ModeIdle         Mode = "idle"          // Empty buffer, nothing pending
	ModeEntering     Mode = "entering"      // Buffer is being edited
	ModeAwaitingNext Mode = "awaiting_next" // Buffer holds a finalized/selected value
)

// HistoryEntry is an immutable record of one finalized calculation.
type HistoryEntry struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
}

// State represents the current snapshot of a calculator session.
type State struct {
	// SessionID identifies the session in stores and streams.
	SessionID string `json:"session_id"`

	// Buffer is the in-progress expression text.
	Buffer string `json:"buffer"`

	// Preview is the best-effort evaluated and formatted display value.
	Preview string `json:"preview"`

	// Pending marks that the next digit input starts a fresh expression.
	Pending bool `json:"pending"`

	// History holds the finalized calculations, newest first.
	History []HistoryEntry `json:"history"`

	// Error explains the last error sentinel shown in Preview, if any.
	Error string `json:"error,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates a clean idle session.
func NewState(sessionID string) *State {
	return &State{
		SessionID: sessionID,
		Preview:   "0",
		History:   []HistoryEntry{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Mode derives the state machine position from the snapshot.
func (s *State) Mode() Mode {
	switch {
	case s.Pending:
		return ModeAwaitingNext
	case s.Buffer == "":
		return ModeIdle
	default:
		return ModeEntering
	}
}

// Snapshot returns a deep copy of the state, so callers can mutate it without aliasing.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	cp := *s
	cp.History = make([]HistoryEntry, len(s.History))
	copy(cp.History, s.History)
	return &cp
}
