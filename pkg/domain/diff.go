package domain

import (
	"reflect"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Buffer  *string `json:"buffer,omitempty"`
	Preview *string `json:"preview,omitempty"`
	Pending *bool   `json:"pending,omitempty"`

	// History carries the full log when it changed. The log is bounded and
	// newest-first, so an insertion shifts every index and a delta would not be smaller.
	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta holds the replacement history log.
type HistoryDelta struct {
	Entries []HistoryEntry `json:"entries"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.Buffer != newState.Buffer {
		diff.Buffer = &newState.Buffer
	}
	if oldState == nil || oldState.Preview != newState.Preview {
		diff.Preview = &newState.Preview
	}
	if oldState == nil || oldState.Pending != newState.Pending {
		diff.Pending = &newState.Pending
	}
	diff.History = diffHistory(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffHistory(old *State, new *State) *HistoryDelta {
	if old == nil {
		if len(new.History) == 0 {
			return nil
		}
		return &HistoryDelta{Entries: new.History}
	}
	if len(old.History) == 0 && len(new.History) == 0 {
		return nil
	}
	if reflect.DeepEqual(old.History, new.History) {
		return nil
	}
	entries := new.History
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return &HistoryDelta{Entries: entries}
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Buffer == nil &&
		d.Preview == nil &&
		d.Pending == nil &&
		d.History == nil
}
