package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventKeyPress EventType = "key_press"
	EventFinalize EventType = "finalize"
	EventError    EventType = "error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// KeyEvent is emitted after a key-press has been fully processed.
type KeyEvent struct {
	EventBase
	Key     Key    `json:"key"`
	From    Mode   `json:"from"`
	To      Mode   `json:"to"`
	Buffer  string `json:"buffer"`
	Preview string `json:"preview"`
}

// FinalizeEvent is emitted when the equals key produced a result.
type FinalizeEvent struct {
	EventBase
	Expression string `json:"expression"`
	Result     string `json:"result"`
	Recorded   bool   `json:"recorded"` // true if a history entry was appended
	HistoryLen int    `json:"history_len"`
}

// ErrorEvent is emitted when a key-press surfaced the error sentinel.
type ErrorEvent struct {
	EventBase
	Key Key   `json:"key"`
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnKey      func(context.Context, *KeyEvent)
	OnFinalize func(context.Context, *FinalizeEvent)
	OnError    func(context.Context, *ErrorEvent)
}
