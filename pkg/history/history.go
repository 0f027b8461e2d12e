// Package history keeps the bounded, newest-first log of finalized calculations.
package history

import (
	"fmt"

	"github.com/aretw0/abacus/pkg/domain"
)

// DefaultLimit is the number of calculations a log retains.
const DefaultLimit = 5

// Log is an ordered record of finalized calculations, newest first.
// The zero value is not usable; create one with New.
type Log struct {
	limit   int
	entries []domain.HistoryEntry
}

// New creates an empty log holding at most limit entries.
// A non-positive limit falls back to DefaultLimit.
func New(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{
		limit:   limit,
		entries: make([]domain.HistoryEntry, 0, limit+1),
	}
}

// Push prepends entry and drops the oldest entries beyond the limit.
func (l *Log) Push(entry domain.HistoryEntry) {
	l.entries = append(l.entries, domain.HistoryEntry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry
	if len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
}

// Clear empties the log.
func (l *Log) Clear() {
	l.entries = l.entries[:0]
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Limit returns the maximum number of retained entries.
func (l *Log) Limit() int {
	return l.limit
}

// At returns the entry at index i, where 0 is the newest.
func (l *Log) At(i int) (domain.HistoryEntry, error) {
	if i < 0 || i >= len(l.entries) {
		return domain.HistoryEntry{}, fmt.Errorf("%w: %d (len %d)", domain.ErrHistoryIndex, i, len(l.entries))
	}
	return l.entries[i], nil
}

// Restore replaces the log content with entries (newest first), keeping at most the limit.
func (l *Log) Restore(entries []domain.HistoryEntry) {
	if len(entries) > l.limit {
		entries = entries[:l.limit]
	}
	l.entries = append(l.entries[:0], entries...)
}
