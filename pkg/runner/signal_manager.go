package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalManager turns OS interrupts into context cancellation that can be re-armed,
// so one Ctrl+C clears the current line instead of ending the process.
type SignalManager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	signals []os.Signal
}

// NewSignalManager creates a new manager and immediately starts listening.
// Without arguments it listens for SIGINT and SIGTERM.
func NewSignalManager(signals ...os.Signal) *SignalManager {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	sm := &SignalManager{signals: signals}
	sm.Reset()
	return sm
}

// Context returns the current signal context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Reset re-arms the listener after a signal has been handled.
func (sm *SignalManager) Reset() {
	if sm.cancel != nil {
		sm.cancel()
	}
	sm.ctx, sm.cancel = signal.NotifyContext(context.Background(), sm.signals...)
}

// Stop permanently stops the signal listener.
func (sm *SignalManager) Stop() {
	if sm.cancel != nil {
		sm.cancel()
	}
}

// CheckRace waits briefly to see if a context cancellation follows a read error.
// Some terminals deliver the EOF caused by Ctrl+C before the signal itself.
func (sm *SignalManager) CheckRace() {
	if sm.ctx.Err() == nil {
		select {
		case <-sm.ctx.Done():
		case <-time.After(100 * time.Millisecond):
		}
	}
}
