//go:build unix

package runner

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalManager_CustomSignal(t *testing.T) {
	sm := NewSignalManager(syscall.SIGUSR1)
	defer sm.Stop()

	assert.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case <-sm.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("signal was not delivered")
	}
}
