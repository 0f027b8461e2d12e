package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/abacus/pkg/adapters/memory"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Lock entries are reference counted; none may outlive the calls that created them.
func TestManager_LocksAreReleased(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	press := func(ctx context.Context, st *domain.State) (*domain.State, error) {
		next := st.Snapshot()
		next.Buffer += "1"
		return next, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("desk-%d", i%10)
			_, err := mgr.Update(ctx, sid, press)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		st, err := mgr.Load(ctx, fmt.Sprintf("desk-%d", i))
		require.NoError(t, err)
		assert.Len(t, st.Buffer, 20)
		require.NoError(t, mgr.Delete(ctx, st.SessionID))
	}

	_, _ = mgr.Modify(ctx, "missing", press)

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	assert.Empty(t, mgr.locks, "lock entries leaked")
}
