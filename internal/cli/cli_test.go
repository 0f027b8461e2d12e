package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/abacus/internal/config"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStack(t *testing.T) *Stack {
	t.Helper()
	stack, err := NewStack(context.Background(), config.Default(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stack.Close() })
	return stack
}

func TestNewStack_Memory(t *testing.T) {
	stack := newMemoryStack(t)

	assert.False(t, stack.Shared)
	assert.NotNil(t, stack.Metrics)
	assert.NotNil(t, stack.Sessions)
}

func TestNewStack_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Redis.Addr = mr.Addr()
	stack, err := NewStack(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer stack.Close()

	assert.True(t, stack.Shared)

	_, err = stack.Sessions.Update(context.Background(), "shared", func(ctx context.Context, st *domain.State) (*domain.State, error) {
		return stack.Engine.PressScript(ctx, st, "6×7=")
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists(cfg.Redis.Prefix+"shared"))
}

func TestNewStack_RedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Redis.Addr = "127.0.0.1:1"
	_, err := NewStack(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unreachable")
}

func TestNewStack_MetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = false
	stack, err := NewStack(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Nil(t, stack.Metrics)
	rec := httptest.NewRecorder()
	stack.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecute_Text(t *testing.T) {
	stack := newMemoryStack(t)
	var out bytes.Buffer

	err := Execute(context.Background(), stack, RunOptions{
		SessionID: "desk",
		Stdin:     strings.NewReader("2+2=\n"),
		Stdout:    &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "No redis configured")
	assert.Contains(t, out.String(), "= 4\n")

	saved, err := stack.Sessions.Load(context.Background(), "desk")
	require.NoError(t, err)
	assert.Len(t, saved.History, 1)
}

func TestExecute_JSONFresh(t *testing.T) {
	stack := newMemoryStack(t)
	ctx := context.Background()

	require.NoError(t, Execute(ctx, stack, RunOptions{
		SessionID: "j",
		Stdin:     strings.NewReader("5×5=\n"),
		Stdout:    io.Discard,
	}))

	var out bytes.Buffer
	require.NoError(t, Execute(ctx, stack, RunOptions{
		SessionID: "j",
		JSON:      true,
		Fresh:     true,
		Stdin:     strings.NewReader(`{"keys":"1"}` + "\n"),
		Stdout:    &out,
	}))

	var state map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &state))
	assert.Equal(t, "1", state["buffer"])
	assert.Empty(t, state["history"], "fresh start drops the stored history")
}

func TestServe(t *testing.T) {
	stack := newMemoryStack(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, stack, ln) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "go_goroutines")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.NoError(t, handleExecutionError(io.EOF))
	assert.Error(t, handleExecutionError(assert.AnError))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), -4))

	logger, err = NewLogger("nonsense", true)
	require.NoError(t, err, "debug wins over the configured level")
	assert.True(t, logger.Enabled(context.Background(), -4))

	_, err = NewLogger("nonsense", false)
	assert.Error(t, err)
}
