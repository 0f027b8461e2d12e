package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	eng := abacus.New(abacus.WithLifecycleHooks(metrics.Hooks()))

	s := eng.NewSession("m")
	require.NoError(t, s.PressScript(context.Background(), "2+2= 5= 1÷0= C -9= √"))

	assert.Equal(t, 6.0, testutil.ToFloat64(metrics.Keys.WithLabelValues("digit")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.Keys.WithLabelValues("equals")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Finalize.WithLabelValues("recorded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Finalize.WithLabelValues("unchanged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Errors.WithLabelValues("invalid_result")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Errors.WithLabelValues("domain")))

	count, err := testutil.GatherAndCount(reg, "abacus_history_length")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "none", observability.ErrorKind(nil))
	assert.Equal(t, "invalid_expression", observability.ErrorKind(domain.ErrInvalidExpression))
	assert.Equal(t, "invalid_operand", observability.ErrorKind(domain.ErrInvalidOperand))
	assert.Equal(t, "other", observability.ErrorKind(domain.ErrUnknownKey))
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	eng := abacus.New(abacus.WithLifecycleHooks(observability.LoggingHooks(logger)))

	_, err := eng.PressScript(context.Background(), eng.NewState("log"), "3×3= 0÷0=")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=finalize")
	assert.Contains(t, out, "result=9")
	assert.Contains(t, out, "kind=invalid_result")
	assert.NotContains(t, out, "msg=key", "key events are debug level")
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnKey: func(context.Context, *domain.KeyEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnKey:      func(context.Context, *domain.KeyEvent) { calls = append(calls, "b") },
		OnFinalize: func(context.Context, *domain.FinalizeEvent) { calls = append(calls, "b-final") },
	}

	h := observability.Combine(a, domain.LifecycleHooks{}, b)
	require.NotNil(t, h.OnKey)
	assert.Nil(t, h.OnError)

	h.OnKey(context.Background(), &domain.KeyEvent{})
	h.OnFinalize(context.Background(), &domain.FinalizeEvent{})
	assert.Equal(t, []string{"a", "b", "b-final"}, calls)
}
