package observability

import (
	"context"
	"errors"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	Keys      *prometheus.CounterVec
	Finalize  *prometheus.CounterVec
	Errors    *prometheus.CounterVec
	HistoryLn prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Keys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abacus_keys_total",
				Help: "Total number of key-presses processed, by key kind",
			},
			[]string{"kind"},
		),
		Finalize: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abacus_finalize_total",
				Help: "Total number of successful equals presses, by whether history was recorded",
			},
			[]string{"outcome"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abacus_errors_total",
				Help: "Total number of key-presses that surfaced the error sentinel, by error kind",
			},
			[]string{"kind"},
		),
		HistoryLn: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "abacus_history_length",
				Help:    "History length of a session right after a finalize",
				Buckets: prometheus.LinearBuckets(0, 1, 11),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Keys, m.Finalize, m.Errors, m.HistoryLn)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnKey: func(_ context.Context, e *domain.KeyEvent) {
			m.Keys.WithLabelValues(string(e.Key.Kind)).Inc()
		},
		OnFinalize: func(_ context.Context, e *domain.FinalizeEvent) {
			outcome := "unchanged"
			if e.Recorded {
				outcome = "recorded"
			}
			m.Finalize.WithLabelValues(outcome).Inc()
			m.HistoryLn.Observe(float64(e.HistoryLen))
		},
		OnError: func(_ context.Context, e *domain.ErrorEvent) {
			m.Errors.WithLabelValues(ErrorKind(e.Err)).Inc()
		},
	}
}

// ErrorKind maps an engine error to a short, bounded label value.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrInvalidExpression):
		return "invalid_expression"
	case errors.Is(err, domain.ErrInvalidResult):
		return "invalid_result"
	case errors.Is(err, domain.ErrDomain):
		return "domain"
	case errors.Is(err, domain.ErrInvalidOperand):
		return "invalid_operand"
	default:
		return "other"
	}
}
