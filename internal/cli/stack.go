package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/config"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/adapters/memory"
	"github.com/aretw0/abacus/pkg/adapters/redis"
	"github.com/aretw0/abacus/pkg/observability"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LockPrefix namespaces the per-session distributed locks in Redis ("abacus:lock:<id>").
const LockPrefix = "abacus:"

// Stack is the wired set of components every command builds on.
type Stack struct {
	Config   config.Config
	Logger   *slog.Logger
	Engine   *abacus.Engine
	Store    ports.StateStore
	Sessions *session.Manager
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Shared is true when sessions live in Redis and outlive the process.
	Shared bool

	closers []func() error
}

// NewStack wires the engine, the session store and metrics from cfg.
// With a Redis address the store is shared and guarded by a distributed lock;
// otherwise sessions live in process memory.
func NewStack(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Stack{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	// 1. Metrics & Hooks
	hooks := observability.LoggingHooks(logger)
	if cfg.Metrics.Enabled {
		s.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		s.Metrics = observability.NewMetrics(s.Registry)
		hooks = observability.Combine(hooks, s.Metrics.Hooks())
	}

	// 2. Engine
	s.Engine = abacus.New(
		abacus.WithLogger(logger),
		abacus.WithHistoryLimit(cfg.HistoryLimit),
		abacus.WithLifecycleHooks(hooks),
	)

	// 3. Persistence
	if cfg.Redis.Addr == "" {
		s.Store = memory.NewStore()
		s.Sessions = session.NewManager(s.Store, session.WithLogger(logger))
		return s, nil
	}

	store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		redis.WithTTL(cfg.Server.SessionTTL),
		redis.WithPrefix(cfg.Redis.Prefix),
	)
	s.closers = append(s.closers, store.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.Redis.Addr, err)
	}

	s.Store = store
	s.Shared = true
	s.Sessions = session.NewManager(store,
		session.WithLocker(redis.NewLocker(store.Client(), LockPrefix)),
		session.WithLogger(logger),
	)
	logger.Debug("using redis session store", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix, "ttl", cfg.Server.SessionTTL)
	return s, nil
}

// MetricsHandler serves the stack's registry, or 404 when metrics are disabled.
func (s *Stack) MetricsHandler() http.Handler {
	if s.Metrics == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}

// Close releases external connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}
