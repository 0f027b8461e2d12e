package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/abacus/pkg/adapters/http"
)

// ShutdownTimeout bounds how long in-flight requests may take after a stop signal.
const ShutdownTimeout = 5 * time.Second

// ListenAndServe serves the HTTP API on port until ctx is done.
func ListenAndServe(ctx context.Context, stack *Stack, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	return Serve(ctx, stack, ln)
}

// Serve serves the HTTP API on ln until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, stack *Stack, ln net.Listener) error {
	handler := httpAdapter.NewHandler(stack.Engine, stack.Sessions,
		httpAdapter.WithLogger(stack.Logger),
		httpAdapter.WithMetricsHandler(stack.MetricsHandler()),
	)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Streams (SSE, websocket) end when ctx is done.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		stack.Logger.Info("abacus server listening", "address", ln.Addr().String(), "shared_sessions", stack.Shared)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		stack.Logger.Info("shutdown signal received, stopping server")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			stack.Logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	}
}
