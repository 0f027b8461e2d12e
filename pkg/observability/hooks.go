package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/abacus/pkg/domain"
)

// LoggingHooks logs engine events. Key-presses go to debug, finalize to info,
// error sentinels to warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnKey: func(ctx context.Context, e *domain.KeyEvent) {
			logger.DebugContext(ctx, "key",
				"session_id", e.SessionID,
				"key", e.Key.String(),
				"from", e.From,
				"to", e.To,
			)
		},
		OnFinalize: func(ctx context.Context, e *domain.FinalizeEvent) {
			logger.InfoContext(ctx, "finalize",
				"session_id", e.SessionID,
				"expression", e.Expression,
				"result", e.Result,
				"recorded", e.Recorded,
			)
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			logger.WarnContext(ctx, "error sentinel",
				"session_id", e.SessionID,
				"key", e.Key.String(),
				"kind", ErrorKind(e.Err),
				"err", e.Err,
			)
		},
	}
}

// Combine returns hooks that call each of hs in order. Nil callbacks are skipped.
func Combine(hs ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var onKey []func(context.Context, *domain.KeyEvent)
	var onFinalize []func(context.Context, *domain.FinalizeEvent)
	var onError []func(context.Context, *domain.ErrorEvent)
	for _, h := range hs {
		if h.OnKey != nil {
			onKey = append(onKey, h.OnKey)
		}
		if h.OnFinalize != nil {
			onFinalize = append(onFinalize, h.OnFinalize)
		}
		if h.OnError != nil {
			onError = append(onError, h.OnError)
		}
	}

	if len(onKey) > 0 {
		out.OnKey = func(ctx context.Context, e *domain.KeyEvent) {
			for _, f := range onKey {
				f(ctx, e)
			}
		}
	}
	if len(onFinalize) > 0 {
		out.OnFinalize = func(ctx context.Context, e *domain.FinalizeEvent) {
			for _, f := range onFinalize {
				f(ctx, e)
			}
		}
	}
	if len(onError) > 0 {
		out.OnError = func(ctx context.Context, e *domain.ErrorEvent) {
			for _, f := range onError {
				f(ctx, e)
			}
		}
	}
	return out
}
