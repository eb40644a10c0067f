package wardly

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a Caller with cross-cutting behavior (logging, recovery,
// timeout). Install with Registry.Use.
type Middleware func(Caller) Caller

// WithLogging returns a middleware that logs start, end, duration, and
// errors of each backend call.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Caller) Caller {
		return CallerFunc(func(ctx context.Context, tool string, params map[string]any) (any, error) {
			logger.InfoContext(ctx, "tool call start", "tool", tool)
			start := time.Now()
			payload, err := next.Call(ctx, tool, params)
			dur := time.Since(start)
			if err != nil {
				logger.ErrorContext(ctx, "tool call error", "tool", tool, "duration", dur, "error", err)
				return nil, err
			}
			logger.InfoContext(ctx, "tool call end", "tool", tool, "duration", dur)
			return payload, nil
		})
	}
}

// WithRecovery returns a middleware that recovers panics in the caller and
// returns SystemError. The registry already recovers by default; use this
// when recovery is disabled there but still wanted for one chain.
func WithRecovery() Middleware {
	return func(next Caller) Caller {
		return CallerFunc(func(ctx context.Context, tool string, params map[string]any) (payload any, err error) {
			defer func() {
				if p := recover(); p != nil {
					payload = nil
					err = &SystemError{Err: &panicError{p: p}}
				}
			}()
			return next.Call(ctx, tool, params)
		})
	}
}

// WithTimeoutMiddleware returns a middleware enforcing a per-call timeout.
// When the registry default timeout also applies, the effective timeout is
// the minimum of the two (inner context cancels first).
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Caller) Caller {
		return CallerFunc(func(ctx context.Context, tool string, params map[string]any) (any, error) {
			if d <= 0 {
				return next.Call(ctx, tool, params)
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Call(ctx, tool, params)
		})
	}
}
