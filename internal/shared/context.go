package shared

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
)

type sessionKey struct{}

// ContextWithSession attaches the shopper session loaded by the web middleware.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the attached session or nil outside the web group.
func SessionFromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return sess
	}
	return nil
}

// RequestLogger tags base with the request ID assigned by chi's RequestID middleware.
func RequestLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if id := middleware.GetReqID(ctx); id != "" {
		return base.With(slog.String("request_id", id))
	}
	return base
}
