package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type scopeKey struct{}

// Scope is what the HTTP layer learned about the caller. The zero Scope means an
// anonymous request outside any trace.
type Scope struct {
	UserID    uuid.UUID
	TraceID   string
	RequestID string
}

// ScopeFrom returns the request scope stored on ctx.
func ScopeFrom(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	if s, ok := ctx.Value(scopeKey{}).(Scope); ok {
		return s
	}
	return Scope{}
}

// WithTrace records trace and request ids, keeping any user already on ctx.
func WithTrace(ctx context.Context, traceID, requestID string) context.Context {
	s := ScopeFrom(ctx)
	s.TraceID, s.RequestID = traceID, requestID
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithUser records the authenticated user, keeping any trace ids already on ctx.
func WithUser(ctx context.Context, userID uuid.UUID) context.Context {
	s := ScopeFrom(ctx)
	s.UserID = userID
	return context.WithValue(ctx, scopeKey{}, s)
}

// UserID returns the authenticated user id, or uuid.Nil when the request is anonymous.
func UserID(ctx context.Context) uuid.UUID {
	return ScopeFrom(ctx).UserID
}

// LogFields renders the known parts of the scope as logger key/value pairs.
func LogFields(ctx context.Context) []interface{} {
	s := ScopeFrom(ctx)
	var out []interface{}
	if s.TraceID != "" {
		out = append(out, "trace_id", s.TraceID)
	}
	if s.RequestID != "" {
		out = append(out, "request_id", s.RequestID)
	}
	if s.UserID != uuid.Nil {
		out = append(out, "user_id", s.UserID.String())
	}
	return out
}
