package ctxutil

import (
	"context"

	"github.com/heartmarshall/docstore/internal/domain"
)

type ctxKey string

const (
	principalKey ctxKey = "principal"
	adminKey     ctxKey = "admin"
	requestIDKey ctxKey = "request_id"
)

// WithPrincipal stores the authenticated principal in the context.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromCtx extracts the principal from the context.
// Returns nil and false if the value is missing, nil, or of the wrong type.
func PrincipalFromCtx(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*domain.Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// UserIDFromCtx returns the id of the authenticated principal.
func UserIDFromCtx(ctx context.Context) (string, bool) {
	p, ok := PrincipalFromCtx(ctx)
	if !ok || p.ID == "" {
		return "", false
	}
	return p.ID, true
}

// WithAdmin marks the request as carrying the admin override.
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, adminKey, true)
}

// IsAdmin reports whether the request carries the admin override.
func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(adminKey).(bool)
	return v
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
