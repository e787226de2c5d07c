package authgate

import (
	"context"
	"log/slog"
	"time"
)

// Principal is the authenticated caller attached to a request.
// TokenID and ExpiresAt are set only for token-based strategies.
type Principal struct {
	Subject   string
	Email     string
	Strategy  string
	TokenID   string
	ExpiresAt time.Time
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal attached by the gate, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// LoggerExtractor adds the principal subject to log records.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if p, ok := PrincipalFromContext(ctx); ok {
			return slog.String("account_id", p.Subject), true
		}
		return slog.Attr{}, false
	}
}
