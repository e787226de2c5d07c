package authgate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/contentauth/pkg/auth"
	"github.com/dmitrymomot/contentauth/pkg/logger"
)

// Gate outcomes reported to the observer.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeOpen    = "open"
)

// Observer receives one call per strategy attempt and one per open route.
type Observer func(strategy, outcome string)

// Gate enforces route policies against registered strategies.
type Gate struct {
	strategies   map[string]Strategy
	logger       *slog.Logger
	observer     Observer
	unauthorized http.Handler
}

// Option configures a Gate.
type Option func(*Gate)

// WithStrategy registers s under s.Name(). Later registrations replace earlier ones.
func WithStrategy(s Strategy) Option {
	return func(g *Gate) {
		if s != nil {
			g.strategies[s.Name()] = s
		}
	}
}

// WithLogger sets the logger for rejection reasons.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithObserver installs a hook for metrics.
func WithObserver(o Observer) Option {
	return func(g *Gate) { g.observer = o }
}

// WithUnauthorizedHandler replaces the default 401 response writer.
func WithUnauthorizedHandler(h http.Handler) Option {
	return func(g *Gate) {
		if h != nil {
			g.unauthorized = h
		}
	}
}

// New creates a gate.
func New(opts ...Option) *Gate {
	g := &Gate{
		strategies:   make(map[string]Strategy),
		logger:       logger.Noop(),
		observer:     func(string, string) {},
		unauthorized: http.HandlerFunc(writeUnauthorized),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate applies policy to r. A None policy admits with a nil principal.
// Otherwise the first strategy that succeeds wins; when all fail the result is
// auth.ErrUnauthorized and the last failure reason is logged.
func (g *Gate) Authenticate(r *http.Request, policy Policy) (*Principal, error) {
	policy = Resolve(policy, Inherit(), DefaultPolicy())
	if policy.IsNone() {
		g.observer("none", OutcomeOpen)
		return nil, nil
	}

	var (
		lastStrategy string
		lastErr      error
	)
	for _, name := range policy.strategies {
		s, ok := g.strategies[name]
		if !ok {
			lastStrategy, lastErr = name, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
			g.observer(name, OutcomeFailure)
			continue
		}

		p, err := s.Authenticate(r)
		if err != nil {
			lastStrategy, lastErr = name, err
			g.observer(name, OutcomeFailure)
			continue
		}
		g.observer(name, OutcomeSuccess)
		return p, nil
	}

	g.logger.InfoContext(r.Context(), "request rejected by authentication gate",
		logger.Strategy(lastStrategy),
		slog.String("policy", policy.String()),
		slog.String("path", r.URL.Path),
		logger.Error(lastErr),
		logger.Component("authgate"),
	)
	return nil, auth.ErrUnauthorized
}

// Protect returns middleware that enforces policy and attaches the principal.
func (g *Gate) Protect(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := g.Authenticate(r, policy)
			if err != nil {
				g.unauthorized.ServeHTTP(w, r)
				return
			}
			if p != nil {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "unauthorized",
			"message": "Unauthorized",
		},
	})
}
