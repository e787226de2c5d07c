package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/contentauth/pkg/auth"
	"github.com/dmitrymomot/contentauth/pkg/authgate"
	"github.com/dmitrymomot/contentauth/pkg/clientip"
	"github.com/dmitrymomot/contentauth/pkg/httpserver"
	"github.com/dmitrymomot/contentauth/pkg/logger"
	"github.com/dmitrymomot/contentauth/pkg/metrics"
	"github.com/dmitrymomot/contentauth/pkg/ratelimiter"
	"github.com/dmitrymomot/contentauth/pkg/requestid"
)

// Config holds HTTP API limits.
type Config struct {
	MaxBodyBytes   int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"16384"`
	ReadyTimeout   time.Duration `env:"HTTP_READY_TIMEOUT" envDefault:"2s"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
}

// API serves the authentication endpoints.
type API struct {
	service  *auth.Service
	gate     *authgate.Gate
	limiter  ratelimiter.RateLimiter
	resolver *clientip.Resolver
	metrics  *metrics.Metrics
	checks   map[string]httpserver.CheckFunc
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

// Option configures an API.
type Option func(*API)

func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRateLimiter limits the sign-up and sign-in routes per client address.
func WithRateLimiter(l ratelimiter.RateLimiter) Option {
	return func(a *API) { a.limiter = l }
}

// WithClientIPResolver sets how client addresses are derived.
func WithClientIPResolver(r *clientip.Resolver) Option {
	return func(a *API) {
		if r != nil {
			a.resolver = r
		}
	}
}

// WithMetrics enables request instrumentation and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *API) { a.metrics = m }
}

// WithReadinessCheck adds a dependency to /health/ready.
func WithReadinessCheck(name string, check httpserver.CheckFunc) Option {
	return func(a *API) {
		if name != "" && check != nil {
			a.checks[name] = check
		}
	}
}

func WithConfig(cfg Config) Option {
	return func(a *API) {
		if cfg.MaxBodyBytes > 0 {
			a.cfg.MaxBodyBytes = cfg.MaxBodyBytes
		}
		if cfg.ReadyTimeout > 0 {
			a.cfg.ReadyTimeout = cfg.ReadyTimeout
		}
		if cfg.RequestTimeout > 0 {
			a.cfg.RequestTimeout = cfg.RequestTimeout
		}
	}
}

// WithClock overrides the time source used for expiresIn.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates the API over service. gate enforces the route policies.
func New(service *auth.Service, gate *authgate.Gate, opts ...Option) *API {
	a := &API{
		service:  service,
		gate:     gate,
		resolver: clientip.NewResolver(),
		checks:   make(map[string]httpserver.CheckFunc),
		logger:   logger.Noop(),
		cfg:      Config{MaxBodyBytes: 16 << 10, ReadyTimeout: 2 * time.Second, RequestTimeout: 30 * time.Second},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.gate == nil {
		a.gate = authgate.New(authgate.WithLogger(a.logger))
	}
	return a
}

// Handler builds the route tree.
func (a *API) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(
		requestid.Middleware,
		clientip.Middleware(a.resolver),
		a.recoverer,
		middleware.Timeout(a.cfg.RequestTimeout),
	)
	if a.metrics != nil {
		mux.Use(a.metrics.Instrument)
	}
	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) { writeError(w, ErrNotFound, nil) })
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { writeError(w, ErrMethodNotAllowed, nil) })

	r := authgate.NewRouter(a.gate, mux)

	r.Group(authgate.None(), func(r *authgate.Router) {
		r.Get("/health/live", httpserver.LivenessHandler(), authgate.Inherit())
		r.Get("/health/ready", httpserver.ReadinessHandler(a.logger, a.cfg.ReadyTimeout, a.checks), authgate.Inherit())
		if a.metrics != nil {
			r.Handle(http.MethodGet, "/metrics", a.metrics.Handler(), authgate.Inherit())
		}

		r.With(a.rateLimit("/auth/signup")).Post("/auth/signup", a.signUp, authgate.Inherit())
		r.With(a.rateLimit("/auth/signin")).Post("/auth/signin", a.signIn, authgate.Inherit())
		r.With(a.rateLimit("/auth/federated/google")).Post("/auth/federated/google", a.federatedToken, authgate.Inherit())
		r.With(a.rateLimit("/auth/federated/google/code")).Post("/auth/federated/google/code", a.federatedCode, authgate.Inherit())
		r.Post("/auth/refresh", a.refresh, authgate.Inherit())
		r.Post("/auth/signout", a.signOut, authgate.Inherit())
	})

	r.Get("/auth/me", a.me, authgate.Require(authgate.StrategyBearer, authgate.StrategyAPIKey))

	return r
}

func (a *API) rateLimit(route string) func(http.Handler) http.Handler {
	if a.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	opts := []ratelimiter.MiddlewareOption{ratelimiter.WithLogger(a.logger), ratelimiter.WithClock(a.now)}
	if a.metrics != nil {
		opts = append(opts, ratelimiter.WithObserver(a.metrics.RateLimitObserver(route)))
	}
	return ratelimiter.Middleware(a.limiter, ratelimiter.Composite(ratelimiter.ByClientIP, ratelimiter.ByPath), opts...)
}

// recoverer turns a panic into a 500 JSON response and logs it.
func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.logger.ErrorContext(r.Context(), "panic while serving request",
					slog.Any("panic", rec), logger.Component("httpapi"))
				writeError(w, ErrInternal, nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// fail writes the response for err and records the flow outcome.
func (a *API) fail(w http.ResponseWriter, r *http.Request, flow string, err error) {
	httpErr, details, outcome := classify(err)
	a.observe(flow, outcome)

	if httpErr.Status >= http.StatusInternalServerError && httpErr != ErrFeatureUnavailable {
		a.logger.ErrorContext(r.Context(), "request failed",
			logger.Flow(flow), logger.Error(err), logger.Component("httpapi"))
	}
	writeError(w, httpErr, details)
}

func (a *API) observe(flow, outcome string) {
	if a.metrics != nil {
		a.metrics.ObserveFlow(flow, outcome)
	}
}
