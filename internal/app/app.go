package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/contentauth/pkg/accountstore"
	"github.com/dmitrymomot/contentauth/pkg/auth"
	"github.com/dmitrymomot/contentauth/pkg/authgate"
	"github.com/dmitrymomot/contentauth/pkg/clientip"
	"github.com/dmitrymomot/contentauth/pkg/httpapi"
	"github.com/dmitrymomot/contentauth/pkg/httpserver"
	"github.com/dmitrymomot/contentauth/pkg/logger"
	"github.com/dmitrymomot/contentauth/pkg/metrics"
	"github.com/dmitrymomot/contentauth/pkg/pg"
	"github.com/dmitrymomot/contentauth/pkg/ratelimiter"
	"github.com/dmitrymomot/contentauth/pkg/redis"
	"github.com/dmitrymomot/contentauth/pkg/requestid"
)

const metricsNamespace = "contentauth"

// App is the wired service.
type App struct {
	Handler http.Handler
	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Run loads settings, wires the service and serves until ctx is done.
func Run(ctx context.Context) error {
	s, err := LoadSettings()
	if err != nil {
		return err
	}

	log, err := logger.NewFromConfig(s.Logger, logger.WithContextExtractors(
		requestid.LoggerExtractor(),
		clientip.LoggerExtractor(),
		authgate.LoggerExtractor(),
	))
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	a, err := Build(ctx, s, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return httpserver.NewFromConfig(s.HTTP, httpserver.WithLogger(log)).Run(ctx, a.Handler)
}

// Build constructs every component described by s. Optional features whose
// configuration is missing are disabled with a warning instead of failing.
func Build(ctx context.Context, s Settings, log *slog.Logger) (_ *App, err error) {
	if log == nil {
		log = logger.Noop()
	}
	a := &App{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	m := metrics.New(metricsNamespace)
	m.SetBuildInfo(s.App.Version, s.App.Commit)

	apiOpts := []httpapi.Option{
		httpapi.WithLogger(log),
		httpapi.WithMetrics(m),
		httpapi.WithConfig(s.API),
		httpapi.WithClientIPResolver(clientip.NewFromConfig(s.ClientIP)),
	}

	directory, err := a.directory(ctx, s, log, &apiOpts)
	if err != nil {
		return nil, err
	}

	var redisClient *goredis.Client
	if s.needsRedis() {
		client, err := redis.Connect(ctx, s.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		apiOpts = append(apiOpts, httpapi.WithReadinessCheck("redis", redis.Healthcheck(client)))
		redisClient = client
	}

	svcOpts := []auth.Option{
		auth.WithLogger(log),
		auth.WithHasher(auth.NewBcryptHasher(s.Auth.BcryptCost)),
		auth.WithRevokeOnRefresh(s.Auth.RevokeOnRefresh),
	}
	gateOpts := []authgate.Option{
		authgate.WithLogger(log),
		authgate.WithObserver(m.GateObserver()),
	}

	if s.Auth.TokensEnabled() {
		issuer, err := auth.NewTokenIssuer(s.Auth)
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, auth.WithTokenIssuer(issuer))
		gateOpts = append(gateOpts, authgate.WithStrategy(authgate.NewBearerStrategy(issuer)))
	} else {
		log.WarnContext(ctx, "AUTH_SIGNING_SECRET is not set: sign-in, refresh and bearer authentication are disabled",
			logger.Component("app"))
		gateOpts = append(gateOpts, authgate.WithStrategy(authgate.NewBearerStrategy(nil)))
	}

	if len(s.Auth.APIKeys) > 0 {
		keys, err := authgate.NewAPIKeyStrategy(s.Auth.APIKeys)
		if err != nil {
			return nil, err
		}
		gateOpts = append(gateOpts, authgate.WithStrategy(keys))
	}

	if s.Google.Enabled() {
		google, err := auth.NewGoogleVerifier(s.Google)
		if err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, auth.WithIdentityVerifier(google))
		if !s.Google.CodeExchangeEnabled() {
			log.InfoContext(ctx, "google code exchange disabled: client secret or redirect url missing",
				logger.Component("app"), logger.Provider(auth.GoogleProvider))
		}
	} else {
		log.WarnContext(ctx, "GOOGLE_CLIENT_ID is not set: federated sign-in is disabled",
			logger.Component("app"), logger.Provider(auth.GoogleProvider))
	}

	switch s.App.DenylistStore {
	case StoreMemory:
		svcOpts = append(svcOpts, auth.WithDenylist(auth.NewMemoryDenylist()))
	case StoreRedis:
		svcOpts = append(svcOpts, auth.WithDenylist(auth.NewRedisDenylist(redisClient)))
	}

	if s.RateLimit.Enabled {
		limiter, err := a.rateLimiter(s, redisClient)
		if err != nil {
			return nil, err
		}
		apiOpts = append(apiOpts, httpapi.WithRateLimiter(limiter))
	}

	api := httpapi.New(auth.NewService(directory, svcOpts...), authgate.New(gateOpts...), apiOpts...)
	a.Handler = api.Handler()

	log.InfoContext(ctx, "service wired",
		logger.Component("app"),
		slog.String("account_store", s.App.AccountStore),
		slog.String("denylist_store", s.App.DenylistStore),
		slog.Bool("rate_limit", s.RateLimit.Enabled),
		slog.String("version", s.App.Version),
	)
	return a, nil
}

func (a *App) directory(ctx context.Context, s Settings, log *slog.Logger, apiOpts *[]httpapi.Option) (auth.Directory, error) {
	if s.App.AccountStore != StorePostgres {
		log.WarnContext(ctx, "using in-memory account store: accounts are lost on restart", logger.Component("app"))
		return auth.NewMemoryDirectory(), nil
	}

	pool, err := pg.Connect(ctx, s.Postgres)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)

	db := pg.OpenDB(pool)
	a.closers = append(a.closers, func() { _ = db.Close() })

	if s.Postgres.AutoMigrate {
		if err := pg.Migrate(ctx, db, accountstore.Migrations(), s.Postgres, log); err != nil {
			return nil, err
		}
	}

	*apiOpts = append(*apiOpts, httpapi.WithReadinessCheck("postgres", pg.Healthcheck(pool)))
	return accountstore.New(db), nil
}

func (a *App) rateLimiter(s Settings, rc *goredis.Client) (ratelimiter.RateLimiter, error) {
	var store ratelimiter.Store
	switch s.RateLimit.Store {
	case ratelimiter.StoreRedis:
		if rc == nil {
			return nil, errors.New("app: redis rate limit store without a redis client")
		}
		store = ratelimiter.NewRedisStore(rc)
	default:
		mem := ratelimiter.NewMemoryStore()
		a.closers = append(a.closers, mem.Close)
		store = mem
	}
	return ratelimiter.NewBucket(store, s.RateLimit)
}
