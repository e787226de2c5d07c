package app

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/contentauth/pkg/auth"
	"github.com/dmitrymomot/contentauth/pkg/clientip"
	"github.com/dmitrymomot/contentauth/pkg/config"
	"github.com/dmitrymomot/contentauth/pkg/httpapi"
	"github.com/dmitrymomot/contentauth/pkg/httpserver"
	"github.com/dmitrymomot/contentauth/pkg/logger"
	"github.com/dmitrymomot/contentauth/pkg/pg"
	"github.com/dmitrymomot/contentauth/pkg/ratelimiter"
	"github.com/dmitrymomot/contentauth/pkg/redis"
)

// Store kinds.
const (
	StoreNone     = "none"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

var ErrInvalidConfig = errors.New("app: invalid configuration")

// Config selects the storage backends and carries build metadata.
type Config struct {
	AccountStore  string `env:"ACCOUNT_STORE" envDefault:"memory"` // memory or postgres
	DenylistStore string `env:"DENYLIST_STORE" envDefault:"none"`  // none, memory or redis
	Version       string `env:"APP_VERSION" envDefault:"dev"`
	Commit        string `env:"APP_COMMIT" envDefault:"unknown"`
}

func (c Config) Validate() error {
	switch c.AccountStore {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("%w: unknown account store %q", ErrInvalidConfig, c.AccountStore)
	}
	switch c.DenylistStore {
	case StoreNone, StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown denylist store %q", ErrInvalidConfig, c.DenylistStore)
	}
	return nil
}

// Settings is every configuration section the service reads.
type Settings struct {
	App       Config
	Logger    logger.Config
	Auth      auth.Config
	Google    auth.GoogleConfig
	HTTP      httpserver.Config
	API       httpapi.Config
	RateLimit ratelimiter.Config
	ClientIP  clientip.Config
	Postgres  pg.Config
	Redis     redis.Config
}

// needsRedis reports whether any component is configured to use Redis.
func (s Settings) needsRedis() bool {
	return s.App.DenylistStore == StoreRedis || (s.RateLimit.Enabled && s.RateLimit.Store == ratelimiter.StoreRedis)
}

// LoadSettings reads the environment. Postgres and Redis sections are only
// loaded when a component uses them, so their required variables do not
// block memory-only deployments.
func LoadSettings() (Settings, error) {
	var s Settings
	err := errors.Join(
		config.Load(&s.App),
		config.Load(&s.Logger),
		config.Load(&s.Auth),
		config.Load(&s.Google),
		config.Load(&s.HTTP),
		config.Load(&s.API),
		config.Load(&s.RateLimit),
		config.Load(&s.ClientIP),
	)
	if err != nil {
		return s, err
	}

	if s.App.AccountStore == StorePostgres {
		if err := config.Load(&s.Postgres); err != nil {
			return s, err
		}
	}
	if s.needsRedis() {
		if err := config.Load(&s.Redis); err != nil {
			return s, err
		}
	}
	return s, nil
}
