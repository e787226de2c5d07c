package ratelimiter

import (
	"fmt"
	"time"
)

// Result contains the result of a rate limit check.
type Result struct {
	Limit     int       // Maximum tokens (bucket capacity)
	Remaining int       // Tokens remaining
	ResetAt   time.Time // Time when tokens will be refilled
}

// Allowed reports whether the request fit in the bucket.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before the next request, measured from now.
// Returns 0 if the request was allowed.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

// Config defines the token bucket configuration.
// The defaults allow a burst of 10 attempts per client and one more every 6 seconds.
type Config struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"10"`       // Maximum tokens the bucket can hold (burst limit)
	RefillRate     int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"1"`     // Number of tokens added per refill interval
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"6s"` // How often tokens are added
	Store          string        `env:"RATE_LIMIT_STORE" envDefault:"memory"`      // memory or redis
}

// Store kinds accepted in Config.Store.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Validate implements the config loader's validation hook.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Store != StoreMemory && c.Store != StoreRedis {
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	return c.validate()
}
