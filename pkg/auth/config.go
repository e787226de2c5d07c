package auth

import (
	"fmt"
	"strings"
	"time"
)

// Config holds token lifecycle settings.
// An empty SigningSecret disables token issuance instead of failing startup.
type Config struct {
	SigningSecret   string        `env:"AUTH_SIGNING_SECRET"`
	Issuer          string        `env:"AUTH_ISSUER" envDefault:"content-api"`
	Audience        string        `env:"AUTH_AUDIENCE" envDefault:"content-api"`
	AccessTTL       time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL      time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"24h"`
	ClockSkew       time.Duration `env:"AUTH_CLOCK_SKEW" envDefault:"10s"`
	BcryptCost      int           `env:"AUTH_BCRYPT_COST" envDefault:"10"`
	RevokeOnRefresh bool          `env:"AUTH_REVOKE_ON_REFRESH" envDefault:"false"`
	APIKeys         []string      `env:"AUTH_API_KEYS" envSeparator:","`
}

// Validate checks TTL and skew bounds.
func (c Config) Validate() error {
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return fmt.Errorf("%w: token ttl must be positive", ErrInvalidConfig)
	}
	if c.AccessTTL >= c.RefreshTTL {
		return fmt.Errorf("%w: access ttl %v must be shorter than refresh ttl %v", ErrInvalidConfig, c.AccessTTL, c.RefreshTTL)
	}
	if c.ClockSkew < 0 || c.ClockSkew > 30*time.Second {
		return fmt.Errorf("%w: clock skew must be within 0..30s, got %v", ErrInvalidConfig, c.ClockSkew)
	}
	for _, k := range c.APIKeys {
		if name, key, ok := strings.Cut(k, ":"); !ok || name == "" || key == "" {
			return fmt.Errorf("%w: api keys must be name:key pairs", ErrInvalidConfig)
		}
	}
	return nil
}

// TokensEnabled reports whether a signing secret is configured.
func (c Config) TokensEnabled() bool {
	return c.SigningSecret != ""
}

// GoogleConfig holds federated sign-in settings for Google.
// An empty ClientID disables federated sign-in.
type GoogleConfig struct {
	ClientID       string        `env:"GOOGLE_CLIENT_ID"`
	ClientSecret   string        `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL    string        `env:"GOOGLE_REDIRECT_URL"`
	VerifyTimeout  time.Duration `env:"GOOGLE_VERIFY_TIMEOUT" envDefault:"10s"`
	TokenMaxLength int           `env:"GOOGLE_TOKEN_MAX_LENGTH" envDefault:"4096"`
}

// Validate bounds the verification timeout to 5..10s.
func (c GoogleConfig) Validate() error {
	if c.VerifyTimeout < 5*time.Second || c.VerifyTimeout > 10*time.Second {
		return fmt.Errorf("%w: google verify timeout must be within 5..10s, got %v", ErrInvalidConfig, c.VerifyTimeout)
	}
	if c.TokenMaxLength <= 0 {
		return fmt.Errorf("%w: google token max length must be positive", ErrInvalidConfig)
	}
	return nil
}

// Enabled reports whether a client id is configured.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != ""
}

// CodeExchangeEnabled reports whether the authorization code flow can run.
func (c GoogleConfig) CodeExchangeEnabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}
