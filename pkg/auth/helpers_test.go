package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/contentauth/pkg/auth"
	"github.com/dmitrymomot/contentauth/pkg/jwt"
)

const testSecret = "test-secret-32-bytes-long-123456"

func testConfig() auth.Config {
	return auth.Config{
		SigningSecret: testSecret,
		Issuer:        "content-api",
		Audience:      "content-api",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		ClockSkew:     5 * time.Second,
		BcryptCost:    bcrypt.MinCost,
	}
}

func newIssuer(t *testing.T, now func() time.Time) *auth.TokenIssuer {
	t.Helper()
	var opts []jwt.Option
	if now != nil {
		opts = append(opts, jwt.WithClock(now))
	}
	issuer, err := auth.NewTokenIssuer(testConfig(), opts...)
	require.NoError(t, err)
	return issuer
}

func newHasher() auth.Hasher {
	return auth.NewBcryptHasher(bcrypt.MinCost)
}

func localAccount(t *testing.T, email, password string) *auth.Account {
	t.Helper()
	hash, err := newHasher().Hash(password)
	require.NoError(t, err)
	return &auth.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
