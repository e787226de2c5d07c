package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contentauth/pkg/auth"
	"github.com/dmitrymomot/contentauth/pkg/jwt"
)

func TestNewTokenIssuer(t *testing.T) {
	t.Parallel()

	t.Run("missing secret disables issuance", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.SigningSecret = ""
		issuer, err := auth.NewTokenIssuer(cfg)
		require.ErrorIs(t, err, auth.ErrMisconfigured)
		require.ErrorIs(t, err, jwt.ErrMissingSigningKey)
		assert.Nil(t, issuer)
	})
}

func TestTokenIssuer_GenerateTokenPair(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := newIssuer(t, fixedClock(now))
	account := &auth.Account{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "x"}

	pair, err := issuer.GenerateTokenPair(account)
	require.NoError(t, err)

	t.Run("access token carries email", func(t *testing.T) {
		t.Parallel()

		claims, err := issuer.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, account.ID.String(), claims.Subject)
		assert.Equal(t, "ada@example.com", claims.Email)
		assert.Equal(t, "content-api", claims.Issuer)
		assert.Equal(t, now.Add(15*time.Minute), pair.AccessExpiresAt)
	})

	t.Run("refresh token carries subject only", func(t *testing.T) {
		t.Parallel()

		claims, err := issuer.VerifyRefresh(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, account.ID.String(), claims.Subject)
		assert.Empty(t, claims.Email)
		assert.Equal(t, now.Add(24*time.Hour), pair.RefreshExpiresAt)
	})

	t.Run("tokens are not interchangeable", func(t *testing.T) {
		t.Parallel()

		_, err := issuer.VerifyRefresh(pair.AccessToken)
		require.ErrorIs(t, err, jwt.ErrInvalidToken)
		_, err = issuer.VerifyAccess(pair.RefreshToken)
		require.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("pairs issued in the same second differ", func(t *testing.T) {
		t.Parallel()

		again, err := issuer.GenerateTokenPair(account)
		require.NoError(t, err)
		assert.NotEqual(t, pair.AccessToken, again.AccessToken)
		assert.NotEqual(t, pair.RefreshToken, again.RefreshToken)
	})

	t.Run("access token expires deterministically", func(t *testing.T) {
		t.Parallel()

		later := newIssuer(t, fixedClock(now.Add(16*time.Minute)))
		_, err := later.VerifyAccess(pair.AccessToken)
		require.ErrorIs(t, err, jwt.ErrExpiredToken)

		withinSkew := newIssuer(t, fixedClock(now.Add(15*time.Minute+3*time.Second)))
		_, err = withinSkew.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
	})
}
