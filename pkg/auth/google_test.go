package auth_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/contentauth/pkg/auth"
)

const googleClientID = "client-123.apps.googleusercontent.com"

func googleConfig() auth.GoogleConfig {
	return auth.GoogleConfig{
		ClientID:       googleClientID,
		VerifyTimeout:  5 * time.Second,
		TokenMaxLength: 4096,
	}
}

func signGoogleToken(t *testing.T, key *rsa.PrivateKey, claims gojwt.MapClaims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func googleClaims(overrides gojwt.MapClaims) gojwt.MapClaims {
	now := time.Now()
	claims := gojwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            googleClientID,
		"sub":            "108234",
		"email":          "ada@example.com",
		"email_verified": true,
		"given_name":     "Ada",
		"family_name":    "Lovelace",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
	for k, v := range overrides {
		claims[k] = v
	}
	return claims
}

func TestNewGoogleVerifier(t *testing.T) {
	t.Parallel()

	t.Run("missing client id is misconfigured", func(t *testing.T) {
		t.Parallel()

		_, err := auth.NewGoogleVerifier(auth.GoogleConfig{VerifyTimeout: 5 * time.Second, TokenMaxLength: 4096})
		require.ErrorIs(t, err, auth.ErrMisconfigured)
	})

	t.Run("timeout outside bounds is rejected", func(t *testing.T) {
		t.Parallel()

		cfg := googleConfig()
		cfg.VerifyTimeout = time.Minute
		_, err := auth.NewGoogleVerifier(cfg)
		require.ErrorIs(t, err, auth.ErrInvalidConfig)
	})

	t.Run("code flow disabled without secret", func(t *testing.T) {
		t.Parallel()

		v, err := auth.NewGoogleVerifier(googleConfig())
		require.NoError(t, err)
		_, err = v.ExchangeCode(context.Background(), "code")
		require.ErrorIs(t, err, auth.ErrMisconfigured)
		_, err = v.AuthCodeURL("state")
		require.ErrorIs(t, err, auth.ErrMisconfigured)
	})
}

func TestGoogleVerifier_VerifyIdentity(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	v, err := auth.NewGoogleVerifier(googleConfig(), auth.WithGoogleKeySet(keySet))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()

		identity, err := v.VerifyIdentity(ctx, signGoogleToken(t, key, googleClaims(nil)))
		require.NoError(t, err)
		assert.Equal(t, "108234", identity.Subject)
		assert.Equal(t, "ada@example.com", identity.Email)
		assert.True(t, identity.EmailVerified)
		assert.Equal(t, "Ada", identity.FirstName)
		assert.Equal(t, "Lovelace", identity.LastName)
	})

	t.Run("accepts bare issuer and string email_verified", func(t *testing.T) {
		t.Parallel()

		identity, err := v.VerifyIdentity(ctx, signGoogleToken(t, key, googleClaims(gojwt.MapClaims{
			"iss":            "accounts.google.com",
			"email_verified": "true",
		})))
		require.NoError(t, err)
		assert.True(t, identity.EmailVerified)
	})

	rejected := map[string]string{
		"wrong key":      signGoogleToken(t, other, googleClaims(nil)),
		"wrong audience": signGoogleToken(t, key, googleClaims(gojwt.MapClaims{"aud": "someone-else"})),
		"wrong issuer":   signGoogleToken(t, key, googleClaims(gojwt.MapClaims{"iss": "https://evil.example"})),
		"expired":        signGoogleToken(t, key, googleClaims(gojwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})),
		"garbage":        "not-a-token",
		"empty":          "",
		"too long":       strings.Repeat("a", 5000),
	}
	for name, token := range rejected {
		t.Run("rejects "+name, func(t *testing.T) {
			t.Parallel()

			identity, err := v.VerifyIdentity(ctx, token)
			require.Error(t, err)
			assert.Nil(t, identity)
		})
	}

	t.Run("unreachable key set fails within the deadline", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(release) })

		remote, err := auth.NewGoogleVerifier(googleConfig(),
			auth.WithGoogleKeySet(oidc.NewRemoteKeySet(context.Background(), srv.URL)))
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = remote.VerifyIdentity(cancelled, signGoogleToken(t, key, googleClaims(nil)))
		require.Error(t, err)
	})
}

func TestGoogleVerifier_CodeFlow(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	idToken := signGoogleToken(t, key, googleClaims(nil))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "ya29.token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	}))
	t.Cleanup(srv.Close)

	cfg := googleConfig()
	cfg.ClientSecret = "secret"
	cfg.RedirectURL = "https://app.example/callback"

	v, err := auth.NewGoogleVerifier(cfg,
		auth.WithGoogleKeySet(&oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}),
		auth.WithGoogleEndpoint(oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
	)
	require.NoError(t, err)

	u, err := v.AuthCodeURL("state-1")
	require.NoError(t, err)
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "scope=openid")

	dir := auth.NewMemoryDirectory()
	issuer := newIssuer(t, nil)
	svc := auth.NewService(dir,
		auth.WithHasher(newHasher()),
		auth.WithTokenIssuer(issuer),
		auth.WithIdentityVerifier(v),
	)

	pair, err := svc.FederatedSignInWithCode(context.Background(), "good-code")
	require.NoError(t, err)

	claims, err := issuer.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)

	acc, err := dir.GetAccountByFederatedID(context.Background(), "108234")
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, acc.ID.String())

	_, err = svc.FederatedSignInWithCode(context.Background(), "bad-code")
	assert.Equal(t, auth.ErrUnauthorized, err)
}
