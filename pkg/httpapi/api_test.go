package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/contentauth/pkg/auth"
	"github.com/dmitrymomot/contentauth/pkg/authgate"
	"github.com/dmitrymomot/contentauth/pkg/httpapi"
	"github.com/dmitrymomot/contentauth/pkg/jwt"
	"github.com/dmitrymomot/contentauth/pkg/metrics"
	"github.com/dmitrymomot/contentauth/pkg/ratelimiter"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// stubVerifier maps raw tokens to identities.
type stubVerifier map[string]*auth.FederatedIdentity

func (stubVerifier) Provider() string { return "google" }

func (v stubVerifier) VerifyIdentity(_ context.Context, raw string) (*auth.FederatedIdentity, error) {
	id, ok := v[raw]
	if !ok {
		return nil, errors.New("signature mismatch")
	}
	cp := *id
	return &cp, nil
}

type env struct {
	handler http.Handler
	clock   *clock
	metrics *metrics.Metrics
}

type envOptions struct {
	noSecret bool
	capacity int
}

func newEnv(t *testing.T, o envOptions) *env {
	t.Helper()

	c := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := metrics.New("test")

	svcOpts := []auth.Option{
		auth.WithHasher(auth.NewBcryptHasher(bcrypt.MinCost)),
		auth.WithClock(c.Now),
		auth.WithIdentityVerifier(stubVerifier{
			"no-email":   {Subject: "g-1"},
			"verified":   {Subject: "g-2", Email: "grace@example.com", EmailVerified: true, FirstName: "Grace"},
			"no-subject": {Email: "x@example.com", EmailVerified: true},
		}),
	}
	gateOpts := []authgate.Option{authgate.WithObserver(m.GateObserver())}

	if !o.noSecret {
		issuer, err := auth.NewTokenIssuer(auth.Config{
			SigningSecret: "test-secret-32-bytes-long-123456",
			Issuer:        "content-api",
			Audience:      "content-api",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    24 * time.Hour,
			ClockSkew:     5 * time.Second,
		}, jwt.WithClock(c.Now))
		require.NoError(t, err)
		svcOpts = append(svcOpts, auth.WithTokenIssuer(issuer))
		gateOpts = append(gateOpts, authgate.WithStrategy(authgate.NewBearerStrategy(issuer)))
	}

	keys, err := authgate.NewAPIKeyStrategy([]string{"indexer:svc-key-1"})
	require.NoError(t, err)
	gateOpts = append(gateOpts, authgate.WithStrategy(keys))

	capacity := o.capacity
	if capacity == 0 {
		capacity = 100
	}
	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0), ratelimiter.WithStoreClock(c.Now))
	t.Cleanup(store.Close)
	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: capacity, RefillRate: 1, RefillInterval: time.Minute})
	require.NoError(t, err)

	api := httpapi.New(
		auth.NewService(auth.NewMemoryDirectory(), svcOpts...),
		authgate.New(gateOpts...),
		httpapi.WithMetrics(m),
		httpapi.WithRateLimiter(limiter),
		httpapi.WithClock(c.Now),
		httpapi.WithReadinessCheck("directory", func(context.Context) error { return nil }),
	)

	return &env{handler: api.Handler(), clock: c, metrics: m}
}

func (e *env) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case string:
		r = httptest.NewRequest(method, path, strings.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(raw))
		r.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func decodePair(t *testing.T, rec *httptest.ResponseRecorder) httpapi.TokenPairResponse {
	t.Helper()
	var pair httpapi.TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpapi.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error.Code
}

func tamper(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	return parts[0] + "." + parts[1] + "." + string(sig)
}

var ada = map[string]string{
	"email":     "ada@example.com",
	"password":  "correct horse battery",
	"firstName": "Ada",
	"lastName":  "Lovelace",
}

func TestCredentialFlows(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{})

	rec := e.do(t, http.MethodPost, "/auth/signup", ada)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	t.Run("wrong password is 401 with a generic body", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/signin", map[string]string{"email": "ada@example.com", "password": "wrong password"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":{"code":"unauthorized","message":"Invalid credentials"}}`, rec.Body.String())

		unknown := e.do(t, http.MethodPost, "/auth/signin", map[string]string{"email": "nobody@example.com", "password": "wrong password"})
		assert.Equal(t, rec.Body.String(), unknown.Body.String(), "unknown email is indistinguishable")
	})

	t.Run("correct password returns two distinct tokens", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/signin", map[string]string{"email": "ADA@example.com ", "password": ada["password"]})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		pair := decodePair(t, rec)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.Equal(t, int64(900), pair.ExpiresIn)
		assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("duplicate sign-up conflicts", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/signup", ada)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "conflict", errorCode(t, rec))
	})

	t.Run("sign-up validation", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": "not-an-email", "password": "long enough pw"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body httpapi.ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "validation_failed", body.Error.Code)
		assert.Contains(t, body.Error.Details, "email")

		rec = e.do(t, http.MethodPost, "/auth/signup", map[string]string{"email": "bob@example.com", "password": "short"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		rec = e.do(t, http.MethodPost, "/auth/signup", map[string]string{
			"email":     "bob@example.com",
			"password":  "",
			"firstName": "Bob\nRoss",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body = httpapi.ErrorBody{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, []string{"field is required"}, body.Error.Details["password"])
		assert.Equal(t, []string{"must contain only printable characters"}, body.Error.Details["firstName"])
	})

	t.Run("malformed bodies", func(t *testing.T) {
		for name, body := range map[string]string{
			"not json":      "{",
			"unknown field": `{"email":"a@b.c","password":"x","admin":true}`,
			"trailing data": `{"email":"a@b.c","password":"x"} {}`,
			"wrong type":    `{"email":1}`,
		} {
			rec := e.do(t, http.MethodPost, "/auth/signin", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, name)
			assert.Equal(t, "bad_request", errorCode(t, rec), name)
		}

		r := httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(`{}`))
		r.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

		huge := `{"email":"` + strings.Repeat("a", 20<<10) + `"}`
		rec = e.do(t, http.MethodPost, "/auth/signin", huge)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestBearerAndRefresh(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{})
	pair := decodePair(t, e.do(t, http.MethodPost, "/auth/signup", ada))

	t.Run("me with access token", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "Bearer "+pair.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var me httpapi.PrincipalResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
		assert.Equal(t, "ada@example.com", me.Email)
		assert.Equal(t, "Ada", me.FirstName)
		assert.Equal(t, authgate.StrategyBearer, me.Strategy)
		assert.False(t, me.Federated)
	})

	t.Run("me with service key", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/auth/me", nil, authgate.APIKeyHeader, "svc-key-1")
		require.Equal(t, http.StatusOK, rec.Code)

		var me httpapi.PrincipalResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
		assert.Equal(t, "service:indexer", me.Subject)
	})

	t.Run("me rejects bad credentials generically", func(t *testing.T) {
		for name, headers := range map[string][]string{
			"no header":     nil,
			"lowercase":     {"Authorization", "bearer " + pair.AccessToken},
			"refresh token": {"Authorization", "Bearer " + pair.RefreshToken},
			"tampered":      {"Authorization", "Bearer " + tamper(pair.AccessToken)},
			"wrong api key": {authgate.APIKeyHeader, "nope"},
		} {
			rec := e.do(t, http.MethodGet, "/auth/me", nil, headers...)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
			assert.JSONEq(t, `{"error":{"code":"unauthorized","message":"Unauthorized"}}`, rec.Body.String(), name)
		}
	})

	t.Run("refresh issues a new pair", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		next := decodePair(t, rec)
		assert.NotEqual(t, pair.AccessToken, next.AccessToken)
		assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	})

	t.Run("tampered refresh token is 401", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": tamper(pair.RefreshToken)})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", errorCode(t, rec))
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": pair.AccessToken})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("sign-out without denylist succeeds", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/signout", map[string]string{"refreshToken": pair.RefreshToken})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestExpiredBearer(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{})
	pair := decodePair(t, e.do(t, http.MethodPost, "/auth/signup", ada))

	e.clock.Advance(16 * time.Minute)

	rec := e.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken})
	assert.Equal(t, http.StatusOK, rec.Code, "refresh token outlives the access token")
}

func TestFederated(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{})

	t.Run("payload without email is 401", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/federated/google", map[string]string{"token": "no-email"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", errorCode(t, rec))
	})

	t.Run("payload without subject is 401", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/federated/google", map[string]string{"token": "no-subject"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unverifiable token is 401", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/federated/google", map[string]string{"token": "forged"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("verified identity creates an account once", func(t *testing.T) {
		first := e.do(t, http.MethodPost, "/auth/federated/google", map[string]string{"token": "verified"})
		require.Equal(t, http.StatusOK, first.Code, first.Body.String())
		second := e.do(t, http.MethodPost, "/auth/federated/google", map[string]string{"token": "verified"})
		require.Equal(t, http.StatusOK, second.Code)

		rec := e.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "Bearer "+decodePair(t, second).AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var me httpapi.PrincipalResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
		assert.Equal(t, "grace@example.com", me.Email)
		assert.True(t, me.Federated)
	})

	t.Run("code flow without exchanger is unavailable", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/auth/federated/google/code", map[string]string{"code": "abc"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "feature_unavailable", errorCode(t, rec))
	})
}

func TestMisconfiguredTokens(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{noSecret: true})

	for path, body := range map[string]any{
		"/auth/signin":           map[string]string{"email": "ada@example.com", "password": "whatever1"},
		"/auth/signup":           ada,
		"/auth/refresh":          map[string]string{"refreshToken": "x"},
		"/auth/federated/google": map[string]string{"token": "verified"},
	} {
		rec := e.do(t, http.MethodPost, path, body)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "feature_unavailable", errorCode(t, rec), path)
	}

	rec := e.do(t, http.MethodGet, "/auth/me", nil, "Authorization", "Bearer a.b.c")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{capacity: 2})
	creds := map[string]string{"email": "ada@example.com", "password": "wrong password"}

	for range 2 {
		assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodPost, "/auth/signin", creds).Code)
	}
	rec := e.do(t, http.MethodPost, "/auth/signin", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.NotEqual(t, http.StatusTooManyRequests, e.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": "x"}).Code,
		"refresh is not rate limited")

	e.clock.Advance(time.Minute)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodPost, "/auth/signin", creds).Code)
}

func TestOperationalRoutes(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{})

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health/ready", nil).Code)

	e.do(t, http.MethodPost, "/auth/signin", map[string]string{"email": "x@example.com", "password": "wrong password"})

	rec := e.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_auth_flows_total{flow="signin",outcome="rejected"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/auth/signin"`)

	rec = e.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = e.do(t, http.MethodGet, "/auth/signin", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
