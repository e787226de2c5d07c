package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProvider is the provider name reported by GoogleVerifier.
const GoogleProvider = "google"

const googleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

// Google issues ID tokens under either form of its issuer.
var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// GoogleVerifier validates Google ID tokens and, when a client secret and
// redirect URL are configured, exchanges authorization codes for them.
type GoogleVerifier struct {
	verifier       *oidc.IDTokenVerifier
	oauth          *oauth2.Config
	httpClient     *http.Client
	timeout        time.Duration
	maxTokenLength int
}

// GoogleOption configures a GoogleVerifier.
type GoogleOption func(*googleOptions)

type googleOptions struct {
	keySet   oidc.KeySet
	endpoint oauth2.Endpoint
	now      func() time.Time
}

// WithGoogleKeySet replaces the remote Google JWKS with keySet.
func WithGoogleKeySet(keySet oidc.KeySet) GoogleOption {
	return func(o *googleOptions) { o.keySet = keySet }
}

// WithGoogleEndpoint overrides the OAuth2 endpoint used for code exchange.
func WithGoogleEndpoint(endpoint oauth2.Endpoint) GoogleOption {
	return func(o *googleOptions) { o.endpoint = endpoint }
}

// WithGoogleClock overrides the time source used for expiry checks.
func WithGoogleClock(now func() time.Time) GoogleOption {
	return func(o *googleOptions) { o.now = now }
}

// NewGoogleVerifier builds a verifier for cfg.ClientID.
// It returns ErrMisconfigured when no client id is set.
func NewGoogleVerifier(cfg GoogleConfig, opts ...GoogleOption) (*GoogleVerifier, error) {
	if !cfg.Enabled() {
		return nil, ErrMisconfigured
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.VerifyTimeout}
	o := googleOptions{endpoint: google.Endpoint}
	for _, opt := range opts {
		opt(&o)
	}
	if o.keySet == nil {
		o.keySet = oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), httpClient), googleCertsURL)
	}

	v := &GoogleVerifier{
		// Issuer is checked against both accepted forms after verification.
		verifier: oidc.NewVerifier(googleIssuers[0], o.keySet, &oidc.Config{
			ClientID:        cfg.ClientID,
			SkipIssuerCheck: true,
			Now:             o.now,
		}),
		httpClient:     httpClient,
		timeout:        cfg.VerifyTimeout,
		maxTokenLength: cfg.TokenMaxLength,
	}

	if cfg.CodeExchangeEnabled() {
		v.oauth = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     o.endpoint,
		}
	}

	return v, nil
}

// Provider returns GoogleProvider.
func (v *GoogleVerifier) Provider() string {
	return GoogleProvider
}

// VerifyIdentity checks signature, audience, issuer and expiry of a Google ID
// token within the configured timeout.
func (v *GoogleVerifier) VerifyIdentity(ctx context.Context, rawToken string) (*FederatedIdentity, error) {
	if rawToken == "" {
		return nil, ErrIdentityIncomplete
	}
	if len(rawToken) > v.maxTokenLength {
		return nil, ErrFederatedTokenTooLong
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	idToken, err := v.verifier.Verify(oidc.ClientContext(ctx, v.httpClient), rawToken)
	if err != nil {
		return nil, fmt.Errorf("verify google id token: %w", err)
	}
	if !slices.Contains(googleIssuers, idToken.Issuer) {
		return nil, fmt.Errorf("verify google id token: unexpected issuer %q", idToken.Issuer)
	}

	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode google id token claims: %w", err)
	}

	return &FederatedIdentity{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		FirstName:     claims.GivenName,
		LastName:      claims.FamilyName,
	}, nil
}

// AuthCodeURL builds the consent URL for the code flow.
func (v *GoogleVerifier) AuthCodeURL(state string) (string, error) {
	if v.oauth == nil {
		return "", ErrMisconfigured
	}
	return v.oauth.AuthCodeURL(state), nil
}

// ExchangeCode trades an authorization code for the ID token Google returns alongside the access token.
func (v *GoogleVerifier) ExchangeCode(ctx context.Context, code string) (string, error) {
	if v.oauth == nil {
		return "", ErrMisconfigured
	}
	if code == "" {
		return "", ErrIdentityIncomplete
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	tok, err := v.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, v.httpClient), code)
	if err != nil {
		return "", fmt.Errorf("exchange google code: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", errors.New("exchange google code: response has no id_token")
	}
	return raw, nil
}

type googleClaims struct {
	Email         string     `json:"email"`
	EmailVerified stringBool `json:"email_verified"`
	GivenName     string     `json:"given_name"`
	FamilyName    string     `json:"family_name"`
}

// stringBool accepts both true and "true"; older Google tokens encode
// email_verified as a string.
type stringBool bool

func (b *stringBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = stringBool(t)
	case string:
		*b = stringBool(t == "true")
	default:
		*b = false
	}
	return nil
}

var (
	_ IdentityVerifier = (*GoogleVerifier)(nil)
	_ CodeExchanger    = (*GoogleVerifier)(nil)
)
