package auth

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/contentauth/pkg/jwt"
)

// refreshKeyPurpose binds refresh tokens to their own derived key so an access
// token is never accepted by the refresh flow and vice versa.
const refreshKeyPurpose = "refresh-token"

// TokenIssuer mints and verifies access/refresh token pairs.
type TokenIssuer struct {
	access     *jwt.Service
	refresh    *jwt.Service
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer builds access and refresh signers sharing issuer and audience.
// Extra jwt options (for example a test clock) apply to both.
func NewTokenIssuer(cfg Config, opts ...jwt.Option) (*TokenIssuer, error) {
	if !cfg.TokensEnabled() {
		return nil, fmt.Errorf("%w: %w", ErrMisconfigured, jwt.ErrMissingSigningKey)
	}

	base := append([]jwt.Option{
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithLeeway(cfg.ClockSkew),
	}, opts...)

	access, err := jwt.New([]byte(cfg.SigningSecret), base...)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token signer: %w", err)
	}

	refreshKey, err := jwt.DeriveKey([]byte(cfg.SigningSecret), refreshKeyPurpose)
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.New(refreshKey, base...)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token signer: %w", err)
	}

	return &TokenIssuer{
		access:     access,
		refresh:    refresh,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// GenerateTokenPair issues a fresh access/refresh pair for account.
// The access token carries the email claim; the refresh token carries the subject only.
func (t *TokenIssuer) GenerateTokenPair(account *Account) (*TokenPair, error) {
	sub := account.ID.String()

	accessToken, accessExp, err := t.access.Issue(jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: sub},
		Email:            account.Email,
	}, t.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, refreshExp, err := t.refresh.Issue(jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: sub},
	}, t.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccess validates an access token. Pure CPU, no I/O.
func (t *TokenIssuer) VerifyAccess(token string) (*jwt.Claims, error) {
	return t.access.Verify(token)
}

// VerifyRefresh validates a refresh token.
func (t *TokenIssuer) VerifyRefresh(token string) (*jwt.Claims, error) {
	return t.refresh.Verify(token)
}
