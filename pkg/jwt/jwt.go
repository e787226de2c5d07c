package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MaxLeeway bounds the clock skew tolerated on expiry.
const MaxLeeway = 30 * time.Second

// Claims is the payload carried by every token issued by Service.
// Email is set on access tokens only.
type Claims struct {
	Email string `json:"email,omitempty"`
	gojwt.RegisteredClaims
}

// Service signs and verifies HS256 tokens bound to one issuer and audience.
// The signing key is kept in memory only.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	leeway     time.Duration
	now        func() time.Time
	parser     *gojwt.Parser
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer sets the iss claim written on issue and required on verify.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithAudience sets the aud claim written on issue and required on verify.
func WithAudience(audience string) Option {
	return func(s *Service) { s.audience = audience }
}

// WithLeeway sets the clock skew tolerated when checking expiry.
// Values outside [0, MaxLeeway] are clamped.
func WithLeeway(d time.Duration) Option {
	return func(s *Service) { s.leeway = min(max(d, 0), MaxLeeway) }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a token service with the provided signing key.
// The key should be at least 32 bytes for adequate security with HMAC-SHA256.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		signingKey: signingKey,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	parserOpts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(s.leeway),
		gojwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, gojwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		parserOpts = append(parserOpts, gojwt.WithAudience(s.audience))
	}
	s.parser = gojwt.NewParser(parserOpts...)

	return s, nil
}

// Issue signs claims valid for ttl from now.
// Subject is required; iat, exp, iss, aud and jti are filled in by the service.
func (s *Service) Issue(claims Claims, ttl time.Duration) (string, time.Time, error) {
	if claims.Subject == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("%w: ttl must be positive, got %v", ErrInvalidClaims, ttl)
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	claims.IssuedAt = gojwt.NewNumericDate(now)
	claims.ExpiresAt = gojwt.NewNumericDate(expiresAt)
	claims.NotBefore = nil
	claims.Issuer = s.issuer
	claims.Audience = nil
	if s.audience != "" {
		claims.Audience = gojwt.ClaimStrings{s.audience}
	}
	claims.ID = uuid.NewString()

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, claims.ExpiresAt.Time, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry, then returns the claims.
// Every failure is reported as ErrExpiredToken or ErrInvalidToken.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*gojwt.Token) (any, error) {
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, ErrMissingSubject)
	}

	return claims, nil
}
