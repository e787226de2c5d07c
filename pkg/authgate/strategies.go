package authgate

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/contentauth/pkg/jwt"
)

// Strategy authenticates a request by one mechanism.
// A failure is reported as an error and never aborts the request by itself.
type Strategy interface {
	Name() string
	Authenticate(r *http.Request) (*Principal, error)
}

// AccessVerifier validates access tokens. *auth.TokenIssuer implements it.
type AccessVerifier interface {
	VerifyAccess(token string) (*jwt.Claims, error)
}

// BearerStrategy accepts "Authorization: Bearer <access token>".
type BearerStrategy struct {
	verifier AccessVerifier
}

// NewBearerStrategy creates the bearer strategy. A nil verifier fails every request.
func NewBearerStrategy(v AccessVerifier) *BearerStrategy {
	return &BearerStrategy{verifier: v}
}

func (s *BearerStrategy) Name() string { return StrategyBearer }

func (s *BearerStrategy) Authenticate(r *http.Request) (*Principal, error) {
	token, err := jwt.BearerToken(r)
	if err != nil {
		return nil, err
	}
	if s.verifier == nil {
		return nil, ErrNoVerifier
	}

	claims, err := s.verifier.VerifyAccess(token)
	if err != nil {
		return nil, err
	}

	p := &Principal{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Strategy: StrategyBearer,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// APIKeyHeader carries service credentials.
const APIKeyHeader = "X-API-Key"

type serviceKey struct {
	name   string
	digest [sha256.Size]byte
}

// APIKeyStrategy accepts static service keys sent in the X-API-Key header.
type APIKeyStrategy struct {
	keys []serviceKey
}

// NewAPIKeyStrategy parses "name:key" pairs.
func NewAPIKeyStrategy(pairs []string) (*APIKeyStrategy, error) {
	s := &APIKeyStrategy{keys: make([]serviceKey, 0, len(pairs))}
	for _, pair := range pairs {
		name, key, ok := strings.Cut(pair, ":")
		if !ok || name == "" || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeySpec, name)
		}
		s.keys = append(s.keys, serviceKey{name: name, digest: sha256.Sum256([]byte(key))})
	}
	return s, nil
}

func (s *APIKeyStrategy) Name() string { return StrategyAPIKey }

// Authenticate compares the presented key against every configured key so the
// time spent does not depend on which key matched.
func (s *APIKeyStrategy) Authenticate(r *http.Request) (*Principal, error) {
	presented := r.Header.Get(APIKeyHeader)
	if presented == "" {
		return nil, ErrMissingAPIKey
	}

	digest := sha256.Sum256([]byte(presented))
	match := ""
	for _, k := range s.keys {
		if subtle.ConstantTimeCompare(digest[:], k.digest[:]) == 1 {
			match = k.name
		}
	}
	if match == "" {
		return nil, ErrInvalidAPIKey
	}

	return &Principal{Subject: "service:" + match, Strategy: StrategyAPIKey}, nil
}

var (
	_ Strategy = (*BearerStrategy)(nil)
	_ Strategy = (*APIKeyStrategy)(nil)
)
