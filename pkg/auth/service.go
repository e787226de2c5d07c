package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/contentauth/pkg/logger"
)

// MinPasswordLength is the shortest password accepted on sign-up.
const MinPasswordLength = 8

// dummyPassword is hashed once so that sign-in spends the same time on
// unknown accounts as on wrong passwords.
const dummyPassword = "contentauth-timing-equalizer"

// fallbackDummyDigest is a well-formed bcrypt salt and checksum used when the
// hasher cannot produce a dummy digest at construction.
const fallbackDummyDigest = "N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Service implements the credential, refresh and federated sign-in flows.
type Service struct {
	directory       Directory
	hasher          Hasher
	tokens          *TokenIssuer
	verifier        IdentityVerifier
	denylist        Denylist
	revokeOnRefresh bool
	logger          *slog.Logger
	now             func() time.Time
	dummyHash       string
}

// Option configures a Service during construction.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHasher overrides the password hasher. Defaults to bcrypt at bcrypt.DefaultCost.
func WithHasher(h Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithTokenIssuer enables token issuance. Without it every flow returns ErrMisconfigured.
func WithTokenIssuer(t *TokenIssuer) Option {
	return func(s *Service) { s.tokens = t }
}

// WithIdentityVerifier enables federated sign-in.
func WithIdentityVerifier(v IdentityVerifier) Option {
	return func(s *Service) { s.verifier = v }
}

// WithDenylist enables refresh token revocation.
func WithDenylist(d Denylist) Option {
	return func(s *Service) { s.denylist = d }
}

// WithRevokeOnRefresh revokes the presented refresh token on every rotation.
// Has no effect without a denylist.
func WithRevokeOnRefresh(enabled bool) Option {
	return func(s *Service) { s.revokeOnRefresh = enabled }
}

// WithClock overrides the time source used for account timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the authentication service over directory.
func NewService(directory Directory, opts ...Option) *Service {
	s := &Service{
		directory: directory,
		logger:    logger.Noop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hasher == nil {
		s.hasher = NewBcryptHasher(0)
	}

	dummy, err := s.hasher.Hash(dummyPassword)
	if err != nil || dummy == "" {
		s.logger.Error("failed to prepare timing equalizer hash, using fallback digest",
			logger.Error(err), logger.Component("auth"))
		dummy = fallbackDigest(s.hasher)
	}
	s.dummyHash = dummy

	return s
}

// fallbackDigest keeps the dummy comparison at the hasher's work factor when it exposes one.
func fallbackDigest(h Hasher) string {
	cost := bcrypt.DefaultCost
	if c, ok := h.(interface{ Cost() int }); ok {
		cost = c.Cost()
	}
	return fmt.Sprintf("$2a$%02d$%s", cost, fallbackDummyDigest)
}

// SignUpInput carries the fields of a credential sign-up.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// SignUp creates a local account and issues its first token pair.
// A taken email yields ErrConflict.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*TokenPair, error) {
	if s.tokens == nil {
		return nil, ErrMisconfigured
	}

	email := NormalizeEmail(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < MinPasswordLength || len(in.Password) > MaxPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	account := &Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.directory.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return s.issue(ctx, account, "signup")
}

// SignIn verifies email and password and issues a token pair.
// Unknown email, account without password and wrong password all return
// ErrInvalidCredentials after the same amount of hashing work.
func (s *Service) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	if s.tokens == nil {
		return nil, ErrMisconfigured
	}

	account, err := s.directory.GetAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			return nil, fmt.Errorf("failed to look up account: %w", err)
		}
		s.hasher.Verify(password, s.dummyHash)
		s.reject(ctx, "signin", "unknown email")
		return nil, ErrInvalidCredentials
	}

	if !account.HasPassword() {
		s.hasher.Verify(password, s.dummyHash)
		s.reject(ctx, "signin", "account has no password", logger.AccountID(account.ID))
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		s.reject(ctx, "signin", "password mismatch", logger.AccountID(account.ID))
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, account, "signin")
}

// Refresh verifies a refresh token and issues a brand-new pair for its subject.
// Any verification failure or a missing account yields ErrUnauthorized.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if s.tokens == nil {
		return nil, ErrMisconfigured
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.reject(ctx, "refresh", "invalid refresh token", logger.Error(err))
		return nil, ErrUnauthorized
	}

	singleUse := s.denylist != nil && s.revokeOnRefresh
	if s.denylist != nil && !singleUse {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			s.reject(ctx, "refresh", "refresh token revoked", logger.AccountID(claims.Subject))
			return nil, ErrUnauthorized
		}
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		s.reject(ctx, "refresh", "malformed subject", logger.Error(err))
		return nil, ErrUnauthorized
	}

	account, err := s.directory.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.reject(ctx, "refresh", "account no longer exists", logger.AccountID(id))
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	// Claiming also fails for tokens revoked by SignOut.
	if singleUse {
		claimed, err := s.denylist.Claim(ctx, claims.ID, claims.ExpiresAt.Time)
		if err != nil {
			return nil, err
		}
		if !claimed {
			s.reject(ctx, "refresh", "refresh token already used or revoked", logger.AccountID(account.ID))
			return nil, ErrUnauthorized
		}
	}

	return s.issue(ctx, account, "refresh")
}

// SignOut revokes a refresh token. Without a denylist it only validates the
// token, since stateless tokens cannot be retracted.
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	if s.tokens == nil {
		return ErrMisconfigured
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		s.reject(ctx, "signout", "invalid refresh token", logger.Error(err))
		return ErrUnauthorized
	}
	if s.denylist == nil {
		s.logger.DebugContext(ctx, "sign-out without denylist is a no-op",
			logger.AccountID(claims.Subject), logger.Flow("signout"), logger.Component("auth"))
		return nil
	}

	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Account returns the account for a principal subject.
func (s *Service) Account(ctx context.Context, subject string) (*Account, error) {
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	return s.directory.GetAccountByID(ctx, id)
}

func (s *Service) issue(ctx context.Context, account *Account, flow string) (*TokenPair, error) {
	pair, err := s.tokens.GenerateTokenPair(account)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "tokens issued",
		logger.AccountID(account.ID),
		logger.Flow(flow),
		logger.Component("auth"),
	)
	return pair, nil
}

// reject logs the internal reason for an authentication failure.
// The reason never leaves the process.
func (s *Service) reject(ctx context.Context, flow, reason string, attrs ...slog.Attr) {
	args := []any{logger.Flow(flow), logger.Component("auth"), slog.String("reason", reason)}
	for _, a := range attrs {
		args = append(args, a)
	}
	s.logger.InfoContext(ctx, "authentication rejected", args...)
}
