package auth_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/contentauth/pkg/auth"
)

// MockDirectory is a mock implementation of auth.Directory.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetAccountByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Account), args.Error(1)
}

func (m *MockDirectory) GetAccountByEmail(ctx context.Context, email string) (*auth.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Account), args.Error(1)
}

func (m *MockDirectory) GetAccountByFederatedID(ctx context.Context, federatedID string) (*auth.Account, error) {
	args := m.Called(ctx, federatedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Account), args.Error(1)
}

func (m *MockDirectory) CreateAccount(ctx context.Context, account *auth.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockDirectory) LinkFederatedID(ctx context.Context, accountID uuid.UUID, federatedID string) error {
	args := m.Called(ctx, accountID, federatedID)
	return args.Error(0)
}

// MockIdentityVerifier is a mock implementation of auth.IdentityVerifier.
type MockIdentityVerifier struct {
	mock.Mock
}

func (m *MockIdentityVerifier) Provider() string {
	return "mock"
}

func (m *MockIdentityVerifier) VerifyIdentity(ctx context.Context, rawToken string) (*auth.FederatedIdentity, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.FederatedIdentity), args.Error(1)
}

// MockDenylist is a mock implementation of auth.Denylist.
type MockDenylist struct {
	mock.Mock
}

func (m *MockDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	args := m.Called(ctx, tokenID, until)
	return args.Error(0)
}

func (m *MockDenylist) Claim(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	args := m.Called(ctx, tokenID, until)
	return args.Bool(0), args.Error(1)
}

func (m *MockDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// countingHasher records how many comparisons were performed.
type countingHasher struct {
	auth.Hasher
	verifies int
}

func (h *countingHasher) Verify(secret, digest string) bool {
	h.verifies++
	return h.Hasher.Verify(secret, digest)
}

// slowDirectory adds latency to account lookups, like a database round trip.
type slowDirectory struct {
	auth.Directory
	delay time.Duration
}

func (d *slowDirectory) GetAccountByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	time.Sleep(d.delay)
	return d.Directory.GetAccountByID(ctx, id)
}

// brokenHasher fails every Hash call and records the digests it compares against.
type brokenHasher struct {
	auth.Hasher
	digests []string
}

func (h *brokenHasher) Hash(string) (string, error) {
	return "", errors.New("entropy source unavailable")
}

func (h *brokenHasher) Verify(secret, digest string) bool {
	h.digests = append(h.digests, digest)
	return h.Hasher.Verify(secret, digest)
}
