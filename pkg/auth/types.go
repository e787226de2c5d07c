package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account represents a principal known to the directory.
// An account always has a password hash, a federated id, or both.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // empty for pure federated accounts
	FederatedID  string // empty for pure local accounts
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// IsFederated reports whether the account is linked to a federated identity.
func (a *Account) IsFederated() bool {
	return a.FederatedID != ""
}

// Validate checks the credential invariant.
func (a *Account) Validate() error {
	if !a.HasPassword() && !a.IsFederated() {
		return ErrInvalidAccount
	}
	return nil
}

// TokenPair is the result of every successful sign-in or refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// FederatedIdentity is the verified payload of a third-party identity token.
// Name fields are advisory and may be empty.
type FederatedIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
