package auth

import (
	"context"

	"github.com/google/uuid"
)

// Directory looks up and creates accounts.
// Lookups return ErrAccountNotFound when no account matches.
type Directory interface {
	GetAccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountByFederatedID(ctx context.Context, federatedID string) (*Account, error)

	// CreateAccount inserts the account or fails with ErrConflict when the email
	// or federated id is already taken. It must be atomic.
	CreateAccount(ctx context.Context, account *Account) error

	// LinkFederatedID attaches a federated id to an existing account.
	// It fails with ErrConflict when the id belongs to another account and with
	// ErrFederatedIDMismatch when the account is already linked to a different id.
	LinkFederatedID(ctx context.Context, accountID uuid.UUID, federatedID string) error
}
