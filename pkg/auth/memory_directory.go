package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-process Directory for development and tests.
type MemoryDirectory struct {
	mu          sync.RWMutex
	byID        map[uuid.UUID]*Account
	byEmail     map[string]uuid.UUID
	byFederated map[string]uuid.UUID
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byID:        make(map[uuid.UUID]*Account),
		byEmail:     make(map[string]uuid.UUID),
		byFederated: make(map[string]uuid.UUID),
	}
}

func (d *MemoryDirectory) GetAccountByID(_ context.Context, id uuid.UUID) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (d *MemoryDirectory) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	d.mu.RLock()
	id, ok := d.byEmail[NormalizeEmail(email)]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrAccountNotFound
	}
	return d.GetAccountByID(ctx, id)
}

func (d *MemoryDirectory) GetAccountByFederatedID(ctx context.Context, federatedID string) (*Account, error) {
	d.mu.RLock()
	id, ok := d.byFederated[federatedID]
	d.mu.RUnlock()
	if !ok || federatedID == "" {
		return nil, ErrAccountNotFound
	}
	return d.GetAccountByID(ctx, id)
}

func (d *MemoryDirectory) CreateAccount(_ context.Context, account *Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	email := NormalizeEmail(account.Email)
	if _, ok := d.byID[account.ID]; ok {
		return ErrConflict
	}
	if _, ok := d.byEmail[email]; ok && email != "" {
		return ErrConflict
	}
	if _, ok := d.byFederated[account.FederatedID]; ok && account.FederatedID != "" {
		return ErrConflict
	}

	cp := *account
	cp.Email = email
	d.byID[cp.ID] = &cp
	if email != "" {
		d.byEmail[email] = cp.ID
	}
	if cp.FederatedID != "" {
		d.byFederated[cp.FederatedID] = cp.ID
	}
	return nil
}

func (d *MemoryDirectory) LinkFederatedID(_ context.Context, accountID uuid.UUID, federatedID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.byID[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	if owner, ok := d.byFederated[federatedID]; ok {
		if owner == accountID {
			return nil
		}
		return ErrConflict
	}
	if a.FederatedID != "" {
		return ErrFederatedIDMismatch
	}

	a.FederatedID = federatedID
	d.byFederated[federatedID] = accountID
	return nil
}

var _ Directory = (*MemoryDirectory)(nil)
