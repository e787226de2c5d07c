package accountstore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/google/uuid"

	"github.com/dmitrymomot/contentauth/pkg/auth"
	"github.com/dmitrymomot/contentauth/pkg/pg"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the schema migrations rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const selectColumns = `SELECT id, email, password_hash, federated_id, first_name, last_name, created_at FROM accounts`

// Store is a PostgreSQL auth.Directory. Uniqueness of email and federated id
// is enforced by the database, which keeps concurrent creates atomic.
type Store struct {
	db *sql.DB
}

// New creates a store over db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetAccountByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	return s.getOne(ctx, selectColumns+` WHERE id = $1`, id)
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return s.getOne(ctx, selectColumns+` WHERE lower(email) = $1`, auth.NormalizeEmail(email))
}

func (s *Store) GetAccountByFederatedID(ctx context.Context, federatedID string) (*auth.Account, error) {
	if federatedID == "" {
		return nil, auth.ErrAccountNotFound
	}
	return s.getOne(ctx, selectColumns+` WHERE federated_id = $1`, federatedID)
}

func (s *Store) CreateAccount(ctx context.Context, account *auth.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, federated_id, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID,
		nullString(auth.NormalizeEmail(account.Email)),
		nullString(account.PasswordHash),
		nullString(account.FederatedID),
		account.FirstName,
		account.LastName,
		account.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return auth.ErrConflict
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *Store) LinkFederatedID(ctx context.Context, accountID uuid.UUID, federatedID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET federated_id = $2 WHERE id = $1 AND (federated_id IS NULL OR federated_id = $2)`,
		accountID, federatedID,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return auth.ErrConflict
		}
		return fmt.Errorf("failed to link federated id: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to link federated id: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing updated: the account is missing or linked elsewhere.
	if _, err := s.GetAccountByID(ctx, accountID); err != nil {
		return err
	}
	return auth.ErrFederatedIDMismatch
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (*auth.Account, error) {
	var (
		a                        auth.Account
		email, hash, federatedID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &email, &hash, &federatedID, &a.FirstName, &a.LastName, &a.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	a.Email = email.String
	a.PasswordHash = hash.String
	a.FederatedID = federatedID.String
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ auth.Directory = (*Store)(nil)
