package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/contentauth/pkg/logger"
)

// IdentityVerifier validates a third-party identity token and returns its payload.
type IdentityVerifier interface {
	Provider() string
	VerifyIdentity(ctx context.Context, rawToken string) (*FederatedIdentity, error)
}

// CodeExchanger trades an authorization code for a raw identity token.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// FederatedSignIn verifies a provider identity token, finds or creates the
// matching account and issues a token pair.
func (s *Service) FederatedSignIn(ctx context.Context, rawToken string) (*TokenPair, error) {
	if s.verifier == nil || s.tokens == nil {
		return nil, ErrMisconfigured
	}

	identity, err := s.verifier.VerifyIdentity(ctx, rawToken)
	if err != nil {
		s.reject(ctx, "federated", "identity token rejected", logger.Provider(s.verifier.Provider()), logger.Error(err))
		return nil, ErrUnauthorized
	}
	identity.Email = NormalizeEmail(identity.Email)

	// Email is required even for linked subjects: a payload without one is
	// treated as malformed rather than trusted on the subject alone.
	if identity.Subject == "" || identity.Email == "" {
		s.reject(ctx, "federated", "identity incomplete", logger.Provider(s.verifier.Provider()), logger.Error(ErrIdentityIncomplete))
		return nil, ErrUnauthorized
	}

	account, err := s.resolveFederated(ctx, identity)
	if err != nil {
		return nil, err
	}

	if account.Email != identity.Email {
		s.logger.WarnContext(ctx, "federated email differs from stored email",
			logger.AccountID(account.ID),
			logger.Provider(s.verifier.Provider()),
			logger.Flow("federated"),
			logger.Component("auth"),
		)
	}

	return s.issue(ctx, account, "federated")
}

// FederatedSignInWithCode exchanges an authorization code for an identity
// token and continues with FederatedSignIn.
func (s *Service) FederatedSignInWithCode(ctx context.Context, code string) (*TokenPair, error) {
	exchanger, ok := s.verifier.(CodeExchanger)
	if !ok || s.tokens == nil {
		return nil, ErrMisconfigured
	}

	rawToken, err := exchanger.ExchangeCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrMisconfigured) {
			return nil, ErrMisconfigured
		}
		s.reject(ctx, "federated", "code exchange failed", logger.Provider(s.verifier.Provider()), logger.Error(err))
		return nil, ErrUnauthorized
	}

	return s.FederatedSignIn(ctx, rawToken)
}

// resolveFederated finds the account linked to identity, links an existing
// account by verified email, or creates a new one.
func (s *Service) resolveFederated(ctx context.Context, identity *FederatedIdentity) (*Account, error) {
	account, err := s.directory.GetAccountByFederatedID(ctx, identity.Subject)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to look up federated account: %w", err)
	}

	if !identity.EmailVerified {
		s.reject(ctx, "federated", "no linked account and email unverified",
			logger.Provider(s.verifier.Provider()), logger.Error(ErrUnverifiedEmail))
		return nil, ErrUnauthorized
	}

	existing, err := s.directory.GetAccountByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		return s.linkFederated(ctx, existing, identity)
	case !errors.Is(err, ErrAccountNotFound):
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	account = &Account{
		ID:          uuid.New(),
		Email:       identity.Email,
		FederatedID: identity.Subject,
		FirstName:   identity.FirstName,
		LastName:    identity.LastName,
		CreatedAt:   s.now().UTC(),
	}
	err = s.directory.CreateAccount(ctx, account)
	if err == nil {
		s.logger.InfoContext(ctx, "federated account created",
			logger.AccountID(account.ID), logger.Provider(s.verifier.Provider()), logger.Component("auth"))
		return account, nil
	}
	if !errors.Is(err, ErrConflict) {
		return nil, fmt.Errorf("failed to create federated account: %w", err)
	}

	return s.retryFederatedLookup(ctx, identity.Subject)
}

func (s *Service) linkFederated(ctx context.Context, account *Account, identity *FederatedIdentity) (*Account, error) {
	if account.IsFederated() {
		s.reject(ctx, "federated", "email owned by another federated identity",
			logger.AccountID(account.ID), logger.Error(ErrFederatedIDMismatch))
		return nil, ErrUnauthorized
	}

	err := s.directory.LinkFederatedID(ctx, account.ID, identity.Subject)
	switch {
	case err == nil:
		account.FederatedID = identity.Subject
		s.logger.InfoContext(ctx, "federated identity linked",
			logger.AccountID(account.ID), logger.Provider(s.verifier.Provider()), logger.Component("auth"))
		return account, nil
	case errors.Is(err, ErrConflict):
		return s.retryFederatedLookup(ctx, identity.Subject)
	case errors.Is(err, ErrFederatedIDMismatch):
		s.reject(ctx, "federated", "account linked concurrently to another identity",
			logger.AccountID(account.ID), logger.Error(err))
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("failed to link federated identity: %w", err)
	}
}

// retryFederatedLookup runs exactly one more lookup after losing a creation race.
func (s *Service) retryFederatedLookup(ctx context.Context, subject string) (*Account, error) {
	account, err := s.directory.GetAccountByFederatedID(ctx, subject)
	if err == nil {
		return account, nil
	}
	if errors.Is(err, ErrAccountNotFound) {
		return nil, ErrConflict
	}
	return nil, fmt.Errorf("failed to look up federated account: %w", err)
}
