package auth

import "errors"

// Authentication outcomes. Callers only ever see these, never the cause.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("account already exists")
	ErrMisconfigured      = errors.New("authentication method not configured")
)

// Directory errors
var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidAccount        = errors.New("account must have a password or a federated identity")
	ErrFederatedIDMismatch   = errors.New("account is linked to another federated identity")
	ErrIdentityIncomplete    = errors.New("federated identity has no subject")
	ErrUnverifiedEmail       = errors.New("email not verified by provider")
	ErrFederatedTokenTooLong = errors.New("federated token exceeds maximum length")
)

// Sign-up validation errors
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password does not meet length requirements")
)

// Configuration errors
var (
	ErrInvalidConfig = errors.New("invalid auth configuration")
)
