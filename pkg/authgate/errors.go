package authgate

import "errors"

var (
	ErrUnknownStrategy = errors.New("authgate: unknown strategy")
	ErrMissingAPIKey   = errors.New("authgate: missing api key")
	ErrInvalidAPIKey   = errors.New("authgate: invalid api key")
	ErrInvalidKeySpec  = errors.New("authgate: api keys must be name:key pairs")
	ErrNoVerifier      = errors.New("authgate: bearer tokens are not configured")
)
