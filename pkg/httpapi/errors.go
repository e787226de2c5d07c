package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/contentauth/pkg/auth"
	"github.com/dmitrymomot/contentauth/pkg/validator"
)

// HTTPError is an error with the status and machine-readable code it is reported with.
// Message is safe to show to clients.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e HTTPError) Error() string {
	return e.Code
}

var (
	ErrBadRequest           = HTTPError{Status: http.StatusBadRequest, Code: "bad_request", Message: "Malformed request body"}
	ErrUnsupportedMediaType = HTTPError{Status: http.StatusUnsupportedMediaType, Code: "unsupported_media_type", Message: "Expected application/json"}
	ErrRequestTooLarge      = HTTPError{Status: http.StatusRequestEntityTooLarge, Code: "request_too_large", Message: "Request body too large"}
	ErrInvalidCredentials   = HTTPError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Invalid credentials"}
	ErrUnauthorized         = HTTPError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "Unauthorized"}
	ErrNotFound             = HTTPError{Status: http.StatusNotFound, Code: "not_found", Message: "Not found"}
	ErrMethodNotAllowed     = HTTPError{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed", Message: "Method not allowed"}
	ErrConflict             = HTTPError{Status: http.StatusConflict, Code: "conflict", Message: "Account already exists"}
	ErrValidation           = HTTPError{Status: http.StatusUnprocessableEntity, Code: "validation_failed", Message: "Validation failed"}
	ErrFeatureUnavailable   = HTTPError{Status: http.StatusServiceUnavailable, Code: "feature_unavailable", Message: "This sign-in method is not available"}
	ErrInternal             = HTTPError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "Internal server error"}
)

// Flow outcomes reported to metrics.
const (
	outcomeSuccess     = "success"
	outcomeRejected    = "rejected"
	outcomeConflict    = "conflict"
	outcomeInvalid     = "invalid"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// classify maps a service or binding error to its response and metric outcome.
// Unknown errors become ErrInternal; their text never reaches the client.
func classify(err error) (HTTPError, map[string][]string, string) {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr, nil, outcomeInvalid
	case validator.IsValidationError(err):
		return ErrValidation, validator.ExtractValidationErrors(err).Map(), outcomeInvalid
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ErrInvalidCredentials, nil, outcomeRejected
	case errors.Is(err, auth.ErrUnauthorized):
		return ErrUnauthorized, nil, outcomeRejected
	case errors.Is(err, auth.ErrConflict):
		return ErrConflict, nil, outcomeConflict
	case errors.Is(err, auth.ErrMisconfigured):
		return ErrFeatureUnavailable, nil, outcomeUnavailable
	case errors.Is(err, auth.ErrInvalidEmail):
		return ErrValidation, map[string][]string{"email": {"must be a valid email address"}}, outcomeInvalid
	case errors.Is(err, auth.ErrWeakPassword):
		return ErrValidation, map[string][]string{"password": {"must be between 8 and 72 bytes"}}, outcomeInvalid
	default:
		return ErrInternal, nil, outcomeError
	}
}
