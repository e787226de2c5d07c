package jwt

import (
	"net/http"
	"strings"
)

// BearerScheme is the case-sensitive scheme token expected in the Authorization header.
const BearerScheme = "Bearer"

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is matched case-sensitively and must be followed by exactly one
// space and a non-empty token with no further segments.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != BearerScheme || parts[1] == "" {
		return "", ErrMalformedHeader
	}

	return parts[1], nil
}
