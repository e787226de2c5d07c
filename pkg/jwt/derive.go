package jwt

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// derivedKeyLength matches the SHA-256 block output used by HS256.
const derivedKeyLength = 32

// DeriveKey derives a purpose-bound signing key from secret with HKDF-SHA256.
// Tokens signed with keys derived for different purposes never verify against each other.
func DeriveKey(secret []byte, purpose string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSigningKey
	}

	key := make([]byte, derivedKeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", purpose, err)
	}
	return key, nil
}
