package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contentauth/pkg/auth"
)

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	h := newHasher()

	t.Run("verifies matching secret", func(t *testing.T) {
		t.Parallel()

		digest, err := h.Hash("correct horse")
		require.NoError(t, err)
		assert.NotEqual(t, "correct horse", digest)
		assert.True(t, h.Verify("correct horse", digest))
		assert.False(t, h.Verify("wrong horse", digest))
	})

	t.Run("salts every digest", func(t *testing.T) {
		t.Parallel()

		a, err := h.Hash("same secret")
		require.NoError(t, err)
		b, err := h.Hash("same secret")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("rejects secrets over the bcrypt limit", func(t *testing.T) {
		t.Parallel()

		_, err := h.Hash(strings.Repeat("x", auth.MaxPasswordLength+1))
		require.ErrorIs(t, err, auth.ErrWeakPassword)
	})

	t.Run("never matches an empty or garbage digest", func(t *testing.T) {
		t.Parallel()

		assert.False(t, h.Verify("anything", ""))
		assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		t.Parallel()

		digest, err := auth.NewBcryptHasher(100).Hash("secret-value")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(digest, "$2a$10$"))
	})
}
