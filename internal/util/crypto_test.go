package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Argon2Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestPasswordHasher_Hash(t *testing.T) {
	h := NewPasswordHasher(testParams)

	t.Run("encodes algorithm and parameters", func(t *testing.T) {
		hash, err := h.Hash("correct horse")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"), hash)
		assert.Len(t, strings.Split(hash, "$"), 6)
	})

	t.Run("salts every hash", func(t *testing.T) {
		hash1, err := h.Hash("correct horse")
		require.NoError(t, err)
		hash2, err := h.Hash("correct horse")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("does not contain the password", func(t *testing.T) {
		hash, err := h.Hash("correct horse")
		require.NoError(t, err)
		assert.NotContains(t, hash, "correct horse")
	})
}

func TestPasswordHasher_Verify(t *testing.T) {
	h := NewPasswordHasher(testParams)
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	t.Run("accepts matching password", func(t *testing.T) {
		assert.True(t, h.Verify("correct horse", hash))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		assert.False(t, h.Verify("battery staple", hash))
		assert.False(t, h.Verify("", hash))
	})

	t.Run("reads parameters from the hash", func(t *testing.T) {
		other := NewPasswordHasher(Argon2Params{Time: 2, Memory: 128, Threads: 2, KeyLen: 16, SaltLen: 8})
		assert.True(t, other.Verify("correct horse", hash))
	})

	t.Run("rejects malformed hashes without panicking", func(t *testing.T) {
		malformed := []string{
			"",
			"correct horse",
			"$argon2id$v=19$m=64,t=1,p=1$salt",
			"$argon2i$v=19$m=64,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5",
			"$argon2id$v=16$m=64,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5",
			"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5",
			"$argon2id$v=19$garbage$c2FsdHNhbHRzYWx0$a2V5",
			"$argon2id$v=19$m=64,t=1,p=1$!!!$a2V5",
			"$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHRzYWx0$",
			"$2a$10$abcdefghijklmnopqrstuu",
		}
		for _, m := range malformed {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("correct horse", m), m)
			})
		}
	})

	t.Run("rejects tampered key", func(t *testing.T) {
		parts := strings.Split(hash, "$")
		key := []byte(parts[5])
		if key[0] == 'A' {
			key[0] = 'B'
		} else {
			key[0] = 'A'
		}
		parts[5] = string(key)
		assert.False(t, h.Verify("correct horse", strings.Join(parts, "$")))
	})
}
