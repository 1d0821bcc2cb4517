package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2", 4) // min cost keeps the test fast
	require.NoError(t, err)
	require.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, VerifyPassword(hash, "hunter2hunter2"))
	assert.False(t, VerifyPassword(hash, "wrong-password"))
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "whatever"))
	assert.False(t, VerifyPassword("", "whatever"))
}

func TestHashPasswordDistinctSalts(t *testing.T) {
	a, err := HashPassword("same-password", 4)
	require.NoError(t, err)
	b, err := HashPassword("same-password", 4)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
