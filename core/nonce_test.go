package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNonce(t *testing.T) {
	nonce, err := GenerateNonce()
	require.NoError(t, err)

	// 24 random bytes, base64url without padding.
	assert.Len(t, nonce, 32)
	assert.NotContains(t, nonce, "=")
	assert.NotContains(t, nonce, "+")
	assert.NotContains(t, nonce, "/")
}

func TestGenerateNonce_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		nonce, err := GenerateNonce()
		require.NoError(t, err)
		assert.False(t, seen[nonce], "nonce collision")
		seen[nonce] = true
	}
}
