package core

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// nonceBytes gives 192 bits of entropy, comfortably above the 128-bit floor
// for single-use tokens.
const nonceBytes = 24

// GenerateNonce returns a URL-safe random nonce. It is never derived from
// time or counters.
func GenerateNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
