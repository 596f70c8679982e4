// Package siwe builds and inspects EIP-4361 (Sign-In with Ethereum)
// messages. Only the subset of the grammar this protocol uses is supported,
// and the serialization is canonical: for a given field set there is exactly
// one valid byte sequence, so a verifier can reconstruct the expected text
// from server-known fields instead of trusting the inbound blob.
package siwe

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Version is the only EIP-4361 version this codec produces or accepts.
const Version = "1"

const timeLayout = time.RFC3339

var (
	// ErrFieldMissing is returned when an extractor cannot find its field.
	ErrFieldMissing = errors.New("siwe: field missing")

	// ErrFieldMalformed is returned when a field is present but unparseable.
	ErrFieldMalformed = errors.New("siwe: field malformed")
)

// BuildMessage renders the canonical message text. Field order and literal
// separators are fixed; the same inputs always yield byte-identical output.
func BuildMessage(domain, address, statement, uri string, chainID int64, nonce string, issuedAt, expirationTime time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n", domain)
	fmt.Fprintf(&b, "%s\n", address)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", statement)
	b.WriteString("\n")
	fmt.Fprintf(&b, "URI: %s\n", uri)
	fmt.Fprintf(&b, "Version: %s\n", Version)
	fmt.Fprintf(&b, "Chain ID: %d\n", chainID)
	fmt.Fprintf(&b, "Nonce: %s\n", nonce)
	fmt.Fprintf(&b, "Issued At: %s\n", issuedAt.UTC().Format(timeLayout))
	fmt.Fprintf(&b, "Expiration Time: %s", expirationTime.UTC().Format(timeLayout))
	return b.String()
}

// NonceOf extracts the Nonce field.
func NonceOf(message string) (string, error) {
	return fieldOf(message, "Nonce")
}

// IssuedAtOf extracts and parses the Issued At field.
func IssuedAtOf(message string) (time.Time, error) {
	return timeFieldOf(message, "Issued At")
}

// ExpirationOf extracts and parses the Expiration Time field.
func ExpirationOf(message string) (time.Time, error) {
	return timeFieldOf(message, "Expiration Time")
}

func fieldOf(message, name string) (string, error) {
	prefix := name + ": "
	for _, line := range strings.Split(message, "\n") {
		if strings.HasPrefix(line, prefix) {
			value := strings.TrimPrefix(line, prefix)
			if value == "" {
				return "", fmt.Errorf("%w: %s", ErrFieldMalformed, name)
			}
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrFieldMissing, name)
}

func timeFieldOf(message, name string) (time.Time, error) {
	raw, err := fieldOf(message, name)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrFieldMalformed, name, err)
	}
	return ts, nil
}
