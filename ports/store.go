package ports

import "context"

// NonceStore holds single-use, time-boxed nonces bound to a wallet address.
// Addresses are lowercase-normalized by implementations so comparison rules
// match between Store and Verify.
type NonceStore interface {
	// Store persists a nonce record for the given address. Storing the same
	// nonce twice silently overwrites.
	Store(ctx context.Context, nonce, walletAddress string) error

	// Verify reports whether an unconsumed, unexpired record exists for the
	// nonce and address. It does not mutate state.
	Verify(ctx context.Context, nonce, walletAddress string) (bool, error)

	// Consume atomically verifies and deletes the record. Exactly one of two
	// concurrent callers presenting the same valid nonce observes true.
	Consume(ctx context.Context, nonce, walletAddress string) (bool, error)

	// Delete removes the record. Deleting a missing nonce is not an error.
	Delete(ctx context.Context, nonce string) error
}
