package core

import "errors"

var (
	// ErrInvalidAddress is returned when a wallet address fails syntax or
	// checksum validation.
	ErrInvalidAddress = errors.New("invalid wallet address")

	// ErrRateLimited is returned when a client has exceeded its window budget.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidCsrf is returned when the anti-forgery token does not validate
	// for the wallet_auth scope.
	ErrInvalidCsrf = errors.New("invalid csrf token")

	// ErrInvalidSignature covers bad signatures, bad or expired or mismatched
	// nonces, and expired messages. The sub-cause is never exposed.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInternal is returned for store, directory, or unexpected failures.
	// Detail stays in the logs, never in the response.
	ErrInternal = errors.New("internal error")

	// ErrAccountNotFound is returned by a UserDirectory when no account is
	// linked to the given wallet address.
	ErrAccountNotFound = errors.New("account not found")

	// ErrWalletDisabled is returned by a UserDirectory when the wallet link
	// exists but has been administratively deactivated.
	ErrWalletDisabled = errors.New("wallet link disabled")

	// ErrStoreOperationFailed marks an infrastructure failure in a backing
	// store, as opposed to a validation failure.
	ErrStoreOperationFailed = errors.New("store operation failed")

	// ErrWalletAlreadyLinked is returned by a UserDirectory when creating a
	// link for an address that is already linked. Losers of a concurrent
	// first-time race see this and fall back to the lookup path.
	ErrWalletAlreadyLinked = errors.New("wallet already linked")
)
