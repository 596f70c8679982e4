package core

import "time"

// CsrfScope is the scope every anti-forgery token in this protocol is bound to.
const CsrfScope = "wallet_auth"

// Challenge is what the server hands back when a wallet asks to sign in.
type Challenge struct {
	Nonce     string        // single-use random value the wallet must sign
	CsrfToken string        // anti-forgery token bound to CsrfScope
	ExpiresIn time.Duration // how long the nonce stays redeemable
}

// NonceRecord is a stored, time-boxed nonce bound to a wallet address.
type NonceRecord struct {
	Value         string
	WalletAddress string // lowercase-normalized
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// Account is a user account resolved from a verified wallet address.
type Account struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// WalletLink ties a wallet address to an account. The address is unique
// across all accounts; Active=false disables the address without deleting
// its history.
type WalletLink struct {
	WalletAddress string // checksummed canonical form
	AccountID     string
	CreatedAt     time.Time
	LastUsedAt    time.Time
	Active        bool
}

// Grant is the result of a completed authentication.
type Grant struct {
	AccountID    string
	Username     string
	SessionToken string
	IsNew        bool
}

// WalletLinkedEvent is emitted after a wallet address has been durably
// linked to an account. Delivery is best-effort.
type WalletLinkedEvent struct {
	WalletAddress string    `json:"wallet_address"`
	AccountID     string    `json:"account_id"`
	IsNew         bool      `json:"is_new"`
	LinkedAt      time.Time `json:"linked_at"`
}
