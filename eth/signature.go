package eth

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrMalformedSignature is returned for signatures that cannot be decoded,
// have the wrong length, or carry an invalid recovery id.
var ErrMalformedSignature = errors.New("malformed signature")

// Recover returns the address that produced signature over message, under
// EIP-191 personal-sign semantics: the message is prefixed with
// "\x19Ethereum Signed Message:\n" + len(message) before hashing, matching
// what wallets sign. A signature over the unprefixed message will recover a
// different address and fail any later comparison.
func Recover(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedSignature, crypto.SignatureLength, len(sig))
	}

	// Wallets emit V as 27/28; crypto.SigToPub wants 0/1.
	v := sig[crypto.RecoveryIDOffset]
	if v == 27 || v == 28 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, fmt.Errorf("%w: invalid recovery id %d", ErrMalformedSignature, sig[crypto.RecoveryIDOffset])
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	normalized[crypto.RecoveryIDOffset] = v

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignature reports whether signature over message was produced by
// claimedAddress. Comparison ignores checksum casing.
func VerifySignature(message, signature, claimedAddress string) bool {
	recovered, err := Recover(message, signature)
	if err != nil {
		return false
	}
	return recovered == common.HexToAddress(claimedAddress)
}
