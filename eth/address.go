package eth

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether address is a 0x-prefixed 40-hex-character
// string with a correct EIP-55 checksum. All-lowercase and all-uppercase
// inputs carry no checksum and are accepted as-is. Syntax errors and
// checksum mismatches are indistinguishable to the caller.
func ValidAddress(address string) bool {
	if !addressPattern.MatchString(address) {
		return false
	}
	digits := address[2:]
	if digits == strings.ToLower(digits) || digits == strings.ToUpper(digits) {
		return true
	}
	return common.HexToAddress(address).Hex() == address
}

// Checksum returns the EIP-55 checksummed canonical form of the address.
func Checksum(address string) string {
	return common.HexToAddress(address).Hex()
}

// Normalize lowercases an address for comparison and storage keys.
func Normalize(address string) string {
	return strings.ToLower(address)
}
