package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines standard claims with the grant-specific ones.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}
