package tokenizer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/proofoftom/walletgate/core"
	"github.com/proofoftom/walletgate/ports"
)

const AudienceSession = "session:access"

// DefaultSessionExpiry is the lifetime of a minted session grant.
const DefaultSessionExpiry = 5 * time.Minute

// JWTTokenizer implements the SessionFinalizer interface by minting ES256
// session tokens for verified accounts.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	expiry  time.Duration
}

// NewJWTTokenizer creates a new JWT session finalizer.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.SessionFinalizer {
	return &JWTTokenizer{signKey: signKey, expiry: DefaultSessionExpiry}
}

// FinalizeSession mints the session grant for an authenticated account.
func (j *JWTTokenizer) FinalizeSession(ctx context.Context, account *core.Account) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Audience:  jwt.ClaimStrings{AudienceSession},
		},
		Username: account.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signedToken, nil
}

// ParseSession parses and validates a session token, returning its claims.
func (j *JWTTokenizer) ParseSession(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceSession))

	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}
	return claims, nil
}
