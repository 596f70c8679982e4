package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proofoftom/walletgate/core"
	"github.com/proofoftom/walletgate/service"
)

// AuthHandlers contains HTTP handlers for the auth endpoints.
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
	}
}

// Challenge handles the challenge-issuance request.
func (h *AuthHandlers) Challenge(c *gin.Context) {
	address := c.Query("wallet_address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet_address is required"})
		return
	}

	challenge, err := h.authService.IssueChallenge(c.Request.Context(), address, c.ClientIP())
	if err != nil {
		status, msg := statusFor(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":      challenge.Nonce,
		"expires_in": int(challenge.ExpiresIn.Seconds()),
		"csrf_token": challenge.CsrfToken,
	})
}

// Login handles the authentication-completion request.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
		Message       string `json:"message" binding:"required"`
		Nonce         string `json:"nonce" binding:"required"`
		CsrfToken     string `json:"csrf_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	grant, err := h.authService.CompleteAuthentication(c.Request.Context(), service.AuthRequest{
		WalletAddress: req.WalletAddress,
		Signature:     req.Signature,
		Message:       req.Message,
		Nonce:         req.Nonce,
		CsrfToken:     req.CsrfToken,
		ClientKey:     c.ClientIP(),
	})
	if err != nil {
		status, msg := statusFor(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"uid":           grant.AccountID,
		"username":      grant.Username,
		"session_token": grant.SessionToken,
	})
}

// Livez is a liveness probe.
func (h *AuthHandlers) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps the error taxonomy onto HTTP statuses with generic
// messages. Internal detail never reaches the response body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid wallet address"
	case errors.Is(err, core.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid signature"
	case errors.Is(err, core.ErrInvalidCsrf):
		return http.StatusForbidden, "invalid csrf token"
	case errors.Is(err, core.ErrRateLimited):
		return http.StatusTooManyRequests, "too many requests"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
