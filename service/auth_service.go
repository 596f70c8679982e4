package service

import (
	"context"
	"errors"
	"time"

	"github.com/proofoftom/walletgate/core"
	"github.com/proofoftom/walletgate/csrf"
	"github.com/proofoftom/walletgate/eth"
	"github.com/proofoftom/walletgate/logger"
	"github.com/proofoftom/walletgate/ports"
	"github.com/proofoftom/walletgate/siwe"
)

// Flood event names for the two network operations.
const (
	EventNonce        = "nonce"
	EventAuthenticate = "authenticate"
)

// Config carries the protocol parameters the orchestrator needs. Values are
// read once per request and never mutated.
type Config struct {
	Domain    string
	URI       string
	Statement string
	ChainID   int64
	NonceTTL  time.Duration

	NonceLimit  int
	NonceWindow time.Duration
	AuthLimit   int
	AuthWindow  time.Duration
}

// AuthService is the authentication orchestrator: the state machine that
// composes nonce storage, flood control, CSRF, SIWE reconstruction, and
// signature recovery into challenge issuance and authentication completion.
type AuthService struct {
	nonces    ports.NonceStore
	flood     ports.FloodGuard
	guard     *csrf.Guard
	linker    *AccountLinker
	finalizer ports.SessionFinalizer
	log       *logger.Logger

	cfg Config
	now func() time.Time
}

// NewAuthService creates a new authentication orchestrator.
func NewAuthService(
	nonces ports.NonceStore,
	flood ports.FloodGuard,
	guard *csrf.Guard,
	linker *AccountLinker,
	finalizer ports.SessionFinalizer,
	log *logger.Logger,
	cfg Config,
) *AuthService {
	return &AuthService{
		nonces:    nonces,
		flood:     flood,
		guard:     guard,
		linker:    linker,
		finalizer: finalizer,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// AuthRequest is the input to CompleteAuthentication.
type AuthRequest struct {
	WalletAddress string
	Signature     string
	Message       string
	Nonce         string
	CsrfToken     string
	ClientKey     string
}

// IssueChallenge hands out a fresh nonce and CSRF token for a wallet address.
// Address-format rejections do not register a flood event on this path; the
// authenticate path does. The asymmetry is a deliberate policy carried over
// from the reference behavior.
func (s *AuthService) IssueChallenge(ctx context.Context, walletAddress, clientKey string) (*core.Challenge, error) {
	allowed, err := s.flood.IsAllowed(ctx, EventNonce, clientKey, s.cfg.NonceLimit, s.cfg.NonceWindow)
	if err != nil {
		return nil, s.internal(ctx, EventNonce, clientKey, "flood check failed", err)
	}
	if !allowed {
		return nil, core.ErrRateLimited
	}

	if !eth.ValidAddress(walletAddress) {
		return nil, core.ErrInvalidAddress
	}

	nonce, err := core.GenerateNonce()
	if err != nil {
		return nil, s.internal(ctx, EventNonce, clientKey, "nonce generation failed", err)
	}
	if err := s.nonces.Store(ctx, nonce, walletAddress); err != nil {
		return nil, s.internal(ctx, EventNonce, clientKey, "nonce store failed", err)
	}

	if err := s.flood.Register(ctx, EventNonce, clientKey, s.cfg.NonceWindow); err != nil {
		s.log.Error("flood register failed", "event", EventNonce, "error", err)
	}

	return &core.Challenge{
		Nonce:     nonce,
		CsrfToken: s.guard.Issue(core.CsrfScope),
		ExpiresIn: s.cfg.NonceTTL,
	}, nil
}

// BuildMessage renders the canonical SIWE message a wallet must sign for the
// given nonce. Clients reconstruct the identical text from the same fields.
func (s *AuthService) BuildMessage(walletAddress, nonce string, issuedAt time.Time) string {
	return siwe.BuildMessage(
		s.cfg.Domain,
		eth.Checksum(walletAddress),
		s.cfg.Statement,
		s.cfg.URI,
		s.cfg.ChainID,
		nonce,
		issuedAt,
		issuedAt.Add(s.cfg.NonceTTL),
	)
}

// CompleteAuthentication redeems a signed challenge for a session grant.
// The flood budget is checked once at entry; every exit short of full
// success registers a flood event, so inputs that fail fast cannot be used
// to probe for free.
func (s *AuthService) CompleteAuthentication(ctx context.Context, req AuthRequest) (*core.Grant, error) {
	allowed, err := s.flood.IsAllowed(ctx, EventAuthenticate, req.ClientKey, s.cfg.AuthLimit, s.cfg.AuthWindow)
	if err != nil {
		return nil, s.internal(ctx, EventAuthenticate, req.ClientKey, "flood check failed", err)
	}
	if !allowed {
		// Already over budget; registering again would only extend the window.
		return nil, core.ErrRateLimited
	}

	if !s.guard.Validate(req.CsrfToken, core.CsrfScope) {
		return nil, s.reject(ctx, req.ClientKey, core.ErrInvalidCsrf)
	}

	if !eth.ValidAddress(req.WalletAddress) {
		return nil, s.reject(ctx, req.ClientKey, core.ErrInvalidAddress)
	}

	valid, err := s.validateSignedMessage(ctx, req)
	if err != nil {
		return nil, s.internal(ctx, EventAuthenticate, req.ClientKey, "nonce verification failed", err)
	}
	if !valid {
		// Bad signature, bad or replayed nonce, expired or tampered message:
		// one rejection for all of them.
		return nil, s.reject(ctx, req.ClientKey, core.ErrInvalidSignature)
	}

	// Consume before resolving the account so a concurrent duplicate or a
	// crash between the two steps cannot redeem the nonce twice.
	consumed, err := s.nonces.Consume(ctx, req.Nonce, req.WalletAddress)
	if err != nil {
		return nil, s.internal(ctx, EventAuthenticate, req.ClientKey, "nonce consume failed", err)
	}
	if !consumed {
		return nil, s.reject(ctx, req.ClientKey, core.ErrInvalidSignature)
	}

	account, isNew, err := s.linker.ResolveOrCreate(ctx, req.WalletAddress)
	if err != nil {
		if errors.Is(err, core.ErrWalletDisabled) {
			// A revoked wallet looks like any other failed authentication.
			return nil, s.reject(ctx, req.ClientKey, core.ErrInvalidSignature)
		}
		return nil, s.internal(ctx, EventAuthenticate, req.ClientKey, "account resolution failed", err)
	}

	token, err := s.finalizer.FinalizeSession(ctx, account)
	if err != nil {
		return nil, s.internal(ctx, EventAuthenticate, req.ClientKey, "session finalization failed", err)
	}

	if err := s.flood.Clear(ctx, EventAuthenticate, req.ClientKey); err != nil {
		s.log.Error("flood clear failed", "event", EventAuthenticate, "error", err)
	}

	return &core.Grant{
		AccountID:    account.ID,
		Username:     account.Username,
		SessionToken: token,
		IsNew:        isNew,
	}, nil
}

// validateSignedMessage runs the joint signature+message check. The message
// is never trusted wholesale: the expected text is re-derived from the
// configured domain, URI, statement, and chain id plus the client-claimed
// timestamps, and must match the inbound bytes exactly. Only an
// infrastructure error is distinguished from a validation failure.
func (s *AuthService) validateSignedMessage(ctx context.Context, req AuthRequest) (bool, error) {
	if !eth.VerifySignature(req.Message, req.Signature, req.WalletAddress) {
		return false, nil
	}

	messageNonce, err := siwe.NonceOf(req.Message)
	if err != nil || messageNonce != req.Nonce {
		return false, nil
	}

	expiration, err := siwe.ExpirationOf(req.Message)
	if err != nil || !expiration.After(s.now()) {
		return false, nil
	}

	issuedAt, err := siwe.IssuedAtOf(req.Message)
	if err != nil {
		return false, nil
	}

	expected := siwe.BuildMessage(
		s.cfg.Domain,
		eth.Checksum(req.WalletAddress),
		s.cfg.Statement,
		s.cfg.URI,
		s.cfg.ChainID,
		req.Nonce,
		issuedAt,
		expiration,
	)
	if expected != req.Message {
		return false, nil
	}

	return s.nonces.Verify(ctx, req.Nonce, req.WalletAddress)
}

// reject registers a flood event and returns the validation error unchanged.
func (s *AuthService) reject(ctx context.Context, clientKey string, cause error) error {
	if err := s.flood.Register(ctx, EventAuthenticate, clientKey, s.cfg.AuthWindow); err != nil {
		s.log.Error("flood register failed", "event", EventAuthenticate, "error", err)
	}
	return cause
}

// internal logs the underlying failure with context, registers a flood event,
// and returns the opaque internal error. The detail never reaches the caller.
func (s *AuthService) internal(ctx context.Context, event, clientKey, msg string, err error) error {
	s.log.Error(msg, "event", event, "error", err)
	window := s.cfg.AuthWindow
	if event == EventNonce {
		window = s.cfg.NonceWindow
	}
	if regErr := s.flood.Register(ctx, event, clientKey, window); regErr != nil {
		s.log.Error("flood register failed", "event", event, "error", regErr)
	}
	return core.ErrInternal
}

// SetClock overrides the orchestrator's time source. Testing only.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}
