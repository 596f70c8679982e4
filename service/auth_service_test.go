package service

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofoftom/walletgate/adapters/directory"
	"github.com/proofoftom/walletgate/adapters/flood"
	"github.com/proofoftom/walletgate/adapters/store"
	"github.com/proofoftom/walletgate/core"
	"github.com/proofoftom/walletgate/csrf"
	"github.com/proofoftom/walletgate/logger"
)

const clientKey = "198.51.100.7"

type capturePublisher struct {
	mu     sync.Mutex
	events []core.WalletLinkedEvent
}

func (p *capturePublisher) PublishWalletLinked(ctx context.Context, event core.WalletLinkedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type stubFinalizer struct{}

func (stubFinalizer) FinalizeSession(ctx context.Context, account *core.Account) (string, error) {
	return "session-token-" + account.ID, nil
}

type harness struct {
	svc       *AuthService
	directory *directory.MemoryDirectory
	published *capturePublisher
	key       *ecdsa.PrivateKey
	address   string
}

func testConfig() Config {
	return Config{
		Domain:      "example.com",
		URI:         "https://example.com",
		Statement:   "Sign in with your wallet.",
		ChainID:     1,
		NonceTTL:    5 * time.Minute,
		NonceLimit:  10,
		NonceWindow: time.Minute,
		AuthLimit:   5,
		AuthWindow:  time.Minute,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	dir := directory.NewMemoryDirectory()
	published := &capturePublisher{}
	log := logger.New(0)
	cfg := testConfig()

	svc := NewAuthService(
		store.NewMemoryStore(cfg.NonceTTL),
		flood.NewMemoryGuard(),
		csrf.NewGuard([]byte("test secret")),
		NewAccountLinker(dir, published, log),
		stubFinalizer{},
		log,
		cfg,
	)

	return &harness{
		svc:       svc,
		directory: dir,
		published: published,
		key:       key,
		address:   ethcrypto.PubkeyToAddress(key.PublicKey).Hex(),
	}
}

func (h *harness) sign(t *testing.T, message string) string {
	t.Helper()
	sig, err := ethcrypto.Sign(accounts.TextHash([]byte(message)), h.key)
	require.NoError(t, err)
	return hexutil.Encode(sig)
}

// signedRequest walks the happy client path: issue a challenge, build the
// canonical message for its nonce, sign it.
func (h *harness) signedRequest(t *testing.T) AuthRequest {
	t.Helper()

	challenge, err := h.svc.IssueChallenge(context.Background(), h.address, clientKey)
	require.NoError(t, err)

	message := h.svc.BuildMessage(h.address, challenge.Nonce, time.Now())
	return AuthRequest{
		WalletAddress: h.address,
		Signature:     h.sign(t, message),
		Message:       message,
		Nonce:         challenge.Nonce,
		CsrfToken:     challenge.CsrfToken,
		ClientKey:     clientKey,
	}
}

func TestIssueChallenge(t *testing.T) {
	h := newHarness(t)

	challenge, err := h.svc.IssueChallenge(context.Background(), h.address, clientKey)
	require.NoError(t, err)

	assert.NotEmpty(t, challenge.Nonce)
	assert.NotEmpty(t, challenge.CsrfToken)
	assert.Equal(t, 5*time.Minute, challenge.ExpiresIn)
}

func TestIssueChallenge_UniqueNonces(t *testing.T) {
	h := newHarness(t)

	a, err := h.svc.IssueChallenge(context.Background(), h.address, clientKey)
	require.NoError(t, err)
	b, err := h.svc.IssueChallenge(context.Background(), h.address, clientKey)
	require.NoError(t, err)

	assert.NotEqual(t, a.Nonce, b.Nonce)
}

func TestIssueChallenge_InvalidAddress(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.IssueChallenge(context.Background(), "not-an-address", clientKey)
	assert.ErrorIs(t, err, core.ErrInvalidAddress)
}

func TestIssueChallenge_InvalidAddressDoesNotConsumeBudget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Address-format rejections on this path deliberately skip flood
	// registration, so they cannot exhaust the budget.
	for i := 0; i < 50; i++ {
		_, err := h.svc.IssueChallenge(ctx, "not-an-address", clientKey)
		assert.ErrorIs(t, err, core.ErrInvalidAddress)
	}

	_, err := h.svc.IssueChallenge(ctx, h.address, clientKey)
	assert.NoError(t, err)
}

func TestIssueChallenge_RateLimited(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := h.svc.IssueChallenge(ctx, h.address, clientKey)
		require.NoError(t, err)
	}

	_, err := h.svc.IssueChallenge(ctx, h.address, clientKey)
	assert.ErrorIs(t, err, core.ErrRateLimited)
}

func TestCompleteAuthentication_Success(t *testing.T) {
	h := newHarness(t)
	req := h.signedRequest(t)

	grant, err := h.svc.CompleteAuthentication(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, grant.AccountID)
	assert.Equal(t, h.address, grant.Username)
	assert.Equal(t, "session-token-"+grant.AccountID, grant.SessionToken)
	assert.True(t, grant.IsNew)

	require.Len(t, h.published.events, 1)
	assert.Equal(t, h.address, h.published.events[0].WalletAddress)
	assert.Equal(t, grant.AccountID, h.published.events[0].AccountID)
	assert.True(t, h.published.events[0].IsNew)
}

func TestCompleteAuthentication_SecondLoginIsNotNew(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.CompleteAuthentication(ctx, h.signedRequest(t))
	require.NoError(t, err)

	second, err := h.svc.CompleteAuthentication(ctx, h.signedRequest(t))
	require.NoError(t, err)

	assert.Equal(t, first.AccountID, second.AccountID)
	assert.False(t, second.IsNew)
}

func TestCompleteAuthentication_Replay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.signedRequest(t)

	_, err := h.svc.CompleteAuthentication(ctx, req)
	require.NoError(t, err)

	// Identical signature, message, and nonce a second time: consumed.
	_, err = h.svc.CompleteAuthentication(ctx, req)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestCompleteAuthentication_InvalidCsrf(t *testing.T) {
	h := newHarness(t)
	req := h.signedRequest(t)
	req.CsrfToken = "deadbeef"

	_, err := h.svc.CompleteAuthentication(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidCsrf)
}

func TestCompleteAuthentication_InvalidAddress(t *testing.T) {
	h := newHarness(t)
	req := h.signedRequest(t)
	req.WalletAddress = "0xzz"

	_, err := h.svc.CompleteAuthentication(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidAddress)
}

func TestCompleteAuthentication_TamperedMessage(t *testing.T) {
	h := newHarness(t)
	req := h.signedRequest(t)

	// Altering the chain id after signing makes recovery yield a different
	// address, and the reconstructed-field check fails regardless.
	req.Message = strings.Replace(req.Message, "Chain ID: 1", "Chain ID: 5", 1)

	_, err := h.svc.CompleteAuthentication(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestCompleteAuthentication_ForeignDomainMessage(t *testing.T) {
	h := newHarness(t)
	req := h.signedRequest(t)

	// A properly signed message for another domain: the signature recovers,
	// but the server-side reconstruction does not match.
	forged := strings.Replace(req.Message, "example.com", "evil.example", 2)
	req.Message = forged
	req.Signature = h.sign(t, forged)

	_, err := h.svc.CompleteAuthentication(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestCompleteAuthentication_NonceMismatch(t *testing.T) {
	h := newHarness(t)
	req := h.signedRequest(t)

	other := h.signedRequest(t)
	req.Nonce = other.Nonce

	_, err := h.svc.CompleteAuthentication(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestCompleteAuthentication_WrongSigner(t *testing.T) {
	h := newHarness(t)
	req := h.signedRequest(t)

	otherKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	sig, err := ethcrypto.Sign(accounts.TextHash([]byte(req.Message)), otherKey)
	require.NoError(t, err)
	req.Signature = hexutil.Encode(sig)

	_, err = h.svc.CompleteAuthentication(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestCompleteAuthentication_ExpiredMessage(t *testing.T) {
	h := newHarness(t)
	req := h.signedRequest(t)

	h.svc.SetClock(func() time.Time { return time.Now().Add(10 * time.Minute) })

	_, err := h.svc.CompleteAuthentication(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestCompleteAuthentication_DisabledWallet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CompleteAuthentication(ctx, h.signedRequest(t))
	require.NoError(t, err)

	require.NoError(t, h.directory.DeactivateWallet(ctx, h.address))

	// A revoked wallet is indistinguishable from a failed signature.
	_, err = h.svc.CompleteAuthentication(ctx, h.signedRequest(t))
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestCompleteAuthentication_RateLimitAfterFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bad := h.signedRequest(t)
	bad.CsrfToken = "deadbeef"
	for i := 0; i < 5; i++ {
		_, err := h.svc.CompleteAuthentication(ctx, bad)
		assert.ErrorIs(t, err, core.ErrInvalidCsrf)
	}

	// The 6th attempt is rejected regardless of validity.
	good := h.signedRequest(t)
	_, err := h.svc.CompleteAuthentication(ctx, good)
	assert.ErrorIs(t, err, core.ErrRateLimited)
}

func TestCompleteAuthentication_SuccessClearsBudget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bad := h.signedRequest(t)
	bad.CsrfToken = "deadbeef"
	for i := 0; i < 4; i++ {
		_, err := h.svc.CompleteAuthentication(ctx, bad)
		assert.ErrorIs(t, err, core.ErrInvalidCsrf)
	}

	_, err := h.svc.CompleteAuthentication(ctx, h.signedRequest(t))
	require.NoError(t, err)

	// The earlier failures no longer count against the client.
	for i := 0; i < 4; i++ {
		_, err := h.svc.CompleteAuthentication(ctx, bad)
		assert.ErrorIs(t, err, core.ErrInvalidCsrf)
	}
}

func TestCompleteAuthentication_ConcurrentRedemption(t *testing.T) {
	h := newHarness(t)
	req := h.signedRequest(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Distinct client keys keep the flood guard out of the picture.
			r := req
			r.ClientKey = clientKey + "-" + string(rune('a'+i))
			_, err := h.svc.CompleteAuthentication(context.Background(), r)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, core.ErrInvalidSignature)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent redemption may succeed")
}
