package token

import (
	"encoding/binary"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/chain"
	"github.com/vaultmatch/vault-engine/types"
)

type tokenRig struct {
	t       *testing.T
	ledger  *chain.Ledger
	minter  *Minter
	admin   types.Address
	queryID uint64
}

func newTokenRig(t *testing.T) *tokenRig {
	t.Helper()
	ledger := chain.NewLedger(zap.NewNop())
	admin := types.ExternalAddress("admin")
	ledger.Faucet(admin, math.NewInt(1_000_000_000))

	minter := NewMinter(admin, "USDT", zap.NewNop())
	ledger.Register(minter, math.ZeroInt())
	return &tokenRig{t: t, ledger: ledger, minter: minter, admin: admin}
}

func (r *tokenRig) nextQueryID() uint64 {
	r.queryID++
	return r.queryID
}

func (r *tokenRig) mint(owner string, amount int64) error {
	msg := types.TokenMint{To: types.ExternalAddress(owner), Amount: math.NewInt(amount)}
	return r.ledger.Submit(chain.Envelope{
		From:  r.admin,
		To:    r.minter.Address(),
		Value: WalletStorageReserve.Add(MintGas),
		Body:  msg.Encode(r.nextQueryID()),
	})
}

func (r *tokenRig) balance(owner string) math.Int {
	a, ok := r.ledger.Actor(r.minter.WalletAddress(types.ExternalAddress(owner)))
	if !ok {
		return math.ZeroInt()
	}
	return a.(*Wallet).Balance()
}

func TestMinter_mintCreatesWallet(t *testing.T) {
	r := newTokenRig(t)

	require.NoError(t, r.mint("alice", 5000))

	assert.Equal(t, math.NewInt(5000), r.balance("alice"))
	assert.Equal(t, math.NewInt(5000), r.minter.TotalSupply())

	// minting again tops up the same wallet
	require.NoError(t, r.mint("alice", 100))
	assert.Equal(t, math.NewInt(5100), r.balance("alice"))
	assert.Equal(t, math.NewInt(5100), r.minter.TotalSupply())
}

func TestMinter_rejectsNonAdmin(t *testing.T) {
	r := newTokenRig(t)
	mallory := types.ExternalAddress("mallory")
	r.ledger.Faucet(mallory, math.NewInt(1_000_000_000))

	msg := types.TokenMint{To: mallory, Amount: math.NewInt(5000)}
	err := r.ledger.Submit(chain.Envelope{
		From:  mallory,
		To:    r.minter.Address(),
		Value: WalletStorageReserve.Add(MintGas),
		Body:  msg.Encode(r.nextQueryID()),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidSender)
	assert.True(t, r.minter.TotalSupply().IsZero())
}

func TestWallet_transferMovesBalance(t *testing.T) {
	r := newTokenRig(t)
	alice := types.ExternalAddress("alice")
	r.ledger.Faucet(alice, math.NewInt(1_000_000_000))
	require.NoError(t, r.mint("alice", 5000))

	msg := types.TokenTransfer{
		Amount:       math.NewInt(1200),
		Destination:  types.ExternalAddress("bob"),
		ForwardValue: math.ZeroInt(),
	}
	err := r.ledger.Submit(chain.Envelope{
		From:   alice,
		To:     r.minter.WalletAddress(alice),
		Value:  TransferGas,
		Bounce: true,
		Body:   msg.Encode(r.nextQueryID()),
	})
	require.NoError(t, err)

	assert.Equal(t, math.NewInt(3800), r.balance("alice"))
	assert.Equal(t, math.NewInt(1200), r.balance("bob"))
}

func TestWallet_forwardValueNotifiesRecipient(t *testing.T) {
	r := newTokenRig(t)
	alice := types.ExternalAddress("alice")
	bob := types.ExternalAddress("bob")
	r.ledger.Faucet(alice, math.NewInt(1_000_000_000))
	require.NoError(t, r.mint("alice", 5000))

	forward := math.NewInt(7_000_000)
	msg := types.TokenTransfer{
		Amount:         math.NewInt(1200),
		Destination:    bob,
		ForwardValue:   forward,
		ForwardPayload: []byte("hello"),
	}
	err := r.ledger.Submit(chain.Envelope{
		From:   alice,
		To:     r.minter.WalletAddress(alice),
		Value:  TransferGas.Add(forward),
		Bounce: true,
		Body:   msg.Encode(r.nextQueryID()),
	})
	require.NoError(t, err)

	// bob is a plain external address; the notification value lands on it
	assert.Equal(t, forward, r.ledger.BalanceOf(bob))
}

func TestWallet_rejectsOverdraw(t *testing.T) {
	r := newTokenRig(t)
	alice := types.ExternalAddress("alice")
	r.ledger.Faucet(alice, math.NewInt(1_000_000_000))
	require.NoError(t, r.mint("alice", 100))

	msg := types.TokenTransfer{
		Amount:       math.NewInt(1200),
		Destination:  types.ExternalAddress("bob"),
		ForwardValue: math.ZeroInt(),
	}
	err := r.ledger.Submit(chain.Envelope{
		From:  alice,
		To:    r.minter.WalletAddress(alice),
		Value: TransferGas,
		Body:  msg.Encode(r.nextQueryID()),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInsufficientFunds)
	assert.Equal(t, math.NewInt(100), r.balance("alice"))
}

func TestWallet_rejectsForgedCredit(t *testing.T) {
	r := newTokenRig(t)
	require.NoError(t, r.mint("alice", 100))
	mallory := types.ExternalAddress("mallory")
	r.ledger.Faucet(mallory, math.NewInt(1_000_000_000))

	// mallory claims to be bob's wallet crediting alice
	msg := types.TokenInternalTransfer{
		Amount:       math.NewInt(9999),
		From:         types.ExternalAddress("bob"),
		ForwardValue: math.ZeroInt(),
	}
	err := r.ledger.Submit(chain.Envelope{
		From:  mallory,
		To:    r.minter.WalletAddress(types.ExternalAddress("alice")),
		Value: math.ZeroInt(),
		Body:  msg.Encode(r.nextQueryID()),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidSender)
	assert.Equal(t, math.NewInt(100), r.balance("alice"))
}

func TestWallet_bounceRestoresBalance(t *testing.T) {
	r := newTokenRig(t)
	require.NoError(t, r.mint("alice", 100))

	aliceWallet := r.minter.WalletAddress(types.ExternalAddress("alice"))

	// a bounced outbound leg comes back with the bounce marker prefixed
	leg := types.TokenInternalTransfer{
		Amount:       math.NewInt(40),
		From:         types.ExternalAddress("alice"),
		ForwardValue: math.ZeroInt(),
	}
	body := leg.Encode(r.nextQueryID())
	bounced := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(bounced, types.BounceMarker)
	copy(bounced[4:], body)

	err := r.ledger.Submit(chain.Envelope{
		From:    types.ExternalAddress("bob-wallet"),
		To:      aliceWallet,
		Value:   math.ZeroInt(),
		Bounced: true,
		Body:    bounced,
	})
	require.NoError(t, err)
	assert.Equal(t, math.NewInt(140), r.balance("alice"))
}
