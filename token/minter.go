package token

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/chain"
	"github.com/vaultmatch/vault-engine/types"
)

// Code image hashes of the token rails.
var (
	MinterCode = types.CodeHash("token/minter/v1")
	WalletCode = types.CodeHash("token/wallet/v1")
)

// Gas floors for token-rail hops.
var (
	WalletStorageReserve = math.NewInt(20_000_000)
	MintGas              = math.NewInt(10_000_000)
	TransferGas          = math.NewInt(10_000_000)
)

// MinterInitData is the canonical init-parameter serialization of a minter.
func MinterInitData(admin types.Address, symbol string) []byte {
	w := &types.Writer{}
	w.WriteAddress(admin)
	w.WriteBytes([]byte(symbol))
	return w.Bytes()
}

// MinterAddress derives the deterministic minter address for an admin and
// symbol pair.
func MinterAddress(admin types.Address, symbol string) types.Address {
	return types.DeriveAddress(MinterCode, MinterInitData(admin, symbol))
}

// Minter is the root of one token ledger: it mints supply into wallets and
// anchors every wallet address derivation.
type Minter struct {
	addr        types.Address
	admin       types.Address
	symbol      string
	totalSupply math.Int

	logger *zap.Logger
}

func NewMinter(admin types.Address, symbol string, logger *zap.Logger) *Minter {
	addr := MinterAddress(admin, symbol)
	return &Minter{
		addr:        addr,
		admin:       admin,
		symbol:      symbol,
		totalSupply: math.ZeroInt(),
		logger: logger.With(
			zap.String("module", "minter"),
			zap.String("symbol", symbol),
			zap.String("addr", addr.Short()),
		),
	}
}

func (m *Minter) Address() types.Address { return m.addr }

func (m *Minter) Symbol() string { return m.symbol }

func (m *Minter) TotalSupply() math.Int { return m.totalSupply }

// WalletAddress derives the wallet address of an owner on this ledger.
func (m *Minter) WalletAddress(owner types.Address) types.Address {
	return types.DeriveAddress(WalletCode, types.WalletInitData(m.addr, owner))
}

func (m *Minter) Receive(ctx *chain.Context) error {
	if ctx.Env.Bounced {
		return nil
	}
	r, err := ctx.Env.Reader()
	if err != nil {
		return err
	}

	switch r.Op() {
	case types.OpTokenMint:
		return m.mint(ctx, r)
	case types.OpExcesses:
		return nil
	default:
		return errorsmod.Wrapf(types.ErrUnknownMessage, "minter: opcode %#x", r.Op())
	}
}

func (m *Minter) mint(ctx *chain.Context, r *types.Reader) error {
	if !ctx.Sender().Equals(m.admin) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "mint from %s, admin is %s", ctx.Sender().Short(), m.admin.Short())
	}
	msg, err := types.DecodeTokenMint(r)
	if err != nil {
		return err
	}
	if !msg.Amount.IsPositive() {
		return errorsmod.Wrap(types.ErrMissingPayload, "non-positive mint amount")
	}
	need := WalletStorageReserve.Add(MintGas)
	if ctx.Value().LT(need) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "mint carries %s, needs %s", ctx.Value(), need)
	}

	// Minted supply arrives as an internal transfer from the minter itself;
	// the wallet recognizes its minter as a privileged sender.
	wallet := NewWallet(m.addr, msg.To, m.logger)
	credit := types.TokenInternalTransfer{
		Amount:       msg.Amount,
		From:         m.addr,
		ForwardValue: math.ZeroInt(),
	}
	ctx.Deploy(wallet, ctx.Value().Sub(MintGas), credit.Encode(r.QueryID()))
	m.totalSupply = m.totalSupply.Add(msg.Amount)

	m.logger.Info("minted",
		zap.String("to", msg.To.Short()),
		zap.String("amount", msg.Amount.String()),
		zap.String("total_supply", m.totalSupply.String()),
	)
	return nil
}

func (m *Minter) EncodeState() []byte {
	w := &types.Writer{}
	w.WriteAddress(m.admin)
	w.WriteBytes([]byte(m.symbol))
	w.WriteAmount(m.totalSupply)
	return w.Bytes()
}
