package escrow

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/chain"
	"github.com/vaultmatch/vault-engine/types"
)

// FeeCollector is the passive fee ledger of one vault: only the vault may
// add, only the owner may withdraw, and the balance is exactly the sum of
// accepted fees minus completed withdrawals.
type FeeCollector struct {
	addr    types.Address
	vault   types.Address
	owner   types.Address
	balance math.Int

	logger *zap.Logger
}

func NewFeeCollector(vault, owner types.Address, logger *zap.Logger) *FeeCollector {
	addr := CollectorAddress(vault, owner)
	return &FeeCollector{
		addr:    addr,
		vault:   vault,
		owner:   owner,
		balance: math.ZeroInt(),
		logger: logger.With(
			zap.String("module", "fee-collector"),
			zap.String("addr", addr.Short()),
		),
	}
}

// CollectorAddress derives the deterministic collector address for a vault.
func CollectorAddress(vault, owner types.Address) types.Address {
	return types.DeriveAddress(CollectorCode, types.CollectorInitData(vault, owner))
}

func (f *FeeCollector) Address() types.Address { return f.addr }

func (f *FeeCollector) Balance() math.Int { return f.balance }

func (f *FeeCollector) Receive(ctx *chain.Context) error {
	if ctx.Env.Bounced {
		return nil
	}
	r, err := ctx.Env.Reader()
	if err != nil {
		return err
	}

	switch r.Op() {
	case types.OpAddFee:
		return f.addFee(ctx, r)
	case types.OpFeeWithdraw:
		return f.withdraw(ctx, r)
	case types.OpExcesses:
		return nil
	default:
		return errorsmod.Wrapf(types.ErrUnknownMessage, "fee collector: opcode %#x", r.Op())
	}
}

func (f *FeeCollector) addFee(ctx *chain.Context, r *types.Reader) error {
	if !ctx.Sender().Equals(f.vault) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "fee from %s, vault is %s", ctx.Sender().Short(), f.vault.Short())
	}
	if ctx.Value().LT(MinGas) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "add fee carries %s", ctx.Value())
	}
	msg, err := types.DecodeAddFee(r)
	if err != nil {
		return err
	}
	if !msg.Amount.IsPositive() {
		return errorsmod.Wrap(types.ErrMissingPayload, "non-positive fee amount")
	}
	f.balance = f.balance.Add(msg.Amount)
	f.logger.Debug("fee accrued",
		zap.String("amount", msg.Amount.String()),
		zap.String("balance", f.balance.String()),
	)
	return nil
}

// withdraw releases up to the current balance back through the vault. A zero
// requested amount means everything; a request above the balance clamps.
func (f *FeeCollector) withdraw(ctx *chain.Context, r *types.Reader) error {
	if !ctx.Sender().Equals(f.owner) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "withdraw from %s, owner is %s", ctx.Sender().Short(), f.owner.Short())
	}
	if ctx.Value().LT(feeWithdrawFloor()) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "withdraw carries %s, needs %s", ctx.Value(), feeWithdrawFloor())
	}
	msg, err := types.DecodeFeeWithdraw(r)
	if err != nil {
		return err
	}
	if !f.balance.IsPositive() {
		return types.ErrNothingToRefund
	}
	amount := msg.Amount
	if amount.IsZero() || amount.GT(f.balance) {
		amount = f.balance
	}
	f.balance = f.balance.Sub(amount)

	release := types.WithdrawFee{Beneficiary: f.owner, Amount: amount}
	ctx.Send(f.vault, ctx.Value().Sub(MinGas), false, release.Encode(r.QueryID()))

	f.logger.Info("fees withdrawn",
		zap.String("amount", amount.String()),
		zap.String("balance", f.balance.String()),
	)
	return nil
}

// CollectorData is the read-only introspection snapshot.
type CollectorData struct {
	Address types.Address
	Vault   types.Address
	Owner   types.Address
	Balance math.Int
}

func (f *FeeCollector) Data() CollectorData {
	return CollectorData{
		Address: f.addr,
		Vault:   f.vault,
		Owner:   f.owner,
		Balance: f.balance,
	}
}

func (f *FeeCollector) EncodeState() []byte {
	w := &types.Writer{}
	w.WriteAddress(f.vault)
	w.WriteAddress(f.owner)
	w.WriteAmount(f.balance)
	return w.Bytes()
}
