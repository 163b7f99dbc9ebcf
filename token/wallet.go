package token

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/chain"
	"github.com/vaultmatch/vault-engine/types"
)

// Wallet holds one owner's balance on one token ledger. Transfers move
// wallet to wallet; a wallet trusts an inbound credit only from its minter or
// from the sending owner's wallet address recomputed on this ledger.
type Wallet struct {
	addr    types.Address
	minter  types.Address
	owner   types.Address
	balance math.Int

	logger *zap.Logger
}

func NewWallet(minter, owner types.Address, logger *zap.Logger) *Wallet {
	addr := WalletAddress(minter, owner)
	return &Wallet{
		addr:    addr,
		minter:  minter,
		owner:   owner,
		balance: math.ZeroInt(),
		logger: logger.With(
			zap.String("module", "wallet"),
			zap.String("addr", addr.Short()),
		),
	}
}

// WalletAddress derives the deterministic wallet address of an owner on a
// token ledger.
func WalletAddress(minter, owner types.Address) types.Address {
	return types.DeriveAddress(WalletCode, types.WalletInitData(minter, owner))
}

func (w *Wallet) Address() types.Address { return w.addr }

func (w *Wallet) Owner() types.Address { return w.owner }

func (w *Wallet) Balance() math.Int { return w.balance }

func (w *Wallet) Receive(ctx *chain.Context) error {
	if ctx.Env.Bounced {
		return w.handleBounce(ctx)
	}
	r, err := ctx.Env.Reader()
	if err != nil {
		return err
	}

	switch r.Op() {
	case types.OpTokenTransfer:
		return w.transfer(ctx, r)
	case types.OpTokenInternalTransfer:
		return w.receiveTransfer(ctx, r)
	case types.OpExcesses:
		return nil
	default:
		return errorsmod.Wrapf(types.ErrUnknownMessage, "wallet: opcode %#x", r.Op())
	}
}

// transfer debits this wallet and forwards the credit to the destination
// owner's wallet, deploying it if it does not exist yet.
func (w *Wallet) transfer(ctx *chain.Context, r *types.Reader) error {
	if !ctx.Sender().Equals(w.owner) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "transfer from %s, owner is %s", ctx.Sender().Short(), w.owner.Short())
	}
	msg, err := types.DecodeTokenTransfer(r)
	if err != nil {
		return err
	}
	if !msg.Amount.IsPositive() {
		return errorsmod.Wrap(types.ErrMissingPayload, "non-positive transfer amount")
	}
	if w.balance.LT(msg.Amount) {
		return errorsmod.Wrapf(types.ErrInsufficientFunds, "wallet holds %s, transfer asks %s", w.balance, msg.Amount)
	}
	need := TransferGas.Add(msg.ForwardValue)
	if ctx.Value().LT(need) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "transfer carries %s, needs %s", ctx.Value(), need)
	}

	w.balance = w.balance.Sub(msg.Amount)

	dest := NewWallet(w.minter, msg.Destination, w.logger)
	credit := types.TokenInternalTransfer{
		Amount:         msg.Amount,
		From:           w.owner,
		ForwardValue:   msg.ForwardValue,
		ForwardPayload: msg.ForwardPayload,
	}
	ctx.Deploy(dest, ctx.Value().Sub(TransferGas), credit.Encode(r.QueryID()))

	w.logger.Debug("transfer out",
		zap.String("to", msg.Destination.Short()),
		zap.String("amount", msg.Amount.String()),
	)
	return nil
}

// receiveTransfer credits an inbound wallet-to-wallet leg after proving the
// sender: either the minter itself or the claimed owner's wallet address on
// the same ledger.
func (w *Wallet) receiveTransfer(ctx *chain.Context, r *types.Reader) error {
	msg, err := types.DecodeTokenInternalTransfer(r)
	if err != nil {
		return err
	}
	fromMinter := ctx.Sender().Equals(w.minter)
	if !fromMinter && !ctx.Sender().Equals(WalletAddress(w.minter, msg.From)) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "credit from %s is not a wallet of this ledger", ctx.Sender().Short())
	}
	if !msg.Amount.IsPositive() {
		return errorsmod.Wrap(types.ErrMissingPayload, "non-positive credit amount")
	}

	w.balance = w.balance.Add(msg.Amount)

	if msg.ForwardValue.IsPositive() {
		notify := types.TokenNotify{
			Amount:  msg.Amount,
			Sender:  msg.From,
			Payload: msg.ForwardPayload,
		}
		ctx.Send(w.owner, msg.ForwardValue, false, notify.Encode(r.QueryID()))
	}

	w.logger.Debug("transfer in",
		zap.String("from", msg.From.Short()),
		zap.String("amount", msg.Amount.String()),
		zap.String("balance", w.balance.String()),
	)
	return nil
}

// handleBounce restores the balance debited by an outbound leg that failed.
func (w *Wallet) handleBounce(ctx *chain.Context) error {
	r, err := ctx.Env.Reader()
	if err != nil {
		return nil
	}
	if r.Op() != types.OpTokenInternalTransfer {
		return nil
	}
	msg, err := types.DecodeTokenInternalTransfer(r)
	if err != nil {
		return nil
	}
	w.balance = w.balance.Add(msg.Amount)
	w.logger.Info("transfer bounced, balance restored",
		zap.String("amount", msg.Amount.String()),
	)
	return nil
}

// WalletData is the read-only introspection snapshot.
type WalletData struct {
	Address types.Address
	Minter  types.Address
	Owner   types.Address
	Balance math.Int
}

func (w *Wallet) Data() WalletData {
	return WalletData{
		Address: w.addr,
		Minter:  w.minter,
		Owner:   w.owner,
		Balance: w.balance,
	}
}

func (w *Wallet) EncodeState() []byte {
	enc := &types.Writer{}
	enc.WriteAddress(w.minter)
	enc.WriteAddress(w.owner)
	enc.WriteAmount(w.balance)
	return enc.Bytes()
}
