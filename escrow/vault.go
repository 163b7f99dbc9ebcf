package escrow

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/chain"
	"github.com/vaultmatch/vault-engine/types"
)

// Vault is the per-asset entry point: it escrows deposits, deploys one order
// per deposit at a deterministic address, releases escrow on settlement
// instructions from its own orders, and owns one fee collector.
type Vault struct {
	addr     types.Address
	factory  types.Address
	asset    types.Asset
	codes    ChildCodes
	feeOwner types.Address

	active      bool
	accumulated math.Int

	base   *zap.Logger
	logger *zap.Logger
}

func NewVault(factory types.Address, asset types.Asset, codes ChildCodes, feeOwner types.Address, logger *zap.Logger) *Vault {
	addr := VaultAddress(factory, asset)
	return &Vault{
		addr:        addr,
		factory:     factory,
		asset:       asset,
		codes:       codes,
		feeOwner:    feeOwner,
		accumulated: math.ZeroInt(),
		base:        logger,
		logger: logger.With(
			zap.String("module", "vault"),
			zap.String("asset", asset.String()),
			zap.String("addr", addr.Short()),
		),
	}
}

// VaultAddress derives the deterministic vault address for an asset binding.
func VaultAddress(factory types.Address, asset types.Asset) types.Address {
	return types.DeriveAddress(VaultCode, types.VaultInitData(factory, asset))
}

func (v *Vault) Address() types.Address { return v.addr }

func (v *Vault) Asset() types.Asset { return v.asset }

// FeeCollectorAddress recomputes the address of this vault's collector.
func (v *Vault) FeeCollectorAddress() types.Address {
	return types.DeriveAddress(v.codes.Collector, types.CollectorInitData(v.addr, v.feeOwner))
}

// walletAddress is the vault's own wallet on its bound token ledger.
func (v *Vault) walletAddress() types.Address {
	return types.DeriveAddress(v.codes.Wallet, types.WalletInitData(v.asset.Minter, v.addr))
}

func (v *Vault) Receive(ctx *chain.Context) error {
	if ctx.Env.Bounced {
		// The vault sends nothing bounceable; absorb stray bounces.
		return nil
	}
	r, err := ctx.Env.Reader()
	if err != nil {
		return err
	}

	switch r.Op() {
	case types.OpInitVault:
		return v.initVault(ctx)
	case types.OpCreateOrder:
		return v.createOrder(ctx, r)
	case types.OpTokenNotify:
		return v.tokenDeposit(ctx, r)
	case types.OpSettle:
		return v.settle(ctx, r)
	case types.OpWithdrawFee:
		return v.withdrawFee(ctx, r)
	case types.OpExcesses:
		return nil
	default:
		return errorsmod.Wrapf(types.ErrUnknownMessage, "vault: opcode %#x", r.Op())
	}
}

func (v *Vault) initVault(ctx *chain.Context) error {
	if !ctx.Sender().Equals(v.factory) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "init from %s, factory is %s", ctx.Sender().Short(), v.factory.Short())
	}
	if v.active {
		return types.ErrAlreadyInitialized
	}
	if ctx.Value().LT(VaultStorageReserve.Add(InitVaultGas)) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "init carries %s", ctx.Value())
	}
	v.active = true
	v.logger.Info("vault initialized")
	return nil
}

func (v *Vault) createOrder(ctx *chain.Context, r *types.Reader) error {
	if !v.active {
		return types.ErrNotInitialized
	}
	if !v.asset.IsNative() {
		return errorsmod.Wrap(types.ErrAssetMismatch, "native value sent to a token-bound vault")
	}
	msg, err := types.DecodeCreateOrder(r)
	if err != nil {
		return err
	}
	if !msg.Terms.Amount.IsPositive() {
		return errorsmod.Wrap(types.ErrMissingPayload, "non-positive deposit amount")
	}
	if need := CreateOrderValue(msg.Terms.Amount); ctx.Value().LT(need) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "deposit carries %s, needs %s", ctx.Value(), need)
	}
	return v.deployOrder(ctx, r.QueryID(), ctx.Sender(), msg)
}

func (v *Vault) tokenDeposit(ctx *chain.Context, r *types.Reader) error {
	if !v.active {
		return types.ErrNotInitialized
	}
	if v.asset.IsNative() {
		return errorsmod.Wrap(types.ErrAssetMismatch, "token notification on a native-bound vault")
	}
	if !ctx.Sender().Equals(v.walletAddress()) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "notification from %s is not the vault wallet", ctx.Sender().Short())
	}
	notify, err := types.DecodeTokenNotify(r)
	if err != nil {
		return err
	}
	if !notify.Amount.IsPositive() {
		return errorsmod.Wrap(types.ErrMissingPayload, "non-positive token amount")
	}
	// From here the tokens already sit in the vault's wallet; rejecting the
	// notification would strand them. Invalid deposits are refunded instead.
	if len(notify.Payload) == 0 {
		return v.refundTokenDeposit(ctx, r.QueryID(), notify, "deposit without exchange payload")
	}
	msg, err := types.DecodeCreateOrderPayload(notify.Payload)
	if err != nil {
		return v.refundTokenDeposit(ctx, r.QueryID(), notify, "malformed exchange payload")
	}
	if ctx.Value().LT(TokenDepositGas()) {
		return v.refundTokenDeposit(ctx, r.QueryID(), notify, "underfunded deposit")
	}
	// the notified amount is authoritative for the escrow
	msg.Terms.Amount = notify.Amount
	return v.deployOrder(ctx, r.QueryID(), notify.Sender, msg)
}

// refundTokenDeposit returns an already-credited but invalid token deposit to
// its sender. The notification is accepted so the wallet credit stands and
// the refund transfer commits with it; no order or escrow state is created.
func (v *Vault) refundTokenDeposit(ctx *chain.Context, queryID uint64, notify types.TokenNotify, reason string) error {
	transfer := types.TokenTransfer{
		Amount:       notify.Amount,
		Destination:  notify.Sender,
		ForwardValue: math.ZeroInt(),
	}
	ctx.Send(v.walletAddress(), TransferGas, false, transfer.Encode(queryID))

	v.logger.Warn("token deposit refunded",
		zap.String("sender", notify.Sender.Short()),
		zap.String("amount", notify.Amount.String()),
		zap.String("reason", reason),
	)
	return nil
}

// deployOrder atomically creates and funds the order for a validated
// deposit. Any failure before this point rejects the whole inbound message,
// so no partial escrow state is ever observable.
func (v *Vault) deployOrder(ctx *chain.Context, queryID uint64, owner types.Address, msg types.CreateOrder) error {
	msg.Terms.FromAsset = v.asset
	createdAt := ctx.Now.Unix()

	order := NewOrder(owner, v.addr, createdAt, msg.Terms, msg.Fees, v.base)
	init := types.InitOrder{
		Owner:     owner,
		CreatedAt: createdAt,
		Terms:     msg.Terms,
		Fees:      msg.Fees,
	}
	ctx.Deploy(order, OrderStorageReserve.Add(OrderInitGas), init.Encode(queryID))

	v.accumulated = v.accumulated.Add(msg.Terms.Amount)
	v.logger.Info("order created",
		zap.String("order", order.Address().Short()),
		zap.String("owner", owner.Short()),
		zap.String("amount", msg.Terms.Amount.String()),
	)
	return nil
}

func (v *Vault) settle(ctx *chain.Context, r *types.Reader) error {
	if !v.active {
		return types.ErrNotInitialized
	}
	msg, err := types.DecodeSettle(r)
	if err != nil {
		return err
	}
	expected := msg.OrderAddress(v.codes.Order, v.addr)
	if !ctx.Sender().Equals(expected) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "settle sender %s is not a child of this vault", ctx.Sender().Short())
	}

	v.release(ctx, r.QueryID(), msg.Beneficiary, msg.NetAmount)

	if fees := msg.ProviderFee.Add(msg.MatcherFee); fees.IsPositive() {
		collector := NewFeeCollector(v.addr, v.feeOwner, v.base)
		ctx.Deploy(collector, AddFeeGas, types.AddFee{Amount: fees}.Encode(r.QueryID()))
	}

	v.logger.Debug("settled",
		zap.String("order", ctx.Sender().Short()),
		zap.String("beneficiary", msg.Beneficiary.Short()),
		zap.String("net", msg.NetAmount.String()),
	)
	return nil
}

func (v *Vault) withdrawFee(ctx *chain.Context, r *types.Reader) error {
	if !v.active {
		return types.ErrNotInitialized
	}
	if !ctx.Sender().Equals(v.FeeCollectorAddress()) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "fee release requested by %s", ctx.Sender().Short())
	}
	msg, err := types.DecodeWithdrawFee(r)
	if err != nil {
		return err
	}
	v.release(ctx, r.QueryID(), msg.Beneficiary, msg.Amount)
	v.logger.Info("fees released",
		zap.String("beneficiary", msg.Beneficiary.Short()),
		zap.String("amount", msg.Amount.String()),
	)
	return nil
}

// release moves escrowed value out of the vault: a plain value transfer for
// native vaults, a wallet transfer on the token rails otherwise.
func (v *Vault) release(ctx *chain.Context, queryID uint64, beneficiary types.Address, amount math.Int) {
	if !amount.IsPositive() {
		return
	}
	if v.asset.IsNative() {
		ctx.Send(beneficiary, amount, false, nil)
		return
	}
	transfer := types.TokenTransfer{
		Amount:       amount,
		Destination:  beneficiary,
		ForwardValue: math.ZeroInt(),
	}
	ctx.Send(v.walletAddress(), TransferGas, false, transfer.Encode(queryID))
}

// VaultData is the read-only introspection snapshot.
type VaultData struct {
	Address       types.Address
	Asset         types.Asset
	Active        bool
	Accumulated   math.Int
	FeeCollector  types.Address
	OrderCode     types.Hash
	CollectorCode types.Hash
}

func (v *Vault) Data() VaultData {
	return VaultData{
		Address:       v.addr,
		Asset:         v.asset,
		Active:        v.active,
		Accumulated:   v.accumulated,
		FeeCollector:  v.FeeCollectorAddress(),
		OrderCode:     v.codes.Order,
		CollectorCode: v.codes.Collector,
	}
}

func (v *Vault) EncodeState() []byte {
	w := &types.Writer{}
	w.WriteAddress(v.factory)
	w.WriteAsset(v.asset)
	w.WriteBool(v.active)
	w.WriteAmount(v.accumulated)
	return w.Bytes()
}
