package escrow

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/chain"
	"github.com/vaultmatch/vault-engine/types"
)

type OrderStatus uint8

const (
	OrderUninitialized OrderStatus = iota
	OrderOpen
	OrderClosed
)

func (s OrderStatus) String() string {
	switch s {
	case OrderUninitialized:
		return "uninitialized"
	case OrderOpen:
		return "open"
	case OrderClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// pendingMatch is one in-flight reservation: the amount optimistically
// deducted in step one of a match, waiting for the counterpart's confirmation
// or its bounce.
type pendingMatch struct {
	amount       math.Int
	counterOrder types.Address
	counterOwner types.Address
	matcher      types.Address
}

// Order is the per-deposit escrow state machine. Its address is a pure
// function of its immutable init parameters, so a matcher can name it before
// observing it on-chain and its vault can validate it by recomputation.
type Order struct {
	addr      types.Address
	owner     types.Address
	vault     types.Address
	createdAt int64
	initTerms types.ExchangeTerms
	fees      types.FeeTerms

	status    OrderStatus
	remaining math.Int
	reserved  math.Int
	pending   map[uint64]pendingMatch

	logger *zap.Logger
}

func NewOrder(owner, vault types.Address, createdAt int64, terms types.ExchangeTerms, fees types.FeeTerms, logger *zap.Logger) *Order {
	addr := OrderAddress(owner, vault, createdAt, terms, fees)
	return &Order{
		addr:      addr,
		owner:     owner,
		vault:     vault,
		createdAt: createdAt,
		initTerms: terms,
		fees:      fees,
		status:    OrderUninitialized,
		remaining: terms.Amount,
		reserved:  math.ZeroInt(),
		pending:   make(map[uint64]pendingMatch),
		logger: logger.With(
			zap.String("module", "order"),
			zap.String("addr", addr.Short()),
		),
	}
}

// OrderAddress derives the deterministic order address from its init
// parameters. Amount in terms is the initial escrowed amount.
func OrderAddress(owner, vault types.Address, createdAt int64, terms types.ExchangeTerms, fees types.FeeTerms) types.Address {
	return types.DeriveAddress(OrderCode, types.OrderInitData(owner, vault, createdAt, terms, fees))
}

func (o *Order) Address() types.Address { return o.addr }

func (o *Order) CreatedAt() int64 { return o.createdAt }

func (o *Order) Receive(ctx *chain.Context) error {
	if ctx.Env.Bounced {
		return o.handleBounce(ctx)
	}
	r, err := ctx.Env.Reader()
	if err != nil {
		return err
	}

	switch r.Op() {
	case types.OpInitOrder:
		return o.init(ctx, r)
	case types.OpMatchOrder:
		return o.matchOrder(ctx, r)
	case types.OpInternalMatchOrder:
		return o.internalMatch(ctx, r)
	case types.OpInternalMatchOrderSuccess:
		return o.matchConfirmed(ctx, r)
	case types.OpCloseOrder:
		return o.close(ctx, r)
	case types.OpExcesses:
		return nil
	default:
		return errorsmod.Wrapf(types.ErrUnknownMessage, "order: opcode %#x", r.Op())
	}
}

func (o *Order) init(ctx *chain.Context, r *types.Reader) error {
	if !ctx.Sender().Equals(o.vault) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "init from %s, parent vault is %s", ctx.Sender().Short(), o.vault.Short())
	}
	if o.status != OrderUninitialized {
		return types.ErrAlreadyInitialized
	}
	if ctx.Value().LT(OrderStorageReserve) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "init carries %s", ctx.Value())
	}
	msg, err := types.DecodeInitOrder(r)
	if err != nil {
		return err
	}
	if !msg.Owner.Equals(o.owner) || msg.CreatedAt != o.createdAt {
		return errorsmod.Wrap(types.ErrInvalidSender, "init parameters do not match this address")
	}
	o.status = OrderOpen
	o.logger.Info("order open",
		zap.String("owner", o.owner.Short()),
		zap.String("amount", o.remaining.String()),
		zap.Int64("created_at", o.createdAt),
	)
	return nil
}

// matchOrder is step one of a match: validate, optimistically reserve the
// requested amount, and forward the internal match leg to the counterpart.
// Matching is permissionless.
func (o *Order) matchOrder(ctx *chain.Context, r *types.Reader) error {
	if err := o.requireOpen(); err != nil {
		return err
	}
	msg, err := types.DecodeMatchOrder(r)
	if err != nil {
		return err
	}
	if !msg.Amount.IsPositive() || msg.Amount.GT(o.remaining) {
		return errorsmod.Wrapf(types.ErrIncompatibleMatch, "requested %s of remaining %s", msg.Amount, o.remaining)
	}
	if ctx.Value().LT(matchOrderFloor()) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "match carries %s, needs %s", ctx.Value(), matchOrderFloor())
	}
	queryID := r.QueryID()
	if _, exists := o.pending[queryID]; exists {
		return errorsmod.Wrapf(types.ErrMatchInFlight, "query id %d already reserved", queryID)
	}

	// tentative commit; undone only by the bounce of the send below
	o.remaining = o.remaining.Sub(msg.Amount)
	o.reserved = o.reserved.Add(msg.Amount)
	o.pending[queryID] = pendingMatch{
		amount:       msg.Amount,
		counterOrder: msg.CounterOrder,
		counterOwner: msg.CounterOwner,
		matcher:      ctx.Sender(),
	}

	leg := types.InternalMatchOrder{
		OriginOwner:       o.owner,
		OriginVault:       o.vault,
		OriginCreatedAt:   o.createdAt,
		OriginInitTerms:   o.initTerms,
		OriginFees:        o.fees,
		ExpectedCreatedAt: msg.CounterCreatedAt,
		Amount:            msg.Amount,
		Matcher:           ctx.Sender(),
	}
	ctx.Send(msg.CounterOrder, ctx.Value().Sub(MatchGas), true, leg.Encode(queryID))

	o.logger.Debug("match reserved",
		zap.String("counter_order", msg.CounterOrder.Short()),
		zap.String("amount", msg.Amount.String()),
		zap.Uint64("query_id", queryID),
	)
	return nil
}

// internalMatch is the counterpart side: validate the claimed origin, the
// staleness token, assets, price and amount, then settle this side and
// confirm back. Every rejection here bounces to the origin, which restores
// its reservation.
func (o *Order) internalMatch(ctx *chain.Context, r *types.Reader) error {
	msg, err := types.DecodeInternalMatchOrder(r)
	if err != nil {
		return err
	}
	if !ctx.Sender().Equals(msg.OriginOrderAddress(OrderCode)) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "match leg from %s does not match claimed origin", ctx.Sender().Short())
	}
	if err := o.requireOpen(); err != nil {
		return err
	}
	if msg.ExpectedCreatedAt != o.createdAt {
		return errorsmod.Wrapf(types.ErrStaleCounterpart, "expected created_at %d, live order has %d", msg.ExpectedCreatedAt, o.createdAt)
	}
	if !msg.OriginInitTerms.ToAsset.Equals(o.initTerms.FromAsset) ||
		!msg.OriginInitTerms.FromAsset.Equals(o.initTerms.ToAsset) {
		return errorsmod.Wrap(types.ErrIncompatibleMatch, "asset pairing does not line up")
	}
	if !priceCompatible(msg.OriginInitTerms.PriceRate, msg.OriginInitTerms.Slippage, o.initTerms.PriceRate, o.initTerms.Slippage) {
		return errorsmod.Wrap(types.ErrIncompatibleMatch, "price deviation exceeds a slippage bound")
	}
	give := convertAmount(msg.Amount, msg.OriginInitTerms.PriceRate)
	if !give.IsPositive() || give.GT(o.remaining) {
		return errorsmod.Wrapf(types.ErrIncompatibleMatch, "converted amount %s of remaining %s", give, o.remaining)
	}
	if ctx.Value().LT(internalMatchCost()) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "match leg carries %s, needs %s", ctx.Value(), internalMatchCost())
	}
	queryID := r.QueryID()

	o.remaining = o.remaining.Sub(give)
	o.settleThroughVault(ctx, queryID, msg.OriginOwner, give, true)

	confirm := types.InternalMatchOrderSuccess{
		Amount:        msg.Amount,
		CounterAmount: give,
	}
	reply := ctx.Value().Sub(MatchGas).Sub(settleFanOutCost())
	ctx.Send(ctx.Sender(), reply, false, confirm.Encode(queryID))

	o.logger.Info("match accepted",
		zap.String("origin_order", ctx.Sender().Short()),
		zap.String("received", msg.Amount.String()),
		zap.String("gave", give.String()),
	)
	o.closeIfFilled()
	return nil
}

// matchConfirmed is step three on the originating side: the counterpart
// accepted, so the reservation becomes a confirmed fill and this side
// settles and notifies the matcher.
func (o *Order) matchConfirmed(ctx *chain.Context, r *types.Reader) error {
	queryID := r.QueryID()
	pm, ok := o.pending[queryID]
	if !ok {
		return errorsmod.Wrapf(types.ErrInvalidSender, "no reservation for query id %d", queryID)
	}
	if !ctx.Sender().Equals(pm.counterOrder) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "confirmation from %s, reservation names %s", ctx.Sender().Short(), pm.counterOrder.Short())
	}
	msg, err := types.DecodeInternalMatchOrderSuccess(r)
	if err != nil {
		return err
	}
	if !msg.Amount.Equal(pm.amount) {
		return errorsmod.Wrapf(types.ErrIncompatibleMatch, "confirmed %s, reserved %s", msg.Amount, pm.amount)
	}

	o.reserved = o.reserved.Sub(pm.amount)
	delete(o.pending, queryID)

	o.settleThroughVault(ctx, queryID, pm.counterOwner, pm.amount, true)

	summary := types.SuccessMatch{
		Order:         o.addr,
		CounterOrder:  pm.counterOrder,
		Amount:        pm.amount,
		CounterAmount: msg.CounterAmount,
	}
	ctx.Send(pm.matcher, ctx.Value().Sub(settleFanOutCost()), false, summary.Encode(queryID))

	o.logger.Info("match confirmed",
		zap.String("counter_order", pm.counterOrder.Short()),
		zap.String("amount", pm.amount.String()),
	)
	o.closeIfFilled()
	return nil
}

// handleBounce is the sole compensation path: the bounced internal match leg
// restores exactly the amount reserved for its query id, never more or less.
func (o *Order) handleBounce(ctx *chain.Context) error {
	r, err := ctx.Env.Reader()
	if err != nil {
		return nil
	}
	if r.Op() != types.OpInternalMatchOrder {
		return nil
	}
	pm, ok := o.pending[r.QueryID()]
	if !ok {
		return nil
	}
	o.remaining = o.remaining.Add(pm.amount)
	o.reserved = o.reserved.Sub(pm.amount)
	delete(o.pending, r.QueryID())

	o.logger.Info("match bounced, reservation restored",
		zap.String("counter_order", pm.counterOrder.Short()),
		zap.String("amount", pm.amount.String()),
		zap.Uint64("query_id", r.QueryID()),
	)
	return nil
}

func (o *Order) close(ctx *chain.Context, r *types.Reader) error {
	if !ctx.Sender().Equals(o.owner) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "close from %s, owner is %s", ctx.Sender().Short(), o.owner.Short())
	}
	if err := o.requireOpen(); err != nil {
		return err
	}
	if o.reserved.IsPositive() {
		return errorsmod.Wrapf(types.ErrMatchInFlight, "reserved %s awaiting confirmation", o.reserved)
	}
	if !o.remaining.IsPositive() {
		return types.ErrNothingToRefund
	}
	if ctx.Value().LT(closeOrderFloor()) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "close carries %s, needs %s", ctx.Value(), closeOrderFloor())
	}

	refund := o.remaining
	o.remaining = math.ZeroInt()
	o.status = OrderClosed
	o.settleThroughVault(ctx, r.QueryID(), o.owner, refund, false)

	o.logger.Info("order closed", zap.String("refund", refund.String()))
	return nil
}

// settleThroughVault instructs the parent vault to release a gross amount,
// with the provider and matcher cuts routed to the fee collector first.
func (o *Order) settleThroughVault(ctx *chain.Context, queryID uint64, beneficiary types.Address, gross math.Int, withFees bool) {
	provider, matcher := math.ZeroInt(), math.ZeroInt()
	if withFees {
		provider = feeCut(gross, o.fees.FeeNum, o.fees.FeeDenom)
		matcher = feeCut(gross, o.fees.MatcherFeeNum, o.fees.MatcherFeeDenom)
	}
	settle := types.Settle{
		Owner:       o.owner,
		CreatedAt:   o.createdAt,
		InitTerms:   o.initTerms,
		Fees:        o.fees,
		Beneficiary: beneficiary,
		NetAmount:   gross.Sub(provider).Sub(matcher),
		ProviderFee: provider,
		MatcherFee:  matcher,
	}
	ctx.Send(o.vault, settleFanOutCost(), false, settle.Encode(queryID))
}

func (o *Order) requireOpen() error {
	switch o.status {
	case OrderUninitialized:
		return types.ErrNotInitialized
	case OrderClosed:
		return types.ErrOrderClosed
	}
	return nil
}

func (o *Order) closeIfFilled() {
	if o.remaining.IsZero() && o.reserved.IsZero() && len(o.pending) == 0 {
		o.status = OrderClosed
		o.logger.Info("order fully matched")
	}
}

// OrderData is the read-only introspection snapshot.
type OrderData struct {
	Address       types.Address
	Owner         types.Address
	Vault         types.Address
	CreatedAt     int64
	Status        OrderStatus
	FromAsset     types.Asset
	ToAsset       types.Asset
	InitialAmount math.Int
	Remaining     math.Int
	Reserved      math.Int
	PriceRate     math.LegacyDec
	Slippage      math.LegacyDec
	Fees          types.FeeTerms
}

func (o *Order) Data() OrderData {
	return OrderData{
		Address:       o.addr,
		Owner:         o.owner,
		Vault:         o.vault,
		CreatedAt:     o.createdAt,
		Status:        o.status,
		FromAsset:     o.initTerms.FromAsset,
		ToAsset:       o.initTerms.ToAsset,
		InitialAmount: o.initTerms.Amount,
		Remaining:     o.remaining,
		Reserved:      o.reserved,
		PriceRate:     o.initTerms.PriceRate,
		Slippage:      o.initTerms.Slippage,
		Fees:          o.fees,
	}
}

func (o *Order) EncodeState() []byte {
	w := &types.Writer{}
	w.WriteAddress(o.owner)
	w.WriteAddress(o.vault)
	w.WriteInt64(o.createdAt)
	w.WriteUint8(byte(o.status))
	w.WriteAmount(o.remaining)
	w.WriteAmount(o.reserved)
	return w.Bytes()
}
