package types

import (
	"cosmossdk.io/math"
)

// Opcodes of the wire protocol. Token-rail opcodes follow the conventional
// fungible-token ledger values so the vault can consume standard wallet
// notifications.
const (
	OpInitVault                 uint32 = 0x1674a86e
	OpCreateOrder               uint32 = 0x7e30f2f1
	OpTokenNotify               uint32 = 0x7362d09c
	OpInitOrder                 uint32 = 0x3bd0d1a4
	OpMatchOrder                uint32 = 0x590c2a7c
	OpInternalMatchOrder        uint32 = 0x82301d2f
	OpInternalMatchOrderSuccess uint32 = 0x6cc43e15
	OpSuccessMatch              uint32 = 0x2f0c8e4b
	OpCloseOrder                uint32 = 0x5dcf1e09
	OpSettle                    uint32 = 0x41a3c1d5
	OpWithdrawFee               uint32 = 0x19f2b3a7
	OpAddFee                    uint32 = 0x2b9d0a11
	OpFeeWithdraw               uint32 = 0x61d7c204
	OpDeployVault               uint32 = 0x33f6d2a0
	OpTokenTransfer             uint32 = 0x0f8a7ea5
	OpTokenInternalTransfer     uint32 = 0x178d4519
	OpTokenMint                 uint32 = 0x642b7d07
	OpExcesses                  uint32 = 0xd53276db
)

// BounceMarker prefixes the body of a bounced message.
const BounceMarker uint32 = 0xffffffff

// ExchangeTerms is the nested exchange sub-record of an order: what is
// escrowed, what is wanted, and the declared price tolerance. PriceRate is
// quoted as units of the wanted asset per unit of the escrowed asset.
type ExchangeTerms struct {
	FromAsset Asset
	ToAsset   Asset
	Amount    math.Int
	PriceRate math.LegacyDec
	Slippage  math.LegacyDec
}

func (t ExchangeTerms) writeTo(w *Writer) {
	w.WriteAsset(t.FromAsset)
	w.WriteAsset(t.ToAsset)
	w.WriteAmount(t.Amount)
	w.WriteDec(t.PriceRate)
	w.WriteDec(t.Slippage)
}

func readExchangeTerms(r *Reader) ExchangeTerms {
	return ExchangeTerms{
		FromAsset: r.Asset(),
		ToAsset:   r.Asset(),
		Amount:    r.Amount(),
		PriceRate: r.Dec(),
		Slippage:  r.Dec(),
	}
}

// FeeTerms is the nested fee sub-record, fixed at order creation.
type FeeTerms struct {
	Recipient       Address
	FeeNum          uint64
	FeeDenom        uint64
	MatcherFeeNum   uint64
	MatcherFeeDenom uint64
}

func (f FeeTerms) writeTo(w *Writer) {
	w.WriteAddress(f.Recipient)
	w.WriteUint64(f.FeeNum)
	w.WriteUint64(f.FeeDenom)
	w.WriteUint64(f.MatcherFeeNum)
	w.WriteUint64(f.MatcherFeeDenom)
}

func readFeeTerms(r *Reader) FeeTerms {
	return FeeTerms{
		Recipient:       r.Address(),
		FeeNum:          r.Uint64(),
		FeeDenom:        r.Uint64(),
		MatcherFeeNum:   r.Uint64(),
		MatcherFeeDenom: r.Uint64(),
	}
}

// OrderInitData is the canonical init-parameter serialization an order
// address derives from. Amount here is the initial escrowed amount, never the
// mutable remainder.
func OrderInitData(owner, vault Address, createdAt int64, terms ExchangeTerms, fees FeeTerms) []byte {
	w := &Writer{}
	w.WriteAddress(owner)
	w.WriteAddress(vault)
	w.WriteInt64(createdAt)
	terms.writeTo(w)
	fees.writeTo(w)
	return w.Bytes()
}

// VaultInitData is the canonical init-parameter serialization of a vault.
func VaultInitData(factory Address, asset Asset) []byte {
	w := &Writer{}
	w.WriteAddress(factory)
	w.WriteAsset(asset)
	return w.Bytes()
}

// CollectorInitData is the canonical init-parameter serialization of a fee
// collector.
func CollectorInitData(vault, owner Address) []byte {
	w := &Writer{}
	w.WriteAddress(vault)
	w.WriteAddress(owner)
	return w.Bytes()
}

// WalletInitData is the canonical init-parameter serialization of a token
// wallet.
func WalletInitData(minter, owner Address) []byte {
	w := &Writer{}
	w.WriteAddress(minter)
	w.WriteAddress(owner)
	return w.Bytes()
}

// InitVault activates a freshly deployed vault. Factory only.
type InitVault struct{}

func (InitVault) Encode(queryID uint64) []byte {
	return NewWriter(OpInitVault, queryID).Bytes()
}

// CreateOrder is the native-value deposit shape. The token-notified shape
// carries the same payload inside TokenNotify.
type CreateOrder struct {
	Terms ExchangeTerms
	Fees  FeeTerms
}

func (m CreateOrder) Encode(queryID uint64) []byte {
	w := NewWriter(OpCreateOrder, queryID)
	m.Terms.writeTo(w)
	m.Fees.writeTo(w)
	return w.Bytes()
}

// EncodePayload encodes the deposit payload without the record header, for
// forwarding inside a token transfer.
func (m CreateOrder) EncodePayload() []byte {
	w := &Writer{}
	m.Terms.writeTo(w)
	m.Fees.writeTo(w)
	return w.Bytes()
}

func DecodeCreateOrder(r *Reader) (CreateOrder, error) {
	m := CreateOrder{
		Terms: readExchangeTerms(r),
		Fees:  readFeeTerms(r),
	}
	return m, r.Err()
}

// DecodeCreateOrderPayload decodes a header-less deposit payload.
func DecodeCreateOrderPayload(payload []byte) (CreateOrder, error) {
	r := &Reader{rest: payload}
	return DecodeCreateOrder(r)
}

// TokenNotify is the wallet's inbound-deposit notification to its owner.
type TokenNotify struct {
	Amount  math.Int
	Sender  Address
	Payload []byte
}

func (m TokenNotify) Encode(queryID uint64) []byte {
	w := NewWriter(OpTokenNotify, queryID)
	w.WriteAmount(m.Amount)
	w.WriteAddress(m.Sender)
	w.WriteBytes(m.Payload)
	return w.Bytes()
}

func DecodeTokenNotify(r *Reader) (TokenNotify, error) {
	m := TokenNotify{
		Amount:  r.Amount(),
		Sender:  r.Address(),
		Payload: r.ReadBytes(),
	}
	return m, r.Err()
}

// InitOrder initializes a freshly deployed order. Parent vault only.
type InitOrder struct {
	Owner     Address
	CreatedAt int64
	Terms     ExchangeTerms
	Fees      FeeTerms
}

func (m InitOrder) Encode(queryID uint64) []byte {
	w := NewWriter(OpInitOrder, queryID)
	w.WriteAddress(m.Owner)
	w.WriteInt64(m.CreatedAt)
	m.Terms.writeTo(w)
	m.Fees.writeTo(w)
	return w.Bytes()
}

func DecodeInitOrder(r *Reader) (InitOrder, error) {
	m := InitOrder{
		Owner:     r.Address(),
		CreatedAt: r.Int64(),
		Terms:     readExchangeTerms(r),
		Fees:      readFeeTerms(r),
	}
	return m, r.Err()
}

// MatchOrder is the matcher's pairing request. Matching is permissionless;
// CounterCreatedAt is the anti-staleness token the counterpart must still
// carry for the match to execute.
type MatchOrder struct {
	CounterVault     Address
	CounterOwner     Address
	CounterOrder     Address
	CounterCreatedAt int64
	Amount           math.Int
}

func (m MatchOrder) Encode(queryID uint64) []byte {
	w := NewWriter(OpMatchOrder, queryID)
	w.WriteAddress(m.CounterVault)
	w.WriteAddress(m.CounterOwner)
	w.WriteAddress(m.CounterOrder)
	w.WriteInt64(m.CounterCreatedAt)
	w.WriteAmount(m.Amount)
	return w.Bytes()
}

func DecodeMatchOrder(r *Reader) (MatchOrder, error) {
	m := MatchOrder{
		CounterVault:     r.Address(),
		CounterOwner:     r.Address(),
		CounterOrder:     r.Address(),
		CounterCreatedAt: r.Int64(),
		Amount:           r.Amount(),
	}
	return m, r.Err()
}

// InternalMatchOrder is the order-to-order leg of a match. It carries the
// originating order's full init parameters so the counterpart can recompute
// and validate the sender address, plus the matcher's view of the
// counterpart's creation time.
type InternalMatchOrder struct {
	OriginOwner       Address
	OriginVault       Address
	OriginCreatedAt   int64
	OriginInitTerms   ExchangeTerms
	OriginFees        FeeTerms
	ExpectedCreatedAt int64
	Amount            math.Int
	Matcher           Address
}

func (m InternalMatchOrder) Encode(queryID uint64) []byte {
	w := NewWriter(OpInternalMatchOrder, queryID)
	w.WriteAddress(m.OriginOwner)
	w.WriteAddress(m.OriginVault)
	w.WriteInt64(m.OriginCreatedAt)
	m.OriginInitTerms.writeTo(w)
	m.OriginFees.writeTo(w)
	w.WriteInt64(m.ExpectedCreatedAt)
	w.WriteAmount(m.Amount)
	w.WriteAddress(m.Matcher)
	return w.Bytes()
}

func DecodeInternalMatchOrder(r *Reader) (InternalMatchOrder, error) {
	m := InternalMatchOrder{
		OriginOwner:       r.Address(),
		OriginVault:       r.Address(),
		OriginCreatedAt:   r.Int64(),
		OriginInitTerms:   readExchangeTerms(r),
		OriginFees:        readFeeTerms(r),
		ExpectedCreatedAt: r.Int64(),
		Amount:            r.Amount(),
		Matcher:           r.Address(),
	}
	return m, r.Err()
}

// OriginOrderAddress recomputes the originating order's address from the
// claimed init parameters.
func (m InternalMatchOrder) OriginOrderAddress(orderCode Hash) Address {
	return DeriveAddress(orderCode, OrderInitData(m.OriginOwner, m.OriginVault, m.OriginCreatedAt, m.OriginInitTerms, m.OriginFees))
}

// InternalMatchOrderSuccess confirms a match back to the originating order.
type InternalMatchOrderSuccess struct {
	Amount        math.Int
	CounterAmount math.Int
}

func (m InternalMatchOrderSuccess) Encode(queryID uint64) []byte {
	w := NewWriter(OpInternalMatchOrderSuccess, queryID)
	w.WriteAmount(m.Amount)
	w.WriteAmount(m.CounterAmount)
	return w.Bytes()
}

func DecodeInternalMatchOrderSuccess(r *Reader) (InternalMatchOrderSuccess, error) {
	m := InternalMatchOrderSuccess{
		Amount:        r.Amount(),
		CounterAmount: r.Amount(),
	}
	return m, r.Err()
}

// SuccessMatch is the settlement summary emitted to the matcher.
type SuccessMatch struct {
	Order         Address
	CounterOrder  Address
	Amount        math.Int
	CounterAmount math.Int
}

func (m SuccessMatch) Encode(queryID uint64) []byte {
	w := NewWriter(OpSuccessMatch, queryID)
	w.WriteAddress(m.Order)
	w.WriteAddress(m.CounterOrder)
	w.WriteAmount(m.Amount)
	w.WriteAmount(m.CounterAmount)
	return w.Bytes()
}

func DecodeSuccessMatch(r *Reader) (SuccessMatch, error) {
	m := SuccessMatch{
		Order:         r.Address(),
		CounterOrder:  r.Address(),
		Amount:        r.Amount(),
		CounterAmount: r.Amount(),
	}
	return m, r.Err()
}

// CloseOrder cancels an open order. Owner only.
type CloseOrder struct{}

func (CloseOrder) Encode(queryID uint64) []byte {
	return NewWriter(OpCloseOrder, queryID).Bytes()
}

// Settle instructs a vault to release escrowed value. The vault validates the
// sender by recomputing the order address from the claimed init parameters.
type Settle struct {
	Owner       Address
	CreatedAt   int64
	InitTerms   ExchangeTerms
	Fees        FeeTerms
	Beneficiary Address
	NetAmount   math.Int
	ProviderFee math.Int
	MatcherFee  math.Int
}

func (m Settle) Encode(queryID uint64) []byte {
	w := NewWriter(OpSettle, queryID)
	w.WriteAddress(m.Owner)
	w.WriteInt64(m.CreatedAt)
	m.InitTerms.writeTo(w)
	m.Fees.writeTo(w)
	w.WriteAddress(m.Beneficiary)
	w.WriteAmount(m.NetAmount)
	w.WriteAmount(m.ProviderFee)
	w.WriteAmount(m.MatcherFee)
	return w.Bytes()
}

func DecodeSettle(r *Reader) (Settle, error) {
	m := Settle{
		Owner:       r.Address(),
		CreatedAt:   r.Int64(),
		InitTerms:   readExchangeTerms(r),
		Fees:        readFeeTerms(r),
		Beneficiary: r.Address(),
		NetAmount:   r.Amount(),
		ProviderFee: r.Amount(),
		MatcherFee:  r.Amount(),
	}
	return m, r.Err()
}

// OrderAddress recomputes the claimed order address.
func (m Settle) OrderAddress(orderCode Hash, vault Address) Address {
	return DeriveAddress(orderCode, OrderInitData(m.Owner, vault, m.CreatedAt, m.InitTerms, m.Fees))
}

// WithdrawFee instructs a vault to release accrued fees. Fee collector only.
type WithdrawFee struct {
	Beneficiary Address
	Amount      math.Int
}

func (m WithdrawFee) Encode(queryID uint64) []byte {
	w := NewWriter(OpWithdrawFee, queryID)
	w.WriteAddress(m.Beneficiary)
	w.WriteAmount(m.Amount)
	return w.Bytes()
}

func DecodeWithdrawFee(r *Reader) (WithdrawFee, error) {
	m := WithdrawFee{
		Beneficiary: r.Address(),
		Amount:      r.Amount(),
	}
	return m, r.Err()
}

// AddFee accrues fee income on a collector. Vault only.
type AddFee struct {
	Amount math.Int
}

func (m AddFee) Encode(queryID uint64) []byte {
	w := NewWriter(OpAddFee, queryID)
	w.WriteAmount(m.Amount)
	return w.Bytes()
}

func DecodeAddFee(r *Reader) (AddFee, error) {
	m := AddFee{Amount: r.Amount()}
	return m, r.Err()
}

// FeeWithdraw drains a collector. Owner only; a zero amount means all.
type FeeWithdraw struct {
	Amount math.Int
}

func (m FeeWithdraw) Encode(queryID uint64) []byte {
	w := NewWriter(OpFeeWithdraw, queryID)
	w.WriteAmount(m.Amount)
	return w.Bytes()
}

func DecodeFeeWithdraw(r *Reader) (FeeWithdraw, error) {
	m := FeeWithdraw{Amount: r.Amount()}
	return m, r.Err()
}

// DeployVault asks the factory to deploy and initialize a vault for an asset.
type DeployVault struct {
	Asset Asset
}

func (m DeployVault) Encode(queryID uint64) []byte {
	w := NewWriter(OpDeployVault, queryID)
	w.WriteAsset(m.Asset)
	return w.Bytes()
}

func DecodeDeployVault(r *Reader) (DeployVault, error) {
	m := DeployVault{Asset: r.Asset()}
	return m, r.Err()
}

// TokenTransfer is the owner-to-wallet transfer request on the token rails.
type TokenTransfer struct {
	Amount         math.Int
	Destination    Address
	ForwardValue   math.Int
	ForwardPayload []byte
}

func (m TokenTransfer) Encode(queryID uint64) []byte {
	w := NewWriter(OpTokenTransfer, queryID)
	w.WriteAmount(m.Amount)
	w.WriteAddress(m.Destination)
	w.WriteAmount(m.ForwardValue)
	w.WriteBytes(m.ForwardPayload)
	return w.Bytes()
}

func DecodeTokenTransfer(r *Reader) (TokenTransfer, error) {
	m := TokenTransfer{
		Amount:         r.Amount(),
		Destination:    r.Address(),
		ForwardValue:   r.Amount(),
		ForwardPayload: r.ReadBytes(),
	}
	return m, r.Err()
}

// TokenInternalTransfer is the wallet-to-wallet leg of a token transfer.
type TokenInternalTransfer struct {
	Amount         math.Int
	From           Address
	ForwardValue   math.Int
	ForwardPayload []byte
}

func (m TokenInternalTransfer) Encode(queryID uint64) []byte {
	w := NewWriter(OpTokenInternalTransfer, queryID)
	w.WriteAmount(m.Amount)
	w.WriteAddress(m.From)
	w.WriteAmount(m.ForwardValue)
	w.WriteBytes(m.ForwardPayload)
	return w.Bytes()
}

func DecodeTokenInternalTransfer(r *Reader) (TokenInternalTransfer, error) {
	m := TokenInternalTransfer{
		Amount:         r.Amount(),
		From:           r.Address(),
		ForwardValue:   r.Amount(),
		ForwardPayload: r.ReadBytes(),
	}
	return m, r.Err()
}

// TokenMint credits freshly minted tokens to an owner's wallet. Minter admin
// only.
type TokenMint struct {
	To     Address
	Amount math.Int
}

func (m TokenMint) Encode(queryID uint64) []byte {
	w := NewWriter(OpTokenMint, queryID)
	w.WriteAddress(m.To)
	w.WriteAmount(m.Amount)
	return w.Bytes()
}

func DecodeTokenMint(r *Reader) (TokenMint, error) {
	m := TokenMint{
		To:     r.Address(),
		Amount: r.Amount(),
	}
	return m, r.Err()
}
