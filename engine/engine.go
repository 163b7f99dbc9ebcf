package engine

import (
	"context"
	"encoding/binary"
	"fmt"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/chain"
	"github.com/vaultmatch/vault-engine/config"
	"github.com/vaultmatch/vault-engine/escrow"
	"github.com/vaultmatch/vault-engine/store"
	"github.com/vaultmatch/vault-engine/token"
	"github.com/vaultmatch/vault-engine/types"
)

// Engine is the composition root: it owns the ledger, the durable cell
// store, the vault factory and the token minters, and translates external
// requests into signed-equivalent ledger messages.
type Engine struct {
	cfg    config.Config
	logger *zap.Logger

	ledger  *chain.Ledger
	cells   *store.Store
	factory *escrow.VaultFactory

	operator types.Address
	minters  map[string]*token.Minter // symbol:minter
	assets   config.AssetRegistry
}

func New(cfg config.Config, logger *zap.Logger) (*Engine, error) {
	assets, err := config.LoadAssets(cfg.AssetsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset registry: %w", err)
	}

	var opts []chain.Option
	var cells *store.Store
	if cfg.DBPath != "" {
		cells, err = store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open cell store: %w", err)
		}
		opts = append(opts, chain.WithCellStore(cells))
	}

	ledger := chain.NewLedger(logger, opts...)
	operator := types.ExternalAddress(cfg.Operator.Identity)

	schedule := escrow.CommissionSchedule{
		FeeNum:          cfg.Fees.ProviderFeeNum,
		FeeDenom:        cfg.Fees.ProviderFeeDenom,
		MatcherFeeNum:   cfg.Fees.MatcherFeeNum,
		MatcherFeeDenom: cfg.Fees.MatcherFeeDenom,
	}
	codes := escrow.ChildCodes{
		Order:     escrow.OrderCode,
		Collector: escrow.CollectorCode,
		Wallet:    token.WalletCode,
	}
	factory := escrow.NewVaultFactory(operator, codes, schedule, logger)
	ledger.Register(factory, math.ZeroInt())

	return &Engine{
		cfg:      cfg,
		logger:   logger.With(zap.String("module", "engine")),
		ledger:   ledger,
		cells:    cells,
		factory:  factory,
		operator: operator,
		minters:  make(map[string]*token.Minter),
		assets:   assets,
	}, nil
}

// Start brings up the ledger and provisions the native vault plus one minter
// and one vault per declared asset.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.ledger.Start(); err != nil {
		return fmt.Errorf("failed to start ledger: %w", err)
	}

	balance, err := parseInt(e.cfg.Operator.InitialBalance)
	if err != nil {
		return fmt.Errorf("invalid operator initial balance: %w", err)
	}
	e.ledger.Faucet(e.operator, balance)

	if err := e.deployVault(types.NativeAsset()); err != nil {
		return fmt.Errorf("failed to deploy native vault: %w", err)
	}

	for _, spec := range e.assets.Assets {
		minter := token.NewMinter(e.operator, spec.Symbol, e.logger)
		e.ledger.Register(minter, math.ZeroInt())
		e.minters[spec.Symbol] = minter

		if err := e.deployVault(types.TokenAsset(minter.Address())); err != nil {
			return fmt.Errorf("failed to deploy vault for %s: %w", spec.Symbol, err)
		}
		if spec.InitialSupply != "" {
			supply, err := parseInt(spec.InitialSupply)
			if err != nil {
				return fmt.Errorf("invalid initial supply for %s: %w", spec.Symbol, err)
			}
			if err := e.MintTokens(spec.Symbol, e.cfg.Operator.Identity, supply); err != nil {
				return fmt.Errorf("failed to mint initial supply for %s: %w", spec.Symbol, err)
			}
		}
	}

	e.logger.Info("engine started",
		zap.String("operator", e.operator.Short()),
		zap.Int("token_assets", len(e.minters)),
	)
	return nil
}

func (e *Engine) Stop() error {
	if err := e.ledger.Stop(); err != nil {
		return err
	}
	if e.cells != nil {
		return e.cells.Close()
	}
	return nil
}

func (e *Engine) deployVault(asset types.Asset) error {
	msg := types.DeployVault{Asset: asset}
	return e.ledger.Submit(chain.Envelope{
		From:  e.operator,
		To:    e.factory.Address(),
		Value: escrow.DeployVaultValue(),
		Body:  msg.Encode(e.nextQueryID()),
	})
}

// Faucet credits an external identity with native value.
func (e *Engine) Faucet(identity string, amount math.Int) {
	e.ledger.Faucet(types.ExternalAddress(identity), amount)
}

// Balance reports the native balance of an external identity.
func (e *Engine) Balance(identity string) math.Int {
	return e.ledger.BalanceOf(types.ExternalAddress(identity))
}

// MintTokens mints supply of a declared asset into an identity's wallet.
// Operator only, by way of the minter admin check.
func (e *Engine) MintTokens(symbol, owner string, amount math.Int) error {
	minter, ok := e.minters[symbol]
	if !ok {
		return fmt.Errorf("unknown asset symbol: %s", symbol)
	}
	msg := types.TokenMint{To: types.ExternalAddress(owner), Amount: amount}
	return e.ledger.Submit(chain.Envelope{
		From:  e.operator,
		To:    minter.Address(),
		Value: token.WalletStorageReserve.Add(token.MintGas),
		Body:  msg.Encode(e.nextQueryID()),
	})
}

// CreateOrderParams describes a deposit request from an external owner.
type CreateOrderParams struct {
	Owner     string
	FromAsset string // "native" or a declared symbol
	ToAsset   string
	Amount    math.Int
	PriceRate math.LegacyDec
	Slippage  math.LegacyDec
}

// CreateOrder escrows a deposit and returns the address of the order it
// created. Native deposits go straight to the vault; token deposits ride the
// owner's wallet with the exchange payload forwarded.
func (e *Engine) CreateOrder(p CreateOrderParams) (types.Address, error) {
	fromAsset, err := e.resolveAsset(p.FromAsset)
	if err != nil {
		return types.Address{}, err
	}
	toAsset, err := e.resolveAsset(p.ToAsset)
	if err != nil {
		return types.Address{}, err
	}
	vaultAddr, ok := e.factory.VaultFor(fromAsset)
	if !ok {
		return types.Address{}, fmt.Errorf("no vault for asset %s", fromAsset)
	}
	owner := types.ExternalAddress(p.Owner)

	msg := types.CreateOrder{
		Terms: types.ExchangeTerms{
			FromAsset: fromAsset,
			ToAsset:   toAsset,
			Amount:    p.Amount,
			PriceRate: p.PriceRate,
			Slippage:  p.Slippage,
		},
		Fees: e.factory.Schedule().FeeTerms(e.factory.Owner()),
	}

	before := e.orderAddresses()

	if fromAsset.IsNative() {
		err = e.ledger.Submit(chain.Envelope{
			From:   owner,
			To:     vaultAddr,
			Value:  escrow.CreateOrderValue(p.Amount),
			Bounce: true,
			Body:   msg.Encode(e.nextQueryID()),
		})
	} else {
		transfer := types.TokenTransfer{
			Amount:         p.Amount,
			Destination:    vaultAddr,
			ForwardValue:   escrow.TokenDepositGas(),
			ForwardPayload: msg.EncodePayload(),
		}
		err = e.ledger.Submit(chain.Envelope{
			From:   owner,
			To:     token.WalletAddress(fromAsset.Minter, owner),
			Value:  token.TransferGas.Add(escrow.TokenDepositGas()),
			Bounce: true,
			Body:   transfer.Encode(e.nextQueryID()),
		})
	}
	if err != nil {
		return types.Address{}, err
	}

	addr, ok := e.newOrderFor(owner, before)
	if !ok {
		return types.Address{}, fmt.Errorf("deposit accepted but no order observed")
	}
	return addr, nil
}

// MatchOrders submits a match request to order A naming order B as the
// counterpart. Both orders must be live; the counterpart parameters are read
// from B's current state so the staleness token is exact.
func (e *Engine) MatchOrders(matcher string, orderA, orderB types.Address, amount math.Int) error {
	a, err := e.Order(orderA)
	if err != nil {
		return err
	}
	b, err := e.Order(orderB)
	if err != nil {
		return err
	}
	if amount.IsNil() || amount.IsZero() {
		amount = a.Remaining
	}

	msg := types.MatchOrder{
		CounterVault:     b.Vault,
		CounterOwner:     b.Owner,
		CounterOrder:     orderB,
		CounterCreatedAt: b.CreatedAt,
		Amount:           amount,
	}
	return e.ledger.Submit(chain.Envelope{
		From:   types.ExternalAddress(matcher),
		To:     orderA,
		Value:  escrow.MatchOrderValue(),
		Bounce: true,
		Body:   msg.Encode(e.nextQueryID()),
	})
}

// CloseOrder cancels an order and refunds its remaining escrow to the owner.
func (e *Engine) CloseOrder(owner string, order types.Address) error {
	msg := types.CloseOrder{}
	return e.ledger.Submit(chain.Envelope{
		From:   types.ExternalAddress(owner),
		To:     order,
		Value:  escrow.CloseOrderValue(),
		Bounce: true,
		Body:   msg.Encode(e.nextQueryID()),
	})
}

// WithdrawFees asks a vault's collector to release accrued fees to the fee
// owner. A zero amount withdraws everything.
func (e *Engine) WithdrawFees(vault types.Address, amount math.Int) error {
	data, err := e.Vault(vault)
	if err != nil {
		return err
	}
	msg := types.FeeWithdraw{Amount: amount}
	return e.ledger.Submit(chain.Envelope{
		From:   e.operator,
		To:     data.FeeCollector,
		Value:  escrow.FeeWithdrawValue(),
		Bounce: true,
		Body:   msg.Encode(e.nextQueryID()),
	})
}

// Vaults lists the deployed vaults.
func (e *Engine) Vaults() []escrow.VaultData {
	var out []escrow.VaultData
	e.ledger.Range(func(a chain.Actor) bool {
		if v, ok := a.(*escrow.Vault); ok {
			out = append(out, v.Data())
		}
		return true
	})
	return out
}

func (e *Engine) Vault(addr types.Address) (escrow.VaultData, error) {
	a, ok := e.ledger.Actor(addr)
	if !ok {
		return escrow.VaultData{}, fmt.Errorf("no vault at %s", addr)
	}
	v, ok := a.(*escrow.Vault)
	if !ok {
		return escrow.VaultData{}, fmt.Errorf("actor at %s is not a vault", addr)
	}
	return v.Data(), nil
}

// Orders lists all deployed orders, open and closed.
func (e *Engine) Orders() []escrow.OrderData {
	var out []escrow.OrderData
	e.ledger.Range(func(a chain.Actor) bool {
		if o, ok := a.(*escrow.Order); ok {
			out = append(out, o.Data())
		}
		return true
	})
	return out
}

func (e *Engine) Order(addr types.Address) (escrow.OrderData, error) {
	a, ok := e.ledger.Actor(addr)
	if !ok {
		return escrow.OrderData{}, fmt.Errorf("no order at %s", addr)
	}
	o, ok := a.(*escrow.Order)
	if !ok {
		return escrow.OrderData{}, fmt.Errorf("actor at %s is not an order", addr)
	}
	return o.Data(), nil
}

// Collector reports a vault's fee collector state. An undeployed collector
// is a zero balance, not an error: no fee has been accrued yet.
func (e *Engine) Collector(vault types.Address) (escrow.CollectorData, error) {
	data, err := e.Vault(vault)
	if err != nil {
		return escrow.CollectorData{}, err
	}
	a, ok := e.ledger.Actor(data.FeeCollector)
	if !ok {
		return escrow.CollectorData{
			Address: data.FeeCollector,
			Vault:   vault,
			Owner:   e.factory.Owner(),
			Balance: math.ZeroInt(),
		}, nil
	}
	c, ok := a.(*escrow.FeeCollector)
	if !ok {
		return escrow.CollectorData{}, fmt.Errorf("actor at %s is not a fee collector", data.FeeCollector)
	}
	return c.Data(), nil
}

// Wallet reports an identity's balance on a declared token ledger.
func (e *Engine) Wallet(symbol, owner string) (token.WalletData, error) {
	minter, ok := e.minters[symbol]
	if !ok {
		return token.WalletData{}, fmt.Errorf("unknown asset symbol: %s", symbol)
	}
	addr := minter.WalletAddress(types.ExternalAddress(owner))
	a, ok := e.ledger.Actor(addr)
	if !ok {
		return token.WalletData{
			Address: addr,
			Minter:  minter.Address(),
			Owner:   types.ExternalAddress(owner),
			Balance: math.ZeroInt(),
		}, nil
	}
	w, ok := a.(*token.Wallet)
	if !ok {
		return token.WalletData{}, fmt.Errorf("actor at %s is not a wallet", addr)
	}
	return w.Data(), nil
}

func (e *Engine) resolveAsset(symbol string) (types.Asset, error) {
	if symbol == "" || symbol == "native" {
		return types.NativeAsset(), nil
	}
	minter, ok := e.minters[symbol]
	if !ok {
		return types.Asset{}, fmt.Errorf("unknown asset symbol: %s", symbol)
	}
	return types.TokenAsset(minter.Address()), nil
}

func (e *Engine) orderAddresses() map[types.Address]struct{} {
	seen := make(map[types.Address]struct{})
	e.ledger.Range(func(a chain.Actor) bool {
		if _, ok := a.(*escrow.Order); ok {
			seen[a.Address()] = struct{}{}
		}
		return true
	})
	return seen
}

// newOrderFor finds the order deployed for owner by the submit that just
// completed. Submit processes its cascade synchronously, so the new order is
// already registered when this runs.
func (e *Engine) newOrderFor(owner types.Address, before map[types.Address]struct{}) (types.Address, bool) {
	var addr types.Address
	var found bool
	e.ledger.Range(func(a chain.Actor) bool {
		o, ok := a.(*escrow.Order)
		if !ok {
			return true
		}
		if _, old := before[o.Address()]; old {
			return true
		}
		if o.Data().Owner.Equals(owner) {
			addr, found = o.Address(), true
			return false
		}
		return true
	})
	return addr, found
}

func (e *Engine) nextQueryID() uint64 {
	id := uuid.New()
	return binary.BigEndian.Uint64(id[:8])
}

func parseInt(s string) (math.Int, error) {
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, fmt.Errorf("invalid integer amount: %q", s)
	}
	return v, nil
}
