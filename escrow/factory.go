package escrow

import (
	"sort"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	"github.com/vaultmatch/vault-engine/chain"
	"github.com/vaultmatch/vault-engine/types"
)

// CommissionSchedule is the global fee configuration stamped onto deposits
// composed by this deployment.
type CommissionSchedule struct {
	FeeNum          uint64
	FeeDenom        uint64
	MatcherFeeNum   uint64
	MatcherFeeDenom uint64
}

// FeeTerms materializes the schedule for one order.
func (s CommissionSchedule) FeeTerms(recipient types.Address) types.FeeTerms {
	return types.FeeTerms{
		Recipient:       recipient,
		FeeNum:          s.FeeNum,
		FeeDenom:        s.FeeDenom,
		MatcherFeeNum:   s.MatcherFeeNum,
		MatcherFeeDenom: s.MatcherFeeDenom,
	}
}

// VaultFactory owns the code images and commission schedule, deploys vaults
// deterministically and gates their initialization. It is out of the hot
// path once a vault exists.
type VaultFactory struct {
	addr     types.Address
	owner    types.Address
	codes    ChildCodes
	schedule CommissionSchedule
	vaults   map[string]types.Address

	base   *zap.Logger
	logger *zap.Logger
}

func NewVaultFactory(owner types.Address, codes ChildCodes, schedule CommissionSchedule, logger *zap.Logger) *VaultFactory {
	w := &types.Writer{}
	w.WriteAddress(owner)
	addr := types.DeriveAddress(FactoryCode, w.Bytes())
	return &VaultFactory{
		addr:     addr,
		owner:    owner,
		codes:    codes,
		schedule: schedule,
		vaults:   make(map[string]types.Address),
		base:     logger,
		logger: logger.With(
			zap.String("module", "vault-factory"),
			zap.String("addr", addr.Short()),
		),
	}
}

func (f *VaultFactory) Address() types.Address { return f.addr }

func (f *VaultFactory) Owner() types.Address { return f.owner }

func (f *VaultFactory) Schedule() CommissionSchedule { return f.schedule }

// VaultFor returns the deployed vault for an asset, if any.
func (f *VaultFactory) VaultFor(asset types.Asset) (types.Address, bool) {
	addr, ok := f.vaults[asset.String()]
	return addr, ok
}

// Vaults returns the deployed vaults keyed by asset.
func (f *VaultFactory) Vaults() map[string]types.Address {
	out := make(map[string]types.Address, len(f.vaults))
	for k, v := range f.vaults {
		out[k] = v
	}
	return out
}

func (f *VaultFactory) Receive(ctx *chain.Context) error {
	if ctx.Env.Bounced {
		return nil
	}
	r, err := ctx.Env.Reader()
	if err != nil {
		return err
	}

	switch r.Op() {
	case types.OpDeployVault:
		return f.deployVault(ctx, r)
	case types.OpExcesses:
		return nil
	default:
		return errorsmod.Wrapf(types.ErrUnknownMessage, "vault factory: opcode %#x", r.Op())
	}
}

func (f *VaultFactory) deployVault(ctx *chain.Context, r *types.Reader) error {
	if !ctx.Sender().Equals(f.owner) {
		return errorsmod.Wrapf(types.ErrInvalidSender, "deploy from %s, owner is %s", ctx.Sender().Short(), f.owner.Short())
	}
	msg, err := types.DecodeDeployVault(r)
	if err != nil {
		return err
	}
	if _, exists := f.vaults[msg.Asset.String()]; exists {
		return errorsmod.Wrapf(types.ErrAlreadyInitialized, "vault for %s already deployed", msg.Asset)
	}
	if ctx.Value().LT(DeployVaultValue()) {
		return errorsmod.Wrapf(types.ErrInsufficientGas, "deploy carries %s, needs %s", ctx.Value(), DeployVaultValue())
	}

	vault := NewVault(f.addr, msg.Asset, f.codes, f.owner, f.base)
	ctx.Deploy(vault, VaultStorageReserve.Add(InitVaultGas), types.InitVault{}.Encode(r.QueryID()))
	f.vaults[msg.Asset.String()] = vault.Address()

	f.logger.Info("vault deployed",
		zap.String("vault", vault.Address().Short()),
		zap.String("asset", msg.Asset.String()),
	)
	return nil
}

func (f *VaultFactory) EncodeState() []byte {
	keys := make([]string, 0, len(f.vaults))
	for k := range f.vaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := &types.Writer{}
	w.WriteAddress(f.owner)
	w.WriteUint32(uint32(len(keys)))
	for _, k := range keys {
		w.WriteBytes([]byte(k))
		w.WriteAddress(f.vaults[k])
	}
	return w.Bytes()
}
