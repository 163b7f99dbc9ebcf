package escrow

import (
	"cosmossdk.io/math"
)

// Value pre-accounting constants, in the smallest native unit. Every hop
// checks that its attached value covers every downstream hop it commits to
// before any send; underfunding fails closed with no side effects.
var (
	VaultStorageReserve     = math.NewInt(50_000_000)
	OrderStorageReserve     = math.NewInt(30_000_000)
	CollectorStorageReserve = math.NewInt(20_000_000)

	InitVaultGas = math.NewInt(10_000_000)
	OrderInitGas = math.NewInt(15_000_000)
	TransferGas  = math.NewInt(10_000_000)
	MatchGas     = math.NewInt(20_000_000)
	SettleGas    = math.NewInt(15_000_000)
	AddFeeGas    = math.NewInt(10_000_000)
	NotifyGas    = math.NewInt(5_000_000)
	MinGas       = math.NewInt(5_000_000)
)

// settleFanOutCost is the value a Settle send carries so the vault can fund
// the beneficiary transfer and the AddFee hop.
func settleFanOutCost() math.Int {
	return SettleGas.Add(AddFeeGas).Add(TransferGas)
}

// createOrderGasCost is the gas, beyond the escrowed amount itself, required
// to deploy and initialize an order.
func createOrderGasCost() math.Int {
	return OrderStorageReserve.Add(OrderInitGas).Add(TransferGas)
}

// internalMatchCost is the value the originating order forwards to the
// counterpart: the counterpart's own processing and settlement fan-out plus
// the success reply carrying the origin's fan-out and matcher notification.
func internalMatchCost() math.Int {
	return MatchGas.Add(settleFanOutCost()).Add(settleFanOutCost()).Add(NotifyGas)
}

// matchOrderFloor is the minimum value a matcher must attach.
func matchOrderFloor() math.Int {
	return MatchGas.Add(internalMatchCost())
}

// closeOrderFloor is the minimum value to fund the refund settle.
func closeOrderFloor() math.Int {
	return MinGas.Add(settleFanOutCost())
}

// feeWithdrawFloor is the minimum value a fee withdrawal must attach to fund
// the collector hop and the vault release behind it.
func feeWithdrawFloor() math.Int {
	return MinGas.Add(SettleGas).Add(TransferGas)
}

// CreateOrderValue is the total value a native deposit of amount must carry.
func CreateOrderValue(amount math.Int) math.Int {
	return amount.Add(createOrderGasCost())
}

// TokenDepositGas is the value a token-notified deposit must carry beyond
// the token amount itself.
func TokenDepositGas() math.Int { return createOrderGasCost() }

// MatchOrderValue is the value a matcher should attach to a match request.
func MatchOrderValue() math.Int { return matchOrderFloor() }

// CloseOrderValue is the value an owner should attach to a close request.
func CloseOrderValue() math.Int { return closeOrderFloor() }

// FeeWithdrawValue is the value a fee withdrawal should attach.
func FeeWithdrawValue() math.Int { return feeWithdrawFloor() }

// DeployVaultValue is the value a vault deployment must carry.
func DeployVaultValue() math.Int {
	return VaultStorageReserve.Add(InitVaultGas).Add(MinGas)
}
