package types

import (
	errorsmod "cosmossdk.io/errors"
)

const ModuleName = "escrow"

// Protocol exit codes. The registered numeric codes are stable and are the
// values surfaced to callers on rejection or bounce.
var (
	ErrInvalidSender      = errorsmod.Register(ModuleName, 2, "operation attempted by unauthorized sender")
	ErrInsufficientGas    = errorsmod.Register(ModuleName, 3, "attached value cannot fund this hop and its downstream hops")
	ErrAlreadyInitialized = errorsmod.Register(ModuleName, 4, "already initialized")
	ErrAssetMismatch      = errorsmod.Register(ModuleName, 5, "deposit asset does not match vault binding")
	ErrMissingPayload     = errorsmod.Register(ModuleName, 6, "required forward payload missing or malformed")
	ErrStaleCounterpart   = errorsmod.Register(ModuleName, 7, "counterpart created_at does not match live order")
	ErrIncompatibleMatch  = errorsmod.Register(ModuleName, 8, "amount or price outside acceptable bounds")
	ErrOrderClosed        = errorsmod.Register(ModuleName, 9, "order is closed")
	ErrNothingToRefund    = errorsmod.Register(ModuleName, 10, "no remaining amount to refund")
	ErrNotInitialized     = errorsmod.Register(ModuleName, 11, "actor is not initialized")
	ErrUnknownMessage     = errorsmod.Register(ModuleName, 12, "unknown opcode")
	ErrMatchInFlight      = errorsmod.Register(ModuleName, 13, "a match reservation is still in flight")
	ErrInsufficientFunds  = errorsmod.Register(ModuleName, 14, "sender balance cannot cover attached value")
)
