package chain

import (
	"github.com/vaultmatch/vault-engine/types"
)

// Actor is a single-threaded message handler owning its own state. The ledger
// delivers one envelope at a time to completion before the next; there is no
// shared memory between actors.
//
// Receive must follow check-then-act: any error return means no state was
// mutated, and the ledger discards every send queued during the call. An
// error on a bounceable envelope produces a bounce back to the sender.
type Actor interface {
	Address() types.Address
	Receive(ctx *Context) error
}

// StateEncoder is implemented by actors whose state cell is persisted after
// every processed message.
type StateEncoder interface {
	EncodeState() []byte
}
