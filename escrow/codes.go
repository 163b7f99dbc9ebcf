package escrow

import (
	"github.com/vaultmatch/vault-engine/types"
)

// Code image hashes of the protocol actors. Child addresses derive from
// these, so changing a code image changes every derived address.
var (
	FactoryCode   = types.CodeHash("escrow/vault-factory/v1")
	VaultCode     = types.CodeHash("escrow/vault/v1")
	OrderCode     = types.CodeHash("escrow/order/v1")
	CollectorCode = types.CodeHash("escrow/fee-collector/v1")
)

// ChildCodes are the code images a vault derives its children (and, for
// token vaults, its expected wallet) from.
type ChildCodes struct {
	Order     types.Hash
	Collector types.Hash
	Wallet    types.Hash
}
