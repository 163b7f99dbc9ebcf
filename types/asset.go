package types

import "fmt"

type AssetKind uint8

const (
	AssetNative AssetKind = iota
	AssetToken
)

// Asset identifies what a vault escrows: the native ledger currency, or a
// fungible token identified by its minter address. Immutable after deploy.
type Asset struct {
	Kind   AssetKind
	Minter Address
}

func NativeAsset() Asset { return Asset{Kind: AssetNative} }

func TokenAsset(minter Address) Asset { return Asset{Kind: AssetToken, Minter: minter} }

func (a Asset) IsNative() bool { return a.Kind == AssetNative }

func (a Asset) Equals(b Asset) bool {
	return a.Kind == b.Kind && a.Minter.Equals(b.Minter)
}

func (a Asset) String() string {
	if a.IsNative() {
		return "native"
	}
	return fmt.Sprintf("token:%s", a.Minter)
}
