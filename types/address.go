package types

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/tendermint/tendermint/crypto/tmhash"
)

const AddressLen = tmhash.Size

// Address is a content-derived actor address. Child addresses are a pure
// function of the child's code image and canonical init parameters, so any
// actor can name a child before it exists on-chain and validate "did this
// message really come from the child I created" by recompute-and-compare.
type Address [AddressLen]byte

var ZeroAddress Address

func (a Address) Bytes() []byte { return a[:] }

func (a Address) String() string { return hex.EncodeToString(a[:]) }

func (a Address) Short() string { return hex.EncodeToString(a[:4]) }

func (a Address) Equals(b Address) bool { return bytes.Equal(a[:], b[:]) }

func (a Address) IsZero() bool { return a == ZeroAddress }

func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != AddressLen {
		return ZeroAddress, fmt.Errorf("invalid address length: got %d, want %d", len(b), AddressLen)
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

func AddressFromHex(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroAddress, fmt.Errorf("invalid address hex: %w", err)
	}
	return AddressFromBytes(b)
}

// Hash identifies a code image.
type Hash [tmhash.Size]byte

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// CodeHash derives the hash of a named code image.
func CodeHash(name string) Hash {
	var h Hash
	copy(h[:], tmhash.Sum([]byte(name)))
	return h
}

// DeriveAddress computes the deterministic address of a child actor from its
// code image hash and the canonical serialization of its init parameters.
// Every actor that needs to validate a child recomputes this; it is never
// stored as a pointer.
func DeriveAddress(code Hash, initData []byte) Address {
	h := tmhash.New()
	h.Write(code[:])
	h.Write(initData)
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

// ExternalAddress derives a stable address for an off-chain participant
// (depositor, matcher, operator) from an arbitrary identity string.
func ExternalAddress(identity string) Address {
	var a Address
	copy(a[:], tmhash.Sum([]byte("external/"+identity)))
	return a
}
