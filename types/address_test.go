package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAddress_deterministic(t *testing.T) {
	code := CodeHash("escrow/order/v1")

	a := DeriveAddress(code, []byte("init-a"))
	b := DeriveAddress(code, []byte("init-a"))
	c := DeriveAddress(code, []byte("init-b"))
	d := DeriveAddress(CodeHash("escrow/order/v2"), []byte("init-a"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.False(t, a.IsZero())
}

func TestAddress_hexRoundTrip(t *testing.T) {
	a := ExternalAddress("alice")

	got, err := AddressFromHex(a.String())
	require.NoError(t, err)
	assert.True(t, a.Equals(got))

	_, err = AddressFromHex("zz")
	assert.Error(t, err)

	_, err = AddressFromHex("abcd")
	assert.Error(t, err)
}

func TestExternalAddress_distinct(t *testing.T) {
	assert.NotEqual(t, ExternalAddress("alice"), ExternalAddress("bob"))
	assert.Equal(t, ExternalAddress("alice"), ExternalAddress("alice"))
}
