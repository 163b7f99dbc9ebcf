package types

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReader_roundTrip(t *testing.T) {
	addr := ExternalAddress("alice")
	asset := TokenAsset(ExternalAddress("minter"))

	w := NewWriter(OpMatchOrder, 42)
	w.WriteUint32(7)
	w.WriteInt64(-13)
	w.WriteBool(true)
	w.WriteAddress(addr)
	w.WriteAsset(asset)
	w.WriteAmount(math.NewInt(1_000_000_000))
	w.WriteDec(math.LegacyMustNewDecFromStr("1.5"))
	w.WriteBytes([]byte("payload"))

	r, err := NewReader(w.Bytes())
	require.NoError(t, err)

	assert.Equal(t, OpMatchOrder, r.Op())
	assert.Equal(t, uint64(42), r.QueryID())
	assert.Equal(t, uint32(7), r.Uint32())
	assert.Equal(t, int64(-13), r.Int64())
	assert.True(t, r.Bool())
	assert.Equal(t, addr, r.Address())
	assert.True(t, asset.Equals(r.Asset()))
	assert.Equal(t, math.NewInt(1_000_000_000), r.Amount())
	assert.Equal(t, math.LegacyMustNewDecFromStr("1.5"), r.Dec())
	assert.Equal(t, []byte("payload"), r.ReadBytes())
	require.NoError(t, r.Err())
	assert.Empty(t, r.Remaining())
}

func TestReader_headerTooShort(t *testing.T) {
	_, err := NewReader([]byte{0x01, 0x02})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingPayload)
}

func TestReader_stickyOnTruncation(t *testing.T) {
	w := NewWriter(OpCloseOrder, 1)
	w.WriteUint32(5)

	r, err := NewReader(w.Bytes())
	require.NoError(t, err)

	assert.Equal(t, uint32(5), r.Uint32())
	// next read runs off the end and latches the error
	assert.Equal(t, uint64(0), r.Uint64())
	require.Error(t, r.Err())
	assert.ErrorIs(t, r.Err(), ErrMissingPayload)
	// subsequent reads keep returning zero values
	assert.Equal(t, ZeroAddress, r.Address())
	assert.True(t, r.Amount().IsZero())
}

func TestMessage_roundTrip(t *testing.T) {
	owner := ExternalAddress("owner")
	vault := ExternalAddress("vault")
	terms := ExchangeTerms{
		FromAsset: NativeAsset(),
		ToAsset:   TokenAsset(ExternalAddress("minter")),
		Amount:    math.NewInt(500),
		PriceRate: math.LegacyMustNewDecFromStr("2.0"),
		Slippage:  math.LegacyMustNewDecFromStr("0.01"),
	}
	fees := FeeTerms{
		Recipient:       ExternalAddress("operator"),
		FeeNum:          3,
		FeeDenom:        1000,
		MatcherFeeNum:   1,
		MatcherFeeDenom: 1000,
	}

	msg := InternalMatchOrder{
		OriginOwner:       owner,
		OriginVault:       vault,
		OriginCreatedAt:   1700000000,
		OriginInitTerms:   terms,
		OriginFees:        fees,
		ExpectedCreatedAt: 1700000100,
		Amount:            math.NewInt(250),
		Matcher:           ExternalAddress("matcher"),
	}

	r, err := NewReader(msg.Encode(9))
	require.NoError(t, err)
	require.Equal(t, OpInternalMatchOrder, r.Op())
	require.Equal(t, uint64(9), r.QueryID())

	got, err := DecodeInternalMatchOrder(r)
	require.NoError(t, err)
	assert.Equal(t, msg.OriginOwner, got.OriginOwner)
	assert.Equal(t, msg.OriginCreatedAt, got.OriginCreatedAt)
	assert.Equal(t, msg.ExpectedCreatedAt, got.ExpectedCreatedAt)
	assert.True(t, msg.Amount.Equal(got.Amount))
	assert.True(t, msg.OriginInitTerms.PriceRate.Equal(got.OriginInitTerms.PriceRate))
	assert.Equal(t, msg.OriginFees, got.OriginFees)
}

func TestCreateOrderPayload_roundTrip(t *testing.T) {
	msg := CreateOrder{
		Terms: ExchangeTerms{
			FromAsset: TokenAsset(ExternalAddress("minter")),
			ToAsset:   NativeAsset(),
			Amount:    math.NewInt(777),
			PriceRate: math.LegacyMustNewDecFromStr("0.5"),
			Slippage:  math.LegacyMustNewDecFromStr("0.02"),
		},
		Fees: FeeTerms{Recipient: ExternalAddress("operator")},
	}

	got, err := DecodeCreateOrderPayload(msg.EncodePayload())
	require.NoError(t, err)
	assert.True(t, msg.Terms.FromAsset.Equals(got.Terms.FromAsset))
	assert.True(t, msg.Terms.Amount.Equal(got.Terms.Amount))
	assert.True(t, msg.Terms.Slippage.Equal(got.Terms.Slippage))
}
