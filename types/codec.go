package types

import (
	"bytes"
	"encoding/binary"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// Wire messages are fixed-layout binary records: a 32-bit opcode, a 64-bit
// query id, then typed fields in declaration order. Integers are big-endian.
// Amounts are length-prefixed big-endian magnitudes (never negative on the
// wire); decimals are carried as their 18-digit scaled integer.

const headerLen = 4 + 8

// Writer builds one wire record.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter(op uint32, queryID uint64) *Writer {
	w := &Writer{}
	w.WriteUint32(op)
	w.WriteUint64(queryID)
	return w
}

func (w *Writer) WriteUint32(v uint32) *Writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

func (w *Writer) WriteUint64(v uint64) *Writer {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
	return w
}

func (w *Writer) WriteInt64(v int64) *Writer { return w.WriteUint64(uint64(v)) }

func (w *Writer) WriteUint8(v byte) *Writer {
	w.buf.WriteByte(v)
	return w
}

func (w *Writer) WriteBool(v bool) *Writer {
	if v {
		return w.WriteUint8(1)
	}
	return w.WriteUint8(0)
}

func (w *Writer) WriteAddress(a Address) *Writer {
	w.buf.Write(a[:])
	return w
}

func (w *Writer) WriteAsset(a Asset) *Writer {
	w.WriteUint8(byte(a.Kind))
	w.WriteAddress(a.Minter)
	return w
}

// WriteAmount encodes a non-negative Int as a length-prefixed magnitude.
func (w *Writer) WriteAmount(v math.Int) *Writer {
	mag := v.BigInt().Bytes()
	w.WriteUint8(byte(len(mag)))
	w.buf.Write(mag)
	return w
}

// WriteDec carries the 18-decimal scaled integer of a LegacyDec.
func (w *Writer) WriteDec(v math.LegacyDec) *Writer {
	return w.WriteAmount(math.NewIntFromBigInt(v.BigInt()))
}

func (w *Writer) WriteBytes(b []byte) *Writer {
	w.WriteUint32(uint32(len(b)))
	w.buf.Write(b)
	return w
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Reader consumes one wire record. It is sticky on error: once a read fails,
// all subsequent reads return zero values and Err reports the first failure.
type Reader struct {
	rest    []byte
	op      uint32
	queryID uint64
	err     error
}

func NewReader(raw []byte) (*Reader, error) {
	if len(raw) < headerLen {
		return nil, errorsmod.Wrapf(ErrMissingPayload, "record too short: %d bytes", len(raw))
	}
	return &Reader{
		op:      binary.BigEndian.Uint32(raw[:4]),
		queryID: binary.BigEndian.Uint64(raw[4:12]),
		rest:    raw[12:],
	}, nil
}

func (r *Reader) Op() uint32      { return r.op }
func (r *Reader) QueryID() uint64 { return r.queryID }
func (r *Reader) Err() error      { return r.err }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.rest) < n {
		r.err = errorsmod.Wrapf(ErrMissingPayload, "record truncated: want %d bytes, have %d", n, len(r.rest))
		return nil
	}
	b := r.rest[:n]
	r.rest = r.rest[n:]
	return b
}

func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *Reader) Int64() int64 { return int64(r.Uint64()) }

func (r *Reader) Uint8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Bool() bool { return r.Uint8() == 1 }

func (r *Reader) Address() Address {
	b := r.take(AddressLen)
	if b == nil {
		return ZeroAddress
	}
	var a Address
	copy(a[:], b)
	return a
}

func (r *Reader) Asset() Asset {
	kind := AssetKind(r.Uint8())
	minter := r.Address()
	return Asset{Kind: kind, Minter: minter}
}

func (r *Reader) Amount() math.Int {
	n := int(r.Uint8())
	b := r.take(n)
	if r.err != nil {
		return math.ZeroInt()
	}
	return math.NewIntFromBigInt(new(big.Int).SetBytes(b))
}

func (r *Reader) Dec() math.LegacyDec {
	v := r.Amount()
	if r.err != nil {
		return math.LegacyZeroDec()
	}
	return math.LegacyNewDecFromBigIntWithPrec(v.BigInt(), math.LegacyPrecision)
}

func (r *Reader) ReadBytes() []byte {
	n := int(r.Uint32())
	b := r.take(n)
	if r.err != nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Remaining returns the unread tail of the record.
func (r *Reader) Remaining() []byte { return r.rest }
