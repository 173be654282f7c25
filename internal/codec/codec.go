// Package codec implements the order-preserving binary encoding rules of
// spec.md §4.1: for each column type there is a lex form (used inside
// keys, where byte-lexicographic order of the encoding must match the
// logical column order) and a plain form (used inside values, where only
// round-tripping matters).
//
// Codec instances are immutable and safe for concurrent use; they hold
// no per-call state.
package codec

import "rowstore/internal/rowerr"

// TypeCode enumerates the column types spec.md §3 lists.
type TypeCode int

const (
	TypeBool TypeCode = iota
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeBigInt
	TypeBigDecimal
	TypeString
	TypeChar
	TypeBytes
	TypeArray
)

// CompareOp is one of the comparison operators the filter algebra (C3)
// evaluates against a column.
type CompareOp int

const (
	OpEQ CompareOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	OpIn
	OpNotIn
)

// QuickResult is the verdict FilterQuickCompare returns without a full
// decode: the comparison already passed, already failed, or the codec
// could not decide and the caller must fully decode the column.
type QuickResult int

const (
	QuickPass QuickResult = iota
	QuickFail
	QuickDecode
)

// Codec encodes and decodes one column type in one form (lex or plain).
// All offsets are absolute positions into buf.
type Codec interface {
	// MinSize is the smallest number of bytes this codec ever emits.
	MinSize() int

	// EncodeSize returns the additional bytes (beyond MinSize) encoding
	// value will need, added onto acc so callers can sum several columns
	// before allocating one buffer.
	EncodeSize(value any, acc int) (int, error)

	// Encode writes value into buf starting at offset and returns the
	// offset immediately following the written bytes.
	Encode(value any, buf []byte, offset int) (int, error)

	// Decode reads a value from buf starting at offset and returns the
	// value along with the offset immediately following it.
	Decode(buf []byte, offset int) (any, int, error)

	// DecodeSkip advances past an encoded value without materializing it.
	DecodeSkip(buf []byte, offset int) (int, error)

	// FilterQuickCompare attempts to resolve `column <op> arg` by
	// inspecting only the encoded bytes at offset, without a full
	// decode. Primitive, fixed-width codecs implement this; variable
	// codecs that can't resolve cheaply always return QuickDecode.
	FilterQuickCompare(buf []byte, offset int, op CompareOp, arg any) (QuickResult, error)
}

// Direction is a column's declared sort direction when it participates
// in a key.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// NullPlacement controls where a lex-encoded null sorts relative to
// non-null values of the same column.
type NullPlacement int

const (
	NullsLow NullPlacement = iota
	NullsHigh
)

// nullByte returns the lex encoding of a null for the given placement,
// before any descending-direction XOR is applied.
func nullByte(placement NullPlacement) byte {
	if placement == NullsHigh {
		return 0xFF
	}
	return 0x00
}

// applyDirection XORs every byte of b with 0xFF in place when dir is
// Descending, implementing spec.md §4.1's "descending encoding XORs
// every produced byte".
func applyDirection(b []byte, dir Direction) {
	if dir != Descending {
		return
	}
	for i := range b {
		b[i] ^= 0xFF
	}
}

func malformed(format string, args ...any) error {
	return rowerr.New(rowerr.KindMalformedEncoding, format, args...)
}
