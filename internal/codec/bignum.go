package codec

import (
	"encoding/binary"
	"math/big"
)

// bigIntCodec implements the variable-length big-integer column type.
// Layout (before any nullable header or direction XOR): one sign byte
// (negative=0x01, zero=0x02, positive=0x03), a 4-byte big-endian
// magnitude length, then the trimmed big-endian magnitude bytes. For
// negative numbers the length and magnitude bytes are bitwise
// complemented so that a larger magnitude (a more negative value)
// produces a smaller byte sequence, preserving lex order across the
// whole numeric range.
//
// spec.md §4.1 describes the length prefix as a base-128 varint; this
// implementation uses a fixed 4-byte length instead (see DESIGN.md) —
// both are order-preserving length prefixes, and the fixed width avoids
// the multi-byte-varint ordering pitfalls a literal port would need to
// re-derive from scratch.
type bigIntCodec struct {
	spec ColumnSpec
	lex  bool
}

const (
	bigSignNegative = 0x01
	bigSignZero     = 0x02
	bigSignPositive = 0x03
)

func (c *bigIntCodec) header() int {
	if c.spec.Nullable {
		return 1
	}
	return 0
}

func (c *bigIntCodec) MinSize() int {
	if c.spec.Nullable {
		return 1
	}
	return 1 + 4 // sign byte + length, zero magnitude
}

func (c *bigIntCodec) EncodeSize(value any, acc int) (int, error) {
	if value == nil {
		return acc, nil
	}
	v, err := toBigInt(value)
	if err != nil {
		return 0, err
	}
	mag := magnitudeBytes(v)
	base := 1 + 4 + len(mag)
	if c.spec.Nullable {
		return acc + base, nil
	}
	return acc + (base - c.MinSize()), nil
}

func magnitudeBytes(v *big.Int) []byte {
	return v.Bytes() // big-endian magnitude, no leading zero bytes
}

func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return v, nil
	case int64:
		return big.NewInt(v), nil
	case int:
		return big.NewInt(int64(v)), nil
	default:
		return nil, malformed("bigint codec: unsupported value type %T", value)
	}
}

func (c *bigIntCodec) Encode(value any, buf []byte, offset int) (int, error) {
	start := offset
	if value == nil {
		if !c.spec.Nullable {
			return 0, malformed("bigint codec: unexpected nil for non-nullable column")
		}
		buf[offset] = applyByteDirection(nullByte(c.spec.NullPlacement), c.spec.Direction)
		return offset + 1, nil
	}

	v, err := toBigInt(value)
	if err != nil {
		return 0, err
	}

	if c.spec.Nullable {
		buf[offset] = nonNullHeader(c.spec.NullPlacement)
		offset++
	}

	sign := v.Sign()
	mag := magnitudeBytes(v)
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(mag)))

	switch {
	case sign < 0:
		buf[offset] = bigSignNegative
		offset++
		for i, b := range lenBytes {
			buf[offset+i] = ^b
		}
		offset += 4
		for i, b := range mag {
			buf[offset+i] = ^b
		}
		offset += len(mag)
	case sign == 0:
		buf[offset] = bigSignZero
		offset++
		copy(buf[offset:offset+4], lenBytes[:])
		offset += 4
	default:
		buf[offset] = bigSignPositive
		offset++
		copy(buf[offset:offset+4], lenBytes[:])
		offset += 4
		copy(buf[offset:offset+len(mag)], mag)
		offset += len(mag)
	}

	if c.lex {
		applyDirection(buf[start:offset], c.spec.Direction)
	}
	return offset, nil
}

func (c *bigIntCodec) Decode(buf []byte, offset int) (any, int, error) {
	if c.spec.Nullable {
		hdr := buf[offset]
		if c.lex && c.spec.Direction == Descending {
			hdr ^= 0xFF
		}
		offset++
		if hdr == nullByte(c.spec.NullPlacement) {
			return nil, offset, nil
		}
	}

	signByte := buf[offset]
	if c.lex && c.spec.Direction == Descending {
		signByte ^= 0xFF
	}
	offset++

	descending := c.lex && c.spec.Direction == Descending

	switch signByte {
	case bigSignZero:
		offset += 4
		return big.NewInt(0), offset, nil
	case bigSignPositive:
		var lenBytes [4]byte
		copy(lenBytes[:], buf[offset:offset+4])
		if descending {
			for i := range lenBytes {
				lenBytes[i] ^= 0xFF
			}
		}
		length := binary.BigEndian.Uint32(lenBytes[:])
		offset += 4
		mag := make([]byte, length)
		copy(mag, buf[offset:offset+int(length)])
		if descending {
			for i := range mag {
				mag[i] ^= 0xFF
			}
		}
		offset += int(length)
		return new(big.Int).SetBytes(mag), offset, nil
	case bigSignNegative:
		var lenBytes [4]byte
		for i := 0; i < 4; i++ {
			b := buf[offset+i]
			if c.lex && c.spec.Direction == Descending {
				b ^= 0xFF
			}
			lenBytes[i] = ^b
		}
		length := binary.BigEndian.Uint32(lenBytes[:])
		offset += 4
		mag := make([]byte, length)
		for i := 0; i < int(length); i++ {
			b := buf[offset+i]
			if c.lex && c.spec.Direction == Descending {
				b ^= 0xFF
			}
			mag[i] = ^b
		}
		offset += int(length)
		v := new(big.Int).SetBytes(mag)
		return v.Neg(v), offset, nil
	default:
		return nil, 0, malformed("bigint codec: bad sign byte %#x", signByte)
	}
}

func (c *bigIntCodec) DecodeSkip(buf []byte, offset int) (int, error) {
	_, next, err := c.Decode(buf, offset)
	return next, err
}

func (c *bigIntCodec) FilterQuickCompare(buf []byte, offset int, op CompareOp, arg any) (QuickResult, error) {
	val, _, err := c.Decode(buf, offset)
	if err != nil {
		return QuickFail, err
	}
	if val == nil || arg == nil {
		return QuickDecode, nil
	}
	lhs := val.(*big.Int)
	rhs, err := toBigInt(arg)
	if err != nil {
		return QuickDecode, nil
	}
	cmp := lhs.Cmp(rhs)
	var result bool
	switch op {
	case OpEQ:
		result = cmp == 0
	case OpNE:
		result = cmp != 0
	case OpLT:
		result = cmp < 0
	case OpLE:
		result = cmp <= 0
	case OpGT:
		result = cmp > 0
	case OpGE:
		result = cmp >= 0
	default:
		return QuickDecode, nil
	}
	return quickFromBool(result), nil
}
