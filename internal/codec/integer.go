package codec

import "encoding/binary"

// nonNullHeader is the lex header byte written before a non-null value
// when the column is nullable; it must sort on the correct side of
// nullByte(placement) regardless of the direction XOR applied afterward.
func nonNullHeader(placement NullPlacement) byte {
	if placement == NullsHigh {
		return 0x00
	}
	return 0x01
}

// intCodec handles all eight fixed-width integer types in both lex and
// plain forms. The lex form is big-endian with the sign bit flipped for
// signed types (spec.md §4.1); the plain form is a fixed-width
// big-endian encoding with no flipping, since plain values are only ever
// round-tripped, never compared byte-wise.
type intCodec struct {
	spec ColumnSpec
	lex  bool
}

func (c *intCodec) width() int { return intWidth(c.spec.Type) }

func (c *intCodec) header() int {
	if c.lex && c.spec.Nullable {
		return 1
	}
	return 0
}

// MinSize is the smallest encoding this codec ever produces: just the
// header byte when the column is nullable in lex form (the null case),
// otherwise the full fixed width (always present).
func (c *intCodec) MinSize() int {
	if c.lex && c.spec.Nullable {
		return 1
	}
	return c.width()
}

func (c *intCodec) EncodeSize(value any, acc int) (int, error) {
	if value == nil {
		return acc, nil
	}
	if c.lex && c.spec.Nullable {
		return acc + c.width(), nil
	}
	return acc, nil
}

func toUint64(t TypeCode, value any) (uint64, error) {
	signed := isSigned(t)
	switch v := value.(type) {
	case int64:
		if signed {
			return uint64(v), nil
		}
		return 0, malformed("integer codec: signed value %d for unsigned column", v)
	case uint64:
		if !signed {
			return v, nil
		}
		return 0, malformed("integer codec: unsigned value %d for signed column", v)
	case int:
		return toUint64(t, int64(v))
	case int8:
		return toUint64(t, int64(v))
	case int16:
		return toUint64(t, int64(v))
	case int32:
		return toUint64(t, int64(v))
	case uint:
		return toUint64(t, uint64(v))
	case uint8:
		return toUint64(t, uint64(v))
	case uint16:
		return toUint64(t, uint64(v))
	case uint32:
		return toUint64(t, uint64(v))
	default:
		return 0, malformed("integer codec: unsupported value type %T", value)
	}
}

func signBit(width int) uint64 {
	return uint64(1) << uint(width*8-1)
}

func (c *intCodec) Encode(value any, buf []byte, offset int) (int, error) {
	width := c.width()
	if value == nil {
		if !c.lex || !c.spec.Nullable {
			return 0, malformed("integer codec: unexpected nil for non-nullable column")
		}
		buf[offset] = applyByteDirection(nullByte(c.spec.NullPlacement), c.spec.Direction)
		return offset + 1, nil
	}

	u, err := toUint64(c.spec.Type, value)
	if err != nil {
		return 0, err
	}

	start := offset
	if c.lex && c.spec.Nullable {
		buf[offset] = nonNullHeader(c.spec.NullPlacement)
		offset++
	}

	raw := u
	if c.lex && isSigned(c.spec.Type) {
		raw ^= signBit(width)
	}

	tmp := make([]byte, 8)
	binary.BigEndian.PutUint64(tmp, raw)
	n := copy(buf[offset:offset+width], tmp[8-width:])
	if n != width {
		return 0, malformed("integer codec: short buffer")
	}
	offset += width

	if c.lex {
		applyDirection(buf[start:offset], c.spec.Direction)
	}
	return offset, nil
}

func applyByteDirection(b byte, dir Direction) byte {
	if dir == Descending {
		return b ^ 0xFF
	}
	return b
}

func (c *intCodec) Decode(buf []byte, offset int) (any, int, error) {
	width := c.width()

	if c.lex && c.spec.Nullable {
		hdr := buf[offset]
		if c.spec.Direction == Descending {
			hdr ^= 0xFF
		}
		offset++
		if hdr == nullByte(c.spec.NullPlacement) {
			return nil, offset, nil
		}
	}

	if offset+width > len(buf) {
		return nil, 0, malformed("integer codec: buffer too short")
	}
	tmp := make([]byte, 8)
	copy(tmp[8-width:], buf[offset:offset+width])
	if c.lex && c.spec.Direction == Descending {
		for i := 8 - width; i < 8; i++ {
			tmp[i] ^= 0xFF
		}
	}
	raw := binary.BigEndian.Uint64(tmp)
	offset += width

	if c.lex && isSigned(c.spec.Type) {
		raw ^= signBit(width)
	}

	if isSigned(c.spec.Type) {
		return signedFromUint64(c.spec.Type, raw), offset, nil
	}
	return unsignedFromUint64(c.spec.Type, raw), offset, nil
}

func signedFromUint64(t TypeCode, raw uint64) any {
	switch t {
	case TypeInt8:
		return int64(int8(raw))
	case TypeInt16:
		return int64(int16(raw))
	case TypeInt32:
		return int64(int32(raw))
	default:
		return int64(raw)
	}
}

func unsignedFromUint64(t TypeCode, raw uint64) any {
	switch t {
	case TypeUint8:
		return uint64(uint8(raw))
	case TypeUint16:
		return uint64(uint16(raw))
	case TypeUint32:
		return uint64(uint32(raw))
	default:
		return raw
	}
}

func (c *intCodec) DecodeSkip(buf []byte, offset int) (int, error) {
	if c.lex && c.spec.Nullable {
		hdr := buf[offset]
		if c.spec.Direction == Descending {
			hdr ^= 0xFF
		}
		offset++
		if hdr == nullByte(c.spec.NullPlacement) {
			return offset, nil
		}
	}
	if offset+c.width() > len(buf) {
		return 0, malformed("integer codec: buffer too short")
	}
	return offset + c.width(), nil
}

func (c *intCodec) FilterQuickCompare(buf []byte, offset int, op CompareOp, arg any) (QuickResult, error) {
	val, _, err := c.Decode(buf, offset)
	if err != nil {
		return QuickFail, err
	}
	if val == nil || arg == nil {
		if val == nil && arg == nil {
			return quickFromBool(op == OpEQ), nil
		}
		return QuickDecode, nil
	}
	argU, err := toUint64(c.spec.Type, arg)
	if err != nil {
		return QuickDecode, nil
	}
	var lhs, rhs uint64
	if isSigned(c.spec.Type) {
		lhs = uint64(val.(int64)) ^ signBit(8)
		rhs = argU ^ signBit(8)
	} else {
		lhs = val.(uint64)
		rhs = argU
	}
	return compareQuick(lhs, rhs, op), nil
}

func quickFromBool(b bool) QuickResult {
	if b {
		return QuickPass
	}
	return QuickFail
}

func compareQuick[T ~uint64](lhs, rhs T, op CompareOp) QuickResult {
	var result bool
	switch op {
	case OpEQ:
		result = lhs == rhs
	case OpNE:
		result = lhs != rhs
	case OpLT:
		result = lhs < rhs
	case OpLE:
		result = lhs <= rhs
	case OpGT:
		result = lhs > rhs
	case OpGE:
		result = lhs >= rhs
	default:
		return QuickDecode
	}
	return quickFromBool(result)
}
