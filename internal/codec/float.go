package codec

import (
	"encoding/binary"
	"math"
)

// floatCodec implements spec.md §4.1's float rule: XOR the sign bit for
// non-negative values, flip every bit for negative values. The result's
// byte-lex order matches IEEE-754 totalOrder, including across NaN
// encodings (NaN sorts as the most negative or most positive payload
// depending on its sign bit, consistent with totalOrder).
type floatCodec struct {
	spec ColumnSpec
	lex  bool
}

func (c *floatCodec) width() int {
	if c.spec.Type == TypeFloat32 {
		return 4
	}
	return 8
}

func (c *floatCodec) MinSize() int {
	if c.lex && c.spec.Nullable {
		return 1
	}
	return c.width()
}

func (c *floatCodec) EncodeSize(value any, acc int) (int, error) {
	if value == nil {
		return acc, nil
	}
	if c.lex && c.spec.Nullable {
		return acc + c.width(), nil
	}
	return acc, nil
}

func encodeFloatBits64(f float64) uint64 {
	bits := math.Float64bits(f)
	const sign = uint64(1) << 63
	if bits&sign == 0 {
		return bits | sign
	}
	return ^bits
}

func decodeFloatBits64(encoded uint64) float64 {
	const sign = uint64(1) << 63
	if encoded&sign != 0 {
		return math.Float64frombits(encoded &^ sign)
	}
	return math.Float64frombits(^encoded)
}

func encodeFloatBits32(f float32) uint32 {
	bits := math.Float32bits(f)
	const sign = uint32(1) << 31
	if bits&sign == 0 {
		return bits | sign
	}
	return ^bits
}

func decodeFloatBits32(encoded uint32) float32 {
	const sign = uint32(1) << 31
	if encoded&sign != 0 {
		return math.Float32frombits(encoded &^ sign)
	}
	return math.Float32frombits(^encoded)
}

func (c *floatCodec) Encode(value any, buf []byte, offset int) (int, error) {
	start := offset
	if value == nil {
		if !c.lex || !c.spec.Nullable {
			return 0, malformed("float codec: unexpected nil for non-nullable column")
		}
		buf[offset] = applyByteDirection(nullByte(c.spec.NullPlacement), c.spec.Direction)
		return offset + 1, nil
	}

	if c.lex && c.spec.Nullable {
		buf[offset] = nonNullHeader(c.spec.NullPlacement)
		offset++
	}

	switch c.spec.Type {
	case TypeFloat32:
		f, err := toFloat32(value)
		if err != nil {
			return 0, err
		}
		var raw uint32
		if c.lex {
			raw = encodeFloatBits32(f)
		} else {
			raw = math.Float32bits(f)
		}
		binary.BigEndian.PutUint32(buf[offset:offset+4], raw)
		offset += 4
	default:
		f, err := toFloat64(value)
		if err != nil {
			return 0, err
		}
		var raw uint64
		if c.lex {
			raw = encodeFloatBits64(f)
		} else {
			raw = math.Float64bits(f)
		}
		binary.BigEndian.PutUint64(buf[offset:offset+8], raw)
		offset += 8
	}

	if c.lex {
		applyDirection(buf[start:offset], c.spec.Direction)
	}
	return offset, nil
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	default:
		return 0, malformed("float codec: unsupported value type %T", value)
	}
}

func toFloat32(value any) (float32, error) {
	switch v := value.(type) {
	case float32:
		return v, nil
	case float64:
		return float32(v), nil
	default:
		return 0, malformed("float codec: unsupported value type %T", value)
	}
}

func (c *floatCodec) Decode(buf []byte, offset int) (any, int, error) {
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

	switch c.spec.Type {
	case TypeFloat32:
		if offset+4 > len(buf) {
			return nil, 0, malformed("float codec: buffer too short")
		}
		tmp := make([]byte, 4)
		copy(tmp, buf[offset:offset+4])
		if c.lex && c.spec.Direction == Descending {
			for i := range tmp {
				tmp[i] ^= 0xFF
			}
		}
		raw := binary.BigEndian.Uint32(tmp)
		offset += 4
		if c.lex {
			return decodeFloatBits32(raw), offset, nil
		}
		return math.Float32frombits(raw), offset, nil
	default:
		if offset+8 > len(buf) {
			return nil, 0, malformed("float codec: buffer too short")
		}
		tmp := make([]byte, 8)
		copy(tmp, buf[offset:offset+8])
		if c.lex && c.spec.Direction == Descending {
			for i := range tmp {
				tmp[i] ^= 0xFF
			}
		}
		raw := binary.BigEndian.Uint64(tmp)
		offset += 8
		if c.lex {
			return decodeFloatBits64(raw), offset, nil
		}
		return math.Float64frombits(raw), offset, nil
	}
}

func (c *floatCodec) DecodeSkip(buf []byte, offset int) (int, error) {
	_, next, err := c.Decode(buf, offset)
	return next, err
}

func (c *floatCodec) FilterQuickCompare(buf []byte, offset int, op CompareOp, arg any) (QuickResult, error) {
	val, _, err := c.Decode(buf, offset)
	if err != nil {
		return QuickFail, err
	}
	if val == nil || arg == nil {
		return QuickDecode, nil
	}
	lhs, err := toFloat64(val)
	if err != nil {
		return QuickDecode, nil
	}
	rhs, err := toFloat64(arg)
	if err != nil {
		return QuickDecode, nil
	}
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
		return QuickDecode, nil
	}
	return quickFromBool(result), nil
}
