package codec

// boolCodec packs a boolean into a single byte. In lex form with a
// nullable column the null header occupies its own byte ahead of the
// value byte, matching intCodec's nullable layout.
type boolCodec struct {
	spec ColumnSpec
	lex  bool
}

func (c *boolCodec) header() int {
	if c.lex && c.spec.Nullable {
		return 1
	}
	return 0
}

func (c *boolCodec) MinSize() int {
	if c.lex && c.spec.Nullable {
		return 1
	}
	return 1
}

func (c *boolCodec) EncodeSize(value any, acc int) (int, error) {
	if value == nil {
		return acc, nil
	}
	if c.lex && c.spec.Nullable {
		return acc + 1, nil
	}
	return acc, nil
}

func (c *boolCodec) Encode(value any, buf []byte, offset int) (int, error) {
	start := offset
	if value == nil {
		if !c.lex || !c.spec.Nullable {
			return 0, malformed("bool codec: unexpected nil for non-nullable column")
		}
		buf[offset] = applyByteDirection(nullByte(c.spec.NullPlacement), c.spec.Direction)
		return offset + 1, nil
	}
	b, ok := value.(bool)
	if !ok {
		return 0, malformed("bool codec: unsupported value type %T", value)
	}
	if c.lex && c.spec.Nullable {
		buf[offset] = nonNullHeader(c.spec.NullPlacement)
		offset++
	}
	if b {
		buf[offset] = 1
	} else {
		buf[offset] = 0
	}
	offset++
	if c.lex {
		applyDirection(buf[start:offset], c.spec.Direction)
	}
	return offset, nil
}

func (c *boolCodec) Decode(buf []byte, offset int) (any, int, error) {
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
	if offset >= len(buf) {
		return nil, 0, malformed("bool codec: buffer too short")
	}
	v := buf[offset]
	if c.lex && c.spec.Direction == Descending {
		v ^= 0xFF
	}
	return v != 0, offset + 1, nil
}

func (c *boolCodec) DecodeSkip(buf []byte, offset int) (int, error) {
	_, next, err := c.Decode(buf, offset)
	return next, err
}

func (c *boolCodec) FilterQuickCompare(buf []byte, offset int, op CompareOp, arg any) (QuickResult, error) {
	val, _, err := c.Decode(buf, offset)
	if err != nil {
		return QuickFail, err
	}
	if val == nil || arg == nil {
		return QuickDecode, nil
	}
	lhs, rhs := val.(bool), arg.(bool)
	var result bool
	switch op {
	case OpEQ:
		result = lhs == rhs
	case OpNE:
		result = lhs != rhs
	default:
		return QuickDecode, nil
	}
	return quickFromBool(result), nil
}
