package codec

// arrayCodec handles TypeArray, an array of a single scalar element
// type. The lex form writes a 0x01 "continue" marker before each
// element's lex encoding and a 0x00 "end" marker after the last
// element, so a strict prefix of a longer array always sorts first
// (0x00 < 0x01), giving the usual tuple-array ordering. The plain form
// writes a count prefix followed by each element's plain encoding.
type arrayCodec struct {
	spec ColumnSpec
	lex  bool
}

const (
	arrayContinue = 0x01
	arrayEnd      = 0x00
)

func (c *arrayCodec) elemSpec() ColumnSpec {
	return ColumnSpec{Type: c.spec.ElemType, Nullable: c.spec.Nullable, Direction: c.spec.Direction, NullPlacement: c.spec.NullPlacement}
}

func (c *arrayCodec) elemCodec() Codec {
	if c.lex {
		return NewLex(c.elemSpec())
	}
	return NewPlain(c.elemSpec())
}

func toSlice(value any) ([]any, error) {
	v, ok := value.([]any)
	if !ok {
		return nil, malformed("array codec: unsupported value type %T", value)
	}
	return v, nil
}

func (c *arrayCodec) MinSize() int {
	if c.lex && c.spec.Nullable {
		return 1
	}
	if c.lex {
		return 1 // empty array: just the end marker
	}
	return 1 // empty array: a one-byte count of 0
}

func (c *arrayCodec) EncodeSize(value any, acc int) (int, error) {
	if value == nil {
		return acc, nil
	}
	elems, err := toSlice(value)
	if err != nil {
		return 0, err
	}
	elem := c.elemCodec()
	extra := 0
	if c.lex {
		extra += len(elems) // one continue marker per element
		if c.spec.Nullable {
			extra++ // end marker; MinSize counted only the header
		}
	} else {
		extra += plainLengthPrefixSize(len(elems)) - 1 // MinSize counted a one-byte count
	}
	for _, e := range elems {
		base := elem.MinSize()
		n, err := elem.EncodeSize(e, base)
		if err != nil {
			return 0, err
		}
		extra += n
	}
	return acc + extra, nil
}

func (c *arrayCodec) Encode(value any, buf []byte, offset int) (int, error) {
	start := offset
	if value == nil {
		if !c.lex || !c.spec.Nullable {
			return 0, malformed("array codec: unexpected nil for non-nullable column")
		}
		buf[offset] = applyByteDirection(nullByte(c.spec.NullPlacement), c.spec.Direction)
		return offset + 1, nil
	}

	elems, err := toSlice(value)
	if err != nil {
		return 0, err
	}
	elem := c.elemCodec()

	if c.lex && c.spec.Nullable {
		buf[offset] = nonNullHeader(c.spec.NullPlacement)
		offset++
	}

	if c.lex {
		for _, e := range elems {
			buf[offset] = arrayContinue
			offset++
			offset, err = elem.Encode(e, buf, offset)
			if err != nil {
				return 0, err
			}
		}
		buf[offset] = arrayEnd
		offset++
		applyDirection(buf[start:offset], c.spec.Direction)
		return offset, nil
	}

	offset = encodePlainLength(len(elems), buf, offset)
	for _, e := range elems {
		offset, err = elem.Encode(e, buf, offset)
		if err != nil {
			return 0, err
		}
	}
	return offset, nil
}

func (c *arrayCodec) Decode(buf []byte, offset int) (any, int, error) {
	elem := c.elemCodec()

	if c.lex {
		if c.spec.Nullable {
			hdr := buf[offset]
			if c.spec.Direction == Descending {
				hdr ^= 0xFF
			}
			offset++
			if hdr == nullByte(c.spec.NullPlacement) {
				return nil, offset, nil
			}
		}
		var out []any
		for {
			marker := buf[offset]
			if c.spec.Direction == Descending {
				marker ^= 0xFF
			}
			offset++
			if marker == arrayEnd {
				return out, offset, nil
			}
			var v any
			var err error
			v, offset, err = elem.Decode(buf, offset)
			if err != nil {
				return nil, 0, err
			}
			out = append(out, v)
		}
	}

	n, newOffset := decodePlainLength(buf, offset)
	offset = newOffset
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		var v any
		var err error
		v, offset, err = elem.Decode(buf, offset)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, offset, nil
}

func (c *arrayCodec) DecodeSkip(buf []byte, offset int) (int, error) {
	_, next, err := c.Decode(buf, offset)
	return next, err
}

func (c *arrayCodec) FilterQuickCompare(buf []byte, offset int, op CompareOp, arg any) (QuickResult, error) {
	return QuickDecode, nil
}
