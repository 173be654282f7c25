package codec

// byteArrayCodec implements the variable-length byte-string column
// type. The lex form escapes every 0x00 byte as 0x00 0xFF and
// terminates the run with 0x00 0x00, a standard order-preserving
// byte-string encoding (spec.md §4.1 describes a base-32768 packing;
// this escape scheme is the simpler, equally order-preserving
// substitute noted in DESIGN.md). The plain form uses a prefix-free
// length prefix: one byte for lengths under 128, two bytes (top two
// bits "10") for lengths under 16384, four bytes (top two bits "11")
// otherwise.
type byteArrayCodec struct {
	spec ColumnSpec
	lex  bool
}

func (c *byteArrayCodec) MinSize() int {
	if c.lex && c.spec.Nullable {
		return 1
	}
	if c.lex {
		return 2 // empty string: just the terminator
	}
	return 1 // empty string: one-byte length prefix of 0
}

func (c *byteArrayCodec) EncodeSize(value any, acc int) (int, error) {
	if value == nil {
		return acc, nil
	}
	b, err := toBytes(value)
	if err != nil {
		return 0, err
	}
	if c.lex {
		extra := 0
		for _, by := range b {
			if by == 0x00 {
				extra++
			}
		}
		if c.spec.Nullable {
			// MinSize() is the null case's 1-byte (header-only) total;
			// a non-null value keeps that header byte but also needs
			// the 2-byte terminator MinSize() didn't account for.
			extra += 2
		}
		// The non-nullable MinSize() already bakes in the terminator
		// via its empty-string baseline.
		return acc + len(b) + extra, nil
	}
	return acc + len(b) + plainLengthPrefixSize(len(b)) - 1, nil
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, malformed("byte array codec: unsupported value type %T", value)
	}
}

func plainLengthPrefixSize(n int) int {
	switch {
	case n < 1<<7:
		return 1
	case n < 1<<14:
		return 2
	default:
		return 4
	}
}

func encodePlainLength(n int, buf []byte, offset int) int {
	switch {
	case n < 1<<7:
		buf[offset] = byte(n)
		return offset + 1
	case n < 1<<14:
		buf[offset] = byte(0x80 | (n >> 8))
		buf[offset+1] = byte(n)
		return offset + 2
	default:
		buf[offset] = byte(0xC0 | (n >> 24))
		buf[offset+1] = byte(n >> 16)
		buf[offset+2] = byte(n >> 8)
		buf[offset+3] = byte(n)
		return offset + 4
	}
}

func decodePlainLength(buf []byte, offset int) (int, int) {
	lead := buf[offset]
	switch {
	case lead&0x80 == 0:
		return int(lead), offset + 1
	case lead&0xC0 == 0x80:
		n := int(lead&0x3F)<<8 | int(buf[offset+1])
		return n, offset + 2
	default:
		n := int(lead&0x3F)<<24 | int(buf[offset+1])<<16 | int(buf[offset+2])<<8 | int(buf[offset+3])
		return n, offset + 4
	}
}

func (c *byteArrayCodec) Encode(value any, buf []byte, offset int) (int, error) {
	start := offset
	if value == nil {
		if !c.lex || !c.spec.Nullable {
			return 0, malformed("byte array codec: unexpected nil for non-nullable column")
		}
		buf[offset] = applyByteDirection(nullByte(c.spec.NullPlacement), c.spec.Direction)
		return offset + 1, nil
	}

	b, err := toBytes(value)
	if err != nil {
		return 0, err
	}

	if c.lex {
		if c.spec.Nullable {
			buf[offset] = nonNullHeader(c.spec.NullPlacement)
			offset++
		}
		for _, by := range b {
			if by == 0x00 {
				buf[offset] = 0x00
				buf[offset+1] = 0xFF
				offset += 2
			} else {
				buf[offset] = by
				offset++
			}
		}
		buf[offset] = 0x00
		buf[offset+1] = 0x00
		offset += 2
		applyDirection(buf[start:offset], c.spec.Direction)
		return offset, nil
	}

	offset = encodePlainLength(len(b), buf, offset)
	copy(buf[offset:offset+len(b)], b)
	return offset + len(b), nil
}

func (c *byteArrayCodec) Decode(buf []byte, offset int) (any, int, error) {
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
		out := []byte{}
		for {
			b0 := buf[offset]
			if c.spec.Direction == Descending {
				b0 ^= 0xFF
			}
			if b0 == 0x00 {
				b1 := buf[offset+1]
				if c.spec.Direction == Descending {
					b1 ^= 0xFF
				}
				offset += 2
				if b1 == 0x00 {
					return out, offset, nil
				}
				out = append(out, 0x00)
				continue
			}
			out = append(out, b0)
			offset++
		}
	}

	n, newOffset := decodePlainLength(buf, offset)
	offset = newOffset
	out := make([]byte, n)
	copy(out, buf[offset:offset+n])
	return out, offset + n, nil
}

func (c *byteArrayCodec) DecodeSkip(buf []byte, offset int) (int, error) {
	_, next, err := c.Decode(buf, offset)
	return next, err
}

func (c *byteArrayCodec) FilterQuickCompare(buf []byte, offset int, op CompareOp, arg any) (QuickResult, error) {
	if op != OpEQ && op != OpNE {
		return QuickDecode, nil
	}
	val, _, err := c.Decode(buf, offset)
	if err != nil {
		return QuickFail, err
	}
	if val == nil || arg == nil {
		return QuickDecode, nil
	}
	lhs, err := toBytes(val)
	if err != nil {
		return QuickDecode, nil
	}
	rhs, err := toBytes(arg)
	if err != nil {
		return QuickDecode, nil
	}
	eq := string(lhs) == string(rhs)
	if op == OpNE {
		eq = !eq
	}
	return quickFromBool(eq), nil
}
