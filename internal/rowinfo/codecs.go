package rowinfo

import "rowstore/internal/codec"

// KeyCodecs returns the lex codec for each key column, in declaration
// order (spec.md §3's "Encoded key").
func (ri *RowInfo) KeyCodecs() []codec.Codec {
	out := make([]codec.Codec, len(ri.KeyColumns))
	for i, c := range ri.KeyColumns {
		out[i] = codec.NewLex(c.Spec())
	}
	return out
}

// ValueCodecs returns the plain codec for each value column, in the
// row info's (lexicographic-by-name) order.
func (ri *RowInfo) ValueCodecs() []codec.Codec {
	out := make([]codec.Codec, len(ri.ValueColumns))
	for i, c := range ri.ValueColumns {
		out[i] = codec.NewPlain(c.Spec())
	}
	return out
}

// EncodeKey concatenates the lex-encodings of the key columns, in
// declaration order (spec.md §3).
func EncodeKey(columns []ColumnDescriptor, values map[string]any) ([]byte, error) {
	codecs := make([]codec.Codec, len(columns))
	for i, c := range columns {
		codecs[i] = codec.NewLex(c.Spec())
	}

	total := 0
	sizes := make([]int, len(codecs))
	for i, c := range codecs {
		base := c.MinSize()
		n, err := c.EncodeSize(values[columns[i].Name], base)
		if err != nil {
			return nil, err
		}
		sizes[i] = n
		total += n
	}

	buf := make([]byte, total)
	offset := 0
	for i, c := range codecs {
		next, err := c.Encode(values[columns[i].Name], buf, offset)
		if err != nil {
			return nil, err
		}
		offset = next
	}
	return buf[:offset], nil
}

// DecodeKey decodes a key encoded by EncodeKey into a name→value map.
func DecodeKey(columns []ColumnDescriptor, buf []byte) (map[string]any, error) {
	out := make(map[string]any, len(columns))
	offset := 0
	for _, c := range columns {
		cd := codec.NewLex(c.Spec())
		val, next, err := cd.Decode(buf, offset)
		if err != nil {
			return nil, err
		}
		out[c.Name] = val
		offset = next
	}
	return out, nil
}

// EncodeValue writes the schema-version prefix (1-byte for versions
// 1..127, 4-byte with the high bit set otherwise; no prefix for
// version 0, the non-evolvable embedded row type) followed by the
// plain encoding of each value column (spec.md §3).
func EncodeValue(ri *RowInfo, values map[string]any) ([]byte, error) {
	codecs := ri.ValueCodecs()
	sizes := make([]int, len(codecs))
	total := 0
	if ri.Version > 0 {
		if ri.Version <= 127 {
			total += 1
		} else {
			total += 4
		}
	}
	for i, c := range codecs {
		base := c.MinSize()
		n, err := c.EncodeSize(values[ri.ValueColumns[i].Name], base)
		if err != nil {
			return nil, err
		}
		sizes[i] = n
		total += n
	}

	buf := make([]byte, total)
	offset := 0
	if ri.Version > 0 {
		if ri.Version <= 127 {
			buf[offset] = byte(ri.Version)
			offset++
		} else {
			v := uint32(ri.Version) | 0x80000000
			buf[offset] = byte(v >> 24)
			buf[offset+1] = byte(v >> 16)
			buf[offset+2] = byte(v >> 8)
			buf[offset+3] = byte(v)
			offset += 4
		}
	}
	for i, c := range codecs {
		next, err := c.Encode(values[ri.ValueColumns[i].Name], buf, offset)
		if err != nil {
			return nil, err
		}
		offset = next
	}
	return buf[:offset], nil
}

// PeekVersion reads the schema-version prefix from an encoded value
// without decoding the value columns, returning the version and the
// offset of the first value column's bytes. Callers with an
// out-of-band version (schema version 0 rows) should skip this and
// pass offset 0 directly to DecodeValue.
func PeekVersion(buf []byte) (version int, offset int) {
	if len(buf) == 0 {
		return 0, 0
	}
	if buf[0]&0x80 == 0 {
		return int(buf[0]), 1
	}
	v := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	return int(v &^ 0x80000000), 4
}

// DecodeValue decodes the value columns of ri starting at offset
// (immediately after any schema-version prefix already consumed by
// the caller via PeekVersion).
func DecodeValue(ri *RowInfo, buf []byte, offset int) (map[string]any, error) {
	out := make(map[string]any, len(ri.ValueColumns))
	for _, c := range ri.ValueColumns {
		cd := codec.NewPlain(c.Spec())
		val, next, err := cd.Decode(buf, offset)
		if err != nil {
			return nil, err
		}
		out[c.Name] = val
		offset = next
	}
	return out, nil
}
