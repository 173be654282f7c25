package codec

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntCodecRoundTrip(t *testing.T) {
	specs := []ColumnSpec{
		{Type: TypeInt32},
		{Type: TypeUint64},
		{Type: TypeInt8, Nullable: true},
		{Type: TypeUint16, Nullable: true, Direction: Descending},
	}
	signedValues := []any{int64(-7), int64(0), int64(42), nil}
	unsignedValues := []any{uint64(7), uint64(0), uint64(42), nil}

	for _, spec := range specs {
		values := signedValues
		if !isSigned(spec.Type) {
			values = unsignedValues
		}
		for _, lex := range []bool{true, false} {
			c := codecFor(spec, lex)
			for _, v := range values {
				// The plain form never carries a null header.
				if v == nil && (!spec.Nullable || !lex) {
					continue
				}
				size, err := c.EncodeSize(v, c.MinSize())
				require.NoError(t, err)
				buf := make([]byte, size)
				n, err := c.Encode(v, buf, 0)
				require.NoError(t, err)
				assert.Equal(t, size, n)

				got, n2, err := c.Decode(buf, 0)
				require.NoError(t, err)
				assert.Equal(t, size, n2)
				assert.EqualValues(t, normalizeInt(v), normalizeInt(got))
			}
		}
	}
}

func codecFor(spec ColumnSpec, lex bool) Codec {
	if lex {
		return NewLex(spec)
	}
	return NewPlain(spec)
}

func normalizeInt(v any) any {
	if v == nil {
		return nil
	}
	if i, ok := v.(int64); ok {
		return i
	}
	return v
}

func TestIntCodecLexOrderPreserving(t *testing.T) {
	spec := ColumnSpec{Type: TypeInt32, Nullable: true, NullPlacement: NullsLow}
	c := NewLex(spec)

	values := []any{nil, int64(-100), int64(-1), int64(0), int64(1), int64(100)}
	encoded := make([][]byte, len(values))
	for i, v := range values {
		size, err := c.EncodeSize(v, c.MinSize())
		require.NoError(t, err)
		buf := make([]byte, size)
		_, err = c.Encode(v, buf, 0)
		require.NoError(t, err)
		encoded[i] = buf
	}

	sorted := append([][]byte(nil), encoded...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })
	assert.Equal(t, encoded, sorted, "lex encoding must already be in logical order")
}

func TestIntCodecDescendingReversesOrder(t *testing.T) {
	spec := ColumnSpec{Type: TypeInt32, Direction: Descending}
	c := NewLex(spec)

	low, high := int64(1), int64(2)
	lowBuf := make([]byte, c.MinSize())
	_, err := c.Encode(low, lowBuf, 0)
	require.NoError(t, err)
	highBuf := make([]byte, c.MinSize())
	_, err = c.Encode(high, highBuf, 0)
	require.NoError(t, err)

	assert.True(t, bytes.Compare(highBuf, lowBuf) < 0, "descending direction must reverse byte order relative to logical order")
}
