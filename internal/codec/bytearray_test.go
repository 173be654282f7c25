package codec

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteArrayCodecRoundTrip(t *testing.T) {
	spec := ColumnSpec{Type: TypeBytes, Nullable: true}
	values := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("hello world"),
		{0x00},
		{0x00, 0x00, 0x00},
		{0x00, 0xFF, 0x01},
		{0xFF, 0xFF, 0xFF},
	}

	for _, lex := range []bool{true, false} {
		c := codecFor(spec, lex)
		for _, v := range values {
			size, err := c.EncodeSize(v, c.MinSize())
			require.NoError(t, err)
			buf := make([]byte, size)
			n, err := c.Encode(v, buf, 0)
			require.NoError(t, err)
			assert.Equal(t, size, n)

			got, n2, err := c.Decode(buf, 0)
			require.NoError(t, err)
			assert.Equal(t, size, n2)
			assert.Equal(t, v, got)
		}

		if !lex {
			continue // the plain (non-lex) form never carries a null header
		}
		size, err := c.EncodeSize(nil, c.MinSize())
		require.NoError(t, err)
		buf := make([]byte, size)
		_, err = c.Encode(nil, buf, 0)
		require.NoError(t, err)
		got, _, err := c.Decode(buf, 0)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

// TestByteArrayCodecLexOrderPreserving exercises spec §8 scenario (b):
// the escape scheme substituting for the base-32768 packing described
// in DESIGN.md must still byte-sort in the same order as the source
// strings, including values containing embedded 0x00 bytes.
func TestByteArrayCodecLexOrderPreserving(t *testing.T) {
	spec := ColumnSpec{Type: TypeBytes, Nullable: true, NullPlacement: NullsLow}
	c := NewLex(spec)

	raw := [][]byte{
		[]byte(""),
		{0x00},
		{0x00, 0x00},
		[]byte("a"),
		[]byte("aa"),
		[]byte("ab"),
		[]byte("b"),
		{0x01},
		{0xFE},
		{0xFF},
		{0xFF, 0x00},
		{0xFF, 0xFF},
	}
	sort.Slice(raw, func(i, j int) bool { return bytes.Compare(raw[i], raw[j]) < 0 })

	values := make([]any, 0, len(raw)+1)
	values = append(values, nil)
	for _, b := range raw {
		values = append(values, b)
	}

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
	assert.Equal(t, encoded, sorted, "lex encoding must preserve source byte-string order")
}

func TestByteArrayCodecDescendingReversesOrder(t *testing.T) {
	spec := ColumnSpec{Type: TypeBytes, Direction: Descending}
	c := NewLex(spec)

	encode := func(s string) []byte {
		v := []byte(s)
		size, err := c.EncodeSize(v, c.MinSize())
		require.NoError(t, err)
		buf := make([]byte, size)
		_, err = c.Encode(v, buf, 0)
		require.NoError(t, err)
		return buf
	}

	lowBuf, highBuf := encode("a"), encode("b")
	assert.True(t, bytes.Compare(highBuf, lowBuf) < 0, "descending direction must reverse byte order relative to logical order")
}
