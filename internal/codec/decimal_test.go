package codec

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalCodecRoundTrip(t *testing.T) {
	spec := ColumnSpec{Type: TypeBigDecimal, Nullable: true}
	values := []string{
		"0", "-0", "1", "-1", "0.5", "-0.5", "123.456", "-123.456",
		"1e100", "-1e100", "1e-100", "-1e-100", "1e400", "-1e400",
	}

	for _, lex := range []bool{true, false} {
		c := codecFor(spec, lex)
		for _, s := range values {
			want, err := ParseDecimal(s)
			require.NoError(t, err)

			size, err := c.EncodeSize(want, c.MinSize())
			require.NoError(t, err)
			buf := make([]byte, size)
			n, err := c.Encode(want, buf, 0)
			require.NoError(t, err)
			assert.Equal(t, size, n)

			got, n2, err := c.Decode(buf, 0)
			require.NoError(t, err)
			assert.Equal(t, size, n2)
			assert.Equal(t, want, got, "round trip of %q", s)
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

// TestDecimalCodecLexOrderPreserving exercises spec §8 scenario (c):
// byte-lexicographic order of the lex encoding must match logical
// decimal order across every header band, including the large-exponent
// bands outside the inline range [-62, 61] that the inline literals of
// other tests never reach.
func TestDecimalCodecLexOrderPreserving(t *testing.T) {
	spec := ColumnSpec{Type: TypeBigDecimal, Nullable: true, NullPlacement: NullsLow}
	c := NewLex(spec)

	literals := []string{
		"-1e400", "-1e100", "-1.5", "-1", "-0.5", "-1e-100", "-1e-400", "-0",
		"0", "1e-400", "1e-100", "0.5", "1", "1.5", "100", "1e100", "1e400",
	}
	values := make([]any, 0, len(literals)+1)
	values = append(values, nil)
	for _, s := range literals {
		d, err := ParseDecimal(s)
		require.NoError(t, err)
		values = append(values, d)
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
	assert.Equal(t, encoded, sorted, "lex encoding must already be in logical order")
}

// TestDecimalCodecLargeExponentHeaderSelectedBySign reproduces the two
// concrete cases the header-band fix targets: a large-magnitude negative
// exponent on each sign must not collapse onto the same header as a
// large positive exponent of that sign.
func TestDecimalCodecLargeExponentHeaderSelectedBySign(t *testing.T) {
	spec := ColumnSpec{Type: TypeBigDecimal}
	c := NewLex(spec)

	encode := func(s string) []byte {
		d, err := ParseDecimal(s)
		require.NoError(t, err)
		size, err := c.EncodeSize(d, c.MinSize())
		require.NoError(t, err)
		buf := make([]byte, size)
		_, err = c.Encode(d, buf, 0)
		require.NoError(t, err)
		return buf
	}

	small := encode("1e-100")
	hundred := encode("100")
	assert.Equal(t, byte(decHeaderPosLargeNeg), small[0])
	assert.True(t, bytes.Compare(small, hundred) < 0, "1e-100 must sort before 100")

	negSmall := encode("-1e-100")
	negOnePointFive := encode("-1.5")
	assert.Equal(t, byte(decHeaderNegLargeNeg), negSmall[0])
	assert.True(t, bytes.Compare(negSmall, negOnePointFive) > 0, "-1e-100 (> -1.5) must sort after -1.5")
}

func TestDecimalCodecDescendingReversesOrder(t *testing.T) {
	spec := ColumnSpec{Type: TypeBigDecimal, Direction: Descending}
	c := NewLex(spec)

	low, err := ParseDecimal("1")
	require.NoError(t, err)
	high, err := ParseDecimal("2")
	require.NoError(t, err)

	encode := func(d Decimal) []byte {
		size, err := c.EncodeSize(d, c.MinSize())
		require.NoError(t, err)
		buf := make([]byte, size)
		_, err = c.Encode(d, buf, 0)
		require.NoError(t, err)
		return buf
	}

	lowBuf, highBuf := encode(low), encode(high)
	assert.True(t, bytes.Compare(highBuf, lowBuf) < 0, "descending direction must reverse byte order relative to logical order")
}
