package codec

import (
	"bytes"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatCodecRoundTrip(t *testing.T) {
	specs := []ColumnSpec{
		{Type: TypeFloat64},
		{Type: TypeFloat32, Nullable: true},
		{Type: TypeFloat64, Nullable: true, Direction: Descending},
	}
	values := []any{float64(-7.5), float64(0), float64(3.25), nil}

	for _, spec := range specs {
		for _, lex := range []bool{true, false} {
			c := codecFor(spec, lex)
			for _, v := range values {
				if v == nil && (!spec.Nullable || !lex) {
					continue
				}
				want := v
				if want != nil && spec.Type == TypeFloat32 {
					want = float32(v.(float64))
				}
				size, err := c.EncodeSize(want, c.MinSize())
				require.NoError(t, err)
				buf := make([]byte, size)
				n, err := c.Encode(want, buf, 0)
				require.NoError(t, err)
				assert.Equal(t, size, n)

				got, n2, err := c.Decode(buf, 0)
				require.NoError(t, err)
				assert.Equal(t, size, n2)
				assert.Equal(t, want, got)
			}
		}
	}
}

// TestFloatCodecLexOrderPreserving exercises spec §8's IEEE-754
// totalOrder claim for the lex encoding: sign-bit XOR for non-negative
// values, full bit flip for negative ones, including signed zero and
// negative-vs-positive infinity.
func TestFloatCodecLexOrderPreserving(t *testing.T) {
	spec := ColumnSpec{Type: TypeFloat64, Nullable: true, NullPlacement: NullsLow}
	c := NewLex(spec)

	values := []any{
		nil,
		math.Inf(-1), float64(-100.5), float64(-1), math.Copysign(0, -1),
		float64(0), float64(1), float64(100.5), math.Inf(1),
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

func TestFloatCodecDescendingReversesOrder(t *testing.T) {
	spec := ColumnSpec{Type: TypeFloat64, Direction: Descending}
	c := NewLex(spec)

	low, high := float64(1), float64(2)
	lowBuf := make([]byte, c.MinSize())
	_, err := c.Encode(low, lowBuf, 0)
	require.NoError(t, err)
	highBuf := make([]byte, c.MinSize())
	_, err = c.Encode(high, highBuf, 0)
	require.NoError(t, err)

	assert.True(t, bytes.Compare(highBuf, lowBuf) < 0, "descending direction must reverse byte order relative to logical order")
}
