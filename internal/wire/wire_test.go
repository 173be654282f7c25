package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowstore/internal/codec"
	"rowstore/internal/rowinfo"
)

func testColumnSet() rowinfo.ColumnSet {
	return rowinfo.ColumnSet{Columns: []rowinfo.ColumnDescriptor{
		{Name: "id", Type: codec.TypeInt64, Ordinal: 0},
		{Name: "email", Type: codec.TypeString, Ordinal: 1},
	}}
}

// TestWriterReaderRoundTripsHeaderReuse exercises all three header
// encodings a Writer chooses between: a brand new header, the
// single-byte "reuse the last one" shortcut, and an explicit
// reference back to an earlier header by id.
func TestWriterReaderRoundTripsHeaderReuse(t *testing.T) {
	cs := testColumnSet()
	other := rowinfo.ColumnSet{Columns: []rowinfo.ColumnDescriptor{
		{Name: "id", Type: codec.TypeInt64, Ordinal: 0},
	}}

	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.WriteRow(Header{Columns: cs}, []byte("k1"), []byte("v1")))
	require.NoError(t, w.WriteRow(Header{Columns: cs}, []byte("k2"), []byte("v2")))
	require.NoError(t, w.WriteRow(Header{Columns: other}, []byte("k3"), []byte("v3")))
	require.NoError(t, w.WriteRow(Header{Columns: cs}, []byte("k4"), []byte("v4")))
	require.NoError(t, w.WriteTerminator())

	r := NewReader(&buf)

	rec1, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, []byte("k1"), rec1.Key)
	assert.Equal(t, []byte("v1"), rec1.Value)
	assert.Equal(t, cs.Columns, rec1.Header.Columns.Columns)

	rec2, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, []byte("k2"), rec2.Key)
	assert.Equal(t, []byte("v2"), rec2.Value)
	assert.Equal(t, rec1.Header.ID, rec2.Header.ID, "consecutive rows under the same header reuse its id")

	rec3, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, []byte("k3"), rec3.Key)
	assert.Equal(t, other.Columns, rec3.Header.Columns.Columns)
	assert.NotEqual(t, rec1.Header.ID, rec3.Header.ID)

	rec4, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, []byte("k4"), rec4.Key)
	assert.Equal(t, cs.Columns, rec4.Header.Columns.Columns)
	assert.Equal(t, rec1.Header.ID, rec4.Header.ID, "a header referenced by id after an intervening header must resolve back to it")

	done, err := r.ReadRecord()
	require.NoError(t, err)
	assert.True(t, done.Done)
}

func TestWriterReaderRoundTripsException(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteException(errors.New("scan aborted")))

	r := NewReader(&buf)
	rec, err := r.ReadRecord()
	require.NoError(t, err)
	require.Error(t, rec.Err)
	assert.Contains(t, rec.Err.Error(), "scan aborted")
}

// TestWriterReaderRoundTripsManyInlineHeaders exercises the
// reference-by-id prefix byte band (ids 0..249) by cycling through
// enough distinct header shapes that later rows must reference an
// early header well past the "reuse last" shortcut.
func TestWriterReaderRoundTripsManyInlineHeaders(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	shapes := make([]rowinfo.ColumnSet, 5)
	names := []string{"col0", "col1", "col2", "col3", "col4"}
	for i := range shapes {
		shapes[i] = rowinfo.ColumnSet{Columns: []rowinfo.ColumnDescriptor{
			{Name: names[i], Type: codec.TypeInt64, Ordinal: 0},
		}}
	}
	for _, cs := range shapes {
		require.NoError(t, w.WriteRow(Header{Columns: cs}, []byte("k"), []byte("v")))
	}
	// Re-emit the first shape after four intervening headers: must
	// encode as a reference-by-id, not a reuse or new header.
	require.NoError(t, w.WriteRow(Header{Columns: shapes[0]}, []byte("k0b"), []byte("v0b")))
	require.NoError(t, w.WriteTerminator())

	r := NewReader(&buf)
	var firstID int
	for i := range shapes {
		rec, err := r.ReadRecord()
		require.NoError(t, err)
		if i == 0 {
			firstID = rec.Header.ID
		}
	}
	rec, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, []byte("k0b"), rec.Key)
	assert.Equal(t, firstID, rec.Header.ID)

	done, err := r.ReadRecord()
	require.NoError(t, err)
	assert.True(t, done.Done)
}
