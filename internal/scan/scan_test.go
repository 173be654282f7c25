package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowstore/internal/codec"
	"rowstore/internal/evaluate"
	"rowstore/internal/filter"
	"rowstore/internal/rowinfo"
	"rowstore/internal/store"
)

func testRowInfo() *rowinfo.RowInfo {
	id := rowinfo.ColumnDescriptor{Name: "id", Type: codec.TypeInt64}
	email := rowinfo.ColumnDescriptor{Name: "email", Type: codec.TypeString}
	return rowinfo.NewBuilder("user", 0).
		AddKeyColumn(id).
		AddValueColumn(email).
		Build()
}

func seedPrimary(t *testing.T, idx store.Index, ri *rowinfo.RowInfo, n int) {
	t.Helper()
	txn := store.NewTxn(-1)
	for i := 0; i < n; i++ {
		key, err := rowinfo.EncodeKey(ri.KeyColumns, map[string]any{"id": int64(i)})
		require.NoError(t, err)
		val, err := rowinfo.EncodeValue(ri, map[string]any{"email": "user@example.com"})
		require.NoError(t, err)
		require.NoError(t, idx.Store(txn, key, val))
	}
}

func idBound(t *testing.T, ri *rowinfo.RowInfo, id int64, inclusive bool) *Bound {
	t.Helper()
	key, err := rowinfo.EncodeKey(ri.KeyColumns, map[string]any{"id": id})
	require.NoError(t, err)
	return &Bound{Key: key, Inclusive: inclusive}
}

func collectIDs(t *testing.T, s *Scanner) []int64 {
	t.Helper()
	var got []int64
	for s.Next() {
		row := s.Row()
		got = append(got, row["id"].(int64))
	}
	require.NoError(t, s.Err())
	return got
}

func TestScanControllerForwardBoundedIteration(t *testing.T) {
	ri := testRowInfo()
	st := store.NewMemStore()
	idx, err := st.CreateIndex("primary")
	require.NoError(t, err)
	seedPrimary(t, idx, ri, 10)

	ev := evaluate.New(ri, nil, nil, nil)
	ctrl := NewController(idx, idBound(t, ri, 3, true), idBound(t, ri, 6, false), ev)

	txn := store.NewTxn(-1)
	s := NewScanner(ctrl, txn, nil)
	assert.Equal(t, []int64{3, 4, 5}, collectIDs(t, s))
	assert.False(t, s.Stopped())
}

func TestScanControllerReversedSwapsIterationDirection(t *testing.T) {
	ri := testRowInfo()
	st := store.NewMemStore()
	idx, err := st.CreateIndex("primary")
	require.NoError(t, err)
	seedPrimary(t, idx, ri, 10)

	ev := evaluate.New(ri, nil, nil, nil)
	fwd := NewController(idx, idBound(t, ri, 3, true), idBound(t, ri, 6, false), ev)
	rev := fwd.Reversed()

	txn := store.NewTxn(-1)
	s := NewScanner(rev, txn, nil)
	assert.Equal(t, []int64{5, 4, 3}, collectIDs(t, s))
}

func TestScanControllerChainsToNextOnExhaustion(t *testing.T) {
	ri := testRowInfo()
	st := store.NewMemStore()
	idx, err := st.CreateIndex("primary")
	require.NoError(t, err)
	seedPrimary(t, idx, ri, 10)

	ev := evaluate.New(ri, nil, nil, nil)
	second := NewController(idx, idBound(t, ri, 7, true), idBound(t, ri, 9, true), ev)
	first := NewController(idx, idBound(t, ri, 0, true), idBound(t, ri, 1, true), ev)
	first.Next = second

	txn := store.NewTxn(-1)
	s := NewScanner(first, txn, nil)
	assert.Equal(t, []int64{0, 1, 7, 8, 9}, collectIDs(t, s))
}

// TestScannerStopColumnShortCircuits exercises the stop-column shortcut
// (spec.md §4.5/§4.4): once the comparison on the stop column fails for
// an ascending index, the remainder of the scan can never pass either,
// so the scanner ends immediately rather than visiting every row.
func TestScannerStopColumnShortCircuits(t *testing.T) {
	ri := testRowInfo()
	st := store.NewMemStore()
	idx, err := st.CreateIndex("primary")
	require.NoError(t, err)
	seedPrimary(t, idx, ri, 10)

	residual := filter.ColumnToArg{Column: "id", Op: codec.OpLT, Arg: 1}
	stop := &evaluate.StopColumn{Column: "id", Arg: 1}
	ev := evaluate.New(ri, residual, nil, stop)
	ctrl := NewController(idx, nil, nil, ev)

	txn := store.NewTxn(-1)
	s := NewScanner(ctrl, txn, []any{int64(5)})
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, collectIDs(t, s))
	assert.True(t, s.Stopped())
}
