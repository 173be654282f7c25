package backfill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowstore/internal/codec"
	"rowstore/internal/rowinfo"
	"rowstore/internal/store"
	"rowstore/internal/transform"
)

func testRowInfo() *rowinfo.RowInfo {
	id := rowinfo.ColumnDescriptor{Name: "id", Type: codec.TypeInt64}
	email := rowinfo.ColumnDescriptor{Name: "email", Type: codec.TypeString}
	return rowinfo.NewBuilder("user", 0).
		AddKeyColumn(id).
		AddValueColumn(email).
		AddSecondaryIndex("by_email", nil, email).
		Build()
}

func seed(t *testing.T, primary store.Index, ri *rowinfo.RowInfo, n int) {
	t.Helper()
	txn := store.NewTxn(-1)
	for i := 0; i < n; i++ {
		key, err := rowinfo.EncodeKey(ri.KeyColumns, map[string]any{"id": int64(i)})
		require.NoError(t, err)
		val, err := rowinfo.EncodeValue(ri, map[string]any{"email": "user@example.com"})
		require.NoError(t, err)
		require.NoError(t, primary.Store(txn, key, val))
	}
}

func TestBackfillPhasesLeaveLiveIndexFullyPopulated(t *testing.T) {
	ri := testRowInfo()
	st := store.NewMemStore()
	primary, err := st.CreateIndex("primary")
	require.NoError(t, err)
	seed(t, primary, ri, 10)

	live, err := st.CreateIndex("by_email")
	require.NoError(t, err)

	maker := transform.NewMaker(ri)
	targetID, err := maker.AddTarget(transform.TargetInfo{
		Name: "by_email",
		KeyColumns: []transform.ColumnTarget{
			{Column: ri.ValueColumns[0], SourceName: "email"},
			{Column: ri.KeyColumns[0], SourceName: "id"},
		},
	})
	require.NoError(t, err)

	bf, err := New(st, live, st.NewSorter())
	require.NoError(t, err)
	assert.Equal(t, PhaseBulkSort, bf.Phase())

	ok, err := bf.BulkSort(context.Background(), primary, maker, targetID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = bf.Finalize(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, PhaseFinalize, bf.Phase())

	txn := store.NewTxn(-1)
	require.NoError(t, bf.Reconcile(txn))
	assert.Equal(t, PhaseReconcile, bf.Phase())

	bf.Swap()
	assert.Equal(t, PhaseSwap, bf.Phase())

	newLive, ok := st.Index("by_email")
	require.True(t, ok)
	assert.Len(t, newLive.Snapshot(), 10, "every primary row must have a corresponding secondary entry after swap")
}

func TestBackfillDeletedHookTracksRowsRemovedMidRun(t *testing.T) {
	ri := testRowInfo()
	st := store.NewMemStore()
	primary, err := st.CreateIndex("primary")
	require.NoError(t, err)
	seed(t, primary, ri, 5)

	live, err := st.CreateIndex("by_email")
	require.NoError(t, err)

	maker := transform.NewMaker(ri)
	targetID, err := maker.AddTarget(transform.TargetInfo{
		Name: "by_email",
		KeyColumns: []transform.ColumnTarget{
			{Column: ri.ValueColumns[0], SourceName: "email"},
			{Column: ri.KeyColumns[0], SourceName: "id"},
		},
	})
	require.NoError(t, err)

	bf, err := New(st, live, st.NewSorter())
	require.NoError(t, err)

	ok, err := bf.BulkSort(context.Background(), primary, maker, targetID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = bf.Finalize(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	key4, err := rowinfo.EncodeKey(ri.KeyColumns, map[string]any{"id": int64(4)})
	require.NoError(t, err)
	val4, err := rowinfo.EncodeValue(ri, map[string]any{"email": "user@example.com"})
	require.NoError(t, err)

	txn := store.NewTxn(-1)
	tf := maker.Begin(key4, val4)
	sk, _, err := tf.Encode(targetID)
	require.NoError(t, err)
	require.NoError(t, bf.Deleted(txn, sk))

	require.NoError(t, bf.Reconcile(txn))
	bf.Swap()

	newLive, ok := st.Index("by_email")
	require.True(t, ok)
	got, err := newLive.Load(txn, sk)
	require.NoError(t, err)
	assert.Nil(t, got, "a key marked deleted during the run must not survive into the swapped-in index")
}
