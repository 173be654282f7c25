package keygen

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rowstore/internal/codec"
	"rowstore/internal/rowerr"
	"rowstore/internal/store"
)

func TestGenerateConcurrentCallsProduceNoDuplicateKeys(t *testing.T) {
	st := store.NewMemStore()
	idx, err := st.CreateIndex("primary")
	require.NoError(t, err)

	g := New(idx, nil, codec.ColumnSpec{Type: codec.TypeInt32}, 1, 50)

	const n = 40
	keys := make([][]byte, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txn := store.NewTxn(int64(time.Second))
			key, err := g.Generate(txn, []byte("v"))
			require.NoError(t, err)
			keys[i] = key
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, k := range keys {
		s := string(k)
		assert.False(t, seen[s], "duplicate key allocated: %x", k)
		seen[s] = true
	}
}

func TestGenerateFailsOnceRangeIsExhaustedBeforeDeadline(t *testing.T) {
	st := store.NewMemStore()
	idx, err := st.CreateIndex("primary")
	require.NoError(t, err)

	g := New(idx, nil, codec.ColumnSpec{Type: codec.TypeInt32}, 1, 2)

	txn := store.NewTxn(0)
	_, err = g.Generate(txn, []byte("v"))
	require.NoError(t, err)
	_, err = g.Generate(txn, []byte("v"))
	require.NoError(t, err)

	_, err = g.Generate(txn, []byte("v"))
	require.Error(t, err)
	assert.True(t, rowerr.Is(err, rowerr.KindLockFailure))
}
