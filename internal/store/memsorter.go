package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

var tempIndexSeq int64

// tempName allocates a unique name for a temporary index (a backfill
// sorter's output, or a deleted-key tracker).
func tempName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, atomic.AddInt64(&tempIndexSeq, 1))
}

// MemSorter is the reference Sorter: it buffers every added pair and
// produces a sorted temporary MemIndex on Finish, standing in for the
// store's external-memory merge sort (spec.md §6; out of scope here
// per spec.md §1 to implement a true bounded-memory sorter).
type MemSorter struct {
	store *MemStore
	mu    sync.Mutex
	pairs []entry
	reset bool
}

// NewSorter creates a sorter that will register its finished output
// as a new temporary index in s.
func (s *MemStore) NewSorter() *MemSorter {
	return &MemSorter{store: s}
}

func (sr *MemSorter) AddBatch(keys, values [][]byte) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.reset {
		return nil
	}
	for i := range keys {
		sr.pairs = append(sr.pairs, entry{key: keys[i], value: values[i]})
	}
	return nil
}

func (sr *MemSorter) Finish(ctx context.Context) (Index, error) {
	sr.mu.Lock()
	pairs := sr.pairs
	sr.pairs = nil
	sr.mu.Unlock()

	sort.SliceStable(pairs, func(i, j int) bool { return bytes.Compare(pairs[i].key, pairs[j].key) < 0 })
	// Last-writer-wins on duplicate keys, consistent with Store.
	deduped := pairs[:0]
	for i, p := range pairs {
		if i > 0 && bytes.Equal(p.key, deduped[len(deduped)-1].key) {
			deduped[len(deduped)-1] = p
			continue
		}
		deduped = append(deduped, p)
	}

	idx, err := sr.store.CreateIndex(tempName("sort"))
	if err != nil {
		return nil, err
	}
	idx.entries = deduped
	return idx, nil
}

func (sr *MemSorter) Reset() {
	sr.mu.Lock()
	sr.pairs = nil
	sr.reset = true
	sr.mu.Unlock()
}
