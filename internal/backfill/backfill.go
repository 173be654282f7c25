// Package backfill brings a newly-declared secondary index to full
// consistency with its primary table while writes continue to land on
// both, then hands off to the finished index atomically (spec.md
// §4.7). A Backfill implements trigger.BackfillHook, so a running
// backfill plugs directly into the Trigger that already maintains the
// secondary it is building.
package backfill

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"rowstore/internal/rowerr"
	"rowstore/internal/rtlog"
	"rowstore/internal/store"
	"rowstore/internal/transform"
	"rowstore/internal/trigger"
)

var log = rtlog.For("backfill")

var seq int64

func tempName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, atomic.AddInt64(&seq, 1))
}

// Phase tracks which of the four stages (spec.md §4.7) the backfill
// has reached.
type Phase int

const (
	PhaseBulkSort Phase = iota + 1
	PhaseFinalize
	PhaseReconcile
	PhaseSwap
)

// Backfill is the state machine of spec.md §4.7: sorter, a temporary
// deleted_tracker, the live secondary index it is rebuilding, and
// (from PhaseFinalize on) new_index, the sorter's finished output.
type Backfill struct {
	mu      sync.Mutex
	phase   Phase
	store   *store.MemStore
	live    store.Index
	sorter  store.Sorter
	tracker store.Index
	newIdx  store.Index
	stopped bool
}

var _ trigger.BackfillHook = (*Backfill)(nil)

// New starts a backfill for the secondary currently registered as
// live in st, using sorter as its bulk-sort accumulator.
func New(st *store.MemStore, live store.Index, sorter store.Sorter) (*Backfill, error) {
	tracker, err := st.CreateIndex(tempName("deleted-tracker"))
	if err != nil {
		return nil, err
	}
	return &Backfill{store: st, live: live, sorter: sorter, tracker: tracker, phase: PhaseBulkSort}, nil
}

// Phase reports the backfill's current stage.
func (b *Backfill) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Stop aborts the backfill; BulkSort and Finalize then report false
// ("stopped") rather than true ("completed") (spec.md §4.7's failure
// semantics).
func (b *Backfill) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sorter != nil {
		b.sorter.Reset()
	}
	b.sorter = nil
	b.stopped = true
	log.WithField("phase", b.phase).Warn("backfill stopped")
}

// BulkSort implements phase 1: a read-committed, infinite-lock-
// timeout, non-durable scan of primary, computing each row's
// secondary entry via maker/targetID and batching 100 rows per
// AddBatch call. It returns false if the backfill was stopped
// mid-scan.
func (b *Backfill) BulkSort(ctx context.Context, primary store.Index, maker *transform.Maker, targetID int) (bool, error) {
	txn := store.NewTxn(-1)
	txn.SetLockMode(store.ReadCommitted)
	txn.SetDurability(store.DurabilityNone)

	cur := primary.NewCursor(txn)
	if err := cur.First(); err != nil {
		return false, err
	}

	var keys, vals [][]byte
	flush := func() (bool, error) {
		if len(keys) == 0 {
			return true, nil
		}
		b.mu.Lock()
		sorter := b.sorter
		b.mu.Unlock()
		if sorter == nil {
			return false, nil
		}
		if err := sorter.AddBatch(keys, vals); err != nil {
			return false, err
		}
		keys, vals = nil, nil
		return true, nil
	}

	for cur.Key() != nil {
		key := cur.Key()
		value := cur.Value()
		tf := maker.Begin(key, value)
		sk, sv, err := tf.Encode(targetID)
		if err != nil {
			return false, err
		}
		keys = append(keys, sk)
		vals = append(vals, sv)
		if len(keys) >= 100 {
			if ok, err := flush(); err != nil || !ok {
				return ok, err
			}
		}
		if err := cur.Next(); err != nil {
			return false, err
		}
	}
	return flush()
}

// Finalize implements phase 2: finish the sorter into new_index, then
// publish it under the exclusive section so Inserted/Deleted begin
// redirecting into it.
func (b *Backfill) Finalize(ctx context.Context) (bool, error) {
	b.mu.Lock()
	sorter := b.sorter
	b.mu.Unlock()
	if sorter == nil {
		return false, nil
	}

	idx, err := sorter.Finish(ctx)
	if err != nil {
		return false, err
	}

	b.mu.Lock()
	b.newIdx = idx
	b.sorter = nil
	b.phase = PhaseFinalize
	b.mu.Unlock()
	log.WithField("index", idx.Name()).Info("backfill finalized new_index")
	return true, nil
}

// Reconcile implements phase 3 under an upgradable-read transaction:
// walk live's entries, migrating each into new_index unless
// deleted_tracker marks it deleted (in which case the tracker entry
// is consumed instead); then sweep any remaining tracker entries out
// of new_index, locking it upgradably per key to keep the documented
// lock order (secondary_index, then deleted_tracker).
func (b *Backfill) Reconcile(txn store.Transaction) error {
	b.mu.Lock()
	live, tracker, newIdx := b.live, b.tracker, b.newIdx
	b.phase = PhaseReconcile
	b.mu.Unlock()
	if newIdx == nil {
		return rowerr.New(rowerr.KindConversionException, "backfill: reconcile before finalize")
	}

	cur := live.NewCursor(txn)
	if err := cur.First(); err != nil {
		return err
	}
	for cur.Key() != nil {
		key, value := cur.Key(), cur.Value()
		marked, err := tracker.Load(txn, key)
		if err != nil {
			return err
		}
		if marked == nil {
			if err := newIdx.Store(txn, key, value); err != nil && !rowerr.Is(err, rowerr.KindDeletedIndex) {
				return err
			}
		} else if err := tracker.Delete(txn, key); err != nil {
			return err
		}
		if err := cur.Next(); err != nil {
			return err
		}
	}

	tcur := tracker.NewCursor(txn)
	if err := tcur.First(); err != nil {
		return err
	}
	for tcur.Key() != nil {
		key := tcur.Key()
		if _, err := newIdx.LockUpgradable(txn, key, 0); err != nil {
			return err
		}
		marked, err := tracker.Load(txn, key)
		if err != nil {
			return err
		}
		if marked != nil {
			if err := newIdx.Delete(txn, key); err != nil && !rowerr.Is(err, rowerr.KindDeletedIndex) {
				return err
			}
		}
		if err := tcur.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Swap implements phase 4: atomically exchange new_index and live's
// identities so the secondary's registered name now refers to the
// fully-populated index, drop the now-stale former live index, and
// clear the tracker. Callers are responsible for holding the redo
// lock and the trigger's exclusive latch around this call (spec.md
// §4.7).
func (b *Backfill) Swap() {
	b.mu.Lock()
	defer b.mu.Unlock()
	liveName, newName := b.live.Name(), b.newIdx.Name()
	b.store.Swap(liveName, newName)
	b.store.DropIndex(newName)
	b.store.DropIndex(b.tracker.Name())
	b.newIdx = nil
	b.phase = PhaseSwap
	log.WithFields(rtlog.Fields{"live": liveName, "was": newName}).Info("backfill swapped index identity")
}

// Inserted is the trigger hook for a row newly written to the
// secondary. Before PhaseFinalize it is a no-op: the trigger's normal
// write already landed in live, which phase 3 will migrate. From
// PhaseFinalize on, the entry is also written into new_index, and any
// stale deleted_tracker mark for the same key is cleared (the row is
// alive again).
func (b *Backfill) Inserted(txn store.Transaction, key, value []byte) error {
	b.mu.Lock()
	newIdx, tracker := b.newIdx, b.tracker
	b.mu.Unlock()
	if newIdx == nil {
		return nil
	}
	if err := newIdx.Store(txn, key, value); err != nil && !rowerr.Is(err, rowerr.KindDeletedIndex) {
		return err
	}
	if err := tracker.Delete(txn, key); err != nil && !rowerr.Is(err, rowerr.KindDeletedIndex) {
		return err
	}
	return nil
}

// Deleted is the trigger hook for a row removed from the secondary.
// It always marks deleted_tracker so phase 3's reconcile does not
// resurrect a key the bulk sort already captured before the delete
// arrived; from PhaseFinalize on it also deletes the key from
// new_index directly.
func (b *Backfill) Deleted(txn store.Transaction, key []byte) error {
	b.mu.Lock()
	newIdx, tracker := b.newIdx, b.tracker
	b.mu.Unlock()
	if err := tracker.Store(txn, key, []byte{1}); err != nil && !rowerr.Is(err, rowerr.KindDeletedIndex) {
		return err
	}
	if newIdx == nil {
		return nil
	}
	if err := newIdx.Delete(txn, key); err != nil && !rowerr.Is(err, rowerr.KindDeletedIndex) {
		return err
	}
	return nil
}
