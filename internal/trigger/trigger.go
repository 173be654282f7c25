// Package trigger keeps a primary row's secondary indexes consistent
// with its insert, delete, and update operations (spec.md §4.6).
package trigger

import (
	"bytes"
	"sync"

	"rowstore/internal/rowerr"
	"rowstore/internal/rtlog"
	"rowstore/internal/store"
	"rowstore/internal/transform"
)

var log = rtlog.For("trigger")

// BackfillHook is the narrow surface a running backfill exposes to a
// Trigger, so this package never imports internal/backfill — the
// backfill instead imports trigger and implements this interface
// (spec.md §4.7's "triggers" set, seen from the trigger's side).
type BackfillHook interface {
	Inserted(txn store.Transaction, key, value []byte) error
	Deleted(txn store.Transaction, key []byte) error
}

// PredicateLock serializes a secondary write against any concurrent
// scan holding a matching predicate (spec.md §4.6's "predicate
// locks"). Secondaries without one pass nil.
type PredicateLock interface {
	Lock(txn store.Transaction, key []byte) error
}

// Secondary is one target the trigger maintains alongside the
// primary row.
type Secondary struct {
	Name       string
	Index      store.Index
	TargetID   int
	IsAltKey   bool
	Predicate  PredicateLock
	Backfill   BackfillHook
	keyOnly    bool // true if every source column is a primary key column
}

// Trigger maintains every declared secondary for one primary row
// type. Writes take the shared side of its latch; SwapIndex and the
// backfill hook setters take the exclusive side, so a mutation never
// observes a half-configured secondary list (spec.md §4.6).
type Trigger struct {
	mu          sync.RWMutex
	maker       *transform.Maker
	secondaries []*Secondary
}

// New builds a trigger bound to maker, with secs as its initial
// secondary list.
func New(maker *transform.Maker, secs []*Secondary) *Trigger {
	return &Trigger{maker: maker, secondaries: secs}
}

// SwapIndex exclusively replaces a secondary's underlying index
// (spec.md §4.7 phase 4's identity swap, and phase 2's "publish
// new_index" redirect).
func (t *Trigger) SwapIndex(name string, idx store.Index) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.secondaries {
		if s.Name == name {
			s.Index = idx
			return
		}
	}
}

// SetBackfill exclusively attaches a backfill hook to a secondary.
func (t *Trigger) SetBackfill(name string, hook BackfillHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.secondaries {
		if s.Name == name {
			s.Backfill = hook
			return
		}
	}
}

// ClearBackfill exclusively detaches a secondary's backfill hook,
// once the backfill has completed or been abandoned.
func (t *Trigger) ClearBackfill(name string) {
	t.SetBackfill(name, nil)
}

func swallowDropped(err error) error {
	if err != nil && (rowerr.Is(err, rowerr.KindDeletedIndex) || rowerr.Is(err, rowerr.KindClosedIndex)) {
		log.WithError(err).Debug("trigger: secondary write skipped against a dropped index")
		return nil
	}
	return err
}

// Insert maintains every secondary for a newly-inserted primary row.
func (t *Trigger) Insert(txn store.Transaction, key, rawValue []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tf := t.maker.Begin(key, rawValue)
	for _, s := range t.secondaries {
		if err := swallowDropped(t.insertOne(txn, tf, s)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trigger) insertOne(txn store.Transaction, tf *transform.Transform, s *Secondary) error {
	k, v, err := tf.Encode(s.TargetID)
	if err != nil {
		return err
	}
	if s.Predicate != nil {
		if err := s.Predicate.Lock(txn, k); err != nil {
			return err
		}
	}
	if s.IsAltKey {
		ok, err := s.Index.Insert(txn, k, v)
		if err != nil {
			return err
		}
		if !ok {
			return rowerr.New(rowerr.KindUniqueConstraint, "trigger: alternate key %q already has an entry for this value", s.Name)
		}
	} else if err := s.Index.Store(txn, k, v); err != nil {
		return err
	}
	if s.Backfill != nil {
		return s.Backfill.Inserted(txn, k, v)
	}
	return nil
}

// Delete maintains every secondary for a deleted primary row,
// computing each secondary key from the row's pre-image.
func (t *Trigger) Delete(txn store.Transaction, key, rawValue []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tf := t.maker.Begin(key, rawValue)
	for _, s := range t.secondaries {
		if err := swallowDropped(t.deleteOne(txn, tf, s)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trigger) deleteOne(txn store.Transaction, tf *transform.Transform, s *Secondary) error {
	k, _, err := tf.Encode(s.TargetID)
	if err != nil {
		return err
	}
	if err := s.Index.Delete(txn, k); err != nil {
		return err
	}
	if s.Backfill != nil {
		return s.Backfill.Deleted(txn, k)
	}
	return nil
}

// Update maintains every secondary across a primary row change from
// (oldKey, oldValue) to (newKey, newValue). newKey and oldKey are
// always equal: a primary key change is modeled as a delete and
// insert by the caller, never an update (spec.md §4.6).
func (t *Trigger) Update(txn store.Transaction, newKey, newValue, oldKey, oldValue []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	newTf := t.maker.Begin(newKey, newValue)
	oldTf := t.maker.Begin(oldKey, oldValue)
	for _, s := range t.secondaries {
		if err := swallowDropped(t.updateOne(txn, newTf, oldTf, s)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trigger) updateOne(txn store.Transaction, newTf, oldTf *transform.Transform, s *Secondary) error {
	if s.keyOnly {
		return nil
	}

	newK, newV, err := newTf.Encode(s.TargetID)
	if err != nil {
		return err
	}
	oldK, oldV, err := oldTf.Encode(s.TargetID)
	if err != nil {
		return err
	}

	keySame := bytes.Equal(newK, oldK)
	valueSame := s.IsAltKey || bytes.Equal(newV, oldV)
	if keySame && valueSame {
		return nil
	}

	if s.Predicate != nil {
		if err := s.Predicate.Lock(txn, newK); err != nil {
			return err
		}
	}

	if s.IsAltKey {
		ok, err := s.Index.Insert(txn, newK, newV)
		if err != nil {
			return err
		}
		if !ok {
			return rowerr.New(rowerr.KindUniqueConstraint, "trigger: alternate key %q already has an entry for this value", s.Name)
		}
	} else if err := s.Index.Store(txn, newK, newV); err != nil {
		return err
	}
	if s.Backfill != nil {
		if err := s.Backfill.Inserted(txn, newK, newV); err != nil {
			return err
		}
	}

	// Covering-index optimization: an unchanged key with only the
	// value differing overwrote in place above; no delete needed.
	if keySame {
		return nil
	}

	if err := s.Index.Delete(txn, oldK); err != nil {
		return err
	}
	if s.Backfill != nil {
		return s.Backfill.Deleted(txn, oldK)
	}
	return nil
}
