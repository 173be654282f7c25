// Package store declares the ordered key-value store contract C1–C9
// are built on (spec.md §6) and supplies memstore, an in-memory
// reference implementation sufficient to exercise every operation and
// testable property in-process.
package store

import "context"

// LockMode mirrors the isolation levels spec.md §1 assumes the store
// provides.
type LockMode int

const (
	ReadCommitted LockMode = iota
	UpgradableRead
	RepeatableRead
)

// Durability controls whether a write waits for durable commit.
type Durability int

const (
	DurabilitySync Durability = iota
	DurabilityNone
)

// Transaction is the consumed transaction contract (spec.md §6).
type Transaction interface {
	Commit() error
	Exit() error
	Unlock()
	LockTimeoutNanos() int64
	SetLockTimeoutNanos(int64)
	LockMode() LockMode
	SetLockMode(LockMode)
	Durability() Durability
	SetDurability(Durability)
	Attachment() any
	SetAttachment(any)
}

// LockResult reports the outcome of an upgradable-lock attempt.
type LockResult int

const (
	LockAcquired LockResult = iota
	LockOwned
	LockTimedOut
	LockDenied
)

// Index is one ordered key range the store exposes (spec.md §6).
type Index interface {
	Name() string
	NewCursor(txn Transaction) Cursor
	Load(txn Transaction, key []byte) ([]byte, error)
	Store(txn Transaction, key, value []byte) error
	Insert(txn Transaction, key, value []byte) (bool, error)
	Delete(txn Transaction, key []byte) error
	LockUpgradable(txn Transaction, key []byte, timeoutNanos int64) (LockResult, error)
}

// Cursor iterates one Index (spec.md §6).
type Cursor interface {
	First() error
	Last() error
	Next() error
	Prev() error
	Find(key []byte) error
	FindNearby(key []byte) error
	Key() []byte
	Value() []byte
	Reset()
	SetAutoload(bool)
	Link(txn Transaction)
}

// Sorter accumulates key/value pairs out of band and produces a
// finished, ordered temporary Index (spec.md §6, used by C7).
type Sorter interface {
	AddBatch(keys, values [][]byte) error
	Finish(ctx context.Context) (Index, error)
	Reset()
}

// RedoListener is invoked for writes arriving through replication
// (spec.md §6, consumed by C7 during backfill).
type RedoListener interface {
	Store(txn Transaction, index Index, key, value []byte) error
}
