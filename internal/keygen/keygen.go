// Package keygen implements the automatic key generator of spec.md
// §4.8: for a primary key whose trailing column is a fixed-width
// integer in an inclusive range, it allocates a value not already
// present, retrying under contention with a fresh random candidate
// until the caller's transaction deadline expires.
package keygen

import (
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"rowstore/internal/codec"
	"rowstore/internal/rowerr"
	"rowstore/internal/rtlog"
	"rowstore/internal/store"
)

var log = rtlog.For("keygen")

// state is the per-goroutine pooled cursor position and PRNG the spec
// describes ("per-thread pooled state"); sync.Pool approximates that
// affinity in Go, where threads are not directly addressable.
type state struct {
	rng    *rand.Rand
	cur    int64
	hasCur bool
}

var seedCounter atomic.Uint64

// newSeeded returns a PCG-backed *rand.Rand seeded uniquely per
// pooled state, standing in for the source's L64X128Mix generator —
// math/rand/v2's PCG is the standard library's closest splittable,
// statistically equivalent generator.
func newSeeded() *rand.Rand {
	n := seedCounter.Add(1)
	t := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(t^n, n^(t<<1)|1))
}

// Generator allocates unique trailing-column values for one primary
// key prefix (every row sharing the generator has identical leading
// key columns; only the trailing fixed-width integer varies).
type Generator struct {
	index     store.Index
	prefix    []byte
	tailCodec codec.Codec
	min, max  int64
	pool      sync.Pool
}

// New builds a generator over index, with prefix the encoded bytes of
// every leading key column and spec describing the trailing integer
// column, ranging over [min, max] inclusive.
func New(index store.Index, prefix []byte, spec codec.ColumnSpec, min, max int64) *Generator {
	return &Generator{
		index:     index,
		prefix:    append([]byte(nil), prefix...),
		tailCodec: codec.NewLex(spec),
		min:       min,
		max:       max,
		pool:      sync.Pool{New: func() any { return &state{rng: newSeeded()} }},
	}
}

func randInRange(rng *rand.Rand, min, max int64) int64 {
	span := uint64(max-min) + 1
	for {
		v := min + int64(rng.Uint64N(span))
		if v != 0 {
			return v
		}
	}
}

// next computes candidate = src + 1, wrapping to min on overflow past
// max and skipping zero either way (spec.md §4.8 step 2).
func (g *Generator) next(src int64) int64 {
	v := src + 1
	if v > g.max {
		v = g.min
	}
	if v == 0 {
		v++
		if v > g.max {
			v = g.min
		}
	}
	return v
}

func (g *Generator) encodeKey(candidate int64) ([]byte, error) {
	size, err := g.tailCodec.EncodeSize(candidate, g.tailCodec.MinSize())
	if err != nil {
		return nil, err
	}
	tail := make([]byte, size)
	n, err := g.tailCodec.Encode(candidate, tail, 0)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(g.prefix)+n)
	out = append(out, g.prefix...)
	out = append(out, tail[:n]...)
	return out, nil
}

type deadliner interface {
	Deadline() time.Time
}

// Generate allocates a unique key and stores value at it, returning
// the full encoded key (spec.md §4.8's steps 1–4).
func (g *Generator) Generate(txn store.Transaction, value []byte) ([]byte, error) {
	st, _ := g.pool.Get().(*state)
	defer g.pool.Put(st)

	if !st.hasCur {
		st.cur = randInRange(st.rng, g.min, g.max)
		st.hasCur = true
	}

	var deadline time.Time
	hasDeadline := false

	for {
		candidate := g.next(st.cur)
		key, err := g.encodeKey(candidate)
		if err != nil {
			return nil, err
		}

		res, err := g.index.LockUpgradable(txn, key, 0)
		if err != nil {
			return nil, err
		}
		if res == store.LockAcquired || res == store.LockOwned {
			st.cur = candidate
			existing, err := g.index.Load(txn, key)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				if err := g.index.Store(txn, key, value); err != nil {
					return nil, err
				}
				return key, nil
			}
		}

		if !hasDeadline {
			if d, ok := txn.(deadliner); ok {
				deadline = d.Deadline()
			} else {
				deadline = time.Now().Add(time.Duration(txn.LockTimeoutNanos()))
			}
			hasDeadline = true
		}
		if time.Now().After(deadline) {
			log.WithField("index", g.index.Name()).Warn("keygen: deadline expired before a unique identifier was found")
			return nil, rowerr.New(rowerr.KindLockFailure, "keygen: unable to generate a unique identifier for %q before the transaction deadline", g.index.Name())
		}

		runtime.Gosched()
		st.cur = randInRange(st.rng, g.min, g.max)
	}
}

// Reset clears the generator's pooled cursor state, so the next
// Generate call starts from a fresh random cursor.
func (g *Generator) Reset() {
	g.pool = sync.Pool{New: func() any { return &state{rng: newSeeded()} }}
}
