// Package scan implements the scan controller and scanner of
// spec.md §4.5: a bounded, optionally-reversed cursor over one index,
// paired with a RowEvaluator and chained to the next disjoint range
// the planner emitted.
package scan

import (
	"bytes"

	"rowstore/internal/evaluate"
	"rowstore/internal/store"
)

// Characteristic is a bitmask describing what guarantees a scan
// offers its caller (spec.md §4.5).
type Characteristic uint

const (
	Ordered Characteristic = 1 << iota
	NonNull
	Concurrent
	Distinct
	Sized
	Sorted
)

// Bound is one side of a scan's key range.
type Bound struct {
	Key       []byte
	Inclusive bool
}

// ScanController wraps one index view, bounded by [Low, High] (either
// side may be nil for unbounded), optionally reversed, paired with the
// RowEvaluator that filters and projects rows as they're visited.
type ScanController struct {
	Index           store.Index
	Reverse         bool
	Low, High       *Bound
	Evaluator       *evaluate.RowEvaluator
	Characteristics Characteristic
	Next            *ScanController // chained disjoint range, if any
}

// NewController builds a forward controller; call Reversed() to flip it.
func NewController(idx store.Index, low, high *Bound, ev *evaluate.RowEvaluator) *ScanController {
	return &ScanController{
		Index:           idx,
		Low:             low,
		High:            high,
		Evaluator:       ev,
		Characteristics: Ordered | NonNull,
	}
}

// Reversed returns a copy of c that scans in the opposite direction,
// swapping which bound starts the cursor (spec.md §4.5: "reverse
// iteration swaps bounds on construction").
func (c *ScanController) Reversed() *ScanController {
	r := *c
	r.Reverse = !c.Reverse
	return &r
}

// NewCursor applies the controller's bounds to a fresh cursor in a
// single pass: position the start bound first (reverse ? High : Low),
// so that reverse iteration composes correctly with bounds (spec.md
// §4.5).
func (c *ScanController) NewCursor(txn store.Transaction) (store.Cursor, error) {
	cur := c.Index.NewCursor(txn)
	if c.Reverse {
		if err := positionReverseStart(cur, c.High); err != nil {
			return nil, err
		}
	} else {
		if err := positionForwardStart(cur, c.Low); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func positionForwardStart(cur store.Cursor, low *Bound) error {
	if low == nil {
		return cur.First()
	}
	if err := cur.Find(low.Key); err != nil {
		return err
	}
	if !low.Inclusive && bytes.Equal(cur.Key(), low.Key) {
		return cur.Next()
	}
	return nil
}

func positionReverseStart(cur store.Cursor, high *Bound) error {
	if high == nil {
		return cur.Last()
	}
	if err := cur.Find(high.Key); err != nil {
		return err
	}
	key := cur.Key()
	if key == nil {
		// No entry >= high.Key: every entry is already below it.
		return cur.Last()
	}
	if bytes.Equal(key, high.Key) {
		if high.Inclusive {
			return nil
		}
		return cur.Prev()
	}
	// Find landed on the first entry strictly greater than high.Key.
	return cur.Prev()
}

// outOfRange reports whether key has crossed the controller's
// terminating bound for its scan direction.
func (c *ScanController) outOfRange(key []byte) bool {
	if c.Reverse {
		if c.Low == nil {
			return false
		}
		cmp := bytes.Compare(key, c.Low.Key)
		if c.Low.Inclusive {
			return cmp < 0
		}
		return cmp <= 0
	}
	if c.High == nil {
		return false
	}
	cmp := bytes.Compare(key, c.High.Key)
	if c.High.Inclusive {
		return cmp > 0
	}
	return cmp >= 0
}
