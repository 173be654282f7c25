// Package evaluate implements the lazy decode/evaluate engine of
// spec.md §4.4: columns are located and decoded on demand as a
// residual filter is walked, with branch-state caching across
// AND/OR trees and an explicit stop-column short circuit in place of
// the source's exception-based ScanStopped sentinel (spec.md §9).
package evaluate

// State is a LocatedColumn's lifecycle stage.
type State int

const (
	Unlocated State = iota
	Located
	Decoded
)

// LocatedColumn caches what the engine has learned about one column
// of the row currently being evaluated: its byte range once located,
// and its decoded (or quick-compare) value once decoded.
type LocatedColumn struct {
	State      State
	Start, End int
	Value      any
	HasValue   bool
}

func (lc *LocatedColumn) reset() {
	*lc = LocatedColumn{}
}

// columnCache tracks LocatedColumn state for every key and value
// column of the bound RowInfo, by ordinal.
type columnCache struct {
	key   []LocatedColumn
	value []LocatedColumn
}

func newColumnCache(keyCols, valueCols int) *columnCache {
	return &columnCache{
		key:   make([]LocatedColumn, keyCols),
		value: make([]LocatedColumn, valueCols),
	}
}

func (c *columnCache) resetAll() {
	for i := range c.key {
		c.key[i].reset()
	}
	for i := range c.value {
		c.value[i].reset()
	}
}
