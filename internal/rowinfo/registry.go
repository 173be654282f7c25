package rowinfo

import (
	"fmt"
	"sync"

	"rowstore/internal/rowerr"
)

// versionKey identifies one (row type, schema version) pair.
type versionKey struct {
	rowType string
	version int
}

// Registry maps schema-version bytes recorded in a stored value back
// to the RowInfo that describes it (spec.md §4.2's `lookup`). Go has
// no safe automatic-GC-driven weak-reference cache matching the
// source's description, so eviction is explicit: an entry stays until
// Evict is called for it (see DESIGN.md).
type Registry struct {
	mu    sync.RWMutex
	byKey map[versionKey]*RowInfo
	next  map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[versionKey]*RowInfo),
		next:  make(map[string]int),
	}
}

// Describe registers ri as the current RowInfo for its row type,
// returning it unchanged (spec.md §4.2's `describe`).
func (r *Registry) Describe(ri *RowInfo) *RowInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[versionKey{ri.RowType, ri.Version}] = ri
	if ri.Version >= r.next[ri.RowType] {
		r.next[ri.RowType] = ri.Version + 1
	}
	return ri
}

// RegisterVersion allocates the next schema version number for
// rowType, builds the RowInfo for it with build, registers that RowInfo
// under the version and returns it.
func (r *Registry) RegisterVersion(rowType string, build func(version int) *RowInfo) *RowInfo {
	r.mu.Lock()
	version := r.next[rowType]
	r.next[rowType] = version + 1
	r.mu.Unlock()

	ri := build(version)
	r.mu.Lock()
	r.byKey[versionKey{rowType, version}] = ri
	r.mu.Unlock()
	return ri
}

// Lookup resolves a (row type, schema version) pair.
func (r *Registry) Lookup(rowType string, version int) (*RowInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ri, ok := r.byKey[versionKey{rowType, version}]
	if !ok {
		return nil, rowerr.New(rowerr.KindUnknownSchemaVersion, "row type %q has no registered version %d", rowType, version)
	}
	return ri, nil
}

// Evict drops a registered (row type, schema version) entry.
func (r *Registry) Evict(rowType string, version int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byKey, versionKey{rowType, version})
}

// String renders the registry's current row types for diagnostics.
func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("rowinfo.Registry{%d entries}", len(r.byKey))
}
