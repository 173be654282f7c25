package trigger

import (
	"rowstore/internal/rowinfo"
	"rowstore/internal/store"
	"rowstore/internal/transform"
)

// NewSecondary builds a Secondary for one target, precomputing
// whether every column it reads comes from the primary key — in
// which case an update can never change the target's encoding, and
// Update skips it entirely (spec.md §4.6: "if the target secondary's
// columns only depend on the primary key, there is nothing to do").
func NewSecondary(primary *rowinfo.RowInfo, name string, index store.Index, info transform.TargetInfo, targetID int, isAltKey bool, predicate PredicateLock) *Secondary {
	keyOnly := true
	for _, kc := range info.KeyColumns {
		if !primary.IsKeyColumn(kc.SourceName) {
			keyOnly = false
			break
		}
	}
	if keyOnly {
		for _, vc := range info.ValueColumns {
			if !primary.IsKeyColumn(vc.SourceName) {
				keyOnly = false
				break
			}
		}
	}
	return &Secondary{
		Name:      name,
		Index:     index,
		TargetID:  targetID,
		IsAltKey:  isAltKey,
		Predicate: predicate,
		keyOnly:   keyOnly,
	}
}
