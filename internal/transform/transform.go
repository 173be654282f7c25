// Package transform builds secondary-index key/value bytes from a
// primary row without re-running the query planner: the transform
// maker (spec.md §4.9, "the transform maker") records, once per
// declared target, which primary columns feed which target columns,
// then replays that recipe against each bound row.
package transform

import (
	"rowstore/internal/codec"
	"rowstore/internal/evaluate"
	"rowstore/internal/rowerr"
	"rowstore/internal/rowinfo"
)

// Availability classifies whether a target column's source is
// guaranteed present on every row of the primary's current schema
// version (ALWAYS), never present (NEVER, e.g. a column dropped by a
// later schema version), or present only on some rows (CONDITIONAL,
// e.g. a nullable column). A single-version RowInfo makes every
// resolvable source column ALWAYS; CONDITIONAL is retained for a
// future multi-version RowInfo and is not reachable today.
type Availability int

const (
	Always Availability = iota
	Never
	Conditional
)

// ColumnTarget is one column of a target key or value, with the name
// of the primary column that feeds it.
type ColumnTarget struct {
	Column     rowinfo.ColumnDescriptor
	SourceName string
}

// TargetInfo describes one secondary target: an alternate key or a
// secondary index, expressed as the recipe to build its key and
// (for secondary indexes) covering value from a primary row.
type TargetInfo struct {
	Name         string
	KeyColumns   []ColumnTarget
	ValueColumns []ColumnTarget
	// Unique marks an alternate key, whose value holds the encoded
	// primary key rather than covering columns (spec.md §3).
	Unique bool
}

type target struct {
	info         TargetInfo
	keyCodecs    []codec.Codec
	valueCodecs  []codec.Codec
	keyBinCopy   []bool // per key column, true if a raw byte-range copy applies
	availability []Availability
}

// Maker holds the compiled recipes for every target declared against
// one primary row type.
type Maker struct {
	primary *rowinfo.RowInfo
	targets []*target
}

// NewMaker starts a maker bound to a primary row type.
func NewMaker(primary *rowinfo.RowInfo) *Maker {
	return &Maker{primary: primary}
}

// AddTarget compiles info into a target and returns its id for later
// Encode calls. Every ColumnTarget.SourceName must name a primary key
// or value column.
func (m *Maker) AddTarget(info TargetInfo) (int, error) {
	t := &target{info: info}
	for _, kc := range info.KeyColumns {
		src, ok := m.primary.ColumnByName(kc.SourceName)
		if !ok {
			return 0, rowerr.New(rowerr.KindConversionException,
				"transform: target %q references unknown source column %q", info.Name, kc.SourceName)
		}
		t.keyCodecs = append(t.keyCodecs, codec.NewLex(kc.Column.Spec()))
		t.keyBinCopy = append(t.keyBinCopy, m.primary.IsKeyColumn(kc.SourceName) && sameSpec(src.Spec(), kc.Column.Spec()))
		t.availability = append(t.availability, Always)
	}
	for _, vc := range info.ValueColumns {
		if _, ok := m.primary.ColumnByName(vc.SourceName); !ok {
			return 0, rowerr.New(rowerr.KindConversionException,
				"transform: target %q references unknown source column %q", info.Name, vc.SourceName)
		}
		t.valueCodecs = append(t.valueCodecs, codec.NewPlain(vc.Column.Spec()))
	}
	id := len(m.targets)
	m.targets = append(m.targets, t)
	return id, nil
}

func sameSpec(a, b codec.ColumnSpec) bool {
	return a.Type == b.Type && a.ElemType == b.ElemType && a.Nullable == b.Nullable &&
		a.Direction == b.Direction && a.NullPlacement == b.NullPlacement
}

// Transform is bound to one primary row and can Encode any of the
// maker's targets against it.
type Transform struct {
	m  *Maker
	ev *evaluate.RowEvaluator
}

// Begin binds a new primary row's encoded key and raw (version-
// prefixed) value for transformation into any declared target.
func (m *Maker) Begin(keyBuf, rawValue []byte) *Transform {
	ev := evaluate.New(m.primary, nil, nil, nil)
	ev.Bind(keyBuf, rawValue, nil)
	return &Transform{m: m, ev: ev}
}

// Encode produces the target's key and (for non-unique secondary
// indexes) covering value bytes. Alternate-key targets encode their
// primary key into the value instead (spec.md §3).
func (t *Transform) Encode(targetID int) (key, value []byte, err error) {
	tg := t.m.targets[targetID]

	key, err = t.encodeKey(tg)
	if err != nil {
		return nil, nil, err
	}

	if tg.info.Unique {
		value, err = t.ev.RawKeyBytes()
		if err != nil {
			return nil, nil, err
		}
		return key, value, nil
	}

	value, err = t.encodeValue(tg)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

func (t *Transform) encodeKey(tg *target) ([]byte, error) {
	total := 0
	raw := make([][]byte, len(tg.info.KeyColumns))

	for i, kc := range tg.info.KeyColumns {
		if tg.keyBinCopy[i] {
			start, end, _, err := t.ev.Range(kc.SourceName)
			if err != nil {
				return nil, err
			}
			buf := t.ev.RawBuf(true)
			raw[i] = buf[start:end]
			total += end - start
			continue
		}
		v, err := t.ev.Column(kc.SourceName)
		if err != nil {
			return nil, err
		}
		c := tg.keyCodecs[i]
		n, err := c.EncodeSize(v, c.MinSize())
		if err != nil {
			return nil, err
		}
		total += n
	}

	out := make([]byte, total)
	offset := 0
	for i, kc := range tg.info.KeyColumns {
		if tg.keyBinCopy[i] {
			offset += copy(out[offset:], raw[i])
			continue
		}
		v, err := t.ev.Column(kc.SourceName)
		if err != nil {
			return nil, err
		}
		next, err := tg.keyCodecs[i].Encode(v, out, offset)
		if err != nil {
			return nil, err
		}
		offset = next
	}
	return out, nil
}

func (t *Transform) encodeValue(tg *target) ([]byte, error) {
	total := 0
	for i, vc := range tg.info.ValueColumns {
		v, err := t.ev.Column(vc.SourceName)
		if err != nil {
			return nil, err
		}
		c := tg.valueCodecs[i]
		n, err := c.EncodeSize(v, c.MinSize())
		if err != nil {
			return nil, err
		}
		total += n
	}
	out := make([]byte, total)
	offset := 0
	for i, vc := range tg.info.ValueColumns {
		v, err := t.ev.Column(vc.SourceName)
		if err != nil {
			return nil, err
		}
		next, err := tg.valueCodecs[i].Encode(v, out, offset)
		if err != nil {
			return nil, err
		}
		offset = next
	}
	return out, nil
}
