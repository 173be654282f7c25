// Package rowinfo describes a declared row type: its key and value
// columns, alternate keys, secondary indexes, and schema versions
// (spec.md §3, §4.2). A RowInfo is immutable once built; schema
// evolution produces a new RowInfo rather than mutating an existing
// one.
package rowinfo

import (
	"crypto/sha256"
	"sort"

	"github.com/google/uuid"

	"rowstore/internal/codec"
)

// ColumnDescriptor is one column of a row type.
type ColumnDescriptor struct {
	Name          string
	Type          codec.TypeCode
	ElemType      codec.TypeCode
	Nullable      bool
	Direction     codec.Direction
	NullPlacement codec.NullPlacement
	Ordinal       int
}

// Spec projects a ColumnDescriptor down to the minimal shape a codec
// needs to bind to it.
func (c ColumnDescriptor) Spec() codec.ColumnSpec {
	return codec.ColumnSpec{
		Type:          c.Type,
		Nullable:      c.Nullable,
		Direction:     c.Direction,
		NullPlacement: c.NullPlacement,
		ElemType:      c.ElemType,
	}
}

// ColumnSet names a group of columns, in the order they participate
// in a key or covering value.
type ColumnSet struct {
	Name    string
	Columns []ColumnDescriptor
}

// fingerprintNamespace anchors the UUIDv5 derivation so that two
// distinct deployments hashing the same column set always agree.
var fingerprintNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Fingerprint returns a UUID derived from the column set's canonical
// serialized descriptor, used as its on-disk identity (spec.md §3).
func (cs ColumnSet) Fingerprint() uuid.UUID {
	h := sha256.New()
	for _, c := range cs.Columns {
		h.Write([]byte(c.Name))
		h.Write([]byte{byte(c.Type), byte(c.ElemType), byte(c.Direction), byte(c.NullPlacement)})
		if c.Nullable {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
	return uuid.NewSHA1(fingerprintNamespace, h.Sum(nil))
}

// AlternateKey is a unique secondary column set; its value holds the
// encoded primary key (spec.md §3's "Alternate-key secondary").
type AlternateKey struct {
	ColumnSet
}

// SecondaryIndex is a non-unique secondary column set made unique by
// appending the primary key; its value is any covering columns.
type SecondaryIndex struct {
	ColumnSet
	Covering []ColumnDescriptor
}

// RowInfo is the immutable descriptor of a declared row type.
type RowInfo struct {
	RowType         string
	Version         int
	KeyColumns      []ColumnDescriptor
	ValueColumns    []ColumnDescriptor
	AlternateKeys   []AlternateKey
	SecondaryIndexes []SecondaryIndex
}

// Builder accumulates column declarations before producing an
// immutable RowInfo.
type Builder struct {
	rowType      string
	version      int
	keyColumns   []ColumnDescriptor
	valueColumns []ColumnDescriptor
	altKeys      []AlternateKey
	secondaries  []SecondaryIndex
}

// NewBuilder starts describing a row type at the given schema version.
func NewBuilder(rowType string, version int) *Builder {
	return &Builder{rowType: rowType, version: version}
}

func (b *Builder) AddKeyColumn(c ColumnDescriptor) *Builder {
	c.Ordinal = len(b.keyColumns)
	b.keyColumns = append(b.keyColumns, c)
	return b
}

func (b *Builder) AddValueColumn(c ColumnDescriptor) *Builder {
	c.Ordinal = len(b.valueColumns)
	b.valueColumns = append(b.valueColumns, c)
	return b
}

func (b *Builder) AddAlternateKey(name string, columns ...ColumnDescriptor) *Builder {
	b.altKeys = append(b.altKeys, AlternateKey{ColumnSet{Name: name, Columns: columns}})
	return b
}

func (b *Builder) AddSecondaryIndex(name string, covering []ColumnDescriptor, columns ...ColumnDescriptor) *Builder {
	b.secondaries = append(b.secondaries, SecondaryIndex{
		ColumnSet: ColumnSet{Name: name, Columns: columns},
		Covering:  covering,
	})
	return b
}

// Build finalizes the RowInfo. Value columns are sorted lexicographic
// by name (spec.md §3's "lexicographic by name" rule); key columns
// keep declaration order.
func (b *Builder) Build() *RowInfo {
	valueColumns := append([]ColumnDescriptor(nil), b.valueColumns...)
	sort.Slice(valueColumns, func(i, j int) bool { return valueColumns[i].Name < valueColumns[j].Name })
	for i := range valueColumns {
		valueColumns[i].Ordinal = i
	}
	return &RowInfo{
		RowType:          b.rowType,
		Version:          b.version,
		KeyColumns:       append([]ColumnDescriptor(nil), b.keyColumns...),
		ValueColumns:     valueColumns,
		AlternateKeys:    append([]AlternateKey(nil), b.altKeys...),
		SecondaryIndexes: append([]SecondaryIndex(nil), b.secondaries...),
	}
}

// AlternateKeyValueOrder returns the alt key's value-column codec
// order: fixed-size primitives first, then the primary key's columns
// (reusing the primary's codecs so a join can be a memcpy), then any
// remaining columns lexicographically (spec.md §4.2).
func AlternateKeyValueOrder(primary *RowInfo, covering []ColumnDescriptor) []ColumnDescriptor {
	isPrimitive := func(c ColumnDescriptor) bool {
		switch c.Type {
		case codec.TypeBool, codec.TypeUint8, codec.TypeUint16, codec.TypeUint32, codec.TypeUint64,
			codec.TypeInt8, codec.TypeInt16, codec.TypeInt32, codec.TypeInt64,
			codec.TypeFloat32, codec.TypeFloat64:
			return true
		default:
			return false
		}
	}
	inPK := func(name string) bool {
		for _, pk := range primary.KeyColumns {
			if pk.Name == name {
				return true
			}
		}
		return false
	}

	var primitives, pkCols, rest []ColumnDescriptor
	seen := map[string]bool{}
	for _, c := range covering {
		if isPrimitive(c) {
			primitives = append(primitives, c)
			seen[c.Name] = true
		}
	}
	for _, pk := range primary.KeyColumns {
		for _, c := range covering {
			if c.Name == pk.Name && !seen[c.Name] {
				pkCols = append(pkCols, c)
				seen[c.Name] = true
			}
		}
	}
	for _, c := range covering {
		if !seen[c.Name] && !inPK(c.Name) {
			rest = append(rest, c)
			seen[c.Name] = true
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Name < rest[j].Name })

	out := make([]ColumnDescriptor, 0, len(covering))
	out = append(out, primitives...)
	out = append(out, pkCols...)
	out = append(out, rest...)
	return out
}

// ColumnByName finds a column among key and value columns.
func (ri *RowInfo) ColumnByName(name string) (ColumnDescriptor, bool) {
	for _, c := range ri.KeyColumns {
		if c.Name == name {
			return c, true
		}
	}
	for _, c := range ri.ValueColumns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// IsKeyColumn reports whether name names a key column.
func (ri *RowInfo) IsKeyColumn(name string) bool {
	for _, c := range ri.KeyColumns {
		if c.Name == name {
			return true
		}
	}
	return false
}
