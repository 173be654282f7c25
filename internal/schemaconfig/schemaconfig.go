// Package schemaconfig loads a declared row type (its columns, the
// key/value split, alternate keys, secondary indexes, and an optional
// auto-key range) from a TOML document, grounded on the teacher's
// internal/parser/toml package: a decoded top-level struct walked by a
// converter into the domain model, here rowinfo.RowInfo.
package schemaconfig

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"rowstore/internal/codec"
	"rowstore/internal/rowinfo"
)

// tomlDocument is the top-level TOML document shape.
type tomlDocument struct {
	RowType    string           `toml:"row_type"`
	Version    int              `toml:"version"`
	Columns    []tomlColumn     `toml:"columns"`
	AltKeys    []tomlColumnSet  `toml:"alternate_keys"`
	Secondary  []tomlSecondary  `toml:"secondary_indexes"`
	AutoKey    *tomlAutoKey     `toml:"auto_key"`
}

type tomlColumn struct {
	Name          string `toml:"name"`
	Type          string `toml:"type"`
	ElemType      string `toml:"elem_type"`
	Nullable      bool   `toml:"nullable"`
	Key           bool   `toml:"key"`
	Direction     string `toml:"direction"`      // "asc" (default) or "desc"
	NullPlacement string `toml:"null_placement"` // "low" (default) or "high"
}

type tomlColumnSet struct {
	Name    string   `toml:"name"`
	Columns []string `toml:"columns"`
}

type tomlSecondary struct {
	Name     string   `toml:"name"`
	Columns  []string `toml:"columns"`
	Covering []string `toml:"covering"`
}

type tomlAutoKey struct {
	Column string `toml:"column"`
	Min    int64  `toml:"min"`
	Max    int64  `toml:"max"`
}

// AutoKeyRange is the declared [min, max] range of an auto-generated
// trailing key column, absent when the schema declares none.
type AutoKeyRange struct {
	Column   string
	Min, Max int64
}

// Schema is a loaded row type plus any auto-key declaration, which
// rowinfo.RowInfo itself has no room for.
type Schema struct {
	RowInfo *rowinfo.RowInfo
	AutoKey *AutoKeyRange
}

// Loader reads TOML row-type declarations.
type Loader struct{}

// NewLoader constructs a Loader.
func NewLoader() *Loader { return &Loader{} }

// LoadFile opens path and parses it as a row-type declaration.
func (l *Loader) LoadFile(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schemaconfig: open %q: %w", path, err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load parses r as a row-type declaration.
func (l *Loader) Load(r io.Reader) (*Schema, error) {
	var doc tomlDocument
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("schemaconfig: decode error: %w", err)
	}
	return newConverter(&doc).convert()
}

type converter struct {
	doc     *tomlDocument
	byName  map[string]rowinfo.ColumnDescriptor
}

func newConverter(doc *tomlDocument) *converter {
	return &converter{doc: doc, byName: make(map[string]rowinfo.ColumnDescriptor, len(doc.Columns))}
}

func (c *converter) convert() (*Schema, error) {
	if c.doc.RowType == "" {
		return nil, fmt.Errorf("schemaconfig: row_type is required")
	}
	if len(c.doc.Columns) == 0 {
		return nil, fmt.Errorf("schemaconfig: row type %q declares no columns", c.doc.RowType)
	}

	b := rowinfo.NewBuilder(c.doc.RowType, c.doc.Version)
	for _, tc := range c.doc.Columns {
		cd, err := c.convertColumn(tc)
		if err != nil {
			return nil, fmt.Errorf("schemaconfig: column %q: %w", tc.Name, err)
		}
		c.byName[cd.Name] = cd
		if tc.Key {
			b.AddKeyColumn(cd)
		} else {
			b.AddValueColumn(cd)
		}
	}

	for _, ak := range c.doc.AltKeys {
		cols, err := c.resolveColumns(ak.Columns)
		if err != nil {
			return nil, fmt.Errorf("schemaconfig: alternate key %q: %w", ak.Name, err)
		}
		b.AddAlternateKey(ak.Name, cols...)
	}

	for _, sec := range c.doc.Secondary {
		cols, err := c.resolveColumns(sec.Columns)
		if err != nil {
			return nil, fmt.Errorf("schemaconfig: secondary index %q: %w", sec.Name, err)
		}
		covering, err := c.resolveColumns(sec.Covering)
		if err != nil {
			return nil, fmt.Errorf("schemaconfig: secondary index %q covering: %w", sec.Name, err)
		}
		b.AddSecondaryIndex(sec.Name, covering, cols...)
	}

	ri := b.Build()

	var autoKey *AutoKeyRange
	if ak := c.doc.AutoKey; ak != nil {
		if _, ok := c.byName[ak.Column]; !ok {
			return nil, fmt.Errorf("schemaconfig: auto_key column %q is not declared", ak.Column)
		}
		autoKey = &AutoKeyRange{Column: ak.Column, Min: ak.Min, Max: ak.Max}
	}

	return &Schema{RowInfo: ri, AutoKey: autoKey}, nil
}

func (c *converter) resolveColumns(names []string) ([]rowinfo.ColumnDescriptor, error) {
	out := make([]rowinfo.ColumnDescriptor, 0, len(names))
	for _, n := range names {
		cd, ok := c.byName[n]
		if !ok {
			return nil, fmt.Errorf("undeclared column %q", n)
		}
		out = append(out, cd)
	}
	return out, nil
}

func (c *converter) convertColumn(tc tomlColumn) (rowinfo.ColumnDescriptor, error) {
	typ, err := typeFromString(tc.Type)
	if err != nil {
		return rowinfo.ColumnDescriptor{}, err
	}
	var elem codec.TypeCode
	if typ == codec.TypeArray {
		elem, err = typeFromString(tc.ElemType)
		if err != nil {
			return rowinfo.ColumnDescriptor{}, fmt.Errorf("elem_type: %w", err)
		}
	}
	dir, err := directionFromString(tc.Direction)
	if err != nil {
		return rowinfo.ColumnDescriptor{}, err
	}
	placement, err := nullPlacementFromString(tc.NullPlacement)
	if err != nil {
		return rowinfo.ColumnDescriptor{}, err
	}
	return rowinfo.ColumnDescriptor{
		Name:          tc.Name,
		Type:          typ,
		ElemType:      elem,
		Nullable:      tc.Nullable,
		Direction:     dir,
		NullPlacement: placement,
	}, nil
}

func typeFromString(s string) (codec.TypeCode, error) {
	switch s {
	case "bool":
		return codec.TypeBool, nil
	case "uint8":
		return codec.TypeUint8, nil
	case "uint16":
		return codec.TypeUint16, nil
	case "uint32":
		return codec.TypeUint32, nil
	case "uint64":
		return codec.TypeUint64, nil
	case "int8":
		return codec.TypeInt8, nil
	case "int16":
		return codec.TypeInt16, nil
	case "int32":
		return codec.TypeInt32, nil
	case "int64":
		return codec.TypeInt64, nil
	case "float32":
		return codec.TypeFloat32, nil
	case "float64":
		return codec.TypeFloat64, nil
	case "bigint":
		return codec.TypeBigInt, nil
	case "decimal":
		return codec.TypeBigDecimal, nil
	case "string":
		return codec.TypeString, nil
	case "char":
		return codec.TypeChar, nil
	case "bytes":
		return codec.TypeBytes, nil
	case "array":
		return codec.TypeArray, nil
	default:
		return 0, fmt.Errorf("unrecognized column type %q", s)
	}
}

func directionFromString(s string) (codec.Direction, error) {
	switch s {
	case "", "asc":
		return codec.Ascending, nil
	case "desc":
		return codec.Descending, nil
	default:
		return 0, fmt.Errorf("unrecognized direction %q", s)
	}
}

func nullPlacementFromString(s string) (codec.NullPlacement, error) {
	switch s {
	case "", "low":
		return codec.NullsLow, nil
	case "high":
		return codec.NullsHigh, nil
	default:
		return 0, fmt.Errorf("unrecognized null_placement %q", s)
	}
}
