package main

import (
	"strconv"

	"rowstore/internal/codec"
	"rowstore/internal/rowinfo"
)

// sampleValue fabricates a deterministic, type-appropriate value for a
// column so the demo commands have rows to work with without a real
// data source.
func sampleValue(c rowinfo.ColumnDescriptor, i int) any {
	switch c.Type {
	case codec.TypeBool:
		return i%2 == 0
	case codec.TypeUint8, codec.TypeUint16, codec.TypeUint32, codec.TypeUint64:
		return uint64(i)
	case codec.TypeInt8, codec.TypeInt16, codec.TypeInt32, codec.TypeInt64:
		return int64(i)
	case codec.TypeFloat32, codec.TypeFloat64:
		return float64(i)
	case codec.TypeBigInt:
		return int64(i)
	case codec.TypeBigDecimal:
		return float64(i)
	case codec.TypeString, codec.TypeChar:
		return "row-" + strconv.Itoa(i)
	case codec.TypeBytes:
		return []byte("row-" + strconv.Itoa(i))
	default:
		return nil
	}
}
