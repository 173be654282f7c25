package codec

// ColumnSpec carries exactly the attributes a codec needs to bind to a
// concrete column: enough of spec.md §3's column descriptor to build an
// immutable, ready-to-use Codec. The row-info layer (internal/rowinfo)
// owns the richer descriptor and projects it down to this shape.
type ColumnSpec struct {
	Type          TypeCode
	Nullable      bool
	Direction     Direction
	NullPlacement NullPlacement
	// ElemType is meaningful only when Type == TypeArray: the element
	// type of the array-of-scalar column.
	ElemType TypeCode
}

// NewLex builds the order-preserving codec for spec.
func NewLex(spec ColumnSpec) Codec {
	switch spec.Type {
	case TypeBool:
		return &boolCodec{spec: spec, lex: true}
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return &intCodec{spec: spec, lex: true}
	case TypeFloat32, TypeFloat64:
		return &floatCodec{spec: spec, lex: true}
	case TypeBigInt:
		return &bigIntCodec{spec: spec, lex: true}
	case TypeBigDecimal:
		return &bigDecimalCodec{spec: spec}
	case TypeString, TypeChar:
		return &stringCodec{spec: spec, lex: true}
	case TypeBytes:
		return &byteArrayCodec{spec: spec, lex: true}
	case TypeArray:
		return &arrayCodec{spec: spec, lex: true}
	default:
		panic("codec: unknown type code")
	}
}

// NewPlain builds the length-prefixed, non-order-preserving codec for spec.
func NewPlain(spec ColumnSpec) Codec {
	switch spec.Type {
	case TypeBool:
		return &boolCodec{spec: spec, lex: false}
	case TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return &intCodec{spec: spec, lex: false}
	case TypeFloat32, TypeFloat64:
		return &floatCodec{spec: spec, lex: false}
	case TypeBigInt:
		return &bigIntCodec{spec: spec, lex: false}
	case TypeBigDecimal:
		return &bigDecimalCodec{spec: spec}
	case TypeString, TypeChar:
		return &stringCodec{spec: spec, lex: false}
	case TypeBytes:
		return &byteArrayCodec{spec: spec, lex: false}
	case TypeArray:
		return &arrayCodec{spec: spec, lex: false}
	default:
		panic("codec: unknown type code")
	}
}

// intWidth returns the byte width of a fixed-width integer type code.
func intWidth(t TypeCode) int {
	switch t {
	case TypeUint8, TypeInt8:
		return 1
	case TypeUint16, TypeInt16:
		return 2
	case TypeUint32, TypeInt32:
		return 4
	case TypeUint64, TypeInt64:
		return 8
	default:
		return 0
	}
}

func isSigned(t TypeCode) bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return true
	default:
		return false
	}
}
