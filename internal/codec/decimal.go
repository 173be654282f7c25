package codec

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// Decimal is an arbitrary-precision decimal value: Sign*Digits*10^Exp,
// where Digits is a string of decimal digits with no leading or
// trailing zero (canonical form), and Sign is -1, 0, or +1. Sign==0
// with Digits=="" is positive zero; Sign==-1 with Digits=="" is
// negative zero (spec.md §4.1 header table distinguishes the two).
type Decimal struct {
	Sign   int
	Digits string
	Exp    int
}

// ParseDecimal parses a decimal literal, including scientific notation
// ("1e308"), into canonical form.
func ParseDecimal(s string) (Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Decimal{}, malformed("decimal: empty literal")
	}
	sign := 1
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	mantissa, expPart, hasExp := strings.Cut(s, "e")
	if !hasExp {
		mantissa, expPart, hasExp = strings.Cut(s, "E")
	}
	expAdd := 0
	if hasExp {
		v, err := strconv.Atoi(expPart)
		if err != nil {
			return Decimal{}, malformed("decimal: bad exponent %q", expPart)
		}
		expAdd = v
	}

	intPart, fracPart, _ := strings.Cut(mantissa, ".")
	digits := intPart + fracPart
	exp := expAdd - len(fracPart)

	// Strip leading zeros (value-neutral).
	digits = strings.TrimLeft(digits, "0")

	// Strip trailing zeros, compensating the exponent.
	trimmed := strings.TrimRight(digits, "0")
	exp += len(digits) - len(trimmed)
	digits = trimmed

	if digits == "" {
		return Decimal{Sign: boolSign(sign < 0), Digits: "", Exp: 0}, nil
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return Decimal{}, malformed("decimal: non-digit rune %q", r)
		}
	}
	return Decimal{Sign: sign, Digits: digits, Exp: exp}, nil
}

func boolSign(negZero bool) int {
	if negZero {
		return -1
	}
	return 0
}

// adjustedExponent returns e such that value == sign * 0.Digits * 10^e.
func (d Decimal) adjustedExponent() int { return d.Exp + len(d.Digits) }

func (d Decimal) String() string {
	if d.Digits == "" {
		if d.Sign < 0 {
			return "-0"
		}
		return "0"
	}
	sign := ""
	if d.Sign < 0 {
		sign = "-"
	}
	return sign + d.Digits + "e" + strconv.Itoa(d.Exp)
}

const (
	decHeaderNullLow        = 0x00
	decHeaderNegLargePos    = 0x01
	decHeaderNegSmallLo     = 0x02
	decHeaderNegSmallHi     = 0x3F
	decHeaderNegSmallNegLo  = 0x40
	decHeaderNegSmallNegHi  = 0x7D
	decHeaderNegLargeNeg    = 0x7E
	decHeaderZeroNeg        = 0x7F
	decHeaderZeroPos        = 0x80
	decHeaderPosLargeNeg    = 0x81
	decHeaderPosSmallNegLo  = 0x82
	decHeaderPosSmallNegHi  = 0xBF
	decHeaderPosSmallPosLo  = 0xC0
	decHeaderPosSmallPosHi  = 0xFD
	decHeaderPosLargePos    = 0xFE
	decHeaderNullHigh       = 0xFF
	decInlineMin            = -62
	decInlineMax            = 61
	decTermResidueBase      = 0   // positive/unflipped terminator band starts at 0
	decRealChunkOffset      = 12  // real chunk values start at 12 (positive form)
	decChunkModulus         = 1000
	decFlipMax              = 1023
)

func encodeOrderInt32(v int32) uint32 { return uint32(v) ^ 0x80000000 }
func decodeOrderInt32(u uint32) int32 { return int32(u ^ 0x80000000) }

type bigDecimalCodec struct {
	spec ColumnSpec
}

func (c *bigDecimalCodec) MinSize() int { return 1 }

func (c *bigDecimalCodec) EncodeSize(value any, acc int) (int, error) {
	if value == nil {
		return acc, nil
	}
	d, err := toDecimal(value)
	if err != nil {
		return 0, err
	}
	chunks, _ := decimalChunks(d)
	extra := 0
	if d.Digits != "" {
		e := d.adjustedExponent()
		if e < decInlineMin || e > decInlineMax {
			extra += 4
		}
		extra += 2 // terminator word
	} else {
		extra += 4
	}
	extra += len(chunks) * 2 // chunk words
	return acc + extra, nil
}

func toDecimal(value any) (Decimal, error) {
	switch v := value.(type) {
	case Decimal:
		return v, nil
	case string:
		return ParseDecimal(v)
	case float64:
		return ParseDecimal(strconv.FormatFloat(v, 'g', -1, 64))
	default:
		return Decimal{}, malformed("decimal codec: unsupported value type %T", value)
	}
}

// decimalChunks groups d.Digits into base-1000 chunks (positive,
// unflipped form) and returns them along with the residual pad count
// (0, 1, or 2) used as the terminator code.
func decimalChunks(d Decimal) ([]int, int) {
	if d.Digits == "" {
		return nil, 0
	}
	pad := (3 - len(d.Digits)%3) % 3
	padded := d.Digits + strings.Repeat("0", pad)
	chunks := make([]int, 0, len(padded)/3)
	for i := 0; i < len(padded); i += 3 {
		n, _ := strconv.Atoi(padded[i : i+3])
		chunks = append(chunks, n)
	}
	return chunks, pad
}

func (c *bigDecimalCodec) Encode(value any, buf []byte, offset int) (int, error) {
	if value == nil {
		if !c.spec.Nullable {
			return 0, malformed("decimal codec: unexpected nil for non-nullable column")
		}
		var h byte
		if c.spec.NullPlacement == NullsHigh {
			h = decHeaderNullHigh
		} else {
			h = decHeaderNullLow
		}
		buf[offset] = applyByteDirection(h, c.spec.Direction)
		return offset + 1, nil
	}

	d, err := toDecimal(value)
	if err != nil {
		return 0, err
	}
	start := offset

	switch {
	case d.Digits == "":
		if d.Sign < 0 {
			buf[offset] = decHeaderZeroNeg
		} else {
			buf[offset] = decHeaderZeroPos
		}
		offset++
		binary.BigEndian.PutUint32(buf[offset:offset+4], encodeOrderInt32(int32(d.Exp)))
		offset += 4

	case d.Sign > 0:
		e := d.adjustedExponent()
		if e >= decInlineMin && e <= decInlineMax {
			buf[offset] = byte(decHeaderPosSmallPosLo + e)
			offset++
		} else {
			if e > decInlineMax {
				buf[offset] = decHeaderPosLargePos
			} else {
				buf[offset] = decHeaderPosLargeNeg
			}
			offset++
			binary.BigEndian.PutUint32(buf[offset:offset+4], encodeOrderInt32(int32(e)))
			offset += 4
		}
		offset = writeChunks(buf, offset, d, false)

	default: // negative
		e := d.adjustedExponent()
		if e >= decInlineMin && e <= decInlineMax {
			buf[offset] = byte(0x3F - e)
			offset++
		} else {
			if e > decInlineMax {
				buf[offset] = decHeaderNegLargePos
			} else {
				buf[offset] = decHeaderNegLargeNeg
			}
			offset++
			raw := encodeOrderInt32(int32(e))
			var tmp [4]byte
			binary.BigEndian.PutUint32(tmp[:], raw)
			for i := range tmp {
				tmp[i] = ^tmp[i]
			}
			copy(buf[offset:offset+4], tmp[:])
			offset += 4
		}
		offset = writeChunks(buf, offset, d, true)
	}

	applyDirection(buf[start:offset], c.spec.Direction)
	return offset, nil
}

func writeChunks(buf []byte, offset int, d Decimal, flip bool) int {
	chunks, pad := decimalChunks(d)
	for _, ch := range chunks {
		v := ch + decRealChunkOffset
		if flip {
			v = decFlipMax - v
		}
		binary.BigEndian.PutUint16(buf[offset:offset+2], uint16(v))
		offset += 2
	}
	term := pad
	if flip {
		term = decFlipMax - term
	}
	binary.BigEndian.PutUint16(buf[offset:offset+2], uint16(term))
	offset += 2
	return offset
}

func (c *bigDecimalCodec) Decode(buf []byte, offset int) (any, int, error) {
	start := offset
	raw := buf[offset]
	if c.spec.Direction == Descending {
		raw ^= 0xFF
	}
	offset++

	switch {
	case raw == decHeaderNullLow || raw == decHeaderNullHigh:
		return nil, offset, nil
	case raw == decHeaderZeroNeg || raw == decHeaderZeroPos:
		var tmp [4]byte
		copy(tmp[:], buf[offset:offset+4])
		if c.spec.Direction == Descending {
			for i := range tmp {
				tmp[i] ^= 0xFF
			}
		}
		exp := decodeOrderInt32(binary.BigEndian.Uint32(tmp[:]))
		offset += 4
		sign := 0
		if raw == decHeaderZeroNeg {
			sign = -1
		}
		_ = start
		return Decimal{Sign: sign, Digits: "", Exp: int(exp)}, offset, nil

	case raw >= decHeaderPosSmallNegLo && raw <= decHeaderPosSmallPosHi:
		e := int(raw) - decHeaderPosSmallPosLo
		digits, newOffset := readChunks(buf, offset, c.spec.Direction == Descending, false)
		return digitsToDecimal(1, digits, e), newOffset, nil

	case raw == decHeaderPosLargePos || raw == decHeaderPosLargeNeg:
		var tmp [4]byte
		copy(tmp[:], buf[offset:offset+4])
		if c.spec.Direction == Descending {
			for i := range tmp {
				tmp[i] ^= 0xFF
			}
		}
		e := int(decodeOrderInt32(binary.BigEndian.Uint32(tmp[:])))
		offset += 4
		digits, newOffset := readChunks(buf, offset, c.spec.Direction == Descending, false)
		return digitsToDecimal(1, digits, e), newOffset, nil

	case raw >= decHeaderNegSmallLo && raw <= decHeaderNegSmallNegHi:
		e := 0x3F - int(raw)
		digits, newOffset := readChunks(buf, offset, c.spec.Direction == Descending, true)
		return digitsToDecimal(-1, digits, e), newOffset, nil

	case raw == decHeaderNegLargePos || raw == decHeaderNegLargeNeg:
		var tmp [4]byte
		copy(tmp[:], buf[offset:offset+4])
		if c.spec.Direction == Descending {
			for i := range tmp {
				tmp[i] ^= 0xFF
			}
		}
		for i := range tmp {
			tmp[i] = ^tmp[i]
		}
		e := int(decodeOrderInt32(binary.BigEndian.Uint32(tmp[:])))
		offset += 4
		digits, newOffset := readChunks(buf, offset, c.spec.Direction == Descending, true)
		return digitsToDecimal(-1, digits, e), newOffset, nil

	default:
		return nil, 0, malformed("decimal codec: bad header byte %#x", raw)
	}
}

// readChunks reads 2-byte chunk words until it finds a terminator
// (a value below the real-chunk band, or above it if flip), returning
// the reconstructed digit string.
func readChunks(buf []byte, offset int, descending bool, flip bool) (string, int) {
	var sb strings.Builder
	for {
		v := binary.BigEndian.Uint16(buf[offset : offset+2])
		if descending {
			v = ^v & 0xFFFF
		}
		offset += 2
		val := int(v)
		if flip {
			val = decFlipMax - val
		}
		if val < decRealChunkOffset {
			pad := val
			s := sb.String()
			if pad > 0 {
				s = s[:len(s)-pad]
			}
			return s, offset
		}
		chunk := val - decRealChunkOffset
		sb.WriteString(pad3(chunk))
	}
}

func pad3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

func digitsToDecimal(sign int, digits string, e int) Decimal {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return Decimal{Sign: 0, Digits: "", Exp: 0}
	}
	trimmed := strings.TrimRight(digits, "0")
	trimCount := len(digits) - len(trimmed)
	exp := e - len(digits) + trimCount
	return Decimal{Sign: sign, Digits: trimmed, Exp: exp}
}

func (c *bigDecimalCodec) DecodeSkip(buf []byte, offset int) (int, error) {
	_, next, err := c.Decode(buf, offset)
	return next, err
}

func (c *bigDecimalCodec) FilterQuickCompare(buf []byte, offset int, op CompareOp, arg any) (QuickResult, error) {
	val, _, err := c.Decode(buf, offset)
	if err != nil {
		return QuickFail, err
	}
	if val == nil || arg == nil {
		return QuickDecode, nil
	}
	lhs := val.(Decimal)
	rhs, err := toDecimal(arg)
	if err != nil {
		return QuickDecode, nil
	}
	cmp := compareDecimal(lhs, rhs)
	var result bool
	switch op {
	case OpEQ:
		result = cmp == 0
	case OpNE:
		result = cmp != 0
	case OpLT:
		result = cmp < 0
	case OpLE:
		result = cmp <= 0
	case OpGT:
		result = cmp > 0
	case OpGE:
		result = cmp >= 0
	default:
		return QuickDecode, nil
	}
	return quickFromBool(result), nil
}

// compareDecimal provides a reference (non-codec) comparison used by
// FilterQuickCompare's arg-side comparison.
func compareDecimal(a, b Decimal) int {
	as, bs := decSignOf(a), decSignOf(b)
	if as != bs {
		if as < bs {
			return -1
		}
		return 1
	}
	if as == 0 {
		return 0
	}
	ae, be := a.adjustedExponent(), b.adjustedExponent()
	if ae != be {
		if (ae < be) == (as > 0) {
			return -1
		}
		return 1
	}
	cmp := strings.Compare(a.Digits, b.Digits)
	if as < 0 {
		cmp = -cmp
	}
	return cmp
}

func decSignOf(d Decimal) int {
	if d.Digits == "" {
		return 0
	}
	return d.Sign
}
