// Package wire implements the remote-scan row serialization protocol
// of spec.md §6: a prefix byte per record distinguishing a new header,
// a reused header, a header referenced by id, a terminal exception, or
// the scan terminator, followed by length-prefixed key and row bytes.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"rowstore/internal/codec"
	"rowstore/internal/rowerr"
	"rowstore/internal/rowinfo"
)

func typeCodeFromByte(b byte) codec.TypeCode      { return codec.TypeCode(b) }
func directionFromByte(b byte) codec.Direction    { return codec.Direction(b) }
func nullPlacementFromByte(b byte) codec.NullPlacement { return codec.NullPlacement(b) }

const (
	prefixTerminator   = 0
	prefixReuseHeader  = 1
	prefixNewHeader    = 2
	prefixException    = 3
	prefixRefByIDStart = 5
	prefixRefByIDEnd   = 254
	prefixRefByID4     = 255
)

const maxInlineRefID = prefixRefByIDEnd - prefixRefByIDStart // 249, ids 0..249

// Header describes one record shape: the column set a following
// "new header" record declares, cached by the writer/reader so later
// records of the same shape need only a one-byte reference.
type Header struct {
	ID      int
	Columns rowinfo.ColumnSet
}

// Writer serializes a sequence of rows, tracking which headers it has
// already sent so repeats collapse to a single byte.
type Writer struct {
	w        io.Writer
	sent     map[string]int // column-set fingerprint -> assigned id
	nextID   int
	lastSent int
	hasSent  bool
}

// NewWriter starts a writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, sent: make(map[string]int)}
}

func writeUvarintLen(w io.Writer, n int, oneByteMax, fourByteFlag uint32) error {
	if n <= int(oneByteMax) {
		_, err := w.Write([]byte{byte(n)})
		return err
	}
	v := uint32(n) | fourByteFlag
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// writeKeyLength encodes a 1-byte length for keys under 128 bytes,
// else a 4-byte length with the high bit set (spec.md §6).
func writeKeyLength(w io.Writer, n int) error {
	return writeUvarintLen(w, n, 127, 0x80000000)
}

// writeRowLength encodes a 2-byte length for rows up to 32767 bytes,
// else a 4-byte length with the high bit set (spec.md §6).
func writeRowLength(w io.Writer, n int) error {
	if n <= 32767 {
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(n))
		_, err := w.Write(buf[:])
		return err
	}
	v := uint32(n) | 0x80000000
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func fingerprintKey(cs rowinfo.ColumnSet) string {
	return cs.Fingerprint().String()
}

// WriteRow serializes one row under the given header's column set,
// choosing the cheapest of reuse/new-header/reference-by-id encodings
// for the prefix byte.
func (w *Writer) WriteRow(h Header, key, value []byte) error {
	fp := fingerprintKey(h.Columns)
	id, known := w.sent[fp]

	switch {
	case known && w.hasSent && id == w.lastSent:
		if _, err := w.w.Write([]byte{prefixReuseHeader}); err != nil {
			return err
		}
	case known:
		if err := w.writeHeaderRef(id); err != nil {
			return err
		}
	default:
		id = w.nextID
		w.nextID++
		w.sent[fp] = id
		if _, err := w.w.Write([]byte{prefixNewHeader}); err != nil {
			return err
		}
		if err := w.writeHeaderBody(h.Columns); err != nil {
			return err
		}
	}
	w.lastSent = id
	w.hasSent = true

	return w.writeBody(key, value)
}

func (w *Writer) writeHeaderRef(id int) error {
	if id <= maxInlineRefID {
		_, err := w.w.Write([]byte{byte(prefixRefByIDStart + id)})
		return err
	}
	if _, err := w.w.Write([]byte{prefixRefByID4}); err != nil {
		return err
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(id))
	_, err := w.w.Write(buf[:])
	return err
}

func (w *Writer) writeHeaderBody(cs rowinfo.ColumnSet) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(len(cs.Columns)))
	if _, err := w.w.Write(buf[:]); err != nil {
		return err
	}
	for _, c := range cs.Columns {
		name := []byte(c.Name)
		if err := writeKeyLength(w.w, len(name)); err != nil {
			return err
		}
		if _, err := w.w.Write(name); err != nil {
			return err
		}
		meta := []byte{byte(c.Type), byte(c.ElemType), byte(c.Direction), byte(c.NullPlacement), boolByte(c.Nullable)}
		if _, err := w.w.Write(meta); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeBody(key, value []byte) error {
	if err := writeRowLength(w.w, len(key)+len(value)); err != nil {
		return err
	}
	if err := writeKeyLength(w.w, len(key)); err != nil {
		return err
	}
	if _, err := w.w.Write(key); err != nil {
		return err
	}
	_, err := w.w.Write(value)
	return err
}

// WriteException writes the terminal-exception record (byte 3
// followed by a length-prefixed message) and ends the scan.
func (w *Writer) WriteException(cause error) error {
	if _, err := w.w.Write([]byte{prefixException}); err != nil {
		return err
	}
	msg := []byte(cause.Error())
	if err := writeRowLength(w.w, len(msg)); err != nil {
		return err
	}
	_, err := w.w.Write(msg)
	return err
}

// WriteTerminator ends the scan with no error.
func (w *Writer) WriteTerminator() error {
	_, err := w.w.Write([]byte{prefixTerminator})
	return err
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Record is one decoded wire record: either a row (Key/Value set), an
// exception (Err set), or the terminator (Done true).
type Record struct {
	Header Header
	Key    []byte
	Value  []byte
	Err    error
	Done   bool
}

// Reader deserializes the stream a Writer produces.
type Reader struct {
	r       io.Reader
	headers map[int]Header
	last    Header
	hasLast bool
}

// NewReader starts a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, headers: make(map[int]Header)}
}

func readFull(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(r, buf)
	return buf, err
}

func readKeyLength(r io.Reader) (int, error) {
	b, err := readFull(r, 1)
	if err != nil {
		return 0, err
	}
	if b[0]&0x80 == 0 {
		return int(b[0]), nil
	}
	rest, err := readFull(r, 3)
	if err != nil {
		return 0, err
	}
	v := uint32(b[0])<<24 | uint32(rest[0])<<16 | uint32(rest[1])<<8 | uint32(rest[2])
	return int(v &^ 0x80000000), nil
}

func readRowLength(r io.Reader) (int, error) {
	b, err := readFull(r, 2)
	if err != nil {
		return 0, err
	}
	if b[0]&0x80 == 0 {
		return int(binary.BigEndian.Uint16(b)), nil
	}
	rest, err := readFull(r, 2)
	if err != nil {
		return 0, err
	}
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(rest[0])<<8 | uint32(rest[1])
	return int(v &^ 0x80000000), nil
}

func (r *Reader) readHeaderBody() (rowinfo.ColumnSet, error) {
	lb, err := readFull(r.r, 2)
	if err != nil {
		return rowinfo.ColumnSet{}, err
	}
	n := int(binary.BigEndian.Uint16(lb))
	cols := make([]rowinfo.ColumnDescriptor, n)
	for i := 0; i < n; i++ {
		nameLen, err := readKeyLength(r.r)
		if err != nil {
			return rowinfo.ColumnSet{}, err
		}
		nameBytes, err := readFull(r.r, nameLen)
		if err != nil {
			return rowinfo.ColumnSet{}, err
		}
		meta, err := readFull(r.r, 5)
		if err != nil {
			return rowinfo.ColumnSet{}, err
		}
		cols[i] = rowinfo.ColumnDescriptor{
			Name:          string(nameBytes),
			Type:          typeCodeFromByte(meta[0]),
			ElemType:      typeCodeFromByte(meta[1]),
			Direction:     directionFromByte(meta[2]),
			NullPlacement: nullPlacementFromByte(meta[3]),
			Nullable:      meta[4] != 0,
			Ordinal:       i,
		}
	}
	return rowinfo.ColumnSet{Columns: cols}, nil
}

// ReadRecord reads the next record from the stream.
func (r *Reader) ReadRecord() (Record, error) {
	pb, err := readFull(r.r, 1)
	if err != nil {
		return Record{}, err
	}
	switch pb[0] {
	case prefixTerminator:
		return Record{Done: true}, nil
	case prefixException:
		n, err := readRowLength(r.r)
		if err != nil {
			return Record{}, err
		}
		msg, err := readFull(r.r, n)
		if err != nil {
			return Record{}, err
		}
		return Record{Err: rowerr.New(rowerr.KindConversionException, "%s", string(msg))}, nil
	case prefixReuseHeader:
		if !r.hasLast {
			return Record{}, fmt.Errorf("wire: reuse-header record with no prior header")
		}
		return r.readBody(r.last)
	case prefixNewHeader:
		cs, err := r.readHeaderBody()
		if err != nil {
			return Record{}, err
		}
		id := len(r.headers)
		h := Header{ID: id, Columns: cs}
		r.headers[id] = h
		r.last, r.hasLast = h, true
		return r.readBody(h)
	case prefixRefByID4:
		idb, err := readFull(r.r, 4)
		if err != nil {
			return Record{}, err
		}
		id := int(binary.BigEndian.Uint32(idb))
		h, ok := r.headers[id]
		if !ok {
			return Record{}, fmt.Errorf("wire: unknown header id %d", id)
		}
		r.last, r.hasLast = h, true
		return r.readBody(h)
	default:
		id := int(pb[0]) - prefixRefByIDStart
		h, ok := r.headers[id]
		if !ok {
			return Record{}, fmt.Errorf("wire: unknown header id %d", id)
		}
		r.last, r.hasLast = h, true
		return r.readBody(h)
	}
}

func (r *Reader) readBody(h Header) (Record, error) {
	total, err := readRowLength(r.r)
	if err != nil {
		return Record{}, err
	}
	keyLen, err := readKeyLength(r.r)
	if err != nil {
		return Record{}, err
	}
	key, err := readFull(r.r, keyLen)
	if err != nil {
		return Record{}, err
	}
	value, err := readFull(r.r, total-keyLen)
	if err != nil {
		return Record{}, err
	}
	return Record{Header: h, Key: key, Value: value}, nil
}
