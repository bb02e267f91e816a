package encoding

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrTruncated is reported when a record ends before all fields are read.
var ErrTruncated = errors.New("record truncated")

// Writer appends untagged fields to a binary record. Field order is the
// record layout; there are no field numbers, so readers must consume
// fields in exactly the order they were written.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with a small preallocated buffer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 128)}
}

func (w *Writer) WriteUvarint(v uint64) {
	w.buf = protowire.AppendVarint(w.buf, v)
}

// WriteInt writes a signed value with zig-zag encoding so that the
// negative sentinels used by the layout (-1 = absent) stay one byte.
func (w *Writer) WriteInt(v int) {
	w.buf = protowire.AppendVarint(w.buf, protowire.EncodeZigZag(int64(v)))
}

func (w *Writer) WriteBool(v bool) {
	w.buf = protowire.AppendVarint(w.buf, protowire.EncodeBool(v))
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteString(s string) {
	w.buf = protowire.AppendString(w.buf, s)
}

// WriteStrings writes a length-prefixed string list. A nil list is written
// with length -1 so it stays distinguishable from an empty one.
func (w *Writer) WriteStrings(list []string) {
	if list == nil {
		w.WriteInt(-1)
		return
	}
	w.WriteInt(len(list))
	for _, s := range list {
		w.WriteString(s)
	}
}

// Bytes returns the encoded record. The slice aliases the writer buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reader consumes fields written by Writer. The first failure is sticky:
// later reads return zero values and Err reports the original cause.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) fail(n int, field string) {
	if r.err != nil {
		return
	}
	if n < 0 {
		r.err = fmt.Errorf("%w: %s at offset %d: %v", ErrTruncated, field, r.off, protowire.ParseError(n))
		return
	}
	r.err = fmt.Errorf("%w: %s at offset %d", ErrTruncated, field, r.off)
}

func (r *Reader) ReadUvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := protowire.ConsumeVarint(r.buf[r.off:])
	if n < 0 {
		r.fail(n, "varint")
		return 0
	}
	r.off += n
	return v
}

func (r *Reader) ReadInt() int {
	return int(protowire.DecodeZigZag(r.ReadUvarint()))
}

func (r *Reader) ReadBool() bool {
	return protowire.DecodeBool(r.ReadUvarint())
}

func (r *Reader) ReadUint8() uint8 {
	if r.err != nil {
		return 0
	}
	if r.off >= len(r.buf) {
		r.fail(0, "byte")
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *Reader) ReadString() string {
	if r.err != nil {
		return ""
	}
	v, n := protowire.ConsumeString(r.buf[r.off:])
	if n < 0 {
		r.fail(n, "string")
		return ""
	}
	r.off += n
	return v
}

// ReadStrings reads a list written by WriteStrings, returning nil for the
// absent marker.
func (r *Reader) ReadStrings() []string {
	n := r.ReadInt()
	if n < 0 || r.err != nil {
		return nil
	}
	if n > r.Remaining() {
		r.fail(0, "string list")
		return nil
	}
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, r.ReadString())
	}
	return list
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// Err returns the first decoding failure, if any.
func (r *Reader) Err() error {
	return r.err
}
