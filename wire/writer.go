package wire

import "encoding/binary"

// Writer accumulates bytes for an outbound message. The zero value is ready
// to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity pre-reserved, mirroring the
// teacher's pattern of sizing response buffers up front.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// WriteU8 appends a single byte.
func (w *Writer) WriteU8(v uint8) { w.buf = append(w.buf, v) }

// WriteU16 appends a big-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteU32 appends a big-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteI64 appends a big-endian int64.
func (w *Writer) WriteI64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteBytes appends raw bytes verbatim.
func (w *Writer) WriteBytes(p []byte) { w.buf = append(w.buf, p...) }

// WriteSmart appends the client's general-purpose smart integer: one byte
// for values below 128, otherwise two bytes with the top bit set.
func (w *Writer) WriteSmart(v uint16) {
	if v < 128 {
		w.WriteU8(uint8(v))
		return
	}
	w.WriteU8(uint8(v>>8) | 0x80)
	w.WriteU8(uint8(v))
}

// WriteString appends the string bytes followed by a null terminator, with
// no leading type byte.
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, s...)
	w.WriteU8(0)
}

// WriteJagString appends a leading type byte, the string bytes, and a null
// terminator, matching the client's "jag string" encoding used in the
// world list response.
func (w *Writer) WriteJagString(s string) {
	w.WriteU8(0)
	w.buf = append(w.buf, s...)
	w.WriteU8(0)
}
