// Package binio provides little-endian binary stream encoding for the
// checkpoint format. Both Writer and Reader carry a sticky error: after the
// first failure every call is a no-op and Err reports the original cause,
// so encode sequences do not need per-field checks.
package binio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer encodes fixed-width values to an underlying stream. All multi-byte
// writes are little-endian.
type Writer struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first write error, if any.
func (w *Writer) Err() error { return w.err }

// Fail poisons the writer with an error detected by a caller, e.g. a value
// that fails validation before encoding. A writer that already holds an
// error keeps it.
func (w *Writer) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Count returns the number of bytes successfully written.
func (w *Writer) Count() int64 { return w.n }

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(b)
	w.n += int64(n)
	if err != nil {
		w.err = fmt.Errorf("binio: write: %w", err)
	}
}

// WriteU8 writes 1 byte.
func (w *Writer) WriteU8(v uint8) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

// WriteU16 writes 2 bytes little-endian.
func (w *Writer) WriteU16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.write(w.buf[:2])
}

// WriteU32 writes 4 bytes little-endian.
func (w *Writer) WriteU32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

// WriteU64 writes 8 bytes little-endian.
func (w *Writer) WriteU64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.write(w.buf[:8])
}

// WriteI32 writes 4 bytes little-endian (two's complement).
func (w *Writer) WriteI32(v int32) { w.WriteU32(uint32(v)) }

// WriteI64 writes 8 bytes little-endian (two's complement).
func (w *Writer) WriteI64(v int64) { w.WriteU64(uint64(v)) }

// WriteF32 writes an IEEE-754 float32.
func (w *Writer) WriteF32(v float32) { w.WriteU32(math.Float32bits(v)) }

// WriteF64 writes an IEEE-754 float64.
func (w *Writer) WriteF64(v float64) { w.WriteU64(math.Float64bits(v)) }

// WriteBytes writes raw bytes with no framing.
func (w *Writer) WriteBytes(b []byte) { w.write(b) }

// WriteString writes a u32 length prefix followed by the raw bytes.
// Used only in self-describing headers, never in element streams.
func (w *Writer) WriteString(s string) {
	w.WriteU32(uint32(len(s)))
	w.write([]byte(s))
}
