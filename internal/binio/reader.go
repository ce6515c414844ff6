package binio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Reader decodes fixed-width little-endian values from an underlying stream.
// A short read poisons the reader; decoded values after that are zero.
type Reader struct {
	r   io.Reader
	n   int64
	err error
	buf [8]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first read error, if any.
func (r *Reader) Err() error { return r.err }

// Fail poisons the reader with an error detected by a caller, e.g. a decoded
// length that fails validation. A reader that already holds an error keeps it.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Count returns the number of bytes successfully read.
func (r *Reader) Count() int64 { return r.n }

func (r *Reader) read(b []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.r, b)
	r.n += int64(n)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			r.err = fmt.Errorf("binio: short read at offset %d: %w", r.n, io.ErrUnexpectedEOF)
		} else {
			r.err = fmt.Errorf("binio: read: %w", err)
		}
		return false
	}
	return true
}

// ReadU8 reads 1 byte.
func (r *Reader) ReadU8() uint8 {
	if !r.read(r.buf[:1]) {
		return 0
	}
	return r.buf[0]
}

// ReadU16 reads 2 bytes as little-endian uint16.
func (r *Reader) ReadU16() uint16 {
	if !r.read(r.buf[:2]) {
		return 0
	}
	return binary.LittleEndian.Uint16(r.buf[:2])
}

// ReadU32 reads 4 bytes as little-endian uint32.
func (r *Reader) ReadU32() uint32 {
	if !r.read(r.buf[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

// ReadU64 reads 8 bytes as little-endian uint64.
func (r *Reader) ReadU64() uint64 {
	if !r.read(r.buf[:8]) {
		return 0
	}
	return binary.LittleEndian.Uint64(r.buf[:8])
}

// ReadI32 reads 4 bytes as little-endian int32.
func (r *Reader) ReadI32() int32 { return int32(r.ReadU32()) }

// ReadI64 reads 8 bytes as little-endian int64.
func (r *Reader) ReadI64() int64 { return int64(r.ReadU64()) }

// ReadF32 reads an IEEE-754 float32.
func (r *Reader) ReadF32() float32 { return math.Float32frombits(r.ReadU32()) }

// ReadF64 reads an IEEE-754 float64.
func (r *Reader) ReadF64() float64 { return math.Float64frombits(r.ReadU64()) }

// ReadBytes reads exactly n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	b := make([]byte, n)
	if !r.read(b) {
		return nil
	}
	return b
}

// ReadString reads a u32 length prefix followed by that many bytes.
func (r *Reader) ReadString() string {
	n := r.ReadU32()
	b := r.ReadBytes(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}
