// Package wire implements the flat byte-buffer wire format used to move
// values between processors of the same world. The format is not meant to
// be portable across worlds or binaries (see spec §3, §4.6): it is a
// byte-copy of fixed-width values, length-prefixed strings and
// length-prefixed arrays of fixed-width elements.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Buffer is a contiguous byte buffer with a read/write cursor. Writes
// append and advance the cursor; reads consume and advance it. A single
// Buffer is either being written or being read, never both at once.
type Buffer struct {
	buf    []byte
	cursor int
}

// NewBuffer allocates a Buffer with size bytes of backing storage,
// ready for writing from offset zero.
func NewBuffer(size int) *Buffer {
	return &Buffer{buf: make([]byte, size)}
}

// WrapBuffer creates a Buffer for reading pre-populated bytes, e.g. the
// payload handed to a queue's delivery hook.
func WrapBuffer(data []byte) *Buffer {
	return &Buffer{buf: data}
}

// Bytes returns the full backing slice, regardless of cursor position.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the number of unread bytes remaining after the cursor.
func (b *Buffer) Len() int { return len(b.buf) - b.cursor }

// Reset rewinds the cursor to the start, keeping the backing storage.
func (b *Buffer) Reset() { b.cursor = 0 }

func (b *Buffer) requireWrite(n int) {
	if b.cursor+n > len(b.buf) {
		panic(fmt.Sprintf("wire: write of %d bytes overruns buffer of %d at cursor %d", n, len(b.buf), b.cursor))
	}
}

func (b *Buffer) requireRead(n int) {
	if b.cursor+n > len(b.buf) {
		panic(fmt.Sprintf("wire: read of %d bytes overruns buffer of %d at cursor %d", n, len(b.buf), b.cursor))
	}
}

// PutUint8 writes one byte and advances the cursor.
func (b *Buffer) PutUint8(v uint8) {
	b.requireWrite(1)
	b.buf[b.cursor] = v
	b.cursor++
}

// GetUint8 reads one byte and advances the cursor.
func (b *Buffer) GetUint8() uint8 {
	b.requireRead(1)
	v := b.buf[b.cursor]
	b.cursor++
	return v
}

// PutUint16 writes a little-endian uint16 and advances the cursor.
func (b *Buffer) PutUint16(v uint16) {
	b.requireWrite(2)
	binary.LittleEndian.PutUint16(b.buf[b.cursor:], v)
	b.cursor += 2
}

// GetUint16 reads a little-endian uint16 and advances the cursor.
func (b *Buffer) GetUint16() uint16 {
	b.requireRead(2)
	v := binary.LittleEndian.Uint16(b.buf[b.cursor:])
	b.cursor += 2
	return v
}

// PutUint32 writes a little-endian uint32 and advances the cursor.
func (b *Buffer) PutUint32(v uint32) {
	b.requireWrite(4)
	binary.LittleEndian.PutUint32(b.buf[b.cursor:], v)
	b.cursor += 4
}

// GetUint32 reads a little-endian uint32 and advances the cursor.
func (b *Buffer) GetUint32() uint32 {
	b.requireRead(4)
	v := binary.LittleEndian.Uint32(b.buf[b.cursor:])
	b.cursor += 4
	return v
}

// PutUint64 writes a little-endian uint64 and advances the cursor.
func (b *Buffer) PutUint64(v uint64) {
	b.requireWrite(8)
	binary.LittleEndian.PutUint64(b.buf[b.cursor:], v)
	b.cursor += 8
}

// GetUint64 reads a little-endian uint64 and advances the cursor.
func (b *Buffer) GetUint64() uint64 {
	b.requireRead(8)
	v := binary.LittleEndian.Uint64(b.buf[b.cursor:])
	b.cursor += 8
	return v
}

// PutFloat64 writes a little-endian IEEE-754 float64 and advances the cursor.
func (b *Buffer) PutFloat64(v float64) {
	b.PutUint64(math.Float64bits(v))
}

// GetFloat64 reads a little-endian IEEE-754 float64 and advances the cursor.
func (b *Buffer) GetFloat64() float64 {
	return math.Float64frombits(b.GetUint64())
}

// PutRaw copies data verbatim and advances the cursor by len(data). The
// caller is responsible for any length prefix.
func (b *Buffer) PutRaw(data []byte) {
	b.requireWrite(len(data))
	copy(b.buf[b.cursor:], data)
	b.cursor += len(data)
}

// GetRaw reads exactly n raw bytes and advances the cursor.
func (b *Buffer) GetRaw(n int) []byte {
	b.requireRead(n)
	out := make([]byte, n)
	copy(out, b.buf[b.cursor:b.cursor+n])
	b.cursor += n
	return out
}

// PutString writes a length-counted string: a uint32 byte count, the
// bytes, and a trailing NUL terminator (kept for simplicity per spec §4.6,
// it is not required to parse the string back).
func (b *Buffer) PutString(s string) {
	b.PutUint32(uint32(len(s)))
	b.PutRaw([]byte(s))
	b.PutUint8(0)
}

// GetString reads a length-counted string written by PutString.
func (b *Buffer) GetString() string {
	n := b.GetUint32()
	data := b.GetRaw(int(n))
	b.GetUint8() // terminator
	return string(data)
}

// PutArray writes a length-counted array of count fixed-width elements of
// elemSize bytes each, given their flat concatenated bytes.
func (b *Buffer) PutArray(elemSize, count int, elems []byte) {
	b.PutUint32(uint32(count))
	b.PutRaw(elems[:elemSize*count])
}

// GetArray reads a length-counted array written by PutArray and returns
// its element count plus the flat concatenated element bytes.
func (b *Buffer) GetArray(elemSize int) (count int, elems []byte) {
	count = int(b.GetUint32())
	elems = b.GetRaw(elemSize * count)
	return count, elems
}

// StringSize returns the number of bytes PutString would consume for s.
func StringSize(s string) int { return 4 + len(s) + 1 }

// ArraySize returns the number of bytes PutArray would consume for count
// elements of elemSize bytes.
func ArraySize(elemSize, count int) int { return 4 + elemSize*count }
