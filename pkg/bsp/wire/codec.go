package wire

import "reflect"

// Codec describes how to move a value of type T in and out of a Buffer.
// Size must be constant for a given T: the put/get primitives of the
// world (§4.1) work against pre-sized destination buffers, so every
// Variable and Coarray element codec must be fixed-width.
type Codec[T any] interface {
	// Size returns the fixed number of wire bytes a value of type T
	// occupies.
	Size() int

	// Encode appends v to buf.
	Encode(buf *Buffer, v T)

	// Decode reads one T from buf.
	Decode(buf *Buffer) T
}

// Numeric is the set of Go types the built-in fixed-width codecs support.
type Numeric interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~int | ~uint | ~float64
}

// FixedCodec returns the built-in codec for a numeric type T, selected by
// its size via a zero value probe. Application types that are not one of
// the built-in numeric kinds should implement Codec[T] directly.
func FixedCodec[T Numeric]() Codec[T] {
	var zero T
	switch reflect.TypeOf(zero).Kind() {
	case reflect.Int8, reflect.Uint8:
		return codec8[T]{}
	case reflect.Int16, reflect.Uint16:
		return codec16[T]{}
	case reflect.Int32, reflect.Uint32:
		return codec32[T]{}
	case reflect.Float64:
		return codecFloat64[T]{}
	default:
		return codec64[T]{}
	}
}

type codec8[T Numeric] struct{}

func (codec8[T]) Size() int { return 1 }
func (codec8[T]) Encode(buf *Buffer, v T) {
	buf.PutUint8(uint8(v))
}
func (codec8[T]) Decode(buf *Buffer) T {
	return T(buf.GetUint8())
}

type codec16[T Numeric] struct{}

func (codec16[T]) Size() int { return 2 }
func (codec16[T]) Encode(buf *Buffer, v T) {
	buf.PutUint16(uint16(v))
}
func (codec16[T]) Decode(buf *Buffer) T {
	return T(buf.GetUint16())
}

type codec32[T Numeric] struct{}

func (codec32[T]) Size() int { return 4 }
func (codec32[T]) Encode(buf *Buffer, v T) {
	buf.PutUint32(uint32(v))
}
func (codec32[T]) Decode(buf *Buffer) T {
	return T(buf.GetUint32())
}

type codec64[T Numeric] struct{}

func (codec64[T]) Size() int { return 8 }
func (codec64[T]) Encode(buf *Buffer, v T) {
	buf.PutUint64(uint64(v))
}
func (codec64[T]) Decode(buf *Buffer) T {
	return T(buf.GetUint64())
}

type codecFloat64[T Numeric] struct{}

func (codecFloat64[T]) Size() int { return 8 }
func (codecFloat64[T]) Encode(buf *Buffer, v T) {
	buf.PutFloat64(float64(v))
}
func (codecFloat64[T]) Decode(buf *Buffer) T {
	var f = buf.GetFloat64()
	return T(f)
}

// Scaler computes the exact buffer size required for a heterogeneous set
// of values without copying any bytes, so a caller can allocate a Buffer
// once per barrier instead of resizing it (§4.6).
type Scaler struct {
	total int
}

// NewScaler returns an empty Scaler.
func NewScaler() *Scaler { return &Scaler{} }

// Fixed accounts for a fixed-width value of n bytes.
func (s *Scaler) Fixed(n int) *Scaler {
	s.total += n
	return s
}

// String accounts for a length-counted string.
func (s *Scaler) String(v string) *Scaler {
	s.total += StringSize(v)
	return s
}

// Array accounts for a length-counted array of count elements of
// elemSize bytes each.
func (s *Scaler) Array(elemSize, count int) *Scaler {
	s.total += ArraySize(elemSize, count)
	return s
}

// Size returns the accumulated byte count.
func (s *Scaler) Size() int { return s.total }
