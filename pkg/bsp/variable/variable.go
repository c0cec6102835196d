// Package variable implements the distributed variable substrate: plain
// Variable[T], its remote Image, the Future a get resolves into, and the
// array-shaped Coarray[T] (spec §4.2–§4.4).
package variable

import (
	"sync"

	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/jkazl/go-bsp/pkg/bsp/wire"
)

// Variable owns a value of type T on this processor and a registration
// id shared collectively with every processor that declares the same
// variable in the same program order (§3).
type Variable[T any] struct {
	world bsp.World
	id    bsp.RegistrationID
	codec wire.Codec[T]

	mu    sync.RWMutex
	value T
}

// New declares a variable initialized to value, registering it with w.
// Declaration is collective: every processor must call New for this
// variable, in the same relative order as every other variable/queue/
// coarray, so all processors agree on its id.
func New[T any](w bsp.World, value T, codec wire.Codec[T]) *Variable[T] {
	v := &Variable[T]{world: w, codec: codec, value: value}
	v.id = w.RegisterVariable(v)
	return v
}

// ID returns this variable's registration id.
func (v *Variable[T]) ID() bsp.RegistrationID { return v.id }

// Value returns the current local value.
func (v *Variable[T]) Value() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// SetValue overwrites the local value. It does not itself communicate;
// to publish a value to another processor use At(dst).Put.
func (v *Variable[T]) SetValue(value T) {
	v.mu.Lock()
	v.value = value
	v.mu.Unlock()
}

// At returns an Image through which put/get may be issued against
// processor dst (§4.2).
func (v *Variable[T]) At(dst bsp.Processor) *Image[T] {
	return &Image[T]{variable: v, dst: dst}
}

// Close unregisters the variable. Collective, like New.
func (v *Variable[T]) Close() {
	v.world.UnregisterVariable(v.id)
}

// ElementSize implements bsp.VariableEntry.
func (v *Variable[T]) ElementSize() int { return v.codec.Size() }

// ElementCount implements bsp.VariableEntry: a scalar Variable always
// addresses exactly one element.
func (v *Variable[T]) ElementCount() int { return 1 }

// Snapshot implements bsp.VariableEntry.
func (v *Variable[T]) Snapshot(offset, count int) ([]byte, error) {
	if offset != 0 || count != 1 {
		return nil, bsp.ErrElementRange
	}
	v.mu.RLock()
	value := v.value
	v.mu.RUnlock()
	buf := wire.NewBuffer(v.codec.Size())
	v.codec.Encode(buf, value)
	return buf.Bytes(), nil
}

// Write implements bsp.VariableEntry: it applies a put, decoding data
// into the local value.
func (v *Variable[T]) Write(offset, count int, data []byte) error {
	if offset != 0 || count != 1 {
		return bsp.ErrElementRange
	}
	buf := wire.WrapBuffer(data)
	value := v.codec.Decode(buf)
	v.mu.Lock()
	v.value = value
	v.mu.Unlock()
	return nil
}
