package variable

import (
	"sync"

	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/jkazl/go-bsp/pkg/bsp/wire"
)

// Coarray is an array-shaped variable, addressable element-wise or by a
// half-open slice (§3, §4.3).
type Coarray[T any] struct {
	world bsp.World
	id    bsp.RegistrationID
	codec wire.Codec[T]

	mu     sync.RWMutex
	values []T
}

// NewCoarray declares a coarray of the given local length, every element
// initialized to its zero value. Declaration is collective, like
// variable.New.
func NewCoarray[T any](w bsp.World, length int, codec wire.Codec[T]) *Coarray[T] {
	c := &Coarray[T]{world: w, codec: codec, values: make([]T, length)}
	c.id = w.RegisterVariable(c)
	return c
}

// ID returns this coarray's registration id.
func (c *Coarray[T]) ID() bsp.RegistrationID { return c.id }

// Len returns the local element count fixed at construction.
func (c *Coarray[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// At reads the local element i.
func (c *Coarray[T]) At(i int) T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[i]
}

// SetAt writes the local element i.
func (c *Coarray[T]) SetAt(i int, v T) {
	c.mu.Lock()
	c.values[i] = v
	c.mu.Unlock()
}

// Close unregisters the coarray. Collective, like variable.New.
func (c *Coarray[T]) Close() {
	c.world.UnregisterVariable(c.id)
}

// Element addresses a single remote element on processor dst (§4.3).
func (c *Coarray[T]) Element(dst bsp.Processor, i int) *ElementImage[T] {
	return &ElementImage[T]{coarray: c, dst: dst, index: i}
}

// Slice addresses the half-open remote range [lo, hi) on processor dst
// (§4.3). It returns ErrElementRange immediately, rather than scheduling
// invalid communication, if the range is out of bounds (§7).
func (c *Coarray[T]) Slice(dst bsp.Processor, lo, hi int) (*SliceImage[T], error) {
	if lo < 0 || hi < lo || hi > c.Len() {
		return nil, bsp.ErrElementRange
	}
	return &SliceImage[T]{coarray: c, dst: dst, lo: lo, hi: hi}, nil
}

// ElementSize implements bsp.VariableEntry.
func (c *Coarray[T]) ElementSize() int { return c.codec.Size() }

// ElementCount implements bsp.VariableEntry.
func (c *Coarray[T]) ElementCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Snapshot implements bsp.VariableEntry.
func (c *Coarray[T]) Snapshot(offset, count int) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if offset < 0 || count < 0 || offset+count > len(c.values) {
		return nil, bsp.ErrElementRange
	}
	buf := wire.NewBuffer(count * c.codec.Size())
	for i := 0; i < count; i++ {
		c.codec.Encode(buf, c.values[offset+i])
	}
	return buf.Bytes(), nil
}

// Write implements bsp.VariableEntry.
func (c *Coarray[T]) Write(offset, count int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if offset < 0 || count < 0 || offset+count > len(c.values) {
		return bsp.ErrElementRange
	}
	buf := wire.WrapBuffer(data)
	for i := 0; i < count; i++ {
		c.values[offset+i] = c.codec.Decode(buf)
	}
	return nil
}

// ElementImage addresses one remote element of a Coarray (§4.3).
type ElementImage[T any] struct {
	coarray *Coarray[T]
	dst     bsp.Processor
	index   int
}

// Put schedules a write of v into the remote element.
func (img *ElementImage[T]) Put(v T) error {
	buf := wire.NewBuffer(img.coarray.codec.Size())
	img.coarray.codec.Encode(buf, v)
	return img.coarray.world.PutVar(img.dst, img.coarray.id, img.index, 1, buf.Bytes())
}

// Get schedules a read of the remote element.
func (img *ElementImage[T]) Get() *Future[T] {
	f := newFuture(img.coarray.world, img.coarray.codec)
	f.scheduleErr = img.coarray.world.GetVar(img.dst, img.coarray.id, img.index, 1, f.slot)
	return f
}

// SliceImage addresses a half-open remote range of a Coarray (§4.3).
type SliceImage[T any] struct {
	coarray *Coarray[T]
	dst     bsp.Processor
	lo, hi  int
}

// Put schedules a write of vs into the remote range, which must have
// exactly hi-lo elements.
func (img *SliceImage[T]) Put(vs []T) error {
	n := img.hi - img.lo
	if len(vs) != n {
		return bsp.ErrElementRange
	}
	buf := wire.NewBuffer(n * img.coarray.codec.Size())
	for _, v := range vs {
		img.coarray.codec.Encode(buf, v)
	}
	return img.coarray.world.PutVar(img.dst, img.coarray.id, img.lo, n, buf.Bytes())
}

// Get schedules a read of the remote range into a SliceFuture.
func (img *SliceImage[T]) Get() *SliceFuture[T] {
	n := img.hi - img.lo
	f := &SliceFuture[T]{
		world:        img.coarray.world,
		codec:        img.coarray.codec,
		n:            n,
		scheduledGen: img.coarray.world.Generation(),
		slot:         make([]byte, n*img.coarray.codec.Size()),
	}
	f.scheduleErr = img.coarray.world.GetVar(img.dst, img.coarray.id, img.lo, n, f.slot)
	return f
}

// SliceFuture is the array-shaped counterpart of Future, resolving to a
// []T instead of a single T.
type SliceFuture[T any] struct {
	world        bsp.World
	codec        wire.Codec[T]
	n            int
	scheduledGen int

	slot        []byte
	scheduleErr error
}

// Value returns the remote range as it stood at the start of the
// resolving barrier, under the same readiness contract as Future.Value.
func (f *SliceFuture[T]) Value() ([]T, error) {
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	if f.world.Generation() <= f.scheduledGen {
		return nil, bsp.ErrFutureNotReady
	}
	buf := wire.WrapBuffer(f.slot)
	out := make([]T, f.n)
	for i := range out {
		out[i] = f.codec.Decode(buf)
	}
	return out, nil
}
