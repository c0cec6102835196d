package variable

import (
	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/jkazl/go-bsp/pkg/bsp/wire"
)

// Image is a (variable, remote-processor) pair used to schedule one-sided
// operations against processor dst (§4.2, glossary "Image").
type Image[T any] struct {
	variable *Variable[T]
	dst      bsp.Processor
}

// Put schedules a write of v into the remote variable, to take effect
// after the next Sync. The bytes of v are captured now, at the call,
// not re-read at the barrier: later local mutation of the argument (if
// it is a pointer-shaped T) does not change what gets sent (§4.2).
func (img *Image[T]) Put(v T) error {
	buf := wire.NewBuffer(img.variable.codec.Size())
	img.variable.codec.Encode(buf, v)
	return img.variable.world.PutVar(img.dst, img.variable.id, 0, 1, buf.Bytes())
}

// Get schedules a read of the remote value and returns a Future whose
// slot is populated once the next Sync returns (§4.2).
func (img *Image[T]) Get() *Future[T] {
	f := newFuture(img.variable.world, img.variable.codec)
	f.scheduleErr = img.variable.world.GetVar(img.dst, img.variable.id, 0, 1, f.slot)
	return f
}
