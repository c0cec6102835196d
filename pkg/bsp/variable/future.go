package variable

import (
	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/jkazl/go-bsp/pkg/bsp/wire"
)

// Future holds the slot a get will populate at the next barrier, plus
// enough bookkeeping to know whether that barrier has happened yet
// (§4.4). It is undefined to read Value before the resolving Sync
// returns; this implementation reports that case as ErrFutureNotReady
// rather than returning garbage.
type Future[T any] struct {
	world        bsp.World
	codec        wire.Codec[T]
	scheduledGen int

	slot        []byte
	scheduleErr error
}

func newFuture[T any](w bsp.World, codec wire.Codec[T]) *Future[T] {
	return &Future[T]{
		world:        w,
		codec:        codec,
		scheduledGen: w.Generation(),
		slot:         make([]byte, codec.Size()),
	}
}

// Value returns the remote value as it stood at the start of the barrier
// that resolved this future. It returns ErrFutureNotReady if read before
// that barrier has completed, and the get's own scheduling error (bounds,
// unknown registration, ...) if Get rejected the request outright.
func (f *Future[T]) Value() (T, error) {
	var zero T
	if f.scheduleErr != nil {
		return zero, f.scheduleErr
	}
	if f.world.Generation() <= f.scheduledGen {
		return zero, bsp.ErrFutureNotReady
	}
	buf := wire.WrapBuffer(f.slot)
	return f.codec.Decode(buf), nil
}
