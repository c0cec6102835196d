package local_test

import (
	"context"
	"testing"
	"time"

	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/jkazl/go-bsp/pkg/bsp/local"
	"github.com/jkazl/go-bsp/pkg/bsp/variable"
	"github.com/jkazl/go-bsp/pkg/bsp/wire"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestHelloProcessor checks that a single barrier completes for every
// processor and that Generation advances exactly once per Sync.
func TestHelloProcessor(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(4))
	defer g.Close()

	err := g.Run(context.Background(), func(ctx context.Context, w *local.World) error {
		if w.Generation() != 0 {
			t.Errorf("processor %d: Generation before any Sync = %d, want 0", w.ProcessorID(), w.Generation())
		}
		if err := w.Sync(ctx); err != nil {
			return err
		}
		if w.Generation() != 1 {
			t.Errorf("processor %d: Generation after one Sync = %d, want 1", w.ProcessorID(), w.Generation())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}

// TestSwapViaVariables exercises one-sided puts exchanging processor 0
// and 1's values in a single superstep.
func TestSwapViaVariables(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(2))
	defer g.Close()

	codec := wire.FixedCodec[int64]()
	vars := make([]*variable.Variable[int64], 2)
	vars[0] = variable.New[int64](g.World(0), 100, codec)
	vars[1] = variable.New[int64](g.World(1), 200, codec)

	err := g.Run(context.Background(), func(ctx context.Context, w *local.World) error {
		me := int(w.ProcessorID())
		other := 1 - me
		mine := vars[me]

		if err := mine.At(bsp.Processor(other)).Put(mine.Value()); err != nil {
			return err
		}
		if err := w.Sync(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := vars[0].Value(); got != 200 {
		t.Errorf("vars[0] after swap = %d, want 200", got)
	}
	if got := vars[1].Value(); got != 100 {
		t.Errorf("vars[1] after swap = %d, want 100", got)
	}
}

// TestGetReadsPrePutState verifies phase ordering: a get scheduled
// against a variable that another processor also puts to in the same
// superstep observes the value as it stood before that put (§4.1 phase
// 3), not the freshly-written one.
func TestGetReadsPrePutState(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(3))
	defer g.Close()

	codec := wire.FixedCodec[int32]()
	// Declared collectively: same registration id on every processor,
	// in the same program order, even though only processor 0's copy is
	// ever addressed as a destination.
	vars := make([]*variable.Variable[int32], 3)
	vars[0] = variable.New[int32](g.World(0), 7, codec)
	vars[1] = variable.New[int32](g.World(1), 0, codec)
	vars[2] = variable.New[int32](g.World(2), 0, codec)

	var future *variable.Future[int32]
	err := g.Run(context.Background(), func(ctx context.Context, w *local.World) error {
		switch w.ProcessorID() {
		case 1:
			// Overwrite processor 0's variable this same superstep.
			if err := vars[1].At(0).Put(99); err != nil {
				return err
			}
		case 2:
			future = vars[2].At(0).Get()
		}
		return w.Sync(ctx)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := future.Value()
	if err != nil {
		t.Fatalf("future.Value: %v", err)
	}
	if got != 7 {
		t.Errorf("get observed %d, want pre-put value 7", got)
	}
	if got := vars[0].Value(); got != 99 {
		t.Errorf("processor 0's local value after barrier = %d, want 99", got)
	}
}

// TestFutureNotReadyBeforeBarrier checks that reading a Future before its
// scheduling barrier has returned reports ErrFutureNotReady.
func TestFutureNotReadyBeforeBarrier(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(2))
	defer g.Close()

	codec := wire.FixedCodec[int32]()
	v := variable.New[int32](g.World(0), 1, codec)
	future := v.At(0).Get()

	if _, err := future.Value(); err != bsp.ErrFutureNotReady {
		t.Errorf("Value before Sync = %v, want ErrFutureNotReady", err)
	}
}

// TestDoubleBarrierIdempotent checks that calling Sync twice in a row
// with no new operations scheduled is safe and simply advances the
// generation counter each time.
func TestDoubleBarrierIdempotent(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(2))
	defer g.Close()

	err := g.Run(context.Background(), func(ctx context.Context, w *local.World) error {
		if err := w.Sync(ctx); err != nil {
			return err
		}
		return w.Sync(ctx)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := g.Superstep(); got != 2 {
		t.Errorf("Superstep = %d, want 2", got)
	}
}

// TestSyncTimesOutOnContextCancellation checks that a waiter stuck behind
// a barrier that never completes returns when its context is canceled,
// rather than blocking forever.
func TestSyncTimesOutOnContextCancellation(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(2))
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := g.World(0).Sync(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Sync = %v, want context.DeadlineExceeded", err)
	}
}

// TestCollectiveMismatchDetected checks that registering variables in
// different program order across processors is flagged by
// CollectiveErrors (§4.1/§7).
func TestCollectiveMismatchDetected(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(2))
	defer g.Close()

	codec32 := wire.FixedCodec[int32]()
	codec64 := wire.FixedCodec[int64]()
	variable.New[int32](g.World(0), 1, codec32)
	variable.New[int64](g.World(1), 1, codec64)

	if errs := g.CollectiveErrors(); len(errs) == 0 {
		t.Error("expected a collective mismatch to be detected, found none")
	}
}

// TestStrictPutsRejectsOverlap checks that WithStrictPuts flags two
// same-superstep puts from different sources into overlapping element
// ranges of the same destination Coarray.
func TestStrictPutsRejectsOverlap(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(3, bsp.WithStrictPuts()))
	defer g.Close()

	codec := wire.FixedCodec[int32]()
	arrs := make([]*variable.Coarray[int32], 3)
	for i := range arrs {
		arrs[i] = variable.NewCoarray[int32](g.World(i), 4, codec)
	}

	err := g.Run(context.Background(), func(ctx context.Context, w *local.World) error {
		me := int(w.ProcessorID())
		switch me {
		case 1:
			slice, err := arrs[me].Slice(0, 0, 3)
			if err != nil {
				return err
			}
			if err := slice.Put([]int32{1, 2, 3}); err != nil {
				return err
			}
		case 2:
			slice, err := arrs[me].Slice(0, 1, 4)
			if err != nil {
				return err
			}
			if err := slice.Put([]int32{4, 5, 6}); err != nil {
				return err
			}
		}
		return w.Sync(ctx)
	})
	if err == nil {
		t.Fatal("expected an overlapping-put error, got nil")
	}
}
