package queue_test

import (
	"context"
	"testing"

	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/jkazl/go-bsp/pkg/bsp/local"
	"github.com/jkazl/go-bsp/pkg/bsp/queue"
	"github.com/jkazl/go-bsp/pkg/bsp/wire"
)

// TestSendVisibleOnlyAfterBarrier checks that a single Send becomes
// visible on the destination queue only after the next barrier
// completes, never before.
func TestSendVisibleOnlyAfterBarrier(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(2))
	defer g.Close()

	codec := wire.FixedCodec[int32]()
	qs := make([]*queue.Queue[int32], 2)
	qs[0] = queue.New[int32](g.World(0), codec)
	qs[1] = queue.New[int32](g.World(1), codec)

	err := g.Run(context.Background(), func(ctx context.Context, w *local.World) error {
		me := int(w.ProcessorID())
		if me == 0 {
			if err := qs[0].At(1).Send(42); err != nil {
				return err
			}
		}
		if got := qs[me].Len(); got != 0 {
			t.Errorf("processor %d: Len before Sync = %d, want 0", me, got)
		}
		return w.Sync(ctx)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	msgs := qs[1].Take()
	if len(msgs) != 1 || msgs[0] != 42 {
		t.Errorf("processor 1 queue = %v, want [42]", msgs)
	}
	if len(qs[0].Take()) != 0 {
		t.Error("processor 0 queue should have received nothing")
	}
}

// TestFanInPreservesPerSourceOrder checks that messages from distinct
// sources all arrive, and that each source's own messages keep their
// relative order, at a fan-in destination queue.
func TestFanInPreservesPerSourceOrder(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(3))
	defer g.Close()

	codec := wire.FixedCodec[int32]()
	qs := make([]*queue.Queue[int32], 3)
	for i := range qs {
		qs[i] = queue.New[int32](g.World(i), codec)
	}

	err := g.Run(context.Background(), func(ctx context.Context, w *local.World) error {
		me := int(w.ProcessorID())
		if me != 0 {
			sender := qs[me].At(0)
			if err := sender.Send(int32(me * 10)); err != nil {
				return err
			}
			if err := sender.Send(int32(me*10 + 1)); err != nil {
				return err
			}
		}
		return w.Sync(ctx)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	delivered := qs[0].Take()
	if len(delivered) != 4 {
		t.Fatalf("delivered = %v, want 4 messages", delivered)
	}
	bySource := map[int32][]int32{}
	for _, v := range delivered {
		bySource[v/10] = append(bySource[v/10], v)
	}
	for _, src := range []int32{1, 2} {
		got := bySource[src]
		want := []int32{src * 10, src*10 + 1}
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("source %d delivered %v, want %v in order", src, got, want)
		}
	}
}

// TestSendManyDeliversOneArrayMessage checks the array-valued send path
// (spec §8.4's vector-message scenario): a single send_many call must
// deliver exactly one message whose content is the whole array, never
// one message per element.
func TestSendManyDeliversOneArrayMessage(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(2))
	defer g.Close()

	codec := wire.FixedCodec[int32]()
	qs := make([]*queue.ArrayQueue[int32, struct{}], 2)
	qs[0] = queue.NewArrayQueue[int32](g.World(0), codec)
	qs[1] = queue.NewArrayQueue[int32](g.World(1), codec)

	vec := []int32{10, 20, 30}
	err := g.Run(context.Background(), func(ctx context.Context, w *local.World) error {
		if w.ProcessorID() == 1 {
			if err := qs[1].At(0).SendMany(vec, struct{}{}); err != nil {
				return err
			}
		}
		return w.Sync(ctx)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := qs[0].Take()
	if len(got) != 1 {
		t.Fatalf("delivered %d messages, want exactly 1", len(got))
	}
	if len(got[0].Elements) != len(vec) {
		t.Fatalf("message content = %v, want %v", got[0].Elements, vec)
	}
	for i, v := range vec {
		if got[0].Elements[i] != v {
			t.Errorf("element %d = %d, want %d", i, got[0].Elements[i], v)
		}
	}
}

// TestArrayMessageCarriesTailFields checks that an ArrayQueue declared
// with a non-trivial tail type delivers the tail alongside the array in
// the same single message.
func TestArrayMessageCarriesTailFields(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(2))
	defer g.Close()

	elemCodec := wire.FixedCodec[int32]()
	tailCodec := wire.FixedCodec[int64]()
	qs := make([]*queue.ArrayQueue[int32, int64], 2)
	qs[0] = queue.NewArrayQueueWithTail[int32, int64](g.World(0), elemCodec, tailCodec)
	qs[1] = queue.NewArrayQueueWithTail[int32, int64](g.World(1), elemCodec, tailCodec)

	err := g.Run(context.Background(), func(ctx context.Context, w *local.World) error {
		if w.ProcessorID() == 1 {
			if err := qs[1].At(0).SendMany([]int32{1, 2}, 99); err != nil {
				return err
			}
		}
		return w.Sync(ctx)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := qs[0].Take()
	if len(got) != 1 {
		t.Fatalf("delivered %d messages, want exactly 1", len(got))
	}
	if got[0].Tail != 99 {
		t.Errorf("tail = %d, want 99", got[0].Tail)
	}
}

// TestQueueClearedEachBarrier checks the delivery buffer contract:
// anything not Taken before the next barrier's delivery phase is
// dropped, not accumulated.
func TestQueueClearedEachBarrier(t *testing.T) {
	g := local.NewGroup(bsp.DefaultConfiguration(2))
	defer g.Close()

	codec := wire.FixedCodec[int32]()
	qs := make([]*queue.Queue[int32], 2)
	qs[0] = queue.New[int32](g.World(0), codec)
	qs[1] = queue.New[int32](g.World(1), codec)

	err := g.Run(context.Background(), func(ctx context.Context, w *local.World) error {
		if w.ProcessorID() == 0 {
			if err := qs[0].At(1).Send(1); err != nil {
				return err
			}
		}
		if err := w.Sync(ctx); err != nil {
			return err
		}
		// No send this superstep; the previous one's delivery should
		// have been cleared regardless of whether it was Taken.
		return w.Sync(ctx)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := qs[1].Take(); len(got) != 0 {
		t.Errorf("after a barren superstep queue = %v, want empty", got)
	}
}
