// Package queue implements the message-passing substrate: typed FIFO
// mailboxes delivered at barrier time, and the sender handles used to
// address them on a remote processor (spec §4.5).
package queue

import (
	"sync"

	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/jkazl/go-bsp/pkg/bsp/wire"
)

// Queue is a typed FIFO mailbox for scalar messages. Messages sent to it
// during one superstep become visible, in sender order within each source
// and a deterministic-per-run order across sources, only after the
// barrier that closes that superstep returns (§4.5).
type Queue[T any] struct {
	world bsp.World
	id    bsp.RegistrationID
	codec wire.Codec[T]

	mu      sync.Mutex
	pending []T
}

// New declares a queue, registering it with w. Declaration is collective,
// like variable.New.
func New[T any](w bsp.World, codec wire.Codec[T]) *Queue[T] {
	q := &Queue[T]{world: w, codec: codec}
	q.id = w.RegisterQueue(q)
	return q
}

// ID returns this queue's registration id.
func (q *Queue[T]) ID() bsp.RegistrationID { return q.id }

// At returns a Sender through which messages may be addressed to
// processor dst (§4.5).
func (q *Queue[T]) At(dst bsp.Processor) *Sender[T] {
	return &Sender[T]{queue: q, dst: dst}
}

// Len returns how many messages are currently available to Take.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Take removes and returns every message delivered by the most recently
// completed barrier, in delivery order. Calling it again before the next
// barrier returns an empty slice (the delivery buffer contract of §4.5:
// the buffer is drained, not merely peeked).
func (q *Queue[T]) Take() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Close unregisters the queue. Collective, like variable.Close.
func (q *Queue[T]) Close() {
	q.world.UnregisterQueue(q.id)
}

// GetBuffer implements bsp.QueueEntry: a scalar Queue decodes each
// message straight out of its own payload as it arrives, so it needs no
// shared scratch space; the total byte size is only used to grow the
// delivery buffer once, up front, instead of repeatedly on every Push.
func (q *Queue[T]) GetBuffer(totalIncomingBytes int) []byte {
	if totalIncomingBytes > 0 {
		q.mu.Lock()
		q.pending = make([]T, 0, totalIncomingBytes/q.codec.Size())
		q.mu.Unlock()
	}
	return nil
}

// PushOne implements bsp.QueueEntry: it decodes one scalar message and
// appends it to the delivery buffer as a single entry.
func (q *Queue[T]) PushOne(payload []byte) error {
	buf := wire.WrapBuffer(payload)
	v := q.codec.Decode(buf)
	q.mu.Lock()
	q.pending = append(q.pending, v)
	q.mu.Unlock()
	return nil
}

// PushArray implements bsp.QueueEntry. A scalar Queue's message type is
// not array-shaped, so send_many is never valid against it (§4.5: "only
// valid when the first content type is an array"); use ArrayQueue for
// that content shape instead.
func (q *Queue[T]) PushArray(elemSize, count int, elems, tail []byte) error {
	return bsp.ErrUnsupportedSend
}

// Clear implements bsp.QueueEntry: it drops whatever was not Taken before
// the next barrier's delivery begins, per the clear-then-refill delivery
// buffer contract (§4.5).
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}

// Sender is a (queue, remote-processor) pair used to schedule scalar
// message sends against processor dst (§4.5).
type Sender[T any] struct {
	queue *Queue[T]
	dst   bsp.Processor
}

// Send schedules delivery of one message to the remote queue, to become
// visible after the next barrier.
func (s *Sender[T]) Send(v T) error {
	buf := wire.NewBuffer(s.queue.codec.Size())
	s.queue.codec.Encode(buf, v)
	return s.queue.world.SendMsg(s.dst, s.queue.id, buf.Bytes())
}

// SendAll schedules delivery of each element of vs as its own message, in
// order: "equivalent to repeated single sends" (§4.5), not a single
// array-valued message — for that, see ArrayQueue.SendMany.
func (s *Sender[T]) SendAll(vs []T) error {
	for _, v := range vs {
		if err := s.Send(v); err != nil {
			return err
		}
	}
	return nil
}
