package queue

import (
	"sync"

	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/jkazl/go-bsp/pkg/bsp/wire"
)

// ArrayMessage is the shape send_many delivers: the array content of the
// message, plus whatever trailing tuple fields the sender attached
// (§4.5: "transports a single message whose array content has the given
// elements and whose remaining fields are set from tail_fields"). Queues
// with no tail fields are declared with Tail = struct{}.
type ArrayMessage[E any, Tail any] struct {
	Elements []E
	Tail     Tail
}

// ArrayQueue is a typed FIFO mailbox whose message content type is
// array-shaped: each send_many call delivers exactly one ArrayMessage
// entry, never one entry per element (§4.5, §8.4's vector-message
// scenario).
type ArrayQueue[E any, Tail any] struct {
	world     bsp.World
	id        bsp.RegistrationID
	elemCodec wire.Codec[E]
	tailCodec wire.Codec[Tail]

	mu      sync.Mutex
	pending []ArrayMessage[E, Tail]
}

// NewArrayQueue declares an array-valued queue whose messages carry no
// trailing tuple fields.
func NewArrayQueue[E any](w bsp.World, elemCodec wire.Codec[E]) *ArrayQueue[E, struct{}] {
	return NewArrayQueueWithTail[E, struct{}](w, elemCodec, noTailCodec{})
}

// NewArrayQueueWithTail declares an array-valued queue whose messages
// also carry a fixed-width Tail value alongside the array.
func NewArrayQueueWithTail[E any, Tail any](w bsp.World, elemCodec wire.Codec[E], tailCodec wire.Codec[Tail]) *ArrayQueue[E, Tail] {
	q := &ArrayQueue[E, Tail]{world: w, elemCodec: elemCodec, tailCodec: tailCodec}
	q.id = w.RegisterQueue(q)
	return q
}

// ID returns this queue's registration id.
func (q *ArrayQueue[E, Tail]) ID() bsp.RegistrationID { return q.id }

// At returns an ArraySender through which array-valued messages may be
// addressed to processor dst.
func (q *ArrayQueue[E, Tail]) At(dst bsp.Processor) *ArraySender[E, Tail] {
	return &ArraySender[E, Tail]{queue: q, dst: dst}
}

// Len returns how many messages are currently available to Take.
func (q *ArrayQueue[E, Tail]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Take removes and returns every message delivered by the most recently
// completed barrier, in delivery order, each still whole (one
// ArrayMessage per send_many call).
func (q *ArrayQueue[E, Tail]) Take() []ArrayMessage[E, Tail] {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Close unregisters the queue. Collective, like variable.Close.
func (q *ArrayQueue[E, Tail]) Close() {
	q.world.UnregisterQueue(q.id)
}

// GetBuffer implements bsp.QueueEntry. An ArrayQueue does not pre-size
// its delivery buffer and returns nil.
func (q *ArrayQueue[E, Tail]) GetBuffer(totalIncomingBytes int) []byte { return nil }

// PushOne implements bsp.QueueEntry. An ArrayQueue's message type is
// array-shaped, so a plain scalar send is never valid against it.
func (q *ArrayQueue[E, Tail]) PushOne(payload []byte) error {
	return bsp.ErrUnsupportedSend
}

// PushArray implements bsp.QueueEntry: it decodes the whole array plus
// any tail fields and appends them as a single ArrayMessage entry, never
// one entry per element.
func (q *ArrayQueue[E, Tail]) PushArray(elemSize, count int, elems, tail []byte) error {
	buf := wire.WrapBuffer(elems)
	elements := make([]E, count)
	for i := range elements {
		elements[i] = q.elemCodec.Decode(buf)
	}
	var tailValue Tail
	if q.tailCodec.Size() > 0 {
		tailValue = q.tailCodec.Decode(wire.WrapBuffer(tail))
	}
	q.mu.Lock()
	q.pending = append(q.pending, ArrayMessage[E, Tail]{Elements: elements, Tail: tailValue})
	q.mu.Unlock()
	return nil
}

// Clear implements bsp.QueueEntry; see Queue.Clear.
func (q *ArrayQueue[E, Tail]) Clear() {
	q.mu.Lock()
	q.pending = nil
	q.mu.Unlock()
}

// ArraySender is the send_many counterpart of Sender, bound to an
// ArrayQueue (§4.5: "only valid when the first content type is an
// array").
type ArraySender[E any, Tail any] struct {
	queue *ArrayQueue[E, Tail]
	dst   bsp.Processor
}

// SendMany schedules delivery of a single array-valued message carrying
// every element of elements, in order, plus tail, to the remote queue.
// Queues declared with NewArrayQueue (Tail = struct{}) take struct{}{}.
func (s *ArraySender[E, Tail]) SendMany(elements []E, tail Tail) error {
	elemSize := s.queue.elemCodec.Size()
	elemBuf := wire.NewBuffer(elemSize * len(elements))
	for _, e := range elements {
		s.queue.elemCodec.Encode(elemBuf, e)
	}
	var tailBytes []byte
	if s.queue.tailCodec.Size() > 0 {
		tailBuf := wire.NewBuffer(s.queue.tailCodec.Size())
		s.queue.tailCodec.Encode(tailBuf, tail)
		tailBytes = tailBuf.Bytes()
	}
	return s.queue.world.SendManyMsg(s.dst, s.queue.id, elemBuf.Bytes(), elemSize, len(elements), tailBytes)
}

// noTailCodec is the zero-size codec backing NewArrayQueue's struct{}
// tail, for array messages that carry no trailing tuple fields.
type noTailCodec struct{}

func (noTailCodec) Size() int { return 0 }
func (noTailCodec) Encode(buf *wire.Buffer, v struct{}) {
}
func (noTailCodec) Decode(buf *wire.Buffer) struct{} {
	return struct{}{}
}
