// Package local provides the reference in-process BSP backend: one
// goroutine's World per logical processor, a barrier shared by a Group,
// and the four-phase delivery engine of spec §4.1. It is the only
// backend this module ships; clustered or accelerator-resident backends
// are out of scope (§1) and only need to satisfy bsp.World to plug in.
package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/jkazl/go-bsp/pkg/bsp/definition"
)

// World is the local, in-process implementation of bsp.World.
type World struct {
	id    bsp.Processor
	group *Group

	mu        sync.Mutex
	variables map[bsp.RegistrationID]bsp.VariableEntry
	varFree   []bsp.RegistrationID
	varNext   bsp.RegistrationID

	queues    map[bsp.RegistrationID]bsp.QueueEntry
	queueFree []bsp.RegistrationID
	queueNext bsp.RegistrationID

	pendingPuts []pendingPut
	pendingGets []pendingGet
	pendingMsgs []pendingMessage
	logBuffer   []string
	closed      bool
}

func newWorld(id bsp.Processor, g *Group) *World {
	return &World{
		id:        id,
		group:     g,
		variables: make(map[bsp.RegistrationID]bsp.VariableEntry),
		queues:    make(map[bsp.RegistrationID]bsp.QueueEntry),
	}
}

// ActiveProcessors implements bsp.World.
func (w *World) ActiveProcessors() int { return len(w.group.worlds) }

// ProcessorID implements bsp.World.
func (w *World) ProcessorID() bsp.Processor { return w.id }

// RegisterVariable implements bsp.World.
func (w *World) RegisterVariable(v bsp.VariableEntry) bsp.RegistrationID {
	w.mu.Lock()
	id := w.nextVarID()
	w.variables[id] = v
	w.mu.Unlock()
	w.group.checkCollective(w.id, "variable", int(id), v.ElementSize())
	return id
}

// UnregisterVariable implements bsp.World.
func (w *World) UnregisterVariable(id bsp.RegistrationID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.variables, id)
	w.varFree = append(w.varFree, id)
}

// RegisterQueue implements bsp.World.
func (w *World) RegisterQueue(q bsp.QueueEntry) bsp.RegistrationID {
	w.mu.Lock()
	id := w.nextQueueID()
	w.queues[id] = q
	w.mu.Unlock()
	w.group.checkCollective(w.id, "queue", int(id), 0)
	return id
}

// UnregisterQueue implements bsp.World.
func (w *World) UnregisterQueue(id bsp.RegistrationID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.queues, id)
	w.queueFree = append(w.queueFree, id)
}

// nextVarID and nextQueueID allocate the lowest unused id, reusing ids
// freed by Unregister* (§3 invariant), and must be called with w.mu held.
func (w *World) nextVarID() bsp.RegistrationID {
	if n := len(w.varFree); n > 0 {
		low := 0
		for i := 1; i < n; i++ {
			if w.varFree[i] < w.varFree[low] {
				low = i
			}
		}
		id := w.varFree[low]
		w.varFree = append(w.varFree[:low], w.varFree[low+1:]...)
		return id
	}
	id := w.varNext
	w.varNext++
	return id
}

func (w *World) nextQueueID() bsp.RegistrationID {
	if n := len(w.queueFree); n > 0 {
		low := 0
		for i := 1; i < n; i++ {
			if w.queueFree[i] < w.queueFree[low] {
				low = i
			}
		}
		id := w.queueFree[low]
		w.queueFree = append(w.queueFree[:low], w.queueFree[low+1:]...)
		return id
	}
	id := w.queueNext
	w.queueNext++
	return id
}

func (w *World) lookupVariable(id bsp.RegistrationID) (bsp.VariableEntry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.variables[id]
	return v, ok
}

func (w *World) lookupQueue(id bsp.RegistrationID) (bsp.QueueEntry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	q, ok := w.queues[id]
	return q, ok
}

// PutVar implements bsp.World.
func (w *World) PutVar(dst bsp.Processor, varID bsp.RegistrationID, elemOffset, count int, data []byte) error {
	if w.closed {
		return bsp.ErrWorldClosed
	}
	if count == 0 {
		return nil
	}
	dstWorld, err := w.group.worldAt(dst)
	if err != nil {
		return err
	}
	entry, ok := dstWorld.lookupVariable(varID)
	if !ok {
		return fmt.Errorf("put to processor %d variable %d: %w", dst, varID, bsp.ErrUnknownRegistration)
	}
	if elemOffset < 0 || count < 0 || elemOffset+count > entry.ElementCount() {
		return fmt.Errorf("put to processor %d variable %d [%d:%d) of %d: %w",
			dst, varID, elemOffset, elemOffset+count, entry.ElementCount(), bsp.ErrElementRange)
	}
	if len(data) != count*entry.ElementSize() {
		return fmt.Errorf("put to processor %d variable %d: payload is %d bytes, want %d: %w",
			dst, varID, len(data), count*entry.ElementSize(), bsp.ErrElementRange)
	}
	captured := make([]byte, len(data))
	copy(captured, data)

	w.mu.Lock()
	w.pendingPuts = append(w.pendingPuts, pendingPut{dst: dst, varID: varID, offset: elemOffset, count: count, data: captured})
	w.mu.Unlock()
	return nil
}

// GetVar implements bsp.World.
func (w *World) GetVar(src bsp.Processor, varID bsp.RegistrationID, elemOffset, count int, slot []byte) error {
	if w.closed {
		return bsp.ErrWorldClosed
	}
	if count == 0 {
		return nil
	}
	srcWorld, err := w.group.worldAt(src)
	if err != nil {
		return err
	}
	entry, ok := srcWorld.lookupVariable(varID)
	if !ok {
		return fmt.Errorf("get from processor %d variable %d: %w", src, varID, bsp.ErrUnknownRegistration)
	}
	if elemOffset < 0 || count < 0 || elemOffset+count > entry.ElementCount() {
		return fmt.Errorf("get from processor %d variable %d [%d:%d) of %d: %w",
			src, varID, elemOffset, elemOffset+count, entry.ElementCount(), bsp.ErrElementRange)
	}
	if len(slot) != count*entry.ElementSize() {
		return fmt.Errorf("get from processor %d variable %d: slot is %d bytes, want %d: %w",
			src, varID, len(slot), count*entry.ElementSize(), bsp.ErrElementRange)
	}

	w.mu.Lock()
	w.pendingGets = append(w.pendingGets, pendingGet{src: src, varID: varID, offset: elemOffset, count: count, slot: slot})
	w.mu.Unlock()
	return nil
}

// SendMsg implements bsp.World.
func (w *World) SendMsg(dst bsp.Processor, queueID bsp.RegistrationID, payload []byte) error {
	if w.closed {
		return bsp.ErrWorldClosed
	}
	if _, err := w.group.worldAt(dst); err != nil {
		return err
	}
	captured := make([]byte, len(payload))
	copy(captured, payload)
	w.mu.Lock()
	w.pendingMsgs = append(w.pendingMsgs, pendingMessage{
		dst: dst, queueID: queueID, payload: captured, traceID: uuid.NewString(),
	})
	w.mu.Unlock()
	return nil
}

// SendManyMsg implements bsp.World.
func (w *World) SendManyMsg(dst bsp.Processor, queueID bsp.RegistrationID, elems []byte, elemSize, count int, tail []byte) error {
	if w.closed {
		return bsp.ErrWorldClosed
	}
	if _, err := w.group.worldAt(dst); err != nil {
		return err
	}
	capturedElems := make([]byte, len(elems))
	copy(capturedElems, elems)
	capturedTail := make([]byte, len(tail))
	copy(capturedTail, tail)
	w.mu.Lock()
	w.pendingMsgs = append(w.pendingMsgs, pendingMessage{
		dst: dst, queueID: queueID, array: true, traceID: uuid.NewString(),
		elems: capturedElems, elemSize: elemSize, count: count, tail: capturedTail,
	})
	w.mu.Unlock()
	return nil
}

// Log implements bsp.World: it buffers msg, attributed with this
// processor's id, for flush once the next Sync completes.
func (w *World) Log(msg string) {
	w.mu.Lock()
	w.logBuffer = append(w.logBuffer, definition.Attributed(int(w.id), msg))
	w.mu.Unlock()
}

// LogBuffer returns the not-yet-flushed buffered log lines (supplemented
// test/debug accessor, see SPEC_FULL.md).
func (w *World) LogBuffer() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.logBuffer))
	copy(out, w.logBuffer)
	return out
}

// peekPending returns the currently-queued pending state without
// clearing it, for the barrier engine to read during its delivery phases
// before takePending clears everything for the next superstep.
func (w *World) peekPending() ([]pendingPut, []pendingGet, []pendingMessage, []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pendingPuts, w.pendingGets, w.pendingMsgs, w.logBuffer
}

// queueEntries returns every currently registered queue's capability
// entry, in no particular order (callers that need determinism sort by
// registration id).
func (w *World) queueEntries() []bsp.QueueEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]bsp.QueueEntry, 0, len(w.queues))
	for _, q := range w.queues {
		out = append(out, q)
	}
	return out
}

func (w *World) takePending() ([]pendingPut, []pendingGet, []pendingMessage, []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	puts, gets, msgs, logs := w.pendingPuts, w.pendingGets, w.pendingMsgs, w.logBuffer
	w.pendingPuts, w.pendingGets, w.pendingMsgs, w.logBuffer = nil, nil, nil, nil
	return puts, gets, msgs, logs
}

// Sync implements bsp.World.
func (w *World) Sync(ctx context.Context) error {
	if w.group.config.Metrics != nil {
		w.group.config.Metrics.IncBlocked()
		defer w.group.config.Metrics.DecBlocked()
	}
	start := time.Now()
	err := w.group.barrier.await(ctx)
	if w.group.config.Metrics != nil {
		w.group.config.Metrics.ObserveBarrier(time.Since(start).Seconds())
	}
	return err
}

// Generation implements bsp.World.
func (w *World) Generation() int { return w.group.Superstep() }

// Close implements bsp.World. It is not collective; see Group.Close for
// a clean collective teardown.
func (w *World) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}
