// Package bsp defines the abstract superstep engine that any BSP backend
// must fulfil: the World interface, the registration-table capability
// contracts for variables and queues, and the collective barrier
// semantics described by the specification this module implements. The
// reference in-process backend lives in the sibling local package.
package bsp

import "context"

// Processor is a logical participant's rank, an integer in [0, P) fixed
// for the lifetime of a World.
type Processor int

// RegistrationID names a variable or queue inside a world. It is dense,
// stable across the object's lifetime, reused after unregistration, and
// collectively consistent: the Nth object of a kind created on one
// processor has the same id on every other processor that creates it in
// the same program order (§3 invariant).
type RegistrationID int

// VariableEntry is the capability a registered variable exposes to its
// World so the barrier engine can apply puts and satisfy gets without
// knowing the variable's element type (§9's "small capability set").
type VariableEntry interface {
	// ElementSize returns the fixed wire size, in bytes, of one element.
	ElementSize() int

	// ElementCount returns how many addressable elements this variable
	// currently holds (1 for a scalar Variable, the array length for a
	// Coarray).
	ElementCount() int

	// Snapshot returns the bytes of count elements starting at offset,
	// as they stood at the moment Snapshot is called. The barrier engine
	// calls this once per barrier for each variable with an outstanding
	// get, before any puts of that barrier are applied, so that gets
	// observe pre-put state (§4.1 phase 3).
	Snapshot(offset, count int) ([]byte, error)

	// Write applies a put: it decodes and stores count elements starting
	// at offset from data. Writes from a single source arrive
	// concatenated in source order; the engine serializes calls across
	// sources in a deterministic-per-run but otherwise unspecified order
	// (§4.1 phase 2).
	Write(offset, count int, data []byte) error
}

// QueueEntry is the capability a registered queue exposes to its World
// for barrier-time delivery (§4.5, §6 "Queue-base delivery hook").
type QueueEntry interface {
	// GetBuffer is called once per barrier, before the Push calls and
	// only for a queue that has messages arriving, with the total byte
	// size of those messages, so the queue can pre-size its typed
	// delivery buffer. The local engine does not write into the returned
	// slice, and Queue and ArrayQueue both return nil.
	GetBuffer(totalIncomingBytes int) []byte

	// PushOne decodes one message from payload into the queue's typed
	// delivery buffer.
	PushOne(payload []byte) error

	// PushArray decodes one array-valued message: count elements of
	// elemSize bytes from elems, plus any trailing tuple fields from
	// tail.
	PushArray(elemSize, count int, elems, tail []byte) error

	// Clear empties the delivery buffer. Called at the start of the next
	// barrier, per the delivery buffer contract (§4.5).
	Clear()
}

// World is the per-processor façade every backend must implement. It
// owns the registration tables, runs the barrier, and is the sole path
// through which Variable, Coarray, Future and Queue schedule
// communication. Between two calls to Sync a World is owned by exactly
// one goroutine (§5); it is not safe to share across concurrent callers.
type World interface {
	// ActiveProcessors returns P, the processor count fixed at spawn.
	ActiveProcessors() int

	// ProcessorID returns this world's rank in [0, P).
	ProcessorID() Processor

	// Sync is the collective barrier. It blocks until every processor in
	// the group has called Sync the same number of times, then runs the
	// four delivery phases of §4.1 and returns.
	Sync(ctx context.Context) error

	// Generation returns the number of barriers completed so far. A
	// Future created by a get issued while Generation() == g resolves
	// once Generation() > g, i.e. after the next Sync returns.
	Generation() int

	// Log defers msg until the next Sync returns, then flushes it
	// together with every other processor's buffered lines in
	// processor-id order, preserving attribution (§4.1, §7).
	Log(msg string)

	// RegisterVariable assigns the lowest unused registration id to v
	// and returns it. Collective: every processor must call this (and
	// the matching UnregisterVariable) in the same program order.
	RegisterVariable(v VariableEntry) RegistrationID

	// UnregisterVariable releases id, returning it to the freelist.
	UnregisterVariable(id RegistrationID)

	// RegisterQueue assigns the lowest unused registration id to q and
	// returns it, under the same collective-order contract as
	// RegisterVariable.
	RegisterQueue(q QueueEntry) RegistrationID

	// UnregisterQueue releases id, returning it to the freelist.
	UnregisterQueue(id RegistrationID)

	// PutVar schedules a write of count elements of data, starting at
	// elemOffset, into the variable identified by varID on processor
	// dst. The bytes in data are captured now, not at the barrier
	// (§4.2 put semantics).
	PutVar(dst Processor, varID RegistrationID, elemOffset, count int, data []byte) error

	// GetVar schedules a read of count elements starting at elemOffset
	// from the variable identified by varID on processor src. slot must
	// be exactly count*elemSize bytes and must remain valid until the
	// next Sync returns (§4.2 get semantics, §4.4).
	GetVar(src Processor, varID RegistrationID, elemOffset, count int, slot []byte) error

	// SendMsg schedules delivery of one message's already-encoded
	// payload to the queue identified by queueID on processor dst.
	SendMsg(dst Processor, queueID RegistrationID, payload []byte) error

	// SendManyMsg schedules delivery of one array-valued message: count
	// elements of elemSize bytes from elems, plus trailing tuple field
	// bytes from tail, to the queue identified by queueID on processor
	// dst.
	SendManyMsg(dst Processor, queueID RegistrationID, elems []byte, elemSize, count int, tail []byte) error

	// Close releases this processor's resources. It is not collective;
	// backends that need a clean collective teardown should expose that
	// at the group level (see local.Group).
	Close() error
}
