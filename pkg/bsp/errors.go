package bsp

import "golang.org/x/xerrors"

var (
	// ErrProcessorOutOfRange is returned when a put, get, send or
	// send-many names a destination processor outside [0, P).
	ErrProcessorOutOfRange = xerrors.New("bsp: destination processor out of range")

	// ErrUnknownRegistration is returned when an operation references a
	// variable or queue registration id that is not currently registered.
	ErrUnknownRegistration = xerrors.New("bsp: unknown registration id")

	// ErrElementRange is returned when a put/get/slice names an element
	// offset/count outside the addressed object's bounds.
	ErrElementRange = xerrors.New("bsp: element offset/count out of range")

	// ErrOverlappingPut is returned, only when a World was constructed
	// with WithStrictPuts, when two puts scheduled in the same superstep
	// from different sources write overlapping element ranges of the same
	// destination variable. The core leaves this undefined in general
	// (§9); strict mode rejects it where cheaply detectable.
	ErrOverlappingPut = xerrors.New("bsp: overlapping puts from different sources in the same superstep")

	// ErrCollectiveMismatch is returned when a backend can detect that
	// processors created a collective object (variable, queue, coarray)
	// in different program order.
	ErrCollectiveMismatch = xerrors.New("bsp: collective object registration order mismatch")

	// ErrFutureNotReady is returned by Future.Value when read before the
	// barrier that resolves it has completed.
	ErrFutureNotReady = xerrors.New("bsp: future read before its barrier completed")

	// ErrWorldClosed is returned by a put, get, send or send-many issued
	// after the world has been closed.
	ErrWorldClosed = xerrors.New("bsp: world closed")

	// ErrUnsupportedSend is returned when a message arrives at a queue
	// shaped for the other send variant: an array-valued send_many
	// landing on a scalar Queue, or a plain send landing on an
	// ArrayQueue.
	ErrUnsupportedSend = xerrors.New("bsp: send shape does not match the queue's declared message type")
)
