package local

import "github.com/jkazl/go-bsp/pkg/bsp"

type pendingPut struct {
	dst    bsp.Processor
	varID  bsp.RegistrationID
	offset int
	count  int
	data   []byte
}

type pendingGet struct {
	src    bsp.Processor
	varID  bsp.RegistrationID
	offset int
	count  int
	slot   []byte
}

// pendingMessage is either a single-payload send or an array-valued
// send-many, tagged by array. Both kinds share one slice per world so
// relative call order between Send and SendMany is preserved, matching
// "sends to the same (destination, queue) ... totally ordered by send
// order" (§5) regardless of which send variant issued them.
type pendingMessage struct {
	dst     bsp.Processor
	queueID bsp.RegistrationID
	array   bool
	traceID string

	// single-payload form
	payload []byte

	// array-valued form
	elems    []byte
	elemSize int
	count    int
	tail     []byte
}
