package local

import "context"

// rendezvous is a reusable (cyclic) barrier for exactly n parties. The
// last party to call await runs action once, then releases every other
// waiter with action's result.
type rendezvous struct {
	n       int
	release chan struct{}

	mu      chan struct{} // binary mutex, selectable for symmetry with release
	waiting int
	lastErr error
	action  func() error
}

func newRendezvous(n int, action func() error) *rendezvous {
	r := &rendezvous{
		n:       n,
		release: make(chan struct{}),
		mu:      make(chan struct{}, 1),
		action:  action,
	}
	r.mu <- struct{}{}
	return r
}

func (r *rendezvous) lock()   { <-r.mu }
func (r *rendezvous) unlock() { r.mu <- struct{}{} }

// await blocks until all n parties have called it in the current
// generation, or ctx is done first. The party that completes the
// generation runs action inline before anyone is released.
func (r *rendezvous) await(ctx context.Context) error {
	r.lock()
	myRelease := r.release
	r.waiting++
	if r.waiting == r.n {
		r.lastErr = r.action()
		r.waiting = 0
		r.release = make(chan struct{})
		err := r.lastErr
		close(myRelease)
		r.unlock()
		return err
	}
	r.unlock()

	select {
	case <-myRelease:
		r.lock()
		err := r.lastErr
		r.unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
