package local

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jkazl/go-bsp/pkg/bsp"
	"golang.org/x/sync/errgroup"
)

// Group bootstraps P worlds collectively: a single call produces every
// processor's World, all sharing one barrier and one registration
// ledger.
type Group struct {
	config *bsp.Configuration
	worlds []*World

	barrier *rendezvous

	ledgerMu   sync.Mutex
	ledger     []collectiveSig
	mismatches []error
	superstep  int
}

type collectiveSig struct {
	kind string
	id   int
	size int
}

// NewGroup bootstraps cfg.Processors worlds sharing one barrier.
func NewGroup(cfg *bsp.Configuration) *Group {
	g := &Group{config: cfg}
	g.worlds = make([]*World, cfg.Processors)
	for i := range g.worlds {
		g.worlds[i] = newWorld(bsp.Processor(i), g)
	}
	g.barrier = newRendezvous(cfg.Processors, g.runPhases)
	return g
}

// Worlds returns every processor's World, indexed by rank.
func (g *Group) Worlds() []*World { return g.worlds }

// World returns the World for processor rank p.
func (g *Group) World(p bsp.Processor) *World { return g.worlds[p] }

func (g *Group) worldAt(p bsp.Processor) (*World, error) {
	if p < 0 || int(p) >= len(g.worlds) {
		return nil, fmt.Errorf("processor %d: %w", p, bsp.ErrProcessorOutOfRange)
	}
	return g.worlds[p], nil
}

// checkCollective records (or validates against) the first-seen element
// size for each (kind, registration id) slot, detecting the "different
// creation order" programmer error of §4.1/§7 where cheaply possible.
// Mismatches do not abort the run (register_* has no error return in the
// World interface) but are logged and retained for CollectiveErrors.
func (g *Group) checkCollective(who bsp.Processor, kind string, id, size int) {
	g.ledgerMu.Lock()
	defer g.ledgerMu.Unlock()
	for _, want := range g.ledger {
		if want.kind != kind || want.id != id {
			continue
		}
		if want.size != size {
			err := fmt.Errorf("processor %d registered %s#%d (size %d) but the first registration of that slot had size %d: %w",
				who, kind, id, size, want.size, bsp.ErrCollectiveMismatch)
			g.mismatches = append(g.mismatches, err)
			g.config.Logger.Errorf("%v", err)
		}
		return
	}
	g.ledger = append(g.ledger, collectiveSig{kind: kind, id: id, size: size})
}

// CollectiveErrors returns every detected collective-registration
// mismatch so far.
func (g *Group) CollectiveErrors() []error {
	g.ledgerMu.Lock()
	defer g.ledgerMu.Unlock()
	out := make([]error, len(g.mismatches))
	copy(out, g.mismatches)
	return out
}

// Superstep returns the number of barriers completed so far.
func (g *Group) Superstep() int {
	g.ledgerMu.Lock()
	defer g.ledgerMu.Unlock()
	return g.superstep
}

// Barrier returns the same monotonically increasing superstep counter as
// Superstep, for harness code that wants to observe progress without
// coupling to a specific processor's World.
func (g *Group) Barrier() int {
	return g.Superstep()
}

// runPhases executes the four logical phases of a barrier (§4.1) once,
// on behalf of whichever World happens to be the last to call Sync. It
// runs with every processor already quiesced in phase 1 by construction:
// no caller returns from Sync until this function returns.
func (g *Group) runPhases() error {
	var errs []error

	type snapKey struct {
		proc bsp.Processor
		id   bsp.RegistrationID
	}
	snapshots := make(map[snapKey][]byte)

	// Phase: snapshot every variable that has an outstanding get against
	// it, before any put of this superstep is applied, so gets observe
	// pre-put state (§4.1 phase 3).
	for _, w := range g.worlds {
		_, gets, _, _ := w.peekPending()
		for _, gt := range gets {
			key := snapKey{gt.src, gt.varID}
			if _, done := snapshots[key]; done {
				continue
			}
			srcWorld := g.worlds[gt.src]
			entry, ok := srcWorld.lookupVariable(gt.varID)
			if !ok {
				errs = append(errs, fmt.Errorf("superstep snapshot: %w", bsp.ErrUnknownRegistration))
				continue
			}
			data, err := entry.Snapshot(0, entry.ElementCount())
			if err != nil {
				errs = append(errs, err)
				continue
			}
			snapshots[key] = data
		}
	}

	// Phase 2: exchange puts, processors visited in ascending rank order
	// so that cross-source resolution is deterministic-per-run (§4.1).
	type rangeKey struct {
		proc bsp.Processor
		id   bsp.RegistrationID
	}
	type sourcedPut struct {
		src bsp.Processor
		put pendingPut
	}
	written := make(map[rangeKey][]sourcedPut)
	for _, w := range g.worlds {
		puts, _, _, _ := w.peekPending()
		for _, p := range puts {
			dstWorld := g.worlds[p.dst]
			entry, ok := dstWorld.lookupVariable(p.varID)
			if !ok {
				errs = append(errs, fmt.Errorf("superstep put to processor %d: %w", p.dst, bsp.ErrUnknownRegistration))
				continue
			}
			if g.config.StrictPuts {
				key := rangeKey{p.dst, p.varID}
				for _, prior := range written[key] {
					if prior.src != w.id && overlaps(prior.put, p) {
						errs = append(errs, fmt.Errorf("superstep put to processor %d variable %d [%d:%d) vs [%d:%d): %w",
							p.dst, p.varID, prior.put.offset, prior.put.offset+prior.put.count, p.offset, p.offset+p.count, bsp.ErrOverlappingPut))
					}
				}
				written[key] = append(written[key], sourcedPut{src: w.id, put: p})
			}
			if err := entry.Write(p.offset, p.count, p.data); err != nil {
				errs = append(errs, err)
			}
		}
	}

	// Phase 3: satisfy gets from the pre-put snapshots.
	for _, w := range g.worlds {
		_, gets, _, _ := w.peekPending()
		for _, gt := range gets {
			key := snapKey{gt.src, gt.varID}
			full, ok := snapshots[key]
			if !ok {
				continue
			}
			srcWorld := g.worlds[gt.src]
			entry, ok := srcWorld.lookupVariable(gt.varID)
			if !ok {
				continue
			}
			elemSize := entry.ElementSize()
			lo, hi := gt.offset*elemSize, (gt.offset+gt.count)*elemSize
			if hi > len(full) {
				errs = append(errs, fmt.Errorf("superstep get from processor %d: %w", gt.src, bsp.ErrElementRange))
				continue
			}
			copy(gt.slot, full[lo:hi])
		}
	}

	// Phase 4: deliver queues. Clear every queue's delivery buffer first
	// (it persisted since the previous barrier's fill, per §4.5) then
	// refill in source-ascending, per-source call order.
	type queueKey struct {
		proc bsp.Processor
		id   bsp.RegistrationID
	}
	for _, w := range g.worlds {
		for _, q := range w.queueEntries() {
			q.Clear()
		}
	}
	totals := make(map[queueKey]int)
	for _, w := range g.worlds {
		_, _, msgs, _ := w.peekPending()
		for _, m := range msgs {
			dstWorld := g.worlds[m.dst]
			if _, ok := dstWorld.lookupQueue(m.queueID); !ok {
				errs = append(errs, fmt.Errorf("superstep send to processor %d queue %d: %w", m.dst, m.queueID, bsp.ErrUnknownRegistration))
				continue
			}
			key := queueKey{m.dst, m.queueID}
			if m.array {
				totals[key] += len(m.elems) + len(m.tail)
			} else {
				totals[key] += len(m.payload)
			}
		}
	}
	// GetBuffer is a pre-sizing hint: a queue implementation may grow its
	// own typed delivery slice once, up front, instead of repeatedly on
	// every Push call (§4.6's motivation for the scaler, applied here to
	// the delivery buffer itself). Queue does this; ArrayQueue ignores it.
	// The returned slice is not used.
	for key, total := range totals {
		dstWorld := g.worlds[key.proc]
		if entry, ok := dstWorld.lookupQueue(key.id); ok {
			entry.GetBuffer(total)
		}
	}
	delivered := make(map[queueKey]int)
	for _, w := range g.worlds {
		_, _, msgs, _ := w.peekPending()
		for _, m := range msgs {
			dstWorld := g.worlds[m.dst]
			entry, ok := dstWorld.lookupQueue(m.queueID)
			if !ok {
				continue
			}
			key := queueKey{m.dst, m.queueID}
			g.config.Logger.Debugf("delivering message %s to processor %d queue %d", m.traceID, m.dst, m.queueID)
			if m.array {
				if err := entry.PushArray(m.elemSize, m.count, m.elems, m.tail); err != nil {
					errs = append(errs, err)
					continue
				}
			} else {
				if err := entry.PushOne(m.payload); err != nil {
					errs = append(errs, err)
					continue
				}
			}
			delivered[key]++
		}
	}
	if g.config.Metrics != nil {
		for key, n := range delivered {
			g.config.Metrics.AddDelivered(key.id, n)
		}
	}

	// Phase: flush deferred, attributed logs in processor-id order, and
	// clear every world's pending state for the next superstep.
	keys := make([]int, 0, len(g.worlds))
	for i := range g.worlds {
		keys = append(keys, i)
	}
	sort.Ints(keys)
	for _, i := range keys {
		w := g.worlds[i]
		_, _, _, logs := w.takePending()
		for _, line := range logs {
			g.config.Logger.Info(line)
		}
	}
	g.ledgerMu.Lock()
	g.superstep++
	g.ledgerMu.Unlock()

	return joinErrors(errs)
}

func overlaps(a, b pendingPut) bool {
	return a.offset < b.offset+b.count && b.offset < a.offset+a.count
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// Run fans cfg.Processors goroutines out, one per World, each invoking fn
// with its own World. The first fatal error returned by any fn cancels
// ctx for the rest.
func (g *Group) Run(ctx context.Context, fn func(ctx context.Context, w *World) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, w := range g.worlds {
		w := w
		eg.Go(func() error {
			return fn(ctx, w)
		})
	}
	return eg.Wait()
}

// Close releases every processor's World. It is not itself collective
// with respect to Sync (no further barrier is run) but is the group-level
// teardown counterpart to NewGroup.
func (g *Group) Close() error {
	var errs []error
	for _, w := range g.worlds {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}
