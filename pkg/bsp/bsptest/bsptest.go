// Package bsptest collects the small bootstrap and timing helpers the
// package tests share for driving a cluster of local processors.
package bsptest

import (
	"context"
	"testing"
	"time"

	"github.com/jkazl/go-bsp/pkg/bsp"
	"github.com/jkazl/go-bsp/pkg/bsp/local"
	"golang.org/x/sync/errgroup"
)

// NewGroup bootstraps a p-processor local.Group for a test, with its
// logger's debug output left off by default.
func NewGroup(t *testing.T, p int, opts ...bsp.Option) *local.Group {
	t.Helper()
	cfg := bsp.DefaultConfiguration(p, opts...)
	return local.NewGroup(cfg)
}

// Run spawns one goroutine per processor in g, each running fn against
// its own World, waits for all of them, and fails t on the first error.
func Run(t *testing.T, ctx context.Context, g *local.Group, fn func(ctx context.Context, w *local.World) error) {
	t.Helper()
	eg, ctx := errgroup.WithContext(ctx)
	for _, w := range g.Worlds() {
		w := w
		eg.Go(func() error { return fn(ctx, w) })
	}
	if err := eg.Wait(); err != nil {
		t.Fatalf("bsptest.Run: %v", err)
	}
}

// WaitThisOrTimeout runs cb in its own goroutine and reports whether it
// finished before duration elapsed.
func WaitThisOrTimeout(cb func(), duration time.Duration) bool {
	done := make(chan struct{})
	go func() {
		cb()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(duration):
		return false
	}
}
