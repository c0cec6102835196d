package bsp

import "github.com/jkazl/go-bsp/pkg/bsp/definition"

// Configuration holds everything a backend needs to join a processor
// into a world: one struct, built through functional options, with a
// constructor providing sane defaults.
type Configuration struct {
	// Processors is P, the processor count fixed for the group.
	Processors int

	// Logger receives deferred, attributed diagnostics (§4.1, §7).
	Logger definition.Logger

	// Metrics, if non-nil, receives barrier/queue instrumentation. See
	// package metrics.
	Metrics MetricsSink

	// StrictPuts enables the debug-mode overlap detection described in
	// §9's open question: cross-source overlapping puts into the same
	// destination element range are rejected rather than left undefined.
	StrictPuts bool
}

// MetricsSink is the narrow surface local.World reports to; it is
// satisfied by *metrics.Collector (package metrics) or left nil.
type MetricsSink interface {
	ObserveBarrier(seconds float64)
	IncBlocked()
	DecBlocked()
	AddDelivered(queue RegistrationID, n int)
}

// Option configures a Configuration built by DefaultConfiguration.
type Option func(*Configuration)

// WithLogger overrides the default logger.
func WithLogger(logger definition.Logger) Option {
	return func(c *Configuration) { c.Logger = logger }
}

// WithMetrics attaches a MetricsSink.
func WithMetrics(sink MetricsSink) Option {
	return func(c *Configuration) { c.Metrics = sink }
}

// WithStrictPuts turns on cross-source overlapping-put detection.
func WithStrictPuts() Option {
	return func(c *Configuration) { c.StrictPuts = true }
}

// DefaultConfiguration returns a Configuration for a group of p
// processors with a DefaultLogger attached.
func DefaultConfiguration(p int, opts ...Option) *Configuration {
	c := &Configuration{
		Processors: p,
		Logger:     definition.NewDefaultLogger(-1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
