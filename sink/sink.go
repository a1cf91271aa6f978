// Package sink provides ready-made implementations of the overlay's event
// sink: discard, counter aggregation, structured logging, and fan-out.
package sink

import (
	"sync"

	"github.com/rs/zerolog"
	"go.dedis.ch/chord/overlay"
	"go.dedis.ch/chord/types"
)

// Nop discards every event.
type Nop struct{}

func (Nop) Record(types.Event) {}

// Counters aggregates events into the counters the overlay exposes:
// operations by kind, lookup hop totals, and per-node load.
type Counters struct {
	mu sync.Mutex

	operations map[types.EventKind]uint64
	errors     map[string]uint64
	nodeLoad   map[uint64]uint64

	lookups  uint64
	hopTotal uint64
}

// NewCounters creates an empty counter sink.
func NewCounters() *Counters {
	return &Counters{
		operations: make(map[types.EventKind]uint64),
		errors:     make(map[string]uint64),
		nodeLoad:   make(map[uint64]uint64),
	}
}

// Record implements overlay.Sink
func (c *Counters) Record(evt types.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.operations[evt.Kind]++
	if evt.Err != "" {
		c.errors[evt.Err]++
	}

	switch evt.Kind {
	case types.EventLookup:
		c.lookups++
		c.hopTotal += uint64(evt.Hops)
	case types.EventPut:
		c.nodeLoad[evt.NodeID]++
	}
}

// Operations returns a copy of the per-kind operation counts.
func (c *Counters) Operations() map[types.EventKind]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[types.EventKind]uint64, len(c.operations))
	for k, v := range c.operations {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the error counts, keyed by error message.
func (c *Counters) Errors() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]uint64, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

// NodeLoad returns a copy of the per-node placement counts.
func (c *Counters) NodeLoad() map[uint64]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[uint64]uint64, len(c.nodeLoad))
	for k, v := range c.nodeLoad {
		out[k] = v
	}
	return out
}

// AverageHops returns the mean hop count over all recorded lookups.
func (c *Counters) AverageHops() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lookups == 0 {
		return 0
	}
	return float64(c.hopTotal) / float64(c.lookups)
}

// Logging writes every event to a zerolog logger.
type Logging struct {
	logger zerolog.Logger
}

// NewLogging creates a sink that logs events at debug level.
func NewLogging(logger zerolog.Logger) *Logging {
	return &Logging{logger: logger}
}

// Record implements overlay.Sink
func (l *Logging) Record(evt types.Event) {
	e := l.logger.Debug().
		Str("op", evt.OpID).
		Uint64("seq", evt.Seq).
		Str("kind", string(evt.Kind)).
		Uint64("node", evt.NodeID).
		Int("hops", evt.Hops).
		Dur("elapsed", evt.Elapsed)
	if evt.Err != "" {
		e = e.Str("err", evt.Err)
	}
	e.Msg("overlay event")
}

// Multi forwards every event to each wrapped sink in order.
type Multi struct {
	sinks []overlay.Sink
}

// NewMulti creates a fan-out sink.
func NewMulti(sinks ...overlay.Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Record implements overlay.Sink
func (m *Multi) Record(evt types.Event) {
	for _, s := range m.sinks {
		s.Record(evt)
	}
}
