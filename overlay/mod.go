package overlay

import (
	"go.dedis.ch/chord/codec"
	"go.dedis.ch/chord/types"
)

// Overlay defines the interface of a Chord overlay. It embeds all the
// interfaces that an implementation has to provide.
type Overlay interface {
	Topology
	DataStore
	Maintenance
	Inspection
}

// Factory is the type of function we are using to create new instances of
// overlays.
type Factory func(Configuration) (Overlay, error)

// Sink is the passive observer the overlay reports events to. A sink must
// never block; a panicking sink is swallowed by the overlay.
type Sink interface {
	Record(evt types.Event)
}

// Configuration is the struct that contains the configuration arguments when
// creating an overlay.
type Configuration struct {
	// BitLength is the ring exponent m. The keyspace holds 2^m positions and
	// every finger table has m entries. Required, between 1 and 32.
	BitLength int

	// InitialIDs is the optional set of node identifiers the overlay starts
	// with. They must be pairwise distinct and inside [0, 2^m). The nodes
	// are linked into a ring in sorted-id order with exact finger tables, so
	// the overlay is converged at return.
	// Default: empty overlay
	InitialIDs []uint64

	// StabilizePassesCap bounds the number of full stabilization sweeps a
	// rebalance may run before reporting divergence.
	// Default: ceil(log2(2^m)) + 2 = m + 2
	StabilizePassesCap uint

	// HealthFingerSample is the number of finger entries sampled per node
	// during a health check. 0 checks every entry.
	// Default: 0
	HealthFingerSample int

	// ValueCodec wraps values on put and unwraps them on get. The overlay
	// stores the wrapped form and never interprets it.
	// Default: codec.Identity
	ValueCodec codec.Codec

	// Sink receives one event per overlay operation.
	// Default: discard all events
	Sink Sink
}
