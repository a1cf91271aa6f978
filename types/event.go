package types

import "time"

// EventKind names an overlay operation observed by a sink.
type EventKind string

const (
	EventCreate    EventKind = "create"
	EventJoin      EventKind = "join"
	EventLeave     EventKind = "leave"
	EventPut       EventKind = "put"
	EventLookup    EventKind = "lookup"
	EventDelete    EventKind = "delete"
	EventStabilize EventKind = "stabilize"
	EventSnapshot  EventKind = "snapshot"
	EventRestore   EventKind = "restore"

	// EventViolation reports an internal invariant violation that the next
	// stabilization pass is expected to repair, e.g. a finger entry
	// referencing a node that has left the overlay.
	EventViolation EventKind = "violation"
)

// Event is the record handed to a sink after each overlay operation.
//
// - implements the observation contract of the overlay: a sink receives one
// event per operation and must never block the caller.
type Event struct {
	// OpID is a unique identifier of the operation. Generated with
	// xid.New().String().
	OpID string

	// Seq is the overlay operation sequence number. It increases by one for
	// every recorded event, so sinks can detect gaps introduced by their own
	// sampling.
	Seq uint64

	// Kind tells which operation produced the event.
	Kind EventKind

	// NodeID is the node the operation resolved to: the owner for put,
	// lookup and delete, the subject for join and leave.
	NodeID uint64

	// Key is the ring position involved, when the operation has one.
	Key uint64

	// Hops is the number of find-successor steps the operation used. The
	// stabilize event recorded by a rebalance carries instead the number of
	// sweeps that changed the overlay.
	Hops int

	// Elapsed is the wall-clock duration of the operation.
	Elapsed time.Duration

	// Err carries the error message when the operation failed, empty
	// otherwise.
	Err string
}
