package overlay

import "go.dedis.ch/chord/types"

// Topology defines the operations that change the set of live nodes.
type Topology interface {
	// InsertNode adds a node at the given identifier and runs the join
	// protocol: the new node is introduced by a live node, one full
	// stabilization sweep relinks the ring, the new node's fingers are
	// fixed, and the keys it is now responsible for migrate from its
	// successor. Either every side effect happens or none.
	InsertNode(id uint64) error

	// RemoveNode takes a node out of the overlay. Its keys move to its
	// successor before the node is dropped, and finger entries referencing
	// it are refreshed. Removing the last node is refused.
	RemoveNode(id uint64) error
}

// DataStore defines the named-value operations of the overlay.
type DataStore interface {
	// Put stores a value under a name at the successor of the name's hash
	// and returns the identifier of the owning node. A previous value under
	// the same name is overwritten.
	Put(name string, value []byte) (uint64, error)

	// Lookup routes to the owner of the name's hash from an arbitrary entry
	// node and returns the stored value.
	Lookup(name string) ([]byte, error)

	// Delete removes the value stored under a name from its owner.
	Delete(name string) error
}

// Maintenance defines the stabilization and durability operations.
type Maintenance interface {
	// StabilizeAll runs one stabilization pass on every node, then one
	// fix-finger pass over every finger of every node. It returns whether
	// any link or finger changed.
	StabilizeAll() bool

	// Rebalance runs stabilization sweeps until a pass makes no change,
	// bounded by the configured cap.
	Rebalance() error

	// Snapshot captures the full overlay state as a document.
	Snapshot() *types.SnapshotDocument

	// Restore rebuilds the overlay from a document. On any validation
	// failure the previous overlay state is kept.
	Restore(doc *types.SnapshotDocument) error
}

// Inspection defines the read-only views of the overlay.
type Inspection interface {
	// HealthCheck verifies the overlay invariants and reports violation
	// counts by class.
	HealthCheck() types.HealthReport

	// Graph emits the labeled adjacency projection of the overlay.
	Graph() types.Graph

	// Stats summarizes the overlay: sizes, per-node loads, and the
	// operation sequence number.
	Stats() types.NetworkStats

	// BitLength returns the ring exponent m.
	BitLength() int

	// RingSize returns the number of positions on the ring, 2^m.
	RingSize() uint64

	// NodeIDs returns the identifiers of all live nodes in ascending order.
	NodeIDs() []uint64
}
