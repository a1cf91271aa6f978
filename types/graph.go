package types

// Edge labels used by the graph projection. Finger edges are labeled
// "finger_i" with i the finger index.
const (
	EdgeSuccessor   = "successor"
	EdgePredecessor = "predecessor"
)

// GraphEdge is one labeled edge of the overlay projection. Duplicates are
// not suppressed: a finger that coincides with the successor yields both a
// finger edge and a successor edge, and consumers may collapse them.
type GraphEdge struct {
	From  uint64
	To    uint64
	Label string
}

// StoreAnnotation marks that a node holds the value stored under Name at
// ring position Key.
type StoreAnnotation struct {
	NodeID uint64
	Key    uint64
	Name   string
}

// Graph is the read-only projection of the overlay topology, suitable for
// handing to a renderer.
type Graph struct {
	Edges  []GraphEdge
	Stores []StoreAnnotation
}
