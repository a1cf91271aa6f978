package types

// HealthReport is the result of a full overlay health check. Each field
// counts violations of one invariant class; a healthy overlay reports zero
// everywhere.
type HealthReport struct {
	// Nodes and Keys describe the overlay size at check time.
	Nodes int
	Keys  int

	// SuccessorAsymmetry counts nodes n where n.successor.predecessor != n.
	SuccessorAsymmetry int

	// BrokenCycle counts nodes unreachable by walking successor links from
	// the lowest id. Zero means the successor relation is a single cycle.
	BrokenCycle int

	// StaleFingers counts sampled finger entries that do not point at the
	// owner of their target position.
	StaleFingers int

	// MisplacedKeys counts stored entries whose owner is not the successor
	// of their hashed name.
	MisplacedKeys int
}

// OK reports whether the check found no violations.
func (r HealthReport) OK() bool {
	return r.SuccessorAsymmetry == 0 && r.BrokenCycle == 0 &&
		r.StaleFingers == 0 && r.MisplacedKeys == 0
}

// Total returns the number of violations across all classes.
func (r HealthReport) Total() int {
	return r.SuccessorAsymmetry + r.BrokenCycle + r.StaleFingers + r.MisplacedKeys
}

// NodeLoad describes the load of a single node.
type NodeLoad struct {
	Keys    int
	Bytes   int
	Lookups uint64
	Hops    uint64
}

// NetworkStats is a point-in-time summary of the overlay, the Go form of the
// counters the overlay also feeds to its sink.
type NetworkStats struct {
	BitLength int
	RingSize  uint64
	Nodes     int
	Keys      int
	Bytes     int
	Seq       uint64
	Loads     map[uint64]NodeLoad
}
