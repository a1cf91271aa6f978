package impl

import (
	"time"

	"go.dedis.ch/chord/overlay/impl/ring"
	"go.dedis.ch/chord/storage"
	"go.dedis.ch/chord/types"
	"golang.org/x/xerrors"
)

// InsertNode implements overlay.Topology
func (net *network) InsertNode(id uint64) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	start := time.Now()

	if id >= net.size {
		err := xerrors.Errorf("insert %d: %w", id, types.ErrIDOutOfRange)
		net.record(types.EventJoin, id, 0, 0, start, err)
		return err
	}
	if _, exists := net.nodes[id]; exists {
		err := xerrors.Errorf("insert %d: %w", id, types.ErrIDConflict)
		net.record(types.EventJoin, id, 0, 0, start, err)
		return err
	}

	n := newNode(net, id)

	if len(net.nodes) == 0 {
		// First insert: the overlay transitions from empty to active with a
		// singleton ring.
		n.becomeSingleton()
		net.nodes[id] = n
		net.record(types.EventJoin, id, 0, 0, start, nil)
		return nil
	}

	introducer := net.entryNode()
	n.join(introducer)
	net.nodes[id] = n

	// One full stabilization sweep. The new node goes first so its successor
	// adopts it as predecessor before the old predecessor stabilizes; a
	// single pass then restores both links.
	n.stabilize()
	for _, other := range net.sortedIDs() {
		if other == id {
			continue
		}
		net.nodes[other].stabilize()
	}
	for i := 0; i < net.m; i++ {
		n.fixFinger(i)
	}

	// The new node took over (predecessor, id] from its successor; move the
	// stored entries that fall inside that range.
	if succ, ok := net.resolve(n.successor); ok && succ != n && n.hasPred {
		succ.transferKeysTo(n, func(it storage.Item) bool {
			return ring.InHalfOpen(it.Key, n.predecessor, n.id)
		})
	}

	net.record(types.EventJoin, id, 0, 0, start, nil)
	return nil
}

// RemoveNode implements overlay.Topology
func (net *network) RemoveNode(id uint64) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	start := time.Now()

	n, exists := net.nodes[id]
	if !exists {
		err := xerrors.Errorf("remove %d: %w", id, types.ErrNodeNotFound)
		net.record(types.EventLeave, id, 0, 0, start, err)
		return err
	}
	if len(net.nodes) == 1 {
		err := xerrors.Errorf("remove %d: %w", id, types.ErrLastNodeRemoval)
		net.record(types.EventLeave, id, 0, 0, start, err)
		return err
	}

	// Relink around the leaving node using the node table as ground truth,
	// so a mid-convergence ring still comes out whole.
	ids := net.sortedIDs()
	pos, _ := indexOf(ids, id)
	succID := ids[(pos+1)%len(ids)]
	predID := ids[(pos-1+len(ids))%len(ids)]

	succ := net.nodes[succID]
	pred := net.nodes[predID]

	n.transferKeysTo(succ, func(storage.Item) bool { return true })

	pred.successor = succID
	succ.predecessor = predID
	succ.hasPred = true
	delete(net.nodes, id)

	// Any finger still referencing the leaving node is refreshed by
	// re-routing to the owner of its target position.
	for _, other := range net.sortedIDs() {
		v := net.nodes[other]
		if v.successor == id {
			v.successor = succID
		}
		if v.hasPred && v.predecessor == id {
			v.hasPred = false
		}
		for i, f := range v.fingers {
			if f == id {
				v.fingers[i], _ = v.findSuccessor(v.fingerTarget(i))
			}
		}
	}

	net.record(types.EventLeave, id, 0, 0, start, nil)
	return nil
}

// indexOf returns the position of id in the sorted slice.
func indexOf(ids []uint64, id uint64) (int, bool) {
	for i, v := range ids {
		if v == id {
			return i, true
		}
	}
	return 0, false
}

// StabilizeAll implements overlay.Maintenance
func (net *network) StabilizeAll() bool {
	net.mu.Lock()
	defer net.mu.Unlock()

	start := time.Now()
	changed := net.stabilizeSweep()
	net.record(types.EventStabilize, 0, 0, 0, start, nil)
	return changed
}

// stabilizeSweep runs one stabilization pass over every node, then one
// fix-finger pass over every finger of every node, and reports whether
// anything changed.
func (net *network) stabilizeSweep() bool {
	changed := false
	for _, id := range net.sortedIDs() {
		if net.nodes[id].stabilize() {
			changed = true
		}
	}
	for _, id := range net.sortedIDs() {
		n := net.nodes[id]
		for i := 0; i < net.m; i++ {
			if n.fixFinger(i) {
				changed = true
			}
		}
	}
	return changed
}

// Rebalance implements overlay.Maintenance
func (net *network) Rebalance() error {
	net.mu.Lock()
	defer net.mu.Unlock()

	start := time.Now()
	for pass := uint(0); pass < net.conf.StabilizePassesCap; pass++ {
		if !net.stabilizeSweep() {
			net.record(types.EventStabilize, 0, 0, int(pass), start, nil)
			return nil
		}
	}

	err := xerrors.Errorf("no quiescence after %d passes: %w",
		net.conf.StabilizePassesCap, types.ErrRebalanceDivergence)
	net.record(types.EventStabilize, 0, 0,
		int(net.conf.StabilizePassesCap), start, err)
	return err
}
