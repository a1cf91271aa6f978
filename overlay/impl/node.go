package impl

import (
	"go.dedis.ch/chord/overlay/impl/ring"
	"go.dedis.ch/chord/storage"
)

// node is one participant of the overlay. Neighbors and fingers are held as
// identifiers, never as pointers: the overlay table is the single place a
// live node can be resolved, which makes removal a table deletion and keeps
// the successor/predecessor cycle free of ownership cycles.
type node struct {
	net *network

	id uint64

	successor   uint64
	predecessor uint64
	hasPred     bool

	// fingers[i] is the identifier of the node owning (id + 2^i) mod 2^m.
	// fingers[0] equals the successor once stabilization has converged.
	fingers []uint64

	store storage.Store

	// Per-node counters, reported through Stats.
	lookups  uint64
	hopTotal uint64
}

func newNode(net *network, id uint64) *node {
	n := &node{
		net:     net,
		id:      id,
		fingers: make([]uint64, net.m),
		store:   storage.NewMemoryStore(),
	}
	return n
}

// fingerTarget returns the ring position finger i is responsible for,
// (id + 2^i) mod 2^m.
func (n *node) fingerTarget(i int) uint64 {
	return (n.id + uint64(1)<<uint(i)) & (n.net.size - 1)
}

// becomeSingleton initializes the node as the only member of the ring: it is
// its own successor and predecessor and every finger points at itself.
func (n *node) becomeSingleton() {
	n.successor = n.id
	n.predecessor = n.id
	n.hasPred = true
	for i := range n.fingers {
		n.fingers[i] = n.id
	}
}

// join links the node behind an introducer: the successor is whoever the
// introducer finds responsible for this id, the predecessor stays absent
// until the next stabilization, and the fingers start out pointing at the
// successor.
func (n *node) join(introducer *node) {
	succ, _ := introducer.findSuccessor(n.id)
	n.successor = succ
	n.hasPred = false
	for i := range n.fingers {
		n.fingers[i] = succ
	}
}

// findSuccessor returns the identifier of the node responsible for key and
// the number of hops the resolution took. Each delegation, including the
// final step onto the successor, counts as one hop.
func (n *node) findSuccessor(key uint64) (uint64, int) {
	if ring.InHalfOpen(key, n.id, n.successor) {
		return n.successor, 1
	}

	next := n.closestPrecedingFinger(key)
	if next == n.id {
		// No finger precedes the key; the successor is the best answer we
		// have. Stale tables recover on the next fix-finger pass.
		return n.successor, 1
	}

	target, ok := n.net.resolve(next)
	if !ok {
		n.net.danglingRef("find_successor", next)
		return n.successor, 1
	}

	owner, hops := target.findSuccessor(key)
	return owner, hops + 1
}

// closestPrecedingFinger scans the finger table from the farthest entry down
// and returns the first live finger strictly inside (n.id, key). It returns
// n.id when no finger precedes the key.
func (n *node) closestPrecedingFinger(key uint64) uint64 {
	for i := len(n.fingers) - 1; i >= 0; i-- {
		f := n.fingers[i]
		if f == n.id {
			continue
		}
		if !ring.InOpen(f, n.id, key) {
			continue
		}
		if _, ok := n.net.resolve(f); !ok {
			n.net.danglingRef("closest_preceding_finger", f)
			continue
		}
		return f
	}
	return n.id
}

// stabilize adopts the successor's predecessor when it sits between this
// node and the successor, then notifies the successor about this node. It
// reports whether any link changed.
func (n *node) stabilize() bool {
	succ, ok := n.net.resolve(n.successor)
	if !ok {
		n.net.danglingRef("stabilize", n.successor)
		return false
	}

	changed := false
	if succ.hasPred && succ.predecessor != n.id {
		if x, live := n.net.resolve(succ.predecessor); live && ring.InOpen(x.id, n.id, n.successor) {
			n.successor = x.id
			succ = x
			changed = true
		}
	}

	if succ.notify(n.id) {
		changed = true
	}
	return changed
}

// notify is called by a node that believes it is our predecessor. The
// candidate is adopted when no predecessor is known or when it sits between
// the current predecessor and this node.
func (n *node) notify(candidate uint64) bool {
	if !n.hasPred || ring.InOpen(candidate, n.predecessor, n.id) {
		if n.hasPred && n.predecessor == candidate {
			return false
		}
		n.predecessor = candidate
		n.hasPred = true
		return true
	}
	return false
}

// fixFinger refreshes finger i by routing to the owner of its target
// position. It reports whether the entry changed.
func (n *node) fixFinger(i int) bool {
	owner, _ := n.findSuccessor(n.fingerTarget(i))
	if n.fingers[i] == owner {
		return false
	}
	n.fingers[i] = owner
	return true
}

// ownsKey reports whether this node is responsible for the key, i.e. the key
// lies in (predecessor, id]. A node without a predecessor does not claim
// ownership and lets routing decide.
func (n *node) ownsKey(key uint64) bool {
	return n.hasPred && ring.InHalfOpen(key, n.predecessor, n.id)
}

// put stores the item at the responsible node, either locally or after
// routing to the owner. It returns the owner id and the hop count.
func (n *node) put(name string, it storage.Item) (uint64, int) {
	if n.ownsKey(it.Key) {
		_ = n.store.Put(name, it)
		return n.id, 0
	}

	owner, hops := n.findSuccessor(it.Key)
	if owner == n.id {
		_ = n.store.Put(name, it)
		return n.id, hops
	}

	target, ok := n.net.resolve(owner)
	if !ok {
		n.net.danglingRef("put", owner)
		_ = n.store.Put(name, it)
		return n.id, hops
	}
	_ = target.store.Put(name, it)
	return owner, hops
}

// get retrieves the item stored under the name, routing to the owner of the
// name's hash first. It returns the owner id and hop count alongside.
func (n *node) get(name string, key uint64) (storage.Item, uint64, int, error) {
	owner, hops := n.findSuccessor(key)

	target := n
	if owner != n.id {
		resolved, ok := n.net.resolve(owner)
		if !ok {
			n.net.danglingRef("get", owner)
			return storage.Item{}, owner, hops, storage.ErrNameNotFound
		}
		target = resolved
	}

	it, err := target.store.Get(name)
	return it, owner, hops, err
}

// transferKeysTo moves every stored item matching the predicate to dst. The
// move is all-or-nothing from the caller's perspective: it runs to
// completion inside a single maintenance step.
func (n *node) transferKeysTo(dst *node, match func(storage.Item) bool) int {
	names := n.store.Select(match)
	for _, name := range names {
		it, err := n.store.Get(name)
		if err != nil {
			continue
		}
		_ = dst.store.Put(name, it)
		_ = n.store.Delete(name)
	}
	return len(names)
}
