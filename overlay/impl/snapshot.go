package impl

import (
	"time"

	"go.dedis.ch/chord/overlay/impl/ring"
	"go.dedis.ch/chord/storage"
	"go.dedis.ch/chord/types"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"
)

// Snapshot implements overlay.Maintenance
func (net *network) Snapshot() *types.SnapshotDocument {
	net.mu.Lock()
	defer net.mu.Unlock()

	start := time.Now()

	doc := &types.SnapshotDocument{
		Version:   types.SnapshotVersion,
		BitLength: net.m,
		CreatedAt: time.Now().Unix(),
	}

	for _, id := range net.sortedIDs() {
		n := net.nodes[id]

		sn := types.SnapshotNode{
			ID:          id,
			SuccessorID: n.successor,
			FingerIDs:   make([]uint64, len(n.fingers)),
			Store:       []types.SnapshotItem{},
		}
		copy(sn.FingerIDs, n.fingers)
		if n.hasPred {
			pred := n.predecessor
			sn.PredecessorID = &pred
		}

		names := n.store.Names()
		slices.Sort(names)
		for _, name := range names {
			it, err := n.store.Get(name)
			if err != nil {
				continue
			}
			sn.Store = append(sn.Store, types.SnapshotItem{
				Key:   it.Key,
				Name:  name,
				Value: it.Value,
			})
		}

		doc.Nodes = append(doc.Nodes, sn)
	}

	net.record(types.EventSnapshot, 0, 0, 0, start, nil)
	return doc
}

// Restore implements overlay.Maintenance
func (net *network) Restore(doc *types.SnapshotDocument) error {
	net.mu.Lock()
	defer net.mu.Unlock()

	start := time.Now()

	fail := func(err error) error {
		net.record(types.EventRestore, 0, 0, 0, start, err)
		return err
	}

	if doc == nil || doc.Version != types.SnapshotVersion {
		return fail(xerrors.Errorf("restore: %w", types.ErrSnapshotVersionMismatch))
	}
	if doc.BitLength < 1 || doc.BitLength > ring.MaxBitLength {
		return fail(xerrors.Errorf("restore: bit length %d: %w",
			doc.BitLength, types.ErrSnapshotInconsistent))
	}
	if len(net.nodes) > 0 && doc.BitLength != net.m {
		return fail(xerrors.Errorf("restore: bit length %d does not match live overlay %d: %w",
			doc.BitLength, net.m, types.ErrSnapshotInconsistent))
	}
	if len(doc.Nodes) == 0 && len(net.nodes) > 0 {
		// An active overlay never transitions back to empty.
		return fail(xerrors.Errorf("restore: empty document onto active overlay: %w",
			types.ErrSnapshotInconsistent))
	}

	m := doc.BitLength
	size := ring.Size(m)

	rebuilt := make(map[uint64]*node, len(doc.Nodes))
	for _, sn := range doc.Nodes {
		if sn.ID >= size {
			return fail(xerrors.Errorf("restore: node %d: %w", sn.ID, types.ErrSnapshotInconsistent))
		}
		if _, dup := rebuilt[sn.ID]; dup {
			return fail(xerrors.Errorf("restore: duplicate node %d: %w", sn.ID, types.ErrSnapshotInconsistent))
		}
		if len(sn.FingerIDs) != m {
			return fail(xerrors.Errorf("restore: node %d finger table: %w", sn.ID, types.ErrSnapshotInconsistent))
		}

		n := &node{
			net:       net,
			id:        sn.ID,
			successor: sn.SuccessorID,
			fingers:   make([]uint64, m),
			store:     storage.NewMemoryStore(),
		}
		copy(n.fingers, sn.FingerIDs)
		if sn.PredecessorID != nil {
			n.predecessor = *sn.PredecessorID
			n.hasPred = true
		}
		for _, it := range sn.Store {
			_ = n.store.Put(it.Name, storage.Item{Key: it.Key, Value: it.Value})
		}
		rebuilt[sn.ID] = n
	}

	// Swap the rebuilt overlay in, verify it, and roll back when the
	// document does not describe a healthy ring. The prior state survives
	// any failure.
	prevNodes, prevM, prevSize := net.nodes, net.m, net.size
	net.nodes, net.m, net.size = rebuilt, m, size

	if report := net.healthCheck(); !report.OK() {
		net.nodes, net.m, net.size = prevNodes, prevM, prevSize
		return fail(xerrors.Errorf("restore: %d violations: %w",
			report.Total(), types.ErrSnapshotInconsistent))
	}

	net.record(types.EventRestore, 0, 0, 0, start, nil)
	return nil
}
