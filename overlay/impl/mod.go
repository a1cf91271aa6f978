package impl

import (
	"os"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.dedis.ch/chord/codec"
	"go.dedis.ch/chord/overlay"
	"go.dedis.ch/chord/overlay/impl/ring"
	"go.dedis.ch/chord/types"
	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"
)

// network implements a Chord overlay as a single-process simulation
//
// - implements overlay.Overlay
type network struct {
	// One lock serializes every public operation. The overlay is designed
	// single-threaded; the lock only protects against callers that do not
	// serialize externally.
	mu sync.Mutex

	conf overlay.Configuration

	m    int    // ring exponent
	size uint64 // 2^m

	// nodes is the authoritative table of live nodes. Nodes reference each
	// other by id and resolve through this table.
	nodes map[uint64]*node

	// seq is the operation sequence number, incremented once per recorded
	// event.
	seq uint64

	logger zerolog.Logger
	sink   overlay.Sink
	codec  codec.Codec
}

// discard is the sink used when the configuration provides none.
type discard struct{}

func (discard) Record(types.Event) {}

// NewOverlay creates an overlay from the configuration. When initial ids are
// given the nodes are linked into a ring in sorted-id order with exact
// finger tables, so every invariant holds at return.
func NewOverlay(conf overlay.Configuration) (overlay.Overlay, error) {
	if conf.BitLength < 1 || conf.BitLength > ring.MaxBitLength {
		return nil, xerrors.Errorf("bit length %d outside [1, %d]",
			conf.BitLength, ring.MaxBitLength)
	}

	net := &network{
		conf:   conf,
		m:      conf.BitLength,
		size:   ring.Size(conf.BitLength),
		nodes:  make(map[uint64]*node),
		sink:   conf.Sink,
		codec:  conf.ValueCodec,
		logger: log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().
			Str("module", "overlay").Int("m", conf.BitLength).Logger(),
	}
	if net.sink == nil {
		net.sink = discard{}
	}
	if net.codec == nil {
		net.codec = codec.Identity{}
	}
	if net.conf.StabilizePassesCap == 0 {
		net.conf.StabilizePassesCap = uint(net.m) + 2
	}

	if err := net.populate(conf.InitialIDs); err != nil {
		return nil, err
	}

	net.record(types.EventCreate, 0, 0, 0, time.Now(), nil)
	return net, nil
}

// populate links the initial ids into a converged ring.
func (net *network) populate(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	sorted := make([]uint64, len(ids))
	copy(sorted, ids)
	slices.Sort(sorted)

	for i, id := range sorted {
		if id >= net.size {
			return xerrors.Errorf("initial id %d: %w", id, types.ErrIDOutOfRange)
		}
		if i > 0 && sorted[i-1] == id {
			return xerrors.Errorf("initial id %d: %w", id, types.ErrIDConflict)
		}
		net.nodes[id] = newNode(net, id)
	}

	for i, id := range sorted {
		n := net.nodes[id]
		n.successor = sorted[(i+1)%len(sorted)]
		n.predecessor = sorted[(i-1+len(sorted))%len(sorted)]
		n.hasPred = true
		for f := range n.fingers {
			n.fingers[f] = net.ownerOf(n.fingerTarget(f))
		}
	}
	return nil
}

// resolve returns the live node with the given id.
func (net *network) resolve(id uint64) (*node, bool) {
	n, ok := net.nodes[id]
	return n, ok
}

// danglingRef reports a reference to a node that is no longer part of the
// overlay. The reference is skipped by the caller and repaired by the next
// stabilization sweep.
func (net *network) danglingRef(where string, id uint64) {
	net.logger.Warn().Str("at", where).Uint64("id", id).
		Msg("dangling node reference")
	net.record(types.EventViolation, id, 0, 0, time.Now(),
		xerrors.Errorf("dangling reference at %s", where))
}

// sortedIDs returns the live node ids in ascending order.
func (net *network) sortedIDs() []uint64 {
	ids := make([]uint64, 0, len(net.nodes))
	for id := range net.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ownerOf returns the id of the node responsible for the key, derived from
// the node table alone: the smallest live id at or after the key, wrapping
// to the lowest id. This is the ground truth the routed find_successor
// converges to.
func (net *network) ownerOf(key uint64) uint64 {
	ids := net.sortedIDs()
	i, _ := slices.BinarySearch(ids, key)
	if i == len(ids) {
		i = 0
	}
	return ids[i]
}

// entryNode returns the node lookups and puts enter the overlay through.
// Any live node works; the lowest id keeps the choice deterministic.
func (net *network) entryNode() *node {
	return net.nodes[net.sortedIDs()[0]]
}

// record emits one event to the sink. A panicking sink is swallowed: the
// sink observes the overlay, it never fails it.
func (net *network) record(kind types.EventKind, nodeID, key uint64, hops int,
	start time.Time, err error) {

	net.seq++
	evt := types.Event{
		OpID:    xid.New().String(),
		Seq:     net.seq,
		Kind:    kind,
		NodeID:  nodeID,
		Key:     key,
		Hops:    hops,
		Elapsed: time.Since(start),
	}
	if err != nil {
		evt.Err = err.Error()
	}

	defer func() {
		_ = recover()
	}()
	net.sink.Record(evt)
}

// BitLength implements overlay.Inspection
func (net *network) BitLength() int {
	return net.m
}

// RingSize implements overlay.Inspection
func (net *network) RingSize() uint64 {
	return net.size
}

// NodeIDs implements overlay.Inspection
func (net *network) NodeIDs() []uint64 {
	net.mu.Lock()
	defer net.mu.Unlock()
	return net.sortedIDs()
}

// Stats implements overlay.Inspection
func (net *network) Stats() types.NetworkStats {
	net.mu.Lock()
	defer net.mu.Unlock()

	stats := types.NetworkStats{
		BitLength: net.m,
		RingSize:  net.size,
		Nodes:     len(net.nodes),
		Seq:       net.seq,
		Loads:     make(map[uint64]types.NodeLoad, len(net.nodes)),
	}

	for id, n := range net.nodes {
		s := n.store.Stats()
		stats.Keys += s.Keys
		stats.Bytes += s.Bytes
		stats.Loads[id] = types.NodeLoad{
			Keys:    s.Keys,
			Bytes:   s.Bytes,
			Lookups: n.lookups,
			Hops:    n.hopTotal,
		}
	}
	return stats
}
