package impl_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	z "go.dedis.ch/chord/internal/testing"
	"go.dedis.ch/chord/overlay"
	"go.dedis.ch/chord/overlay/impl"
	"go.dedis.ch/chord/types"
	"golang.org/x/xerrors"
)

// captureSink keeps every recorded event for inspection.
type captureSink struct {
	mu     sync.Mutex
	events []types.Event
}

func (c *captureSink) Record(evt types.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *captureSink) ofKind(kind types.EventKind) []types.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []types.Event
	for _, evt := range c.events {
		if evt.Kind == kind {
			out = append(out, evt)
		}
	}
	return out
}

// storedAt maps every stored key to the node holding it.
func storedAt(ov overlay.Overlay) map[uint64]uint64 {
	placement := make(map[uint64]uint64)
	for _, ann := range ov.Graph().Stores {
		placement[ann.Key] = ann.NodeID
	}
	return placement
}

// Test_Overlay_Create tests configuration validation
func Test_Overlay_Create(t *testing.T) {
	badBitLength := func(t *testing.T) {
		_, err := impl.NewOverlay(overlay.Configuration{BitLength: 0})
		require.Error(t, err)

		_, err = impl.NewOverlay(overlay.Configuration{BitLength: 33})
		require.Error(t, err)
	}

	badInitialIDs := func(t *testing.T) {
		_, err := impl.NewOverlay(overlay.Configuration{
			BitLength:  3,
			InitialIDs: []uint64{0, 8},
		})
		require.True(t, xerrors.Is(err, types.ErrIDOutOfRange))

		_, err = impl.NewOverlay(overlay.Configuration{
			BitLength:  3,
			InitialIDs: []uint64{0, 4, 4},
		})
		require.True(t, xerrors.Is(err, types.ErrIDConflict))
	}

	converged := func(t *testing.T) {
		ov := z.NewTestOverlay(t, 4, []uint64{12, 0, 8, 4})

		require.Equal(t, []uint64{0, 4, 8, 12}, ov.NodeIDs())
		require.Equal(t, 4, ov.BitLength())
		require.Equal(t, uint64(16), ov.RingSize())

		report := ov.HealthCheck()
		require.Equal(t, true, report.OK())
		require.Equal(t, 4, report.Nodes)
	}

	t.Run("Bit length out of range", badBitLength)
	t.Run("Invalid initial ids", badInitialIDs)
	t.Run("Initial ring is converged", converged)
}

// Test_Overlay_Minimal_Ring tests the 3-bit ring {0, 2, 4}: "alpha" hashes
// to 5, whose successor wraps around to node 0
func Test_Overlay_Minimal_Ring(t *testing.T) {
	ov := z.NewTestOverlay(t, 3, []uint64{0, 2, 4})

	placed, err := ov.Put("alpha", []byte("A"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), placed)

	value, err := ov.Lookup("alpha")
	require.NoError(t, err)
	require.Equal(t, []byte("A"), value)
}

// Test_Overlay_Join_Migration tests that an insert splits the successor's
// key range and moves exactly the covered entries
func Test_Overlay_Join_Migration(t *testing.T) {
	ov := z.NewTestOverlay(t, 3, []uint64{0, 4})

	names := map[uint64]string{}
	for _, key := range []uint64{1, 3, 5, 7} {
		names[key] = z.MineName(t, 3, key)
		_, err := ov.Put(names[key], []byte(fmt.Sprintf("v%d", key)))
		require.NoError(t, err)
	}

	// Keys 1 and 3 belong to node 4, keys 5 and 7 wrap to node 0
	placement := storedAt(ov)
	require.Equal(t, uint64(4), placement[1])
	require.Equal(t, uint64(4), placement[3])
	require.Equal(t, uint64(0), placement[5])
	require.Equal(t, uint64(0), placement[7])

	require.NoError(t, ov.InsertNode(2))
	require.NoError(t, ov.Rebalance())
	require.Equal(t, true, ov.HealthCheck().OK())

	// Node 2 took over (0, 2], which contains key 1
	placement = storedAt(ov)
	require.Equal(t, uint64(2), placement[1])
	require.Equal(t, uint64(4), placement[3])
	require.Equal(t, uint64(0), placement[5])
	require.Equal(t, uint64(0), placement[7])

	for _, key := range []uint64{1, 3, 5, 7} {
		value, err := ov.Lookup(names[key])
		require.NoError(t, err)
		require.Equal(t, []byte(fmt.Sprintf("v%d", key)), value)
	}
}

// Test_Overlay_Leave_Migration tests that a removal merges the leaving
// node's keys into its successor
func Test_Overlay_Leave_Migration(t *testing.T) {
	ov := z.NewTestOverlay(t, 3, []uint64{0, 2, 4})

	names := map[uint64]string{}
	for _, key := range []uint64{1, 3, 5, 7} {
		names[key] = z.MineName(t, 3, key)
		_, err := ov.Put(names[key], []byte(fmt.Sprintf("v%d", key)))
		require.NoError(t, err)
	}

	require.NoError(t, ov.RemoveNode(2))
	require.NoError(t, ov.Rebalance())
	require.Equal(t, true, ov.HealthCheck().OK())

	// Key 1, previously on node 2, merged into node 4
	placement := storedAt(ov)
	require.Equal(t, uint64(4), placement[1])
	require.Equal(t, uint64(4), placement[3])
	require.Equal(t, uint64(0), placement[5])
	require.Equal(t, uint64(0), placement[7])

	for _, key := range []uint64{1, 3, 5, 7} {
		value, err := ov.Lookup(names[key])
		require.NoError(t, err)
		require.Equal(t, []byte(fmt.Sprintf("v%d", key)), value)
	}
}

// Test_Overlay_Insert_Conflict tests that a conflicting insert fails without
// any side effect, verified by snapshot equality
func Test_Overlay_Insert_Conflict(t *testing.T) {
	ov := z.NewTestOverlay(t, 4, []uint64{0, 5, 10})

	_, err := ov.Put("document1.pdf", []byte("contents"))
	require.NoError(t, err)

	before := ov.Snapshot()

	err = ov.InsertNode(5)
	require.True(t, xerrors.Is(err, types.ErrIDConflict))

	err = ov.InsertNode(16)
	require.True(t, xerrors.Is(err, types.ErrIDOutOfRange))

	after := ov.Snapshot()
	before.CreatedAt, after.CreatedAt = 0, 0
	require.Equal(t, before, after)
}

// Test_Overlay_Remove_Errors tests removal validation
func Test_Overlay_Remove_Errors(t *testing.T) {
	ov := z.NewTestOverlay(t, 4, []uint64{3})

	err := ov.RemoveNode(7)
	require.True(t, xerrors.Is(err, types.ErrNodeNotFound))

	err = ov.RemoveNode(3)
	require.True(t, xerrors.Is(err, types.ErrLastNodeRemoval))

	require.Equal(t, []uint64{3}, ov.NodeIDs())
}

// Test_Overlay_Hop_Bound tests that on a converged 6-bit overlay with 32
// nodes, every lookup from the entry node resolves within 6 hops
func Test_Overlay_Hop_Bound(t *testing.T) {
	capture := &captureSink{}

	ids := make([]uint64, 32)
	for i := range ids {
		ids[i] = uint64(i)
	}
	ov := z.NewTestOverlay(t, 6, ids, z.WithSink(capture))

	for i := 0; i < 200; i++ {
		name := fmt.Sprintf("name-%d", i)
		_, err := ov.Put(name, []byte(name))
		require.NoError(t, err)
	}
	for i := 0; i < 200; i++ {
		name := fmt.Sprintf("name-%d", i)
		value, err := ov.Lookup(name)
		require.NoError(t, err)
		require.Equal(t, []byte(name), value)
	}

	lookups := capture.ofKind(types.EventLookup)
	require.Len(t, lookups, 200)
	for _, evt := range lookups {
		require.Greater(t, evt.Hops, 0)
		require.LessOrEqual(t, evt.Hops, 6)
	}
}

// Test_Overlay_Ring_Closure tests that any sequence of valid inserts and
// removes keeps the successor relation a single cycle over all live nodes
func Test_Overlay_Ring_Closure(t *testing.T) {
	ov := z.NewTestOverlay(t, 6, []uint64{0, 32})

	steps := []struct {
		insert bool
		id     uint64
	}{
		{true, 48}, {true, 16}, {true, 8}, {true, 56}, {true, 40},
		{false, 32}, {true, 24}, {false, 8}, {true, 4}, {false, 56},
		{true, 60}, {true, 12}, {false, 0}, {true, 2},
	}

	for _, step := range steps {
		if step.insert {
			require.NoError(t, ov.InsertNode(step.id))
		} else {
			require.NoError(t, ov.RemoveNode(step.id))
		}
		require.NoError(t, ov.Rebalance())

		report := ov.HealthCheck()
		require.Equal(t, 0, report.SuccessorAsymmetry)
		require.Equal(t, 0, report.BrokenCycle)
		require.Equal(t, 0, report.StaleFingers)
	}
}

// Test_Overlay_Join_Leave_Preserve_Data tests that every stored value stays
// retrievable across arbitrary joins and leaves
func Test_Overlay_Join_Leave_Preserve_Data(t *testing.T) {
	ov := z.NewTestOverlay(t, 5, []uint64{0, 8, 16, 24})

	for i := 0; i < 40; i++ {
		_, err := ov.Put(fmt.Sprintf("item-%d", i), []byte(fmt.Sprintf("value-%d", i)))
		require.NoError(t, err)
	}

	verify := func() {
		for i := 0; i < 40; i++ {
			value, err := ov.Lookup(fmt.Sprintf("item-%d", i))
			require.NoError(t, err)
			require.Equal(t, []byte(fmt.Sprintf("value-%d", i)), value)
		}
		require.Equal(t, 0, ov.HealthCheck().MisplacedKeys)
	}

	require.NoError(t, ov.InsertNode(4))
	require.NoError(t, ov.Rebalance())
	verify()

	require.NoError(t, ov.InsertNode(20))
	require.NoError(t, ov.Rebalance())
	verify()

	require.NoError(t, ov.RemoveNode(8))
	require.NoError(t, ov.Rebalance())
	verify()

	require.NoError(t, ov.RemoveNode(4))
	require.NoError(t, ov.RemoveNode(24))
	require.NoError(t, ov.Rebalance())
	verify()
}

// Test_Overlay_Put_Overwrite tests that a put under an existing name
// replaces the value
func Test_Overlay_Put_Overwrite(t *testing.T) {
	ov := z.NewTestOverlay(t, 4, []uint64{0, 5, 10})

	_, err := ov.Put("config.xml", []byte("first"))
	require.NoError(t, err)
	_, err = ov.Put("config.xml", []byte("second"))
	require.NoError(t, err)

	value, err := ov.Lookup("config.xml")
	require.NoError(t, err)
	require.Equal(t, []byte("second"), value)

	require.Equal(t, 1, ov.Stats().Keys)
}

// Test_Overlay_Delete tests explicit deletion
func Test_Overlay_Delete(t *testing.T) {
	ov := z.NewTestOverlay(t, 4, []uint64{0, 5, 10})

	_, err := ov.Put("music.mp3", []byte("tune"))
	require.NoError(t, err)

	require.NoError(t, ov.Delete("music.mp3"))

	_, err = ov.Lookup("music.mp3")
	require.True(t, xerrors.Is(err, types.ErrNameNotFound))

	err = ov.Delete("music.mp3")
	require.True(t, xerrors.Is(err, types.ErrNameNotFound))
}

// Test_Overlay_Empty tests operations on an empty overlay
func Test_Overlay_Empty(t *testing.T) {
	ov := z.NewTestOverlay(t, 4, nil)

	_, err := ov.Put("a", []byte("v"))
	require.True(t, xerrors.Is(err, types.ErrNodeNotFound))

	_, err = ov.Lookup("a")
	require.True(t, xerrors.Is(err, types.ErrNodeNotFound))

	err = ov.Delete("a")
	require.True(t, xerrors.Is(err, types.ErrNodeNotFound))

	err = ov.RemoveNode(0)
	require.True(t, xerrors.Is(err, types.ErrNodeNotFound))

	// First insert activates the overlay with a singleton ring
	require.NoError(t, ov.InsertNode(9))
	require.Equal(t, true, ov.HealthCheck().OK())

	placed, err := ov.Put("a", []byte("v"))
	require.NoError(t, err)
	require.Equal(t, uint64(9), placed)
}

// Test_Overlay_Lookup_Any_Entry tests that lookups succeed regardless of
// which node happens to be the entry point, by rotating the lowest id out
func Test_Overlay_Lookup_Any_Entry(t *testing.T) {
	ov := z.NewTestOverlay(t, 5, []uint64{2, 9, 17, 25})

	_, err := ov.Put("video.mp4", []byte("frames"))
	require.NoError(t, err)

	// Removing the current entry node forces the next lookup through a
	// different one; the stored value must stay reachable every time.
	for _, id := range []uint64{2, 9, 17} {
		value, err := ov.Lookup("video.mp4")
		require.NoError(t, err)
		require.Equal(t, []byte("frames"), value)

		require.NoError(t, ov.RemoveNode(id))
		require.NoError(t, ov.Rebalance())
	}

	value, err := ov.Lookup("video.mp4")
	require.NoError(t, err)
	require.Equal(t, []byte("frames"), value)
}

// Test_Overlay_Sink_Panic tests that a panicking sink never fails an
// operation
func Test_Overlay_Sink_Panic(t *testing.T) {
	ov := z.NewTestOverlay(t, 4, []uint64{0, 8}, z.WithSink(panicSink{}))

	_, err := ov.Put("a", []byte("v"))
	require.NoError(t, err)

	value, err := ov.Lookup("a")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)
}

type panicSink struct{}

func (panicSink) Record(types.Event) {
	panic("sink failure")
}

// Test_Overlay_Stats tests the stats summary and per-node loads
func Test_Overlay_Stats(t *testing.T) {
	ov := z.NewTestOverlay(t, 3, []uint64{0, 2, 4})

	placed, err := ov.Put("alpha", []byte("A"))
	require.NoError(t, err)
	_, err = ov.Lookup("alpha")
	require.NoError(t, err)

	stats := ov.Stats()
	require.Equal(t, 3, stats.Nodes)
	require.Equal(t, 1, stats.Keys)
	require.Equal(t, 1, stats.Bytes)
	require.Equal(t, uint64(8), stats.RingSize)
	require.Equal(t, 1, stats.Loads[placed].Keys)

	// Lookups enter through the lowest id
	require.Equal(t, uint64(1), stats.Loads[0].Lookups)
	require.Greater(t, stats.Loads[0].Hops, uint64(0))
}
