package sink

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/chord/types"
)

// Test_Sink_Counters tests event aggregation
func Test_Sink_Counters(t *testing.T) {
	c := NewCounters()

	c.Record(types.Event{Kind: types.EventPut, NodeID: 4})
	c.Record(types.Event{Kind: types.EventPut, NodeID: 4})
	c.Record(types.Event{Kind: types.EventPut, NodeID: 0})
	c.Record(types.Event{Kind: types.EventLookup, NodeID: 4, Hops: 3})
	c.Record(types.Event{Kind: types.EventLookup, NodeID: 0, Hops: 1})
	c.Record(types.Event{Kind: types.EventLeave, NodeID: 9, Err: "node not found"})

	ops := c.Operations()
	require.Equal(t, uint64(3), ops[types.EventPut])
	require.Equal(t, uint64(2), ops[types.EventLookup])
	require.Equal(t, uint64(1), ops[types.EventLeave])

	load := c.NodeLoad()
	require.Equal(t, uint64(2), load[4])
	require.Equal(t, uint64(1), load[0])

	require.Equal(t, 2.0, c.AverageHops())
	require.Equal(t, uint64(1), c.Errors()["node not found"])
}

// Test_Sink_Counters_Empty tests the zero state
func Test_Sink_Counters_Empty(t *testing.T) {
	c := NewCounters()

	require.Equal(t, 0.0, c.AverageHops())
	require.Len(t, c.Operations(), 0)
	require.Len(t, c.NodeLoad(), 0)
}

// Test_Sink_Logging tests that events reach the logger output
func Test_Sink_Logging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel)

	l := NewLogging(logger)
	l.Record(types.Event{
		OpID:    "op-1",
		Seq:     7,
		Kind:    types.EventLookup,
		NodeID:  4,
		Hops:    2,
		Elapsed: time.Millisecond,
		Err:     "name not found",
	})

	out := buf.String()
	require.Contains(t, out, "lookup")
	require.Contains(t, out, "op-1")
	require.Contains(t, out, "name not found")
}

// Test_Sink_Multi tests fan-out to several sinks
func Test_Sink_Multi(t *testing.T) {
	a := NewCounters()
	b := NewCounters()

	m := NewMulti(a, b, Nop{})
	m.Record(types.Event{Kind: types.EventPut, NodeID: 1})

	require.Equal(t, uint64(1), a.Operations()[types.EventPut])
	require.Equal(t, uint64(1), b.Operations()[types.EventPut])
}
