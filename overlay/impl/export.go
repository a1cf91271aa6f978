package impl

import (
	"fmt"

	"go.dedis.ch/chord/types"
	"golang.org/x/exp/slices"
)

// Graph implements overlay.Inspection
func (net *network) Graph() types.Graph {
	net.mu.Lock()
	defer net.mu.Unlock()

	var g types.Graph

	for _, id := range net.sortedIDs() {
		n := net.nodes[id]

		g.Edges = append(g.Edges, types.GraphEdge{
			From: id, To: n.successor, Label: types.EdgeSuccessor,
		})
		if n.hasPred {
			g.Edges = append(g.Edges, types.GraphEdge{
				From: id, To: n.predecessor, Label: types.EdgePredecessor,
			})
		}
		for i, f := range n.fingers {
			g.Edges = append(g.Edges, types.GraphEdge{
				From: id, To: f, Label: fmt.Sprintf("finger_%d", i),
			})
		}

		names := n.store.Names()
		slices.Sort(names)
		for _, name := range names {
			it, err := n.store.Get(name)
			if err != nil {
				continue
			}
			g.Stores = append(g.Stores, types.StoreAnnotation{
				NodeID: id, Key: it.Key, Name: name,
			})
		}
	}

	return g
}
