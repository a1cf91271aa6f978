package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/disiqueira/gotree"
	"github.com/gholt/brimtext"
	"go.dedis.ch/chord/overlay"
	"go.dedis.ch/chord/types"
)

// ringTree renders the overlay as a terminal tree: one branch per node with
// its links, fingers, and stored names.
func ringTree(ov overlay.Overlay) string {
	g := ov.Graph()
	root := gotree.New(fmt.Sprintf("Chord ring (m=%d, %d nodes)", ov.BitLength(), len(ov.NodeIDs())))

	branches := make(map[uint64]gotree.Tree)
	for _, id := range ov.NodeIDs() {
		branches[id] = root.Add(fmt.Sprintf("node %d", id))
	}

	fingerBranches := make(map[uint64]gotree.Tree)
	for _, e := range g.Edges {
		branch, ok := branches[e.From]
		if !ok {
			continue
		}
		if strings.HasPrefix(e.Label, "finger_") {
			fingers, ok := fingerBranches[e.From]
			if !ok {
				fingers = branch.Add("fingers")
				fingerBranches[e.From] = fingers
			}
			fingers.Add(fmt.Sprintf("%s -> %d", e.Label, e.To))
			continue
		}
		branch.Add(fmt.Sprintf("%s -> %d", e.Label, e.To))
	}

	for _, ann := range g.Stores {
		branches[ann.NodeID].Add(fmt.Sprintf("stores %q (key %d)", ann.Name, ann.Key))
	}

	return root.Print()
}

// healthTable renders a health report as an aligned two-column table.
func healthTable(report types.HealthReport) string {
	rows := [][]string{
		{brimtext.ThousandsSep(int64(report.Nodes), ","), "Nodes"},
		{brimtext.ThousandsSep(int64(report.Keys), ","), "Stored Keys"},
		{fmt.Sprintf("%d", report.SuccessorAsymmetry), "Successor/Predecessor Asymmetries"},
		{fmt.Sprintf("%d", report.BrokenCycle), "Unreachable Nodes"},
		{fmt.Sprintf("%d", report.StaleFingers), "Stale Finger Entries"},
		{fmt.Sprintf("%d", report.MisplacedKeys), "Misplaced Keys"},
	}

	opts := brimtext.NewDefaultAlignOptions()
	opts.Alignments = []brimtext.Alignment{brimtext.Right, brimtext.Left}
	return brimtext.Align(rows, opts)
}

// statsTable renders the overlay summary and the per-node loads.
func statsTable(stats types.NetworkStats) string {
	rows := [][]string{
		{brimtext.ThousandsSep(int64(stats.Nodes), ","), "Nodes"},
		{brimtext.ThousandsSepU(stats.RingSize, ","), "Ring Positions"},
		{brimtext.ThousandsSep(int64(stats.Keys), ","), "Stored Keys"},
		{brimtext.ThousandsSep(int64(stats.Bytes), ","), "Stored Bytes"},
		{brimtext.ThousandsSepU(stats.Seq, ","), "Operations"},
	}

	ids := make([]uint64, 0, len(stats.Loads))
	for id := range stats.Loads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		load := stats.Loads[id]
		rows = append(rows, []string{
			fmt.Sprintf("%d keys, %d B, %d lookups", load.Keys, load.Bytes, load.Lookups),
			fmt.Sprintf("Load of node %d", id),
		})
	}

	opts := brimtext.NewDefaultAlignOptions()
	opts.Alignments = []brimtext.Alignment{brimtext.Right, brimtext.Left}
	return brimtext.Align(rows, opts)
}

// writeDOT renders the graph projection as a DOT digraph a renderer can turn
// into an image.
func writeDOT(g types.Graph) string {
	b := &strings.Builder{}
	b.WriteString("digraph chord {\n")
	b.WriteString("  layout=circo;\n")

	seen := map[uint64]bool{}
	for _, e := range g.Edges {
		seen[e.From] = true
	}
	ids := make([]uint64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Fprintf(b, "  n%d [label=\"%d\" shape=circle];\n", id, id)
	}

	for _, e := range g.Edges {
		switch {
		case e.Label == types.EdgeSuccessor:
			fmt.Fprintf(b, "  n%d -> n%d [color=blue];\n", e.From, e.To)
		case e.Label == types.EdgePredecessor:
			fmt.Fprintf(b, "  n%d -> n%d [color=gray style=dashed];\n", e.From, e.To)
		default:
			fmt.Fprintf(b, "  n%d -> n%d [color=green label=\"%s\"];\n", e.From, e.To, e.Label)
		}
	}

	for i, ann := range g.Stores {
		fmt.Fprintf(b, "  k%d [label=\"%s\\n(key %d)\" shape=box];\n", i, ann.Name, ann.Key)
		fmt.Fprintf(b, "  n%d -> k%d [style=dotted];\n", ann.NodeID, i)
	}

	b.WriteString("}\n")
	return b.String()
}
