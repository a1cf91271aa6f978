package impl

import (
	"math/rand"

	"go.dedis.ch/chord/overlay/impl/ring"
	"go.dedis.ch/chord/types"
)

// HealthCheck implements overlay.Inspection
func (net *network) HealthCheck() types.HealthReport {
	net.mu.Lock()
	defer net.mu.Unlock()
	return net.healthCheck()
}

// healthCheck verifies, in order: successor/predecessor symmetry, the single
// successor cycle, finger correctness on a sample, and key residency.
func (net *network) healthCheck() types.HealthReport {
	report := types.HealthReport{Nodes: len(net.nodes)}
	if len(net.nodes) == 0 {
		return report
	}

	ids := net.sortedIDs()

	// Successor/predecessor symmetry: n.successor.predecessor == n.
	for _, id := range ids {
		n := net.nodes[id]
		succ, ok := net.resolve(n.successor)
		if !ok || !succ.hasPred || succ.predecessor != id {
			report.SuccessorAsymmetry++
		}
	}

	// Single cycle: walking successors from the lowest id must visit every
	// live node exactly once before returning to the start.
	visited := make(map[uint64]bool, len(ids))
	cur := ids[0]
	for range ids {
		if visited[cur] {
			break
		}
		visited[cur] = true
		n, ok := net.resolve(cur)
		if !ok {
			break
		}
		cur = n.successor
	}
	if cur != ids[0] || len(visited) != len(ids) {
		report.BrokenCycle = len(ids) - len(visited)
		if report.BrokenCycle == 0 {
			report.BrokenCycle = 1
		}
	}

	// Finger correctness on a sample, against the node table ground truth.
	for _, id := range ids {
		n := net.nodes[id]
		for _, i := range net.fingerSample() {
			if n.fingers[i] != net.ownerOf(n.fingerTarget(i)) {
				report.StaleFingers++
			}
		}
	}

	// Key residency: every stored name re-hashes to a key owned by the node
	// holding it.
	for _, id := range ids {
		n := net.nodes[id]
		for _, name := range n.store.Names() {
			report.Keys++
			it, err := n.store.Get(name)
			if err != nil || it.Key != ring.Hash(name, net.m) ||
				net.ownerOf(it.Key) != id {
				report.MisplacedKeys++
			}
		}
	}

	return report
}

// fingerSample returns the finger indices a health check inspects: all of
// them by default, or a random sample when the configuration bounds it.
func (net *network) fingerSample() []int {
	sample := net.conf.HealthFingerSample
	if sample <= 0 || sample >= net.m {
		all := make([]int, net.m)
		for i := range all {
			all[i] = i
		}
		return all
	}

	picked := make([]int, 0, sample)
	seen := make(map[int]bool, sample)
	for len(picked) < sample {
		i := rand.Intn(net.m)
		if seen[i] {
			continue
		}
		seen[i] = true
		picked = append(picked, i)
	}
	return picked
}
