package topology

import "github.com/pothosware/flowcore/flowerr"

// Commit runs the five-phase pipeline of spec.md §4.6: squash the hierarchy
// into a flat graph, insert network iogress at environment boundaries,
// rectify domain mismatches with adapter blocks, negotiate and install
// buffer managers, then diff subscriptions and (de)activate blocks. The
// first error in phase 2 or 3 ends the commit at once and is returned as a
// TopologyConnectError naming that phase; later phases do not run. The
// failures of phases 4 and 5 are collected rather than raised immediately
// and returned as a single aggregated *flowerr.TopologyConnectError (via
// flowerr.NewTopologyConnectError, which is nil when there were no
// failures), per spec.md §9's Open Question resolution ("implementations
// should throw the aggregated error").
func (t *Topology) Commit() error {
	blocks, flatFlows := squash(t)

	flatFlows, err := t.insertNetworkIogress(blocks, flatFlows)
	if err != nil {
		return flowerr.NewTopologyConnectError("network iogress insertion", []string{err.Error()})
	}

	flatFlows, err = t.rectifyDomains(blocks, flatFlows)
	if err != nil {
		return flowerr.NewTopologyConnectError("domain rectification", []string{err.Error()})
	}

	var failures []string
	failures = append(failures, t.negotiateBufferManagers(blocks, flatFlows)...)
	failures = append(failures, t.diffSubscriptions(blocks, flatFlows)...)

	t.mu.Lock()
	t.lastFlatBlocks = blocks
	t.mu.Unlock()

	return flowerr.NewTopologyConnectError("commit", failures)
}
