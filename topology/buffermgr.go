package topology

import (
	"fmt"

	"github.com/pothosware/flowcore/buffer"
)

const (
	defaultManagerCount = 8
	defaultManagerSize  = 4096
)

// negotiateBufferManagers implements spec.md §4.6 phase 4: for each source
// port and its set of destinations, ask each side for its mode (CUSTOM if
// its manager factory returns a non-nil manager, ABDICATE otherwise) given
// the peer's domain. Exactly one side ends up supplying the manager; every
// negotiation failure is appended to failures rather than raised directly,
// so the caller can aggregate them into one TopologyConnectError.
func (t *Topology) negotiateBufferManagers(blocks map[string]*Block, flows []Flow) (failures []string) {
	bySrc := map[Endpoint][]Flow{}
	order := []Endpoint{}
	for _, f := range flows {
		if _, seen := bySrc[f.Src]; !seen {
			order = append(order, f.Src)
		}
		bySrc[f.Src] = append(bySrc[f.Src], f)
	}

	for _, srcEP := range order {
		group := bySrc[srcEP]
		srcBlock := blocks[srcEP.Block]
		if srcBlock == nil {
			failures = append(failures, fmt.Sprintf("negotiate: unknown source block %q", srcEP.Block))
			continue
		}
		srcOut, err := srcBlock.Worker.Outputs().Get(srcEP.Port)
		if err != nil {
			failures = append(failures, fmt.Sprintf("negotiate: %s.%s: %v", srcEP.Block, srcEP.Port, err))
			continue
		}
		if srcOut.IsSignal() {
			continue // signal ports never touch the buffer manager (spec.md §3)
		}

		if mgr := srcOut.NegotiateManager(srcOut.Domain()); mgr != nil {
			srcOut.SetManager(mgr)
			continue
		}

		var custom []buffer.Manager
		for _, f := range group {
			dstBlock := blocks[f.Dst.Block]
			if dstBlock == nil {
				failures = append(failures, fmt.Sprintf("negotiate: unknown destination block %q", f.Dst.Block))
				continue
			}
			dstIn, err := dstBlock.Worker.Inputs().Get(f.Dst.Port)
			if err != nil {
				failures = append(failures, fmt.Sprintf("negotiate: %s.%s: %v", f.Dst.Block, f.Dst.Port, err))
				continue
			}
			if mgr := dstIn.NegotiateManager(srcOut.Domain()); mgr != nil {
				custom = append(custom, mgr)
			}
		}

		switch len(custom) {
		case 0:
			srcOut.SetManager(buffer.NewGeneric(srcOut.Domain(), defaultManagerCount, defaultManagerSize))
		case 1:
			srcOut.SetManager(custom[0])
		default:
			failures = append(failures, fmt.Sprintf(
				"negotiate: %s.%s: %d destinations supplied custom buffer managers, want at most 1",
				srcEP.Block, srcEP.Port, len(custom)))
		}
	}
	return failures
}
