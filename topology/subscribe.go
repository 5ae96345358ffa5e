package topology

import (
	"fmt"
	"time"

	"github.com/pothosware/flowcore/actor"
	"github.com/pothosware/flowcore/port"
)

// sendControl enqueues fn as a control message on w's mailbox (serialized
// with work dispatch via the actor's mutex, per spec.md §4.4) and forces an
// immediate drain so Commit's synchronous WaitInfo() does not depend on a
// scheduler pool already running w, per spec.md §5 "Commit has no timeout;
// failures are reported synchronously".
func sendControl(w *actor.Worker, fn func() error) *actor.WaitHandle {
	h := w.Enqueue(fn)
	w.ProcessTask()
	return h
}

// diffSubscriptions implements spec.md §4.6 phase 5's SUBINPUT/SUBOUTPUT/
// UNSUBOUTPUT/UNSUBINPUT step: compute newFlows and oldFlows against the
// topology's previously recorded activeFlatFlows, wire/unwire the Output
// side's subscriber list for each (the only state that actually needs
// mutating -- an Input has no subscriber list of its own), then activate
// blocks newly appearing in any flow and deactivate blocks no longer in any
// flow. Every failure collected is returned for the caller to aggregate.
func (t *Topology) diffSubscriptions(blocks map[string]*Block, flows []Flow) (failures []string) {
	flowSet := make(map[Flow]bool, len(flows))
	for _, f := range flows {
		flowSet[f] = true
	}

	t.mu.Lock()
	prevFlows := t.activeFlatFlows
	prevBlocks := t.activeBlocks
	t.mu.Unlock()

	var newFlows, oldFlows []Flow
	for f := range flowSet {
		if !prevFlows[f] {
			newFlows = append(newFlows, f)
		}
	}
	for f := range prevFlows {
		if !flowSet[f] {
			oldFlows = append(oldFlows, f)
		}
	}

	for _, f := range newFlows {
		srcBlock, dstBlock := blocks[f.Src.Block], blocks[f.Dst.Block]
		if srcBlock == nil || dstBlock == nil {
			failures = append(failures, fmt.Sprintf("subscribe: flow %s references an unknown block", flowKey(f)))
			continue
		}
		dstIn, err := dstBlock.Worker.Inputs().Get(f.Dst.Port)
		if err != nil {
			failures = append(failures, fmt.Sprintf("subscribe: %s: %v", flowKey(f), err))
			continue
		}
		sub := port.Subscriber{ActorName: dstBlock.ID, PortName: f.Dst.Port, In: dstIn}
		h := sendControl(srcBlock.Worker, func() error {
			out, err := srcBlock.Worker.Outputs().Get(f.Src.Port)
			if err != nil {
				return err
			}
			out.Subscribe(sub)
			return nil
		})
		if msg := h.WaitInfo(); msg != "" {
			failures = append(failures, fmt.Sprintf("SUBOUTPUT %s: %s", flowKey(f), msg))
		}
	}

	for _, f := range oldFlows {
		srcBlock, dstBlock := blocks[f.Src.Block], blocks[f.Dst.Block]
		if srcBlock == nil || dstBlock == nil {
			continue // already gone; nothing to unsubscribe
		}
		h := sendControl(srcBlock.Worker, func() error {
			out, err := srcBlock.Worker.Outputs().Get(f.Src.Port)
			if err != nil {
				return err
			}
			out.Unsubscribe(dstBlock.ID, f.Dst.Port)
			return nil
		})
		if msg := h.WaitInfo(); msg != "" {
			failures = append(failures, fmt.Sprintf("UNSUBOUTPUT %s: %s", flowKey(f), msg))
		}
	}

	nowActive := map[string]bool{}
	for f := range flowSet {
		nowActive[f.Src.Block] = true
		nowActive[f.Dst.Block] = true
	}

	for id := range nowActive {
		if prevBlocks[id] {
			continue
		}
		b := blocks[id]
		if b == nil {
			failures = append(failures, fmt.Sprintf("activate: unknown block %q", id))
			continue
		}
		h := b.Worker.Activate()
		b.Worker.ProcessTask()
		if msg := h.WaitInfo(); msg != "" {
			failures = append(failures, fmt.Sprintf("activate %s: %s", id, msg))
		}
	}
	for id := range prevBlocks {
		if nowActive[id] {
			continue
		}
		b := blocks[id]
		if b == nil {
			continue // block was removed from the graph entirely
		}
		h := b.Worker.Deactivate()
		b.Worker.ProcessTask()
		if msg := h.WaitInfo(); msg != "" {
			failures = append(failures, fmt.Sprintf("deactivate %s: %s", id, msg))
		}
	}

	t.mu.Lock()
	t.activeFlatFlows = flowSet
	t.activeBlocks = nowActive
	t.mu.Unlock()

	return failures
}

// WaitInactive polls, at a short fixed interval, whether every block that
// was active as of the last commit has been idle (no work call started) for
// at least idle, returning true on success or false once timeout elapses
// without that condition holding, per spec.md §5 "waitInactive(idle,
// timeout)" and §9's Open Question resolution ("no actor has entered work
// for at least idle seconds").
func (t *Topology) WaitInactive(idle, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		t.mu.Lock()
		workers := make([]*actor.Worker, 0, len(t.activeBlocks))
		for id := range t.activeBlocks {
			if b, ok := t.lastFlatBlocks[id]; ok {
				workers = append(workers, b.Worker)
			}
		}
		t.mu.Unlock()

		allIdle := true
		for _, w := range workers {
			if !w.IdleFor(idle) {
				allIdle = false
				break
			}
		}
		if allIdle {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}
