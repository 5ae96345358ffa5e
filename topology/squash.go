package topology

import "github.com/pothosware/flowcore/port"

// flattener accumulates the qualified blocks and flows produced by
// recursively expanding a Topology's sub-topologies, per spec.md §4.6 phase
// 1 "Squash".
type flattener struct {
	blocks map[string]*Block
	flows  []Flow
}

// boundaryResolver answers, for a topology being flattened, "what does this
// topology's own port p really connect to, fully qualified, given that the
// caller wants to use p as a source (asSrc) or a destination"?
type boundaryResolver func(p port.Name, asSrc bool) (Endpoint, bool)

func qualify(prefix, localID string) string {
	if prefix == "" {
		return localID
	}
	return prefix + "." + localID
}

// squash flattens root into a single qualified block registry and flow list.
func squash(root *Topology) (map[string]*Block, []Flow) {
	fz := &flattener{blocks: map[string]*Block{}}
	fz.flatten(root, "")
	return fz.blocks, fz.flows
}

// flatten registers t's concrete blocks (qualified by prefix), recursively
// flattens its nested sub-topologies, emits t's own concrete flows
// (resolving any endpoint that names a nested sub-topology through that
// sub's boundary resolver), and returns a boundary resolver for t itself so
// t's parent can splice flows that connect to t's own ports.
func (fz *flattener) flatten(t *Topology, prefix string) boundaryResolver {
	t.mu.Lock()
	blocksCopy := make(map[string]*Block, len(t.blocks))
	for k, v := range t.blocks {
		blocksCopy[k] = v
	}
	subsCopy := make(map[string]*Topology, len(t.subs))
	for k, v := range t.subs {
		subsCopy[k] = v
	}
	flowsCopy := make([]Flow, len(t.flows))
	copy(flowsCopy, t.flows)
	t.mu.Unlock()

	for id, b := range blocksCopy {
		qb := *b
		qb.ID = qualify(prefix, id)
		fz.blocks[qb.ID] = &qb
	}

	childResolvers := make(map[string]boundaryResolver, len(subsCopy))
	for id, sub := range subsCopy {
		childResolvers[id] = fz.flatten(sub, qualify(prefix, id))
	}

	var resolveLocal func(e Endpoint, asSrc bool) (Endpoint, bool)
	resolveLocal = func(e Endpoint, asSrc bool) (Endpoint, bool) {
		if isSelfAlias(e.Block) {
			return Endpoint{}, false
		}
		if childResolve, ok := childResolvers[e.Block]; ok {
			return childResolve(e.Port, asSrc)
		}
		return Endpoint{Block: qualify(prefix, e.Block), Port: e.Port}, true
	}

	for _, f := range flowsCopy {
		if isSelfAlias(f.Src.Block) || isSelfAlias(f.Dst.Block) {
			continue // boundary declaration, not a real data edge
		}
		src, srcOK := resolveLocal(f.Src, true)
		dst, dstOK := resolveLocal(f.Dst, false)
		if srcOK && dstOK {
			fz.flows = append(fz.flows, Flow{Src: src, Dst: dst})
		}
	}

	asInput, asOutput := t.passThroughMaps()
	return func(p port.Name, asSrc bool) (Endpoint, bool) {
		var e Endpoint
		var ok bool
		if asSrc {
			e, ok = asOutput[p]
		} else {
			e, ok = asInput[p]
		}
		if !ok {
			return Endpoint{}, false
		}
		return resolveLocal(e, asSrc)
	}
}
