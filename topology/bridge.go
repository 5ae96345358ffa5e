package topology

import "golang.org/x/sync/errgroup"

// bridgePair is the sink/source block pair installed in place of a single
// flow that crosses a proxy environment boundary, cached so a repeated
// commit reuses the same rendezvous instead of reconnecting (spec.md §4.6
// phase 2).
type bridgePair struct {
	sink   *Block
	source *Block
}

// BridgeFactory builds the network-sink/network-source pair that replaces a
// flow whose endpoints live in different proxy environments. id is a stable
// identifier for the flow being bridged, suitable for deriving subject/queue
// names. Concrete implementations (e.g. a NATS-backed bridge) live outside
// this package; topology only defines the seam.
type BridgeFactory func(id string, f Flow, srcEnv, dstEnv string) (sink, source *Block, err error)

func flowKey(f Flow) string {
	return f.Src.Block + "." + string(f.Src.Port) + "->" + f.Dst.Block + "." + string(f.Dst.Port)
}

// insertNetworkIogress implements spec.md §4.6 phase 2: every flat flow
// whose endpoints carry different Environment tags (an empty tag counts as
// the root environment, so "" vs "remote" also differs) is replaced
// by src->sink and source->dst, with the sink/source pair cached per
// original flow so repeated commits reuse the same bridge. New bridges for
// distinct flows (distinct environment-pair rendezvous) are built
// concurrently via errgroup, matching spec.md §4.6's closing paragraph
// ("sub-topologies in different environments commit concurrently so
// network-sink and network-source can rendezvous"). With no bridge factory
// installed, such flows pass through unchanged and a warning is logged for
// each of them on every commit.
func (t *Topology) insertNetworkIogress(blocks map[string]*Block, flows []Flow) ([]Flow, error) {
	t.mu.Lock()
	factory := t.bridgeFactory
	t.mu.Unlock()

	type pending struct {
		idx int
		f   Flow
	}
	var toBuild []pending
	needsBridge := make([]bool, len(flows))

	for i, f := range flows {
		srcBlock, dstBlock := blocks[f.Src.Block], blocks[f.Dst.Block]
		if srcBlock == nil || dstBlock == nil || srcBlock.Environment == dstBlock.Environment {
			continue
		}
		if factory == nil {
			t.logger.Warn("topology: flow crosses environment boundary with no bridge factory installed",
				"flow", flowKey(f), "src_env", srcBlock.Environment, "dst_env", dstBlock.Environment)
			continue
		}
		needsBridge[i] = true
		t.mu.Lock()
		_, cached := t.bridgeCache[f]
		t.mu.Unlock()
		if !cached {
			toBuild = append(toBuild, pending{idx: i, f: f})
		}
	}

	if len(toBuild) > 0 {
		built := make([]bridgePair, len(toBuild))
		var g errgroup.Group
		for j, p := range toBuild {
			j, p := j, p
			srcBlock, dstBlock := blocks[p.f.Src.Block], blocks[p.f.Dst.Block]
			g.Go(func() error {
				sink, source, err := factory(flowKey(p.f), p.f, srcBlock.Environment, dstBlock.Environment)
				if err != nil {
					return err
				}
				built[j] = bridgePair{sink: sink, source: source}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		t.mu.Lock()
		for j, p := range toBuild {
			t.bridgeCache[p.f] = built[j]
		}
		t.mu.Unlock()
	}

	out := make([]Flow, 0, len(flows))
	for i, f := range flows {
		if !needsBridge[i] {
			out = append(out, f)
			continue
		}
		t.mu.Lock()
		pair := t.bridgeCache[f]
		t.mu.Unlock()
		blocks[pair.sink.ID] = pair.sink
		blocks[pair.source.ID] = pair.source
		out = append(out, Flow{Src: f.Src, Dst: Endpoint{Block: pair.sink.ID, Port: "0"}})
		out = append(out, Flow{Src: Endpoint{Block: pair.source.ID, Port: "0"}, Dst: f.Dst})
	}
	return out, nil
}
