package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pothosware/flowcore/port"
)

// DotConfig controls toDotMarkup's rendering, per spec.md §6: mode "flat"
// shows the flattened graph installed by the last Commit, including inserted
// network bridges/adapters (before any Commit, the squashed graph without
// them), mode "top" shows only this topology's direct blocks,
// sub-topologies (as single nodes), and flows. port "all" lists every
// declared port per node; port "connected" lists only ports that appear in
// a rendered edge.
type DotConfig struct {
	Mode string // "flat" | "top"
	Port string // "all" | "connected"
}

// DefaultDotConfig is {"mode":"top","port":"connected"}, per spec.md §6.
func DefaultDotConfig() DotConfig { return DotConfig{Mode: "top", Port: "connected"} }

// ToDotMarkup renders this topology as a Graphviz "digraph" per cfg. A zero
// DotConfig is treated as DefaultDotConfig().
func (t *Topology) ToDotMarkup(cfg DotConfig) string {
	if cfg.Mode == "" {
		cfg.Mode = "top"
	}
	if cfg.Port == "" {
		cfg.Port = "connected"
	}

	var nodes []string
	var edges []Flow
	blockByID := map[string]*Block{}
	if cfg.Mode == "flat" {
		blocks, flows := squash(t)
		t.mu.Lock()
		if t.lastFlatBlocks != nil {
			blocks, flows = t.lastFlatBlocks, nil
			for f := range t.activeFlatFlows {
				flows = append(flows, f)
			}
		}
		t.mu.Unlock()
		for id, blk := range blocks {
			nodes = append(nodes, id)
			blockByID[id] = blk
		}
		edges = flows
	} else {
		t.mu.Lock()
		for id, blk := range t.blocks {
			nodes = append(nodes, id)
			blockByID[id] = blk
		}
		for id := range t.subs {
			nodes = append(nodes, id)
		}
		for _, f := range t.flows {
			if isSelfAlias(f.Src.Block) || isSelfAlias(f.Dst.Block) {
				continue
			}
			edges = append(edges, f)
		}
		t.mu.Unlock()
	}
	sort.Strings(nodes)
	sort.Slice(edges, func(i, j int) bool { return flowKey(edges[i]) < flowKey(edges[j]) })

	connectedPort := map[string]bool{}
	for _, f := range edges {
		connectedPort[f.Src.Block+"."+string(f.Src.Port)] = true
		connectedPort[f.Dst.Block+"."+string(f.Dst.Port)] = true
	}

	var b strings.Builder
	b.WriteString("digraph topology {\n")
	for _, n := range nodes {
		label := n
		if cfg.Port == "all" {
			if blk := blockByID[n]; blk != nil {
				label = n + portSuffix(blk, n, connectedPort)
			}
		}
		fmt.Fprintf(&b, "  %q [label=%q];\n", n, label)
	}
	for _, f := range edges {
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", f.Src.Block, f.Dst.Block,
			string(f.Src.Port)+" -> "+string(f.Dst.Port))
	}
	b.WriteString("}\n")
	return b.String()
}

// portSuffix lists a block's declared port names, marking any that don't
// appear in connectedPort with a "*" -- "all" mode's whole point is to
// surface ports "connected" mode omits entirely.
func portSuffix(blk *Block, id string, connectedPort map[string]bool) string {
	if blk.Worker == nil {
		return ""
	}
	var names []string
	for name := range blk.Worker.Inputs().Named() {
		names = append(names, "in:"+string(name)+unconnectedMark(connectedPort, id, name))
	}
	for name := range blk.Worker.Outputs().Named() {
		names = append(names, "out:"+string(name)+unconnectedMark(connectedPort, id, name))
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return "\\n[" + strings.Join(names, ",") + "]"
}

func unconnectedMark(connectedPort map[string]bool, id string, name port.Name) string {
	if connectedPort[id+"."+string(name)] {
		return ""
	}
	return "*"
}
