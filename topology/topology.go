package topology

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pothosware/flowcore/actor"
	"github.com/pothosware/flowcore/port"
)

// Topology is a (possibly hierarchical) container of blocks, nested
// sub-topologies, and flows between them. Commit flattens it into a single
// executable graph, per spec.md §4.6.
type Topology struct {
	mu   sync.Mutex
	name string

	blocks map[string]*Block
	subs   map[string]*Topology
	flows  []Flow

	domainCompatible func(srcDomain, dstDomain string) bool
	bridgeFactory    BridgeFactory
	bridgeCache      map[Flow]bridgePair

	activeFlatFlows map[Flow]bool
	activeBlocks    map[string]bool
	adapters        map[Flow]*Block
	lastFlatBlocks  map[string]*Block

	logger *slog.Logger
}

// New returns an empty, named Topology. name is stored but not used for
// qualification: blocks of a nested topology are qualified by the id it was
// given in AddSubTopology.
func New(name string) *Topology {
	return &Topology{
		name:            name,
		blocks:          map[string]*Block{},
		subs:            map[string]*Topology{},
		bridgeCache:     map[Flow]bridgePair{},
		activeFlatFlows: map[Flow]bool{},
		activeBlocks:    map[string]bool{},
		adapters:        map[Flow]*Block{},
		logger:          slog.Default(),
	}
}

// SetLogger overrides the topology's logger (default slog.Default()).
func (t *Topology) SetLogger(l *slog.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l != nil {
		t.logger = l
	}
}

// SetDomainCompatible overrides the predicate phase 3 uses to decide whether
// two domains can share buffers without an adapter. The default requires
// exact equality.
func (t *Topology) SetDomainCompatible(fn func(srcDomain, dstDomain string) bool) {
	t.mu.Lock()
	t.domainCompatible = fn
	t.mu.Unlock()
}

func (t *Topology) domainsCompatible(src, dst string) bool {
	t.mu.Lock()
	fn := t.domainCompatible
	t.mu.Unlock()
	if fn != nil {
		return fn(src, dst)
	}
	return src == dst
}

// SetBridgeFactory installs the network iogress hook phase 2 uses to bridge
// flows that cross a proxy environment boundary (spec.md §4.6 phase 2). With
// no factory installed, cross-environment flows pass through unbridged and a
// warning is logged for each such flow on every Commit.
func (t *Topology) SetBridgeFactory(f BridgeFactory) {
	t.mu.Lock()
	t.bridgeFactory = f
	t.mu.Unlock()
}

// AddBlock registers a concrete leaf block under id, local to this topology.
// Environment tags the proxy environment this block's actor runs in; leave
// it empty for in-process blocks sharing the root environment.
func (t *Topology) AddBlock(id, path, environment string, w *actor.Worker) error {
	if isSelfAlias(id) {
		return fmt.Errorf("topology: block id %q is reserved for the enclosing topology alias", id)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.blocks[id]; dup {
		return fmt.Errorf("topology: duplicate block id %q", id)
	}
	if _, dup := t.subs[id]; dup {
		return fmt.Errorf("topology: id %q already names a sub-topology", id)
	}
	t.blocks[id] = &Block{ID: id, Path: path, Environment: environment, Worker: w}
	return nil
}

// AddSubTopology nests sub under id, local to this topology. Flows may then
// Connect to id's ports, which sub resolves via its own "self" pass-through
// flows (spec.md §4.6 phase 1 "Squash").
func (t *Topology) AddSubTopology(id string, sub *Topology) error {
	if isSelfAlias(id) {
		return fmt.Errorf("topology: sub-topology id %q is reserved for the enclosing topology alias", id)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.blocks[id]; dup {
		return fmt.Errorf("topology: id %q already names a block", id)
	}
	if _, dup := t.subs[id]; dup {
		return fmt.Errorf("topology: duplicate sub-topology id %q", id)
	}
	t.subs[id] = sub
	return nil
}

// resolvable reports whether id names something this topology knows about:
// a concrete block, a nested sub-topology, or the self-alias.
func (t *Topology) resolvable(id string) bool {
	if isSelfAlias(id) {
		return true
	}
	if _, ok := t.blocks[id]; ok {
		return true
	}
	if _, ok := t.subs[id]; ok {
		return true
	}
	return false
}

// Connect records a flow from srcID.srcPort to dstID.dstPort, local to this
// topology. Either id may be "self"/"this"/"" to declare a pass-through
// boundary port resolved when this topology is itself nested (spec.md §6).
func (t *Topology) Connect(srcID string, srcPort port.Name, dstID string, dstPort port.Name) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.resolvable(srcID) {
		return fmt.Errorf("topology: connect: unknown source block %q", srcID)
	}
	if !t.resolvable(dstID) {
		return fmt.Errorf("topology: connect: unknown destination block %q", dstID)
	}
	f := Flow{Src: Endpoint{Block: srcID, Port: srcPort}, Dst: Endpoint{Block: dstID, Port: dstPort}}
	for _, existing := range t.flows {
		if existing == f {
			return nil
		}
	}
	t.flows = append(t.flows, f)
	return nil
}

// Disconnect removes a previously Connect-ed flow, if present.
func (t *Topology) Disconnect(srcID string, srcPort port.Name, dstID string, dstPort port.Name) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	f := Flow{Src: Endpoint{Block: srcID, Port: srcPort}, Dst: Endpoint{Block: dstID, Port: dstPort}}
	kept := t.flows[:0]
	found := false
	for _, existing := range t.flows {
		if existing == f {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	t.flows = kept
	if !found {
		return fmt.Errorf("topology: disconnect: flow %s.%s -> %s.%s not found", srcID, srcPort, dstID, dstPort)
	}
	return nil
}

// DisconnectAll removes every flow recorded directly in this topology. It
// does not recurse into sub-topologies (each owns its own flow list), per
// spec.md §9 "disconnectAll in Topology's destructor" tearing down exactly
// the flows this topology declared.
func (t *Topology) DisconnectAll() {
	t.mu.Lock()
	t.flows = nil
	t.mu.Unlock()
}

// Flows returns a snapshot of the flows recorded directly in this topology
// (pre-squash).
func (t *Topology) Flows() []Flow {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]Flow, len(t.flows))
	copy(cp, t.flows)
	return cp
}

// Blocks returns a snapshot of the blocks registered directly in this
// topology (pre-squash).
func (t *Topology) Blocks() map[string]*Block {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make(map[string]*Block, len(t.blocks))
	for k, v := range t.blocks {
		cp[k] = v
	}
	return cp
}

// passThroughMaps splits this topology's self-aliased flows into the two
// boundary-resolution tables squash.go needs: a port used as the topology's
// own input (self as Src, forwarding into a real consumer) and a port used
// as the topology's own output (self as Dst, fed by a real producer).
func (t *Topology) passThroughMaps() (asInput map[port.Name]Endpoint, asOutput map[port.Name]Endpoint) {
	asInput = map[port.Name]Endpoint{}
	asOutput = map[port.Name]Endpoint{}
	for _, f := range t.flows {
		if isSelfAlias(f.Src.Block) {
			asInput[f.Src.Port] = f.Dst
		}
		if isSelfAlias(f.Dst.Block) {
			asOutput[f.Dst.Port] = f.Src
		}
	}
	return
}
