// Package topology implements the hierarchical flow graph and the five-phase
// commit pipeline described in spec.md §4.6: squash, network iogress
// insertion, domain rectification, buffer-manager negotiation, and
// subscription diff/activation.
package topology

import (
	"github.com/pothosware/flowcore/actor"
	"github.com/pothosware/flowcore/port"
)

// Endpoint names one side of a Flow: a block id (local to whatever Topology
// it is resolved against) and a port name.
type Endpoint struct {
	Block string
	Port  port.Name
}

// Flow is a first-class (src, dst) pair, compared by equality of its four
// components per spec.md §3 "Flow".
type Flow struct {
	Src Endpoint
	Dst Endpoint
}

// isSelfAlias reports whether id names the enclosing topology itself, per
// spec.md §6 "ids 'self', 'this', '' alias the enclosing topology".
func isSelfAlias(id string) bool {
	return id == "self" || id == "this" || id == ""
}

// Block is a concrete leaf node: a registered actor.Worker plus the
// bookkeeping the commit pipeline and dot-markup renderer need (its
// originating path and proxy environment id).
type Block struct {
	ID          string
	Path        string
	Environment string
	Worker      *actor.Worker
}
