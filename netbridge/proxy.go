package netbridge

import (
	"fmt"

	"github.com/pothosware/flowcore/actor"
	"github.com/pothosware/flowcore/buffer"
	"github.com/pothosware/flowcore/port"
	"github.com/pothosware/flowcore/topology"
)

// BlockProxy fixes the block-proxy verbs spec.md §6 names for the
// cross-process/cross-host proxy RPC -- itself out of scope (spec.md §1
// "Out of scope ... the cross-process/cross-host proxy RPC") -- so that
// surface has a concrete, narrow Go contract a future remote transport can
// implement against without this package depending on that transport.
type BlockProxy struct {
	block *topology.Block
}

// NewBlockProxy wraps a local Block for proxy dispatch.
func NewBlockProxy(b *topology.Block) *BlockProxy {
	return &BlockProxy{block: b}
}

// GetPointer returns the underlying Block, per spec.md §6 "getPointer".
func (p *BlockProxy) GetPointer() *topology.Block { return p.block }

// GetActor returns an ActorProxy for the block's Worker, per spec.md §6
// "get:_actor".
func (p *BlockProxy) GetActor() *ActorProxy { return NewActorProxy(p.block.Worker) }

// Input resolves an input port by name, per spec.md §6 "input(name)".
func (p *BlockProxy) Input(name port.Name) (*port.Input, error) {
	return p.block.Worker.Inputs().Get(name)
}

// Output resolves an output port by name, per spec.md §6 "output(name)".
func (p *BlockProxy) Output(name port.Name) (*port.Output, error) {
	return p.block.Worker.Outputs().Get(name)
}

// GetName returns the block's id, per spec.md §6 "getName".
func (p *BlockProxy) GetName() string { return p.block.ID }

// Call dispatches an opaque capability call, per spec.md §6 "call(name,
// args...)".
func (p *BlockProxy) Call(name string, args ...any) (any, error) {
	return p.block.Worker.OpaqueCall(name, args...)
}

// SubscriberAction names the four subscription-diff verbs spec.md §4.6
// phase 5 and §6's actor-proxy surface both use.
type SubscriberAction int

const (
	ActionSubOutput SubscriberAction = iota
	ActionUnsubOutput
	ActionSubInput
	ActionUnsubInput
)

// BufferMode reports whether a port supplies its own buffer.Manager
// (CUSTOM) or defers to the other side (ABDICATE), per spec.md §4.2/§4.6
// phase 4.
type BufferMode int

const (
	BufferModeAbdicate BufferMode = iota
	BufferModeCustom
)

// ActorProxy fixes the actor-proxy verbs spec.md §6 names, each dispatched
// through the Worker's existing control-message primitives so a remote
// caller's WaitInfo() blocks on exactly the same completion signal a local
// Topology.Commit does.
type ActorProxy struct {
	worker *actor.Worker
}

// NewActorProxy wraps a local Worker for proxy dispatch.
func NewActorProxy(w *actor.Worker) *ActorProxy { return &ActorProxy{worker: w} }

// SendPortSubscriberMessage wires or unwires a subscription, per spec.md §6
// "sendPortSubscriberMessage(action, my_port, peer, peer_port)". Only the
// output side holds subscriber state (an Input has none of its own, per
// topology.diffSubscriptions); SubInput/UnsubInput are acknowledged as
// no-ops for the symmetry the original verb set expects, mirroring how
// topology's own commit pipeline only mutates Output.Subscribe/Unsubscribe.
func (p *ActorProxy) SendPortSubscriberMessage(action SubscriberAction, myPort port.Name, peer string, peerPort port.Name, peerIn *port.Input) *actor.WaitHandle {
	return p.worker.Enqueue(func() error {
		switch action {
		case ActionSubOutput:
			out, err := p.worker.Outputs().Get(myPort)
			if err != nil {
				return err
			}
			if peerIn == nil {
				return fmt.Errorf("netbridge: sendPortSubscriberMessage: SubOutput requires a peer input")
			}
			out.Subscribe(port.Subscriber{ActorName: peer, PortName: peerPort, In: peerIn})
			return nil
		case ActionUnsubOutput:
			out, err := p.worker.Outputs().Get(myPort)
			if err != nil {
				return err
			}
			out.Unsubscribe(peer, peerPort)
			return nil
		case ActionSubInput, ActionUnsubInput:
			return nil
		default:
			return fmt.Errorf("netbridge: sendPortSubscriberMessage: unknown action %d", action)
		}
	})
}

// SendActivateMessage activates the actor, per spec.md §6
// "sendActivateMessage".
func (p *ActorProxy) SendActivateMessage() *actor.WaitHandle { return p.worker.Activate() }

// SendDeactivateMessage deactivates the actor, per spec.md §6
// "sendDeactivateMessage".
func (p *ActorProxy) SendDeactivateMessage() *actor.WaitHandle { return p.worker.Deactivate() }

// GetInputBufferMode reports CUSTOM/ABDICATE for the named input against
// peerDomain, per spec.md §6 "getInputBufferMode".
func (p *ActorProxy) GetInputBufferMode(name port.Name, peerDomain string) (BufferMode, error) {
	in, err := p.worker.Inputs().Get(name)
	if err != nil {
		return BufferModeAbdicate, err
	}
	if in.NegotiateManager(peerDomain) != nil {
		return BufferModeCustom, nil
	}
	return BufferModeAbdicate, nil
}

// GetOutputBufferMode reports CUSTOM/ABDICATE for the named output against
// peerDomain, per spec.md §6 "getOutputBufferMode".
func (p *ActorProxy) GetOutputBufferMode(name port.Name, peerDomain string) (BufferMode, error) {
	out, err := p.worker.Outputs().Get(name)
	if err != nil {
		return BufferModeAbdicate, err
	}
	if out.NegotiateManager(peerDomain) != nil {
		return BufferModeCustom, nil
	}
	return BufferModeAbdicate, nil
}

// GetBufferManager negotiates (and does not install) a buffer.Manager for
// the named port against peerDomain, per spec.md §6 "getBufferManager(port,
// peer_domain, is_input)". Returns nil, nil for ABDICATE.
func (p *ActorProxy) GetBufferManager(name port.Name, peerDomain string, isInput bool) (buffer.Manager, error) {
	if isInput {
		in, err := p.worker.Inputs().Get(name)
		if err != nil {
			return nil, err
		}
		return in.NegotiateManager(peerDomain), nil
	}
	out, err := p.worker.Outputs().Get(name)
	if err != nil {
		return nil, err
	}
	return out.NegotiateManager(peerDomain), nil
}

// SetOutputBufferManager installs mgr on the named output, per spec.md §6
// "setOutputBufferManager(port, manager)".
func (p *ActorProxy) SetOutputBufferManager(name port.Name, mgr buffer.Manager) *actor.WaitHandle {
	return p.worker.Enqueue(func() error {
		out, err := p.worker.Outputs().Get(name)
		if err != nil {
			return err
		}
		out.SetManager(mgr)
		return nil
	})
}
