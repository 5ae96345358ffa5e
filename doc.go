// Package flowcore is an in-process dataflow execution engine: a directed
// graph of processing blocks connected by typed streaming ports, committed
// once and then scheduled to run by a fixed worker-thread pool.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│            Topology                 │  Graph storage, flatten,
//	│   (blocks, sub-topologies, flows)   │  domain rectify, commit
//	└─────────────────────────────────────┘
//	           ↓ commits into
//	┌─────────────────────────────────────┐
//	│         actor.Worker                │  Block lifecycle, port
//	│   (pre/work/post, control calls)    │  plumbing, work dispatch
//	└─────────────────────────────────────┘
//	           ↓ dispatched by
//	┌─────────────────────────────────────┐
//	│         scheduler.Pool              │  Worker threads, wait/poll
//	│   (ready-set, affinity, priority)   │  dispatch, CPU/NUMA affinity
//	└─────────────────────────────────────┘
//	           ↓ moves data through
//	┌─────────────────────────────────────┐
//	│      port.Input / port.Output       │  Per-edge state: posted
//	│    + buffer.Manager (by domain)     │  buffers, labels, counters
//	└─────────────────────────────────────┘
//
// A user builds a topology.Topology out of blocks (each an actor.Worker)
// connected by flows (src block/port -> dst block/port). Commit flattens
// nested sub-topologies, bridges flows that cross a proxy environment
// boundary over NATS (package netbridge), rectifies buffer-domain
// mismatches, negotiates and installs a buffer.Manager on each producer
// port, wires subscriptions, then activates every block. At runtime, a
// scheduler.Pool dispatches ready actors across worker goroutines; each
// actor runs its block's work function, reading input ports and writing
// output ports, and produced buffers flow as shared references into
// downstream input ports without a copy.
//
// # Package layout
//
//   - dtype: scalar/vector element type tags and sizing.
//   - buffer: SharedBuffer/ManagedBuffer/Chunk and the Manager interface,
//     plus the Generic (fixed-slab) manager implementation.
//   - port: InputPort/OutputPort, labels, subscriber lists, buffer-manager
//     negotiation.
//   - actor: the Block Actor -- single-threaded work execution, the
//     external/worker reentry interface, and the control-call/signal/slot
//     registry.
//   - scheduler: the fixed worker-thread pool and wait/poll dispatch.
//   - topology: the five-phase commit pipeline (squash, network iogress
//     insertion, domain rectification, buffer-manager negotiation,
//     subscription diff/activation) plus the JSON topology grammar and
//     dot-markup renderer.
//   - netbridge: the network-sink/network-source block pair and tcp://
//     remote locator the out-of-scope cross-process proxy RPC plugs into.
//   - flowerr: the Transient/Invalid/Fatal error taxonomy shared by every
//     package above.
//   - flowlog: structured logging with optional NATS republishing for live
//     observability.
//   - flowmetrics: Prometheus instrumentation for actors, the scheduler,
//     buffer managers, and topology commits.
//   - runtimeconfig: scheduler and buffer-manager tuning, loaded from JSON
//     or YAML.
//   - rtserver: a debug WebSocket server streaming live topology snapshots
//     and scheduler statistics.
//
// # Out of scope
//
// The JSON topology loader's dynamic plugin registry, the cross-process/
// cross-host proxy RPC's actual transport, the generic Object boxed-variant
// type and its serialization, and Q-format numeric helpers are named only
// to fix their contracts (see netbridge.BlockProxy/ActorProxy) -- this
// module does not depend on their implementations. No distributed
// consensus, no persistence, no security/auth, no in-kernel work. Remote
// blocks are opaque to the core: they are local blocks communicating via
// the network-source/sink blocks netbridge inserts during flattening.
package flowcore
