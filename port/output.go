package port

import (
	"sync"

	"github.com/pothosware/flowcore/buffer"
	"github.com/pothosware/flowcore/dtype"
)

// Subscriber names one destination of an Output port's produced stream: the
// concrete Input it posts into, plus the name pair recorded for dot-markup
// and diagnostics (spec.md §3 "list of (dst_actor, dst_port_name)
// subscribers").
type Subscriber struct {
	ActorName string
	PortName  Name
	In        *Input
}

// Output is a streaming output endpoint: the active buffer.Manager supplying
// empty buffers, the subscriber list posted chunks fan out to, and the
// produced-element accounting (spec.md §3 "OutputPort").
//
// A signal port (IsSignal true) never touches the buffer manager: emitted
// args are delivered directly to subscribed slots as control messages,
// bypassing stream flow entirely (spec.md §4.4 "Signals").
type Output struct {
	mu sync.Mutex

	name      Name
	dt        dtype.DType
	domain    string
	owner     Flagger
	isSignal  bool
	automatic bool

	manager     buffer.Manager
	subscribers []Subscriber

	totalElementsProduced uint64
	pendingLabels         []buffer.Label
	rate                  float64

	managerFactory func(peerDomain string) buffer.Manager
}

// NewOutput allocates an Output port of the given name/dtype/domain, owned
// by owner (the actor re-flagged when its buffer manager frees a buffer).
func NewOutput(name Name, dt dtype.DType, domain string, owner Flagger) *Output {
	if owner == nil {
		owner = noopFlagger{}
	}
	return &Output{name: name, dt: dt, domain: domain, owner: owner, rate: 1}
}

// Rate returns the port's element rate.
func (out *Output) Rate() float64 {
	out.mu.Lock()
	defer out.mu.Unlock()
	return out.rate
}

// SetRate updates the port's element rate.
func (out *Output) SetRate(r float64) {
	out.mu.Lock()
	out.rate = r
	out.mu.Unlock()
}

// Name returns the port's name.
func (out *Output) Name() Name { return out.name }

// DType returns the port's element type.
func (out *Output) DType() dtype.DType { return out.dt }

// Domain returns the port's memory domain tag.
func (out *Output) Domain() string { return out.domain }

// IsSignal reports whether this port emits signal args instead of stream
// buffers.
func (out *Output) IsSignal() bool { return out.isSignal }

// SetSignal marks this port as a signal emitter (spec.md §4.4 allocateSignal).
func (out *Output) SetSignal(v bool) { out.isSignal = v }

// IsAutomatic reports whether this port was lazily auto-allocated.
func (out *Output) IsAutomatic() bool { return out.automatic }

// SetAutomatic marks the port as automatically allocated.
func (out *Output) SetAutomatic(v bool) { out.automatic = v }

// TotalElementsProduced returns the running count of elements emitted from
// this port since creation.
func (out *Output) TotalElementsProduced() uint64 {
	out.mu.Lock()
	defer out.mu.Unlock()
	return out.totalElementsProduced
}

// SetManager installs the negotiated buffer.Manager for this port and wires
// its free-buffer callback to re-flag the owning actor (spec.md §4.6 phase
// 4 "Buffer-manager negotiation").
func (out *Output) SetManager(mgr buffer.Manager) {
	out.mu.Lock()
	out.manager = mgr
	out.mu.Unlock()
	if mgr != nil {
		mgr.SetCallback(out.owner.FlagChange)
	}
}

// Manager returns the currently installed buffer.Manager, or nil.
func (out *Output) Manager() buffer.Manager {
	out.mu.Lock()
	defer out.mu.Unlock()
	return out.manager
}

// SetManagerFactory registers the block's opinion on supplying a custom
// buffer.Manager for this output given the peer input's domain, mirroring
// `Block::getOutputBufferManager(name, domain)` (spec.md §4.6 phase 4). A
// nil factory, or one that itself returns nil, means ABDICATE; a non-nil
// return means CUSTOM.
func (out *Output) SetManagerFactory(f func(peerDomain string) buffer.Manager) {
	out.mu.Lock()
	out.managerFactory = f
	out.mu.Unlock()
}

// NegotiateManager asks this output's registered factory (if any) for a
// buffer.Manager given the peer input's domain. Returns nil for ABDICATE.
func (out *Output) NegotiateManager(peerDomain string) buffer.Manager {
	out.mu.Lock()
	f := out.managerFactory
	out.mu.Unlock()
	if f == nil {
		return nil
	}
	return f(peerDomain)
}

// Subscribe adds a destination; postBuffer fans out to every subscriber.
func (out *Output) Subscribe(s Subscriber) {
	out.mu.Lock()
	defer out.mu.Unlock()
	for _, existing := range out.subscribers {
		if existing.ActorName == s.ActorName && existing.PortName == s.PortName {
			return
		}
	}
	out.subscribers = append(out.subscribers, s)
}

// Unsubscribe removes a destination previously added by Subscribe.
func (out *Output) Unsubscribe(actorName string, portName Name) {
	out.mu.Lock()
	defer out.mu.Unlock()
	kept := out.subscribers[:0]
	for _, s := range out.subscribers {
		if s.ActorName == actorName && s.PortName == portName {
			continue
		}
		kept = append(kept, s)
	}
	out.subscribers = kept
}

// Subscribers returns a snapshot of the current subscriber list.
func (out *Output) Subscribers() []Subscriber {
	out.mu.Lock()
	defer out.mu.Unlock()
	cp := make([]Subscriber, len(out.subscribers))
	copy(cp, out.subscribers)
	return cp
}

// Reserve pops the next available buffer from the installed manager. ok is
// false if the manager has nothing available, which gates actor readiness
// rather than signalling an error. numElements is not checked against the
// buffer's size, so the buffer may hold fewer elements.
func (out *Output) Reserve(numElements int) (buf buffer.ManagedBuffer, ok bool) {
	out.mu.Lock()
	mgr := out.manager
	out.mu.Unlock()
	if mgr == nil {
		return buffer.ManagedBuffer{}, false
	}
	return mgr.Pop()
}

// PostLabel queues a label to accompany the next produced bytes, at Index
// relative to the current production cursor.
func (out *Output) PostLabel(l buffer.Label) {
	out.mu.Lock()
	out.pendingLabels = append(out.pendingLabels, l)
	out.mu.Unlock()
}

// PostBuffer emits an arbitrary BufferChunk as a zero-copy produce: it is
// enqueued into every subscriber's input FIFO, the subscriber's actor is
// flagged, and totalElementsProduced advances by the chunk's element count
// (spec.md §4.3 "postBuffer"). Each subscriber beyond the first gets its own
// retained reference to the underlying region, so the shared buffer is only
// freed once every subscriber has released its copy.
func (out *Output) PostBuffer(c buffer.Chunk) {
	out.mu.Lock()
	subs := make([]Subscriber, len(out.subscribers))
	copy(subs, out.subscribers)
	out.totalElementsProduced += uint64(c.Elements())
	out.mu.Unlock()

	fanOut(subs, c)
}

// fanOut posts a copy of c to every subscriber, retaining an extra
// reference to the shared region per subscriber beyond the first.
func fanOut(subs []Subscriber, c buffer.Chunk) {
	for i, s := range subs {
		if s.In == nil {
			continue
		}
		toPost := c
		if i > 0 && !c.IsNull() {
			toPost = buffer.New(c.SharedBuffer().Retain(), c.DType())
		}
		s.In.Post(toPost)
	}
}

// Produce advances the manager's front buffer by numElements (converted to
// bytes via this port's dtype), slicing the produced region into a Chunk and
// fanning it out to every subscriber exactly as PostBuffer does, along with
// any labels whose Index falls within the produced span.
func (out *Output) Produce(numElements int) {
	out.mu.Lock()
	mgr := out.manager
	dt := out.dt
	out.mu.Unlock()
	if mgr == nil || numElements <= 0 {
		return
	}
	front, ok := mgr.Front()
	if !ok {
		return
	}
	n := numElements * dt.Size()
	produced := buffer.New(front.SharedBuffer.Slice(0, n), dt)

	out.mu.Lock()
	var carried, dropped []buffer.Label
	for _, l := range out.pendingLabels {
		if int(l.Index) < numElements {
			carried = append(carried, l)
		} else {
			dropped = append(dropped, l.Shift(-int64(numElements)))
		}
	}
	out.pendingLabels = dropped
	subs := make([]Subscriber, len(out.subscribers))
	copy(subs, out.subscribers)
	out.totalElementsProduced += uint64(numElements)
	out.mu.Unlock()

	fanOut(subs, produced)
	for _, s := range subs {
		if s.In == nil {
			continue
		}
		for _, l := range carried {
			s.In.PostLabel(l)
		}
	}
}
