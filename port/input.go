package port

import (
	"sync"

	"github.com/pothosware/flowcore/buffer"
	"github.com/pothosware/flowcore/dtype"
)

// Input is a streaming input endpoint: a FIFO of posted BufferChunks from
// upstream producers, a FIFO of pending labels, and the consumed-element
// accounting the scheduler's readiness check reads (spec.md §3 "InputPort").
//
// Label indices are stored relative to the current front of the pending
// byte stream (index 0 names the first not-yet-consumed element); Retire
// shifts them down as elements are retired, matching the upstream producer's
// view of "how far behind the write cursor is this marker".
type Input struct {
	mu sync.Mutex

	name      Name
	dt        dtype.DType
	domain    string
	owner     Flagger
	isSlot    bool
	automatic bool

	chunks []buffer.Chunk
	labels []buffer.Label

	totalElementsConsumed uint64
	pendingConsumed       uint64
	reserve               uint64
	rate                  float64

	managerFactory func(peerDomain string) buffer.Manager
}

// NewInput allocates an Input port of the given name/dtype/domain, owned by
// owner (the actor re-flagged whenever new data arrives).
func NewInput(name Name, dt dtype.DType, domain string, owner Flagger) *Input {
	if owner == nil {
		owner = noopFlagger{}
	}
	return &Input{name: name, dt: dt, domain: domain, owner: owner, reserve: 1, rate: 1}
}

// Rate returns the port's element rate, used to scale label indices when
// propagating across ports running at different sample rates.
func (in *Input) Rate() float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.rate
}

// SetRate updates the port's element rate.
func (in *Input) SetRate(r float64) {
	in.mu.Lock()
	in.rate = r
	in.mu.Unlock()
}

// Name returns the port's name.
func (in *Input) Name() Name { return in.name }

// DType returns the port's element type.
func (in *Input) DType() dtype.DType { return in.dt }

// Domain returns the port's memory domain tag.
func (in *Input) Domain() string { return in.domain }

// IsSlot reports whether this port is a signal-receiving slot rather than a
// streaming data input.
func (in *Input) IsSlot() bool { return in.isSlot }

// SetSlot marks this port as a slot (spec.md §4.4 allocateSlot).
func (in *Input) SetSlot(v bool) { in.isSlot = v }

// IsAutomatic reports whether this port was lazily auto-allocated rather
// than explicitly set up (spec.md §4.3 "Auto-allocation").
func (in *Input) IsAutomatic() bool { return in.automatic }

// SetAutomatic marks the port as automatically allocated.
func (in *Input) SetAutomatic(v bool) { in.automatic = v }

// Reserve returns the minimum element count that must be pending before
// work is considered ready to run.
func (in *Input) Reserve() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.reserve
}

// SetReserve updates the port's reserve requirement.
func (in *Input) SetReserve(n uint64) {
	in.mu.Lock()
	in.reserve = n
	in.mu.Unlock()
}

// TotalElementsConsumed returns the running count of elements retired from
// this port since creation.
func (in *Input) TotalElementsConsumed() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.totalElementsConsumed
}

// Elements returns the number of whole elements currently pending across
// all posted chunks, without merging or consuming them.
func (in *Input) Elements() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	total := 0
	for _, c := range in.chunks {
		total += c.Elements()
	}
	return total
}

// Post enqueues a producer-supplied chunk at the back of the FIFO and flags
// the owning actor so the scheduler re-checks readiness (spec.md §4.3
// "the chunk is enqueued into every subscriber's input FIFO, the
// subscriber's actor is flagged").
func (in *Input) Post(c buffer.Chunk) {
	in.mu.Lock()
	in.chunks = append(in.chunks, c)
	in.mu.Unlock()
	in.owner.FlagChange()
}

// PostLabel enqueues a label at the given index relative to the current
// front of the pending stream.
func (in *Input) PostLabel(l buffer.Label) {
	in.mu.Lock()
	in.labels = append(in.labels, l)
	in.mu.Unlock()
}

// Buffer returns a contiguous read-only view of at least minBytes pending
// bytes, merging leading chunks if no single posted chunk is long enough
// (spec.md §4.3 "read a contiguous view of pending bytes (may span-merge
// leading chunks)"). ok is false if fewer than minBytes bytes are pending.
func (in *Input) Buffer(minBytes int) (data []byte, ok bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if minBytes <= 0 {
		if len(in.chunks) == 0 {
			return nil, true
		}
		return in.chunks[0].Bytes(), true
	}
	pending := 0
	for _, c := range in.chunks {
		pending += c.Length()
	}
	if pending < minBytes {
		return nil, false
	}
	for len(in.chunks) > 1 && in.chunks[0].Length() < minBytes {
		merged := in.chunks[0].Append(in.chunks[1])
		in.chunks[1] = merged
		in.chunks = in.chunks[1:]
	}
	return in.chunks[0].Bytes(), true
}

// PeekLabels returns (without removing) the labels whose Index is strictly
// less than upTo elements from the current front -- spec.md §4.3 "peek
// labels in range".
func (in *Input) PeekLabels(upTo uint64) []buffer.Label {
	in.mu.Lock()
	defer in.mu.Unlock()
	var out []buffer.Label
	for _, l := range in.labels {
		if l.Index < upTo {
			out = append(out, l)
		}
	}
	return out
}

// Consume is called by a block's work function to declare that n elements
// of the pending stream were consumed this dispatch. It only records the
// count; the framework applies it (via Retire) in postWorkTasks, after
// propagating labels in range, per spec.md §4.4 "Compute consumed/produced
// from the delta in port counters" / "For each input that consumed, advance
// the FIFO...".
func (in *Input) Consume(n int) {
	if n <= 0 {
		return
	}
	in.mu.Lock()
	in.pendingConsumed += uint64(n)
	in.mu.Unlock()
}

// TakePendingConsumed returns and clears the element count recorded by
// Consume since the last TakePendingConsumed call. Framework-internal:
// called once by actor.Worker's postWorkTasks per dispatch.
func (in *Input) TakePendingConsumed() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	n := in.pendingConsumed
	in.pendingConsumed = 0
	return n
}

// Retire advances the FIFO head by n elements, incrementing
// totalElementsConsumed, removing fully-retired chunks and trimming a
// partially-retired leading chunk, and shifting every remaining label's
// Index down by n (dropping labels that fall behind the new front) --
// spec.md §4.3 "remove N from the front with label index adjustment".
// Framework-internal: called by actor.Worker after propagating labels for
// the same n via PropagateLabels.
func (in *Input) Retire(n uint64) {
	if n == 0 {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()

	remaining := int(n) * in.dt.Size()
	for remaining > 0 && len(in.chunks) > 0 {
		head := in.chunks[0]
		if head.Length() <= remaining {
			remaining -= head.Length()
			in.chunks = in.chunks[1:]
		} else {
			in.chunks[0] = head.Slice(remaining, head.Length()-remaining)
			remaining = 0
		}
	}

	kept := in.labels[:0]
	for _, l := range in.labels {
		if l.Index >= n {
			kept = append(kept, l.Shift(-int64(n)))
		}
	}
	in.labels = kept

	in.totalElementsConsumed += n
}

// SetManagerFactory registers the block's opinion on supplying a custom
// buffer.Manager for this input given the peer output's domain, mirroring
// the original `Block::getInputBufferManager(name, domain)` hook (spec.md
// §4.6 phase 4). A nil factory, or one that itself returns nil, means
// ABDICATE; a non-nil return means CUSTOM.
func (in *Input) SetManagerFactory(f func(peerDomain string) buffer.Manager) {
	in.mu.Lock()
	in.managerFactory = f
	in.mu.Unlock()
}

// NegotiateManager asks this input's registered factory (if any) for a
// buffer.Manager given the peer output's domain. Returns nil for ABDICATE.
func (in *Input) NegotiateManager(peerDomain string) buffer.Manager {
	in.mu.Lock()
	f := in.managerFactory
	in.mu.Unlock()
	if f == nil {
		return nil
	}
	return f(peerDomain)
}

// Ready reports whether enough elements are pending to meet reserve, used by
// the scheduler's readiness check (spec.md §4.4 step 2).
func (in *Input) Ready() bool {
	return uint64(in.Elements()) >= in.Reserve()
}
