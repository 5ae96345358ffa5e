package actor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pothosware/flowcore/flowerr"
	"github.com/pothosware/flowcore/port"
)

// Callable is a registered opaque call or signal handler, per spec.md §4.4
// "opaqueCall(name, args) ... consults a name -> Callable map".
type Callable func(args ...any) (any, error)

// WorkFunc is a block's work function: it reads pending input and writes
// output through the ports reachable from w, then (optionally) declares
// consumption/production via Input.Consume / Output.Produce.
type WorkFunc func(w *Worker) error

// signalSub is one subscriber of a signal output: the destination worker
// and the capability name it should invoke, per spec.md §4.4 "Signals".
type signalSub struct {
	dest *Worker
	name string
}

type controlMsg struct {
	fn      func() error
	resolve func(error)
}

// Worker is a WorkerActor: a block's port registries, capability table, and
// the single-threaded work dispatch loop described in spec.md §4.4.
type Worker struct {
	Name string

	iface   *Interface
	inputs  *port.InputRegistry
	outputs *port.OutputRegistry
	workFn  WorkFunc

	state   atomic.Int32
	lastErr atomic.Value // errBox

	capMu        sync.RWMutex
	capabilities map[string]Callable

	signalMu sync.Mutex
	signals  map[port.Name][]signalSub

	mailboxMu sync.Mutex
	mailbox   []controlMsg

	// work statistics, spec.md §4.4 step 5.
	ticks            atomic.Uint64
	totalWorkNanos   atomic.Int64
	lastWorkUnixNano atomic.Int64
	yieldFlag        bool // touched only while the actor lock is held
}

// NewWorker allocates a Worker in the Idle state, with fresh port registries
// owned by its own Interface.
func NewWorker(name string, workFn WorkFunc) *Worker {
	w := &Worker{Name: name, iface: NewInterface(), workFn: workFn, capabilities: map[string]Callable{}}
	w.inputs = port.NewInputRegistry(name, w.iface)
	w.outputs = port.NewOutputRegistry(name, w.iface)
	return w
}

// Interface returns the actor's mutual-exclusion primitive, e.g. for the
// scheduler to enable wait mode or the topology to wire a Flagger.
func (w *Worker) Interface() *Interface { return w.iface }

// Inputs returns the block's input port registry.
func (w *Worker) Inputs() *port.InputRegistry { return w.inputs }

// Outputs returns the block's output port registry.
func (w *Worker) Outputs() *port.OutputRegistry { return w.outputs }

// State returns the current lifecycle state.
func (w *Worker) State() State { return State(w.state.Load()) }

// errBox wraps an error in a concrete type so atomic.Value (which panics on
// mixed concrete types across Store calls) can hold arbitrary error values.
type errBox struct{ err error }

// LastError returns the sticky error from the most recent failed work call,
// or nil.
func (w *Worker) LastError() error {
	if b, ok := w.lastErr.Load().(errBox); ok {
		return b.err
	}
	return nil
}

// Yield requests that the scheduler revisit this actor again without
// waiting for new external input, per spec.md §4.4 step 4 "If the block
// called yield, re-flag internal change". Only valid from within WorkFunc.
func (w *Worker) Yield() { w.yieldFlag = true }

// SetCapability registers a callable under name for OpaqueCall/EmitSignalArgs
// dispatch.
func (w *Worker) SetCapability(name string, fn Callable) {
	w.capMu.Lock()
	w.capabilities[name] = fn
	w.capMu.Unlock()
}

// OpaqueCall acquires the actor for a synchronous external call, per
// spec.md §4.4 "opaqueCall(name, args) acquires the actor, consults a
// name -> Callable map, invokes, and returns the wrapped result". Returns
// flowerr.ErrBlockCallNotFound if name is unregistered.
func (w *Worker) OpaqueCall(name string, args ...any) (any, error) {
	w.iface.ExternalCallAcquire()
	defer w.iface.ExternalCallRelease()
	return w.invokeCapability(name, args...)
}

// invokeCapability is the lock-free inner dispatch, safe to call both from
// OpaqueCall (already holding the actor lock) and from mailbox processing
// inside preWorkTasks (which also already holds the actor lock).
func (w *Worker) invokeCapability(name string, args ...any) (any, error) {
	w.capMu.RLock()
	fn, ok := w.capabilities[name]
	w.capMu.RUnlock()
	if !ok {
		return nil, flowerr.CallNotFound(name)
	}
	return fn(args...)
}

// SubscribeSignal registers dest to receive signal args emitted on
// portName, invoking its capability calleeName for each emission.
func (w *Worker) SubscribeSignal(portName port.Name, dest *Worker, calleeName string) {
	w.signalMu.Lock()
	if w.signals == nil {
		w.signals = map[port.Name][]signalSub{}
	}
	w.signals[portName] = append(w.signals[portName], signalSub{dest: dest, name: calleeName})
	w.signalMu.Unlock()
}

// UnsubscribeSignal removes a previously registered signal subscription.
func (w *Worker) UnsubscribeSignal(portName port.Name, dest *Worker, calleeName string) {
	w.signalMu.Lock()
	defer w.signalMu.Unlock()
	subs := w.signals[portName]
	kept := subs[:0]
	for _, s := range subs {
		if s.dest == dest && s.name == calleeName {
			continue
		}
		kept = append(kept, s)
	}
	w.signals[portName] = kept
}

// EmitSignalArgs delivers args to every subscriber of portName as a control
// message to the destination actor, per spec.md §4.4 "Signals". A signal
// with zero subscribers is silently dropped (spec.md §8 "zero-subscriber
// signal drop").
func (w *Worker) EmitSignalArgs(portName port.Name, args ...any) {
	w.signalMu.Lock()
	subs := append([]signalSub(nil), w.signals[portName]...)
	w.signalMu.Unlock()

	for _, s := range subs {
		dest, name, emitted := s.dest, s.name, args
		dest.Enqueue(func() error {
			_, err := dest.invokeCapability(name, emitted...)
			return err
		})
	}
}

// Enqueue appends a control-plane closure to the mailbox, to be run during
// this actor's next preWorkTasks pass (serialized with work dispatch via the
// same mutex), and returns a WaitHandle for the caller to block on.
func (w *Worker) Enqueue(fn func() error) *WaitHandle {
	h, resolve := newWaitHandle()
	w.mailboxMu.Lock()
	w.mailbox = append(w.mailbox, controlMsg{fn: fn, resolve: resolve})
	w.mailboxMu.Unlock()
	w.iface.FlagExternalChange()
	return h
}

// Activate transitions Idle -> Active, returning flowerr.ErrAlreadyActive
// if the block is not Idle, per spec.md §4.4 "sendActivateMessage".
func (w *Worker) Activate() *WaitHandle {
	return w.Enqueue(func() error {
		if State(w.state.Load()) != Idle {
			return flowerr.ErrAlreadyActive
		}
		w.state.Store(int32(Active))
		return nil
	})
}

// Deactivate transitions Active -> Idle, returning flowerr.ErrNotActive if
// the block is Idle, per spec.md §4.4 "sendDeactivateMessage".
func (w *Worker) Deactivate() *WaitHandle {
	return w.Enqueue(func() error {
		if State(w.state.Load()) == Idle {
			return flowerr.ErrNotActive
		}
		w.state.Store(int32(Idle))
		return nil
	})
}

// ProcessTask runs one dispatch cycle, per spec.md §4.4's processTask
// protocol: acquire, preWorkTasks (drain mailbox, decide readiness), work,
// postWorkTasks (propagate labels, retire consumed elements, record stats),
// release.
func (w *Worker) ProcessTask() {
	if !w.iface.WorkerThreadAcquire() {
		return
	}
	defer w.iface.WorkerThreadRelease()

	w.drainMailbox()

	if State(w.state.Load()) != Active {
		return
	}
	if !w.ready() {
		return
	}

	w.state.Store(int32(Working))
	w.yieldFlag = false
	start := time.Now()
	err := w.workFn(w)
	elapsed := time.Since(start)
	w.state.Store(int32(Active))

	w.postWorkTasks(err)

	w.ticks.Add(1)
	w.totalWorkNanos.Add(elapsed.Nanoseconds())
	w.lastWorkUnixNano.Store(start.UnixNano())

	if w.yieldFlag {
		w.iface.FlagInternalChange()
	}
}

// drainMailbox executes every queued control closure while the actor lock
// is held, per spec.md §4.4 step 2 "Drain control mailbox ... serialized by
// the same mutex so it cannot race with work".
func (w *Worker) drainMailbox() {
	w.mailboxMu.Lock()
	pending := w.mailbox
	w.mailbox = nil
	w.mailboxMu.Unlock()

	for _, msg := range pending {
		err := msg.fn()
		msg.resolve(err)
	}
}

// ready implements spec.md §4.4 step 2's readiness decision: all indexed
// inputs have >= reserve elements (merging leading chunks first if reserve
// requires more contiguous bytes than any single posted chunk spans), all
// indexed outputs with an installed manager have at least one buffer, and
// the block is active.
func (w *Worker) ready() bool {
	for _, in := range w.inputs.Indexed() {
		if in == nil {
			continue
		}
		need := int(in.Reserve()) * in.DType().Size()
		in.Buffer(need)
		if !in.Ready() {
			return false
		}
	}
	for _, out := range w.outputs.Indexed() {
		if out == nil || out.IsSignal() {
			continue
		}
		mgr := out.Manager()
		if mgr != nil && mgr.Empty() {
			return false
		}
	}
	return true
}

// postWorkTasks implements spec.md §4.4 step 4: for every input that
// consumed this dispatch, propagate labels in range then retire the
// consumed elements. A failed work call transitions the block to Idle with
// a sticky error, per spec.md §7 "the block is transitioned to Inactive
// with a sticky error".
func (w *Worker) postWorkTasks(workErr error) {
	if workErr != nil {
		w.lastErr.Store(errBox{err: workErr})
		w.state.Store(int32(Idle))
		return
	}

	outs := w.outputs.Indexed()
	for _, in := range w.inputs.Indexed() {
		if in == nil {
			continue
		}
		n := in.TakePendingConsumed()
		if n == 0 {
			continue
		}
		port.PropagateLabels(in, n, outs)
		in.Retire(n)
	}
}

// Ticks returns the number of completed work dispatches.
func (w *Worker) Ticks() uint64 { return w.ticks.Load() }

// TotalWorkTime returns the cumulative time spent inside the block's work
// function.
func (w *Worker) TotalWorkTime() time.Duration {
	return time.Duration(w.totalWorkNanos.Load())
}

// IdleFor reports whether no work call has started for at least d. A
// worker that has never run is considered idle.
func (w *Worker) IdleFor(d time.Duration) bool {
	last := w.lastWorkUnixNano.Load()
	if last == 0 {
		return true
	}
	return time.Since(time.Unix(0, last)) >= d
}
