package netbridge

import (
	"testing"

	"github.com/pothosware/flowcore/actor"
	"github.com/pothosware/flowcore/buffer"
	"github.com/pothosware/flowcore/dtype"
	"github.com/pothosware/flowcore/topology"
)

func noopWork(w *actor.Worker) error { return nil }

func TestBlockProxyBasics(t *testing.T) {
	dt := dtype.New(dtype.UInt8, 1)
	w := actor.NewWorker("blk", noopWork)
	w.Outputs().Setup("0", dt, "heap")
	w.Inputs().Setup("0", dt, "heap")
	w.SetCapability("ping", func(args ...any) (any, error) { return "pong", nil })

	blk := &topology.Block{ID: "blk", Path: "test/blk", Worker: w}
	p := NewBlockProxy(blk)

	if p.GetName() != "blk" {
		t.Fatalf("GetName() = %q, want blk", p.GetName())
	}
	if p.GetPointer() != blk {
		t.Fatalf("GetPointer() did not return the wrapped block")
	}
	if _, err := p.Input("0"); err != nil {
		t.Fatalf("Input(0): %v", err)
	}
	if _, err := p.Output("0"); err != nil {
		t.Fatalf("Output(0): %v", err)
	}
	result, err := p.Call("ping")
	if err != nil || result != "pong" {
		t.Fatalf("Call(ping) = %v, %v, want pong, nil", result, err)
	}
	if p.GetActor() == nil {
		t.Fatalf("GetActor() returned nil")
	}
}

func TestActorProxyActivateDeactivate(t *testing.T) {
	w := actor.NewWorker("actor", noopWork)
	p := NewActorProxy(w)

	h := p.SendActivateMessage()
	w.ProcessTask()
	if msg := h.WaitInfo(); msg != "" {
		t.Fatalf("SendActivateMessage: %s", msg)
	}
	if w.State() != actor.Active {
		t.Fatalf("state = %v, want Active", w.State())
	}

	h = p.SendDeactivateMessage()
	w.ProcessTask()
	if msg := h.WaitInfo(); msg != "" {
		t.Fatalf("SendDeactivateMessage: %s", msg)
	}
	if w.State() != actor.Idle {
		t.Fatalf("state = %v, want Idle", w.State())
	}
}

func TestActorProxySubscriberMessage(t *testing.T) {
	dt := dtype.New(dtype.UInt8, 1)
	src := actor.NewWorker("src", noopWork)
	src.Outputs().Setup("0", dt, "heap")
	dst := actor.NewWorker("dst", noopWork)
	dstIn := dst.Inputs().Setup("0", dt, "heap")

	p := NewActorProxy(src)
	h := p.SendPortSubscriberMessage(ActionSubOutput, "0", "dst", "0", dstIn)
	src.ProcessTask()
	if msg := h.WaitInfo(); msg != "" {
		t.Fatalf("SubOutput: %s", msg)
	}

	out, err := src.Outputs().Get("0")
	if err != nil {
		t.Fatalf("Outputs().Get: %v", err)
	}
	if len(out.Subscribers()) != 1 {
		t.Fatalf("subscribers = %d, want 1", len(out.Subscribers()))
	}

	h = p.SendPortSubscriberMessage(ActionUnsubOutput, "0", "dst", "0", nil)
	src.ProcessTask()
	if msg := h.WaitInfo(); msg != "" {
		t.Fatalf("UnsubOutput: %s", msg)
	}
	if len(out.Subscribers()) != 0 {
		t.Fatalf("subscribers after unsub = %d, want 0", len(out.Subscribers()))
	}
}

func TestActorProxyBufferModeAndManager(t *testing.T) {
	dt := dtype.New(dtype.UInt8, 1)
	w := actor.NewWorker("actor", noopWork)
	out := w.Outputs().Setup("0", dt, "heap")
	p := NewActorProxy(w)

	mode, err := p.GetOutputBufferMode("0", "heap")
	if err != nil {
		t.Fatalf("GetOutputBufferMode: %v", err)
	}
	if mode != BufferModeAbdicate {
		t.Fatalf("mode = %v, want Abdicate before negotiation", mode)
	}

	out.SetManagerFactory(func(peerDomain string) buffer.Manager {
		return buffer.NewGeneric(peerDomain, 1, 16)
	})

	mode, err = p.GetOutputBufferMode("0", "heap")
	if err != nil {
		t.Fatalf("GetOutputBufferMode: %v", err)
	}
	if mode != BufferModeCustom {
		t.Fatalf("mode = %v, want Custom after registering a factory", mode)
	}

	mgr, err := p.GetBufferManager("0", "heap", false)
	if err != nil {
		t.Fatalf("GetBufferManager: %v", err)
	}
	if mgr == nil {
		t.Fatalf("GetBufferManager returned nil for a custom factory")
	}

	h := p.SetOutputBufferManager("0", mgr)
	w.ProcessTask()
	if msg := h.WaitInfo(); msg != "" {
		t.Fatalf("SetOutputBufferManager: %s", msg)
	}
	if out.Manager() != mgr {
		t.Fatalf("Manager() not installed by SetOutputBufferManager")
	}
}
