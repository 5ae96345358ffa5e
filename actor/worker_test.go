package actor

import (
	"testing"
	"time"

	"github.com/pothosware/flowcore/buffer"
	"github.com/pothosware/flowcore/dtype"
	"github.com/pothosware/flowcore/flowerr"
)

func waitFor(t *testing.T, h *WaitHandle) {
	t.Helper()
	if msg := h.WaitInfo(); msg != "" {
		t.Fatalf("control message failed: %s", msg)
	}
}

func TestWorkerActivateDeactivateLifecycle(t *testing.T) {
	w := NewWorker("blk", func(w *Worker) error { return nil })
	act := w.Activate()
	w.ProcessTask() // drains the Activate control message
	waitFor(t, act)
	if w.State() != Active {
		t.Fatalf("state = %v, want Active", w.State())
	}

	deact := w.Deactivate()
	w.ProcessTask()
	waitFor(t, deact)
	if w.State() != Idle {
		t.Fatalf("state = %v, want Idle", w.State())
	}
}

func TestWorkerActivateTwiceFails(t *testing.T) {
	w := NewWorker("blk", func(w *Worker) error { return nil })
	act := w.Activate()
	w.ProcessTask()
	waitFor(t, act)

	h := w.Activate()
	w.ProcessTask()
	if h.WaitInfo() == "" {
		t.Fatalf("expected re-activation to fail")
	}
}

func TestWorkerRunsWorkWhenReady(t *testing.T) {
	ran := 0
	w := NewWorker("blk", func(w *Worker) error {
		ran++
		in, _ := w.Inputs().Get("0")
		in.Consume(4)
		return nil
	})
	dt := dtype.New(dtype.UInt8, 1)
	in := w.Inputs().Setup("0", dt, "heap")
	in.SetReserve(4)

	act := w.Activate()
	w.ProcessTask()
	waitFor(t, act)

	in.Post(buffer.Alloc(4, dt))
	w.ProcessTask()

	if ran != 1 {
		t.Fatalf("work ran %d times, want 1", ran)
	}
	if in.TotalElementsConsumed() != 4 {
		t.Fatalf("TotalElementsConsumed() = %d, want 4", in.TotalElementsConsumed())
	}
	if w.Ticks() != 1 {
		t.Fatalf("Ticks() = %d, want 1", w.Ticks())
	}
}

func TestWorkerSkipsWorkWhenReserveNotMet(t *testing.T) {
	ran := 0
	w := NewWorker("blk", func(w *Worker) error { ran++; return nil })
	dt := dtype.New(dtype.UInt8, 1)
	in := w.Inputs().Setup("0", dt, "heap")
	in.SetReserve(8)

	act := w.Activate()
	w.ProcessTask()
	waitFor(t, act)

	in.Post(buffer.Alloc(4, dt))
	w.ProcessTask()

	if ran != 0 {
		t.Fatalf("work ran %d times, want 0 (reserve unmet)", ran)
	}
}

func TestWorkerFailedWorkTransitionsToIdleWithStickyError(t *testing.T) {
	boom := flowerr.ErrInvalidConfig
	w := NewWorker("blk", func(w *Worker) error { return boom })
	act := w.Activate()
	w.ProcessTask()
	waitFor(t, act)
	w.ProcessTask() // ready() with no ports is vacuously true, so work runs

	if w.State() != Idle {
		t.Fatalf("state after failed work = %v, want Idle", w.State())
	}
	if w.LastError() != boom {
		t.Fatalf("LastError() = %v, want %v", w.LastError(), boom)
	}
}

func TestOpaqueCallDispatchesRegisteredCapability(t *testing.T) {
	w := NewWorker("blk", func(w *Worker) error { return nil })
	w.SetCapability("ping", func(args ...any) (any, error) { return "pong", nil })

	result, err := w.OpaqueCall("ping")
	if err != nil {
		t.Fatalf("OpaqueCall: %v", err)
	}
	if result != "pong" {
		t.Fatalf("result = %v, want pong", result)
	}
}

func TestOpaqueCallUnknownNameReturnsCallNotFound(t *testing.T) {
	w := NewWorker("blk", func(w *Worker) error { return nil })
	_, err := w.OpaqueCall("missing")
	if err == nil {
		t.Fatalf("expected an error for an unregistered call")
	}
}

func TestEmitSignalArgsDeliversInOrder(t *testing.T) {
	var received [][]any
	sink := NewWorker("sink", func(w *Worker) error { return nil })
	sink.SetCapability("value", func(args ...any) (any, error) {
		received = append(received, args)
		return nil, nil
	})
	act := sink.Activate()
	sink.ProcessTask()
	waitFor(t, act)

	src := NewWorker("src", func(w *Worker) error { return nil })
	src.SubscribeSignal("0", sink, "value")

	src.EmitSignalArgs("0", 42, "x")
	src.EmitSignalArgs("0", 42, "x")
	sink.ProcessTask()

	if len(received) != 2 {
		t.Fatalf("received %d signal deliveries, want 2", len(received))
	}
	for _, args := range received {
		if args[0] != 42 || args[1] != "x" {
			t.Fatalf("unexpected args: %v", args)
		}
	}
}

func TestEmitSignalArgsWithNoSubscribersIsDropped(t *testing.T) {
	src := NewWorker("src", func(w *Worker) error { return nil })
	src.EmitSignalArgs("0", 1, 2, 3) // must not panic or block
}

func TestWorkerIdleForReflectsLastWorkTimestamp(t *testing.T) {
	w := NewWorker("blk", func(w *Worker) error { return nil })
	if !w.IdleFor(time.Nanosecond) {
		t.Fatalf("a worker that never ran should be idle")
	}
	act := w.Activate()
	w.ProcessTask()
	waitFor(t, act)
	w.ProcessTask()
	if w.IdleFor(time.Hour) {
		t.Fatalf("a worker that just ran should not be idle for an hour")
	}
}
