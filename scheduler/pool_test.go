package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/pothosware/flowcore/actor"
)

func activated(t *testing.T, w *actor.Worker) {
	t.Helper()
	h := w.Activate()
	deadline := time.Now().Add(time.Second)
	for w.State() != actor.Active {
		w.ProcessTask()
		if time.Now().After(deadline) {
			t.Fatalf("worker never reached Active state")
		}
	}
	if msg := h.WaitInfo(); msg != "" {
		t.Fatalf("activate failed: %s", msg)
	}
}

func TestPoolPollModeDispatchesReadyActors(t *testing.T) {
	var ran atomic.Int64
	w := actor.NewWorker("blk", func(w *actor.Worker) error {
		ran.Add(1)
		return nil
	})
	activated(t, w)

	p := NewPool(Config{Workers: 1, Mode: Poll, PollRate: 10000, PollBurst: 10})
	p.Add(w)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop(time.Second)

	deadline := time.Now().Add(time.Second)
	for ran.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if ran.Load() == 0 {
		t.Fatalf("work function never ran under poll mode")
	}
}

func TestPoolWaitModeDispatchesReadyActors(t *testing.T) {
	var ran atomic.Int64
	w := actor.NewWorker("blk", func(w *actor.Worker) error {
		ran.Add(1)
		return nil
	})
	activated(t, w)

	p := NewPool(Config{Workers: 1, Mode: Wait})
	p.Add(w)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop(time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for ran.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ran.Load() == 0 {
		t.Fatalf("work function never ran under wait mode")
	}
}

func TestPoolRemoveStopsDispatchingThatActor(t *testing.T) {
	w := actor.NewWorker("blk", func(w *actor.Worker) error { return nil })
	activated(t, w)

	p := NewPool(Config{Workers: 1, Mode: Poll, PollRate: 10000, PollBurst: 10})
	p.Add(w)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop(time.Second)

	time.Sleep(20 * time.Millisecond)
	p.Remove(w)
	ticksAtRemoval := w.Ticks()
	time.Sleep(20 * time.Millisecond)
	if w.Ticks() != ticksAtRemoval {
		t.Fatalf("actor kept dispatching after Remove: %d -> %d", ticksAtRemoval, w.Ticks())
	}

	stats := p.Stats()
	if stats.ActorCount != 0 {
		t.Fatalf("Stats().ActorCount = %d, want 0 after Remove", stats.ActorCount)
	}
}

func TestPoolStartTwiceFails(t *testing.T) {
	p := NewPool(Config{Workers: 1})
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop(time.Second)

	if err := p.Start(); err != ErrPoolAlreadyStarted {
		t.Fatalf("second Start() = %v, want ErrPoolAlreadyStarted", err)
	}
}

func TestPoolStopIsIdempotent(t *testing.T) {
	p := NewPool(Config{Workers: 1})
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Stop(time.Second); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := p.Stop(time.Second); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
