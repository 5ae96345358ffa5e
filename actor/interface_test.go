package actor

import (
	"testing"
	"time"
)

func TestWorkerThreadAcquireFastPath(t *testing.T) {
	i := NewInterface()
	i.FlagExternalChange()
	if !i.WorkerThreadAcquire() {
		t.Fatalf("expected fast-path acquire to succeed when changeFlagged is set")
	}
	i.WorkerThreadRelease()
}

func TestWorkerThreadAcquirePollModeAlwaysTrue(t *testing.T) {
	i := NewInterface()
	if !i.WorkerThreadAcquire() {
		t.Fatalf("poll mode should always return true")
	}
	i.WorkerThreadRelease()
}

func TestWorkerThreadAcquireWaitModeTimesOut(t *testing.T) {
	i := NewInterface()
	i.EnableWaitMode(true)

	start := time.Now()
	ok := i.WorkerThreadAcquire()
	elapsed := time.Since(start)
	if ok {
		t.Fatalf("expected timeout with no pending flag in wait mode")
	}
	if elapsed > 50*time.Millisecond {
		t.Fatalf("timeout took too long: %v", elapsed)
	}
}

func TestWorkerThreadAcquireWaitModeWakesOnFlag(t *testing.T) {
	i := NewInterface()
	i.EnableWaitMode(true)

	go func() {
		time.Sleep(200 * time.Microsecond)
		i.FlagExternalChange()
	}()

	ok := i.WorkerThreadAcquire()
	if !ok {
		t.Fatalf("expected wake-up before timeout")
	}
	i.WorkerThreadRelease()
}

func TestExternalCallAcquireReleaseRoundTrips(t *testing.T) {
	i := NewInterface()
	i.ExternalCallAcquire()
	i.ExternalCallRelease()
	// a second round trip should not deadlock
	i.ExternalCallAcquire()
	i.ExternalCallRelease()
}
