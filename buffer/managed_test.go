package buffer

import "testing"

func TestManagedBufferReturnsToManagerOnFinalDrop(t *testing.T) {
	mgr := NewGeneric("test", 1, 8)

	mb, ok := mgr.Pop()
	if !ok {
		t.Fatalf("expected a buffer from a freshly created manager")
	}
	if !mgr.Empty() {
		t.Fatalf("manager should be empty after popping its only buffer")
	}

	notified := false
	mgr.SetCallback(func() { notified = true })

	mb.Release()

	if mgr.Empty() {
		t.Fatalf("buffer should have returned to the manager after release")
	}
	if !notified {
		t.Fatalf("manager callback should fire when a buffer becomes available again")
	}
}

func TestManagedBufferOnlyReturnsOnceAllRefsDrop(t *testing.T) {
	mgr := NewGeneric("test", 1, 8)
	mb, _ := mgr.Pop()

	shared := mb.SharedBuffer.Retain()
	mb.SharedBuffer.Release()
	if !mgr.Empty() {
		t.Fatalf("buffer must not return while an extra reference is outstanding")
	}

	shared.Release()
	if mgr.Empty() {
		t.Fatalf("buffer should return once the last reference drops")
	}
}

func TestCircularManagerFIFO(t *testing.T) {
	mgr := NewCircular("dma", 2, 4)
	first, _ := mgr.Pop()
	second, _ := mgr.Pop()
	if mgr.Empty() == false {
		t.Fatalf("expected manager to report empty after popping all buffers")
	}

	first.Release()
	front, ok := mgr.Front()
	if !ok {
		t.Fatalf("expected a buffer after release")
	}
	if front.Address() != first.Address() {
		t.Fatalf("circular manager should return the released buffer to the front")
	}
	second.Release()
}

func TestPassthroughForwardsFedBuffer(t *testing.T) {
	upstream := NewGeneric("a", 1, 8)
	mgr := NewPassthrough("a")

	mb, _ := upstream.Pop()
	mgr.Feed(mb)

	if mgr.Empty() {
		t.Fatalf("expected fed buffer to be available")
	}
	got, ok := mgr.Pop()
	if !ok || got.Address() != mb.Address() {
		t.Fatalf("passthrough should hand back the exact fed buffer")
	}
}
