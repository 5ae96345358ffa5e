package buffer

import "testing"

func TestSharedBufferSliceSharesRegion(t *testing.T) {
	b := NewSharedBuffer(16)
	copy(b.Bytes(), []byte("0123456789abcdef"))

	s := b.Slice(4, 4)
	if string(s.Bytes()) != "4567" {
		t.Fatalf("slice bytes = %q, want %q", s.Bytes(), "4567")
	}
	if !sameRegion(b, s) {
		t.Fatalf("slice should share the parent's region")
	}
}

func TestSharedBufferReleaseFreesAtZero(t *testing.T) {
	freed := false
	b := newSharedBufferWithFree(8, func() { freed = true })
	s := b.Slice(0, 4)

	b.Release()
	if freed {
		t.Fatalf("onFree fired before all references released")
	}
	s.Release()
	if !freed {
		t.Fatalf("onFree did not fire after last reference released")
	}
}

func TestSharedBufferRetainIncrementsRefcount(t *testing.T) {
	b := NewSharedBuffer(4)
	if b.RefCount() != 1 {
		t.Fatalf("initial refcount = %d, want 1", b.RefCount())
	}
	r := b.Retain()
	if b.RefCount() != 2 {
		t.Fatalf("refcount after Retain = %d, want 2", b.RefCount())
	}
	r.Release()
	if b.RefCount() != 1 {
		t.Fatalf("refcount after Release = %d, want 1", b.RefCount())
	}
}

func TestSliceOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out-of-range slice")
		}
	}()
	b := NewSharedBuffer(4)
	_ = b.Slice(2, 4)
}
