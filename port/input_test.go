package port

import (
	"testing"

	"github.com/pothosware/flowcore/buffer"
	"github.com/pothosware/flowcore/dtype"
)

type countingFlagger struct{ n int }

func (f *countingFlagger) FlagChange() { f.n++ }

func TestInputPostFlagsOwner(t *testing.T) {
	flag := &countingFlagger{}
	in := NewInput("0", dtype.New(dtype.UInt8, 1), "heap", flag)

	in.Post(buffer.Alloc(4, dtype.New(dtype.UInt8, 1)))
	if flag.n != 1 {
		t.Fatalf("owner flagged %d times, want 1", flag.n)
	}
	if in.Elements() != 4 {
		t.Fatalf("Elements() = %d, want 4", in.Elements())
	}
}

func TestInputConsumeAdvancesAndSplits(t *testing.T) {
	in := NewInput("0", dtype.New(dtype.UInt8, 1), "heap", nil)
	a := buffer.Alloc(4, dtype.New(dtype.UInt8, 1))
	copy(a.Bytes(), []byte{1, 2, 3, 4})
	in.Post(a)

	in.Consume(2)
	in.Retire(in.TakePendingConsumed())
	if in.TotalElementsConsumed() != 2 {
		t.Fatalf("TotalElementsConsumed() = %d, want 2", in.TotalElementsConsumed())
	}
	if in.Elements() != 2 {
		t.Fatalf("Elements() after consume = %d, want 2", in.Elements())
	}
	data, ok := in.Buffer(2)
	if !ok {
		t.Fatalf("expected remaining bytes after partial consume")
	}
	if data[0] != 3 || data[1] != 4 {
		t.Fatalf("remaining bytes = %v, want [3 4]", data)
	}
}

func TestInputConsumeMergesAcrossChunks(t *testing.T) {
	in := NewInput("0", dtype.New(dtype.UInt8, 1), "heap", nil)
	a := buffer.Alloc(2, dtype.New(dtype.UInt8, 1))
	copy(a.Bytes(), []byte{1, 2})
	b := buffer.Alloc(2, dtype.New(dtype.UInt8, 1))
	copy(b.Bytes(), []byte{3, 4})
	in.Post(a)
	in.Post(b)

	data, ok := in.Buffer(4)
	if !ok {
		t.Fatalf("expected a merged 4-byte view")
	}
	want := []byte{1, 2, 3, 4}
	for i, v := range want {
		if data[i] != v {
			t.Fatalf("merged byte %d = %d, want %d", i, data[i], v)
		}
	}
}

func TestInputLabelIndexShiftsOnConsume(t *testing.T) {
	in := NewInput("0", dtype.New(dtype.UInt8, 1), "heap", nil)
	in.Post(buffer.Alloc(8, dtype.New(dtype.UInt8, 1)))
	in.PostLabel(buffer.Label{ID: "a", Index: 5})

	before := in.PeekLabels(6)
	if len(before) != 1 {
		t.Fatalf("expected 1 label visible before consume, got %d", len(before))
	}

	in.Consume(3)
	in.Retire(in.TakePendingConsumed())
	after := in.PeekLabels(3)
	if len(after) != 1 || after[0].Index != 2 {
		t.Fatalf("label should have shifted to index 2, got %+v", after)
	}
}

func TestInputNegotiateManagerDefaultsToAbdicate(t *testing.T) {
	in := NewInput("0", dtype.New(dtype.UInt8, 1), "heap", nil)
	if mgr := in.NegotiateManager("other"); mgr != nil {
		t.Fatalf("expected ABDICATE (nil) with no factory registered, got %v", mgr)
	}
}

func TestInputNegotiateManagerUsesFactory(t *testing.T) {
	in := NewInput("0", dtype.New(dtype.UInt8, 1), "heap", nil)
	want := buffer.NewGeneric("heap", 4, 16)
	in.SetManagerFactory(func(peerDomain string) buffer.Manager {
		if peerDomain != "remote" {
			t.Fatalf("peerDomain = %q, want remote", peerDomain)
		}
		return want
	})
	if got := in.NegotiateManager("remote"); got != want {
		t.Fatalf("NegotiateManager did not return the factory's manager")
	}
}

func TestInputReadyRespectsReserve(t *testing.T) {
	in := NewInput("0", dtype.New(dtype.UInt8, 1), "heap", nil)
	in.SetReserve(4)
	in.Post(buffer.Alloc(2, dtype.New(dtype.UInt8, 1)))
	if in.Ready() {
		t.Fatalf("should not be ready with 2 of 4 reserved elements")
	}
	in.Post(buffer.Alloc(2, dtype.New(dtype.UInt8, 1)))
	if !in.Ready() {
		t.Fatalf("should be ready once reserve is met")
	}
}
