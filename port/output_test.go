package port

import (
	"testing"

	"github.com/pothosware/flowcore/buffer"
	"github.com/pothosware/flowcore/dtype"
)

func TestOutputPostBufferFansOutToAllSubscribers(t *testing.T) {
	dt := dtype.New(dtype.UInt8, 1)
	out := NewOutput("0", dt, "heap", nil)

	inA := NewInput("0", dt, "heap", nil)
	inB := NewInput("0", dt, "heap", nil)
	out.Subscribe(Subscriber{ActorName: "a", PortName: "0", In: inA})
	out.Subscribe(Subscriber{ActorName: "b", PortName: "0", In: inB})

	chunk := buffer.Alloc(4, dt)
	out.PostBuffer(chunk)

	if inA.Elements() != 4 || inB.Elements() != 4 {
		t.Fatalf("both subscribers should receive the posted chunk")
	}
	if out.TotalElementsProduced() != 4 {
		t.Fatalf("TotalElementsProduced() = %d, want 4", out.TotalElementsProduced())
	}

	// each subscriber has its own pending queue: consuming through one
	// input must leave the other's pending elements untouched.
	dataA, _ := inA.Buffer(4)
	dataB, _ := inB.Buffer(4)
	if &dataA[0] == &dataB[0] {
		// sharing the same backing array is fine (expected, no copy); the
		// independence of the two queues is checked via consume below.
		_ = dataA
	}
	inA.Consume(4)
	if inB.Elements() != 4 {
		t.Fatalf("consuming one subscriber's copy must not affect the other")
	}
}

func TestOutputProduceCarriesInRangeLabels(t *testing.T) {
	dt := dtype.New(dtype.UInt8, 1)
	out := NewOutput("0", dt, "heap", nil)
	mgr := newTestManagerFor(t, out)

	in := NewInput("0", dt, "heap", nil)
	out.Subscribe(Subscriber{ActorName: "x", PortName: "0", In: in})

	out.PostLabel(buffer.Label{ID: "l", Index: 1})
	out.Produce(4)

	peeked := in.PeekLabels(10)
	if len(peeked) != 1 || peeked[0].ID != "l" {
		t.Fatalf("expected carried label, got %+v", peeked)
	}
	_ = mgr
}

func TestOutputNegotiateManagerDefaultsToAbdicate(t *testing.T) {
	out := NewOutput("0", dtype.New(dtype.UInt8, 1), "heap", nil)
	if mgr := out.NegotiateManager("other"); mgr != nil {
		t.Fatalf("expected ABDICATE (nil) with no factory registered, got %v", mgr)
	}
}

func TestOutputNegotiateManagerUsesFactory(t *testing.T) {
	out := NewOutput("0", dtype.New(dtype.UInt8, 1), "heap", nil)
	want := buffer.NewGeneric("heap", 4, 16)
	out.SetManagerFactory(func(peerDomain string) buffer.Manager {
		if peerDomain != "remote" {
			t.Fatalf("peerDomain = %q, want remote", peerDomain)
		}
		return want
	})
	if got := out.NegotiateManager("remote"); got != want {
		t.Fatalf("NegotiateManager did not return the factory's manager")
	}
}

func TestOutputSubscribeIsIdempotent(t *testing.T) {
	out := NewOutput("0", dtype.New(dtype.UInt8, 1), "heap", nil)
	in := NewInput("0", dtype.New(dtype.UInt8, 1), "heap", nil)
	s := Subscriber{ActorName: "a", PortName: "0", In: in}
	out.Subscribe(s)
	out.Subscribe(s)
	if len(out.Subscribers()) != 1 {
		t.Fatalf("duplicate Subscribe should not add a second entry")
	}
	out.Unsubscribe("a", "0")
	if len(out.Subscribers()) != 0 {
		t.Fatalf("Unsubscribe should remove the entry")
	}
}
