package topology

import (
	"strings"
	"sync"
	"testing"

	"github.com/pothosware/flowcore/dtype"
)

func TestToDotMarkupDefaultShowsTopLevelFlow(t *testing.T) {
	dt := dtype.New(dtype.UInt8, 1)
	src := newSourceBlock("src", dt, "heap", nil)
	snk := newSinkBlock("snk", dt, "heap", &[]byte{}, &sync.Mutex{})

	topo := New("root")
	_ = topo.AddBlock("src", "test/src", "", src)
	_ = topo.AddBlock("snk", "test/snk", "", snk)
	_ = topo.Connect("src", "0", "snk", "0")

	dot := topo.ToDotMarkup(DefaultDotConfig())
	if !strings.Contains(dot, "digraph topology") {
		t.Fatalf("dot output missing digraph header: %s", dot)
	}
	if !strings.Contains(dot, `"src" -> "snk"`) {
		t.Fatalf("dot output missing src->snk edge: %s", dot)
	}
}

func TestToDotMarkupFlatModeShowsAdapter(t *testing.T) {
	dt := dtype.New(dtype.UInt8, 1)
	src := newSourceBlock("src", dt, "A", nil)
	snk := newSinkBlock("snk", dt, "B", &[]byte{}, &sync.Mutex{})

	topo := New("root")
	_ = topo.AddBlock("src", "test/src", "", src)
	_ = topo.AddBlock("snk", "test/snk", "", snk)
	_ = topo.Connect("src", "0", "snk", "0")
	if err := topo.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	dot := topo.ToDotMarkup(DotConfig{Mode: "flat", Port: "connected"})
	if !strings.Contains(dot, ":adapter") {
		t.Fatalf("flat dot output missing adapter node: %s", dot)
	}
}
