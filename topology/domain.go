package topology

import (
	"fmt"

	"github.com/pothosware/flowcore/actor"
	"github.com/pothosware/flowcore/buffer"
	"github.com/pothosware/flowcore/dtype"
)

// adapterWork is a pure domain-relabeling passthrough: every pending element
// on input 0 is forwarded to output 0 unchanged. Real byte-format conversion
// across domains is block-specific and out of this package's scope (spec.md
// §1 "out of scope ... dynamic plugin registry"); rectification only needs a
// boundary so each side of the original flow can negotiate its own manager.
func adapterWork(w *actor.Worker) error {
	in, err := w.Inputs().Get("0")
	if err != nil {
		return err
	}
	out, err := w.Outputs().Get("0")
	if err != nil {
		return err
	}
	n := in.Elements()
	if n == 0 {
		return nil
	}
	data, ok := in.Buffer(n * in.DType().Size())
	if !ok {
		return nil
	}
	chunk := buffer.Alloc(len(data), in.DType())
	copy(chunk.Bytes(), data)
	out.PostBuffer(chunk)
	in.Consume(n)
	return nil
}

// newDomainAdapterBlock builds a two-port passthrough block bridging
// fromDomain on its input to toDomain on its output, per spec.md §4.6 phase
// 3 "insert a domain-adapter block".
func newDomainAdapterBlock(id string, dt dtype.DType, fromDomain, toDomain string) *Block {
	w := actor.NewWorker(id, adapterWork)
	in := w.Inputs().Setup("0", dt, fromDomain)
	in.SetReserve(1)
	w.Outputs().Setup("0", dt, toDomain)
	return &Block{ID: id, Path: "builtin/domain_adapter", Worker: w}
}

// rectifyDomains implements spec.md §4.6 phase 3: for every flow whose
// source output domain and destination input domain cannot share buffers,
// splice in a domain-adapter block (created once per original flow and
// cached so repeated commits reuse it).
func (t *Topology) rectifyDomains(blocks map[string]*Block, flows []Flow) ([]Flow, error) {
	out := make([]Flow, 0, len(flows))
	for _, f := range flows {
		srcBlock, dstBlock := blocks[f.Src.Block], blocks[f.Dst.Block]
		if srcBlock == nil || dstBlock == nil {
			return nil, fmt.Errorf("topology: rectify: flow %s references an unknown block", flowKey(f))
		}
		srcOut, err := srcBlock.Worker.Outputs().Get(f.Src.Port)
		if err != nil {
			return nil, fmt.Errorf("topology: rectify: %s: %w", flowKey(f), err)
		}
		dstIn, err := dstBlock.Worker.Inputs().Get(f.Dst.Port)
		if err != nil {
			return nil, fmt.Errorf("topology: rectify: %s: %w", flowKey(f), err)
		}
		if t.domainsCompatible(srcOut.Domain(), dstIn.Domain()) {
			out = append(out, f)
			continue
		}

		t.mu.Lock()
		adapter, cached := t.adapters[f]
		t.mu.Unlock()
		if !cached {
			adapter = newDomainAdapterBlock(flowKey(f)+":adapter", srcOut.DType(), srcOut.Domain(), dstIn.Domain())
			t.mu.Lock()
			t.adapters[f] = adapter
			t.mu.Unlock()
		}
		blocks[adapter.ID] = adapter
		out = append(out, Flow{Src: f.Src, Dst: Endpoint{Block: adapter.ID, Port: "0"}})
		out = append(out, Flow{Src: Endpoint{Block: adapter.ID, Port: "0"}, Dst: f.Dst})
	}
	return out, nil
}
