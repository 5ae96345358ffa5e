package port

import (
	"sync"

	"github.com/pothosware/flowcore/dtype"
	"github.com/pothosware/flowcore/flowerr"
)

// InputRegistry tracks a block's input ports by name and by numeric index,
// and implements the auto-allocation / auto-deletion rules of spec.md §4.3
// "Auto-allocation", grounded on the original allocatePort/autoAllocatePort/
// autoDeletePorts helpers.
type InputRegistry struct {
	mu      sync.Mutex
	named   map[Name]*Input
	indexed []*Input // nil holes for un-allocated indices
	order   []Name
	owner   Flagger
	block   string
}

// NewInputRegistry returns an empty registry for the named block.
func NewInputRegistry(blockName string, owner Flagger) *InputRegistry {
	return &InputRegistry{named: make(map[Name]*Input), block: blockName, owner: owner}
}

// Setup explicitly allocates a (non-automatic) input port.
func (r *InputRegistry) Setup(name Name, dt dtype.DType, domain string) *Input {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocate(name, dt, domain, false)
}

func (r *InputRegistry) allocate(name Name, dt dtype.DType, domain string, automatic bool) *Input {
	in := NewInput(name, dt, domain, r.owner)
	in.SetAutomatic(automatic)
	r.named[name] = in
	r.order = append(r.order, name)
	if idx, ok := name.Index(); ok {
		for len(r.indexed) <= idx {
			r.indexed = append(r.indexed, nil)
		}
		r.indexed[idx] = in
	}
	return in
}

// Get returns the named port, auto-allocating it from a lower-index sibling
// if it does not exist and name is numeric. Returns flowerr.ErrPortAccessError
// if no such sibling exists (spec.md §8 "Auto-allocated input port with no
// lower-index sibling raises PortAccessError").
func (r *InputRegistry) Get(name Name) (*Input, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if in, ok := r.named[name]; ok {
		return in, nil
	}
	idx, ok := name.Index()
	if !ok {
		return nil, flowerr.PortAccessErrorf(r.block, string(name))
	}
	for i := idx - 1; i >= 0; i-- {
		if i < len(r.indexed) && r.indexed[i] != nil {
			sib := r.indexed[i]
			return r.allocate(name, sib.DType(), sib.Domain(), true), nil
		}
	}
	return nil, flowerr.PortAccessErrorf(r.block, string(name))
}

// Indexed returns a snapshot of the indexed-port slice (nil holes included),
// the ordering BuildWorkInfo relies on.
func (r *InputRegistry) Indexed() []*Input {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]*Input, len(r.indexed))
	copy(cp, r.indexed)
	return cp
}

// Named returns a snapshot of every named port (including non-numeric
// names), keyed by name.
func (r *InputRegistry) Named() map[Name]*Input {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[Name]*Input, len(r.named))
	for k, v := range r.named {
		cp[k] = v
	}
	return cp
}

// AutoDelete removes every automatic, unsubscribed port. "Unsubscribed" for
// an input means no Output anywhere still lists it as a Subscriber; callers
// pass the predicate since subscription state lives in the topology, not
// the port itself.
func (r *InputRegistry) AutoDelete(stillSubscribed func(*Input) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.order[:0]
	for _, name := range r.order {
		in := r.named[name]
		if in.IsAutomatic() && !stillSubscribed(in) {
			delete(r.named, name)
			if idx, ok := name.Index(); ok && idx < len(r.indexed) {
				r.indexed[idx] = nil
			}
			continue
		}
		kept = append(kept, name)
	}
	r.order = kept
	for len(r.indexed) > 0 && r.indexed[len(r.indexed)-1] == nil {
		r.indexed = r.indexed[:len(r.indexed)-1]
	}
}

// OutputRegistry is the Output-port analogue of InputRegistry.
type OutputRegistry struct {
	mu      sync.Mutex
	named   map[Name]*Output
	indexed []*Output
	order   []Name
	owner   Flagger
	block   string
}

// NewOutputRegistry returns an empty registry for the named block.
func NewOutputRegistry(blockName string, owner Flagger) *OutputRegistry {
	return &OutputRegistry{named: make(map[Name]*Output), block: blockName, owner: owner}
}

// Setup explicitly allocates a (non-automatic) output port.
func (r *OutputRegistry) Setup(name Name, dt dtype.DType, domain string) *Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocate(name, dt, domain, false)
}

func (r *OutputRegistry) allocate(name Name, dt dtype.DType, domain string, automatic bool) *Output {
	out := NewOutput(name, dt, domain, r.owner)
	out.SetAutomatic(automatic)
	r.named[name] = out
	r.order = append(r.order, name)
	if idx, ok := name.Index(); ok {
		for len(r.indexed) <= idx {
			r.indexed = append(r.indexed, nil)
		}
		r.indexed[idx] = out
	}
	return out
}

// Get returns the named port, auto-allocating it from a lower-index sibling
// if it does not exist and name is numeric.
func (r *OutputRegistry) Get(name Name) (*Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if out, ok := r.named[name]; ok {
		return out, nil
	}
	idx, ok := name.Index()
	if !ok {
		return nil, flowerr.PortAccessErrorf(r.block, string(name))
	}
	for i := idx - 1; i >= 0; i-- {
		if i < len(r.indexed) && r.indexed[i] != nil {
			sib := r.indexed[i]
			return r.allocate(name, sib.DType(), sib.Domain(), true), nil
		}
	}
	return nil, flowerr.PortAccessErrorf(r.block, string(name))
}

// Indexed returns a snapshot of the indexed-port slice (nil holes included).
func (r *OutputRegistry) Indexed() []*Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]*Output, len(r.indexed))
	copy(cp, r.indexed)
	return cp
}

// Named returns a snapshot of every named port.
func (r *OutputRegistry) Named() map[Name]*Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[Name]*Output, len(r.named))
	for k, v := range r.named {
		cp[k] = v
	}
	return cp
}

// AutoDelete removes every automatic output port with no subscribers.
func (r *OutputRegistry) AutoDelete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.order[:0]
	for _, name := range r.order {
		out := r.named[name]
		if out.IsAutomatic() && len(out.Subscribers()) == 0 {
			delete(r.named, name)
			if idx, ok := name.Index(); ok && idx < len(r.indexed) {
				r.indexed[idx] = nil
			}
			continue
		}
		kept = append(kept, name)
	}
	r.order = kept
	for len(r.indexed) > 0 && r.indexed[len(r.indexed)-1] == nil {
		r.indexed = r.indexed[:len(r.indexed)-1]
	}
}
