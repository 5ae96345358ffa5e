package port

// WorkInfo is a snapshot a block's work function can build with
// BuildWorkInfo (actor.Worker does not build or pass one itself): direct
// byte-slice views into every indexed port's front buffer, plus
// the element counts a block commonly needs to decide how much to consume/
// produce (spec.md §4.4 step 3 "Compute consumed/produced from the delta in
// port counters" relies on the same indexed port ordering this captures).
type WorkInfo struct {
	// InputPointers[i] / OutputPointers[i] view the pending/writable bytes
	// of the i'th indexed input/output port, nil if none is pending/ready.
	InputPointers  [][]byte
	OutputPointers [][]byte

	// MinInElements is the smallest Elements() across all indexed inputs.
	MinInElements int
	// MinOutElements is the smallest writable-element count across all
	// indexed outputs' manager front buffers.
	MinOutElements int
	// MinElements is min(MinInElements, MinOutElements).
	MinElements int
	// MinAllElements is MinElements further bounded by every indexed
	// input's Reserve() requirement.
	MinAllElements int
}

// BuildWorkInfo computes a WorkInfo from the given indexed input/output
// ports, in port-index order (nil entries for unallocated indices are
// skipped in the pointer slices but still occupy their index).
func BuildWorkInfo(inputs []*Input, outputs []*Output) WorkInfo {
	wi := WorkInfo{
		InputPointers:  make([][]byte, len(inputs)),
		OutputPointers: make([][]byte, len(outputs)),
	}

	minIn := -1
	for i, in := range inputs {
		if in == nil {
			continue
		}
		n := in.Elements()
		if buf, ok := in.Buffer(0); ok {
			wi.InputPointers[i] = buf
		}
		if minIn == -1 || n < minIn {
			minIn = n
		}
	}
	if minIn == -1 {
		minIn = 0
	}

	minOut := -1
	for i, out := range outputs {
		if out == nil {
			continue
		}
		mgr := out.Manager()
		elems := 0
		if mgr != nil {
			if front, ok := mgr.Front(); ok {
				wi.OutputPointers[i] = front.Bytes()
				if sz := out.DType().Size(); sz > 0 {
					elems = front.Length() / sz
				}
			}
		}
		if minOut == -1 || elems < minOut {
			minOut = elems
		}
	}
	if minOut == -1 {
		minOut = 0
	}

	wi.MinInElements = minIn
	wi.MinOutElements = minOut
	if len(outputs) == 0 {
		wi.MinElements = minIn
	} else if len(inputs) == 0 {
		wi.MinElements = minOut
	} else if minIn < minOut {
		wi.MinElements = minIn
	} else {
		wi.MinElements = minOut
	}

	allMin := wi.MinElements
	for _, in := range inputs {
		if in == nil {
			continue
		}
		r := int(in.Reserve())
		if r < allMin {
			allMin = r
		}
	}
	wi.MinAllElements = allMin

	return wi
}
