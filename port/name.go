// Package port implements the InputPort/OutputPort streaming endpoints
// described in spec.md §3 "InputPort"/"OutputPort" and §4.3: per-edge FIFOs
// of posted buffers and labels, element counters, numeric auto-allocation,
// and the default label-propagation policy.
package port

import "strconv"

// Name is a port name, either an arbitrary string or the decimal spelling of
// a non-negative index (spec.md §6 "numeric-named ports are written as their
// decimal spelling").
type Name string

// Index parses Name as a non-negative decimal index. ok is false for
// non-numeric names.
func (n Name) Index() (idx int, ok bool) {
	v, err := strconv.Atoi(string(n))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
