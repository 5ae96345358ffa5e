package buffer

// Label is an out-of-band marker attached at element Index spanning Width
// elements of a stream; labels travel with buffers and are surfaced to a
// block through propagateLabels (spec.md §3 "Label").
type Label struct {
	ID    string
	Data  any
	Index uint64
	Width uint64
}

// Shift returns a copy of the label with Index advanced by delta.
func (l Label) Shift(delta int64) Label {
	shifted := l
	if delta >= 0 {
		shifted.Index += uint64(delta)
	} else {
		shifted.Index -= uint64(-delta)
	}
	return shifted
}

// Scale returns a copy of the label with Index rescaled by inRate/outRate,
// per spec.md §4.3's default label-propagation policy:
// index' = produced * in.rate / out.rate.
func (l Label) Scale(inRate, outRate float64) Label {
	scaled := l
	if outRate != 0 {
		scaled.Index = uint64(float64(l.Index) * inRate / outRate)
	}
	return scaled
}
