package port

// PropagateLabels implements the default label-propagation policy of
// spec.md §4.3: every label on in whose Index is strictly less than
// consumed elements is emitted to every port in outs, with Index rescaled
// to the destination's element rate via produced * in.rate / out.rate.
// Subclasses (block-specific overrides) call their own logic instead of
// this helper.
func PropagateLabels(in *Input, consumed uint64, outs []*Output) {
	labels := in.PeekLabels(consumed)
	if len(labels) == 0 {
		return
	}
	inRate := in.Rate()
	for _, out := range outs {
		if out == nil || out.IsSignal() {
			continue
		}
		outRate := out.Rate()
		for _, l := range labels {
			out.PostLabel(l.Scale(inRate, outRate))
		}
	}
}
