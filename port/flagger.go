package port

// Flagger is the owning actor's back-reference, used to mark it for
// re-evaluation whenever a port's readiness may have changed: a buffer
// posted to an input, or a buffer manager making a fresh buffer available to
// an output (spec.md §4.1 changeFlagged). Implemented by actor.Interface.
type Flagger interface {
	FlagChange()
}

// noopFlagger satisfies Flagger for ports constructed without an owner yet
// (e.g. in tests), so nil checks aren't scattered through port code.
type noopFlagger struct{}

func (noopFlagger) FlagChange() {}
