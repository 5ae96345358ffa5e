package scheduler

// Mode selects a worker thread's dispatch strategy, per spec.md §4.5.
type Mode int

const (
	// Wait mode parks on actor.Interface's condition variable between
	// dispatches, bounded at ~1ms. Lowest CPU at idle.
	Wait Mode = iota
	// Poll mode spins over its assigned actors calling ProcessTask without
	// blocking, paced by a rate.Limiter so an idle ready-set does not pin a
	// core at 100%. Lowest latency, higher CPU.
	Poll
)

func (m Mode) String() string {
	switch m {
	case Wait:
		return "wait"
	case Poll:
		return "poll"
	default:
		return "unknown"
	}
}
