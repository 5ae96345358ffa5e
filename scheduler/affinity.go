package scheduler

// ThreadConfig is the per-worker-thread tuning of spec.md §4.5: realtime
// priority, CPU affinity, and NUMA memory affinity. All three are
// best-effort; a platform or permission failure never aborts the pool, it
// is only logged once.
type ThreadConfig struct {
	// Priority in (0,1] maps to a realtime round-robin class; <= 0 leaves
	// the default scheduling policy untouched.
	Priority float64
	// CPUSet lists the CPU indices this worker's OS thread should be bound
	// to. Empty means no affinity is applied.
	CPUSet []int
	// NUMANode binds memory allocations on this thread to a NUMA node.
	// Node indices are 1-based here (0, the zero value, means "no NUMA
	// policy applied") so a zero-value Config leaves NUMA untouched.
	NUMANode int
}

// IsZero reports whether cfg requests no thread tuning at all, letting the
// pool skip the LockOSThread overhead entirely.
func (cfg ThreadConfig) IsZero() bool {
	return cfg.Priority <= 0 && len(cfg.CPUSet) == 0 && cfg.NUMANode <= 0
}
