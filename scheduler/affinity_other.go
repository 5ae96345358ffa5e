//go:build !linux

package scheduler

import "fmt"

// configureCurrentThread is a no-op stub on non-Linux platforms: priority,
// CPU, and NUMA affinity are a "Unix path specified" best-effort feature
// per spec.md §4.5, and an unsupported platform is just another failure
// mode the pool tolerates.
func configureCurrentThread(cfg ThreadConfig) []error {
	if cfg.IsZero() {
		return nil
	}
	return []error{fmt.Errorf("thread affinity/priority tuning is not implemented on this platform")}
}
