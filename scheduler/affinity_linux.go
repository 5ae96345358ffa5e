//go:build linux

package scheduler

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// realtime round-robin priority range, per spec.md §4.5
// "sched_priority = min + prio*(max-min)".
const (
	schedRR     = 2
	rtPrioFloor = 1
	rtPrioCeil  = 99
)

type schedParam struct {
	priority int32
}

// configureCurrentThread applies cfg to the calling OS thread. The caller
// must have already called runtime.LockOSThread. Every failure is
// collected and returned rather than acted upon here, per spec.md §4.5 "all
// failures are non-fatal; the pool continues with default settings".
func configureCurrentThread(cfg ThreadConfig) []error {
	var errs []error
	if cfg.Priority > 0 {
		if err := setRealtimePriority(cfg.Priority); err != nil {
			errs = append(errs, fmt.Errorf("realtime priority: %w", err))
		}
	}
	if len(cfg.CPUSet) > 0 {
		if err := setCPUAffinity(cfg.CPUSet); err != nil {
			errs = append(errs, fmt.Errorf("cpu affinity: %w", err))
		}
	}
	if cfg.NUMANode > 0 {
		if err := setNUMAMemPolicy(cfg.NUMANode - 1); err != nil {
			errs = append(errs, fmt.Errorf("numa affinity: %w", err))
		}
	}
	return errs
}

func setRealtimePriority(prio float64) error {
	p := rtPrioFloor + int32(prio*float64(rtPrioCeil-rtPrioFloor))
	param := schedParam{priority: p}
	// sched_setscheduler(0, SCHED_RR, &param) — unwrapped in x/sys/unix, so
	// invoked directly via the raw syscall number.
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, 0, schedRR, uintptr(unsafe.Pointer(&param)))
	if errno != 0 {
		return errno
	}
	return nil
}

func setCPUAffinity(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, c := range cpus {
		set.Set(c)
	}
	return unix.SchedSetaffinity(0, &set)
}

// setNUMAMemPolicy binds subsequent allocations on this thread to node via
// set_mempolicy(MPOL_BIND, nodemask, maxnode). Like sched_setscheduler this
// has no x/sys/unix wrapper, so it goes through the raw syscall.
func setNUMAMemPolicy(node int) error {
	const mpolBind = 2
	var mask uint64
	if node < 0 || node >= 64 {
		return fmt.Errorf("numa node %d out of supported range", node)
	}
	mask = 1 << uint(node)
	_, _, errno := unix.Syscall(unix.SYS_SET_MEMPOLICY, mpolBind, uintptr(unsafe.Pointer(&mask)), 64)
	if errno != 0 {
		return errno
	}
	return nil
}
