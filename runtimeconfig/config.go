// Package runtimeconfig loads and safely serves the tunables a running
// topology's scheduler and buffer managers need at startup: worker count,
// dispatch mode, per-thread affinity, and default slab geometry, per
// SPEC_FULL.md §2 "Configuration". Grounded on the teacher's
// config/config.go JSON conventions and config/manager.go's SafeConfig
// read-path shape, re-pointed from NATS/platform/service settings to the
// dataflow runtime's own scheduler/buffer-manager settings.
package runtimeconfig

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/pothosware/flowcore/flowerr"
	"github.com/pothosware/flowcore/scheduler"
)

// Config is the complete runtime tuning loaded at process startup.
type Config struct {
	Version        string               `json:"version" yaml:"version"`
	Scheduler      SchedulerConfig      `json:"scheduler" yaml:"scheduler"`
	BufferManagers BufferManagerConfigs `json:"buffer_managers" yaml:"buffer_managers"`
}

// SchedulerConfig mirrors scheduler.Config/scheduler.ThreadConfig in a
// serializable shape: Mode is the string form of scheduler.Mode ("wait" or
// "poll", default "wait"), CPUSet/NUMANode/Priority configure per-worker
// OS-thread affinity (scheduler.ThreadConfig), and PollRate/PollBurst pace
// poll-mode dispatch (ignored in wait mode).
type SchedulerConfig struct {
	Workers   int     `json:"workers" yaml:"workers"`
	Mode      string  `json:"mode" yaml:"mode"`
	Priority  float64 `json:"priority,omitempty" yaml:"priority,omitempty"`
	CPUSet    []int   `json:"cpu_set,omitempty" yaml:"cpu_set,omitempty"`
	NUMANode  int     `json:"numa_node,omitempty" yaml:"numa_node,omitempty"`
	PollRate  float64 `json:"poll_rate,omitempty" yaml:"poll_rate,omitempty"`
	PollBurst int     `json:"poll_burst,omitempty" yaml:"poll_burst,omitempty"`
}

// BufferManagerConfigs keys buffer-manager defaults by domain name (the
// same domain strings topology.Commit's negotiation uses), e.g. "heap" or
// "pinned".
type BufferManagerConfigs map[string]BufferManagerConfig

// BufferManagerConfig is a generic (fixed-slab) buffer manager's default
// geometry: Count buffers of Size bytes, each rounded up to Alignment
// bytes (0 or 1 means no rounding).
type BufferManagerConfig struct {
	Count     int `json:"count" yaml:"count"`
	Size      int `json:"size" yaml:"size"`
	Alignment int `json:"alignment,omitempty" yaml:"alignment,omitempty"`
}

// AlignedSize rounds c.Size up to the nearest multiple of c.Alignment.
func (c BufferManagerConfig) AlignedSize() int {
	if c.Alignment <= 1 {
		return c.Size
	}
	rem := c.Size % c.Alignment
	if rem == 0 {
		return c.Size
	}
	return c.Size + (c.Alignment - rem)
}

// Validate checks Config for internally-consistent values, mirroring the
// teacher's Config.Validate conventions (fail fast on required/out-of-range
// fields, returned as a single flowerr.Invalid).
func (c *Config) Validate() error {
	if c.Scheduler.Workers < 0 {
		return flowerr.WrapInvalid(fmt.Errorf("scheduler.workers must be >= 0, got %d", c.Scheduler.Workers), "Config", "Validate", "scheduler.workers")
	}
	switch c.Scheduler.Mode {
	case "", "wait", "poll":
	default:
		return flowerr.WrapInvalid(fmt.Errorf("scheduler.mode must be \"wait\" or \"poll\", got %q", c.Scheduler.Mode), "Config", "Validate", "scheduler.mode")
	}
	for name, bm := range c.BufferManagers {
		if bm.Count <= 0 {
			return flowerr.WrapInvalid(fmt.Errorf("buffer_managers.%s.count must be > 0, got %d", name, bm.Count), "Config", "Validate", "buffer_managers.count")
		}
		if bm.Size <= 0 {
			return flowerr.WrapInvalid(fmt.Errorf("buffer_managers.%s.size must be > 0, got %d", name, bm.Size), "Config", "Validate", "buffer_managers.size")
		}
	}
	return nil
}

// ToPoolConfig converts to the scheduler package's own Config shape, ready
// for scheduler.NewPool.
func (c SchedulerConfig) ToPoolConfig() scheduler.Config {
	mode := scheduler.Wait
	if c.Mode == "poll" {
		mode = scheduler.Poll
	}
	return scheduler.Config{
		Workers: c.Workers,
		Mode:    mode,
		ThreadConfig: scheduler.ThreadConfig{
			Priority: c.Priority,
			CPUSet:   c.CPUSet,
			NUMANode: c.NUMANode,
		},
		PollRate:  rate.Limit(c.PollRate),
		PollBurst: c.PollBurst,
	}
}

// Default returns a Config with conservative built-in defaults: wait-mode
// scheduling at runtime.NumCPU() workers (left as 0 so scheduler.NewPool
// applies its own default) and no buffer managers (callers must configure
// at least one domain before committing a topology that uses it).
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Scheduler: SchedulerConfig{
			Mode:      "wait",
			PollRate:  1000,
			PollBurst: 1,
		},
		BufferManagers: BufferManagerConfigs{},
	}
}
