package runtimeconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pothosware/flowcore/scheduler"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadSchedulerMode(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.Mode = "spin"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeWorkers(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.Workers = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroBufferManagerCount(t *testing.T) {
	cfg := Default()
	cfg.BufferManagers = BufferManagerConfigs{"heap": {Count: 0, Size: 1024}}
	assert.Error(t, cfg.Validate())
}

func TestBufferManagerConfigAlignedSize(t *testing.T) {
	tests := []struct {
		name string
		bm   BufferManagerConfig
		want int
	}{
		{"no alignment", BufferManagerConfig{Size: 100}, 100},
		{"alignment of one", BufferManagerConfig{Size: 100, Alignment: 1}, 100},
		{"already aligned", BufferManagerConfig{Size: 128, Alignment: 64}, 128},
		{"rounds up", BufferManagerConfig{Size: 100, Alignment: 64}, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bm.AlignedSize())
		})
	}
}

func TestSchedulerConfigToPoolConfig(t *testing.T) {
	sc := SchedulerConfig{Workers: 4, Mode: "poll", Priority: 0.5, CPUSet: []int{0, 1}, NUMANode: 1, PollRate: 500, PollBurst: 2}
	pc := sc.ToPoolConfig()

	assert.Equal(t, 4, pc.Workers)
	assert.Equal(t, scheduler.Poll, pc.Mode)
	assert.Equal(t, 0.5, pc.ThreadConfig.Priority)
	assert.Equal(t, []int{0, 1}, pc.ThreadConfig.CPUSet)
	assert.Equal(t, 1, pc.ThreadConfig.NUMANode)
	assert.Equal(t, 2, pc.PollBurst)
}

func TestSchedulerConfigToPoolConfigDefaultsToWait(t *testing.T) {
	sc := SchedulerConfig{}
	pc := sc.ToPoolConfig()
	assert.Equal(t, scheduler.Wait, pc.Mode)
}
