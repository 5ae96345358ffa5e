package runtimeconfig

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSafeConfigFallsBackToDefault(t *testing.T) {
	sc := NewSafeConfig(nil)
	require.NotNil(t, sc.Get())
	assert.Equal(t, Default().Scheduler.Mode, sc.Get().Scheduler.Mode)
}

func TestSafeConfigGetReturnsIndependentCopy(t *testing.T) {
	sc := NewSafeConfig(Default())
	a := sc.Get()
	a.Scheduler.Workers = 99

	b := sc.Get()
	assert.NotEqual(t, 99, b.Scheduler.Workers)
}

func TestSafeConfigUpdateRejectsInvalid(t *testing.T) {
	sc := NewSafeConfig(Default())
	bad := Default()
	bad.Scheduler.Mode = "bogus"

	err := sc.Update(bad)
	assert.Error(t, err)
	assert.Equal(t, "wait", sc.Get().Scheduler.Mode)
}

func TestSafeConfigUpdateAppliesValid(t *testing.T) {
	sc := NewSafeConfig(Default())
	next := Default()
	next.Scheduler.Workers = 16

	require.NoError(t, sc.Update(next))
	assert.Equal(t, 16, sc.Get().Scheduler.Workers)
}

func TestSafeConfigConcurrentAccess(t *testing.T) {
	sc := NewSafeConfig(Default())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = sc.Get()
		}()
		go func(n int) {
			defer wg.Done()
			cfg := Default()
			cfg.Scheduler.Workers = n
			_ = sc.Update(cfg)
		}(i)
	}
	wg.Wait()
}
