package flowmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersCoreCollectors(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	require.NotNil(t, r.PrometheusRegistry())

	r.Metrics.ObserveWork("src", 5*time.Millisecond)
	r.Metrics.SetActorState("src", 1)
	r.Metrics.ObserveDispatch("worker-0")
	r.Metrics.ObserveBufferExhausted("heap")
	r.Metrics.SetBufferFreeChunks("heap", 3)
	r.Metrics.ObserveCommit(map[string]int{"subscription diff": 2}, 10*time.Millisecond)

	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"flowcore_actor_work_duration_seconds",
		"flowcore_actor_state",
		"flowcore_scheduler_dispatch_total",
		"flowcore_buffer_manager_exhausted_total",
		"flowcore_topology_commit_failures_total",
		"flowcore_topology_commit_duration_seconds",
	} {
		assert.True(t, names[want], "missing metric family %s", want)
	}
}

func TestRegistryRegisterRejectsDuplicateKey(t *testing.T) {
	r := NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "component_test_total", Help: "test"})
	require.NoError(t, r.Register("mycomponent", "test_total", c))

	dup := prometheus.NewCounter(prometheus.CounterOpts{Name: "component_test_total_dup", Help: "test"})
	err := r.Register("mycomponent", "test_total", dup)
	assert.Error(t, err)
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	c := prometheus.NewGauge(prometheus.GaugeOpts{Name: "component_test_gauge", Help: "test"})
	require.NoError(t, r.Register("mycomponent", "test_gauge", c))

	assert.True(t, r.Unregister("mycomponent", "test_gauge"))
	assert.False(t, r.Unregister("mycomponent", "test_gauge"))
}
