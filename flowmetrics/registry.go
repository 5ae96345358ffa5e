package flowmetrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pothosware/flowcore/flowerr"
)

// Registry owns a prometheus.Registry, the core Metrics collectors, and
// per-component metrics registered later by name, grounded on
// metric/registry.go's MetricsRegistry.
type Registry struct {
	prom    *prometheus.Registry
	Metrics *Metrics

	mu         sync.Mutex
	registered map[string]prometheus.Collector
}

// NewRegistry builds a Registry with the core Metrics collectors and Go
// runtime collectors already registered.
func NewRegistry() *Registry {
	prom := prometheus.NewRegistry()
	r := &Registry{
		prom:       prom,
		Metrics:    New(),
		registered: map[string]prometheus.Collector{},
	}
	prom.MustRegister(
		r.Metrics.ActorWorkDuration,
		r.Metrics.ActorWorkTotal,
		r.Metrics.ActorState,
		r.Metrics.SchedulerDispatchTotal,
		r.Metrics.SchedulerQueueDepth,
		r.Metrics.SchedulerActiveWorkers,
		r.Metrics.BufferManagerExhausted,
		r.Metrics.BufferManagerFreeChunks,
		r.Metrics.CommitFailuresTotal,
		r.Metrics.CommitDuration,
	)
	prom.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying *prometheus.Registry, e.g. for
// promhttp.HandlerFor.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prom
}

// Register adds a component-specific collector under a (component, name)
// key, returning a flowerr.Invalid-classed error on a duplicate key or a
// Prometheus label-shape conflict.
func (r *Registry) Register(component, name string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := component + "." + name
	if _, exists := r.registered[key]; exists {
		return flowerr.WrapInvalid(
			fmt.Errorf("metric %s already registered for %s", name, component),
			"Registry", "Register", "duplicate metric registration")
	}
	if err := r.prom.Register(c); err != nil {
		return flowerr.WrapInvalid(err, "Registry", "Register",
			fmt.Sprintf("prometheus conflict for metric %s", key))
	}
	r.registered[key] = c
	return nil
}

// Unregister removes a previously registered component metric.
func (r *Registry) Unregister(component, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := component + "." + name
	c, ok := r.registered[key]
	if !ok {
		return false
	}
	if r.prom.Unregister(c) {
		delete(r.registered, key)
		return true
	}
	return false
}
