// Package flowmetrics exposes Prometheus instrumentation for the actor,
// scheduler, and buffer-manager layers, per SPEC_FULL.md §2 "Metrics",
// grounded on the teacher's metric/core.go.
package flowmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every dataflow-runtime metric collector.
type Metrics struct {
	ActorWorkDuration       *prometheus.HistogramVec
	ActorWorkTotal          *prometheus.CounterVec
	ActorState              *prometheus.GaugeVec
	SchedulerDispatchTotal  *prometheus.CounterVec
	SchedulerQueueDepth     prometheus.Gauge
	SchedulerActiveWorkers  prometheus.Gauge
	BufferManagerExhausted  *prometheus.CounterVec
	BufferManagerFreeChunks *prometheus.GaugeVec
	CommitFailuresTotal     *prometheus.CounterVec
	CommitDuration          prometheus.Histogram
}

// New builds a fresh Metrics instance with every collector constructed but
// not yet registered to any prometheus.Registerer.
func New() *Metrics {
	return &Metrics{
		ActorWorkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flowcore",
				Subsystem: "actor",
				Name:      "work_duration_seconds",
				Help:      "Duration of a single block work() dispatch.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"block"},
		),
		ActorWorkTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowcore",
				Subsystem: "actor",
				Name:      "work_total",
				Help:      "Total number of completed work() dispatches.",
			},
			[]string{"block"},
		),
		ActorState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "flowcore",
				Subsystem: "actor",
				Name:      "state",
				Help:      "Block lifecycle state (0=idle, 1=active, 2=working).",
			},
			[]string{"block"},
		),
		SchedulerDispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowcore",
				Subsystem: "scheduler",
				Name:      "dispatch_total",
				Help:      "Total number of ProcessTask dispatch attempts issued by the pool.",
			},
			[]string{"worker"},
		),
		SchedulerQueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "flowcore",
				Subsystem: "scheduler",
				Name:      "ready_set_depth",
				Help:      "Number of actors currently in the pool's ready set.",
			},
		),
		SchedulerActiveWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "flowcore",
				Subsystem: "scheduler",
				Name:      "active_workers",
				Help:      "Number of scheduler worker goroutines currently running.",
			},
		),
		BufferManagerExhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowcore",
				Subsystem: "buffer_manager",
				Name:      "exhausted_total",
				Help:      "Total number of times a buffer.Manager.Pop found no free buffer.",
			},
			[]string{"domain"},
		),
		BufferManagerFreeChunks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "flowcore",
				Subsystem: "buffer_manager",
				Name:      "free_chunks",
				Help:      "Number of free buffers currently available in a manager's pool.",
			},
			[]string{"domain"},
		),
		CommitFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowcore",
				Subsystem: "topology",
				Name:      "commit_failures_total",
				Help:      "Total number of failures aggregated into a TopologyConnectError, by phase.",
			},
			[]string{"phase"},
		),
		CommitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "flowcore",
				Subsystem: "topology",
				Name:      "commit_duration_seconds",
				Help:      "Duration of a full five-phase Topology.Commit call.",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

// ObserveWork records one completed work() dispatch for block.
func (m *Metrics) ObserveWork(block string, d time.Duration) {
	m.ActorWorkDuration.WithLabelValues(block).Observe(d.Seconds())
	m.ActorWorkTotal.WithLabelValues(block).Inc()
}

// SetActorState records a block's current lifecycle state (0/1/2).
func (m *Metrics) SetActorState(block string, state int32) {
	m.ActorState.WithLabelValues(block).Set(float64(state))
}

// ObserveDispatch records one ProcessTask dispatch attempt by a named
// scheduler worker.
func (m *Metrics) ObserveDispatch(worker string) {
	m.SchedulerDispatchTotal.WithLabelValues(worker).Inc()
}

// ObserveBufferExhausted records one Pop() miss for domain.
func (m *Metrics) ObserveBufferExhausted(domain string) {
	m.BufferManagerExhausted.WithLabelValues(domain).Inc()
}

// SetBufferFreeChunks records the current free-buffer count for domain.
func (m *Metrics) SetBufferFreeChunks(domain string, n int) {
	m.BufferManagerFreeChunks.WithLabelValues(domain).Set(float64(n))
}

// ObserveCommit records one Topology.Commit call's outcome: failures is
// the per-phase failure count (zero entries recorded for a clean commit),
// and d is the full pipeline's wall-clock duration.
func (m *Metrics) ObserveCommit(failuresByPhase map[string]int, d time.Duration) {
	m.CommitDuration.Observe(d.Seconds())
	for phase, n := range failuresByPhase {
		if n > 0 {
			m.CommitFailuresTotal.WithLabelValues(phase).Add(float64(n))
		}
	}
}
