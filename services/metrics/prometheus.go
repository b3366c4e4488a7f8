// Package metrics exposes the execution manager's §4.6 counters through
// two views over the same underlying data: a live Prometheus registry
// (served at GET /metrics) and an in-memory flat map/graph export
// (served by the admin HTTP surface).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds every Prometheus metric the engine publishes.
type Collectors struct {
	NodeExecutionDuration *prometheus.HistogramVec
	RetryTotal            *prometheus.CounterVec
	CircuitBreakerTrips   *prometheus.CounterVec
	PlaceholdersResolved  prometheus.Counter
	ResolutionCacheHits   prometheus.Counter
	ResolutionCacheMisses prometheus.Counter
	CheckpointSaves       prometheus.Counter
	ExecutionsTotal       *prometheus.CounterVec
}

// NewCollectors builds the collector set, unregistered.
func NewCollectors() *Collectors {
	return &Collectors{
		NodeExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "actengine_node_execution_duration_seconds",
				Help:    "Node execution duration in seconds by node type",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node_type"},
		),
		RetryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actengine_node_retries_total",
				Help: "Total number of node execution retries by node type",
			},
			[]string{"node_type"},
		),
		CircuitBreakerTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actengine_circuit_breaker_trips_total",
				Help: "Total number of circuit breaker trips by node type",
			},
			[]string{"node_type"},
		),
		PlaceholdersResolved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "actengine_placeholders_resolved_total",
				Help: "Total number of placeholder expressions resolved",
			},
		),
		ResolutionCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "actengine_resolution_cache_hits_total",
				Help: "Total number of resolver cache hits",
			},
		),
		ResolutionCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "actengine_resolution_cache_misses_total",
				Help: "Total number of resolver cache misses",
			},
		),
		CheckpointSaves: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "actengine_checkpoint_saves_total",
				Help: "Total number of checkpoints written to disk",
			},
		),
		ExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actengine_workflow_executions_total",
				Help: "Total number of workflow executions by terminal status",
			},
			[]string{"status"},
		),
	}
}

// Register attaches every collector to registry.
func (c *Collectors) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		c.NodeExecutionDuration,
		c.RetryTotal,
		c.CircuitBreakerTrips,
		c.PlaceholdersResolved,
		c.ResolutionCacheHits,
		c.ResolutionCacheMisses,
		c.CheckpointSaves,
		c.ExecutionsTotal,
	}
	for _, col := range collectors {
		if err := registry.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// RecordNodeDuration observes one node execution's wall-clock time.
func (c *Collectors) RecordNodeDuration(nodeType string, seconds float64) {
	c.NodeExecutionDuration.WithLabelValues(nodeType).Observe(seconds)
}

// RecordRetry counts one retry attempt for a node type.
func (c *Collectors) RecordRetry(nodeType string) {
	c.RetryTotal.WithLabelValues(nodeType).Inc()
}

// RecordCircuitBreakerTrip counts one breaker trip for a node type.
func (c *Collectors) RecordCircuitBreakerTrip(nodeType string) {
	c.CircuitBreakerTrips.WithLabelValues(nodeType).Inc()
}

// RecordExecution counts one terminal run outcome: a full run's status
// or a dynamic route's execution_outcome.
func (c *Collectors) RecordExecution(status string) {
	c.ExecutionsTotal.WithLabelValues(status).Inc()
}

// AddPlaceholdersResolved accumulates the placeholder-resolution counter.
func (c *Collectors) AddPlaceholdersResolved(n uint64) {
	c.PlaceholdersResolved.Add(float64(n))
}

// SetResolutionCacheCounters mirrors the resolver's absolute hit/miss
// counts onto the two cache counters. Prometheus counters are
// monotonic, so this adds only the delta since the last sync.
func (c *Collectors) SetResolutionCacheCounters(hits, misses, prevHits, prevMisses uint64) {
	if hits > prevHits {
		c.ResolutionCacheHits.Add(float64(hits - prevHits))
	}
	if misses > prevMisses {
		c.ResolutionCacheMisses.Add(float64(misses - prevMisses))
	}
}

// AddCheckpointSaves accumulates the checkpoint-save counter.
func (c *Collectors) AddCheckpointSaves(n int) {
	if n > 0 {
		c.CheckpointSaves.Add(float64(n))
	}
}
