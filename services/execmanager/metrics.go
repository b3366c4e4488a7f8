package execmanager

import (
	"sync"
	"time"
)

// Metrics accumulates the per-run counters §4.6 requires; every method
// holds the mutex, so it is safe for concurrent use.
type Metrics struct {
	mu                   sync.Mutex
	nodeExecutionTimes   map[string]time.Duration
	resolutionCacheHits  uint64
	resolutionCacheMiss  uint64
	totalPlaceholders    uint64
	retryCounts          map[string]int
	circuitBreakerTrips  map[string]int
	checkpointSaves      int
}

func NewMetrics() *Metrics {
	return &Metrics{
		nodeExecutionTimes:  make(map[string]time.Duration),
		retryCounts:         make(map[string]int),
		circuitBreakerTrips: make(map[string]int),
	}
}

func (m *Metrics) RecordNodeDuration(node string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodeExecutionTimes[node] = d
}

func (m *Metrics) RecordRetry(node string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryCounts[node]++
}

func (m *Metrics) RecordCircuitBreakerTrip(nodeType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitBreakerTrips[nodeType]++
}

func (m *Metrics) RecordCheckpointSave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpointSaves++
}

func (m *Metrics) RecordPlaceholdersResolved(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPlaceholders += n
}

func (m *Metrics) SyncResolverCache(hits, misses uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutionCacheHits = hits
	m.resolutionCacheMiss = misses
}

// MetricsSnapshot is the flat, serializable view of Metrics (§4.6 "export
// hook"), used both by checkpoint files and by the metrics package's
// export surface.
type MetricsSnapshot struct {
	NodeExecutionTimes  map[string]float64 `json:"node_execution_times"`
	ResolutionCacheHits uint64             `json:"resolution_cache_hits"`
	ResolutionCacheMiss uint64             `json:"resolution_cache_misses"`
	TotalPlaceholders   uint64             `json:"total_placeholders_resolved"`
	RetryCounts         map[string]int     `json:"retry_counts"`
	CircuitBreakerTrips map[string]int     `json:"circuit_breaker_trips"`
	CheckpointSaves     int                `json:"checkpoint_saves"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	times := make(map[string]float64, len(m.nodeExecutionTimes))
	for k, v := range m.nodeExecutionTimes {
		times[k] = v.Seconds()
	}
	retries := make(map[string]int, len(m.retryCounts))
	for k, v := range m.retryCounts {
		retries[k] = v
	}
	trips := make(map[string]int, len(m.circuitBreakerTrips))
	for k, v := range m.circuitBreakerTrips {
		trips[k] = v
	}

	return MetricsSnapshot{
		NodeExecutionTimes:  times,
		ResolutionCacheHits: m.resolutionCacheHits,
		ResolutionCacheMiss: m.resolutionCacheMiss,
		TotalPlaceholders:   m.totalPlaceholders,
		RetryCounts:         retries,
		CircuitBreakerTrips: trips,
		CheckpointSaves:     m.checkpointSaves,
	}
}
