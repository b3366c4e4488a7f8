package metrics

import "actengine/services/execmanager"

// Sync carries one run's MetricsSnapshot onto the Prometheus collectors.
// prevHits/prevMisses are the resolver cache counts observed at the last
// sync, so the monotonic Prometheus counters only advance by the delta.
func Sync(c *Collectors, snap execmanager.MetricsSnapshot, prevHits, prevMisses uint64) {
	for nodeType, seconds := range snap.NodeExecutionTimes {
		c.RecordNodeDuration(nodeType, seconds)
	}
	for nodeType, n := range snap.RetryCounts {
		for i := 0; i < n; i++ {
			c.RecordRetry(nodeType)
		}
	}
	for nodeType, n := range snap.CircuitBreakerTrips {
		for i := 0; i < n; i++ {
			c.RecordCircuitBreakerTrip(nodeType)
		}
	}
	c.SetResolutionCacheCounters(snap.ResolutionCacheHits, snap.ResolutionCacheMiss, prevHits, prevMisses)
	c.AddCheckpointSaves(snap.CheckpointSaves)
}

// ExportFlat renders a MetricsSnapshot as the flat map §4.6 describes
// ("exported as a flat map"): suitable for direct JSON serving from the
// admin HTTP surface.
func ExportFlat(snap execmanager.MetricsSnapshot) map[string]any {
	return map[string]any{
		"node_execution_times":        snap.NodeExecutionTimes,
		"resolution_cache_hits":       snap.ResolutionCacheHits,
		"resolution_cache_misses":     snap.ResolutionCacheMiss,
		"total_placeholders_resolved": snap.TotalPlaceholders,
		"retry_counts":                snap.RetryCounts,
		"circuit_breaker_trips":       snap.CircuitBreakerTrips,
		"checkpoint_saves":            snap.CheckpointSaves,
	}
}
