package execmanager

import (
	"context"
	"math"
	"strings"
	"time"

	"actengine/services/registry"
)

// NodeValidationError marks a result that must not be retried (§4.5.2,
// §7).
type NodeValidationError struct {
	Message string
}

func (e *NodeValidationError) Error() string { return e.Message }

// CircuitBreakerError is returned when the node type's breaker is open
// and the cooldown has not elapsed (§4.5.2, §7).
type CircuitBreakerError struct {
	NodeType string
}

func (e *CircuitBreakerError) Error() string {
	return "circuit breaker open for node type " + e.NodeType
}

// executeWithRetry wraps one executor invocation with the §4.5.2
// retry/circuit-breaker policy.
func (m *Manager) executeWithRetry(ctx context.Context, nodeType, node string, executor registry.Executor, in registry.ExecutorInput, state *State) (registry.NodeResult, error) {
	breaker := m.breakers.For(nodeType)

	allowed, _ := breaker.BeforeAttempt()
	if !allowed {
		return registry.NodeResult{}, &CircuitBreakerError{NodeType: nodeType}
	}

	// One initial attempt plus MaxRetries retries (§4.5.2, §9): the
	// breaker wraps this whole sequence, not each inner attempt, so a
	// failing node's retries never trip it more than once.
	totalAttempts := m.opts.MaxRetries + 1
	var lastResult registry.NodeResult

	for attempt := 1; attempt <= totalAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return registry.NodeResult{}, ctx.Err()
		case m.pool <- struct{}{}:
		}

		start := time.Now()
		lastResult = executor.Execute(in)
		state.Metrics.RecordNodeDuration(node, time.Since(start))
		<-m.pool

		if !lastResult.IsError() {
			breaker.RecordSuccess()
			return lastResult, nil
		}

		if isValidationFailure(lastResult) {
			breaker.RecordFailure()
			return lastResult, nil
		}

		if attempt == totalAttempts {
			break
		}

		state.setStatus(node, StatusRetrying, lastResult.Message)
		state.Metrics.RecordRetry(node)

		backoff := time.Duration(math.Min(math.Pow(2, float64(attempt)), 30)) * time.Second
		select {
		case <-ctx.Done():
			return registry.NodeResult{}, ctx.Err()
		case <-time.After(backoff):
		}
	}

	// Every attempt failed: the retry loop is exhausted, so the breaker
	// sees exactly one failure for this node's entire retry sequence.
	if tripped := breaker.RecordFailure(); tripped {
		state.Metrics.RecordCircuitBreakerTrip(nodeType)
	}

	return lastResult, nil
}

func isValidationFailure(r registry.NodeResult) bool {
	if r.ErrorType == "NodeValidationError" || r.ErrorType == "ValidationError" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Message), "validation")
}
