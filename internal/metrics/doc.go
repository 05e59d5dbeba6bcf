// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Per-symbol poll outcomes with the failing pipeline stage
//   - Queue publish successes and failures
//   - Poll cycle durations
package metrics
