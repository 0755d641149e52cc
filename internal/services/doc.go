// Package services implements the business logic layer of Arvaia Pulse.
// It sits between the HTTP handlers and the dataset sources, so handlers
// never touch records or parsing directly.
//
// # Available Services
//
//   - DatasetService: owns the loaded record slice and reloads it
//   - DashboardService: annual, weekly and highlight projections
//   - InsightsService: generative summary of the loaded records
//   - HealthService: health, readiness, liveness and version
//
// # Concurrency
//
// DatasetService is the single source of truth. A reload or upload swaps
// the whole record slice under a write lock and never mutates a slice that
// was handed out, so projections run on a consistent Snapshot without
// holding the lock. Concurrent reloads are collapsed into one source read.
//
// # Error Handling
//
// Services return the sentinel errors in errors.go, wrapped with context;
// handlers map them to problem details.
package services
