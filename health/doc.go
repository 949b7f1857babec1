// Package health reports whether a connector is doing its job.
//
// A Monitor records the outcome of every run and turns it into a Status:
// healthy after a successful run, degraded when the last success is older
// than the allowed age, unhealthy after a failed run. The status is served
// over the standard gRPC health protocol by Server and over HTTP by Router,
// which also mounts the Prometheus metrics handler.
//
// # Dependency Checks
//
// The package also offers check functions for the connector's
// dependencies:
//
//   - NetworkCheck: Verify TCP connectivity to a host:port
//   - URLCheck: Verify TCP connectivity to the host of a URL
//   - FileCheck: Verify a file or directory exists
//   - Combine: Aggregate multiple health checks into a single status
//
// # Usage Example
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	overall := health.Combine(
//	    health.URLCheck(ctx, cfg.OpenCTI.URL),
//	    health.FileCheck(cfg.Connector.SendToDirectoryPath),
//	)
//	if overall.IsUnhealthy() {
//	    logger.Error("dependency check failed", "message", overall.Message, "details", overall.Details)
//	}
//
// # Health Status Priority
//
// When combining health checks with Combine(), the result follows this priority:
//
//   - Unhealthy: If any check is unhealthy, the combined result is unhealthy
//   - Degraded: If any check is degraded (and none unhealthy), the result is degraded
//   - Healthy: If all checks are healthy, the result is healthy
package health
