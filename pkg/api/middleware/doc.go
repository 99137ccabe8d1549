// Package middleware provides the edge HTTP middleware of the shop API.
//
// The middleware package is organized into separate files by concern:
//
//   - request_id.go: Request ID generation and tracking middleware
//   - recovery.go: Panic recovery middleware
//   - logging.go: Structured access logging with slow-request warnings
//   - metrics.go: HTTP metrics collection middleware
//   - security_headers.go: Security response headers and X-Response-Time
//   - threats.go: Suspicious URL and query-string screens
//   - csrf.go: Origin check for state-changing requests
//   - body_limit.go: Multipart upload size pre-screen
//   - ratelimit.go: Global API rate limit backed by pkg/ratelimit
//   - route_gate.go: Path-prefix authorisation gate driven by route rules
//   - cors.go: Cross-Origin Resource Sharing (CORS) middleware
//   - chain.go: Assembles the edge chain in its fixed order
//
// All middleware follows the standard pattern: func(http.Handler) http.Handler
//
// Example usage:
//
//	edge := middleware.NewEdge(middleware.EdgeConfig{...})
//	handler := edge.Wrap(router)
//	http.ListenAndServe(":8080", handler)
package middleware
