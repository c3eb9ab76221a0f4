// Package middleware provides HTTP middleware for the photo index API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics
//   - Response compression (gzip) for JSON payloads
//   - Configurable filtering for health checks
package middleware
