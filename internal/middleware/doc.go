// Package middleware holds the HTTP middleware of the KPI server: request ids,
// rate limiting, CORS, security headers, OpenTelemetry instrumentation and
// request body validation.
package middleware
