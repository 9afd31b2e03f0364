// Package middleware provides the HTTP middleware chain of the API:
// CORS, per-client rate limiting and gzip response compression.
package middleware
