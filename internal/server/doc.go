// Package server provides the HTTP server for the walk-in page and API.
//
// This package is internal and handles all HTTP concerns:
//
//   - Page serving: the embedded walk-in page at "/"
//   - REST API: "/api/locations" and "/api/walkins" return the shared result
//   - Server-Sent Events: "/api/sse" streams every result transition
//   - Refresh: POST "/api/refresh" refetches the directory
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
