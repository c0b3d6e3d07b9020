// Package fetcher retrieves the clinic directory over HTTP and memoizes it.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeouts and a body size limit
//   - [Once]: memoizer that runs an operation at most once until reset
//   - [Directory]: memoized fetch-and-decode of the directory endpoint
//
// Memoization policy: only successful fetches are cached. Callers that join
// an in-flight fetch share its outcome, success or failure, but a failed
// fetch is forgotten so the next call starts a fresh attempt. Callers that
// must not refetch after a failure (the shared store) keep the failed
// result themselves.
package fetcher
