// Package integrations provides HTTP clients for upstream package registries
// and code hosts.
//
// The base [Client] handles the concerns every upstream shares: default
// headers, JSON decoding, response caching through [cache.Cache] backends,
// status-code mapping to sentinel errors, and retry with exponential backoff
// for transient failures. Per-registry subpackages (npm, crates, zig, github)
// embed it and add the endpoint knowledge for their upstream.
//
// Error handling follows sentinel conventions:
//   - [ErrNotFound] for 404 responses
//   - [ErrNetwork] for transport failures and non-success statuses
//   - [ErrDecode] for bodies that cannot be decoded as expected
//
// Transient failures (transport errors, 5xx) are retried up to 3 times with
// exponential backoff; 4xx responses fail immediately.
package integrations
