// Package registry exposes package search and version listing for npm,
// crates.io, and zig behind one adapter contract.
//
// Each backend keeps its native result ordering and its own notion of a
// version. The adapters translate to a uniform [SearchResult] shape, cap
// result sets at [MaxResults], and validate every outgoing payload
// against an embedded JSON schema before returning it.
//
// Construct a [Registry] once at startup and resolve adapters per
// request:
//
//	reg, err := registry.New(registry.Options{Cache: backend, CacheTTL: ttl})
//	adapter := reg.Select(registry.NewSelector(provider))
//	results, err := adapter.Search(ctx, "http client")
package registry
