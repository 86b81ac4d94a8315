package registry

import (
	"context"
	"time"

	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/integrations/crates"
	"github.com/philfreshman/diffpack/pkg/integrations/npm"
	"github.com/philfreshman/diffpack/pkg/integrations/zig"
)

// Kind identifies a supported package registry.
type Kind string

// Supported registries.
const (
	Npm    Kind = "npm"
	Crates Kind = "crates"
	Zig    Kind = "zig"
)

// KindOf maps a selection signal to a registry kind.
// Unknown or empty signals resolve to npm.
func KindOf(s string) Kind {
	switch Kind(s) {
	case Npm, Crates, Zig:
		return Kind(s)
	default:
		return Npm
	}
}

// MaxResults caps the number of search results any adapter returns.
const MaxResults = 10

// SentinelVersion stands in for backends that have no single "latest"
// notion (zig packages are tracked by git ref, not published versions).
const SentinelVersion = "latest"

// SearchResult is the uniform search record every adapter produces.
// Version is always present; backends without the concept use
// [SentinelVersion].
type SearchResult struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

// Adapter is the uniform two-operation contract over a package registry.
// Search returns at most [MaxResults] records in backend-native order;
// ListVersions returns version identifiers newest-first by convention.
type Adapter interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
	ListVersions(ctx context.Context, pkg string) ([]string, error)
}

// Registry bundles one adapter per supported backend.
type Registry struct {
	adapters map[Kind]Adapter
}

// Options configures registry construction.
type Options struct {
	// Cache is the response cache backend shared by all upstream clients.
	// Nil disables caching.
	Cache cache.Cache

	// CacheTTL controls how long upstream responses stay fresh.
	CacheTTL time.Duration
}

// New creates a Registry with adapters for npm, crates.io, and zig.
func New(opts Options) (*Registry, error) {
	rec, err := NewReconciler()
	if err != nil {
		return nil, err
	}

	backend := opts.Cache
	if backend == nil {
		backend = cache.NewNullCache()
	}

	return &Registry{
		adapters: map[Kind]Adapter{
			Npm:    &npmAdapter{client: npm.NewClient(backend, opts.CacheTTL), rec: rec},
			Crates: &cratesAdapter{client: crates.NewClient(backend, opts.CacheTTL), rec: rec},
			Zig:    &zigAdapter{client: zig.NewClient(backend, opts.CacheTTL), rec: rec},
		},
	}, nil
}

// Adapter returns the adapter for the given kind.
// Unknown kinds resolve to npm, mirroring [KindOf].
func (r *Registry) Adapter(kind Kind) Adapter {
	if a, ok := r.adapters[kind]; ok {
		return a
	}
	return r.adapters[Npm]
}

// Select resolves the active adapter through a selector.
func (r *Registry) Select(sel *Selector) Adapter {
	return r.Adapter(sel.Active())
}
