package zig

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/integrations"
)

// Package is a raw entry in the zig.pm package index. It never crosses the
// registry boundary; search results are derived from it.
type Package struct {
	Author      string   `json:"author"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Git         string   `json:"git,omitempty"`
	Links       Links    `json:"links"`
}

// Links holds the external links an index entry may carry.
type Links struct {
	GitHub string `json:"github,omitempty"`
}

// IndexCache materializes the full upstream package list once per process.
// The upstream index has no search endpoint, so the whole list is fetched
// and kept in memory. Concurrent callers during the initial fetch share a
// single in-flight request; a failed fetch leaves the cache empty so the
// next call retries. Invariant: at most one outstanding index fetch at any
// time.
type IndexCache struct {
	client  *integrations.Client
	baseURL string

	group singleflight.Group
	mu    sync.RWMutex
	pkgs  []Package
	ready bool
}

// NewIndexCache creates an index cache for the zig.pm package directory.
func NewIndexCache() *IndexCache {
	return &IndexCache{
		client:  integrations.NewClient(cache.NewNullCache(), "zig:", 0, nil),
		baseURL: "https://zig.pm",
	}
}

// Index returns the cached package list, fetching it on first use.
// All callers that arrive before the first successful fetch completes await
// the same upstream request and receive the same result or error.
func (ic *IndexCache) Index(ctx context.Context) ([]Package, error) {
	ic.mu.RLock()
	if ic.ready {
		pkgs := ic.pkgs
		ic.mu.RUnlock()
		return pkgs, nil
	}
	ic.mu.RUnlock()

	v, err, _ := ic.group.Do("index", func() (any, error) {
		// A fetch that completed while this caller queued is reused.
		ic.mu.RLock()
		if ic.ready {
			pkgs := ic.pkgs
			ic.mu.RUnlock()
			return pkgs, nil
		}
		ic.mu.RUnlock()

		var pkgs []Package
		if err := ic.client.Get(ctx, ic.baseURL+"/api/packages", &pkgs); err != nil {
			return nil, err
		}

		ic.mu.Lock()
		ic.pkgs = pkgs
		ic.ready = true
		ic.mu.Unlock()
		return pkgs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Package), nil
}

// Loaded reports whether the index has been fetched successfully.
func (ic *IndexCache) Loaded() bool {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.ready
}
