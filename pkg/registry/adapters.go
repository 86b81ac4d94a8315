package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/philfreshman/diffpack/pkg/errors"
	"github.com/philfreshman/diffpack/pkg/integrations/crates"
	"github.com/philfreshman/diffpack/pkg/integrations/npm"
	"github.com/philfreshman/diffpack/pkg/integrations/zig"
	"github.com/philfreshman/diffpack/pkg/observability"
)

// Client interfaces are narrowed to what each adapter consumes so tests can
// substitute fakes without touching the network.

type npmClient interface {
	Search(ctx context.Context, query string) ([]npm.Result, error)
	ListVersions(ctx context.Context, pkg string) ([]string, error)
}

type cratesClient interface {
	Search(ctx context.Context, query string) ([]crates.Crate, error)
	ListVersions(ctx context.Context, crate string) ([]string, error)
}

type zigClient interface {
	Search(ctx context.Context, query string) ([]zig.Match, error)
	ListVersions(ctx context.Context, name string) ([]string, error)
}

// =============================================================================
// npm
// =============================================================================

type npmAdapter struct {
	client npmClient
	rec    *Reconciler
}

func (a *npmAdapter) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return instrumentSearch(ctx, Npm, query, func() ([]SearchResult, error) {
		native, err := a.client.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		results := make([]SearchResult, 0, len(native))
		for _, r := range native {
			results = append(results, SearchResult{
				Name:        r.Name,
				Description: r.Description,
				Version:     r.Version,
			})
		}
		return a.rec.Results(results)
	})
}

func (a *npmAdapter) ListVersions(ctx context.Context, pkg string) ([]string, error) {
	return instrumentVersions(ctx, Npm, pkg, func() ([]string, error) {
		if err := errors.ValidatePackageName(pkg); err != nil {
			return nil, err
		}
		versions, err := a.client.ListVersions(ctx, pkg)
		if err != nil {
			return nil, err
		}
		return a.rec.Versions(versions)
	})
}

// =============================================================================
// crates.io
// =============================================================================

type cratesAdapter struct {
	client cratesClient
	rec    *Reconciler
}

func (a *cratesAdapter) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return instrumentSearch(ctx, Crates, query, func() ([]SearchResult, error) {
		native, err := a.client.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		results := make([]SearchResult, 0, len(native))
		for _, c := range native {
			results = append(results, SearchResult{
				Name:        c.Name,
				Description: c.Description,
				Version:     c.MaxVersion,
			})
		}
		return a.rec.Results(results)
	})
}

func (a *cratesAdapter) ListVersions(ctx context.Context, crate string) ([]string, error) {
	return instrumentVersions(ctx, Crates, crate, func() ([]string, error) {
		if err := errors.ValidatePackageName(crate); err != nil {
			return nil, err
		}
		versions, err := a.client.ListVersions(ctx, crate)
		if err != nil {
			return nil, err
		}
		return a.rec.Versions(versions)
	})
}

// =============================================================================
// zig
// =============================================================================

// zigLabel prefixes synthesized descriptions so callers can see which
// directory a result came from.
const zigLabel = "zig.pm"

type zigAdapter struct {
	client zigClient
	rec    *Reconciler
}

func (a *zigAdapter) Search(ctx context.Context, query string) ([]SearchResult, error) {
	return instrumentSearch(ctx, Zig, query, func() ([]SearchResult, error) {
		matches, err := a.client.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		results := make([]SearchResult, 0, len(matches))
		for _, m := range matches {
			desc := fmt.Sprintf("%s: %s/%s", zigLabel, m.Author, m.Name)
			if m.Description != "" {
				desc += " • " + m.Description
			}
			results = append(results, SearchResult{
				// The slug doubles as the package name: versions and
				// tarballs for zig packages are addressed by owner/repo.
				Name:        m.Slug,
				Description: desc,
				Version:     SentinelVersion,
			})
		}
		return a.rec.Results(results)
	})
}

func (a *zigAdapter) ListVersions(ctx context.Context, name string) ([]string, error) {
	return instrumentVersions(ctx, Zig, name, func() ([]string, error) {
		versions, err := a.client.ListVersions(ctx, name)
		if err != nil {
			return nil, err
		}
		return a.rec.Versions(versions)
	})
}

// =============================================================================
// Instrumentation
// =============================================================================

func instrumentSearch(ctx context.Context, kind Kind, query string, fn func() ([]SearchResult, error)) ([]SearchResult, error) {
	observability.Registry().OnSearchStart(ctx, string(kind), query)
	start := time.Now()
	results, err := fn()
	observability.Registry().OnSearchComplete(ctx, string(kind), query, len(results), time.Since(start), err)
	return results, err
}

func instrumentVersions(ctx context.Context, kind Kind, pkg string, fn func() ([]string, error)) ([]string, error) {
	observability.Registry().OnListVersionsStart(ctx, string(kind), pkg)
	start := time.Now()
	versions, err := fn()
	observability.Registry().OnListVersionsComplete(ctx, string(kind), pkg, len(versions), time.Since(start), err)
	return versions, err
}
