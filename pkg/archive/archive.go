// Package archive fetches package tarballs and extracts them into an
// in-memory file map keyed by normalized path.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/errors"
	"github.com/philfreshman/diffpack/pkg/integrations"
	"github.com/philfreshman/diffpack/pkg/registry"
)

// EntryType distinguishes files from directories in an extracted archive.
type EntryType string

const (
	EntryFile      EntryType = "file"
	EntryDirectory EntryType = "directory"
)

// Entry is one extracted archive member. Directories carry no content.
type Entry struct {
	Type    EntryType
	Content string
}

// FileMap holds an extracted package keyed by slash-separated path.
// Every ancestor directory of a file has its own directory entry.
type FileMap map[string]Entry

// Fetcher downloads package tarballs from the registries' static hosts.
type Fetcher struct {
	client *integrations.Client

	npmBase      string
	cratesBase   string
	codeloadBase string
}

// NewFetcher creates a Fetcher. Tarball bytes are streamed straight to
// extraction; callers that need memoization hold on to the extracted
// file maps instead of the raw archives.
func NewFetcher(backend cache.Cache, cacheTTL time.Duration) *Fetcher {
	return &Fetcher{
		client:       integrations.NewClient(backend, "tarball", cacheTTL, nil),
		npmBase:      "https://registry.npmjs.org",
		cratesBase:   "https://static.crates.io",
		codeloadBase: "https://codeload.github.com",
	}
}

// WithBaseURLs overrides the upstream hosts. Used in tests.
func (f *Fetcher) WithBaseURLs(npm, crates, codeload string) *Fetcher {
	f.npmBase = npm
	f.cratesBase = crates
	f.codeloadBase = codeload
	return f
}

// Fetch downloads and extracts the tarball for one package version.
func (f *Fetcher) Fetch(ctx context.Context, kind registry.Kind, pkg, version string) (FileMap, error) {
	url, err := f.TarballURL(kind, pkg, version)
	if err != nil {
		return nil, err
	}

	data, err := f.client.GetBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	return Extract(data)
}

// TarballURL builds the download URL for one package version.
//
// npm serves tarballs under the package path with the scope stripped
// from the filename; crates.io serves .crate files (gzipped tarballs)
// from its static host; zig packages resolve to GitHub's codeload
// endpoint, which accepts any ref for the version.
func (f *Fetcher) TarballURL(kind registry.Kind, pkg, version string) (string, error) {
	if err := errors.ValidatePackageName(pkg); err != nil {
		return "", err
	}
	if err := errors.ValidateVersion(version); err != nil {
		return "", err
	}

	switch kind {
	case registry.Npm:
		unscoped := pkg
		if _, rest, ok := strings.Cut(pkg, "/"); ok {
			unscoped = rest
		}
		return fmt.Sprintf("%s/%s/-/%s-%s.tgz", f.npmBase, pkg, unscoped, version), nil
	case registry.Crates:
		return fmt.Sprintf("%s/crates/%s/%s-%s.crate", f.cratesBase, pkg, pkg, version), nil
	case registry.Zig:
		owner, repo, ok := strings.Cut(pkg, "/")
		if !ok || owner == "" || repo == "" {
			return "", errors.New(errors.ErrCodeInvalidSlug, "zig package %q is not an owner/repo slug", pkg)
		}
		return fmt.Sprintf("%s/%s/%s/tar.gz/%s", f.codeloadBase, owner, repo, version), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidRegistry, "unsupported registry: %s", kind)
	}
}
