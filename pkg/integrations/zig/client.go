package zig

import (
	"context"
	"strings"
	"time"

	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/errors"
	"github.com/philfreshman/diffpack/pkg/integrations/github"
)

const searchLimit = 10

// Match is a search hit from the materialized index, reduced to the fields
// the registry layer needs. Slug is the validated GitHub owner/repo form.
type Match struct {
	Name        string
	Author      string
	Description string
	Slug        string
	Tags        []string
}

// Client computes search and version listings for zig packages. The
// upstream index has neither, so search scans the materialized index
// (see [IndexCache]) and versions come from the package's GitHub tags.
type Client struct {
	index *IndexCache
	gh    *github.Client
}

// NewClient creates a zig registry client. GitHub responses are cached in
// the given backend; the index itself is memoized in memory for the process
// lifetime.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		index: NewIndexCache(),
		gh:    github.NewClient(backend, cacheTTL),
	}
}

// Search scans the package index with a case-insensitive substring match
// over name, author, description, slug, and tags. Entries whose git/GitHub
// link does not resolve to a repo slug are discarded regardless of the
// query; they cannot be fetched later. An empty query matches everything.
// Results follow index order, capped at 10.
func (c *Client) Search(ctx context.Context, query string) ([]Match, error) {
	pkgs, err := c.index.Index(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var matches []Match
	for _, p := range pkgs {
		slug, ok := repoSlug(p)
		if !ok {
			continue
		}
		if q != "" && !strings.Contains(haystack(p, slug), q) {
			continue
		}
		matches = append(matches, Match{
			Name:        p.Name,
			Author:      p.Author,
			Description: p.Description,
			Slug:        slug,
			Tags:        p.Tags,
		})
		if len(matches) == searchLimit {
			break
		}
	}
	return matches, nil
}

// ListVersions treats name as a GitHub owner/repo slug and returns the
// repository's tag names in upstream order. Repositories without tags are a
// common, valid state: the default branch name is returned instead, or
// "main" when that lookup also fails.
func (c *Client) ListVersions(ctx context.Context, name string) ([]string, error) {
	slug, ok := github.ParseRepoSlug(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidSlug, "zig package %q is not a github owner/repo slug", name)
	}

	tags, err := c.gh.Tags(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		return tags, nil
	}

	branch, err := c.gh.DefaultBranch(ctx, slug)
	if err != nil || branch == "" {
		return []string{"main"}, nil
	}
	return []string{branch}, nil
}

func repoSlug(p Package) (string, bool) {
	for _, raw := range []string{p.Git, p.Links.GitHub} {
		if raw == "" {
			continue
		}
		if slug, ok := github.ParseRepoSlug(raw); ok {
			return slug.String(), true
		}
	}
	return "", false
}

func haystack(p Package, slug string) string {
	parts := []string{p.Name, p.Author, p.Description, slug}
	parts = append(parts, p.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}
