package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/integrations"
)

// Client provides access to the GitHub API for repository tag and branch
// metadata. It handles HTTP requests with caching and automatic retries.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client with the given cache backend.
// Requests are unauthenticated; GitHub's anonymous rate limits apply and
// exhausting them surfaces as a network error.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	return &Client{
		Client:  integrations.NewClient(backend, "github:", cacheTTL, headers),
		baseURL: "https://api.github.com",
	}
}

// WithBaseURL overrides the API endpoint, e.g. for GitHub Enterprise or
// tests. It returns the client for chaining.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// Tags retrieves up to 100 tag names for a repository, in the API's order
// (most recently created first). An empty slice means the repository has no
// tags, which is a valid state, not an error.
func (c *Client) Tags(ctx context.Context, slug RepoSlug) ([]string, error) {
	key := "tags:" + slug.String()

	var names []string
	err := c.Cached(ctx, key, false, &names, func() error {
		return c.fetchTags(ctx, slug, &names)
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (c *Client) fetchTags(ctx context.Context, slug RepoSlug, names *[]string) error {
	var data []tagResponse
	url := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=100", c.baseURL, slug.Owner, slug.Repo)
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: github repo %s", err, slug)
		}
		return err
	}

	*names = make([]string, 0, len(data))
	for _, tag := range data {
		*names = append(*names, tag.Name)
	}
	return nil
}

// DefaultBranch retrieves the repository's default branch name.
func (c *Client) DefaultBranch(ctx context.Context, slug RepoSlug) (string, error) {
	key := "branch:" + slug.String()

	var branch string
	err := c.Cached(ctx, key, false, &branch, func() error {
		var data repoResponse
		url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, slug.Owner, slug.Repo)
		if err := c.Get(ctx, url, &data); err != nil {
			return err
		}
		branch = data.DefaultBranch
		return nil
	})
	if err != nil {
		return "", err
	}
	return branch, nil
}

type tagResponse struct {
	Name string `json:"name"`
}

type repoResponse struct {
	DefaultBranch string `json:"default_branch"`
}
