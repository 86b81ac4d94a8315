package crates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/integrations"
)

const searchLimit = 10

// Crate holds the metadata the crates.io search endpoint reports per crate.
// MaxVersion is the latest stable or highest published version.
type Crate struct {
	Name        string
	Description string
	MaxVersion  string
}

// Client provides access to the crates.io package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client with the given cache backend.
// The client includes a User-Agent header as required by crates.io API policy.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"User-Agent": "diffpack/1.0 (https://github.com/philfreshman/diffpack)",
	}
	return &Client{
		Client:  integrations.NewClient(backend, "crates:", cacheTTL, headers),
		baseURL: "https://crates.io/api/v1",
	}
}

// Search queries crates.io, capped at 10 results in the registry's
// relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]Crate, error) {
	key := "search:" + query

	var results []Crate
	err := c.Cached(ctx, key, false, &results, func() error {
		return c.search(ctx, query, &results)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) search(ctx context.Context, query string, results *[]Crate) error {
	var data searchResponse
	url := fmt.Sprintf("%s/crates?q=%s&per_page=%d", c.baseURL, integrations.URLEncode(query), searchLimit)
	if err := c.Get(ctx, url, &data); err != nil {
		return err
	}

	*results = make([]Crate, 0, len(data.Crates))
	for _, cr := range data.Crates {
		*results = append(*results, Crate{
			Name:        cr.Name,
			Description: cr.Description,
			MaxVersion:  cr.MaxVersion,
		})
	}
	return nil
}

// ListVersions fetches the crate's version list. Upstream order is preserved
// as-is: the crates.io API documents newest-first and this client does not
// re-sort, so a change in upstream behavior would propagate to callers.
func (c *Client) ListVersions(ctx context.Context, crate string) ([]string, error) {
	key := "versions:" + crate

	var versions []string
	err := c.Cached(ctx, key, false, &versions, func() error {
		return c.fetchVersions(ctx, crate, &versions)
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (c *Client) fetchVersions(ctx context.Context, crate string, versions *[]string) error {
	var data versionsResponse
	url := fmt.Sprintf("%s/crates/%s/versions", c.baseURL, crate)
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: crate %s", err, crate)
		}
		return err
	}

	*versions = make([]string, 0, len(data.Versions))
	for _, v := range data.Versions {
		*versions = append(*versions, v.Num)
	}
	return nil
}

type searchResponse struct {
	Crates []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		MaxVersion  string `json:"max_version"`
	} `json:"crates"`
}

type versionsResponse struct {
	Versions []struct {
		Num string `json:"num"`
	} `json:"versions"`
}
