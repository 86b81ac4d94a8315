package npm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/integrations"
)

const searchLimit = 10

// Result holds the metadata the npm search endpoint reports per package.
type Result struct {
	Name        string
	Description string
	Version     string
}

// Client provides access to the npm registry API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an npm registry client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "npm:", cacheTTL, nil),
		baseURL: "https://registry.npmjs.org",
	}
}

// Search queries the npm search endpoint, capped at 10 results in the
// registry's relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	key := "search:" + query

	var results []Result
	err := c.Cached(ctx, key, false, &results, func() error {
		return c.search(ctx, query, &results)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) search(ctx context.Context, query string, results *[]Result) error {
	var data searchResponse
	url := fmt.Sprintf("%s/-/v1/search?text=%s&size=%d", c.baseURL, integrations.URLEncode(query), searchLimit)
	if err := c.Get(ctx, url, &data); err != nil {
		return err
	}

	*results = make([]Result, 0, len(data.Objects))
	for _, obj := range data.Objects {
		*results = append(*results, Result{
			Name:        obj.Package.Name,
			Description: obj.Package.Description,
			Version:     obj.Package.Version,
		})
	}
	return nil
}

// ListVersions fetches the package's full metadata document and returns its
// version keys newest-first. The order is upstream publish order reversed,
// not a semantic-version sort; npm appends newly published versions to the
// end of the document.
func (c *Client) ListVersions(ctx context.Context, pkg string) ([]string, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))
	key := "versions:" + pkg

	var versions []string
	err := c.Cached(ctx, key, false, &versions, func() error {
		return c.fetchVersions(ctx, pkg, &versions)
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (c *Client) fetchVersions(ctx context.Context, pkg string, versions *[]string) error {
	body, err := c.GetBytes(ctx, c.baseURL+"/"+pkg)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return err
	}

	keys, err := versionKeys(body)
	if err != nil {
		return fmt.Errorf("%w: %v", integrations.ErrDecode, err)
	}

	slices.Reverse(keys)
	*versions = keys
	return nil
}

// versionKeys extracts the keys of the top-level "versions" object in
// document order. encoding/json maps discard ordering, so the document is
// walked token by token instead.
func versionKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("packument is not an object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if key != "versions" {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}

		open, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := open.(json.Delim); !ok || d != '{' {
			return nil, fmt.Errorf("versions field is not an object")
		}

		var keys []string
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			k, _ := kt.(string)
			keys = append(keys, k)
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
		return keys, nil
	}
	return nil, nil
}

// skipValue consumes the next JSON value, tracking nesting depth for
// objects and arrays.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); ok && (d == '{' || d == '[') {
		depth := 1
		for depth > 0 {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			if d, ok := tok.(json.Delim); ok {
				switch d {
				case '{', '[':
					depth++
				case '}', ']':
					depth--
				}
			}
		}
	}
	return nil
}

type searchResponse struct {
	Objects []struct {
		Package struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Version     string `json:"version"`
		} `json:"package"`
	} `json:"objects"`
}
