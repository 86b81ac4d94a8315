package zig

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/errors"
	"github.com/philfreshman/diffpack/pkg/integrations/github"
)

const indexBody = `[
	{"author":"karlseguin","name":"http.zig","description":"An HTTP/1.1 server for zig","tags":["http","server"],"git":"https://github.com/karlseguin/http.zig"},
	{"author":"mitchellh","name":"libxev","description":"Cross-platform event loop","links":{"github":"https://github.com/mitchellh/libxev"}},
	{"author":"ghost","name":"no-home","description":"An http client without a repository link"},
	{"author":"elsewhere","name":"gitlab-only","description":"Hosted on another forge","git":"https://gitlab.com/elsewhere/gitlab-only"}
]`

func testSearchClient(t *testing.T, indexJSON string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexJSON)
	}))
	t.Cleanup(server.Close)

	return &Client{
		index: testIndexCache(server.URL),
		gh:    github.NewClient(cache.NewNullCache(), time.Hour),
	}
}

func TestClient_Search_CaseInsensitive(t *testing.T) {
	c := testSearchClient(t, indexBody)

	// "HTTP" must match a description containing "http client".
	matches, err := c.Search(context.Background(), "HTTP")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(matches), matches)
	}
	if matches[0].Name != "http.zig" {
		t.Errorf("expected http.zig, got %s", matches[0].Name)
	}
}

func TestClient_Search_ExcludesUnparsableSlugs(t *testing.T) {
	c := testSearchClient(t, indexBody)

	// Both excluded entries mention "http"/"client" in their descriptions;
	// a missing or non-GitHub link still disqualifies them.
	matches, err := c.Search(context.Background(), "client")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, m := range matches {
		if m.Name == "no-home" || m.Name == "gitlab-only" {
			t.Errorf("entry without a parsable github slug must be excluded: %s", m.Name)
		}
	}
}

func TestClient_Search_EmptyQueryMatchesAll(t *testing.T) {
	c := testSearchClient(t, indexBody)

	matches, err := c.Search(context.Background(), "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	// Two entries have parsable slugs.
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches for empty query, got %d", len(matches))
	}
	if matches[0].Slug != "karlseguin/http.zig" {
		t.Errorf("expected index order preserved, got %s first", matches[0].Slug)
	}
}

func TestClient_Search_Cap(t *testing.T) {
	var entries []Package
	for i := 0; i < 25; i++ {
		entries = append(entries, Package{
			Author: "owner",
			Name:   fmt.Sprintf("pkg-%d", i),
			Git:    fmt.Sprintf("https://github.com/owner/pkg-%d", i),
		})
	}
	body, _ := json.Marshal(entries)

	c := testSearchClient(t, string(body))

	matches, err := c.Search(context.Background(), "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != searchLimit {
		t.Errorf("expected results capped at %d, got %d", searchLimit, len(matches))
	}
}

func TestClient_Search_MatchesTags(t *testing.T) {
	c := testSearchClient(t, indexBody)

	matches, err := c.Search(context.Background(), "server")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Name != "http.zig" {
		t.Errorf("expected tag match on http.zig, got %+v", matches)
	}
}

func TestClient_ListVersions_InvalidSlug(t *testing.T) {
	c := &Client{index: NewIndexCache(), gh: github.NewClient(cache.NewNullCache(), time.Hour)}

	_, err := c.ListVersions(context.Background(), "not-a-slug")
	if err == nil {
		t.Fatal("expected error for unparsable slug")
	}
	if !errors.Is(err, errors.ErrCodeInvalidSlug) {
		t.Errorf("expected INVALID_SLUG code, got %v", err)
	}
}

func TestClient_ListVersions_Tags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/ziglang/zig/tags" {
			fmt.Fprint(w, `[{"name":"0.12.0"},{"name":"0.11.0"}]`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := &Client{
		index: NewIndexCache(),
		gh:    github.NewClient(cache.NewNullCache(), time.Hour).WithBaseURL(server.URL),
	}

	versions, err := c.ListVersions(context.Background(), "ziglang/zig")
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	want := []string{"0.12.0", "0.11.0"}
	if len(versions) != len(want) {
		t.Fatalf("expected %d versions, got %d", len(want), len(versions))
	}
	for i, v := range versions {
		if v != want[i] {
			t.Errorf("versions[%d] = %q, want %q", i, v, want[i])
		}
	}
}

func TestClient_ListVersions_DefaultBranchFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/tags":
			fmt.Fprint(w, `[]`)
		case "/repos/owner/repo":
			fmt.Fprint(w, `{"default_branch":"develop"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := &Client{
		index: NewIndexCache(),
		gh:    github.NewClient(cache.NewNullCache(), time.Hour).WithBaseURL(server.URL),
	}

	versions, err := c.ListVersions(context.Background(), "owner/repo")
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != 1 || versions[0] != "develop" {
		t.Errorf("expected [develop], got %v", versions)
	}
}

func TestClient_ListVersions_MainFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/tags":
			fmt.Fprint(w, `[]`)
		default:
			// Repo metadata fetch fails; "no tags" already succeeded.
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := &Client{
		index: NewIndexCache(),
		gh:    github.NewClient(cache.NewNullCache(), time.Hour).WithBaseURL(server.URL),
	}

	versions, err := c.ListVersions(context.Background(), "owner/repo")
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(versions) != 1 || versions[0] != "main" {
		t.Errorf("expected [main], got %v", versions)
	}
}
