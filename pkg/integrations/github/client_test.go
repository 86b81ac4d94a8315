package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/integrations"
)

func testClient(serverURL string) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	return &Client{
		Client:  integrations.NewClient(cache.NewNullCache(), "github:", time.Hour, headers),
		baseURL: serverURL,
	}
}

func TestClient_Tags(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/ziglang/zig/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("expected per_page=100, got %s", got)
		}
		json.NewEncoder(w).Encode([]tagResponse{
			{Name: "0.12.0"},
			{Name: "0.11.0"},
			{Name: "0.10.1"},
		})
	}))
	defer server.Close()

	c := testClient(server.URL)

	tags, err := c.Tags(context.Background(), RepoSlug{"ziglang", "zig"})
	if err != nil {
		t.Fatalf("Tags failed: %v", err)
	}
	want := []string{"0.12.0", "0.11.0", "0.10.1"}
	if len(tags) != len(want) {
		t.Fatalf("expected %d tags, got %d", len(want), len(tags))
	}
	for i, tag := range tags {
		if tag != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, tag, want[i])
		}
	}
}

func TestClient_Tags_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]tagResponse{})
	}))
	defer server.Close()

	c := testClient(server.URL)

	tags, err := c.Tags(context.Background(), RepoSlug{"owner", "untagged"})
	if err != nil {
		t.Fatalf("Tags failed: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("expected no tags, got %v", tags)
	}
}

func TestClient_Tags_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(server.URL)

	_, err := c.Tags(context.Background(), RepoSlug{"owner", "missing"})
	if err == nil {
		t.Fatal("expected error for missing repo")
	}
}

func TestClient_DefaultBranch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(repoResponse{DefaultBranch: "develop"})
	}))
	defer server.Close()

	c := testClient(server.URL)

	branch, err := c.DefaultBranch(context.Background(), RepoSlug{"owner", "repo"})
	if err != nil {
		t.Fatalf("DefaultBranch failed: %v", err)
	}
	if branch != "develop" {
		t.Errorf("expected develop, got %s", branch)
	}
}
