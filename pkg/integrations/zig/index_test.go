package zig

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/philfreshman/diffpack/pkg/cache"
	"github.com/philfreshman/diffpack/pkg/integrations"
)

func testIndexCache(serverURL string) *IndexCache {
	return &IndexCache{
		client:  integrations.NewClient(cache.NewNullCache(), "zig:", 0, nil),
		baseURL: serverURL,
	}
}

func TestIndexCache_Index(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/packages" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `[
			{"author":"karlseguin","name":"http.zig","description":"An HTTP/1.1 server","git":"https://github.com/karlseguin/http.zig"},
			{"author":"mitchellh","name":"libxev","links":{"github":"https://github.com/mitchellh/libxev"}}
		]`)
	}))
	defer server.Close()

	ic := testIndexCache(server.URL)

	pkgs, err := ic.Index(context.Background())
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(pkgs))
	}
	if pkgs[0].Name != "http.zig" || pkgs[0].Author != "karlseguin" {
		t.Errorf("unexpected first package: %+v", pkgs[0])
	}
	if pkgs[1].Links.GitHub != "https://github.com/mitchellh/libxev" {
		t.Errorf("unexpected links: %+v", pkgs[1].Links)
	}
	if !ic.Loaded() {
		t.Error("cache should be loaded after a successful fetch")
	}
}

func TestIndexCache_SingleFetch(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		time.Sleep(50 * time.Millisecond) // widen the coalescing window
		fmt.Fprint(w, `[{"author":"a","name":"one","git":"https://github.com/a/one"}]`)
	}))
	defer server.Close()

	ic := testIndexCache(server.URL)

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	results := make([][]Package, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = ic.Index(context.Background())
		}(i)
	}
	wg.Wait()

	if got := requests.Load(); got != 1 {
		t.Errorf("expected exactly 1 upstream fetch, got %d", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if len(results[i]) != 1 || results[i][0].Name != "one" {
			t.Errorf("caller %d got unexpected result: %+v", i, results[i])
		}
	}

	// Later calls hit memory, not the server.
	if _, err := ic.Index(context.Background()); err != nil {
		t.Fatalf("cached Index failed: %v", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("cached call should not refetch, got %d requests", got)
	}
}

func TestIndexCache_RetryAfterFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[{"author":"a","name":"one","git":"https://github.com/a/one"}]`)
	}))
	defer server.Close()

	ic := testIndexCache(server.URL)

	if _, err := ic.Index(context.Background()); err == nil {
		t.Fatal("expected error while upstream is failing")
	}
	if ic.Loaded() {
		t.Error("failed fetch must not populate the cache")
	}

	fail.Store(false)

	pkgs, err := ic.Index(context.Background())
	if err != nil {
		t.Fatalf("retry after failure should succeed: %v", err)
	}
	if len(pkgs) != 1 {
		t.Errorf("expected 1 package after retry, got %d", len(pkgs))
	}
}
