package diff

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/philfreshman/diffpack/pkg/archive"
	"github.com/philfreshman/diffpack/pkg/errors"
	"github.com/philfreshman/diffpack/pkg/registry"
)

type fakeFetcher struct {
	calls    atomic.Int64
	delay    time.Duration
	versions map[string]archive.FileMap
	err      error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ registry.Kind, _ string, version string) (archive.FileMap, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.versions[version], nil
}

func TestServicePrefetchMemoizes(t *testing.T) {
	fetcher := &fakeFetcher{versions: map[string]archive.FileMap{
		"1.0.0": fm(map[string]string{"a.txt": "a\n"}),
	}}
	svc := NewService(fetcher, 0.5)

	for i := 0; i < 3; i++ {
		if err := svc.Prefetch(context.Background(), registry.Npm, "left-pad", "1.0.0"); err != nil {
			t.Fatalf("Prefetch() error = %v", err)
		}
	}

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestServiceCoalescesConcurrentFetches(t *testing.T) {
	fetcher := &fakeFetcher{
		delay: 50 * time.Millisecond,
		versions: map[string]archive.FileMap{
			"1.0.0": fm(map[string]string{"a.txt": "a\n"}),
		},
	}
	svc := NewService(fetcher, 0.5)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Prefetch(context.Background(), registry.Npm, "left-pad", "1.0.0"); err != nil {
				t.Errorf("Prefetch() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1 coalesced fetch", got)
	}
}

func TestServiceTree(t *testing.T) {
	fetcher := &fakeFetcher{versions: map[string]archive.FileMap{
		"1.0.0": fm(map[string]string{"keep.txt": "x\n", "gone.txt": "y\n"}),
		"2.0.0": fm(map[string]string{"keep.txt": "x\n", "new.txt": "z\n"}),
	}}
	svc := NewService(fetcher, 0.5)

	root, err := svc.Tree(context.Background(), registry.Npm, "left-pad", "1.0.0", "2.0.0")
	if err != nil {
		t.Fatalf("Tree() error = %v", err)
	}

	if node := findNode(t, root, "new.txt"); node.Status != StatusAdded {
		t.Errorf("new.txt status = %v, want added", node.Status)
	}
	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2 (one per version)", got)
	}
}

func TestServiceFileWithoutActivePair(t *testing.T) {
	svc := NewService(&fakeFetcher{}, 0.5)

	_, err := svc.File("a.txt", "")
	if errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("File() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
	}
}

func TestServiceFile(t *testing.T) {
	fetcher := &fakeFetcher{versions: map[string]archive.FileMap{
		"1.0.0": fm(map[string]string{"same.txt": "s\n", "old/name.txt": "content\n"}),
		"2.0.0": fm(map[string]string{"same.txt": "s\n", "new/name.txt": "content\n", "added.txt": "fresh\n"}),
	}}
	svc := NewService(fetcher, 0.5)

	if _, err := svc.Tree(context.Background(), registry.Npm, "left-pad", "1.0.0", "2.0.0"); err != nil {
		t.Fatalf("Tree() error = %v", err)
	}

	t.Run("unchanged file", func(t *testing.T) {
		got, err := svc.File("same.txt", "")
		if err != nil {
			t.Fatalf("File() error = %v", err)
		}
		if got.IsDiff || got.Data != "s\n" {
			t.Errorf("File() = %+v, want raw content", got)
		}
	})

	t.Run("renamed file resolves old path", func(t *testing.T) {
		got, err := svc.File("new/name.txt", "old/name.txt")
		if err != nil {
			t.Fatalf("File() error = %v", err)
		}
		if got.IsDiff || got.Data != "content\n" {
			t.Errorf("File() = %+v, want raw content for identical rename", got)
		}
	})

	t.Run("added file", func(t *testing.T) {
		got, err := svc.File("added.txt", "")
		if err != nil {
			t.Fatalf("File() error = %v", err)
		}
		if !got.IsDiff {
			t.Error("added file should render as diff")
		}
		if want := "--- /dev/null\n+++ to/added.txt\n+ fresh\n+ "; got.Data != want {
			t.Errorf("File() data = %q, want %q", got.Data, want)
		}
	})
}

func TestServiceDefaultThreshold(t *testing.T) {
	svc := NewService(&fakeFetcher{}, 0)
	if svc.threshold != DefaultSimilarityThreshold {
		t.Errorf("threshold = %v, want %v", svc.threshold, DefaultSimilarityThreshold)
	}
}
