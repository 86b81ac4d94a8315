package diff

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/philfreshman/diffpack/pkg/archive"
	"github.com/philfreshman/diffpack/pkg/errors"
	"github.com/philfreshman/diffpack/pkg/registry"
)

// Fetcher downloads and extracts one package version.
// *archive.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, kind registry.Kind, pkg, version string) (archive.FileMap, error)
}

// DefaultSimilarityThreshold is the rename-detection threshold used
// when the caller does not supply one.
const DefaultSimilarityThreshold = 0.5

type activePair struct {
	fromKey string
	toKey   string
}

// Service coordinates tarball extraction and diffing. Extractions are
// memoized for the process lifetime (package contents are immutable per
// version) and concurrent requests for the same version share a single
// fetch. File-level diffs are served against the most recently built
// tree's version pair.
type Service struct {
	fetcher   Fetcher
	threshold float64

	group singleflight.Group

	mu          sync.RWMutex
	extractions map[string]archive.FileMap
	active      *activePair
}

// NewService creates a Service. A non-positive threshold falls back to
// [DefaultSimilarityThreshold].
func NewService(fetcher Fetcher, threshold float64) *Service {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Service{
		fetcher:     fetcher,
		threshold:   threshold,
		extractions: make(map[string]archive.FileMap),
	}
}

func extractionKey(kind registry.Kind, pkg, version string) string {
	return fmt.Sprintf("%s:%s:%s", kind, pkg, version)
}

// Prefetch warms the extraction cache for one package version.
func (s *Service) Prefetch(ctx context.Context, kind registry.Kind, pkg, version string) error {
	_, err := s.files(ctx, kind, pkg, version)
	return err
}

// Tree fetches both versions and builds their diff tree. The pair
// becomes the active context for subsequent [Service.File] calls.
func (s *Service) Tree(ctx context.Context, kind registry.Kind, pkg, from, to string) (*Entry, error) {
	fromFiles, err := s.files(ctx, kind, pkg, from)
	if err != nil {
		return nil, err
	}
	toFiles, err := s.files(ctx, kind, pkg, to)
	if err != nil {
		return nil, err
	}

	tree := BuildTree(fromFiles, toFiles, s.threshold)

	s.mu.Lock()
	s.active = &activePair{
		fromKey: extractionKey(kind, pkg, from),
		toKey:   extractionKey(kind, pkg, to),
	}
	s.mu.Unlock()

	return tree, nil
}

// File renders the diff for one file of the active pair. oldPath names
// the file's previous path when the tree reported a rename; empty means
// the path is unchanged.
func (s *Service) File(filename, oldPath string) (FileDiff, error) {
	s.mu.RLock()
	active := s.active
	var fromFiles, toFiles archive.FileMap
	if active != nil {
		fromFiles = s.extractions[active.fromKey]
		toFiles = s.extractions[active.toKey]
	}
	s.mu.RUnlock()

	if active == nil {
		return FileDiff{}, errors.New(errors.ErrCodeInvalidInput, "no active diff context")
	}

	fromPath := filename
	if oldPath != "" {
		fromPath = oldPath
	}

	var from, to *string
	if content, ok := fileContent(fromFiles, fromPath); ok {
		from = &content
	}
	if content, ok := fileContent(toFiles, filename); ok {
		to = &content
	}

	return BuildFileDiff(filename, from, to), nil
}

// files returns the memoized extraction for one version, fetching it
// once even under concurrent callers.
func (s *Service) files(ctx context.Context, kind registry.Kind, pkg, version string) (archive.FileMap, error) {
	key := extractionKey(kind, pkg, version)

	s.mu.RLock()
	cached, ok := s.extractions[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.RLock()
		cached, ok := s.extractions[key]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}

		files, err := s.fetcher.Fetch(ctx, kind, pkg, version)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.extractions[key] = files
		s.mu.Unlock()
		return files, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(archive.FileMap), nil
}
