// Package api implements the HTTP API for package search, version
// listing, and package diffing.
package api

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/philfreshman/diffpack/pkg/diff"
	"github.com/philfreshman/diffpack/pkg/registry"
)

// RegistryHeader carries the per-request registry selection signal.
// The "registry" query parameter takes precedence over it.
const RegistryHeader = "X-Registry"

// Resolver resolves the adapter for a registry selection.
// *registry.Registry satisfies it.
type Resolver interface {
	Select(sel *registry.Selector) registry.Adapter
}

// Differ serves diff trees and per-file diffs. *diff.Service satisfies
// it.
type Differ interface {
	Tree(ctx context.Context, kind registry.Kind, pkg, from, to string) (*diff.Entry, error)
	File(filename, oldPath string) (diff.FileDiff, error)
}

// Server holds the API's dependencies.
type Server struct {
	registry    Resolver
	diffs       Differ
	defaultKind registry.Kind
	logger      *log.Logger
}

// NewServer creates an API server. A nil logger falls back to the
// default charmbracelet logger.
func NewServer(reg Resolver, diffs Differ, defaultKind registry.Kind, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		registry:    reg,
		diffs:       diffs,
		defaultKind: defaultKind,
		logger:      logger,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.search)
		r.Get("/versions", s.versions)
		r.Route("/diff", func(r chi.Router) {
			r.Post("/tree", s.diffTree)
			r.Get("/file", s.diffFile)
		})
	})

	return r
}

// selector builds the registry selector for one request. The query
// parameter wins over the header; both fall back to the configured
// default.
func (s *Server) selector(r *http.Request) *registry.Selector {
	return registry.NewSelector(func() string {
		if q := r.URL.Query().Get("registry"); q != "" {
			return q
		}
		if h := r.Header.Get(RegistryHeader); h != "" {
			return h
		}
		return string(s.defaultKind)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
