package api

import (
	"encoding/json"
	"net/http"

	"github.com/philfreshman/diffpack/pkg/errors"
	"github.com/philfreshman/diffpack/pkg/registry"
)

// Response models.

// SearchResponse wraps search results.
type SearchResponse struct {
	Registry string                  `json:"registry"`
	Results  []registry.SearchResult `json:"results"`
	Total    int                     `json:"total"`
}

// VersionsResponse wraps a version list.
type VersionsResponse struct {
	Registry string   `json:"registry"`
	Package  string   `json:"package"`
	Versions []string `json:"versions"`
}

// TreeRequest is the body of POST /api/diff/tree.
type TreeRequest struct {
	Registry string `json:"registry,omitempty"`
	Package  string `json:"package"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// search handles GET /api/search?q=...
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	sel := s.selector(r)
	kind := sel.Active()
	results, err := s.registry.Select(sel).Search(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, SearchResponse{
		Registry: string(kind),
		Results:  results,
		Total:    len(results),
	})
}

// versions handles GET /api/versions?pkg=...
func (s *Server) versions(w http.ResponseWriter, r *http.Request) {
	pkg := r.URL.Query().Get("pkg")
	if pkg == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "pkg parameter is required"))
		return
	}

	sel := s.selector(r)
	kind := sel.Active()
	versions, err := s.registry.Select(sel).ListVersions(r.Context(), pkg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, VersionsResponse{
		Registry: string(kind),
		Package:  pkg,
		Versions: versions,
	})
}

// diffTree handles POST /api/diff/tree.
func (s *Server) diffTree(w http.ResponseWriter, r *http.Request) {
	var req TreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if req.Package == "" || req.From == "" || req.To == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "package, from, and to are required"))
		return
	}

	kind := s.selector(r).Active()
	if req.Registry != "" {
		kind = registry.KindOf(req.Registry)
	}

	tree, err := s.diffs.Tree(r.Context(), kind, req.Package, req.From, req.To)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, tree)
}

// diffFile handles GET /api/diff/file?path=...&oldPath=...
func (s *Server) diffFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "path parameter is required"))
		return
	}

	fileDiff, err := s.diffs.File(path, r.URL.Query().Get("oldPath"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, fileDiff)
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFromCode(code, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", requestID(r.Context()),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := ErrorResponse{Error: errors.UserMessage(err), Code: string(code)}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		s.logger.Error("encode error response", "error", encodeErr)
	}
}
