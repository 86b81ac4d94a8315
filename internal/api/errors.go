package api

import (
	stderrors "errors"
	"net/http"

	"github.com/philfreshman/diffpack/pkg/errors"
	"github.com/philfreshman/diffpack/pkg/integrations"
)

// statusFromCode maps error codes to HTTP status codes. Upstream
// failures surface as 502 since this server is acting as a gateway.
func statusFromCode(code errors.Code, err error) int {
	switch code {
	case errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidRegistry,
		errors.ErrCodeInvalidPackage,
		errors.ErrCodeInvalidSlug,
		errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound,
		errors.ErrCodePackageNotFound,
		errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNetwork, errors.ErrCodeParse:
		return http.StatusBadGateway
	case errors.ErrCodeInternal:
		return http.StatusInternalServerError
	}

	// Sentinel errors from the upstream clients carry no code.
	switch {
	case stderrors.Is(err, integrations.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, integrations.ErrNetwork):
		return http.StatusBadGateway
	case stderrors.Is(err, integrations.ErrDecode):
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
