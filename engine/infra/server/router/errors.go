package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/gitacompanion/companion/engine/core"
	"github.com/gitacompanion/companion/engine/guidance"
	"github.com/gitacompanion/companion/engine/llm/orchestrator"
)

// Problem codes
const (
	ErrInvalidInputCode       = "invalid_input"
	ErrNoGroundingCode        = "no_grounding"
	ErrNotFoundCode           = "not_found"
	ErrAllBackendsFailedCode  = "all_backends_failed"
	ErrUnauthorizedCode       = "unauthorized"
	ErrRequestTimeoutCode     = "request_timeout"
	ErrServiceUnavailableCode = "service_unavailable"
	ErrInternalCode           = "internal_error"
)

// ProblemFromError maps service errors onto problem documents. Unknown errors
// become a 500 without leaking their text.
func ProblemFromError(err error) *core.Problem {
	switch {
	case errors.Is(err, guidance.ErrInvalidQuery):
		return core.NewProblem(http.StatusBadRequest, ErrInvalidInputCode, err.Error())
	case errors.Is(err, guidance.ErrNoGrounding):
		return core.NewProblem(http.StatusNotFound, ErrNoGroundingCode, "No verses found")
	case errors.Is(err, guidance.ErrVerseNotFound):
		return core.NewProblem(http.StatusNotFound, ErrNotFoundCode, "Verse not found")
	case errors.Is(err, guidance.ErrEmptyCatalog):
		return core.NewProblem(http.StatusNotFound, ErrNotFoundCode, "No verses seeded yet")
	case errors.Is(err, guidance.ErrFavoritesUnavailable):
		return core.NewProblem(http.StatusServiceUnavailable, ErrServiceUnavailableCode, "Favorites are not available")
	case errors.Is(err, orchestrator.ErrAllBackendsFailed), errors.Is(err, orchestrator.ErrNoBackends):
		return core.NewProblem(http.StatusServiceUnavailable, ErrAllBackendsFailedCode,
			"No language model backend could answer right now")
	case errors.Is(err, context.DeadlineExceeded):
		return core.NewProblem(http.StatusGatewayTimeout, ErrRequestTimeoutCode, "request timed out")
	default:
		return core.NewProblem(http.StatusInternalServerError, ErrInternalCode, "internal server error")
	}
}
