package handler

import (
	"errors"

	"github.com/matesxs/deeptown-event-tracker/internal/model"
	"github.com/matesxs/deeptown-event-tracker/internal/service"
	"github.com/matesxs/deeptown-event-tracker/internal/upstream"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	switch {
	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrGuildNotFound):
		return model.NewNotFoundError("guild")
	case errors.Is(err, service.ErrPlayerNotFound):
		return model.NewNotFoundError("player")
	case errors.Is(err, service.ErrSyncRunNotFound):
		return model.NewNotFoundError("sync run")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrSyncAlreadyRunning):
		return model.NewConflictError(err.Error())

	// ===== Validation Errors → 400 =====
	case errors.Is(err, service.ErrInvalidImportRow),
		errors.Is(err, service.ErrNoEventWeek),
		errors.Is(err, service.ErrInvalidBlacklistKind):
		return model.NewBadRequestError(err.Error())

	// ===== Upstream Errors → 502 =====
	case errors.Is(err, upstream.ErrUnavailable),
		errors.Is(err, upstream.ErrNotFound):
		return model.NewUpstreamError(err.Error())

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}
