package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mvartia/marquee/internal/domain/queue"
	"github.com/mvartia/marquee/internal/domain/quota"
	"github.com/mvartia/marquee/internal/domain/slide"
)

// APIError is the caller-facing error envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MapError maps a domain error to its caller-facing code and HTTP status.
// Lock precondition failures map to 424 Failed Dependency, distinct from
// authorization failures; acquire/release conflicts map to 423 Locked.
func MapError(err error) (int, APIError) {
	switch {
	case errors.Is(err, slide.ErrNotAuthorized), errors.Is(err, queue.ErrNotAuthorized):
		return http.StatusUnauthorized, APIError{Code: "NOT_AUTHORIZED", Message: "caller not authorized for this operation"}
	case errors.Is(err, slide.ErrNotLocked):
		return http.StatusFailedDependency, APIError{Code: "NOT_LOCKED", Message: "slide not locked"}
	case errors.Is(err, slide.ErrLockedByOther):
		return http.StatusFailedDependency, APIError{Code: "LOCKED_BY_OTHER", Message: "slide locked by another session"}
	case errors.Is(err, slide.ErrLockConflict):
		return http.StatusLocked, APIError{Code: "LOCK_CONFLICT", Message: "slide lock held by another session"}
	case errors.Is(err, quota.ErrExceeded):
		return http.StatusForbidden, APIError{Code: "QUOTA_EXCEEDED", Message: "slide quota exceeded"}
	case errors.Is(err, slide.ErrSlideNotFound):
		return http.StatusNotFound, APIError{Code: "SLIDE_NOT_FOUND", Message: "slide not found"}
	case errors.Is(err, queue.ErrQueueNotFound):
		return http.StatusNotFound, APIError{Code: "QUEUE_NOT_FOUND", Message: "queue not found"}
	case errors.Is(err, quota.ErrQuotaNotFound):
		return http.StatusNotFound, APIError{Code: "QUOTA_NOT_FOUND", Message: "quota not found"}
	case errors.Is(err, slide.ErrInvalidSchedule):
		return http.StatusBadRequest, APIError{Code: "INVALID_SCHEDULE", Message: "schedule window inconsistent with slide flags"}
	case errors.Is(err, slide.ErrInvalidInput):
		return http.StatusBadRequest, APIError{Code: "INVALID_INPUT", Message: "invalid request payload"}
	default:
		return http.StatusInternalServerError, APIError{Code: "STORAGE_ERROR", Message: "internal error"}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, apiErr := MapError(err)
	writeJSON(w, status, map[string]APIError{"error": apiErr})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
