package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"daily-tracker/internal/service"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrCompletionNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrDueDateRequired),
		errors.Is(err, service.ErrInvalidRecurrence),
		errors.Is(err, service.ErrInvalidTimezone),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrCategoryNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error body. Internal errors are logged and not echoed back.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Errorw("request failed", "request_id", c.GetString(requestIDKey), "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
