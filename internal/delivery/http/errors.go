package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/delivery/http/middleware"
	"github.com/Harsh-BH/sentinel-judge/internal/domain"
)

// writeError maps domain errors onto HTTP status codes. Unknown errors are logged and
// reported as 500 without leaking details.
func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	status := http.StatusInternalServerError
	msg := "Internal server error"

	switch {
	case errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrEmptySourceCode),
		errors.Is(err, domain.ErrInvalidLanguage),
		errors.Is(err, domain.ErrNoTestCases):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrProblemNotFound),
		errors.Is(err, domain.ErrContestNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrNotRegistered),
		errors.Is(err, domain.ErrLanguageNotAllowed):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrContestNotActive):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrPayloadTooLarge):
		status, msg = http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, domain.ErrToolchainUnavailable):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, domain.ErrPublishFailed):
		status, msg = http.StatusServiceUnavailable, "Service temporarily unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusRequestTimeout, "Request cancelled before execution started"
	default:
		logger.Error(op+" failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}

	c.JSON(status, gin.H{"error": msg})
}
