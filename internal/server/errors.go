package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"captionmux/internal/intake"
	"captionmux/internal/logging"
	"captionmux/internal/services"
)

func statusFor(err error) int {
	var validation *intake.ValidationError
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &validation):
		switch validation.Reason {
		case intake.ReasonTooLarge:
			return http.StatusRequestEntityTooLarge
		case intake.ReasonNotVideo:
			return http.StatusUnsupportedMediaType
		}
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrNotReady):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, services.ErrConfiguration), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.WarnWithContext(s.logger, "api request failed", "api_request_failed",
			logging.String("path", c.FullPath()),
			logging.Int("status", status),
			logging.Error(err),
			logging.String(logging.FieldImpact, "request was not applied"),
			logging.String(logging.FieldErrorHint, "see preceding log entries for the cause"),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
