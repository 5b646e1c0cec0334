package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/brightpath/attempt-service/internal/errors"
	"github.com/brightpath/attempt-service/internal/session"
	"github.com/brightpath/attempt-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"learner_id", LearnerID(c),
	}
	fields = append(fields, additionalFields...)
	h.logger.Info(message, fields...)
}

// handleSessionError maps session errors to HTTP status codes. Every branch
// produces a user-facing message; raw errors never reach the response.
func (h *BaseHandler) handleSessionError(c *gin.Context, err error) {
	var hydrationErr *session.HydrationError
	var validationErrs apperrors.ValidationErrors

	switch {
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs,
		})
	case errors.As(err, &hydrationErr):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: hydrationErr.Message,
			Code:    "hydration_failed",
		})
	case errors.Is(err, session.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Attempt not found"})
	case errors.Is(err, session.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found in attempt"})
	case errors.Is(err, session.ErrAttemptAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt already submitted"})
	case errors.Is(err, session.ErrAttemptNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt is not active"})
	case errors.Is(err, session.ErrSubmitFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Submit failed, please try again",
			Code:    "submit_retryable",
		})
	default:
		h.logger.LogError(err, "Unhandled session error", "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

// HealthCheck responds to liveness probes
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
