package handlers

import (
	"errors"
	"net/http"

	apperrors "github.com/SAP-F-2025/question-bank-service/internal/errors"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// MessageResponse is returned by mutations that have nothing else to report
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// QuestionListResponse is returned by every bank listing
type QuestionListResponse struct {
	Success   bool        `json:"success"`
	SchoolID  string      `json:"schoolId,omitempty"`
	Questions interface{} `json:"questions"`
	Total     int         `json:"total"`
}

// CreatedResponse is returned when a question is created
type CreatedResponse struct {
	Success    bool   `json:"success"`
	QuestionID string `json:"questionId"`
	Message    string `json:"message"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// requestFields are attached to every handler log line.
func (h *BaseHandler) requestFields(c *gin.Context) []interface{} {
	requestID, _ := c.Get("request_id")
	return []interface{}{
		"request_id", requestID,
		"user_id", h.extractUserID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := append(h.requestFields(c),
		"remote_addr", c.ClientIP(),
		"user_agent", c.Request.UserAgent(),
	)
	h.logger.Info(message, append(fields, additionalFields...)...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := append(h.requestFields(c), additionalFields...)
	h.logger.LogError(err, message, fields...)
}

func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := append(h.requestFields(c), additionalFields...)
	h.logger.Warn(message, fields...)
}

func (h *BaseHandler) extractUserID(c *gin.Context) interface{} {
	if userID, exists := c.Get("user_id"); exists {
		return userID
	}
	return nil
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Error: message,
	}
	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.LogWarn(c, message, "status_code", statusCode)
	}

	c.JSON(statusCode, errorResp)
}

// handleServiceError maps service errors to HTTP responses. Store failures
// are logged with their cause and answered with a generic message.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)

	var validationErrs apperrors.ValidationErrors
	switch {
	case status == http.StatusInternalServerError:
		h.RespondWithError(c, status, "Internal server error", err)
	case errors.As(err, &validationErrs):
		h.RespondWithError(c, status, err.Error(), nil, validationErrs)
	default:
		h.RespondWithError(c, status, err.Error(), nil)
	}
}

// bindJSON decodes the request body or answers 400.
func (h *BaseHandler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return false
	}
	return true
}

func statusOf(err error) int {
	return apperrors.StatusCode(err)
}
