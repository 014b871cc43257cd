package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/inspection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // the X-Request-ID of the request
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString(),
	}
}

// StatusFor maps an error to the HTTP status reported to clients.
func StatusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, inspection.ErrInvalidTransition), errors.IsCategory(err, errors.CategoryState):
		return http.StatusConflict
	case errors.IsCategory(err, errors.CategoryNotFound):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryConfiguration):
		return http.StatusServiceUnavailable
	case errors.IsCategory(err, errors.CategoryValidation),
		errors.IsCategory(err, errors.CategoryImageDecode):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryTimeout):
		return http.StatusGatewayTimeout
	case errors.IsCategory(err, errors.CategoryService),
		errors.IsCategory(err, errors.CategoryNetwork),
		errors.IsCategory(err, errors.CategoryLimit):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes an ErrorResponse and logs it under the same correlation id.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	code := StatusFor(err)
	resp := NewErrorResponse(err, message, code)
	if id := logger.RequestIDFrom(ctx.Request().Context()); id != "" {
		resp.CorrelationID = id
	}

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
		logger.Error(err),
	}
	if code >= http.StatusInternalServerError {
		c.log.Error("API error", fields...)
	} else {
		c.log.Warn("API error", fields...)
	}

	return ctx.JSON(code, resp)
}
