package detection

import (
	"fmt"
	"net/http"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
)

const componentName = "detection"

// ErrNotConfigured is returned when no API key is configured.
var ErrNotConfigured = errors.NewStd("Roboflow API key not configured")

// ErrModelNotConfigured is returned when the model id or version is missing.
var ErrModelNotConfigured = errors.NewStd("Roboflow model id and version must be configured")

// ErrEmptyImage is returned when Detect is called without image data.
var ErrEmptyImage = errors.NewStd("image data is empty")

// ServiceError reports a failed call to the detection service.
// StatusCode is zero when no HTTP response was received.
type ServiceError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	return "Roboflow API error: " + e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ErrorCategory implements errors.CategorizedError.
func (e *ServiceError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryService
}

// newServiceError builds a ServiceError, falling back to a generic message
// derived from the status when the service sent none.
func newServiceError(statusCode int, message string, cause error) *ServiceError {
	if message == "" {
		switch {
		case cause != nil:
			message = cause.Error()
		case statusCode > 0:
			message = fmt.Sprintf("request failed with status %d %s", statusCode, http.StatusText(statusCode))
		default:
			message = "request failed"
		}
	}
	return &ServiceError{StatusCode: statusCode, Message: message, Err: cause}
}

// IsConfigurationError reports whether err was caused by missing credentials or model identifiers.
func IsConfigurationError(err error) bool {
	return errors.IsCategory(err, errors.CategoryConfiguration)
}

// AsServiceError returns the ServiceError in err's chain, if any.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}
