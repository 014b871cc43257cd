package errors

import (
	"fmt"
	"time"
)

// ErrorBuilder assembles an EnhancedError
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New starts building an enhanced error around err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf starts building an enhanced error from a formatted message.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name. When unset it is inferred from the
// caller's package.
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the category. When unset it is inferred from the error.
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds a context value
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// ImageContext records an upload's content type and a coarse size bucket.
func (eb *ErrorBuilder) ImageContext(contentType string, size int) *ErrorBuilder {
	if contentType != "" {
		eb.Context("content_type", contentType)
	}
	if size > 0 {
		eb.Context("size_category", sizeBucket(size))
	}
	return eb
}

// Timing records the failed operation and how long it ran.
func (eb *ErrorBuilder) Timing(operation string, elapsed time.Duration) *ErrorBuilder {
	eb.Context("operation", operation)
	eb.Context("duration_ms", elapsed.Milliseconds())
	return eb
}

// Build creates the EnhancedError and hands it to the telemetry reporter,
// if one is enabled.
func (eb *ErrorBuilder) Build() *EnhancedError {
	reporting := hasActiveReporting.Load()

	component := eb.component
	if component == "" {
		// The stack walk only pays off when the component is reported
		component = ComponentUnknown
		if reporting {
			component = detectComponent()
		}
	}

	category := eb.category
	if category == "" {
		category = detectCategory(eb.err)
	}

	ee := &EnhancedError{
		Err:       eb.err,
		Category:  category,
		Context:   eb.context,
		Timestamp: time.Now(),
		component: component,
	}

	if reporting {
		reportToTelemetry(ee)
	}
	return ee
}
