package errors

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/getsentry/sentry-go"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
)

// TelemetryReporter receives every EnhancedError built while it is enabled
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var (
	reporterMu         sync.RWMutex
	reporter           TelemetryReporter
	hasActiveReporting atomic.Bool
)

// SetTelemetryReporter installs the global reporter; nil disables reporting
func SetTelemetryReporter(r TelemetryReporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	reporter = r
	hasActiveReporting.Store(r != nil && r.IsEnabled())
}

// GetTelemetryReporter returns the installed reporter, if any
func GetTelemetryReporter() TelemetryReporter {
	reporterMu.RLock()
	defer reporterMu.RUnlock()
	return reporter
}

func reportToTelemetry(ee *EnhancedError) {
	if r := GetTelemetryReporter(); r != nil && r.IsEnabled() {
		r.ReportError(ee)
	}
}

// SentryReporter sends enhanced errors to Sentry with credentials scrubbed.
type SentryReporter struct {
	enabled bool
}

func NewSentryReporter(enabled bool) *SentryReporter {
	return &SentryReporter{enabled: enabled}
}

func (sr *SentryReporter) IsEnabled() bool {
	return sr.enabled
}

// ReportError captures ee once. Caller input errors are sent at info level.
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	if !sr.enabled || ee.IsReported() {
		return
	}

	title := errorTitle(ee)
	message := scrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.Error()))
	level := sentryLevel(ee.Category)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", string(ee.Category))
		scope.SetTag("error_type", fmt.Sprintf("%T", ee.Err))
		scope.SetLevel(level)
		scope.SetFingerprint([]string{title})

		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = scrubMessage(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}

		event := sentry.NewEvent()
		event.Level = level
		event.Message = message
		event.Exception = []sentry.Exception{{Type: title, Value: message}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()
}

// errorTitle groups events by component, category and operation,
// e.g. "Detection Service Error Detect".
func errorTitle(ee *EnhancedError) string {
	var parts []string

	if c := ee.GetComponent(); c != "" && c != ComponentUnknown {
		parts = append(parts, titleCase(c))
	}
	parts = append(parts, categoryTitle(ee.Category))
	if op, ok := ee.GetContext()["operation"].(string); ok && op != "" {
		for word := range strings.FieldsSeq(strings.ReplaceAll(op, "_", " ")) {
			parts = append(parts, titleCase(word))
		}
	}

	return strings.Join(parts, " ")
}

func categoryTitle(c ErrorCategory) string {
	switch c {
	case CategoryService:
		return "Service Error"
	case CategoryImageDecode:
		return "Image Decode Error"
	case CategoryImageEncode:
		return "Image Encode Error"
	case CategoryFileIO:
		return "File I/O Error"
	case CategoryHTTP:
		return "HTTP Request Error"
	case CategoryNotFound:
		return "Not Found Error"
	case "":
		return "Error"
	}
	return titleCase(string(c)) + " Error"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sentryLevel treats transient remote failures as warnings and caller
// mistakes as info.
func sentryLevel(c ErrorCategory) sentry.Level {
	switch c {
	case CategoryNetwork, CategoryTimeout, CategoryService, CategoryLimit:
		return sentry.LevelWarning
	case CategoryValidation, CategoryImageDecode, CategoryNotFound, CategoryState, CategoryCancellation:
		return sentry.LevelInfo
	default:
		return sentry.LevelError
	}
}

var (
	urlQueryPattern = regexp.MustCompile(`(https?://[^?\s]+)\?\S*`)
	longHexPattern  = regexp.MustCompile(`[0-9a-fA-F]{32,}`)
)

// scrubMessage drops URL query strings and credentials from text sent off-host
func scrubMessage(message string) string {
	message = urlQueryPattern.ReplaceAllString(message, "$1?[REDACTED]")
	message = logger.RedactSensitiveData(message)
	return longHexPattern.ReplaceAllString(message, "[REDACTED]")
}
