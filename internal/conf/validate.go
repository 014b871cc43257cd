package conf

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	gbytes "github.com/labstack/gommon/bytes"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct. A missing API key
// is not an error here; detection reports it when first used.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	for _, validate := range []func(*Settings) []string{
		validateRoboflowSettings,
		validateDiffSettings,
		validateWebServerSettings,
		validateImageSettings,
		validateSessionSettings,
		validateLogSettings,
		validateTelemetrySettings,
	} {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateRoboflowSettings(s *Settings) []string {
	var errs []string

	u, err := url.Parse(s.Roboflow.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Sprintf("roboflow.baseurl is not a valid URL: %v", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Sprintf("roboflow.baseurl must use http or https, got %q", s.Roboflow.BaseURL))
	case u.Host == "":
		errs = append(errs, "roboflow.baseurl must include a host")
	}

	if s.Roboflow.Timeout <= 0 {
		errs = append(errs, "roboflow.timeout must be positive")
	}

	// Model and version travel in the URL path
	for key, value := range map[string]string{"roboflow.model": s.Roboflow.Model, "roboflow.version": s.Roboflow.Version} {
		if strings.ContainsAny(value, "/?#") {
			errs = append(errs, fmt.Sprintf("%s must not contain '/', '?' or '#'", key))
		}
	}

	return errs
}

func validateDiffSettings(s *Settings) []string {
	t := s.Diff.Threshold
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return []string{fmt.Sprintf("diff.threshold must be a positive number of pixels, got %g", t)}
	}
	return nil
}

func validateWebServerSettings(s *Settings) []string {
	var errs []string

	if strings.TrimSpace(s.WebServer.Listen) == "" {
		errs = append(errs, "webserver.listen must not be empty")
	}
	if n, err := gbytes.Parse(s.WebServer.BodyLimit); err != nil || n <= 0 {
		errs = append(errs, fmt.Sprintf("webserver.bodylimit must be a size like 50M, got %q", s.WebServer.BodyLimit))
	}
	if s.WebServer.RateLimit < 0 || math.IsNaN(s.WebServer.RateLimit) {
		errs = append(errs, "webserver.ratelimit must not be negative")
	}

	return errs
}

func validateImageSettings(s *Settings) []string {
	if s.Images.MaxPixels <= 0 {
		return []string{fmt.Sprintf("images.maxpixels must be positive, got %d", s.Images.MaxPixels)}
	}
	return nil
}

func validateSessionSettings(s *Settings) []string {
	if s.Sessions.TTL <= 0 {
		return []string{"sessions.ttl must be positive"}
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

func validateLogSettings(s *Settings) []string {
	if !validLogLevels[strings.ToLower(s.Logging.Level)] {
		return []string{fmt.Sprintf("logging.level must be one of debug, info, warn, error; got %q", s.Logging.Level)}
	}
	return nil
}

func validateTelemetrySettings(s *Settings) []string {
	if s.Telemetry.Enabled && strings.TrimSpace(s.Telemetry.DSN) == "" {
		return []string{"telemetry.dsn is required when telemetry is enabled"}
	}
	return nil
}
