// Package telemetry wires optional Sentry error reporting into the
// enhanced error pipeline.
package telemetry

import (
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/buildinfo"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/conf"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
)

// DefaultFlushTimeout bounds how long shutdown waits for queued events.
const DefaultFlushTimeout = 2 * time.Second

var enabled atomic.Bool

// GetLogger returns the telemetry package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}

// Init configures Sentry and installs the error reporter. With telemetry
// disabled it clears any previously installed reporter and returns nil.
func Init(settings conf.TelemetrySettings, build *buildinfo.Context) error {
	if !settings.Enabled {
		enabled.Store(false)
		errors.SetTelemetryReporter(nil)
		return nil
	}

	if build == nil {
		build = buildinfo.NewContext("", "")
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "", // never send the hostname
		Release:          build.Release(),
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	enabled.Store(true)
	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	GetLogger().Info("Error telemetry enabled", logger.String("release", build.Release()))

	return nil
}

// Enabled reports whether Init installed a reporter.
func Enabled() bool {
	return enabled.Load()
}

// Flush waits up to timeout for buffered events to be delivered.
func Flush(timeout time.Duration) bool {
	if !enabled.Load() {
		return true
	}
	return sentry.Flush(timeout)
}

// beforeSend strips request details and credentials from outgoing events.
func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.ServerName = ""
	event.User = sentry.User{}
	event.Message = logger.RedactSensitiveData(event.Message)

	for i := range event.Exception {
		event.Exception[i].Value = logger.RedactSensitiveData(event.Exception[i].Value)
	}

	if event.Request != nil {
		event.Request.Cookies = ""
		event.Request.Headers = nil
		event.Request.Data = ""
		if event.Request.QueryString != "" {
			event.Request.QueryString = "[REDACTED]"
		}
		if u, err := url.Parse(event.Request.URL); err == nil {
			event.Request.URL = logger.RedactURL(u)
		}
	}

	return event
}
