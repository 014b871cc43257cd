// Package middleware provides HTTP middleware components for the inspector API.
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
)

// NewRequestLoggerWithSkipper logs one line per request, tagged with the
// request ID. Server errors log at error level, client errors at warn.
// Echo errors such as 413 and 429 are rendered here so the logged status
// is the one the client sees.
func NewRequestLoggerWithSkipper(log logger.Logger, skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:          skipper,
		HandleError:      true,
		LogStatus:        true,
		LogURI:           true,
		LogRoutePath:     true,
		LogMethod:        true,
		LogLatency:       true,
		LogRemoteIP:      true,
		LogContentLength: true,
		LogError:         true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if log == nil {
				return nil
			}
			reqLog := log.WithContext(c.Request().Context())

			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("route", v.RoutePath),
				logger.String("uri", logger.RedactSensitiveData(v.URI)),
				logger.Int("status", v.Status),
				logger.String("ip", v.RemoteIP),
				logger.String("upload_bytes", v.ContentLength),
				logger.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}

			switch {
			case v.Status >= http.StatusInternalServerError:
				reqLog.Error("request failed", fields...)
			case v.Status >= http.StatusBadRequest || v.Error != nil:
				reqLog.Warn("request rejected", fields...)
			default:
				reqLog.Info("request", fields...)
			}
			return nil
		},
	})
}
