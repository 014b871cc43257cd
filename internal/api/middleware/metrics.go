package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability/metrics"
)

// NewMetrics records request counts and latency per route template.
func NewMetrics(m *metrics.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				// The error handler has not written the response yet
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.RecordRequest(c.Request().Method, path, status, time.Since(start).Seconds())
			return err
		}
	}
}
