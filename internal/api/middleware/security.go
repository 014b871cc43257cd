package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// The API only returns JSON and PNG overlays, so nothing may be framed or
// loaded from a response.
const apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// Origins is the CORS allow list. Empty means any origin.
type Origins []string

func (o Origins) orDefault() []string {
	if len(o) == 0 {
		return []string{"*"}
	}
	return o
}

// NewCORS lets a browser front-end on another origin upload photos and read
// the request ID of a failed call. No credentials are exchanged.
func NewCORS(origins Origins) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins.orDefault(),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		ExposeHeaders: []string{
			echo.HeaderXRequestID,
			"Retry-After",
		},
		MaxAge: 600,
	})
}

// NewSecureHeaders sets response hardening headers for a JSON API.
func NewSecureHeaders() echo.MiddlewareFunc {
	return middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: apiContentSecurityPolicy,
	})
}

// NewBodyLimit rejects uploads larger than limit, e.g. "20M", with 413.
func NewBodyLimit(limit string) echo.MiddlewareFunc {
	return middleware.BodyLimit(limit)
}
