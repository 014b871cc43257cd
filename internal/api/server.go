package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/api/middleware"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/inspection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability/metrics"
)

// Server is the HTTP server of the inspector. It owns the Echo instance,
// the middleware stack and the session store.
type Server struct {
	echo       *echo.Echo
	config     *Config
	controller *Controller
	store      *inspection.Store
	metrics    *observability.Metrics
	log        logger.Logger
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithMetrics exposes m on /metrics and records HTTP metrics into it.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithStore uses store for sessions instead of creating one.
func WithStore(store *inspection.Store) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// New creates a server routing requests to detector and service.
func New(config *Config, detector detection.Detector, service *inspection.Service, opts ...ServerOption) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.New(fmt.Errorf("invalid server configuration: %w", err)).
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}

	s := &Server{
		config: config,
		log:    GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		var im *metrics.InspectionMetrics
		if s.metrics != nil {
			im = s.metrics.Inspection
		}
		s.store = inspection.NewStore(config.SessionTTL, im)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()

	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
	s.controller = NewController(s.echo, detector, service, s.store, s.metrics)

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Listen),
		logger.String("body_limit", config.BodyLimit),
		logger.Float64("rate_limit", config.RateLimit),
		logger.Bool("debug", config.Debug))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware first
	s.echo.Use(echomw.Recover())

	// Request IDs double as error correlation IDs
	s.echo.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(logger.WithRequestID(c.Request().Context(), id)))
		},
	}))

	if s.metrics != nil {
		s.echo.Use(mw.NewMetrics(s.metrics.HTTP))
	}
	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.log, func(c echo.Context) bool {
		return c.Path() == "/metrics"
	}))

	s.echo.Use(mw.NewCORS(mw.Origins(s.config.AllowedOrigins)))
	s.echo.Use(mw.NewSecureHeaders())

	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewRateLimiter(s.config.RateLimit))
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Store returns the session store.
func (s *Server) Store() *inspection.Store {
	return s.store
}

// ServeHTTP lets the server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run serves until ctx is canceled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", logger.String("address", s.config.Listen))
		if err := s.echo.Start(s.config.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return errors.New(fmt.Errorf("server error: %w", err)).
				Component("api").
				Category(errors.CategoryNetwork).
				Build()
		}
		return nil
	case <-ctx.Done():
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.log.Info("Shutting down HTTP server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
