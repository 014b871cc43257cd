package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/inspection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/observability"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/similarity"
)

// APIPrefix is the path prefix of all JSON endpoints.
const APIPrefix = "/api/v1"

// Controller holds the handlers and their dependencies.
type Controller struct {
	Group    *echo.Group
	detector detection.Detector
	service  *inspection.Service
	store    *inspection.Store
	metrics  *observability.Metrics
	log      logger.Logger

	startTime time.Time
}

// NewController registers the API routes on e.
func NewController(e *echo.Echo, detector detection.Detector, service *inspection.Service,
	store *inspection.Store, metrics *observability.Metrics) *Controller {
	c := &Controller{
		Group:     e.Group(APIPrefix),
		detector:  detector,
		service:   service,
		store:     store,
		metrics:   metrics,
		log:       GetLogger(),
		startTime: time.Now(),
	}
	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.Group.POST("/detect", c.Detect)
	c.Group.POST("/compare", c.Compare)
	c.Group.POST("/similarity", c.Similarity)

	c.Group.POST("/sessions", c.CreateSession)
	c.Group.GET("/sessions/:id", c.GetSession)
	c.Group.DELETE("/sessions/:id", c.DeleteSession)
	c.Group.PUT("/sessions/:id/images/:side", c.UploadSessionImage)
	c.Group.POST("/sessions/:id/analyze", c.AnalyzeSession)
	c.Group.POST("/sessions/:id/reset", c.ResetSession)
	c.Group.GET("/sessions/:id/overlay/:side", c.SessionOverlay)
}

// HealthCheck handles the API health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	configured := true
	if cd, ok := c.detector.(interface{ Configured() bool }); ok {
		configured = cd.Configured()
	}

	uptime := time.Since(c.startTime)
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":               "healthy",
		"detection_configured": configured,
		"active_sessions":      c.store.Len(),
		"uptime":               uptime.Round(time.Second).String(),
		"uptime_seconds":       uptime.Seconds(),
		"timestamp":            time.Now().Format(time.RFC3339),
	})
}

// Detect runs detection on a single uploaded image.
func (c *Controller) Detect(ctx echo.Context) error {
	img, err := c.readImage(ctx, "image")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid image upload")
	}

	result, err := c.detector.Detect(ctx.Request().Context(), img.Data)
	if err != nil {
		return c.HandleError(ctx, err, "Damage detection failed")
	}

	return ctx.JSON(http.StatusOK, result)
}

// Compare assesses an uploaded pickup/return pair in one call.
func (c *Controller) Compare(ctx echo.Context) error {
	pickup, ret, err := c.readPair(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid image upload")
	}

	assessment, err := c.service.Assess(ctx.Request().Context(), pickup, ret)
	if err != nil {
		return c.HandleError(ctx, err, "Damage comparison failed")
	}

	return ctx.JSON(http.StatusOK, assessment)
}

// SimilarityResponse is the body returned by the similarity endpoint.
type SimilarityResponse struct {
	Score     similarity.Score `json:"score"`
	Level     similarity.Level `json:"level"`
	Message   string           `json:"message"`
	Available bool             `json:"available"`
}

// Similarity scores an uploaded pair without calling the detection service.
// Undecodable images score 0 with available=false.
func (c *Controller) Similarity(ctx echo.Context) error {
	pickup, ret, err := c.readPair(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid image upload")
	}

	score, simErr := similarity.CompareStrict(pickup.Data, ret.Data)
	if simErr != nil {
		c.log.Warn("Similarity check unavailable", logger.Error(simErr))
		score = 0
	}
	level := score.Level()

	return ctx.JSON(http.StatusOK, SimilarityResponse{
		Score:     score,
		Level:     level,
		Message:   level.Message(),
		Available: simErr == nil,
	})
}
