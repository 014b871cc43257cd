package api

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/inspection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/overlay"
)

// CreateSession starts a new idle inspection.
func (c *Controller) CreateSession(ctx echo.Context) error {
	sess := c.store.Create()
	c.log.Debug("Inspection session created", logger.String("session_id", sess.ID))
	return ctx.JSON(http.StatusCreated, sess)
}

// GetSession returns the session's state and, when ready, its assessment.
func (c *Controller) GetSession(ctx echo.Context) error {
	sess, err := c.store.Get(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Session not found")
	}
	return ctx.JSON(http.StatusOK, sess)
}

// DeleteSession discards the session.
func (c *Controller) DeleteSession(ctx echo.Context) error {
	if err := c.store.Delete(ctx.Param("id")); err != nil {
		return c.HandleError(ctx, err, "Session not found")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// UploadSessionImage sets the pickup or return image from form field "image".
func (c *Controller) UploadSessionImage(ctx echo.Context) error {
	side, err := inspection.ParseSide(ctx.Param("side"))
	if err != nil {
		return c.HandleError(ctx, err, "Invalid image side")
	}

	img, err := c.readImage(ctx, "image")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid image upload")
	}

	sess, err := c.store.Update(ctx.Param("id"), func(s *inspection.Session) error {
		return s.SetImage(side, img)
	})
	if err != nil {
		return c.HandleError(ctx, err, "Cannot set image")
	}
	return ctx.JSON(http.StatusOK, sess)
}

// AnalyzeSession runs the assessment. On failure the session is left in
// the failed state and may be retried.
func (c *Controller) AnalyzeSession(ctx echo.Context) error {
	sess, err := c.service.Analyze(ctx.Request().Context(), c.store, ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Analysis failed")
	}
	return ctx.JSON(http.StatusOK, sess)
}

// ResetSession drops both images and any result.
func (c *Controller) ResetSession(ctx echo.Context) error {
	sess, err := c.store.Update(ctx.Param("id"), func(s *inspection.Session) error {
		return s.Reset()
	})
	if err != nil {
		return c.HandleError(ctx, err, "Cannot reset session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

// SessionOverlay renders the detected regions onto one of the session's
// images. Return-side regions that are new damage are drawn in red.
func (c *Controller) SessionOverlay(ctx echo.Context) error {
	side, err := inspection.ParseSide(ctx.Param("side"))
	if err != nil {
		return c.HandleError(ctx, err, "Invalid image side")
	}

	sess, err := c.store.Get(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Session not found")
	}

	result, ok := sess.Result()
	if !ok {
		return c.HandleError(ctx, errors.New(inspection.ErrInvalidTransition).
			Component("api").
			Category(errors.CategoryState).
			Context("state", string(sess.State)).
			Build(), "No result available for this session")
	}
	img, ok := sess.Image(side)
	if !ok {
		return c.HandleError(ctx, errors.Newf("session has no %s image", side).
			Component("api").
			Category(errors.CategoryNotFound).
			Build(), "Image not found")
	}

	regions := result.Comparison.Pickup.Regions
	var isNew []bool
	if side == inspection.SideReturn {
		regions = result.Comparison.Return.Regions
		isNew = overlay.MarkNew(regions, result.Comparison.NewRegions)
	}

	var buf bytes.Buffer
	if err := overlay.RenderPNG(&buf, img.Data, regions, isNew); err != nil {
		return c.HandleError(ctx, err, "Failed to render overlay")
	}

	return ctx.Blob(http.StatusOK, "image/png", buf.Bytes())
}
