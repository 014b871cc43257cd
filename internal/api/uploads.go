package api

import (
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/imageutil"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/inspection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/logger"
)

// readImage reads the multipart file in field. The part must be an image;
// when its declared type is missing or generic the content is sniffed.
// Files above the advisory size are accepted with a warning.
func (c *Controller) readImage(ctx echo.Context, field string) (inspection.Image, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return inspection.Image{}, errors.New(fmt.Errorf("missing image file in form field %q: %w", field, err)).
			Component("api").
			Category(errors.CategoryValidation).
			Context("field", field).
			Build()
	}

	f, err := fh.Open()
	if err != nil {
		return inspection.Image{}, errors.New(fmt.Errorf("failed to open upload: %w", err)).
			Component("api").
			Category(errors.CategoryFileIO).
			Build()
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return inspection.Image{}, errors.New(fmt.Errorf("failed to read upload: %w", err)).
			Component("api").
			Category(errors.CategoryFileIO).
			Build()
	}

	contentType := imageutil.ContentType(fh.Header.Get("Content-Type"), data)
	if !imageutil.IsImageContentType(contentType) {
		return inspection.Image{}, errors.Newf("form field %q must contain an image, got %s", field, contentType).
			Component("api").
			Category(errors.CategoryValidation).
			ImageContext(contentType, len(data)).
			Build()
	}
	if len(data) == 0 {
		return inspection.Image{}, errors.Newf("form field %q contains an empty file", field).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}

	if imageutil.ExceedsAdvisoryLimit(len(data)) {
		c.log.Warn("Uploaded image exceeds advisory size",
			logger.String("field", field),
			logger.String("filename", fh.Filename),
			logger.Int("size", len(data)),
			logger.Int("advisory_limit", imageutil.AdvisorySizeLimit))
	}
	if c.metrics != nil {
		c.metrics.HTTP.ObserveUpload(len(data))
	}

	return inspection.NewImage(data, contentType, fh.Filename), nil
}

// readPair reads the "pickup" and "return" form files.
func (c *Controller) readPair(ctx echo.Context) (pickup, ret inspection.Image, err error) {
	if pickup, err = c.readImage(ctx, string(inspection.SidePickup)); err != nil {
		return pickup, ret, err
	}
	ret, err = c.readImage(ctx, string(inspection.SideReturn))
	return pickup, ret, err
}
