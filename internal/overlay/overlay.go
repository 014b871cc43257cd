// Package overlay draws detected regions onto a photo: red boxes for new
// damage, blue boxes for damage that was already present.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/detection"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/errors"
	"github.com/youssef-al-mostafa/Hiring-Sprint-2025/internal/imageutil"
)

var (
	// ColorNew marks damage found only at return.
	ColorNew = color.RGBA{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF}

	// ColorExisting marks damage already present at pickup.
	ColorExisting = color.RGBA{R: 0x3B, G: 0x82, B: 0xF6, A: 0xFF}

	labelTextColor = color.White
)

const (
	strokeWidth  = 3
	fillAlpha    = 0x20
	tagHeight    = 25
	tagPaddingX  = 5
	tagBaselineY = 7 // baseline offset above the box top
)

// Render returns a copy of src with every region drawn on it. isNew[i]
// selects the color of regions[i]; missing entries count as existing.
func Render(src image.Image, regions []detection.Region, isNew []bool) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)

	for i, r := range regions {
		c := ColorExisting
		if i < len(isNew) && isNew[i] {
			c = ColorNew
		}
		drawRegion(dst, bounds.Min, r, c)
	}

	return dst
}

// RenderPNG decodes data, draws the regions and writes a PNG to w.
func RenderPNG(w io.Writer, data []byte, regions []detection.Region, isNew []bool) error {
	src, _, err := imageutil.Decode(data)
	if err != nil {
		return errors.New(err).
			Component("overlay").
			Category(errors.CategoryImageDecode).
			Build()
	}

	if err := png.Encode(w, Render(src, regions, isNew)); err != nil {
		return errors.New(fmt.Errorf("failed to encode overlay: %w", err)).
			Component("overlay").
			Category(errors.CategoryImageEncode).
			Build()
	}

	return nil
}

// MarkNew flags which entries of all appear in newRegions. newRegions must be
// an ordered subsequence of all, as produced by the damage diff.
func MarkNew(all, newRegions []detection.Region) []bool {
	marks := make([]bool, len(all))
	j := 0
	for i := range all {
		if j < len(newRegions) && all[i] == newRegions[j] {
			marks[i] = true
			j++
		}
	}
	return marks
}

// Label returns the tag text for a region, e.g. "scratch 87%".
func Label(r detection.Region) string {
	return fmt.Sprintf("%s %d%%", r.Label, r.ConfidencePercent())
}

func drawRegion(dst *image.RGBA, origin image.Point, r detection.Region, c color.RGBA) {
	left, top, width, height := r.Bounds()
	x0 := origin.X + int(math.Round(left))
	y0 := origin.Y + int(math.Round(top))
	x1 := x0 + int(math.Round(width))
	y1 := y0 + int(math.Round(height))

	fill := image.NewUniform(color.NRGBA{R: c.R, G: c.G, B: c.B, A: fillAlpha})
	draw.Draw(dst, image.Rect(x0, y0, x1, y1), fill, image.Point{}, draw.Over)

	strokeRect(dst, image.Rect(x0, y0, x1, y1), c)
	drawTag(dst, x0, y0, Label(r), c)
}

// strokeRect draws a strokeWidth outline centered on rect's edges
func strokeRect(dst *image.RGBA, rect image.Rectangle, c color.RGBA) {
	solid := image.NewUniform(c)
	half := strokeWidth / 2
	lo, hi := -half, strokeWidth-half

	edges := []image.Rectangle{
		image.Rect(rect.Min.X+lo, rect.Min.Y+lo, rect.Max.X+hi, rect.Min.Y+hi), // top
		image.Rect(rect.Min.X+lo, rect.Max.Y+lo, rect.Max.X+hi, rect.Max.Y+hi), // bottom
		image.Rect(rect.Min.X+lo, rect.Min.Y+lo, rect.Min.X+hi, rect.Max.Y+hi), // left
		image.Rect(rect.Max.X+lo, rect.Min.Y+lo, rect.Max.X+hi, rect.Max.Y+hi), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e, solid, image.Point{}, draw.Src)
	}
}

// drawTag fills a tag directly above the box and writes text on it in white
func drawTag(dst *image.RGBA, x, boxTop int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()

	tag := image.Rect(x, boxTop-tagHeight, x+textWidth+2*tagPaddingX, boxTop)
	draw.Draw(dst, tag, image.NewUniform(c), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelTextColor),
		Face: face,
		Dot:  fixed.P(x+tagPaddingX, boxTop-tagBaselineY),
	}
	d.DrawString(text)
}
